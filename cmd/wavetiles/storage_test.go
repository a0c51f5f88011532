package main

import (
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/lawnchairsociety/wavetiles/internal/config"
	"github.com/lawnchairsociety/wavetiles/internal/database"
	"github.com/lawnchairsociety/wavetiles/internal/tileset"
	"github.com/lawnchairsociety/wavetiles/internal/wfc"
)

func TestDatabaseConfigSQLite(t *testing.T) {
	cfg := databaseConfig(config.StorageConfig{Driver: "sqlite", SQLitePath: "runs.db"})
	if cfg.Driver != "sqlite" || cfg.SQLitePath != "runs.db" {
		t.Errorf("databaseConfig() = %+v", cfg)
	}
}

func TestDatabaseConfigPostgres(t *testing.T) {
	cfg := databaseConfig(config.StorageConfig{
		Driver: "postgres",
		Postgres: config.PostgresConfig{
			Host: "db.internal",
			User: "tiles",
		},
	})

	if cfg.Driver != "postgres" {
		t.Fatalf("Driver = %q, want postgres", cfg.Driver)
	}
	pg := cfg.Postgres
	if pg.Host != "db.internal" || pg.User != "tiles" {
		t.Errorf("Host, User = %q, %q", pg.Host, pg.User)
	}
	// Unset fields keep the archive defaults
	if pg.Port != 5432 || pg.Database != "wavetiles" || pg.MaxOpenConns != 10 {
		t.Errorf("defaults lost: %+v", pg)
	}
}

func TestArchiveRun(t *testing.T) {
	db, err := database.Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	set, _ := tileset.Builtin("road")
	e, err := wfc.NewEngine(set.Catalog(), 4, 4, rand.New(rand.NewSource(11)))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if _, err := e.RunToCompletion(); err != nil {
		t.Fatalf("RunToCompletion: %v", err)
	}

	id := archiveRun(db, set, 11, e, time.Now())
	if id == 0 {
		t.Fatal("archiveRun returned 0")
	}
	run, err := db.GetRun(id)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Tileset != "road" || run.Seed != 11 || run.Steps != e.Steps() {
		t.Errorf("run = %+v", run)
	}

	if got := archiveRun(nil, set, 11, e, time.Now()); got != 0 {
		t.Errorf("archiveRun(nil) = %d, want 0", got)
	}
}

func TestBatchStatusClosesArchive(t *testing.T) {
	db, err := database.Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	if status := batchStatus(wfc.OutcomeComplete, db); status != 0 {
		t.Errorf("batchStatus(complete) = %d, want 0", status)
	}
	if _, err := db.CountRuns(""); err != nil {
		t.Fatalf("archive closed after a complete run: %v", err)
	}

	if status := batchStatus(wfc.OutcomeContradiction, db); status != 2 {
		t.Errorf("batchStatus(contradiction) = %d, want 2", status)
	}
	if _, err := db.CountRuns(""); err == nil {
		t.Error("archive still open before exiting on a contradiction")
	}

	if status := batchStatus(wfc.OutcomeContradiction, nil); status != 2 {
		t.Errorf("batchStatus(contradiction, no archive) = %d, want 2", status)
	}
}
