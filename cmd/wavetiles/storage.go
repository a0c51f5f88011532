package main

import (
	"time"

	"github.com/lawnchairsociety/wavetiles/internal/config"
	"github.com/lawnchairsociety/wavetiles/internal/database"
	"github.com/lawnchairsociety/wavetiles/internal/logger"
	"github.com/lawnchairsociety/wavetiles/internal/tileset"
	"github.com/lawnchairsociety/wavetiles/internal/wfc"
)

// databaseConfig maps the storage section onto the archive's connection
// settings, keeping the archive's pool defaults for PostgreSQL.
func databaseConfig(s config.StorageConfig) database.Config {
	if s.Driver != string(database.DialectPostgres) {
		return database.DefaultConfig(s.SQLitePath)
	}

	pg := database.DefaultPostgresConfig()
	if s.Postgres.Host != "" {
		pg.Host = s.Postgres.Host
	}
	if s.Postgres.Port != 0 {
		pg.Port = s.Postgres.Port
	}
	if s.Postgres.Database != "" {
		pg.Database = s.Postgres.Database
	}
	if s.Postgres.SSLMode != "" {
		pg.SSLMode = s.Postgres.SSLMode
	}
	pg.User = s.Postgres.User
	pg.Password = s.Postgres.Password

	return database.Config{
		Driver:   string(database.DialectPostgres),
		Postgres: pg,
	}
}

func openStore(s config.StorageConfig) (*database.Database, error) {
	cfg := databaseConfig(s)
	db, err := database.OpenWithConfig(cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("Run archive opened", "driver", cfg.Driver)
	return db, nil
}

// archiveRun saves a stopped engine's run and returns its id, or 0 if there
// is no archive or the save failed.
func archiveRun(store *database.Database, set *tileset.Set, seed int64, e *wfc.Engine, started time.Time) int64 {
	if store == nil {
		return 0
	}

	run := &database.Run{
		Tileset:        set.Ref(),
		Fingerprint:    set.Fingerprint(),
		Seed:           seed,
		Columns:        e.Grid().Columns,
		Rows:           e.Grid().Rows,
		Outcome:        e.Outcome().String(),
		Contradictions: len(e.Grid().Contradictions()),
		StartedAt:      started,
		FinishedAt:     time.Now(),
	}
	id, err := store.SaveRun(run, e.History())
	if err != nil {
		logger.Warning("Failed to archive run", "error", err)
		return 0
	}
	logger.Debug("Run archived", "run_id", id)
	return id
}
