package database

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lawnchairsociety/wavetiles/internal/wfc"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleRun(tileset string) *Run {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &Run{
		Tileset:        tileset,
		Fingerprint:    "abc123",
		Seed:           42,
		Columns:        3,
		Rows:           2,
		Outcome:        "complete",
		Contradictions: 0,
		StartedAt:      start,
		FinishedAt:     start.Add(1500 * time.Millisecond),
	}
}

func sampleHistory() []wfc.HistoryEntry {
	return []wfc.HistoryEntry{
		{Step: 1, Position: wfc.Position{Column: 1, Row: 0}, Tile: 4},
		{Step: 2, Position: wfc.Position{Column: 0, Row: 0}, Tile: 0},
		{Step: 3, Position: wfc.Position{Column: 2, Row: 1}, Tile: 7},
	}
}

func TestOpen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "runs.db")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}

	for _, table := range []string{"runs", "run_collapses"} {
		var count int
		if err := db.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
			t.Errorf("Failed to query %s table: %v", table, err)
		}
	}

	if _, ok := db.dialect.(*SQLiteDialect); !ok {
		t.Errorf("dialect = %T, want *SQLiteDialect", db.dialect)
	}
}

func TestOpenTwiceKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := db.SaveRun(sampleRun("road"), sampleHistory()); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	db.Close()

	db, err = Open(dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()

	count, err := db.CountRuns("")
	if err != nil {
		t.Fatalf("CountRuns: %v", err)
	}
	if count != 1 {
		t.Errorf("CountRuns() = %d, want 1", count)
	}
}

func TestOpenWithConfigUnknownDriver(t *testing.T) {
	_, err := OpenWithConfig(Config{Driver: "oracle"})
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestClose(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Errorf("Failed to close database: %v", err)
	}

	var count int
	if err := db.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&count); err == nil {
		t.Error("Expected error querying closed database")
	}
}

func TestSaveAndGetRun(t *testing.T) {
	db := openTestDB(t)

	run := sampleRun("circuit")
	id, err := db.SaveRun(run, sampleHistory())
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if id <= 0 || run.ID != id {
		t.Fatalf("SaveRun id = %d, run.ID = %d", id, run.ID)
	}

	got, err := db.GetRun(id)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Tileset != "circuit" || got.Fingerprint != "abc123" || got.Seed != 42 {
		t.Errorf("GetRun = %+v", got)
	}
	if got.Columns != 3 || got.Rows != 2 {
		t.Errorf("size = %dx%d, want 3x2", got.Columns, got.Rows)
	}
	if got.Steps != 3 {
		t.Errorf("Steps = %d, want 3 (from history length)", got.Steps)
	}
	if got.Outcome != "complete" {
		t.Errorf("Outcome = %q, want complete", got.Outcome)
	}
	if !got.StartedAt.Equal(run.StartedAt) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, run.StartedAt)
	}
	if got.Duration() != 1500*time.Millisecond {
		t.Errorf("Duration() = %v, want 1.5s", got.Duration())
	}
}

func TestGetRunNotFound(t *testing.T) {
	db := openTestDB(t)

	_, err := db.GetRun(999)
	if !errors.Is(err, ErrRunNotFound) {
		t.Errorf("GetRun(999) error = %v, want ErrRunNotFound", err)
	}
}

func TestGetCollapses(t *testing.T) {
	db := openTestDB(t)

	id, err := db.SaveRun(sampleRun("road"), sampleHistory())
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	history, err := db.GetCollapses(id)
	if err != nil {
		t.Fatalf("GetCollapses: %v", err)
	}
	want := sampleHistory()
	if len(history) != len(want) {
		t.Fatalf("len(history) = %d, want %d", len(history), len(want))
	}
	for i := range want {
		if history[i] != want[i] {
			t.Errorf("history[%d] = %+v, want %+v", i, history[i], want[i])
		}
	}

	empty, err := db.GetCollapses(id + 100)
	if err != nil {
		t.Fatalf("GetCollapses(missing): %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected no collapses for a missing run, got %d", len(empty))
	}
}

func TestSaveRunDuplicateStepRollsBack(t *testing.T) {
	db := openTestDB(t)

	history := append(sampleHistory(), sampleHistory()[0])
	if _, err := db.SaveRun(sampleRun("road"), history); err == nil {
		t.Fatal("expected error for duplicate step")
	}

	count, err := db.CountRuns("")
	if err != nil {
		t.Fatalf("CountRuns: %v", err)
	}
	if count != 0 {
		t.Errorf("CountRuns() = %d after failed save, want 0", count)
	}
}

func TestListRuns(t *testing.T) {
	db := openTestDB(t)

	for _, name := range []string{"road", "circuit", "scifi", "road"} {
		if _, err := db.SaveRun(sampleRun(name), sampleHistory()); err != nil {
			t.Fatalf("SaveRun(%s): %v", name, err)
		}
	}

	all, err := db.ListRuns(0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("len(ListRuns(0)) = %d, want 4", len(all))
	}
	if all[0].ID < all[1].ID {
		t.Error("ListRuns should return newest first")
	}

	limited, err := db.ListRuns(2)
	if err != nil {
		t.Fatalf("ListRuns(2): %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("len(ListRuns(2)) = %d, want 2", len(limited))
	}

	roads, err := db.CountRuns("road")
	if err != nil {
		t.Fatalf("CountRuns: %v", err)
	}
	if roads != 2 {
		t.Errorf("CountRuns(road) = %d, want 2", roads)
	}
}

func TestDeleteRun(t *testing.T) {
	db := openTestDB(t)

	id, err := db.SaveRun(sampleRun("road"), sampleHistory())
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	if err := db.DeleteRun(id); err != nil {
		t.Fatalf("DeleteRun: %v", err)
	}
	if _, err := db.GetRun(id); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("GetRun after delete = %v, want ErrRunNotFound", err)
	}

	var collapses int
	if err := db.db.QueryRow("SELECT COUNT(*) FROM run_collapses").Scan(&collapses); err != nil {
		t.Fatalf("count collapses: %v", err)
	}
	if collapses != 0 {
		t.Errorf("run_collapses has %d rows after delete, want 0 (cascade)", collapses)
	}

	if err := db.DeleteRun(id); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("second DeleteRun = %v, want ErrRunNotFound", err)
	}
}
