package database

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestCopyRuns(t *testing.T) {
	src := openTestDB(t)
	for _, name := range []string{"road", "circuit", "scifi"} {
		if _, err := src.SaveRun(sampleRun(name), sampleHistory()); err != nil {
			t.Fatalf("SaveRun(%s): %v", name, err)
		}
	}

	dst, err := Open(filepath.Join(t.TempDir(), "copy.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer dst.Close()

	stats, err := CopyRuns(src, dst, true)
	if err != nil || stats.Copied != 3 {
		t.Fatalf("CopyRuns(dry run) = %+v, %v, want 3 copied", stats, err)
	}
	if count, _ := dst.CountRuns(""); count != 0 {
		t.Fatalf("dry run wrote %d runs", count)
	}

	stats, err = CopyRuns(src, dst, false)
	if err != nil || stats.Copied != 3 || stats.Skipped != 0 {
		t.Fatalf("CopyRuns() = %+v, %v, want 3 copied", stats, err)
	}

	runs, err := dst.ListRuns(0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("len(runs) = %d, want 3", len(runs))
	}
	// Oldest first in, so the newest copy is the last source run
	if runs[0].Tileset != "scifi" {
		t.Errorf("newest copied run = %s, want scifi", runs[0].Tileset)
	}

	history, err := dst.GetCollapses(runs[0].ID)
	if err != nil {
		t.Fatalf("GetCollapses: %v", err)
	}
	if len(history) != len(sampleHistory()) {
		t.Errorf("copied %d collapses, want %d", len(history), len(sampleHistory()))
	}
}

func TestCopyRunsSkipsCopiedRuns(t *testing.T) {
	src := openTestDB(t)
	for _, name := range []string{"road", "circuit"} {
		if _, err := src.SaveRun(sampleRun(name), sampleHistory()); err != nil {
			t.Fatalf("SaveRun(%s): %v", name, err)
		}
	}

	dst, err := Open(filepath.Join(t.TempDir(), "copy.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer dst.Close()

	if _, err := CopyRuns(src, dst, false); err != nil {
		t.Fatalf("first CopyRuns: %v", err)
	}

	// One more run arrives in the source before the second copy
	if _, err := src.SaveRun(sampleRun("scifi"), sampleHistory()); err != nil {
		t.Fatalf("SaveRun(scifi): %v", err)
	}

	stats, err := CopyRuns(src, dst, true)
	if err != nil || stats.Copied != 1 || stats.Skipped != 2 {
		t.Fatalf("CopyRuns(dry run) = %+v, %v, want 1 copied 2 skipped", stats, err)
	}

	stats, err = CopyRuns(src, dst, false)
	if err != nil {
		t.Fatalf("second CopyRuns: %v", err)
	}
	if stats.Copied != 1 || stats.Skipped != 2 {
		t.Errorf("second CopyRuns = %+v, want 1 copied 2 skipped", stats)
	}
	if count, _ := dst.CountRuns(""); count != 3 {
		t.Errorf("target holds %d runs, want 3", count)
	}
}

func TestSaveRunDuplicateOrigin(t *testing.T) {
	db := openTestDB(t)

	run := sampleRun("road")
	run.Origin = "abc123/1/7"
	if _, err := db.SaveRun(run, sampleHistory()); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	got, err := db.GetRun(run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Origin != run.Origin {
		t.Errorf("Origin = %q, want %q", got.Origin, run.Origin)
	}

	_, err = db.SaveRun(sampleRun("road"), sampleHistory())
	if err != nil {
		t.Fatalf("runs without an origin never collide: %v", err)
	}

	again := sampleRun("road")
	again.Origin = run.Origin
	if _, err := db.SaveRun(again, sampleHistory()); !errors.Is(err, ErrDuplicateRun) {
		t.Errorf("SaveRun(same origin) error = %v, want ErrDuplicateRun", err)
	}
	if count, _ := db.CountRuns(""); count != 2 {
		t.Errorf("CountRuns = %d, want 2", count)
	}
}
