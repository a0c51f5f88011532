package database

import (
	"errors"
	"fmt"
)

// CopyStats counts what CopyRuns did.
type CopyStats struct {
	Copied  int
	Skipped int // already present in the target
}

// runOrigin identifies a source run across archives.
func runOrigin(run *Run) string {
	if run.Origin != "" {
		return run.Origin
	}
	return fmt.Sprintf("%s/%d/%d", run.Fingerprint, run.StartedAt.UnixNano(), run.ID)
}

// CopyRuns copies every run and its collapse log from src into dst, oldest
// first. Copied runs get new ids in dst and remember their source run, so a
// second copy into the same target skips what is already there. With dryRun
// set nothing is written and the stats report what would happen.
func CopyRuns(src, dst *Database, dryRun bool) (CopyStats, error) {
	var stats CopyStats

	runs, err := src.ListRuns(0)
	if err != nil {
		return stats, fmt.Errorf("list source runs: %w", err)
	}

	// ListRuns is newest first
	for i := len(runs) - 1; i >= 0; i-- {
		run := runs[i]
		sourceID := run.ID
		run.Origin = runOrigin(&run)

		if dryRun {
			exists, err := dst.HasOrigin(run.Origin)
			if err != nil {
				return stats, fmt.Errorf("check run %d: %w", sourceID, err)
			}
			if exists {
				stats.Skipped++
			} else {
				stats.Copied++
			}
			continue
		}

		history, err := src.GetCollapses(sourceID)
		if err != nil {
			return stats, fmt.Errorf("read run %d: %w", sourceID, err)
		}
		if _, err := dst.SaveRun(&run, history); err != nil {
			if errors.Is(err, ErrDuplicateRun) {
				stats.Skipped++
				continue
			}
			return stats, fmt.Errorf("write run %d: %w", sourceID, err)
		}
		stats.Copied++
	}
	return stats, nil
}
