package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/lawnchairsociety/wavetiles/internal/config"
	"github.com/lawnchairsociety/wavetiles/internal/database"
	"github.com/lawnchairsociety/wavetiles/internal/logger"
	"github.com/lawnchairsociety/wavetiles/internal/render"
	"github.com/lawnchairsociety/wavetiles/internal/tileset"
	"github.com/lawnchairsociety/wavetiles/internal/wfc"
)

// runBatch generates one grid to completion and writes the configured
// outputs.
func runBatch(cfg *config.Config, set *tileset.Set, seed int64, store *database.Database) (wfc.Outcome, error) {
	catalog := set.Catalog()
	engine, err := wfc.NewEngine(catalog, cfg.Grid.Columns, cfg.Grid.Rows,
		rand.New(rand.NewSource(seed)), wfc.WithLogger(logger.With("engine")))
	if err != nil {
		return wfc.OutcomePending, err
	}

	started := time.Now()
	outcome, err := engine.RunToCompletion()
	if err != nil {
		return outcome, err
	}
	finished := time.Now()

	snapshot := engine.Snapshot()
	if cfg.Output.ASCII {
		fmt.Print(render.ASCII(snapshot, catalog))
		fmt.Print(render.Legend(catalog))
	}

	if cfg.Output.PNGPath != "" {
		if err := render.PNG(snapshot, catalog, cfg.Output.CellSize, cfg.Output.PNGPath); err != nil {
			logger.Error("Failed to write PNG", "path", cfg.Output.PNGPath, "error", err)
		} else {
			logger.Info("PNG written", "path", cfg.Output.PNGPath)
		}
	}

	if cfg.Output.ExportPath != "" {
		export := &render.RunExport{
			Tileset:     set.Ref(),
			Fingerprint: set.Fingerprint(),
			Seed:        seed,
			Columns:     cfg.Grid.Columns,
			Rows:        cfg.Grid.Rows,
			Outcome:     outcome.String(),
			Steps:       engine.Steps(),
			StartedAt:   started,
			FinishedAt:  finished,
			History:     engine.History(),
		}
		if err := render.WriteRunYAML(cfg.Output.ExportPath, export); err != nil {
			logger.Error("Failed to write run export", "path", cfg.Output.ExportPath, "error", err)
		} else {
			logger.Info("Run exported", "path", cfg.Output.ExportPath)
		}
	}

	runID := archiveRun(store, set, seed, engine, started)

	logger.Result("Generation finished",
		"tileset", set.Name,
		"seed", seed,
		"outcome", outcome.String(),
		"steps", engine.Steps(),
		"run_id", runID,
		"duration", finished.Sub(started).Round(time.Microsecond))

	if outcome == wfc.OutcomeContradiction {
		fmt.Printf("Generation stopped: %v\nRe-run with a different -seed.\n", engine.Failure())
	}
	return outcome, nil
}

// batchStatus returns the process exit status for a batch outcome: 2 for a
// contradiction. A non-zero status closes the archive first because
// os.Exit skips deferred calls.
func batchStatus(outcome wfc.Outcome, store *database.Database) int {
	if outcome != wfc.OutcomeContradiction {
		return 0
	}
	if store != nil {
		if err := store.Close(); err != nil {
			logger.Warning("Failed to close run archive", "error", err)
		}
	}
	return 2
}
