package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lawnchairsociety/wavetiles/internal/config"
	"github.com/lawnchairsociety/wavetiles/internal/database"
	"github.com/lawnchairsociety/wavetiles/internal/render"
	"github.com/lawnchairsociety/wavetiles/internal/tileset"
	"github.com/lawnchairsociety/wavetiles/internal/wfc"
)

func main() {
	dbFile := flag.String("db", "data/wavetiles.db", "Path to SQLite run archive")
	limit := flag.Int("limit", 20, "Number of runs to list (0 for all)")
	runID := flag.Int64("run", 0, "Replay the archived run with this id")
	yamlFile := flag.String("yaml", "", "Replay an exported run YAML file instead of the archive")
	tilesetOverride := flag.String("tileset", "", "Tileset to replay against (default: the one recorded with the run)")
	pngPath := flag.String("png", "", "Also write the replayed grid as PNG")
	cellSize := flag.Int("cell-size", config.DefaultConfig().Output.CellSize, "PNG cell size in pixels")
	deleteID := flag.Int64("delete", 0, "Delete the archived run with this id")
	flag.Parse()

	if *yamlFile != "" {
		export, err := render.ReadRunYAML(*yamlFile)
		if err != nil {
			fatal("%v", err)
		}
		r := replayRequest{
			tileset:     pick(*tilesetOverride, export.Tileset),
			fingerprint: export.Fingerprint,
			columns:     export.Columns,
			rows:        export.Rows,
			seed:        export.Seed,
			outcome:     export.Outcome,
			history:     export.History,
		}
		if err := replay(r, *pngPath, *cellSize); err != nil {
			fatal("%v", err)
		}
		return
	}

	db, err := database.Open(*dbFile)
	if err != nil {
		fatal("failed to open database: %v", err)
	}
	defer db.Close()

	switch {
	case *deleteID != 0:
		if err := db.DeleteRun(*deleteID); err != nil {
			fatal("%v", err)
		}
		fmt.Printf("Run %d deleted.\n", *deleteID)

	case *runID != 0:
		run, err := db.GetRun(*runID)
		if err != nil {
			fatal("%v", err)
		}
		history, err := db.GetCollapses(run.ID)
		if err != nil {
			fatal("%v", err)
		}
		fmt.Printf("Run %d: %s %dx%d seed %d, %s after %d steps (%s)\n",
			run.ID, run.Tileset, run.Columns, run.Rows, run.Seed, run.Outcome, run.Steps,
			run.Duration().Round(time.Millisecond))

		r := replayRequest{
			tileset:     pick(*tilesetOverride, run.Tileset),
			fingerprint: run.Fingerprint,
			columns:     run.Columns,
			rows:        run.Rows,
			seed:        run.Seed,
			outcome:     run.Outcome,
			history:     history,
		}
		if err := replay(r, *pngPath, *cellSize); err != nil {
			fatal("%v", err)
		}

	default:
		if err := listRuns(db, *limit); err != nil {
			fatal("%v", err)
		}
	}
}

func listRuns(db *database.Database, limit int) error {
	runs, err := db.ListRuns(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs archived.")
		return nil
	}

	fmt.Printf("%-6s %-12s %-7s %-20s %-14s %6s  %s\n", "ID", "TILESET", "GRID", "SEED", "OUTCOME", "STEPS", "FINISHED")
	for _, r := range runs {
		fmt.Printf("%-6d %-12s %-7s %-20d %-14s %6d  %s\n",
			r.ID, displayName(r.Tileset), fmt.Sprintf("%dx%d", r.Columns, r.Rows), r.Seed, r.Outcome, r.Steps,
			r.FinishedAt.Local().Format("2006-01-02 15:04:05"))
	}
	return nil
}

type replayRequest struct {
	tileset     string
	fingerprint string
	columns     int
	rows        int
	seed        int64
	outcome     string
	history     []wfc.HistoryEntry
}

// rebuild resolves the recorded tileset, checks it still matches and
// re-applies the collapse log to a fresh engine.
func rebuild(r replayRequest) (*wfc.Engine, *wfc.Catalog, error) {
	set, err := tileset.Resolve(r.tileset)
	if err != nil {
		return nil, nil, err
	}
	if fp := set.Fingerprint(); r.fingerprint != "" && fp != r.fingerprint {
		return nil, nil, fmt.Errorf("tileset %q has changed since the run was recorded (fingerprint %.12s, recorded %.12s)",
			set.Name, fp, r.fingerprint)
	}

	catalog := set.Catalog()
	engine, err := wfc.NewEngine(catalog, r.columns, r.rows, rand.New(rand.NewSource(r.seed)))
	if err != nil {
		return nil, nil, err
	}
	if err := engine.Replay(r.history); err != nil {
		return nil, nil, err
	}
	return engine, catalog, nil
}

// replay rebuilds a grid from its collapse log and prints it.
func replay(r replayRequest, pngPath string, cellSize int) error {
	engine, catalog, err := rebuild(r)
	if err != nil {
		return err
	}

	snapshot := engine.Snapshot()
	fmt.Print(render.ASCII(snapshot, catalog))
	fmt.Print(render.Legend(catalog))
	if r.outcome != "" && r.outcome != snapshot.Outcome {
		fmt.Printf("Warning: recorded outcome %s, replay ended %s\n", r.outcome, snapshot.Outcome)
	}

	if pngPath != "" {
		if err := render.PNG(snapshot, catalog, cellSize, pngPath); err != nil {
			return err
		}
		fmt.Printf("PNG written to %s\n", pngPath)
	}
	return nil
}

// displayName shortens a tileset file path to its base name for the listing.
func displayName(ref string) string {
	return strings.TrimSuffix(filepath.Base(ref), filepath.Ext(ref))
}

func pick(override, recorded string) string {
	if override != "" {
		return override
	}
	return recorded
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
