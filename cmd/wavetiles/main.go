package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lawnchairsociety/wavetiles/internal/config"
	"github.com/lawnchairsociety/wavetiles/internal/database"
	"github.com/lawnchairsociety/wavetiles/internal/logger"
	"github.com/lawnchairsociety/wavetiles/internal/tileset"
	"github.com/lawnchairsociety/wavetiles/internal/tui"
	"github.com/lawnchairsociety/wavetiles/internal/viewer"
	"github.com/lawnchairsociety/wavetiles/internal/wfc"
)

func main() {
	configFile := flag.String("config", "data/wavetiles.yaml", "Path to config YAML file")
	loggingConfig := flag.String("logging", "data/logging.yaml", "Path to logging config YAML file")
	tilesetName := flag.String("tileset", "", "Built-in tileset name or path to a tileset YAML file")
	columns := flag.Int("columns", 0, "Grid columns (overrides config)")
	rows := flag.Int("rows", 0, "Grid rows (overrides config)")
	seed := flag.Int64("seed", 0, "Random seed (default: random based on current time)")
	mode := flag.String("mode", "batch", "Run mode: batch, serve or tui")
	pngPath := flag.String("png", "", "Write a PNG of the finished grid")
	exportPath := flag.String("export", "", "Write the finished run as YAML")
	dbFile := flag.String("db", "", "Path to SQLite run archive (overrides config)")
	noStore := flag.Bool("no-store", false, "Do not archive runs")
	listTilesets := flag.Bool("list-tilesets", false, "List built-in tilesets and exit")
	flag.Parse()

	if *listTilesets {
		for _, name := range tileset.Names() {
			set, _ := tileset.Builtin(name)
			fmt.Printf("%-10s %3d tiles  %s\n", name, len(set.Tiles), set.Description)
		}
		return
	}

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config %s, using defaults: %v\n", *configFile, err)
	}

	// Explicit flags win over the config file
	seedSet := false
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "tileset":
			cfg.Tileset = *tilesetName
		case "columns":
			cfg.Grid.Columns = *columns
		case "rows":
			cfg.Grid.Rows = *rows
		case "seed":
			cfg.Seed = *seed
			seedSet = true
		case "png":
			cfg.Output.PNGPath = *pngPath
		case "export":
			cfg.Output.ExportPath = *exportPath
		case "db":
			cfg.Storage.Driver = "sqlite"
			cfg.Storage.SQLitePath = *dbFile
		case "no-store":
			cfg.Storage.Enabled = !*noStore
		}
	})
	if cfg.Seed != 0 {
		seedSet = true
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger first (before any logging)
	logConfig, err := logger.LoadConfig(*loggingConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	if *mode == "tui" {
		// The terminal belongs to the UI
		logConfig.ConsoleEnabled = false
	}
	if err := logger.Initialize(logConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logging: %v\n", err)
	}
	defer logger.Close()

	set, err := tileset.Resolve(cfg.Tileset)
	if err != nil {
		log.Fatalf("Failed to load tileset: %v", err)
	}
	logger.Info("Tileset loaded",
		"name", set.Name,
		"tiles", len(set.Tiles),
		"variants", set.Catalog().Len(),
		"fingerprint", set.Fingerprint())

	runSeed := cfg.Seed
	if !seedSet {
		runSeed = time.Now().UnixNano()
	}
	logger.Info("Seed selected", "seed", runSeed, "random", !seedSet)

	var store *database.Database
	if cfg.Storage.Enabled {
		store, err = openStore(cfg.Storage)
		if err != nil {
			logger.Warning("Failed to open run archive, runs will not be saved", "error", err)
			store = nil
		} else {
			defer store.Close()
		}
	}

	switch *mode {
	case "batch":
		outcome, err := runBatch(cfg, set, runSeed, store)
		if err != nil {
			log.Fatalf("Generation failed: %v", err)
		}
		if status := batchStatus(outcome, store); status != 0 {
			logger.Close()
			os.Exit(status)
		}

	case "serve":
		if err := runServe(cfg, set, runSeed, seedSet, store); err != nil {
			log.Fatalf("Viewer error: %v", err)
		}

	case "tui":
		if err := runTUI(cfg, set, runSeed, store); err != nil {
			log.Fatalf("Terminal UI error: %v", err)
		}

	default:
		fmt.Fprintf(os.Stderr, "Error: unknown mode %q (want batch, serve or tui)\n", *mode)
		os.Exit(1)
	}
}

func runServe(cfg *config.Config, set *tileset.Set, seed int64, seedSet bool, store *database.Database) error {
	opts := []viewer.Option{viewer.WithLogger(logger.With("viewer"))}
	if seedSet {
		opts = append(opts, viewer.WithSeed(seed))
	}
	if store != nil {
		opts = append(opts, viewer.WithStore(store))
	}

	srv, err := viewer.New(cfg.Viewer, set, cfg.Grid.Columns, cfg.Grid.Rows, opts...)
	if err != nil {
		return err
	}

	switch {
	case len(cfg.Viewer.AllowedOrigins) == 0:
		logger.Info("Viewer CORS policy", "mode", "same-origin")
	case len(cfg.Viewer.AllowedOrigins) == 1 && cfg.Viewer.AllowedOrigins[0] == "*":
		logger.Warning("Viewer CORS allows all origins (not recommended for production)")
	default:
		logger.Info("Viewer CORS policy", "allowed_origins", cfg.Viewer.AllowedOrigins)
	}
	logger.Info("Press Ctrl+C to shutdown")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.ListenAndServe(ctx); err != nil {
		return err
	}
	logger.Info("Viewer stopped")
	return nil
}

func runTUI(cfg *config.Config, set *tileset.Set, seed int64, store *database.Database) error {
	rng := rand.New(rand.NewSource(seed))
	engine, err := wfc.NewEngine(set.Catalog(), cfg.Grid.Columns, cfg.Grid.Rows,
		rng, wfc.WithLogger(logger.With("engine")))
	if err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}

	// Every run after a reset gets the next seed, so each archived run
	// reproduces from its own seed
	runSeed := seed
	started := time.Now()
	app := tui.New(screen, engine, set.Name,
		tui.WithInterval(cfg.Viewer.StepInterval()),
		tui.WithLogger(logger.With("tui")),
		tui.OnFinish(func(e *wfc.Engine) {
			archiveRun(store, set, runSeed, e, started)
		}),
		tui.OnReset(func() {
			runSeed++
			rng.Seed(runSeed)
			started = time.Now()
			logger.Debug("Terminal run reseeded", "seed", runSeed)
		}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
