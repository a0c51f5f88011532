package render

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lawnchairsociety/wavetiles/internal/wfc"
)

// RunExport is the YAML form of a finished run. The history is enough to
// rebuild the grid with Engine.Replay against the same tileset.
type RunExport struct {
	Tileset     string             `yaml:"tileset"`
	Fingerprint string             `yaml:"fingerprint"`
	Seed        int64              `yaml:"seed"`
	Columns     int                `yaml:"columns"`
	Rows        int                `yaml:"rows"`
	Outcome     string             `yaml:"outcome"`
	Steps       int                `yaml:"steps"`
	StartedAt   time.Time          `yaml:"started_at"`
	FinishedAt  time.Time          `yaml:"finished_at"`
	History     []wfc.HistoryEntry `yaml:"history"`
}

// WriteRunYAML writes a run export to path.
func WriteRunYAML(path string, run *RunExport) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	fmt.Fprintf(f, "# %s run on a %dx%d grid\n", run.Tileset, run.Columns, run.Rows)
	fmt.Fprintf(f, "# Seed: %d, outcome: %s after %d steps\n\n", run.Seed, run.Outcome, run.Steps)

	encoder := yaml.NewEncoder(f)
	encoder.SetIndent(2)
	if err := encoder.Encode(run); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return f.Close()
}

// ReadRunYAML loads a run export written by WriteRunYAML.
func ReadRunYAML(path string) (*RunExport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read run export: %w", err)
	}

	var run RunExport
	if err := yaml.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("failed to parse run export: %w", err)
	}
	if run.Columns <= 0 || run.Rows <= 0 {
		return nil, fmt.Errorf("run export %s: invalid grid %dx%d", path, run.Columns, run.Rows)
	}
	return &run, nil
}
