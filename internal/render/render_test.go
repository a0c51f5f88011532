package render

import (
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lawnchairsociety/wavetiles/internal/wfc"
)

func testCatalog() *wfc.Catalog {
	return wfc.BuildCatalog([]wfc.Tile{
		wfc.NewTile("land.png", 1, "A", "A", "A", "A"),
		wfc.NewTile("water.png", 1, "B", "B", "B", "B"),
	})
}

func newEngine(t *testing.T, catalog *wfc.Catalog, cols, rows int) *wfc.Engine {
	t.Helper()
	e, err := wfc.NewEngine(catalog, cols, rows, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func TestBaseGlyph(t *testing.T) {
	tests := []struct {
		base int
		want rune
	}{
		{0, 'A'},
		{25, 'Z'},
		{26, 'a'},
		{51, 'z'},
		{52, '#'},
		{200, '#'},
	}
	for _, tt := range tests {
		if got := BaseGlyph(tt.base); got != tt.want {
			t.Errorf("BaseGlyph(%d) = %q, want %q", tt.base, got, tt.want)
		}
	}
}

func TestCellGlyph(t *testing.T) {
	catalog := testCatalog()

	tests := []struct {
		name string
		view wfc.CellView
		want rune
	}{
		{"collapsed land", wfc.CellView{State: wfc.CellCollapsed, Tile: 2}, 'A'},
		{"collapsed water", wfc.CellView{State: wfc.CellCollapsed, Tile: 5}, 'B'},
		{"open eight", wfc.CellView{State: wfc.CellOpen, Candidates: 8}, '8'},
		{"open many", wfc.CellView{State: wfc.CellOpen, Candidates: 12}, '+'},
		{"contradiction", wfc.CellView{State: wfc.CellContradiction}, '!'},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CellGlyph(tt.view, catalog); got != tt.want {
				t.Errorf("CellGlyph() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestASCIIFreshGrid(t *testing.T) {
	catalog := testCatalog()
	e := newEngine(t, catalog, 4, 2)

	out := ASCII(e.Snapshot(), catalog)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header + 2 rows:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "Grid 4x2  step 0  running") {
		t.Errorf("header = %q", lines[0])
	}
	for _, row := range lines[1:] {
		if row != "8888" {
			t.Errorf("row = %q, want 8888", row)
		}
	}
}

func TestASCIICompletedGrid(t *testing.T) {
	catalog := testCatalog()
	e := newEngine(t, catalog, 3, 3)
	if _, err := e.RunToCompletion(); err != nil {
		t.Fatalf("RunToCompletion: %v", err)
	}

	out := ASCII(e.Snapshot(), catalog)
	if !strings.Contains(out, "(complete)") {
		t.Errorf("missing outcome in header:\n%s", out)
	}

	// land and water never touch, so one run fills the grid with one letter
	rows := strings.Split(strings.TrimRight(out, "\n"), "\n")[1:]
	first := rows[0][0]
	for _, row := range rows {
		if row != strings.Repeat(string(first), 3) {
			t.Errorf("row = %q, want all %c", row, first)
		}
	}
}

func TestASCIIContradiction(t *testing.T) {
	catalog := wfc.BuildCatalog([]wfc.Tile{wfc.NewTile("clash", 1, "Xa", "Xa", "Xa", "Xa")})
	e := newEngine(t, catalog, 3, 1)
	if _, err := e.RunToCompletion(); err != nil {
		t.Fatalf("RunToCompletion: %v", err)
	}

	out := ASCII(e.Snapshot(), catalog)
	if !strings.Contains(out, "!") {
		t.Errorf("expected a contradiction glyph:\n%s", out)
	}
	if !strings.Contains(out, "contradiction(s)") {
		t.Errorf("expected contradiction count:\n%s", out)
	}
}

func TestLegend(t *testing.T) {
	legend := Legend(testCatalog())

	if !strings.Contains(legend, "A  land.png") {
		t.Errorf("legend missing land:\n%s", legend)
	}
	if !strings.Contains(legend, "B  water.png") {
		t.Errorf("legend missing water:\n%s", legend)
	}
	if strings.Count(legend, "land.png") != 1 {
		t.Errorf("variants should not be listed:\n%s", legend)
	}
}

func TestPNG(t *testing.T) {
	catalog := testCatalog()
	e := newEngine(t, catalog, 5, 3)
	for i := 0; i < 4; i++ {
		if err := e.Step(); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}

	path := filepath.Join(t.TempDir(), "out", "grid.png")
	if err := PNG(e.Snapshot(), catalog, 10, path); err != nil {
		t.Fatalf("PNG: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open png: %v", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 50 || b.Dy() != 30 {
		t.Errorf("image size = %dx%d, want 50x30", b.Dx(), b.Dy())
	}
}

func TestDrawRejectsBadCellSize(t *testing.T) {
	catalog := testCatalog()
	e := newEngine(t, catalog, 2, 2)
	if _, err := Draw(e.Snapshot(), catalog, 0); err == nil {
		t.Error("expected error for zero cell size")
	}
}

func TestBaseColorsDiffer(t *testing.T) {
	if BaseColor(0) == BaseColor(1) {
		t.Error("adjacent base tiles share a color")
	}
}

func TestRunYAMLRoundTrip(t *testing.T) {
	catalog := testCatalog()
	e := newEngine(t, catalog, 3, 2)
	if _, err := e.RunToCompletion(); err != nil {
		t.Fatalf("RunToCompletion: %v", err)
	}

	start := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	run := &RunExport{
		Tileset:     "test",
		Fingerprint: "ff00",
		Seed:        3,
		Columns:     3,
		Rows:        2,
		Outcome:     e.Outcome().String(),
		Steps:       e.Steps(),
		StartedAt:   start,
		FinishedAt:  start.Add(time.Second),
		History:     e.History(),
	}

	path := filepath.Join(t.TempDir(), "exports", "run.yaml")
	if err := WriteRunYAML(path, run); err != nil {
		t.Fatalf("WriteRunYAML: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.HasPrefix(string(data), "# test run on a 3x2 grid") {
		t.Errorf("missing header comment:\n%s", data)
	}

	got, err := ReadRunYAML(path)
	if err != nil {
		t.Fatalf("ReadRunYAML: %v", err)
	}
	if got.Tileset != run.Tileset || got.Steps != run.Steps || !got.StartedAt.Equal(start) {
		t.Errorf("ReadRunYAML = %+v", got)
	}

	// the export is enough to rebuild the same grid
	replay := newEngine(t, catalog, got.Columns, got.Rows)
	if err := replay.Replay(got.History); err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if ASCII(replay.Snapshot(), catalog) == "" {
		t.Fatal("empty render")
	}
	want := e.Snapshot()
	have := replay.Snapshot()
	for i := range want.Cells {
		if want.Cells[i].Tile != have.Cells[i].Tile {
			t.Errorf("cell %d tile = %d, want %d", i, have.Cells[i].Tile, want.Cells[i].Tile)
		}
	}
}

func TestReadRunYAMLInvalid(t *testing.T) {
	dir := t.TempDir()

	if _, err := ReadRunYAML(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(bad, []byte("tileset: x\ncolumns: 0\nrows: 2\n"), 0644)
	if _, err := ReadRunYAML(bad); err == nil {
		t.Error("expected error for zero columns")
	}
}
