package render

import (
	"fmt"
	"hash/fnv"
	"math"
	"os"
	"path/filepath"

	"github.com/gogpu/gg"

	"github.com/lawnchairsociety/wavetiles/internal/wfc"
)

var (
	background    = gg.Hex("#1e1e24")
	contradiction = gg.RGB(0.85, 0.1, 0.1)
)

// BaseColor returns the fill color of a base tile. Hues are spread with the
// golden angle so neighbouring indices differ.
func BaseColor(base int) gg.RGBA {
	return gg.HSL(math.Mod(float64(base)*137.508, 360), 0.45, 0.45)
}

// connectorColor gives each edge label a stable color.
func connectorColor(label string) gg.RGBA {
	h := fnv.New32a()
	h.Write([]byte(label))
	return gg.HSL(float64(h.Sum32()%360), 0.8, 0.7)
}

// Draw renders the snapshot onto a new context, cellSize pixels per cell.
// The caller owns the returned context.
func Draw(s *wfc.Snapshot, catalog *wfc.Catalog, cellSize int) (*gg.Context, error) {
	if cellSize <= 0 {
		return nil, fmt.Errorf("render: cell size must be positive, got %d", cellSize)
	}

	dc := gg.NewContext(s.Columns*cellSize, s.Rows*cellSize)
	dc.ClearWithColor(background)

	size := float64(cellSize)
	total := float64(catalog.Len())

	for _, v := range s.Cells {
		x := float64(v.Column) * size
		y := float64(v.Row) * size

		switch v.State {
		case wfc.CellCollapsed:
			tile := catalog.Tile(v.Tile)
			dc.SetColor(BaseColor(tile.Base).Color())
			dc.DrawRectangle(x, y, size, size)
			if err := dc.Fill(); err != nil {
				return nil, err
			}
			if err := drawConnectors(dc, tile, x, y, size); err != nil {
				return nil, err
			}
		case wfc.CellContradiction:
			dc.SetColor(contradiction.Color())
			dc.DrawRectangle(x+1, y+1, size-2, size-2)
			if err := dc.Fill(); err != nil {
				return nil, err
			}
		default:
			// fewer candidates draw lighter
			l := 0.15 + 0.45*(1-float64(v.Candidates)/total)
			dc.SetRGB(l, l, l)
			dc.DrawRectangle(x+1, y+1, size-2, size-2)
			if err := dc.Fill(); err != nil {
				return nil, err
			}
		}
	}
	return dc, nil
}

// drawConnectors draws a stub from the cell center toward each edge, colored
// by the edge label.
func drawConnectors(dc *gg.Context, tile wfc.Tile, x, y, size float64) error {
	cx, cy := x+size/2, y+size/2
	dc.SetLineWidth(math.Max(1, size/8))

	for _, dir := range wfc.AllDirections() {
		ex, ey := cx, cy
		switch dir {
		case wfc.Up:
			ey = y
		case wfc.Right:
			ex = x + size
		case wfc.Down:
			ey = y + size
		case wfc.Left:
			ex = x
		}

		dc.SetColor(connectorColor(tile.Connector(dir)).Color())
		dc.DrawLine(cx, cy, ex, ey)
		if err := dc.Stroke(); err != nil {
			return err
		}
	}
	return nil
}

// PNG draws the snapshot and writes it to path, creating the directory.
func PNG(s *wfc.Snapshot, catalog *wfc.Catalog, cellSize int, path string) error {
	dc, err := Draw(s, catalog, cellSize)
	if err != nil {
		return err
	}
	defer dc.Close()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
