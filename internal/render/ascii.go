// Package render draws engine snapshots as text, as PNG images, and exports
// finished runs as YAML.
package render

import (
	"fmt"
	"strings"

	"github.com/lawnchairsociety/wavetiles/internal/wfc"
)

const (
	glyphContradiction = '!'
	glyphManyOptions   = '+'
	glyphOverflow      = '#'
)

// BaseGlyph returns the letter used for a base tile index: A..Z, then a..z,
// then '#'.
func BaseGlyph(base int) rune {
	switch {
	case base < 0:
		return '?'
	case base < 26:
		return rune('A' + base)
	case base < 52:
		return rune('a' + base - 26)
	default:
		return glyphOverflow
	}
}

// CellGlyph returns the character for one cell: the base tile letter once
// collapsed, the remaining candidate count (0-9, '+' above) while open, or
// '!' for a contradiction.
func CellGlyph(v wfc.CellView, catalog *wfc.Catalog) rune {
	switch v.State {
	case wfc.CellCollapsed:
		return BaseGlyph(catalog.Tile(v.Tile).Base)
	case wfc.CellContradiction:
		return glyphContradiction
	}
	if v.Candidates > 9 {
		return glyphManyOptions
	}
	return rune('0' + v.Candidates)
}

// ASCII renders the snapshot as a text grid with a header line.
func ASCII(s *wfc.Snapshot, catalog *wfc.Catalog) string {
	var out strings.Builder

	out.WriteString(fmt.Sprintf("Grid %dx%d  step %d  %s", s.Columns, s.Rows, s.Steps, s.State))
	if s.Outcome != wfc.OutcomePending.String() {
		out.WriteString(" (" + s.Outcome + ")")
	}
	out.WriteString("\n")

	for row := 0; row < s.Rows; row++ {
		for col := 0; col < s.Columns; col++ {
			out.WriteRune(CellGlyph(s.At(col, row), catalog))
		}
		out.WriteString("\n")
	}

	if s.Contradictions > 0 {
		out.WriteString(fmt.Sprintf("%d contradiction(s)\n", s.Contradictions))
	}
	return out.String()
}

// Legend lists the letter assigned to each base tile.
func Legend(catalog *wfc.Catalog) string {
	var out strings.Builder
	out.WriteString("Legend:\n")

	seen := -1
	for _, t := range catalog.Tiles() {
		if t.Base == seen {
			continue
		}
		seen = t.Base
		out.WriteString(fmt.Sprintf("  %c  %-40s [%s]\n", BaseGlyph(t.Base), t.Name, strings.Join(t.Connectors[:], " ")))
	}
	out.WriteString("  0-9 open cell, remaining options (+ for 10 or more)\n")
	out.WriteString("  !   contradiction\n")
	return out.String()
}
