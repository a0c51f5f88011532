package wfc

import (
	"fmt"
	"math"
)

// CellStatus is the stored lifecycle status of a cell.
type CellStatus int

const (
	StatusOpen CellStatus = iota
	StatusCollapsed
)

// String returns the string representation of a CellStatus
func (s CellStatus) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusCollapsed:
		return "collapsed"
	default:
		return "unknown"
	}
}

// CellState is the observable state of a cell. It separates an open cell that
// still has options from one that propagation has emptied, so neither the
// selector nor a renderer has to infer breakage from a zero entropy.
type CellState int

const (
	CellOpen CellState = iota
	CellContradiction
	CellCollapsed
)

// String returns the string representation of a CellState
func (s CellState) String() string {
	switch s {
	case CellOpen:
		return "open"
	case CellContradiction:
		return "contradiction"
	case CellCollapsed:
		return "collapsed"
	default:
		return "unknown"
	}
}

// Cell is one grid position's superposition over the remaining tiles.
type Cell struct {
	Column, Row int

	status       CellStatus
	candidates   []int
	entropy      float64
	chosen       int
	contradicted bool
}

func newCell(column, row int) *Cell {
	return &Cell{
		Column: column,
		Row:    row,
		status: StatusOpen,
		chosen: -1,
	}
}

// Status returns OPEN or COLLAPSED.
func (c *Cell) Status() CellStatus {
	return c.status
}

// State returns the tri-state view of the cell.
func (c *Cell) State() CellState {
	switch {
	case c.status == StatusCollapsed:
		return CellCollapsed
	case c.contradicted:
		return CellContradiction
	default:
		return CellOpen
	}
}

// IsOpen returns true while the cell has not been collapsed.
func (c *Cell) IsOpen() bool {
	return c.status == StatusOpen
}

// IsContradiction returns true for an open cell whose candidates were all
// removed by propagation.
func (c *Cell) IsContradiction() bool {
	return c.status == StatusOpen && c.contradicted
}

// Entropy returns the last computed entropy of the cell.
func (c *Cell) Entropy() float64 {
	return c.entropy
}

// Candidates returns a copy of the remaining candidate tile ids.
func (c *Cell) Candidates() []int {
	out := make([]int, len(c.candidates))
	copy(out, c.candidates)
	return out
}

// CandidateCount returns the number of remaining candidates.
func (c *Cell) CandidateCount() int {
	return len(c.candidates)
}

// HasCandidate returns true if id is still a candidate.
func (c *Cell) HasCandidate(id int) bool {
	for _, cand := range c.candidates {
		if cand == id {
			return true
		}
	}
	return false
}

// ChosenTile returns the collapsed tile id. ok is false while the cell is open.
func (c *Cell) ChosenTile() (id int, ok bool) {
	if c.status != StatusCollapsed {
		return -1, false
	}
	return c.chosen, true
}

// Position returns the cell coordinates.
func (c *Cell) Position() Position {
	return Position{Column: c.Column, Row: c.Row}
}

// String formats the cell for logs and error messages.
func (c *Cell) String() string {
	return fmt.Sprintf("cell(%d,%d)", c.Column, c.Row)
}

// setCandidates replaces the candidate set and clears any contradiction flag.
func (c *Cell) setCandidates(ids []int) {
	c.candidates = ids
	c.contradicted = false
}

// collapseTo commits the cell to a tile.
func (c *Cell) collapseTo(id int) {
	c.chosen = id
	c.status = StatusCollapsed
	c.candidates = nil
	c.contradicted = false
	c.entropy = 0
}

// calculateEntropy computes the weighted Shannon entropy of the candidates:
//
//	ln(sum w) - sum(w * ln w) / sum w
func (c *Cell) calculateEntropy(catalog *Catalog) {
	if len(c.candidates) == 0 || c.status == StatusCollapsed {
		c.entropy = 0
		return
	}

	var sumW, sumWLogW float64
	for _, id := range c.candidates {
		w := catalog.Weight(id)
		sumW += w
		sumWLogW += w * math.Log(w)
	}
	c.entropy = math.Log(sumW) - sumWLogW/sumW
}

// Position is a grid coordinate.
type Position struct {
	Column int `json:"column" yaml:"column"`
	Row    int `json:"row" yaml:"row"`
}

// String formats the position as "col,row".
func (p Position) String() string {
	return fmt.Sprintf("%d,%d", p.Column, p.Row)
}
