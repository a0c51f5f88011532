package wfc

// CellView is the render-facing view of one cell.
type CellView struct {
	Column     int       `json:"column"`
	Row        int       `json:"row"`
	State      CellState `json:"-"`
	StateName  string    `json:"state"`
	Candidates int       `json:"candidates"`
	Tile       int       `json:"tile"` // -1 unless collapsed
	Entropy    float64   `json:"entropy"`
}

// Snapshot is a copy of the grid state that a renderer can hold on to after
// the engine moves on.
type Snapshot struct {
	Columns        int        `json:"columns"`
	Rows           int        `json:"rows"`
	Steps          int        `json:"steps"`
	State          string     `json:"state"`
	Outcome        string     `json:"outcome"`
	Collapsed      int        `json:"collapsed"`
	Contradictions int        `json:"contradictions"`
	Cells          []CellView `json:"cells"` // row-major
}

// At returns the view of the cell at (column,row).
func (s *Snapshot) At(column, row int) CellView {
	return s.Cells[row*s.Columns+column]
}

// Snapshot captures the current grid state.
func (e *Engine) Snapshot() *Snapshot {
	g := e.grid
	s := &Snapshot{
		Columns: g.Columns,
		Rows:    g.Rows,
		Steps:   len(e.history),
		State:   e.state.String(),
		Outcome: e.outcome.String(),
		Cells:   make([]CellView, 0, g.Columns*g.Rows),
	}

	g.Cells(func(c *Cell) {
		v := CellView{
			Column:     c.Column,
			Row:        c.Row,
			State:      c.State(),
			StateName:  c.State().String(),
			Candidates: len(c.candidates),
			Tile:       -1,
			Entropy:    c.entropy,
		}
		switch v.State {
		case CellCollapsed:
			v.Tile = c.chosen
			s.Collapsed++
		case CellContradiction:
			s.Contradictions++
		}
		s.Cells = append(s.Cells, v)
	})
	return s
}
