package wfc

import (
	"fmt"
	"math"
)

// Random is the source of randomness the grid draws from. *rand.Rand
// satisfies it.
type Random interface {
	Float64() float64
	Intn(n int) int
}

// Grid is a columns × rows lattice of cells over a tile catalog.
type Grid struct {
	Columns, Rows int

	catalog *Catalog
	rng     Random
	cells   [][]*Cell // cells[row][column]
}

// NewGrid creates a grid bound to a catalog. Cells are not allocated until
// Initialize is called.
func NewGrid(catalog *Catalog, rng Random) (*Grid, error) {
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	return &Grid{catalog: catalog, rng: rng}, nil
}

// Catalog returns the catalog the grid draws from.
func (g *Grid) Catalog() *Catalog {
	return g.catalog
}

// Initialize allocates a fresh open cell for every position, discarding any
// previous cells. Candidate sets start empty; see ResetCandidates.
func (g *Grid) Initialize(columns, rows int) error {
	if columns <= 0 || rows <= 0 {
		return fmt.Errorf("%dx%d: %w", columns, rows, ErrInvalidSize)
	}

	g.Columns = columns
	g.Rows = rows
	g.cells = make([][]*Cell, rows)
	for y := 0; y < rows; y++ {
		g.cells[y] = make([]*Cell, columns)
		for x := 0; x < columns; x++ {
			g.cells[y][x] = newCell(x, y)
		}
	}
	return nil
}

// Initialized returns true once Initialize has allocated cells.
func (g *Grid) Initialized() bool {
	return len(g.cells) > 0
}

// ResetCandidates gives every cell the full catalog as candidates and
// recomputes its entropy.
func (g *Grid) ResetCandidates() error {
	if !g.Initialized() {
		return ErrNotInitialized
	}
	for _, row := range g.cells {
		for _, cell := range row {
			cell.setCandidates(g.catalog.AllIDs())
			cell.calculateEntropy(g.catalog)
		}
	}
	return nil
}

// InBounds reports whether (column,row) lies within the grid.
func (g *Grid) InBounds(column, row int) bool {
	return column >= 0 && column < g.Columns && row >= 0 && row < g.Rows
}

// Cell returns the cell at the given position.
func (g *Grid) Cell(column, row int) (*Cell, error) {
	if !g.Initialized() {
		return nil, ErrNotInitialized
	}
	if !g.InBounds(column, row) {
		return nil, fmt.Errorf("(%d,%d) in %dx%d grid: %w", column, row, g.Columns, g.Rows, ErrOutOfBounds)
	}
	return g.cells[row][column], nil
}

// Cells calls fn for every cell in row-major order.
func (g *Grid) Cells(fn func(c *Cell)) {
	for _, row := range g.cells {
		for _, cell := range row {
			fn(cell)
		}
	}
}

// neighborCoords returns the coordinates of a neighbor in the given direction
func neighborCoords(column, row int, dir Direction) (int, int) {
	switch dir {
	case Up:
		return column, row - 1
	case Right:
		return column + 1, row
	case Down:
		return column, row + 1
	case Left:
		return column - 1, row
	}
	return column, row
}

// neighbor returns the cell in direction dir from c, or nil at the edge.
func (g *Grid) neighbor(c *Cell, dir Direction) *Cell {
	nx, ny := neighborCoords(c.Column, c.Row, dir)
	if !g.InBounds(nx, ny) {
		return nil
	}
	return g.cells[ny][nx]
}

// Neighbors returns the existing neighbors of c in UP, RIGHT, DOWN, LEFT
// order. Edge cells return three, corners two.
func (g *Grid) Neighbors(c *Cell) []*Cell {
	neighbors := make([]*Cell, 0, 4)
	for _, dir := range AllDirections() {
		if n := g.neighbor(c, dir); n != nil {
			neighbors = append(neighbors, n)
		}
	}
	return neighbors
}

// RecomputeEntropy refreshes the cached entropy of c.
func (g *Grid) RecomputeEntropy(c *Cell) {
	c.calculateEntropy(g.catalog)
}

// LeastEntropyCell returns an open cell with the lowest entropy, picking
// uniformly at random among ties. A contradicted cell is returned ahead of
// any other so the caller sees the failure before collapsing more cells.
// Returns nil when no open cell is left.
func (g *Grid) LeastEntropyCell() (*Cell, error) {
	if !g.Initialized() {
		return nil, ErrNotInitialized
	}

	var contradictions []*Cell
	var lowest []*Cell
	lowestValue := math.Inf(1)

	for _, row := range g.cells {
		for _, cell := range row {
			switch cell.State() {
			case CellCollapsed:
				continue
			case CellContradiction:
				contradictions = append(contradictions, cell)
				continue
			}

			switch {
			case cell.entropy < lowestValue:
				lowestValue = cell.entropy
				lowest = append(lowest[:0], cell)
			case cell.entropy == lowestValue:
				lowest = append(lowest, cell)
			}
		}
	}

	if len(contradictions) > 0 {
		return contradictions[g.rng.Intn(len(contradictions))], nil
	}
	if len(lowest) == 0 {
		return nil, nil
	}
	return lowest[g.rng.Intn(len(lowest))], nil
}

// Collapse commits c to one of its candidates, chosen with probability
// proportional to tile weight. Returns the chosen tile id.
func (g *Grid) Collapse(c *Cell) (int, error) {
	if c.status != StatusOpen || len(c.candidates) == 0 {
		return -1, fmt.Errorf("collapse %s: %w", c, ErrNoCandidates)
	}

	id := g.weightedPick(c.candidates)
	c.collapseTo(id)
	return id, nil
}

// CollapseTo commits c to a specific candidate tile.
func (g *Grid) CollapseTo(c *Cell, id int) error {
	if c.status != StatusOpen || len(c.candidates) == 0 {
		return fmt.Errorf("collapse %s: %w", c, ErrNoCandidates)
	}
	if !c.HasCandidate(id) {
		return fmt.Errorf("collapse %s to tile %d: %w", c, id, ErrNotCandidate)
	}
	c.collapseTo(id)
	return nil
}

// weightedPick draws r in [0,1) and walks the candidates accumulating
// w/sum(w) until the running fraction reaches r.
func (g *Grid) weightedPick(candidates []int) int {
	if len(candidates) == 1 {
		return candidates[0]
	}

	var total float64
	for _, id := range candidates {
		total += g.catalog.Weight(id)
	}

	r := g.rng.Float64()
	var cumulative float64
	for _, id := range candidates {
		cumulative += g.catalog.Weight(id) / total
		if cumulative >= r {
			return id
		}
	}
	// Rounding can leave cumulative a hair under r
	return candidates[len(candidates)-1]
}

// Propagate narrows the candidates of each open neighbor of the collapsed
// cell c to the tiles that fit next to c's tile. It looks one hop only:
// neighbors of neighbors are narrowed when the neighbor itself collapses.
//
// A neighbor left with no candidates is flagged as a contradiction and kept
// open. Returns how many contradictions this call produced.
func (g *Grid) Propagate(c *Cell) (int, error) {
	chosen, ok := c.ChosenTile()
	if !ok {
		return 0, fmt.Errorf("propagate from open %s: %w", c, ErrNoCandidates)
	}

	contradictions := 0
	for _, dir := range AllDirections() {
		n := g.neighbor(c, dir)
		if n == nil || !n.IsOpen() {
			continue
		}

		// The neighbor looks back at c across the opposite edge
		back := dir.Opposite()
		valid := make([]int, 0, len(n.candidates))
		for _, id := range n.candidates {
			if g.catalog.Compatible(id, chosen, back) {
				valid = append(valid, id)
			}
		}

		n.candidates = valid
		if len(valid) == 0 && !n.contradicted {
			n.contradicted = true
			contradictions++
		}
		n.calculateEntropy(g.catalog)
	}
	return contradictions, nil
}

// IsComplete returns true when no cell is open.
func (g *Grid) IsComplete() bool {
	if !g.Initialized() {
		return false
	}
	for _, row := range g.cells {
		for _, cell := range row {
			if cell.IsOpen() {
				return false
			}
		}
	}
	return true
}

// Contradictions returns every open cell whose candidates ran out.
func (g *Grid) Contradictions() []*Cell {
	var out []*Cell
	g.Cells(func(c *Cell) {
		if c.IsContradiction() {
			out = append(out, c)
		}
	})
	return out
}

// CollapsedCount returns the number of collapsed cells.
func (g *Grid) CollapsedCount() int {
	n := 0
	g.Cells(func(c *Cell) {
		if c.status == StatusCollapsed {
			n++
		}
	})
	return n
}
