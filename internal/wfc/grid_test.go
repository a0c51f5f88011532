package wfc

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoTileCatalog has two tiles whose edges match every rotation of either.
func twoTileCatalog() *Catalog {
	return BuildCatalog([]Tile{
		NewTile("grass", 1, "A", "A", "A", "A"),
		NewTile("flowers", 2, "A", "A", "A", "A"),
	})
}

// splitCatalog has two tiles that never sit next to each other.
func splitCatalog() *Catalog {
	return BuildCatalog([]Tile{
		NewTile("land", 1, "A", "A", "A", "A"),
		NewTile("water", 1, "B", "B", "B", "B"),
	})
}

func newTestGrid(t *testing.T, catalog *Catalog, columns, rows int, seed int64) *Grid {
	t.Helper()
	g, err := NewGrid(catalog, rand.New(rand.NewSource(seed)))
	require.NoError(t, err)
	require.NoError(t, g.Initialize(columns, rows))
	require.NoError(t, g.ResetCandidates())
	return g
}

func TestNewGridEmptyCatalog(t *testing.T) {
	_, err := NewGrid(BuildCatalog(nil), rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, ErrEmptyCatalog)
}

func TestGridNotInitialized(t *testing.T) {
	g, err := NewGrid(twoTileCatalog(), rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	_, err = g.Cell(0, 0)
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = g.LeastEntropyCell()
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, g.ResetCandidates(), ErrNotInitialized)
	assert.False(t, g.IsComplete())
}

func TestGridInitialize(t *testing.T) {
	g, err := NewGrid(twoTileCatalog(), rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	assert.ErrorIs(t, g.Initialize(0, 3), ErrInvalidSize)
	assert.ErrorIs(t, g.Initialize(3, -1), ErrInvalidSize)

	require.NoError(t, g.Initialize(4, 3))
	count := 0
	g.Cells(func(c *Cell) {
		count++
		assert.Equal(t, CellOpen, c.State())
		assert.Zero(t, c.CandidateCount(), "candidates start empty")
	})
	assert.Equal(t, 12, count)

	require.NoError(t, g.ResetCandidates())
	g.Cells(func(c *Cell) {
		assert.Equal(t, g.Catalog().AllIDs(), c.Candidates())
		assert.Greater(t, c.Entropy(), 0.0)
	})
}

func TestGridCellOutOfBounds(t *testing.T) {
	g := newTestGrid(t, twoTileCatalog(), 3, 2, 1)

	tests := []struct{ col, row int }{
		{-1, 0}, {0, -1}, {3, 0}, {0, 2}, {5, 5},
	}
	for _, tt := range tests {
		_, err := g.Cell(tt.col, tt.row)
		assert.ErrorIs(t, err, ErrOutOfBounds, "(%d,%d)", tt.col, tt.row)
	}

	c, err := g.Cell(2, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Column)
	assert.Equal(t, 1, c.Row)
}

func TestGridNeighbors(t *testing.T) {
	g := newTestGrid(t, twoTileCatalog(), 3, 3, 1)

	tests := []struct {
		name     string
		col, row int
		want     []Position
	}{
		{"center", 1, 1, []Position{{1, 0}, {2, 1}, {1, 2}, {0, 1}}},
		{"top left corner", 0, 0, []Position{{1, 0}, {0, 1}}},
		{"bottom right corner", 2, 2, []Position{{2, 1}, {1, 2}}},
		{"top edge", 1, 0, []Position{{2, 0}, {1, 1}, {0, 0}}},
		{"left edge", 0, 1, []Position{{0, 0}, {1, 1}, {0, 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := g.Cell(tt.col, tt.row)
			require.NoError(t, err)

			var got []Position
			for _, n := range g.Neighbors(c) {
				got = append(got, n.Position())
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLeastEntropyCellTies(t *testing.T) {
	g := newTestGrid(t, twoTileCatalog(), 2, 2, 7)

	seen := make(map[Position]int)
	for i := 0; i < 400; i++ {
		c, err := g.LeastEntropyCell()
		require.NoError(t, err)
		require.NotNil(t, c)
		seen[c.Position()]++
	}
	assert.Len(t, seen, 4, "every tied cell must be picked at some point")
}

func TestLeastEntropyCellPrefersLowest(t *testing.T) {
	g := newTestGrid(t, twoTileCatalog(), 3, 1, 1)

	target, err := g.Cell(2, 0)
	require.NoError(t, err)
	target.setCandidates([]int{0, 1})
	g.RecomputeEntropy(target)

	for i := 0; i < 20; i++ {
		c, err := g.LeastEntropyCell()
		require.NoError(t, err)
		assert.Same(t, target, c)
	}
}

func TestLeastEntropyCellSkipsCollapsed(t *testing.T) {
	g := newTestGrid(t, twoTileCatalog(), 2, 2, 3)

	var last *Cell
	g.Cells(func(c *Cell) {
		if c.Column == 1 && c.Row == 1 {
			last = c
			return
		}
		c.collapseTo(0)
	})

	for i := 0; i < 20; i++ {
		c, err := g.LeastEntropyCell()
		require.NoError(t, err)
		assert.Same(t, last, c)
	}

	last.collapseTo(0)
	c, err := g.LeastEntropyCell()
	require.NoError(t, err)
	assert.Nil(t, c)
	assert.True(t, g.IsComplete())
}

func TestLeastEntropyCellReturnsContradictionFirst(t *testing.T) {
	g := newTestGrid(t, twoTileCatalog(), 3, 3, 3)

	broken, err := g.Cell(2, 2)
	require.NoError(t, err)
	broken.candidates = nil
	broken.contradicted = true
	g.RecomputeEntropy(broken)

	c, err := g.LeastEntropyCell()
	require.NoError(t, err)
	assert.Same(t, broken, c)
	assert.Len(t, g.Contradictions(), 1)
}

func TestCollapse(t *testing.T) {
	g := newTestGrid(t, twoTileCatalog(), 2, 2, 11)

	c, err := g.Cell(0, 0)
	require.NoError(t, err)

	id, err := g.Collapse(c)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, id, 0)
	assert.Less(t, id, g.Catalog().Len())

	assert.Equal(t, StatusCollapsed, c.Status())
	assert.Empty(t, c.Candidates())
	assert.Equal(t, 0.0, c.Entropy())
	chosen, ok := c.ChosenTile()
	assert.True(t, ok)
	assert.Equal(t, id, chosen)

	_, err = g.Collapse(c)
	assert.ErrorIs(t, err, ErrNoCandidates, "collapsing twice")
	assert.Equal(t, 1, g.CollapsedCount())
}

func TestCollapseWeighted(t *testing.T) {
	// two bases, four rotations each; heavy is nine times as likely
	catalog := BuildCatalog([]Tile{
		NewTile("light", 1, "A", "A", "A", "A"),
		NewTile("heavy", 9, "A", "A", "A", "A"),
	})
	g := newTestGrid(t, catalog, 1, 1, 5)

	heavy := 0
	const trials = 2000
	for i := 0; i < trials; i++ {
		c, _ := g.Cell(0, 0)
		c.setCandidates(catalog.AllIDs())
		id, err := g.Collapse(c)
		require.NoError(t, err)
		if catalog.Tile(id).Base == 1 {
			heavy++
		}
		c.status = StatusOpen
	}

	ratio := float64(heavy) / trials
	assert.InDelta(t, 0.9, ratio, 0.05)
}

func TestCollapseTo(t *testing.T) {
	g := newTestGrid(t, twoTileCatalog(), 2, 1, 1)
	c, _ := g.Cell(0, 0)

	assert.ErrorIs(t, g.CollapseTo(c, 99), ErrNotCandidate)
	require.NoError(t, g.CollapseTo(c, 5))
	id, _ := c.ChosenTile()
	assert.Equal(t, 5, id)
}

func TestPropagateCorner(t *testing.T) {
	catalog := splitCatalog()
	g := newTestGrid(t, catalog, 3, 3, 1)

	corner, _ := g.Cell(0, 0)
	require.NoError(t, g.CollapseTo(corner, 0))

	contradictions, err := g.Propagate(corner)
	require.NoError(t, err)
	assert.Zero(t, contradictions)

	touched := map[Position]bool{{1, 0}: true, {0, 1}: true}
	g.Cells(func(c *Cell) {
		if c == corner {
			return
		}
		if touched[c.Position()] {
			assert.Equal(t, []int{0, 1, 2, 3}, c.Candidates(), "%s narrowed to land", c)
			return
		}
		assert.Equal(t, catalog.Len(), c.CandidateCount(), "%s left alone", c)
	})
}

func TestPropagateOneHop(t *testing.T) {
	catalog := splitCatalog()
	g := newTestGrid(t, catalog, 3, 1, 1)

	left, _ := g.Cell(0, 0)
	require.NoError(t, g.CollapseTo(left, 0))
	_, err := g.Propagate(left)
	require.NoError(t, err)

	far, _ := g.Cell(2, 0)
	assert.Equal(t, catalog.Len(), far.CandidateCount())
}

func TestPropagateContradiction(t *testing.T) {
	catalog := splitCatalog()
	g := newTestGrid(t, catalog, 3, 1, 1)

	// middle can only be water, then the left cell collapses to land
	middle, _ := g.Cell(1, 0)
	middle.setCandidates([]int{4, 5})
	left, _ := g.Cell(0, 0)
	require.NoError(t, g.CollapseTo(left, 0))

	contradictions, err := g.Propagate(left)
	require.NoError(t, err)
	assert.Equal(t, 1, contradictions)
	assert.True(t, middle.IsContradiction())
	assert.Equal(t, 0.0, middle.Entropy())
	assert.True(t, middle.IsOpen())
}

func TestPropagateFromOpenCell(t *testing.T) {
	g := newTestGrid(t, twoTileCatalog(), 2, 2, 1)
	c, _ := g.Cell(0, 0)
	_, err := g.Propagate(c)
	assert.ErrorIs(t, err, ErrNoCandidates)
}

func TestPropagateSkipsCollapsedNeighbor(t *testing.T) {
	g := newTestGrid(t, splitCatalog(), 2, 1, 1)
	a, _ := g.Cell(0, 0)
	b, _ := g.Cell(1, 0)
	require.NoError(t, g.CollapseTo(b, 4))
	require.NoError(t, g.CollapseTo(a, 0))

	n, err := g.Propagate(a)
	require.NoError(t, err)
	assert.Zero(t, n)
	id, _ := b.ChosenTile()
	assert.Equal(t, 4, id)
}
