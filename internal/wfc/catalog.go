package wfc

import "fmt"

// Catalog is the ordered, immutable list of tiles a grid draws from.
// A tile's position in the catalog is its id everywhere else.
type Catalog struct {
	tiles []Tile
	bases int

	// compat[dir][a][b] is true if tile b may sit in direction dir from tile a
	compat [4][][]bool
}

// BuildCatalog expands the authored base tiles into a catalog. Each base tile
// is followed immediately by its symmetry variants, so ids are stable for a
// given input. The input slice is not modified.
func BuildCatalog(base []Tile) *Catalog {
	tiles := make([]Tile, 0, len(base)*8)
	for i, t := range base {
		t.Base = i
		tiles = append(tiles, t)
		for _, v := range t.Variants() {
			v.Base = i
			tiles = append(tiles, v)
		}
	}

	c := &Catalog{tiles: tiles, bases: len(base)}
	c.buildCompat()
	return c
}

// buildCompat precomputes CanConnect for every ordered pair and direction.
func (c *Catalog) buildCompat() {
	n := len(c.tiles)
	for _, dir := range AllDirections() {
		c.compat[dir] = make([][]bool, n)
		for a := 0; a < n; a++ {
			row := make([]bool, n)
			for b := 0; b < n; b++ {
				row[b] = CanConnect(c.tiles[a], c.tiles[b], dir)
			}
			c.compat[dir][a] = row
		}
	}
}

// Validate checks that the catalog is usable by a grid.
func (c *Catalog) Validate() error {
	if c == nil || len(c.tiles) == 0 {
		return ErrEmptyCatalog
	}
	for i, t := range c.tiles {
		if t.Weight <= 0 {
			return fmt.Errorf("tile %d (%s): %w", i, t.Name, ErrInvalidWeight)
		}
	}
	return nil
}

// Len returns the number of tiles including variants.
func (c *Catalog) Len() int {
	return len(c.tiles)
}

// BaseCount returns the number of authored tiles the catalog was built from.
func (c *Catalog) BaseCount() int {
	return c.bases
}

// Tile returns the tile with the given id.
func (c *Catalog) Tile(id int) Tile {
	return c.tiles[id]
}

// Tiles returns a copy of every tile in catalog order.
func (c *Catalog) Tiles() []Tile {
	out := make([]Tile, len(c.tiles))
	copy(out, c.tiles)
	return out
}

// Weight returns the weight of the tile with the given id.
func (c *Catalog) Weight(id int) float64 {
	return c.tiles[id].Weight
}

// Compatible reports whether tile b may sit in direction dir from tile a.
func (c *Catalog) Compatible(a, b int, dir Direction) bool {
	return c.compat[dir][a][b]
}

// AllIDs returns 0..Len()-1.
func (c *Catalog) AllIDs() []int {
	ids := make([]int, len(c.tiles))
	for i := range ids {
		ids[i] = i
	}
	return ids
}
