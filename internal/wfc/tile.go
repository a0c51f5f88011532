package wfc

import "strings"

// Direction represents one of the four edges of a tile, and the neighbor
// that lies across that edge.
type Direction int

const (
	Up Direction = iota
	Right
	Down
	Left
)

// String returns the string representation of a Direction
func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Right:
		return "right"
	case Down:
		return "down"
	case Left:
		return "left"
	default:
		return "unknown"
	}
}

// Opposite returns the opposite direction
func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Right:
		return Left
	case Down:
		return Up
	case Left:
		return Right
	default:
		return d
	}
}

// AllDirections returns the four directions in connector order.
func AllDirections() []Direction {
	return []Direction{Up, Right, Down, Left}
}

// Connector suffixes marking an asymmetric edge. An "a" edge only meets an
// "f" edge with the same base label, and vice versa.
const (
	suffixA = "a"
	suffixF = "f"
)

// Tile is a single catalog entry: four edge labels plus weight and the
// rotation/mirror bookkeeping needed to draw it.
type Tile struct {
	Name       string    // Image path or identifier supplied by the author
	Connectors [4]string // Edge labels indexed by Direction
	Weight     float64   // Relative likelihood, must be positive
	Rotation   int       // Visual rotation in degrees
	Mirrored   bool      // True for a generated mirror variant
	Base       int       // Catalog index of the authored tile this entry derives from
}

// NewTile creates a base tile with no rotation.
func NewTile(name string, weight float64, up, right, down, left string) Tile {
	return Tile{
		Name:       name,
		Connectors: [4]string{up, right, down, left},
		Weight:     weight,
	}
}

// Connector returns the edge label facing dir.
func (t Tile) Connector(dir Direction) string {
	return t.Connectors[dir]
}

// isAsymmetric reports whether an edge label carries an a/f suffix.
func isAsymmetric(label string) bool {
	return strings.HasSuffix(label, suffixA) || strings.HasSuffix(label, suffixF)
}

// ConnectorIsAsymmetric reports whether the edge facing dir is asymmetric.
func (t Tile) ConnectorIsAsymmetric(dir Direction) bool {
	return isAsymmetric(t.Connectors[dir])
}

// HasAsymmetry returns true if any edge of the tile is asymmetric.
func (t Tile) HasAsymmetry() bool {
	for _, dir := range AllDirections() {
		if t.ConnectorIsAsymmetric(dir) {
			return true
		}
	}
	return false
}

// CanConnect returns true if tile b may sit next to tile a in direction dir.
// The edge of a facing dir is compared with the edge of b facing back.
//
// Symmetric labels must be identical. An asymmetric label on a's side needs
// the same base label on b's side with the complementary suffix, so "Ea"
// meets "Ef" but never "Ea" or "E".
func CanConnect(a, b Tile, dir Direction) bool {
	mine := a.Connectors[dir]
	theirs := b.Connectors[dir.Opposite()]

	if !isAsymmetric(mine) {
		return mine == theirs
	}

	base := mine[:len(mine)-1]
	want := suffixF
	if strings.HasSuffix(mine, suffixF) {
		want = suffixA
	}
	return theirs == base+want
}

// Rotated90 returns a copy of the tile turned a quarter turn. Connectors
// shift one position (the old RIGHT edge becomes UP) and the rotation angle
// drops by 90 degrees.
func (t Tile) Rotated90() Tile {
	r := t
	for i := range r.Connectors {
		r.Connectors[i] = t.Connectors[(i+1)%4]
	}
	r.Rotation = t.Rotation - 90
	return r
}

// Flipped returns the mirror image of the tile across its vertical axis.
// LEFT and RIGHT are swapped as-is. UP and DOWN keep their labels except
// that an "a" suffix becomes "f".
//
// An "f" suffix on UP/DOWN is left alone, matching the authored tile sets
// this was built against.
func (t Tile) Flipped() Tile {
	m := t
	for _, dir := range []Direction{Up, Down} {
		label := t.Connectors[dir]
		if strings.HasSuffix(label, suffixA) {
			m.Connectors[dir] = strings.TrimSuffix(label, suffixA) + suffixF
		}
	}
	m.Connectors[Right] = t.Connectors[Left]
	m.Connectors[Left] = t.Connectors[Right]
	m.Mirrored = !t.Mirrored
	return m
}

// Variants returns the symmetry variants of the tile, not including the
// tile itself: three rotations, plus the mirror of the tile and of each
// rotation when any edge is asymmetric.
func (t Tile) Variants() []Tile {
	r90 := t.Rotated90()
	r180 := r90.Rotated90()
	r270 := r180.Rotated90()

	variants := []Tile{r90, r180, r270}
	if t.HasAsymmetry() {
		variants = append(variants,
			t.Flipped(),
			r90.Flipped(),
			r180.Flipped(),
			r270.Flipped(),
		)
	}
	return variants
}
