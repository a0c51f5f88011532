// Package tileset loads the authored tile sets a grid is built from, either
// from the built-in catalog or from YAML files.
package tileset

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"
	"gopkg.in/yaml.v3"

	"github.com/lawnchairsociety/wavetiles/internal/wfc"
)

var (
	ErrUnknownTileset = errors.New("tileset: unknown tileset")
	ErrInvalidTileset = errors.New("tileset: invalid tileset")
)

// TileDefinition is one authored tile as it appears in a tileset file.
type TileDefinition struct {
	Name       string   `yaml:"name"`
	Connectors []string `yaml:"connectors"` // up, right, down, left
	Weight     float64  `yaml:"weight"`
	Rotation   int      `yaml:"rotation,omitempty"`
}

// Set is a named list of authored tiles. Variants are not listed; they are
// generated when the catalog is built.
type Set struct {
	Name        string           `yaml:"name"`
	Description string           `yaml:"description,omitempty"`
	Tiles       []TileDefinition `yaml:"tiles"`

	// Source is the built-in name or file path the set was loaded from
	Source string `yaml:"-"`
}

// Ref returns the value Resolve needs to load the set again. Sets built in
// code have no source and fall back to their name.
func (s *Set) Ref() string {
	if s.Source != "" {
		return s.Source
	}
	return s.Name
}

// Validate checks every tile has four connectors and a positive weight.
func (s *Set) Validate() error {
	if len(s.Tiles) == 0 {
		return fmt.Errorf("%w: %q has no tiles", ErrInvalidTileset, s.Name)
	}
	for i, t := range s.Tiles {
		if len(t.Connectors) != 4 {
			return fmt.Errorf("%w: tile %d (%s) has %d connectors, want 4", ErrInvalidTileset, i, t.Name, len(t.Connectors))
		}
		for _, c := range t.Connectors {
			if strings.TrimSpace(c) == "" {
				return fmt.Errorf("%w: tile %d (%s) has an empty connector", ErrInvalidTileset, i, t.Name)
			}
		}
		if t.Weight <= 0 {
			return fmt.Errorf("%w: tile %d (%s) weight must be positive", ErrInvalidTileset, i, t.Name)
		}
	}
	return nil
}

// BaseTiles converts the definitions into wfc tiles in file order.
func (s *Set) BaseTiles() []wfc.Tile {
	tiles := make([]wfc.Tile, 0, len(s.Tiles))
	for _, d := range s.Tiles {
		t := wfc.NewTile(d.Name, d.Weight, d.Connectors[0], d.Connectors[1], d.Connectors[2], d.Connectors[3])
		t.Rotation = d.Rotation
		tiles = append(tiles, t)
	}
	return tiles
}

// Catalog expands the set into a catalog with all symmetry variants.
func (s *Set) Catalog() *wfc.Catalog {
	return wfc.BuildCatalog(s.BaseTiles())
}

// Fingerprint returns the fingerprint of the set's base tiles.
func (s *Set) Fingerprint() string {
	return Fingerprint(s.BaseTiles())
}

// Parse decodes and validates a tileset from YAML.
func Parse(data []byte) (*Set, error) {
	var set Set
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to parse tileset YAML: %w", err)
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return &set, nil
}

// LoadFile reads a tileset YAML file.
func LoadFile(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tileset file: %w", err)
	}
	set, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if set.Name == "" {
		set.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	set.Source = path
	if abs, err := filepath.Abs(path); err == nil {
		set.Source = abs
	}
	return set, nil
}

// Resolve returns the built-in set called nameOrPath, or loads it as a file
// when no built-in has that name.
func Resolve(nameOrPath string) (*Set, error) {
	if set, ok := Builtin(nameOrPath); ok {
		return set, nil
	}
	if _, err := os.Stat(nameOrPath); err != nil {
		return nil, fmt.Errorf("%w: %q (built-in sets: %s)", ErrUnknownTileset, nameOrPath, strings.Join(Names(), ", "))
	}
	return LoadFile(nameOrPath)
}

// Fingerprint hashes the canonical form of the base tiles with BLAKE2b-256.
// Two tile lists share a fingerprint only if they build the same catalog.
func Fingerprint(tiles []wfc.Tile) string {
	var b strings.Builder
	for _, t := range tiles {
		b.WriteString(t.Name)
		for _, c := range t.Connectors {
			b.WriteByte(0)
			b.WriteString(c)
		}
		b.WriteByte(0)
		b.WriteString(strconv.FormatFloat(t.Weight, 'g', -1, 64))
		b.WriteByte(0)
		b.WriteString(strconv.Itoa(t.Rotation))
		b.WriteByte('\n')
	}
	sum := blake2b.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
