package wfc

import "errors"

var (
	ErrNotInitialized = errors.New("wfc: grid is not initialized")
	ErrNoCandidates   = errors.New("wfc: no candidate tiles for cell")
	ErrOutOfBounds    = errors.New("wfc: position out of grid bounds")
	ErrEmptyCatalog   = errors.New("wfc: tile catalog is empty")
	ErrInvalidSize    = errors.New("wfc: invalid grid size")
	ErrInvalidWeight  = errors.New("wfc: tile weight must be positive")
	ErrNotCandidate   = errors.New("wfc: tile is not a candidate for cell")
)
