package wfc

import (
	"fmt"
	"log/slog"
)

// State is the run state of an Engine.
type State int

const (
	Running State = iota
	Stopped
)

// String returns the string representation of a State
func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Outcome records why an engine stopped.
type Outcome int

const (
	OutcomePending       Outcome = iota // Still running
	OutcomeComplete                     // Every cell collapsed
	OutcomeContradiction                // A cell ran out of candidates
)

// String returns the string representation of an Outcome
func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeComplete:
		return "complete"
	case OutcomeContradiction:
		return "contradiction"
	default:
		return "unknown"
	}
}

// HistoryEntry is one collapse in the order it happened.
type HistoryEntry struct {
	Step     int      `json:"step" yaml:"step"`
	Position Position `json:"position" yaml:"position"`
	Tile     int      `json:"tile" yaml:"tile"`
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger attaches a structured logger. Engines are silent by default.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// Engine drives a grid to completion one collapse at a time. It is not safe
// for concurrent use; a host hands each Engine to a single owner.
type Engine struct {
	grid    *Grid
	state   State
	outcome Outcome
	history []HistoryEntry
	failure error
	log     *slog.Logger
}

// NewEngine builds a grid of the given size over catalog, fills every cell
// with the full candidate set and returns an engine ready to step.
func NewEngine(catalog *Catalog, columns, rows int, rng Random, opts ...Option) (*Engine, error) {
	grid, err := NewGrid(catalog, rng)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		grid: grid,
		log:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}

	if err := grid.Initialize(columns, rows); err != nil {
		return nil, err
	}
	if err := e.ResetCandidates(); err != nil {
		return nil, err
	}
	return e, nil
}

// Grid returns the grid the engine is driving.
func (e *Engine) Grid() *Grid {
	return e.grid
}

// State returns RUNNING or STOPPED.
func (e *Engine) State() State {
	return e.state
}

// Outcome returns why the engine stopped, or OutcomePending while running.
func (e *Engine) Outcome() Outcome {
	return e.outcome
}

// Done returns true once the engine has stopped for any reason.
func (e *Engine) Done() bool {
	return e.state == Stopped
}

// Failure returns the contradiction that stopped the run, wrapping
// ErrNoCandidates, or nil.
func (e *Engine) Failure() error {
	return e.failure
}

// Steps returns the number of collapses performed so far.
func (e *Engine) Steps() int {
	return len(e.history)
}

// History returns a copy of the collapse log.
func (e *Engine) History() []HistoryEntry {
	out := make([]HistoryEntry, len(e.history))
	copy(out, e.history)
	return out
}

// ResetCandidates refills every cell with the full catalog and clears the
// run state. Cells that were collapsed are reopened.
func (e *Engine) ResetCandidates() error {
	if err := e.grid.Initialize(e.grid.Columns, e.grid.Rows); err != nil {
		return err
	}
	if err := e.grid.ResetCandidates(); err != nil {
		return err
	}
	e.state = Running
	e.outcome = OutcomePending
	e.history = e.history[:0]
	e.failure = nil

	e.log.Debug("Grid reset",
		"columns", e.grid.Columns,
		"rows", e.grid.Rows,
		"tiles", e.grid.catalog.Len())
	return nil
}

// Reset discards every cell and rebuilds the grid from the same catalog.
func (e *Engine) Reset() error {
	return e.ResetCandidates()
}

// Step performs at most one collapse. It is a no-op once stopped. A
// contradiction is not an error: it stops the engine with
// OutcomeContradiction and is reported by Failure. Errors are only returned
// for misuse.
func (e *Engine) Step() error {
	if e.state == Stopped {
		return nil
	}

	cell, err := e.grid.LeastEntropyCell()
	if err != nil {
		return err
	}
	if cell == nil {
		e.stop(OutcomeComplete, nil)
		return nil
	}
	if cell.IsContradiction() || cell.CandidateCount() == 0 {
		e.stop(OutcomeContradiction, fmt.Errorf("%s at step %d: %w", cell, len(e.history), ErrNoCandidates))
		return nil
	}

	id, err := e.grid.Collapse(cell)
	if err != nil {
		return err
	}
	e.record(cell, id)

	if _, err := e.grid.Propagate(cell); err != nil {
		return err
	}
	return nil
}

// RunToCompletion steps until the engine stops and returns the outcome.
func (e *Engine) RunToCompletion() (Outcome, error) {
	for e.state == Running {
		if err := e.Step(); err != nil {
			return e.outcome, err
		}
	}
	return e.outcome, nil
}

// Replay resets the grid and re-applies a recorded collapse log, propagating
// after each entry as Step would. A partial log leaves the engine running so
// it can be continued with Step. A log that fills the grid or ends on a
// contradiction stops the engine with the outcome the original run had.
func (e *Engine) Replay(entries []HistoryEntry) error {
	if err := e.ResetCandidates(); err != nil {
		return err
	}
	for _, entry := range entries {
		cell, err := e.grid.Cell(entry.Position.Column, entry.Position.Row)
		if err != nil {
			return fmt.Errorf("replay step %d: %w", entry.Step, err)
		}
		if err := e.grid.CollapseTo(cell, entry.Tile); err != nil {
			return fmt.Errorf("replay step %d: %w", entry.Step, err)
		}
		e.record(cell, entry.Tile)
		if _, err := e.grid.Propagate(cell); err != nil {
			return fmt.Errorf("replay step %d: %w", entry.Step, err)
		}
	}

	if e.grid.IsComplete() || len(e.grid.Contradictions()) > 0 {
		// Nothing left to collapse; a step only settles the outcome
		return e.Step()
	}
	return nil
}

func (e *Engine) record(cell *Cell, id int) {
	e.history = append(e.history, HistoryEntry{
		Step:     len(e.history) + 1,
		Position: cell.Position(),
		Tile:     id,
	})
}

func (e *Engine) stop(outcome Outcome, failure error) {
	e.state = Stopped
	e.outcome = outcome
	e.failure = failure

	if outcome == OutcomeContradiction {
		e.log.Info("Generation stopped on contradiction",
			"steps", len(e.history),
			"error", failure)
		return
	}
	e.log.Info("Generation complete",
		"steps", len(e.history),
		"cells", e.grid.Columns*e.grid.Rows)
}
