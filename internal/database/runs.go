package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lawnchairsociety/wavetiles/internal/wfc"
)

var (
	ErrRunNotFound  = errors.New("database: run not found")
	ErrDuplicateRun = errors.New("database: run already archived")
)

// Run is the summary row of one archived generation run.
type Run struct {
	ID             int64
	Tileset        string
	Fingerprint    string
	Seed           int64
	Columns        int
	Rows           int
	Outcome        string
	Steps          int
	Contradictions int
	StartedAt      time.Time
	FinishedAt     time.Time

	// Origin identifies the source run of a copied run and is unique per
	// archive. Runs recorded directly leave it empty.
	Origin string
}

// Duration returns how long the run took.
func (r *Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

const runColumns = `id, tileset, fingerprint, seed, grid_columns, grid_rows, outcome,
	steps, contradictions, started_at, finished_at, origin`

// SaveRun stores a run and its collapse log in one transaction and sets
// run.ID. Steps is taken from the log length. A run whose Origin is already
// archived fails with ErrDuplicateRun.
func (d *Database) SaveRun(run *Run, history []wfc.HistoryEntry) (int64, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	run.Steps = len(history)
	query := d.qb.BuildWithReturning(`
		INSERT INTO runs (tileset, fingerprint, seed, grid_columns, grid_rows, outcome,
			steps, contradictions, started_at, finished_at, origin)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, "id")
	origin := sql.NullString{String: run.Origin, Valid: run.Origin != ""}
	args := []any{
		run.Tileset, run.Fingerprint, run.Seed, run.Columns, run.Rows, run.Outcome,
		run.Steps, run.Contradictions, run.StartedAt.UTC(), run.FinishedAt.UTC(), origin,
	}

	var id int64
	if d.dialect.SupportsLastInsertID() {
		result, err := tx.Exec(query, args...)
		if err != nil {
			return 0, d.insertRunError(run, err)
		}
		if id, err = result.LastInsertId(); err != nil {
			return 0, err
		}
	} else if err := tx.QueryRow(query, args...).Scan(&id); err != nil {
		return 0, d.insertRunError(run, err)
	}

	stmt, err := tx.Prepare(d.qb.Build(`
		INSERT INTO run_collapses (run_id, step, col, row_index, tile)
		VALUES (?, ?, ?, ?, ?)`))
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, h := range history {
		if _, err := stmt.Exec(id, h.Step, h.Position.Column, h.Position.Row, h.Tile); err != nil {
			return 0, fmt.Errorf("insert collapse %d: %w", h.Step, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	run.ID = id
	return id, nil
}

func (d *Database) insertRunError(run *Run, err error) error {
	if run.Origin != "" && d.dialect.IsDuplicateKeyError(err) {
		return fmt.Errorf("origin %s: %w", run.Origin, ErrDuplicateRun)
	}
	return fmt.Errorf("insert run: %w", err)
}

// HasOrigin reports whether a run copied from origin is already archived.
func (d *Database) HasOrigin(origin string) (bool, error) {
	var count int
	err := d.db.QueryRow(d.qb.Build(`SELECT COUNT(*) FROM runs WHERE origin = ?`), origin).Scan(&count)
	return count > 0, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	run := &Run{}
	var origin sql.NullString
	err := s.Scan(&run.ID, &run.Tileset, &run.Fingerprint, &run.Seed, &run.Columns, &run.Rows,
		&run.Outcome, &run.Steps, &run.Contradictions, &run.StartedAt, &run.FinishedAt, &origin)
	if err != nil {
		return nil, err
	}
	run.Origin = origin.String
	return run, nil
}

// GetRun returns the run with the given id.
func (d *Database) GetRun(id int64) (*Run, error) {
	row := d.db.QueryRow(d.qb.Build(`SELECT `+runColumns+` FROM runs WHERE id = ?`), id)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %d: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns the most recent runs first. A limit of 0 or less returns
// every run.
func (d *Database) ListRuns(limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := d.db.Query(d.qb.Build(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// GetCollapses returns the collapse log of a run in step order.
func (d *Database) GetCollapses(runID int64) ([]wfc.HistoryEntry, error) {
	rows, err := d.db.Query(d.qb.Build(`
		SELECT step, col, row_index, tile
		FROM run_collapses
		WHERE run_id = ?
		ORDER BY step ASC
	`), runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []wfc.HistoryEntry
	for rows.Next() {
		var h wfc.HistoryEntry
		if err := rows.Scan(&h.Step, &h.Position.Column, &h.Position.Row, &h.Tile); err != nil {
			return nil, err
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

// DeleteRun removes a run and its collapse log.
func (d *Database) DeleteRun(id int64) error {
	result, err := d.db.Exec(d.qb.Build(`DELETE FROM runs WHERE id = ?`), id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("run %d: %w", id, ErrRunNotFound)
	}
	return nil
}

// CountRuns returns the number of archived runs, optionally for one tileset.
func (d *Database) CountRuns(tileset string) (int, error) {
	var count int
	var err error
	if tileset == "" {
		err = d.db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&count)
	} else {
		err = d.db.QueryRow(d.qb.Build(`SELECT COUNT(*) FROM runs WHERE tileset = ?`), tileset).Scan(&count)
	}
	return count, err
}
