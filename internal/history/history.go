// Package history records validation runs in a SQLite database under the
// content root.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aidanlsb/lorecheck/internal/content"
	"github.com/aidanlsb/lorecheck/internal/report"
)

// FileName is the database file inside the data directory.
const FileName = "history.db"

// CurrentDBVersion is the current database schema version.
const CurrentDBVersion = 1

// ErrRunNotFound indicates the requested run id is not recorded.
var ErrRunNotFound = errors.New("run not found in history")

// Database is the run history handle.
type Database struct {
	db *sql.DB
}

// RunRecord is one recorded run.
type RunRecord struct {
	ID          string            `json:"id"`
	StartedAt   time.Time         `json:"startedAt"`
	DurationMs  int64             `json:"durationMs"`
	Status      string            `json:"status"`
	Mode        string            `json:"mode"`
	Fingerprint string            `json:"fingerprint"`
	Passed      int               `json:"passed"`
	Failed      int               `json:"failed"`
	Skipped     int               `json:"skipped"`
	Errors      int               `json:"errors"`
	Warnings    int               `json:"warnings"`
	Validators  []ValidatorRecord `json:"validators,omitempty"`
}

// ValidatorRecord is one validator's outcome within a recorded run.
type ValidatorRecord struct {
	Name       string `json:"name"`
	Position   int    `json:"position"`
	Status     string `json:"status"`
	Errors     int    `json:"errors"`
	Warnings   int    `json:"warnings"`
	DurationMs int64  `json:"durationMs"`
}

// Path returns the history database path for a project root.
func Path(root string) string {
	return filepath.Join(root, content.DataDir, FileName)
}

// Open opens or creates root/.lorecheck/history.db.
func Open(root string) (*Database, error) {
	dir := filepath.Join(root, content.DataDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s directory: %w", content.DataDir, err)
	}
	return open(Path(root))
}

// OpenInMemory opens an in-memory database (for testing).
func OpenInMemory() (*Database, error) {
	return open(":memory:")
}

func open(dsn string) (*Database, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	d := &Database{db: db}
	if err := d.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

// Close closes the database.
func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) initialize() error {
	schema := `
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = NORMAL;
		PRAGMA foreign_keys = ON;

		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at INTEGER NOT NULL,   -- Unix milliseconds, UTC
			duration_ms INTEGER NOT NULL,
			status TEXT NOT NULL,          -- pass | fail
			mode TEXT NOT NULL,
			fingerprint TEXT NOT NULL,
			passed INTEGER NOT NULL,
			failed INTEGER NOT NULL,
			skipped INTEGER NOT NULL,
			errors INTEGER NOT NULL,
			warnings INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS validator_results (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			status TEXT NOT NULL,          -- pass | fail | skipped
			errors INTEGER NOT NULL,
			warnings INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			PRIMARY KEY (run_id, position)
		);

		CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
		CREATE INDEX IF NOT EXISTS idx_runs_fingerprint ON runs(fingerprint);
	`
	if _, err := d.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize history schema: %w", err)
	}

	var version string
	err := d.db.QueryRow("SELECT value FROM meta WHERE key = 'version'").Scan(&version)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = d.db.Exec("INSERT INTO meta (key, value) VALUES ('version', ?)", strconv.Itoa(CurrentDBVersion))
		if err != nil {
			return fmt.Errorf("failed to record history version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("failed to read history version: %w", err)
	case version != strconv.Itoa(CurrentDBVersion):
		return fmt.Errorf("history database version %s is not supported (want %d)", version, CurrentDBVersion)
	}
	return nil
}

// Record stores a finished run and its validator outcomes in one transaction.
func (d *Database) Record(ctx context.Context, run *report.Run) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	s := run.Report.Summary
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, duration_ms, status, mode, fingerprint,
			passed, failed, skipped, errors, warnings)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt().UTC().UnixMilli(), s.DurationMs, run.Status(), run.Report.Mode,
		run.Fingerprint, s.Passed, s.Failed, s.Skipped, s.Errors, s.Warnings)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO validator_results (run_id, position, name, status, errors, warnings, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare validator insert: %w", err)
	}
	defer stmt.Close()

	for i, v := range run.Report.Validators {
		status := "pass"
		switch {
		case v.Skipped:
			status = "skipped"
		case !v.IsValid:
			status = "fail"
		}
		if _, err := stmt.ExecContext(ctx, run.ID, i, v.Name, status,
			len(v.Issues), len(v.Warnings), v.DurationMs); err != nil {
			return fmt.Errorf("failed to insert validator %s: %w", v.Name, err)
		}
	}

	return tx.Commit()
}

const runColumns = `id, started_at, duration_ms, status, mode, fingerprint,
	passed, failed, skipped, errors, warnings`

// Recent returns up to limit runs, newest first.
func (d *Database) Recent(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM runs ORDER BY started_at DESC, id LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	return scanAll(rows, func(rows *sql.Rows) (RunRecord, error) { return scanRun(rows) })
}

// Get returns one run with its validator outcomes.
func (d *Database) Get(ctx context.Context, id string) (*RunRecord, error) {
	row := d.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT name, position, status, errors, warnings, duration_ms
		FROM validator_results WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query validator results: %w", err)
	}
	r.Validators, err = scanAll(rows, func(rows *sql.Rows) (ValidatorRecord, error) {
		var v ValidatorRecord
		if err := rows.Scan(&v.Name, &v.Position, &v.Status, &v.Errors, &v.Warnings, &v.DurationMs); err != nil {
			return v, fmt.Errorf("failed to scan validator result: %w", err)
		}
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// scanAll drains rows through scan and closes them.
func scanAll[T any](rows *sql.Rows, scan func(*sql.Rows) (T, error)) ([]T, error) {
	defer rows.Close()

	var out []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// Prune deletes all but the newest keep runs and returns how many were removed.
func (d *Database) Prune(ctx context.Context, keep int) (int, error) {
	res, err := d.db.ExecContext(ctx, `
		DELETE FROM runs WHERE id NOT IN (
			SELECT id FROM runs ORDER BY started_at DESC, id LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (RunRecord, error) {
	var r RunRecord
	var startedMs int64
	err := s.Scan(&r.ID, &startedMs, &r.DurationMs, &r.Status, &r.Mode, &r.Fingerprint,
		&r.Passed, &r.Failed, &r.Skipped, &r.Errors, &r.Warnings)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r, err
		}
		return r, fmt.Errorf("failed to scan run: %w", err)
	}
	r.StartedAt = time.UnixMilli(startedMs).UTC()
	return r, nil
}
