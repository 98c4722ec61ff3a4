// Package history persists capture outcomes to a local SQLite database so
// batch runs can be audited after the fact.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS captures (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      TEXT NOT NULL,
	url         TEXT NOT NULL,
	output_path TEXT NOT NULL DEFAULT '',
	format      TEXT NOT NULL,
	engine      TEXT NOT NULL,
	success     INTEGER NOT NULL,
	error       TEXT NOT NULL DEFAULT '',
	captured_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_captures_run ON captures(run_id);
`

// Record is one capture outcome.
type Record struct {
	RunID      string
	URL        string
	OutputPath string
	Format     string
	Engine     string
	Success    bool
	Error      string
	CapturedAt time.Time
}

// Store wraps the capture history database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the history database at path and applies the
// schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	if _, err := db.Exec(`PRAGMA journal_mode = WAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Add inserts a capture record.
func (s *Store) Add(ctx context.Context, rec Record) error {
	if rec.CapturedAt.IsZero() {
		rec.CapturedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO captures (run_id, url, output_path, format, engine, success, error, captured_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.URL, rec.OutputPath, rec.Format, rec.Engine, rec.Success, rec.Error, rec.CapturedAt,
	)
	if err != nil {
		return fmt.Errorf("insert capture record: %w", err)
	}
	return nil
}

// ListRun returns the records for one run in insertion order.
func (s *Store) ListRun(ctx context.Context, runID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, url, output_path, format, engine, success, error, captured_at
		 FROM captures WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run %s: %w", runID, err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.RunID, &rec.URL, &rec.OutputPath, &rec.Format, &rec.Engine,
			&rec.Success, &rec.Error, &rec.CapturedAt); err != nil {
			return nil, fmt.Errorf("scan capture record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
