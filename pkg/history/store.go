// Package history persists classification runs in SQLite so results outlive
// the xlsx file a run produces.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Run is one classification sweep over a directory.
type Run struct {
	ID        int64     `json:"id"`
	StartedAt time.Time `json:"started_at"`
	Directory string    `json:"directory"`
	Model     string    `json:"model"`

	// Per-verdict counts, derived from the run's records.
	Normal   int `json:"normal"`
	Abnormal int `json:"abnormal"`
	Unknown  int `json:"unknown"`
}

// Record is one classified image within a run.
type Record struct {
	GraphName string `json:"graph_name"`
	Result    string `json:"result"`
	Position  int    `json:"position"` // 0-based order within the run
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at TIMESTAMP NOT NULL,
	directory TEXT NOT NULL,
	model TEXT NOT NULL,
	normal INTEGER NOT NULL DEFAULT 0,
	abnormal INTEGER NOT NULL DEFAULT 0,
	unknown INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS records (
	run_id INTEGER NOT NULL REFERENCES runs(id),
	graph_name TEXT NOT NULL,
	result TEXT NOT NULL,
	position INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_records_run ON records(run_id);
`

// Store is a SQLite-backed run history. Pass ":memory:" for an in-memory
// database.
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if needed) the history database at path.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// SaveRun stores a run and its records in one transaction, returning the run
// id. Verdict counts are derived from the records.
func (s *Store) SaveRun(ctx context.Context, run Run, records []Record) (int64, error) {
	for _, rec := range records {
		switch rec.Result {
		case "Normal":
			run.Normal++
		case "Abnormal":
			run.Abnormal++
		default:
			run.Unknown++
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (started_at, directory, model, normal, abnormal, unknown)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.StartedAt, run.Directory, run.Model, run.Normal, run.Abnormal, run.Unknown,
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}

	for i, rec := range records {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO records (run_id, graph_name, result, position) VALUES (?, ?, ?, ?)`,
			runID, rec.GraphName, rec.Result, i,
		); err != nil {
			return 0, fmt.Errorf("insert record %s: %w", rec.GraphName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return runID, nil
}

// Runs returns all runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, directory, model, normal, abnormal, unknown
		 FROM runs ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.StartedAt, &run.Directory, &run.Model,
			&run.Normal, &run.Abnormal, &run.Unknown); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Records returns a run's records in classification order.
func (s *Store) Records(ctx context.Context, runID int64) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT graph_name, result, position FROM records
		 WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.GraphName, &rec.Result, &rec.Position); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
