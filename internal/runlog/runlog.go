// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package runlog keeps a durable history of sync runs.
// Implements docs/ARCHITECTURE § Run Ledger.
package runlog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Run is one ledger row: a single sync run and its outcome. Error is
// empty for runs that completed, even ones with failed artifacts.
type Run struct {
	ID           int64
	StartedAt    time.Time
	FinishedAt   time.Time
	CollectionID string
	New          int
	Updated      int
	Skipped      int
	Failed       int
	Error        string
}

// Ledger records run outcomes in a SQLite database.
type Ledger struct {
	db *sql.DB
}

// Open opens or creates the ledger database at path and creates the
// schema if it does not exist.
func Open(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening ledger database: %w", err)
	}

	l := &Ledger{db: db}
	if err := l.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return l, nil
}

// Close releases the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			collection_id TEXT NOT NULL,
			new_count INTEGER NOT NULL,
			updated_count INTEGER NOT NULL,
			skipped_count INTEGER NOT NULL,
			failed_count INTEGER NOT NULL,
			error TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
	}

	for _, stmt := range statements {
		if _, err := l.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	return nil
}

// Record appends one run to the ledger. Timestamps are stored as
// RFC 3339 UTC strings.
func (l *Ledger) Record(ctx context.Context, run Run) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO runs (started_at, finished_at, collection_id,
			new_count, updated_count, skipped_count, failed_count, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
		run.CollectionID,
		run.New, run.Updated, run.Skipped, run.Failed,
		run.Error,
	)
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	return nil
}

// Recent returns up to n runs, newest first. A non-positive n uses a
// default of 10.
func (l *Ledger) Recent(ctx context.Context, n int) ([]Run, error) {
	if n <= 0 {
		n = 10
	}

	rows, err := l.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, collection_id,
			new_count, updated_count, skipped_count, failed_count, error
		 FROM runs ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run      Run
			started  string
			finished string
		)
		if err := rows.Scan(
			&run.ID, &started, &finished, &run.CollectionID,
			&run.New, &run.Updated, &run.Skipped, &run.Failed, &run.Error,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if run.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("parsing started_at %q: %w", started, err)
		}
		if run.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
			return nil, fmt.Errorf("parsing finished_at %q: %w", finished, err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}
