// Package journal keeps an SQLite audit trail of every move and copy the
// engine completes, grouped by run.
package journal

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/backmassage/archivist/internal/engine"
)

//go:embed schema.sql
var schema string

// Store handles journal database operations.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the journal database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	// One writer; watch and schedule modes never run two passes at once.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Run is one pass over the rule file. It implements engine.Journal.
type Run struct {
	ID    string
	store *Store
}

// StartRun inserts a run row and returns its recorder.
func (s *Store) StartRun(rulesPath string, dryRun bool, at time.Time) (*Run, error) {
	id := uuid.New().String()
	_, err := s.db.Exec(
		"INSERT INTO runs (id, rules_path, dry_run, started_at) VALUES (?, ?, ?, ?)",
		id, rulesPath, dryRun, at,
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return &Run{ID: id, store: s}, nil
}

// Record stores one completed operation under the run.
func (r *Run) Record(op engine.Operation) error {
	_, err := r.store.db.Exec(
		"INSERT INTO operations (id, run_id, rule, action, src, dst, overwrite, at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		uuid.New().String(), r.ID, op.Rule, op.Action, op.Src, op.Dst, op.Overwrite, op.At,
	)
	if err != nil {
		return fmt.Errorf("insert operation: %w", err)
	}
	return nil
}

// Finish stamps the run with its end time and totals.
func (r *Run) Finish(stats engine.RuleStats, at time.Time) error {
	_, err := r.store.db.Exec(
		`UPDATE runs SET finished_at = ?, matched = ?, completed = ?, aborted = ?, collisions = ?, failures = ?
		 WHERE id = ?`,
		at, stats.Matched, stats.Completed, stats.Aborted, stats.Collisions, stats.Failures, r.ID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}
