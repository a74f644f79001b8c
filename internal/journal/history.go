package journal

import (
	"database/sql"
	"fmt"
	"time"
)

// Entry is one journaled operation.
type Entry struct {
	ID        string
	RunID     string
	Rule      string
	Action    string
	Src       string
	Dst       string
	Overwrite bool
	At        time.Time
}

// RunInfo summarizes one run.
type RunInfo struct {
	ID         string
	RulesPath  string
	DryRun     bool
	StartedAt  time.Time
	FinishedAt *time.Time // nil while running or after a crash
	Matched    int
	Completed  int
	Aborted    int
	Collisions int
	Failures   int
}

// Query selects journal entries. A zero Limit means no limit.
type Query struct {
	RunID string
	Limit int
}

// Entries returns operations, newest first.
func (s *Store) Entries(q Query) ([]Entry, error) {
	query := "SELECT id, run_id, rule, action, src, dst, overwrite, at FROM operations"
	var args []any
	if q.RunID != "" {
		query += " WHERE run_id = ?"
		args = append(args, q.RunID)
	}
	query += " ORDER BY at DESC, rowid DESC"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list operations: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.RunID, &e.Rule, &e.Action, &e.Src, &e.Dst, &e.Overwrite, &e.At); err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Runs returns the most recent runs, newest first. A limit of zero or less
// returns every run.
func (s *Store) Runs(limit int) ([]RunInfo, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(
		`SELECT id, rules_path, dry_run, started_at, finished_at, matched, completed, aborted, collisions, failures
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var r RunInfo
		var finished sql.NullTime
		if err := rows.Scan(&r.ID, &r.RulesPath, &r.DryRun, &r.StartedAt, &finished,
			&r.Matched, &r.Completed, &r.Aborted, &r.Collisions, &r.Failures); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if finished.Valid {
			t := finished.Time
			r.FinishedAt = &t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
