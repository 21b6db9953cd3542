// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package history

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/matt-FFFFFF/reconbatch/internal/report"
	"github.com/matt-FFFFFF/reconbatch/internal/runbatch"
	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

// DefaultFileName is the history database file name, created in the study's
// subjects directory unless configured otherwise.
const DefaultFileName = "reconbatch.db"

var (
	// ErrOpenStore is returned when the history database cannot be opened.
	ErrOpenStore = errors.New("failed to open history store")
	// ErrRecordRun is returned when a run cannot be recorded.
	ErrRecordRun = errors.New("failed to record run")
	// ErrListRuns is returned when the run history cannot be read.
	ErrListRuns = errors.New("failed to list runs")
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
  id          TEXT PRIMARY KEY,
  study       TEXT,
  runner      TEXT,
  started_at  TEXT NOT NULL,
  finished_at TEXT NOT NULL,
  hostname    TEXT,
  subjects    INTEGER NOT NULL,
  failed      INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS run_subjects (
  run_id    TEXT NOT NULL REFERENCES runs(id),
  subject   TEXT NOT NULL,
  status    TEXT NOT NULL,
  exit_code INTEGER NOT NULL,
  PRIMARY KEY (run_id, subject)
);`

// Store keeps a per-study record of past dispatches in a SQLite database,
// typically alongside the study log.
type Store struct {
	db *sql.DB
}

// Entry is one recorded run, as returned by List.
type Entry struct {
	ID       string
	Study    string
	Runner   string
	Started  time.Time
	Finished time.Time
	Hostname string
	Subjects int
	Failed   int
}

// Open opens or creates the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Join(ErrOpenStore, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close() //nolint:errcheck
		return nil, errors.Join(ErrOpenStore, err)
	}

	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts the run and its per-subject outcomes in one transaction.
// The generated run id is returned.
func (s *Store) Record(ctx context.Context, run *report.Run) (string, error) {
	id := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", errors.Join(ErrRecordRun, err)
	}

	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, study, runner, started_at, finished_at, hostname, subjects, failed)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, run.Study, run.Runner,
		run.Started.UTC().Format(time.RFC3339),
		run.Finished.UTC().Format(time.RFC3339),
		run.Host.Hostname, run.Subjects, run.Failed,
	)
	if err != nil {
		return "", errors.Join(ErrRecordRun, err)
	}

	for _, o := range run.Outcomes {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_subjects (run_id, subject, status, exit_code) VALUES (?, ?, ?, ?)`,
			id, o.Subject, o.Status.String(), o.ExitCode,
		)
		if err != nil {
			return "", errors.Join(ErrRecordRun, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", errors.Join(ErrRecordRun, err)
	}

	return id, nil
}

// List returns the most recent runs, newest first. A limit of zero or less
// returns everything.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT id, study, runner, started_at, finished_at, hostname, subjects, failed
	          FROM runs ORDER BY started_at DESC`

	args := []any{}

	if limit > 0 {
		query += " LIMIT ?"

		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Join(ErrListRuns, err)
	}

	defer rows.Close() //nolint:errcheck

	var entries []Entry

	for rows.Next() {
		var (
			e                 Entry
			started, finished string
		)

		if err := rows.Scan(&e.ID, &e.Study, &e.Runner, &started, &finished,
			&e.Hostname, &e.Subjects, &e.Failed); err != nil {
			return nil, errors.Join(ErrListRuns, err)
		}

		e.Started, err = time.Parse(time.RFC3339, started)
		if err != nil {
			return nil, errors.Join(ErrListRuns, err)
		}

		e.Finished, err = time.Parse(time.RFC3339, finished)
		if err != nil {
			return nil, errors.Join(ErrListRuns, err)
		}

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrListRuns, err)
	}

	return entries, nil
}

// Subjects returns the per-subject outcomes recorded for a run.
func (s *Store) Subjects(ctx context.Context, runID string) ([]report.SubjectOutcome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT subject, status, exit_code FROM run_subjects WHERE run_id = ? ORDER BY subject`,
		runID,
	)
	if err != nil {
		return nil, errors.Join(ErrListRuns, err)
	}

	defer rows.Close() //nolint:errcheck

	var outcomes []report.SubjectOutcome

	for rows.Next() {
		var (
			o      report.SubjectOutcome
			status string
		)

		if err := rows.Scan(&o.Subject, &status, &o.ExitCode); err != nil {
			return nil, errors.Join(ErrListRuns, err)
		}

		o.Status = statusFromString(status)

		outcomes = append(outcomes, o)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrListRuns, err)
	}

	return outcomes, nil
}

func statusFromString(s string) runbatch.ResultStatus {
	switch s {
	case runbatch.ResultStatusSuccess.String():
		return runbatch.ResultStatusSuccess
	case runbatch.ResultStatusError.String():
		return runbatch.ResultStatusError
	default:
		return runbatch.ResultStatusUnknown
	}
}
