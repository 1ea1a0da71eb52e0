// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package runstore persists run history in SQLite: runs, task instances and
// the logs attached to them.
package runstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrRunNotFound is returned by GetRun for an unknown id.
var ErrRunNotFound = errors.New("run not found")

const schema = `
CREATE TABLE IF NOT EXISTS pipeline_runs (
	id TEXT PRIMARY KEY,
	pipeline TEXT NOT NULL,
	trigger TEXT NOT NULL,
	state TEXT NOT NULL,
	started_at DATETIME NOT NULL,
	ended_at DATETIME,
	error TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS pipeline_runs_pipeline ON pipeline_runs (pipeline, started_at);

CREATE TABLE IF NOT EXISTS task_instances (
	run_id TEXT NOT NULL,
	task_id TEXT NOT NULL,
	state TEXT NOT NULL,
	try_number INTEGER NOT NULL DEFAULT 0,
	started_at DATETIME,
	ended_at DATETIME,
	error TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (run_id, task_id)
);

CREATE TABLE IF NOT EXISTS task_logs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	task_id TEXT NOT NULL,
	try_number INTEGER NOT NULL,
	content TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
`

// Store is a SQLite backed run history.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path. An empty path or
// ":memory:" keeps the history in memory for the life of the process.
func Open(path string) (*Store, error) {
	if path == "" {
		path = ":memory:"
	}
	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?_busy_timeout=5000"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open run store %s: %w", path, err)
	}
	// One connection: SQLite serialises writers anyway and an in-memory
	// database exists per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialise run store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateRun inserts a new run.
func (s *Store) CreateRun(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pipeline_runs (id, pipeline, trigger, state, started_at, error) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Pipeline, run.Trigger, string(run.State), run.StartedAt.UTC(), run.Error)
	if err != nil {
		return fmt.Errorf("failed to create run %s: %w", run.ID, err)
	}
	return nil
}

// UpdateRunState sets the state of a run. Terminal states also stamp ended_at.
func (s *Store) UpdateRunState(ctx context.Context, id string, state RunState, runErr string) error {
	var ended any
	if state == RunSuccess || state == RunFailed {
		ended = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE pipeline_runs SET state = ?, ended_at = COALESCE(?, ended_at), error = ? WHERE id = ?`,
		string(state), ended, runErr, id)
	if err != nil {
		return fmt.Errorf("failed to update run %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

// UpsertTaskInstance writes the current state of a task instance.
func (s *Store) UpsertTaskInstance(ctx context.Context, ti TaskInstance) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO task_instances (run_id, task_id, state, try_number, started_at, ended_at, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (run_id, task_id) DO UPDATE SET
			state = excluded.state,
			try_number = excluded.try_number,
			started_at = COALESCE(excluded.started_at, task_instances.started_at),
			ended_at = excluded.ended_at,
			error = excluded.error`,
		ti.RunID, ti.TaskID, string(ti.State), ti.TryNumber, nullTime(ti.StartedAt), nullTime(ti.EndedAt), ti.Error)
	if err != nil {
		return fmt.Errorf("failed to record task %s of run %s: %w", ti.TaskID, ti.RunID, err)
	}
	return nil
}

// AppendTaskLog stores captured output of a task attempt.
func (s *Store) AppendTaskLog(ctx context.Context, l TaskLog) error {
	created := l.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO task_logs (run_id, task_id, try_number, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		l.RunID, l.TaskID, l.TryNumber, l.Content, created.UTC())
	if err != nil {
		return fmt.Errorf("failed to store log of task %s: %w", l.TaskID, err)
	}
	return nil
}

// GetRun returns one run.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, pipeline, trigger, state, started_at, ended_at, error FROM pipeline_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// ListRuns returns the latest runs of a pipeline, newest first. An empty
// pipeline lists every pipeline; limit <= 0 means no limit.
func (s *Store) ListRuns(ctx context.Context, pipeline string, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, pipeline, trigger, state, started_at, ended_at, error FROM pipeline_runs
		WHERE ? = '' OR pipeline = ?
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?`, pipeline, pipeline, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ListTaskInstances returns the task instances of a run ordered by start.
func (s *Store) ListTaskInstances(ctx context.Context, runID string) ([]*TaskInstance, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, task_id, state, try_number, started_at, ended_at, error FROM task_instances
		WHERE run_id = ?
		ORDER BY started_at IS NULL, started_at, rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list task instances: %w", err)
	}
	defer rows.Close()

	var out []*TaskInstance
	for rows.Next() {
		var ti TaskInstance
		var state string
		var started, ended sql.NullTime
		if err := rows.Scan(&ti.RunID, &ti.TaskID, &state, &ti.TryNumber, &started, &ended, &ti.Error); err != nil {
			return nil, err
		}
		ti.State = TaskState(state)
		ti.StartedAt = timePtr(started)
		ti.EndedAt = timePtr(ended)
		out = append(out, &ti)
	}
	return out, rows.Err()
}

// TaskLogs returns the logs attached to a task, oldest first.
func (s *Store) TaskLogs(ctx context.Context, runID, taskID string) ([]TaskLog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, task_id, try_number, content, created_at FROM task_logs
		WHERE run_id = ? AND task_id = ? ORDER BY id`, runID, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to read task logs: %w", err)
	}
	defer rows.Close()

	var out []TaskLog
	for rows.Next() {
		var l TaskLog
		if err := rows.Scan(&l.RunID, &l.TaskID, &l.TryNumber, &l.Content, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var run Run
	var state string
	var ended sql.NullTime
	if err := s.Scan(&run.ID, &run.Pipeline, &run.Trigger, &state, &run.StartedAt, &ended, &run.Error); err != nil {
		return nil, err
	}
	run.State = RunState(state)
	run.EndedAt = timePtr(ended)
	return &run, nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
