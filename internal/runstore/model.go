// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package runstore

import "time"

// RunState is the state of a pipeline run.
type RunState string

const (
	RunQueued  RunState = "queued"
	RunRunning RunState = "running"
	RunSuccess RunState = "success"
	RunFailed  RunState = "failed"
)

// TaskState is the state of one task within a run.
type TaskState string

const (
	TaskQueued         TaskState = "queued"
	TaskRunning        TaskState = "running"
	TaskUpForRetry     TaskState = "up_for_retry"
	TaskSuccess        TaskState = "success"
	TaskFailed         TaskState = "failed"
	TaskUpstreamFailed TaskState = "upstream_failed"
	TaskSkipped        TaskState = "skipped"
)

// Finished reports whether the task reached a terminal state.
func (s TaskState) Finished() bool {
	switch s {
	case TaskSuccess, TaskFailed, TaskUpstreamFailed, TaskSkipped:
		return true
	}
	return false
}

// Run is one row of pipeline_runs.
type Run struct {
	ID        string
	Pipeline  string
	Trigger   string
	State     RunState
	StartedAt time.Time
	EndedAt   *time.Time
	Error     string
}

// TaskInstance is one row of task_instances.
type TaskInstance struct {
	RunID     string
	TaskID    string
	State     TaskState
	TryNumber int
	StartedAt *time.Time
	EndedAt   *time.Time
	Error     string
}

// TaskLog is one row of task_logs.
type TaskLog struct {
	RunID     string
	TaskID    string
	TryNumber int
	Content   string
	CreatedAt time.Time
}
