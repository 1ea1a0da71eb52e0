// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package cluster

import (
	"context"
	"errors"
)

// ErrJobNotFound is returned by a Scheduler asked about a job it never saw.
var ErrJobNotFound = errors.New("job not found")

// State is the lifecycle state of a submitted job.
type State string

const (
	StateSubmitted State = "submitted"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
	StateUnknown   State = "unknown"
)

// Terminal reports whether the job will not change state anymore.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// Job is a handle to a submitted job.
type Job struct {
	Name      string
	Namespace string
	// ID is the scheduler's own identifier (a container id for Docker).
	ID   string
	Spec *JobSpec
}

// JobStatus is a point-in-time view of a job.
type JobStatus struct {
	State    State
	ExitCode int
	Message  string
}

// Scheduler submits transformation jobs to an external engine and reports
// on them. It never runs job code in-process.
type Scheduler interface {
	Submit(ctx context.Context, namespace string, spec *JobSpec) (*Job, error)
	Status(ctx context.Context, namespace, name string) (JobStatus, error)
	Logs(ctx context.Context, namespace, name string) (string, error)
}
