// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package config

import (
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2"
)

// Defaults mirror the scheduling policy the brewery pipeline ships with:
// one retry a day later, one active run at a time.
const (
	DefaultRetries       = 1
	DefaultRetryDelay    = 24 * time.Hour
	DefaultMaxActiveRuns = 1
	DefaultPollInterval  = time.Minute
)

// Model is the unified, format-agnostic representation of a pipeline
// definition: the pipeline itself, its named connections and its tasks.
type Model struct {
	Pipeline    *Pipeline
	Connections map[string]*Connection
	// Tasks are kept in declaration order.
	Tasks []*Task
	// BaseDir is where relative paths inside the definition resolve.
	BaseDir string
}

// Pipeline is the format-agnostic representation of a `pipeline` block.
type Pipeline struct {
	Name          string
	Description   string
	Tags          []string
	MaxActiveRuns int
	Defaults      DefaultArgs
	Schedule      *Schedule
}

// DefaultArgs are task settings inherited by every task unless overridden.
type DefaultArgs struct {
	Owner           string
	Retries         int
	RetryDelay      time.Duration
	Timeout         time.Duration
	NotifyOnFailure bool
	NotifyOnRetry   bool
}

// Schedule describes when runs are started in serve mode. Interval and
// Dataset may be combined; an empty schedule means manual runs only.
type Schedule struct {
	Interval     time.Duration
	Dataset      string
	PollInterval time.Duration
	ConnID       string
}

// Connection is a named external system (object store, cluster, ...).
type Connection struct {
	Kind       string
	ID         string
	Attributes map[string]hcl.Expression
}

// TriggerRule decides when a task runs relative to its upstream tasks.
type TriggerRule string

const (
	// TriggerAllSuccess runs the task only when every upstream task succeeded.
	TriggerAllSuccess TriggerRule = "all_success"
	// TriggerAllDone runs the task once every upstream task finished, whatever the outcome.
	TriggerAllDone TriggerRule = "all_done"
)

// ParseTriggerRule validates a trigger rule name; empty means all_success.
func ParseTriggerRule(s string) (TriggerRule, error) {
	switch TriggerRule(s) {
	case "", TriggerAllSuccess:
		return TriggerAllSuccess, nil
	case TriggerAllDone:
		return TriggerAllDone, nil
	default:
		return "", fmt.Errorf("unsupported trigger_rule %q: must be %q or %q", s, TriggerAllSuccess, TriggerAllDone)
	}
}

// Task is the format-agnostic representation of a `task` block.
type Task struct {
	Kind        string
	ID          string
	DependsOn   []string
	TriggerRule TriggerRule
	// Retries and RetryDelay override the pipeline defaults when set.
	Retries    *int
	RetryDelay *time.Duration
	Timeout    time.Duration
	Arguments  map[string]hcl.Expression
}

// EffectiveRetries returns the retry count for the task.
func (t *Task) EffectiveRetries(d DefaultArgs) int {
	if t.Retries != nil {
		return *t.Retries
	}
	return d.Retries
}

// EffectiveRetryDelay returns the delay between attempts for the task.
func (t *Task) EffectiveRetryDelay(d DefaultArgs) time.Duration {
	if t.RetryDelay != nil {
		return *t.RetryDelay
	}
	return d.RetryDelay
}

// EffectiveTimeout returns the per-attempt timeout; zero means none.
func (t *Task) EffectiveTimeout(d DefaultArgs) time.Duration {
	if t.Timeout > 0 {
		return t.Timeout
	}
	return d.Timeout
}

// TaskByID looks a task up by its id.
func (m *Model) TaskByID(id string) (*Task, bool) {
	for _, t := range m.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return nil, false
}
