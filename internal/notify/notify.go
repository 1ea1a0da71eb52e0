// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package notify delivers task failure and retry notifications.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/specialistvlad/lakegrid/internal/ctxlog"
)

// Kind of notification.
type Kind string

const (
	KindFailure Kind = "failure"
	KindRetry   Kind = "retry"
)

// Event describes what happened to a task.
type Event struct {
	Pipeline string    `json:"pipeline"`
	RunID    string    `json:"run_id"`
	TaskID   string    `json:"task_id"`
	Kind     Kind      `json:"kind"`
	Try      int       `json:"try"`
	Error    string    `json:"error"`
	Time     time.Time `json:"time"`
}

// Notifier delivers events.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// Func adapts a function to the Notifier interface.
type Func func(ctx context.Context, ev Event) error

func (f Func) Notify(ctx context.Context, ev Event) error { return f(ctx, ev) }

// Log writes events to the context logger.
type Log struct{}

func (Log) Notify(ctx context.Context, ev Event) error {
	logger := ctxlog.FromContext(ctx)
	args := []any{"pipeline", ev.Pipeline, "run_id", ev.RunID, "task_id", ev.TaskID, "try", ev.Try, "error", ev.Error}
	if ev.Kind == KindFailure {
		logger.Error("Task failed.", args...)
	} else {
		logger.Warn("Task will be retried.", args...)
	}
	return nil
}

// Multi fans an event out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, ev Event) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
