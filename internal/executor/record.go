// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package executor

import (
	"context"
	"time"

	"github.com/specialistvlad/lakegrid/internal/ctxlog"
	"github.com/specialistvlad/lakegrid/internal/notify"
	"github.com/specialistvlad/lakegrid/internal/runstore"
)

// History writes never fail a run; they outlive cancellation so the final
// states of an interrupted run are still stored.

func (e *Executor) recordRun(ctx context.Context, run runstore.Run) {
	if e.opts.Runs == nil {
		return
	}
	if err := e.opts.Runs.CreateRun(context.WithoutCancel(ctx), run); err != nil {
		ctxlog.FromContext(ctx).Warn("Failed to record run.", "error", err)
	}
}

func (e *Executor) updateRun(ctx context.Context, id string, state runstore.RunState, msg string) {
	if e.opts.Runs == nil {
		return
	}
	if err := e.opts.Runs.UpdateRunState(context.WithoutCancel(ctx), id, state, msg); err != nil {
		ctxlog.FromContext(ctx).Warn("Failed to record run state.", "error", err)
	}
}

func (e *Executor) recordTask(ctx context.Context, ti runstore.TaskInstance) {
	if e.opts.Runs == nil {
		return
	}
	if err := e.opts.Runs.UpsertTaskInstance(context.WithoutCancel(ctx), ti); err != nil {
		ctxlog.FromContext(ctx).Warn("Failed to record task state.", "task_id", ti.TaskID, "state", ti.State, "error", err)
	}
}

func (e *Executor) notify(ctx context.Context, r *run, id string, kind notify.Kind, try int, err error) {
	if e.opts.Notifier == nil {
		return
	}
	ev := notify.Event{
		Pipeline: e.model.Pipeline.Name,
		RunID:    r.id,
		TaskID:   id,
		Kind:     kind,
		Try:      try,
		Error:    err.Error(),
		Time:     time.Now().UTC(),
	}
	if nerr := e.opts.Notifier.Notify(context.WithoutCancel(ctx), ev); nerr != nil {
		ctxlog.FromContext(ctx).Warn("Failed to send notification.", "kind", kind, "error", nerr)
	}
}

func nowPtr() *time.Time {
	t := time.Now()
	return &t
}
