// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package executor

import (
	"context"

	"github.com/specialistvlad/lakegrid/internal/config"
	"github.com/specialistvlad/lakegrid/internal/ctxlog"
	"github.com/specialistvlad/lakegrid/internal/runstore"
)

// worker is a long-running goroutine that pulls ready tasks from the run's
// ready channel and executes them.
func (e *Executor) worker(ctx context.Context, r *run, workerID int) {
	logger := ctxlog.FromContext(ctx).With("worker_id", workerID)
	logger.Debug("Worker started.")
	defer logger.Debug("Worker finished.")

	for id := range r.ready {
		if ctx.Err() != nil {
			logger.Debug("Context cancelled, skipping task.", "task_id", id)
			e.notRun(ctx, r, id, runstore.TaskSkipped)
			e.finishTask(ctx, r, id, runstore.TaskSkipped, nil)
			continue
		}
		state, err := e.runTask(ctx, r, id)
		e.finishTask(ctx, r, id, state, err)
	}
}

// finishTask stores the terminal state of a task and resolves its
// dependents. Dependents whose trigger rule can no longer be met are
// finished in place, which cascades down the graph.
func (e *Executor) finishTask(ctx context.Context, r *run, id string, state runstore.TaskState, taskErr error) {
	logger := ctxlog.FromContext(ctx)

	r.mu.Lock()
	r.states[id] = state
	r.finished = append(r.finished, id)
	if taskErr != nil {
		r.errs[id] = taskErr
	}
	r.mu.Unlock()

	dependents, _ := e.graph.Dependents(id)
	for _, dep := range dependents {
		r.mu.Lock()
		r.remaining[dep]--
		ready := r.remaining[dep] == 0
		r.mu.Unlock()
		if !ready {
			continue
		}

		switch next := e.resolve(r, dep); next {
		case runstore.TaskQueued:
			logger.Debug("Task is ready.", "task_id", dep)
			r.ready <- dep
		default:
			e.notRun(ctx, r, dep, next)
			e.finishTask(ctx, r, dep, next, nil)
		}
	}

	r.wg.Done()
}

// notRun records a task that finished without an attempt.
func (e *Executor) notRun(ctx context.Context, r *run, id string, state runstore.TaskState) {
	e.recordTask(ctx, runstore.TaskInstance{RunID: r.id, TaskID: id, State: state, EndedAt: nowPtr()})
	ctxlog.FromContext(ctx).Info("Task not run.", "task_id", id, "state", state)
}

// resolve applies the trigger rule of a task whose upstream tasks are all
// finished. It returns TaskQueued when the task should run.
func (e *Executor) resolve(r *run, id string) runstore.TaskState {
	task, _ := e.model.TaskByID(id)
	if task.TriggerRule == config.TriggerAllDone {
		return runstore.TaskQueued
	}

	deps, _ := e.graph.Dependencies(id)
	skipped := false
	for _, d := range deps {
		switch r.state(d) {
		case runstore.TaskFailed, runstore.TaskUpstreamFailed:
			return runstore.TaskUpstreamFailed
		case runstore.TaskSkipped:
			skipped = true
		}
	}
	if skipped {
		return runstore.TaskSkipped
	}
	return runstore.TaskQueued
}
