// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/specialistvlad/lakegrid/internal/config"
	"github.com/specialistvlad/lakegrid/internal/ctxlog"
	"github.com/specialistvlad/lakegrid/internal/notify"
	"github.com/specialistvlad/lakegrid/internal/registry"
	"github.com/specialistvlad/lakegrid/internal/runstore"
	"github.com/specialistvlad/lakegrid/internal/xcom"
	"github.com/zclconf/go-cty/cty"
)

// runTask runs a task with its retry policy and returns its terminal state.
func (e *Executor) runTask(ctx context.Context, r *run, id string) (runstore.TaskState, error) {
	ctx, logger := ctxlog.With(ctx, "task_id", id)

	task, _ := e.model.TaskByID(id)
	op, ok := e.registry.Lookup(task.Kind)
	if !ok {
		return e.failTask(ctx, r, id, 0, fmt.Errorf("no operator registered for kind %q", task.Kind))
	}

	defaults := e.model.Pipeline.Defaults
	retries := task.EffectiveRetries(defaults)
	delay := task.EffectiveRetryDelay(defaults)
	timeout := task.EffectiveTimeout(defaults)

	var b backoff.BackOff = backoff.NewConstantBackOff(delay)
	b = backoff.WithMaxRetries(b, uint64(retries))
	b = backoff.WithContext(b, ctx)

	try := 0
	started := nowPtr()
	attempt := func() error {
		try++
		logger.Info("▶️ Running task.", "kind", task.Kind, "try", try, "max_tries", retries+1)
		e.recordTask(ctx, runstore.TaskInstance{
			RunID: r.id, TaskID: id, State: runstore.TaskRunning, TryNumber: try, StartedAt: started,
		})

		out, err := e.attempt(ctx, r, task, op, try, timeout)
		if err == nil {
			if !out.IsNull() {
				if err := e.opts.XCom.Push(ctx, r.id, id, xcom.ReturnValueKey, out); err != nil {
					return backoff.Permanent(fmt.Errorf("failed to store return value: %w", err))
				}
			}
			logger.Debug("Task output.", "output", formatValueForLogs(out))
			return nil
		}

		var perm *backoff.PermanentError
		if try <= retries && !errors.As(err, &perm) && ctx.Err() == nil {
			logger.Warn("Task attempt failed, will retry.", "try", try, "retry_delay", delay, "error", err)
			e.recordTask(ctx, runstore.TaskInstance{
				RunID: r.id, TaskID: id, State: runstore.TaskUpForRetry, TryNumber: try, Error: err.Error(),
			})
			if e.model.Pipeline.Defaults.NotifyOnRetry {
				e.notify(ctx, r, id, notify.KindRetry, try, err)
			}
		}
		return err
	}

	if err := backoff.Retry(attempt, b); err != nil {
		if ctx.Err() != nil {
			return e.interruptTask(ctx, r, id, try, err)
		}
		return e.failTask(ctx, r, id, try, err)
	}

	e.recordTask(ctx, runstore.TaskInstance{
		RunID: r.id, TaskID: id, State: runstore.TaskSuccess, TryNumber: try, StartedAt: started, EndedAt: nowPtr(),
	})
	logger.Info("✅ Task succeeded.", "try", try)
	return runstore.TaskSuccess, nil
}

// attempt evaluates the task arguments against the current xcom values and
// calls the operator once.
func (e *Executor) attempt(ctx context.Context, r *run, task *config.Task, op *registry.RegisteredOperator, try int, timeout time.Duration) (cty.Value, error) {
	var input any
	if op.NewInput == nil {
		if len(task.Arguments) > 0 {
			return cty.NilVal, backoff.Permanent(fmt.Errorf("kind %q takes no arguments", task.Kind))
		}
	} else {
		values, err := xcom.ReturnValues(ctx, e.opts.XCom, r.id)
		if err != nil {
			return cty.NilVal, fmt.Errorf("failed to read xcom values: %w", err)
		}
		evalCtx := e.converter.EvalContext(values, config.RunInfo{
			ID:          r.id,
			Pipeline:    e.model.Pipeline.Name,
			LogicalDate: r.logicalDate.Format(time.RFC3339),
			Trigger:     r.trigger,
		})
		input = op.NewInput()
		if err := e.converter.DecodeArguments(ctx, input, task.Arguments, evalCtx); err != nil {
			return cty.NilVal, backoff.Permanent(fmt.Errorf("failed to decode arguments: %w", err))
		}
	}

	attemptCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	env := &registry.Env{
		Pipeline: e.model.Pipeline.Name,
		RunID:    r.id,
		TaskID:   task.ID,
		Try:      try,
		BaseDir:  e.model.BaseDir,
		Conns:    e.opts.Conns,
	}
	if e.opts.Runs != nil {
		env.AttachLog = func(ctx context.Context, content string) error {
			return e.opts.Runs.AppendTaskLog(context.WithoutCancel(ctx), runstore.TaskLog{
				RunID: r.id, TaskID: task.ID, TryNumber: try, Content: content,
			})
		}
	}

	out, err := op.Fn(attemptCtx, env, input)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && attemptCtx.Err() != nil && ctx.Err() == nil {
			return cty.NilVal, fmt.Errorf("attempt timed out after %v: %w", timeout, err)
		}
		return cty.NilVal, err
	}
	if out == cty.NilVal {
		out = cty.NullVal(cty.DynamicPseudoType)
	}
	return out, nil
}

func (e *Executor) failTask(ctx context.Context, r *run, id string, try int, err error) (runstore.TaskState, error) {
	ctxlog.FromContext(ctx).Error("❌ Task failed.", "try", try, "error", err)
	e.recordTask(ctx, runstore.TaskInstance{
		RunID: r.id, TaskID: id, State: runstore.TaskFailed, TryNumber: try, EndedAt: nowPtr(), Error: err.Error(),
	})
	if e.model.Pipeline.Defaults.NotifyOnFailure {
		e.notify(ctx, r, id, notify.KindFailure, try, err)
	}
	return runstore.TaskFailed, err
}

// interruptTask ends a task whose run was cancelled mid-attempt or between
// retries. It counts as skipped, not failed, and nobody is notified.
func (e *Executor) interruptTask(ctx context.Context, r *run, id string, try int, err error) (runstore.TaskState, error) {
	ctxlog.FromContext(ctx).Warn("Task interrupted.", "try", try, "error", err)
	e.recordTask(ctx, runstore.TaskInstance{
		RunID: r.id, TaskID: id, State: runstore.TaskSkipped, TryNumber: try, EndedAt: nowPtr(), Error: err.Error(),
	})
	return runstore.TaskSkipped, nil
}
