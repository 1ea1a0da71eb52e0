// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package scheduler

import (
	"context"
	"errors"
	"sync"

	"github.com/specialistvlad/lakegrid/internal/ctxlog"
	"github.com/specialistvlad/lakegrid/internal/executor"
	"github.com/specialistvlad/lakegrid/internal/runlock"
	"golang.org/x/sync/errgroup"
)

// Scheduler turns trigger events into pipeline runs.
type Scheduler struct {
	runner        Runner
	pipeline      string
	maxActiveRuns int
	locker        runlock.Locker
	triggers      []Trigger

	runs sync.WaitGroup
}

// New creates a Scheduler. maxActiveRuns below one is treated as one.
func New(runner Runner, pipeline string, maxActiveRuns int, locker runlock.Locker, triggers ...Trigger) *Scheduler {
	if maxActiveRuns < 1 {
		maxActiveRuns = 1
	}
	return &Scheduler{
		runner:        runner,
		pipeline:      pipeline,
		maxActiveRuns: maxActiveRuns,
		locker:        locker,
		triggers:      triggers,
	}
}

// Serve runs until ctx is cancelled or a trigger fails. In-flight runs are
// waited for before it returns; they see the cancellation through ctx.
func (s *Scheduler) Serve(ctx context.Context) error {
	ctx, logger := ctxlog.With(ctx, "pipeline", s.pipeline)
	if len(s.triggers) == 0 {
		return errors.New("no triggers configured")
	}

	g, gctx := errgroup.WithContext(ctx)
	requests := make(chan executor.RunRequest)
	for _, t := range s.triggers {
		t := t
		g.Go(func() error {
			logger.Info("Trigger started.", "trigger", t.Name())
			return t.Start(gctx, requests)
		})
	}

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case req := <-requests:
				s.dispatch(gctx, req)
			}
		}
	})

	err := g.Wait()
	s.runs.Wait()
	logger.Info("Scheduler stopped.")
	return err
}

// dispatch starts a run in the background when a lock slot is free.
func (s *Scheduler) dispatch(ctx context.Context, req executor.RunRequest) {
	logger := ctxlog.FromContext(ctx)

	unlock, err := s.locker.TryLock(ctx, s.pipeline, s.maxActiveRuns)
	if errors.Is(err, runlock.ErrLocked) {
		logger.Info("Run skipped, max active runs reached.", "trigger", req.Trigger, "max_active_runs", s.maxActiveRuns)
		return
	}
	if err != nil {
		logger.Error("Failed to acquire run lock.", "trigger", req.Trigger, "error", err)
		return
	}

	s.runs.Add(1)
	go func() {
		defer s.runs.Done()
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("Failed to release run lock.", "error", err)
			}
		}()
		res, err := s.runner.Run(ctx, req)
		if err != nil {
			logger.Error("Run failed.", "trigger", req.Trigger, "error", err)
			return
		}
		logger.Info("Run succeeded.", "trigger", req.Trigger, "run_id", res.RunID)
	}()
}
