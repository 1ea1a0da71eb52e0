// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package executor runs one pipeline run over a built dag.Graph.
//
// Tasks become ready when every upstream task reached a terminal state. A
// fixed pool of workers drains the ready channel; each task is attempted up
// to retries+1 times with a constant delay between attempts. When a task
// finishes, its dependents are either queued or, when their trigger rule
// cannot be met anymore, finished without running. Every transition is
// recorded in the run store.
package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/specialistvlad/lakegrid/internal/config"
	"github.com/specialistvlad/lakegrid/internal/ctxlog"
	"github.com/specialistvlad/lakegrid/internal/dag"
	"github.com/specialistvlad/lakegrid/internal/notify"
	"github.com/specialistvlad/lakegrid/internal/registry"
	"github.com/specialistvlad/lakegrid/internal/runstore"
	"github.com/specialistvlad/lakegrid/internal/xcom"
	"github.com/zclconf/go-cty/cty"
)

// Trigger names recorded with a run.
const (
	TriggerManual   = "manual"
	TriggerInterval = "interval"
	TriggerDataset  = "dataset"
)

// Options configures an Executor. Zero values are usable: one worker, an
// in-memory xcom store, no run history and no notifications.
type Options struct {
	Workers  int
	XCom     xcom.Store
	Runs     *runstore.Store
	Notifier notify.Notifier
	Conns    registry.Connections
}

// RunRequest asks for one run.
type RunRequest struct {
	// RunID is generated when empty.
	RunID       string
	Trigger     string
	LogicalDate time.Time
}

// RunResult is the outcome of a run.
type RunResult struct {
	RunID string
	State runstore.RunState
	Tasks map[string]runstore.TaskState
	// Finished lists task ids in the order they reached a terminal state.
	Finished []string
	// Outputs holds the return value of every task that produced one. The
	// run's xcom entries are released once the run is over.
	Outputs map[string]cty.Value
}

// TaskError is the failure of one task.
type TaskError struct {
	TaskID string
	Err    error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task %s failed: %v", e.TaskID, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }

// Executor runs a pipeline.
type Executor struct {
	graph     *dag.Graph
	model     *config.Model
	registry  *registry.Registry
	converter config.Converter
	opts      Options
}

// New creates an Executor for a built graph.
func New(graph *dag.Graph, model *config.Model, reg *registry.Registry, converter config.Converter, opts Options) *Executor {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.XCom == nil {
		opts.XCom = xcom.NewMemoryStore()
	}
	return &Executor{graph: graph, model: model, registry: reg, converter: converter, opts: opts}
}

// Pipeline returns the pipeline the executor runs.
func (e *Executor) Pipeline() *config.Pipeline {
	return e.model.Pipeline
}

// run is the mutable state of one run.
type run struct {
	id          string
	trigger     string
	logicalDate time.Time

	mu        sync.Mutex
	states    map[string]runstore.TaskState
	remaining map[string]int
	finished  []string
	errs      map[string]error

	wg    sync.WaitGroup
	ready chan string
}

func (r *run) state(id string) runstore.TaskState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.states[id]
}

// Run executes every task of the pipeline once and returns when all of them
// reached a terminal state. The error, if any, joins the TaskError of each
// failed task.
func (e *Executor) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}
	if req.Trigger == "" {
		req.Trigger = TriggerManual
	}
	if req.LogicalDate.IsZero() {
		req.LogicalDate = time.Now().UTC()
	}
	ctx, logger := ctxlog.With(ctx, "pipeline", e.model.Pipeline.Name, "run_id", req.RunID)

	nodes := e.graph.Nodes()
	r := &run{
		id:          req.RunID,
		trigger:     req.Trigger,
		logicalDate: req.LogicalDate,
		states:      make(map[string]runstore.TaskState, len(nodes)),
		remaining:   make(map[string]int, len(nodes)),
		errs:        map[string]error{},
		ready:       make(chan string, len(nodes)),
	}

	// Everything that can reject the run is checked before it is recorded.
	var roots []string
	for _, id := range nodes {
		if _, ok := e.model.TaskByID(id); !ok {
			return nil, fmt.Errorf("task %q is not defined", id)
		}
		deps, err := e.graph.Dependencies(id)
		if err != nil {
			return nil, err
		}
		r.states[id] = runstore.TaskQueued
		r.remaining[id] = len(deps)
		if len(deps) == 0 {
			roots = append(roots, id)
		}
	}

	e.recordRun(ctx, runstore.Run{
		ID: r.id, Pipeline: e.model.Pipeline.Name, Trigger: r.trigger,
		State: runstore.RunRunning, StartedAt: time.Now(),
	})
	logger.Info("▶️ Run started.", "trigger", r.trigger, "tasks", len(nodes), "workers", e.opts.Workers)
	for _, id := range nodes {
		e.recordTask(ctx, runstore.TaskInstance{RunID: r.id, TaskID: id, State: runstore.TaskQueued})
	}

	r.wg.Add(len(nodes))
	var workers sync.WaitGroup
	for i := 0; i < e.opts.Workers; i++ {
		workers.Add(1)
		go func(workerID int) {
			defer workers.Done()
			e.worker(ctx, r, workerID)
		}(i + 1)
	}
	for _, id := range roots {
		r.ready <- id
	}

	r.wg.Wait()
	close(r.ready)
	workers.Wait()

	return e.finishRun(ctx, r)
}

func (e *Executor) finishRun(ctx context.Context, r *run) (*RunResult, error) {
	logger := ctxlog.FromContext(ctx)
	res := &RunResult{RunID: r.id, State: runstore.RunSuccess, Tasks: map[string]runstore.TaskState{}}

	r.mu.Lock()
	for id, st := range r.states {
		res.Tasks[id] = st
	}
	res.Finished = append(res.Finished, r.finished...)
	r.mu.Unlock()

	var errs []error
	incomplete := false
	for _, id := range res.Finished {
		switch res.Tasks[id] {
		case runstore.TaskFailed:
			errs = append(errs, &TaskError{TaskID: id, Err: r.errs[id]})
		case runstore.TaskUpstreamFailed:
			incomplete = true
		case runstore.TaskSkipped:
			if ctx.Err() != nil {
				incomplete = true
			}
		}
	}
	if ctx.Err() != nil && incomplete {
		errs = append(errs, fmt.Errorf("run interrupted: %w", ctx.Err()))
	}

	err := errors.Join(errs...)
	if err != nil || incomplete {
		res.State = runstore.RunFailed
	}
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	e.updateRun(ctx, r.id, res.State, msg)
	res.Outputs = e.releaseXCom(ctx, r.id)

	if res.State == runstore.RunSuccess {
		logger.Info("✅ Run finished.", "state", res.State)
	} else {
		logger.Error("❌ Run finished.", "state", res.State, "error", msg)
		if err == nil {
			err = errors.New("run failed: upstream tasks did not succeed")
		}
	}
	return res, err
}

// releaseXCom returns the run's task outputs and drops them from the store.
func (e *Executor) releaseXCom(ctx context.Context, runID string) map[string]cty.Value {
	ctx = context.WithoutCancel(ctx)
	logger := ctxlog.FromContext(ctx)

	outputs, err := xcom.ReturnValues(ctx, e.opts.XCom, runID)
	if err != nil {
		logger.Warn("Failed to read run outputs.", "error", err)
	}
	if err := e.opts.XCom.Clear(ctx, runID); err != nil {
		logger.Warn("Failed to clear xcom values.", "error", err)
	}
	return outputs
}
