// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package job_sensor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/specialistvlad/lakegrid/internal/cluster"
	"github.com/specialistvlad/lakegrid/internal/ctxlog"
	"github.com/specialistvlad/lakegrid/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// Kind is the task kind this module registers.
const Kind = "job_sensor"

const (
	DefaultPokeInterval = 30 * time.Second
	DefaultTimeout      = 7 * 24 * time.Hour
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments of a job_sensor task.
type Input struct {
	Namespace       string        `lg:"namespace"`
	ApplicationName string        `lg:"application_name"`
	ConnID          string        `lg:"conn_id"`
	AttachLog       bool          `lg:"attach_log,optional"`
	PokeInterval    time.Duration `lg:"poke_interval,optional"`
	Timeout         time.Duration `lg:"timeout,optional"`
}

func newInput() *Input {
	return &Input{PokeInterval: DefaultPokeInterval, Timeout: DefaultTimeout}
}

var errNotDone = errors.New("job not finished")

// Run polls the job until it reaches a terminal state. A failed job is an
// error; with attach_log the job output is logged and stored either way.
func Run(ctx context.Context, env *registry.Env, in *Input) (cty.Value, error) {
	ctx, logger := ctxlog.With(ctx, "job", in.ApplicationName, "namespace", in.Namespace)

	sched, err := env.Conns.Cluster(ctx, in.ConnID)
	if err != nil {
		return cty.NilVal, err
	}

	status, err := poll(ctx, sched, in)
	if err != nil {
		return cty.NilVal, err
	}
	logger.Info("Job finished.", "state", status.State, "exit_code", status.ExitCode)

	if in.AttachLog {
		if err := attachLogs(ctx, env, sched, in); err != nil {
			logger.Warn("Failed to attach job logs.", "error", err)
		}
	}

	if status.State == cluster.StateFailed {
		msg := status.Message
		if msg == "" {
			msg = fmt.Sprintf("exit code %d", status.ExitCode)
		}
		return cty.NilVal, fmt.Errorf("job %s/%s failed: %s", in.Namespace, in.ApplicationName, msg)
	}

	return cty.ObjectVal(map[string]cty.Value{
		"name":      cty.StringVal(in.ApplicationName),
		"state":     cty.StringVal(string(status.State)),
		"exit_code": cty.NumberIntVal(int64(status.ExitCode)),
	}), nil
}

func poll(ctx context.Context, sched cluster.Scheduler, in *Input) (cluster.JobStatus, error) {
	logger := ctxlog.FromContext(ctx)
	if in.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, in.Timeout)
		defer cancel()
	}

	var status cluster.JobStatus
	op := func() error {
		st, err := sched.Status(ctx, in.Namespace, in.ApplicationName)
		if err != nil {
			if errors.Is(err, cluster.ErrJobNotFound) {
				return backoff.Permanent(err)
			}
			logger.Warn("Status check failed.", "error", err)
			return err
		}
		status = st
		if !st.State.Terminal() {
			logger.Debug("Poking job.", "state", st.State)
			return errNotDone
		}
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(backoff.NewConstantBackOff(in.PokeInterval), ctx)); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return status, fmt.Errorf("job %s/%s not finished within %v (last state %s)", in.Namespace, in.ApplicationName, in.Timeout, status.State)
		}
		return status, err
	}
	return status, nil
}

func attachLogs(ctx context.Context, env *registry.Env, sched cluster.Scheduler, in *Input) error {
	logs, err := sched.Logs(ctx, in.Namespace, in.ApplicationName)
	if err != nil {
		return err
	}
	logger := ctxlog.FromContext(ctx)
	for _, line := range strings.Split(strings.TrimRight(logs, "\n"), "\n") {
		if line != "" {
			logger.Info(line, "source", "job")
		}
	}
	return env.Attach(ctx, logs)
}

// Register registers the operator with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterOperator(Kind, registry.Typed(newInput, Run))
}
