// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package job_submit

import (
	"context"
	"fmt"

	"github.com/specialistvlad/lakegrid/internal/cluster"
	"github.com/specialistvlad/lakegrid/internal/ctxlog"
	"github.com/specialistvlad/lakegrid/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// Kind is the task kind this module registers.
const Kind = "job_submit"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments of a job_submit task.
type Input struct {
	Namespace string `lg:"namespace"`
	// ApplicationFile is a job spec YAML, relative to the pipeline directory.
	ApplicationFile string `lg:"application_file"`
	ConnID          string `lg:"conn_id"`
}

// Run loads the job spec and submits it. The output mirrors the submitted
// object so monitors can address it as xcom.<task>.metadata.name.
func Run(ctx context.Context, env *registry.Env, in *Input) (cty.Value, error) {
	path := env.ResolvePath(in.ApplicationFile)
	logger := ctxlog.FromContext(ctx).With("application_file", path, "namespace", in.Namespace)

	spec, err := cluster.LoadJobSpec(path)
	if err != nil {
		return cty.NilVal, err
	}

	sched, err := env.Conns.Cluster(ctx, in.ConnID)
	if err != nil {
		return cty.NilVal, err
	}

	job, err := sched.Submit(ctx, in.Namespace, spec)
	if err != nil {
		return cty.NilVal, fmt.Errorf("failed to submit %s: %w", in.ApplicationFile, err)
	}
	logger.Info("Submitted job.", "job", job.Name, "id", job.ID)

	return cty.ObjectVal(map[string]cty.Value{
		"metadata": cty.ObjectVal(map[string]cty.Value{
			"name":      cty.StringVal(job.Name),
			"namespace": cty.StringVal(job.Namespace),
			"uid":       cty.StringVal(job.ID),
		}),
		"spec": cty.ObjectVal(map[string]cty.Value{
			"image":   cty.StringVal(spec.Spec.Image),
			"command": stringList(spec.Argv()),
		}),
	}), nil
}

func stringList(items []string) cty.Value {
	if len(items) == 0 {
		return cty.ListValEmpty(cty.String)
	}
	vals := make([]cty.Value, len(items))
	for i, s := range items {
		vals[i] = cty.StringVal(s)
	}
	return cty.ListVal(vals)
}

// Register registers the operator with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterOperator(Kind, registry.Typed(nil, Run))
}
