// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package empty

import (
	"context"

	"github.com/specialistvlad/lakegrid/internal/ctxlog"
	"github.com/specialistvlad/lakegrid/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// Kind is the task kind this module registers.
const Kind = "empty"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Run does nothing. Empty tasks mark the start and end of a pipeline and
// group dependencies.
func Run(ctx context.Context, env *registry.Env, _ any) (cty.Value, error) {
	ctxlog.FromContext(ctx).Debug("Empty task reached.", "task_id", env.TaskID)
	return cty.NullVal(cty.DynamicPseudoType), nil
}

// Register registers the operator with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterOperator(Kind, &registry.RegisteredOperator{Fn: Run})
}
