// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package dag

import (
	"context"
	"fmt"

	"github.com/specialistvlad/lakegrid/internal/config"
	"github.com/specialistvlad/lakegrid/internal/ctxlog"
	"github.com/specialistvlad/lakegrid/internal/registry"
)

// Build constructs a complete, validated dependency graph from a config model.
func Build(ctx context.Context, model *config.Model, r *registry.Registry) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: Starting graph construction.")
	graph := New()

	// First pass: one node per task, rejecting kinds nobody registered.
	for _, task := range model.Tasks {
		if _, ok := r.Lookup(task.Kind); !ok {
			return nil, fmt.Errorf("task %q: unknown task kind %q (registered: %v)", task.ID, task.Kind, r.Kinds())
		}
		graph.AddNode(task.ID)
	}
	logger.Debug("Build: Node creation complete.", "node_count", graph.Len())

	// Second pass: link explicit and implicit dependencies.
	for _, task := range model.Tasks {
		for _, dep := range task.DependsOn {
			if !graph.Has(dep) {
				return nil, fmt.Errorf("task %q depends on unknown task %q", task.ID, dep)
			}
			if err := graph.AddEdge(dep, task.ID); err != nil {
				return nil, fmt.Errorf("task %q: %w", task.ID, err)
			}
		}
		if err := linkImplicitDeps(ctx, task, graph); err != nil {
			return nil, err
		}
	}
	logger.Debug("Build: Node linking complete.")

	if err := graph.DetectCycles(); err != nil {
		return nil, fmt.Errorf("error validating dependency graph: %w", err)
	}
	logger.Debug("Build: Graph construction successful.", "chain", graph.IsChain())
	return graph, nil
}
