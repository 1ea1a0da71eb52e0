// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package dag

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/lakegrid/internal/config"
	"github.com/specialistvlad/lakegrid/internal/ctxlog"
)

// xcomRef extracts the task id from a traversal of the form
// `xcom.<task_id>[...]`.
func xcomRef(traversal hcl.Traversal) (string, bool) {
	if len(traversal) < 2 || traversal.RootName() != "xcom" {
		return "", false
	}
	attr, ok := traversal[1].(hcl.TraverseAttr)
	if !ok {
		return "", false
	}
	return attr.Name, true
}

// ImplicitDependencies returns the ids of the tasks whose outputs the task's
// arguments reference, sorted.
func ImplicitDependencies(task *config.Task) []string {
	seen := make(map[string]struct{})
	for _, expr := range task.Arguments {
		for _, traversal := range expr.Variables() {
			if id, ok := xcomRef(traversal); ok {
				seen[id] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// linkImplicitDeps adds an edge for every xcom reference in the task's arguments.
func linkImplicitDeps(ctx context.Context, task *config.Task, graph *Graph) error {
	logger := ctxlog.FromContext(ctx)
	for _, dep := range ImplicitDependencies(task) {
		if dep == task.ID {
			return fmt.Errorf("task %q references its own output", task.ID)
		}
		if !graph.Has(dep) {
			return fmt.Errorf("task %q references output of unknown task %q", task.ID, dep)
		}
		logger.Debug("Linking implicit dependency.", "from", dep, "to", task.ID)
		if err := graph.AddEdge(dep, task.ID); err != nil {
			return err
		}
	}
	return nil
}
