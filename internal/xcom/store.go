// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package xcom

import (
	"context"

	"github.com/zclconf/go-cty/cty"
)

// ReturnValueKey is the key an operator's output is stored under.
const ReturnValueKey = "return_value"

// Store is a run-scoped key/value store.
type Store interface {
	Push(ctx context.Context, runID, taskID, key string, v cty.Value) error
	// Pull returns the value and whether it was present.
	Pull(ctx context.Context, runID, taskID, key string) (cty.Value, bool, error)
	// All returns every value of a run, by task then key.
	All(ctx context.Context, runID string) (map[string]map[string]cty.Value, error)
	Clear(ctx context.Context, runID string) error
}

// ReturnValues flattens All down to the return value of each task, the shape
// expressions see under `xcom`.
func ReturnValues(ctx context.Context, s Store, runID string) (map[string]cty.Value, error) {
	all, err := s.All(ctx, runID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]cty.Value, len(all))
	for task, values := range all {
		if v, ok := values[ReturnValueKey]; ok {
			out[task] = v
		}
	}
	return out, nil
}
