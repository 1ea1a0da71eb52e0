// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package config

import (
	"context"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads pipeline definitions from the given paths, translates them
	// into the format-agnostic model, and returns a matching Converter.
	Load(ctx context.Context, paths ...string) (*Model, Converter, error)
}

// Converter is the interface for a format-specific data binding and type
// conversion implementation. It bridges raw task arguments and the Go input
// structs declared by operators.
type Converter interface {
	// DecodeArguments evaluates args and stores them into target, which must
	// be a pointer to a struct with `lg` tags.
	DecodeArguments(ctx context.Context, target any, args map[string]hcl.Expression, evalCtx *hcl.EvalContext) error

	// EvalContext builds the evaluation scope for task arguments from the
	// run-scoped outputs and run metadata.
	EvalContext(xcom map[string]cty.Value, run RunInfo) *hcl.EvalContext

	// ToCtyValue converts a native Go value into its cty.Value equivalent.
	ToCtyValue(v any) (cty.Value, error)
}

// RunInfo is the run metadata exposed to expressions as `run.*`.
type RunInfo struct {
	ID          string
	Pipeline    string
	LogicalDate string
	Trigger     string
}
