// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/zclconf/go-cty/cty"
)

// Module is the interface that all core modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// OperatorFunc runs one attempt of a task. The returned value becomes the
// task's xcom return value.
type OperatorFunc func(ctx context.Context, env *Env, input any) (cty.Value, error)

// RegisteredOperator holds the compiled Go parts of a task kind.
type RegisteredOperator struct {
	// NewInput returns a pointer to a fresh input struct, pre-filled with
	// defaults. Nil means the operator takes no arguments.
	NewInput func() any
	Fn       OperatorFunc
}

// Registry holds all the registered operators for a single application instance.
type Registry struct {
	operators map[string]*RegisteredOperator
}

// New creates and initializes a new Registry instance.
func New(modules ...Module) *Registry {
	r := &Registry{operators: make(map[string]*RegisteredOperator)}
	for _, m := range modules {
		m.Register(r)
	}
	return r
}

// RegisterOperator registers the operator for a task kind.
func (r *Registry) RegisterOperator(kind string, op *RegisteredOperator) {
	if _, exists := r.operators[kind]; exists {
		panic(fmt.Sprintf("operator for kind '%s' already registered", kind))
	}
	if op == nil || op.Fn == nil {
		panic(fmt.Sprintf("operator for kind '%s' has no function", kind))
	}
	slog.Debug("Registering operator.", "kind", kind)
	r.operators[kind] = op
}

// Lookup returns the operator registered for kind.
func (r *Registry) Lookup(kind string) (*RegisteredOperator, bool) {
	op, ok := r.operators[kind]
	return op, ok
}

// Kinds returns the registered task kinds, sorted.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.operators))
	for k := range r.operators {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Typed adapts a strongly typed operator function to a RegisteredOperator.
// newInput supplies the defaults; pass nil for a zero-valued input.
func Typed[I any](newInput func() *I, fn func(ctx context.Context, env *Env, input *I) (cty.Value, error)) *RegisteredOperator {
	if newInput == nil {
		newInput = func() *I { return new(I) }
	}
	return &RegisteredOperator{
		NewInput: func() any { return newInput() },
		Fn: func(ctx context.Context, env *Env, input any) (cty.Value, error) {
			in, ok := input.(*I)
			if !ok {
				return cty.NilVal, fmt.Errorf("operator received input of type %T", input)
			}
			return fn(ctx, env, in)
		},
	}
}
