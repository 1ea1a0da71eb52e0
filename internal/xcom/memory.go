// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package xcom

import (
	"context"
	"sync"

	"github.com/zclconf/go-cty/cty"
)

// MemoryStore keeps values in process memory. Each run gets its own
// sync.Map so concurrent tasks of a run never contend on a global lock.
type MemoryStore struct {
	runs sync.Map // run id -> *sync.Map (entryKey -> cty.Value)
}

type entryKey struct {
	task string
	key  string
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) run(runID string) *sync.Map {
	m, _ := s.runs.LoadOrStore(runID, &sync.Map{})
	return m.(*sync.Map)
}

func (s *MemoryStore) Push(ctx context.Context, runID, taskID, key string, v cty.Value) error {
	s.run(runID).Store(entryKey{task: taskID, key: key}, v)
	return nil
}

func (s *MemoryStore) Pull(ctx context.Context, runID, taskID, key string) (cty.Value, bool, error) {
	m, ok := s.runs.Load(runID)
	if !ok {
		return cty.NilVal, false, nil
	}
	v, ok := m.(*sync.Map).Load(entryKey{task: taskID, key: key})
	if !ok {
		return cty.NilVal, false, nil
	}
	return v.(cty.Value), true, nil
}

func (s *MemoryStore) All(ctx context.Context, runID string) (map[string]map[string]cty.Value, error) {
	out := map[string]map[string]cty.Value{}
	m, ok := s.runs.Load(runID)
	if !ok {
		return out, nil
	}
	m.(*sync.Map).Range(func(k, v any) bool {
		ek := k.(entryKey)
		if out[ek.task] == nil {
			out[ek.task] = map[string]cty.Value{}
		}
		out[ek.task][ek.key] = v.(cty.Value)
		return true
	})
	return out, nil
}

func (s *MemoryStore) Clear(ctx context.Context, runID string) error {
	s.runs.Delete(runID)
	return nil
}
