// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package runlock caps the number of concurrently active runs per pipeline.
package runlock

import (
	"context"
	"errors"
	"sync"
)

// ErrLocked is returned by TryLock when the pipeline already has the maximum
// number of active runs.
var ErrLocked = errors.New("pipeline has reached its maximum number of active runs")

// Unlock releases a slot obtained from TryLock.
type Unlock func(ctx context.Context) error

// Locker hands out run slots without blocking.
type Locker interface {
	TryLock(ctx context.Context, pipeline string, limit int) (Unlock, error)
}

// Local is an in-process Locker.
type Local struct {
	mu     sync.Mutex
	active map[string]int
}

var _ Locker = (*Local)(nil)

// NewLocal creates an in-process Locker.
func NewLocal() *Local {
	return &Local{active: map[string]int{}}
}

// TryLock takes one of limit slots for pipeline. A limit below 1 is treated as 1.
func (l *Local) TryLock(ctx context.Context, pipeline string, limit int) (Unlock, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit < 1 {
		limit = 1
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active[pipeline] >= limit {
		return nil, ErrLocked
	}
	l.active[pipeline]++

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			l.active[pipeline]--
			if l.active[pipeline] <= 0 {
				delete(l.active, pipeline)
			}
		})
		return nil
	}, nil
}

// Active reports how many slots of pipeline are taken.
func (l *Local) Active(pipeline string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active[pipeline]
}
