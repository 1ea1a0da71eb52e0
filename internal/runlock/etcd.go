// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package runlock

import (
	"context"
	"errors"
	"fmt"
	"strings"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/client/v3/concurrency"
)

// slotMutex is the part of *concurrency.Mutex a slot needs.
type slotMutex interface {
	TryLock(ctx context.Context) error
	Unlock(ctx context.Context) error
}

// slotSession hands out mutexes bound to one lease.
type slotSession interface {
	Mutex(key string) slotMutex
	Close() error
}

type etcdSession struct {
	*concurrency.Session
}

func (s etcdSession) Mutex(key string) slotMutex {
	return concurrency.NewMutex(s.Session, key)
}

// Etcd is a Locker shared by every process pointing at the same etcd
// cluster. Each slot is a concurrency.Mutex under <prefix>/<pipeline>/<n>
// held by a lease, so a crashed holder frees its slot after ttl seconds.
type Etcd struct {
	prefix string
	open   func() (slotSession, error)
}

var _ Locker = (*Etcd)(nil)

// NewEtcd creates an etcd backed Locker. ttl is the session lease in seconds.
func NewEtcd(client *clientv3.Client, prefix string, ttl int) *Etcd {
	if ttl <= 0 {
		ttl = 60
	}
	return newEtcd(prefix, func() (slotSession, error) {
		sess, err := concurrency.NewSession(client, concurrency.WithTTL(ttl))
		if err != nil {
			return nil, err
		}
		return etcdSession{sess}, nil
	})
}

func newEtcd(prefix string, open func() (slotSession, error)) *Etcd {
	return &Etcd{prefix: strings.TrimSuffix(prefix, "/"), open: open}
}

// TryLock takes the first free of limit slots. The session lives as long as
// the slot is held.
func (e *Etcd) TryLock(ctx context.Context, pipeline string, limit int) (Unlock, error) {
	if limit < 1 {
		limit = 1
	}
	sess, err := e.open()
	if err != nil {
		return nil, fmt.Errorf("failed to open etcd session: %w", err)
	}

	for slot := 0; slot < limit; slot++ {
		m := sess.Mutex(fmt.Sprintf("%s/%s/%d", e.prefix, pipeline, slot))
		err := m.TryLock(ctx)
		if errors.Is(err, concurrency.ErrLocked) {
			continue
		}
		if err != nil {
			sess.Close()
			return nil, fmt.Errorf("failed to lock run slot %d: %w", slot, err)
		}
		return func(ctx context.Context) error {
			defer sess.Close()
			return m.Unlock(ctx)
		}, nil
	}

	sess.Close()
	return nil, ErrLocked
}
