// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package testutil

import (
	"context"
	"fmt"

	"github.com/specialistvlad/lakegrid/internal/cluster"
	"github.com/specialistvlad/lakegrid/internal/objstore"
	"github.com/specialistvlad/lakegrid/internal/registry"
)

// Conns is a static registry.Connections.
type Conns struct {
	Stores   map[string]objstore.Store
	Clusters map[string]cluster.Scheduler
}

var _ registry.Connections = (*Conns)(nil)

func (c *Conns) ObjectStore(_ context.Context, id string) (objstore.Store, error) {
	if s, ok := c.Stores[id]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("unknown object store connection %q", id)
}

func (c *Conns) Cluster(_ context.Context, id string) (cluster.Scheduler, error) {
	if s, ok := c.Clusters[id]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("unknown cluster connection %q", id)
}
