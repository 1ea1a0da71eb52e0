// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/specialistvlad/lakegrid/internal/cluster"
	"github.com/specialistvlad/lakegrid/internal/config"
	"github.com/specialistvlad/lakegrid/internal/ctxlog"
	"github.com/specialistvlad/lakegrid/internal/objstore"
	"github.com/specialistvlad/lakegrid/internal/registry"
)

// Connection kinds understood by the resolver.
const (
	ConnKindS3     = "s3"
	ConnKindMinIO  = "minio"
	ConnKindDocker = "docker"
)

// connections resolves `connection` blocks into clients on first use and
// caches them for the lifetime of the App.
type connections struct {
	model     *config.Model
	converter config.Converter

	mu       sync.Mutex
	stores   map[string]objstore.Store
	clusters map[string]*cluster.DockerScheduler
}

var _ registry.Connections = (*connections)(nil)

func newConnections(model *config.Model, converter config.Converter) *connections {
	return &connections{
		model:     model,
		converter: converter,
		stores:    map[string]objstore.Store{},
		clusters:  map[string]*cluster.DockerScheduler{},
	}
}

func (c *connections) lookup(id string, kinds ...string) (*config.Connection, error) {
	conn, ok := c.model.Connections[id]
	if !ok {
		return nil, fmt.Errorf("connection %q is not defined", id)
	}
	for _, k := range kinds {
		if conn.Kind == k {
			return conn, nil
		}
	}
	return nil, fmt.Errorf("connection %q is of kind %q, expected one of %v", id, conn.Kind, kinds)
}

// decode evaluates the connection attributes into target. Attributes may
// call env() but cannot reference xcom values.
func (c *connections) decode(ctx context.Context, conn *config.Connection, target any) error {
	evalCtx := c.converter.EvalContext(nil, config.RunInfo{Pipeline: c.model.Pipeline.Name})
	if err := c.converter.DecodeArguments(ctx, target, conn.Attributes, evalCtx); err != nil {
		return fmt.Errorf("connection %q: %w", conn.ID, err)
	}
	return nil
}

func (c *connections) ObjectStore(ctx context.Context, id string) (objstore.Store, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.stores[id]; ok {
		return s, nil
	}

	conn, err := c.lookup(id, ConnKindS3, ConnKindMinIO)
	if err != nil {
		return nil, err
	}
	var cfg objstore.Config
	if err := c.decode(ctx, conn, &cfg); err != nil {
		return nil, err
	}
	store, err := objstore.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("connection %q: %w", id, err)
	}
	ctxlog.FromContext(ctx).Debug("Object store connection opened.", "conn_id", id, "endpoint", cfg.Endpoint, "local_root", cfg.LocalRoot)
	c.stores[id] = store
	return store, nil
}

func (c *connections) Cluster(ctx context.Context, id string) (cluster.Scheduler, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.clusters[id]; ok {
		return s, nil
	}

	conn, err := c.lookup(id, ConnKindDocker)
	if err != nil {
		return nil, err
	}
	var cfg cluster.DockerConfig
	if err := c.decode(ctx, conn, &cfg); err != nil {
		return nil, err
	}
	sched, err := cluster.NewDockerScheduler(cfg)
	if err != nil {
		return nil, fmt.Errorf("connection %q: %w", id, err)
	}
	ctxlog.FromContext(ctx).Debug("Cluster connection opened.", "conn_id", id, "host", cfg.Host)
	c.clusters[id] = sched
	return sched, nil
}

// Close releases the cluster clients.
func (c *connections) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var errs []error
	for id, s := range c.clusters {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("connection %q: %w", id, err))
		}
	}
	return errors.Join(errs...)
}
