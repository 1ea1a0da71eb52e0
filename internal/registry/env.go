// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package registry

import (
	"context"
	"path/filepath"

	"github.com/specialistvlad/lakegrid/internal/cluster"
	"github.com/specialistvlad/lakegrid/internal/objstore"
)

// Connections resolves connection ids from the pipeline definition into
// live clients.
type Connections interface {
	ObjectStore(ctx context.Context, id string) (objstore.Store, error)
	Cluster(ctx context.Context, id string) (cluster.Scheduler, error)
}

// Env is what an operator sees of the run it is part of.
type Env struct {
	Pipeline string
	RunID    string
	TaskID   string
	Try      int
	// BaseDir is the directory of the pipeline definition.
	BaseDir string
	Conns   Connections
	// AttachLog stores captured output (e.g. job logs) with the task
	// instance. It may be nil.
	AttachLog func(ctx context.Context, content string) error
}

// ResolvePath resolves p against the pipeline directory unless it is absolute.
func (e *Env) ResolvePath(p string) string {
	if filepath.IsAbs(p) || e.BaseDir == "" {
		return p
	}
	return filepath.Join(e.BaseDir, p)
}

// Attach forwards content to AttachLog when one is configured.
func (e *Env) Attach(ctx context.Context, content string) error {
	if e.AttachLog == nil {
		return nil
	}
	return e.AttachLog(ctx, content)
}
