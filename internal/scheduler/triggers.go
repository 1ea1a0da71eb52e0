// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package scheduler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/specialistvlad/lakegrid/internal/ctxlog"
	"github.com/specialistvlad/lakegrid/internal/executor"
	"github.com/specialistvlad/lakegrid/internal/objstore"
)

// IntervalTrigger fires every d.
type IntervalTrigger struct {
	Every time.Duration
}

func (t *IntervalTrigger) Name() string { return "interval" }

func (t *IntervalTrigger) Start(ctx context.Context, out chan<- executor.RunRequest) error {
	if t.Every <= 0 {
		return fmt.Errorf("interval must be positive, got %v", t.Every)
	}
	ticker := time.NewTicker(t.Every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case tick := <-ticker.C:
			if !send(ctx, out, executor.RunRequest{Trigger: executor.TriggerInterval, LogicalDate: tick.UTC()}) {
				return nil
			}
		}
	}
}

// DatasetTrigger polls the objects under a URI and fires when their
// fingerprint changes. The first poll fires only if objects already exist.
type DatasetTrigger struct {
	store    objstore.Store
	loc      objstore.Location
	interval time.Duration

	last string
}

// NewDatasetTrigger validates uri and returns a trigger polling it every
// interval.
func NewDatasetTrigger(store objstore.Store, uri string, interval time.Duration) (*DatasetTrigger, error) {
	loc, err := objstore.ParseURI(uri)
	if err != nil {
		return nil, err
	}
	if interval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %v", interval)
	}
	return &DatasetTrigger{store: store, loc: loc, interval: interval}, nil
}

func (t *DatasetTrigger) Name() string { return "dataset" }

func (t *DatasetTrigger) Start(ctx context.Context, out chan<- executor.RunRequest) error {
	ctx, logger := ctxlog.With(ctx, "dataset", t.loc.String())
	logger.Info("Watching dataset.", "poll_interval", t.interval)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		changed, err := t.Poll(ctx)
		switch {
		case err != nil:
			logger.Warn("Failed to poll dataset.", "error", err)
		case changed:
			logger.Info("Dataset changed.")
			if !send(ctx, out, executor.RunRequest{Trigger: executor.TriggerDataset, LogicalDate: time.Now().UTC()}) {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Poll lists the dataset once and reports whether it changed since the
// previous poll.
func (t *DatasetTrigger) Poll(ctx context.Context) (bool, error) {
	objects, err := t.store.List(ctx, t.loc.Bucket, t.loc.Key)
	if err != nil {
		return false, err
	}
	fp := fingerprint(objects)
	first := t.last == ""
	changed := fp != t.last
	t.last = fp
	if first {
		return len(objects) > 0, nil
	}
	return changed, nil
}

// fingerprint hashes key, etag, size and modification time of every object.
// List returns objects sorted by key, so the hash is stable.
func fingerprint(objects []objstore.ObjectInfo) string {
	h := sha256.New()
	for _, o := range objects {
		fmt.Fprintf(h, "%s\x00%s\x00%d\x00%d\n", o.Key, o.ETag, o.Size, o.LastModified.UnixNano())
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ManualTrigger fires when Fire is called.
type ManualTrigger struct {
	fire chan struct{}
}

// NewManualTrigger creates a ManualTrigger.
func NewManualTrigger() *ManualTrigger {
	return &ManualTrigger{fire: make(chan struct{}, 1)}
}

func (t *ManualTrigger) Name() string { return "manual" }

// Fire requests a run. It never blocks; a request already pending absorbs it.
func (t *ManualTrigger) Fire() bool {
	select {
	case t.fire <- struct{}{}:
		return true
	default:
		return false
	}
}

func (t *ManualTrigger) Start(ctx context.Context, out chan<- executor.RunRequest) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.fire:
			if !send(ctx, out, executor.RunRequest{Trigger: executor.TriggerManual, LogicalDate: time.Now().UTC()}) {
				return nil
			}
		}
	}
}

func send(ctx context.Context, out chan<- executor.RunRequest, req executor.RunRequest) bool {
	select {
	case out <- req:
		return true
	case <-ctx.Done():
		return false
	}
}
