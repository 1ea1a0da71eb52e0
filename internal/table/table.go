// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package table

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/specialistvlad/lakegrid/internal/objstore"
)

// ErrTableNotFound is returned when a location holds no committed version.
var ErrTableNotFound = errors.New("table not found")

const (
	logDir          = "_log"
	OperationWrite  = "WRITE"
	OperationCreate = "CREATE"
)

// Commit is one entry of the table log.
type Commit struct {
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Operation string    `json:"operation"`
	Mode      string    `json:"mode,omitempty"`
	Files     []string  `json:"files"`
	NumRows   int64     `json:"num_rows"`
	Schema    string    `json:"schema,omitempty"`
}

func logKey(loc objstore.Location, version int64) string {
	return loc.Join(logDir, fmt.Sprintf("%020d.json", version)).Key
}

// History returns every commit of the table, oldest first.
func History(ctx context.Context, store objstore.Store, loc objstore.Location) ([]Commit, error) {
	objs, err := store.List(ctx, loc.Bucket, loc.Join(logDir).Prefix())
	if err != nil {
		if objstore.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list table log %s: %w", loc, err)
	}

	commits := make([]Commit, 0, len(objs))
	for _, obj := range objs {
		name := obj.Key[strings.LastIndex(obj.Key, "/")+1:]
		if _, err := strconv.ParseInt(strings.TrimSuffix(name, ".json"), 10, 64); err != nil || !strings.HasSuffix(name, ".json") {
			continue
		}
		data, err := store.Get(ctx, loc.Bucket, obj.Key)
		if err != nil {
			return nil, fmt.Errorf("read commit %s: %w", obj.Key, err)
		}
		var c Commit
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("decode commit %s: %w", obj.Key, err)
		}
		commits = append(commits, c)
	}
	sort.Slice(commits, func(i, j int) bool { return commits[i].Version < commits[j].Version })
	return commits, nil
}

// Latest returns the newest commit, or ErrTableNotFound.
func Latest(ctx context.Context, store objstore.Store, loc objstore.Location) (Commit, error) {
	commits, err := History(ctx, store, loc)
	if err != nil {
		return Commit{}, err
	}
	if len(commits) == 0 {
		return Commit{}, fmt.Errorf("%s: %w", loc, ErrTableNotFound)
	}
	return commits[len(commits)-1], nil
}

// Create makes sure the table can be written: the bucket exists and, for a
// brand new table, an empty version 0 is committed. It is a no-op for an
// existing table.
func Create[T any](ctx context.Context, store objstore.Store, loc objstore.Location) error {
	if err := store.EnsureBucket(ctx, loc.Bucket); err != nil {
		return fmt.Errorf("ensure bucket %s: %w", loc.Bucket, err)
	}
	commits, err := History(ctx, store, loc)
	if err != nil {
		return err
	}
	if len(commits) > 0 {
		return nil
	}
	return commit(ctx, store, loc, Commit{
		Version:   0,
		Operation: OperationCreate,
		Files:     []string{},
		Schema:    schemaName[T](),
	})
}

// Overwrite replaces the table contents with rows as a new version.
func Overwrite[T any](ctx context.Context, store objstore.Store, loc objstore.Location, rows []T) (Commit, error) {
	commits, err := History(ctx, store, loc)
	if err != nil {
		return Commit{}, err
	}
	next := int64(0)
	if len(commits) > 0 {
		next = commits[len(commits)-1].Version + 1
	}

	data, err := encode(rows)
	if err != nil {
		return Commit{}, fmt.Errorf("encode %s: %w", loc, err)
	}

	file := fmt.Sprintf("part-%05d-%s.snappy.parquet", next, uuid.NewString())
	if err := store.Put(ctx, loc.Bucket, loc.Join(file).Key, data, "application/vnd.apache.parquet"); err != nil {
		return Commit{}, fmt.Errorf("write data file %s: %w", file, err)
	}

	c := Commit{
		Version:   next,
		Operation: OperationWrite,
		Mode:      "overwrite",
		Files:     []string{file},
		NumRows:   int64(len(rows)),
		Schema:    schemaName[T](),
	}
	if err := commit(ctx, store, loc, c); err != nil {
		return Commit{}, err
	}
	return c, nil
}

func commit(ctx context.Context, store objstore.Store, loc objstore.Location, c Commit) error {
	c.Timestamp = time.Now().UTC()
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	if err := store.Put(ctx, loc.Bucket, logKey(loc, c.Version), data, "application/json"); err != nil {
		return fmt.Errorf("commit version %d of %s: %w", c.Version, loc, err)
	}
	return nil
}

// Read returns the rows of the latest committed version.
func Read[T any](ctx context.Context, store objstore.Store, loc objstore.Location) ([]T, error) {
	c, err := Latest(ctx, store, loc)
	if err != nil {
		return nil, err
	}
	return readCommit[T](ctx, store, loc, c)
}

// ReadVersion returns the rows of a specific version.
func ReadVersion[T any](ctx context.Context, store objstore.Store, loc objstore.Location, version int64) ([]T, error) {
	data, err := store.Get(ctx, loc.Bucket, logKey(loc, version))
	if err != nil {
		if objstore.IsNotFound(err) {
			return nil, fmt.Errorf("%s version %d: %w", loc, version, ErrTableNotFound)
		}
		return nil, err
	}
	var c Commit
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode commit %d: %w", version, err)
	}
	return readCommit[T](ctx, store, loc, c)
}

func readCommit[T any](ctx context.Context, store objstore.Store, loc objstore.Location, c Commit) ([]T, error) {
	rows := []T{}
	for _, file := range c.Files {
		data, err := store.Get(ctx, loc.Bucket, loc.Join(file).Key)
		if err != nil {
			return nil, fmt.Errorf("read data file %s: %w", file, err)
		}
		part, err := decode[T](data)
		if err != nil {
			return nil, fmt.Errorf("decode data file %s: %w", file, err)
		}
		rows = append(rows, part...)
	}
	return rows, nil
}

func schemaName[T any]() string {
	return reflect.TypeOf((*T)(nil)).Elem().String()
}
