// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package s3_list

import (
	"context"
	"testing"
	"time"

	"github.com/specialistvlad/lakegrid/internal/objstore"
	"github.com/specialistvlad/lakegrid/internal/registry"
	"github.com/specialistvlad/lakegrid/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func setup(t *testing.T) (context.Context, *objstore.LocalStore, *registry.Env) {
	t.Helper()
	ctx, _ := testutil.LogContext(t)
	store, err := objstore.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	env := &registry.Env{TaskID: "list_keys", Conns: &testutil.Conns{Stores: map[string]objstore.Store{"minio": store}}}
	return ctx, store, env
}

func keys(t *testing.T, v cty.Value) []string {
	t.Helper()
	var out []string
	for _, k := range v.GetAttr("keys").AsValueSlice() {
		out = append(out, k.AsString())
	}
	return out
}

func TestRun_ListsKeys(t *testing.T) {
	ctx, store, env := setup(t)
	for _, key := range []string{"bronze/2024/a.json", "bronze/b.json", "silver/c.parquet"} {
		require.NoError(t, store.Put(ctx, "lakehouse", key, []byte("{}"), "application/json"))
	}

	in := newInput()
	in.Bucket, in.Prefix, in.ConnID = "lakehouse", "bronze/", "minio"
	out, err := Run(ctx, env, in)
	require.NoError(t, err)
	assert.Equal(t, []string{"bronze/2024/a.json", "bronze/b.json"}, keys(t, out))
	assert.True(t, out.GetAttr("count").RawEquals(cty.NumberIntVal(2)))

	in.Delimiter = "/"
	out, err = Run(ctx, env, in)
	require.NoError(t, err)
	assert.Equal(t, []string{"bronze/b.json"}, keys(t, out))
}

func TestRun_EmptyPrefix(t *testing.T) {
	ctx, store, env := setup(t)
	require.NoError(t, store.EnsureBucket(ctx, "lakehouse"))

	in := newInput()
	in.Bucket, in.Prefix, in.ConnID = "lakehouse", "bronze/", "minio"
	out, err := Run(ctx, env, in)
	require.NoError(t, err)
	assert.Empty(t, keys(t, out))
	assert.True(t, out.GetAttr("count").RawEquals(cty.Zero))
}

func TestRun_Errors(t *testing.T) {
	ctx, _, env := setup(t)

	in := newInput()
	in.Bucket, in.ConnID = "missing", "minio"
	_, err := Run(ctx, env, in)
	require.Error(t, err)
	assert.True(t, objstore.IsNotFound(err))

	in.ConnID = "nope"
	_, err = Run(ctx, env, in)
	assert.ErrorContains(t, err, `unknown object store connection "nope"`)
}

func TestRun_WaitsForKeys(t *testing.T) {
	ctx, store, env := setup(t)
	require.NoError(t, store.EnsureBucket(ctx, "lakehouse"))

	go func() {
		time.Sleep(30 * time.Millisecond)
		_ = store.Put(context.Background(), "lakehouse", "bronze/late.json", []byte("{}"), "application/json")
	}()

	in := &Input{Bucket: "lakehouse", Prefix: "bronze/", ConnID: "minio", Wait: true, PokeInterval: 10 * time.Millisecond, WaitTimeout: 5 * time.Second}
	out, err := Run(ctx, env, in)
	require.NoError(t, err)
	assert.Equal(t, []string{"bronze/late.json"}, keys(t, out))
}

func TestRun_WaitTimesOut(t *testing.T) {
	ctx, store, env := setup(t)
	require.NoError(t, store.EnsureBucket(ctx, "lakehouse"))

	in := &Input{Bucket: "lakehouse", Prefix: "bronze/", ConnID: "minio", Wait: true, PokeInterval: 5 * time.Millisecond, WaitTimeout: 40 * time.Millisecond}
	_, err := Run(ctx, env, in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no keys appeared within 40ms")
}
