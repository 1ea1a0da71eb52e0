// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package table

import (
	"context"
	"testing"

	"github.com/specialistvlad/lakegrid/internal/objstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	ID    string   `parquet:"name=id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Score *float64 `parquet:"name=score, type=DOUBLE, repetitiontype=OPTIONAL"`
	Ok    bool     `parquet:"name=ok, type=BOOLEAN"`
	At    int64    `parquet:"name=at, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
}

func ptr(f float64) *float64 { return &f }

func newStore(t *testing.T) objstore.Store {
	t.Helper()
	s, err := objstore.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestOverwriteAndRead(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	loc := objstore.Location{Bucket: "lakehouse", Key: "silver/breweries"}

	_, err := Read[row](ctx, store, loc)
	require.ErrorIs(t, err, ErrTableNotFound)

	require.NoError(t, Create[row](ctx, store, loc))
	rows, err := Read[row](ctx, store, loc)
	require.NoError(t, err)
	assert.Empty(t, rows, "a created table is empty")

	first := []row{{ID: "a", Score: ptr(1.5), Ok: true, At: 1000}, {ID: "b", At: 2000}}
	c1, err := Overwrite(ctx, store, loc, first)
	require.NoError(t, err)
	assert.Equal(t, int64(1), c1.Version)
	assert.Equal(t, int64(2), c1.NumRows)
	assert.Equal(t, "table.row", c1.Schema)

	rows, err = Read[row](ctx, store, loc)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a", rows[0].ID)
	require.NotNil(t, rows[0].Score)
	assert.Equal(t, 1.5, *rows[0].Score)
	assert.True(t, rows[0].Ok)
	assert.Nil(t, rows[1].Score)
	assert.Equal(t, int64(2000), rows[1].At)

	c2, err := Overwrite(ctx, store, loc, []row{{ID: "c"}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), c2.Version)

	rows, err = Read[row](ctx, store, loc)
	require.NoError(t, err)
	require.Len(t, rows, 1, "overwrite replaces, it does not append")
	assert.Equal(t, "c", rows[0].ID)

	old, err := ReadVersion[row](ctx, store, loc, 1)
	require.NoError(t, err)
	assert.Len(t, old, 2, "older versions stay readable")

	_, err = ReadVersion[row](ctx, store, loc, 9)
	assert.ErrorIs(t, err, ErrTableNotFound)

	history, err := History(ctx, store, loc)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, OperationCreate, history[0].Operation)
	assert.Equal(t, OperationWrite, history[2].Operation)

	require.NoError(t, Create[row](ctx, store, loc), "create is idempotent")
	latest, err := Latest(ctx, store, loc)
	require.NoError(t, err)
	assert.Equal(t, int64(2), latest.Version)
}

func TestOverwrite_WithoutCreate(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.EnsureBucket(ctx, "lakehouse"))
	loc := objstore.Location{Bucket: "lakehouse", Key: "gold"}

	c, err := Overwrite(ctx, store, loc, []row{{ID: "x"}})
	require.NoError(t, err)
	assert.Equal(t, int64(0), c.Version)
}

func TestEncodeDecode_Empty(t *testing.T) {
	data, err := encode([]row{})
	require.NoError(t, err)
	rows, err := decode[row](data)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
