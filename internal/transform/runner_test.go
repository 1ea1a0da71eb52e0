// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package transform

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/specialistvlad/lakegrid/internal/brewery"
	"github.com/specialistvlad/lakegrid/internal/objstore"
	"github.com/specialistvlad/lakegrid/internal/table"
	"github.com/specialistvlad/lakegrid/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPaths = BrewPaths{
	Bronze: "s3://lakehouse/bronze",
	Silver: "s3://lakehouse/silver/breweries",
	Gold:   "s3://lakehouse/gold/breweries",
}

func newTestRunner(t *testing.T, now time.Time) (*Runner, *objstore.LocalStore) {
	t.Helper()
	store, err := objstore.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	return &Runner{Store: store, Paths: testPaths, Now: func() time.Time { return now }}, store
}

func mustLoc(t *testing.T, uri string) objstore.Location {
	t.Helper()
	loc, err := objstore.ParseURI(uri)
	require.NoError(t, err)
	return loc
}

func seedSilver(t *testing.T, ctx context.Context, store objstore.Store, ids ...string) {
	t.Helper()
	rows := make([]brewery.SilverBrewery, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, brewery.SilverBrewery{ID: id, Name: "Brewery " + id, BreweryType: "micro", Country: "United States"})
	}
	loc := mustLoc(t, testPaths.Silver)
	require.NoError(t, table.Create[brewery.SilverBrewery](ctx, store, loc))
	_, err := table.Overwrite(ctx, store, loc, rows)
	require.NoError(t, err)
}

func TestSilverToGold_ThreeRows(t *testing.T) {
	ctx, logs := testutil.LogContext(t)
	now := time.Date(2024, 3, 9, 14, 5, 7, 250_000_000, time.UTC)
	r, store := newTestRunner(t, now)
	seedSilver(t, ctx, store, "A", "B", "C")

	c, err := r.SilverToGold(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), c.NumRows)

	gold, err := table.Read[brewery.GoldBrewery](ctx, store, mustLoc(t, testPaths.Gold))
	require.NoError(t, err)
	require.Len(t, gold, 3)

	want := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	for i, id := range []string{"A", "B", "C"} {
		assert.Equal(t, id, gold[i].ID)
		assert.Equal(t, want, brewery.TimeOf(gold[i].TimeUpdateGold))
	}

	out := logs.String()
	assert.Contains(t, out, "[SUCCESS] | LOAD DATA FROM s3://lakehouse/silver/breweries")
	assert.Contains(t, out, "[SUCCESS] | CREATED GOLD TABLE IN s3://lakehouse/gold/breweries")
	assert.Contains(t, out, "[SUCCESS] | SAVE DATA INTO s3://lakehouse/gold/breweries")
}

func TestSilverToGold_ReadFailurePreventsWrite(t *testing.T) {
	ctx, logs := testutil.LogContext(t)
	r, store := newTestRunner(t, time.Now())

	_, err := r.SilverToGold(ctx)
	require.Error(t, err)

	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, KindRead, stageErr.Kind)
	assert.ErrorIs(t, err, table.ErrTableNotFound)
	assert.Contains(t, logs.String(), "[ERROR] | FAILED TO LOAD DATA. ERROR:")

	history, err := table.History(ctx, store, mustLoc(t, testPaths.Gold))
	require.NoError(t, err)
	assert.Empty(t, history, "nothing may be written after a read failure")
}

func TestSilverToGold_Rerun(t *testing.T) {
	ctx, _ := testutil.LogContext(t)
	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r, store := newTestRunner(t, first)
	seedSilver(t, ctx, store, "A", "B")

	_, err := r.SilverToGold(ctx)
	require.NoError(t, err)
	goldLoc := mustLoc(t, testPaths.Gold)
	before, err := table.Read[brewery.GoldBrewery](ctx, store, goldLoc)
	require.NoError(t, err)

	second := first.Add(24 * time.Hour)
	r.Now = func() time.Time { return second }
	c, err := r.SilverToGold(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), c.Version, "create commit, then two overwrites")

	after, err := table.Read[brewery.GoldBrewery](ctx, store, goldLoc)
	require.NoError(t, err)
	require.Len(t, after, len(before))

	for i := range after {
		assert.Equal(t, second, brewery.TimeOf(after[i].TimeUpdateGold))
		b, a := before[i], after[i]
		b.TimeUpdateGold, a.TimeUpdateGold = 0, 0
		assert.Equal(t, b, a)
	}
}

func TestBronzeToSilver(t *testing.T) {
	ctx, logs := testutil.LogContext(t)
	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	r, store := newTestRunner(t, now)

	require.NoError(t, store.EnsureBucket(ctx, "lakehouse"))
	require.NoError(t, store.Put(ctx, "lakehouse", "bronze/2024-06-01/page_1.json",
		[]byte(`[{"id":"b","name":"Beta","brewery_type":"MICRO"},{"id":"a","name":"Alpha old"}]`), "application/json"))
	require.NoError(t, store.Put(ctx, "lakehouse", "bronze/2024-06-01/page_2.json",
		[]byte(`[{"id":"a","name":"Alpha","latitude":"1.25","longitude":"2.5"},{"name":"no id"}]`), "application/json"))
	require.NoError(t, store.Put(ctx, "lakehouse", "bronze/2024-06-01/_SUCCESS", []byte{}, "text/plain"))

	c, err := r.BronzeToSilver(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), c.NumRows)

	silver, err := table.Read[brewery.SilverBrewery](ctx, store, mustLoc(t, testPaths.Silver))
	require.NoError(t, err)
	require.Len(t, silver, 2)
	assert.Equal(t, "a", silver[0].ID)
	assert.Equal(t, "Alpha", silver[0].Name)
	require.NotNil(t, silver[0].Latitude)
	assert.Equal(t, 1.25, *silver[0].Latitude)
	assert.Equal(t, "micro", silver[1].BreweryType)
	assert.Equal(t, now, brewery.TimeOf(silver[1].TimeUpdateSilver))

	assert.Contains(t, logs.String(), "[SUCCESS] | CREATED SILVER TABLE IN s3://lakehouse/silver/breweries")
}

func TestBronzeToSilver_NoBronzeData(t *testing.T) {
	ctx, _ := testutil.LogContext(t)
	r, store := newTestRunner(t, time.Now())
	require.NoError(t, store.EnsureBucket(ctx, "lakehouse"))

	_, err := r.BronzeToSilver(ctx)
	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, KindRead, stageErr.Kind)

	history, err := table.History(ctx, store, mustLoc(t, testPaths.Silver))
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestBronzeToSilver_NoValidRecords(t *testing.T) {
	ctx, _ := testutil.LogContext(t)
	r, store := newTestRunner(t, time.Now())
	require.NoError(t, store.Put(ctx, "lakehouse", "bronze/x.json", []byte(`[{"name":"no id"}]`), "application/json"))

	_, err := r.BronzeToSilver(ctx)
	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, KindTransform, stageErr.Kind)
}

func TestStage_Unknown(t *testing.T) {
	ctx, _ := testutil.LogContext(t)
	r, _ := newTestRunner(t, time.Now())
	_, err := r.Stage(ctx, "gold_to_platinum")
	require.Error(t, err)
}
