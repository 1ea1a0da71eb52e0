// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package transform

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/specialistvlad/lakegrid/internal/brewery"
	"github.com/specialistvlad/lakegrid/internal/ctxlog"
	"github.com/specialistvlad/lakegrid/internal/objstore"
	"github.com/specialistvlad/lakegrid/internal/table"
)

const (
	StageBronzeToSilver = "bronze_to_silver"
	StageSilverToGold   = "silver_to_gold"
)

// Runner executes transformation stages against a store.
type Runner struct {
	Store objstore.Store
	Paths BrewPaths
	// Now is the clock used for the processing timestamp. Defaults to
	// time.Now.
	Now func() time.Time
}

// NewRunner opens the store described by cfg.
func NewRunner(cfg *Config) (*Runner, error) {
	store, err := objstore.Open(cfg.Storages.ObjectStore)
	if err != nil {
		return nil, err
	}
	return &Runner{Store: store, Paths: cfg.Storages.BrewPaths}, nil
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Stage runs the named stage.
func (r *Runner) Stage(ctx context.Context, name string) (table.Commit, error) {
	switch name {
	case StageBronzeToSilver:
		return r.BronzeToSilver(ctx)
	case StageSilverToGold:
		return r.SilverToGold(ctx)
	default:
		return table.Commit{}, fmt.Errorf("unknown stage %q", name)
	}
}

// BronzeToSilver reads every JSON object under the bronze path, cleans the
// records and overwrites the silver table.
func (r *Runner) BronzeToSilver(ctx context.Context) (table.Commit, error) {
	ctx, logger := ctxlog.With(ctx, "stage", StageBronzeToSilver)
	fail := func(kind StageKind, path string, err error) (table.Commit, error) {
		return table.Commit{}, &StageError{Stage: StageBronzeToSilver, Kind: kind, Path: path, Err: err}
	}

	bronze, silver, err := r.locations(r.Paths.Bronze, r.Paths.Silver)
	if err != nil {
		return fail(KindRead, r.Paths.Bronze, err)
	}

	records, err := r.readBronze(ctx, bronze)
	if err != nil {
		logger.Error("[ERROR] | FAILED TO LOAD DATA. ERROR: " + err.Error())
		return fail(KindRead, r.Paths.Bronze, err)
	}
	logger.Info("[SUCCESS] | LOAD DATA FROM "+r.Paths.Bronze, "records", len(records))

	if err := table.Create[brewery.SilverBrewery](ctx, r.Store, silver); err != nil {
		logger.Error("[ERROR] | FAILED TO CREATE SILVER TABLE. ERROR: " + err.Error())
		return fail(KindCreate, r.Paths.Silver, err)
	}
	logger.Info("[SUCCESS] | CREATED SILVER TABLE IN " + r.Paths.Silver)

	rows := brewery.CleanBronze(records)
	if len(records) > 0 && len(rows) == 0 {
		err := fmt.Errorf("none of %d bronze records is valid", len(records))
		logger.Error("[ERROR] | FAILED TO TRANSFORM DATA. ERROR: " + err.Error())
		return fail(KindTransform, r.Paths.Bronze, err)
	}
	ts := brewery.Timestamp(r.now())
	for i := range rows {
		rows[i].TimeUpdateSilver = ts
	}

	c, err := table.Overwrite(ctx, r.Store, silver, rows)
	if err != nil {
		logger.Error("[ERROR] | FAILED TO SAVE DATA. ERROR: " + err.Error())
		return fail(KindWrite, r.Paths.Silver, err)
	}
	logger.Info("[SUCCESS] | SAVE DATA INTO "+r.Paths.Silver, "version", c.Version, "rows", c.NumRows)
	return c, nil
}

func (r *Runner) readBronze(ctx context.Context, loc objstore.Location) ([]brewery.BronzeRecord, error) {
	objs, err := r.Store.List(ctx, loc.Bucket, loc.Prefix())
	if err != nil {
		return nil, err
	}

	var records []brewery.BronzeRecord
	found := 0
	for _, obj := range objs {
		if !strings.HasSuffix(obj.Key, ".json") {
			continue
		}
		found++
		data, err := r.Store.Get(ctx, loc.Bucket, obj.Key)
		if err != nil {
			return nil, err
		}
		batch, err := brewery.ParseBronze(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", obj.Key, err)
		}
		records = append(records, batch...)
	}
	if found == 0 {
		return nil, fmt.Errorf("no json objects under %s", loc)
	}
	return records, nil
}

// SilverToGold reads the silver table, applies the gold model and overwrites
// the gold table.
func (r *Runner) SilverToGold(ctx context.Context) (table.Commit, error) {
	ctx, logger := ctxlog.With(ctx, "stage", StageSilverToGold)
	fail := func(kind StageKind, path string, err error) (table.Commit, error) {
		return table.Commit{}, &StageError{Stage: StageSilverToGold, Kind: kind, Path: path, Err: err}
	}

	silver, gold, err := r.locations(r.Paths.Silver, r.Paths.Gold)
	if err != nil {
		return fail(KindRead, r.Paths.Silver, err)
	}

	rows, err := table.Read[brewery.SilverBrewery](ctx, r.Store, silver)
	if err != nil {
		logger.Error("[ERROR] | FAILED TO LOAD DATA. ERROR: " + err.Error())
		return fail(KindRead, r.Paths.Silver, err)
	}
	logger.Info("[SUCCESS] | LOAD DATA FROM "+r.Paths.Silver, "rows", len(rows))

	if err := table.Create[brewery.GoldBrewery](ctx, r.Store, gold); err != nil {
		logger.Error("[ERROR] | FAILED TO CREATE GOLD TABLE. ERROR: " + err.Error())
		return fail(KindCreate, r.Paths.Gold, err)
	}
	logger.Info("[SUCCESS] | CREATED GOLD TABLE IN " + r.Paths.Gold)

	out := brewery.GoldModel(rows)
	ts := brewery.Timestamp(r.now())
	for i := range out {
		out[i].TimeUpdateGold = ts
	}

	c, err := table.Overwrite(ctx, r.Store, gold, out)
	if err != nil {
		logger.Error("[ERROR] | FAILED TO SAVE DATA. ERROR: " + err.Error())
		return fail(KindWrite, r.Paths.Gold, err)
	}
	logger.Info("[SUCCESS] | SAVE DATA INTO "+r.Paths.Gold, "version", c.Version, "rows", c.NumRows)
	return c, nil
}

func (r *Runner) locations(from, to string) (objstore.Location, objstore.Location, error) {
	src, err := objstore.ParseURI(from)
	if err != nil {
		return objstore.Location{}, objstore.Location{}, err
	}
	dst, err := objstore.ParseURI(to)
	if err != nil {
		return objstore.Location{}, objstore.Location{}, err
	}
	return src, dst, nil
}
