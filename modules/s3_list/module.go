// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package s3_list

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/specialistvlad/lakegrid/internal/ctxlog"
	"github.com/specialistvlad/lakegrid/internal/objstore"
	"github.com/specialistvlad/lakegrid/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// Kind is the task kind this module registers.
const Kind = "s3_list"

const (
	DefaultPokeInterval = time.Minute
	DefaultWaitTimeout  = 7 * 24 * time.Hour
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments of an s3_list task.
type Input struct {
	Bucket    string `lg:"bucket"`
	Prefix    string `lg:"prefix,optional"`
	Delimiter string `lg:"delimiter,optional"`
	ConnID    string `lg:"conn_id"`
	// Wait keeps polling until at least one key exists.
	Wait         bool          `lg:"wait,optional"`
	PokeInterval time.Duration `lg:"poke_interval,optional"`
	WaitTimeout  time.Duration `lg:"wait_timeout,optional"`
}

func newInput() *Input {
	return &Input{PokeInterval: DefaultPokeInterval, WaitTimeout: DefaultWaitTimeout}
}

var errNoKeys = errors.New("no keys yet")

// Run lists the keys under bucket/prefix and returns them as
// { keys = [...], count = n }.
func Run(ctx context.Context, env *registry.Env, in *Input) (cty.Value, error) {
	logger := ctxlog.FromContext(ctx).With("bucket", in.Bucket, "prefix", in.Prefix)

	store, err := env.Conns.ObjectStore(ctx, in.ConnID)
	if err != nil {
		return cty.NilVal, err
	}

	list := func(ctx context.Context) ([]string, error) {
		objs, err := store.List(ctx, in.Bucket, in.Prefix)
		if err != nil {
			return nil, err
		}
		return filterKeys(objs, in.Prefix, in.Delimiter), nil
	}

	var keys []string
	if in.Wait {
		keys, err = waitForKeys(ctx, list, in.PokeInterval, in.WaitTimeout)
	} else {
		keys, err = list(ctx)
	}
	if err != nil {
		return cty.NilVal, fmt.Errorf("failed to list s3://%s/%s: %w", in.Bucket, in.Prefix, err)
	}
	logger.Info("Listed keys.", "count", len(keys))

	return output(keys), nil
}

func waitForKeys(ctx context.Context, list func(context.Context) ([]string, error), poke, timeout time.Duration) ([]string, error) {
	logger := ctxlog.FromContext(ctx)
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var keys []string
	op := func() error {
		found, err := list(ctx)
		if err != nil {
			if objstore.IsRetryable(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		if len(found) == 0 {
			logger.Debug("Poking: no keys yet.")
			return errNoKeys
		}
		keys = found
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(backoff.NewConstantBackOff(poke), ctx)); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("no keys appeared within %v", timeout)
		}
		return nil, err
	}
	return keys, nil
}

// filterKeys drops "directories" below the delimiter, like an S3 listing
// with a delimiter does.
func filterKeys(objs []objstore.ObjectInfo, prefix, delimiter string) []string {
	keys := make([]string, 0, len(objs))
	for _, obj := range objs {
		if delimiter != "" && strings.Contains(strings.TrimPrefix(obj.Key, prefix), delimiter) {
			continue
		}
		keys = append(keys, obj.Key)
	}
	return keys
}

func output(keys []string) cty.Value {
	list := cty.ListValEmpty(cty.String)
	if len(keys) > 0 {
		vals := make([]cty.Value, len(keys))
		for i, k := range keys {
			vals[i] = cty.StringVal(k)
		}
		list = cty.ListVal(vals)
	}
	return cty.ObjectVal(map[string]cty.Value{
		"keys":  list,
		"count": cty.NumberIntVal(int64(len(keys))),
	})
}

// Register registers the operator with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterOperator(Kind, registry.Typed(newInput, Run))
}
