// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package xcom

import (
	"context"
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// EtcdStore keeps values under <prefix>/<run>/<task>/<key>, JSON encoded.
// Types are inferred again on the way out, so lists come back as tuples and
// maps as objects.
type EtcdStore struct {
	kv     clientv3.KV
	prefix string
}

var _ Store = (*EtcdStore)(nil)

// NewEtcdStore wraps an etcd KV (usually a *clientv3.Client).
func NewEtcdStore(kv clientv3.KV, prefix string) *EtcdStore {
	return &EtcdStore{kv: kv, prefix: strings.TrimSuffix(prefix, "/")}
}

func (s *EtcdStore) runPrefix(runID string) string {
	return s.prefix + "/" + runID + "/"
}

func (s *EtcdStore) Push(ctx context.Context, runID, taskID, key string, v cty.Value) error {
	data, err := ctyjson.SimpleJSONValue{Value: v}.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode xcom %s/%s: %w", taskID, key, err)
	}
	if _, err := s.kv.Put(ctx, s.runPrefix(runID)+taskID+"/"+key, string(data)); err != nil {
		return fmt.Errorf("store xcom %s/%s: %w", taskID, key, err)
	}
	return nil
}

func (s *EtcdStore) Pull(ctx context.Context, runID, taskID, key string) (cty.Value, bool, error) {
	resp, err := s.kv.Get(ctx, s.runPrefix(runID)+taskID+"/"+key)
	if err != nil {
		return cty.NilVal, false, fmt.Errorf("load xcom %s/%s: %w", taskID, key, err)
	}
	if len(resp.Kvs) == 0 {
		return cty.NilVal, false, nil
	}
	v, err := decodeValue(resp.Kvs[0].Value)
	if err != nil {
		return cty.NilVal, false, fmt.Errorf("decode xcom %s/%s: %w", taskID, key, err)
	}
	return v, true, nil
}

func (s *EtcdStore) All(ctx context.Context, runID string) (map[string]map[string]cty.Value, error) {
	prefix := s.runPrefix(runID)
	resp, err := s.kv.Get(ctx, prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("load xcom of run %s: %w", runID, err)
	}

	out := map[string]map[string]cty.Value{}
	for _, kv := range resp.Kvs {
		task, key, ok := strings.Cut(strings.TrimPrefix(string(kv.Key), prefix), "/")
		if !ok {
			continue
		}
		v, err := decodeValue(kv.Value)
		if err != nil {
			return nil, fmt.Errorf("decode xcom %s/%s: %w", task, key, err)
		}
		if out[task] == nil {
			out[task] = map[string]cty.Value{}
		}
		out[task][key] = v
	}
	return out, nil
}

func (s *EtcdStore) Clear(ctx context.Context, runID string) error {
	if _, err := s.kv.Delete(ctx, s.runPrefix(runID), clientv3.WithPrefix()); err != nil {
		return fmt.Errorf("clear xcom of run %s: %w", runID, err)
	}
	return nil
}

func decodeValue(data []byte) (cty.Value, error) {
	var sv ctyjson.SimpleJSONValue
	if err := sv.UnmarshalJSON(data); err != nil {
		return cty.NilVal, err
	}
	return sv.Value, nil
}
