// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package xcom

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
	"go.etcd.io/etcd/api/v3/mvccpb"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// fakeKV implements the subset of clientv3.KV the etcd store uses.
type fakeKV struct {
	clientv3.KV
	mu   sync.Mutex
	data map[string]string
}

func newFakeKV() *fakeKV { return &fakeKV{data: map[string]string{}} }

func (f *fakeKV) Put(_ context.Context, key, val string, _ ...clientv3.OpOption) (*clientv3.PutResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = val
	return &clientv3.PutResponse{}, nil
}

func (f *fakeKV) matches(key string, opts []clientv3.OpOption) []string {
	op := clientv3.OpGet(key, opts...)
	var keys []string
	for k := range f.data {
		if k == key || (len(op.RangeBytes()) > 0 && strings.HasPrefix(k, key)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func (f *fakeKV) Get(_ context.Context, key string, opts ...clientv3.OpOption) (*clientv3.GetResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	resp := &clientv3.GetResponse{}
	for _, k := range f.matches(key, opts) {
		resp.Kvs = append(resp.Kvs, &mvccpb.KeyValue{Key: []byte(k), Value: []byte(f.data[k])})
	}
	return resp, nil
}

func (f *fakeKV) Delete(_ context.Context, key string, opts ...clientv3.OpOption) (*clientv3.DeleteResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range f.matches(key, opts) {
		delete(f.data, k)
	}
	return &clientv3.DeleteResponse{}, nil
}

func stores() map[string]func() Store {
	return map[string]func() Store{
		"memory": func() Store { return NewMemoryStore() },
		"etcd":   func() Store { return NewEtcdStore(newFakeKV(), "/lakegrid/xcom/") },
	}
}

func TestPushPull(t *testing.T) {
	for name, newStore := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore()

			_, ok, err := s.Pull(ctx, "run-1", "list_keys", ReturnValueKey)
			require.NoError(t, err)
			assert.False(t, ok)

			out := cty.ObjectVal(map[string]cty.Value{
				"metadata": cty.ObjectVal(map[string]cty.Value{"name": cty.StringVal("bronze-to-silver-1a2b3c4d")}),
				"count":    cty.NumberIntVal(3),
			})
			require.NoError(t, s.Push(ctx, "run-1", "bronze_to_silver_task", ReturnValueKey, out))

			got, ok, err := s.Pull(ctx, "run-1", "bronze_to_silver_task", ReturnValueKey)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "bronze-to-silver-1a2b3c4d", got.GetAttr("metadata").GetAttr("name").AsString())
			assert.True(t, got.GetAttr("count").RawEquals(cty.NumberIntVal(3)))

			_, ok, err = s.Pull(ctx, "run-2", "bronze_to_silver_task", ReturnValueKey)
			require.NoError(t, err)
			assert.False(t, ok, "values are scoped to their run")
		})
	}
}

func TestAllAndClear(t *testing.T) {
	for name, newStore := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore()

			for i, task := range []string{"start", "list_keys", "monitor"} {
				require.NoError(t, s.Push(ctx, "run-1", task, ReturnValueKey, cty.StringVal(fmt.Sprint(i))))
			}
			require.NoError(t, s.Push(ctx, "run-1", "monitor", "log_lines", cty.NumberIntVal(12)))
			require.NoError(t, s.Push(ctx, "run-2", "start", ReturnValueKey, cty.True))

			all, err := s.All(ctx, "run-1")
			require.NoError(t, err)
			assert.Len(t, all, 3)
			assert.Len(t, all["monitor"], 2)

			rv, err := ReturnValues(ctx, s, "run-1")
			require.NoError(t, err)
			assert.Equal(t, "1", rv["list_keys"].AsString())

			require.NoError(t, s.Clear(ctx, "run-1"))
			all, err = s.All(ctx, "run-1")
			require.NoError(t, err)
			assert.Empty(t, all)

			_, ok, err := s.Pull(ctx, "run-2", "start", ReturnValueKey)
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestMemoryStore_ConcurrentPush(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.Push(ctx, "run", fmt.Sprintf("task_%d", i), ReturnValueKey, cty.NumberIntVal(int64(i)))
		}(i)
	}
	wg.Wait()

	all, err := s.All(ctx, "run")
	require.NoError(t, err)
	assert.Len(t, all, 50)
}
