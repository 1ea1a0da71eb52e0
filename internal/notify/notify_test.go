// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/specialistvlad/lakegrid/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMulti(t *testing.T) {
	ctx, logs := testutil.LogContext(t)

	var got []Event
	record := Func(func(_ context.Context, ev Event) error {
		got = append(got, ev)
		return nil
	})
	broken := Func(func(context.Context, Event) error { return errors.New("server gone") })

	ev := Event{Pipeline: "brew", RunID: "r1", TaskID: "monitor", Kind: KindFailure, Try: 2, Error: "job failed"}
	err := Multi{Log{}, record, nil, broken}.Notify(ctx, ev)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "server gone")
	require.Len(t, got, 1)
	assert.Equal(t, "monitor", got[0].TaskID)
	assert.Contains(t, logs.String(), "Task failed.")
	assert.Contains(t, logs.String(), "task_id=monitor")
}

func TestLog_Retry(t *testing.T) {
	ctx, logs := testutil.LogContext(t)
	require.NoError(t, Log{}.Notify(ctx, Event{TaskID: "list_keys", Kind: KindRetry, Try: 1}))
	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "Task will be retried.")
}

func TestEventPayload(t *testing.T) {
	ev := Event{Pipeline: "brew", RunID: "r1", TaskID: "t", Kind: KindRetry, Try: 3, Time: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}
	p, err := eventPayload(ev)
	require.NoError(t, err)
	assert.Equal(t, "retry", p["kind"])
	assert.Equal(t, float64(3), p["try"])
	assert.Equal(t, "2024-01-02T03:04:05Z", p["time"])
}

func TestNewSocketIO_InvalidURL(t *testing.T) {
	ctx, _ := testutil.LogContext(t)
	_, err := NewSocketIO(ctx, SocketIOConfig{URL: "not a url"})
	require.Error(t, err)
}
