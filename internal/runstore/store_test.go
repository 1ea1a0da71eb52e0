// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package runstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	started := time.Now().Add(-time.Minute)

	require.NoError(t, s.CreateRun(ctx, Run{ID: "r1", Pipeline: "brew", Trigger: "manual", State: RunRunning, StartedAt: started}))

	run, err := s.GetRun(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, RunRunning, run.State)
	assert.Equal(t, "manual", run.Trigger)
	assert.WithinDuration(t, started, run.StartedAt, time.Millisecond)
	assert.Nil(t, run.EndedAt)

	require.NoError(t, s.UpdateRunState(ctx, "r1", RunFailed, "task monitor failed"))
	run, err = s.GetRun(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, RunFailed, run.State)
	assert.Equal(t, "task monitor failed", run.Error)
	require.NotNil(t, run.EndedAt)

	_, err = s.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
	assert.ErrorIs(t, s.UpdateRunState(ctx, "missing", RunSuccess, ""), ErrRunNotFound)
}

func TestListRuns(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.CreateRun(ctx, Run{ID: id, Pipeline: "brew", Trigger: "dataset", State: RunSuccess, StartedAt: base.Add(time.Duration(i) * time.Hour)}))
	}
	require.NoError(t, s.CreateRun(ctx, Run{ID: "other", Pipeline: "other", Trigger: "manual", State: RunQueued, StartedAt: base}))

	runs, err := s.ListRuns(ctx, "brew", 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "b", runs[1].ID)

	all, err := s.ListRuns(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestTaskInstancesAndLogs(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.CreateRun(ctx, Run{ID: "r1", Pipeline: "brew", Trigger: "manual", State: RunRunning, StartedAt: time.Now()}))

	t0 := time.Now()
	require.NoError(t, s.UpsertTaskInstance(ctx, TaskInstance{RunID: "r1", TaskID: "start", State: TaskSuccess, TryNumber: 1, StartedAt: &t0, EndedAt: &t0}))

	t1 := t0.Add(time.Second)
	require.NoError(t, s.UpsertTaskInstance(ctx, TaskInstance{RunID: "r1", TaskID: "list_keys", State: TaskRunning, TryNumber: 1, StartedAt: &t1}))
	require.NoError(t, s.UpsertTaskInstance(ctx, TaskInstance{RunID: "r1", TaskID: "list_keys", State: TaskUpForRetry, TryNumber: 1, Error: "timeout"}))
	t2 := t1.Add(time.Second)
	require.NoError(t, s.UpsertTaskInstance(ctx, TaskInstance{RunID: "r1", TaskID: "list_keys", State: TaskSuccess, TryNumber: 2, EndedAt: &t2}))
	require.NoError(t, s.UpsertTaskInstance(ctx, TaskInstance{RunID: "r1", TaskID: "end", State: TaskUpstreamFailed}))

	tis, err := s.ListTaskInstances(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, tis, 3)
	assert.Equal(t, "start", tis[0].TaskID)
	assert.Equal(t, "list_keys", tis[1].TaskID)
	assert.Equal(t, TaskSuccess, tis[1].State)
	assert.Equal(t, 2, tis[1].TryNumber)
	assert.Empty(t, tis[1].Error)
	require.NotNil(t, tis[1].StartedAt, "start time survives later updates")
	assert.WithinDuration(t, t1, *tis[1].StartedAt, time.Millisecond)
	assert.Equal(t, "end", tis[2].TaskID)
	assert.Nil(t, tis[2].StartedAt)

	require.NoError(t, s.AppendTaskLog(ctx, TaskLog{RunID: "r1", TaskID: "monitor", TryNumber: 1, Content: "line 1"}))
	require.NoError(t, s.AppendTaskLog(ctx, TaskLog{RunID: "r1", TaskID: "monitor", TryNumber: 2, Content: "line 2"}))
	logs, err := s.TaskLogs(ctx, "r1", "monitor")
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "line 1", logs[0].Content)
	assert.Equal(t, 2, logs[1].TryNumber)
}

func TestTaskStateFinished(t *testing.T) {
	assert.True(t, TaskSuccess.Finished())
	assert.True(t, TaskUpstreamFailed.Finished())
	assert.True(t, TaskSkipped.Finished())
	assert.False(t, TaskUpForRetry.Finished())
	assert.False(t, TaskRunning.Finished())
}

func TestOpenInMemory(t *testing.T) {
	s, err := Open("")
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.CreateRun(context.Background(), Run{ID: "x", Pipeline: "p", Trigger: "manual", State: RunQueued, StartedAt: time.Now()}))
	_, err = s.GetRun(context.Background(), "x")
	require.NoError(t, err)
}
