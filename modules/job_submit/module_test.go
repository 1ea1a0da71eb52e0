// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package job_submit

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/specialistvlad/lakegrid/internal/cluster"
	"github.com/specialistvlad/lakegrid/internal/registry"
	"github.com/specialistvlad/lakegrid/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jobYAML = `
kind: TransformationJob
metadata:
  generateName: bronze-to-silver-
spec:
  image: lakegrid/transform:latest
  command: ["/usr/local/bin/bronze-to-silver"]
  args: ["-config", "/etc/lakegrid/transform.yaml"]
`

func setup(t *testing.T) (*registry.Env, *testutil.FakeCluster) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "jobs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "jobs", "bronze_to_silver.yaml"), []byte(jobYAML), 0o644))

	fake := testutil.NewFakeCluster()
	env := &registry.Env{
		TaskID:  "bronze_to_silver_task",
		BaseDir: dir,
		Conns:   &testutil.Conns{Clusters: map[string]cluster.Scheduler{"cluster": fake}},
	}
	return env, fake
}

func TestRun_Submits(t *testing.T) {
	ctx, _ := testutil.LogContext(t)
	env, fake := setup(t)

	out, err := Run(ctx, env, &Input{Namespace: "processing", ApplicationFile: "jobs/bronze_to_silver.yaml", ConnID: "cluster"})
	require.NoError(t, err)

	require.Len(t, fake.Submitted, 1)
	job := fake.Submitted[0]
	assert.Equal(t, "processing", job.Namespace)
	assert.True(t, strings.HasPrefix(job.Name, "bronze-to-silver-"))

	meta := out.GetAttr("metadata")
	assert.Equal(t, job.Name, meta.GetAttr("name").AsString())
	assert.Equal(t, "processing", meta.GetAttr("namespace").AsString())
	assert.Equal(t, job.ID, meta.GetAttr("uid").AsString())
	assert.Equal(t, "lakegrid/transform:latest", out.GetAttr("spec").GetAttr("image").AsString())

	var command []string
	for _, v := range out.GetAttr("spec").GetAttr("command").AsValueSlice() {
		command = append(command, v.AsString())
	}
	assert.Equal(t, []string{"/usr/local/bin/bronze-to-silver", "-config", "/etc/lakegrid/transform.yaml"}, command)
}

func TestRun_Errors(t *testing.T) {
	ctx, _ := testutil.LogContext(t)

	t.Run("missing file", func(t *testing.T) {
		env, fake := setup(t)
		_, err := Run(ctx, env, &Input{Namespace: "processing", ApplicationFile: "jobs/nope.yaml", ConnID: "cluster"})
		require.Error(t, err)
		assert.Empty(t, fake.Submitted)
	})

	t.Run("submit rejected", func(t *testing.T) {
		env, fake := setup(t)
		fake.SubmitErr = errors.New("quota exceeded")
		_, err := Run(ctx, env, &Input{Namespace: "processing", ApplicationFile: "jobs/bronze_to_silver.yaml", ConnID: "cluster"})
		assert.ErrorContains(t, err, "quota exceeded")
	})

	t.Run("unknown connection", func(t *testing.T) {
		env, _ := setup(t)
		_, err := Run(ctx, env, &Input{Namespace: "processing", ApplicationFile: "jobs/bronze_to_silver.yaml", ConnID: "other"})
		assert.ErrorContains(t, err, "unknown cluster connection")
	})
}
