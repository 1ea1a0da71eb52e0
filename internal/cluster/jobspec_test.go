// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package cluster

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bronzeJob = `
apiVersion: lakegrid.io/v1
kind: TransformationJob
metadata:
  generateName: bronze-to-silver-
  labels:
    layer: silver
spec:
  image: lakegrid/transform:latest
  mainApplicationFile: /usr/local/bin/bronze-to-silver
  args: ["-config", "/etc/lakegrid/transform.yaml"]
  env:
    MINIO_ENDPOINT: minio:9000
    MINIO_ACCESS_KEY: ${LAKEGRID_TEST_ACCESS_KEY}
`

func TestLoadJobSpec(t *testing.T) {
	t.Setenv("LAKEGRID_TEST_ACCESS_KEY", "minioadmin")
	path := filepath.Join(t.TempDir(), "bronze_to_silver.yaml")
	require.NoError(t, os.WriteFile(path, []byte(bronzeJob), 0o644))

	spec, err := LoadJobSpec(path)
	require.NoError(t, err)

	assert.Equal(t, "lakegrid/transform:latest", spec.Spec.Image)
	assert.Equal(t, "silver", spec.Metadata.Labels["layer"])
	assert.Equal(t, []string{"/usr/local/bin/bronze-to-silver"}, spec.Entrypoint())
	assert.Equal(t, []string{"/usr/local/bin/bronze-to-silver", "-config", "/etc/lakegrid/transform.yaml"}, spec.Argv())
	assert.Equal(t, []string{"MINIO_ACCESS_KEY=minioadmin", "MINIO_ENDPOINT=minio:9000"}, spec.Environ())
}

func TestJobName(t *testing.T) {
	t.Run("fixed name", func(t *testing.T) {
		spec := &JobSpec{Metadata: ObjectMeta{Name: "silver-to-gold"}}
		assert.Equal(t, "silver-to-gold", spec.JobName())
	})

	t.Run("generated name gets a fresh suffix", func(t *testing.T) {
		spec := &JobSpec{Metadata: ObjectMeta{GenerateName: "bronze-to-silver-"}}
		a, b := spec.JobName(), spec.JobName()
		assert.True(t, strings.HasPrefix(a, "bronze-to-silver-"))
		assert.Len(t, a, len("bronze-to-silver-")+8)
		assert.NotEqual(t, a, b)
	})
}

func TestParseJobSpec_Errors(t *testing.T) {
	testCases := []struct {
		name string
		doc  string
		want string
	}{
		{"wrong kind", "kind: Pod\nmetadata: {name: a}\nspec: {image: x}\n", "unsupported kind"},
		{"no name", "kind: TransformationJob\nspec: {image: x}\n", "name or a generateName"},
		{"no image", "kind: TransformationJob\nmetadata: {name: a}\n", "spec.image is required"},
		{"bad yaml", "kind: [", "failed to decode yaml"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseJobSpec([]byte(tc.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestCommandFallsBackToArgsOnly(t *testing.T) {
	spec := &JobSpec{Spec: JobTemplate{Args: []string{"run"}}}
	assert.Empty(t, spec.Entrypoint())
	assert.Equal(t, []string{"run"}, spec.Argv())
}

func TestContainerStatus(t *testing.T) {
	assert.Equal(t, StateSubmitted, containerStatus("created", 0, "").State)
	assert.Equal(t, StateRunning, containerStatus("running", 0, "").State)
	assert.Equal(t, StateSucceeded, containerStatus("exited", 0, "").State)

	failed := containerStatus("exited", 3, "")
	assert.Equal(t, StateFailed, failed.State)
	assert.Equal(t, 3, failed.ExitCode)
	assert.Equal(t, "exited with code 3", failed.Message)

	assert.Equal(t, StateFailed, containerStatus("dead", 137, "oom").State)
	assert.Equal(t, StateUnknown, containerStatus("removing", 0, "").State)

	assert.True(t, StateSucceeded.Terminal())
	assert.True(t, StateFailed.Terminal())
	assert.False(t, StateRunning.Terminal())
	assert.False(t, StateUnknown.Terminal())
}
