// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package app

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Run("json output", func(t *testing.T) {
		buf := &bytes.Buffer{}
		NewLogger("info", "json", buf).With("stage", "silver_to_gold").Info("Stage finished.", "rows", 3)

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "Stage finished.", entry["msg"])
		assert.Equal(t, "silver_to_gold", entry["stage"])
		assert.Equal(t, float64(3), entry["rows"])
	})

	t.Run("text output", func(t *testing.T) {
		buf := &bytes.Buffer{}
		NewLogger("info", "text", buf).Info("Run started.")
		assert.True(t, strings.HasPrefix(buf.String(), "time="))
		assert.Contains(t, buf.String(), `msg="Run started."`)
	})

	t.Run("level filters", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := NewLogger("warn", "text", buf)
		logger.Info("hidden")
		logger.Warn("shown")
		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("unknown level falls back to info", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := NewLogger("", "text", buf)
		logger.Debug("hidden")
		logger.Info("shown")
		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})
}
