// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTriggerRule(t *testing.T) {
	tests := []struct {
		in      string
		want    TriggerRule
		wantErr bool
	}{
		{"", TriggerAllSuccess, false},
		{"all_success", TriggerAllSuccess, false},
		{"all_done", TriggerAllDone, false},
		{"one_failed", "", true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseTriggerRule(tc.in)
			if tc.wantErr {
				assert.ErrorContains(t, err, "unsupported trigger_rule")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestTaskEffectiveSettings(t *testing.T) {
	defaults := DefaultArgs{Retries: 1, RetryDelay: time.Hour, Timeout: time.Minute}

	plain := &Task{ID: "a"}
	assert.Equal(t, 1, plain.EffectiveRetries(defaults))
	assert.Equal(t, time.Hour, plain.EffectiveRetryDelay(defaults))
	assert.Equal(t, time.Minute, plain.EffectiveTimeout(defaults))

	zero := 0
	delay := time.Second
	overridden := &Task{ID: "b", Retries: &zero, RetryDelay: &delay, Timeout: 5 * time.Second}
	assert.Equal(t, 0, overridden.EffectiveRetries(defaults))
	assert.Equal(t, time.Second, overridden.EffectiveRetryDelay(defaults))
	assert.Equal(t, 5*time.Second, overridden.EffectiveTimeout(defaults))
}

func TestModelTaskByID(t *testing.T) {
	m := &Model{Tasks: []*Task{{ID: "start"}, {ID: "end"}}}

	task, ok := m.TaskByID("end")
	require.True(t, ok)
	assert.Equal(t, "end", task.ID)

	_, ok = m.TaskByID("missing")
	assert.False(t, ok)
}
