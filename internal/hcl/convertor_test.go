// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package hcl

import (
	"context"
	"testing"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/specialistvlad/lakegrid/internal/config"
	"github.com/specialistvlad/lakegrid/internal/ctxlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

type testInput struct {
	Bucket   string        `lg:"bucket"`
	Prefix   string        `lg:"prefix,optional"`
	Keys     []string      `lg:"keys,optional"`
	Wait     bool          `lg:"wait,optional"`
	Count    int           `lg:"count,optional"`
	Interval time.Duration `lg:"interval,optional"`
	Raw      cty.Value     `lg:"raw,optional"`
	ignored  string
}

func parseArgs(t *testing.T, src map[string]string) map[string]hcl.Expression {
	t.Helper()
	out := make(map[string]hcl.Expression, len(src))
	for name, text := range src {
		expr, diags := hclsyntax.ParseExpression([]byte(text), name+".hcl", hcl.InitialPos)
		require.False(t, diags.HasErrors(), diags.Error())
		out[name] = expr
	}
	return out
}

func TestConverter_DecodeArguments(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())
	c := NewConverter()
	evalCtx := c.EvalContext(map[string]cty.Value{
		"submit": cty.ObjectVal(map[string]cty.Value{
			"metadata": cty.ObjectVal(map[string]cty.Value{"name": cty.StringVal("job-1")}),
		}),
	}, config.RunInfo{ID: "run-42"})

	t.Run("all kinds of fields", func(t *testing.T) {
		in := testInput{Prefix: "default/"}
		args := parseArgs(t, map[string]string{
			"bucket":   `"lake${run.id}"`,
			"keys":     `["a", "b"]`,
			"wait":     `true`,
			"count":    `"3"`,
			"interval": `"2m"`,
			"raw":      `xcom.submit.metadata`,
		})
		require.NoError(t, c.DecodeArguments(ctx, &in, args, evalCtx))

		assert.Equal(t, "lakerun-42", in.Bucket)
		assert.Equal(t, "default/", in.Prefix, "optional field keeps its default")
		assert.Equal(t, []string{"a", "b"}, in.Keys)
		assert.True(t, in.Wait)
		assert.Equal(t, 3, in.Count)
		assert.Equal(t, 2*time.Minute, in.Interval)
		assert.Equal(t, "job-1", in.Raw.GetAttr("name").AsString())
	})

	t.Run("xcom traversal into string", func(t *testing.T) {
		var in testInput
		args := parseArgs(t, map[string]string{"bucket": `upper(xcom.submit.metadata.name)`})
		require.NoError(t, c.DecodeArguments(ctx, &in, args, evalCtx))
		assert.Equal(t, "JOB-1", in.Bucket)
	})

	t.Run("missing required", func(t *testing.T) {
		var in testInput
		err := c.DecodeArguments(ctx, &in, parseArgs(t, map[string]string{"prefix": `"x"`}), evalCtx)
		assert.ErrorContains(t, err, `missing required argument "bucket"`)
	})

	t.Run("unknown argument", func(t *testing.T) {
		var in testInput
		err := c.DecodeArguments(ctx, &in, parseArgs(t, map[string]string{"bucket": `"b"`, "nope": `1`}), evalCtx)
		assert.ErrorContains(t, err, "unsupported argument(s): nope")
	})

	t.Run("reference to a task without output", func(t *testing.T) {
		var in testInput
		err := c.DecodeArguments(ctx, &in, parseArgs(t, map[string]string{"bucket": `xcom.missing.metadata.name`}), evalCtx)
		assert.Error(t, err)
	})

	t.Run("type mismatch", func(t *testing.T) {
		var in testInput
		err := c.DecodeArguments(ctx, &in, parseArgs(t, map[string]string{"bucket": `"b"`, "wait": `"maybe"`}), evalCtx)
		assert.ErrorContains(t, err, `argument "wait"`)
	})

	t.Run("non pointer target", func(t *testing.T) {
		err := c.DecodeArguments(ctx, testInput{}, nil, evalCtx)
		assert.ErrorContains(t, err, "non-nil pointer")
	})
}

func TestEnvFunc(t *testing.T) {
	t.Setenv("LAKEGRID_TEST_VAR", "value")
	ctx := ctxlog.Discard(context.Background())
	c := NewConverter()
	evalCtx := c.EvalContext(nil, config.RunInfo{})

	var in testInput
	args := parseArgs(t, map[string]string{
		"bucket": `env("LAKEGRID_TEST_VAR")`,
		"prefix": `env("LAKEGRID_TEST_UNSET_VAR", "fallback")`,
	})
	require.NoError(t, c.DecodeArguments(ctx, &in, args, evalCtx))
	assert.Equal(t, "value", in.Bucket)
	assert.Equal(t, "fallback", in.Prefix)

	err := c.DecodeArguments(ctx, &in, parseArgs(t, map[string]string{"bucket": `env("LAKEGRID_TEST_UNSET_VAR")`}), evalCtx)
	assert.ErrorContains(t, err, "is not set")
}

func TestConverter_ToCtyValue(t *testing.T) {
	c := NewConverter()

	v, err := c.ToCtyValue(nil)
	require.NoError(t, err)
	assert.True(t, v.IsNull())

	v, err = c.ToCtyValue([]string{"a"})
	require.NoError(t, err)
	assert.True(t, v.RawEquals(cty.ListVal([]cty.Value{cty.StringVal("a")})))

	v, err = c.ToCtyValue(cty.StringVal("x"))
	require.NoError(t, err)
	assert.Equal(t, "x", v.AsString())
}
