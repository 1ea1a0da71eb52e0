// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package hcl

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/lakegrid/internal/config"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// EnvFunc reads an environment variable. The optional second argument is
// returned when the variable is unset; without it an unset variable is an
// error.
var EnvFunc = function.New(&function.Spec{
	Description: "Returns the value of an environment variable.",
	Params: []function.Parameter{
		{Name: "name", Type: cty.String},
	},
	VarParam: &function.Parameter{Name: "default", Type: cty.String},
	Type:     function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		name := args[0].AsString()
		if v, ok := os.LookupEnv(name); ok {
			return cty.StringVal(v), nil
		}
		if len(args) > 1 {
			return args[1], nil
		}
		return cty.NilVal, fmt.Errorf("environment variable %q is not set", name)
	},
})

func functions() map[string]function.Function {
	return map[string]function.Function{
		"env":      EnvFunc,
		"upper":    stdlib.UpperFunc,
		"lower":    stdlib.LowerFunc,
		"format":   stdlib.FormatFunc,
		"join":     stdlib.JoinFunc,
		"coalesce": stdlib.CoalesceFunc,
	}
}

// loadEvalContext is used for attributes decoded at load time; they may call
// functions but cannot see run state.
func loadEvalContext() *hcl.EvalContext {
	return &hcl.EvalContext{Functions: functions()}
}

// EvalContext builds the scope task arguments are evaluated in: `xcom.<task>`
// holds the return value of every finished task and `run.*` the run metadata.
func (c *Converter) EvalContext(xcom map[string]cty.Value, run config.RunInfo) *hcl.EvalContext {
	xcomVal := cty.EmptyObjectVal
	if len(xcom) > 0 {
		xcomVal = cty.ObjectVal(xcom)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"xcom": xcomVal,
			"run": cty.ObjectVal(map[string]cty.Value{
				"id":           cty.StringVal(run.ID),
				"pipeline":     cty.StringVal(run.Pipeline),
				"logical_date": cty.StringVal(run.LogicalDate),
				"trigger":      cty.StringVal(run.Trigger),
			}),
		},
		Functions: functions(),
	}
}
