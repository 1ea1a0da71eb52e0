// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package hcl

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/lakegrid/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// tagName is the struct tag operators use to bind arguments, e.g.
// `lg:"bucket"` or `lg:"prefix,optional"`.
const tagName = "lg"

var (
	durationType = reflect.TypeOf(time.Duration(0))
	ctyValueType = reflect.TypeOf(cty.Value{})
)

// Converter is the HCL-specific implementation of the config.Converter interface.
type Converter struct{}

// NewConverter creates a new HCL converter.
func NewConverter() *Converter {
	return &Converter{}
}

type fieldSpec struct {
	index    int
	name     string
	optional bool
}

func structFields(t reflect.Type) []fieldSpec {
	var fields []fieldSpec
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get(tagName)
		if tag == "" || tag == "-" {
			continue
		}
		parts := strings.Split(tag, ",")
		spec := fieldSpec{index: i, name: parts[0]}
		for _, opt := range parts[1:] {
			if opt == "optional" {
				spec.optional = true
			}
		}
		fields = append(fields, spec)
	}
	return fields
}

// DecodeArguments evaluates args against evalCtx and populates target.
// Fields left out of args keep whatever value target already holds, which is
// how operators express defaults. Missing required arguments and arguments
// the struct does not declare are both errors.
func (c *Converter) DecodeArguments(ctx context.Context, target any, args map[string]hcl.Expression, evalCtx *hcl.EvalContext) error {
	logger := ctxlog.FromContext(ctx)

	structVal := reflect.ValueOf(target)
	if structVal.Kind() != reflect.Ptr || structVal.IsNil() || structVal.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("decode target must be a non-nil pointer to a struct, got %T", target)
	}
	structVal = structVal.Elem()
	fields := structFields(structVal.Type())

	known := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		known[f.name] = struct{}{}
	}
	var unknown []string
	for name := range args {
		if _, ok := known[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("unsupported argument(s): %s", strings.Join(unknown, ", "))
	}

	for _, f := range fields {
		expr, provided := args[f.name]
		if !provided {
			if !f.optional {
				return fmt.Errorf("missing required argument %q", f.name)
			}
			continue
		}

		val, diags := expr.Value(evalCtx)
		if diags.HasErrors() {
			return fmt.Errorf("argument %q: %w", f.name, diags)
		}
		if !val.IsWhollyKnown() {
			return fmt.Errorf("argument %q: value is not known yet", f.name)
		}
		if val.IsNull() {
			if !f.optional {
				return fmt.Errorf("argument %q must not be null", f.name)
			}
			continue
		}

		if err := c.decode(structVal.Field(f.index), val); err != nil {
			return fmt.Errorf("argument %q: %w", f.name, err)
		}
		logger.Debug("Decoded argument.", "name", f.name, "type", val.Type().FriendlyName())
	}
	return nil
}

// decode stores val into field, converting it to the field's implied type.
func (c *Converter) decode(field reflect.Value, val cty.Value) error {
	switch field.Type() {
	case ctyValueType:
		field.Set(reflect.ValueOf(val))
		return nil
	case durationType:
		s, err := convert.Convert(val, cty.String)
		if err != nil {
			return fmt.Errorf("expected a duration string: %w", err)
		}
		d, err := ParseDuration(s.AsString())
		if err != nil {
			return err
		}
		field.SetInt(int64(d))
		return nil
	}

	impliedType, err := gocty.ImpliedType(field.Interface())
	if err != nil {
		return gocty.FromCtyValue(val, field.Addr().Interface())
	}
	converted, err := convert.Convert(val, impliedType)
	if err != nil {
		return fmt.Errorf("cannot convert %s to %s: %w", val.Type().FriendlyName(), impliedType.FriendlyName(), err)
	}
	return gocty.FromCtyValue(converted, field.Addr().Interface())
}

// ToCtyValue converts a native Go value into its corresponding cty.Value.
func (c *Converter) ToCtyValue(v any) (cty.Value, error) {
	if v == nil {
		return cty.NullVal(cty.DynamicPseudoType), nil
	}
	if val, ok := v.(cty.Value); ok {
		return val, nil
	}
	ty, err := gocty.ImpliedType(v)
	if err != nil {
		return cty.NilVal, fmt.Errorf("unable to infer cty.Type: %w", err)
	}
	return gocty.ToCtyValue(v, ty)
}
