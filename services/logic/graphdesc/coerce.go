// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graphdesc

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/AleutianAI/LogicNodes/services/logic/node"
	"github.com/AleutianAI/LogicNodes/services/logic/tree"
)

// Coerce converts a decoded YAML or JSON value to the Go type of dt.
// Integers convert exactly whether they arrive as int, int64, uint64 or
// json.Number; vectors arrive as sequences.
func Coerce(dt node.DataType, v any) (any, error) {
	switch dt {
	case node.DataTypeBool:
		switch b := v.(type) {
		case bool:
			return b, nil
		case string:
			return strconv.ParseBool(b)
		}
	case node.DataTypeInt:
		if i, ok := toInt64(v); ok {
			return i, nil
		}
	case node.DataTypeUInt:
		if u, ok := toUint64(v); ok {
			return u, nil
		}
	case node.DataTypeFloat:
		if f, ok := number(v); ok {
			return f, nil
		}
	case node.DataTypeString:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case node.DataTypeVector3:
		if c, ok := components(v, 3); ok {
			return node.Vector3{c[0], c[1], c[2]}, nil
		}
	case node.DataTypeQuaternion:
		if c, ok := components(v, 4); ok {
			return node.Quaternion{c[0], c[1], c[2], c[3]}, nil
		}
	}
	return nil, fmt.Errorf("cannot use %v (%T) as %s", v, v, dt)
}

// toInt64 converts integers exactly. Floats are accepted only when they
// hold a whole number in range.
func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
			return i, true
		}
	}
	f, ok := number(v)
	if !ok || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// toUint64 is toInt64 for unsigned targets.
func toUint64(v any) (uint64, bool) {
	switch n := v.(type) {
	case int:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case int64:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case uint64:
		return n, true
	case json.Number:
		if u, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
			return u, true
		}
	}
	f, ok := number(v)
	if !ok || f != math.Trunc(f) || f < 0 || f >= math.MaxUint64 {
		return 0, false
	}
	return uint64(f), true
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func components(v any, n int) ([]float64, bool) {
	seq, ok := v.([]any)
	if !ok || len(seq) != n {
		return nil, false
	}
	out := make([]float64, n)
	for i, e := range seq {
		f, ok := number(e)
		if !ok {
			return nil, false
		}
		out[i] = f
	}
	return out, true
}

// param reads an optional typed parameter.
func param[T node.Value](params map[string]any, key string, def T) (T, error) {
	raw, ok := params[key]
	if !ok {
		return def, nil
	}
	v, err := Coerce(node.TypeOf[T](), raw)
	if err != nil {
		return def, fmt.Errorf("param %q: %w", key, err)
	}
	return v.(T), nil
}

// applyDefault sets the pool default for one data type.
func applyDefault(t *tree.Tree, dt node.DataType, raw any) error {
	v, err := Coerce(dt, raw)
	if err != nil {
		return err
	}
	switch x := v.(type) {
	case bool:
		return tree.SetDefaultValue(t, x)
	case int64:
		return tree.SetDefaultValue(t, x)
	case uint64:
		return tree.SetDefaultValue(t, x)
	case float64:
		return tree.SetDefaultValue(t, x)
	case string:
		return tree.SetDefaultValue(t, x)
	case node.Vector3:
		return tree.SetDefaultValue(t, x)
	case node.Quaternion:
		return tree.SetDefaultValue(t, x)
	}
	return fmt.Errorf("no default slot for %s", dt)
}
