// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package manager

import (
	"encoding/json"
	"math"

	"github.com/AleutianAI/LogicNodes/services/logic/node"
)

// MarshalJSON encodes Value with non-finite floats spelled as "+Inf",
// "-Inf" and "NaN", which encoding/json cannot represent as numbers.
func (v SocketValue) MarshalJSON() ([]byte, error) {
	type plain SocketValue
	p := plain(v)
	p.Value = finiteJSON(v.Value)
	return json.Marshal(p)
}

func finiteJSON(v any) any {
	switch x := v.(type) {
	case float64:
		return floatJSON(x)
	case node.Vector3:
		return floatsJSON(x[:], v)
	case node.Quaternion:
		return floatsJSON(x[:], v)
	}
	return v
}

func floatJSON(f float64) any {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "+Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	}
	return f
}

// floatsJSON returns orig unchanged unless a component is not finite.
func floatsJSON(fs []float64, orig any) any {
	finite := true
	for _, f := range fs {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			finite = false
			break
		}
	}
	if finite {
		return orig
	}
	out := make([]any, len(fs))
	for i, f := range fs {
		out[i] = floatJSON(f)
	}
	return out
}
