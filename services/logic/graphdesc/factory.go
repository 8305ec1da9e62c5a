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
	"maps"
	"slices"

	"github.com/AleutianAI/LogicNodes/services/logic/node"
	"github.com/AleutianAI/LogicNodes/services/logic/nodes"
)

// Factory creates a node from its id, display name and params.
type Factory func(id node.NodeID, name string, params map[string]any) (node.Node, error)

// factories is the closed set of node types a description may use.
// Keys match the Kind of the node each factory creates.
var factories = map[string]Factory{
	"IntAdd":      simple(nodes.NewAdd[int64]),
	"IntSub":      simple(nodes.NewSubtract[int64]),
	"IntMul":      simple(nodes.NewMultiply[int64]),
	"IntDiv":      simple(nodes.NewDivide[int64]),
	"UIntAdd":     simple(nodes.NewAdd[uint64]),
	"UIntSub":     simple(nodes.NewSubtract[uint64]),
	"UIntMul":     simple(nodes.NewMultiply[uint64]),
	"UIntDiv":     simple(nodes.NewDivide[uint64]),
	"FloatAdd":    simple(nodes.NewAdd[float64]),
	"FloatSub":    simple(nodes.NewSubtract[float64]),
	"FloatMul":    simple(nodes.NewMultiply[float64]),
	"FloatDiv":    simple(nodes.NewDivide[float64]),

	"FloatGreater": simple(nodes.NewGreater),
	"StringConcat": simple(nodes.NewConcat),
	"Counter":      simple(nodes.NewCounter),

	"Vector3Add":       simple(nodes.NewVectorAdd),
	"Vector3Scale":     simple(nodes.NewVectorScale),
	"Vector3Length":    simple(nodes.NewVectorLength),
	"QuaternionRotate": simple(nodes.NewRotate),

	"BoolSource":       source[bool],
	"IntSource":        source[int64],
	"UIntSource":       source[uint64],
	"FloatSource":      source[float64],
	"StringSource":     source[string],
	"Vector3Source":    source[node.Vector3],
	"QuaternionSource": source[node.Quaternion],

	"BoolSink":       simple(nodes.NewSink[bool]),
	"IntSink":        simple(nodes.NewSink[int64]),
	"UIntSink":       simple(nodes.NewSink[uint64]),
	"FloatSink":      simple(nodes.NewSink[float64]),
	"StringSink":     simple(nodes.NewSink[string]),
	"Vector3Sink":    simple(nodes.NewSink[node.Vector3]),
	"QuaternionSink": simple(nodes.NewSink[node.Quaternion]),

	"IntPassThrough":    simple(nodes.NewPassThrough[int64]),
	"FloatPassThrough":  simple(nodes.NewPassThrough[float64]),
	"StringPassThrough": simple(nodes.NewPassThrough[string]),

	"IntSelect":    simple(nodes.NewSelect[int64]),
	"FloatSelect":  simple(nodes.NewSelect[float64]),
	"StringSelect": simple(nodes.NewSelect[string]),
}

// simple adapts a constructor that takes no params.
func simple[N node.Node](ctor func(node.NodeID, string) N) Factory {
	return func(id node.NodeID, name string, _ map[string]any) (node.Node, error) {
		return ctor(id, name), nil
	}
}

// source builds a Source node whose initial value is params["value"].
func source[T node.Value](id node.NodeID, name string, params map[string]any) (node.Node, error) {
	var zero T
	v, err := param(params, "value", zero)
	if err != nil {
		return nil, err
	}
	return nodes.NewSource(id, name, v), nil
}

// Types returns every node type a description may use, sorted.
func Types() []string {
	return slices.Sorted(maps.Keys(factories))
}

// HasType reports whether typ is a known node type.
func HasType(typ string) bool {
	_, ok := factories[typ]
	return ok
}
