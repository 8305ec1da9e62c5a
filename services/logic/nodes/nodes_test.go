// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package nodes

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/LogicNodes/services/logic/node"
)

func link[T node.Value](t *testing.T, in *node.Input[T], v T) *Source[T] {
	t.Helper()
	src := NewSource[T](100, "", v)
	require.NoError(t, node.SetGetLink(in, src.Out()))
	return src
}

func TestBinaryOps(t *testing.T) {
	tests := []struct {
		name string
		make func() *BinaryOp[int64]
		a, b int64
		want int64
		kind string
	}{
		{"add", func() *BinaryOp[int64] { return NewAdd[int64](1, "") }, 3, 5, 8, "IntAdd"},
		{"sub", func() *BinaryOp[int64] { return NewSubtract[int64](1, "") }, 3, 5, -2, "IntSub"},
		{"mul", func() *BinaryOp[int64] { return NewMultiply[int64](1, "") }, 3, 5, 15, "IntMul"},
		{"div", func() *BinaryOp[int64] { return NewDivide[int64](1, "") }, 15, 4, 3, "IntDiv"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := tt.make()
			link(t, n.Value1(), tt.a)
			link(t, n.Value2(), tt.b)

			require.NoError(t, n.Compute())
			assert.Equal(t, tt.want, n.Result1().Value())
			assert.Equal(t, tt.kind, n.Kind())

			n.Reset()
			assert.Zero(t, n.Result1().Value())
		})
	}
}

func TestDivide_ByZero(t *testing.T) {
	n := NewDivide[uint64](1, "d")
	link(t, n.Value1(), uint64(1))
	link(t, n.Value2(), uint64(0))
	assert.ErrorIs(t, n.Compute(), ErrDivisionByZero)

	f := NewDivide[float64](2, "f")
	link(t, f.Value1(), 1.0)
	link(t, f.Value2(), 0.0)
	require.NoError(t, f.Compute())
	assert.True(t, math.IsInf(f.Result1().Value(), 1))
}

func TestBinaryOp_MissingInput(t *testing.T) {
	n := NewAdd[float64](1, "")
	link(t, n.Value1(), 1.0)
	assert.ErrorIs(t, n.Compute(), node.ErrNoData)
}

func TestSource_SetAndReset(t *testing.T) {
	src := NewSource[string](1, "s", "init")
	sink := NewSink[string](2, "sink")
	require.NoError(t, node.AddWriteLink(src.Out(), sink.In()))

	src.Set("changed")
	require.NoError(t, sink.Compute())
	got, ok := sink.Last()
	assert.True(t, ok)
	assert.Equal(t, "changed", got)

	src.Reset()
	assert.Equal(t, "init", src.Get())
	sink.Reset()
	_, ok = sink.Last()
	assert.False(t, ok)
}

func TestCounter(t *testing.T) {
	c := NewCounter(1, "")
	require.NoError(t, c.Compute())
	require.NoError(t, c.Compute())
	assert.Equal(t, int64(2), c.Count().Value())

	link(t, c.Step(), int64(5))
	require.NoError(t, c.Compute())
	assert.Equal(t, int64(7), c.Count().Value())

	c.Reset()
	assert.Zero(t, c.Count().Value())
}

func TestVectorNodes(t *testing.T) {
	add := NewVectorAdd(1, "")
	link(t, add.value1, node.Vector3{1, 2, 3})
	link(t, add.value2, node.Vector3{1, 1, 1})
	require.NoError(t, add.Compute())
	assert.Equal(t, node.Vector3{2, 3, 4}, add.result1.Value())

	scale := NewVectorScale(2, "")
	link(t, scale.vector, node.Vector3{1, 0, -2})
	link(t, scale.factor, 2.0)
	require.NoError(t, scale.Compute())
	assert.Equal(t, node.Vector3{2, 0, -4}, scale.result1.Value())

	length := NewVectorLength(3, "")
	link(t, length.vector, node.Vector3{3, 4, 0})
	require.NoError(t, length.Compute())
	assert.InDelta(t, 5.0, length.length.Value(), 1e-12)
}

func TestRotate_QuarterTurnAboutZ(t *testing.T) {
	r := NewRotate(1, "")
	half := math.Pi / 4
	link(t, r.rotation, node.Quaternion{math.Cos(half), 0, 0, math.Sin(half)})
	link(t, r.vector, node.Vector3{1, 0, 0})
	require.NoError(t, r.Compute())

	got := r.result1.Value()
	assert.InDelta(t, 0.0, got[0], 1e-9)
	assert.InDelta(t, 1.0, got[1], 1e-9)
	assert.InDelta(t, 0.0, got[2], 1e-9)
}

func TestSelectGreaterConcat(t *testing.T) {
	g := NewGreater(1, "")
	link(t, g.value1, 2.0)
	link(t, g.value2, 1.0)
	require.NoError(t, g.Compute())
	assert.True(t, g.result1.Value())

	sel := NewSelect[string](2, "")
	require.NoError(t, node.SetGetLink(sel.condition, g.result1))
	link(t, sel.ifTrue, "yes")
	// IfFalse is unset; only the chosen branch must have data.
	require.NoError(t, sel.Compute())
	assert.Equal(t, "yes", sel.result1.Value())

	c := NewConcat(3, "")
	link(t, c.value1, "logic")
	link(t, c.value2, "nodes")
	require.NoError(t, c.Compute())
	assert.Equal(t, "logicnodes", c.result1.Value())
}
