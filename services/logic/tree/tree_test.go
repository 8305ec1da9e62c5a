// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tree

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/LogicNodes/services/logic/node"
	"github.com/AleutianAI/LogicNodes/services/logic/nodes"
)

func quietTree(opts ...Option) *Tree {
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return New(opts...)
}

// sumNode adds up its int inputs, treating missing data as 0.
type sumNode struct {
	node.BaseNode
	ins []*node.Input[int64]
	out *node.Output[int64]
}

func newSumNode(id node.NodeID, inputs int) *sumNode {
	n := &sumNode{BaseNode: node.NewBaseNode(id, "Sum", "")}
	for i := 0; i < inputs; i++ {
		n.ins = append(n.ins, node.AddInput[int64](&n.BaseNode, "In"))
	}
	n.out = node.AddOutput[int64](&n.BaseNode, "Out", 0)
	return n
}

func (n *sumNode) Compute() error {
	var s int64
	for _, in := range n.ins {
		s += in.ValueOr(0)
	}
	n.out.SetValue(s)
	return nil
}

func TestScenarioA_AddChain(t *testing.T) {
	tr := quietTree(WithCheckResults(true))

	a := nodes.NewAdd[int64](0, "a")
	b := nodes.NewAdd[int64](1, "b")
	c := nodes.NewAdd[int64](2, "combiner")
	srcA := nodes.NewSource[int64](10, "in-a", 3)
	srcB := nodes.NewSource[int64](11, "in-b", 5)

	require.NotNil(t, tr.AddNode(a, ClassInput, DefaultGroup))
	require.NotNil(t, tr.AddNode(b, ClassInput, DefaultGroup))
	require.NotNil(t, tr.AddNode(c, ClassOutput, DefaultGroup))
	require.NotNil(t, tr.AddNode(srcA, ClassNormal, DefaultGroup))
	require.NotNil(t, tr.AddNode(srcB, ClassNormal, DefaultGroup))

	require.NoError(t, tr.MakeGetLink(10, 0, 0, 0))
	require.NoError(t, tr.MakeGetLink(11, 0, 1, 0))
	require.NoError(t, tr.MakeGetLink(0, 0, 2, 0))
	require.NoError(t, tr.MakeGetLink(1, 0, 2, 1))

	require.NoError(t, tr.Setup(true))
	require.NoError(t, tr.Execute())

	assert.Equal(t, int64(8), c.Result1().Value())

	pc, _ := tr.Priority(2)
	pa, _ := tr.Priority(0)
	ps, _ := tr.Priority(10)
	assert.Equal(t, 0, pc)
	assert.Equal(t, 1, pa)
	assert.Equal(t, 2, ps)

	order, err := tr.ExecutionOrder()
	require.NoError(t, err)
	assert.Equal(t, []node.NodeID{10, 11, 0, 1, 2}, order)
}

func TestScenarioB_WriteAndGetLink(t *testing.T) {
	tr := quietTree(WithCheckResults(true))
	a := nodes.NewSource[int64](1, "A", 4)
	b := nodes.NewAdd[int64](2, "B")
	tr.AddNode(a, ClassInput, DefaultGroup)
	tr.AddNode(b, ClassOutput, DefaultGroup)

	require.NoError(t, tr.MakeWriteLink(1, 0, 2, 0))
	require.NoError(t, tr.MakeGetLink(1, 0, 2, 1))
	require.NoError(t, tr.Setup(true))

	pa, _ := tr.Priority(1)
	pb, _ := tr.Priority(2)
	assert.Greater(t, pa, pb)

	require.NoError(t, tr.Execute())
	assert.Equal(t, int64(8), b.Result1().Value())

	removed, err := tr.RemoveWriteLink(1, 0, 2, 0)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = tr.RemoveGetLink(2, 1)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.False(t, tr.IsReady())

	for _, in := range b.Inputs() {
		assert.Zero(t, in.ConnectionCount())
	}

	require.NoError(t, tr.Setup(true))
	for _, in := range b.Inputs() {
		assert.Equal(t, 1, in.ConnectionCount())
		require.NotNil(t, in.GetLink())
		assert.Equal(t, PoolNodeID, in.GetLink().Owner())
	}
}

func TestSetup_NoOutputNodes(t *testing.T) {
	tr := quietTree()
	tr.AddNode(newSumNode(1, 1), ClassInput, DefaultGroup)

	err := tr.Setup(true)
	assert.ErrorIs(t, err, ErrNoOutputNodes)
	assert.False(t, tr.IsReady())
}

func TestSetup_DanglingDisabled(t *testing.T) {
	tr := quietTree()
	tr.AddNode(newSumNode(1, 2), ClassOutput, DefaultGroup)

	err := tr.Setup(false)
	require.ErrorIs(t, err, ErrDanglingInput)

	var nodeErr *NodeError
	require.True(t, errors.As(err, &nodeErr))
	assert.Equal(t, node.NodeID(1), nodeErr.ID)
	assert.False(t, tr.IsReady())
}

func TestSetup_DanglingConnectedToPool(t *testing.T) {
	tr := quietTree()
	out := newSumNode(1, 3)
	tr.AddNode(out, ClassOutput, DefaultGroup)
	require.NoError(t, SetDefaultValue[int64](tr, 7))

	require.NoError(t, tr.Setup(true))
	for _, in := range out.Inputs() {
		assert.GreaterOrEqual(t, in.ConnectionCount(), 1)
	}

	require.NoError(t, tr.Execute())
	assert.Equal(t, int64(21), out.out.Value())

	// Pool values are shared, so a new default is seen without relinking.
	require.NoError(t, SetDefaultValue[int64](tr, 1))
	require.NoError(t, tr.Execute())
	assert.Equal(t, int64(3), out.out.Value())
}

func TestExecute_StaleOrder(t *testing.T) {
	tr := quietTree()
	tr.AddNode(newSumNode(1, 1), ClassOutput, DefaultGroup)

	assert.ErrorIs(t, tr.Execute(), ErrInvalidState)
	assert.ErrorIs(t, tr.Reset(), ErrInvalidState)
	assert.ErrorIs(t, tr.ExecuteGroup(DefaultGroup), ErrInvalidState)

	require.NoError(t, tr.Setup(true))
	require.NoError(t, tr.Execute())

	tr.AddNode(newSumNode(2, 1), ClassNormal, DefaultGroup)
	assert.ErrorIs(t, tr.Execute(), ErrInvalidState)
	_, err := tr.ExecutionOrder()
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestAddNode_DuplicateIsIgnored(t *testing.T) {
	var buf bytes.Buffer
	tr := New(WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))

	first := newSumNode(1, 1)
	require.NotNil(t, tr.AddNode(first, ClassOutput, DefaultGroup))
	require.NoError(t, tr.Setup(true))

	assert.Nil(t, tr.AddNode(newSumNode(1, 2), ClassNormal, DefaultGroup))
	assert.Nil(t, tr.AddNode(newSumNode(PoolNodeID, 0), ClassNormal, DefaultGroup))
	assert.Nil(t, tr.AddNode(nil, ClassNormal, DefaultGroup))

	assert.True(t, tr.IsReady(), "rejected adds must not mutate the tree")
	assert.Same(t, first, tr.ViewNode(1))
	assert.Contains(t, buf.String(), "node id already exists")
	assert.Equal(t, 1, tr.Len())
}

func TestGetNode_InvalidatesViewNodeDoesNot(t *testing.T) {
	tr := quietTree()
	tr.AddNode(newSumNode(1, 1), ClassOutput, DefaultGroup)
	require.NoError(t, tr.Setup(true))

	assert.NotNil(t, tr.ViewNode(1))
	assert.True(t, tr.IsReady())

	assert.NotNil(t, tr.GetNode(1))
	assert.False(t, tr.IsReady())

	assert.Nil(t, tr.GetNode(99))
}

func TestMakeLink_Errors(t *testing.T) {
	tr := quietTree()
	tr.AddNode(newSumNode(1, 1), ClassNormal, DefaultGroup)
	tr.AddNode(nodes.NewConcat(2, "concat"), ClassOutput, DefaultGroup)

	assert.ErrorIs(t, tr.MakeGetLink(1, 0, 42, 0), ErrNodeNotFound)
	assert.ErrorIs(t, tr.MakeGetLink(1, 5, 2, 0), ErrSocketNotFound)
	assert.ErrorIs(t, tr.MakeWriteLink(1, 0, 2, 9), ErrSocketNotFound)
	assert.ErrorIs(t, tr.MakeGetLink(1, 0, 2, 0), node.ErrBadSocketCast)

	_, err := tr.RemoveGetLink(42, 0)
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestMakeGetLink_ReplacesExisting(t *testing.T) {
	tr := quietTree()
	a, b, c := newSumNode(1, 0), newSumNode(2, 0), newSumNode(3, 1)
	tr.AddNode(a, ClassInput, DefaultGroup)
	tr.AddNode(b, ClassInput, DefaultGroup)
	tr.AddNode(c, ClassOutput, DefaultGroup)

	require.NoError(t, tr.MakeGetLink(1, 0, 3, 0))
	require.NoError(t, tr.MakeGetLink(2, 0, 3, 0))

	assert.Empty(t, a.out.GetterChildren())
	assert.Len(t, b.out.GetterChildren(), 1)
	assert.Equal(t, 1, c.ins[0].ConnectionCount())
}

func TestRemoveNode_DetachesPeers(t *testing.T) {
	tr := quietTree()
	a, b, c := newSumNode(1, 0), newSumNode(2, 1), newSumNode(3, 1)
	tr.AddNode(a, ClassInput, DefaultGroup)
	tr.AddNode(b, ClassNormal, 5)
	tr.AddNode(c, ClassOutput, DefaultGroup)
	require.NoError(t, tr.MakeGetLink(1, 0, 2, 0))
	require.NoError(t, tr.MakeWriteLink(2, 0, 3, 0))

	got, err := tr.RemoveNode(2)
	require.NoError(t, err)
	assert.Same(t, b, got)
	assert.Nil(t, tr.ViewNode(2))
	assert.Zero(t, a.out.ConnectionCount())
	assert.Zero(t, c.ins[0].ConnectionCount())
	assert.NotContains(t, tr.Groups(), GroupID(5))

	_, err = tr.RemoveNode(2)
	assert.ErrorIs(t, err, ErrNodeNotFound)
	_, err = tr.RemoveNode(PoolNodeID)
	assert.ErrorIs(t, err, ErrPoolNode)

	require.NoError(t, tr.Setup(true))
}

func TestSetNodeClass_ConstantIsNotScheduled(t *testing.T) {
	tr := quietTree()
	k := nodes.NewSource[int64](1, "k", 2)
	out := newSumNode(2, 1)
	tr.AddNode(k, ClassNormal, DefaultGroup)
	tr.AddNode(out, ClassOutput, DefaultGroup)
	require.NoError(t, tr.MakeGetLink(1, 0, 2, 0))

	require.NoError(t, tr.SetNodeClass(1, ClassConstant))
	require.NoError(t, tr.Setup(true))

	order, err := tr.ExecutionOrder()
	require.NoError(t, err)
	assert.Equal(t, []node.NodeID{2}, order)

	_, scheduled := tr.Priority(1)
	assert.False(t, scheduled)
	assert.Len(t, tr.NodesByClass(ClassConstant), 1)

	require.NoError(t, tr.Execute())
	assert.Equal(t, int64(2), out.out.Value())

	assert.ErrorIs(t, tr.SetNodeClass(PoolNodeID, ClassNormal), ErrPoolNode)
	assert.ErrorIs(t, tr.SetNodeClass(99, ClassNormal), ErrNodeNotFound)
}

func TestGroups_ExecuteSubset(t *testing.T) {
	tr := quietTree()
	c1 := nodes.NewCounter(1, "c1")
	c2 := nodes.NewCounter(2, "c2")
	tr.AddNode(c1, ClassOutput, DefaultGroup)
	tr.AddNode(c2, ClassOutput, 7)
	require.NoError(t, tr.AddNodeToGroup(1, 7))
	require.NoError(t, SetDefaultValue[int64](tr, 1))
	require.NoError(t, tr.Setup(true))

	assert.Equal(t, []GroupID{DefaultGroup, 7}, tr.Groups())
	assert.Len(t, tr.NodesInGroup(7), 2)

	require.NoError(t, tr.ExecuteGroup(DefaultGroup))
	assert.Equal(t, int64(1), c1.Count().Value())
	assert.Equal(t, int64(0), c2.Count().Value())

	require.NoError(t, tr.ExecuteGroup(7))
	assert.Equal(t, int64(2), c1.Count().Value())
	assert.Equal(t, int64(1), c2.Count().Value())

	require.NoError(t, tr.ResetGroup(7))
	assert.Equal(t, int64(0), c1.Count().Value())

	assert.ErrorIs(t, tr.ExecuteGroup(3), ErrGroupNotFound)
	assert.ErrorIs(t, tr.AddNodeToGroup(99, 3), ErrNodeNotFound)
}

func TestExecute_ComputeErrorIsWrapped(t *testing.T) {
	tr := quietTree()
	div := nodes.NewDivide[int64](1, "div")
	tr.AddNode(div, ClassOutput, DefaultGroup)
	require.NoError(t, tr.Setup(true))

	err := tr.Execute()
	require.Error(t, err)
	var nodeErr *NodeError
	require.True(t, errors.As(err, &nodeErr))
	assert.Equal(t, "div", nodeErr.Name)
	assert.ErrorIs(t, err, nodes.ErrDivisionByZero)
}

func TestExecutionOrderInfo_Idempotent(t *testing.T) {
	tr := quietTree()
	a, b := newSumNode(1, 0), newSumNode(2, 1)
	tr.AddNode(a, ClassInput, DefaultGroup)
	tr.AddNode(b, ClassOutput, 3)
	require.NoError(t, tr.MakeGetLink(1, 0, 2, 0))

	assert.Contains(t, tr.ExecutionOrderInfo(), "stale")

	require.NoError(t, tr.Setup(true))
	first := tr.ExecutionOrderInfo()
	second := tr.ExecutionOrderInfo()
	assert.Equal(t, first, second)
	assert.Contains(t, first, "[global] 2 nodes")
	assert.Contains(t, first, "[group 3] 1 nodes")
	assert.Contains(t, first, "Sum#1")
}

func TestReachability_WarnsForIsolatedOutput(t *testing.T) {
	var buf bytes.Buffer
	tr := New(WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	in := newSumNode(1, 0)
	linked := newSumNode(2, 1)
	isolated := newSumNode(3, 1)
	tr.AddNode(in, ClassInput, DefaultGroup)
	tr.AddNode(linked, ClassOutput, DefaultGroup)
	tr.AddNode(isolated, ClassOutput, DefaultGroup)
	require.NoError(t, tr.MakeGetLink(1, 0, 2, 0))

	require.NoError(t, tr.Setup(true))

	ok, err := tr.CanReach(2, 1)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = tr.CanReach(3, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	logged := buf.String()
	assert.Contains(t, logged, "output node cannot reach any input node")
	assert.Contains(t, logged, "Sum#3")
	assert.NotContains(t, logged, "Sum#2")
}

func TestReachability_IgnoresWriteLinks(t *testing.T) {
	tr := quietTree()
	tr.AddNode(newSumNode(1, 0), ClassInput, DefaultGroup)
	tr.AddNode(newSumNode(2, 1), ClassOutput, DefaultGroup)
	require.NoError(t, tr.MakeWriteLink(1, 0, 2, 0))
	require.NoError(t, tr.Setup(true))

	ok, err := tr.CanReach(2, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAddNode_ConstantInNewGroupNeedsSetup(t *testing.T) {
	tr := quietTree()
	tr.AddNode(nodes.NewCounter(1, "c"), ClassOutput, DefaultGroup)
	require.NoError(t, tr.Setup(true))
	require.True(t, tr.IsReady())

	tr.AddNode(nodes.NewSource[int64](2, "k", 4), ClassConstant, DefaultGroup)
	assert.True(t, tr.IsReady(), "constant in a known group keeps the order")

	tr.AddNode(nodes.NewSource[int64](3, "k2", 5), ClassConstant, 9)
	assert.False(t, tr.IsReady())
	assert.ErrorIs(t, tr.ExecuteGroup(9), ErrInvalidState)

	require.NoError(t, tr.Setup(true))
	assert.Contains(t, tr.Groups(), GroupID(9))
	assert.NoError(t, tr.ExecuteGroup(9))
}
