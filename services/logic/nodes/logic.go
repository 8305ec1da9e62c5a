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
	"github.com/AleutianAI/LogicNodes/services/logic/node"
)

// Greater writes Value1 > Value2 to Result1.
type Greater struct {
	node.BaseNode
	value1  *node.Input[float64]
	value2  *node.Input[float64]
	result1 *node.Output[bool]
}

// NewGreater creates a Greater node.
func NewGreater(id node.NodeID, name string) *Greater {
	n := &Greater{BaseNode: node.NewBaseNode(id, "FloatGreater", name)}
	n.value1 = node.AddInput[float64](&n.BaseNode, "Value1")
	n.value2 = node.AddInput[float64](&n.BaseNode, "Value2")
	n.result1 = node.AddOutput(&n.BaseNode, "Result1", false)
	return n
}

// Reset clears the result.
func (n *Greater) Reset() { n.result1.SetValue(false) }

// Compute compares the operands.
func (n *Greater) Compute() error {
	a, err := n.value1.Value()
	if err != nil {
		return err
	}
	b, err := n.value2.Value()
	if err != nil {
		return err
	}
	n.result1.SetValue(a > b)
	return nil
}

// Select writes IfTrue or IfFalse to Result1 depending on Condition.
type Select[T node.Value] struct {
	node.BaseNode
	condition *node.Input[bool]
	ifTrue    *node.Input[T]
	ifFalse   *node.Input[T]
	result1   *node.Output[T]
}

// NewSelect creates a Select node.
func NewSelect[T node.Value](id node.NodeID, name string) *Select[T] {
	n := &Select[T]{BaseNode: node.NewBaseNode(id, kindFor[T]("Select"), name)}
	n.condition = node.AddInput[bool](&n.BaseNode, "Condition")
	n.ifTrue = node.AddInput[T](&n.BaseNode, "IfTrue")
	n.ifFalse = node.AddInput[T](&n.BaseNode, "IfFalse")
	var zero T
	n.result1 = node.AddOutput(&n.BaseNode, "Result1", zero)
	return n
}

// Reset zeroes the result.
func (n *Select[T]) Reset() {
	var zero T
	n.result1.SetValue(zero)
}

// Compute selects a branch. Only the selected branch must have data.
func (n *Select[T]) Compute() error {
	c, err := n.condition.Value()
	if err != nil {
		return err
	}
	branch := n.ifFalse
	if c {
		branch = n.ifTrue
	}
	v, err := branch.Value()
	if err != nil {
		return err
	}
	n.result1.SetValue(v)
	return nil
}

// Concat writes Value1 + Value2 as a string.
type Concat struct {
	node.BaseNode
	value1  *node.Input[string]
	value2  *node.Input[string]
	result1 *node.Output[string]
}

// NewConcat creates a Concat node.
func NewConcat(id node.NodeID, name string) *Concat {
	n := &Concat{BaseNode: node.NewBaseNode(id, "StringConcat", name)}
	n.value1 = node.AddInput[string](&n.BaseNode, "Value1")
	n.value2 = node.AddInput[string](&n.BaseNode, "Value2")
	n.result1 = node.AddOutput(&n.BaseNode, "Result1", "")
	return n
}

// Reset clears the result.
func (n *Concat) Reset() { n.result1.SetValue("") }

// Compute concatenates.
func (n *Concat) Compute() error {
	a, err := n.value1.Value()
	if err != nil {
		return err
	}
	b, err := n.value2.Value()
	if err != nil {
		return err
	}
	n.result1.SetValue(a + b)
	return nil
}
