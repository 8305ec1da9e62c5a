// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package nodes provides the standard library of logic nodes.
//
// Every node here declares its sockets in its constructor and keeps them
// fixed afterwards. Socket names follow the Value1/Value2 -> Result1
// convention for binary operators.
package nodes

import (
	"fmt"

	"github.com/AleutianAI/LogicNodes/services/logic/node"
)

// Number is the set of socket types arithmetic nodes operate on.
type Number interface {
	int64 | uint64 | float64
}

// BinaryOp computes Result1 = op(Value1, Value2).
type BinaryOp[T Number] struct {
	node.BaseNode
	value1  *node.Input[T]
	value2  *node.Input[T]
	result1 *node.Output[T]
	op      func(a, b T) (T, error)
}

func newBinaryOp[T Number](id node.NodeID, kind, name string, op func(a, b T) (T, error)) *BinaryOp[T] {
	n := &BinaryOp[T]{BaseNode: node.NewBaseNode(id, kind, name), op: op}
	n.value1 = node.AddInput[T](&n.BaseNode, "Value1")
	n.value2 = node.AddInput[T](&n.BaseNode, "Value2")
	n.result1 = node.AddOutput[T](&n.BaseNode, "Result1", 0)
	return n
}

// NewAdd creates a node computing Value1 + Value2.
func NewAdd[T Number](id node.NodeID, name string) *BinaryOp[T] {
	return newBinaryOp(id, kindFor[T]("Add"), name, func(a, b T) (T, error) { return a + b, nil })
}

// NewSubtract creates a node computing Value1 - Value2.
func NewSubtract[T Number](id node.NodeID, name string) *BinaryOp[T] {
	return newBinaryOp(id, kindFor[T]("Sub"), name, func(a, b T) (T, error) { return a - b, nil })
}

// NewMultiply creates a node computing Value1 * Value2.
func NewMultiply[T Number](id node.NodeID, name string) *BinaryOp[T] {
	return newBinaryOp(id, kindFor[T]("Mul"), name, func(a, b T) (T, error) { return a * b, nil })
}

// NewDivide creates a node computing Value1 / Value2.
// Integer division by zero is a compute error; float division follows IEEE 754.
func NewDivide[T Number](id node.NodeID, name string) *BinaryOp[T] {
	return newBinaryOp(id, kindFor[T]("Div"), name, func(a, b T) (T, error) {
		var zero T
		if b == zero && node.TypeOf[T]() != node.DataTypeFloat {
			return zero, ErrDivisionByZero
		}
		return a / b, nil
	})
}

// Value1 returns the first operand socket.
func (n *BinaryOp[T]) Value1() *node.Input[T] { return n.value1 }

// Value2 returns the second operand socket.
func (n *BinaryOp[T]) Value2() *node.Input[T] { return n.value2 }

// Result1 returns the result socket.
func (n *BinaryOp[T]) Result1() *node.Output[T] { return n.result1 }

// Reset zeroes the result.
func (n *BinaryOp[T]) Reset() { n.result1.SetValue(0) }

// Compute applies the operator.
func (n *BinaryOp[T]) Compute() error {
	a, err := n.value1.Value()
	if err != nil {
		return err
	}
	b, err := n.value2.Value()
	if err != nil {
		return err
	}
	r, err := n.op(a, b)
	if err != nil {
		return fmt.Errorf("%s: %w", n.Name(), err)
	}
	n.result1.SetValue(r)
	return nil
}

// kindFor prefixes a node name with its socket type, e.g. "IntAdd".
func kindFor[T node.Value](op string) string {
	return typePrefix[node.TypeOf[T]()] + op
}

var typePrefix = map[node.DataType]string{
	node.DataTypeBool:       "Bool",
	node.DataTypeInt:        "Int",
	node.DataTypeUInt:       "UInt",
	node.DataTypeFloat:      "Float",
	node.DataTypeString:     "String",
	node.DataTypeVector3:    "Vector3",
	node.DataTypeQuaternion: "Quaternion",
}
