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

	"github.com/AleutianAI/LogicNodes/services/logic/node"
)

// VectorAdd computes Result1 = Value1 + Value2 component-wise.
type VectorAdd struct {
	node.BaseNode
	value1  *node.Input[node.Vector3]
	value2  *node.Input[node.Vector3]
	result1 *node.Output[node.Vector3]
}

// NewVectorAdd creates a VectorAdd node.
func NewVectorAdd(id node.NodeID, name string) *VectorAdd {
	n := &VectorAdd{BaseNode: node.NewBaseNode(id, "Vector3Add", name)}
	n.value1 = node.AddInput[node.Vector3](&n.BaseNode, "Value1")
	n.value2 = node.AddInput[node.Vector3](&n.BaseNode, "Value2")
	n.result1 = node.AddOutput(&n.BaseNode, "Result1", node.Vector3{})
	return n
}

// Reset zeroes the result.
func (n *VectorAdd) Reset() { n.result1.SetValue(node.Vector3{}) }

// Compute adds the vectors.
func (n *VectorAdd) Compute() error {
	a, err := n.value1.Value()
	if err != nil {
		return err
	}
	b, err := n.value2.Value()
	if err != nil {
		return err
	}
	n.result1.SetValue(node.Vector3{a[0] + b[0], a[1] + b[1], a[2] + b[2]})
	return nil
}

// VectorScale computes Result1 = Factor * Vector.
type VectorScale struct {
	node.BaseNode
	vector  *node.Input[node.Vector3]
	factor  *node.Input[float64]
	result1 *node.Output[node.Vector3]
}

// NewVectorScale creates a VectorScale node.
func NewVectorScale(id node.NodeID, name string) *VectorScale {
	n := &VectorScale{BaseNode: node.NewBaseNode(id, "Vector3Scale", name)}
	n.vector = node.AddInput[node.Vector3](&n.BaseNode, "Vector")
	n.factor = node.AddInput[float64](&n.BaseNode, "Factor")
	n.result1 = node.AddOutput(&n.BaseNode, "Result1", node.Vector3{})
	return n
}

// Reset zeroes the result.
func (n *VectorScale) Reset() { n.result1.SetValue(node.Vector3{}) }

// Compute scales the vector.
func (n *VectorScale) Compute() error {
	v, err := n.vector.Value()
	if err != nil {
		return err
	}
	f, err := n.factor.Value()
	if err != nil {
		return err
	}
	n.result1.SetValue(node.Vector3{v[0] * f, v[1] * f, v[2] * f})
	return nil
}

// VectorLength computes the Euclidean norm of Vector.
type VectorLength struct {
	node.BaseNode
	vector *node.Input[node.Vector3]
	length *node.Output[float64]
}

// NewVectorLength creates a VectorLength node.
func NewVectorLength(id node.NodeID, name string) *VectorLength {
	n := &VectorLength{BaseNode: node.NewBaseNode(id, "Vector3Length", name)}
	n.vector = node.AddInput[node.Vector3](&n.BaseNode, "Vector")
	n.length = node.AddOutput[float64](&n.BaseNode, "Length", 0)
	return n
}

// Reset zeroes the length.
func (n *VectorLength) Reset() { n.length.SetValue(0) }

// Compute writes |Vector|.
func (n *VectorLength) Compute() error {
	v, err := n.vector.Value()
	if err != nil {
		return err
	}
	n.length.SetValue(math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2]))
	return nil
}

// Rotate applies the unit quaternion Rotation to Vector.
type Rotate struct {
	node.BaseNode
	rotation *node.Input[node.Quaternion]
	vector   *node.Input[node.Vector3]
	result1  *node.Output[node.Vector3]
}

// NewRotate creates a Rotate node.
func NewRotate(id node.NodeID, name string) *Rotate {
	n := &Rotate{BaseNode: node.NewBaseNode(id, "QuaternionRotate", name)}
	n.rotation = node.AddInput[node.Quaternion](&n.BaseNode, "Rotation")
	n.vector = node.AddInput[node.Vector3](&n.BaseNode, "Vector")
	n.result1 = node.AddOutput(&n.BaseNode, "Result1", node.Vector3{})
	return n
}

// Reset zeroes the result.
func (n *Rotate) Reset() { n.result1.SetValue(node.Vector3{}) }

// Compute computes v' = v + 2w(u x v) + 2u x (u x v) with q = (w, u).
func (n *Rotate) Compute() error {
	q, err := n.rotation.Value()
	if err != nil {
		return err
	}
	v, err := n.vector.Value()
	if err != nil {
		return err
	}
	w := q[0]
	u := node.Vector3{q[1], q[2], q[3]}
	t := cross(u, v)
	t = node.Vector3{2 * t[0], 2 * t[1], 2 * t[2]}
	c := cross(u, t)
	n.result1.SetValue(node.Vector3{
		v[0] + w*t[0] + c[0],
		v[1] + w*t[1] + c[1],
		v[2] + w*t[2] + c[2],
	})
	return nil
}

func cross(a, b node.Vector3) node.Vector3 {
	return node.Vector3{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}
