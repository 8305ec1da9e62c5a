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
	"errors"

	"github.com/AleutianAI/LogicNodes/services/logic/node"
)

// ErrDivisionByZero is returned by integer Divide nodes.
var ErrDivisionByZero = errors.New("division by zero")

// Source holds a value set from outside the graph and publishes it on Value.
//
// Compute re-publishes the held value so Write-Link targets receive it.
// Reset restores the initial value.
type Source[T node.Value] struct {
	node.BaseNode
	initial T
	current T
	value   *node.Output[T]
}

// NewSource creates a Source with an initial value.
func NewSource[T node.Value](id node.NodeID, name string, initial T) *Source[T] {
	n := &Source[T]{
		BaseNode: node.NewBaseNode(id, kindFor[T]("Source"), name),
		initial:  initial,
		current:  initial,
	}
	n.value = node.AddOutput(&n.BaseNode, "Value", initial)
	return n
}

// Set changes the held value and publishes it immediately.
func (n *Source[T]) Set(v T) {
	n.current = v
	n.value.SetValue(v)
}

// Get returns the held value.
func (n *Source[T]) Get() T { return n.current }

// Out returns the output socket.
func (n *Source[T]) Out() *node.Output[T] { return n.value }

// Reset restores the initial value.
func (n *Source[T]) Reset() {
	n.current = n.initial
	n.value.SetValue(n.initial)
}

// Compute publishes the held value.
func (n *Source[T]) Compute() error {
	n.value.SetValue(n.current)
	return nil
}

// PassThrough forwards In to Out unchanged.
type PassThrough[T node.Value] struct {
	node.BaseNode
	in  *node.Input[T]
	out *node.Output[T]
}

// NewPassThrough creates a PassThrough node.
func NewPassThrough[T node.Value](id node.NodeID, name string) *PassThrough[T] {
	n := &PassThrough[T]{BaseNode: node.NewBaseNode(id, kindFor[T]("PassThrough"), name)}
	n.in = node.AddInput[T](&n.BaseNode, "In")
	var zero T
	n.out = node.AddOutput(&n.BaseNode, "Out", zero)
	return n
}

// In returns the input socket.
func (n *PassThrough[T]) In() *node.Input[T] { return n.in }

// Out returns the output socket.
func (n *PassThrough[T]) Out() *node.Output[T] { return n.out }

// Reset zeroes the output.
func (n *PassThrough[T]) Reset() {
	var zero T
	n.out.SetValue(zero)
}

// Compute copies In to Out.
func (n *PassThrough[T]) Compute() error {
	v, err := n.in.Value()
	if err != nil {
		return err
	}
	n.out.SetValue(v)
	return nil
}

// Sink records the last value seen on its single input.
// Sinks are the usual Output-classified nodes of a graph.
type Sink[T node.Value] struct {
	node.BaseNode
	in       *node.Input[T]
	last     T
	received bool
}

// NewSink creates a Sink node.
func NewSink[T node.Value](id node.NodeID, name string) *Sink[T] {
	n := &Sink[T]{BaseNode: node.NewBaseNode(id, kindFor[T]("Sink"), name)}
	n.in = node.AddInput[T](&n.BaseNode, "Value")
	return n
}

// In returns the input socket.
func (n *Sink[T]) In() *node.Input[T] { return n.in }

// Last returns the most recent value and whether one was received since Reset.
func (n *Sink[T]) Last() (T, bool) { return n.last, n.received }

// Reset forgets the last value.
func (n *Sink[T]) Reset() {
	var zero T
	n.last = zero
	n.received = false
}

// Compute captures the input value.
func (n *Sink[T]) Compute() error {
	v, err := n.in.Value()
	if err != nil {
		return err
	}
	n.last = v
	n.received = true
	return nil
}

// Counter increments Count by Step on every Compute. Reset sets Count to 0.
type Counter struct {
	node.BaseNode
	step  *node.Input[int64]
	count *node.Output[int64]
}

// NewCounter creates a Counter node.
func NewCounter(id node.NodeID, name string) *Counter {
	n := &Counter{BaseNode: node.NewBaseNode(id, "Counter", name)}
	n.step = node.AddInput[int64](&n.BaseNode, "Step")
	n.count = node.AddOutput[int64](&n.BaseNode, "Count", 0)
	return n
}

// Step returns the step socket.
func (n *Counter) Step() *node.Input[int64] { return n.step }

// Count returns the count socket.
func (n *Counter) Count() *node.Output[int64] { return n.count }

// Reset sets the count to zero.
func (n *Counter) Reset() { n.count.SetValue(0) }

// Compute adds the step (1 if unavailable) to the count.
func (n *Counter) Compute() error {
	n.count.SetValue(n.count.Value() + n.step.ValueOr(1))
	return nil
}
