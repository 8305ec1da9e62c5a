// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package node

import "fmt"

// Node is a single unit of computation in a logic graph.
//
// Description:
//
//	A node owns an ordered list of input and output sockets that is fixed
//	once the node is constructed. The execution tree calls Compute in
//	dependency order and Reset to return the node to its initial state.
//
// Thread Safety:
//
//	Implementations need not be safe for concurrent use.
type Node interface {
	// ID returns the node id, unique within one tree.
	ID() NodeID

	// Name returns a human readable name used in diagnostics.
	Name() string

	// Kind returns the node type name (e.g. "IntAdd").
	Kind() string

	// Inputs returns the input sockets in index order. Callers must not modify the slice.
	Inputs() []InputSocket

	// Outputs returns the output sockets in index order. Callers must not modify the slice.
	Outputs() []OutputSocket

	// Reset restores the node's initial state.
	Reset()

	// Compute reads the inputs and writes the outputs.
	//
	// Outputs:
	//   error - Non-nil if the node cannot produce its outputs.
	Compute() error
}

// BaseNode provides the identity and socket bookkeeping part of Node.
//
// Description:
//
//	Embed BaseNode in concrete nodes, declare sockets in the constructor
//	with AddInput/AddOutput, and implement Reset and Compute.
//
// Example:
//
//	type Negate struct {
//	    node.BaseNode
//	    in  *node.Input[float64]
//	    out *node.Output[float64]
//	}
//
//	func NewNegate(id node.NodeID) *Negate {
//	    n := &Negate{BaseNode: node.NewBaseNode(id, "Negate", "")}
//	    n.in = node.AddInput[float64](&n.BaseNode, "In")
//	    n.out = node.AddOutput[float64](&n.BaseNode, "Out", 0)
//	    return n
//	}
type BaseNode struct {
	id      NodeID
	kind    string
	name    string
	inputs  []InputSocket
	outputs []OutputSocket
}

// NewBaseNode creates a BaseNode. An empty name defaults to "<kind>#<id>".
func NewBaseNode(id NodeID, kind, name string) BaseNode {
	if name == "" {
		name = fmt.Sprintf("%s#%d", kind, id)
	}
	return BaseNode{id: id, kind: kind, name: name}
}

// ID returns the node id.
func (b *BaseNode) ID() NodeID { return b.id }

// Name returns the node name.
func (b *BaseNode) Name() string { return b.name }

// Kind returns the node type name.
func (b *BaseNode) Kind() string { return b.kind }

// Inputs returns the input sockets in index order.
func (b *BaseNode) Inputs() []InputSocket { return b.inputs }

// Outputs returns the output sockets in index order.
func (b *BaseNode) Outputs() []OutputSocket { return b.outputs }

// Input returns the input at index i.
func (b *BaseNode) Input(i SocketIndex) (InputSocket, bool) {
	if int(i) >= len(b.inputs) {
		return nil, false
	}
	return b.inputs[i], true
}

// Output returns the output at index i.
func (b *BaseNode) Output(i SocketIndex) (OutputSocket, bool) {
	if int(i) >= len(b.outputs) {
		return nil, false
	}
	return b.outputs[i], true
}

// Reset does nothing.
func (b *BaseNode) Reset() {}

// Compute returns an error if called directly.
// Concrete implementations must override this method.
func (b *BaseNode) Compute() error {
	return fmt.Errorf("%w: BaseNode.Compute must be overridden by %s", ErrNotImplemented, b.kind)
}

// AddInput declares the next input socket of b. Only call from constructors.
func AddInput[T Value](b *BaseNode, name string) *Input[T] {
	in := newInput[T](b.id, SocketIndex(len(b.inputs)), name)
	b.inputs = append(b.inputs, in)
	return in
}

// AddOutput declares the next output socket of b. Only call from constructors.
func AddOutput[T Value](b *BaseNode, name string, initial T) *Output[T] {
	out := newOutput(b.id, SocketIndex(len(b.outputs)), name, initial)
	b.outputs = append(b.outputs, out)
	return out
}

// InputAt returns n's input at index i.
func InputAt(n Node, i SocketIndex) (InputSocket, bool) {
	ins := n.Inputs()
	if int(i) >= len(ins) {
		return nil, false
	}
	return ins[i], true
}

// OutputAt returns n's output at index i.
func OutputAt(n Node, i SocketIndex) (OutputSocket, bool) {
	outs := n.Outputs()
	if int(i) >= len(outs) {
		return nil, false
	}
	return outs[i], true
}
