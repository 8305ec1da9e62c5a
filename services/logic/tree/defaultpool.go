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
	"fmt"
	"math"

	"github.com/AleutianAI/LogicNodes/services/logic/node"
)

// PoolNodeID is the id reserved for the default-output pool of every tree.
const PoolNodeID node.NodeID = math.MaxUint64

// DefaultPool is a constant node with one output per data type. Dangling
// inputs are Get-Linked to the output matching their type.
type DefaultPool struct {
	node.BaseNode
	sockets map[node.DataType]node.OutputSocket
}

func newDefaultPool() *DefaultPool {
	p := &DefaultPool{
		BaseNode: node.NewBaseNode(PoolNodeID, "DefaultOutputPool", "default-pool"),
		sockets:  make(map[node.DataType]node.OutputSocket),
	}
	b := &p.BaseNode
	p.sockets[node.DataTypeBool] = node.AddOutput(b, "bool", false)
	p.sockets[node.DataTypeInt] = node.AddOutput(b, "int", int64(0))
	p.sockets[node.DataTypeUInt] = node.AddOutput(b, "uint", uint64(0))
	p.sockets[node.DataTypeFloat] = node.AddOutput(b, "float", 0.0)
	p.sockets[node.DataTypeString] = node.AddOutput(b, "string", "")
	p.sockets[node.DataTypeVector3] = node.AddOutput(b, "vector3", node.Vector3{})
	p.sockets[node.DataTypeQuaternion] = node.AddOutput(b, "quaternion", node.Quaternion{1, 0, 0, 0})
	return p
}

// Socket returns the pool output for a data type.
func (p *DefaultPool) Socket(dt node.DataType) (node.OutputSocket, bool) {
	s, ok := p.sockets[dt]
	return s, ok
}

// ConnectIfDangling links in to the pool output of its type when in has no
// connections. It reports whether a link was made.
func (p *DefaultPool) ConnectIfDangling(in node.InputSocket) (bool, error) {
	if in == nil {
		return false, node.ErrNilSocket
	}
	if in.ConnectionCount() > 0 {
		return false, nil
	}
	out, ok := p.sockets[in.Type()]
	if !ok {
		return false, fmt.Errorf("%w: no default for type %s (input %q of node %d)",
			ErrDanglingInput, in.Type(), in.Name(), in.Owner())
	}
	if err := node.SetGetLink(in, out); err != nil {
		return false, err
	}
	return true, nil
}

// Compute is a no-op. Pool values change only through SetDefaultValue.
func (p *DefaultPool) Compute() error { return nil }

// SetDefaultValue changes the value dangling inputs of type T observe.
// Inputs already linked to the pool see the new value immediately.
func SetDefaultValue[T node.Value](t *Tree, v T) error {
	s, ok := t.pool.Socket(node.TypeOf[T]())
	if !ok {
		return fmt.Errorf("%w: no default for type %s", ErrSocketNotFound, node.TypeOf[T]())
	}
	out, err := node.CastOutput[T](s)
	if err != nil {
		return err
	}
	out.SetValue(v)
	return nil
}
