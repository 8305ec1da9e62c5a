// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package node provides the building blocks of a logic-node graph: typed
// sockets, the two link kinds that connect them, and the Node contract that
// node authors implement.
//
// # Sockets
//
// A node owns an ordered, fixed list of input sockets and output sockets.
// Each socket carries a DataType tag, its index within the owning list and
// the id of its owning node. An Output stores one value of its type; an
// Input exposes a reference to whichever output value is currently visible
// to it.
//
// # Links
//
//   - Get-Link (pull): an input references an output's stored value and
//     re-reads it on demand. An input has at most one Get-Link.
//   - Write-Link (push): every SetValue on the output re-points all linked
//     inputs at the new value. An input may have any number of Write-Links.
//
// Both kinds keep back-references on the peer socket so a link can always
// be removed from either side. Both kinds are dependencies for ordering.
//
// # Thread Safety
//
// Nothing in this package is safe for concurrent use. Graph mutation and
// execution must be serialized by the caller.
//
// # Example
//
//	type Add struct {
//	    node.BaseNode
//	    a, b *node.Input[int64]
//	    sum  *node.Output[int64]
//	}
//
//	func NewAdd(id node.NodeID) *Add {
//	    n := &Add{BaseNode: node.NewBaseNode(id, "IntAdd", "add")}
//	    n.a = node.AddInput[int64](&n.BaseNode, "Value1")
//	    n.b = node.AddInput[int64](&n.BaseNode, "Value2")
//	    n.sum = node.AddOutput[int64](&n.BaseNode, "Result1", 0)
//	    return n
//	}
package node
