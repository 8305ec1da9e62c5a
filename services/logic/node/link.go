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

import "slices"

// SetGetLink makes in pull from out.
//
// Description:
//
//	Type-checks the pair, removes any Get-Link already held by in (including
//	its back-reference on the old output), registers in as a getter child of
//	out and points in's visible value at out's stored value.
//
// Inputs:
//
//	in - The pulling input socket.
//	out - The output socket to pull from.
//
// Outputs:
//
//	error - ErrNilSocket, or a *SocketCastError if the data types differ.
func SetGetLink(in InputSocket, out OutputSocket) error {
	if in == nil || out == nil {
		return ErrNilSocket
	}
	if in.Type() != out.Type() {
		return &SocketCastError{Owner: out.Owner(), Socket: out.Name(), Want: in.Type(), Got: out.Type()}
	}

	conn := in.links()
	if conn.getFrom == out {
		in.bind(out)
		return nil
	}
	if conn.getFrom != nil {
		RemoveGetLink(in)
	}

	conn.getFrom = out
	oc := out.links()
	oc.getterChilds = append(oc.getterChilds, in)
	in.bind(out)
	return nil
}

// RemoveGetLink clears in's Get-Link and the back-reference on its output.
//
// If in's visible value belonged to the unlinked output, in has no data
// afterwards. Returns false if in had no Get-Link.
func RemoveGetLink(in InputSocket) bool {
	if in == nil {
		return false
	}
	conn := in.links()
	out := conn.getFrom
	if out == nil {
		return false
	}
	conn.getFrom = nil
	in.unbind(out)

	oc := out.links()
	oc.getterChilds = slices.DeleteFunc(oc.getterChilds, func(s InputSocket) bool { return s == in })
	return true
}

// AddWriteLink makes out push into in on every SetValue.
//
// Adding an existing Write-Link is a no-op. The input's visible value is
// not touched until the next SetValue on out.
func AddWriteLink(out OutputSocket, in InputSocket) error {
	if in == nil || out == nil {
		return ErrNilSocket
	}
	if in.Type() != out.Type() {
		return &SocketCastError{Owner: out.Owner(), Socket: out.Name(), Want: in.Type(), Got: out.Type()}
	}

	oc := out.links()
	if slices.Contains(oc.writeTo, in) {
		return nil
	}
	oc.writeTo = append(oc.writeTo, in)
	ic := in.links()
	ic.writingParents = append(ic.writingParents, out)
	return nil
}

// RemoveWriteLink removes the Write-Link out -> in from both sides.
//
// Returns false if no such link existed.
func RemoveWriteLink(out OutputSocket, in InputSocket) bool {
	if in == nil || out == nil {
		return false
	}
	oc := out.links()
	idx := slices.Index(oc.writeTo, in)
	if idx < 0 {
		return false
	}
	oc.writeTo = slices.Delete(oc.writeTo, idx, idx+1)

	ic := in.links()
	ic.writingParents = slices.DeleteFunc(ic.writingParents, func(s OutputSocket) bool { return s == out })
	in.unbind(out)
	return true
}

// Detach removes every link attached to any socket of n, cleaning the
// back-references held by peer sockets on other nodes.
//
// Returns the number of links removed.
func Detach(n Node) int {
	if n == nil {
		return 0
	}
	removed := 0
	for _, in := range n.Inputs() {
		if RemoveGetLink(in) {
			removed++
		}
		for _, parent := range in.WriteParents() {
			if RemoveWriteLink(parent, in) {
				removed++
			}
		}
	}
	for _, out := range n.Outputs() {
		for _, target := range out.WriteTargets() {
			if RemoveWriteLink(out, target) {
				removed++
			}
		}
		for _, child := range out.GetterChildren() {
			if RemoveGetLink(child) {
				removed++
			}
		}
	}
	return removed
}
