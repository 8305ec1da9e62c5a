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

import (
	"fmt"
	"slices"
)

// Socket is the part of the socket contract shared by inputs and outputs.
type Socket interface {
	// Name returns the declared socket name (e.g. "Value1").
	Name() string

	// Type returns the data type tag.
	Type() DataType

	// Index returns the position in the owning node's socket list.
	Index() SocketIndex

	// Owner returns the id of the owning node.
	Owner() NodeID
}

// InputSocket is the type-erased view of an Input.
//
// Implementations are sealed to this package; create inputs with AddInput.
type InputSocket interface {
	Socket

	// GetLink returns the output this input pulls from, or nil.
	GetLink() OutputSocket

	// WriteParents returns the outputs that push into this input.
	WriteParents() []OutputSocket

	// ConnectionCount is (1 if Get-Link else 0) + number of Write-Links.
	ConnectionCount() int

	// HasData reports whether a value is currently visible.
	HasData() bool

	// ValueAny returns the visible value boxed, and false if there is none.
	ValueAny() (any, bool)

	links() *inputLinks
	bind(out OutputSocket)
	unbind(out OutputSocket)
}

// OutputSocket is the type-erased view of an Output.
//
// Implementations are sealed to this package; create outputs with AddOutput.
type OutputSocket interface {
	Socket

	// WriteTargets returns the inputs receiving a push on every SetValue.
	WriteTargets() []InputSocket

	// GetterChildren returns the inputs holding a Get-Link to this output.
	GetterChildren() []InputSocket

	// ConnectionCount is the number of write targets plus getter children.
	ConnectionCount() int

	// ValueAny returns the stored value boxed.
	ValueAny() any

	// SetValueAny stores v, failing with ErrBadSocketCast if v has the wrong type.
	SetValueAny(v any) error

	links() *outputLinks
}

type header struct {
	name  string
	typ   DataType
	index SocketIndex
	owner NodeID
}

func (h *header) Name() string       { return h.name }
func (h *header) Type() DataType     { return h.typ }
func (h *header) Index() SocketIndex { return h.index }
func (h *header) Owner() NodeID      { return h.owner }

// inputLinks holds the connection state of an input socket.
type inputLinks struct {
	getFrom        OutputSocket
	writingParents []OutputSocket
}

// outputLinks holds the connection state of an output socket.
// writeTo keeps insertion order; pushes happen in that order.
type outputLinks struct {
	writeTo      []InputSocket
	getterChilds []InputSocket
}

// Input is a typed input socket.
type Input[T Value] struct {
	header
	conn inputLinks
	data *T
}

func newInput[T Value](owner NodeID, index SocketIndex, name string) *Input[T] {
	return &Input[T]{
		header: header{name: name, typ: TypeOf[T](), index: index, owner: owner},
	}
}

// Value returns the currently visible value.
//
// Outputs:
//
//	T - The value, or the zero value if none is visible.
//	error - ErrNoData if the input has no visible value.
func (in *Input[T]) Value() (T, error) {
	if in.data == nil {
		var zero T
		return zero, fmt.Errorf("%w: %q on node %d", ErrNoData, in.name, in.owner)
	}
	return *in.data, nil
}

// ValueOr returns the visible value or def if none is visible.
func (in *Input[T]) ValueOr(def T) T {
	if in.data == nil {
		return def
	}
	return *in.data
}

// GetLink returns the output this input pulls from, or nil.
func (in *Input[T]) GetLink() OutputSocket { return in.conn.getFrom }

// WriteParents returns a copy of the outputs pushing into this input.
func (in *Input[T]) WriteParents() []OutputSocket { return slices.Clone(in.conn.writingParents) }

// ConnectionCount returns the number of links attached to this input.
func (in *Input[T]) ConnectionCount() int {
	n := len(in.conn.writingParents)
	if in.conn.getFrom != nil {
		n++
	}
	return n
}

// HasData reports whether a value is visible.
func (in *Input[T]) HasData() bool { return in.data != nil }

// ValueAny returns the visible value boxed.
func (in *Input[T]) ValueAny() (any, bool) {
	if in.data == nil {
		return nil, false
	}
	return *in.data, true
}

func (in *Input[T]) links() *inputLinks { return &in.conn }

// bind points the visible value at out's storage. Shallow: no copy is made.
func (in *Input[T]) bind(out OutputSocket) {
	if o, ok := out.(*Output[T]); ok {
		in.data = &o.value
	}
}

// unbind clears the visible value if it currently belongs to out.
func (in *Input[T]) unbind(out OutputSocket) {
	if o, ok := out.(*Output[T]); ok && in.data == &o.value {
		in.data = nil
	}
}

// Output is a typed output socket owning one value.
type Output[T Value] struct {
	header
	conn  outputLinks
	value T
}

func newOutput[T Value](owner NodeID, index SocketIndex, name string, initial T) *Output[T] {
	return &Output[T]{
		header: header{name: name, typ: TypeOf[T](), index: index, owner: owner},
		value:  initial,
	}
}

// Value returns the stored value.
func (o *Output[T]) Value() T { return o.value }

// SetValue stores v and pushes it to every Write-Link target in link order.
func (o *Output[T]) SetValue(v T) {
	o.value = v
	for _, in := range o.conn.writeTo {
		in.bind(o)
	}
}

// WriteTargets returns a copy of the Write-Link targets.
func (o *Output[T]) WriteTargets() []InputSocket { return slices.Clone(o.conn.writeTo) }

// GetterChildren returns a copy of the inputs holding a Get-Link here.
func (o *Output[T]) GetterChildren() []InputSocket { return slices.Clone(o.conn.getterChilds) }

// ConnectionCount returns the number of links attached to this output.
func (o *Output[T]) ConnectionCount() int {
	return len(o.conn.writeTo) + len(o.conn.getterChilds)
}

// ValueAny returns the stored value boxed.
func (o *Output[T]) ValueAny() any { return o.value }

// SetValueAny stores v if it is a T.
func (o *Output[T]) SetValueAny(v any) error {
	tv, ok := v.(T)
	if !ok {
		return &SocketCastError{Owner: o.owner, Socket: o.name, Want: o.typ, Got: typeOfAny(v)}
	}
	o.SetValue(tv)
	return nil
}

func (o *Output[T]) links() *outputLinks { return &o.conn }

func typeOfAny(v any) DataType {
	switch v.(type) {
	case bool:
		return DataTypeBool
	case int64:
		return DataTypeInt
	case uint64:
		return DataTypeUInt
	case float64:
		return DataTypeFloat
	case string:
		return DataTypeString
	case Vector3:
		return DataTypeVector3
	case Quaternion:
		return DataTypeQuaternion
	default:
		return DataTypeInvalid
	}
}

// CastInput converts a type-erased input to its typed form.
//
// Outputs:
//
//	*Input[T] - The typed socket.
//	error - A *SocketCastError (ErrBadSocketCast) if the tags differ.
func CastInput[T Value](s InputSocket) (*Input[T], error) {
	if s == nil {
		return nil, ErrNilSocket
	}
	if want := TypeOf[T](); s.Type() != want {
		return nil, &SocketCastError{Owner: s.Owner(), Socket: s.Name(), Want: want, Got: s.Type()}
	}
	in, ok := s.(*Input[T])
	if !ok {
		return nil, &SocketCastError{Owner: s.Owner(), Socket: s.Name(), Want: TypeOf[T](), Got: s.Type()}
	}
	return in, nil
}

// CastOutput converts a type-erased output to its typed form.
func CastOutput[T Value](s OutputSocket) (*Output[T], error) {
	if s == nil {
		return nil, ErrNilSocket
	}
	if want := TypeOf[T](); s.Type() != want {
		return nil, &SocketCastError{Owner: s.Owner(), Socket: s.Name(), Want: want, Got: s.Type()}
	}
	out, ok := s.(*Output[T])
	if !ok {
		return nil, &SocketCastError{Owner: s.Owner(), Socket: s.Name(), Want: TypeOf[T](), Got: s.Type()}
	}
	return out, nil
}
