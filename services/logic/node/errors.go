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
	"errors"
	"fmt"
)

// Sentinel errors for the node package.
var (
	// ErrBadSocketCast is returned when a socket is used as a different data type
	// than the one it was declared with, including linking mismatched sockets.
	ErrBadSocketCast = errors.New("bad socket cast")

	// ErrNilSocket is returned when a nil socket is passed to a link operation.
	ErrNilSocket = errors.New("socket must not be nil")

	// ErrNoData is returned when reading an input that has no visible value.
	ErrNoData = errors.New("input socket has no data")

	// ErrInvalidDataType is returned for an unknown data type name.
	ErrInvalidDataType = errors.New("invalid data type")

	// ErrNotImplemented is returned by BaseNode.Compute.
	ErrNotImplemented = errors.New("not implemented")
)

// SocketCastError describes a type-checked cast or link that failed.
type SocketCastError struct {
	Owner  NodeID
	Socket string
	Want   DataType
	Got    DataType
}

// Error returns the cast failure description.
func (e *SocketCastError) Error() string {
	return fmt.Sprintf("%v: socket %q of node %d is %s, not %s",
		ErrBadSocketCast, e.Socket, e.Owner, e.Got, e.Want)
}

// Unwrap returns ErrBadSocketCast.
func (e *SocketCastError) Unwrap() error {
	return ErrBadSocketCast
}
