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
	"strings"
)

// Class is the role of a node inside an execution tree.
type Class uint8

const (
	// ClassNormal nodes are scheduled and have no special role.
	ClassNormal Class = iota

	// ClassInput nodes are the entry points of the graph.
	ClassInput

	// ClassOutput nodes are the results of the graph. Setup requires at least one.
	ClassOutput

	// ClassConstant nodes are never scheduled. They only provide values.
	ClassConstant
)

// String returns the lower-case class name.
func (c Class) String() string {
	switch c {
	case ClassNormal:
		return "normal"
	case ClassInput:
		return "input"
	case ClassOutput:
		return "output"
	case ClassConstant:
		return "constant"
	default:
		return fmt.Sprintf("class(%d)", uint8(c))
	}
}

// Scheduled reports whether nodes of this class take part in execution.
func (c Class) Scheduled() bool { return c != ClassConstant }

// ParseClass parses a class name case-insensitively. The empty string is ClassNormal.
func ParseClass(s string) (Class, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "normal":
		return ClassNormal, nil
	case "input":
		return ClassInput, nil
	case "output":
		return ClassOutput, nil
	case "constant":
		return ClassConstant, nil
	default:
		return ClassNormal, fmt.Errorf("%w: %q", ErrInvalidClass, s)
	}
}

// GroupID tags a subset of nodes that can be executed on its own.
type GroupID uint64

// DefaultGroup is the group every node added without an explicit group joins.
const DefaultGroup GroupID = 0
