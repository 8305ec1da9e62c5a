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
	"errors"
	"fmt"
	"strings"

	"github.com/AleutianAI/LogicNodes/services/logic/node"
)

// Sentinel errors for the tree package.
var (
	// ErrNodeNotFound is returned when a referenced node id is not in the tree.
	ErrNodeNotFound = errors.New("node not found")

	// ErrSocketNotFound is returned when a socket index is out of range.
	ErrSocketNotFound = errors.New("socket not found")

	// ErrNoOutputNodes is returned by Setup when no node is classified as output.
	ErrNoOutputNodes = errors.New("tree has no output nodes")

	// ErrDanglingInput is returned when an input has no connection and cannot be resolved.
	ErrDanglingInput = errors.New("dangling input socket")

	// ErrInvalidState is returned when executing or resetting a tree whose order is stale.
	ErrInvalidState = errors.New("execution order is stale: call Setup first")

	// ErrCycleDetected is returned when the graph contains a cycle.
	ErrCycleDetected = errors.New("cycle detected in execution graph")

	// ErrInvariantViolation indicates a bug in tree construction, not bad input.
	ErrInvariantViolation = errors.New("execution tree invariant violated")

	// ErrGroupNotFound is returned when a group id has no nodes.
	ErrGroupNotFound = errors.New("group not found")

	// ErrPoolNode is returned when an operation would remove or reclassify the default pool.
	ErrPoolNode = errors.New("operation not permitted on the default-output pool")

	// ErrInvalidClass is returned for an unknown class name.
	ErrInvalidClass = errors.New("invalid node class")
)

// NodeError wraps an error with the node that caused it.
type NodeError struct {
	ID   node.NodeID
	Name string
	Err  error
}

// Error returns the error message.
func (e *NodeError) Error() string {
	return fmt.Sprintf("node %q (id %d): %v", e.Name, e.ID, e.Err)
}

// Unwrap returns the underlying error.
func (e *NodeError) Unwrap() error {
	return e.Err
}

// CycleError reports a dependency cycle.
//
// Path starts at the node where the cycle was entered, follows
// dependencies (child to parent) and ends with that node again.
type CycleError struct {
	Path  []node.NodeID
	Names []string
}

// Error returns the cycle description.
func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle detected: %s", strings.Join(e.Names, " -> "))
}

// Is reports ErrCycleDetected so callers can match with errors.Is.
func (e *CycleError) Is(target error) bool {
	return target == ErrCycleDetected
}
