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

	"github.com/AleutianAI/LogicNodes/services/logic/node"
)

// frame is one entry of the solver's explicit DFS stack.
type frame struct {
	nd       *nodeData
	expanded bool
}

// solve assigns priorities with an iterative depth-first walk.
//
// Description:
//
//	Every scheduled node starts at priority 0. Expanding a node visits its
//	parents (owners of its Get-Link source and of its Write-Link sources).
//	A parent whose priority is not greater than the node's is bumped to
//	node+1, marked unvisited and pushed, so its own parents are revisited
//	at the new depth. Expanded frames on the stack form the current path;
//	a parent already on that path closes a cycle.
//
//	The walk uses an explicit stack so graph depth is bounded by memory,
//	not by the goroutine stack.
//
// Outputs:
//
//	error - *CycleError, or ErrInvariantViolation when a link points at a
//	        node the tree does not own.
func (t *Tree) solve() error {
	for _, nd := range t.nodes {
		nd.priority = 0
		nd.visited = false
		nd.onPath = false
	}
	defer t.clearTraversalFlags()

	var stack []frame
	for _, root := range sortedData(t.nodes) {
		if root.visited {
			continue
		}
		stack = append(stack[:0], frame{nd: root})

		for len(stack) > 0 {
			top := len(stack) - 1
			nd := stack[top].nd

			if stack[top].expanded {
				nd.onPath = false
				stack = stack[:top]
				continue
			}
			if nd.visited {
				// Superseded by a later push that already explored this node.
				stack = stack[:top]
				continue
			}

			stack[top].expanded = true
			nd.visited = true
			nd.onPath = true

			parents, err := t.parentsOf(nd)
			if err != nil {
				return err
			}
			for _, p := range parents {
				if p.onPath {
					return t.cycleError(stack, p)
				}
				if p.priority <= nd.priority {
					p.priority = nd.priority + 1
					p.visited = false
					stack = append(stack, frame{nd: p})
				}
			}
		}
	}
	return nil
}

// parentsOf returns the scheduled nodes feeding nd through either link kind.
// Constant parents are skipped.
func (t *Tree) parentsOf(nd *nodeData) ([]*nodeData, error) {
	var parents []*nodeData
	add := func(out node.OutputSocket) error {
		owner := out.Owner()
		if p, ok := t.nodes[owner]; ok {
			parents = append(parents, p)
			return nil
		}
		if _, ok := t.constants[owner]; ok {
			return nil
		}
		return fmt.Errorf("%w: node %q (id %d) is linked to unknown node %d",
			ErrInvariantViolation, nd.node.Name(), nd.id(), owner)
	}

	for _, in := range nd.node.Inputs() {
		if out := in.GetLink(); out != nil {
			if err := add(out); err != nil {
				return nil, err
			}
		}
		for _, out := range in.WriteParents() {
			if err := add(out); err != nil {
				return nil, err
			}
		}
	}
	return parents, nil
}

// cycleError builds the path from the repeated node through the expanded
// frames to the top of the stack and back to the repeated node.
func (t *Tree) cycleError(stack []frame, repeated *nodeData) *CycleError {
	start := 0
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i].expanded && stack[i].nd == repeated {
			start = i
			break
		}
	}

	ce := &CycleError{}
	for _, f := range stack[start:] {
		if !f.expanded {
			continue
		}
		ce.Path = append(ce.Path, f.nd.id())
		ce.Names = append(ce.Names, f.nd.node.Name())
	}
	ce.Path = append(ce.Path, repeated.id())
	ce.Names = append(ce.Names, repeated.node.Name())
	return ce
}

func (t *Tree) clearTraversalFlags() {
	for _, nd := range t.nodes {
		nd.visited = false
		nd.onPath = false
	}
}

// verifyPriorities checks that every scheduled parent has a strictly
// greater priority than its child.
func (t *Tree) verifyPriorities() error {
	for _, nd := range sortedData(t.nodes) {
		parents, err := t.parentsOf(nd)
		if err != nil {
			return err
		}
		for _, p := range parents {
			if p.priority <= nd.priority {
				return fmt.Errorf("%w: parent %q (priority %d) does not precede child %q (priority %d)",
					ErrInvariantViolation, p.node.Name(), p.priority, nd.node.Name(), nd.priority)
			}
		}
	}
	return nil
}
