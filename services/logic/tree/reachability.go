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
	"log/slog"

	"github.com/AleutianAI/LogicNodes/services/logic/node"
)

// CanReach reports whether walking Get-Links backwards from node from
// arrives at node to. Write-Links are not followed. The tree must be
// acyclic; call it only on a tree that was set up.
func (t *Tree) CanReach(from, to node.NodeID) (bool, error) {
	if _, err := t.mustLookup(from); err != nil {
		return false, err
	}
	if _, err := t.mustLookup(to); err != nil {
		return false, err
	}
	return t.reachable(from, to), nil
}

// reachable is a breadth-first search over Get-Link sources.
func (t *Tree) reachable(from, to node.NodeID) bool {
	if from == to {
		return true
	}
	seen := map[node.NodeID]struct{}{from: {}}
	frontier := []node.NodeID{from}
	for len(frontier) > 0 {
		id := frontier[0]
		frontier = frontier[1:]

		nd, ok := t.lookup(id)
		if !ok {
			continue
		}
		for _, in := range nd.node.Inputs() {
			out := in.GetLink()
			if out == nil {
				continue
			}
			parent := out.Owner()
			if parent == to {
				return true
			}
			if _, dup := seen[parent]; dup {
				continue
			}
			seen[parent] = struct{}{}
			frontier = append(frontier, parent)
		}
	}
	return false
}

// warnUnreachableOutputs logs every output node that reaches no input node.
func (t *Tree) warnUnreachableOutputs() {
	inputs := t.NodesByClass(ClassInput)
	for _, out := range t.NodesByClass(ClassOutput) {
		found := false
		for _, in := range inputs {
			if t.reachable(out.ID(), in.ID()) {
				found = true
				break
			}
		}
		if !found {
			t.logger.Warn("output node cannot reach any input node",
				slog.Uint64("node_id", uint64(out.ID())),
				slog.String("node_name", out.Name()),
				slog.Int("input_nodes", len(inputs)),
			)
		}
	}
}
