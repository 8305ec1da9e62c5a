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
	"cmp"
	"slices"

	"github.com/AleutianAI/LogicNodes/services/logic/node"
)

// nodeData is the tree's bookkeeping for one owned node.
type nodeData struct {
	node     node.Node
	class    Class
	groups   map[GroupID]struct{}
	priority int

	// Traversal flags, only meaningful while the solver runs.
	visited bool
	onPath  bool
}

func (nd *nodeData) id() node.NodeID { return nd.node.ID() }

// prioritySet partitions nodes by priority. levels is sorted descending,
// so walking it front to back computes every parent before its children.
type prioritySet struct {
	buckets map[int][]*nodeData
	levels  []int
}

func newPrioritySet(nds []*nodeData) prioritySet {
	ps := prioritySet{buckets: make(map[int][]*nodeData)}
	for _, nd := range nds {
		if _, ok := ps.buckets[nd.priority]; !ok {
			ps.levels = append(ps.levels, nd.priority)
		}
		ps.buckets[nd.priority] = append(ps.buckets[nd.priority], nd)
	}
	slices.SortFunc(ps.levels, func(a, b int) int { return cmp.Compare(b, a) })
	// Ties are unordered; sorting by id only keeps diagnostics stable.
	for _, bucket := range ps.buckets {
		slices.SortFunc(bucket, func(a, b *nodeData) int { return cmp.Compare(a.id(), b.id()) })
	}
	return ps
}

func (ps prioritySet) len() int {
	n := 0
	for _, b := range ps.buckets {
		n += len(b)
	}
	return n
}

// each calls fn for every node in execution order and stops at the first error.
func (ps prioritySet) each(fn func(*nodeData) error) error {
	for _, level := range ps.levels {
		for _, nd := range ps.buckets[level] {
			if err := fn(nd); err != nil {
				return err
			}
		}
	}
	return nil
}

func (ps prioritySet) ids() []node.NodeID {
	ids := make([]node.NodeID, 0, ps.len())
	_ = ps.each(func(nd *nodeData) error {
		ids = append(ids, nd.id())
		return nil
	})
	return ids
}
