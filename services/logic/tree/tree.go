// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package tree owns logic nodes, solves their execution order and runs them.
//
// A Tree moves between two states. Any topology mutation (adding or
// removing nodes, links, classes or groups) makes it stale; Setup solves the
// order and makes it ready. Execute and Reset require a ready tree.
//
// Priorities encode distance from the sinks of the graph: a parent always
// has a strictly greater priority than each of its children, and execution
// walks from the highest priority down to 0.
//
// # Thread Safety
//
// A Tree is not safe for concurrent use. Callers serialize access, usually
// with one sync.RWMutex per tree.
package tree

import (
	"cmp"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/AleutianAI/LogicNodes/services/logic/node"
)

// Tree owns a set of nodes and their execution order.
type Tree struct {
	logger       *slog.Logger
	checkResults bool

	nodes     map[node.NodeID]*nodeData
	constants map[node.NodeID]*nodeData
	groups    map[GroupID]map[node.NodeID]*nodeData

	order       prioritySet
	groupOrders map[GroupID]prioritySet
	upToDate    bool

	pool *DefaultPool
}

// New creates an empty tree holding only its default-output pool.
//
// Outputs:
//
//	*Tree - A stale tree. Call Setup after adding nodes.
func New(opts ...Option) *Tree {
	t := &Tree{
		logger:    slog.Default(),
		nodes:     make(map[node.NodeID]*nodeData),
		constants: make(map[node.NodeID]*nodeData),
		groups:    make(map[GroupID]map[node.NodeID]*nodeData),
		pool:      newDefaultPool(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.constants[PoolNodeID] = &nodeData{
		node:   t.pool,
		class:  ClassConstant,
		groups: make(map[GroupID]struct{}),
	}
	return t
}

// Pool returns the default-output pool.
func (t *Tree) Pool() *DefaultPool { return t.pool }

// IsReady reports whether the execution order is up to date.
func (t *Tree) IsReady() bool { return t.upToDate }

// Len returns the number of nodes, the default pool excluded.
func (t *Tree) Len() int { return len(t.nodes) + len(t.constants) - 1 }

func (t *Tree) invalidate() {
	t.upToDate = false
}

func (t *Tree) lookup(id node.NodeID) (*nodeData, bool) {
	if nd, ok := t.nodes[id]; ok {
		return nd, true
	}
	nd, ok := t.constants[id]
	return nd, ok
}

func (t *Tree) mustLookup(id node.NodeID) (*nodeData, error) {
	nd, ok := t.lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrNodeNotFound, id)
	}
	return nd, nil
}

// AddNode transfers ownership of n to the tree.
//
// Description:
//
//	Registers n with the given class and group. A nil node or an id that is
//	already taken (the pool id included) is logged as a warning and leaves
//	the tree untouched. Adding a scheduled node makes the order stale.
//
// Inputs:
//
//	n - The node. The caller must not use it after a successful add
//	    except through the tree.
//	class - The node classification.
//	group - The initial group, usually DefaultGroup.
//
// Outputs:
//
//	node.Node - n on success, nil if it was rejected.
func (t *Tree) AddNode(n node.Node, class Class, group GroupID) node.Node {
	if n == nil {
		t.logger.Warn("ignoring nil node")
		return nil
	}
	if _, exists := t.lookup(n.ID()); exists {
		t.logger.Warn("node id already exists, ignoring add",
			slog.Uint64("node_id", uint64(n.ID())),
			slog.String("node_name", n.Name()),
		)
		return nil
	}

	nd := &nodeData{
		node:   n,
		class:  class,
		groups: map[GroupID]struct{}{group: {}},
	}
	_, known := t.groups[group]
	if class.Scheduled() {
		t.nodes[n.ID()] = nd
	} else {
		t.constants[n.ID()] = nd
	}
	t.joinGroup(nd, group)
	// A new group has no order until the next Setup.
	if class.Scheduled() || !known {
		t.invalidate()
	}
	return n
}

func (t *Tree) joinGroup(nd *nodeData, group GroupID) {
	members, ok := t.groups[group]
	if !ok {
		members = make(map[node.NodeID]*nodeData)
		t.groups[group] = members
	}
	members[nd.id()] = nd
	nd.groups[group] = struct{}{}
}

// RemoveNode detaches every link of the node on both sides, drops it from
// all groups and returns ownership to the caller.
func (t *Tree) RemoveNode(id node.NodeID) (node.Node, error) {
	if id == PoolNodeID {
		return nil, ErrPoolNode
	}
	nd, err := t.mustLookup(id)
	if err != nil {
		return nil, err
	}

	removed := node.Detach(nd.node)
	delete(t.nodes, id)
	delete(t.constants, id)
	for g := range nd.groups {
		members := t.groups[g]
		delete(members, id)
		if len(members) == 0 {
			delete(t.groups, g)
		}
	}
	t.invalidate()

	t.logger.Debug("node removed",
		slog.Uint64("node_id", uint64(id)),
		slog.Int("links_removed", removed),
	)
	return nd.node, nil
}

// SetNodeClass reclassifies a node. Moving to or from ClassConstant moves
// the node in or out of scheduling.
func (t *Tree) SetNodeClass(id node.NodeID, class Class) error {
	if id == PoolNodeID {
		return ErrPoolNode
	}
	nd, err := t.mustLookup(id)
	if err != nil {
		return err
	}
	if nd.class.Scheduled() != class.Scheduled() {
		if class.Scheduled() {
			delete(t.constants, id)
			t.nodes[id] = nd
		} else {
			delete(t.nodes, id)
			t.constants[id] = nd
		}
	}
	nd.class = class
	t.invalidate()
	return nil
}

// AddNodeToGroup adds a node to one more group.
func (t *Tree) AddNodeToGroup(id node.NodeID, group GroupID) error {
	if id == PoolNodeID {
		return ErrPoolNode
	}
	nd, err := t.mustLookup(id)
	if err != nil {
		return err
	}
	t.joinGroup(nd, group)
	t.invalidate()
	return nil
}

func (t *Tree) sockets(outID node.NodeID, outSock node.SocketIndex, inID node.NodeID, inSock node.SocketIndex) (node.OutputSocket, node.InputSocket, error) {
	outNode, err := t.mustLookup(outID)
	if err != nil {
		return nil, nil, err
	}
	inNode, err := t.mustLookup(inID)
	if err != nil {
		return nil, nil, err
	}
	out, ok := node.OutputAt(outNode.node, outSock)
	if !ok {
		return nil, nil, fmt.Errorf("%w: output %d of node %d", ErrSocketNotFound, outSock, outID)
	}
	in, ok := node.InputAt(inNode.node, inSock)
	if !ok {
		return nil, nil, fmt.Errorf("%w: input %d of node %d", ErrSocketNotFound, inSock, inID)
	}
	return out, in, nil
}

// MakeGetLink makes input inSock of node inID pull from output outSock of
// node outID. An existing Get-Link on the input is replaced.
func (t *Tree) MakeGetLink(outID node.NodeID, outSock node.SocketIndex, inID node.NodeID, inSock node.SocketIndex) error {
	out, in, err := t.sockets(outID, outSock, inID, inSock)
	if err != nil {
		return err
	}
	if err := node.SetGetLink(in, out); err != nil {
		return err
	}
	t.invalidate()
	return nil
}

// MakeWriteLink makes output outSock of node outID push into input inSock
// of node inID.
func (t *Tree) MakeWriteLink(outID node.NodeID, outSock node.SocketIndex, inID node.NodeID, inSock node.SocketIndex) error {
	out, in, err := t.sockets(outID, outSock, inID, inSock)
	if err != nil {
		return err
	}
	if err := node.AddWriteLink(out, in); err != nil {
		return err
	}
	t.invalidate()
	return nil
}

// RemoveGetLink removes the Get-Link of input inSock on node inID.
// It reports whether a link existed.
func (t *Tree) RemoveGetLink(inID node.NodeID, inSock node.SocketIndex) (bool, error) {
	nd, err := t.mustLookup(inID)
	if err != nil {
		return false, err
	}
	in, ok := node.InputAt(nd.node, inSock)
	if !ok {
		return false, fmt.Errorf("%w: input %d of node %d", ErrSocketNotFound, inSock, inID)
	}
	removed := node.RemoveGetLink(in)
	if removed {
		t.invalidate()
	}
	return removed, nil
}

// RemoveWriteLink removes one Write-Link. It reports whether the link existed.
func (t *Tree) RemoveWriteLink(outID node.NodeID, outSock node.SocketIndex, inID node.NodeID, inSock node.SocketIndex) (bool, error) {
	out, in, err := t.sockets(outID, outSock, inID, inSock)
	if err != nil {
		return false, err
	}
	removed := node.RemoveWriteLink(out, in)
	if removed {
		t.invalidate()
	}
	return removed, nil
}

// GetNode returns a node for modification. Because the caller may relink
// its sockets, the order becomes stale. Use ViewNode for read-only access.
func (t *Tree) GetNode(id node.NodeID) node.Node {
	nd, ok := t.lookup(id)
	if !ok {
		return nil
	}
	t.invalidate()
	return nd.node
}

// ViewNode returns a node without invalidating the order.
// The caller must not change its links.
func (t *Tree) ViewNode(id node.NodeID) node.Node {
	nd, ok := t.lookup(id)
	if !ok {
		return nil
	}
	return nd.node
}

// NodesByClass returns all nodes of a class sorted by id.
// The default pool is never included.
func (t *Tree) NodesByClass(class Class) []node.Node {
	var src map[node.NodeID]*nodeData
	if class.Scheduled() {
		src = t.nodes
	} else {
		src = t.constants
	}
	var out []node.Node
	for _, nd := range sortedData(src) {
		if nd.class == class && nd.id() != PoolNodeID {
			out = append(out, nd.node)
		}
	}
	return out
}

// NodesInGroup returns the members of a group sorted by id.
func (t *Tree) NodesInGroup(group GroupID) []node.Node {
	members := sortedData(t.groups[group])
	out := make([]node.Node, 0, len(members))
	for _, nd := range members {
		out = append(out, nd.node)
	}
	return out
}

// Groups returns every group id in use, ascending.
func (t *Tree) Groups() []GroupID {
	return slices.Sorted(maps.Keys(t.groups))
}

// Priority returns the solved priority of a scheduled node.
// The result is only meaningful while the tree is ready.
func (t *Tree) Priority(id node.NodeID) (int, bool) {
	nd, ok := t.nodes[id]
	if !ok {
		return 0, false
	}
	return nd.priority, true
}

// ExecutionOrder returns scheduled node ids in the order Execute visits them.
func (t *Tree) ExecutionOrder() ([]node.NodeID, error) {
	if !t.upToDate {
		return nil, ErrInvalidState
	}
	return t.order.ids(), nil
}

// GroupExecutionOrder returns the execution order restricted to one group.
func (t *Tree) GroupExecutionOrder(group GroupID) ([]node.NodeID, error) {
	ps, err := t.groupOrder(group)
	if err != nil {
		return nil, err
	}
	return ps.ids(), nil
}

func (t *Tree) groupOrder(group GroupID) (prioritySet, error) {
	if !t.upToDate {
		return prioritySet{}, ErrInvalidState
	}
	ps, ok := t.groupOrders[group]
	if !ok {
		return prioritySet{}, fmt.Errorf("%w: %d", ErrGroupNotFound, group)
	}
	return ps, nil
}

// Execute calls Compute on every scheduled node in priority order.
//
// Description:
//
//	Walks the global order from the highest priority down to 0. Nodes in
//	the same priority bucket have no ordering guarantee between them. The
//	walk stops at the first failing node.
//
// Outputs:
//
//	error - ErrInvalidState if the order is stale, or a *NodeError wrapping
//	        the first Compute failure.
func (t *Tree) Execute() error {
	if !t.upToDate {
		return ErrInvalidState
	}
	return t.order.each(compute)
}

// ExecuteGroup is Execute restricted to the members of one group.
func (t *Tree) ExecuteGroup(group GroupID) error {
	ps, err := t.groupOrder(group)
	if err != nil {
		return err
	}
	return ps.each(compute)
}

// Reset calls Reset on every scheduled node in priority order.
func (t *Tree) Reset() error {
	if !t.upToDate {
		return ErrInvalidState
	}
	return t.order.each(reset)
}

// ResetGroup is Reset restricted to the members of one group.
func (t *Tree) ResetGroup(group GroupID) error {
	ps, err := t.groupOrder(group)
	if err != nil {
		return err
	}
	return ps.each(reset)
}

func compute(nd *nodeData) error {
	if err := nd.node.Compute(); err != nil {
		return &NodeError{ID: nd.id(), Name: nd.node.Name(), Err: err}
	}
	return nil
}

func reset(nd *nodeData) error {
	nd.node.Reset()
	return nil
}

// Setup solves the execution order and makes the tree ready.
//
// Description:
//
//	Requires at least one output node. Solves priorities, then resolves
//	every unconnected input of a scheduled node: with connectDangling it
//	is Get-Linked to the default pool, otherwise Setup fails. When result
//	checking is on, every link is verified against the priorities. Finally
//	each output node that cannot reach any input node through Get-Links
//	is logged as a warning.
//
//	On failure the tree stays stale and no partial order is kept.
//
// Inputs:
//
//	connectDangling - Link unconnected inputs to the default pool.
//
// Outputs:
//
//	error - ErrNoOutputNodes, *CycleError, ErrDanglingInput,
//	        ErrInvariantViolation, or nil.
func (t *Tree) Setup(connectDangling bool) error {
	t.invalidate()
	t.order = prioritySet{}
	t.groupOrders = nil

	if !t.hasClass(ClassOutput) {
		return ErrNoOutputNodes
	}

	if err := t.solve(); err != nil {
		return err
	}

	if err := t.resolveDangling(connectDangling); err != nil {
		return err
	}

	if t.checkResults || forceCheckResults {
		if err := t.verifyPriorities(); err != nil {
			return err
		}
	}

	t.warnUnreachableOutputs()

	scheduled := sortedData(t.nodes)
	t.order = newPrioritySet(scheduled)
	t.groupOrders = make(map[GroupID]prioritySet, len(t.groups))
	for g, members := range t.groups {
		var inGroup []*nodeData
		for _, nd := range members {
			if nd.class.Scheduled() {
				inGroup = append(inGroup, nd)
			}
		}
		t.groupOrders[g] = newPrioritySet(inGroup)
	}
	t.upToDate = true

	t.logger.Debug("execution order solved",
		slog.Int("nodes", len(scheduled)),
		slog.Int("levels", len(t.order.levels)),
		slog.Int("groups", len(t.groupOrders)),
	)
	return nil
}

func (t *Tree) hasClass(class Class) bool {
	for _, nd := range t.nodes {
		if nd.class == class {
			return true
		}
	}
	return false
}

func (t *Tree) resolveDangling(connectDangling bool) error {
	for _, nd := range sortedData(t.nodes) {
		for _, in := range nd.node.Inputs() {
			if in.ConnectionCount() > 0 {
				continue
			}
			if !connectDangling {
				return &NodeError{
					ID:   nd.id(),
					Name: nd.node.Name(),
					Err:  fmt.Errorf("%w: input %q", ErrDanglingInput, in.Name()),
				}
			}
			if _, err := t.pool.ConnectIfDangling(in); err != nil {
				return &NodeError{ID: nd.id(), Name: nd.node.Name(), Err: err}
			}
		}
	}
	return nil
}

func sortedData(m map[node.NodeID]*nodeData) []*nodeData {
	out := slices.Collect(maps.Values(m))
	slices.SortFunc(out, func(a, b *nodeData) int { return cmp.Compare(a.id(), b.id()) })
	return out
}
