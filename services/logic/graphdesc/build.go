// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graphdesc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"

	"github.com/AleutianAI/LogicNodes/services/logic/node"
	"github.com/AleutianAI/LogicNodes/services/logic/tree"
)

// descValidate is the validator instance for descriptions.
var descValidate *validator.Validate

func init() {
	descValidate = validator.New()
	_ = descValidate.RegisterValidation("datatype", validateDataType)
}

func validateDataType(fl validator.FieldLevel) bool {
	_, err := node.ParseDataType(fl.Field().String())
	return err == nil
}

// Validate checks a description without building it.
//
// Description:
//
//	Runs struct-tag validation, then semantic checks: node ids are unique
//	and not reserved, node types exist, link endpoints reference declared
//	nodes, and default values match their data type. Socket names are
//	checked by Build because they depend on the node instances.
//
// Outputs:
//
//	error - nil, or ErrInvalidDescription wrapping a *multierror.Error
//	        with one entry per problem.
func Validate(d *Description) error {
	if d == nil {
		return fmt.Errorf("%w: nil description", ErrInvalidDescription)
	}
	var result *multierror.Error

	if err := descValidate.Struct(d); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				result = multierror.Append(result,
					fmt.Errorf("%s: failed %q validation", fe.Namespace(), fe.Tag()))
			}
		} else {
			result = multierror.Append(result, err)
		}
	}

	seen := make(map[uint64]struct{}, len(d.Nodes))
	for i, ns := range d.Nodes {
		if node.NodeID(ns.ID) == tree.PoolNodeID {
			result = multierror.Append(result, fmt.Errorf("nodes[%d]: id %d is reserved", i, ns.ID))
		}
		if _, dup := seen[ns.ID]; dup {
			result = multierror.Append(result, fmt.Errorf("nodes[%d]: duplicate id %d", i, ns.ID))
		}
		seen[ns.ID] = struct{}{}
		if ns.Type != "" && !HasType(ns.Type) {
			result = multierror.Append(result, fmt.Errorf("nodes[%d]: %w %q", i, ErrUnknownType, ns.Type))
		}
	}

	for i, ls := range d.Links {
		for _, ep := range []Endpoint{ls.From, ls.To} {
			if _, ok := seen[ep.Node]; !ok {
				result = multierror.Append(result, fmt.Errorf("links[%d]: endpoint %s references unknown node", i, ep))
			}
		}
	}

	for key, raw := range d.Defaults {
		dt, err := node.ParseDataType(key)
		if err != nil {
			continue // reported by the datatype tag
		}
		if _, err := Coerce(dt, raw); err != nil {
			result = multierror.Append(result, fmt.Errorf("defaults[%s]: %w", key, err))
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDescription, err)
	}
	return nil
}

// Build validates d and instantiates it as a tree.
//
// Description:
//
//	Creates every node through the factory table, adds it with its class
//	and groups, applies defaults and makes the links. The returned tree
//	is stale: the caller decides when to run Setup.
//
// Inputs:
//
//	d - The description.
//	opts - Options passed to tree.New.
//
// Outputs:
//
//	*tree.Tree - The populated tree, nil on error.
//	error - ErrInvalidDescription wrapping every problem found.
func Build(d *Description, opts ...tree.Option) (*tree.Tree, error) {
	if err := Validate(d); err != nil {
		return nil, err
	}

	t := tree.New(opts...)
	var result *multierror.Error

	for i, ns := range d.Nodes {
		class, err := tree.ParseClass(ns.Class)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("nodes[%d]: %w", i, err))
			continue
		}
		n, err := factories[ns.Type](node.NodeID(ns.ID), ns.Name, ns.Params)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("nodes[%d] (%s): %w", i, ns.Type, err))
			continue
		}

		first := tree.DefaultGroup
		if len(ns.Groups) > 0 {
			first = tree.GroupID(ns.Groups[0])
		}
		t.AddNode(n, class, first)
		for _, g := range ns.Groups[min(1, len(ns.Groups)):] {
			if err := t.AddNodeToGroup(n.ID(), tree.GroupID(g)); err != nil {
				result = multierror.Append(result, err)
			}
		}
	}

	for key, raw := range d.Defaults {
		dt, _ := node.ParseDataType(key)
		if err := applyDefault(t, dt, raw); err != nil {
			result = multierror.Append(result, fmt.Errorf("defaults[%s]: %w", key, err))
		}
	}

	for i, ls := range d.Links {
		if err := makeLink(t, ls); err != nil {
			result = multierror.Append(result, fmt.Errorf("links[%d]: %w", i, err))
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDescription, err)
	}
	return t, nil
}

func makeLink(t *tree.Tree, ls LinkSpec) error {
	from := t.ViewNode(node.NodeID(ls.From.Node))
	to := t.ViewNode(node.NodeID(ls.To.Node))
	if from == nil || to == nil {
		return fmt.Errorf("%w: %s -> %s", tree.ErrNodeNotFound, ls.From, ls.To)
	}
	outIdx, err := outputIndex(from, ls.From.Socket)
	if err != nil {
		return err
	}
	inIdx, err := inputIndex(to, ls.To.Socket)
	if err != nil {
		return err
	}
	if ls.Kind == LinkWrite {
		return t.MakeWriteLink(from.ID(), outIdx, to.ID(), inIdx)
	}
	return t.MakeGetLink(from.ID(), outIdx, to.ID(), inIdx)
}

func outputIndex(n node.Node, name string) (node.SocketIndex, error) {
	for _, s := range n.Outputs() {
		if strings.EqualFold(s.Name(), name) {
			return s.Index(), nil
		}
	}
	return 0, fmt.Errorf("%w: node %q has no output %q", tree.ErrSocketNotFound, n.Name(), name)
}

func inputIndex(n node.Node, name string) (node.SocketIndex, error) {
	for _, s := range n.Inputs() {
		if strings.EqualFold(s.Name(), name) {
			return s.Index(), nil
		}
	}
	return 0, fmt.Errorf("%w: node %q has no input %q", tree.ErrSocketNotFound, n.Name(), name)
}
