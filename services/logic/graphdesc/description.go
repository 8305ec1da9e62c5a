// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package graphdesc reads declarative graph descriptions and builds
// execution trees from them.
//
// A description lists nodes (by factory type), links between named
// sockets, and optional default values for dangling inputs:
//
//	name: adder
//	nodes:
//	  - {id: 0, type: IntSource, class: input, params: {value: 3}}
//	  - {id: 1, type: IntSource, class: input, params: {value: 5}}
//	  - {id: 2, type: IntAdd, class: output}
//	links:
//	  - {kind: get, from: {node: 0, socket: Value}, to: {node: 2, socket: Value1}}
//	  - {kind: get, from: {node: 1, socket: Value}, to: {node: 2, socket: Value2}}
//
// Descriptions are validated as a whole: every problem is reported in one
// aggregated error rather than stopping at the first.
package graphdesc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Sentinel errors for the graphdesc package.
var (
	// ErrInvalidDescription wraps every validation failure.
	ErrInvalidDescription = errors.New("invalid graph description")

	// ErrUnknownType is returned for a node type missing from the factory table.
	ErrUnknownType = errors.New("unknown node type")

	// ErrUnsupportedFormat is returned for file extensions other than yaml, yml and json.
	ErrUnsupportedFormat = errors.New("unsupported description format")
)

// Link kinds.
const (
	LinkGet   = "get"
	LinkWrite = "write"
)

// Description is a complete graph.
type Description struct {
	Name     string         `yaml:"name" json:"name" validate:"required,max=128"`
	Nodes    []NodeSpec     `yaml:"nodes" json:"nodes" validate:"required,min=1,dive"`
	Links    []LinkSpec     `yaml:"links,omitempty" json:"links,omitempty" validate:"omitempty,dive"`
	Defaults map[string]any `yaml:"defaults,omitempty" json:"defaults,omitempty" validate:"omitempty,dive,keys,datatype,endkeys"`
}

// NodeSpec declares one node.
type NodeSpec struct {
	ID     uint64         `yaml:"id" json:"id"`
	Type   string         `yaml:"type" json:"type" validate:"required"`
	Name   string         `yaml:"name,omitempty" json:"name,omitempty"`
	Class  string         `yaml:"class,omitempty" json:"class,omitempty" validate:"omitempty,oneof=normal input output constant"`
	Groups []uint64       `yaml:"groups,omitempty" json:"groups,omitempty"`
	Params map[string]any `yaml:"params,omitempty" json:"params,omitempty"`
}

// LinkSpec connects an output socket to an input socket.
type LinkSpec struct {
	Kind string   `yaml:"kind" json:"kind" validate:"required,oneof=get write"`
	From Endpoint `yaml:"from" json:"from"`
	To   Endpoint `yaml:"to" json:"to"`
}

// Endpoint names a socket on a node.
type Endpoint struct {
	Node   uint64 `yaml:"node" json:"node"`
	Socket string `yaml:"socket" json:"socket" validate:"required"`
}

// String renders the endpoint as node:socket.
func (e Endpoint) String() string {
	return fmt.Sprintf("%d:%s", e.Node, e.Socket)
}

// Format is a serialization format.
type Format int

const (
	FormatYAML Format = iota
	FormatJSON
)

// FormatForPath picks a format from a file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Parse decodes a description. Unknown fields are rejected.
func Parse(data []byte, format Format) (*Description, error) {
	var d Description
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		dec.UseNumber()
		if err := dec.Decode(&d); err != nil {
			return nil, fmt.Errorf("decoding json description: %w", err)
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&d); err != nil {
			return nil, fmt.Errorf("decoding yaml description: %w", err)
		}
	}
	return &d, nil
}

// LoadFile reads and parses a description file. The format follows the extension.
func LoadFile(path string) (*Description, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading description: %w", err)
	}
	d, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// EncodeJSON renders the description as JSON, the persisted form.
func (d *Description) EncodeJSON() ([]byte, error) {
	return json.Marshal(d)
}

// EncodeYAML renders the description as YAML. Numbers decoded from JSON
// are written as YAML numbers, not quoted strings.
func (d *Description) EncodeYAML() ([]byte, error) {
	out := *d
	out.Nodes = make([]NodeSpec, len(d.Nodes))
	for i, n := range d.Nodes {
		n.Params = plainMap(n.Params)
		out.Nodes[i] = n
	}
	out.Defaults = plainMap(d.Defaults)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&out); err != nil {
		return nil, fmt.Errorf("encoding yaml description: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding yaml description: %w", err)
	}
	return buf.Bytes(), nil
}

func plainMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = plainValue(v)
	}
	return out
}

// plainValue replaces json.Number with int64, uint64 or float64.
func plainValue(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := strconv.ParseInt(string(x), 10, 64); err == nil {
			return i
		}
		if u, err := strconv.ParseUint(string(x), 10, 64); err == nil {
			return u
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return string(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = plainValue(e)
		}
		return out
	case map[string]any:
		return plainMap(x)
	default:
		return v
	}
}
