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
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/LogicNodes/services/logic/node"
	"github.com/AleutianAI/LogicNodes/services/logic/nodes"
	"github.com/AleutianAI/LogicNodes/services/logic/tree"
)

const adderYAML = `
name: adder
nodes:
  - {id: 0, type: IntSource, class: input, params: {value: 3}}
  - {id: 1, type: IntSource, class: input, params: {value: 5}}
  - {id: 2, type: IntAdd, name: sum}
  - {id: 3, type: IntSink, class: output, groups: [0, 4]}
links:
  - {kind: get, from: {node: 0, socket: Value}, to: {node: 2, socket: Value1}}
  - {kind: write, from: {node: 1, socket: Value}, to: {node: 2, socket: Value2}}
  - {kind: get, from: {node: 2, socket: Result1}, to: {node: 3, socket: value}}
`

func quiet() tree.Option {
	return tree.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestBuild_Adder(t *testing.T) {
	d, err := Parse([]byte(adderYAML), FormatYAML)
	require.NoError(t, err)

	tr, err := Build(d, quiet())
	require.NoError(t, err)
	assert.False(t, tr.IsReady())

	require.NoError(t, tr.Setup(true))
	require.NoError(t, tr.Execute())

	sink, ok := tr.ViewNode(3).(*nodes.Sink[int64])
	require.True(t, ok)
	got, received := sink.Last()
	assert.True(t, received)
	assert.Equal(t, int64(8), got)

	assert.Equal(t, []tree.GroupID{0, 4}, tr.Groups())
	assert.Equal(t, "sum", tr.ViewNode(2).Name())
}

func TestParse_JSONRoundTrip(t *testing.T) {
	d, err := Parse([]byte(adderYAML), FormatYAML)
	require.NoError(t, err)

	data, err := d.EncodeJSON()
	require.NoError(t, err)
	back, err := Parse(data, FormatJSON)
	require.NoError(t, err)

	if diff := cmp.Diff(d.Links, back.Links); diff != "" {
		t.Errorf("links mismatch (-yaml +json):\n%s", diff)
	}
	require.Len(t, back.Nodes, 4)

	tr, err := Build(back, quiet())
	require.NoError(t, err)
	require.NoError(t, tr.Setup(true))
	require.NoError(t, tr.Execute())
	v, _ := tr.ViewNode(3).(*nodes.Sink[int64]).Last()
	assert.Equal(t, int64(8), v)
}

func TestParse_RejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("name: x\nnodez: []\n"), FormatYAML)
	assert.Error(t, err)

	_, err = Parse([]byte(`{"name":"x","bogus":1}`), FormatJSON)
	assert.Error(t, err)
}

func TestValidate_AggregatesProblems(t *testing.T) {
	d := &Description{
		Name: "broken",
		Nodes: []NodeSpec{
			{ID: 1, Type: "IntAdd"},
			{ID: 1, Type: "IntAdd"},
			{ID: 2, Type: "NoSuchNode"},
			{ID: 3, Type: "IntSink", Class: "sideways"},
		},
		Links: []LinkSpec{
			{Kind: "pull", From: Endpoint{Node: 1, Socket: "Result1"}, To: Endpoint{Node: 9, Socket: "Value"}},
		},
		Defaults: map[string]any{"int": "seven", "matrix": 1},
	}

	err := Validate(d)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidDescription)
	assert.ErrorIs(t, err, ErrUnknownType)

	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	// duplicate id, unknown type, bad class, bad kind, unknown endpoint,
	// bad default key, bad default value
	assert.Len(t, merr.Errors, 7)
}

func TestValidate_ReservedID(t *testing.T) {
	d := &Description{
		Name:  "reserved",
		Nodes: []NodeSpec{{ID: uint64(tree.PoolNodeID), Type: "IntSink", Class: "output"}},
	}
	assert.ErrorIs(t, Validate(d), ErrInvalidDescription)
	assert.ErrorIs(t, Validate(nil), ErrInvalidDescription)
}

func TestBuild_UnknownSocketAndTypeMismatch(t *testing.T) {
	d := &Description{
		Name: "sockets",
		Nodes: []NodeSpec{
			{ID: 1, Type: "FloatSource"},
			{ID: 2, Type: "IntSink", Class: "output"},
		},
		Links: []LinkSpec{
			{Kind: LinkGet, From: Endpoint{Node: 1, Socket: "Nope"}, To: Endpoint{Node: 2, Socket: "Value"}},
			{Kind: LinkGet, From: Endpoint{Node: 1, Socket: "Value"}, To: Endpoint{Node: 2, Socket: "Value"}},
		},
	}

	tr, err := Build(d, quiet())
	assert.Nil(t, tr)
	assert.ErrorIs(t, err, tree.ErrSocketNotFound)
	assert.ErrorIs(t, err, node.ErrBadSocketCast)
}

func TestBuild_DefaultsAndParams(t *testing.T) {
	d := &Description{
		Name: "defaults",
		Nodes: []NodeSpec{
			{ID: 1, Type: "Vector3Source", Params: map[string]any{"value": []any{3, 4, 0}}},
			{ID: 2, Type: "Vector3Length"},
			{ID: 3, Type: "FloatAdd", Class: "output"},
		},
		Links: []LinkSpec{
			{Kind: LinkGet, From: Endpoint{Node: 1, Socket: "Value"}, To: Endpoint{Node: 2, Socket: "Vector"}},
			{Kind: LinkGet, From: Endpoint{Node: 2, Socket: "Length"}, To: Endpoint{Node: 3, Socket: "Value1"}},
		},
		Defaults: map[string]any{"float": 0.5},
	}

	tr, err := Build(d, quiet())
	require.NoError(t, err)
	require.NoError(t, tr.Setup(true))
	require.NoError(t, tr.Execute())

	add := tr.ViewNode(3).(*nodes.BinaryOp[float64])
	assert.InDelta(t, 5.5, add.Result1().Value(), 1e-12)
}

func TestBuild_BadParam(t *testing.T) {
	d := &Description{
		Name:  "bad-param",
		Nodes: []NodeSpec{{ID: 1, Type: "IntSource", Params: map[string]any{"value": "three"}}},
	}
	_, err := Build(d, quiet())
	assert.ErrorIs(t, err, ErrInvalidDescription)
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		dt   node.DataType
		in   any
		want any
	}{
		{node.DataTypeBool, "true", true},
		{node.DataTypeInt, 7, int64(7)},
		{node.DataTypeInt, 7.0, int64(7)},
		{node.DataTypeUInt, 9, uint64(9)},
		{node.DataTypeFloat, 2, 2.0},
		{node.DataTypeString, "s", "s"},
		{node.DataTypeQuaternion, []any{1, 0, 0, 0}, node.Quaternion{1, 0, 0, 0}},
	}
	for _, tt := range tests {
		got, err := Coerce(tt.dt, tt.in)
		require.NoError(t, err, tt.dt.String())
		assert.Equal(t, tt.want, got)
	}

	_, err := Coerce(node.DataTypeInt, 1.5)
	assert.Error(t, err)
	_, err = Coerce(node.DataTypeUInt, -1)
	assert.Error(t, err)
	_, err = Coerce(node.DataTypeVector3, []any{1, 2})
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "adder.yaml")
	require.NoError(t, os.WriteFile(path, []byte(adderYAML), 0o600))

	d, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "adder", d.Name)

	_, err = LoadFile(filepath.Join(dir, "adder.toml"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestTypes_MatchNodeKinds(t *testing.T) {
	for _, typ := range Types() {
		n, err := factories[typ](1, "", nil)
		require.NoError(t, err)
		assert.Equal(t, typ, n.Kind())
	}
}

const wideIntsYAML = `
name: wide
nodes:
  - {id: 1, type: IntSource, params: {value: 9007199254740993}}
  - {id: 2, type: UIntSource, params: {value: 18446744073709551615}}
  - {id: 3, type: IntSink, class: output}
defaults:
  int: 9007199254740995
`

const wideIntsJSON = `{
  "name": "wide",
  "nodes": [
    {"id": 1, "type": "IntSource", "params": {"value": 9007199254740993}},
    {"id": 2, "type": "UIntSource", "params": {"value": 18446744073709551615}},
    {"id": 3, "type": "IntSink", "class": "output"}
  ],
  "defaults": {"int": 9007199254740995}
}`

func TestBuild_WideIntegersExactInBothFormats(t *testing.T) {
	for _, tc := range []struct {
		name   string
		data   string
		format Format
	}{
		{"yaml", wideIntsYAML, FormatYAML},
		{"json", wideIntsJSON, FormatJSON},
	} {
		t.Run(tc.name, func(t *testing.T) {
			d, err := Parse([]byte(tc.data), tc.format)
			require.NoError(t, err)
			tr, err := Build(d, quiet())
			require.NoError(t, err)

			assert.Equal(t, int64(9007199254740993), tr.ViewNode(1).(*nodes.Source[int64]).Get())
			assert.Equal(t, uint64(math.MaxUint64), tr.ViewNode(2).(*nodes.Source[uint64]).Get())

			require.NoError(t, tr.Setup(true))
			require.NoError(t, tr.Execute())
			got, _ := tr.ViewNode(3).(*nodes.Sink[int64]).Last()
			assert.Equal(t, int64(9007199254740995), got)
		})
	}
}

func TestCoerce_IntegerRanges(t *testing.T) {
	got, err := Coerce(node.DataTypeUInt, uint64(math.MaxUint64))
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), got)

	got, err = Coerce(node.DataTypeInt, json.Number("-9223372036854775808"))
	require.NoError(t, err)
	assert.Equal(t, int64(math.MinInt64), got)

	_, err = Coerce(node.DataTypeInt, uint64(math.MaxUint64))
	assert.Error(t, err)
	_, err = Coerce(node.DataTypeUInt, int64(-1))
	assert.Error(t, err)
	_, err = Coerce(node.DataTypeUInt, json.Number("18446744073709551616"))
	assert.Error(t, err)
}
