// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/LogicNodes/services/logic/graphdesc"
	"github.com/AleutianAI/LogicNodes/services/logic/nodes"
	"github.com/AleutianAI/LogicNodes/services/logic/tree"
)

const adderYAML = `
name: adder
nodes:
  - {id: 0, type: IntSource, class: input, params: {value: 3}}
  - {id: 1, type: IntSource, class: input, params: {value: 5}}
  - {id: 2, type: IntAdd, name: sum}
  - {id: 3, type: IntSink, name: out, class: output}
links:
  - {kind: get, from: {node: 0, socket: Value}, to: {node: 2, socket: Value1}}
  - {kind: get, from: {node: 1, socket: Value}, to: {node: 2, socket: Value2}}
  - {kind: get, from: {node: 2, socket: Result1}, to: {node: 3, socket: value}}
`

const cycleYAML = `
name: loop
nodes:
  - {id: 1, type: IntAdd, name: a}
  - {id: 2, type: IntAdd, name: b}
  - {id: 3, type: IntSink, class: output}
links:
  - {kind: get, from: {node: 1, socket: Result1}, to: {node: 2, socket: Value1}}
  - {kind: get, from: {node: 2, socket: Result1}, to: {node: 1, socket: Value1}}
  - {kind: get, from: {node: 2, socket: Result1}, to: {node: 3, socket: value}}
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.Execute()
	return stdout.String(), err
}

func TestRun_JSON(t *testing.T) {
	path := writeFile(t, "adder.yaml", adderYAML)

	out, err := execute(t, "run", path, "--output", "json", "--times", "2")
	require.NoError(t, err)

	var runs []struct {
		Nodes   int `json:"nodes"`
		Outputs []struct {
			NodeID    uint64 `json:"node_id"`
			Direction string `json:"direction"`
			HasData   bool   `json:"has_data"`
			Value     any    `json:"value"`
		} `json:"outputs"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 2)

	found := false
	for _, v := range runs[1].Outputs {
		if v.NodeID == 3 && v.Direction == "in" {
			found = true
			assert.True(t, v.HasData)
			assert.EqualValues(t, 8, v.Value)
		}
	}
	assert.True(t, found, "sink input missing from outputs")
}

func TestRun_Text(t *testing.T) {
	path := writeFile(t, "adder.yaml", adderYAML)

	out, err := execute(t, "run", path, "--output", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "run 1")
	assert.Contains(t, out, "NODE")
	assert.Contains(t, out, "out")
	assert.Contains(t, out, "8")
}

func TestRun_Flags(t *testing.T) {
	path := writeFile(t, "adder.yaml", adderYAML)

	_, err := execute(t, "run", path, "--output", "xml")
	assert.ErrorContains(t, err, "unknown output format")

	_, err = execute(t, "run", path, "--times", "0")
	assert.Error(t, err)

	_, err = execute(t, "run", path, "--group", "7")
	assert.ErrorIs(t, err, tree.ErrGroupNotFound)

	_, err = execute(t, "run", path, "--no-dangling", "--output", "json")
	assert.NoError(t, err)
}

func TestOrder(t *testing.T) {
	path := writeFile(t, "adder.yaml", adderYAML)

	out, err := execute(t, "order", path)
	require.NoError(t, err)
	assert.Contains(t, out, "[global]")
	assert.Contains(t, out, "[group 0]")
}

func TestOrder_Cycle(t *testing.T) {
	path := writeFile(t, "loop.yaml", cycleYAML)

	_, err := execute(t, "order", path)
	require.Error(t, err)
	var cycle *tree.CycleError
	require.True(t, errors.As(err, &cycle))
	assert.Contains(t, err.Error(), "cycle detected")
}

func TestValidate(t *testing.T) {
	good := writeFile(t, "adder.yaml", adderYAML)
	loop := writeFile(t, "loop.yaml", cycleYAML)
	bad := writeFile(t, "bad.yaml", "name: bad\nnodes:\n  - {id: 1, type: Nope}\n")

	out, err := execute(t, "validate", good)
	require.NoError(t, err)
	assert.Contains(t, out, "ok   "+good)

	out, err = execute(t, "validate", good, loop, bad)
	assert.ErrorIs(t, err, errValidationFailed)
	assert.Contains(t, out, "FAIL "+loop)
	assert.Contains(t, out, "FAIL "+bad)

	// Without setup the cycle goes unnoticed.
	out, err = execute(t, "validate", "--setup=false", loop)
	require.NoError(t, err)
	assert.Contains(t, out, "ok   "+loop)
}

func TestGraphs_InMemoryStore(t *testing.T) {
	cfgPath := writeFile(t, "config.yaml", "storage:\n  in_memory: true\n")

	_, err := execute(t, "--config", cfgPath, "graphs")
	assert.ErrorContains(t, err, "in memory")
}

func TestGraphs_EmptyStore(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, "config.yaml", "storage:\n  path: "+filepath.Join(dir, "db")+"\n")

	out, err := execute(t, "--config", cfgPath, "graphs", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}

func TestRoot_BadLogFormat(t *testing.T) {
	path := writeFile(t, "adder.yaml", adderYAML)
	_, err := execute(t, "--log-format", "xml", "order", path)
	assert.Error(t, err)
}

func TestFmt_JSONToYAML(t *testing.T) {
	path := writeFile(t, "wide.json", `{
  "name": "wide",
  "nodes": [
    {"id": 1, "type": "IntSource", "class": "input", "params": {"value": 9007199254740993}},
    {"id": 2, "type": "IntSink", "class": "output"}
  ],
  "links": [{"kind": "get", "from": {"node": 1, "socket": "Value"}, "to": {"node": 2, "socket": "Value"}}],
  "defaults": {"float": 0.5}
}`)

	out, err := execute(t, "fmt", path)
	require.NoError(t, err)
	assert.Contains(t, out, "name: wide")
	assert.Contains(t, out, "value: 9007199254740993")
	assert.NotContains(t, out, `"9007199254740993"`)

	desc, err := graphdesc.Parse([]byte(out), graphdesc.FormatYAML)
	require.NoError(t, err)
	tr, err := graphdesc.Build(desc)
	require.NoError(t, err)
	assert.Equal(t, int64(9007199254740993), tr.ViewNode(1).(*nodes.Source[int64]).Get())
}

func TestFmt_RejectsInvalid(t *testing.T) {
	path := writeFile(t, "bad.yaml", "name: bad\nnodes:\n  - {id: 1, type: NoSuchNode}\n")
	_, err := execute(t, "fmt", path)
	assert.Error(t, err)

	out, err := execute(t, "fmt", path, "--validate=false")
	require.NoError(t, err)
	assert.Contains(t, out, "type: NoSuchNode")
}
