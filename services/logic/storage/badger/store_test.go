// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package badger

import (
	"bytes"
	"context"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/LogicNodes/services/logic/graphdesc"
	"github.com/AleutianAI/LogicNodes/services/logic/nodes"
)

func sampleDescription(name string) *graphdesc.Description {
	return &graphdesc.Description{
		Name: name,
		Nodes: []graphdesc.NodeSpec{
			{ID: 1, Type: "IntSource", Params: map[string]any{"value": 2}},
			{ID: 2, Type: "IntSink", Class: "output"},
		},
		Links: []graphdesc.LinkSpec{{
			Kind: graphdesc.LinkGet,
			From: graphdesc.Endpoint{Node: 1, Socket: "Value"},
			To:   graphdesc.Endpoint{Node: 2, Socket: "Value"},
		}},
	}
}

func TestStore_SaveGetDelete(t *testing.T) {
	db, err := OpenInMemory()
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	id := uuid.New()
	require.NoError(t, db.Save(ctx, id, sampleDescription("one")))

	got, err := db.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "one", got.Name)
	assert.Len(t, got.Nodes, 2)
	assert.Equal(t, "Value", got.Links[0].To.Socket)

	require.NoError(t, db.Delete(ctx, id))
	_, err = db.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, db.Delete(ctx, id))
}

func TestStore_Each(t *testing.T) {
	db, err := OpenInMemory()
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	ids := map[uuid.UUID]string{uuid.New(): "a", uuid.New(): "b", uuid.New(): "c"}
	for id, name := range ids {
		require.NoError(t, db.Save(ctx, id, sampleDescription(name)))
	}

	seen := make(map[uuid.UUID]string)
	require.NoError(t, db.Each(ctx, func(id uuid.UUID, d *graphdesc.Description) error {
		seen[id] = d.Name
		return nil
	}))
	assert.Equal(t, ids, seen)

	// Stored descriptions must still build.
	for id := range ids {
		d, err := db.Get(ctx, id)
		require.NoError(t, err)
		_, err = graphdesc.Build(d)
		require.NoError(t, err)
	}
}

func TestStore_EachReportsCorruptEntries(t *testing.T) {
	db, err := OpenInMemory()
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, db.Save(ctx, uuid.New(), sampleDescription("ok")))
	require.NoError(t, db.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+"not-a-uuid"), []byte("{}"))
	}))

	count := 0
	err = db.Each(ctx, func(uuid.UUID, *graphdesc.Description) error {
		count++
		return nil
	})
	assert.Error(t, err)
	assert.Equal(t, 1, count)
}

func TestStore_CancelledContext(t *testing.T) {
	db, err := OpenInMemory()
	require.NoError(t, err)
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, db.Save(ctx, uuid.New(), sampleDescription("x")), context.Canceled)
}

func TestOpen_Persistent(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig(dir)
	cfg.GCInterval = 0

	db, err := Open(cfg)
	require.NoError(t, err)
	id := uuid.New()
	require.NoError(t, db.Save(context.Background(), id, sampleDescription("kept")))
	require.NoError(t, db.Close())
	require.NoError(t, db.Close(), "second close is a no-op")

	db2, err := Open(cfg)
	require.NoError(t, err)
	defer db2.Close()
	got, err := db2.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "kept", got.Name)
	assert.False(t, db2.InMemory())
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(Config{})
	assert.Error(t, err)
}

func TestStore_WideIntegersSurviveRoundTrip(t *testing.T) {
	db, err := OpenInMemory()
	require.NoError(t, err)
	defer db.Close()

	desc, err := graphdesc.Parse([]byte(`{
  "name": "wide",
  "nodes": [
    {"id": 1, "type": "IntSource", "params": {"value": 9007199254740993}},
    {"id": 2, "type": "UIntSource", "params": {"value": 18446744073709551615}},
    {"id": 3, "type": "IntSink", "class": "output"}
  ],
  "links": [{"kind": "get", "from": {"node": 1, "socket": "Value"}, "to": {"node": 3, "socket": "Value"}}]
}`), graphdesc.FormatJSON)
	require.NoError(t, err)

	ctx := context.Background()
	id := uuid.New()
	require.NoError(t, db.Save(ctx, id, desc))

	check := func(d *graphdesc.Description) {
		t.Helper()
		tr, err := graphdesc.Build(d)
		require.NoError(t, err)
		assert.Equal(t, int64(9007199254740993), tr.ViewNode(1).(*nodes.Source[int64]).Get())
		assert.Equal(t, uint64(math.MaxUint64), tr.ViewNode(2).(*nodes.Source[uint64]).Get())
	}

	got, err := db.Get(ctx, id)
	require.NoError(t, err)
	check(got)

	require.NoError(t, db.Each(ctx, func(_ uuid.UUID, d *graphdesc.Description) error {
		check(d)
		return nil
	}))
}

func TestBadgerLogger_NoDuplicateAttributes(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil)).With("component", "badger")
	l := &badgerLogger{logger: base}

	l.Warningf("value log %d", 3)
	assert.Equal(t, 1, strings.Count(buf.String(), `"component"`))
	assert.Contains(t, buf.String(), "value log 3")
}
