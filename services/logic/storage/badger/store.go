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
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/AleutianAI/LogicNodes/services/logic/graphdesc"
)

// ErrNotFound is returned when no description is stored under an id.
var ErrNotFound = errors.New("graph description not found")

const keyPrefix = "graph/"

// record is the stored value for one graph.
type record struct {
	UpdatedAt   time.Time              `json:"updated_at"`
	Description *graphdesc.Description `json:"description"`
}

func key(id uuid.UUID) []byte {
	return []byte(keyPrefix + id.String())
}

// decodeRecord keeps numbers as json.Number so params and defaults keep
// full 64-bit precision when the description is rebuilt.
func decodeRecord(val []byte, rec *record) error {
	dec := json.NewDecoder(bytes.NewReader(val))
	dec.UseNumber()
	return dec.Decode(rec)
}

// Save stores or replaces the description of a graph.
func (d *DB) Save(ctx context.Context, id uuid.UUID, desc *graphdesc.Description) error {
	data, err := json.Marshal(record{UpdatedAt: time.Now().UTC(), Description: desc})
	if err != nil {
		return fmt.Errorf("encode graph %s: %w", id, err)
	}
	return d.update(ctx, func(txn *badger.Txn) error {
		return txn.Set(key(id), data)
	})
}

// Get loads one description.
func (d *DB) Get(ctx context.Context, id uuid.UUID) (*graphdesc.Description, error) {
	var rec record
	err := d.view(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get(key(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return decodeRecord(val, &rec)
		})
	})
	if err != nil {
		return nil, err
	}
	return rec.Description, nil
}

// Delete removes a description. Deleting a missing id is not an error.
func (d *DB) Delete(ctx context.Context, id uuid.UUID) error {
	return d.update(ctx, func(txn *badger.Txn) error {
		return txn.Delete(key(id))
	})
}

// Each calls fn for every stored description in key order. Entries whose
// key or value cannot be decoded are skipped with an error returned at the end.
func (d *DB) Each(ctx context.Context, fn func(id uuid.UUID, desc *graphdesc.Description) error) error {
	var skipped []string
	err := d.view(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			k := string(item.Key())
			id, err := uuid.Parse(strings.TrimPrefix(k, keyPrefix))
			if err != nil {
				skipped = append(skipped, k)
				continue
			}
			var rec record
			if err := item.Value(func(val []byte) error { return decodeRecord(val, &rec) }); err != nil || rec.Description == nil {
				skipped = append(skipped, k)
				continue
			}
			if err := fn(id, rec.Description); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if len(skipped) > 0 {
		return fmt.Errorf("skipped undecodable entries: %s", strings.Join(skipped, ", "))
	}
	return nil
}
