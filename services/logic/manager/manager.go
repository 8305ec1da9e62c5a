// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package manager keeps the set of live logic graphs a service operates on.
//
// # Description
//
// A tree is not safe for concurrent use, so every graph is wrapped in an
// entry that serializes access. Setup, Execute, Reset and mutations take the
// entry's write lock because they change node state; Info and Outputs take
// the read lock.
//
// Each request that resolves a graph increments the entry's in-flight
// counter until it returns. Delete removes the stored description, then
// unregisters the graph so no new request can find it, then waits for the
// counter to drop to zero.
//
// # Thread Safety
//
// Manager is safe for concurrent use.
package manager

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/singleflight"

	"github.com/AleutianAI/LogicNodes/services/logic/graphdesc"
	"github.com/AleutianAI/LogicNodes/services/logic/telemetry"
	"github.com/AleutianAI/LogicNodes/services/logic/tree"
)

const tracerName = "logic.manager"

// Store persists graph descriptions. storage/badger.DB satisfies it.
type Store interface {
	Save(ctx context.Context, id uuid.UUID, desc *graphdesc.Description) error
	Delete(ctx context.Context, id uuid.UUID) error
	Each(ctx context.Context, fn func(id uuid.UUID, desc *graphdesc.Description) error) error
}

// Options configures a Manager.
type Options struct {
	// Store persists descriptions. Nil keeps graphs in memory only.
	Store Store

	// Logger receives manager and tree diagnostics.
	Logger *slog.Logger

	// DrainTimeout bounds how long Delete waits for in-flight requests.
	DrainTimeout time.Duration

	// ConnectDangling is passed to tree.Setup.
	ConnectDangling bool

	// CheckResults enables priority verification after each solve.
	CheckResults bool
}

// DefaultOptions returns in-memory options with a 5s drain timeout.
func DefaultOptions() Options {
	return Options{
		DrainTimeout:    5 * time.Second,
		ConnectDangling: true,
	}
}

// Option modifies Options.
type Option func(*Options)

// WithStore persists descriptions in s.
func WithStore(s Store) Option {
	return func(o *Options) { o.Store = s }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithDrainTimeout sets the Delete drain timeout.
func WithDrainTimeout(d time.Duration) Option {
	return func(o *Options) { o.DrainTimeout = d }
}

// WithConnectDangling sets the flag passed to tree.Setup.
func WithConnectDangling(on bool) Option {
	return func(o *Options) { o.ConnectDangling = on }
}

// WithCheckResults enables priority verification after each solve.
func WithCheckResults(on bool) Option {
	return func(o *Options) { o.CheckResults = on }
}

// entry is one registered graph.
type entry struct {
	id        uuid.UUID
	desc      *graphdesc.Description
	createdAt time.Time

	mu   sync.RWMutex
	tree *tree.Tree

	inFlight atomic.Int64
	runs     atomic.Int64
}

// Manager is the registry of live graphs.
type Manager struct {
	mu     sync.RWMutex
	graphs map[uuid.UUID]*entry
	flight singleflight.Group

	opts    Options
	logger  *slog.Logger
	metrics *telemetry.Metrics
}

// New creates an empty manager. Metrics are registered on the global
// MeterProvider, so call telemetry.Init first when metrics matter.
func New(opts ...Option) (*Manager, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics, err := telemetry.NewMetrics(otel.Meter(tracerName))
	if err != nil {
		return nil, fmt.Errorf("manager metrics: %w", err)
	}
	return &Manager{
		graphs:  make(map[uuid.UUID]*entry),
		opts:    o,
		logger:  logger.With(slog.String("component", "manager")),
		metrics: metrics,
	}, nil
}

// Len returns the number of registered graphs.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.graphs)
}

// Create builds desc under a new random id and registers it. The tree is
// stale until Setup is called.
func (m *Manager) Create(ctx context.Context, desc *graphdesc.Description) (uuid.UUID, error) {
	id := uuid.New()
	if err := m.Put(ctx, id, desc); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// Put builds desc and registers it under id, replacing any graph already
// there. A replaced graph is drained like a deleted one.
func (m *Manager) Put(ctx context.Context, id uuid.UUID, desc *graphdesc.Description) (err error) {
	ctx, done := m.observe(ctx, "Put", id)
	defer func() { done(err) }()

	return m.put(ctx, id, desc, true)
}

func (m *Manager) put(ctx context.Context, id uuid.UUID, desc *graphdesc.Description, persist bool) error {
	if desc == nil {
		return ErrNilDescription
	}
	t, err := graphdesc.Build(desc,
		tree.WithLogger(m.logger.With(slog.String("graph_id", id.String()), slog.String("graph", desc.Name))),
		tree.WithCheckResults(m.opts.CheckResults),
	)
	if err != nil {
		return err
	}
	if persist && m.opts.Store != nil {
		if err := m.opts.Store.Save(ctx, id, desc); err != nil {
			return fmt.Errorf("persist graph %s: %w", id, err)
		}
	}

	e := &entry{id: id, desc: desc, tree: t, createdAt: time.Now().UTC()}

	m.mu.Lock()
	old, replaced := m.graphs[id]
	m.graphs[id] = e
	m.mu.Unlock()

	if !replaced {
		m.metrics.GraphsRegistered.Add(ctx, 1)
		m.logger.Info("graph registered", slog.String("graph_id", id.String()), slog.String("graph", desc.Name))
		return nil
	}
	m.logger.Info("graph replaced", slog.String("graph_id", id.String()), slog.String("graph", desc.Name))
	return m.drain(ctx, old)
}

// Delete removes the graph from the store, unregisters it and waits for
// in-flight requests on it to finish. When the store fails the graph stays
// registered so the call can be retried.
//
// Outputs:
//
//	error - ErrGraphNotFound, ErrDrainTimeout, the context error, or a
//	        store error.
func (m *Manager) Delete(ctx context.Context, id uuid.UUID) (err error) {
	ctx, done := m.observe(ctx, "Delete", id)
	defer func() { done(err) }()

	m.mu.RLock()
	_, ok := m.graphs[id]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrGraphNotFound, id)
	}

	if m.opts.Store != nil {
		if err := m.opts.Store.Delete(ctx, id); err != nil {
			return fmt.Errorf("unpersist graph %s: %w", id, err)
		}
	}

	m.mu.Lock()
	e, ok := m.graphs[id]
	if ok {
		delete(m.graphs, id)
	}
	m.mu.Unlock()
	if !ok {
		// Lost a race with another Delete.
		return fmt.Errorf("%w: %s", ErrGraphNotFound, id)
	}
	m.metrics.GraphsRegistered.Add(ctx, -1)

	if err := m.drain(ctx, e); err != nil {
		return err
	}
	m.logger.Info("graph deleted", slog.String("graph_id", id.String()))
	return nil
}

// drainPoll is how often drain re-checks the in-flight counter.
const drainPoll = 2 * time.Millisecond

func (m *Manager) drain(ctx context.Context, e *entry) error {
	if e.inFlight.Load() == 0 {
		return nil
	}
	timeout := time.NewTimer(m.opts.DrainTimeout)
	defer timeout.Stop()
	ticker := time.NewTicker(drainPoll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timeout.C:
			return fmt.Errorf("%w: graph %s has %d requests after %s",
				ErrDrainTimeout, e.id, e.inFlight.Load(), m.opts.DrainTimeout)
		case <-ticker.C:
			if e.inFlight.Load() == 0 {
				return nil
			}
		}
	}
}

// acquire resolves id and counts the caller as in flight. The release
// function must be called exactly once.
func (m *Manager) acquire(ctx context.Context, id uuid.UUID) (*entry, func(), error) {
	m.mu.RLock()
	e, ok := m.graphs[id]
	if ok {
		e.inFlight.Add(1)
	}
	m.mu.RUnlock()
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrGraphNotFound, id)
	}
	m.metrics.InFlight.Add(ctx, 1)

	release := func() {
		e.inFlight.Add(-1)
		m.metrics.InFlight.Add(ctx, -1)
	}
	return e, release, nil
}

// snapshot returns the registered entries sorted by name, then id.
func (m *Manager) snapshot() []*entry {
	m.mu.RLock()
	entries := make([]*entry, 0, len(m.graphs))
	for _, e := range m.graphs {
		entries = append(entries, e)
	}
	m.mu.RUnlock()

	slices.SortFunc(entries, func(a, b *entry) int {
		return cmp.Or(strings.Compare(a.desc.Name, b.desc.Name), bytes.Compare(a.id[:], b.id[:]))
	})
	return entries
}
