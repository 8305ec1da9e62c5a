// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/LogicNodes/services/logic/graphdesc"
	"github.com/AleutianAI/LogicNodes/services/logic/node"
	"github.com/AleutianAI/LogicNodes/services/logic/telemetry"
	"github.com/AleutianAI/LogicNodes/services/logic/tree"
)

// GraphInfo describes a registered graph.
type GraphInfo struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name"`
	Nodes     int            `json:"nodes"`
	Groups    []tree.GroupID `json:"groups"`
	Ready     bool           `json:"ready"`
	Runs      int64          `json:"runs"`
	CreatedAt time.Time      `json:"created_at"`

	// Order and OrderInfo are only filled in by Info, and only when Ready.
	Order     []node.NodeID `json:"order,omitempty"`
	OrderInfo string        `json:"order_info,omitempty"`
}

// SocketValue is the current value of one socket of an output node.
type SocketValue struct {
	NodeID    node.NodeID `json:"node_id"`
	Node      string      `json:"node"`
	Socket    string      `json:"socket"`
	Direction string      `json:"direction"`
	Type      string      `json:"type"`
	HasData   bool        `json:"has_data"`
	Value     any         `json:"value,omitempty"`
}

// RunResult reports one Execute call.
type RunResult struct {
	RunID    uuid.UUID     `json:"run_id"`
	GraphID  uuid.UUID     `json:"graph_id"`
	Group    *tree.GroupID `json:"group,omitempty"`
	Nodes    int           `json:"nodes"`
	Duration time.Duration `json:"duration_ns"`
	Outputs  []SocketValue `json:"outputs"`
}

// Setup solves the execution order of a graph. Concurrent calls for the
// same graph share one solve.
func (m *Manager) Setup(ctx context.Context, id uuid.UUID) (err error) {
	ctx, done := m.observe(ctx, "Setup", id)
	defer func() { done(err) }()

	e, release, err := m.acquire(ctx, id)
	if err != nil {
		return err
	}
	defer release()

	key := fmt.Sprintf("%s/%p", id, e)
	_, err, shared := m.flight.Do(key, func() (any, error) {
		e.mu.Lock()
		defer e.mu.Unlock()
		return nil, e.tree.Setup(m.opts.ConnectDangling)
	})
	if shared {
		m.logger.Debug("setup coalesced", slog.String("graph_id", id.String()))
	}
	return err
}

// Execute runs the whole graph, or one group when group is not nil.
//
// Outputs:
//
//	RunResult - The run id, node count and the output nodes' socket values.
//	error - ErrGraphNotFound, tree.ErrInvalidState when Setup is needed,
//	        tree.ErrGroupNotFound, or a *tree.NodeError from a node.
func (m *Manager) Execute(ctx context.Context, id uuid.UUID, group *tree.GroupID) (res RunResult, err error) {
	ctx, done := m.observe(ctx, "Execute", id)
	defer func() { done(err) }()

	e, release, err := m.acquire(ctx, id)
	if err != nil {
		return RunResult{}, err
	}
	defer release()

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return RunResult{}, err
	}

	start := time.Now()
	var order []node.NodeID
	if group == nil {
		if err := e.tree.Execute(); err != nil {
			return RunResult{}, err
		}
		order, err = e.tree.ExecutionOrder()
	} else {
		if err := e.tree.ExecuteGroup(*group); err != nil {
			return RunResult{}, err
		}
		order, err = e.tree.GroupExecutionOrder(*group)
	}
	if err != nil {
		return RunResult{}, err
	}
	elapsed := time.Since(start)

	e.runs.Add(1)
	m.metrics.NodesExecuted.Add(ctx, int64(len(order)))

	return RunResult{
		RunID:    uuid.New(),
		GraphID:  id,
		Group:    group,
		Nodes:    len(order),
		Duration: elapsed,
		Outputs:  outputValues(e.tree),
	}, nil
}

// Reset resets the whole graph, or one group when group is not nil.
func (m *Manager) Reset(ctx context.Context, id uuid.UUID, group *tree.GroupID) (err error) {
	ctx, done := m.observe(ctx, "Reset", id)
	defer func() { done(err) }()

	return m.Update(ctx, id, func(t *tree.Tree) error {
		if group == nil {
			return t.Reset()
		}
		return t.ResetGroup(*group)
	})
}

// Update runs fn with exclusive access to the graph's tree. Structural
// changes made by fn leave the tree stale until the next Setup.
func (m *Manager) Update(ctx context.Context, id uuid.UUID, fn func(t *tree.Tree) error) error {
	e, release, err := m.acquire(ctx, id)
	if err != nil {
		return err
	}
	defer release()

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(e.tree)
}

// View runs fn with shared access to the graph's tree. fn must only use
// read-only tree methods (ViewNode, queries, ExecutionOrderInfo).
func (m *Manager) View(ctx context.Context, id uuid.UUID, fn func(t *tree.Tree) error) error {
	e, release, err := m.acquire(ctx, id)
	if err != nil {
		return err
	}
	defer release()

	e.mu.RLock()
	defer e.mu.RUnlock()
	return fn(e.tree)
}

// Info describes one graph, including its execution order when ready.
func (m *Manager) Info(ctx context.Context, id uuid.UUID) (GraphInfo, error) {
	e, release, err := m.acquire(ctx, id)
	if err != nil {
		return GraphInfo{}, err
	}
	defer release()

	e.mu.RLock()
	defer e.mu.RUnlock()

	info := e.info()
	if info.Ready {
		info.Order, _ = e.tree.ExecutionOrder()
		info.OrderInfo = e.tree.ExecutionOrderInfo()
	}
	return info, nil
}

// List describes every graph, sorted by name.
func (m *Manager) List() []GraphInfo {
	entries := m.snapshot()
	out := make([]GraphInfo, 0, len(entries))
	for _, e := range entries {
		e.mu.RLock()
		out = append(out, e.info())
		e.mu.RUnlock()
	}
	return out
}

// Outputs returns the current socket values of the graph's output nodes.
func (m *Manager) Outputs(ctx context.Context, id uuid.UUID) ([]SocketValue, error) {
	var values []SocketValue
	err := m.View(ctx, id, func(t *tree.Tree) error {
		values = outputValues(t)
		return nil
	})
	return values, err
}

// ExecuteAll executes every registered graph concurrently. Graphs that
// are stale or deleted meanwhile are skipped. The first node failure
// cancels the remaining runs.
func (m *Manager) ExecuteAll(ctx context.Context) (map[uuid.UUID]RunResult, error) {
	entries := m.snapshot()
	results := make(map[uuid.UUID]RunResult, len(entries))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, e := range entries {
		g.Go(func() error {
			res, err := m.Execute(gctx, e.id, nil)
			switch {
			case errors.Is(err, ErrGraphNotFound), errors.Is(err, tree.ErrInvalidState):
				return nil
			case err != nil:
				return fmt.Errorf("graph %s (%s): %w", e.desc.Name, e.id, err)
			}
			mu.Lock()
			results[e.id] = res
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()
	return results, err
}

// Restore rebuilds every stored description and sets it up. Graphs that
// fail are reported together; the rest stay registered.
//
// Outputs:
//
//	int - The number of graphs registered.
//	error - A *multierror.Error listing each failed graph, or the store error.
func (m *Manager) Restore(ctx context.Context) (int, error) {
	if m.opts.Store == nil {
		return 0, nil
	}
	var (
		restored int
		result   *multierror.Error
	)
	err := m.opts.Store.Each(ctx, func(id uuid.UUID, desc *graphdesc.Description) error {
		if err := m.put(ctx, id, desc, false); err != nil {
			result = multierror.Append(result, fmt.Errorf("graph %s: %w", id, err))
			return nil
		}
		restored++
		if err := m.Setup(ctx, id); err != nil {
			result = multierror.Append(result, fmt.Errorf("graph %s setup: %w", id, err))
		}
		return nil
	})
	if err != nil {
		result = multierror.Append(result, err)
	}
	m.logger.Info("graphs restored", slog.Int("count", restored))
	return restored, result.ErrorOrNil()
}

func (e *entry) info() GraphInfo {
	return GraphInfo{
		ID:        e.id,
		Name:      e.desc.Name,
		Nodes:     e.tree.Len(),
		Groups:    e.tree.Groups(),
		Ready:     e.tree.IsReady(),
		Runs:      e.runs.Load(),
		CreatedAt: e.createdAt,
	}
}

func outputValues(t *tree.Tree) []SocketValue {
	var values []SocketValue
	for _, n := range t.NodesByClass(tree.ClassOutput) {
		for _, out := range n.Outputs() {
			values = append(values, SocketValue{
				NodeID:    n.ID(),
				Node:      n.Name(),
				Socket:    out.Name(),
				Direction: "out",
				Type:      out.Type().String(),
				HasData:   true,
				Value:     out.ValueAny(),
			})
		}
		for _, in := range n.Inputs() {
			v, ok := in.ValueAny()
			values = append(values, SocketValue{
				NodeID:    n.ID(),
				Node:      n.Name(),
				Socket:    in.Name(),
				Direction: "in",
				Type:      in.Type().String(),
				HasData:   ok,
				Value:     v,
			})
		}
	}
	return values
}

// observe starts a span for op and returns a function that records the
// outcome as metrics and ends the span.
func (m *Manager) observe(ctx context.Context, op string, id uuid.UUID) (context.Context, func(error)) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "Manager."+op,
		trace.WithAttributes(attribute.String("graph.id", id.String())))
	start := time.Now()

	return ctx, func(err error) {
		status := "ok"
		if err != nil {
			status = "error"
		}
		attrs := metric.WithAttributes(
			attribute.String("operation", strings.ToLower(op)),
			attribute.String("status", status),
		)
		m.metrics.OperationsTotal.Add(ctx, 1, attrs)
		m.metrics.OperationDuration.Record(ctx, time.Since(start).Seconds(), attrs)
		telemetry.EndSpan(span, err)
	}
}
