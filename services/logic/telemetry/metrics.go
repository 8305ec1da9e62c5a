// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the instruments for graph operations. All names carry the
// "logic_" prefix.
//
// Thread Safety: Safe for concurrent use after creation.
type Metrics struct {
	// OperationsTotal counts graph operations by operation and status.
	OperationsTotal metric.Int64Counter

	// OperationDuration records graph operation duration in seconds.
	OperationDuration metric.Float64Histogram

	// NodesExecuted counts node computations performed by Execute.
	NodesExecuted metric.Int64Counter

	// GraphsRegistered tracks graphs currently held by the manager.
	GraphsRegistered metric.Int64UpDownCounter

	// InFlight tracks requests currently operating on a graph.
	InFlight metric.Int64UpDownCounter
}

// NewMetrics registers every instrument with meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.OperationsTotal, err = meter.Int64Counter(
		"logic_graph_operations_total",
		metric.WithDescription("Total graph operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create graph_operations_total: %w", err)
	}

	m.OperationDuration, err = meter.Float64Histogram(
		"logic_graph_operation_duration_seconds",
		metric.WithDescription("Graph operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1),
	)
	if err != nil {
		return nil, fmt.Errorf("create graph_operation_duration_seconds: %w", err)
	}

	m.NodesExecuted, err = meter.Int64Counter(
		"logic_nodes_executed_total",
		metric.WithDescription("Total node computations"),
		metric.WithUnit("{node}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create nodes_executed_total: %w", err)
	}

	m.GraphsRegistered, err = meter.Int64UpDownCounter(
		"logic_graphs_registered",
		metric.WithDescription("Graphs currently registered"),
		metric.WithUnit("{graph}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create graphs_registered: %w", err)
	}

	m.InFlight, err = meter.Int64UpDownCounter(
		"logic_graph_requests_in_flight",
		metric.WithDescription("Requests currently operating on a graph"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create graph_requests_in_flight: %w", err)
	}

	return m, nil
}
