// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers implements the HTTP handlers of the logic-node service.
//
// Handlers are constructors returning gin.HandlerFunc closures over the
// graph manager. Errors are reported as ErrorResponse with a stable code;
// see writeError for the status mapping.
package handlers

import (
	"github.com/google/uuid"

	"github.com/AleutianAI/LogicNodes/services/logic/manager"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	// Error is the error message.
	Error string `json:"error"`

	// Code is a stable machine-readable error code.
	Code string `json:"code"`

	// Details carries extra context, such as a cycle path.
	Details any `json:"details,omitempty"`
}

// CreateGraphResponse is returned by POST /v1/graphs.
type CreateGraphResponse struct {
	ID    uuid.UUID `json:"id"`
	Ready bool      `json:"ready"`
}

// ListGraphsResponse is returned by GET /v1/graphs.
type ListGraphsResponse struct {
	Graphs []manager.GraphInfo `json:"graphs"`
	Count  int                 `json:"count"`
}

// OutputsResponse is returned by GET /v1/graphs/:id/outputs.
type OutputsResponse struct {
	ID      uuid.UUID             `json:"id"`
	Outputs []manager.SocketValue `json:"outputs"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status string `json:"status"`
	Graphs int    `json:"graphs"`
}

// cycleDetails is the Details payload for CYCLE_DETECTED.
type cycleDetails struct {
	Path  []uint64 `json:"path"`
	Names []string `json:"names"`
}
