// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/LogicNodes/services/logic/graphdesc"
	"github.com/AleutianAI/LogicNodes/services/logic/manager"
	"github.com/AleutianAI/LogicNodes/services/logic/tree"
)

// errorStatus maps an error to its HTTP status and code.
func errorStatus(err error) (int, string) {
	var nodeErr *tree.NodeError
	switch {
	case errors.Is(err, manager.ErrGraphNotFound):
		return http.StatusNotFound, "GRAPH_NOT_FOUND"
	case errors.Is(err, tree.ErrGroupNotFound):
		return http.StatusNotFound, "GROUP_NOT_FOUND"
	case errors.Is(err, tree.ErrInvalidState):
		return http.StatusConflict, "ORDER_STALE"
	case errors.Is(err, tree.ErrCycleDetected):
		return http.StatusBadRequest, "CYCLE_DETECTED"
	case errors.Is(err, tree.ErrNoOutputNodes):
		return http.StatusBadRequest, "NO_OUTPUT_NODES"
	case errors.Is(err, tree.ErrDanglingInput):
		return http.StatusBadRequest, "DANGLING_INPUT"
	case errors.Is(err, graphdesc.ErrInvalidDescription), errors.Is(err, manager.ErrNilDescription):
		return http.StatusBadRequest, "INVALID_DESCRIPTION"
	case errors.Is(err, tree.ErrInvariantViolation):
		return http.StatusInternalServerError, "INVARIANT_VIOLATION"
	case errors.As(err, &nodeErr):
		return http.StatusUnprocessableEntity, "NODE_FAILED"
	case errors.Is(err, manager.ErrDrainTimeout):
		return http.StatusServiceUnavailable, "DRAIN_TIMEOUT"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "TIMEOUT"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}

// writeError logs err and writes the matching ErrorResponse.
func writeError(c *gin.Context, logger *slog.Logger, err error) {
	status, code := errorStatus(err)
	resp := ErrorResponse{Error: err.Error(), Code: code}

	var cycle *tree.CycleError
	if errors.As(err, &cycle) {
		d := cycleDetails{Names: cycle.Names}
		for _, id := range cycle.Path {
			d.Path = append(d.Path, uint64(id))
		}
		resp.Details = d
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed", slog.String("code", code), slog.String("error", err.Error()))
	} else {
		logger.Warn("request rejected", slog.String("code", code), slog.String("error", err.Error()))
	}
	c.JSON(status, resp)
}

func badRequest(c *gin.Context, code, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg, Code: code})
}
