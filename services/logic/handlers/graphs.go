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
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AleutianAI/LogicNodes/services/logic/graphdesc"
	"github.com/AleutianAI/LogicNodes/services/logic/manager"
	"github.com/AleutianAI/LogicNodes/services/logic/tree"
)

// MaxDescriptionBytes caps the size of a posted graph description.
const MaxDescriptionBytes = 4 << 20

// HealthCheck handles GET /health.
func HealthCheck(m *manager.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthResponse{Status: "ok", Graphs: m.Len()})
	}
}

// CreateGraph handles POST /v1/graphs.
//
// Description:
//
//	Parses a graph description from the body and registers it. The body
//	is YAML when Content-Type is application/yaml (or x-yaml, text/yaml),
//	JSON otherwise. With ?setup=true the execution order is solved before
//	responding.
//
// Response:
//
//	201 Created: CreateGraphResponse
//	400 Bad Request: unparsable body, invalid description, or failed setup
func CreateGraph(m *manager.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := requestLogger(c, "CreateGraph")

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, MaxDescriptionBytes+1))
		if err != nil {
			badRequest(c, "INVALID_REQUEST", "cannot read request body")
			return
		}
		if len(body) > MaxDescriptionBytes {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
				Error: "description too large",
				Code:  "TOO_LARGE",
			})
			return
		}

		desc, err := graphdesc.Parse(body, bodyFormat(c))
		if err != nil {
			badRequest(c, "INVALID_REQUEST", err.Error())
			return
		}

		ctx := c.Request.Context()
		id, err := m.Create(ctx, desc)
		if err != nil {
			writeError(c, logger, err)
			return
		}

		ready := false
		if setup, _ := strconv.ParseBool(c.Query("setup")); setup {
			if err := m.Setup(ctx, id); err != nil {
				// The graph stays registered so the caller can inspect or delete it.
				c.Header("Location", "/v1/graphs/"+id.String())
				writeError(c, logger, err)
				return
			}
			ready = true
		}

		logger.Info("graph created", slog.String("graph_id", id.String()), slog.String("graph", desc.Name))
		c.Header("Location", "/v1/graphs/"+id.String())
		c.JSON(http.StatusCreated, CreateGraphResponse{ID: id, Ready: ready})
	}
}

// ListGraphs handles GET /v1/graphs.
func ListGraphs(m *manager.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		graphs := m.List()
		c.JSON(http.StatusOK, ListGraphsResponse{Graphs: graphs, Count: len(graphs)})
	}
}

// GetGraph handles GET /v1/graphs/:id. The response includes the execution
// order and its formatted dump when the graph is ready.
func GetGraph(m *manager.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := graphID(c)
		if !ok {
			return
		}
		info, err := m.Info(c.Request.Context(), id)
		if err != nil {
			writeError(c, requestLogger(c, "GetGraph"), err)
			return
		}
		c.JSON(http.StatusOK, info)
	}
}

// DeleteGraph handles DELETE /v1/graphs/:id.
//
// Response:
//
//	204 No Content: deleted and drained
//	404 Not Found: unknown graph
//	503 Service Unavailable: unregistered, but requests were still running
func DeleteGraph(m *manager.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := graphID(c)
		if !ok {
			return
		}
		if err := m.Delete(c.Request.Context(), id); err != nil {
			writeError(c, requestLogger(c, "DeleteGraph"), err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// SetupGraph handles POST /v1/graphs/:id/setup.
func SetupGraph(m *manager.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := graphID(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		if err := m.Setup(ctx, id); err != nil {
			writeError(c, requestLogger(c, "SetupGraph"), err)
			return
		}
		info, err := m.Info(ctx, id)
		if err != nil {
			writeError(c, requestLogger(c, "SetupGraph"), err)
			return
		}
		c.JSON(http.StatusOK, info)
	}
}

// ExecuteGraph handles POST /v1/graphs/:id/execute[?group=N].
//
// Response:
//
//	200 OK: manager.RunResult
//	404 Not Found: unknown graph or group
//	409 Conflict: the order is stale, call setup first
//	422 Unprocessable Entity: a node failed to compute
func ExecuteGraph(m *manager.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := graphID(c)
		if !ok {
			return
		}
		group, ok := groupParam(c)
		if !ok {
			return
		}
		res, err := m.Execute(c.Request.Context(), id, group)
		if err != nil {
			writeError(c, requestLogger(c, "ExecuteGraph"), err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// ResetGraph handles POST /v1/graphs/:id/reset[?group=N].
func ResetGraph(m *manager.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := graphID(c)
		if !ok {
			return
		}
		group, ok := groupParam(c)
		if !ok {
			return
		}
		if err := m.Reset(c.Request.Context(), id, group); err != nil {
			writeError(c, requestLogger(c, "ResetGraph"), err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// GraphOutputs handles GET /v1/graphs/:id/outputs.
func GraphOutputs(m *manager.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := graphID(c)
		if !ok {
			return
		}
		outputs, err := m.Outputs(c.Request.Context(), id)
		if err != nil {
			writeError(c, requestLogger(c, "GraphOutputs"), err)
			return
		}
		c.JSON(http.StatusOK, OutputsResponse{ID: id, Outputs: outputs})
	}
}

func graphID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "INVALID_ID", "graph id must be a uuid")
		return uuid.Nil, false
	}
	return id, true
}

// groupParam reads ?group=N. Absent means the whole graph.
func groupParam(c *gin.Context) (*tree.GroupID, bool) {
	raw, present := c.GetQuery("group")
	if !present {
		return nil, true
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		badRequest(c, "INVALID_GROUP", "group must be a non-negative integer")
		return nil, false
	}
	g := tree.GroupID(n)
	return &g, true
}

func bodyFormat(c *gin.Context) graphdesc.Format {
	mt, _, _ := mime.ParseMediaType(c.GetHeader("Content-Type"))
	switch mt {
	case "application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml":
		return graphdesc.FormatYAML
	default:
		return graphdesc.FormatJSON
	}
}
