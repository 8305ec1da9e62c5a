// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package routes wires the logic-node HTTP API onto a gin engine.
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/time/rate"

	"github.com/AleutianAI/LogicNodes/services/logic/handlers"
	"github.com/AleutianAI/LogicNodes/services/logic/manager"
)

// Options configures the router.
type Options struct {
	// ServiceName names the otelgin server spans.
	ServiceName string

	// RateLimit and Burst limit mutating requests. Zero disables limiting.
	RateLimit rate.Limit
	Burst     int

	// MetricsHandler serves /metrics. Nil uses the default Prometheus registry.
	MetricsHandler http.Handler
}

// NewRouter creates a gin engine with recovery, tracing, request ids and
// request metrics, and registers every route.
func NewRouter(m *manager.Manager, opts Options) *gin.Engine {
	if opts.ServiceName == "" {
		opts.ServiceName = "logicnodes"
	}
	router := gin.New()
	router.Use(
		gin.Recovery(),
		otelgin.Middleware(opts.ServiceName),
		handlers.RequestID(),
		handlers.Metrics(),
	)
	SetupRoutes(router, m, opts)
	return router
}

// SetupRoutes registers the API.
//
//	GET    /health
//	GET    /metrics
//	POST   /v1/graphs                 create from a description (?setup=true)
//	GET    /v1/graphs                 list
//	GET    /v1/graphs/:id             info and execution order
//	DELETE /v1/graphs/:id             delete after draining in-flight requests
//	POST   /v1/graphs/:id/setup       solve the execution order
//	POST   /v1/graphs/:id/execute     execute (?group=N)
//	POST   /v1/graphs/:id/reset       reset (?group=N)
//	GET    /v1/graphs/:id/outputs     output node socket values
func SetupRoutes(router *gin.Engine, m *manager.Manager, opts Options) {
	metrics := opts.MetricsHandler
	if metrics == nil {
		metrics = promhttp.Handler()
	}
	router.GET("/health", handlers.HealthCheck(m))
	router.GET("/metrics", gin.WrapH(metrics))

	limit := handlers.RateLimit(opts.RateLimit, opts.Burst)

	v1 := router.Group("/v1")
	{
		graphs := v1.Group("/graphs")
		{
			graphs.GET("", handlers.ListGraphs(m))
			graphs.GET("/:id", handlers.GetGraph(m))
			graphs.GET("/:id/outputs", handlers.GraphOutputs(m))

			graphs.POST("", limit, handlers.CreateGraph(m))
			graphs.DELETE("/:id", limit, handlers.DeleteGraph(m))
			graphs.POST("/:id/setup", limit, handlers.SetupGraph(m))
			graphs.POST("/:id/execute", limit, handlers.ExecuteGraph(m))
			graphs.POST("/:id/reset", limit, handlers.ResetGraph(m))
		}
	}
}
