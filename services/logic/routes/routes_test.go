// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/LogicNodes/services/logic/manager"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(t *testing.T, opts Options) *gin.Engine {
	t.Helper()
	m, err := manager.New(manager.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	return NewRouter(m, opts)
}

func TestSetupRoutes_Registered(t *testing.T) {
	router := newRouter(t, Options{})

	want := []struct{ method, path string }{
		{"GET", "/health"},
		{"GET", "/metrics"},
		{"POST", "/v1/graphs"},
		{"GET", "/v1/graphs"},
		{"GET", "/v1/graphs/:id"},
		{"DELETE", "/v1/graphs/:id"},
		{"POST", "/v1/graphs/:id/setup"},
		{"POST", "/v1/graphs/:id/execute"},
		{"POST", "/v1/graphs/:id/reset"},
		{"GET", "/v1/graphs/:id/outputs"},
	}
	registered := make(map[string]bool)
	for _, r := range router.Routes() {
		registered[r.Method+" "+r.Path] = true
	}
	for _, w := range want {
		assert.True(t, registered[w.method+" "+w.path], "missing route %s %s", w.method, w.path)
	}
}

func TestRouter_HealthAndRequestID(t *testing.T) {
	router := newRouter(t, Options{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","graphs":0}`, w.Body.String())
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

func TestRouter_Metrics(t *testing.T) {
	router := newRouter(t, Options{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "logic_http_requests_total")
}

func TestRouter_RateLimitAppliesToMutations(t *testing.T) {
	router := newRouter(t, Options{RateLimit: 0.001, Burst: 1})

	post := func() int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/graphs", strings.NewReader("{"))
		router.ServeHTTP(w, req)
		return w.Code
	}
	assert.Equal(t, http.StatusBadRequest, post())
	assert.Equal(t, http.StatusTooManyRequests, post())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/graphs", nil))
	assert.Equal(t, http.StatusOK, w.Code, "reads are not limited")
}
