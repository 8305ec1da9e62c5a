// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "logicnodes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8088", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Manager.DrainTimeout)
	assert.True(t, cfg.Manager.ConnectDangling)
	assert.NotEmpty(t, cfg.Storage.Path)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: 0.0.0.0:9000
  rate_limit: 5
storage:
  in_memory: true
  path: ""
manager:
  drain_timeout: 250ms
  check_results: true
logging:
  level: debug
watch_dir: /tmp/graphs
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Addr)
	assert.Equal(t, 5.0, cfg.Server.RateLimit)
	assert.Equal(t, 100, cfg.Server.Burst, "unset fields keep defaults")
	assert.True(t, cfg.Storage.InMemory)
	assert.Equal(t, 250*time.Millisecond, cfg.Manager.DrainTimeout)
	assert.True(t, cfg.Manager.CheckResults)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/tmp/graphs", cfg.WatchDir)
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, "\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Server, cfg.Server)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LOGICNODES_ADDR", "localhost:7000")
	t.Setenv("LOGICNODES_STORAGE_IN_MEMORY", "true")
	t.Setenv("LOGICNODES_LOG_LEVEL", "WARN")

	cfg, err := Load(writeConfig(t, "server:\n  addr: 127.0.0.1:1\n"))
	require.NoError(t, err)
	assert.Equal(t, "localhost:7000", cfg.Server.Addr)
	assert.True(t, cfg.Storage.InMemory)
	assert.Equal(t, "warn", cfg.Logging.Level)

	t.Setenv("LOGICNODES_STORAGE_IN_MEMORY", "maybe")
	_, err = Load("")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"unknown field":  "server:\n  port: 8080\n",
		"bad addr":       "server:\n  addr: nope\n",
		"zero drain":     "manager:\n  drain_timeout: 0s\n",
		"no storage":     "storage:\n  path: \"\"\n",
		"bad log level":  "logging:\n  level: chatty\n",
		"bad exporter":   "telemetry:\n  service_name: x\n  trace_exporter: fax\n  metric_exporter: none\n",
		"negative burst": "server:\n  burst: -1\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoad_TooLarge(t *testing.T) {
	body := "# " + strings.Repeat("x", MaxConfigFileSize) + "\n"
	_, err := Load(writeConfig(t, body))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
