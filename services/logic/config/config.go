// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the logic-node service configuration.
//
// Configuration comes from three layers, later layers winning:
//
//  1. DefaultConfig (telemetry defaults honor the OTEL_* variables)
//  2. An optional YAML file
//  3. LOGICNODES_* environment variables
//
// The result is validated with struct tags before it is returned.
//
//	server:
//	  addr: 127.0.0.1:8088
//	  rate_limit: 50
//	storage:
//	  path: ~/.logicnodes/graphs
//	manager:
//	  drain_timeout: 5s
//	watch_dir: ./graphs
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/LogicNodes/services/logic/telemetry"
)

// MaxConfigFileSize caps the configuration file at 1MB.
const MaxConfigFileSize = 1024 * 1024

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete service configuration.
type Config struct {
	Server    ServerConfig     `yaml:"server"`
	Storage   StorageConfig    `yaml:"storage"`
	Manager   ManagerConfig    `yaml:"manager"`
	Logging   LoggingConfig    `yaml:"logging"`
	Telemetry telemetry.Config `yaml:"telemetry"`

	// WatchDir, when set, is watched for graph description files.
	WatchDir string `yaml:"watch_dir,omitempty"`
}

// ServerConfig configures the HTTP boundary.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `yaml:"addr" validate:"required,hostname_port"`

	// RateLimit is the sustained rate of mutating requests per second.
	// Zero disables limiting.
	RateLimit float64 `yaml:"rate_limit" validate:"gte=0"`

	// Burst is the number of requests allowed above RateLimit at once.
	Burst int `yaml:"burst" validate:"gte=0"`

	ReadTimeout  time.Duration `yaml:"read_timeout" validate:"gte=0"`
	WriteTimeout time.Duration `yaml:"write_timeout" validate:"gte=0"`
}

// StorageConfig selects where graph descriptions are persisted.
type StorageConfig struct {
	Path     string `yaml:"path" validate:"required_without=InMemory"`
	InMemory bool   `yaml:"in_memory"`

	// GCInterval is how often the value log is garbage collected.
	GCInterval time.Duration `yaml:"gc_interval" validate:"gte=0"`
}

// ManagerConfig tunes the graph registry.
type ManagerConfig struct {
	// DrainTimeout bounds how long Delete waits for in-flight requests.
	DrainTimeout time.Duration `yaml:"drain_timeout" validate:"gt=0"`

	// ConnectDangling is passed to Setup for every graph.
	ConnectDangling bool `yaml:"connect_dangling"`

	// CheckResults verifies priorities after every solve.
	CheckResults bool `yaml:"check_results"`
}

// LoggingConfig configures pkg/logging.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
	Dir    string `yaml:"dir,omitempty"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return Config{
		Server: ServerConfig{
			Addr:         "127.0.0.1:8088",
			RateLimit:    50,
			Burst:        100,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Storage: StorageConfig{
			Path:       filepath.Join(home, ".logicnodes", "graphs"),
			GCInterval: 10 * time.Minute,
		},
		Manager: ManagerConfig{
			DrainTimeout:    5 * time.Second,
			ConnectDangling: true,
		},
		Logging:   LoggingConfig{Level: "info"},
		Telemetry: telemetry.DefaultConfig(),
	}
}

var configValidate = validator.New()

// Load builds the configuration from defaults, the file at path (if path
// is not empty) and the environment, then validates it.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if err := readFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readFile(path string, cfg *Config) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat config: %w", err)
	}
	if info.Size() > MaxConfigFileSize {
		return fmt.Errorf("%w: %s is %d bytes, limit is %d", ErrInvalidConfig, path, info.Size(), MaxConfigFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
	}
	return nil
}

// applyEnv overrides fields from LOGICNODES_* variables.
func applyEnv(cfg *Config) error {
	if v := os.Getenv("LOGICNODES_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("LOGICNODES_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("LOGICNODES_STORAGE_IN_MEMORY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: LOGICNODES_STORAGE_IN_MEMORY: %w", ErrInvalidConfig, err)
		}
		cfg.Storage.InMemory = b
	}
	if v := os.Getenv("LOGICNODES_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("LOGICNODES_WATCH_DIR"); v != "" {
		cfg.WatchDir = v
	}
	return nil
}

// Validate checks struct-tag constraints.
func Validate(cfg Config) error {
	err := configValidate.Struct(cfg)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}
