// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/AleutianAI/LogicNodes/services/logic/config"
	"github.com/AleutianAI/LogicNodes/services/logic/manager"
	"github.com/AleutianAI/LogicNodes/services/logic/routes"
	"github.com/AleutianAI/LogicNodes/services/logic/storage/badger"
	"github.com/AleutianAI/LogicNodes/services/logic/telemetry"
	"github.com/AleutianAI/LogicNodes/services/logic/watch"
)

// shutdownTimeout bounds the graceful HTTP shutdown.
const shutdownTimeout = 10 * time.Second

func newServeCmd(st *cliState) *cobra.Command {
	var (
		addr     string
		watchDir string
		inMemory bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP service",
		Long: `Start the graph service. Stored descriptions are restored and set up
on startup. With --watch, description files in a directory are loaded and
kept in sync as they change.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := st.cfg
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if watchDir != "" {
				cfg.WatchDir = watchDir
			}
			if inMemory {
				cfg.Storage.InMemory = true
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, st, cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	cmd.Flags().StringVar(&watchDir, "watch", "", "directory of description files to load and watch")
	cmd.Flags().BoolVar(&inMemory, "in-memory", false, "do not persist descriptions")
	return cmd
}

func serve(ctx context.Context, st *cliState, cfg config.Config) error {
	logger := st.logger.Slog()

	shutdownTelemetry, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(sctx); err != nil {
			logger.Warn("Telemetry shutdown failed", "error", err)
		}
	}()

	db, err := openStore(st, cfg.Storage)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn("Closing graph store failed", "error", err)
		}
	}()

	m, err := manager.New(
		manager.WithStore(db),
		manager.WithLogger(logger),
		manager.WithDrainTimeout(cfg.Manager.DrainTimeout),
		manager.WithConnectDangling(cfg.Manager.ConnectDangling),
		manager.WithCheckResults(cfg.Manager.CheckResults),
	)
	if err != nil {
		return err
	}

	restored, err := m.Restore(ctx)
	if err != nil {
		// Individual bad records are not fatal.
		logger.Warn("Some stored graphs could not be restored", "error", err)
	}
	logger.Info("Restored graphs", "count", restored, "in_memory", db.InMemory())

	if cfg.WatchDir != "" {
		w, err := watch.New(cfg.WatchDir, m, watch.Options{
			Debounce: watch.DefaultOptions().Debounce,
			Logger:   logger.With("component", "watch"),
		})
		if err != nil {
			return err
		}
		loaded, err := w.Start(ctx)
		if err != nil {
			return err
		}
		defer w.Stop()
		logger.Info("Watching description directory", "dir", cfg.WatchDir, "loaded", loaded)
	}

	gin.SetMode(gin.ReleaseMode)
	router := routes.NewRouter(m, routes.Options{
		ServiceName:    cfg.Telemetry.ServiceName,
		RateLimit:      rate.Limit(cfg.Server.RateLimit),
		Burst:          cfg.Server.Burst,
		MetricsHandler: telemetry.MetricsHandler(),
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting logic graph service", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down logic graph service")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func openStore(st *cliState, sc config.StorageConfig) (*badger.DB, error) {
	bc := badger.InMemoryConfig()
	if !sc.InMemory {
		bc = badger.DefaultConfig(sc.Path)
		bc.GCInterval = sc.GCInterval
	}
	bc.Logger = st.logger.Slog().With("component", "badger")
	db, err := badger.Open(bc)
	if err != nil {
		return nil, fmt.Errorf("opening graph store: %w", err)
	}
	return db, nil
}
