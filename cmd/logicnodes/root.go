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
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/LogicNodes/pkg/logging"
	"github.com/AleutianAI/LogicNodes/services/logic/config"
)

// cliState is shared by every subcommand once the root pre-run has loaded
// configuration and logging.
type cliState struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg    config.Config
	logger *logging.Logger
}

func newRootCmd() *cobra.Command {
	st := &cliState{}

	root := &cobra.Command{
		Use:   "logicnodes",
		Short: "Build, inspect and serve logic-node execution graphs",
		Long: `logicnodes works with graphs of typed logic nodes described in YAML or
JSON. It solves their execution order, detects dependency cycles, runs
them, and serves them over HTTP.

Commands:
  run       Set up and execute a description file
  order     Print the solved execution order of a description file
  validate  Check description files without running them
  fmt       Print a description file as normalized YAML
  serve     Start the HTTP service
  graphs    List the descriptions persisted by the service`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return st.init(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if st.logger != nil {
				return st.logger.Close()
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&st.configPath, "config", "c", "", "path to a YAML configuration file")
	flags.StringVar(&st.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	flags.StringVar(&st.logFormat, "log-format", "", "log format: text or json (default: text on a terminal, json otherwise)")

	root.AddCommand(
		newRunCmd(st),
		newOrderCmd(st),
		newValidateCmd(st),
		newFmtCmd(st),
		newServeCmd(st),
		newGraphsCmd(st),
	)
	return root
}

func (st *cliState) init(cmd *cobra.Command) error {
	cfg, err := config.Load(st.configPath)
	if err != nil {
		return err
	}
	if st.logLevel != "" {
		cfg.Logging.Level = st.logLevel
	}
	if st.logFormat != "" {
		cfg.Logging.Format = st.logFormat
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	switch cfg.Logging.Format {
	case "", string(logging.FormatText), string(logging.FormatJSON):
	default:
		return fmt.Errorf("unknown log format %q", cfg.Logging.Format)
	}

	st.cfg = cfg
	st.logger = logging.New(logging.Config{
		Level:   level,
		LogDir:  cfg.Logging.Dir,
		Service: "logicnodes",
		Format:  logging.Format(cfg.Logging.Format),
		Output:  cmd.ErrOrStderr(),
	})
	slog.SetDefault(st.logger.Slog())
	return nil
}
