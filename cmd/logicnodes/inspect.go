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
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/LogicNodes/services/logic/graphdesc"
	"github.com/AleutianAI/LogicNodes/services/logic/tree"
)

// buildAndSetup loads a description and solves its order.
func buildAndSetup(st *cliState, path string, connectDangling bool) (*tree.Tree, error) {
	desc, err := graphdesc.LoadFile(path)
	if err != nil {
		return nil, err
	}
	t, err := graphdesc.Build(desc,
		tree.WithLogger(st.logger.Slog().With("graph", desc.Name)),
		tree.WithCheckResults(true),
	)
	if err != nil {
		return nil, err
	}
	return t, t.Setup(connectDangling)
}

func newOrderCmd(st *cliState) *cobra.Command {
	var noDangling bool
	cmd := &cobra.Command{
		Use:   "order FILE",
		Short: "Print the solved execution order of a graph description",
		Long: `Solve the execution order and print it as priority buckets, first for
the whole graph, then for each group. Parents always carry a higher
priority than their children and execute first.

On a dependency cycle the command fails and prints the cycle path.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := buildAndSetup(st, args[0], !noDangling)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), t.ExecutionOrderInfo())
			return nil
		},
	}
	cmd.Flags().BoolVar(&noDangling, "no-dangling", false, "fail on unconnected inputs")
	return cmd
}

// errValidationFailed is returned when at least one file is invalid.
var errValidationFailed = errors.New("validation failed")

func newValidateCmd(st *cliState) *cobra.Command {
	var setup bool
	cmd := &cobra.Command{
		Use:   "validate FILE...",
		Short: "Check graph descriptions",
		Long: `Validate each description: schema, node types, link endpoints and
sockets, defaults, and (unless --setup=false) the execution order, which
catches dependency cycles and missing output nodes.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := 0
			for _, path := range args {
				var err error
				if setup {
					_, err = buildAndSetup(st, path, true)
				} else {
					var desc *graphdesc.Description
					if desc, err = graphdesc.LoadFile(path); err == nil {
						err = graphdesc.Validate(desc)
					}
				}
				if err != nil {
					failed++
					fmt.Fprintf(out, "FAIL %s\n  %v\n", path, err)
					continue
				}
				fmt.Fprintf(out, "ok   %s\n", path)
			}
			if failed > 0 {
				return fmt.Errorf("%w: %d of %d files", errValidationFailed, failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&setup, "setup", true, "also solve the execution order")
	return cmd
}

func newFmtCmd(st *cliState) *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "fmt FILE",
		Short: "Print a graph description as normalized YAML",
		Long: `Parse a YAML or JSON description, validate it, and print it as YAML
with the canonical field order. JSON descriptions convert to YAML this way.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, err := graphdesc.LoadFile(args[0])
			if err != nil {
				return err
			}
			if check {
				if err := graphdesc.Validate(desc); err != nil {
					return err
				}
			}
			data, err := desc.EncodeYAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().BoolVar(&check, "validate", true, "reject invalid descriptions")
	return cmd
}
