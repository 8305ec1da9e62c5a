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

	"github.com/spf13/cobra"

	"github.com/AleutianAI/LogicNodes/services/logic/graphdesc"
	"github.com/AleutianAI/LogicNodes/services/logic/manager"
	"github.com/AleutianAI/LogicNodes/services/logic/tree"
)

func newRunCmd(st *cliState) *cobra.Command {
	var (
		group      int64
		times      int
		noDangling bool
		check      bool
		output     string
	)
	cmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Set up and execute a graph description",
		Long: `Load a description, solve its execution order and execute it, printing
the socket values of every output node after each run.

Examples:
  logicnodes run graphs/adder.yaml
  logicnodes run graphs/counter.yaml --times 5
  logicnodes run graphs/rig.yaml --group 2 --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, err := wantJSON(output, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if times < 1 {
				return fmt.Errorf("--times must be at least 1")
			}
			var scope *tree.GroupID
			if group >= 0 {
				g := tree.GroupID(group)
				scope = &g
			}

			desc, err := graphdesc.LoadFile(args[0])
			if err != nil {
				return err
			}
			m, err := manager.New(
				manager.WithLogger(st.logger.Slog()),
				manager.WithConnectDangling(!noDangling),
				manager.WithCheckResults(check || st.cfg.Manager.CheckResults),
			)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			id, err := m.Create(ctx, desc)
			if err != nil {
				return err
			}
			if err := m.Setup(ctx, id); err != nil {
				return err
			}

			results := make([]manager.RunResult, 0, times)
			for i := range times {
				res, err := m.Execute(ctx, id, scope)
				if err != nil {
					return fmt.Errorf("run %d: %w", i+1, err)
				}
				results = append(results, res)
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), results)
			}
			for i, res := range results {
				if err := writeRun(cmd.OutOrStdout(), i+1, res); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&group, "group", -1, "execute only this group")
	cmd.Flags().IntVar(&times, "times", 1, "number of executions")
	cmd.Flags().BoolVar(&noDangling, "no-dangling", false, "fail on unconnected inputs instead of using pool defaults")
	cmd.Flags().BoolVar(&check, "check", false, "verify solved priorities")
	cmd.Flags().StringVarP(&output, "output", "o", "auto", "output format: auto, text or json")
	return cmd
}
