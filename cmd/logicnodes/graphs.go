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
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/LogicNodes/services/logic/graphdesc"
)

// storedGraph is one row of the graphs listing.
type storedGraph struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Nodes int       `json:"nodes"`
	Links int       `json:"links"`
}

func newGraphsCmd(st *cliState) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "graphs",
		Short: "List the descriptions persisted by the service",
		Long: `List the graph descriptions in the configured store. The service must
not be running against the same store path, since the store holds an
exclusive lock.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if st.cfg.Storage.InMemory {
				return errors.New("storage is in memory; nothing is persisted")
			}
			db, err := openStore(st, st.cfg.Storage)
			if err != nil {
				return err
			}
			defer db.Close()

			var rows []storedGraph
			err = db.Each(cmd.Context(), func(id uuid.UUID, d *graphdesc.Description) error {
				rows = append(rows, storedGraph{ID: id, Name: d.Name, Nodes: len(d.Nodes), Links: len(d.Links)})
				return nil
			})
			if err != nil {
				return err
			}

			if asJSON {
				if rows == nil {
					rows = []storedGraph{}
				}
				return writeJSON(cmd.OutOrStdout(), rows)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tNODES\tLINKS")
			for _, r := range rows {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", r.ID, r.Name, r.Nodes, r.Links)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
