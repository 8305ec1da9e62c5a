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
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/mattn/go-isatty"

	"github.com/AleutianAI/LogicNodes/services/logic/manager"
)

// wantJSON resolves an --output flag value. "auto" selects JSON when w is
// not a terminal.
func wantJSON(format string, w io.Writer) (bool, error) {
	switch format {
	case "json":
		return true, nil
	case "text":
		return false, nil
	case "", "auto":
		f, ok := w.(*os.File)
		if !ok {
			return false, nil
		}
		return !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()), nil
	default:
		return false, fmt.Errorf("unknown output format %q (want auto, text or json)", format)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeRun(w io.Writer, n int, res manager.RunResult) error {
	fmt.Fprintf(w, "run %d  id=%s  nodes=%d  duration=%s\n", n, res.RunID, res.Nodes, res.Duration)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NODE\tID\tSOCKET\tDIR\tTYPE\tVALUE")
	for _, v := range res.Outputs {
		value := "-"
		if v.HasData {
			value = fmt.Sprint(v.Value)
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\n", v.Node, v.NodeID, v.Socket, v.Direction, v.Type, value)
	}
	return tw.Flush()
}
