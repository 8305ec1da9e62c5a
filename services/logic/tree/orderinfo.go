// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tree

import (
	"fmt"
	"strings"
	"text/tabwriter"
)

// ExecutionOrderInfo describes the solved order in readable form: the global
// order first, then one section per group. Each line lists priority, id,
// name, kind and class. Output is deterministic for an unchanged tree.
func (t *Tree) ExecutionOrderInfo() string {
	var sb strings.Builder
	if !t.upToDate {
		sb.WriteString("execution order is stale: call Setup first\n")
		return sb.String()
	}

	t.writeOrder(&sb, "global", t.order)
	for _, g := range t.Groups() {
		ps, ok := t.groupOrders[g]
		if !ok {
			continue
		}
		sb.WriteByte('\n')
		t.writeOrder(&sb, fmt.Sprintf("group %d", g), ps)
	}
	return sb.String()
}

func (t *Tree) writeOrder(sb *strings.Builder, title string, ps prioritySet) {
	fmt.Fprintf(sb, "[%s] %d nodes\n", title, ps.len())
	w := tabwriter.NewWriter(sb, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PRIORITY\tID\tNAME\tKIND\tCLASS")
	_ = ps.each(func(nd *nodeData) error {
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\n", nd.priority, nd.id(), nd.node.Name(), nd.node.Kind(), nd.class)
		return nil
	})
	_ = w.Flush()
}
