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

import "log/slog"

// Option configures a Tree.
type Option func(*Tree)

// WithLogger sets the logger for warnings and setup diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tree) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithCheckResults verifies after every Setup that each parent's priority
// is strictly greater than its child's. Builds tagged logicdebug always check.
func WithCheckResults(on bool) Option {
	return func(t *Tree) {
		t.checkResults = on
	}
}
