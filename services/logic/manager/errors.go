// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package manager

import "errors"

var (
	// ErrGraphNotFound is returned when no graph is registered under the id.
	ErrGraphNotFound = errors.New("graph not found")

	// ErrDrainTimeout is returned by Delete when in-flight requests did not
	// finish within the drain timeout. The graph is already unregistered.
	ErrDrainTimeout = errors.New("timed out draining in-flight requests")

	// ErrNilDescription is returned by Create and Put for a nil description.
	ErrNilDescription = errors.New("nil graph description")
)
