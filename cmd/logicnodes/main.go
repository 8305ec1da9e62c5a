// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command logicnodes builds, inspects and serves logic-node graphs.
//
// Usage:
//
//	logicnodes run graphs/adder.yaml --times 3
//	logicnodes order graphs/adder.yaml
//	logicnodes validate graphs/*.yaml
//	logicnodes serve --config logicnodes.yaml --watch ./graphs
//	logicnodes graphs
//
// Example requests against a running server:
//
//	# Create and set up a graph
//	curl -X POST 'http://127.0.0.1:8088/v1/graphs?setup=true' \
//	  -H 'Content-Type: application/yaml' --data-binary @graphs/adder.yaml
//
//	# Execute it
//	curl -X POST http://127.0.0.1:8088/v1/graphs/<id>/execute | jq
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
