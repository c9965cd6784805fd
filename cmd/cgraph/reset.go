// Copyright 2025 KrakLabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/kraklabs/cgraph/internal/clierr"
	"github.com/kraklabs/cgraph/internal/ui"
)

// runReset executes the 'reset' CLI command, deleting the local relational
// store for a project. The graph store is left untouched: Neo4j may be
// shared by other projects, so clearing it is left to an explicit Cypher
// query (e.g. 'cgraph query "MATCH (n) DETACH DELETE n"').
func runReset(args []string, configPath string) {
	fs := newFlagSet("reset")
	confirm := fs.Bool("yes", false, "Confirm the reset (required)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: cgraph reset [options]

Deletes the local relational store for this project, clearing all scouted
file state, work queue entries, and pending ingestion evidence. The graph
store in Neo4j is not touched.

WARNING: This operation is destructive and cannot be undone!

Options:
`)
		fs.PrintDefaults()
	}
	parseOrExit(fs, args)

	if !*confirm {
		fmt.Fprintf(os.Stderr, "Error: you must pass --yes to confirm the reset\n")
		fmt.Fprintf(os.Stderr, "This will delete all local relational data for the project.\n")
		os.Exit(1)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		clierr.FatalError(clierr.NewConfigError("cannot load project configuration", err.Error(), "run 'cgraph init' first", err), false)
	}

	dataDir, err := dataDirFor(cfg.ProjectID)
	if err != nil {
		clierr.FatalError(clierr.NewInternalError("cannot resolve data directory", err.Error(), "", err), false)
	}

	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		ui.Infof("no local data found for project %s", cfg.ProjectID)
		return
	}

	ui.Infof("resetting project %s (deleting %s)", cfg.ProjectID, dataDir)
	if err := os.RemoveAll(dataDir); err != nil {
		clierr.FatalError(clierr.NewPermissionError("failed to delete data", err.Error(), "", err), false)
	}

	ui.Success("reset complete: all local relational data has been deleted")
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  cgraph run    Re-ingest the project from scratch")
}
