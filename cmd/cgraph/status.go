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
	"context"
	"fmt"
	"os"

	"github.com/kraklabs/cgraph/internal/bootstrap"
	"github.com/kraklabs/cgraph/internal/clierr"
	"github.com/kraklabs/cgraph/internal/output"
	"github.com/kraklabs/cgraph/internal/ui"
	"github.com/kraklabs/cgraph/pkg/llm"
)

// StatusResult is the data behind both the human-readable and --json
// renderings of 'cgraph status'.
type StatusResult struct {
	ProjectID      string `json:"project_id"`
	PendingWork    int    `json:"pending_work"`
	PendingIngest  int    `json:"pending_ingest"`
	ActiveRuns     int    `json:"active_runs"`
}

// runStatus executes the 'status' CLI command, reporting how much work is
// outstanding in the relational store and how many runs the controller
// considers active for this process.
//
// Note: run-specific phase/counters are only visible to the process that
// started the run (the in-memory Controller); a separate 'cgraph status'
// invocation after 'cgraph run' has exited reports queue depth instead.
func runStatus(args []string, configPath string, noColor bool) {
	fs := newFlagSet("status")
	jsonOutput := fs.Bool("json", false, "Output as JSON")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: cgraph status [options]

Reports outstanding work in the local relational store.

Options:
`)
		fs.PrintDefaults()
	}
	parseOrExit(fs, args)

	ui.InitColors(noColor)

	cfg, err := LoadConfig(configPath)
	if err != nil {
		clierr.FatalError(clierr.NewConfigError("cannot load project configuration", err.Error(), "run 'cgraph init' first", err), *jsonOutput)
	}

	ctx := context.Background()
	project, err := bootstrap.OpenProject(ctx, projectConfigFrom(cfg), &llm.MockProvider{}, nil)
	if err != nil {
		clierr.FatalError(clierr.NewDatabaseError("cannot open project stores", err.Error(), "run 'cgraph run' at least once first", err), *jsonOutput)
	}
	defer func() { _ = project.Close(ctx) }()

	pendingWork, err := project.Store.PendingWorkCount()
	if err != nil {
		clierr.FatalError(clierr.NewDatabaseError("cannot read work queue", err.Error(), "", err), *jsonOutput)
	}
	pendingIngest, err := project.Store.ListPendingIngestion(1 << 30)
	if err != nil {
		clierr.FatalError(clierr.NewDatabaseError("cannot read pending ingestion", err.Error(), "", err), *jsonOutput)
	}

	result := StatusResult{
		ProjectID:     cfg.ProjectID,
		PendingWork:   pendingWork,
		PendingIngest: len(pendingIngest),
		ActiveRuns:    project.Controller.Health(),
	}

	if *jsonOutput {
		_ = output.JSON(result)
		return
	}

	ui.Header(fmt.Sprintf("cgraph Project Status: %s", result.ProjectID))
	fmt.Printf("%s %s\n", ui.Label("Pending work items:"), ui.CountText(result.PendingWork))
	fmt.Printf("%s %s\n", ui.Label("Pending ingestion:"), ui.CountText(result.PendingIngest))
	fmt.Printf("%s %s\n", ui.Label("Active runs (this process):"), ui.CountText(result.ActiveRuns))
}
