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

// runStop executes the 'stop' CLI command. Because a run's Controller lives
// in the memory of the 'cgraph run' process that started it, stopping a run
// from a separate CLI invocation is done by releasing its run lock's holder:
// this sends an interrupt (SIGINT) to the PID recorded in run.lock, which triggers the
// same graceful-cancellation path as Ctrl-C.
func runStop(args []string, configPath string, noColor bool) {
	fs := newFlagSet("stop")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: cgraph stop [options]

Stops the in-progress 'cgraph run' for this project, if any, by signaling
its process. Workers finish their current file before the process exits.

Options:
`)
		fs.PrintDefaults()
	}
	parseOrExit(fs, args)

	ui.InitColors(noColor)

	cfg, err := LoadConfig(configPath)
	if err != nil {
		clierr.FatalError(clierr.NewConfigError("cannot load project configuration", err.Error(), "run 'cgraph init' first", err), false)
	}

	dataDir, err := dataDirFor(cfg.ProjectID)
	if err != nil {
		clierr.FatalError(clierr.NewInternalError("cannot resolve data directory", err.Error(), "", err), false)
	}

	lock := NewRunLock(dataDir)
	info, err := lock.Info()
	if err != nil {
		clierr.FatalError(clierr.NewInternalError("cannot read run lock", err.Error(), "", err), false)
	}
	if info == nil {
		ui.Info("no run in progress for this project")
		return
	}

	proc, err := os.FindProcess(info.PID)
	if err != nil {
		clierr.FatalError(clierr.NewNotFoundError("cannot find run process", err.Error(), "the lock file may be stale; remove it manually"), false)
	}
	if err := proc.Signal(os.Interrupt); err != nil {
		clierr.FatalError(clierr.NewInternalError("cannot signal run process", err.Error(), "", err), false)
	}

	ui.Successf("sent stop signal to run process (pid %d)", info.PID)
}
