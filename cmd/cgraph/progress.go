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
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// ProgressConfig determines if and how run progress should be displayed.
type ProgressConfig struct {
	Enabled bool
	Writer  io.Writer
	NoColor bool
}

// NewProgressConfig builds a ProgressConfig from the --json/--no-color flags
// and TTY detection. Progress is disabled for JSON output or non-TTY stderr.
func NewProgressConfig(jsonOutput, noColor bool) ProgressConfig {
	return ProgressConfig{
		Enabled: !jsonOutput && isatty.IsTerminal(os.Stderr.Fd()),
		Writer:  os.Stderr,
		NoColor: noColor,
	}
}

// NewSpinner creates an indeterminate spinner for the run's phase display,
// since total work per phase is not known up front. Returns nil if progress
// is disabled.
func NewSpinner(cfg ProgressConfig, description string) *progressbar.ProgressBar {
	if !cfg.Enabled {
		return nil
	}
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(cfg.Writer),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionEnableColorCodes(!cfg.NoColor),
	)
}

// describePhase renders a one-line summary of a run phase and its counters
// for the spinner description.
func describePhase(phase string, counters map[string]int) string {
	desc := phase
	for _, key := range []string{"scout.new", "scout.modified", "ingest.nodes_merged", "ingest.relationships_merged"} {
		if v, ok := counters[key]; ok {
			desc += fmt.Sprintf(" %s=%d", key, v)
		}
	}
	return desc
}
