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
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kraklabs/cgraph/internal/bootstrap"
)

// newFlagSet returns a FlagSet configured to exit the process on parse
// errors, matching every subcommand's usage pattern.
func newFlagSet(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ExitOnError)
}

// parseOrExit parses args with fs, exiting with status 1 on failure.
func parseOrExit(fs *flag.FlagSet, args []string) {
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
}

// dataDirFor returns the default data directory for a project ID:
// ~/.cgraph/data/<project_id>.
func dataDirFor(projectID string) (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(homeDir, ".cgraph", "data", projectID), nil
}

// projectConfigFrom maps the persisted project.yaml config into the
// bootstrap package's ProjectConfig.
func projectConfigFrom(cfg *Config) bootstrap.ProjectConfig {
	return bootstrap.ProjectConfig{
		ProjectID:     cfg.ProjectID,
		Neo4jURI:      cfg.Neo4j.URI,
		Neo4jUsername: cfg.Neo4j.Username,
		Neo4jPassword: cfg.Neo4j.Password,
		Neo4jDatabase: cfg.Neo4j.Database,
	}
}
