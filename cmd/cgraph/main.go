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

// Package main implements the cgraph CLI: a code-knowledge-graph ingestion
// pipeline that discovers source files, extracts points of interest and
// relationships with an LLM, and materializes a deduplicated property graph
// in Neo4j.
//
// Usage:
//
//	cgraph init                 Create .cgraph/project.yaml configuration
//	cgraph run                  Run the full ingestion pipeline
//	cgraph status [--json]      Show the status of a run
//	cgraph stop                 Stop a running ingestion run
//	cgraph query <cypher>       Execute a Cypher query against the graph store
//	cgraph reset                Delete local project data (destructive!)
package main

import (
	"flag"
	"fmt"
	"os"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version and exit")
		configPath  = flag.String("config", "", "Path to .cgraph/project.yaml (default: ./.cgraph/project.yaml)")
		noColor     = flag.Bool("no-color", false, "Disable colored output")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `cgraph - code knowledge graph ingestion pipeline

Usage:
  cgraph <command> [options]

Commands:
  init      Create .cgraph/project.yaml configuration
  run       Run the ingestion pipeline against the current directory
  status    Show the status of a run
  stop      Stop a running ingestion run
  query     Execute a Cypher query against the graph store
  reset     Delete local project data (destructive!)

Global Options:
  --config    Path to .cgraph/project.yaml
  --no-color  Disable colored output
  --version   Show version and exit

Examples:
  cgraph init --llm-url http://localhost:11434
  cgraph run
  cgraph run --no-resolver
  cgraph status --json
  cgraph query "MATCH (f:Function) RETURN f.name LIMIT 10"

Data Storage:
  Relational evidence is stored locally in ~/.cgraph/data/<project_id>/cgraph.sqlite
  The materialized graph is stored in the configured Neo4j instance.

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("cgraph version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "init":
		runInit(cmdArgs)
	case "run":
		runRun(cmdArgs, *configPath, *noColor)
	case "status":
		runStatus(cmdArgs, *configPath, *noColor)
	case "stop":
		runStop(cmdArgs, *configPath, *noColor)
	case "query":
		runQuery(cmdArgs, *configPath)
	case "reset":
		runReset(cmdArgs, *configPath)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}
