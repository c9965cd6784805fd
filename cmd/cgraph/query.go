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
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

func runQuery(args []string, configPath string) {
	fs := newFlagSet("query")
	jsonOutput := fs.Bool("json", false, "Output as JSON")
	timeout := fs.Duration("timeout", 30*time.Second, "Query timeout")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: cgraph query [options] <cypher>

Executes a Cypher query against the project's Neo4j graph store.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  cgraph query "MATCH (f:Function) RETURN f.qualifiedName LIMIT 10"
  cgraph query "MATCH (a)-[r:CALLS]->(b) RETURN a.name, b.name LIMIT 10"
  cgraph query "MATCH (f:File) RETURN count(f) AS files"

`)
	}
	parseOrExit(fs, args)

	if fs.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: cypher argument required\n")
		fs.Usage()
		os.Exit(1)
	}
	cypher := fs.Arg(0)

	cfg, err := LoadConfig(configPath)
	if err != nil {
		reportQueryErr(err, *jsonOutput)
	}

	auth := neo4j.BasicAuth(cfg.Neo4j.Username, cfg.Neo4j.Password, "")
	driver, err := neo4j.NewDriverWithContext(cfg.Neo4j.URI, auth)
	if err != nil {
		reportQueryErr(fmt.Errorf("create graph driver: %w", err), *jsonOutput)
	}
	defer func() { _ = driver.Close(context.Background()) }()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	result, err := neo4j.ExecuteQuery(ctx, driver, cypher, nil, neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(cfg.Neo4j.Database))
	if err != nil {
		reportQueryErr(fmt.Errorf("query failed: %w", err), *jsonOutput)
	}

	if *jsonOutput {
		printQueryJSON(result)
	} else {
		printQueryTable(result)
	}
}

func reportQueryErr(err error, jsonOutput bool) {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(map[string]any{"error": err.Error()})
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(1)
}

func printQueryJSON(result *neo4j.EagerResult) {
	rows := make([][]any, 0, len(result.Records))
	for _, rec := range result.Records {
		rows = append(rows, rec.Values)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(map[string]any{
		"keys":  result.Keys,
		"rows":  rows,
		"count": len(rows),
	})
}

func printQueryTable(result *neo4j.EagerResult) {
	if len(result.Records) == 0 {
		fmt.Println("No results")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for i, key := range result.Keys {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, strings.ToUpper(key))
	}
	fmt.Fprintln(w)
	for i := range result.Keys {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, "---")
	}
	fmt.Fprintln(w)

	for _, rec := range result.Records {
		for i, v := range rec.Values {
			if i > 0 {
				fmt.Fprint(w, "\t")
			}
			fmt.Fprint(w, formatQueryCell(v))
		}
		fmt.Fprintln(w)
	}
	_ = w.Flush()
	fmt.Printf("\n(%d rows)\n", len(result.Records))
}

func formatQueryCell(v any) string {
	s := fmt.Sprintf("%v", v)
	if v == nil {
		return "<null>"
	}
	if len(s) > 80 {
		return s[:77] + "..."
	}
	return s
}
