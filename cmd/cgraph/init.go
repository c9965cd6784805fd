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
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kraklabs/cgraph/pkg/llm"
)

// initFlags holds parsed flags for the init command.
type initFlags struct {
	force, nonInteractive  bool
	projectID              string
	neo4jURI               string
	neo4jUsername          string
	neo4jPassword          string
	llmProvider            string
	llmURL, llmModel       string
	llmAPIKey              string
}

// runInit executes the 'init' CLI command, creating a .cgraph/project.yaml
// configuration file.
//
// Examples:
//
//	cgraph init                               Interactive setup
//	cgraph init -y                             Use all defaults
//	cgraph init --neo4j-uri bolt://db:7687 -y  Non-interactive with a remote Neo4j
func runInit(args []string) {
	flags := parseInitFlags(args)

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot get current directory: %v\n", err)
		os.Exit(1)
	}

	configPath := ConfigPath(cwd)
	if _, err := os.Stat(configPath); err == nil && !flags.force {
		fmt.Fprintf(os.Stderr, "Error: %s already exists. Use --force to overwrite.\n", configPath)
		os.Exit(1)
	}

	cfg := createInitConfig(cwd, flags)
	reader := bufio.NewReader(os.Stdin)

	if !flags.nonInteractive {
		runInteractiveConfig(reader, cfg)
	}

	saveInitConfig(cwd, configPath, cfg)
	checkLLMConnectivity(cfg)
	printNextSteps()
}

func parseInitFlags(args []string) initFlags {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	var f initFlags
	fs.BoolVar(&f.force, "force", false, "Overwrite existing configuration")
	fs.BoolVar(&f.nonInteractive, "y", false, "Non-interactive mode (use defaults)")
	fs.StringVar(&f.projectID, "project-id", "", "Project identifier (default: directory name)")
	fs.StringVar(&f.neo4jURI, "neo4j-uri", "", "Neo4j bolt URI (default: bolt://localhost:7687)")
	fs.StringVar(&f.neo4jUsername, "neo4j-username", "", "Neo4j username (default: neo4j)")
	fs.StringVar(&f.neo4jPassword, "neo4j-password", "", "Neo4j password")
	fs.StringVar(&f.llmProvider, "llm-provider", "", "LLM provider: ollama, openai, anthropic, mock")
	fs.StringVar(&f.llmURL, "llm-url", "", "LLM API base URL")
	fs.StringVar(&f.llmModel, "llm-model", "", "LLM model name")
	fs.StringVar(&f.llmAPIKey, "llm-api-key", "", "LLM API key (optional for local models)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: cgraph init [options]

Creates .cgraph/project.yaml configuration file.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	return f
}

func createInitConfig(cwd string, f initFlags) *Config {
	pid := f.projectID
	if pid == "" {
		pid = filepath.Base(cwd)
	}
	cfg := DefaultConfig(pid)
	if f.neo4jURI != "" {
		cfg.Neo4j.URI = f.neo4jURI
	}
	if f.neo4jUsername != "" {
		cfg.Neo4j.Username = f.neo4jUsername
	}
	if f.neo4jPassword != "" {
		cfg.Neo4j.Password = f.neo4jPassword
	}
	if f.llmProvider != "" {
		cfg.LLM.Provider = f.llmProvider
	}
	if f.llmURL != "" {
		cfg.LLM.BaseURL = f.llmURL
	}
	if f.llmModel != "" {
		cfg.LLM.Model = f.llmModel
	}
	if f.llmAPIKey != "" {
		cfg.LLM.APIKey = f.llmAPIKey
	}
	return cfg
}

func runInteractiveConfig(reader *bufio.Reader, cfg *Config) {
	fmt.Println("cgraph Project Configuration")
	fmt.Println("============================")
	fmt.Println()

	cfg.ProjectID = prompt(reader, "Project ID", cfg.ProjectID)

	fmt.Println()
	fmt.Println("Graph store (Neo4j):")
	cfg.Neo4j.URI = prompt(reader, "Neo4j URI", cfg.Neo4j.URI)
	cfg.Neo4j.Username = prompt(reader, "Neo4j username", cfg.Neo4j.Username)
	cfg.Neo4j.Password = prompt(reader, "Neo4j password", cfg.Neo4j.Password)

	fmt.Println()
	fmt.Println("LLM providers: ollama, openai, anthropic, mock")
	cfg.LLM.Provider = prompt(reader, "LLM provider", cfg.LLM.Provider)
	if cfg.LLM.Provider != "mock" {
		cfg.LLM.BaseURL = prompt(reader, "LLM API base URL", cfg.LLM.BaseURL)
		cfg.LLM.Model = prompt(reader, "LLM model name", cfg.LLM.Model)
		cfg.LLM.APIKey = prompt(reader, "LLM API key (optional)", cfg.LLM.APIKey)
	}
	fmt.Println()
}

func saveInitConfig(cwd, configPath string, cfg *Config) {
	if err := os.MkdirAll(ConfigDir(cwd), 0o750); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot create .cgraph directory: %v\n", err)
		os.Exit(1)
	}
	if err := SaveConfig(cfg, configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot save configuration: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Created %s\n", configPath)
	addToGitignore(cwd)
}

// checkLLMConnectivity sends a single test message to the configured LLM
// provider and reports whether it responded. Failures are warnings, not
// fatal errors: the provider may simply not be running yet (e.g. Ollama
// hasn't been started).
func checkLLMConnectivity(cfg *Config) {
	if cfg.LLM.Provider == "mock" {
		return
	}

	provider, err := llm.NewProvider(llm.ProviderConfig{
		Type:         cfg.LLM.Provider,
		BaseURL:      cfg.LLM.BaseURL,
		APIKey:       cfg.LLM.APIKey,
		DefaultModel: cfg.LLM.Model,
		Timeout:      10 * time.Second,
	})
	if err != nil {
		fmt.Printf("Warning: could not create LLM provider: %v\n", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := llm.SingleTurn(ctx, provider, "Reply with OK."); err != nil {
		fmt.Printf("Warning: could not reach LLM provider %q: %v\n", provider.Name(), err)
		return
	}
	fmt.Printf("LLM provider %q is reachable.\n", provider.Name())
}

func printNextSteps() {
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Review and edit .cgraph/project.yaml if needed")
	fmt.Println("  2. Run 'cgraph run' to ingest your repository")
	fmt.Println("  3. Run 'cgraph status' to check progress")
}

// prompt displays an interactive prompt and reads user input from stdin,
// returning defaultValue if the user presses Enter without typing anything.
func prompt(reader *bufio.Reader, label, defaultValue string) string {
	if defaultValue != "" {
		fmt.Printf("%s [%s]: ", label, defaultValue)
	} else {
		fmt.Printf("%s: ", label)
	}

	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultValue
	}
	return input
}

// addToGitignore adds .cgraph/ to the project's .gitignore file if not
// already present. Silently returns if .gitignore does not exist.
func addToGitignore(dir string) {
	gitignorePath := filepath.Join(dir, ".gitignore")

	content, err := os.ReadFile(gitignorePath) //nolint:gosec // G304: gitignorePath built from repo dir
	if err != nil {
		return
	}

	lines := strings.Split(string(content), "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == ".cgraph/" || line == ".cgraph" || line == "/.cgraph/" || line == "/.cgraph" {
			return
		}
	}

	f, err := os.OpenFile(gitignorePath, os.O_APPEND|os.O_WRONLY, 0600) //nolint:gosec // G304: gitignorePath built from repo dir
	if err != nil {
		return
	}
	defer func() { _ = f.Close() }()

	if len(content) > 0 && content[len(content)-1] != '\n' {
		_, _ = f.WriteString("\n")
	}
	_, _ = f.WriteString("\n# cgraph configuration\n.cgraph/\n")
	fmt.Println("Added .cgraph/ to .gitignore")
}
