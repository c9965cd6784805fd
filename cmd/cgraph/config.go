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
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the persisted contents of .cgraph/project.yaml. It is loaded by
// every subcommand except init (which creates it) and ties a working
// directory to a project ID, the relational/graph store connection details,
// and the LLM provider used to extract points of interest.
type Config struct {
	ProjectID string `yaml:"project_id"`

	Neo4j struct {
		URI      string `yaml:"uri"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		Database string `yaml:"database"`
	} `yaml:"neo4j"`

	LLM struct {
		Provider   string `yaml:"provider"`
		BaseURL    string `yaml:"base_url,omitempty"`
		Model      string `yaml:"model,omitempty"`
		APIKey     string `yaml:"api_key,omitempty"`
		MaxRetries int    `yaml:"max_retries,omitempty"`
	} `yaml:"llm"`

	Run struct {
		WorkerPoolSize   int  `yaml:"worker_pool_size"`
		IngestBatchLimit int  `yaml:"ingest_batch_limit"`
		MaxFileSizeBytes int  `yaml:"max_file_size_bytes"`
		RunResolver      bool `yaml:"run_resolver"`
		RunReconciler    bool `yaml:"run_reconciler"`
	} `yaml:"run"`
}

// DefaultConfig returns a Config populated with the same defaults a fresh
// 'cgraph init' would write, for the given project ID.
func DefaultConfig(projectID string) *Config {
	cfg := &Config{ProjectID: projectID}
	cfg.Neo4j.URI = "bolt://localhost:7687"
	cfg.Neo4j.Username = "neo4j"
	cfg.Neo4j.Database = "neo4j"
	cfg.LLM.Provider = "ollama"
	cfg.LLM.BaseURL = "http://localhost:11434"
	cfg.LLM.Model = "qwen2.5-coder"
	cfg.LLM.MaxRetries = 3
	cfg.Run.WorkerPoolSize = 50
	cfg.Run.IngestBatchLimit = 200
	cfg.Run.MaxFileSizeBytes = 1 << 20
	cfg.Run.RunResolver = true
	cfg.Run.RunReconciler = true
	return cfg
}

// ConfigDir returns the .cgraph directory for the given working directory.
func ConfigDir(cwd string) string {
	return filepath.Join(cwd, ".cgraph")
}

// ConfigPath returns the path to project.yaml under cwd's .cgraph directory.
func ConfigPath(cwd string) string {
	return filepath.Join(ConfigDir(cwd), "project.yaml")
}

// LoadConfig reads and parses project.yaml from path. If path is empty, it
// resolves to ConfigPath of the current directory.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get current directory: %w", err)
		}
		path = ConfigPath(cwd)
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: path is operator-supplied CLI input
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no project configuration at %s (run 'cgraph init' first)", path)
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("config %s is missing project_id", path)
	}
	return &cfg, nil
}

// SaveConfig writes cfg as YAML to path, creating the parent directory if
// necessary.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
