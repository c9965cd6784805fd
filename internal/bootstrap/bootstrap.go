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

package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/kraklabs/cgraph/pkg/graphstore"
	"github.com/kraklabs/cgraph/pkg/llm"
	"github.com/kraklabs/cgraph/pkg/relstore"
	"github.com/kraklabs/cgraph/pkg/runctl"
)

// ProjectConfig holds everything needed to open a project's relational and
// graph stores.
type ProjectConfig struct {
	// ProjectID is the logical project identifier; also used to derive the
	// default relational store path.
	ProjectID string

	// DataDir is the directory holding the SQLite database file. Defaults
	// to ~/.cgraph/data/<project_id>.
	DataDir string

	// Neo4jURI, Neo4jUsername, Neo4jPassword, Neo4jDatabase configure the
	// graph store connection (spec.md's domain stack: Neo4j via the
	// official Go driver).
	Neo4jURI      string
	Neo4jUsername string
	Neo4jPassword string
	Neo4jDatabase string
}

func (c *ProjectConfig) withDefaults() error {
	if c.ProjectID == "" {
		return fmt.Errorf("project_id is required")
	}
	if c.DataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("get home dir: %w", err)
		}
		c.DataDir = filepath.Join(homeDir, ".cgraph", "data", c.ProjectID)
	}
	if c.Neo4jURI == "" {
		c.Neo4jURI = "bolt://localhost:7687"
	}
	if c.Neo4jDatabase == "" {
		c.Neo4jDatabase = "neo4j"
	}
	return nil
}

func (c ProjectConfig) relstorePath() string {
	return filepath.Join(c.DataDir, "cgraph.sqlite")
}

// Project bundles the opened relational store, graph driver, and run
// controller for one project. Close releases both stores.
type Project struct {
	Store      *relstore.Store
	Driver     neo4j.DriverWithContext
	Graph      *graphstore.Ingestor
	Controller *runctl.Controller
}

// Close releases the relational store and the graph driver.
func (p *Project) Close(ctx context.Context) error {
	var firstErr error
	if err := p.Store.Close(); err != nil {
		firstErr = fmt.Errorf("close relational store: %w", err)
	}
	if err := p.Driver.Close(ctx); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close graph driver: %w", err)
	}
	return firstErr
}

// InitProject initializes a new cgraph project: creates the data directory,
// opens (and migrates) the relational store, and verifies graph store
// connectivity. Idempotent: calling it again against an existing project is
// safe.
func InitProject(ctx context.Context, config ProjectConfig, provider llm.Provider, logger *slog.Logger) (*Project, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := config.withDefaults(); err != nil {
		return nil, err
	}

	logger.Info("bootstrap.project.init.start", "project_id", config.ProjectID, "data_dir", config.DataDir)

	if err := os.MkdirAll(config.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	store, err := relstore.Open(relstore.Config{Path: config.relstorePath()}, logger)
	if err != nil {
		return nil, fmt.Errorf("open relational store: %w", err)
	}

	driver, graph, err := openGraphStore(config, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = store.Close()
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verify graph store connectivity: %w", err)
	}

	controller := runctl.New(store, graph, provider, logger)

	logger.Info("bootstrap.project.init.success", "project_id", config.ProjectID, "data_dir", config.DataDir)
	return &Project{Store: store, Driver: driver, Graph: graph, Controller: controller}, nil
}

// OpenProject opens an existing cgraph project's stores without creating
// anything. Returns an error if the data directory does not exist.
func OpenProject(ctx context.Context, config ProjectConfig, provider llm.Provider, logger *slog.Logger) (*Project, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := config.withDefaults(); err != nil {
		return nil, err
	}

	if _, err := os.Stat(config.DataDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("project not found: %s (run 'cgraph init' first)", config.DataDir)
	}

	store, err := relstore.Open(relstore.Config{Path: config.relstorePath()}, logger)
	if err != nil {
		return nil, fmt.Errorf("open relational store: %w", err)
	}

	driver, graph, err := openGraphStore(config, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	logger.Debug("bootstrap.project.open", "project_id", config.ProjectID, "data_dir", config.DataDir)
	controller := runctl.New(store, graph, provider, logger)
	return &Project{Store: store, Driver: driver, Graph: graph, Controller: controller}, nil
}

func openGraphStore(config ProjectConfig, logger *slog.Logger) (neo4j.DriverWithContext, *graphstore.Ingestor, error) {
	auth := neo4j.BasicAuth(config.Neo4jUsername, config.Neo4jPassword, "")
	driver, err := neo4j.NewDriverWithContext(config.Neo4jURI, auth)
	if err != nil {
		return nil, nil, fmt.Errorf("create graph driver: %w", err)
	}
	graph := graphstore.NewIngestor(driver, config.Neo4jDatabase, logger)
	return driver, graph, nil
}

// ListProjects returns the project IDs found under the default data
// directory.
func ListProjects() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("get home dir: %w", err)
	}

	dataDir := filepath.Join(homeDir, ".cgraph", "data")
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read data dir: %w", err)
	}

	var projects []string
	for _, entry := range entries {
		if entry.IsDir() {
			projects = append(projects, entry.Name())
		}
	}
	return projects, nil
}
