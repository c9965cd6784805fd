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
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("myproject")
	if cfg.ProjectID != "myproject" {
		t.Errorf("ProjectID = %q, want %q", cfg.ProjectID, "myproject")
	}
	if cfg.Neo4j.URI == "" {
		t.Error("Neo4j.URI should have a default")
	}
	if cfg.Run.WorkerPoolSize <= 0 {
		t.Error("Run.WorkerPoolSize should have a positive default")
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := ConfigPath(dir)

	cfg := DefaultConfig("roundtrip-project")
	cfg.Neo4j.Password = "secret"
	cfg.LLM.Model = "qwen2.5-coder"

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if loaded.ProjectID != cfg.ProjectID {
		t.Errorf("ProjectID = %q, want %q", loaded.ProjectID, cfg.ProjectID)
	}
	if loaded.Neo4j.Password != "secret" {
		t.Errorf("Neo4j.Password = %q, want %q", loaded.Neo4j.Password, "secret")
	}
	if loaded.LLM.Model != "qwen2.5-coder" {
		t.Errorf("LLM.Model = %q, want %q", loaded.LLM.Model, "qwen2.5-coder")
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadConfig_MissingProjectID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "project.yaml")
	if err := SaveConfig(&Config{}, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for config with empty project_id")
	}
}

func TestConfigDirAndPath(t *testing.T) {
	cwd := "/home/user/repo"
	if got := ConfigDir(cwd); got != filepath.Join(cwd, ".cgraph") {
		t.Errorf("ConfigDir = %q", got)
	}
	if got := ConfigPath(cwd); got != filepath.Join(cwd, ".cgraph", "project.yaml") {
		t.Errorf("ConfigPath = %q", got)
	}
}
