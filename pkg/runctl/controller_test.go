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

package runctl

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/cgraph/pkg/graphstore"
	"github.com/kraklabs/cgraph/pkg/llm"
	"github.com/kraklabs/cgraph/pkg/relstore"
)

type fakeGraph struct {
	mu       sync.Mutex
	batches  []graphstore.Batch
	swept    [][]string
	failWith error
}

func (f *fakeGraph) IngestBatch(ctx context.Context, b graphstore.Batch) (graphstore.Stats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return graphstore.Stats{}, f.failWith
	}
	f.batches = append(f.batches, b)
	return graphstore.Stats{NodesMerged: len(b.Nodes), RelationshipsMerged: len(b.Relationships), RefactorsApplied: len(b.Refactors)}, nil
}

func (f *fakeGraph) SweepPaths(ctx context.Context, paths []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.swept = append(f.swept, paths)
	return nil
}

func openTestStore(t *testing.T) *relstore.Store {
	t.Helper()
	s, err := relstore.Open(relstore.Config{Path: filepath.Join(t.TempDir(), "db.sqlite")}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func waitForDone(t *testing.T, c *Controller, runID string) Status {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		status, ok := c.Status(runID)
		require.True(t, ok)
		if status.Phase == PhaseDone || status.Phase == PhaseFailed {
			return status
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("run did not finish in time")
	return Status{}
}

func chatFuncReturningEntity(filePath string) func(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	return func(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
		return &llm.ChatResponse{Message: llm.Message{Role: "assistant", Content: `{
			"filePath": "` + filePath + `",
			"entities": [{"type":"Function","name":"F","qualifiedName":"` + filePath + `--F"}],
			"relationships": []
		}`}}, nil
	}
}

func TestController_Start_RunsScoutWorkersAndIngestPhases(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "a.go")
	require.NoError(t, os.WriteFile(filePath, []byte("package a\n\nfunc F() {}\n"), 0o644))

	store := openTestStore(t)
	graph := &fakeGraph{}
	provider := &llm.MockProvider{ChatFunc: chatFuncReturningEntity(filePath)}

	c := New(store, graph, provider, nil)
	runID := c.Start(context.Background(), Config{TargetDir: dir, WorkerPoolSize: 2}, "")
	require.NotEmpty(t, runID)

	status := waitForDone(t, c, runID)
	require.Equal(t, PhaseDone, status.Phase)
	require.NoError(t, status.Err)
	require.Equal(t, 1, status.Counters["scout.new"])

	result, ok := c.Result(runID)
	require.True(t, ok)
	require.Equal(t, 1, result.Scout.NewCount)
	require.Equal(t, 1, result.IngestStats.NodesMerged)

	graph.mu.Lock()
	defer graph.mu.Unlock()
	require.Len(t, graph.batches, 1)
	require.Len(t, graph.batches[0].Nodes, 1)
}

func TestController_Start_HonorsCallerSuppliedRunID(t *testing.T) {
	store := openTestStore(t)
	c := New(store, &fakeGraph{}, &llm.MockProvider{}, nil)

	runID := c.Start(context.Background(), Config{TargetDir: t.TempDir()}, "my-run")
	require.Equal(t, "my-run", runID)
	waitForDone(t, c, runID)
}

func TestController_Status_UnknownRunIDReturnsFalse(t *testing.T) {
	store := openTestStore(t)
	c := New(store, &fakeGraph{}, &llm.MockProvider{}, nil)

	_, ok := c.Status("does-not-exist")
	require.False(t, ok)
}

func TestController_Start_RunReconcilerSweepsDeletedFiles(t *testing.T) {
	store := openTestStore(t)
	_, err := store.UpsertFile(&relstore.File{Path: "gone.go", AbsolutePath: "/gone.go", ContentHash: "h", Status: relstore.FileStatusCompleted})
	require.NoError(t, err)

	graph := &fakeGraph{}
	c := New(store, graph, &llm.MockProvider{}, nil)

	runID := c.Start(context.Background(), Config{TargetDir: t.TempDir(), RunReconciler: true}, "")
	status := waitForDone(t, c, runID)
	require.Equal(t, PhaseDone, status.Phase)
	require.Equal(t, 1, status.Counters["reconcile.marked"])
	require.Equal(t, 1, status.Counters["reconcile.swept"])

	graph.mu.Lock()
	defer graph.mu.Unlock()
	require.Len(t, graph.swept, 1)
}

func TestController_Start_IngestFailurePropagatesToStatus(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "a.go")
	require.NoError(t, os.WriteFile(filePath, []byte("package a\n\nfunc F() {}\n"), 0o644))

	store := openTestStore(t)
	graph := &fakeGraph{failWith: errors.New("graph unavailable")}
	provider := &llm.MockProvider{ChatFunc: chatFuncReturningEntity(filePath)}

	c := New(store, graph, provider, nil)
	runID := c.Start(context.Background(), Config{TargetDir: dir}, "")

	status := waitForDone(t, c, runID)
	require.Equal(t, PhaseFailed, status.Phase)
	require.Error(t, status.Err)

	_, ok := c.Result(runID)
	require.False(t, ok)
}

func TestController_Stop_CancelsRun(t *testing.T) {
	store := openTestStore(t)
	c := New(store, &fakeGraph{}, &llm.MockProvider{}, nil)

	runID := c.Start(context.Background(), Config{TargetDir: t.TempDir()}, "")
	ok := c.Stop(runID)
	require.True(t, ok)

	ok = c.Stop("does-not-exist")
	require.False(t, ok)
}

func TestController_Health_CountsActiveRuns(t *testing.T) {
	store := openTestStore(t)
	c := New(store, &fakeGraph{}, &llm.MockProvider{}, nil)

	runID := c.Start(context.Background(), Config{TargetDir: t.TempDir()}, "")
	waitForDone(t, c, runID)
	require.Equal(t, 0, c.Health())
}
