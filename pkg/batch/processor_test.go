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

package batch

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/cgraph/pkg/relstore"
)

func openTestStore(t *testing.T) *relstore.Store {
	t.Helper()
	s, err := relstore.Open(relstore.Config{Path: filepath.Join(t.TempDir(), "db.sqlite")}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedWorkItem(t *testing.T, store *relstore.Store) int64 {
	t.Helper()
	fileID, err := store.UpsertFile(&relstore.File{Path: "a.go", AbsolutePath: "/repo/a.go", ContentHash: "h1"})
	require.NoError(t, err)
	workID, err := store.EnqueueWork(&relstore.WorkItem{FileID: fileID, FilePath: "/repo/a.go", ContentHash: "h1"})
	require.NoError(t, err)
	_, err = store.Claim("worker-1")
	require.NoError(t, err)
	return workID
}

func TestProcessor_ForceFlush_CommitsAnalysisAndCompletesWorkItem(t *testing.T) {
	store := openTestStore(t)
	workID := seedWorkItem(t, store)

	p := NewProcessor(store, Config{}, nil)
	p.QueueAnalysisResult(&relstore.AnalysisResult{
		WorkItemID: workID, FilePath: "a.go", AbsoluteFilePath: "/repo/a.go",
		LLMOutput: `{"entities":[],"relationships":[]}`, ValidationPassed: true,
	})
	p.ForceFlush()

	pending, err := store.ListPendingIngestion(10)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	item, err := store.GetWorkItem(workID)
	require.NoError(t, err)
	require.Equal(t, relstore.WorkStatusCompleted, item.Status)
}

func TestProcessor_FlushesAutomaticallyAtBatchSize(t *testing.T) {
	store := openTestStore(t)
	p := NewProcessor(store, Config{BatchSize: 2}, nil)

	for i := 0; i < 2; i++ {
		workID := seedWorkItem(t, store)
		p.QueueAnalysisResult(&relstore.AnalysisResult{
			WorkItemID: workID, FilePath: "a.go", AbsoluteFilePath: "/repo/a.go",
			LLMOutput: `{}`, ValidationPassed: true,
		})
	}

	require.Eventually(t, func() bool {
		pending, err := store.ListPendingIngestion(10)
		return err == nil && len(pending) == 2
	}, time.Second, 10*time.Millisecond)
}

func TestProcessor_QueueFailedWork_MarksWorkItemFailed(t *testing.T) {
	store := openTestStore(t)
	workID := seedWorkItem(t, store)

	p := NewProcessor(store, Config{}, nil)
	p.QueueFailedWork(workID, "schema validation failed", "validation", 5)
	p.ForceFlush()

	item, err := store.GetWorkItem(workID)
	require.NoError(t, err)
	require.Equal(t, relstore.WorkStatusFailed, item.Status)

	failures, err := store.ListFailuresForWorkItem(workID)
	require.NoError(t, err)
	require.Len(t, failures, 1)
	require.Equal(t, "validation", failures[0].ErrorType)
}

func TestProcessor_Shutdown_DrainsPendingQueue(t *testing.T) {
	store := openTestStore(t)
	workID := seedWorkItem(t, store)

	p := NewProcessor(store, Config{FlushInterval: time.Hour}, nil)
	p.Start()
	p.QueueAnalysisResult(&relstore.AnalysisResult{
		WorkItemID: workID, FilePath: "a.go", AbsoluteFilePath: "/repo/a.go",
		LLMOutput: `{}`, ValidationPassed: true,
	})
	p.Shutdown()

	pending, err := store.ListPendingIngestion(10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
}

func TestProcessor_ForceFlush_NoOpWhenEmpty(t *testing.T) {
	store := openTestStore(t)
	p := NewProcessor(store, Config{}, nil)
	p.ForceFlush() // must not panic or error with nothing queued
}
