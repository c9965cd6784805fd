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

package worker

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/cgraph/pkg/llm"
	"github.com/kraklabs/cgraph/pkg/relstore"
)

type fakeSink struct {
	mu       sync.Mutex
	results  []*relstore.AnalysisResult
	failures []string
}

func (f *fakeSink) QueueAnalysisResult(item *relstore.AnalysisResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, item)
}

func (f *fakeSink) QueueFailedWork(workItemID int64, errorMessage, errorType string, retryCount int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = append(f.failures, errorType)
}

func openTestStore(t *testing.T) *relstore.Store {
	t.Helper()
	s, err := relstore.Open(relstore.Config{Path: filepath.Join(t.TempDir(), "db.sqlite")}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedClaimableWorkItem(t *testing.T, store *relstore.Store, absPath string) {
	t.Helper()
	fileID, err := store.UpsertFile(&relstore.File{Path: filepath.Base(absPath), AbsolutePath: absPath, ContentHash: "h1"})
	require.NoError(t, err)
	_, err = store.EnqueueWork(&relstore.WorkItem{FileID: fileID, FilePath: absPath, ContentHash: "h1"})
	require.NoError(t, err)
}

func TestWorker_RunOnce_SuccessPath(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "a.go")
	require.NoError(t, os.WriteFile(filePath, []byte("package a\n\nfunc F() {}\n"), 0o644))

	store := openTestStore(t)
	seedClaimableWorkItem(t, store, filePath)

	provider := &llm.MockProvider{
		ChatFunc: func(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
			return &llm.ChatResponse{Message: llm.Message{Role: "assistant", Content: `{
				"filePath": "` + filePath + `",
				"entities": [{"type":"Function","name":"F","qualifiedName":"` + filePath + `--F"}],
				"relationships": []
			}`}}, nil
		},
	}

	sink := &fakeSink{}
	w := New(store, provider, sink, Config{TargetDir: dir}, nil)

	more, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	require.True(t, more)

	require.Len(t, sink.results, 1)
	require.Equal(t, 1, sink.results[0].EntitiesCount)
	require.Empty(t, sink.failures)
}

func TestWorker_RunOnce_EmptyQueueReturnsFalse(t *testing.T) {
	store := openTestStore(t)
	w := New(store, &llm.MockProvider{}, &fakeSink{}, Config{TargetDir: t.TempDir()}, nil)

	more, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	require.False(t, more)
}

func TestWorker_RunOnce_EmptyFileSucceedsWithZeroPOIs(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "empty.go")
	require.NoError(t, os.WriteFile(filePath, []byte{}, 0o644))

	store := openTestStore(t)
	seedClaimableWorkItem(t, store, filePath)

	sink := &fakeSink{}
	w := New(store, &llm.MockProvider{}, sink, Config{TargetDir: dir}, nil)

	more, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	require.True(t, more)
	require.Len(t, sink.results, 1)
	require.Equal(t, 0, sink.results[0].EntitiesCount)
}

func TestWorker_RunOnce_FileTooLargeFails(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "big.go")
	require.NoError(t, os.WriteFile(filePath, make([]byte, 2048), 0o644))

	store := openTestStore(t)
	seedClaimableWorkItem(t, store, filePath)

	sink := &fakeSink{}
	w := New(store, &llm.MockProvider{}, sink, Config{TargetDir: dir, MaxFileSizeByte: 1024}, nil)

	more, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	require.True(t, more)
	require.Len(t, sink.failures, 1)
	require.Equal(t, failTypeFileTooLarge, sink.failures[0])
}

func TestWorker_RunOnce_PathTraversalRejected(t *testing.T) {
	dir := t.TempDir()
	outside := filepath.Join(t.TempDir(), "outside.go")
	require.NoError(t, os.WriteFile(outside, []byte("package x\n"), 0o644))

	store := openTestStore(t)
	seedClaimableWorkItem(t, store, outside)

	sink := &fakeSink{}
	w := New(store, &llm.MockProvider{}, sink, Config{TargetDir: dir}, nil)

	more, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	require.True(t, more)
	require.Len(t, sink.failures, 1)
	require.Equal(t, failTypePathTraversal, sink.failures[0])
}

func TestWorker_RunOnce_ExhaustsRetriesOnPersistentValidationFailure(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "a.go")
	require.NoError(t, os.WriteFile(filePath, []byte("package a\n"), 0o644))

	store := openTestStore(t)
	seedClaimableWorkItem(t, store, filePath)

	provider := &llm.MockProvider{
		ChatFunc: func(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
			return &llm.ChatResponse{Message: llm.Message{Content: `not json at all`}}, nil
		},
	}

	sink := &fakeSink{}
	w := New(store, provider, sink, Config{TargetDir: dir}, nil)

	// Use an already-canceled context so each retry's backoff sleep returns
	// immediately via ctx.Done() instead of running the full classified delay.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	more, err := w.RunOnce(ctx)
	require.NoError(t, err)
	require.True(t, more)
	require.Len(t, sink.failures, 1)
	require.Equal(t, "LLM_CALL_FAILED", sink.failures[0])
}
