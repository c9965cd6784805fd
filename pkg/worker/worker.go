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
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kraklabs/cgraph/pkg/llm"
	"github.com/kraklabs/cgraph/pkg/metrics"
	"github.com/kraklabs/cgraph/pkg/relstore"
)

// ResultSink is the narrow interface worker needs from the batch processor,
// kept separate from batch.Processor's concrete type so tests can stub it.
type ResultSink interface {
	QueueAnalysisResult(item *relstore.AnalysisResult)
	QueueFailedWork(workItemID int64, errorMessage, errorType string, retryCount int)
}

// Config configures a Worker's guardrails.
type Config struct {
	TargetDir       string
	MaxFileSizeByte int64
	WorkerID        string
}

func (c Config) withDefaults() Config {
	if c.MaxFileSizeByte <= 0 {
		c.MaxFileSizeByte = 1 << 20 // 1 MB
	}
	if c.WorkerID == "" {
		c.WorkerID = "worker"
	}
	return c
}

// Worker claims WorkItems from the relational store and converts each into a
// validated AnalysisResult or a FailedWork entry (spec.md §4.4).
type Worker struct {
	store    *relstore.Store
	provider llm.Provider
	sink     ResultSink
	cfg      Config
	logger   *slog.Logger
}

// New builds a Worker. provider is the out-of-scope LLM vendor collaborator,
// reached only through the llm.Provider interface contract.
func New(store *relstore.Store, provider llm.Provider, sink ResultSink, cfg Config, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{store: store, provider: provider, sink: sink, cfg: cfg.withDefaults(), logger: logger}
}

// Failure taxonomy strings recorded against FailedWork (spec.md §4.4).
const (
	failTypePathTraversal = "PATH_TRAVERSAL"
	failTypeFileTooLarge  = "FILE_TOO_LARGE"
	failTypeFileNotFound  = "FILE_NOT_FOUND"
	failTypeReadError     = "READ_ERROR"
)

// RunOnce claims one WorkItem and processes it, returning false when the
// queue is empty.
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	item, err := w.store.Claim(w.cfg.WorkerID)
	if errors.Is(err, relstore.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("worker: claim: %w", err)
	}

	w.process(ctx, item)
	return true, nil
}

// Run claims and processes WorkItems until the queue is empty or ctx is
// canceled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		more, err := w.RunOnce(ctx)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}

func (w *Worker) process(ctx context.Context, item *relstore.WorkItem) {
	start := time.Now()

	absPath, content, language, failType, err := w.resolveAndRead(item.FilePath)
	if err != nil {
		w.fail(item, err, failType, 0)
		return
	}
	if content == "" {
		// spec.md §8.2: empty file succeeds with zero POIs.
		w.succeed(item, &Response{FilePath: absPath}, 0, time.Since(start))
		return
	}

	chunks := SplitIntoChunks(content)
	responses := make([]*Response, 0, len(chunks))
	retryCount := 0

	for _, chunk := range chunks {
		resp, attempts, err := w.analyzeChunk(ctx, language, absPath, chunk.Content)
		retryCount += attempts
		if err != nil {
			w.fail(item, err, "LLM_CALL_FAILED", retryCount)
			return
		}
		responses = append(responses, resp)
	}

	merged := MergeResponses(absPath, responses)
	w.succeed(item, merged, retryCount, time.Since(start))
}

// resolveAndRead implements spec.md §4.4 steps 2-3: path-traversal guard,
// size guard, and a read. filePath is already the absolute path the Scout
// stamped on the WorkItem.
func (w *Worker) resolveAndRead(filePath string) (absPath, content, language, failType string, err error) {
	absPath, err = filepath.Abs(filePath)
	if err != nil {
		return "", "", "", failTypePathTraversal, fmt.Errorf("Invalid file path")
	}
	absTarget, err := filepath.Abs(w.cfg.TargetDir)
	if err != nil {
		return "", "", "", failTypePathTraversal, fmt.Errorf("Invalid file path")
	}
	rel, err := filepath.Rel(absTarget, absPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", "", "", failTypePathTraversal, fmt.Errorf("Invalid file path")
	}

	info, statErr := os.Stat(absPath)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return "", "", "", failTypeFileNotFound, fmt.Errorf("file not found: %s", absPath)
		}
		return "", "", "", failTypeReadError, fmt.Errorf("stat %s: %w", absPath, statErr)
	}
	if info.Size() > w.cfg.MaxFileSizeByte {
		return "", "", "", failTypeFileTooLarge, fmt.Errorf("SKIPPED_FILE_TOO_LARGE: %s (%d bytes)", absPath, info.Size())
	}

	data, readErr := os.ReadFile(absPath)
	if readErr != nil {
		return "", "", "", failTypeReadError, fmt.Errorf("read %s: %w", absPath, readErr)
	}

	return absPath, string(data), languageFor(absPath), "", nil
}

// analyzeChunk runs the call/sanitize/validate/correction loop for a single
// chunk (spec.md §4.4 step 5). Returns the number of LLM round-trips spent.
func (w *Worker) analyzeChunk(ctx context.Context, language, absPath, content string) (*Response, int, error) {
	prompt := GuardrailPrompt(language, absPath, content, "")
	messages := []llm.Message{{Role: "user", Content: prompt}}

	var lastRaw string
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		callStart := time.Now()
		chatResp, callErr := w.provider.Chat(ctx, llm.ChatRequest{Messages: messages})
		metrics.ObserveLLMCall(time.Since(callStart).Seconds())
		if callErr != nil {
			lastErr = callErr
			class := ClassifyError(callErr)
			metrics.IncRetry(string(class))
			w.sleepBackoff(ctx, class, attempt)
			continue
		}

		lastRaw = chatResp.Message.Content
		sanitized := Sanitize(lastRaw)

		parsed, parseErr := ParseResponse(sanitized)
		if parseErr != nil {
			lastErr = &ValidationError{Reason: parseErr.Error()}
			messages = append(messages, llm.Message{Role: "assistant", Content: lastRaw})
			messages = append(messages, llm.Message{Role: "user", Content: CorrectionPrompt(lastRaw, lastErr)})
			metrics.IncRetry(string(FailureValidation))
			w.sleepBackoff(ctx, FailureValidation, attempt)
			continue
		}

		entities, relationships, validateErr := Validate(parsed)
		if validateErr != nil {
			lastErr = validateErr
			messages = append(messages, llm.Message{Role: "assistant", Content: lastRaw})
			messages = append(messages, llm.Message{Role: "user", Content: CorrectionPrompt(lastRaw, validateErr)})
			metrics.IncRetry(string(FailureValidation))
			w.sleepBackoff(ctx, FailureValidation, attempt)
			continue
		}

		return &Response{FilePath: absPath, Entities: entities, Relationships: relationships}, attempt, nil
	}

	return nil, maxAttempts, fmt.Errorf("exhausted %d attempts: %w", maxAttempts, lastErr)
}

func (w *Worker) sleepBackoff(ctx context.Context, class FailureClass, attempt int) {
	d := Backoff(class, attempt)
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

func (w *Worker) succeed(item *relstore.WorkItem, resp *Response, retryCount int, elapsed time.Duration) {
	body, err := json.Marshal(resp)
	if err != nil {
		w.fail(item, fmt.Errorf("marshal response: %w", err), "UNEXPECTED", retryCount)
		return
	}

	w.sink.QueueAnalysisResult(&relstore.AnalysisResult{
		WorkItemID:           item.ID,
		FilePath:             item.FilePath,
		AbsoluteFilePath:     resp.FilePath,
		LLMOutput:            string(body),
		ValidationPassed:     true,
		EntitiesCount:        len(resp.Entities),
		RelationshipsCount:   len(resp.Relationships),
		RetryCount:           retryCount,
		ProcessingDurationMS: elapsed.Milliseconds(),
	})
	w.logger.Info("worker.process.succeeded",
		"work_item_id", item.ID, "entities", len(resp.Entities), "relationships", len(resp.Relationships))
}

func (w *Worker) fail(item *relstore.WorkItem, err error, errorType string, retryCount int) {
	w.sink.QueueFailedWork(item.ID, err.Error(), errorType, retryCount)
	w.logger.Warn("worker.process.failed", "work_item_id", item.ID, "error_type", errorType, "error", err)
}

func languageFor(path string) string {
	switch filepath.Ext(path) {
	case ".go":
		return "go"
	case ".py":
		return "python"
	case ".ts", ".tsx":
		return "typescript"
	case ".js", ".jsx":
		return "javascript"
	case ".java":
		return "java"
	case ".rb":
		return "ruby"
	case ".rs":
		return "rust"
	default:
		return "unknown"
	}
}
