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
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kraklabs/cgraph/pkg/metrics"
	"github.com/kraklabs/cgraph/pkg/relstore"
)

// Config tunes Processor's queue capacity and flush cadence (spec.md §4.3
// policy, all defaults match the spec).
type Config struct {
	QueueCapacity int
	BatchSize     int
	FlushInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = 1000
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = time.Second
	}
	return c
}

// analysisItem and failedItem are exactly what queueAnalysisResult and
// queueFailedWork accept; kept distinct from relstore's row types so callers
// don't need to know relstore's schema shape.
type analysisItem struct {
	workItemID           int64
	filePath             string
	absoluteFilePath     string
	llmOutputJSON        string
	validationPassed     bool
	entitiesCount        int
	relationshipsCount   int
	retryCount           int
	processingDurationMS int64
}

type failedItem struct {
	workItemID   int64
	errorMessage string
	errorType    string
	retryCount   int
}

// Processor is the single coordinator between worker goroutines and the
// relational store's single SQLite writer connection.
type Processor struct {
	store  *relstore.Store
	cfg    Config
	logger *slog.Logger

	mu           sync.Mutex
	analysisBuf  []analysisItem
	failedBuf    []failedItem

	stopCh chan struct{}
	doneCh chan struct{}
	once   sync.Once
}

// NewProcessor builds a Processor. Call Start to begin the flush timer and
// Shutdown to drain and stop it.
func NewProcessor(store *relstore.Store, cfg Config, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		store:  store,
		cfg:    cfg.withDefaults(),
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start launches the background flush-on-timer loop. Safe to call once.
func (p *Processor) Start() {
	go p.loop()
}

func (p *Processor) loop() {
	defer close(p.doneCh)
	ticker := time.NewTicker(p.cfg.FlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.ForceFlush()
			p.reportQueueDepth()
		case <-p.stopCh:
			p.ForceFlush()
			return
		}
	}
}

// reportQueueDepth samples the work-queue depth for the /metrics scrape
// surface. Best-effort: a query failure is logged, not fatal to the loop.
func (p *Processor) reportQueueDepth() {
	n, err := p.store.PendingWorkCount()
	if err != nil {
		p.logger.Warn("batch.queue_depth.query_failed", "error", err)
		return
	}
	metrics.SetQueueDepth(n)
}

// QueueAnalysisResult enqueues a validated worker result. Non-blocking;
// flushes synchronously if the queue has reached BatchSize.
func (p *Processor) QueueAnalysisResult(item *relstore.AnalysisResult) {
	p.mu.Lock()
	if len(p.analysisBuf) >= p.cfg.QueueCapacity {
		p.logger.Warn("batch.analysis_queue.full", "capacity", p.cfg.QueueCapacity)
	}
	p.analysisBuf = append(p.analysisBuf, analysisItem{
		workItemID:           item.WorkItemID,
		filePath:             item.FilePath,
		absoluteFilePath:     item.AbsoluteFilePath,
		llmOutputJSON:        item.LLMOutput,
		validationPassed:     item.ValidationPassed,
		entitiesCount:        item.EntitiesCount,
		relationshipsCount:   item.RelationshipsCount,
		retryCount:           item.RetryCount,
		processingDurationMS: item.ProcessingDurationMS,
	})
	shouldFlush := len(p.analysisBuf) >= p.cfg.BatchSize
	p.mu.Unlock()

	if shouldFlush {
		p.flushAnalysis()
	}
}

// QueueFailedWork enqueues a permanently-failed work item for recording.
func (p *Processor) QueueFailedWork(workItemID int64, errorMessage, errorType string, retryCount int) {
	p.mu.Lock()
	p.failedBuf = append(p.failedBuf, failedItem{
		workItemID:   workItemID,
		errorMessage: errorMessage,
		errorType:    errorType,
		retryCount:   retryCount,
	})
	shouldFlush := len(p.failedBuf) >= p.cfg.BatchSize
	p.mu.Unlock()

	if shouldFlush {
		p.flushFailed()
	}
}

// ForceFlush flushes both queues regardless of size.
func (p *Processor) ForceFlush() {
	p.flushAnalysis()
	p.flushFailed()
}

// Shutdown stops the timer loop and performs a final flush, guaranteeing
// every queued item has been committed or re-surfaced as a failure before it
// returns (spec.md §4.3 contract).
func (p *Processor) Shutdown() {
	p.once.Do(func() {
		close(p.stopCh)
		<-p.doneCh
	})
}

func (p *Processor) flushAnalysis() {
	p.mu.Lock()
	if len(p.analysisBuf) == 0 {
		p.mu.Unlock()
		return
	}
	batch := p.analysisBuf
	p.analysisBuf = nil
	p.mu.Unlock()

	start := time.Now()
	if err := p.commitAnalysisBatch(batch); err != nil {
		p.logger.Error("batch.flush_analysis.failed", "count", len(batch), "error", err)
		// Re-prepend so nothing is silently lost; the next flush retries it
		// alongside whatever has queued up since.
		p.mu.Lock()
		p.analysisBuf = append(batch, p.analysisBuf...)
		p.mu.Unlock()
		return
	}
	metrics.ObserveBatchFlush("analysis", time.Since(start).Seconds())
	p.logger.Info("batch.flush_analysis.committed", "count", len(batch))
}

func (p *Processor) flushFailed() {
	p.mu.Lock()
	if len(p.failedBuf) == 0 {
		p.mu.Unlock()
		return
	}
	batch := p.failedBuf
	p.failedBuf = nil
	p.mu.Unlock()

	start := time.Now()
	if err := p.commitFailedBatch(batch); err != nil {
		p.logger.Error("batch.flush_failed.failed", "count", len(batch), "error", err)
		p.mu.Lock()
		p.failedBuf = append(batch, p.failedBuf...)
		p.mu.Unlock()
		return
	}
	metrics.ObserveBatchFlush("failed", time.Since(start).Seconds())
	p.logger.Info("batch.flush_failed.committed", "count", len(batch))
}

// commitAnalysisBatch writes one INSERT per row plus the correlated
// work-queue status update, all in a single transaction (spec.md §4.3).
func (p *Processor) commitAnalysisBatch(batch []analysisItem) error {
	db := p.store.DB()
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin analysis batch: %w", err)
	}
	defer tx.Rollback()

	insertStmt, err := tx.Prepare(`
		INSERT INTO analysis_results (
			work_item_id, file_path, absolute_file_path, llm_output, status,
			validation_passed, entities_count, relationships_count, retry_count, processing_duration_ms
		) VALUES (?, ?, ?, ?, 'pending_ingestion', ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare analysis insert: %w", err)
	}
	defer insertStmt.Close()

	completeStmt, err := tx.Prepare(`
		UPDATE work_queue SET status = 'completed', completed_at = CURRENT_TIMESTAMP WHERE id = ?
	`)
	if err != nil {
		return fmt.Errorf("prepare work_queue complete: %w", err)
	}
	defer completeStmt.Close()

	for _, item := range batch {
		if _, err := insertStmt.Exec(
			item.workItemID, item.filePath, item.absoluteFilePath, item.llmOutputJSON,
			item.validationPassed, item.entitiesCount, item.relationshipsCount,
			item.retryCount, item.processingDurationMS,
		); err != nil {
			return fmt.Errorf("insert analysis result for work item %d: %w", item.workItemID, err)
		}
		if _, err := completeStmt.Exec(item.workItemID); err != nil {
			return fmt.Errorf("complete work item %d: %w", item.workItemID, err)
		}
	}

	return tx.Commit()
}

func (p *Processor) commitFailedBatch(batch []failedItem) error {
	db := p.store.DB()
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin failed-work batch: %w", err)
	}
	defer tx.Rollback()

	insertStmt, err := tx.Prepare(`
		INSERT INTO failed_work (work_item_id, error_message, error_type, retry_count, last_retry_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
	`)
	if err != nil {
		return fmt.Errorf("prepare failed_work insert: %w", err)
	}
	defer insertStmt.Close()

	failStmt, err := tx.Prepare(`
		UPDATE work_queue SET status = 'failed', completed_at = CURRENT_TIMESTAMP WHERE id = ?
	`)
	if err != nil {
		return fmt.Errorf("prepare work_queue fail: %w", err)
	}
	defer failStmt.Close()

	for _, item := range batch {
		if _, err := insertStmt.Exec(item.workItemID, item.errorMessage, item.errorType, item.retryCount); err != nil {
			return fmt.Errorf("insert failed work for item %d: %w", item.workItemID, err)
		}
		if _, err := failStmt.Exec(item.workItemID); err != nil {
			return fmt.Errorf("fail work item %d: %w", item.workItemID, err)
		}
	}

	return tx.Commit()
}
