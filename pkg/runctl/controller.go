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
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kraklabs/cgraph/pkg/batch"
	"github.com/kraklabs/cgraph/pkg/graphstore"
	"github.com/kraklabs/cgraph/pkg/llm"
	"github.com/kraklabs/cgraph/pkg/reconciler"
	"github.com/kraklabs/cgraph/pkg/relstore"
	"github.com/kraklabs/cgraph/pkg/resolver"
	"github.com/kraklabs/cgraph/pkg/scout"
	"github.com/kraklabs/cgraph/pkg/worker"
)

// Phase names reported through Status (spec.md §5, §6).
const (
	PhaseScout     = "scout"
	PhaseWorkers   = "workers"
	PhaseIngest    = "ingest"
	PhaseResolve   = "resolve"
	PhaseReconcile = "reconcile"
	PhaseDone      = "done"
	PhaseFailed    = "failed"
)

// GraphStore is the narrow interface the controller needs from the graph
// store: batch ingestion and the reconciler's bulk sweep.
type GraphStore interface {
	IngestBatch(ctx context.Context, b graphstore.Batch) (graphstore.Stats, error)
	SweepPaths(ctx context.Context, paths []string) error
}

// Config configures one run (spec.md §5: bounded worker pool default 50).
type Config struct {
	TargetDir        string
	WorkerPoolSize   int
	MaxFileSizeByte  int64
	IngestBatchLimit int
	RunResolver      bool
	RunReconciler    bool
}

func (c Config) withDefaults() Config {
	if c.WorkerPoolSize <= 0 {
		c.WorkerPoolSize = 50
	}
	if c.IngestBatchLimit <= 0 {
		c.IngestBatchLimit = 200
	}
	return c
}

// Result summarizes one completed run.
type Result struct {
	RunID          string
	Scout          scout.Result
	IngestStats    graphstore.Stats
	Resolver       *resolver.Result
	ReconcileMark  *reconciler.MarkResult
	ReconcileSweep *reconciler.SweepResult
	Duration       time.Duration
}

// Status is the snapshot returned by Controller.Status (spec.md §6).
type Status struct {
	RunID     string
	Phase     string
	StartedAt time.Time
	Counters  map[string]int
	LogLines  []string
	Err       error
}

const maxLogLines = 50

type runState struct {
	mu        sync.Mutex
	runID     string
	phase     string
	startedAt time.Time
	counters  map[string]int
	logLines  []string
	cancel    context.CancelFunc
	done      bool
	err       error
	result    *Result
}

func (rs *runState) setPhase(phase string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.phase = phase
	rs.appendLog(fmt.Sprintf("phase %s started", phase))
}

func (rs *runState) appendLog(line string) {
	rs.logLines = append(rs.logLines, line)
	if len(rs.logLines) > maxLogLines {
		rs.logLines = rs.logLines[len(rs.logLines)-maxLogLines:]
	}
}

func (rs *runState) setCounter(name string, value int) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.counters[name] = value
}

func (rs *runState) finish(result *Result, err error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.done = true
	rs.result = result
	rs.err = err
	if err != nil {
		rs.phase = PhaseFailed
		rs.appendLog(fmt.Sprintf("run failed: %v", err))
	} else {
		rs.phase = PhaseDone
		rs.appendLog("run complete")
	}
}

func (rs *runState) snapshot() Status {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	counters := make(map[string]int, len(rs.counters))
	for k, v := range rs.counters {
		counters[k] = v
	}
	lines := append([]string(nil), rs.logLines...)
	return Status{RunID: rs.runID, Phase: rs.phase, StartedAt: rs.startedAt, Counters: counters, LogLines: lines, Err: rs.err}
}

// Controller orchestrates one ingestion pipeline over a relational store and
// a graph store (spec.md §5: "the run controller orchestrates phases
// sequentially: clear/init → scout → workers → ingestor → optional resolver
// → (optional) reconcile").
type Controller struct {
	store    *relstore.Store
	graph    GraphStore
	provider llm.Provider
	logger   *slog.Logger

	mu   sync.Mutex
	runs map[string]*runState
}

// New builds a Controller.
func New(store *relstore.Store, graph GraphStore, provider llm.Provider, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{store: store, graph: graph, provider: provider, logger: logger, runs: make(map[string]*runState)}
}

// Start launches one run in the background and returns immediately with its
// run id. A caller-supplied runID is honored verbatim; an empty one is
// generated deterministically from the target directory and start time.
func (c *Controller) Start(ctx context.Context, cfg Config, runID string) string {
	cfg = cfg.withDefaults()
	if runID == "" {
		runID = generateRunID(cfg.TargetDir, time.Now())
	}

	runCtx, cancel := context.WithCancel(ctx)
	rs := &runState{runID: runID, phase: PhaseScout, startedAt: time.Now(), counters: make(map[string]int), cancel: cancel}

	c.mu.Lock()
	c.runs[runID] = rs
	c.mu.Unlock()

	go c.run(runCtx, cfg, rs)
	return runID
}

// Status returns a snapshot of a run's phase, counters, and recent log
// lines, or false if runID is unknown.
func (c *Controller) Status(runID string) (Status, bool) {
	c.mu.Lock()
	rs, ok := c.runs[runID]
	c.mu.Unlock()
	if !ok {
		return Status{}, false
	}
	return rs.snapshot(), true
}

// Stop cancels a run. Workers finish their current item, the batch
// processor performs a final forceFlush, and the controller does not
// declare the run done until that drain completes (spec.md §5).
func (c *Controller) Stop(runID string) bool {
	c.mu.Lock()
	rs, ok := c.runs[runID]
	c.mu.Unlock()
	if !ok {
		return false
	}
	rs.cancel()
	return true
}

// Health reports how many runs are currently in flight.
func (c *Controller) Health() (activeRuns int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, rs := range c.runs {
		rs.mu.Lock()
		done := rs.done
		rs.mu.Unlock()
		if !done {
			activeRuns++
		}
	}
	return activeRuns
}

// Result returns the completed result for a run, or false if the run is
// still in flight or unknown.
func (c *Controller) Result(runID string) (*Result, bool) {
	c.mu.Lock()
	rs, ok := c.runs[runID]
	c.mu.Unlock()
	if !ok {
		return nil, false
	}
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if !rs.done {
		return nil, false
	}
	return rs.result, true
}

func (c *Controller) run(ctx context.Context, cfg Config, rs *runState) {
	start := time.Now()
	result := &Result{RunID: rs.runID}

	scoutResult, err := c.runScoutPhase(ctx, cfg, rs)
	if err != nil {
		rs.finish(nil, err)
		return
	}
	result.Scout = scoutResult

	if err := c.runWorkerPhase(ctx, cfg, rs); err != nil {
		rs.finish(nil, err)
		return
	}

	stats, err := c.runIngestPhase(ctx, cfg, rs)
	if err != nil {
		rs.finish(nil, err)
		return
	}
	result.IngestStats = stats

	if cfg.RunResolver {
		resolverResult, err := c.runResolvePhase(ctx, rs)
		if err != nil {
			rs.finish(nil, err)
			return
		}
		result.Resolver = &resolverResult

		// Resolver-discovered relationships are new pending rows; push them
		// through the ingestor before declaring the run complete.
		moreStats, err := c.runIngestPhase(ctx, cfg, rs)
		if err != nil {
			rs.finish(nil, err)
			return
		}
		result.IngestStats.NodesMerged += moreStats.NodesMerged
		result.IngestStats.RelationshipsMerged += moreStats.RelationshipsMerged
		result.IngestStats.RelationshipsDropped += moreStats.RelationshipsDropped
		result.IngestStats.RefactorsApplied += moreStats.RefactorsApplied
	}

	if cfg.RunReconciler {
		mark, sweep, err := c.runReconcilePhase(ctx, rs)
		if err != nil {
			rs.finish(nil, err)
			return
		}
		result.ReconcileMark = &mark
		result.ReconcileSweep = &sweep
	}

	result.Duration = time.Since(start)
	rs.finish(result, nil)
}

func (c *Controller) runScoutPhase(ctx context.Context, cfg Config, rs *runState) (scout.Result, error) {
	rs.setPhase(PhaseScout)
	sc := scout.New(c.store, cfg.TargetDir, c.logger)
	result, err := sc.Scan()
	if err != nil {
		return scout.Result{}, fmt.Errorf("runctl: scout phase: %w", err)
	}
	rs.setCounter("scout.new", result.NewCount)
	rs.setCounter("scout.modified", result.ModifiedCount)
	rs.setCounter("scout.deleted", result.DeletedCount)
	rs.setCounter("scout.renamed", result.RenamedCount)
	return result, nil
}

func (c *Controller) runWorkerPhase(ctx context.Context, cfg Config, rs *runState) error {
	rs.setPhase(PhaseWorkers)

	processor := batch.NewProcessor(c.store, batch.Config{}, c.logger)
	processor.Start()

	var wg sync.WaitGroup
	for i := 0; i < cfg.WorkerPoolSize; i++ {
		wg.Add(1)
		workerID := fmt.Sprintf("worker-%d", i)
		go func() {
			defer wg.Done()
			w := worker.New(c.store, c.provider, processor, worker.Config{
				TargetDir: cfg.TargetDir, MaxFileSizeByte: cfg.MaxFileSizeByte, WorkerID: workerID,
			}, c.logger)
			if err := w.Run(ctx); err != nil {
				c.logger.Warn("runctl.worker_phase.worker_stopped", "worker_id", workerID, "error", err)
			}
		}()
	}
	wg.Wait()

	// Cancellation drains in-flight work before the phase is declared
	// complete: every worker above has already returned, so the only thing
	// left to flush is whatever the batch processor is still holding.
	processor.ForceFlush()
	processor.Shutdown()
	return nil
}

func (c *Controller) runIngestPhase(ctx context.Context, cfg Config, rs *runState) (graphstore.Stats, error) {
	rs.setPhase(PhaseIngest)

	var total graphstore.Stats
	for {
		select {
		case <-ctx.Done():
			return total, ctx.Err()
		default:
		}

		pb, err := drainPending(c.store, cfg.IngestBatchLimit, c.logger)
		if err != nil {
			return total, fmt.Errorf("runctl: drain pending: %w", err)
		}
		if len(pb.batch.Nodes) == 0 && len(pb.batch.Relationships) == 0 && len(pb.batch.Refactors) == 0 {
			break
		}

		stats, err := c.graph.IngestBatch(ctx, pb.batch)
		if err != nil {
			return total, fmt.Errorf("runctl: ingest batch: %w", err)
		}
		if err := markIngested(c.store, pb); err != nil {
			return total, fmt.Errorf("runctl: mark ingested: %w", err)
		}

		total.NodesMerged += stats.NodesMerged
		total.RelationshipsMerged += stats.RelationshipsMerged
		total.RelationshipsDropped += stats.RelationshipsDropped
		total.RefactorsApplied += stats.RefactorsApplied

		drained := len(pb.refactorIDs) + len(pb.analysisIDs) + len(pb.resolvedIDs)
		if drained < cfg.IngestBatchLimit {
			break
		}
	}

	rs.setCounter("ingest.nodes_merged", total.NodesMerged)
	rs.setCounter("ingest.relationships_merged", total.RelationshipsMerged)
	return total, nil
}

func (c *Controller) runResolvePhase(ctx context.Context, rs *runState) (resolver.Result, error) {
	rs.setPhase(PhaseResolve)
	res := resolver.New(c.store, c.provider, c.logger)
	result, err := res.Resolve(ctx)
	if err != nil {
		return resolver.Result{}, fmt.Errorf("runctl: resolve phase: %w", err)
	}
	rs.setCounter("resolve.intra_file", result.IntraFile)
	rs.setCounter("resolve.intra_directory", result.IntraDirectory)
	rs.setCounter("resolve.global", result.Global)
	return result, nil
}

func (c *Controller) runReconcilePhase(ctx context.Context, rs *runState) (reconciler.MarkResult, reconciler.SweepResult, error) {
	rs.setPhase(PhaseReconcile)
	rec := reconciler.New(c.store, c.graph, c.logger)

	mark, err := rec.Mark(ctx)
	if err != nil {
		return reconciler.MarkResult{}, reconciler.SweepResult{}, fmt.Errorf("runctl: reconcile mark: %w", err)
	}
	rs.setCounter("reconcile.marked", mark.Marked)

	sweep, err := rec.Sweep(ctx)
	if err != nil {
		return mark, reconciler.SweepResult{}, fmt.Errorf("runctl: reconcile sweep: %w", err)
	}
	rs.setCounter("reconcile.swept", sweep.Swept)
	return mark, sweep, nil
}

func generateRunID(targetDir string, startTime time.Time) string {
	rounded := startTime.Truncate(time.Second)
	base := fmt.Sprintf("run-%s-%d", targetDir, rounded.Unix())
	hash := sha256.Sum256([]byte(base))
	return hex.EncodeToString(hash[:16])
}
