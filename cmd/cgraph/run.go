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
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kraklabs/cgraph/internal/bootstrap"
	"github.com/kraklabs/cgraph/internal/clierr"
	"github.com/kraklabs/cgraph/internal/output"
	"github.com/kraklabs/cgraph/internal/ui"
	"github.com/kraklabs/cgraph/pkg/llm"
	"github.com/kraklabs/cgraph/pkg/runctl"
)

// runRun executes the 'run' CLI command: it ingests the current directory
// into the configured relational and graph stores, running every phase
// (scout, workers, ingest, resolve, reconcile) to completion before
// returning.
//
// Flags:
//   - --json: machine-readable result on completion
//   - --debug: enable debug logging
//   - --metrics-addr: HTTP address for Prometheus metrics (disabled if empty)
//   - --no-resolver: skip the cross-file relationship resolver pass
//   - --no-reconciler: skip deletion reconciliation
func runRun(args []string, configPath string, globalNoColor bool) {
	fs := newFlagSet("run")
	jsonOutput := fs.Bool("json", false, "Output the final result as JSON")
	debug := fs.Bool("debug", false, "Enable debug logging")
	metricsAddr := fs.String("metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)")
	noResolver := fs.Bool("no-resolver", false, "Skip the cross-file relationship resolver pass")
	noReconciler := fs.Bool("no-reconciler", false, "Skip deletion reconciliation")
	workers := fs.Int("workers", 0, "Worker pool size (default: from config, or 50)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: cgraph run [options]

Ingests the current repository using configuration from .cgraph/project.yaml,
writing evidence to the local relational store and the configured Neo4j
graph store.

Options:
`)
		fs.PrintDefaults()
	}
	parseOrExit(fs, args)

	ui.InitColors(globalNoColor)

	cfg, err := LoadConfig(configPath)
	if err != nil {
		clierr.FatalError(clierr.NewConfigError("cannot load project configuration", err.Error(), "run 'cgraph init' first", err), *jsonOutput)
	}

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			srv := &http.Server{Addr: *metricsAddr, Handler: mux}
			logger.Info("metrics.http.start", "addr", *metricsAddr, "path", "/metrics")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Warn("metrics.http.error", "err", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("shutdown.signal", "signal", sig.String())
		cancel()
	}()

	provider, err := newLLMProvider(cfg)
	if err != nil {
		clierr.FatalError(clierr.NewConfigError("cannot create LLM provider", err.Error(), "check llm.provider and related fields in .cgraph/project.yaml", err), *jsonOutput)
	}

	project, err := bootstrap.InitProject(ctx, projectConfigFrom(cfg), provider, logger)
	if err != nil {
		clierr.FatalError(clierr.NewDatabaseError("cannot open project stores", err.Error(), "check that Neo4j is reachable and the data directory is writable", err), *jsonOutput)
	}
	defer func() { _ = project.Close(ctx) }()

	dataDir, err := dataDirFor(cfg.ProjectID)
	if err != nil {
		clierr.FatalError(clierr.NewInternalError("cannot resolve data directory", err.Error(), "", err), *jsonOutput)
	}
	lock := NewRunLock(dataDir)
	acquired, err := lock.TryAcquire()
	if err != nil {
		clierr.FatalError(clierr.NewInternalError("cannot acquire run lock", err.Error(), "", err), *jsonOutput)
	}
	if !acquired {
		info, _ := lock.Info()
		msg := "another 'cgraph run' is already in progress for this project"
		if info != nil {
			msg = fmt.Sprintf("%s (pid %d, started %s)", msg, info.PID, info.StartedAt.Format(time.RFC3339))
		}
		clierr.FatalError(clierr.NewInternalError(msg, "", "wait for the other run to finish, or 'cgraph stop' it", nil), *jsonOutput)
	}
	defer lock.Release()

	cwd, err := os.Getwd()
	if err != nil {
		clierr.FatalError(clierr.NewInternalError("cannot get current directory", err.Error(), "", err), *jsonOutput)
	}

	runCfg := runctl.Config{
		TargetDir:        cwd,
		WorkerPoolSize:   resolveWorkerPoolSize(*workers, cfg),
		MaxFileSizeByte:  int64(cfg.Run.MaxFileSizeBytes),
		IngestBatchLimit: cfg.Run.IngestBatchLimit,
		RunResolver:      cfg.Run.RunResolver && !*noResolver,
		RunReconciler:    cfg.Run.RunReconciler && !*noReconciler,
	}

	runID := project.Controller.Start(ctx, runCfg, "")
	if !*jsonOutput {
		ui.Infof("started run %s", runID)
	}

	watchRun(ctx, project.Controller, runID, *jsonOutput, globalNoColor)
}

// watchRun polls Controller.Status until the run finishes, rendering a
// spinner (human mode) or staying silent (JSON mode) in between, then prints
// the final result.
func watchRun(ctx context.Context, ctrl *runctl.Controller, runID string, jsonOutput, noColor bool) {
	progressCfg := NewProgressConfig(jsonOutput, noColor)
	spinner := NewSpinner(progressCfg, "starting")

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		status, ok := ctrl.Status(runID)
		if !ok {
			clierr.FatalError(clierr.NewInternalError("run disappeared", "controller has no record of "+runID, "", nil), jsonOutput)
		}

		if spinner != nil {
			spinner.Describe(describePhase(status.Phase, status.Counters))
			_ = spinner.Add(1)
		}

		if status.Phase == runctl.PhaseDone || status.Phase == runctl.PhaseFailed {
			if spinner != nil {
				_ = spinner.Finish()
			}
			printRunOutcome(ctrl, runID, status, jsonOutput)
			return
		}

		select {
		case <-ctx.Done():
			if spinner != nil {
				_ = spinner.Finish()
			}
			ui.Warning("run canceled, waiting for in-flight work to drain")
		default:
		}
	}
}

func printRunOutcome(ctrl *runctl.Controller, runID string, status runctl.Status, jsonOutput bool) {
	if status.Phase == runctl.PhaseFailed {
		var errMsg string
		if status.Err != nil {
			errMsg = status.Err.Error()
		}
		if jsonOutput {
			_ = output.JSON(map[string]any{"run_id": runID, "phase": status.Phase, "error": errMsg})
		} else {
			ui.Errorf("run %s failed: %s", runID, errMsg)
		}
		os.Exit(clierr.ExitInternal)
	}

	result, _ := ctrl.Result(runID)
	if jsonOutput {
		_ = output.JSON(result)
		return
	}

	ui.Success(fmt.Sprintf("run %s complete", runID))
	if result != nil {
		fmt.Printf("  Files new/modified:     %s\n", ui.CountText(result.Scout.NewCount+result.Scout.ModifiedCount))
		fmt.Printf("  Files deleted:          %s\n", ui.CountText(result.Scout.DeletedCount))
		fmt.Printf("  Nodes merged:           %s\n", ui.CountText(result.IngestStats.NodesMerged))
		fmt.Printf("  Relationships merged:   %s\n", ui.CountText(result.IngestStats.RelationshipsMerged))
		fmt.Printf("  Refactors applied:      %s\n", ui.CountText(result.IngestStats.RefactorsApplied))
		fmt.Printf("  Duration:               %s\n", result.Duration)
	}
}

func newLLMProvider(cfg *Config) (llm.Provider, error) {
	return llm.NewProvider(llm.ProviderConfig{
		Type:         cfg.LLM.Provider,
		BaseURL:      cfg.LLM.BaseURL,
		APIKey:       cfg.LLM.APIKey,
		DefaultModel: cfg.LLM.Model,
		MaxRetries:   cfg.LLM.MaxRetries,
	})
}

func resolveWorkerPoolSize(flagValue int, cfg *Config) int {
	if flagValue > 0 {
		return flagValue
	}
	if cfg.Run.WorkerPoolSize > 0 {
		return cfg.Run.WorkerPoolSize
	}
	return 50
}
