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

package reconciler

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/kraklabs/cgraph/pkg/relstore"
)

// GraphSweeper is the narrow interface the reconciler needs from the graph
// store, kept separate from graphstore.Ingestor's concrete type so tests can
// stub it.
type GraphSweeper interface {
	SweepPaths(ctx context.Context, paths []string) error
}

// Reconciler runs the mark and sweep phases (spec.md §4.7).
type Reconciler struct {
	store  *relstore.Store
	graph  GraphSweeper
	logger *slog.Logger
}

// New builds a Reconciler.
func New(store *relstore.Store, graph GraphSweeper, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{store: store, graph: graph, logger: logger}
}

// MarkResult reports how many files were flagged pending_deletion.
type MarkResult struct {
	Checked int
	Marked  int
}

// Mark checks every file not already pending_deletion against the
// filesystem and flips missing ones to pending_deletion.
func (r *Reconciler) Mark(ctx context.Context) (MarkResult, error) {
	files, err := r.store.ListFilesExcludingStatus(relstore.FileStatusPendingDeletion)
	if err != nil {
		return MarkResult{}, fmt.Errorf("reconciler: list files: %w", err)
	}

	var result MarkResult
	for _, f := range files {
		result.Checked++
		if _, statErr := os.Stat(f.AbsolutePath); os.IsNotExist(statErr) {
			if err := r.store.SetFileStatus(f.ID, relstore.FileStatusPendingDeletion); err != nil {
				return result, fmt.Errorf("reconciler: mark %q pending_deletion: %w", f.Path, err)
			}
			result.Marked++
		}
	}

	r.logger.Info("reconciler.mark.complete", "checked", result.Checked, "marked", result.Marked)
	return result, nil
}

// SweepResult reports how many files were removed.
type SweepResult struct {
	Swept int
}

// Sweep collects every file flagged pending_deletion, detaches and deletes
// their nodes from the graph in one transaction, and only on graph success
// deletes the corresponding relational rows. A failed graph sweep aborts
// before any relational deletion, leaving the marked rows to retry on the
// next run (spec.md §4.7).
func (r *Reconciler) Sweep(ctx context.Context) (SweepResult, error) {
	files, err := r.store.ListFilesByStatus(relstore.FileStatusPendingDeletion)
	if err != nil {
		return SweepResult{}, fmt.Errorf("reconciler: list pending deletions: %w", err)
	}
	if len(files) == 0 {
		return SweepResult{}, nil
	}

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.AbsolutePath
	}

	if err := r.graph.SweepPaths(ctx, paths); err != nil {
		return SweepResult{}, fmt.Errorf("reconciler: graph sweep failed, relational rows untouched: %w", err)
	}

	for _, f := range files {
		if err := r.store.DeleteFile(f.ID); err != nil {
			return SweepResult{Swept: len(files)}, fmt.Errorf("reconciler: delete relational row %q after graph sweep: %w", f.Path, err)
		}
	}

	r.logger.Info("reconciler.sweep.complete", "swept", len(files))
	return SweepResult{Swept: len(files)}, nil
}
