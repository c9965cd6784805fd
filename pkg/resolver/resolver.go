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

package resolver

import (
	"context"
	"log/slog"
	"sort"

	"github.com/kraklabs/cgraph/pkg/llm"
	"github.com/kraklabs/cgraph/pkg/relstore"
	"github.com/kraklabs/cgraph/pkg/worker"
)

// Result reports per-pass relationship counts (spec.md §4.5: "the overall
// summary reports per-pass counts").
type Result struct {
	IntraFile      int
	IntraDirectory int
	Global         int
}

// Resolver runs the three-pass relationship resolver over every POI
// persisted by the worker fleet.
type Resolver struct {
	store    *relstore.Store
	provider llm.Provider
	logger   *slog.Logger
}

// New builds a Resolver.
func New(store *relstore.Store, provider llm.Provider, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{store: store, provider: provider, logger: logger}
}

// dedup keys a relationship by its full identity triple so the first pass to
// emit a given (source, target, type) wins, per spec.md §4.5 tie-break rule.
func dedupKey(rel worker.Relationship) string {
	return rel.SourceQualifiedName + "->" + rel.TargetQualifiedName + "::" + rel.Type
}

// Resolve runs all three passes, strictly ordered, persisting newly
// discovered relationships as it goes. A pass that fails to call or validate
// the LLM contributes zero relationships for that unit of work and never
// aborts the run (spec.md §4.5).
func (r *Resolver) Resolve(ctx context.Context) (Result, error) {
	results, err := r.store.ListAnalysisResultsForResolution()
	if err != nil {
		return Result{}, err
	}
	idx := buildPOIIndex(results, r.logger)
	seen := make(map[string]bool)

	var out Result
	out.IntraFile = r.runIntraFile(ctx, idx, seen)
	out.IntraDirectory = r.runIntraDirectory(ctx, idx, seen)
	out.Global = r.runGlobal(ctx, idx, seen)

	r.logger.Info("resolver.resolve.complete",
		"intra_file", out.IntraFile, "intra_directory", out.IntraDirectory, "global", out.Global)
	return out, nil
}

func (r *Resolver) runIntraFile(ctx context.Context, idx *poiIndex, seen map[string]bool) int {
	count := 0
	for _, file := range idx.files() {
		entities := idx.byFile[file]
		if len(entities) < 2 {
			continue
		}
		rels := r.call(ctx, file, intraFilePrompt(file, entities))
		count += r.persist(rels, relstore.ResolverPassIntraFile, seen)
	}
	return count
}

func (r *Resolver) runIntraDirectory(ctx context.Context, idx *poiIndex, seen map[string]bool) int {
	count := 0
	for _, dir := range idx.directories() {
		files := idx.filesByDir[dir]
		rels := r.call(ctx, dir, intraDirectoryPrompt(dir, idx.byFile, files))
		count += r.persist(rels, relstore.ResolverPassIntraDirectory, seen)
	}
	return count
}

func (r *Resolver) runGlobal(ctx context.Context, idx *poiIndex, seen map[string]bool) int {
	exported := idx.exportedByDir()
	if len(exported) == 0 {
		return 0
	}
	dirs := make([]string, 0, len(exported))
	for dir := range exported {
		dirs = append(dirs, dir)
	}

	sort.Strings(dirs)
	rels := r.call(ctx, "global", globalPrompt(exported, dirs))
	return r.persist(rels, relstore.ResolverPassGlobal, seen)
}

// call performs a single, non-retrying LLM round trip and returns the
// validated relationships it produced, or nil on any failure. LLM failures
// return an empty set for the pass rather than aborting the run (spec.md
// §4.5).
func (r *Resolver) call(ctx context.Context, unit, prompt string) []worker.Relationship {
	resp, err := r.provider.Chat(ctx, llm.ChatRequest{Messages: []llm.Message{{Role: "user", Content: prompt}}})
	if err != nil {
		r.logger.Warn("resolver.pass.llm_call_failed", "unit", unit, "error", err)
		return nil
	}

	parsed, err := worker.ParseResponse(worker.Sanitize(resp.Message.Content))
	if err != nil {
		r.logger.Warn("resolver.pass.parse_failed", "unit", unit, "error", err)
		return nil
	}
	parsed.FilePath = unit // worker.Validate requires a non-empty filePath

	_, relationships, err := worker.Validate(parsed)
	if err != nil {
		r.logger.Warn("resolver.pass.validation_failed", "unit", unit, "error", err)
		return nil
	}
	return relationships
}

func (r *Resolver) persist(rels []worker.Relationship, pass string, seen map[string]bool) int {
	count := 0
	for _, rel := range rels {
		key := dedupKey(rel)
		if seen[key] {
			continue
		}
		seen[key] = true

		if _, err := r.store.InsertResolvedRelationship(&relstore.ResolvedRelationship{
			Pass:                pass,
			SourceQualifiedName: rel.SourceQualifiedName,
			TargetQualifiedName: rel.TargetQualifiedName,
			Type:                rel.Type,
			Details:             string(rel.Details),
		}); err != nil {
			r.logger.Warn("resolver.pass.persist_failed", "pass", pass, "error", err)
			continue
		}
		count++
	}
	return count
}
