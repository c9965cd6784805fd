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
	"encoding/json"
	"log/slog"

	"github.com/kraklabs/cgraph/pkg/graphstore"
	"github.com/kraklabs/cgraph/pkg/relstore"
	"github.com/kraklabs/cgraph/pkg/worker"
)

// pendingBatch is one drain of the relational store's pending-ingestion
// rows, already converted to graph domain types, plus the relational ids
// each converted item came from so they can be marked ingested afterward.
type pendingBatch struct {
	batch       graphstore.Batch
	analysisIDs []int64
	resolvedIDs []int64
	refactorIDs []int64
}

// drainPending loads every table the graph ingestor consumes (spec.md
// §4.6): pending refactoring tasks, schema-validated analysis results, and
// resolver-discovered relationships not yet ingested.
func drainPending(store *relstore.Store, limit int, logger *slog.Logger) (pendingBatch, error) {
	var pb pendingBatch

	refactors, err := store.ListPendingRefactorTasks()
	if err != nil {
		return pb, err
	}
	for _, t := range refactors {
		pb.batch.Refactors = append(pb.batch.Refactors, graphstore.RefactorOp{
			Kind: t.Kind, OldAbsolutePath: t.OldAbsolutePath, NewAbsolutePath: t.NewAbsolutePath,
		})
		pb.refactorIDs = append(pb.refactorIDs, t.ID)
	}

	analysisResults, err := store.ListPendingIngestion(limit)
	if err != nil {
		return pb, err
	}
	for _, r := range analysisResults {
		resp, parseErr := worker.ParseResponse(r.LLMOutput)
		if parseErr != nil {
			logger.Warn("runctl.drain.analysis_result_unparsable", "analysis_result_id", r.ID, "error", parseErr)
			continue
		}
		for _, e := range resp.Entities {
			pb.batch.Nodes = append(pb.batch.Nodes, entityToNode(e))
		}
		for _, rel := range resp.Relationships {
			pb.batch.Relationships = append(pb.batch.Relationships, relationshipToEdge(rel))
		}
		pb.analysisIDs = append(pb.analysisIDs, r.ID)
	}

	resolved, err := store.ListPendingResolvedRelationships(limit)
	if err != nil {
		return pb, err
	}
	for _, rr := range resolved {
		edge := graphstore.Edge{Type: rr.Type, Source: rr.SourceQualifiedName, Target: rr.TargetQualifiedName}
		if rr.Details != "" {
			var props map[string]any
			if err := json.Unmarshal([]byte(rr.Details), &props); err == nil {
				edge.Properties = props
			}
		}
		pb.batch.Relationships = append(pb.batch.Relationships, edge)
		pb.resolvedIDs = append(pb.resolvedIDs, rr.ID)
	}

	return pb, nil
}

func entityToNode(e worker.Entity) graphstore.Node {
	qualifiedName := e.QualifiedName
	if qualifiedName == "" {
		qualifiedName = e.FilePath
	}

	props := map[string]any{"name": e.Name}
	if e.FilePath != "" {
		props["filePath"] = e.FilePath
	}
	if e.StartLine != 0 {
		props["startLine"] = e.StartLine
	}
	if e.EndLine != 0 {
		props["endLine"] = e.EndLine
	}
	if e.IsExported {
		props["isExported"] = true
	}
	if e.Signature != "" {
		props["signature"] = e.Signature
	}

	return graphstore.Node{Label: e.Type, QualifiedName: qualifiedName, Properties: props}
}

func relationshipToEdge(rel worker.Relationship) graphstore.Edge {
	edge := graphstore.Edge{Type: rel.Type, Source: rel.SourceQualifiedName, Target: rel.TargetQualifiedName}
	if len(rel.Details) > 0 {
		var props map[string]any
		if err := json.Unmarshal(rel.Details, &props); err == nil {
			edge.Properties = props
		}
	}
	return edge
}

// markIngested flags every relational row a successfully committed batch
// consumed.
func markIngested(store *relstore.Store, pb pendingBatch) error {
	if err := store.MarkIngested(pb.analysisIDs); err != nil {
		return err
	}
	if err := store.MarkResolvedRelationshipsIngested(pb.resolvedIDs); err != nil {
		return err
	}
	for _, id := range pb.refactorIDs {
		if err := store.MarkRefactorTaskCompleted(id); err != nil {
			return err
		}
	}
	return nil
}
