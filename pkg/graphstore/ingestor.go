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

package graphstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Ingestor applies batches of refactoring ops, POIs and relationships to a
// Neo4j database. Each call to IngestBatch runs in its own write session and
// a single managed transaction, so a batch either commits completely or not
// at all (spec.md §4.6, §8 property 4 "idempotent ingestion").
type Ingestor struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *slog.Logger
}

// NewIngestor wraps an already-connected driver. Callers own the driver's
// lifecycle (Close) since it is typically shared with other consumers (e.g.
// the CLI's query command).
func NewIngestor(driver neo4j.DriverWithContext, database string, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{driver: driver, database: database, logger: logger}
}

// IngestBatch applies one Batch atomically: refactors first, then node
// upserts bucketed by label, then relationship upserts bucketed by type
// (spec.md §4.6). The entire batch is rejected before any write if it
// contains a label or relationship type outside the fixed allow-lists.
func (ig *Ingestor) IngestBatch(ctx context.Context, b Batch) (Stats, error) {
	if err := validateBatchLabelsAndTypes(b); err != nil {
		return Stats{}, fmt.Errorf("graphstore: %w", err)
	}

	session := ig.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: ig.database,
		AccessMode:   neo4j.AccessModeWrite,
	})
	defer func() {
		if err := session.Close(ctx); err != nil {
			ig.logger.Error("graphstore.session_close.failed", "error", err)
		}
	}()

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return ig.applyBatch(ctx, tx, b)
	})
	if err != nil {
		return Stats{}, fmt.Errorf("graphstore: ingest batch: %w", err)
	}

	stats := result.(Stats)
	ig.logger.Info("graphstore.ingest_batch.committed",
		"refactors", stats.RefactorsApplied,
		"nodes", stats.NodesMerged,
		"relationships", stats.RelationshipsMerged,
		"relationships_dropped", stats.RelationshipsDropped,
	)
	return stats, nil
}

// SweepPaths detaches and deletes every node whose filePath is in paths, in
// one write transaction. Used by the reconciler's sweep phase only after the
// relational store has flagged those paths pending_deletion (spec.md §4.7).
func (ig *Ingestor) SweepPaths(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	session := ig.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: ig.database,
		AccessMode:   neo4j.AccessModeWrite,
	})
	defer func() {
		if err := session.Close(ctx); err != nil {
			ig.logger.Error("graphstore.session_close.failed", "error", err)
		}
	}()

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, cypherSweepByPaths, map[string]any{"paths": paths})
	})
	if err != nil {
		return fmt.Errorf("graphstore: sweep paths: %w", err)
	}

	ig.logger.Info("graphstore.sweep_paths.committed", "count", len(paths))
	return nil
}

func (ig *Ingestor) applyBatch(ctx context.Context, tx neo4j.ManagedTransaction, b Batch) (Stats, error) {
	var stats Stats

	for _, op := range b.Refactors {
		if err := applyRefactorOp(ctx, tx, op); err != nil {
			return Stats{}, fmt.Errorf("apply refactor op %+v: %w", op, err)
		}
		stats.RefactorsApplied++
	}

	for label, nodes := range bucketNodesByLabel(b.Nodes) {
		rows := make([]map[string]any, len(nodes))
		for i, n := range nodes {
			rows[i] = map[string]any{
				"qualifiedName": n.QualifiedName,
				"properties":    mergeProperties(n.QualifiedName, n.Properties),
			}
		}
		if _, err := tx.Run(ctx, nodeMergeQuery(label), map[string]any{"batch": rows}); err != nil {
			return Stats{}, fmt.Errorf("merge %s nodes: %w", label, err)
		}
		stats.NodesMerged += len(nodes)
	}

	for relType, edges := range bucketEdgesByType(b.Relationships) {
		rows := make([]map[string]any, len(edges))
		for i, e := range edges {
			rows[i] = map[string]any{
				"source":     e.Source,
				"target":     e.Target,
				"properties": e.Properties,
			}
		}
		res, err := tx.Run(ctx, relationshipMergeQuery(relType)+"\n\t\t RETURN count(e) AS merged", map[string]any{"batch": rows})
		if err != nil {
			return Stats{}, fmt.Errorf("merge %s relationships: %w", relType, err)
		}
		rec, err := res.Single(ctx)
		if err != nil {
			return Stats{}, fmt.Errorf("read %s relationship count: %w", relType, err)
		}
		count, _ := rec.Get("merged")
		n, _ := count.(int64)
		merged := int(n)
		stats.RelationshipsMerged += merged
		// Rows whose source/target MATCH found nothing never reach MERGE;
		// the gap between rows sent and rows merged (created or already
		// present) is how many were dropped for dangling endpoints
		// (spec.md §4.6 step 4, §3 Inv. 5).
		stats.RelationshipsDropped += len(edges) - merged
	}

	return stats, nil
}

func applyRefactorOp(ctx context.Context, tx neo4j.ManagedTransaction, op RefactorOp) error {
	switch op.Kind {
	case "DELETE":
		_, err := tx.Run(ctx, cypherDeleteByPath, map[string]any{"path": op.OldAbsolutePath})
		return err
	case "RENAME":
		_, err := tx.Run(ctx, cypherRenamePath, map[string]any{
			"oldPath": op.OldAbsolutePath,
			"newPath": op.NewAbsolutePath,
		})
		return err
	default:
		return fmt.Errorf("unknown refactor op kind %q", op.Kind)
	}
}

// mergeProperties ensures every node carries filePath derivable from its
// qualifiedName even if the worker's extracted properties omitted it, per
// spec.md §6 "every node carries filePath".
func mergeProperties(qualifiedName string, props map[string]any) map[string]any {
	out := make(map[string]any, len(props)+1)
	for k, v := range props {
		out[k] = v
	}
	if _, ok := out["filePath"]; !ok {
		out["filePath"] = filePathFromQualifiedName(qualifiedName)
	}
	return out
}

// filePathFromQualifiedName extracts the absolute-path portion of a
// "<path>--<entity>" qualifiedName, or returns it unchanged for File POIs
// whose key is the absolute path itself (spec.md §3).
func filePathFromQualifiedName(qualifiedName string) string {
	const sep = "--"
	if idx := lastIndex(qualifiedName, sep); idx >= 0 {
		return qualifiedName[:idx]
	}
	return qualifiedName
}

func lastIndex(s, substr string) int {
	for i := len(s) - len(substr); i >= 0; i-- {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
