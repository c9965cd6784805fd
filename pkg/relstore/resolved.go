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

package relstore

import (
	"database/sql"
	"errors"
	"fmt"
)

// InsertResolvedRelationship records one edge discovered by a resolver pass
// as pending_ingestion, awaiting pickup by the graph ingestor.
func (s *Store) InsertResolvedRelationship(r *ResolvedRelationship) (int64, error) {
	res, err := s.q.Exec(`
		INSERT INTO resolved_relationships (pass, source_qualified_name, target_qualified_name, type, details, status)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.Pass, r.SourceQualifiedName, r.TargetQualifiedName, r.Type, nullableString(r.Details), ResolvedRelationshipStatusPendingIngestion)
	if err != nil {
		return 0, fmt.Errorf("insert resolved relationship %s->%s: %w", r.SourceQualifiedName, r.TargetQualifiedName, err)
	}
	return res.LastInsertId()
}

// ListPendingResolvedRelationships returns up to limit resolved relationships
// awaiting graph ingestion, ordered by id so batches drain oldest-first.
func (s *Store) ListPendingResolvedRelationships(limit int) ([]*ResolvedRelationship, error) {
	rows, err := s.q.Query(`
		SELECT id, pass, source_qualified_name, target_qualified_name, type, details, status, created_at
		FROM resolved_relationships WHERE status = ? ORDER BY id LIMIT ?
	`, ResolvedRelationshipStatusPendingIngestion, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending resolved relationships: %w", err)
	}
	defer rows.Close()

	var out []*ResolvedRelationship
	for rows.Next() {
		r, err := scanResolvedRelationship(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// MarkResolvedRelationshipsIngested flags a set of resolved relationships as
// durably written to the graph store.
func (s *Store) MarkResolvedRelationshipsIngested(ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return s.runInTx(func(q querier) error {
		for _, id := range ids {
			if _, err := q.Exec(`UPDATE resolved_relationships SET status = ? WHERE id = ?`, ResolvedRelationshipStatusIngested, id); err != nil {
				return fmt.Errorf("mark resolved relationship %d ingested: %w", id, err)
			}
		}
		return nil
	})
}

// ListAnalysisResultsForResolution returns every schema-validated analysis
// result, regardless of ingestion status, so the relationship resolver can
// rebuild its POI index across the whole project.
func (s *Store) ListAnalysisResultsForResolution() ([]*AnalysisResult, error) {
	rows, err := s.q.Query(`
		SELECT id, work_item_id, file_path, absolute_file_path, llm_output, status,
			validation_passed, entities_count, relationships_count, retry_count, processing_duration_ms,
			created_at, updated_at
		FROM analysis_results WHERE validation_passed = 1 ORDER BY file_path, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list analysis results for resolution: %w", err)
	}
	defer rows.Close()

	var out []*AnalysisResult
	for rows.Next() {
		r, err := scanAnalysisResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanResolvedRelationship(row rowScanner) (*ResolvedRelationship, error) {
	var r ResolvedRelationship
	var details sql.NullString
	if err := row.Scan(&r.ID, &r.Pass, &r.SourceQualifiedName, &r.TargetQualifiedName, &r.Type, &details, &r.Status, &r.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan resolved_relationships row: %w", err)
	}
	r.Details = details.String
	return &r, nil
}
