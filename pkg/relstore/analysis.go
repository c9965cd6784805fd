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

// InsertAnalysisResult records a worker's sanitized, schema-validated LLM
// output as pending_ingestion, awaiting pickup by the BatchProcessor.
func (s *Store) InsertAnalysisResult(r *AnalysisResult) (int64, error) {
	res, err := s.q.Exec(`
		INSERT INTO analysis_results (
			work_item_id, file_path, absolute_file_path, llm_output, status,
			validation_passed, entities_count, relationships_count, retry_count, processing_duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.WorkItemID, r.FilePath, r.AbsoluteFilePath, r.LLMOutput, AnalysisStatusPendingIngestion,
		r.ValidationPassed, r.EntitiesCount, r.RelationshipsCount, r.RetryCount, r.ProcessingDurationMS)
	if err != nil {
		return 0, fmt.Errorf("insert analysis result for %q: %w", r.FilePath, err)
	}
	return res.LastInsertId()
}

// ListPendingIngestion returns up to limit analysis results awaiting graph
// ingestion, ordered by id so batches drain oldest-first.
func (s *Store) ListPendingIngestion(limit int) ([]*AnalysisResult, error) {
	rows, err := s.q.Query(`
		SELECT id, work_item_id, file_path, absolute_file_path, llm_output, status,
			validation_passed, entities_count, relationships_count, retry_count, processing_duration_ms,
			created_at, updated_at
		FROM analysis_results WHERE status = ? ORDER BY id LIMIT ?
	`, AnalysisStatusPendingIngestion, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending ingestion: %w", err)
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

// MarkIngested flags a set of analysis results as durably written to the
// graph store. Called once per successful batch-ingestion transaction.
func (s *Store) MarkIngested(ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return s.runInTx(func(q querier) error {
		for _, id := range ids {
			if _, err := q.Exec(`UPDATE analysis_results SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, AnalysisStatusIngested, id); err != nil {
				return fmt.Errorf("mark analysis result %d ingested: %w", id, err)
			}
		}
		return nil
	})
}

func scanAnalysisResult(row rowScanner) (*AnalysisResult, error) {
	var r AnalysisResult
	var validationPassed int
	if err := row.Scan(&r.ID, &r.WorkItemID, &r.FilePath, &r.AbsoluteFilePath, &r.LLMOutput, &r.Status,
		&validationPassed, &r.EntitiesCount, &r.RelationshipsCount, &r.RetryCount, &r.ProcessingDurationMS,
		&r.CreatedAt, &r.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan analysis_results row: %w", err)
	}
	r.ValidationPassed = validationPassed != 0
	return &r, nil
}
