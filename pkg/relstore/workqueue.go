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

// EnqueueWork inserts a new pending work item for a file.
func (s *Store) EnqueueWork(w *WorkItem) (int64, error) {
	res, err := s.q.Exec(`
		INSERT INTO work_queue (file_id, file_path, content_hash, project_context, status)
		VALUES (?, ?, ?, ?, ?)
	`, w.FileID, w.FilePath, w.ContentHash, nullableString(w.ProjectContext), WorkStatusPending)
	if err != nil {
		return 0, fmt.Errorf("enqueue work for %q: %w", w.FilePath, err)
	}
	return res.LastInsertId()
}

// Claim atomically selects the lowest-id pending work item and transitions it
// to processing, stamping workerID. It is implemented as a single UPDATE
// whose WHERE clause is driven by a correlated subselect pinned to the
// minimum pending id, so two workers racing this statement can never claim
// the same row: SQLite serializes the UPDATE under its single-writer lock,
// and the second writer's subselect simply re-evaluates against the row the
// first writer already flipped out of "pending".
//
// Returns ErrNotFound when the queue has no pending work.
func (s *Store) Claim(workerID string) (*WorkItem, error) {
	var id int64
	err := s.q.QueryRow(`
		UPDATE work_queue
		SET status = 'processing', worker_id = ?, claimed_at = CURRENT_TIMESTAMP
		WHERE id = (
			SELECT id FROM work_queue WHERE status = 'pending' ORDER BY id LIMIT 1
		) AND status = 'pending'
		RETURNING id
	`, workerID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("claim work item: %w", err)
	}
	return s.GetWorkItem(id)
}

// ClaimSpecific claims a single known work item id for workerID rather than
// pulling the next one off the queue. Returns ErrNotFound if the item is no
// longer pending.
func (s *Store) ClaimSpecific(id int64, workerID string) (*WorkItem, error) {
	res, err := s.q.Exec(`
		UPDATE work_queue
		SET status = 'processing', worker_id = ?, claimed_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = 'pending'
	`, workerID, id)
	if err != nil {
		return nil, fmt.Errorf("claim specific work item %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("claim specific rows affected: %w", err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return s.GetWorkItem(id)
}

// GetWorkItem fetches a single work item by id.
func (s *Store) GetWorkItem(id int64) (*WorkItem, error) {
	row := s.q.QueryRow(`
		SELECT id, file_id, file_path, content_hash, project_context, status, worker_id, created_at, claimed_at, completed_at
		FROM work_queue WHERE id = ?
	`, id)
	return scanWorkItem(row)
}

// CompleteWork marks a work item completed.
func (s *Store) CompleteWork(id int64) error {
	_, err := s.q.Exec(`
		UPDATE work_queue SET status = 'completed', completed_at = CURRENT_TIMESTAMP WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("complete work item %d: %w", id, err)
	}
	return nil
}

// RequeueWork resets a work item back to pending, clearing its worker
// assignment, so it can be claimed again (used after a transient failure).
func (s *Store) RequeueWork(id int64) error {
	_, err := s.q.Exec(`
		UPDATE work_queue SET status = 'pending', worker_id = NULL, claimed_at = NULL WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("requeue work item %d: %w", id, err)
	}
	return nil
}

// FailWork marks a work item permanently failed after retries are exhausted.
func (s *Store) FailWork(id int64) error {
	_, err := s.q.Exec(`
		UPDATE work_queue SET status = 'failed', completed_at = CURRENT_TIMESTAMP WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("fail work item %d: %w", id, err)
	}
	return nil
}

// PendingWorkCount returns how many work items are pending or still being
// processed (claimed but not yet completed or failed). The status command
// and the batch processor's queue-depth metric report it.
func (s *Store) PendingWorkCount() (int, error) {
	var n int
	err := s.q.QueryRow(`SELECT COUNT(*) FROM work_queue WHERE status IN ('pending', 'processing')`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count pending work: %w", err)
	}
	return n, nil
}

func scanWorkItem(row rowScanner) (*WorkItem, error) {
	var w WorkItem
	var projectContext sql.NullString
	var workerID sql.NullString
	var claimedAt, completedAt sql.NullTime
	if err := row.Scan(&w.ID, &w.FileID, &w.FilePath, &w.ContentHash, &projectContext,
		&w.Status, &workerID, &w.CreatedAt, &claimedAt, &completedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan work_queue row: %w", err)
	}
	w.ProjectContext = projectContext.String
	w.WorkerID = workerID.String
	if claimedAt.Valid {
		w.ClaimedAt = &claimedAt.Time
	}
	if completedAt.Valid {
		w.CompletedAt = &completedAt.Time
	}
	return &w, nil
}
