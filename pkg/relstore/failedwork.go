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

import "fmt"

// RecordFailure appends an entry to the failed_work log. The log is
// append-only: every call adds its own row and earlier rows are never
// updated, so all recorded failures of a work item are kept.
func (s *Store) RecordFailure(f *FailedWork) error {
	_, err := s.q.Exec(`
		INSERT INTO failed_work (work_item_id, error_message, error_type, retry_count, last_retry_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, f.WorkItemID, f.ErrorMessage, f.ErrorType, f.RetryCount)
	if err != nil {
		return fmt.Errorf("record failure for work item %d: %w", f.WorkItemID, err)
	}
	return nil
}

// ListFailuresForWorkItem returns every recorded failure for a work item,
// oldest first, for diagnostics.
func (s *Store) ListFailuresForWorkItem(workItemID int64) ([]*FailedWork, error) {
	rows, err := s.q.Query(`
		SELECT id, work_item_id, error_message, error_type, retry_count, last_retry_at
		FROM failed_work WHERE work_item_id = ? ORDER BY id
	`, workItemID)
	if err != nil {
		return nil, fmt.Errorf("list failures for work item %d: %w", workItemID, err)
	}
	defer rows.Close()

	var out []*FailedWork
	for rows.Next() {
		var f FailedWork
		if err := rows.Scan(&f.ID, &f.WorkItemID, &f.ErrorMessage, &f.ErrorType, &f.RetryCount, &f.LastRetryAt); err != nil {
			return nil, fmt.Errorf("scan failed_work row: %w", err)
		}
		out = append(out, &f)
	}
	return out, rows.Err()
}
