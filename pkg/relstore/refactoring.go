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

// EnqueueRefactorTask records a DELETE or RENAME discovered by the Scout's
// change analyzer, to be applied against the graph before the next batch of
// node/relationship merges runs (spec.md §4.6).
func (s *Store) EnqueueRefactorTask(t *RefactoringTask) (int64, error) {
	res, err := s.q.Exec(`
		INSERT INTO refactoring_tasks (kind, old_absolute_path, new_absolute_path, status)
		VALUES (?, ?, ?, ?)
	`, t.Kind, t.OldAbsolutePath, nullableString(t.NewAbsolutePath), RefactorStatusPending)
	if err != nil {
		return 0, fmt.Errorf("enqueue refactor task for %q: %w", t.OldAbsolutePath, err)
	}
	return res.LastInsertId()
}

// ListPendingRefactorTasks returns every refactor task not yet applied to the
// graph, ordered by id.
func (s *Store) ListPendingRefactorTasks() ([]*RefactoringTask, error) {
	rows, err := s.q.Query(`
		SELECT id, kind, old_absolute_path, new_absolute_path, status, created_at
		FROM refactoring_tasks WHERE status = ? ORDER BY id
	`, RefactorStatusPending)
	if err != nil {
		return nil, fmt.Errorf("list pending refactor tasks: %w", err)
	}
	defer rows.Close()

	var out []*RefactoringTask
	for rows.Next() {
		t, err := scanRefactorTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// MarkRefactorTaskCompleted flags a refactor task as applied to the graph.
func (s *Store) MarkRefactorTaskCompleted(id int64) error {
	_, err := s.q.Exec(`UPDATE refactoring_tasks SET status = ? WHERE id = ?`, RefactorStatusCompleted, id)
	if err != nil {
		return fmt.Errorf("mark refactor task %d completed: %w", id, err)
	}
	return nil
}

func scanRefactorTask(row rowScanner) (*RefactoringTask, error) {
	var t RefactoringTask
	var newPath sql.NullString
	if err := row.Scan(&t.ID, &t.Kind, &t.OldAbsolutePath, &newPath, &t.Status, &t.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan refactoring_tasks row: %w", err)
	}
	t.NewAbsolutePath = newPath.String
	return &t, nil
}
