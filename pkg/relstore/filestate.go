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

// LoadFileState returns the full last-scanned snapshot, keyed by path. The
// Scout diffs the live filesystem walk against this map to classify every
// file as new, modified, deleted, or unchanged (spec.md §4.1).
func (s *Store) LoadFileState() (map[string]FileStateEntry, error) {
	rows, err := s.q.Query(`SELECT path, content_hash, last_scanned FROM file_state`)
	if err != nil {
		return nil, fmt.Errorf("load file_state: %w", err)
	}
	defer rows.Close()

	out := make(map[string]FileStateEntry)
	for rows.Next() {
		var e FileStateEntry
		if err := rows.Scan(&e.Path, &e.ContentHash, &e.LastScanned); err != nil {
			return nil, fmt.Errorf("scan file_state row: %w", err)
		}
		out[e.Path] = e
	}
	return out, rows.Err()
}

// ReplaceFileState atomically discards the previous snapshot and writes the
// new one produced by a completed scan, so a crash mid-write never leaves a
// half-updated snapshot that would desync future change detection. When
// called through WithTx (as Scout.persist does, alongside the work-item and
// refactor-task inserts for the same scan) it joins that outer transaction
// instead of starting its own.
func (s *Store) ReplaceFileState(entries []FileStateEntry) error {
	return s.runInTx(func(q querier) error {
		if _, err := q.Exec(`DELETE FROM file_state`); err != nil {
			return fmt.Errorf("clear file_state: %w", err)
		}
		for _, e := range entries {
			if _, err := q.Exec(`INSERT INTO file_state (path, content_hash, last_scanned) VALUES (?, ?, CURRENT_TIMESTAMP)`, e.Path, e.ContentHash); err != nil {
				return fmt.Errorf("insert file_state row %q: %w", e.Path, err)
			}
		}
		return nil
	})
}
