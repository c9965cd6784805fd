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

// schemaDDL holds the full table set described in spec.md §3 and §6. Each
// statement is idempotent (CREATE TABLE IF NOT EXISTS / CREATE INDEX IF NOT
// EXISTS) so migrate can run unconditionally on every Open.
var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS files (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		path             TEXT NOT NULL UNIQUE,
		absolute_path    TEXT NOT NULL,
		content_hash     TEXT NOT NULL,
		language         TEXT NOT NULL DEFAULT '',
		size             INTEGER NOT NULL DEFAULT 0,
		special_type     TEXT,
		status           TEXT NOT NULL DEFAULT 'pending',
		created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_files_status ON files(status)`,

	`CREATE TABLE IF NOT EXISTS file_state (
		path             TEXT PRIMARY KEY,
		content_hash     TEXT NOT NULL,
		last_scanned     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_file_state_path ON file_state(path)`,

	`CREATE TABLE IF NOT EXISTS work_queue (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		file_id          INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
		file_path        TEXT NOT NULL,
		content_hash     TEXT NOT NULL,
		project_context  TEXT,
		status           TEXT NOT NULL DEFAULT 'pending',
		worker_id        TEXT,
		created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		claimed_at       DATETIME,
		completed_at     DATETIME
	)`,
	`CREATE INDEX IF NOT EXISTS idx_work_queue_status ON work_queue(status)`,

	`CREATE TABLE IF NOT EXISTS analysis_results (
		id                     INTEGER PRIMARY KEY AUTOINCREMENT,
		work_item_id           INTEGER NOT NULL REFERENCES work_queue(id) ON DELETE CASCADE,
		file_path              TEXT NOT NULL,
		absolute_file_path     TEXT NOT NULL,
		llm_output             TEXT NOT NULL,
		status                 TEXT NOT NULL DEFAULT 'pending_ingestion',
		validation_passed      INTEGER NOT NULL DEFAULT 0,
		entities_count         INTEGER NOT NULL DEFAULT 0,
		relationships_count    INTEGER NOT NULL DEFAULT 0,
		retry_count            INTEGER NOT NULL DEFAULT 0,
		processing_duration_ms INTEGER NOT NULL DEFAULT 0,
		created_at             DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at             DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_analysis_results_status ON analysis_results(status)`,

	`CREATE TABLE IF NOT EXISTS failed_work (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		work_item_id   INTEGER NOT NULL REFERENCES work_queue(id) ON DELETE CASCADE,
		error_message  TEXT NOT NULL,
		error_type     TEXT NOT NULL,
		retry_count    INTEGER NOT NULL DEFAULT 0,
		last_retry_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS refactoring_tasks (
		id                INTEGER PRIMARY KEY AUTOINCREMENT,
		kind              TEXT NOT NULL,
		old_absolute_path TEXT NOT NULL,
		new_absolute_path TEXT,
		status            TEXT NOT NULL DEFAULT 'pending',
		created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_refactoring_tasks_status ON refactoring_tasks(status)`,

	`CREATE TABLE IF NOT EXISTS resolved_relationships (
		id                     INTEGER PRIMARY KEY AUTOINCREMENT,
		pass                   TEXT NOT NULL,
		source_qualified_name  TEXT NOT NULL,
		target_qualified_name  TEXT NOT NULL,
		type                   TEXT NOT NULL,
		details                TEXT,
		status                 TEXT NOT NULL DEFAULT 'pending_ingestion',
		created_at             DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_resolved_relationships_status ON resolved_relationships(status)`,
}

// migrate applies every statement in schemaDDL. SQLite DDL is transactional
// in the same sense as DML, but we run each statement independently so a
// partially-upgraded database from an older binary still picks up new
// tables/indices without a dedicated migration framework.
func (s *Store) migrate() error {
	for _, stmt := range schemaDDL {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
