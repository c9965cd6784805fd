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

// ErrNotFound is returned by single-row lookups that find no matching row.
var ErrNotFound = errors.New("relstore: not found")

// UpsertFile inserts a new file row or, if path already exists, updates its
// content hash, size, language and status, bumping updated_at. It returns the
// row's id either way.
func (s *Store) UpsertFile(f *File) (int64, error) {
	res, err := s.q.Exec(`
		INSERT INTO files (path, absolute_path, content_hash, language, size, special_type, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			absolute_path = excluded.absolute_path,
			content_hash  = excluded.content_hash,
			language      = excluded.language,
			size          = excluded.size,
			special_type  = excluded.special_type,
			status        = excluded.status,
			updated_at    = CURRENT_TIMESTAMP
	`, f.Path, f.AbsolutePath, f.ContentHash, f.Language, f.Size, nullableString(f.SpecialType), f.Status)
	if err != nil {
		return 0, fmt.Errorf("upsert file %q: %w", f.Path, err)
	}

	id, err := res.LastInsertId()
	if err != nil || id == 0 {
		// ON CONFLICT UPDATE does not report a usable LastInsertId on every
		// SQLite driver version, so fall back to a lookup by path.
		row, lookupErr := s.GetFileByPath(f.Path)
		if lookupErr != nil {
			return 0, fmt.Errorf("resolve id for file %q: %w", f.Path, lookupErr)
		}
		return row.ID, nil
	}
	return id, nil
}

// GetFileByPath fetches a single file row by its repo-relative path.
func (s *Store) GetFileByPath(path string) (*File, error) {
	row := s.q.QueryRow(`
		SELECT id, path, absolute_path, content_hash, language, size, special_type, status, created_at, updated_at
		FROM files WHERE path = ?
	`, path)
	return scanFile(row)
}

// SetFileStatus transitions a file's status field.
func (s *Store) SetFileStatus(id int64, status string) error {
	_, err := s.q.Exec(`UPDATE files SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("set file %d status: %w", id, err)
	}
	return nil
}

// ListFilesByStatus returns every file with the given status, ordered by id
// for deterministic processing order.
func (s *Store) ListFilesByStatus(status string) ([]*File, error) {
	rows, err := s.q.Query(`
		SELECT id, path, absolute_path, content_hash, language, size, special_type, status, created_at, updated_at
		FROM files WHERE status = ? ORDER BY id
	`, status)
	if err != nil {
		return nil, fmt.Errorf("list files by status %q: %w", status, err)
	}
	defer rows.Close()

	var out []*File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// ListFilesExcludingStatus returns every file whose status is not the given
// value, ordered by id. Used by the reconciler's mark phase to find every
// file not already flagged pending_deletion.
func (s *Store) ListFilesExcludingStatus(status string) ([]*File, error) {
	rows, err := s.q.Query(`
		SELECT id, path, absolute_path, content_hash, language, size, special_type, status, created_at, updated_at
		FROM files WHERE status != ? ORDER BY id
	`, status)
	if err != nil {
		return nil, fmt.Errorf("list files excluding status %q: %w", status, err)
	}
	defer rows.Close()

	var out []*File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// DeleteFile removes a file row (and, via ON DELETE CASCADE, its work items).
func (s *Store) DeleteFile(id int64) error {
	_, err := s.q.Exec(`DELETE FROM files WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete file %d: %w", id, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (*File, error) {
	var f File
	var specialType sql.NullString
	if err := row.Scan(&f.ID, &f.Path, &f.AbsolutePath, &f.ContentHash, &f.Language, &f.Size,
		&specialType, &f.Status, &f.CreatedAt, &f.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan file row: %w", err)
	}
	f.SpecialType = specialType.String
	return &f, nil
}

func nullableString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
