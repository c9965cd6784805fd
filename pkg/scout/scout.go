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

package scout

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kraklabs/cgraph/pkg/relstore"
)

// Scout discovers filesystem changes relative to the relational store's
// file-state snapshot and persists the work this implies (spec.md §4.1).
type Scout struct {
	store   *relstore.Store
	rootDir string
	logger  *slog.Logger
}

// New builds a Scout rooted at rootDir (must be absolute).
func New(store *relstore.Store, rootDir string, logger *slog.Logger) *Scout {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scout{store: store, rootDir: rootDir, logger: logger}
}

// Result summarizes what a Scan run discovered.
type Result struct {
	NewCount      int
	ModifiedCount int
	DeletedCount  int
	RenamedCount  int
}

// Scan walks rootDir, classifies every file against the previous snapshot,
// and commits the implied WorkItems, RefactoringTasks, and snapshot replace
// inside a single relational transaction (spec.md §4.1 step 5).
//
// Unreadable files are logged and skipped; they never fail the run.
func (s *Scout) Scan() (Result, error) {
	filter := NewFilter(s.rootDir)

	var hints map[string]string
	if IsGitRepository(s.rootDir) {
		hints = gitRenameHints(s.rootDir)
	}

	current := make(map[string]string)
	err := filepath.Walk(s.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			s.logger.Warn("scout.walk.unreadable", "path", path, "error", err)
			return nil
		}
		if info.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(s.rootDir, path)
		if relErr != nil {
			return nil
		}
		if !filter.Include(rel) {
			return nil
		}
		if IsLikelyBinary(path) {
			return nil
		}
		hash, hashErr := hashFile(path)
		if hashErr != nil {
			s.logger.Warn("scout.hash.failed", "path", path, "error", hashErr)
			return nil
		}
		current[rel] = hash
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("scout: walk %q: %w", s.rootDir, err)
	}

	previousState, err := s.store.LoadFileState()
	if err != nil {
		return Result{}, fmt.Errorf("scout: load previous file state: %w", err)
	}
	previous := make(map[string]string, len(previousState))
	for path, entry := range previousState {
		previous[path] = entry.ContentHash
	}

	changes := DetectChanges(current, previous, hints)

	if err := s.persist(changes, current); err != nil {
		return Result{}, err
	}

	res := Result{
		NewCount:      len(changes.New),
		ModifiedCount: len(changes.Modified),
		DeletedCount:  len(changes.Deleted),
		RenamedCount:  len(changes.Renamed),
	}
	s.logger.Info("scout.scan.complete",
		"new", res.NewCount, "modified", res.ModifiedCount,
		"deleted", res.DeletedCount, "renamed", res.RenamedCount,
	)
	return res, nil
}

// persist enqueues work and refactoring tasks and replaces the snapshot
// inside a single relational transaction (spec.md §4.1 step 5): any error
// aborts the whole batch via WithTx, so a mid-loop failure never leaves
// WorkItems committed against a file_state snapshot that doesn't yet
// reflect them (which would otherwise reclassify and re-enqueue those files
// as "new" again on the next scan).
func (s *Scout) persist(changes ChangeSet, current map[string]string) error {
	return s.store.WithTx(func(tx *relstore.Store) error {
		for _, rel := range changes.New {
			if err := s.enqueueFile(tx, rel, current[rel], relstore.FileStatusPending); err != nil {
				return err
			}
		}
		for _, rel := range changes.Modified {
			if err := s.enqueueFile(tx, rel, current[rel], relstore.FileStatusPending); err != nil {
				return err
			}
		}
		for oldPath, newPath := range changes.Renamed {
			if _, err := tx.EnqueueRefactorTask(&relstore.RefactoringTask{
				Kind:            relstore.RefactorKindRename,
				OldAbsolutePath: filepath.Join(s.rootDir, oldPath),
				NewAbsolutePath: filepath.Join(s.rootDir, newPath),
			}); err != nil {
				return fmt.Errorf("scout: enqueue rename %q -> %q: %w", oldPath, newPath, err)
			}
			if err := s.enqueueFile(tx, newPath, current[newPath], relstore.FileStatusPending); err != nil {
				return err
			}
		}
		for _, rel := range changes.Deleted {
			if _, err := tx.EnqueueRefactorTask(&relstore.RefactoringTask{
				Kind:            relstore.RefactorKindDelete,
				OldAbsolutePath: filepath.Join(s.rootDir, rel),
			}); err != nil {
				return fmt.Errorf("scout: enqueue delete %q: %w", rel, err)
			}
			if f, err := tx.GetFileByPath(rel); err == nil {
				if err := tx.DeleteFile(f.ID); err != nil {
					return fmt.Errorf("scout: delete file %q: %w", rel, err)
				}
			}
		}

		entries := make([]relstore.FileStateEntry, 0, len(current))
		for path, hash := range current {
			entries = append(entries, relstore.FileStateEntry{Path: path, ContentHash: hash})
		}
		if err := tx.ReplaceFileState(entries); err != nil {
			return fmt.Errorf("scout: replace file state: %w", err)
		}
		return nil
	})
}

func (s *Scout) enqueueFile(tx *relstore.Store, rel, hash, status string) error {
	abs := filepath.Join(s.rootDir, rel)
	fileID, err := tx.UpsertFile(&relstore.File{
		Path:         rel,
		AbsolutePath: abs,
		ContentHash:  hash,
		Language:     languageForPath(rel),
		Status:       status,
	})
	if err != nil {
		return fmt.Errorf("scout: upsert file %q: %w", rel, err)
	}
	if _, err := tx.EnqueueWork(&relstore.WorkItem{
		FileID:      fileID,
		FilePath:    abs,
		ContentHash: hash,
	}); err != nil {
		return fmt.Errorf("scout: enqueue work for %q: %w", rel, err)
	}
	return nil
}

func languageForPath(path string) string {
	switch filepath.Ext(path) {
	case ".go":
		return "go"
	case ".py":
		return "python"
	case ".ts", ".tsx":
		return "typescript"
	case ".js", ".jsx":
		return "javascript"
	case ".java":
		return "java"
	case ".rb":
		return "ruby"
	case ".rs":
		return "rust"
	default:
		return ""
	}
}
