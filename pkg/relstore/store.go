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
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Store wraps a SQLite connection configured for single-writer WAL mode.
type Store struct {
	db     *sql.DB
	q      querier
	path   string
	logger *slog.Logger
}

// querier is satisfied by both *sql.DB and *sql.Tx. Every Store method reads
// and writes through q rather than db directly, so the same method set runs
// unmodified whether it's called on the base Store or on the transactional
// view WithTx hands to its callback.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Config configures how a Store opens its underlying database file.
type Config struct {
	// Path is the SQLite database file path. Use ":memory:" for an
	// in-process database (primarily for tests).
	Path string

	// BusyTimeoutMS is how long a writer waits on a locked database before
	// giving up. Defaults to 5000ms.
	BusyTimeoutMS int
}

// Open opens (and, if necessary, creates) the relational store at cfg.Path,
// applies the pragmas required by the concurrency model in spec §5, and runs
// schema migrations. The returned Store is safe to share across goroutines;
// SQLite itself serializes writers, which is why BatchProcessor exists above
// this layer instead of relying on per-goroutine connections.
func Open(cfg Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Path == "" {
		return nil, fmt.Errorf("relstore: path is required")
	}
	if cfg.BusyTimeoutMS <= 0 {
		cfg.BusyTimeoutMS = 5000
	}

	if cfg.Path != ":memory:" {
		dir := filepath.Dir(cfg.Path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create relstore dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// SQLite only supports one writer at a time; this package (and the
	// batch processor above it) relies on a single shared connection to
	// serialize writes at the Go level rather than fighting SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeoutMS),
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, q: db, path: cfg.Path, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	logger.Info("relstore.open", "path", cfg.Path)
	return s, nil
}

// DB returns the underlying *sql.DB for callers (e.g. the CLI's ad-hoc query
// command) that need raw access.
func (s *Store) DB() *sql.DB { return s.db }

// runInTx executes fn against a transactional querier. If s is already the
// transactional view WithTx handed to a callback, fn joins that outer
// transaction instead of nesting a second one (SQLite's single connection
// would otherwise deadlock against itself). Standalone callers get their own
// begin/commit/rollback around fn.
func (s *Store) runInTx(fn func(q querier) error) error {
	if tx, ok := s.q.(*sql.Tx); ok {
		return fn(tx)
	}

	txn, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(txn); err != nil {
		_ = txn.Rollback()
		return err
	}
	return txn.Commit()
}

// WithTx runs fn against a Store backed by a single SQLite transaction: every
// call fn makes through the *Store it receives executes against the same
// *sql.Tx, so the whole sequence commits or rolls back atomically. fn's
// error aborts the transaction; a panic inside fn is not recovered, matching
// database/sql's own Tx semantics. Methods that need their own atomic batch
// when called standalone (ReplaceFileState, MarkIngested, and similar) use
// runInTx, which detects the transactional view WithTx hands out and joins
// it instead of nesting a second transaction on the same connection.
func (s *Store) WithTx(fn func(tx *Store) error) error {
	txn, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txStore := &Store{db: s.db, q: txn, path: s.path, logger: s.logger}
	if err := fn(txStore); err != nil {
		_ = txn.Rollback()
		return err
	}
	return txn.Commit()
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
