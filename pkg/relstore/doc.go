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

// Package relstore is the authoritative intermediate store for the ingestion
// pipeline: files, the last-scanned file-state snapshot, the work queue,
// analysis results, failed-work records, and pending refactoring tasks.
//
// It is backed by SQLite in WAL mode. Every write that must be atomic (the
// Scout's snapshot replace, a BatchProcessor flush) runs inside a single
// *sql.Tx. The work queue's claim operation is a single conditional UPDATE
// driven by a correlated subselect so concurrent workers never double-claim
// a row (see Store.Claim).
package relstore
