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

// Package scout discovers source files under a target directory and
// classifies every change against the last-ingested snapshot: new, modified,
// deleted, or renamed.
//
// Content-hash pairing (Scan) is always authoritative. When the target is a
// git working tree, gitRenameHints can pre-seed likely rename pairs from
// `git diff --name-status -M` as an acceleration; the hash-based algorithm
// still runs and has the final say, so a wrong or stale git hint never
// produces an incorrect result.
package scout
