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

// Package worker converts claimed WorkItems into validated AnalysisResults.
//
// Each Worker claims a task, resolves and reads the target file under a
// path-traversal guard, builds a guardrail prompt, and calls an llm.Provider
// with classified exponential backoff across retries. The response is
// sanitized, schema-validated against the fixed POI/relationship allow-lists,
// and retried with a correction prompt on validation failure. Files above the
// chunking threshold are split into overlapping chunks and merged back by
// identity, preserving first occurrence.
package worker
