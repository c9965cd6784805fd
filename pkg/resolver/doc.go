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

// Package resolver implements the three-pass Relationship Resolver
// (spec.md §4.5): intra-file, then intra-directory, then a global pass over
// exported points of interest. Each pass is an independent LLM query; a pass
// that fails contributes zero relationships rather than aborting the run.
// Passes run strictly in order, and the first pass to emit a given
// (source, target, type) triple wins — later duplicates are dropped.
package resolver
