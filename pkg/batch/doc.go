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

// Package batch absorbs the N-to-1 write impedance between many worker
// goroutines and the single-writer relational store.
//
// Processor holds two bounded in-memory queues (analysis results and failed
// work) and flushes each to the store when it reaches the configured batch
// size, on a timer tick, or on an explicit ForceFlush call. Every flush runs
// inside one transaction; on failure the batch is re-prepended to the front
// of the queue so nothing is silently dropped (spec.md §4.3).
package batch
