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

// Package reconciler implements the Self-Cleaning Reconciler (spec.md
// §4.7): a two-phase, stop-the-world pass that flags files missing from the
// filesystem (mark) and then removes them from both stores, graph first
// (sweep). The graph step is authoritative: relational rows are only
// deleted once the corresponding graph nodes are confirmed gone, so a
// failed sweep leaves the relational store untouched and safe to retry.
package reconciler
