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

// Package graphstore materializes the deduplicated property graph in Neo4j.
//
// Every batch of refactoring tasks, POIs and relationships is applied inside
// a single Cypher transaction: refactoring first (DELETE/RENAME), then node
// MERGE by label bucket, then relationship MERGE by type bucket. Because
// Cypher cannot parameterize a label or relationship type, every label and
// type is checked against a fixed allow-list (see NodeLabels and
// RelationshipTypes) before it is
// interpolated into a query template; a batch containing anything outside
// the allow-list is rejected whole, before any write happens.
package graphstore
