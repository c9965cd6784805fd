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

package graphstore

// NodeLabels is the fixed set of POI labels a batch may ever MERGE against
// (spec.md §3 Invariant 6). Cypher labels cannot be bound as query
// parameters, so every label reaching a MERGE must first be checked against
// this set; it is the sole defense against Cypher injection through
// LLM-sourced entity type strings.
var NodeLabels = map[string]bool{
	"Function": true,
	"Class":    true,
	"Variable": true,
	"File":     true,
	"Database": true,
	"Table":    true,
	"View":     true,
}

// RelationshipTypes is the fixed set of edge types a batch may ever MERGE.
var RelationshipTypes = map[string]bool{
	"CONTAINS": true,
	"CALLS":    true,
	"USES":     true,
	"IMPORTS":  true,
	"EXPORTS":  true,
	"EXTENDS":  true,
}

// IsAllowedLabel reports whether label may be interpolated into a Cypher
// MERGE as a node label.
func IsAllowedLabel(label string) bool {
	return NodeLabels[label]
}

// IsAllowedRelationshipType reports whether relType may be interpolated into
// a Cypher MERGE as a relationship type.
func IsAllowedRelationshipType(relType string) bool {
	return RelationshipTypes[relType]
}
