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

// Node is a POI ready to be MERGEd into the graph. QualifiedName is the
// identity key (spec.md §3); Label must be a member of NodeLabels.
type Node struct {
	Label         string
	QualifiedName string
	Properties    map[string]any
}

// Edge is a relationship ready to be MERGEd into the graph. Type must be a
// member of RelationshipTypes. Source and Target are QualifiedName values
// resolved by the relationship resolver; an edge whose endpoint does not
// match an existing node is dropped silently by the MATCH clause rather than
// rejecting the whole batch (spec.md §4.6 step 4).
type Edge struct {
	Type       string
	Source     string
	Target     string
	Properties map[string]any
}

// RefactorOp describes a DELETE or RENAME to apply before node/relationship
// upserts in the same batch (spec.md §4.6 step 1).
type RefactorOp struct {
	Kind            string // "DELETE" or "RENAME"
	OldAbsolutePath string
	NewAbsolutePath string // only set for RENAME
}

// Batch is everything an IngestBatch call applies in one transaction.
type Batch struct {
	Refactors     []RefactorOp
	Nodes         []Node
	Relationships []Edge
}

// Stats reports what a successful IngestBatch call wrote.
type Stats struct {
	RefactorsApplied     int
	NodesMerged          int
	RelationshipsMerged  int
	RelationshipsDropped int
}
