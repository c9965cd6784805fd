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

import (
	"fmt"
	"strings"
)

const (
	cypherDeleteByPath = `MATCH (n {filePath: $path}) DETACH DELETE n`

	cypherRenamePath = `
		MATCH (n {filePath: $oldPath})
		SET n.filePath = $newPath,
		    n.qualifiedName = replace(n.qualifiedName, $oldPath, $newPath)
	`

	// cypherSweepByPaths is the reconciler's sweep-phase bulk delete
	// (spec.md §4.7): every node belonging to one of the swept paths is
	// detached and removed in a single statement.
	cypherSweepByPaths = `UNWIND $paths AS path MATCH (n {filePath: path}) DETACH DELETE n`
)

// nodeMergeQuery builds the per-label UNWIND/MERGE template from spec.md
// §4.6 step 3. label is trusted by the caller (IsAllowedLabel already
// checked) since Cypher cannot bind a label as a parameter.
func nodeMergeQuery(label string) string {
	return fmt.Sprintf(
		`UNWIND $batch AS p MERGE (n:%s {qualifiedName: p.qualifiedName}) SET n += p.properties`,
		label,
	)
}

// relationshipMergeQuery builds the per-type UNWIND/MERGE template from
// spec.md §4.6 step 4. relType is trusted by the caller the same way label
// is above.
func relationshipMergeQuery(relType string) string {
	return fmt.Sprintf(
		`UNWIND $batch AS r
		 MATCH (a {qualifiedName: r.source})
		 MATCH (b {qualifiedName: r.target})
		 MERGE (a)-[e:%s]->(b)
		 SET e += r.properties`,
		relType,
	)
}

// bucketNodesByLabel groups nodes by label so each group can be sent through
// a single templated MERGE query.
func bucketNodesByLabel(nodes []Node) map[string][]Node {
	buckets := make(map[string][]Node)
	for _, n := range nodes {
		buckets[n.Label] = append(buckets[n.Label], n)
	}
	return buckets
}

// bucketEdgesByType groups relationships by type for the same reason.
func bucketEdgesByType(edges []Edge) map[string][]Edge {
	buckets := make(map[string][]Edge)
	for _, e := range edges {
		buckets[e.Type] = append(buckets[e.Type], e)
	}
	return buckets
}

// validateBatchLabelsAndTypes enforces spec.md §3 Invariant 6 and §8
// property 5: any label or relationship type outside the allow-lists
// rejects the whole batch before a single write happens.
func validateBatchLabelsAndTypes(b Batch) error {
	var bad []string
	for _, n := range b.Nodes {
		if !IsAllowedLabel(n.Label) {
			bad = append(bad, fmt.Sprintf("label %q", n.Label))
		}
	}
	for _, e := range b.Relationships {
		if !IsAllowedRelationshipType(e.Type) {
			bad = append(bad, fmt.Sprintf("relationship type %q", e.Type))
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("batch rejected, not in allow-list: %s", strings.Join(bad, ", "))
	}
	return nil
}
