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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsAllowedLabel(t *testing.T) {
	require.True(t, IsAllowedLabel("Function"))
	require.True(t, IsAllowedLabel("Table"))
	require.False(t, IsAllowedLabel("DROP"))
	require.False(t, IsAllowedLabel(""))
}

func TestIsAllowedRelationshipType(t *testing.T) {
	require.True(t, IsAllowedRelationshipType("CALLS"))
	require.False(t, IsAllowedRelationshipType("DETACH DELETE n;"))
}

func TestValidateBatchLabelsAndTypes_RejectsWholeBatch(t *testing.T) {
	b := Batch{
		Nodes: []Node{
			{Label: "Function", QualifiedName: "/a.go--F"},
			{Label: "Evil`) DETACH DELETE n //", QualifiedName: "x"},
		},
	}
	err := validateBatchLabelsAndTypes(b)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Evil")
}

func TestValidateBatchLabelsAndTypes_AllowsCleanBatch(t *testing.T) {
	b := Batch{
		Nodes:         []Node{{Label: "Function", QualifiedName: "/a.go--F"}},
		Relationships: []Edge{{Type: "CALLS", Source: "/a.go--F", Target: "/a.go--G"}},
	}
	require.NoError(t, validateBatchLabelsAndTypes(b))
}

func TestBucketNodesByLabel(t *testing.T) {
	nodes := []Node{
		{Label: "Function", QualifiedName: "a"},
		{Label: "Class", QualifiedName: "b"},
		{Label: "Function", QualifiedName: "c"},
	}
	buckets := bucketNodesByLabel(nodes)
	require.Len(t, buckets["Function"], 2)
	require.Len(t, buckets["Class"], 1)
}

func TestBucketEdgesByType(t *testing.T) {
	edges := []Edge{
		{Type: "CALLS", Source: "a", Target: "b"},
		{Type: "USES", Source: "a", Target: "c"},
		{Type: "CALLS", Source: "b", Target: "c"},
	}
	buckets := bucketEdgesByType(edges)
	require.Len(t, buckets["CALLS"], 2)
	require.Len(t, buckets["USES"], 1)
}

func TestNodeMergeQuery_EmbedsLabel(t *testing.T) {
	q := nodeMergeQuery("Function")
	require.Contains(t, q, "MERGE (n:Function {qualifiedName: p.qualifiedName})")
}

func TestRelationshipMergeQuery_EmbedsType(t *testing.T) {
	q := relationshipMergeQuery("CALLS")
	require.Contains(t, q, "MERGE (a)-[e:CALLS]->(b)")
}

func TestFilePathFromQualifiedName(t *testing.T) {
	require.Equal(t, "/repo/a.go", filePathFromQualifiedName("/repo/a.go--MyFunc"))
	require.Equal(t, "/repo/a.go", filePathFromQualifiedName("/repo/a.go"))
}

func TestMergeProperties_FillsFilePath(t *testing.T) {
	props := mergeProperties("/repo/a.go--MyFunc", map[string]any{"isExported": true})
	require.Equal(t, "/repo/a.go", props["filePath"])
	require.Equal(t, true, props["isExported"])
}

func TestMergeProperties_KeepsExplicitFilePath(t *testing.T) {
	props := mergeProperties("/repo/a.go--MyFunc", map[string]any{"filePath": "/override.go"})
	require.Equal(t, "/override.go", props["filePath"])
}
