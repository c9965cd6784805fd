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

package worker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitIntoChunks_SmallFileIsOneChunk(t *testing.T) {
	chunks := SplitIntoChunks("package main\n")
	require.Len(t, chunks, 1)
}

func TestSplitIntoChunks_LargeFileSplitsWithOverlap(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 30000; i++ {
		sb.WriteString("x = 1\n")
	}
	chunks := SplitIntoChunks(sb.String())
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		require.LessOrEqual(t, len(c.Content), chunkSizeBytes+chunkOverlapLines*8)
	}
}

func TestMergeResponses_DedupesEntitiesByQualifiedName(t *testing.T) {
	r1 := &Response{Entities: []Entity{{Name: "F", QualifiedName: "/a.go--F"}}}
	r2 := &Response{Entities: []Entity{{Name: "F", QualifiedName: "/a.go--F"}, {Name: "G", QualifiedName: "/a.go--G"}}}

	merged := MergeResponses("/a.go", []*Response{r1, r2})
	require.Len(t, merged.Entities, 2)
}

func TestMergeResponses_DedupesRelationshipsPreservingFirst(t *testing.T) {
	r1 := &Response{Relationships: []Relationship{{SourceQualifiedName: "a", TargetQualifiedName: "b", Type: "CALLS"}}}
	r2 := &Response{Relationships: []Relationship{{SourceQualifiedName: "a", TargetQualifiedName: "b", Type: "CALLS"}}}

	merged := MergeResponses("/a.go", []*Response{r1, r2})
	require.Len(t, merged.Relationships, 1)
}
