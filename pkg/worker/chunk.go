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

import "strings"

const (
	// chunkThresholdBytes is the content size above which a file is split
	// into overlapping chunks (spec.md §4.4 "Chunking").
	chunkThresholdBytes = 128 * 1024
	chunkSizeBytes      = 120 * 1024
	chunkOverlapLines   = 50
)

// Chunk is one overlapping slice of a large file's content.
type Chunk struct {
	Index   int
	Content string
}

// SplitIntoChunks splits content into overlapping chunks once it crosses
// chunkThresholdBytes. Each chunk after the first repeats the previous
// chunk's trailing chunkOverlapLines lines so entities that straddle a chunk
// boundary still have enough context to be extracted once.
func SplitIntoChunks(content string) []Chunk {
	if len(content) <= chunkThresholdBytes {
		return []Chunk{{Index: 0, Content: content}}
	}

	lines := strings.Split(content, "\n")
	var chunks []Chunk
	start := 0
	for start < len(lines) {
		size := 0
		end := start
		for end < len(lines) && size < chunkSizeBytes {
			size += len(lines[end]) + 1
			end++
		}
		chunks = append(chunks, Chunk{
			Index:   len(chunks),
			Content: strings.Join(lines[start:end], "\n"),
		})
		if end >= len(lines) {
			break
		}
		start = end - chunkOverlapLines
		if start < 0 {
			start = 0
		}
	}
	return chunks
}

// MergeResponses merges per-chunk Responses, deduplicating entities by
// qualifiedName (falling back to filePath+name) and relationships by
// (source, target, type), preserving first occurrence (spec.md §4.4
// "Chunking").
func MergeResponses(filePath string, responses []*Response) *Response {
	merged := &Response{FilePath: filePath}

	seenEntities := make(map[string]bool)
	for _, r := range responses {
		for _, e := range r.Entities {
			key := e.QualifiedName
			if key == "" {
				key = e.FilePath + "--" + e.Name
			}
			if seenEntities[key] {
				continue
			}
			seenEntities[key] = true
			merged.Entities = append(merged.Entities, e)
		}
	}

	seenRelationships := make(map[string]bool)
	for _, r := range responses {
		for _, rel := range r.Relationships {
			key := rel.SourceQualifiedName + "|" + rel.TargetQualifiedName + "|" + rel.Type
			if seenRelationships[key] {
				continue
			}
			seenRelationships[key] = true
			merged.Relationships = append(merged.Relationships, rel)
		}
	}

	return merged
}
