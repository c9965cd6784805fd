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

package scout

import "sort"

// ChangeSet is the result of diffing a fresh content-hash scan against the
// previous file-state snapshot (spec.md §4.1 step 4).
type ChangeSet struct {
	New      []string          // relative paths
	Modified []string          // relative paths
	Deleted  []string          // relative paths, no longer on disk
	Renamed  map[string]string // oldPath -> newPath
}

// DetectChanges compares current (freshly hashed) against previous (loaded
// from the file-state snapshot) and classifies every path. When hints is
// non-nil, its rename pairs are tried first and only confirmed if both hash
// and scan agree; hints never overrides a scan-derived conclusion.
func DetectChanges(current, previous map[string]string, hints map[string]string) ChangeSet {
	cs := ChangeSet{Renamed: make(map[string]string)}

	candidateNew := make(map[string]bool)
	candidateDeleted := make(map[string]bool)

	for path, hash := range current {
		if prevHash, ok := previous[path]; ok {
			if prevHash != hash {
				cs.Modified = append(cs.Modified, path)
			}
		} else {
			candidateNew[path] = true
		}
	}
	for path := range previous {
		if _, ok := current[path]; !ok {
			candidateDeleted[path] = true
		}
	}

	consumedHashes := make(map[string]bool)

	// Try git hints first: a hint is honored only if both endpoints are
	// still candidates and the hashes genuinely match, so a stale or wrong
	// hint degrades to ordinary new/deleted handling below.
	for oldPath, newPath := range hints {
		if !candidateDeleted[oldPath] || !candidateNew[newPath] {
			continue
		}
		oldHash, ok := previous[oldPath]
		if !ok || consumedHashes[oldHash] {
			continue
		}
		if current[newPath] != oldHash {
			continue
		}
		cs.Renamed[oldPath] = newPath
		consumedHashes[oldHash] = true
		delete(candidateDeleted, oldPath)
		delete(candidateNew, newPath)
	}

	// Ordered scan pairs remaining candidate-deleted/candidate-new paths by
	// matching, not-yet-consumed hash (spec.md §4.1 step 4).
	deletedPaths := sortedKeys(candidateDeleted)
	newPaths := sortedKeys(candidateNew)

	hashToNewPath := make(map[string]string)
	for _, p := range newPaths {
		h := current[p]
		if _, exists := hashToNewPath[h]; !exists {
			hashToNewPath[h] = p
		}
	}

	for _, oldPath := range deletedPaths {
		h := previous[oldPath]
		if consumedHashes[h] {
			continue
		}
		newPath, ok := hashToNewPath[h]
		if !ok {
			continue
		}
		cs.Renamed[oldPath] = newPath
		consumedHashes[h] = true
		delete(candidateDeleted, oldPath)
		delete(candidateNew, newPath)
	}

	cs.New = sortedKeys(candidateNew)
	cs.Deleted = sortedKeys(candidateDeleted)
	sort.Strings(cs.Modified)

	return cs
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
