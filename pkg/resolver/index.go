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

package resolver

import (
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/kraklabs/cgraph/pkg/relstore"
	"github.com/kraklabs/cgraph/pkg/worker"
)

// poiIndex is the resolver's read model over persisted analysis results:
// every known point of interest grouped by the file that defines it, and
// every known file grouped by its containing directory.
type poiIndex struct {
	byFile     map[string][]worker.Entity
	filesByDir map[string][]string
}

// buildPOIIndex parses every schema-validated analysis result's llm_output
// and groups the entities it carries by file path. A later result for the
// same file path supersedes an earlier one, since ListAnalysisResultsForResolution
// orders rows (file_path, id) ascending and re-ingestion always appends new
// rows rather than updating old ones.
func buildPOIIndex(results []*relstore.AnalysisResult, logger *slog.Logger) *poiIndex {
	idx := &poiIndex{byFile: make(map[string][]worker.Entity), filesByDir: make(map[string][]string)}

	for _, r := range results {
		resp, err := worker.ParseResponse(r.LLMOutput)
		if err != nil {
			logger.Warn("resolver.index.parse_failed", "file_path", r.FilePath, "error", err)
			continue
		}
		idx.byFile[r.FilePath] = resp.Entities
	}

	for file := range idx.byFile {
		dir := filepath.Dir(file)
		idx.filesByDir[dir] = append(idx.filesByDir[dir], file)
	}
	for dir := range idx.filesByDir {
		sort.Strings(idx.filesByDir[dir])
	}

	return idx
}

// exportedByDir returns, for every directory that has at least one exported
// entity, the flattened list of those entities (pass 3's input).
func (idx *poiIndex) exportedByDir() map[string][]worker.Entity {
	out := make(map[string][]worker.Entity)
	for dir, files := range idx.filesByDir {
		for _, f := range files {
			for _, e := range idx.byFile[f] {
				if e.IsExported {
					out[dir] = append(out[dir], e)
				}
			}
		}
	}
	return out
}

// directories returns every known directory, sorted for deterministic pass
// ordering.
func (idx *poiIndex) directories() []string {
	dirs := make([]string, 0, len(idx.filesByDir))
	for dir := range idx.filesByDir {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs
}

// files returns every known file path, sorted for deterministic pass
// ordering.
func (idx *poiIndex) files() []string {
	files := make([]string, 0, len(idx.byFile))
	for f := range idx.byFile {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}
