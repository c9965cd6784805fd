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
	"fmt"
	"strings"

	"github.com/kraklabs/cgraph/pkg/worker"
)

const relationshipSchemaDescription = `{
  "filePath": string,
  "entities": [],
  "relationships": [{"source_qualifiedName": string, "target_qualifiedName": string, "type": "CONTAINS"|"CALLS"|"USES"|"IMPORTS"|"EXPORTS"|"EXTENDS"}]
}`

func listPOIs(sb *strings.Builder, entities []worker.Entity) {
	for _, e := range entities {
		fmt.Fprintf(sb, "- %s %q (qualifiedName=%s", e.Type, e.Name, e.QualifiedName)
		if e.Signature != "" {
			fmt.Fprintf(sb, ", signature=%s", e.Signature)
		}
		sb.WriteString(")\n")
	}
}

// intraFilePrompt builds pass 1's prompt: every POI in a single file, asking
// for relationships among them (spec.md §4.5 pass 1).
func intraFilePrompt(filePath string, entities []worker.Entity) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "File: %s\n\n", filePath)
	sb.WriteString("The following points of interest were extracted from this file:\n")
	listPOIs(&sb, entities)
	sb.WriteString("\nIdentify relationships among these points of interest only (same-file calls, containment, usage).\n")
	sb.WriteString("Respond with JSON matching exactly this schema, and nothing else:\n")
	sb.WriteString(relationshipSchemaDescription)
	return sb.String()
}

// intraDirectoryPrompt builds pass 2's prompt: every file's POIs in a
// directory, asking for cross-file relationships (spec.md §4.5 pass 2).
func intraDirectoryPrompt(dir string, filesEntities map[string][]worker.Entity, files []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Directory: %s\n\n", dir)
	sb.WriteString("The following points of interest were extracted from files in this directory:\n")
	for _, f := range files {
		fmt.Fprintf(&sb, "\nFile %s:\n", f)
		listPOIs(&sb, filesEntities[f])
	}
	sb.WriteString("\nFocus on cross-file relationships within this directory: imports and calls between the listed files.\n")
	sb.WriteString("Respond with JSON matching exactly this schema, and nothing else:\n")
	sb.WriteString(relationshipSchemaDescription)
	return sb.String()
}

// globalPrompt builds pass 3's prompt: every exported POI in the project,
// grouped by directory for readability, asking for long-range relationships
// that cross directories (spec.md §4.5 pass 3).
func globalPrompt(entitiesByDir map[string][]worker.Entity, dirs []string) string {
	var sb strings.Builder
	sb.WriteString("Every exported point of interest in the project, grouped by directory:\n")
	for _, dir := range dirs {
		fmt.Fprintf(&sb, "\nDirectory %s:\n", dir)
		listPOIs(&sb, entitiesByDir[dir])
	}
	sb.WriteString("\nIdentify long-range relationships that cross directories (e.g. a route referencing a service).\n")
	sb.WriteString("Respond with JSON matching exactly this schema, and nothing else:\n")
	sb.WriteString(relationshipSchemaDescription)
	return sb.String()
}
