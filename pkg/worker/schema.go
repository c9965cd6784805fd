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
	"encoding/json"
	"fmt"

	"github.com/kraklabs/cgraph/pkg/graphstore"
)

// Entity is one element of an LLM response's entities array (spec.md §6).
type Entity struct {
	Type          string `json:"type"`
	Name          string `json:"name"`
	QualifiedName string `json:"qualifiedName,omitempty"`
	FilePath      string `json:"filePath,omitempty"`
	StartLine     int    `json:"startLine,omitempty"`
	EndLine       int    `json:"endLine,omitempty"`
	IsExported    bool   `json:"isExported,omitempty"`
	Signature     string `json:"signature,omitempty"`
}

// Relationship is one element of an LLM response's relationships array. Both
// the flat source_qualifiedName/target_qualifiedName form and the nested
// {from,to,type} form are accepted (spec.md §6, Open Question (a)); this
// implementation standardizes on qualifiedName for identity and normalizes
// the nested form on parse.
type Relationship struct {
	SourceQualifiedName string          `json:"source_qualifiedName,omitempty"`
	TargetQualifiedName string          `json:"target_qualifiedName,omitempty"`
	Type                string          `json:"type"`
	Details             json.RawMessage `json:"details,omitempty"`

	Nested *nestedRelationship `json:"-"`
}

type nestedRelationship struct {
	From string `json:"from"`
	To   string `json:"to"`
	Type string `json:"type"`
}

// Response is the LLM's strict root shape (spec.md §6).
type Response struct {
	FilePath      string         `json:"filePath"`
	Entities      []Entity       `json:"entities"`
	Relationships []Relationship `json:"relationships"`
}

// ParseResponse unmarshals sanitized JSON text into a Response, normalizing
// the nested relationship form into the flat one.
func ParseResponse(text string) (*Response, error) {
	var raw struct {
		FilePath      string            `json:"filePath"`
		Entities      []Entity          `json:"entities"`
		Relationships []json.RawMessage `json:"relationships"`
	}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("parse response JSON: %w", err)
	}

	resp := &Response{FilePath: raw.FilePath, Entities: raw.Entities}
	for _, rawRel := range raw.Relationships {
		rel, err := parseRelationship(rawRel)
		if err != nil {
			return nil, err
		}
		resp.Relationships = append(resp.Relationships, rel)
	}
	return resp, nil
}

func parseRelationship(raw json.RawMessage) (Relationship, error) {
	var flat Relationship
	if err := json.Unmarshal(raw, &flat); err != nil {
		return Relationship{}, fmt.Errorf("parse relationship: %w", err)
	}
	if flat.SourceQualifiedName != "" && flat.TargetQualifiedName != "" {
		return flat, nil
	}

	var nested nestedRelationship
	if err := json.Unmarshal(raw, &nested); err != nil {
		return Relationship{}, fmt.Errorf("parse relationship: %w", err)
	}
	return Relationship{
		SourceQualifiedName: nested.From,
		TargetQualifiedName: nested.To,
		Type:                nested.Type,
	}, nil
}

// ValidationError explains why a Response failed schema validation, quoting
// enough detail to build a correction prompt.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Validate enforces the strict schema from spec.md §6: every entity type and
// relationship type must be in the allow-list, every entity needs a name and
// either a qualifiedName or filePath, every relationship needs both
// endpoints. Unknown labels/types are skipped with a warning by the caller
// rather than failing validation outright, per spec.md §6; a totally
// malformed payload (missing required fields) is rejected.
func Validate(resp *Response) ([]Entity, []Relationship, error) {
	if resp.FilePath == "" {
		return nil, nil, &ValidationError{Reason: "filePath is required"}
	}

	var entities []Entity
	for _, e := range resp.Entities {
		if e.Name == "" {
			return nil, nil, &ValidationError{Reason: fmt.Sprintf("entity missing name: %+v", e)}
		}
		if e.QualifiedName == "" && e.FilePath == "" {
			return nil, nil, &ValidationError{Reason: fmt.Sprintf("entity %q missing qualifiedName and filePath", e.Name)}
		}
		if !graphstore.IsAllowedLabel(e.Type) {
			continue // unknown label: skip with warning (caller logs), not a validation failure
		}
		entities = append(entities, e)
	}

	var relationships []Relationship
	for _, r := range resp.Relationships {
		if r.SourceQualifiedName == "" || r.TargetQualifiedName == "" {
			return nil, nil, &ValidationError{Reason: fmt.Sprintf("relationship missing source/target: %+v", r)}
		}
		if !graphstore.IsAllowedRelationshipType(r.Type) {
			continue
		}
		relationships = append(relationships, r)
	}

	return entities, relationships, nil
}
