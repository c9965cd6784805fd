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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseResponse_FlatRelationshipForm(t *testing.T) {
	raw := `{"filePath":"/a.go","entities":[{"type":"Function","name":"F","qualifiedName":"/a.go--F"}],
	"relationships":[{"source_qualifiedName":"/a.go--F","target_qualifiedName":"/a.go--G","type":"CALLS"}]}`

	resp, err := ParseResponse(raw)
	require.NoError(t, err)
	require.Len(t, resp.Entities, 1)
	require.Len(t, resp.Relationships, 1)
	require.Equal(t, "/a.go--F", resp.Relationships[0].SourceQualifiedName)
}

func TestParseResponse_NestedRelationshipForm(t *testing.T) {
	raw := `{"filePath":"/a.go","entities":[],"relationships":[{"from":"/a.go--F","to":"/a.go--G","type":"CALLS"}]}`

	resp, err := ParseResponse(raw)
	require.NoError(t, err)
	require.Len(t, resp.Relationships, 1)
	require.Equal(t, "/a.go--F", resp.Relationships[0].SourceQualifiedName)
	require.Equal(t, "/a.go--G", resp.Relationships[0].TargetQualifiedName)
}

func TestParseResponse_MalformedJSONRejected(t *testing.T) {
	_, err := ParseResponse(`{not json`)
	require.Error(t, err)
}

func TestValidate_UnknownLabelSkippedNotRejected(t *testing.T) {
	resp := &Response{
		FilePath: "/a.go",
		Entities: []Entity{
			{Type: "Function", Name: "F", QualifiedName: "/a.go--F"},
			{Type: "Bogus", Name: "G", QualifiedName: "/a.go--G"},
		},
	}
	entities, _, err := Validate(resp)
	require.NoError(t, err)
	require.Len(t, entities, 1)
	require.Equal(t, "F", entities[0].Name)
}

func TestValidate_MissingNameRejected(t *testing.T) {
	resp := &Response{FilePath: "/a.go", Entities: []Entity{{Type: "Function", QualifiedName: "/a.go--F"}}}
	_, _, err := Validate(resp)
	require.Error(t, err)
}

func TestValidate_RelationshipMissingEndpointRejected(t *testing.T) {
	resp := &Response{
		FilePath:      "/a.go",
		Relationships: []Relationship{{SourceQualifiedName: "/a.go--F", Type: "CALLS"}},
	}
	_, _, err := Validate(resp)
	require.Error(t, err)
}

func TestValidate_UnknownRelationshipTypeSkipped(t *testing.T) {
	resp := &Response{
		FilePath: "/a.go",
		Relationships: []Relationship{
			{SourceQualifiedName: "a", TargetQualifiedName: "b", Type: "CALLS"},
			{SourceQualifiedName: "a", TargetQualifiedName: "b", Type: "DROP TABLE"},
		},
	}
	_, relationships, err := Validate(resp)
	require.NoError(t, err)
	require.Len(t, relationships, 1)
}
