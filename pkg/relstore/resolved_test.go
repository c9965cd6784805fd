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

package relstore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolvedRelationship_InsertListMarkIngested(t *testing.T) {
	s := openTestStore(t)

	id, err := s.InsertResolvedRelationship(&ResolvedRelationship{
		Pass: ResolverPassIntraFile, SourceQualifiedName: "a", TargetQualifiedName: "b", Type: "CALLS",
	})
	require.NoError(t, err)
	require.NotZero(t, id)

	pending, err := s.ListPendingResolvedRelationships(10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, ResolvedRelationshipStatusPendingIngestion, pending[0].Status)

	require.NoError(t, s.MarkResolvedRelationshipsIngested([]int64{id}))

	pending, err = s.ListPendingResolvedRelationships(10)
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestListAnalysisResultsForResolution_OnlyValidationPassed(t *testing.T) {
	s := openTestStore(t)

	fileID, err := s.UpsertFile(&File{Path: "a.go", AbsolutePath: "/a.go", ContentHash: "h"})
	require.NoError(t, err)
	workID, err := s.EnqueueWork(&WorkItem{FileID: fileID, FilePath: "/a.go", ContentHash: "h"})
	require.NoError(t, err)

	_, err = s.InsertAnalysisResult(&AnalysisResult{
		WorkItemID: workID, FilePath: "/a.go", AbsoluteFilePath: "/a.go",
		LLMOutput: `{"filePath":"/a.go","entities":[],"relationships":[]}`, ValidationPassed: true,
	})
	require.NoError(t, err)
	_, err = s.InsertAnalysisResult(&AnalysisResult{
		WorkItemID: workID, FilePath: "/b.go", AbsoluteFilePath: "/b.go",
		LLMOutput: `not json`, ValidationPassed: false,
	})
	require.NoError(t, err)

	results, err := s.ListAnalysisResultsForResolution()
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "/a.go", results[0].FilePath)
}
