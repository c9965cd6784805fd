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

import "time"

// File statuses (spec.md §3).
const (
	FileStatusPending         = "pending"
	FileStatusProcessing      = "processing"
	FileStatusCompleted       = "completed"
	FileStatusFailed          = "failed"
	FileStatusPendingDeletion = "pending_deletion"
)

// Work item / analysis-result statuses.
const (
	WorkStatusPending    = "pending"
	WorkStatusProcessing = "processing"
	WorkStatusCompleted  = "completed"
	WorkStatusFailed     = "failed"

	AnalysisStatusPendingIngestion = "pending_ingestion"
	AnalysisStatusIngested         = "ingested"
	AnalysisStatusValidationFailed = "validation_failed"
)

// Refactoring task kinds and statuses.
const (
	RefactorKindDelete = "DELETE"
	RefactorKindRename = "RENAME"

	RefactorStatusPending   = "pending"
	RefactorStatusCompleted = "completed"
)

// File mirrors the `files` table (spec.md §3).
type File struct {
	ID           int64
	Path         string
	AbsolutePath string
	ContentHash  string
	Language     string
	Size         int64
	SpecialType  string
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FileStateEntry is one row of the last-ingested snapshot.
type FileStateEntry struct {
	Path        string
	ContentHash string
	LastScanned time.Time
}

// WorkItem mirrors the `work_queue` table.
type WorkItem struct {
	ID             int64
	FileID         int64
	FilePath       string
	ContentHash    string
	ProjectContext string
	Status         string
	WorkerID       string
	CreatedAt      time.Time
	ClaimedAt      *time.Time
	CompletedAt    *time.Time
}

// AnalysisResult mirrors the `analysis_results` table.
type AnalysisResult struct {
	ID                   int64
	WorkItemID           int64
	FilePath             string
	AbsoluteFilePath     string
	LLMOutput            string
	Status               string
	ValidationPassed     bool
	EntitiesCount        int
	RelationshipsCount   int
	RetryCount           int
	ProcessingDurationMS int64
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// FailedWork mirrors the append-only `failed_work` log.
type FailedWork struct {
	ID          int64
	WorkItemID  int64
	ErrorMessage string
	ErrorType   string
	RetryCount  int
	LastRetryAt time.Time
}

// RefactoringTask mirrors the `refactoring_tasks` table.
type RefactoringTask struct {
	ID              int64
	Kind            string
	OldAbsolutePath string
	NewAbsolutePath string
	Status          string
	CreatedAt       time.Time
}

// Relationship resolver pass names and resolved-relationship statuses
// (spec.md §4.5).
const (
	ResolverPassIntraFile      = "intra_file"
	ResolverPassIntraDirectory = "intra_directory"
	ResolverPassGlobal         = "global"

	ResolvedRelationshipStatusPendingIngestion = "pending_ingestion"
	ResolvedRelationshipStatusIngested         = "ingested"
)

// ResolvedRelationship mirrors the `resolved_relationships` table: an edge
// discovered by the Relationship Resolver, awaiting pickup by the graph
// ingestor alongside worker-produced AnalysisResults.
type ResolvedRelationship struct {
	ID                  int64
	Pass                string
	SourceQualifiedName string
	TargetQualifiedName string
	Type                string
	Details             string
	Status              string
	CreatedAt           time.Time
}
