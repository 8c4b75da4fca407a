// Copyright 2026 Halcyon Labs
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


package core

import "fmt"

// ValidateDocument validates a Document projection according to domain rules.
//
// Validation rules:
//   - Id, OwnerId and TenantId must be non-zero
//
// NOT validated (populated by the orchestrator):
//   - ContentHash and Generation (zero until first index replacement)
//   - Tags (optional)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}
	if doc.Id == 0 {
		return fmt.Errorf("%w: id is required", ErrInvalidDocument)
	}
	if doc.OwnerId == 0 {
		return fmt.Errorf("%w: owner id is required", ErrInvalidDocument)
	}
	if doc.TenantId == 0 {
		return fmt.Errorf("%w: tenant id is required", ErrInvalidDocument)
	}
	return nil
}

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - DocumentId must be non-zero
//   - Index must not be negative
//   - Content must not be empty
//
// NOT validated (populated by the embedding worker):
//   - Vector (nil until an embedding job completes)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}
	if chunk.DocumentId == 0 {
		return fmt.Errorf("%w: document id is required", ErrInvalidChunk)
	}
	if chunk.Index < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrNegativeChunkIndex)
	}
	if chunk.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}
	return nil
}

// ValidateJob validates an EmbeddingJob according to domain rules.
//
// Validation rules:
//   - DocumentId must be non-zero
//   - ChunkIndex must not be negative
//   - Content snapshot must not be empty
//   - Status must be a known JobStatus value
func ValidateJob(job *EmbeddingJob) error {
	if job == nil {
		return fmt.Errorf("%w: job is nil", ErrInvalidJob)
	}
	if job.DocumentId == 0 {
		return fmt.Errorf("%w: document id is required", ErrInvalidJob)
	}
	if job.ChunkIndex < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidJob, ErrNegativeChunkIndex)
	}
	if job.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidJob, ErrEmptyContent)
	}
	if err := ValidateJobStatus(job.Status); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidJob, err)
	}
	return nil
}

// ValidateJobStatus validates that a JobStatus has a valid value.
func ValidateJobStatus(status JobStatus) error {
	switch status {
	case JobStatusPending, JobStatusProcessing, JobStatusCompleted, JobStatusFailed:
		return nil
	}
	return fmt.Errorf("%w: value %d", ErrInvalidJobStatus, status)
}
