package storage

import (
	"context"
	"time"

	"github.com/halcyon-labs/recall/core"
)

// ChunkMatch pairs a chunk with its similarity score against a query vector.
type ChunkMatch struct {
	Chunk *core.Chunk
	Score float64
}

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// The context passed to fn may contain transaction state.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// DocumentRepository provides operations for document projections and their
// chunk sets.
type DocumentRepository interface {
	Repository

	// GetDocument retrieves a single document projection by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// GetDocuments retrieves multiple document projections by their IDs.
	// Returns only the documents that exist (no error for missing documents).
	GetDocuments(ctx context.Context, ids ...core.ID) ([]*core.Document, error)

	// ReplaceDocumentIndex atomically replaces a document's entire index
	// state: the projection is upserted with its generation incremented, all
	// existing chunks are deleted, all non-terminal jobs for the document are
	// deleted, and the given chunks and jobs are written stamped with the new
	// generation, fresh job IDs, and timestamps. Terminal jobs survive as
	// history. An empty chunk set is valid and clears the document's index.
	// Returns the stored projection.
	ReplaceDocumentIndex(ctx context.Context, doc *core.Document, chunks []*core.Chunk, jobs []*core.EmbeddingJob) (*core.Document, error)

	// RemoveDocument deletes the document projection, all of its chunks, and
	// all of its non-terminal jobs. Removing an unknown document is a no-op.
	RemoveDocument(ctx context.Context, id core.ID) error

	// GetChunks retrieves all chunks for a document, ordered by index.
	GetChunks(ctx context.Context, documentID core.ID) ([]*core.Chunk, error)

	// FindNearestChunks scans embedded chunks scoped to the given owner and
	// tenant and returns the best matches by cosine similarity against the
	// query vector, highest first, up to limit. Chunks without vectors and
	// chunks of deleted documents are skipped.
	FindNearestChunks(ctx context.Context, ownerID, tenantID core.ID, vector []float32, limit int) ([]*ChunkMatch, error)
}

// JobRepository provides operations for the embedding job queue.
type JobRepository interface {
	Repository

	// AddJobs adds jobs to the queue. For jobs with ID=0, generates new IDs
	// from the sequence. Sets InsertedAt if not already set. Returns the jobs
	// with IDs and timestamps populated.
	AddJobs(ctx context.Context, jobs ...*core.EmbeddingJob) ([]*core.EmbeddingJob, error)

	// GetJob retrieves a single job by ID.
	// Returns ErrNotFound if the job doesn't exist.
	GetJob(ctx context.Context, id core.ID) (*core.EmbeddingJob, error)

	// ClaimNextPending atomically transitions the oldest Pending job to
	// Processing and records the attempt time. Returns ErrNoPendingJobs when
	// the queue holds nothing claimable, and ErrConflict when a competing
	// worker won the same job; the caller retries on conflict.
	ClaimNextPending(ctx context.Context) (*core.EmbeddingJob, error)

	// CompleteJob transitions a job to Completed and stores the vector on the
	// job's chunk in the same transaction. A missing job, missing chunk, or
	// generation mismatch means the work was superseded by a re-index; the
	// result is silently dropped.
	CompleteJob(ctx context.Context, id core.ID, vector []float32) error

	// FailJob records a failed attempt. Jobs under the attempt cap return to
	// Pending for retry; jobs at the cap are dead-lettered as Failed with the
	// cause recorded.
	FailJob(ctx context.Context, id core.ID, cause error) error

	// PurgeFailedJobs deletes Failed jobs whose UpdatedAt is older than the
	// cutoff. Returns the number of jobs deleted.
	PurgeFailedJobs(ctx context.Context, olderThan time.Time) (int, error)

	// CountByStatus returns the number of jobs in each lifecycle state.
	CountByStatus(ctx context.Context) (map[core.JobStatus]int, error)
}
