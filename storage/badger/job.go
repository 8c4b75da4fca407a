package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/halcyon-labs/recall/core"
	"github.com/halcyon-labs/recall/storage"
)

// JobRepository implements storage.JobRepository for BadgerDB.
//
// BadgerDB's serializable snapshot isolation is the only synchronization:
// competing workers race on the same Pending jobs and the losing commit
// surfaces as storage.ErrConflict.
type JobRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.JobRepository = (*JobRepository)(nil)

// NewJobRepository creates a new JobRepository.
func NewJobRepository(backend *Backend) (*JobRepository, error) {
	idSeq, err := backend.GetSequence(jobIDSeq)
	if err != nil {
		return nil, err
	}

	return &JobRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *JobRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *JobRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddJobs adds jobs to the queue.
func (r *JobRepository) AddJobs(ctx context.Context, jobs ...*core.EmbeddingJob) ([]*core.EmbeddingJob, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		for _, job := range jobs {
			if job.Id == 0 {
				next, err := r.idSeq.Next()
				if err != nil {
					return err
				}
				// BadgerDB sequences can return 0 on first call, so we skip it
				if next == 0 {
					next, err = r.idSeq.Next()
					if err != nil {
						return err
					}
				}
				job.Id = core.ID(next)
			}
			if job.Status == 0 {
				job.Status = core.JobStatusPending
			}
			if job.InsertedAt.IsZero() {
				job.InsertedAt = now
			}
			job.UpdatedAt = now

			if err := writeJob(tx, job); err != nil {
				return err
			}
			if err := tx.Set(makeJobDocumentKey(job.DocumentId, job.Id), storage.MarshalID(job.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return jobs, err
}

// GetJob retrieves a single job by ID.
func (r *JobRepository) GetJob(ctx context.Context, id core.ID) (*core.EmbeddingJob, error) {
	var result *core.EmbeddingJob
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readJob(tx, id)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// ClaimNextPending atomically claims the oldest Pending job.
//
// Job IDs come from a sequence and the status index sorts BigEndian by ID,
// so the first entry under the Pending prefix is the oldest claimable job.
// A commit conflict means another worker claimed the same job first.
func (r *JobRepository) ClaimNextPending(ctx context.Context) (*core.EmbeddingJob, error) {
	var claimed *core.EmbeddingJob

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeJobStatusPrefix(core.JobStatusPending)
		iter := tx.NewIterator(opts)

		var jobID core.ID
		found := false
		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				var err error
				jobID, err = storage.UnmarshalID(val)
				return err
			})
			if err != nil {
				iter.Close()
				return err
			}
			found = true
			break
		}
		iter.Close()

		if !found {
			return storage.ErrNoPendingJobs
		}

		job, err := readJob(tx, jobID)
		if err != nil {
			return err
		}
		if job == nil || job.Status != core.JobStatusPending {
			// Index entry raced a concurrent transition.
			return storage.ErrConflict
		}

		now := time.Now().UTC()
		job.Status = core.JobStatusProcessing
		job.LastAttemptAt = now
		job.UpdatedAt = now
		if err := transitionJob(tx, job, core.JobStatusPending); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		claimed = job
		return nil
	}, true)

	if errors.Is(err, badger.ErrConflict) {
		return nil, storage.ErrConflict
	}
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// CompleteJob transitions a Processing job to Completed and writes the vector
// onto the job's chunk in the same transaction.
//
// A job or chunk replaced by a concurrent re-index makes the result stale;
// stale results are dropped without error so workers stay oblivious to
// replacement races.
func (r *JobRepository) CompleteJob(ctx context.Context, id core.ID, vector []float32) error {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		job, err := readJob(tx, id)
		if err != nil {
			return err
		}
		if job == nil || job.Status != core.JobStatusProcessing {
			// Job deleted or superseded; drop the result.
			return nil
		}

		now := time.Now().UTC()

		chunk, err := readChunk(tx, job.DocumentId, job.ChunkIndex)
		if err != nil {
			return err
		}
		if chunk != nil && chunk.Generation == job.Generation {
			chunk.Vector = vector
			chunk.UpdatedAt = now
			if err := tx.Set(makeChunkKey(chunk.DocumentId, chunk.Index), storage.MarshalChunk(chunk)); err != nil {
				return err
			}
		}

		job.Status = core.JobStatusCompleted
		job.UpdatedAt = now
		if err := transitionJob(tx, job, core.JobStatusProcessing); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	// A conflicting re-index superseded this result; dropping it is the
	// correct outcome.
	if errors.Is(err, badger.ErrConflict) {
		return nil
	}
	return err
}

// FailJob records a failed attempt. Jobs under the cap return to Pending;
// jobs at the cap are dead-lettered as Failed with the cause recorded.
func (r *JobRepository) FailJob(ctx context.Context, id core.ID, cause error) error {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		job, err := readJob(tx, id)
		if err != nil {
			return err
		}
		if job == nil || job.Status != core.JobStatusProcessing {
			return nil
		}

		job.Attempts++
		job.UpdatedAt = time.Now().UTC()
		if job.Attempts >= core.MaxJobAttempts {
			job.Status = core.JobStatusFailed
			if cause != nil {
				job.Error = cause.Error()
			}
		} else {
			job.Status = core.JobStatusPending
		}

		if err := transitionJob(tx, job, core.JobStatusProcessing); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	if errors.Is(err, badger.ErrConflict) {
		return nil
	}
	return err
}

// PurgeFailedJobs deletes Failed jobs whose UpdatedAt is older than the cutoff.
func (r *JobRepository) PurgeFailedJobs(ctx context.Context, olderThan time.Time) (int, error) {
	purged := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeJobStatusPrefix(core.JobStatusFailed)

		var jobIDs []core.ID
		iter := tx.NewIterator(opts)
		for iter.Rewind(); iter.Valid(); iter.Next() {
			var jobID core.ID
			err := iter.Item().Value(func(val []byte) error {
				var err error
				jobID, err = storage.UnmarshalID(val)
				return err
			})
			if err != nil {
				iter.Close()
				return err
			}
			jobIDs = append(jobIDs, jobID)
		}
		iter.Close()

		for _, jobID := range jobIDs {
			job, err := readJob(tx, jobID)
			if err != nil {
				return err
			}
			if job == nil || !job.UpdatedAt.Before(olderThan) {
				continue
			}
			if err := tx.Delete(makeJobKey(jobID)); err != nil {
				return err
			}
			if err := tx.Delete(makeJobStatusKey(core.JobStatusFailed, jobID)); err != nil {
				return err
			}
			if err := tx.Delete(makeJobDocumentKey(job.DocumentId, jobID)); err != nil {
				return err
			}
			purged++
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return 0, err
	}
	return purged, nil
}

// CountByStatus returns the number of jobs in each lifecycle state.
func (r *JobRepository) CountByStatus(ctx context.Context) (map[core.JobStatus]int, error) {
	counts := make(map[core.JobStatus]int)
	statuses := []core.JobStatus{
		core.JobStatusPending,
		core.JobStatusProcessing,
		core.JobStatusCompleted,
		core.JobStatusFailed,
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, status := range statuses {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = makeJobStatusPrefix(status)
			opts.PrefetchValues = false

			iter := tx.NewIterator(opts)
			for iter.Rewind(); iter.Valid(); iter.Next() {
				counts[status]++
			}
			iter.Close()
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}
	return counts, nil
}

// Helper methods shared with the document repository.

// readJob reads a job from the transaction.
func readJob(tx *badger.Txn, id core.ID) (*core.EmbeddingJob, error) {
	item, err := tx.Get(makeJobKey(id))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var job *core.EmbeddingJob
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		job, unmarshalErr = storage.UnmarshalJob(val)
		return unmarshalErr
	})
	return job, err
}

// readChunk reads a chunk from the transaction.
func readChunk(tx *badger.Txn, documentID core.ID, index int) (*core.Chunk, error) {
	item, err := tx.Get(makeChunkKey(documentID, index))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var chunk *core.Chunk
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		chunk, unmarshalErr = storage.UnmarshalChunk(val)
		return unmarshalErr
	})
	return chunk, err
}

// writeJob stores a job record and its status index entry. The caller is
// responsible for removing a superseded status entry; new jobs have none.
func writeJob(tx *badger.Txn, job *core.EmbeddingJob) error {
	if err := tx.Set(makeJobKey(job.Id), storage.MarshalJob(job)); err != nil {
		return err
	}
	return tx.Set(makeJobStatusKey(job.Status, job.Id), storage.MarshalID(job.Id))
}

// transitionJob moves a job out of its previous status index entry and stores
// the updated record.
func transitionJob(tx *badger.Txn, job *core.EmbeddingJob, from core.JobStatus) error {
	if from != job.Status {
		if err := tx.Delete(makeJobStatusKey(from, job.Id)); err != nil {
			return err
		}
	}
	return writeJob(tx, job)
}
