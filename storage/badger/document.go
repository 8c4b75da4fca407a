package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/halcyon-labs/recall/core"
	"github.com/halcyon-labs/recall/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend *Backend
	jobSeq  *badger.Sequence
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository. It holds a lease on
// the job ID sequence because the atomic index replacement creates jobs.
func NewDocumentRepository(backend *Backend) (*DocumentRepository, error) {
	jobSeq, err := backend.GetSequence(jobIDSeq)
	if err != nil {
		return nil, err
	}

	return &DocumentRepository{
		backend: backend,
		jobSeq:  jobSeq,
	}, nil
}

// Close releases the job ID sequence.
func (r *DocumentRepository) Close() error {
	return r.jobSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *DocumentRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// GetDocument retrieves a single document projection by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readDocument(tx, id)
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

// GetDocuments retrieves multiple document projections by their IDs.
func (r *DocumentRepository) GetDocuments(ctx context.Context, ids ...core.ID) ([]*core.Document, error) {
	var result []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			doc, err := readDocument(tx, id)
			if err != nil {
				return err
			}
			if doc != nil {
				result = append(result, doc)
			}
		}
		return nil
	}, false)
	return result, err
}

// ReplaceDocumentIndex atomically replaces a document's index state.
//
// The stored generation counter is bumped past whatever the previous
// projection carried, and the new chunks and jobs are stamped with it. Chunks
// from the previous generation and non-terminal jobs are removed in the same
// transaction, so a committed replacement is never observable half-applied.
func (r *DocumentRepository) ReplaceDocumentIndex(ctx context.Context, doc *core.Document, chunks []*core.Chunk, jobs []*core.EmbeddingJob) (*core.Document, error) {
	stored := *doc
	now := time.Now().UTC()

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		old, err := readDocument(tx, doc.Id)
		if err != nil {
			return err
		}

		stored.Generation = 1
		stored.InsertedAt = now
		if old != nil {
			stored.Generation = old.Generation + 1
			stored.InsertedAt = old.InsertedAt
		}
		stored.UpdatedAt = now

		if err := deleteChunks(tx, doc.Id); err != nil {
			return err
		}
		if err := deleteNonTerminalJobs(tx, doc.Id); err != nil {
			return err
		}

		for _, chunk := range chunks {
			chunk.DocumentId = stored.Id
			chunk.OwnerId = stored.OwnerId
			chunk.TenantId = stored.TenantId
			chunk.Generation = stored.Generation
			chunk.InsertedAt = now
			chunk.UpdatedAt = now
			if err := tx.Set(makeChunkKey(chunk.DocumentId, chunk.Index), storage.MarshalChunk(chunk)); err != nil {
				return err
			}
		}

		for _, job := range jobs {
			id, err := r.nextJobID()
			if err != nil {
				return err
			}
			job.Id = id
			job.DocumentId = stored.Id
			job.Generation = stored.Generation
			job.Status = core.JobStatusPending
			job.Attempts = 0
			job.InsertedAt = now
			job.UpdatedAt = now
			if err := writeJob(tx, job); err != nil {
				return err
			}
			if err := tx.Set(makeJobDocumentKey(job.DocumentId, job.Id), storage.MarshalID(job.Id)); err != nil {
				return err
			}
		}

		if err := tx.Set(makeDocumentKey(stored.Id), storage.MarshalDocument(&stored)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// RemoveDocument deletes the projection, chunks, and non-terminal jobs.
func (r *DocumentRepository) RemoveDocument(ctx context.Context, id core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := deleteChunks(tx, id); err != nil {
			return err
		}
		if err := deleteNonTerminalJobs(tx, id); err != nil {
			return err
		}
		if err := tx.Delete(makeDocumentKey(id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetChunks retrieves all chunks for a document, ordered by index.
// The chunk keys encode the index BigEndian, so prefix iteration already
// yields index order.
func (r *DocumentRepository) GetChunks(ctx context.Context, documentID core.ID) ([]*core.Chunk, error) {
	var result []*core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeChunkDocumentPrefix(documentID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var chunk *core.Chunk
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			result = append(result, chunk)
		}
		return nil
	}, false)
	return result, err
}

// FindNearestChunks scans embedded chunks scoped to owner and tenant and
// returns the top matches by cosine similarity, highest first.
func (r *DocumentRepository) FindNearestChunks(ctx context.Context, ownerID, tenantID core.ID, vector []float32, limit int) ([]*storage.ChunkMatch, error) {
	var matches []*storage.ChunkMatch

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		deleted := make(map[core.ID]bool)

		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var chunk *core.Chunk
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}

			if chunk.OwnerId != ownerID || chunk.TenantId != tenantID {
				continue
			}
			if len(chunk.Vector) == 0 {
				continue
			}

			// Chunks of soft-deleted documents stay out of search results.
			isDeleted, seen := deleted[chunk.DocumentId]
			if !seen {
				doc, err := readDocument(tx, chunk.DocumentId)
				if err != nil {
					return err
				}
				isDeleted = doc == nil || doc.Deleted
				deleted[chunk.DocumentId] = isDeleted
			}
			if isDeleted {
				continue
			}

			matches = append(matches, &storage.ChunkMatch{
				Chunk: chunk,
				Score: cosineSimilarity(vector, chunk.Vector),
			})
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}

	slices.SortFunc(matches, func(a, b *storage.ChunkMatch) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// nextJobID draws the next job ID from the sequence, skipping the zero a
// fresh BadgerDB sequence hands out first.
func (r *DocumentRepository) nextJobID() (core.ID, error) {
	next, err := r.jobSeq.Next()
	if err != nil {
		return 0, err
	}
	if next == 0 {
		next, err = r.jobSeq.Next()
		if err != nil {
			return 0, err
		}
	}
	return core.ID(next), nil
}

// Shared helpers. These run inside a caller-owned transaction and never
// commit.

// readDocument reads a document projection from the transaction.
func readDocument(tx *badger.Txn, id core.ID) (*core.Document, error) {
	item, err := tx.Get(makeDocumentKey(id))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var doc *core.Document
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		doc, unmarshalErr = storage.UnmarshalDocument(val)
		return unmarshalErr
	})
	return doc, err
}

// deleteChunks removes every chunk of a document.
func deleteChunks(tx *badger.Txn, documentID core.ID) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = makeChunkDocumentPrefix(documentID)
	opts.PrefetchValues = false

	var keys [][]byte
	iter := tx.NewIterator(opts)
	for iter.Rewind(); iter.Valid(); iter.Next() {
		keys = append(keys, iter.Item().KeyCopy(nil))
	}
	iter.Close()

	for _, key := range keys {
		if err := tx.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

// deleteNonTerminalJobs removes a document's Pending and Processing jobs
// along with their index entries. Completed and Failed jobs survive as
// history until the sweeper purges them.
func deleteNonTerminalJobs(tx *badger.Txn, documentID core.ID) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = makeJobDocumentPrefix(documentID)

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
		if job == nil || job.Status.Terminal() {
			continue
		}
		if err := tx.Delete(makeJobKey(jobID)); err != nil {
			return err
		}
		if err := tx.Delete(makeJobStatusKey(job.Status, jobID)); err != nil {
			return err
		}
		if err := tx.Delete(makeJobDocumentKey(documentID, jobID)); err != nil {
			return err
		}
	}
	return nil
}
