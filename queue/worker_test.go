package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/halcyon-labs/recall/ai/mock"
	"github.com/halcyon-labs/recall/core"
	"github.com/halcyon-labs/recall/storage"
	storagebadger "github.com/halcyon-labs/recall/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupQueue(t *testing.T) (storage.DocumentRepository, storage.JobRepository) {
	t.Helper()
	docRepo, jobRepo, backend, err := storagebadger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		jobRepo.Close()
		docRepo.Close()
		backend.Close()
	})
	return docRepo, jobRepo
}

// indexDocument stores a document with one chunk per segment and a Pending
// job for each, the same shape the orchestrator produces.
func indexDocument(t *testing.T, docRepo storage.DocumentRepository, id core.ID, segments ...string) {
	t.Helper()
	var chunks []*core.Chunk
	var jobs []*core.EmbeddingJob
	for i, seg := range segments {
		chunks = append(chunks, &core.Chunk{DocumentId: id, Index: i, Content: seg})
		jobs = append(jobs, &core.EmbeddingJob{DocumentId: id, ChunkIndex: i, Content: seg})
	}
	doc := &core.Document{Id: id, OwnerId: 7, TenantId: 9, Title: "doc"}
	_, err := docRepo.ReplaceDocumentIndex(context.Background(), doc, chunks, jobs)
	require.NoError(t, err)
}

func TestNewWorker_RequiresDependencies(t *testing.T) {
	_, jobRepo := setupQueue(t)

	_, err := NewWorker(nil, mock.NewMockEmbedder())
	assert.ErrorIs(t, err, ErrJobRepositoryRequired)

	_, err = NewWorker(jobRepo, nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
}

func TestWorker_DrainsQueue(t *testing.T) {
	docRepo, jobRepo := setupQueue(t)
	indexDocument(t, docRepo, 1, "first segment text", "second segment text", "third segment text")

	worker, err := NewWorker(jobRepo, mock.NewMockEmbedder(),
		WithPoolSize(2),
		WithPollInterval(10*time.Millisecond))
	require.NoError(t, err)
	defer worker.Release()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go worker.Run(ctx)

	require.Eventually(t, func() bool {
		counts, err := jobRepo.CountByStatus(context.Background())
		return err == nil && counts[core.JobStatusCompleted] == 3 &&
			counts[core.JobStatusPending] == 0 && counts[core.JobStatusProcessing] == 0
	}, 5*time.Second, 20*time.Millisecond)

	// Every chunk received its vector.
	chunks, err := docRepo.GetChunks(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.NotEmpty(t, c.Vector, "chunk %d has no vector", c.Index)
	}
}

func TestWorker_FailingJobsDeadLetter(t *testing.T) {
	docRepo, jobRepo := setupQueue(t)
	indexDocument(t, docRepo, 1, "segment that will never embed")

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("provider down")
	}

	worker, err := NewWorker(jobRepo, embedder,
		WithPoolSize(1),
		WithPollInterval(10*time.Millisecond))
	require.NoError(t, err)
	defer worker.Release()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go worker.Run(ctx)

	require.Eventually(t, func() bool {
		counts, err := jobRepo.CountByStatus(context.Background())
		return err == nil && counts[core.JobStatusFailed] == 1
	}, 5*time.Second, 20*time.Millisecond)

	counts, err := jobRepo.CountByStatus(context.Background())
	require.NoError(t, err)
	assert.Zero(t, counts[core.JobStatusPending], "dead-lettered jobs must not requeue")

	// The chunk never received a vector.
	chunks, err := docRepo.GetChunks(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Empty(t, chunks[0].Vector)
}

func TestWorker_OneFailureDoesNotBlockOthers(t *testing.T) {
	docRepo, jobRepo := setupQueue(t)
	indexDocument(t, docRepo, 1, "poison segment", "healthy segment one", "healthy segment two")

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		if text == "poison segment" {
			return nil, errors.New("cannot embed this")
		}
		return mock.DeterministicVector(text, mock.DefaultDimensions), nil
	}

	worker, err := NewWorker(jobRepo, embedder,
		WithPoolSize(2),
		WithPollInterval(10*time.Millisecond))
	require.NoError(t, err)
	defer worker.Release()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go worker.Run(ctx)

	require.Eventually(t, func() bool {
		counts, err := jobRepo.CountByStatus(context.Background())
		return err == nil &&
			counts[core.JobStatusCompleted] == 2 &&
			counts[core.JobStatusFailed] == 1
	}, 5*time.Second, 20*time.Millisecond)
}

func TestWorker_StopsOnCancel(t *testing.T) {
	_, jobRepo := setupQueue(t)

	worker, err := NewWorker(jobRepo, mock.NewMockEmbedder(), WithPollInterval(10*time.Millisecond))
	require.NoError(t, err)
	defer worker.Release()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancellation")
	}
}

func TestWorkerID_Unique(t *testing.T) {
	_, jobRepo := setupQueue(t)

	a, err := NewWorker(jobRepo, mock.NewMockEmbedder())
	require.NoError(t, err)
	defer a.Release()
	b, err := NewWorker(jobRepo, mock.NewMockEmbedder())
	require.NoError(t, err)
	defer b.Release()

	assert.NotEmpty(t, a.ID())
	assert.NotEqual(t, a.ID(), b.ID())
}
