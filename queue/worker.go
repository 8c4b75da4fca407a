package queue

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/halcyon-labs/recall/ai"
	"github.com/halcyon-labs/recall/core"
	"github.com/halcyon-labs/recall/storage"
	"github.com/panjf2000/ants/v2"
)

const (
	// DefaultPollInterval is how long the worker sleeps when the queue is empty.
	DefaultPollInterval = 500 * time.Millisecond
	// DefaultEmbedTimeout bounds a single embedding call.
	DefaultEmbedTimeout = 30 * time.Second
)

// Worker claims Pending embedding jobs and runs them on a bounded pool.
type Worker struct {
	id           string
	jobs         storage.JobRepository
	embedder     ai.Embedder
	pool         *ants.Pool
	pollInterval time.Duration
	embedTimeout time.Duration
	logger       *slog.Logger
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker) error

// WithPoolSize sets how many embedding calls may run concurrently.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) WorkerOption {
	return func(w *Worker) error {
		if size < 1 {
			size = 1
		}
		if w.pool != nil {
			w.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		w.pool = pool
		return nil
	}
}

// WithPollInterval sets the idle sleep between claim attempts.
func WithPollInterval(interval time.Duration) WorkerOption {
	return func(w *Worker) error {
		if interval > 0 {
			w.pollInterval = interval
		}
		return nil
	}
}

// WithEmbedTimeout sets the per-job embedding call timeout.
func WithEmbedTimeout(timeout time.Duration) WorkerOption {
	return func(w *Worker) error {
		if timeout > 0 {
			w.embedTimeout = timeout
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) error {
		if logger == nil {
			logger = slog.Default()
		}
		w.logger = logger
		return nil
	}
}

// NewWorker creates an embedding worker. Each worker carries a unique
// identity so log lines from competing workers stay attributable.
func NewWorker(jobs storage.JobRepository, embedder ai.Embedder, opts ...WorkerOption) (*Worker, error) {
	if jobs == nil {
		return nil, ErrJobRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	w := &Worker{
		id:           id,
		jobs:         jobs,
		embedder:     embedder,
		pool:         pool,
		pollInterval: DefaultPollInterval,
		embedTimeout: DefaultEmbedTimeout,
		logger:       slog.Default().With("component", "queue-worker", "worker", id),
	}

	for _, opt := range opts {
		if optErr := opt(w); optErr != nil {
			w.Release()
			return nil, optErr
		}
	}

	return w, nil
}

// ID returns the worker's identity string.
func (w *Worker) ID() string {
	return w.id
}

// Run claims and processes jobs until the context is cancelled. Claim
// conflicts with competing workers retry immediately; an empty queue sleeps
// one poll interval.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("worker started")
	for {
		if err := ctx.Err(); err != nil {
			w.logger.Info("worker stopped")
			return nil
		}

		job, err := w.jobs.ClaimNextPending(ctx)
		switch {
		case errors.Is(err, storage.ErrNoPendingJobs):
			if !sleepCtx(ctx, w.pollInterval) {
				w.logger.Info("worker stopped")
				return nil
			}
			continue
		case errors.Is(err, storage.ErrConflict):
			continue
		case err != nil:
			w.logger.Error("claim failed", "err", err)
			if !sleepCtx(ctx, w.pollInterval) {
				w.logger.Info("worker stopped")
				return nil
			}
			continue
		}

		// Submit blocks when the pool is saturated, which throttles
		// claiming to the embedding throughput.
		if err := w.pool.Submit(func() { w.process(job) }); err != nil {
			w.logger.Error("failed to submit job", "job", job.Id, "err", err)
			if failErr := w.jobs.FailJob(context.Background(), job.Id, err); failErr != nil {
				w.logger.Error("failed to record job failure", "job", job.Id, "err", failErr)
			}
		}
	}
}

// process runs one claimed job to a terminal report. The job's content
// snapshot is embedded, never the live chunk.
func (w *Worker) process(job *core.EmbeddingJob) {
	ctx, cancel := context.WithTimeout(context.Background(), w.embedTimeout)
	defer cancel()

	vector, err := w.embedder.EmbedText(ctx, job.Content)
	if err != nil {
		w.logger.Warn("embedding failed", "job", job.Id, "document", job.DocumentId, "attempts", job.Attempts+1, "err", err)
		if failErr := w.jobs.FailJob(context.Background(), job.Id, err); failErr != nil {
			w.logger.Error("failed to record job failure", "job", job.Id, "err", failErr)
		}
		return
	}

	if err := w.jobs.CompleteJob(context.Background(), job.Id, vector); err != nil {
		w.logger.Error("failed to complete job", "job", job.Id, "err", err)
	}
}

// Release releases the worker pool. The worker should not be used after
// calling Release.
func (w *Worker) Release() {
	if w.pool != nil {
		w.pool.Release()
	}
}

// sleepCtx sleeps for d, returning false if the context was cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
