package queue

import (
	"context"
	"log/slog"
	"time"

	"github.com/halcyon-labs/recall/storage"
)

const (
	// DefaultRetention is how long dead-lettered jobs stay inspectable.
	DefaultRetention = 24 * time.Hour
	// DefaultSweepInterval is how often the sweeper runs.
	DefaultSweepInterval = time.Hour
)

// Sweeper periodically purges Failed jobs older than the retention window.
type Sweeper struct {
	jobs      storage.JobRepository
	retention time.Duration
	interval  time.Duration
	logger    *slog.Logger
}

// SweeperOption configures a Sweeper.
type SweeperOption func(*Sweeper)

// WithRetention sets how long Failed jobs are kept before purging.
func WithRetention(retention time.Duration) SweeperOption {
	return func(s *Sweeper) {
		if retention > 0 {
			s.retention = retention
		}
	}
}

// WithSweepInterval sets the time between sweeps.
func WithSweepInterval(interval time.Duration) SweeperOption {
	return func(s *Sweeper) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithSweeperLogger sets a custom logger.
func WithSweeperLogger(logger *slog.Logger) SweeperOption {
	return func(s *Sweeper) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSweeper creates a dead-letter sweeper.
func NewSweeper(jobs storage.JobRepository, opts ...SweeperOption) (*Sweeper, error) {
	if jobs == nil {
		return nil, ErrJobRepositoryRequired
	}

	s := &Sweeper{
		jobs:      jobs,
		retention: DefaultRetention,
		interval:  DefaultSweepInterval,
		logger:    slog.Default().With("component", "queue-sweeper"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Sweep purges aged-out Failed jobs once and returns how many were removed.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-s.retention)
	purged, err := s.jobs.PurgeFailedJobs(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if purged > 0 {
		s.logger.Info("purged dead-lettered jobs", "count", purged, "cutoff", cutoff)
	}
	return purged, nil
}

// Run sweeps on the configured interval until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.Error("sweep failed", "err", err)
			}
		}
	}
}
