package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mcoot/hangman/internal/dependencies/clock"
	"github.com/mcoot/hangman/internal/metrics"
	"github.com/mcoot/hangman/internal/storage"
)

// Worker defaults
const (
	DefaultPollInterval = 5 * time.Second
	DefaultBatchSize    = 20
)

// Worker drains due summaries from the delayed queue and posts them
type Worker struct {
	storage   storage.Storage
	poster    Poster
	clock     clock.Clock
	metrics   *metrics.Metrics
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

// WorkerConfig tunes polling
type WorkerConfig struct {
	PollInterval time.Duration
	BatchSize    int
}

// NewWorker creates a summary worker
func NewWorker(
	storage storage.Storage,
	poster Poster,
	clock clock.Clock,
	m *metrics.Metrics,
	logger *slog.Logger,
	cfg WorkerConfig,
) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	return &Worker{
		storage:   storage,
		poster:    poster,
		clock:     clock,
		metrics:   m,
		logger:    logger,
		interval:  cfg.PollInterval,
		batchSize: cfg.BatchSize,
	}
}

// Run polls until ctx is cancelled. It returns nil on cancellation.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("summary worker started", slog.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("summary worker stopped")
			return nil
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				w.logger.Error("summary poll failed", slog.String("error", err.Error()))
			}
		}
	}
}

// RunOnce claims due summaries until the queue has none left and posts each one.
// A failed post is logged and dropped. Returns the number posted.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	posted := 0
	for {
		jobs, err := w.storage.ClaimDueSummaries(ctx, w.clock.Now(), w.batchSize)
		if err != nil {
			return posted, err
		}

		for _, job := range jobs {
			if err := w.poster.Post(ctx, SummaryText(job)); err != nil {
				w.metrics.Notification(metrics.ChannelSummary, metrics.ResultFailed)
				w.logger.Warn("game summary delivery failed",
					slog.String("game_id", string(job.GameID)),
					slog.String("job_id", job.ID),
					slog.String("error", err.Error()),
				)
				continue
			}
			posted++
			w.metrics.Notification(metrics.ChannelSummary, metrics.ResultSent)
			w.logger.Info("game summary posted",
				slog.String("game_id", string(job.GameID)),
				slog.String("status", string(job.Status)),
			)
		}

		if len(jobs) < w.batchSize {
			return posted, nil
		}
	}
}
