package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hqride/clinical-summarizer/internal/domain"
	"github.com/hqride/clinical-summarizer/internal/queue"
	"github.com/hqride/clinical-summarizer/internal/store"
)

// maxIDRetries bounds retries on a job id collision. uuid v4 collisions are
// negligible, so exhausting this means something else is wrong.
const maxIDRetries = 3

// Dispatcher owns the submission path: it validates input, creates the job
// record, and enqueues the task. It never blocks on processing.
type Dispatcher struct {
	jobs   store.JobStore
	queue  queue.Enqueuer
	logger *slog.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(jobs store.JobStore, q queue.Enqueuer, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		jobs:   jobs,
		queue:  q,
		logger: logger,
	}
}

// Submit accepts a payload, creates a pending job, and enqueues it. Exactly
// one of text and audioRef must be non-empty; otherwise it fails with
// domain.ErrInvalidInput before any record is created.
func (d *Dispatcher) Submit(ctx context.Context, text, audioRef string) (*domain.Job, error) {
	if (text == "") == (audioRef == "") {
		return nil, domain.ErrInvalidInput
	}

	var job *domain.Job
	for attempt := 0; ; attempt++ {
		job = &domain.Job{
			ID:        uuid.New().String(),
			Status:    domain.StatusPending,
			Text:      text,
			AudioRef:  audioRef,
			CreatedAt: time.Now().UTC(),
		}

		err := d.jobs.Create(ctx, job)
		if err == nil {
			break
		}
		if errors.Is(err, domain.ErrDuplicateJob) && attempt < maxIDRetries {
			d.logger.Warn("Job id collision, retrying with a fresh id",
				slog.String("job_id", job.ID),
				slog.Int("attempt", attempt+1),
			)
			continue
		}
		return nil, fmt.Errorf("failed to create job record: %w", err)
	}

	if err := d.queue.Enqueue(ctx, job.ID); err != nil {
		// The pending record is left behind to expire with its TTL; the
		// caller gets an explicit failure instead of a job id no worker
		// will ever pick up.
		d.logger.Error("Failed to enqueue task for created job",
			slog.String("job_id", job.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to enqueue job %s: %w", job.ID, err)
	}

	d.logger.Info("Job submitted",
		slog.String("job_id", job.ID),
		slog.Bool("has_audio", audioRef != ""),
		slog.Int("text_chars", len(text)),
	)

	return job, nil
}
