package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hqride/clinical-summarizer/internal/domain"
	"github.com/hqride/clinical-summarizer/internal/store"
)

// ProcessTask drives one dequeued job to a terminal state. Job-level
// failures (collaborator errors, panics) are recorded as a failed status
// and return nil; only infrastructure errors that prevented claiming the
// job propagate to the caller for its ack/nack decision.
func (w *Worker) ProcessTask(ctx context.Context, jobID string) (err error) {
	w.logger.Info("Processing job",
		slog.String("job_id", jobID),
		slog.String("worker_id", w.workerID),
	)

	job, err := w.jobs.Get(ctx, jobID)
	if errors.Is(err, domain.ErrJobNotFound) {
		// Expired or never existed; nothing to do.
		w.logger.Warn("Dropping task for unknown job",
			slog.String("job_id", jobID),
		)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load job %s: %w", jobID, err)
	}

	if err := w.jobs.SetStatus(ctx, jobID, domain.StatusProcessing); err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidTransition):
			// Another worker claimed it, or the job is already terminal.
			w.logger.Warn("Job not claimable, dropping task",
				slog.String("job_id", jobID),
				slog.String("error", err.Error()),
			)
			return nil
		case errors.Is(err, domain.ErrJobNotFound):
			return nil
		default:
			return fmt.Errorf("failed to claim job %s: %w", jobID, err)
		}
	}

	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("Panic while processing job",
				slog.String("job_id", jobID),
				slog.Any("panic", r),
			)
			w.failJob(ctx, jobID, fmt.Sprintf("panic: %v", r))
			err = nil
		}
	}()

	// Collaborator calls get a deadline strictly below the queue lease so
	// a terminal status can still be written before the lease expires.
	callCtx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	text := job.Text
	if job.AudioRef != "" {
		transcript, terr := w.transcriber.Transcribe(callCtx, job.AudioRef)
		if terr != nil {
			w.failJob(ctx, jobID, terr.Error())
			return nil
		}
		w.logger.Info("Audio transcribed",
			slog.String("job_id", jobID),
			slog.Int("transcript_chars", len(transcript)),
		)
		text = transcript
	}

	summary, serr := w.summarizer.Summarize(callCtx, text)
	if serr != nil {
		w.failJob(ctx, jobID, serr.Error())
		return nil
	}

	// The result must be durable before the status flips: a reader may
	// never observe completed with a missing result.
	if perr := w.results.Put(ctx, jobID, summary); perr != nil {
		w.failJob(ctx, jobID, fmt.Sprintf("failed to store result: %v", perr))
		return nil
	}

	if uerr := w.jobs.SetStatus(ctx, jobID, domain.StatusCompleted); uerr != nil {
		// The result is stored but the status write failed. Requeueing
		// would not help: the job is no longer claimable. Surface loudly
		// and leave it to the stale-job sweep.
		w.logger.Error("Failed to mark job completed",
			slog.String("job_id", jobID),
			slog.String("error", uerr.Error()),
		)
		return nil
	}

	w.logger.Info("Job completed",
		slog.String("job_id", jobID),
		slog.String("worker_id", w.workerID),
	)

	w.archiveJob(ctx, jobID)
	return nil
}

// failJob records a terminal failure with its cause. The error text is what
// the polling client will see.
func (w *Worker) failJob(ctx context.Context, jobID, cause string) {
	if cause == "" {
		cause = "unknown failure"
	}

	if err := w.jobs.SetStatus(ctx, jobID, domain.StatusFailed, store.WithErrorText(cause)); err != nil {
		w.logger.Error("Failed to mark job failed",
			slog.String("job_id", jobID),
			slog.String("cause", cause),
			slog.String("error", err.Error()),
		)
		return
	}

	w.logger.Info("Job failed",
		slog.String("job_id", jobID),
		slog.String("cause", cause),
	)

	w.archiveJob(ctx, jobID)
}

// archiveJob copies a terminal job into history. Best-effort only.
func (w *Worker) archiveJob(ctx context.Context, jobID string) {
	if w.archive == nil {
		return
	}

	job, err := w.jobs.Get(ctx, jobID)
	if err != nil {
		w.logger.Warn("Skipping archive, job record unreadable",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		return
	}

	if err := w.archive.Archive(ctx, *job); err != nil {
		w.logger.Warn("Failed to archive job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
	}
}
