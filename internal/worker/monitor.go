package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// sweepTimeout bounds a single scan pass over the job store.
const sweepTimeout = 30 * time.Second

// startSweeper schedules the stale-job sweep. Jobs stuck in processing
// past the task deadline have lost their queue lease; the sweep surfaces
// them so operators can tell a crashed worker from a slow one.
func (w *Worker) startSweeper() (*cron.Cron, error) {
	c := cron.New()

	_, err := c.AddFunc(w.sweepSchedule, w.sweepStaleJobs)
	if err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", w.sweepSchedule, err)
	}

	c.Start()
	w.logger.Info("Stale-job sweeper started",
		slog.String("schedule", w.sweepSchedule),
		slog.Duration("deadline", w.taskDeadline),
	)
	return c, nil
}

func (w *Worker) sweepStaleJobs() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	stale, err := w.jobs.StaleProcessing(ctx, w.taskDeadline)
	if err != nil {
		w.logger.Error("Stale-job sweep failed",
			slog.String("error", err.Error()),
		)
		return
	}

	for _, job := range stale {
		w.logger.Warn("Job stuck in processing past its deadline",
			slog.String("job_id", job.ID),
			slog.Time("created_at", job.CreatedAt),
		)
	}

	if len(stale) > 0 {
		w.logger.Warn("Stale-job sweep found stuck jobs",
			slog.Int("count", len(stale)),
		)
	}
}
