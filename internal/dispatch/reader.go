package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hqride/clinical-summarizer/internal/domain"
	"github.com/hqride/clinical-summarizer/internal/store"
)

// Snapshot is the client-visible view of a job: its status record plus the
// result, once completed.
type Snapshot struct {
	Job     domain.Job
	Summary *domain.ClinicalSummary
}

// Reader assembles job snapshots from the job and result stores. It is
// strictly read-only; an expired record is indistinguishable from one that
// never existed.
type Reader struct {
	jobs    store.JobStore
	results store.ResultStore
	logger  *slog.Logger
}

// NewReader creates a Reader.
func NewReader(jobs store.JobStore, results store.ResultStore, logger *slog.Logger) *Reader {
	return &Reader{
		jobs:    jobs,
		results: results,
		logger:  logger,
	}
}

// Query returns the current snapshot for a job id, or domain.ErrJobNotFound
// for unknown and expired ids. A completed job whose result is gone is
// reported as domain.ErrResultMissing rather than served without it.
func (r *Reader) Query(ctx context.Context, id string) (*Snapshot, error) {
	job, err := r.jobs.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	snapshot := &Snapshot{Job: *job}

	if job.Status == domain.StatusCompleted {
		summary, err := r.results.Get(ctx, id)
		if errors.Is(err, domain.ErrJobNotFound) {
			r.logger.Error("Completed job has no stored result",
				slog.String("job_id", id),
			)
			return nil, fmt.Errorf("job %s: %w", id, domain.ErrResultMissing)
		}
		if err != nil {
			return nil, err
		}
		snapshot.Summary = summary
	}

	return snapshot, nil
}
