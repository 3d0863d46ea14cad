package store

import (
	"context"
	"time"

	"github.com/hqride/clinical-summarizer/internal/domain"
)

// JobStore is the durable record of job metadata and status. Records carry a
// fixed TTL from creation; writes never extend it.
// Implementations must be safe for concurrent use.
type JobStore interface {
	// Create writes a new record, failing with domain.ErrDuplicateJob if the
	// id already exists.
	Create(ctx context.Context, job *domain.Job) error

	// Get returns the current snapshot, or domain.ErrJobNotFound if the
	// record is absent or expired.
	Get(ctx context.Context, id string) (*domain.Job, error)

	// SetStatus atomically applies a status transition, rejecting moves that
	// violate the state machine with domain.ErrInvalidTransition. Terminal
	// transitions set CompletedAt exactly once.
	SetStatus(ctx context.Context, id string, status domain.JobStatus, opts ...StatusOption) error

	// StaleProcessing lists jobs still in processing whose age exceeds
	// olderThan. Used by the stale-job monitor, never by the hot path.
	StaleProcessing(ctx context.Context, olderThan time.Duration) ([]domain.Job, error)

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
}

// ResultStore holds completed job output, keyed separately from the hot
// status record so status polling stays cheap.
type ResultStore interface {
	Put(ctx context.Context, id string, summary *domain.ClinicalSummary) error

	// Get returns the stored result, or domain.ErrJobNotFound if absent or
	// expired.
	Get(ctx context.Context, id string) (*domain.ClinicalSummary, error)
}

// StatusOption customizes a SetStatus call.
type StatusOption func(*statusUpdate)

type statusUpdate struct {
	errorText string
}

// WithErrorText records the failure cause on a failed transition.
func WithErrorText(msg string) StatusOption {
	return func(u *statusUpdate) {
		u.errorText = msg
	}
}
