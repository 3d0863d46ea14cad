package handler

import (
	"context"
	"log/slog"

	"github.com/hqride/clinical-summarizer/internal/archive"
	"github.com/hqride/clinical-summarizer/internal/dispatch"
	"github.com/hqride/clinical-summarizer/internal/domain"
)

// Submitter accepts new summarization jobs.
type Submitter interface {
	Submit(ctx context.Context, text, audioRef string) (*domain.Job, error)
}

// Querier reads job status together with the result for completed jobs.
type Querier interface {
	Query(ctx context.Context, jobID string) (*dispatch.Snapshot, error)
}

// History lists archived terminal jobs.
type History interface {
	List(ctx context.Context, filter archive.Filter) ([]archive.Record, error)
}

// Pinger reports reachability of the job store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// QueueStatus reports whether the broker connection is up.
type QueueStatus interface {
	Connected() bool
}

// Dependencies holds all dependencies needed by handlers. History may be
// nil when no archive database is configured.
type Dependencies struct {
	Logger    *slog.Logger
	Submitter Submitter
	Querier   Querier
	History   History
	Store     Pinger
	Queue     QueueStatus
}

// SummaryHandler handles summarization HTTP requests
type SummaryHandler struct {
	logger    *slog.Logger
	submitter Submitter
	querier   Querier
	history   History
	store     Pinger
	queue     QueueStatus
}

// NewSummaryHandler creates a new SummaryHandler instance
func NewSummaryHandler(deps *Dependencies) *SummaryHandler {
	return &SummaryHandler{
		logger:    deps.Logger,
		submitter: deps.Submitter,
		querier:   deps.Querier,
		history:   deps.History,
		store:     deps.Store,
		queue:     deps.Queue,
	}
}
