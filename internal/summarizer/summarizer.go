package summarizer

import (
	"context"
	"fmt"

	"github.com/hqride/clinical-summarizer/internal/domain"
)

// Provider turns a clinical conversation into a structured summary. Exactly
// one provider is constructed at process start and shared across jobs.
// Implementations must be safe for concurrent use.
type Provider interface {
	Name() string
	Summarize(ctx context.Context, text string) (*domain.ClinicalSummary, error)
}

// Error wraps an inference failure. The worker records its text verbatim
// into the job's error field.
type Error struct {
	Provider string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("inference failed: %v", e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err as an inference error from the named provider.
func NewError(provider string, err error) error {
	return &Error{Provider: provider, Err: err}
}
