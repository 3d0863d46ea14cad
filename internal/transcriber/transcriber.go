package transcriber

import (
	"context"
	"fmt"
)

// Transcriber resolves an audio reference to text. Implementations must be
// safe for concurrent use.
type Transcriber interface {
	Name() string
	Transcribe(ctx context.Context, audioRef string) (string, error)
}

// Error wraps a transcription failure. The worker records its text verbatim
// into the job's error field.
type Error struct {
	Provider string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transcription failed: %v", e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err as a transcription error from the named provider.
func NewError(provider string, err error) error {
	return &Error{Provider: provider, Err: err}
}
