package domain

import "errors"

var (
	// ErrInvalidInput is returned when a submission carries neither or both
	// of the text and audio payload kinds.
	ErrInvalidInput = errors.New("exactly one of text or audio_ref must be provided")

	// ErrJobNotFound is returned for unknown or expired job ids.
	ErrJobNotFound = errors.New("job not found")

	// ErrDuplicateJob is returned when creating a job whose id already exists.
	ErrDuplicateJob = errors.New("job id already exists")

	// ErrInvalidTransition is returned when a status update violates the
	// pending -> processing -> {completed, failed} state machine.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrResultMissing is returned when a completed job has no stored result.
	// Readers must fail loudly rather than fabricate data.
	ErrResultMissing = errors.New("result missing for completed job")
)
