package transcriber

import "context"

// StubTranscriber satisfies Transcriber for tests and local development.
type StubTranscriber struct {
	TranscribeFunc func(ctx context.Context, audioRef string) (string, error)
}

func (s *StubTranscriber) Name() string { return "stub" }

func (s *StubTranscriber) Transcribe(ctx context.Context, audioRef string) (string, error) {
	if s.TranscribeFunc != nil {
		return s.TranscribeFunc(ctx, audioRef)
	}
	return "stub transcript for " + audioRef, nil
}

var _ Transcriber = (*StubTranscriber)(nil)
