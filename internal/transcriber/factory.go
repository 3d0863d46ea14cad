package transcriber

import (
	"fmt"
	"log/slog"

	"github.com/hqride/clinical-summarizer/internal/config"
)

// NewTranscriber constructs the configured transcription client. Called once
// at worker startup.
func NewTranscriber(cfg config.TranscriptionConfig, logger *slog.Logger) (Transcriber, error) {
	switch cfg.Provider {
	case "whisper":
		if cfg.Whisper.BaseURL == "" {
			return nil, fmt.Errorf("whisper transcriber requires a base url")
		}
		return NewWhisperTranscriber(cfg.Whisper, logger), nil
	case "stub":
		return &StubTranscriber{}, nil
	default:
		return nil, fmt.Errorf("unknown transcription provider %q: must be one of whisper, stub", cfg.Provider)
	}
}
