package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hqride/clinical-summarizer/internal/config"
)

// WhisperTranscriber implements Transcriber against a whisper transcription
// server. The audio reference is passed through as-is; resolving it to bytes
// is the transcription service's concern.
type WhisperTranscriber struct {
	cfg    config.WhisperConfig
	client *http.Client
	logger *slog.Logger
}

// NewWhisperTranscriber creates a WhisperTranscriber.
func NewWhisperTranscriber(cfg config.WhisperConfig, logger *slog.Logger) *WhisperTranscriber {
	return &WhisperTranscriber{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

func (t *WhisperTranscriber) Name() string { return "whisper" }

type transcribeRequest struct {
	AudioRef string `json:"audio_ref"`
	Model    string `json:"model,omitempty"`
}

type transcribeResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

func (t *WhisperTranscriber) Transcribe(ctx context.Context, audioRef string) (string, error) {
	reqBody, err := json.Marshal(transcribeRequest{
		AudioRef: audioRef,
		Model:    t.cfg.Model,
	})
	if err != nil {
		return "", NewError(t.Name(), fmt.Errorf("failed to encode request: %w", err))
	}

	url := strings.TrimSuffix(t.cfg.BaseURL, "/") + "/transcribe"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return "", NewError(t.Name(), err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := t.client.Do(req)
	if err != nil {
		return "", NewError(t.Name(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", NewError(t.Name(), fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return "", NewError(t.Name(), fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var transcribeResp transcribeResponse
	if err := json.Unmarshal(body, &transcribeResp); err != nil {
		return "", NewError(t.Name(), fmt.Errorf("failed to decode response: %w", err))
	}
	if transcribeResp.Error != "" {
		return "", NewError(t.Name(), fmt.Errorf("server error: %s", transcribeResp.Error))
	}
	if transcribeResp.Text == "" {
		return "", NewError(t.Name(), fmt.Errorf("server returned empty transcript"))
	}

	t.logger.Debug("Transcription completed",
		slog.String("audio_ref", audioRef),
		slog.Int("transcript_chars", len(transcribeResp.Text)),
		slog.Duration("latency", time.Since(start)),
	)

	return transcribeResp.Text, nil
}

var _ Transcriber = (*WhisperTranscriber)(nil)
