package summarizer

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
	"github.com/hqride/clinical-summarizer/internal/domain"
)

const systemPrompt = "You are an expert medical assistant that extracts structured information from clinical conversations."

// OpenAIProvider implements Provider against an OpenAI-compatible
// chat-completions endpoint.
type OpenAIProvider struct {
	cfg    config.OpenAIConfig
	client *http.Client
	logger *slog.Logger
}

// NewOpenAIProvider creates an OpenAIProvider. The HTTP client timeout comes
// from config and should stay below the queue task deadline.
func NewOpenAIProvider(cfg config.OpenAIConfig, logger *slog.Logger) *OpenAIProvider {
	return &OpenAIProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

func (p *OpenAIProvider) Name() string { return "openai" }

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (p *OpenAIProvider) Summarize(ctx context.Context, text string) (*domain.ClinicalSummary, error) {
	reqBody, err := json.Marshal(chatRequest{
		Model: p.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildClinicalPrompt(text)},
		},
		Temperature: 0.3,
		MaxTokens:   2000,
	})
	if err != nil {
		return nil, NewError(p.Name(), fmt.Errorf("failed to encode request: %w", err))
	}

	url := strings.TrimSuffix(p.cfg.BaseURL, "/") + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, NewError(p.Name(), err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, NewError(p.Name(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewError(p.Name(), fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, NewError(p.Name(), fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, NewError(p.Name(), fmt.Errorf("failed to decode response: %w", err))
	}
	if chatResp.Error != nil {
		return nil, NewError(p.Name(), fmt.Errorf("provider error: %s", chatResp.Error.Message))
	}
	if len(chatResp.Choices) == 0 {
		return nil, NewError(p.Name(), fmt.Errorf("provider returned no choices"))
	}

	content := chatResp.Choices[0].Message.Content

	p.logger.Debug("LLM response received",
		slog.Int("response_chars", len(content)),
		slog.Duration("latency", time.Since(start)),
	)

	summary := parseSummaryResponse(content, p.logger)
	summary.CreatedAt = time.Now().UTC()
	return summary, nil
}

// buildClinicalPrompt instructs the model to return the summary as a fixed
// JSON structure.
func buildClinicalPrompt(text string) string {
	var b strings.Builder
	b.WriteString("Analyze the following clinical conversation and extract structured information.\n\n")
	b.WriteString("CONVERSATION:\n")
	b.WriteString(text)
	b.WriteString(`

Please extract and structure the following information:

1. PATIENT INFORMATION: age and gender, if available.
2. SYMPTOMS: for each symptom, its name, duration (e.g. "3 days"), severity (mild, moderate, severe) and an additional description.
3. RISK FACTORS: risk factors mentioned (e.g. "smoker", "diabetes", "family history").
4. RELEVANT CONDITIONS: medical conditions mentioned or suggested.
5. NARRATIVE SUMMARY: a clear, concise summary in professional medical language.

Respond in JSON with this structure:
{
    "patient_age": <number or null>,
    "patient_gender": "<text or null>",
    "symptoms": [
        {"name": "<symptom>", "duration": "<duration>", "severity": "<severity>", "description": "<description>"}
    ],
    "risk_factors": ["<factor>"],
    "relevant_conditions": ["<condition>"],
    "narrative_summary": "<summary>"
}`)
	return b.String()
}

// parseSummaryResponse extracts the JSON object embedded in the model
// response. When no parseable JSON is found, the raw response becomes the
// narrative summary rather than failing the job.
func parseSummaryResponse(content string, logger *slog.Logger) *domain.ClinicalSummary {
	summary := &domain.ClinicalSummary{
		Symptoms:           []domain.Symptom{},
		RiskFactors:        []string{},
		RelevantConditions: []string{},
		NarrativeSummary:   content,
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		logger.Warn("No JSON object found in LLM response, keeping raw text")
		return summary
	}

	var parsed struct {
		PatientAge         *int             `json:"patient_age"`
		PatientGender      string           `json:"patient_gender"`
		Symptoms           []domain.Symptom `json:"symptoms"`
		RiskFactors        []string         `json:"risk_factors"`
		RelevantConditions []string         `json:"relevant_conditions"`
		NarrativeSummary   string           `json:"narrative_summary"`
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &parsed); err != nil {
		logger.Warn("Failed to parse JSON from LLM response, keeping raw text",
			slog.String("error", err.Error()),
		)
		return summary
	}

	summary.PatientAge = parsed.PatientAge
	summary.PatientGender = parsed.PatientGender
	if parsed.Symptoms != nil {
		summary.Symptoms = parsed.Symptoms
	}
	if parsed.RiskFactors != nil {
		summary.RiskFactors = parsed.RiskFactors
	}
	if parsed.RelevantConditions != nil {
		summary.RelevantConditions = parsed.RelevantConditions
	}
	if parsed.NarrativeSummary != "" {
		summary.NarrativeSummary = parsed.NarrativeSummary
	}
	return summary
}

var _ Provider = (*OpenAIProvider)(nil)
