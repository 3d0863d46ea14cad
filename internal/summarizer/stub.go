package summarizer

import (
	"context"
	"time"

	"github.com/hqride/clinical-summarizer/internal/domain"
)

// StubProvider satisfies Provider for tests and local development. With no
// SummarizeFunc it returns a fixed summary echoing the input.
type StubProvider struct {
	SummarizeFunc func(ctx context.Context, text string) (*domain.ClinicalSummary, error)
}

func (s *StubProvider) Name() string { return "stub" }

func (s *StubProvider) Summarize(ctx context.Context, text string) (*domain.ClinicalSummary, error) {
	if s.SummarizeFunc != nil {
		return s.SummarizeFunc(ctx, text)
	}

	return &domain.ClinicalSummary{
		Symptoms:           []domain.Symptom{},
		RiskFactors:        []string{},
		RelevantConditions: []string{},
		NarrativeSummary:   "Stub summary: " + text,
		CreatedAt:          time.Now().UTC(),
	}, nil
}

var _ Provider = (*StubProvider)(nil)
