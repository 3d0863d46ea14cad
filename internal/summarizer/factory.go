package summarizer

import (
	"fmt"
	"log/slog"

	"github.com/hqride/clinical-summarizer/internal/config"
)

// NewProvider constructs the configured inference provider. Called once at
// worker startup.
func NewProvider(cfg config.InferenceConfig, logger *slog.Logger) (Provider, error) {
	switch cfg.Provider {
	case "openai":
		if cfg.OpenAI.APIKey == "" {
			return nil, fmt.Errorf("openai provider requires an api key")
		}
		return NewOpenAIProvider(cfg.OpenAI, logger), nil
	case "stub":
		return &StubProvider{}, nil
	default:
		return nil, fmt.Errorf("unknown inference provider %q: must be one of openai, stub", cfg.Provider)
	}
}
