package summarizer

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hqride/clinical-summarizer/internal/config"
)

func chatReply(content string) string {
	reply := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
	}
	b, _ := json.Marshal(reply)
	return string(b)
}

func newTestProvider(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewOpenAIProvider(config.OpenAIConfig{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Model:   "gpt-4o-mini",
		Timeout: 5 * time.Second,
	}, slog.Default())
}

func TestOpenAIProvider_Summarize(t *testing.T) {
	content := `{
		"patient_age": 45,
		"patient_gender": "male",
		"symptoms": [{"name": "chest pain", "duration": "2 days", "severity": "moderate", "description": "worse on exertion"}],
		"risk_factors": ["smoker"],
		"relevant_conditions": ["angina"],
		"narrative_summary": "45 year old male smoker with exertional chest pain."
	}`

	var gotReq chatRequest
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Write([]byte(chatReply(content)))
	})

	summary, err := p.Summarize(context.Background(), "doctor patient conversation")
	require.NoError(t, err)

	require.NotNil(t, summary.PatientAge)
	assert.Equal(t, 45, *summary.PatientAge)
	assert.Equal(t, "male", summary.PatientGender)
	require.Len(t, summary.Symptoms, 1)
	assert.Equal(t, "chest pain", summary.Symptoms[0].Name)
	assert.Equal(t, "moderate", summary.Symptoms[0].Severity)
	assert.Equal(t, []string{"smoker"}, summary.RiskFactors)
	assert.Equal(t, []string{"angina"}, summary.RelevantConditions)
	assert.Contains(t, summary.NarrativeSummary, "exertional chest pain")
	assert.False(t, summary.CreatedAt.IsZero())

	// The conversation text travels in the user message.
	assert.Equal(t, "gpt-4o-mini", gotReq.Model)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Contains(t, gotReq.Messages[1].Content, "doctor patient conversation")
}

func TestOpenAIProvider_Summarize_JSONEmbeddedInProse(t *testing.T) {
	content := "Here is the extracted summary:\n{\"narrative_summary\": \"stable patient\", \"symptoms\": []}\nLet me know if you need more."

	p := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(chatReply(content)))
	})

	summary, err := p.Summarize(context.Background(), "conversation")
	require.NoError(t, err)
	assert.Equal(t, "stable patient", summary.NarrativeSummary)
}

func TestOpenAIProvider_Summarize_UnparseableResponse(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(chatReply("I could not produce JSON for this one.")))
	})

	// An unparseable reply degrades to a narrative-only summary instead of
	// failing the job.
	summary, err := p.Summarize(context.Background(), "conversation")
	require.NoError(t, err)
	assert.Equal(t, "I could not produce JSON for this one.", summary.NarrativeSummary)
	assert.Empty(t, summary.Symptoms)
}

func TestOpenAIProvider_Summarize_HTTPError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": {"message": "model unavailable"}}`, http.StatusServiceUnavailable)
	})

	_, err := p.Summarize(context.Background(), "conversation")
	require.Error(t, err)

	var provErr *Error
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, "openai", provErr.Provider)
	assert.Contains(t, err.Error(), "inference failed")
	assert.Contains(t, err.Error(), "503")
}

func TestOpenAIProvider_Summarize_NoChoices(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	})

	_, err := p.Summarize(context.Background(), "conversation")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.InferenceConfig
		wantName string
		wantErr  bool
	}{
		{
			name:     "stub provider",
			cfg:      config.InferenceConfig{Provider: "stub"},
			wantName: "stub",
		},
		{
			name: "openai provider",
			cfg: config.InferenceConfig{
				Provider: "openai",
				OpenAI:   config.OpenAIConfig{APIKey: "key", Model: "gpt-4o-mini"},
			},
			wantName: "openai",
		},
		{
			name:    "openai without api key",
			cfg:     config.InferenceConfig{Provider: "openai"},
			wantErr: true,
		},
		{
			name:    "unknown provider",
			cfg:     config.InferenceConfig{Provider: "llama"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(tt.cfg, slog.Default())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, p.Name())
		})
	}
}
