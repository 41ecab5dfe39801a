package services

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/AnmolGhill/ArogyaAI/config"
)

func TestOpenAIClient_Outcomes(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   OutcomeKind
	}{
		{"success", http.StatusOK, `{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"<p>hi</p>"},"finish_reason":"stop"}]}`, OutcomeSuccess},
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"Rate limit reached","type":"requests","code":"rate_limit_exceeded"}}`, OutcomeQuotaExceeded},
		{"server error", http.StatusInternalServerError, `{"error":{"message":"boom","type":"server_error"}}`, OutcomeOtherFailure},
		{"no choices", http.StatusOK, `{"id":"c2","object":"chat.completion","choices":[]}`, OutcomeOtherFailure},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, hits := newGeminiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v1/chat/completions", r.URL.Path)
				writeJSON(w, tc.status, tc.body)
			})

			c := NewOpenAIClient(OpenAIOptions{APIKey: "sk-test", Model: "gpt-4o-mini", BaseURL: srv.URL + "/v1"}, zap.NewNop())
			got := c.Generate(context.Background(), "hello")
			assert.Equal(t, tc.want, got.Kind, got.Message)
			assert.Equal(t, int32(1), atomic.LoadInt32(hits))
		})
	}
}

func TestOpenAIClient_NotConfigured(t *testing.T) {
	c := NewOpenAIClient(OpenAIOptions{Model: "gpt-4o-mini"}, zap.NewNop())
	assert.False(t, c.Configured())
	assert.Equal(t, OutcomeNotConfigured, c.Generate(context.Background(), "hello").Kind)
}

func TestNewAIClient_SelectsProvider(t *testing.T) {
	cfg := &config.Config{AIProvider: config.ProviderOpenAI, OpenAIModel: "gpt-4o-mini", GeminiModel: "gemini-2.0-flash"}
	ai, gemini, err := NewAIClient(context.Background(), cfg, zap.NewNop())
	assert.NoError(t, err)
	assert.Equal(t, "openai", ai.Name())
	assert.NotNil(t, gemini)

	cfg.AIProvider = config.ProviderGemini
	ai, _, err = NewAIClient(context.Background(), cfg, zap.NewNop())
	assert.NoError(t, err)
	assert.Equal(t, "gemini", ai.Name())

	cfg.AIProvider = "llama"
	_, _, err = NewAIClient(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}
