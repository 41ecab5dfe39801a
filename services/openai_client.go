package services

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/AnmolGhill/ArogyaAI/config"
)

// OpenAIOptions configures the OpenAI compatible adapter.
type OpenAIOptions struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// OpenAIClient sends single-turn chat completions to an OpenAI compatible API.
type OpenAIClient struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

func NewOpenAIClient(opts OpenAIOptions, logger *zap.Logger) *OpenAIClient {
	o := &OpenAIClient{
		model:   opts.Model,
		timeout: opts.Timeout,
		logger:  logger.Named("openai"),
	}
	if opts.APIKey == "" {
		o.logger.Warn("OPENAI_API_KEY not set, AI features are disabled")
		return o
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	o.client = openai.NewClientWithConfig(cfg)
	return o
}

func (o *OpenAIClient) Name() string {
	return "openai"
}

func (o *OpenAIClient) Configured() bool {
	return o.client != nil
}

func (o *OpenAIClient) Generate(ctx context.Context, prompt string) Classification {
	if o.client == nil {
		return NotConfigured()
	}

	ctx, cancel := withOptionalTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.2,
	})
	var text string
	if err == nil && len(resp.Choices) > 0 {
		text = resp.Choices[0].Message.Content
	}
	result := ClassifyResult(text, err)

	o.logger.Debug("chat completion finished",
		zap.String("outcome", result.Kind.String()),
		zap.Duration("latency", time.Since(start)),
	)
	return result
}

// NewAIClient picks the adapter named by AI_PROVIDER. The Gemini client is
// always returned as well because record embeddings depend on it.
func NewAIClient(ctx context.Context, cfg *config.Config, logger *zap.Logger) (AIClient, *GeminiClient, error) {
	gemini, err := NewGeminiClient(ctx, GeminiOptions{
		APIKey:         cfg.GeminiAPIKey,
		Model:          cfg.GeminiModel,
		EmbeddingModel: cfg.EmbeddingModel,
		BaseURL:        cfg.GeminiBaseURL,
		Timeout:        cfg.AITimeout,
	}, logger)
	if err != nil {
		return nil, nil, err
	}

	switch cfg.AIProvider {
	case config.ProviderGemini:
		return gemini, gemini, nil
	case config.ProviderOpenAI:
		return NewOpenAIClient(OpenAIOptions{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
			Timeout: cfg.AITimeout,
		}, logger), gemini, nil
	default:
		return nil, nil, fmt.Errorf("unknown AI provider %q", cfg.AIProvider)
	}
}
