package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// GeminiOptions configures the Gemini adapter.
type GeminiOptions struct {
	APIKey         string
	Model          string
	EmbeddingModel string
	// BaseURL overrides the public endpoint, mainly for tests.
	BaseURL string
	Timeout time.Duration
}

// GeminiClient talks to the Gemini API through the official genai SDK.
// A zero API key leaves client nil and every call reports NotConfigured.
type GeminiClient struct {
	client         *genai.Client
	model          string
	embeddingModel string
	timeout        time.Duration
	logger         *zap.Logger
}

// NewGeminiClient builds the adapter. The SDK client is created once here and
// shared by all requests.
func NewGeminiClient(ctx context.Context, opts GeminiOptions, logger *zap.Logger) (*GeminiClient, error) {
	g := &GeminiClient{
		model:          opts.Model,
		embeddingModel: opts.EmbeddingModel,
		timeout:        opts.Timeout,
		logger:         logger.Named("gemini"),
	}
	if opts.APIKey == "" {
		g.logger.Warn("GEMINI_API_KEY not set, AI features are disabled")
		return g, nil
	}

	cfg := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	g.client = client
	g.logger.Info("gemini client ready", zap.String("model", g.model))
	return g, nil
}

func (g *GeminiClient) Name() string {
	return "gemini"
}

func (g *GeminiClient) Configured() bool {
	return g.client != nil
}

// Generate sends one generateContent request. The SDK does not retry it.
func (g *GeminiClient) Generate(ctx context.Context, prompt string) Classification {
	if g.client == nil {
		return NotConfigured()
	}

	ctx, cancel := withOptionalTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	var text string
	if err == nil && resp != nil {
		text = resp.Text()
	}
	result := ClassifyResult(text, err)

	g.logger.Debug("generateContent finished",
		zap.String("outcome", result.Kind.String()),
		zap.Duration("latency", time.Since(start)),
	)
	return result
}

// Embed returns one embedding vector per input text.
func (g *GeminiClient) Embed(ctx context.Context, texts ...string) ([][]float32, error) {
	if g.client == nil {
		return nil, ErrNotConfigured
	}
	if len(texts) == 0 {
		return nil, nil
	}

	ctx, cancel := withOptionalTimeout(ctx, g.timeout)
	defer cancel()

	contents := make([]*genai.Content, 0, len(texts))
	for _, t := range texts {
		contents = append(contents, genai.NewContentFromText(t, genai.RoleUser))
	}

	resp, err := g.client.Models.EmbedContent(ctx, g.embeddingModel, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embed content: got %d embeddings for %d texts", len(resp.Embeddings), len(texts))
	}

	out := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		out[i] = e.Values
	}
	return out, nil
}

func withOptionalTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
