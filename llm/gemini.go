package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/kusumaprabha/UltraShip/models"
)

// DefaultGeminiModel is the model used unless overridden.
const DefaultGeminiModel = "gemini-2.5-flash"

// Ensure GeminiGenerator implements the interface.
var _ models.Generator = (*GeminiGenerator)(nil)

// GeminiGenerator answers prompts with Google Gemini.
type GeminiGenerator struct {
	client      *genai.Client
	model       string
	maxTokens   int32
	temperature float32
}

// GeminiOption configures a GeminiGenerator.
type GeminiOption func(*GeminiGenerator)

// WithGeminiModel selects the model; empty keeps the default.
func WithGeminiModel(model string) GeminiOption {
	return func(g *GeminiGenerator) {
		if model != "" {
			g.model = model
		}
	}
}

// WithGeminiMaxTokens caps the response length.
func WithGeminiMaxTokens(n int32) GeminiOption {
	return func(g *GeminiGenerator) {
		if n > 0 {
			g.maxTokens = n
		}
	}
}

// WithGeminiTemperature sets the sampling temperature.
func WithGeminiTemperature(t float32) GeminiOption {
	return func(g *GeminiGenerator) {
		g.temperature = t
	}
}

// NewGeminiGenerator builds the generator; apiKey is required.
func NewGeminiGenerator(ctx context.Context, apiKey string, opts ...GeminiOption) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	g := &GeminiGenerator{
		client:      client,
		model:       DefaultGeminiModel,
		maxTokens:   1024,
		temperature: 0.1,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Name identifies the generator in health output and logs.
func (g *GeminiGenerator) Name() string {
	return "gemini/" + g.model
}

// Generate maps a prompt to the model's completion.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(g.temperature),
		MaxOutputTokens: g.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(sb.String()), nil
}
