// Package llm provides the Generator implementations: Groq through its
// OpenAI-compatible endpoint and Google Gemini.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/kusumaprabha/UltraShip/models"
)

// Groq defaults. The endpoint is OpenAI-compatible, so the OpenAI client
// works against it unchanged.
const (
	GroqBaseURL      = "https://api.groq.com/openai/v1"
	DefaultGroqModel = "llama-3.3-70b-versatile"
)

// Ensure GroqGenerator implements the interface.
var _ models.Generator = (*GroqGenerator)(nil)

// GroqGenerator answers prompts with a Groq-hosted model.
type GroqGenerator struct {
	llm         *openai.LLM
	model       string
	maxTokens   int
	temperature float64
}

// GroqOption configures a GroqGenerator.
type GroqOption func(*GroqGenerator)

// WithGroqModel selects the model; empty keeps the default.
func WithGroqModel(model string) GroqOption {
	return func(g *GroqGenerator) {
		if model != "" {
			g.model = model
		}
	}
}

// WithMaxTokens caps the response length.
func WithMaxTokens(n int) GroqOption {
	return func(g *GroqGenerator) {
		if n > 0 {
			g.maxTokens = n
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) GroqOption {
	return func(g *GroqGenerator) {
		g.temperature = t
	}
}

// NewGroqGenerator builds the generator; apiKey is required.
func NewGroqGenerator(apiKey string, opts ...GroqOption) (*GroqGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("groq api key is required")
	}
	g := &GroqGenerator{
		model:       DefaultGroqModel,
		maxTokens:   1024,
		temperature: 0.1,
	}
	for _, opt := range opts {
		opt(g)
	}

	llmClient, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithBaseURL(GroqBaseURL),
		openai.WithModel(g.model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create groq client: %w", err)
	}
	g.llm = llmClient
	return g, nil
}

// Name identifies the generator in health output and logs.
func (g *GroqGenerator) Name() string {
	return "groq/" + g.model
}

// Generate maps a prompt to the model's completion.
func (g *GroqGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	answer, err := llms.GenerateFromSinglePrompt(ctx, g.llm, prompt,
		llms.WithTemperature(g.temperature),
		llms.WithMaxTokens(g.maxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("groq generation failed: %w", err)
	}
	return strings.TrimSpace(answer), nil
}
