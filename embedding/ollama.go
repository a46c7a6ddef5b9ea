// Package embedding provides the Embedder implementations: a local Ollama
// HTTP client for real deployments and a deterministic hashed bag-of-words
// embedder for development and tests.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/kusumaprabha/UltraShip/models"
)

// Defaults for a local Ollama install.
const (
	DefaultOllamaURL   = "http://localhost:11434"
	DefaultOllamaModel = "nomic-embed-text"
)

// Ensure OllamaEmbedder implements the interface.
var _ models.Embedder = (*OllamaEmbedder)(nil)

// OllamaEmbedder calls the Ollama embeddings API. Dimension stability comes
// from always using the same model; the indexer verifies it anyway.
type OllamaEmbedder struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// OllamaOption configures an OllamaEmbedder.
type OllamaOption func(*OllamaEmbedder)

// WithBaseURL points the embedder at a non-default Ollama instance.
func WithBaseURL(url string) OllamaOption {
	return func(e *OllamaEmbedder) {
		if url != "" {
			e.baseURL = url
		}
	}
}

// WithModel selects the embedding model.
func WithModel(model string) OllamaOption {
	return func(e *OllamaEmbedder) {
		if model != "" {
			e.model = model
		}
	}
}

// WithHTTPClient swaps the HTTP client, mainly for tests.
func WithHTTPClient(client *http.Client) OllamaOption {
	return func(e *OllamaEmbedder) {
		e.httpClient = client
	}
}

// NewOllamaEmbedder builds the embedder with local defaults.
func NewOllamaEmbedder(opts ...OllamaOption) *OllamaEmbedder {
	e := &OllamaEmbedder{
		baseURL:    DefaultOllamaURL,
		model:      DefaultOllamaModel,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name identifies the embedder in health output and logs.
func (e *OllamaEmbedder) Name() string {
	return "ollama/" + e.model
}

// Embed maps text to a vector via the Ollama embeddings endpoint.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	reqBody, err := json.Marshal(models.OllamaEmbedRequest{
		Model:  e.model,
		Prompt: text,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ollama request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embeddings", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call ollama embedding api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama api returned non-200 status: %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var ollamaResp models.OllamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&ollamaResp); err != nil {
		return nil, fmt.Errorf("failed to decode ollama response: %w", err)
	}
	if len(ollamaResp.Embedding) == 0 {
		return nil, fmt.Errorf("ollama returned an empty embedding")
	}
	return ollamaResp.Embedding, nil
}
