package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/kusumaprabha/UltraShip/models"
)

// DefaultTopK is how many chunks back a query unless overridden.
const DefaultTopK = 3

// RetrieverOption configures a Retriever.
type RetrieverOption func(*Retriever)

// WithTopK sets how many chunks to retrieve per query. Non-positive values
// keep the default.
func WithTopK(k int) RetrieverOption {
	return func(r *Retriever) {
		if k > 0 {
			r.topK = k
		}
	}
}

// WithQueryTimeout overrides the query-embedding deadline.
func WithQueryTimeout(d time.Duration) RetrieverOption {
	return func(r *Retriever) {
		r.queryTimeout = d
	}
}

// Retriever embeds a query with the same embedder used at indexing time and
// pulls the nearest chunks from one document's index segment.
type Retriever struct {
	embedder     models.Embedder
	indexer      *Indexer
	topK         int
	queryTimeout time.Duration
}

// NewRetriever wires a Retriever to the embedder and the indexer state.
func NewRetriever(embedder models.Embedder, indexer *Indexer, opts ...RetrieverOption) *Retriever {
	r := &Retriever{
		embedder:     embedder,
		indexer:      indexer,
		topK:         DefaultTopK,
		queryTimeout: DefaultEmbedTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve returns the top-K chunks of docID ranked by similarity to the
// query, best first. Similarities are clamped to [0,1] and exact ties rank
// by chunk insertion order, so results are deterministic for a given index
// regardless of backend iteration order. An empty or unknown document gives
// an empty result and a nil error: no evidence is a valid outcome.
func (r *Retriever) Retrieve(ctx context.Context, docID, query string) (models.RetrievalResult, error) {
	ectx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	vec, err := r.embedder.Embed(ectx, query)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return models.RetrievalResult{}, fmt.Errorf("%w: embedding query: %v", models.ErrUpstreamTimeout, err)
		}
		return models.RetrievalResult{}, fmt.Errorf("%w: query: %v", models.ErrEmbeddingFailure, err)
	}

	scored, err := r.indexer.Search(ctx, docID, vec, r.topK)
	if err != nil {
		return models.RetrievalResult{}, fmt.Errorf("searching document %s: %w", docID, err)
	}
	for i := range scored {
		scored[i].Similarity = clamp01(scored[i].Similarity)
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Similarity == scored[j].Similarity {
			return scored[i].Chunk.Ordinal < scored[j].Chunk.Ordinal
		}
		return scored[i].Similarity > scored[j].Similarity
	})
	return models.RetrievalResult{Chunks: scored}, nil
}
