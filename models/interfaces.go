package models

import "context"

// TextExtractor turns an uploaded file into plain text. Implementations are
// selected by filename extension.
type TextExtractor interface {
	Extract(fileBytes []byte, filename string) (string, error)
}

// Embedder maps text to a fixed-length vector. The dimension must stay
// stable for the lifetime of the process; the indexer enforces this.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Name() string
}

// VectorHit is one nearest-neighbor match. Similarity is normalized to
// [0,1] by the backend (cosine clamped at zero, distance metrics converted).
type VectorHit struct {
	ChunkID    string
	Similarity float64
}

// VectorIndex stores chunk vectors scoped by document id and answers
// top-k nearest-neighbor queries. It holds vectors and opaque chunk ids
// only; chunk text lives in the indexer's metadata store.
type VectorIndex interface {
	Insert(ctx context.Context, docID, chunkID string, vector []float32) error
	Search(ctx context.Context, docID string, vector []float32, k int) ([]VectorHit, error)
	RemoveByDoc(ctx context.Context, docID string) error
	Close() error
}

// Generator produces free text from a prompt. Optional: the answer pipeline
// runs in a deterministic fallback mode when no generator is configured.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}
