package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/kusumaprabha/UltraShip/models"
)

// DefaultEmbedTimeout bounds a single embedding call against the upstream
// model.
const DefaultEmbedTimeout = 30 * time.Second

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithEmbedTimeout overrides the per-call embedding deadline.
func WithEmbedTimeout(d time.Duration) IndexerOption {
	return func(ix *Indexer) {
		ix.embedTimeout = d
	}
}

// Indexer owns all per-document retrieval state: the document registry, the
// chunk metadata store, and the entries registered with the vector index.
//
// Every document gets its own read-write lock. Queries take the read side;
// Build and Delete take the write side, so readers observe either the old
// complete segment or the new complete one, never a partial state. Embedding
// happens before the write lock is taken, keeping the critical section down
// to the remove-insert-swap.
type Indexer struct {
	embedder     models.Embedder
	index        models.VectorIndex
	embedTimeout time.Duration

	mu   sync.RWMutex
	docs map[string]*docState
	dim  int
}

type docState struct {
	mu     sync.RWMutex
	doc    models.Document
	chunks map[string]models.Chunk
	order  []string
}

// NewIndexer wires an Indexer to its embedder and vector index.
func NewIndexer(embedder models.Embedder, index models.VectorIndex, opts ...IndexerOption) *Indexer {
	ix := &Indexer{
		embedder:     embedder,
		index:        index,
		embedTimeout: DefaultEmbedTimeout,
		docs:         make(map[string]*docState),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Build embeds every chunk and atomically replaces the document's index
// segment and metadata. Any embedding error aborts the whole build before a
// single write happens, leaving previous state for the document intact. No
// chunk is ever silently dropped.
func (ix *Indexer) Build(ctx context.Context, doc models.Document, chunks []models.Chunk) error {
	vectors := make([][]float32, len(chunks))
	for i, ch := range chunks {
		vec, err := ix.embedChunk(ctx, ch)
		if err != nil {
			return err
		}
		vectors[i] = vec
	}

	doc.ChunkCount = len(chunks)
	st := ix.stateFor(doc.ID)
	st.mu.Lock()
	defer st.mu.Unlock()

	if err := ix.index.RemoveByDoc(ctx, doc.ID); err != nil {
		return fmt.Errorf("clearing previous entries for %s: %w", doc.ID, err)
	}
	for i, ch := range chunks {
		if err := ix.index.Insert(ctx, doc.ID, ch.ChunkID, vectors[i]); err != nil {
			// A write-phase failure leaves the document unindexed, never
			// partially indexed.
			_ = ix.index.RemoveByDoc(ctx, doc.ID)
			ix.dropState(doc.ID)
			return fmt.Errorf("registering chunk %s: %w", ch.ChunkID, err)
		}
	}

	st.doc = doc
	st.chunks = make(map[string]models.Chunk, len(chunks))
	st.order = make([]string, len(chunks))
	for i, ch := range chunks {
		st.chunks[ch.ChunkID] = ch
		st.order[i] = ch.ChunkID
	}
	log.Printf("INDEXER: indexed document %s (%q, %d chunks)", doc.ID, doc.Filename, len(chunks))
	return nil
}

// Search runs a top-k query against one document's segment under that
// document's read lock and resolves hits to their chunks. An unknown
// document yields an empty result, not an error.
func (ix *Indexer) Search(ctx context.Context, docID string, vector []float32, k int) ([]models.ScoredChunk, error) {
	st, ok := ix.lookup(docID)
	if !ok {
		return nil, nil
	}
	st.mu.RLock()
	defer st.mu.RUnlock()

	hits, err := ix.index.Search(ctx, docID, vector, k)
	if err != nil {
		return nil, fmt.Errorf("vector search for %s: %w", docID, err)
	}
	out := make([]models.ScoredChunk, 0, len(hits))
	for _, h := range hits {
		ch, ok := st.chunks[h.ChunkID]
		if !ok {
			continue
		}
		out = append(out, models.ScoredChunk{Chunk: ch, Similarity: h.Similarity})
	}
	return out, nil
}

// Get returns the registered document.
func (ix *Indexer) Get(docID string) (models.Document, bool) {
	st, ok := ix.lookup(docID)
	if !ok {
		return models.Document{}, false
	}
	st.mu.RLock()
	defer st.mu.RUnlock()
	if st.doc.ID == "" {
		return models.Document{}, false
	}
	return st.doc, true
}

// Chunks returns the document's chunks in insertion order.
func (ix *Indexer) Chunks(docID string) []models.Chunk {
	st, ok := ix.lookup(docID)
	if !ok {
		return nil
	}
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]models.Chunk, 0, len(st.order))
	for _, id := range st.order {
		out = append(out, st.chunks[id])
	}
	return out
}

// List returns registry entries for every indexed document, oldest first.
func (ix *Indexer) List() []models.DocumentInfo {
	ix.mu.RLock()
	states := make([]*docState, 0, len(ix.docs))
	for _, st := range ix.docs {
		states = append(states, st)
	}
	ix.mu.RUnlock()

	out := make([]models.DocumentInfo, 0, len(states))
	for _, st := range states {
		st.mu.RLock()
		if st.doc.ID != "" {
			out = append(out, models.DocumentInfo{
				ID:         st.doc.ID,
				Filename:   st.doc.Filename,
				WordCount:  st.doc.WordCount,
				ChunkCount: st.doc.ChunkCount,
				CreatedAt:  st.doc.CreatedAt,
			})
		}
		st.mu.RUnlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Count returns the number of registered documents.
func (ix *Indexer) Count() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docs)
}

// Delete removes the document's index entries, chunk metadata, and registry
// row. Deleting an unknown document reports ErrDocumentNotFound.
func (ix *Indexer) Delete(ctx context.Context, docID string) error {
	st, ok := ix.lookup(docID)
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrDocumentNotFound, docID)
	}
	st.mu.Lock()
	defer st.mu.Unlock()

	if err := ix.index.RemoveByDoc(ctx, docID); err != nil {
		return fmt.Errorf("removing index entries for %s: %w", docID, err)
	}
	ix.dropState(docID)
	log.Printf("INDEXER: deleted document %s", docID)
	return nil
}

func (ix *Indexer) embedChunk(ctx context.Context, ch models.Chunk) ([]float32, error) {
	ectx, cancel := context.WithTimeout(ctx, ix.embedTimeout)
	defer cancel()

	vec, err := ix.embedder.Embed(ectx, ch.Text)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: embedding chunk %s: %v", models.ErrUpstreamTimeout, ch.ChunkID, err)
		}
		return nil, fmt.Errorf("%w: chunk %s: %v", models.ErrEmbeddingFailure, ch.ChunkID, err)
	}
	if err := ix.checkDimension(len(vec)); err != nil {
		return nil, fmt.Errorf("chunk %s: %w", ch.ChunkID, err)
	}
	return vec, nil
}

// checkDimension establishes the embedding dimension on the first
// successful call and rejects any later drift.
func (ix *Indexer) checkDimension(d int) error {
	if d == 0 {
		return fmt.Errorf("%w: embedder returned an empty vector", models.ErrEmbeddingFailure)
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.dim == 0 {
		ix.dim = d
		return nil
	}
	if d != ix.dim {
		return fmt.Errorf("%w: vector dimension %d does not match established dimension %d", models.ErrEmbeddingFailure, d, ix.dim)
	}
	return nil
}

func (ix *Indexer) stateFor(docID string) *docState {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	st, ok := ix.docs[docID]
	if !ok {
		st = &docState{}
		ix.docs[docID] = st
	}
	return st
}

func (ix *Indexer) lookup(docID string) (*docState, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	st, ok := ix.docs[docID]
	return st, ok
}

func (ix *Indexer) dropState(docID string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	delete(ix.docs, docID)
}
