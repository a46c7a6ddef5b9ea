// Package memory provides the default in-memory vector index: exact cosine
// search over per-document segments. Nothing here survives a restart, which
// is the intended lifecycle for uploaded-document embeddings.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/kusumaprabha/UltraShip/models"
)

// Ensure Index implements the interface.
var _ models.VectorIndex = (*Index)(nil)

type entry struct {
	chunkID string
	vector  []float32
	norm    float64
}

// Index is an exact nearest-neighbor store segmented by document id.
// Entries keep insertion order inside each segment so equal similarities
// rank deterministically.
type Index struct {
	mu   sync.RWMutex
	docs map[string][]entry
	dim  int
}

// New creates an empty index.
func New() *Index {
	return &Index{docs: make(map[string][]entry)}
}

// Insert registers a chunk vector under docID. The first insert fixes the
// vector dimension for the whole index.
func (ix *Index) Insert(ctx context.Context, docID, chunkID string, vector []float32) error {
	if len(vector) == 0 {
		return fmt.Errorf("empty vector for chunk %s", chunkID)
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.dim == 0 {
		ix.dim = len(vector)
	} else if len(vector) != ix.dim {
		return fmt.Errorf("vector dimension %d does not match index dimension %d", len(vector), ix.dim)
	}
	ix.docs[docID] = append(ix.docs[docID], entry{
		chunkID: chunkID,
		vector:  vector,
		norm:    l2norm(vector),
	})
	return nil
}

// Search returns the k most similar chunks of docID by cosine similarity,
// clamped to [0,1]. An unknown document or empty segment yields an empty
// result, not an error.
func (ix *Index) Search(ctx context.Context, docID string, vector []float32, k int) ([]models.VectorHit, error) {
	if k <= 0 {
		return nil, nil
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	entries := ix.docs[docID]
	if len(entries) == 0 {
		return nil, nil
	}
	qnorm := l2norm(vector)

	hits := make([]models.VectorHit, 0, len(entries))
	for _, e := range entries {
		hits = append(hits, models.VectorHit{
			ChunkID:    e.chunkID,
			Similarity: cosine(vector, qnorm, e.vector, e.norm),
		})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// RemoveByDoc drops every entry belonging to docID.
func (ix *Index) RemoveByDoc(ctx context.Context, docID string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	delete(ix.docs, docID)
	return nil
}

// Close releases nothing; the index lives entirely on the heap.
func (ix *Index) Close() error {
	return nil
}

// cosine computes the cosine similarity of a and b given their cached
// norms, clamped to [0,1]. Zero-length vectors score 0.
func cosine(a []float32, anorm float64, b []float32, bnorm float64) float64 {
	if anorm == 0 || bnorm == 0 || len(a) != len(b) {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	sim := dot / (anorm * bnorm)
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}

func l2norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
