package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kusumaprabha/UltraShip/models"
	"github.com/kusumaprabha/UltraShip/vectorstore/memory"
)

// --- Mock implementations ---

// mockEmbedder returns canned vectors keyed by text, a unit vector when the
// text is unknown. failAt makes the nth call fail; delay simulates a slow
// upstream that honors cancellation.
type mockEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	dim     int
	calls   int
	failAt  int
	delay   time.Duration
}

func newMockEmbedder(dim int) *mockEmbedder {
	return &mockEmbedder{vectors: make(map[string][]float32), dim: dim}
}

func (m *mockEmbedder) set(text string, vec []float32) {
	m.vectors[text] = vec
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.calls++
	call := m.calls
	delay := m.delay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	if m.failAt > 0 && call >= m.failAt {
		return nil, errors.New("model unavailable")
	}
	if vec, ok := m.vectors[text]; ok {
		return vec, nil
	}
	vec := make([]float32, m.dim)
	vec[0] = 1
	return vec, nil
}

func (m *mockEmbedder) Name() string { return "mock" }

// mockIndex delegates to a real in-memory index but can fail the nth Insert.
type mockIndex struct {
	*memory.Index
	inserts      int
	failInsertAt int
}

func (m *mockIndex) Insert(ctx context.Context, docID, chunkID string, vector []float32) error {
	m.inserts++
	if m.failInsertAt > 0 && m.inserts >= m.failInsertAt {
		return errors.New("backend write refused")
	}
	return m.Index.Insert(ctx, docID, chunkID, vector)
}

// --- Test helpers ---

func testChunks(docID string, texts ...string) []models.Chunk {
	chunks := make([]models.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = models.Chunk{
			ChunkID: ChunkID(docID, i),
			DocID:   docID,
			Ordinal: i,
			Text:    text,
		}
	}
	return chunks
}

func testDoc(id string) models.Document {
	return models.Document{ID: id, Filename: id + ".txt", CreatedAt: time.Now()}
}

// --- Tests ---

func TestIndexer_BuildAndSearch(t *testing.T) {
	emb := newMockEmbedder(3)
	emb.set("alpha", []float32{1, 0, 0})
	emb.set("beta", []float32{0, 1, 0})
	ix := NewIndexer(emb, memory.New())
	ctx := context.Background()

	require.NoError(t, ix.Build(ctx, testDoc("doc"), testChunks("doc", "alpha", "beta")))

	got, err := ix.Search(ctx, "doc", []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "doc#0", got[0].Chunk.ChunkID)
	assert.Equal(t, "alpha", got[0].Chunk.Text)
	assert.InDelta(t, 1.0, got[0].Similarity, 1e-9)
	assert.Equal(t, "doc#1", got[1].Chunk.ChunkID)
}

func TestIndexer_Build_EmbeddingFailureLeavesOldState(t *testing.T) {
	emb := newMockEmbedder(3)
	emb.set("v1 first", []float32{1, 0, 0})
	ix := NewIndexer(emb, memory.New())
	ctx := context.Background()

	require.NoError(t, ix.Build(ctx, testDoc("doc"), testChunks("doc", "v1 first")))

	// Fail midway through the rebuild: first new chunk embeds, second fails.
	emb.failAt = emb.calls + 2
	err := ix.Build(ctx, testDoc("doc"), testChunks("doc", "v2 first", "v2 second", "v2 third"))
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrEmbeddingFailure)

	got, err := ix.Search(ctx, "doc", []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "v1 first", got[0].Chunk.Text)
}

func TestIndexer_Build_EmbeddingTimeout(t *testing.T) {
	emb := newMockEmbedder(3)
	emb.delay = 200 * time.Millisecond
	ix := NewIndexer(emb, memory.New(), WithEmbedTimeout(10*time.Millisecond))

	err := ix.Build(context.Background(), testDoc("doc"), testChunks("doc", "slow chunk"))
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrUpstreamTimeout)
}

func TestIndexer_Build_DimensionDrift(t *testing.T) {
	emb := newMockEmbedder(3)
	emb.set("stable", []float32{1, 0, 0})
	emb.set("drifted", []float32{1, 0})
	ix := NewIndexer(emb, memory.New())
	ctx := context.Background()

	require.NoError(t, ix.Build(ctx, testDoc("a"), testChunks("a", "stable")))

	err := ix.Build(ctx, testDoc("b"), testChunks("b", "drifted"))
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrEmbeddingFailure)

	_, ok := ix.Get("b")
	assert.False(t, ok, "failed build must not register the document")
}

func TestIndexer_Build_RebuildIsIdempotent(t *testing.T) {
	emb := newMockEmbedder(3)
	emb.set("alpha", []float32{1, 0, 0})
	emb.set("beta", []float32{0.5, 0.5, 0})
	ix := NewIndexer(emb, memory.New())
	ctx := context.Background()
	chunks := testChunks("doc", "alpha", "beta")

	require.NoError(t, ix.Build(ctx, testDoc("doc"), chunks))
	first, err := ix.Search(ctx, "doc", []float32{1, 0, 0}, 10)
	require.NoError(t, err)

	require.NoError(t, ix.Build(ctx, testDoc("doc"), chunks))
	second, err := ix.Search(ctx, "doc", []float32{1, 0, 0}, 10)
	require.NoError(t, err)

	assert.Equal(t, first, second, "rebuild must not change retrieval results")
	assert.Len(t, second, 2, "rebuild must not duplicate entries")
}

func TestIndexer_Build_WriteFailureLeavesDocUnindexed(t *testing.T) {
	emb := newMockEmbedder(3)
	idx := &mockIndex{Index: memory.New(), failInsertAt: 2}
	ix := NewIndexer(emb, idx)
	ctx := context.Background()

	err := ix.Build(ctx, testDoc("doc"), testChunks("doc", "one", "two"))
	require.Error(t, err)

	_, ok := ix.Get("doc")
	assert.False(t, ok)
	got, err := ix.Search(ctx, "doc", []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestIndexer_Build_EmptyChunks(t *testing.T) {
	ix := NewIndexer(newMockEmbedder(3), memory.New())
	ctx := context.Background()

	require.NoError(t, ix.Build(ctx, testDoc("doc"), nil))

	_, ok := ix.Get("doc")
	assert.True(t, ok)
	got, err := ix.Search(ctx, "doc", []float32{1, 0, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestIndexer_SearchUnknownDoc(t *testing.T) {
	ix := NewIndexer(newMockEmbedder(3), memory.New())

	got, err := ix.Search(context.Background(), "missing", []float32{1, 0, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestIndexer_Delete(t *testing.T) {
	emb := newMockEmbedder(3)
	ix := NewIndexer(emb, memory.New())
	ctx := context.Background()

	require.NoError(t, ix.Build(ctx, testDoc("doc"), testChunks("doc", "text")))
	require.NoError(t, ix.Delete(ctx, "doc"))

	_, ok := ix.Get("doc")
	assert.False(t, ok)
	got, err := ix.Search(ctx, "doc", []float32{1, 0, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, got)

	err = ix.Delete(ctx, "doc")
	assert.ErrorIs(t, err, models.ErrDocumentNotFound)
}

func TestIndexer_ListAndCount(t *testing.T) {
	emb := newMockEmbedder(3)
	ix := NewIndexer(emb, memory.New())
	ctx := context.Background()

	older := models.Document{ID: "a", Filename: "a.txt", CreatedAt: time.Now().Add(-time.Hour)}
	newer := models.Document{ID: "b", Filename: "b.txt", CreatedAt: time.Now()}
	require.NoError(t, ix.Build(ctx, newer, testChunks("b", "text b")))
	require.NoError(t, ix.Build(ctx, older, testChunks("a", "text a")))

	list := ix.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID, "listing is oldest first")
	assert.Equal(t, "b", list[1].ID)
	assert.Equal(t, 1, list[0].ChunkCount)
	assert.Equal(t, 2, ix.Count())
}

func TestIndexer_ChunksInsertionOrder(t *testing.T) {
	emb := newMockEmbedder(3)
	ix := NewIndexer(emb, memory.New())
	ctx := context.Background()

	require.NoError(t, ix.Build(ctx, testDoc("doc"), testChunks("doc", "one", "two", "three")))

	chunks := ix.Chunks("doc")
	require.Len(t, chunks, 3)
	for i, ch := range chunks {
		assert.Equal(t, i, ch.Ordinal)
	}
}

func TestIndexer_ConcurrentReadsDuringRebuild(t *testing.T) {
	emb := newMockEmbedder(3)
	ix := NewIndexer(emb, memory.New())
	ctx := context.Background()

	one := testChunks("doc", "only")
	three := testChunks("doc", "first", "second", "third")
	require.NoError(t, ix.Build(ctx, testDoc("doc"), one))

	var wg sync.WaitGroup
	stop := make(chan struct{})
	errs := make(chan error, 64)

	for r := 0; r < 8; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				got, err := ix.Search(ctx, "doc", []float32{1, 0, 0}, 10)
				if err != nil {
					errs <- err
					return
				}
				// Readers see a complete segment: one chunk or three.
				if n := len(got); n != 1 && n != 3 {
					errs <- fmt.Errorf("partial segment visible: %d chunks", n)
					return
				}
			}
		}()
	}

	for i := 0; i < 20; i++ {
		if i%2 == 0 {
			require.NoError(t, ix.Build(ctx, testDoc("doc"), three))
		} else {
			require.NoError(t, ix.Build(ctx, testDoc("doc"), one))
		}
	}
	close(stop)
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
