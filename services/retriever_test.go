package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kusumaprabha/UltraShip/models"
	"github.com/kusumaprabha/UltraShip/vectorstore/memory"
)

func retrieverFixture(t *testing.T) (*mockEmbedder, *Indexer) {
	t.Helper()
	emb := newMockEmbedder(3)
	emb.set("rate paragraph", []float32{1, 0, 0})
	emb.set("carrier paragraph", []float32{0.7, 0.7, 0})
	emb.set("weight paragraph", []float32{0, 1, 0})
	emb.set("rate query", []float32{1, 0.1, 0})
	ix := NewIndexer(emb, memory.New())
	require.NoError(t, ix.Build(context.Background(), testDoc("doc"),
		testChunks("doc", "rate paragraph", "carrier paragraph", "weight paragraph")))
	return emb, ix
}

func TestRetriever_Retrieve_RanksDescending(t *testing.T) {
	emb, ix := retrieverFixture(t)
	r := NewRetriever(emb, ix)

	got, err := r.Retrieve(context.Background(), "doc", "rate query")
	require.NoError(t, err)
	require.Len(t, got.Chunks, 3)

	assert.Equal(t, "rate paragraph", got.Chunks[0].Chunk.Text)
	for i := 1; i < len(got.Chunks); i++ {
		assert.GreaterOrEqual(t, got.Chunks[i-1].Similarity, got.Chunks[i].Similarity)
	}
	for _, sc := range got.Chunks {
		assert.GreaterOrEqual(t, sc.Similarity, 0.0)
		assert.LessOrEqual(t, sc.Similarity, 1.0)
	}
}

func TestRetriever_Retrieve_TopKLimit(t *testing.T) {
	emb, ix := retrieverFixture(t)
	r := NewRetriever(emb, ix, WithTopK(2))

	got, err := r.Retrieve(context.Background(), "doc", "rate query")
	require.NoError(t, err)
	assert.Len(t, got.Chunks, 2)
}

func TestRetriever_Retrieve_TiesKeepInsertionOrder(t *testing.T) {
	emb := newMockEmbedder(2)
	same := []float32{1, 0}
	emb.set("first twin", same)
	emb.set("second twin", same)
	emb.set("q", []float32{1, 0})
	ix := NewIndexer(emb, memory.New())
	require.NoError(t, ix.Build(context.Background(), testDoc("doc"),
		testChunks("doc", "first twin", "second twin")))
	r := NewRetriever(emb, ix)

	got, err := r.Retrieve(context.Background(), "doc", "q")
	require.NoError(t, err)
	require.Len(t, got.Chunks, 2)
	assert.Equal(t, 0, got.Chunks[0].Chunk.Ordinal)
	assert.Equal(t, 1, got.Chunks[1].Chunk.Ordinal)
}

func TestRetriever_Retrieve_EmptyIndex(t *testing.T) {
	emb := newMockEmbedder(3)
	ix := NewIndexer(emb, memory.New())
	r := NewRetriever(emb, ix)

	got, err := r.Retrieve(context.Background(), "missing", "anything")
	require.NoError(t, err)
	assert.True(t, got.Empty())
	assert.Zero(t, got.Best())
}

func TestRetriever_Retrieve_EmbeddingFailure(t *testing.T) {
	emb, ix := retrieverFixture(t)
	emb.failAt = emb.calls + 1
	r := NewRetriever(emb, ix)

	_, err := r.Retrieve(context.Background(), "doc", "rate query")
	assert.ErrorIs(t, err, models.ErrEmbeddingFailure)
}

func TestRetriever_Retrieve_QueryTimeout(t *testing.T) {
	emb, ix := retrieverFixture(t)
	emb.delay = 200 * time.Millisecond
	r := NewRetriever(emb, ix, WithQueryTimeout(10*time.Millisecond))

	_, err := r.Retrieve(context.Background(), "doc", "rate query")
	assert.ErrorIs(t, err, models.ErrUpstreamTimeout)
}
