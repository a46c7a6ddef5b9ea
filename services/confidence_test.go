package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kusumaprabha/UltraShip/models"
)

func scoredChunk(ord int, text string, sim float64) models.ScoredChunk {
	return models.ScoredChunk{
		Chunk: models.Chunk{
			ChunkID: ChunkID("doc", ord),
			DocID:   "doc",
			Ordinal: ord,
			Text:    text,
		},
		Similarity: sim,
	}
}

func TestConfidenceEngine_Score_EmptyRetrieval(t *testing.T) {
	e := NewConfidenceEngine()

	got := e.Score("any question", models.RetrievalResult{}, "any answer")
	assert.Equal(t, models.ConfidenceBreakdown{}, got)
}

func TestConfidenceEngine_Score_Weights(t *testing.T) {
	e := NewConfidenceEngine()
	retrieved := models.RetrievalResult{Chunks: []models.ScoredChunk{
		scoredChunk(0, "Pickup date: 2024-03-01. Carrier: Acme Trucking.", 0.8),
	}}

	got := e.Score("What is the pickup date?", retrieved, "2024-03-01")
	require.InDelta(t, 0.8, got.Similarity, 1e-9)
	require.InDelta(t, 1.0, got.Coverage, 1e-9)
	require.InDelta(t, 1.0, got.Agreement, 1e-9)
	// 0.5*0.8 + 0.3*1.0 + 0.2*1.0
	assert.InDelta(t, 0.9, got.Combined, 1e-9)
}

func TestConfidenceEngine_Score_SimilarityClamped(t *testing.T) {
	e := NewConfidenceEngine()

	over := models.RetrievalResult{Chunks: []models.ScoredChunk{scoredChunk(0, "text", 1.7)}}
	assert.Equal(t, 1.0, e.Score("q", over, "").Similarity)

	under := models.RetrievalResult{Chunks: []models.ScoredChunk{scoredChunk(0, "text", -0.4)}}
	assert.Equal(t, 0.0, e.Score("q", under, "").Similarity)
}

func TestConfidenceEngine_Score_Coverage(t *testing.T) {
	e := NewConfidenceEngine()
	retrieved := models.RetrievalResult{Chunks: []models.ScoredChunk{
		scoredChunk(0, "Rate: $1,500. Total due on delivery.", 0.9),
	}}

	t.Run("stop-words excluded from the answer side", func(t *testing.T) {
		got := e.Score("q", retrieved, "The rate is $1,500.")
		// Significant answer words: rate, 1,500 — both present.
		assert.InDelta(t, 1.0, got.Coverage, 1e-9)
	})

	t.Run("unmatched words lower coverage", func(t *testing.T) {
		got := e.Score("q", retrieved, "rate 9999")
		assert.InDelta(t, 0.5, got.Coverage, 1e-9)
	})

	t.Run("empty answer scores zero", func(t *testing.T) {
		got := e.Score("q", retrieved, "")
		assert.Zero(t, got.Coverage)
		assert.Zero(t, got.Agreement)
	})
}

func TestConfidenceEngine_Score_Agreement(t *testing.T) {
	e := NewConfidenceEngine()

	t.Run("single chunk agreement equals coverage", func(t *testing.T) {
		retrieved := models.RetrievalResult{Chunks: []models.ScoredChunk{
			scoredChunk(0, "carrier Acme Trucking picks up Friday", 0.7),
		}}
		got := e.Score("q", retrieved, "Acme Trucking Friday rate")
		assert.InDelta(t, got.Coverage, got.Agreement, 1e-9)
	})

	t.Run("variance across chunks is penalized", func(t *testing.T) {
		lopsided := models.RetrievalResult{Chunks: []models.ScoredChunk{
			scoredChunk(0, "pallets loaded dockside", 0.9),
			scoredChunk(1, "completely unrelated words here", 0.5),
		}}
		got := e.Score("q", lopsided, "pallets loaded dockside")
		// Overlaps are 1 and 0: mean 0.5, variance 0.25.
		assert.InDelta(t, 0.25, got.Agreement, 1e-9)

		uniform := models.RetrievalResult{Chunks: []models.ScoredChunk{
			scoredChunk(0, "pallets loaded dockside", 0.9),
			scoredChunk(1, "pallets loaded dockside again", 0.5),
		}}
		full := e.Score("q", uniform, "pallets loaded dockside")
		assert.InDelta(t, 1.0, full.Agreement, 1e-9)
		assert.Less(t, got.Agreement, full.Agreement)
	})
}

func TestConfidenceEngine_Score_Bounds(t *testing.T) {
	e := NewConfidenceEngine()
	cases := []struct {
		name      string
		retrieved models.RetrievalResult
		answer    string
	}{
		{"typical", models.RetrievalResult{Chunks: []models.ScoredChunk{
			scoredChunk(0, "Rate: $1,500 to Dallas", 0.62),
			scoredChunk(1, "Carrier: Acme Trucking", 0.41),
		}}, "The rate is $1,500"},
		{"similarity above one", models.RetrievalResult{Chunks: []models.ScoredChunk{
			scoredChunk(0, "short", 3.5),
		}}, "short"},
		{"negative similarity", models.RetrievalResult{Chunks: []models.ScoredChunk{
			scoredChunk(0, "short", -2.0),
		}}, "unrelated"},
		{"empty answer", models.RetrievalResult{Chunks: []models.ScoredChunk{
			scoredChunk(0, "anything", 0.5),
		}}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := e.Score("q", tc.retrieved, tc.answer)
			for name, v := range map[string]float64{
				"similarity": got.Similarity,
				"coverage":   got.Coverage,
				"agreement":  got.Agreement,
				"combined":   got.Combined,
			} {
				assert.GreaterOrEqual(t, v, 0.0, name)
				assert.LessOrEqual(t, v, 1.0, name)
			}
		})
	}
}

func TestConfidenceEngine_Score_DoesNotMutateRetrieval(t *testing.T) {
	e := NewConfidenceEngine()
	retrieved := models.RetrievalResult{Chunks: []models.ScoredChunk{
		scoredChunk(0, "first chunk", 0.9),
		scoredChunk(1, "second chunk", 0.7),
	}}
	before := make([]models.ScoredChunk, len(retrieved.Chunks))
	copy(before, retrieved.Chunks)

	e.Score("q", retrieved, "first chunk")
	assert.Equal(t, before, retrieved.Chunks)
}

func TestConfidenceEngine_WithStopWords(t *testing.T) {
	e := NewConfidenceEngine(WithStopWords([]string{"shipment"}))
	retrieved := models.RetrievalResult{Chunks: []models.ScoredChunk{
		scoredChunk(0, "the dock", 0.5),
	}}

	// With the replacement list, "the" is significant and "shipment" is not.
	got := e.Score("q", retrieved, "the shipment")
	assert.InDelta(t, 1.0, got.Coverage, 1e-9)
}
