package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kusumaprabha/UltraShip/models"
)

func retrievalWithBest(sim float64) models.RetrievalResult {
	return models.RetrievalResult{Chunks: []models.ScoredChunk{
		scoredChunk(0, "Pickup date: 2024-03-01. Carrier: Acme Trucking.", sim),
	}}
}

func TestGuardrailGate_Decide_NoEvidence(t *testing.T) {
	g := NewGuardrailGate()

	got := g.Decide(models.RetrievalResult{}, "some answer", models.ConfidenceBreakdown{Combined: 0.95})
	assert.False(t, got.Allow)
	assert.Equal(t, models.GateNoEvidence, got.Reason)
}

func TestGuardrailGate_Decide_SimilarityThreshold(t *testing.T) {
	g := NewGuardrailGate()

	t.Run("0.29 is refused", func(t *testing.T) {
		got := g.Decide(retrievalWithBest(0.29), "The pickup date is 2024-03-01", models.ConfidenceBreakdown{})
		assert.False(t, got.Allow)
		assert.Equal(t, models.GateLowSimilarity, got.Reason)
	})

	t.Run("0.30 is allowed", func(t *testing.T) {
		got := g.Decide(retrievalWithBest(0.30), "The pickup date is 2024-03-01", models.ConfidenceBreakdown{})
		assert.True(t, got.Allow)
		assert.Equal(t, models.GateOK, got.Reason)
	})

	t.Run("custom threshold", func(t *testing.T) {
		strict := NewGuardrailGate(WithSimilarityThreshold(0.6))
		got := strict.Decide(retrievalWithBest(0.5), "answer", models.ConfidenceBreakdown{})
		assert.False(t, got.Allow)
		assert.Equal(t, models.GateLowSimilarity, got.Reason)
	})
}

func TestGuardrailGate_Decide_NegativeAnswer(t *testing.T) {
	g := NewGuardrailGate()

	cases := []string{
		"Not found in document.",
		"There is NO INFORMATION about the consignee's phone number.",
		"I cannot determine the delivery date from this text.",
		"I cannot answer that based on the provided excerpt.",
	}
	for _, answer := range cases {
		got := g.Decide(retrievalWithBest(0.85), answer, models.ConfidenceBreakdown{})
		assert.False(t, got.Allow, answer)
		assert.Equal(t, models.GateNegativeAnswer, got.Reason, answer)
	}
}

func TestGuardrailGate_Decide_Allows(t *testing.T) {
	g := NewGuardrailGate()

	got := g.Decide(retrievalWithBest(0.72), "The pickup date is 2024-03-01.", models.ConfidenceBreakdown{Combined: 0.8})
	assert.True(t, got.Allow)
	assert.Equal(t, models.GateOK, got.Reason)
}

func TestGuardrailGate_Decide_CustomDenylist(t *testing.T) {
	g := NewGuardrailGate(WithDenylist([]string{"beats me"}))

	got := g.Decide(retrievalWithBest(0.9), "Beats me, the document never says.", models.ConfidenceBreakdown{})
	assert.False(t, got.Allow)
	assert.Equal(t, models.GateNegativeAnswer, got.Reason)

	// The default phrases are replaced, not appended.
	got = g.Decide(retrievalWithBest(0.9), "not found", models.ConfidenceBreakdown{})
	assert.True(t, got.Allow)
}
