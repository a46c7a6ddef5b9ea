package services

import (
	"strings"

	"github.com/kusumaprabha/UltraShip/models"
)

// AbstentionText replaces the candidate answer whenever the guardrail
// refuses. The computed confidence and the refusal reason are still
// reported alongside it.
const AbstentionText = "I cannot confidently answer this question based on the document content."

// DefaultSimilarityThreshold is the minimum best-chunk similarity required
// to answer. The comparison is strict: a best similarity equal to the
// threshold passes.
const DefaultSimilarityThreshold = 0.3

// GuardrailOption configures a GuardrailGate.
type GuardrailOption func(*GuardrailGate)

// WithSimilarityThreshold overrides the refusal threshold.
func WithSimilarityThreshold(threshold float64) GuardrailOption {
	return func(g *GuardrailGate) {
		g.threshold = threshold
	}
}

// WithDenylist replaces the phrases that mark an answer as negative.
func WithDenylist(phrases []string) GuardrailOption {
	return func(g *GuardrailGate) {
		g.denylist = lowered(phrases)
	}
}

// GuardrailGate decides whether a candidate answer ships or the pipeline
// abstains. Refusal is not an error: the caller still receives the computed
// confidence and a reason, never a synthetic zero.
type GuardrailGate struct {
	threshold float64
	denylist  []string
}

// NewGuardrailGate builds a gate with the default threshold and denylist
// unless overridden.
func NewGuardrailGate(opts ...GuardrailOption) *GuardrailGate {
	g := &GuardrailGate{
		threshold: DefaultSimilarityThreshold,
		denylist: []string{
			"not found",
			"no information",
			"cannot determine",
			"cannot answer",
			"unable to determine",
		},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Decide evaluates the candidate answer against the retrieved evidence.
// Checks run in severity order: no evidence at all, weak best similarity,
// then a negative phrase in the answer itself, in which case the model's own
// "not found" statement is surfaced as the reason rather than overridden.
func (g *GuardrailGate) Decide(retrieved models.RetrievalResult, answer string, breakdown models.ConfidenceBreakdown) models.GateDecision {
	if retrieved.Empty() {
		return models.GateDecision{Allow: false, Reason: models.GateNoEvidence}
	}
	if retrieved.Best() < g.threshold {
		return models.GateDecision{Allow: false, Reason: models.GateLowSimilarity}
	}
	lower := strings.ToLower(answer)
	for _, phrase := range g.denylist {
		if strings.Contains(lower, phrase) {
			return models.GateDecision{Allow: false, Reason: models.GateNegativeAnswer}
		}
	}
	return models.GateDecision{Allow: true, Reason: models.GateOK}
}

func lowered(phrases []string) []string {
	out := make([]string, len(phrases))
	for i, p := range phrases {
		out[i] = strings.ToLower(p)
	}
	return out
}
