package models

// ScoredChunk pairs a retrieved chunk with its [0,1] similarity to the query.
type ScoredChunk struct {
	Chunk      Chunk   `json:"chunk"`
	Similarity float64 `json:"similarity"`
}

// RetrievalResult is the ranked evidence for one query, best chunk first.
// Empty means "no evidence", which is a valid outcome, not an error.
type RetrievalResult struct {
	Chunks []ScoredChunk `json:"chunks"`
}

// Empty reports whether retrieval produced no evidence.
func (r RetrievalResult) Empty() bool {
	return len(r.Chunks) == 0
}

// Best returns the top-ranked similarity, or 0 when the result is empty.
func (r RetrievalResult) Best() float64 {
	if len(r.Chunks) == 0 {
		return 0
	}
	return r.Chunks[0].Similarity
}

// ConfidenceBreakdown carries the individual confidence components alongside
// the weighted combination. Every field is clamped to [0,1].
type ConfidenceBreakdown struct {
	Similarity float64 `json:"similarity"`
	Coverage   float64 `json:"coverage"`
	Agreement  float64 `json:"agreement"`
	Combined   float64 `json:"combined"`
}

// GateReason explains a guardrail decision.
type GateReason string

const (
	GateOK             GateReason = "OK"
	GateNoEvidence     GateReason = "NO_EVIDENCE"
	GateLowSimilarity  GateReason = "LOW_SIMILARITY"
	GateNegativeAnswer GateReason = "NEGATIVE_ANSWER"
)

// GateDecision is the guardrail verdict for one candidate answer.
type GateDecision struct {
	Allow  bool       `json:"allow"`
	Reason GateReason `json:"reason"`
}

// AnswerResult is the final outcome of one question. A refused answer is
// still a successful result: Abstained is true, Answer holds the fixed
// abstention text, and Confidence keeps the computed (low) score.
type AnswerResult struct {
	Answer     string              `json:"answer"`
	Confidence float64             `json:"confidence"`
	Breakdown  ConfidenceBreakdown `json:"breakdown"`
	Sources    []string            `json:"sources,omitempty"`
	Abstained  bool                `json:"abstained"`
	Reason     GateReason          `json:"reason"`
}
