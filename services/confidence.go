package services

import (
	"strings"
	"unicode"

	"github.com/kusumaprabha/UltraShip/models"
)

// Weights for the combined confidence score. Retrieval similarity dominates,
// lexical coverage of the best chunk comes second, cross-chunk agreement
// rounds it out.
const (
	similarityWeight = 0.5
	coverageWeight   = 0.3
	agreementWeight  = 0.2
)

// ConfidenceOption configures a ConfidenceEngine.
type ConfidenceOption func(*ConfidenceEngine)

// WithStopWords replaces the default stop-word set used when selecting the
// answer's significant words.
func WithStopWords(words []string) ConfidenceOption {
	return func(e *ConfidenceEngine) {
		e.stopWords = make(map[string]struct{}, len(words))
		for _, w := range words {
			e.stopWords[strings.ToLower(w)] = struct{}{}
		}
	}
}

// ConfidenceEngine computes the multi-factor confidence score for a
// candidate answer. Scoring is a pure function of its inputs: no I/O, no
// mutation of the retrieval result, identical inputs give identical scores.
//
// The components, each in [0,1]:
//   - similarity: retrieval similarity of the best-ranked chunk
//   - coverage: fraction of the answer's significant words found in the
//     best chunk's words
//   - agreement: the same overlap measured against every retrieved chunk,
//     averaged with a variance penalty, so an answer backed by one chunk but
//     unsupported by the rest scores below one backed by all of them
//
// Combined = 0.5*similarity + 0.3*coverage + 0.2*agreement.
type ConfidenceEngine struct {
	stopWords map[string]struct{}
}

// NewConfidenceEngine builds a ConfidenceEngine with the default stop-word
// set unless overridden.
func NewConfidenceEngine(opts ...ConfidenceOption) *ConfidenceEngine {
	e := &ConfidenceEngine{stopWords: defaultStopWords()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Score computes the confidence breakdown for answer against the retrieved
// evidence. An empty retrieval yields an all-zero breakdown.
func (e *ConfidenceEngine) Score(query string, retrieved models.RetrievalResult, answer string) models.ConfidenceBreakdown {
	if retrieved.Empty() {
		return models.ConfidenceBreakdown{}
	}

	similarity := clamp01(retrieved.Best())
	answerWords := e.significantWords(answer)

	overlaps := make([]float64, len(retrieved.Chunks))
	for i, sc := range retrieved.Chunks {
		overlaps[i] = overlapFraction(answerWords, wordSet(sc.Chunk.Text))
	}
	coverage := clamp01(overlaps[0])
	agreement := dispersionAdjustedMean(overlaps)

	combined := clamp01(similarityWeight*similarity + coverageWeight*coverage + agreementWeight*agreement)
	return models.ConfidenceBreakdown{
		Similarity: similarity,
		Coverage:   coverage,
		Agreement:  agreement,
		Combined:   combined,
	}
}

// significantWords returns the distinct normalized words of text with
// stop-words removed.
func (e *ConfidenceEngine) significantWords(text string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, raw := range strings.Fields(text) {
		w := normalizeWord(raw)
		if w == "" {
			continue
		}
		if _, stop := e.stopWords[w]; stop {
			continue
		}
		words[w] = struct{}{}
	}
	return words
}

// wordSet returns the distinct normalized words of text, stop-words kept.
func wordSet(text string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, raw := range strings.Fields(text) {
		if w := normalizeWord(raw); w != "" {
			words[w] = struct{}{}
		}
	}
	return words
}

// normalizeWord lower-cases a token and strips punctuation from both ends,
// keeping interior characters so amounts like 1,500 and dates like
// 2024-03-01 survive intact.
func normalizeWord(w string) string {
	return strings.TrimFunc(strings.ToLower(w), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// overlapFraction returns the fraction of want found in have; 0 when want
// is empty.
func overlapFraction(want, have map[string]struct{}) float64 {
	if len(want) == 0 {
		return 0
	}
	matched := 0
	for w := range want {
		if _, ok := have[w]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(want))
}

// dispersionAdjustedMean is the mean of the overlaps minus their population
// variance, clamped to [0,1]. A single overlap has zero variance and passes
// through unchanged.
func dispersionAdjustedMean(overlaps []float64) float64 {
	if len(overlaps) == 0 {
		return 0
	}
	n := float64(len(overlaps))
	var sum float64
	for _, v := range overlaps {
		sum += v
	}
	mean := sum / n

	var varSum float64
	for _, v := range overlaps {
		d := v - mean
		varSum += d * d
	}
	return clamp01(mean - varSum/n)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// defaultStopWords is the stock English stop-word set shared by the lexical
// confidence components and the fallback extractor. Treat it as
// configuration: WithStopWords swaps it wholesale.
func defaultStopWords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at",
		"by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that",
		"these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so",
		"such", "into", "about", "between", "through", "during", "before", "after", "above", "below",
		"out", "off", "own", "same", "too", "very", "can", "will", "just", "now",
		"what", "which", "who", "whom", "whose", "when", "where", "why", "how",
		"do", "does", "did", "has", "have", "had",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
