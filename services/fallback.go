package services

import (
	"regexp"
	"strings"

	"github.com/kusumaprabha/UltraShip/models"
)

// NotFoundText is the fixed phrase the fallback extractor returns when the
// retrieved chunks contain no match. It sits on the guardrail denylist, so a
// fallback miss always abstains.
const NotFoundText = "Not found in document."

// Pattern matches for the degraded answering mode. Currency first because
// amounts also look like plain numbers.
var (
	currencyPattern = regexp.MustCompile(`\$\s?\d{1,3}(?:,\d{3})*(?:\.\d{2})?|\d+(?:\.\d{2})?\s?(?:USD|CAD|EUR)`)
	datePattern     = regexp.MustCompile(`\d{4}-\d{2}-\d{2}(?:\s\d{1,2}:\d{2})?|\d{1,2}[/-]\d{1,2}[/-]\d{2,4}(?:\s\d{1,2}:\d{2}\s?(?:AM|PM)?)?`)
)

// Question classes the pattern matchers understand.
var (
	moneyQuestionWords = []string{"rate", "cost", "price", "charge", "amount", "total"}
	dateQuestionWords  = []string{"date", "pickup", "delivery", "when", "eta", "appointment"}
)

// FallbackExtractor is the deterministic answering strategy used when no
// generator is configured or the generator fails. It is degraded mode by
// design: currency amounts for rate questions, date patterns for date
// questions, otherwise the sentences sharing the most of the query's
// significant words.
type FallbackExtractor struct {
	stopWords map[string]struct{}
}

// NewFallbackExtractor builds a FallbackExtractor sharing the confidence
// engine's default stop-word set.
func NewFallbackExtractor() *FallbackExtractor {
	return &FallbackExtractor{stopWords: defaultStopWords()}
}

// Answer produces a candidate answer from the retrieved chunks. Empty
// retrieval or no match yields NotFoundText.
func (f *FallbackExtractor) Answer(query string, retrieved models.RetrievalResult) string {
	if retrieved.Empty() {
		return NotFoundText
	}
	var parts []string
	for _, sc := range retrieved.Chunks {
		parts = append(parts, sc.Chunk.Text)
	}
	context := strings.Join(parts, "\n\n")
	lowerQuery := strings.ToLower(query)

	if containsAny(lowerQuery, moneyQuestionWords) {
		if m := currencyPattern.FindString(context); m != "" {
			return m
		}
	}
	if containsAny(lowerQuery, dateQuestionWords) {
		if m := datePattern.FindString(context); m != "" {
			return m
		}
	}
	if answer := f.matchingSentences(lowerQuery, context); answer != "" {
		return answer
	}
	return NotFoundText
}

// matchingSentences returns the first two sentences containing any
// significant query word, joined back together.
func (f *FallbackExtractor) matchingSentences(lowerQuery, context string) string {
	keywords := make(map[string]struct{})
	for _, raw := range strings.Fields(lowerQuery) {
		w := normalizeWord(raw)
		if w == "" {
			continue
		}
		if _, stop := f.stopWords[w]; stop {
			continue
		}
		keywords[w] = struct{}{}
	}
	if len(keywords) == 0 {
		return ""
	}

	var matched []string
	for _, sentence := range strings.Split(context, ". ") {
		sentenceWords := wordSet(sentence)
		for kw := range keywords {
			if _, ok := sentenceWords[kw]; ok {
				matched = append(matched, strings.TrimSpace(sentence))
				break
			}
		}
		if len(matched) == 2 {
			break
		}
	}
	if len(matched) == 0 {
		return ""
	}
	answer := strings.Join(matched, ". ")
	if !strings.HasSuffix(answer, ".") {
		answer += "."
	}
	return answer
}

func containsAny(haystack string, words []string) bool {
	for _, w := range words {
		if strings.Contains(haystack, w) {
			return true
		}
	}
	return false
}
