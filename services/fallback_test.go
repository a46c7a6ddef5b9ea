package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kusumaprabha/UltraShip/models"
)

func fallbackRetrieval(texts ...string) models.RetrievalResult {
	var r models.RetrievalResult
	for i, text := range texts {
		r.Chunks = append(r.Chunks, scoredChunk(i, text, 0.9))
	}
	return r
}

func TestFallbackExtractor_Answer_RateQuestion(t *testing.T) {
	f := NewFallbackExtractor()
	retrieved := fallbackRetrieval("Pickup date: 2024-03-01. Carrier: Acme Trucking. Rate: $1,500.")

	got := f.Answer("What is the rate for this load?", retrieved)
	assert.Equal(t, "$1,500", got)
}

func TestFallbackExtractor_Answer_DateQuestion(t *testing.T) {
	f := NewFallbackExtractor()
	retrieved := fallbackRetrieval("Pickup date: 2024-03-01. Carrier: Acme Trucking. Rate: $1,500.")

	got := f.Answer("What is the pickup date?", retrieved)
	assert.Equal(t, "2024-03-01", got)
}

func TestFallbackExtractor_Answer_SlashDate(t *testing.T) {
	f := NewFallbackExtractor()
	retrieved := fallbackRetrieval("Delivery appointment: 03/05/2024 10:30 AM at dock 7.")

	got := f.Answer("When is delivery?", retrieved)
	assert.Contains(t, got, "03/05/2024")
}

func TestFallbackExtractor_Answer_KeywordSentences(t *testing.T) {
	f := NewFallbackExtractor()
	retrieved := fallbackRetrieval("Pickup is scheduled early. Carrier: Acme Trucking. The driver calls ahead.")

	got := f.Answer("Who is the carrier?", retrieved)
	assert.Contains(t, got, "Acme Trucking")
}

func TestFallbackExtractor_Answer_NoMatch(t *testing.T) {
	f := NewFallbackExtractor()
	retrieved := fallbackRetrieval("Pickup date: 2024-03-01. Carrier: Acme Trucking.")

	got := f.Answer("What is the consignee's phone number?", retrieved)
	assert.Equal(t, NotFoundText, got)
}

func TestFallbackExtractor_Answer_EmptyRetrieval(t *testing.T) {
	f := NewFallbackExtractor()

	got := f.Answer("anything", models.RetrievalResult{})
	assert.Equal(t, NotFoundText, got)
}
