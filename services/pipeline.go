package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/kusumaprabha/UltraShip/models"
)

// DefaultGenerateTimeout bounds a single generation call against the
// upstream model.
const DefaultGenerateTimeout = 60 * time.Second

// GenerationMode is fixed at pipeline construction and never re-probed per
// call.
type GenerationMode string

const (
	// ModeConfigured prompts the generator and falls back on failure.
	ModeConfigured GenerationMode = "configured"
	// ModeFallbackOnly answers with the deterministic extractor alone.
	ModeFallbackOnly GenerationMode = "fallback-only"
)

// PipelineOption configures an AnswerPipeline.
type PipelineOption func(*AnswerPipeline)

// WithGenerator supplies an optional generator; the pipeline switches to
// ModeConfigured.
func WithGenerator(gen models.Generator) PipelineOption {
	return func(p *AnswerPipeline) {
		p.generator = gen
	}
}

// WithGenerateTimeout overrides the per-call generation deadline.
func WithGenerateTimeout(d time.Duration) PipelineOption {
	return func(p *AnswerPipeline) {
		p.generateTimeout = d
	}
}

// AnswerPipeline runs one question through the fixed sequence
// retrieve, generate, score, gate, respond. Calls are independent and
// stateless aside from reading the shared index, so any number may run
// concurrently.
type AnswerPipeline struct {
	retriever       *Retriever
	confidence      *ConfidenceEngine
	gate            *GuardrailGate
	fallback        *FallbackExtractor
	generator       models.Generator
	generateTimeout time.Duration
}

// NewAnswerPipeline wires the pipeline. The generation mode is decided here,
// once: with a generator it is ModeConfigured, without one ModeFallbackOnly.
func NewAnswerPipeline(retriever *Retriever, confidence *ConfidenceEngine, gate *GuardrailGate, opts ...PipelineOption) *AnswerPipeline {
	p := &AnswerPipeline{
		retriever:       retriever,
		confidence:      confidence,
		gate:            gate,
		fallback:        NewFallbackExtractor(),
		generateTimeout: DefaultGenerateTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Mode reports the generation mode fixed at construction.
func (p *AnswerPipeline) Mode() GenerationMode {
	if p.generator != nil {
		return ModeConfigured
	}
	return ModeFallbackOnly
}

// Answer runs the full pipeline for one question against one document.
//
// A failed query embedding is terminal and reported as
// ErrRetrievalUnavailable. Everything after that point degrades instead of
// failing: a generator error falls back to deterministic extraction, and a
// guardrail refusal is a successful abstaining result, not an error.
func (p *AnswerPipeline) Answer(ctx context.Context, docID, query string) (models.AnswerResult, error) {
	retrieved, err := p.retriever.Retrieve(ctx, docID, query)
	if err != nil {
		return models.AnswerResult{}, fmt.Errorf("%w: %v", models.ErrRetrievalUnavailable, err)
	}

	candidate := p.generate(ctx, query, retrieved)
	breakdown := p.confidence.Score(query, retrieved, candidate)
	decision := p.gate.Decide(retrieved, candidate, breakdown)

	result := models.AnswerResult{
		Answer:     candidate,
		Confidence: breakdown.Combined,
		Breakdown:  breakdown,
		Abstained:  !decision.Allow,
		Reason:     decision.Reason,
	}
	if decision.Allow {
		result.Sources = make([]string, len(retrieved.Chunks))
		for i, sc := range retrieved.Chunks {
			result.Sources[i] = sc.Chunk.ChunkID
		}
	} else {
		result.Answer = AbstentionText
	}
	return result, nil
}

// generate produces the candidate answer. With no evidence there is nothing
// to prompt with, so the fixed not-found phrase stands in; the gate refuses
// with NO_EVIDENCE regardless of the candidate's content.
func (p *AnswerPipeline) generate(ctx context.Context, query string, retrieved models.RetrievalResult) string {
	if retrieved.Empty() {
		return NotFoundText
	}
	if p.generator != nil {
		gctx, cancel := context.WithTimeout(ctx, p.generateTimeout)
		defer cancel()
		answer, err := p.generator.Generate(gctx, BuildAnswerPrompt(query, retrieved))
		if err == nil && answer != "" {
			return answer
		}
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %v", models.ErrUpstreamTimeout, err)
		}
		log.Printf("PIPELINE: generator %s failed (%v), using fallback extraction", p.generator.Name(), err)
	}
	return p.fallback.Answer(query, retrieved)
}
