package models

import "errors"

// Sentinel errors for the document QA pipeline. Call sites wrap these with
// fmt.Errorf("...: %w", err) so callers can match with errors.Is.
var (
	// ErrInvalidConfig indicates bad component parameters, such as a chunk
	// size not larger than the overlap. Local and non-retryable.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmbeddingFailure indicates the embedder errored or returned a
	// vector of unexpected dimension.
	ErrEmbeddingFailure = errors.New("embedding failure")

	// ErrUpstreamTimeout indicates an embedding or generation call exceeded
	// its deadline. The core never retries these silently.
	ErrUpstreamTimeout = errors.New("upstream timeout")

	// ErrRetrievalUnavailable indicates the query could not be served
	// because query embedding failed. Terminal for the call.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")

	// ErrExtractionFailure indicates text extraction from an uploaded file
	// failed. Terminal for the document.
	ErrExtractionFailure = errors.New("text extraction failure")

	// ErrUnsupportedFormat indicates the uploaded file type has no extractor.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrDocumentNotFound indicates the requested document id is not in the
	// registry.
	ErrDocumentNotFound = errors.New("document not found")
)
