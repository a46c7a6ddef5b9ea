package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kusumaprabha/UltraShip/models"
)

// DocumentService is the caller-facing surface of the document QA core. The
// HTTP controller depends on this interface.
type DocumentService interface {
	Upload(ctx context.Context, filename string, data []byte) (models.Document, error)
	Ask(ctx context.Context, docID, question string) (models.AnswerResult, error)
	Extract(ctx context.Context, docID string) (models.ShipmentFields, error)
	List() []models.DocumentInfo
	Delete(ctx context.Context, docID string) error
	Stats() models.HealthResponse
}

// DocService wires the extraction, chunking, indexing, and answering stages
// together. It owns no retrieval state itself; that lives in the Indexer.
type DocService struct {
	extractor  models.TextExtractor
	chunker    *Chunker
	indexer    *Indexer
	pipeline   *AnswerPipeline
	structured *StructuredExtractor
	files      *FileActions

	embedderName  string
	generatorName string
}

var _ DocumentService = (*DocService)(nil)

// NewDocService builds the service. files may be nil, in which case
// uploaded originals are not persisted.
func NewDocService(extractor models.TextExtractor, chunker *Chunker, indexer *Indexer, pipeline *AnswerPipeline, structured *StructuredExtractor, files *FileActions, embedderName, generatorName string) *DocService {
	return &DocService{
		extractor:     extractor,
		chunker:       chunker,
		indexer:       indexer,
		pipeline:      pipeline,
		structured:    structured,
		files:         files,
		embedderName:  embedderName,
		generatorName: generatorName,
	}
}

// Upload extracts, cleans, chunks, and indexes one uploaded file under a
// fresh document id, storing the original when a FileActions is configured.
func (s *DocService) Upload(ctx context.Context, filename string, data []byte) (models.Document, error) {
	docID := uuid.New().String()
	doc, err := s.indexBytes(ctx, docID, filename, data)
	if err != nil {
		return models.Document{}, err
	}
	if s.files != nil {
		if _, err := s.files.Save(docID, filename, data); err != nil {
			log.Printf("SERVICE: could not persist original for %s: %v", docID, err)
		}
	}
	return doc, nil
}

// Ask answers one question against one indexed document.
func (s *DocService) Ask(ctx context.Context, docID, question string) (models.AnswerResult, error) {
	if _, ok := s.indexer.Get(docID); !ok {
		return models.AnswerResult{}, fmt.Errorf("%w: %s", models.ErrDocumentNotFound, docID)
	}
	return s.pipeline.Answer(ctx, docID, question)
}

// Extract pulls the structured shipment fields from a document's full text,
// rebuilt from its chunks in insertion order.
func (s *DocService) Extract(ctx context.Context, docID string) (models.ShipmentFields, error) {
	if _, ok := s.indexer.Get(docID); !ok {
		return models.ShipmentFields{}, fmt.Errorf("%w: %s", models.ErrDocumentNotFound, docID)
	}
	chunks := s.indexer.Chunks(docID)
	parts := make([]string, len(chunks))
	for i, ch := range chunks {
		parts[i] = ch.Text
	}
	return s.structured.Extract(ctx, strings.Join(parts, "\n")), nil
}

// List returns the registry entries of every indexed document.
func (s *DocService) List() []models.DocumentInfo {
	return s.indexer.List()
}

// Delete removes a document's index entries, metadata, and stored original.
func (s *DocService) Delete(ctx context.Context, docID string) error {
	doc, ok := s.indexer.Get(docID)
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrDocumentNotFound, docID)
	}
	if err := s.indexer.Delete(ctx, docID); err != nil {
		return err
	}
	if s.files != nil {
		if err := s.files.Remove(docID, doc.Filename); err != nil {
			log.Printf("SERVICE: could not remove stored original for %s: %v", docID, err)
		}
	}
	return nil
}

// Stats reports the health view: document count and the configured
// embedder and generator.
func (s *DocService) Stats() models.HealthResponse {
	return models.HealthResponse{
		Status:    "healthy",
		Documents: s.indexer.Count(),
		Embedder:  s.embedderName,
		Generator: s.generatorName,
	}
}

// IndexPath indexes a file from disk under a path-derived document id, so
// the watcher re-indexing the same file replaces rather than duplicates it.
func (s *DocService) IndexPath(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	_, err = s.indexBytes(ctx, pathDocID(path), path, data)
	return err
}

// RemovePath de-indexes the document previously indexed from path. Unknown
// paths are ignored; the watcher fires remove events for files that were
// never indexed.
func (s *DocService) RemovePath(ctx context.Context, path string) error {
	err := s.indexer.Delete(ctx, pathDocID(path))
	if errors.Is(err, models.ErrDocumentNotFound) {
		return nil
	}
	return err
}

// indexBytes is the shared extract-clean-chunk-index path behind Upload and
// IndexPath.
func (s *DocService) indexBytes(ctx context.Context, docID, filename string, data []byte) (models.Document, error) {
	text, err := s.extractor.Extract(data, filename)
	if err != nil {
		return models.Document{}, err
	}
	text = CleanText(text)

	doc := models.Document{
		ID:        docID,
		Filename:  filename,
		Text:      text,
		WordCount: len(strings.Fields(text)),
		CreatedAt: time.Now().UTC(),
	}
	chunks := s.chunker.Chunk(docID, text)
	if err := s.indexer.Build(ctx, doc, chunks); err != nil {
		return models.Document{}, err
	}
	doc.ChunkCount = len(chunks)
	log.Printf("SERVICE: document %s ready (%q, %d words, %d chunks)", docID, filename, doc.WordCount, doc.ChunkCount)
	return doc, nil
}

// pathDocID derives a stable document id from a filesystem path.
func pathDocID(path string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+path)).String()
}
