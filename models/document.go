package models

import "time"

// Document holds the extracted text of one uploaded file. Immutable once
// created; deleted together with its chunks and index entries.
type Document struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Text       string    `json:"-"`
	WordCount  int       `json:"word_count"`
	ChunkCount int       `json:"chunk_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// Chunk is one retrievable window of a document's text. StartWord and
// EndWord are inclusive 0-based indices into the document's
// whitespace-tokenized word sequence.
type Chunk struct {
	ChunkID   string `json:"chunk_id"`
	DocID     string `json:"doc_id"`
	Ordinal   int    `json:"ordinal"`
	Text      string `json:"text"`
	StartWord int    `json:"start_word"`
	EndWord   int    `json:"end_word"`
	WordCount int    `json:"word_count"`
}

// DocumentInfo is the registry listing view of a document.
type DocumentInfo struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	WordCount  int       `json:"word_count"`
	ChunkCount int       `json:"chunk_count"`
	CreatedAt  time.Time `json:"created_at"`
}
