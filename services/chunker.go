package services

import (
	"fmt"
	"strings"

	"github.com/kusumaprabha/UltraShip/models"
)

// Default chunking configuration. 500-word windows with a 100-word overlap
// keep a rate confirmation or BOL to a handful of chunks while preserving
// context on both sides of every boundary.
const (
	DefaultChunkWords     = 500
	DefaultOverlapWords   = 100
	DefaultBoundaryWindow = 50
)

// ChunkerOption configures a Chunker.
type ChunkerOption func(*Chunker)

// WithChunkSize sets the nominal window size in words.
func WithChunkSize(words int) ChunkerOption {
	return func(c *Chunker) {
		c.chunkWords = words
	}
}

// WithOverlap sets how many words consecutive windows share.
func WithOverlap(words int) ChunkerOption {
	return func(c *Chunker) {
		c.overlapWords = words
	}
}

// WithBoundaryWindow sets how far (in words) a window end may move to land
// on a sentence boundary.
func WithBoundaryWindow(words int) ChunkerOption {
	return func(c *Chunker) {
		c.boundaryWindow = words
	}
}

// Chunker splits extracted document text into overlapping, sentence-aligned
// word windows. Chunking is deterministic: identical text and configuration
// always produce identical boundaries.
type Chunker struct {
	chunkWords     int
	overlapWords   int
	boundaryWindow int
}

// NewChunker builds a Chunker, applying any options over the defaults.
// The window size must be strictly larger than the overlap.
func NewChunker(opts ...ChunkerOption) (*Chunker, error) {
	c := &Chunker{
		chunkWords:     DefaultChunkWords,
		overlapWords:   DefaultOverlapWords,
		boundaryWindow: DefaultBoundaryWindow,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.overlapWords < 0 || c.chunkWords <= c.overlapWords {
		return nil, fmt.Errorf("%w: chunk size %d must exceed overlap %d", models.ErrInvalidConfig, c.chunkWords, c.overlapWords)
	}
	if c.boundaryWindow < 0 {
		return nil, fmt.Errorf("%w: boundary window %d is negative", models.ErrInvalidConfig, c.boundaryWindow)
	}
	return c, nil
}

// Chunk splits text into word windows for docID. Word indices in the
// returned chunks are inclusive, 0-based positions in the whitespace
// tokenization of text. Empty or whitespace-only text yields no chunks;
// text shorter than the window size yields exactly one.
func (c *Chunker) Chunk(docID, text string) []models.Chunk {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	step := c.chunkWords - c.overlapWords
	last := len(words) - 1
	var chunks []models.Chunk
	for start := 0; start <= last; start += step {
		end := start + c.chunkWords - 1
		if end >= last {
			end = last
		} else {
			end = c.refineEnd(words, start, end)
		}
		ord := len(chunks)
		chunks = append(chunks, models.Chunk{
			ChunkID:   ChunkID(docID, ord),
			DocID:     docID,
			Ordinal:   ord,
			Text:      strings.Join(words[start:end+1], " "),
			StartWord: start,
			EndWord:   end,
			WordCount: end - start + 1,
		})
		if end == last {
			break
		}
	}
	return chunks
}

// refineEnd moves a window end that falls mid-sentence to the nearest word
// that closes a sentence, scanning up to boundaryWindow words out. Shrinking
// wins ties so chunks stay at or under the nominal size, and is capped by the
// overlap so the following window still covers every word. When no boundary
// is in range the nominal end stands.
func (c *Chunker) refineEnd(words []string, start, nominal int) int {
	if endsSentence(words[nominal]) {
		return nominal
	}
	retract := c.boundaryWindow
	if c.overlapWords < retract {
		retract = c.overlapWords
	}
	last := len(words) - 1
	for d := 1; d <= c.boundaryWindow; d++ {
		if b := nominal - d; d <= retract && b >= start && endsSentence(words[b]) {
			return b
		}
		if f := nominal + d; f <= last && endsSentence(words[f]) {
			return f
		}
	}
	return nominal
}

// endsSentence reports whether a word closes a sentence, tolerating a
// trailing quote or bracket after the terminal punctuation.
func endsSentence(word string) bool {
	w := strings.TrimRight(word, `"')]}`)
	if w == "" {
		return false
	}
	switch w[len(w)-1] {
	case '.', '!', '?':
		return true
	}
	return false
}

// ChunkID forms the stable chunk identifier <doc>#<ordinal>. The ordinal
// doubles as insertion order, which retrieval uses to break similarity ties.
func ChunkID(docID string, ordinal int) string {
	return fmt.Sprintf("%s#%d", docID, ordinal)
}
