// ABOUTME: Chunker splits document text into overlapping fixed-size windows
// ABOUTME: Window sizes and offsets are counted in runes so multi-byte text is never split mid-character
package core

import (
	"fmt"
	"iter"

	"github.com/harper/ragchat/internal/models"
)

const (
	DefaultChunkSize    = 1200
	DefaultChunkOverlap = 150
)

// ChunkOptions controls how documents are split before embedding
type ChunkOptions struct {
	Size    int `json:"chunk_size" yaml:"chunk_size"`
	Overlap int `json:"chunk_overlap" yaml:"chunk_overlap"`
}

// DefaultChunkOptions returns the standard chunking parameters
func DefaultChunkOptions() ChunkOptions {
	return ChunkOptions{Size: DefaultChunkSize, Overlap: DefaultChunkOverlap}
}

// Validate checks that size is positive and overlap is smaller than size
func (o ChunkOptions) Validate() error {
	if o.Size <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidConfig, o.Size)
	}
	if o.Overlap < 0 {
		return fmt.Errorf("%w: chunk overlap cannot be negative, got %d", ErrInvalidConfig, o.Overlap)
	}
	if o.Overlap >= o.Size {
		return fmt.Errorf("%w: chunk overlap %d must be smaller than chunk size %d", ErrInvalidConfig, o.Overlap, o.Size)
	}
	return nil
}

// Span is one window of text with its rune offsets in the source
type Span struct {
	Index int
	Start int
	End   int
	Text  string
}

// Chunk returns the windows of text in order. Each window holds at most size
// runes and starts size-overlap runes after the previous one. Iteration stops
// at the first window that reaches the end of the text, so the last window may
// be shorter than size. Empty text yields nothing.
func Chunk(text string, size, overlap int) (iter.Seq[Span], error) {
	if err := (ChunkOptions{Size: size, Overlap: overlap}).Validate(); err != nil {
		return nil, err
	}
	step := size - overlap

	return func(yield func(Span) bool) {
		runes := []rune(text)
		for index, start := 0, 0; start < len(runes); index, start = index+1, start+step {
			end := min(start+size, len(runes))
			if !yield(Span{Index: index, Start: start, End: end, Text: string(runes[start:end])}) {
				return
			}
			if end == len(runes) {
				return
			}
		}
	}, nil
}

// ChunkDocument splits a document into chunks carrying the document ID
func ChunkDocument(doc models.Document, opts ChunkOptions) ([]models.Chunk, error) {
	spans, err := Chunk(doc.Text, opts.Size, opts.Overlap)
	if err != nil {
		return nil, err
	}

	var chunks []models.Chunk
	for span := range spans {
		chunks = append(chunks, models.Chunk{
			ID:         models.ChunkID(doc.ID, span.Index),
			DocumentID: doc.ID,
			Index:      span.Index,
			Text:       span.Text,
			Start:      span.Start,
			End:        span.End,
		})
	}
	return chunks, nil
}
