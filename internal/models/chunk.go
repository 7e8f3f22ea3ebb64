// ABOUTME: Chunk represents a fixed-size window of document text for embedding
// ABOUTME: Chunk IDs are derived from the parent document ID and ordinal
package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Chunk is a bounded text segment of a document, the unit of retrieval
type Chunk struct {
	ID         string    `json:"chunk_id"`
	DocumentID string    `json:"document_id"`
	Index      int       `json:"index"`
	Text       string    `json:"text"`
	Start      int       `json:"start"`
	End        int       `json:"end"`
	Vector     []float64 `json:"-"`
}

// ChunkID builds the identifier for the chunk at index within a document
func ChunkID(documentID string, index int) string {
	return fmt.Sprintf("%s#%d", documentID, index)
}

// ParseChunkID splits a chunk identifier into document ID and index
func ParseChunkID(id string) (string, int, error) {
	i := strings.LastIndex(id, "#")
	if i <= 0 || i == len(id)-1 {
		return "", 0, fmt.Errorf("malformed chunk ID %q", id)
	}
	n, err := strconv.Atoi(id[i+1:])
	if err != nil || n < 0 {
		return "", 0, fmt.Errorf("malformed chunk ID %q", id)
	}
	return id[:i], n, nil
}
