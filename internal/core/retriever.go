// ABOUTME: Retriever finds the chunks most relevant to a question
// ABOUTME: It embeds the question and runs a similarity search on the session index
package core

import (
	"context"
	"fmt"
	"time"

	"github.com/harper/ragchat/internal/models"
)

// DefaultRetrievalK is the number of chunks retrieved per question
const DefaultRetrievalK = 4

// Retriever performs semantic search over a VectorIndex
type Retriever struct {
	embedder Embedder
	index    *VectorIndex
	timeout  time.Duration
	minScore float64
}

// NewRetriever creates a Retriever. Results scoring below minScore are dropped; 0 keeps everything.
func NewRetriever(embedder Embedder, index *VectorIndex, timeout time.Duration, minScore float64) *Retriever {
	return &Retriever{
		embedder: embedder,
		index:    index,
		timeout:  timeout,
		minScore: minScore,
	}
}

// Retrieve returns up to k chunks ordered by descending similarity to question.
// An empty index yields an empty result without calling the embedder.
func (r *Retriever) Retrieve(ctx context.Context, question string, k int) ([]models.ScoredChunk, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: retrieval k must be at least 1, got %d", ErrInvalidConfig, k)
	}
	if r.index.Len() == 0 {
		return []models.ScoredChunk{}, nil
	}

	query, err := embedText(ctx, r.embedder, r.timeout, question)
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}

	results, err := r.index.Search(query, k)
	if err != nil {
		return nil, err
	}

	if r.minScore <= 0 {
		return results, nil
	}
	kept := results[:0]
	for _, res := range results {
		if res.Score >= r.minScore {
			kept = append(kept, res)
		}
	}
	return kept, nil
}
