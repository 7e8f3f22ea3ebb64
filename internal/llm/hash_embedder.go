// ABOUTME: HashEmbedder is a deterministic offline embedder based on feature hashing
// ABOUTME: Words and word bigrams are hashed into a fixed number of signed buckets
package llm

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"
)

// DefaultHashDimension is the vector length used when none is configured
const DefaultHashDimension = 512

// HashEmbedder needs no network access, which makes it useful offline and in tests.
// Texts sharing vocabulary get similar vectors; it has no notion of synonyms.
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder creates a HashEmbedder producing vectors of length dim
func NewHashEmbedder(dim int) (*HashEmbedder, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("hash embedding dimension must be positive, got %d", dim)
	}
	return &HashEmbedder{dim: dim}, nil
}

// Dimension returns the vector length
func (h *HashEmbedder) Dimension() int {
	return h.dim
}

// Embed hashes the words and bigrams of text into a vector
func (h *HashEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v := make([]float64, h.dim)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for i, w := range words {
		h.add(v, w, 1)
		if i > 0 {
			h.add(v, words[i-1]+" "+w, 0.5)
		}
	}
	return v, nil
}

// EmbedBatch embeds each text in order
func (h *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		v, err := h.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = v
	}
	return vectors, nil
}

func (h *HashEmbedder) add(v []float64, feature string, weight float64) {
	f := fnv.New64a()
	_, _ = f.Write([]byte(feature))
	sum := f.Sum64()

	bucket := int(sum % uint64(h.dim))
	if sum>>63 == 1 {
		weight = -weight
	}
	v[bucket] += weight
}
