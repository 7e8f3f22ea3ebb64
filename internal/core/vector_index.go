// ABOUTME: VectorIndex stores chunk embeddings and answers nearest-neighbour queries
// ABOUTME: Vectors are L2-normalised on insert so cosine similarity is a dot product
package core

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/harper/ragchat/internal/models"
)

// scoreTolerance absorbs rounding left over from normalisation so equal
// similarities compare as ties.
const scoreTolerance = 1e-12

type indexEntry struct {
	chunk  models.Chunk
	vector []float64
}

// VectorIndex is an in-memory exact cosine similarity index.
// All vectors share the dimension of the first insert until the index is emptied.
type VectorIndex struct {
	mu      sync.RWMutex
	entries []indexEntry
	dim     int
}

// NewVectorIndex creates an empty index
func NewVectorIndex() *VectorIndex {
	return &VectorIndex{}
}

// Add inserts a single chunk with its vector
func (vi *VectorIndex) Add(chunk models.Chunk, vector []float64) error {
	return vi.AddBatch([]models.Chunk{chunk}, [][]float64{vector})
}

// AddBatch inserts all chunks or none of them
func (vi *VectorIndex) AddBatch(chunks []models.Chunk, vectors [][]float64) error {
	vi.mu.Lock()
	defer vi.mu.Unlock()

	entries, err := vi.prepare(chunks, vectors)
	if err != nil {
		return err
	}
	vi.commit(entries)
	return nil
}

// Replace atomically swaps every chunk of documentID for the given chunks
func (vi *VectorIndex) Replace(documentID string, chunks []models.Chunk, vectors [][]float64) error {
	vi.mu.Lock()
	defer vi.mu.Unlock()

	// The replaced document may be the only one, in which case the new
	// vectors are free to set a different dimension.
	saved := vi.dim
	if vi.onlyDocument(documentID) {
		vi.dim = 0
	}
	entries, err := vi.prepare(chunks, vectors)
	if err != nil {
		vi.dim = saved
		return err
	}

	vi.removeLocked(documentID)
	vi.commit(entries)
	return nil
}

// CheckReplace reports whether Replace would accept vectors for documentID, without changing the index
func (vi *VectorIndex) CheckReplace(documentID string, vectors [][]float64) error {
	vi.mu.RLock()
	defer vi.mu.RUnlock()

	dim := vi.dim
	if vi.onlyDocument(documentID) {
		dim = 0
	}
	for _, v := range vectors {
		if len(v) == 0 {
			return fmt.Errorf("%w: empty vector for document %s", ErrDimensionMismatch, documentID)
		}
		if dim == 0 {
			dim = len(v)
		}
		if len(v) != dim {
			return fmt.Errorf("%w: document %s has %d dimensions, index has %d", ErrDimensionMismatch, documentID, len(v), dim)
		}
	}
	return nil
}

// RemoveByDocument deletes every chunk of a document and returns how many were removed
func (vi *VectorIndex) RemoveByDocument(documentID string) int {
	vi.mu.Lock()
	defer vi.mu.Unlock()
	return vi.removeLocked(documentID)
}

// Search returns up to k chunks ordered by descending cosine similarity.
// Equal scores keep insertion order. An empty index returns no results.
func (vi *VectorIndex) Search(query []float64, k int) ([]models.ScoredChunk, error) {
	vi.mu.RLock()
	defer vi.mu.RUnlock()

	if k <= 0 || len(vi.entries) == 0 {
		return []models.ScoredChunk{}, nil
	}
	if len(query) != vi.dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d", ErrDimensionMismatch, len(query), vi.dim)
	}

	q := normalize(query)
	results := make([]models.ScoredChunk, len(vi.entries))
	for i, e := range vi.entries {
		results[i] = models.ScoredChunk{Chunk: e.chunk, Score: dot(q, e.vector)}
	}

	slices.SortStableFunc(results, compareScores)

	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// compareScores orders by descending score, treating near-equal scores as ties
func compareScores(a, b models.ScoredChunk) int {
	if math.Abs(a.Score-b.Score) <= scoreTolerance {
		return 0
	}
	return cmp.Compare(b.Score, a.Score)
}

// Len returns the number of indexed chunks
func (vi *VectorIndex) Len() int {
	vi.mu.RLock()
	defer vi.mu.RUnlock()
	return len(vi.entries)
}

// Dimension returns the vector dimension, or 0 when empty
func (vi *VectorIndex) Dimension() int {
	vi.mu.RLock()
	defer vi.mu.RUnlock()
	return vi.dim
}

// Documents returns the distinct document IDs in first-insertion order
func (vi *VectorIndex) Documents() []string {
	vi.mu.RLock()
	defer vi.mu.RUnlock()

	seen := make(map[string]bool)
	var ids []string
	for _, e := range vi.entries {
		if !seen[e.chunk.DocumentID] {
			seen[e.chunk.DocumentID] = true
			ids = append(ids, e.chunk.DocumentID)
		}
	}
	return ids
}

// Clear removes every entry and forgets the dimension
func (vi *VectorIndex) Clear() {
	vi.mu.Lock()
	defer vi.mu.Unlock()
	vi.entries = nil
	vi.dim = 0
}

// prepare validates and normalises vectors without touching the index
func (vi *VectorIndex) prepare(chunks []models.Chunk, vectors [][]float64) ([]indexEntry, error) {
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("vector index: %d chunks but %d vectors", len(chunks), len(vectors))
	}

	dim := vi.dim
	entries := make([]indexEntry, len(chunks))
	for i, v := range vectors {
		if len(v) == 0 {
			return nil, fmt.Errorf("%w: empty vector for chunk %s", ErrDimensionMismatch, chunks[i].ID)
		}
		if dim == 0 {
			dim = len(v)
		}
		if len(v) != dim {
			return nil, fmt.Errorf("%w: chunk %s has %d dimensions, expected %d", ErrDimensionMismatch, chunks[i].ID, len(v), dim)
		}
		chunk := chunks[i]
		chunk.Vector = slices.Clone(v)
		entries[i] = indexEntry{chunk: chunk, vector: normalize(v)}
	}
	return entries, nil
}

func (vi *VectorIndex) commit(entries []indexEntry) {
	if len(entries) == 0 {
		return
	}
	vi.dim = len(entries[0].vector)
	vi.entries = append(vi.entries, entries...)
}

func (vi *VectorIndex) removeLocked(documentID string) int {
	before := len(vi.entries)
	vi.entries = slices.DeleteFunc(vi.entries, func(e indexEntry) bool {
		return e.chunk.DocumentID == documentID
	})
	if len(vi.entries) == 0 {
		vi.dim = 0
	}
	return before - len(vi.entries)
}

func (vi *VectorIndex) onlyDocument(documentID string) bool {
	for _, e := range vi.entries {
		if e.chunk.DocumentID != documentID {
			return false
		}
	}
	return true
}

// normalize returns a unit-length copy of v; a zero vector stays zero
func normalize(v []float64) []float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	out := make([]float64, len(v))
	if sum == 0 {
		return out
	}
	norm := math.Sqrt(sum)
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
