// ABOUTME: Tests for the in-memory cosine similarity index
// ABOUTME: Verifies ordering, completeness, stable ties, atomic batches and document removal
package core

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/harper/ragchat/internal/models"
)

func testChunk(docID string, index int) models.Chunk {
	return models.Chunk{
		ID:         models.ChunkID(docID, index),
		DocumentID: docID,
		Index:      index,
		Text:       docID,
	}
}

func chunkIDs(results []models.ScoredChunk) []string {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.Chunk.ID
	}
	return ids
}

func TestVectorIndex_SearchOrdering(t *testing.T) {
	vi := NewVectorIndex()
	vectors := map[string][]float64{
		"east":      {1, 0},
		"north":     {0, 1},
		"northeast": {1, 1},
		"west":      {-1, 0},
	}
	for _, id := range []string{"east", "north", "northeast", "west"} {
		if err := vi.Add(testChunk(id, 0), vectors[id]); err != nil {
			t.Fatalf("Add(%s) error = %v", id, err)
		}
	}

	results, err := vi.Search([]float64{2, 0.1}, 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	want := []string{"east#0", "northeast#0", "north#0", "west#0"}
	if got := chunkIDs(results); !reflect.DeepEqual(got, want) {
		t.Errorf("Search() order = %v, want %v", got, want)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("results not descending at %d: %f > %f", i, results[i].Score, results[i-1].Score)
		}
	}
	if math.Abs(results[len(results)-1].Score-(-2/math.Sqrt(4.01))) > 1e-9 {
		t.Errorf("west score = %f, want cosine of opposite-ish vectors", results[len(results)-1].Score)
	}
}

func TestVectorIndex_SearchK(t *testing.T) {
	vi := NewVectorIndex()
	for i := 0; i < 5; i++ {
		if err := vi.Add(testChunk("doc", i), []float64{float64(i + 1), 1}); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	tests := []struct {
		name string
		k    int
		want int
	}{
		{"fewer than entries", 2, 2},
		{"exactly entries", 5, 5},
		{"more than entries", 50, 5},
		{"zero", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := vi.Search([]float64{1, 0}, tt.k)
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if len(results) != tt.want {
				t.Fatalf("Search(k=%d) returned %d results, want %d", tt.k, len(results), tt.want)
			}
			seen := make(map[string]bool)
			for _, r := range results {
				if seen[r.Chunk.ID] {
					t.Errorf("chunk %s returned twice", r.Chunk.ID)
				}
				seen[r.Chunk.ID] = true
			}
		})
	}
}

func TestVectorIndex_TiesKeepInsertionOrder(t *testing.T) {
	vi := NewVectorIndex()
	for i := 0; i < 6; i++ {
		// Same direction, different magnitudes: all score 1 after normalisation.
		if err := vi.Add(testChunk("same", i), []float64{float64(i + 1), float64(i + 1)}); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	results, err := vi.Search([]float64{1, 1}, 6)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	for i, r := range results {
		if r.Chunk.Index != i {
			t.Errorf("position %d holds chunk %d, want insertion order", i, r.Chunk.Index)
		}
	}
}

func TestVectorIndex_ScaledTiesAmongOthers(t *testing.T) {
	tests := []struct {
		name    string
		vectors [][]float64
		want    []int
	}{
		{
			name:    "scaled copies of one direction",
			vectors: [][]float64{{1, 1}, {2, 2}, {3, 3}},
			want:    []int{0, 1, 2},
		},
		{
			name:    "ties interleaved with a weaker match",
			vectors: [][]float64{{3, 3}, {1, 0}, {1, 1}, {7, 7}},
			want:    []int{0, 2, 3, 1},
		},
		{
			name:    "stronger match still wins",
			vectors: [][]float64{{0.1, 0.3}, {5, 5}, {2, 2}},
			want:    []int{1, 2, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vi := NewVectorIndex()
			for i, v := range tt.vectors {
				if err := vi.Add(testChunk("doc", i), v); err != nil {
					t.Fatalf("Add() error = %v", err)
				}
			}

			results, err := vi.Search([]float64{1, 1}, len(tt.vectors))
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if len(results) != len(tt.want) {
				t.Fatalf("Search() returned %d results, want %d", len(results), len(tt.want))
			}
			for i, r := range results {
				if r.Chunk.Index != tt.want[i] {
					t.Errorf("position %d holds chunk %d, want %d", i, r.Chunk.Index, tt.want[i])
				}
			}
		})
	}
}

func TestVectorIndex_EmptySearch(t *testing.T) {
	vi := NewVectorIndex()
	results, err := vi.Search([]float64{1, 2, 3}, 4)
	if err != nil {
		t.Fatalf("Search() on empty index error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Search() on empty index returned %d results", len(results))
	}
}

func TestVectorIndex_DimensionMismatch(t *testing.T) {
	vi := NewVectorIndex()
	if err := vi.Add(testChunk("a", 0), []float64{1, 0, 0}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if err := vi.Add(testChunk("b", 0), []float64{1, 0}); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Add() with wrong dimension error = %v, want ErrDimensionMismatch", err)
	}
	if _, err := vi.Search([]float64{1, 0}, 1); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Search() with wrong dimension error = %v, want ErrDimensionMismatch", err)
	}
	if err := vi.Add(testChunk("c", 0), nil); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Add() with empty vector error = %v, want ErrDimensionMismatch", err)
	}
}

func TestVectorIndex_AddBatchIsAtomic(t *testing.T) {
	vi := NewVectorIndex()
	chunks := []models.Chunk{testChunk("doc", 0), testChunk("doc", 1), testChunk("doc", 2)}
	vectors := [][]float64{{1, 0}, {0, 1}, {1, 0, 1}}

	if err := vi.AddBatch(chunks, vectors); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("AddBatch() error = %v, want ErrDimensionMismatch", err)
	}
	if vi.Len() != 0 {
		t.Errorf("Len() = %d after failed batch, want 0", vi.Len())
	}
	if vi.Dimension() != 0 {
		t.Errorf("Dimension() = %d after failed batch, want 0", vi.Dimension())
	}

	if err := vi.AddBatch(chunks[:2], vectors); err == nil {
		t.Error("AddBatch() with mismatched counts should fail")
	}
}

func TestVectorIndex_RemoveRoundTrip(t *testing.T) {
	vi := NewVectorIndex()
	base := [][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	for i, v := range base {
		if err := vi.Add(testChunk("base", i), v); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}
	query := []float64{0.3, 0.5, 0.2}

	before, err := vi.Search(query, 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	extra := []models.Chunk{testChunk("extra", 0), testChunk("extra", 1)}
	if err := vi.AddBatch(extra, [][]float64{{0.3, 0.5, 0.2}, {0.3, 0.5, 0.21}}); err != nil {
		t.Fatalf("AddBatch() error = %v", err)
	}
	if removed := vi.RemoveByDocument("extra"); removed != 2 {
		t.Errorf("RemoveByDocument() = %d, want 2", removed)
	}

	after, err := vi.Search(query, 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if !reflect.DeepEqual(before, after) {
		t.Errorf("search results changed after index+remove:\nbefore %v\nafter  %v", chunkIDs(before), chunkIDs(after))
	}
	if got := vi.Documents(); !reflect.DeepEqual(got, []string{"base"}) {
		t.Errorf("Documents() = %v, want [base]", got)
	}
}

func TestVectorIndex_RemoveLastResetsDimension(t *testing.T) {
	vi := NewVectorIndex()
	if err := vi.Add(testChunk("a", 0), []float64{1, 2}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	vi.RemoveByDocument("a")

	if err := vi.Add(testChunk("b", 0), []float64{1, 2, 3}); err != nil {
		t.Errorf("Add() after emptying index error = %v, want new dimension accepted", err)
	}
	if vi.Dimension() != 3 {
		t.Errorf("Dimension() = %d, want 3", vi.Dimension())
	}
}

func TestVectorIndex_Replace(t *testing.T) {
	vi := NewVectorIndex()
	if err := vi.AddBatch([]models.Chunk{testChunk("a", 0), testChunk("a", 1)}, [][]float64{{1, 0}, {0, 1}}); err != nil {
		t.Fatalf("AddBatch() error = %v", err)
	}
	if err := vi.Add(testChunk("b", 0), []float64{1, 1}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if err := vi.Replace("a", []models.Chunk{testChunk("a", 0)}, [][]float64{{1, 0, 0}}); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("Replace() with new dimension while other documents exist error = %v, want ErrDimensionMismatch", err)
	}
	if vi.Len() != 3 {
		t.Fatalf("Len() = %d after rejected replace, want 3", vi.Len())
	}

	if err := vi.Replace("a", []models.Chunk{testChunk("a", 0)}, [][]float64{{0.5, 0.5}}); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if vi.Len() != 2 {
		t.Errorf("Len() = %d after replace, want 2", vi.Len())
	}
}

func TestVectorIndex_ReplaceOnlyDocumentMayChangeDimension(t *testing.T) {
	vi := NewVectorIndex()
	if err := vi.Add(testChunk("a", 0), []float64{1, 0}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := vi.CheckReplace("a", [][]float64{{1, 0, 0}}); err != nil {
		t.Fatalf("CheckReplace() error = %v", err)
	}
	if err := vi.Replace("a", []models.Chunk{testChunk("a", 0)}, [][]float64{{1, 0, 0}}); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if vi.Dimension() != 3 {
		t.Errorf("Dimension() = %d, want 3", vi.Dimension())
	}
}

func TestVectorIndex_ZeroVectorScoresZero(t *testing.T) {
	vi := NewVectorIndex()
	if err := vi.Add(testChunk("zero", 0), []float64{0, 0}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	results, err := vi.Search([]float64{1, 1}, 1)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if results[0].Score != 0 {
		t.Errorf("zero vector score = %f, want 0", results[0].Score)
	}
}

func TestVectorIndex_Clear(t *testing.T) {
	vi := NewVectorIndex()
	for i := 0; i < 3; i++ {
		if err := vi.Add(testChunk("doc", i), []float64{1, float64(i)}); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}
	vi.Clear()

	if vi.Len() != 0 || vi.Dimension() != 0 || len(vi.Documents()) != 0 {
		t.Errorf("Clear() left Len=%d Dimension=%d Documents=%v", vi.Len(), vi.Dimension(), vi.Documents())
	}
}
