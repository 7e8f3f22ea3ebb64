// ABOUTME: Tests for the sliding-window chunker
// ABOUTME: Verifies option validation, text coverage, window bounds and lazy iteration
package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/harper/ragchat/internal/models"
)

func TestChunkOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    ChunkOptions
		wantErr bool
	}{
		{"defaults", DefaultChunkOptions(), false},
		{"zero overlap", ChunkOptions{Size: 50, Overlap: 0}, false},
		{"overlap one less than size", ChunkOptions{Size: 10, Overlap: 9}, false},
		{"zero size", ChunkOptions{Size: 0, Overlap: 0}, true},
		{"negative size", ChunkOptions{Size: -5, Overlap: 0}, true},
		{"negative overlap", ChunkOptions{Size: 10, Overlap: -1}, true},
		{"overlap equals size", ChunkOptions{Size: 10, Overlap: 10}, true},
		{"overlap larger than size", ChunkOptions{Size: 10, Overlap: 20}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestChunk_InvalidOptions(t *testing.T) {
	if _, err := Chunk("some text", 10, 10); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Chunk() error = %v, want ErrInvalidConfig", err)
	}
}

func TestChunk_CoverageAndBounds(t *testing.T) {
	texts := map[string]string{
		"short":   "Paris is the capital of France.",
		"long":    strings.Repeat("The quick brown fox jumps over the lazy dog. ", 40),
		"unicode": strings.Repeat("日本語のテキスト、絵文字🙂も含む。", 12),
		"single":  "x",
	}
	options := []ChunkOptions{
		{Size: 1, Overlap: 0},
		{Size: 7, Overlap: 3},
		{Size: 50, Overlap: 0},
		{Size: 64, Overlap: 63},
		{Size: 1200, Overlap: 150},
	}

	for name, text := range texts {
		for _, opts := range options {
			t.Run(name, func(t *testing.T) {
				spans, err := Chunk(text, opts.Size, opts.Overlap)
				if err != nil {
					t.Fatalf("Chunk() error = %v", err)
				}

				var rebuilt []rune
				prevEnd := 0
				for span := range spans {
					runes := []rune(span.Text)
					if len(runes) > opts.Size {
						t.Fatalf("span %d has %d runes, size is %d", span.Index, len(runes), opts.Size)
					}
					if span.End-span.Start != len(runes) {
						t.Fatalf("span %d offsets [%d,%d) disagree with text length %d", span.Index, span.Start, span.End, len(runes))
					}
					if span.Start > prevEnd {
						t.Fatalf("gap before span %d: starts at %d, previous ended at %d", span.Index, span.Start, prevEnd)
					}
					rebuilt = append(rebuilt, runes[prevEnd-span.Start:]...)
					prevEnd = span.End
				}

				if string(rebuilt) != text {
					t.Errorf("spans do not reconstruct the text (size=%d overlap=%d)", opts.Size, opts.Overlap)
				}
			})
		}
	}
}

func TestChunk_Windows(t *testing.T) {
	spans, err := Chunk("abcdefghij", 4, 1)
	if err != nil {
		t.Fatalf("Chunk() error = %v", err)
	}

	var got []string
	for span := range spans {
		got = append(got, span.Text)
	}

	want := []string{"abcd", "defg", "ghij"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Chunk() = %v, want %v", got, want)
	}
}

func TestChunk_EmptyText(t *testing.T) {
	spans, err := Chunk("", 10, 2)
	if err != nil {
		t.Fatalf("Chunk() error = %v", err)
	}
	for span := range spans {
		t.Errorf("unexpected span %+v", span)
	}
}

func TestChunk_Restartable(t *testing.T) {
	spans, err := Chunk(strings.Repeat("abc ", 30), 16, 4)
	if err != nil {
		t.Fatalf("Chunk() error = %v", err)
	}

	count := func() int {
		n := 0
		for range spans {
			n++
		}
		return n
	}

	first, second := count(), count()
	if first == 0 || first != second {
		t.Errorf("iterations yielded %d then %d spans, want equal and non-zero", first, second)
	}
}

func TestChunk_StopsEarly(t *testing.T) {
	spans, err := Chunk(strings.Repeat("a", 100), 10, 0)
	if err != nil {
		t.Fatalf("Chunk() error = %v", err)
	}

	n := 0
	for range spans {
		n++
		if n == 3 {
			break
		}
	}
	if n != 3 {
		t.Errorf("consumed %d spans, want 3", n)
	}
}

func TestChunkDocument(t *testing.T) {
	doc := models.Document{ID: "notes.txt", Text: "abcdefghij", Format: models.FormatText}

	chunks, err := ChunkDocument(doc, ChunkOptions{Size: 4, Overlap: 0})
	if err != nil {
		t.Fatalf("ChunkDocument() error = %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("ChunkDocument() returned %d chunks, want 3", len(chunks))
	}

	for i, c := range chunks {
		if c.Index != i {
			t.Errorf("chunk %d Index = %d", i, c.Index)
		}
		if c.DocumentID != "notes.txt" {
			t.Errorf("chunk %d DocumentID = %q", i, c.DocumentID)
		}
		if c.ID != models.ChunkID("notes.txt", i) {
			t.Errorf("chunk %d ID = %q", i, c.ID)
		}
	}
	if chunks[2].Text != "ij" {
		t.Errorf("last chunk = %q, want %q", chunks[2].Text, "ij")
	}
}
