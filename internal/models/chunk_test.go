// ABOUTME: Tests for Chunk identifiers
// ABOUTME: Verifies ChunkID formatting and ParseChunkID round trips
package models

import "testing"

func TestChunkID(t *testing.T) {
	if got := ChunkID("report.pdf", 3); got != "report.pdf#3" {
		t.Errorf("ChunkID() = %q, want %q", got, "report.pdf#3")
	}
}

func TestParseChunkID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantDoc string
		wantIdx int
		wantErr bool
	}{
		{"simple", "notes.txt#0", "notes.txt", 0, false},
		{"hash in document name", "a#b.md#12", "a#b.md", 12, false},
		{"missing index", "notes.txt#", "", 0, true},
		{"missing document", "#4", "", 0, true},
		{"no separator", "notes.txt", "", 0, true},
		{"negative index", "notes.txt#-1", "", 0, true},
		{"non-numeric index", "notes.txt#x", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, idx, err := ParseChunkID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseChunkID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if doc != tt.wantDoc || idx != tt.wantIdx {
				t.Errorf("ParseChunkID(%q) = (%q, %d), want (%q, %d)", tt.id, doc, idx, tt.wantDoc, tt.wantIdx)
			}
		})
	}
}
