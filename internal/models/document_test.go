// ABOUTME: Tests for Document validation, format detection and index reports
// ABOUTME: Verifies extension mapping and per-document result aggregation
package models

import (
	"errors"
	"testing"
)

func TestFormatForFile(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		want    Format
		wantErr bool
	}{
		{"txt", "notes.txt", FormatText, false},
		{"text", "notes.TEXT", FormatText, false},
		{"markdown short", "README.md", FormatMarkdown, false},
		{"markdown long", "guide.markdown", FormatMarkdown, false},
		{"pdf upper case", "E-KATHA.PDF", FormatPDF, false},
		{"docx", "letter.docx", FormatDOCX, false},
		{"htm", "page.htm", FormatHTML, false},
		{"unsupported", "image.png", "", true},
		{"no extension", "Makefile", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatForFile(tt.file)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FormatForFile(%q) error = %v, wantErr %v", tt.file, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("FormatForFile(%q) = %q, want %q", tt.file, got, tt.want)
			}
		})
	}
}

func TestDocument_Validate(t *testing.T) {
	tests := []struct {
		name    string
		doc     Document
		wantErr bool
	}{
		{"valid", Document{ID: "a.txt", Text: "hello", Format: FormatText}, false},
		{"empty text is still structurally valid", Document{ID: "a.txt", Format: FormatText}, false},
		{"missing ID", Document{Text: "hello", Format: FormatText}, true},
		{"unknown format", Document{ID: "a.bin", Text: "hello", Format: Format("bin")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.doc.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIndexReport(t *testing.T) {
	var report IndexReport
	report.Add(DocumentResult{DocumentID: "a.txt", Chunks: 3})
	report.Add(DocumentResult{DocumentID: "b.pdf", Err: errors.New("corrupt")})
	report.Add(DocumentResult{DocumentID: "c.md", Chunks: 2})

	if got := report.TotalChunks(); got != 5 {
		t.Errorf("TotalChunks() = %d, want 5", got)
	}

	ok := report.Succeeded()
	if len(ok) != 2 || ok[0] != "a.txt" || ok[1] != "c.md" {
		t.Errorf("Succeeded() = %v, want [a.txt c.md]", ok)
	}

	failed := report.Failed()
	if len(failed) != 1 || failed[0].DocumentID != "b.pdf" {
		t.Errorf("Failed() = %v, want [b.pdf]", failed)
	}
}
