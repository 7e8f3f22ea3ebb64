// ABOUTME: Document represents a loaded source file handed to the indexing pipeline
// ABOUTME: Also defines per-document index results and the session statistics snapshot
package models

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Format identifies how a document's text was obtained
type Format string

const (
	FormatText     Format = "txt"
	FormatMarkdown Format = "md"
	FormatPDF      Format = "pdf"
	FormatDOCX     Format = "docx"
	FormatHTML     Format = "html"
)

// IsValid reports whether f is one of the known formats
func (f Format) IsValid() bool {
	switch f {
	case FormatText, FormatMarkdown, FormatPDF, FormatDOCX, FormatHTML:
		return true
	}
	return false
}

// FormatForFile maps a filename extension to a Format
func FormatForFile(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".text":
		return FormatText, nil
	case ".md", ".markdown":
		return FormatMarkdown, nil
	case ".pdf":
		return FormatPDF, nil
	case ".docx":
		return FormatDOCX, nil
	case ".html", ".htm":
		return FormatHTML, nil
	}
	return "", fmt.Errorf("unsupported file type %q", filepath.Ext(name))
}

// Document is raw document text ready for chunking
type Document struct {
	ID     string `json:"id"`
	Text   string `json:"-"`
	Format Format `json:"format"`
	Source string `json:"source,omitempty"`
}

// Validate checks that the document can be indexed
func (d *Document) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return errors.New("document ID cannot be empty")
	}
	if !d.Format.IsValid() {
		return fmt.Errorf("invalid document format %q", d.Format)
	}
	return nil
}

// DocumentInfo describes an indexed document without its text
type DocumentInfo struct {
	ID        string    `json:"id" yaml:"id"`
	Format    Format    `json:"format" yaml:"format"`
	Source    string    `json:"source,omitempty" yaml:"source,omitempty"`
	Chunks    int       `json:"chunks" yaml:"chunks"`
	IndexedAt time.Time `json:"indexed_at" yaml:"indexed_at"`
}

// DocumentResult is the outcome of indexing one document
type DocumentResult struct {
	DocumentID string `json:"document_id"`
	Chunks     int    `json:"chunks"`
	Err        error  `json:"-"`
}

// OK reports whether the document was indexed
func (r DocumentResult) OK() bool {
	return r.Err == nil
}

// IndexReport collects per-document results of an index batch, in input order
type IndexReport struct {
	Results      []DocumentResult `json:"results"`
	ChunkSize    int              `json:"chunk_size"`
	ChunkOverlap int              `json:"chunk_overlap"`
}

// Add appends a result to the report
func (r *IndexReport) Add(res DocumentResult) {
	r.Results = append(r.Results, res)
}

// Succeeded returns the IDs of documents that were indexed
func (r IndexReport) Succeeded() []string {
	var ids []string
	for _, res := range r.Results {
		if res.OK() {
			ids = append(ids, res.DocumentID)
		}
	}
	return ids
}

// Failed returns the results that carry an error
func (r IndexReport) Failed() []DocumentResult {
	var failed []DocumentResult
	for _, res := range r.Results {
		if !res.OK() {
			failed = append(failed, res)
		}
	}
	return failed
}

// TotalChunks sums the chunk counts of successful documents
func (r IndexReport) TotalChunks() int {
	total := 0
	for _, res := range r.Results {
		if res.OK() {
			total += res.Chunks
		}
	}
	return total
}

// SessionState is the lifecycle state of a session
type SessionState string

const (
	StateEmpty   SessionState = "EMPTY"
	StateIndexed SessionState = "INDEXED"
)

// Stats is a read-only snapshot of a session
type Stats struct {
	SessionID    string       `json:"session_id" yaml:"session_id"`
	State        SessionState `json:"state" yaml:"state"`
	Documents    int          `json:"documents" yaml:"documents"`
	Chunks       int          `json:"chunks" yaml:"chunks"`
	Dimension    int          `json:"dimension" yaml:"dimension"`
	Turns        int          `json:"turns" yaml:"turns"`
	MemoryWindow int          `json:"memory_window" yaml:"memory_window"`
	RetrievalK   int          `json:"retrieval_k" yaml:"retrieval_k"`
	ChatModel    string       `json:"chat_model,omitempty" yaml:"chat_model,omitempty"`
	Embedder     string       `json:"embedder,omitempty" yaml:"embedder,omitempty"`
	PromptLength int          `json:"system_prompt_length" yaml:"system_prompt_length"`
}
