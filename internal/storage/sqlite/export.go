// ABOUTME: Export functionality for journaled sessions
// ABOUTME: Supports YAML, JSON and Markdown export formats
package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ExportData represents the complete exportable data structure
type ExportData struct {
	Version    string          `yaml:"version" json:"version"`
	ExportedAt string          `yaml:"exported_at" json:"exported_at"`
	Tool       string          `yaml:"tool" json:"tool"`
	Sessions   []ExportSession `yaml:"sessions" json:"sessions"`
}

// ExportSession represents one session for export
type ExportSession struct {
	SessionID string           `yaml:"session_id" json:"session_id"`
	Documents []ExportDocument `yaml:"documents" json:"documents"`
	Turns     []ExportTurn     `yaml:"turns" json:"turns"`
}

// ExportDocument represents an indexed document for export
type ExportDocument struct {
	DocumentID string `yaml:"document_id" json:"document_id"`
	Format     string `yaml:"format" json:"format"`
	Source     string `yaml:"source,omitempty" json:"source,omitempty"`
	Chunks     int    `yaml:"chunks" json:"chunks"`
	IndexedAt  string `yaml:"indexed_at" json:"indexed_at"`
}

// ExportTurn represents a turn for export
type ExportTurn struct {
	TurnID    string   `yaml:"turn_id" json:"turn_id"`
	Question  string   `yaml:"question" json:"question"`
	Answer    string   `yaml:"answer" json:"answer"`
	Sources   []string `yaml:"sources,omitempty" json:"sources,omitempty"`
	Timestamp string   `yaml:"timestamp" json:"timestamp"`
}

// Export collects the named sessions, or every stored session when none are named
func (s *Storage) Export(ctx context.Context, sessionIDs ...string) (*ExportData, error) {
	data := &ExportData{
		Version:    "1.0",
		ExportedAt: time.Now().Format(time.RFC3339),
		Tool:       "ragchat",
		Sessions:   []ExportSession{},
	}

	if len(sessionIDs) == 0 {
		ids, err := s.ListSessions(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list sessions: %w", err)
		}
		sessionIDs = ids
	}

	for _, id := range sessionIDs {
		snapshot, err := s.LoadSession(ctx, id)
		if err != nil {
			return nil, err
		}
		if snapshot == nil {
			return nil, fmt.Errorf("session %s not found", id)
		}

		session := ExportSession{
			SessionID: id,
			Documents: make([]ExportDocument, 0, len(snapshot.Documents)),
			Turns:     make([]ExportTurn, 0, len(snapshot.Turns)),
		}
		for _, doc := range snapshot.Documents {
			session.Documents = append(session.Documents, ExportDocument{
				DocumentID: doc.ID,
				Format:     string(doc.Format),
				Source:     doc.Source,
				Chunks:     doc.Chunks,
				IndexedAt:  doc.IndexedAt.Format(time.RFC3339),
			})
		}
		for _, turn := range snapshot.Turns {
			session.Turns = append(session.Turns, ExportTurn{
				TurnID:    turn.TurnID,
				Question:  turn.Question,
				Answer:    turn.Answer,
				Sources:   turn.Sources,
				Timestamp: turn.Timestamp.Format(time.RFC3339),
			})
		}
		data.Sessions = append(data.Sessions, session)
	}

	return data, nil
}

// WriteYAML encodes the export as YAML
func (d *ExportData) WriteYAML(w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(d); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return encoder.Close()
}

// WriteJSON encodes the export as indented JSON
func (d *ExportData) WriteJSON(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(d); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// WriteMarkdown renders the export as a readable transcript
func (d *ExportData) WriteMarkdown(w io.Writer) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# ragchat export\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", d.ExportedAt)

	for _, session := range d.Sessions {
		fmt.Fprintf(&b, "## Session %s\n\n", session.SessionID)

		if len(session.Documents) > 0 {
			fmt.Fprintln(&b, "| Document | Format | Chunks | Indexed |")
			fmt.Fprintln(&b, "|----------|--------|--------|---------|")
			for _, doc := range session.Documents {
				fmt.Fprintf(&b, "| %s | %s | %d | %s |\n", doc.DocumentID, doc.Format, doc.Chunks, doc.IndexedAt)
			}
			fmt.Fprintln(&b)
		}

		for _, turn := range session.Turns {
			fmt.Fprintf(&b, "**Q:** %s\n\n", turn.Question)
			fmt.Fprintf(&b, "**A:** %s\n\n", turn.Answer)
			if len(turn.Sources) > 0 {
				fmt.Fprintf(&b, "*Sources: %s*\n\n", strings.Join(turn.Sources, ", "))
			}
		}
		fmt.Fprintln(&b, "---")
		fmt.Fprintln(&b)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
