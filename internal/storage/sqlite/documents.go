// ABOUTME: Document and chunk storage operations for SQLite
// ABOUTME: A document is saved together with all of its chunks and their vectors
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/harper/ragchat/internal/models"
)

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DocumentStore handles document and chunk persistence
type DocumentStore struct {
	q querier
}

// NewDocumentStore creates a new DocumentStore
func NewDocumentStore(q querier) *DocumentStore {
	return &DocumentStore{q: q}
}

// Save upserts a document and replaces its chunks
func (s *DocumentStore) Save(ctx context.Context, sessionID string, info models.DocumentInfo, chunks []models.Chunk) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO documents (session_id, doc_id, format, source, chunk_count, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, doc_id) DO UPDATE SET
			format = excluded.format,
			source = excluded.source,
			chunk_count = excluded.chunk_count,
			indexed_at = excluded.indexed_at
	`, sessionID, info.ID, string(info.Format), nullString(info.Source), info.Chunks, info.IndexedAt)
	if err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}

	if _, err := s.q.ExecContext(ctx, "DELETE FROM chunks WHERE session_id = ? AND doc_id = ?", sessionID, info.ID); err != nil {
		return fmt.Errorf("failed to clear chunks: %w", err)
	}

	for _, c := range chunks {
		_, err := s.q.ExecContext(ctx, `
			INSERT INTO chunks (session_id, doc_id, chunk_id, idx, text, start_pos, end_pos, vector)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, sessionID, info.ID, c.ID, c.Index, c.Text, c.Start, c.End, vectorToBlob(c.Vector))
		if err != nil {
			return fmt.Errorf("failed to save chunk %s: %w", c.ID, err)
		}
	}

	return nil
}

// Delete removes a document; its chunks go with it
func (s *DocumentStore) Delete(ctx context.Context, sessionID, documentID string) error {
	_, err := s.q.ExecContext(ctx, "DELETE FROM documents WHERE session_id = ? AND doc_id = ?", sessionID, documentID)
	return err
}

// List returns a session's documents in first-insertion order
func (s *DocumentStore) List(ctx context.Context, sessionID string) ([]models.DocumentInfo, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT doc_id, format, source, chunk_count, indexed_at
		FROM documents
		WHERE session_id = ?
		ORDER BY seq ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var docs []models.DocumentInfo
	for rows.Next() {
		var (
			info   models.DocumentInfo
			format string
			source sql.NullString
		)
		if err := rows.Scan(&info.ID, &format, &source, &info.Chunks, &info.IndexedAt); err != nil {
			return nil, err
		}
		info.Format = models.Format(format)
		if source.Valid {
			info.Source = source.String
		}
		docs = append(docs, info)
	}

	return docs, rows.Err()
}

// Chunks returns a session's chunks grouped by document in insertion order, then by index
func (s *DocumentStore) Chunks(ctx context.Context, sessionID string) ([]models.Chunk, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT c.doc_id, c.chunk_id, c.idx, c.text, c.start_pos, c.end_pos, c.vector
		FROM chunks c
		JOIN documents d ON d.session_id = c.session_id AND d.doc_id = c.doc_id
		WHERE c.session_id = ?
		ORDER BY d.seq ASC, c.idx ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var chunks []models.Chunk
	for rows.Next() {
		var (
			c    models.Chunk
			blob []byte
		)
		if err := rows.Scan(&c.DocumentID, &c.ID, &c.Index, &c.Text, &c.Start, &c.End, &blob); err != nil {
			return nil, err
		}
		vector, err := blobToVector(blob)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", c.ID, err)
		}
		c.Vector = vector
		chunks = append(chunks, c)
	}

	return chunks, rows.Err()
}

// nullString converts empty strings to NULL
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
