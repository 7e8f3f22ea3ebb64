// ABOUTME: Storage is the SQLite session journal behind core sessions
// ABOUTME: Every write runs in one transaction so a failed write leaves the journal unchanged
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/harper/ragchat/internal/core"
	"github.com/harper/ragchat/internal/models"
)

var _ core.SessionStore = (*Storage)(nil)

// Storage persists sessions, documents, chunks and turns in SQLite
type Storage struct {
	db *DB
	mu sync.Mutex // serialises writers
}

// NewStorage opens the journal at dbPath
func NewStorage(dbPath string) (*Storage, error) {
	db, err := Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &Storage{db: db}, nil
}

// NewStorageInMemory creates an in-memory journal (for testing)
func NewStorageInMemory() (*Storage, error) {
	db, err := OpenInMemory()
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}

// DB returns the underlying database
func (s *Storage) DB() *DB {
	return s.db
}

// touchSession creates the session row or bumps its updated_at
func touchSession(ctx context.Context, tx *sql.Tx, sessionID string) error {
	now := time.Now().UTC()
	_, err := tx.ExecContext(ctx, `
		INSERT INTO sessions (id, created_at, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at
	`, sessionID, now, now)
	if err != nil {
		return fmt.Errorf("failed to record session: %w", err)
	}
	return nil
}

// SaveDocument stores a document and its chunks, replacing any previous version
func (s *Storage) SaveDocument(ctx context.Context, sessionID string, info models.DocumentInfo, chunks []models.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.inTx(ctx, func(tx *sql.Tx) error {
		if err := touchSession(ctx, tx, sessionID); err != nil {
			return err
		}
		return NewDocumentStore(tx).Save(ctx, sessionID, info, chunks)
	})
}

// RemoveDocument deletes a document's chunks, and the session's turns when clearTurns is set
func (s *Storage) RemoveDocument(ctx context.Context, sessionID, documentID string, clearTurns bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.inTx(ctx, func(tx *sql.Tx) error {
		if err := NewDocumentStore(tx).Delete(ctx, sessionID, documentID); err != nil {
			return fmt.Errorf("failed to delete document: %w", err)
		}
		if clearTurns {
			if err := NewTurnStore(tx).Clear(ctx, sessionID); err != nil {
				return fmt.Errorf("failed to clear turns: %w", err)
			}
		}
		return touchSession(ctx, tx, sessionID)
	})
}

// AppendTurn records a turn and prunes turns older than the newest window
func (s *Storage) AppendTurn(ctx context.Context, sessionID string, turn models.Turn, window int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.inTx(ctx, func(tx *sql.Tx) error {
		if err := touchSession(ctx, tx, sessionID); err != nil {
			return err
		}
		return NewTurnStore(tx).Append(ctx, sessionID, turn, window)
	})
}

// ClearTurns forgets a session's conversation
func (s *Storage) ClearTurns(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.inTx(ctx, func(tx *sql.Tx) error {
		if err := NewTurnStore(tx).Clear(ctx, sessionID); err != nil {
			return fmt.Errorf("failed to clear turns: %w", err)
		}
		return nil
	})
}

// ClearSession removes the session with all of its documents and turns
func (s *Storage) ClearSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", sessionID); err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}
		return nil
	})
}

// LoadSession returns the stored state of a session, or nil when none is stored
func (s *Storage) LoadSession(ctx context.Context, sessionID string) (*core.SessionSnapshot, error) {
	var exists int
	err := s.db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM sessions WHERE id = ?", sessionID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}
	if exists == 0 {
		return nil, nil
	}

	docs := NewDocumentStore(s.db.conn)
	documents, err := docs.List(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}
	chunks, err := docs.Chunks(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load chunks: %w", err)
	}
	turns, err := NewTurnStore(s.db.conn).List(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load turns: %w", err)
	}

	return &core.SessionSnapshot{
		Documents: documents,
		Chunks:    chunks,
		Turns:     turns,
	}, nil
}

// ListSessions returns the IDs of every stored session, sorted
func (s *Storage) ListSessions(ctx context.Context) ([]string, error) {
	rows, err := s.db.conn.QueryContext(ctx, "SELECT id FROM sessions ORDER BY id ASC")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
