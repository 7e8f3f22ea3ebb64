// ABOUTME: SessionStore is the optional write-through journal behind sessions
// ABOUTME: Sessions write to the store before changing memory so a failed write changes nothing
package core

import (
	"context"

	"github.com/harper/ragchat/internal/models"
)

// SessionStore persists session state so a session can be restored later
type SessionStore interface {
	// SaveDocument stores a document and its chunks, replacing any previous version
	SaveDocument(ctx context.Context, sessionID string, info models.DocumentInfo, chunks []models.Chunk) error
	// RemoveDocument deletes a document's chunks, and the session's turns when clearTurns is set
	RemoveDocument(ctx context.Context, sessionID, documentID string, clearTurns bool) error
	// AppendTurn records a turn and prunes turns older than the newest window
	AppendTurn(ctx context.Context, sessionID string, turn models.Turn, window int) error
	ClearTurns(ctx context.Context, sessionID string) error
	ClearSession(ctx context.Context, sessionID string) error
	// LoadSession returns nil when nothing is stored for sessionID
	LoadSession(ctx context.Context, sessionID string) (*SessionSnapshot, error)
	ListSessions(ctx context.Context) ([]string, error)
}

// SessionSnapshot is the stored state of one session.
// Chunks are grouped by document in Documents order, each group ordered by chunk index.
type SessionSnapshot struct {
	Documents []models.DocumentInfo
	Chunks    []models.Chunk
	Turns     []models.Turn
}
