// ABOUTME: Turn storage operations for SQLite
// ABOUTME: Keeps each session's conversation turns oldest first, pruned to the memory window
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/harper/ragchat/internal/models"
)

// TurnStore handles turn persistence
type TurnStore struct {
	q querier
}

// NewTurnStore creates a new TurnStore
func NewTurnStore(q querier) *TurnStore {
	return &TurnStore{q: q}
}

// Append saves a turn and drops all but the newest window turns of the session
func (s *TurnStore) Append(ctx context.Context, sessionID string, turn models.Turn, window int) error {
	sourcesJSON, err := json.Marshal(turn.Sources)
	if err != nil {
		return err
	}

	_, err = s.q.ExecContext(ctx, `
		INSERT INTO turns (session_id, turn_id, question, answer, sources, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, sessionID, turn.TurnID, turn.Question, turn.Answer, string(sourcesJSON), turn.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to save turn: %w", err)
	}

	if window < 1 {
		return nil
	}
	_, err = s.q.ExecContext(ctx, `
		DELETE FROM turns
		WHERE session_id = ? AND seq NOT IN (
			SELECT seq FROM turns WHERE session_id = ? ORDER BY seq DESC LIMIT ?
		)
	`, sessionID, sessionID, window)
	if err != nil {
		return fmt.Errorf("failed to prune turns: %w", err)
	}
	return nil
}

// List returns a session's turns, oldest first
func (s *TurnStore) List(ctx context.Context, sessionID string) ([]models.Turn, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT turn_id, question, answer, sources, created_at
		FROM turns
		WHERE session_id = ?
		ORDER BY seq ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var turns []models.Turn
	for rows.Next() {
		var (
			turn        models.Turn
			sourcesJSON sql.NullString
		)

		if err := rows.Scan(&turn.TurnID, &turn.Question, &turn.Answer, &sourcesJSON, &turn.Timestamp); err != nil {
			return nil, err
		}

		if sourcesJSON.Valid && sourcesJSON.String != "" {
			if err := json.Unmarshal([]byte(sourcesJSON.String), &turn.Sources); err != nil {
				turn.Sources = []string{}
			}
		}
		if turn.Sources == nil {
			turn.Sources = []string{}
		}

		turns = append(turns, turn)
	}

	return turns, rows.Err()
}

// Clear removes every turn of a session
func (s *TurnStore) Clear(ctx context.Context, sessionID string) error {
	_, err := s.q.ExecContext(ctx, "DELETE FROM turns WHERE session_id = ?", sessionID)
	return err
}
