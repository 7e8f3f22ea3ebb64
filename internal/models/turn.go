// ABOUTME: Turn represents a single question/answer exchange in a session
// ABOUTME: Turns record the chunk identifiers their answer was grounded on
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Turn represents a single conversation turn
type Turn struct {
	TurnID    string    `json:"turn_id" yaml:"turn_id"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Question  string    `json:"question" yaml:"question"`
	Answer    string    `json:"answer" yaml:"answer"`
	Sources   []string  `json:"sources" yaml:"sources,omitempty"`
}

// NewTurn creates a new Turn with validation
func NewTurn(question, answer string, sources []string) (*Turn, error) {
	if strings.TrimSpace(question) == "" {
		return nil, errors.New("question cannot be empty")
	}
	if sources == nil {
		sources = []string{}
	}
	return &Turn{
		TurnID:    generateTurnID(),
		Timestamp: time.Now().UTC(),
		Question:  question,
		Answer:    answer,
		Sources:   sources,
	}, nil
}

// generateTurnID generates a unique turn identifier
func generateTurnID() string {
	return fmt.Sprintf("turn_%s_%s", time.Now().Format("20060102_150405"), uuid.New().String()[:8])
}
