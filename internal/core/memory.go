// ABOUTME: ConversationMemory keeps the most recent question/answer turns of a session
// ABOUTME: It is a fixed-size sliding window that evicts the oldest turn first
package core

import (
	"fmt"
	"slices"
	"sync"

	"github.com/harper/ragchat/internal/models"
)

// DefaultMemoryWindow is the number of turns kept when no window is configured
const DefaultMemoryWindow = 5

// ConversationMemory is a bounded FIFO of turns
type ConversationMemory struct {
	mu     sync.RWMutex
	window int
	turns  []models.Turn
}

// NewConversationMemory creates a memory holding at most window turns
func NewConversationMemory(window int) (*ConversationMemory, error) {
	if window < 1 {
		return nil, fmt.Errorf("%w: memory window must be at least 1, got %d", ErrInvalidConfig, window)
	}
	return &ConversationMemory{window: window}, nil
}

// Append adds a turn, evicting the oldest turns beyond the window
func (m *ConversationMemory) Append(turn models.Turn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.turns = append(m.turns, turn)
	if over := len(m.turns) - m.window; over > 0 {
		m.turns = slices.Delete(m.turns, 0, over)
	}
}

// Recent returns the remembered turns from oldest to newest
func (m *ConversationMemory) Recent() []models.Turn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	turns := make([]models.Turn, len(m.turns))
	copy(turns, m.turns)
	return turns
}

// Clear forgets every turn
func (m *ConversationMemory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = nil
}

// Len returns the number of remembered turns
func (m *ConversationMemory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.turns)
}

// Window returns the configured window size
func (m *ConversationMemory) Window() int {
	return m.window
}
