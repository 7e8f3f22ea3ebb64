// ABOUTME: Test doubles for the embedding and generation capabilities
// ABOUTME: letterEmbedder gives deterministic vectors so similarity ordering is predictable
package core

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/harper/ragchat/internal/models"
)

// letterEmbedder maps text to letter frequencies, which is enough to make
// texts sharing words score higher than unrelated ones
type letterEmbedder struct {
	mu       sync.Mutex
	calls    int
	failWhen func(text string) bool
}

func (e *letterEmbedder) vector(text string) []float64 {
	v := make([]float64, 26)
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			v[r-'a']++
		}
	}
	return v
}

func (e *letterEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	vs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vs[0], nil
}

func (e *letterEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([][]float64, len(texts))
	for i, t := range texts {
		if e.failWhen != nil && e.failWhen(t) {
			return nil, errors.New("upstream returned 503")
		}
		out[i] = e.vector(t)
	}
	return out, nil
}

func (e *letterEmbedder) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// scriptedGenerator returns a fixed reply and records every transcript it receives
type scriptedGenerator struct {
	mu       sync.Mutex
	reply    string
	err      error
	block    bool
	requests [][]models.Message
}

func (g *scriptedGenerator) Generate(ctx context.Context, messages []models.Message) (string, error) {
	g.mu.Lock()
	g.requests = append(g.requests, messages)
	reply, err, block := g.reply, g.err, g.block
	g.mu.Unlock()

	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return reply, err
}

func (g *scriptedGenerator) Requests() [][]models.Message {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.requests
}

// memoryStore is an in-memory SessionStore that can be told to fail
type memoryStore struct {
	mu       sync.Mutex
	fail     error
	sessions map[string]*SessionSnapshot
}

func newMemoryStore() *memoryStore {
	return &memoryStore{sessions: make(map[string]*SessionSnapshot)}
}

func (m *memoryStore) get(id string) *SessionSnapshot {
	s, ok := m.sessions[id]
	if !ok {
		s = &SessionSnapshot{}
		m.sessions[id] = s
	}
	return s
}

func (m *memoryStore) SaveDocument(_ context.Context, sessionID string, info models.DocumentInfo, chunks []models.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	s := m.get(sessionID)
	s.Chunks = dropChunks(s.Chunks, info.ID)
	s.Chunks = append(s.Chunks, chunks...)
	for i, d := range s.Documents {
		if d.ID == info.ID {
			s.Documents[i] = info
			return nil
		}
	}
	s.Documents = append(s.Documents, info)
	return nil
}

func (m *memoryStore) RemoveDocument(_ context.Context, sessionID, documentID string, clearTurns bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	s := m.get(sessionID)
	s.Chunks = dropChunks(s.Chunks, documentID)
	docs := s.Documents[:0]
	for _, d := range s.Documents {
		if d.ID != documentID {
			docs = append(docs, d)
		}
	}
	s.Documents = docs
	if clearTurns {
		s.Turns = nil
	}
	return nil
}

func (m *memoryStore) AppendTurn(_ context.Context, sessionID string, turn models.Turn, window int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	s := m.get(sessionID)
	s.Turns = append(s.Turns, turn)
	if len(s.Turns) > window {
		s.Turns = s.Turns[len(s.Turns)-window:]
	}
	return nil
}

func (m *memoryStore) ClearTurns(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.get(sessionID).Turns = nil
	return nil
}

func (m *memoryStore) ClearSession(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	delete(m.sessions, sessionID)
	return nil
}

func (m *memoryStore) LoadSession(_ context.Context, sessionID string) (*SessionSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *memoryStore) ListSessions(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *memoryStore) setFail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}

func dropChunks(chunks []models.Chunk, documentID string) []models.Chunk {
	var kept []models.Chunk
	for _, c := range chunks {
		if c.DocumentID != documentID {
			kept = append(kept, c)
		}
	}
	return kept
}
