// ABOUTME: Session owns one vector index and one conversation memory
// ABOUTME: Implements index, ask, remove, clear-memory and reset with the Empty/Indexed state machine
package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/harper/ragchat/internal/models"
	"golang.org/x/sync/errgroup"
)

// Session is a single conversation over its own document index.
// Mutating operations are serialised by opMu for their whole duration; mu guards
// in-memory state and is never held while waiting on a capability.
type Session struct {
	id   string
	orch *Orchestrator

	opMu sync.Mutex
	mu   sync.RWMutex

	index     *VectorIndex
	memory    *ConversationMemory
	retriever *Retriever
	docs      map[string]models.DocumentInfo
	order     []string
}

// prepared is a document that has been chunked and embedded but not yet committed
type prepared struct {
	doc     models.Document
	chunks  []models.Chunk
	vectors [][]float64
	err     error
}

func newSession(id string, o *Orchestrator) (*Session, error) {
	memory, err := NewConversationMemory(o.config.MemoryWindow)
	if err != nil {
		return nil, err
	}
	index := NewVectorIndex()
	return &Session{
		id:        id,
		orch:      o,
		index:     index,
		memory:    memory,
		retriever: NewRetriever(o.embedder, index, o.config.Timeout, o.config.MinScore),
		docs:      make(map[string]models.DocumentInfo),
	}, nil
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// State reports Indexed when at least one document is indexed, Empty otherwise
func (s *Session) State() models.SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() models.SessionState {
	if len(s.docs) == 0 {
		return models.StateEmpty
	}
	return models.StateIndexed
}

// Index chunks, embeds and adds each document. Every document is added whole or
// not at all; failures are reported per document and never abort the others.
// Re-indexing a known document ID replaces its chunks. Only invalid options fail
// the whole batch.
func (s *Session) Index(ctx context.Context, docs []models.Document, opts ChunkOptions) (models.IndexReport, error) {
	report := models.IndexReport{ChunkSize: opts.Size, ChunkOverlap: opts.Overlap}
	if err := opts.Validate(); err != nil {
		return report, err
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	results := make([]prepared, len(docs))
	var g errgroup.Group
	g.SetLimit(s.orch.config.EmbedConcurrency)
	for i, doc := range docs {
		g.Go(func() error {
			results[i] = s.prepare(ctx, doc, opts)
			return nil
		})
	}
	_ = g.Wait()

	for _, p := range results {
		res := models.DocumentResult{DocumentID: p.doc.ID}
		err := p.err
		if err == nil {
			err = s.commit(ctx, p)
		}
		if err != nil {
			res.Err = err
			s.orch.logger.Warn("document not indexed", "session", s.id, "document", p.doc.ID, "error", err)
		} else {
			res.Chunks = len(p.chunks)
			s.orch.logger.Info("document indexed", "session", s.id, "document", p.doc.ID, "chunks", res.Chunks)
		}
		report.Add(res)
	}

	return report, nil
}

// prepare chunks and embeds a document without touching session state
func (s *Session) prepare(ctx context.Context, doc models.Document, opts ChunkOptions) prepared {
	p := prepared{doc: doc}

	if err := doc.Validate(); err != nil {
		p.err = fmt.Errorf("%w: %v", ErrUnsupportedDocument, err)
		return p
	}
	if strings.TrimSpace(doc.Text) == "" {
		p.err = fmt.Errorf("%w: %s has no extractable text", ErrUnsupportedDocument, doc.ID)
		return p
	}

	chunks, err := ChunkDocument(doc, opts)
	if err != nil {
		p.err = err
		return p
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := embedTexts(ctx, s.orch.embedder, s.orch.config.Timeout, texts)
	if err != nil {
		p.err = fmt.Errorf("failed to embed %s: %w", doc.ID, err)
		return p
	}

	for i := range chunks {
		chunks[i].Vector = vectors[i]
	}
	p.chunks = chunks
	p.vectors = vectors
	return p
}

// commit journals a prepared document and then swaps it into the index
func (s *Session) commit(ctx context.Context, p prepared) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.CheckReplace(p.doc.ID, p.vectors); err != nil {
		return err
	}

	info := models.DocumentInfo{
		ID:        p.doc.ID,
		Format:    p.doc.Format,
		Source:    p.doc.Source,
		Chunks:    len(p.chunks),
		IndexedAt: time.Now().UTC(),
	}

	if store := s.orch.config.Store; store != nil {
		if err := store.SaveDocument(ctx, s.id, info, p.chunks); err != nil {
			return fmt.Errorf("failed to save document %s: %w", p.doc.ID, err)
		}
	}

	if err := s.index.Replace(p.doc.ID, p.chunks, p.vectors); err != nil {
		return err
	}
	if _, exists := s.docs[p.doc.ID]; !exists {
		s.order = append(s.order, p.doc.ID)
	}
	s.docs[p.doc.ID] = info
	return nil
}

// Ask answers question from the indexed documents and records the turn.
// An Empty session fails with ErrNoDocumentsIndexed. A failed ask records nothing.
func (s *Session) Ask(ctx context.Context, question string) (models.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return models.Answer{}, fmt.Errorf("%w: question cannot be empty", ErrInvalidConfig)
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	if s.State() == models.StateEmpty {
		return models.Answer{}, ErrNoDocumentsIndexed
	}

	retrieved, err := s.retriever.Retrieve(ctx, question, s.orch.config.RetrievalK)
	if err != nil {
		return models.Answer{}, fmt.Errorf("retrieval failed: %w", err)
	}

	text, sources, err := s.orch.synthesizer.Synthesize(ctx, question, retrieved, s.memory.Recent())
	if err != nil {
		return models.Answer{}, fmt.Errorf("answer synthesis failed: %w", err)
	}

	answer := models.Answer{Text: text, Sources: sources}
	turn, err := models.NewTurn(question, text, answer.SourceIDs())
	if err != nil {
		return models.Answer{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if store := s.orch.config.Store; store != nil {
		if err := store.AppendTurn(ctx, s.id, *turn, s.memory.Window()); err != nil {
			return models.Answer{}, fmt.Errorf("failed to save turn: %w", err)
		}
	}
	s.memory.Append(*turn)
	answer.History = s.memory.Recent()

	s.orch.logger.Info("question answered", "session", s.id, "retrieved", len(retrieved), "sources", len(sources))
	answer.Turn = *turn
	return answer, nil
}

// RemoveDocument drops every chunk of a document. Removing the last document
// returns the session to Empty and clears its memory.
func (s *Session) RemoveDocument(ctx context.Context, documentID string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[documentID]; !ok {
		return fmt.Errorf("%w: %s", ErrDocumentNotFound, documentID)
	}
	last := len(s.docs) == 1

	if store := s.orch.config.Store; store != nil {
		if err := store.RemoveDocument(ctx, s.id, documentID, last); err != nil {
			return fmt.Errorf("failed to remove document %s: %w", documentID, err)
		}
	}

	removed := s.index.RemoveByDocument(documentID)
	delete(s.docs, documentID)
	for i, id := range s.order {
		if id == documentID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if last {
		s.memory.Clear()
	}

	s.orch.logger.Info("document removed", "session", s.id, "document", documentID, "chunks", removed, "state", s.stateLocked())
	return nil
}

// ClearMemory forgets the conversation and leaves the index untouched
func (s *Session) ClearMemory(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if store := s.orch.config.Store; store != nil {
		if err := store.ClearTurns(ctx, s.id); err != nil {
			return fmt.Errorf("failed to clear turns: %w", err)
		}
	}
	s.memory.Clear()
	return nil
}

// Reset clears the index and the memory, returning the session to Empty
func (s *Session) Reset(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if store := s.orch.config.Store; store != nil {
		if err := store.ClearSession(ctx, s.id); err != nil {
			return fmt.Errorf("failed to clear session: %w", err)
		}
	}
	s.index.Clear()
	s.memory.Clear()
	s.docs = make(map[string]models.DocumentInfo)
	s.order = nil

	s.orch.logger.Info("session reset", "session", s.id)
	return nil
}

// Documents lists indexed documents in the order they were first indexed
func (s *Session) Documents() []models.DocumentInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]models.DocumentInfo, 0, len(s.order))
	for _, id := range s.order {
		docs = append(docs, s.docs[id])
	}
	return docs
}

// Memory returns the remembered turns, oldest first
func (s *Session) Memory() []models.Turn {
	return s.memory.Recent()
}

// Stats returns a snapshot of the session
func (s *Session) Stats() models.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return models.Stats{
		SessionID:    s.id,
		State:        s.stateLocked(),
		Documents:    len(s.docs),
		Chunks:       s.index.Len(),
		Dimension:    s.index.Dimension(),
		Turns:        s.memory.Len(),
		MemoryWindow: s.memory.Window(),
		RetrievalK:   s.orch.config.RetrievalK,
		ChatModel:    s.orch.config.ChatModel,
		Embedder:     s.orch.config.EmbedderName,
		PromptLength: runeLen(s.orch.synthesizer.SystemPrompt()),
	}
}

// restore loads journaled state into a fresh session
func (s *Session) restore(snapshot *SessionSnapshot) error {
	byDoc := make(map[string][]models.Chunk)
	for _, c := range snapshot.Chunks {
		byDoc[c.DocumentID] = append(byDoc[c.DocumentID], c)
	}

	for _, info := range snapshot.Documents {
		chunks := byDoc[info.ID]
		vectors := make([][]float64, len(chunks))
		for i, c := range chunks {
			vectors[i] = c.Vector
		}
		if err := s.index.AddBatch(chunks, vectors); err != nil {
			return fmt.Errorf("document %s: %w", info.ID, err)
		}
		s.docs[info.ID] = info
		s.order = append(s.order, info.ID)
	}

	for _, turn := range snapshot.Turns {
		s.memory.Append(turn)
	}
	return nil
}
