// ABOUTME: Orchestrator owns the capabilities, settings and registry of independent sessions
// ABOUTME: Sessions are created on first use and restored from the journal when one is configured
package core

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultEmbedConcurrency is the number of documents embedded at once during a batch index
const DefaultEmbedConcurrency = 4

// DefaultMaxSessions bounds the number of sessions held in memory
const DefaultMaxSessions = 256

// Config holds engine settings shared by every session
type Config struct {
	RetrievalK       int
	MinScore         float64
	MemoryWindow     int
	EmbedConcurrency int
	Timeout          time.Duration
	SystemPrompt     string
	MaxPromptChars   int

	// MaxSessions caps live sessions; the least recently used one is
	// dropped from memory to make room. 0 means no limit.
	MaxSessions int

	// ChatModel and EmbedderName are reported in stats
	ChatModel    string
	EmbedderName string

	Store  SessionStore // optional
	Logger *slog.Logger // optional
}

// DefaultConfig returns the standard engine settings
func DefaultConfig() Config {
	return Config{
		RetrievalK:       DefaultRetrievalK,
		MemoryWindow:     DefaultMemoryWindow,
		EmbedConcurrency: DefaultEmbedConcurrency,
		Timeout:          DefaultCapabilityTimeout,
		SystemPrompt:     DefaultSystemPrompt,
		MaxPromptChars:   DefaultMaxPromptChars,
		MaxSessions:      DefaultMaxSessions,
	}
}

// Validate checks the numeric settings
func (c Config) Validate() error {
	if c.RetrievalK < 1 {
		return fmt.Errorf("%w: retrieval k must be at least 1, got %d", ErrInvalidConfig, c.RetrievalK)
	}
	if c.MemoryWindow < 1 {
		return fmt.Errorf("%w: memory window must be at least 1, got %d", ErrInvalidConfig, c.MemoryWindow)
	}
	if c.EmbedConcurrency < 1 {
		return fmt.Errorf("%w: embed concurrency must be at least 1, got %d", ErrInvalidConfig, c.EmbedConcurrency)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: capability timeout cannot be negative", ErrInvalidConfig)
	}
	if c.MaxPromptChars < 0 {
		return fmt.Errorf("%w: max prompt chars cannot be negative", ErrInvalidConfig)
	}
	if c.MaxSessions < 0 {
		return fmt.Errorf("%w: max sessions cannot be negative", ErrInvalidConfig)
	}
	if c.MinScore < -1 || c.MinScore > 1 {
		return fmt.Errorf("%w: min score must be between -1 and 1, got %g", ErrInvalidConfig, c.MinScore)
	}
	return nil
}

// Orchestrator manages sessions over a shared embedder and generator
type Orchestrator struct {
	embedder    Embedder
	synthesizer *Synthesizer
	config      Config
	logger      *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
	lastUse  map[string]uint64
	clock    uint64
}

// NewOrchestrator creates an Orchestrator
func NewOrchestrator(embedder Embedder, generator Generator, cfg Config) (*Orchestrator, error) {
	if embedder == nil || generator == nil {
		return nil, fmt.Errorf("%w: embedder and generator are required", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	synthesizer := NewSynthesizer(generator, SynthesizerConfig{
		SystemPrompt:   cfg.SystemPrompt,
		MaxPromptChars: cfg.MaxPromptChars,
		Timeout:        cfg.Timeout,
	})

	return &Orchestrator{
		embedder:    embedder,
		synthesizer: synthesizer,
		config:      cfg,
		logger:      logger,
		sessions:    make(map[string]*Session),
		lastUse:     make(map[string]uint64),
	}, nil
}

// Config returns the engine settings
func (o *Orchestrator) Config() Config {
	return o.config
}

// Session returns the session with id, creating it (or restoring it from the journal) on first use.
// The journal is read without holding the registry lock.
func (o *Orchestrator) Session(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: session ID cannot be empty", ErrInvalidConfig)
	}

	o.mu.Lock()
	if s, ok := o.sessions[id]; ok {
		o.touchLocked(id)
		o.mu.Unlock()
		return s, nil
	}
	o.mu.Unlock()

	s, err := newSession(id, o)
	if err != nil {
		return nil, err
	}

	if o.config.Store != nil {
		snapshot, err := o.config.Store.LoadSession(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load session %s: %w", id, err)
		}
		if snapshot != nil {
			if err := s.restore(snapshot); err != nil {
				return nil, fmt.Errorf("failed to restore session %s: %w", id, err)
			}
			o.logger.Info("session restored", "session", id, "documents", len(snapshot.Documents), "turns", len(snapshot.Turns))
		}
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	// Another caller may have registered the same session meanwhile.
	if existing, ok := o.sessions[id]; ok {
		o.touchLocked(id)
		return existing, nil
	}
	o.evictLocked()
	o.sessions[id] = s
	o.touchLocked(id)
	return s, nil
}

func (o *Orchestrator) touchLocked(id string) {
	o.clock++
	o.lastUse[id] = o.clock
}

// evictLocked drops least recently used sessions until one more fits
func (o *Orchestrator) evictLocked() {
	if o.config.MaxSessions <= 0 {
		return
	}
	for len(o.sessions) >= o.config.MaxSessions {
		oldest := ""
		for id := range o.sessions {
			if oldest == "" || o.lastUse[id] < o.lastUse[oldest] {
				oldest = id
			}
		}
		delete(o.sessions, oldest)
		delete(o.lastUse, oldest)
		o.logger.Info("session evicted", "session", oldest, "journaled", o.config.Store != nil)
	}
}

// NewSession creates a session with a random ID
func (o *Orchestrator) NewSession(ctx context.Context) (*Session, error) {
	return o.Session(ctx, uuid.NewString())
}

// Close drops a session from memory. Its journal, if any, is kept.
func (o *Orchestrator) Close(id string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, ok := o.sessions[id]; !ok {
		return false
	}
	delete(o.sessions, id)
	delete(o.lastUse, id)
	return true
}

// Sessions lists live and journaled session IDs, sorted
func (o *Orchestrator) Sessions(ctx context.Context) ([]string, error) {
	o.mu.Lock()
	ids := make([]string, 0, len(o.sessions))
	for id := range o.sessions {
		ids = append(ids, id)
	}
	o.mu.Unlock()

	if o.config.Store != nil {
		stored, err := o.config.Store.ListSessions(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list sessions: %w", err)
		}
		ids = append(ids, stored...)
	}

	slices.Sort(ids)
	return slices.Compact(ids), nil
}
