// ABOUTME: Wires configuration into clients, the session journal and the orchestrator
// ABOUTME: Shared by the CLI, the HTTP server, the MCP server and the benchmark
package app

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/harper/ragchat/internal/config"
	"github.com/harper/ragchat/internal/core"
	"github.com/harper/ragchat/internal/llm"
	"github.com/harper/ragchat/internal/logging"
	"github.com/harper/ragchat/internal/storage/sqlite"
)

// DefaultSessionID is used when a caller does not name a session
const DefaultSessionID = "default"

// App holds the long-lived pieces of a running ragchat process
type App struct {
	Config       *config.Config
	Logger       *slog.Logger
	Orchestrator *core.Orchestrator
	Store        *sqlite.Storage // nil when persistence is off
}

type options struct {
	embedder  core.Embedder
	generator core.Generator
	store     *sqlite.Storage
}

// Option overrides a component New would otherwise build from config
type Option func(*options)

// WithEmbedder uses e instead of the configured embedder
func WithEmbedder(e core.Embedder) Option {
	return func(o *options) { o.embedder = e }
}

// WithGenerator uses g instead of the configured chat client
func WithGenerator(g core.Generator) Option {
	return func(o *options) { o.generator = g }
}

// WithStorage uses s as the session journal regardless of the Persist setting
func WithStorage(s *sqlite.Storage) Option {
	return func(o *options) { o.store = s }
}

// New builds an App from cfg. A nil logger discards output.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	embedder := o.embedder
	if embedder == nil {
		e, err := NewEmbedder(cfg)
		if err != nil {
			return nil, err
		}
		embedder = e
	}

	generator := o.generator
	if generator == nil {
		g, err := NewGenerator(cfg)
		if err != nil {
			return nil, err
		}
		generator = g
	}

	prompt, err := core.LoadSystemPrompt(cfg.SystemPromptFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidConfig, err)
	}

	store := o.store
	if store == nil && cfg.Persist {
		store, err = sqlite.NewStorage(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open session journal: %w", err)
		}
		logger.Debug("session journal opened", "path", cfg.DBPath)
	}

	engine := core.Config{
		RetrievalK:       cfg.RetrievalK,
		MinScore:         cfg.MinScore,
		MemoryWindow:     cfg.MemoryWindow,
		EmbedConcurrency: cfg.EmbedConcurrency,
		Timeout:          cfg.Timeout,
		SystemPrompt:     prompt,
		MaxPromptChars:   cfg.MaxPromptChars,
		MaxSessions:      cfg.MaxSessions,
		ChatModel:        cfg.ChatModel,
		EmbedderName:     cfg.EmbedderName(),
		Logger:           logger,
	}
	if store != nil {
		engine.Store = store
	}

	orch, err := core.NewOrchestrator(embedder, generator, engine)
	if err != nil {
		if store != nil && o.store == nil {
			_ = store.Close()
		}
		return nil, err
	}

	return &App{
		Config:       cfg,
		Logger:       logger,
		Orchestrator: orch,
		Store:        store,
	}, nil
}

// ChunkOptions returns the configured chunking parameters
func (a *App) ChunkOptions() core.ChunkOptions {
	return core.ChunkOptions{Size: a.Config.ChunkSize, Overlap: a.Config.ChunkOverlap}
}

// Close releases the session journal
func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

// NewEmbedder builds the embedder named by EMBEDDING_PROVIDER
func NewEmbedder(cfg *config.Config) (core.Embedder, error) {
	switch cfg.EmbeddingProvider {
	case config.ProviderHash:
		e, err := llm.NewHashEmbedder(cfg.HashEmbeddingDim)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", core.ErrInvalidConfig, err)
		}
		return e, nil
	case config.ProviderOpenAI:
		if cfg.EmbeddingAPIKey == "" && cfg.EmbeddingBaseURL == "" {
			return nil, fmt.Errorf("%w: EMBEDDING_API_KEY or OPENAI_API_KEY is required (or set EMBEDDING_PROVIDER=hash)", core.ErrInvalidConfig)
		}
		client, err := llm.NewOpenAIClientWithConfig(&llm.ClientConfig{
			APIKey:         cfg.EmbeddingAPIKey,
			BaseURL:        cfg.EmbeddingBaseURL,
			EmbeddingModel: cfg.EmbeddingModel,
			BatchSize:      cfg.EmbeddingBatchSize,
			MaxRetries:     cfg.MaxRetries,
			RetryDelay:     cfg.RetryDelay,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", core.ErrInvalidConfig, err)
		}
		return client, nil
	}
	return nil, fmt.Errorf("%w: unknown embedding provider %q", core.ErrInvalidConfig, cfg.EmbeddingProvider)
}

// NewGenerator builds the chat completion client
func NewGenerator(cfg *config.Config) (*llm.OpenAIClient, error) {
	if cfg.ChatAPIKey == "" && cfg.ChatBaseURL == "" {
		return nil, fmt.Errorf("%w: CHAT_API_KEY or OPENAI_API_KEY is required", core.ErrInvalidConfig)
	}
	client, err := llm.NewOpenAIClientWithConfig(&llm.ClientConfig{
		APIKey:      cfg.ChatAPIKey,
		BaseURL:     cfg.ChatBaseURL,
		ChatModel:   cfg.ChatModel,
		Temperature: float32(cfg.ChatTemperature),
		MaxRetries:  cfg.MaxRetries,
		RetryDelay:  cfg.RetryDelay,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidConfig, err)
	}
	return client, nil
}

// IsConfigError reports whether err came from bad configuration
func IsConfigError(err error) bool {
	return errors.Is(err, core.ErrInvalidConfig)
}
