// ABOUTME: Centralized configuration for the ragchat engine and its front ends
// ABOUTME: Loads defaults, then an optional YAML file, then environment variables, then validates
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is read when RAGCHAT_CONFIG is not set; it is optional
const DefaultConfigFile = "ragchat.yaml"

const (
	ProviderOpenAI = "openai"
	ProviderHash   = "hash"
)

// Config holds all configuration for ragchat
type Config struct {
	// Chat completion settings (any OpenAI-compatible endpoint)
	ChatBaseURL     string  `yaml:"chat_base_url"`
	ChatAPIKey      string  `yaml:"chat_api_key"`
	ChatModel       string  `yaml:"chat_model"`
	ChatTemperature float64 `yaml:"chat_temperature"`

	// Embedding settings
	EmbeddingProvider  string `yaml:"embedding_provider"`
	EmbeddingBaseURL   string `yaml:"embedding_base_url"`
	EmbeddingAPIKey    string `yaml:"embedding_api_key"`
	EmbeddingModel     string `yaml:"embedding_model"`
	EmbeddingBatchSize int    `yaml:"embedding_batch_size"`
	HashEmbeddingDim   int    `yaml:"hash_embedding_dim"`

	// Capability call settings
	Timeout    time.Duration `yaml:"capability_timeout"`
	MaxRetries int           `yaml:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`

	// Engine settings
	ChunkSize        int     `yaml:"chunk_size"`
	ChunkOverlap     int     `yaml:"chunk_overlap"`
	RetrievalK       int     `yaml:"retrieval_k"`
	MinScore         float64 `yaml:"retrieval_min_score"`
	MemoryWindow     int     `yaml:"memory_window"`
	MaxPromptChars   int     `yaml:"max_prompt_chars"`
	EmbedConcurrency int     `yaml:"embed_concurrency"`
	MaxSessions      int     `yaml:"max_sessions"`
	SystemPromptFile string  `yaml:"system_prompt_file"`

	// Session journal
	DBPath  string `yaml:"db_path"`
	Persist bool   `yaml:"persist"`

	// Front ends
	HTTPAddr       string `yaml:"http_addr"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
	WatchDir       string `yaml:"watch_dir"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Defaults returns the configuration used when nothing is set
func Defaults() *Config {
	return &Config{
		ChatModel:          "gpt-4o-mini",
		ChatTemperature:    0.2,
		EmbeddingProvider:  ProviderOpenAI,
		EmbeddingModel:     "text-embedding-3-small",
		EmbeddingBatchSize: 64,
		HashEmbeddingDim:   512,
		Timeout:            30 * time.Second,
		MaxRetries:         3,
		RetryDelay:         2 * time.Second,
		ChunkSize:          1200,
		ChunkOverlap:       150,
		RetrievalK:         4,
		MemoryWindow:       5,
		MaxPromptChars:     12000,
		EmbedConcurrency:   4,
		MaxSessions:        256,
		DBPath:             filepath.Join(xdg.DataHome, "ragchat", "ragchat.db"),
		Persist:            true,
		HTTPAddr:           ":8000",
		MaxUploadBytes:     50 << 20,
		LogLevel:           "info",
		LogFormat:          "text",
	}
}

// Load reads configuration from the YAML file and environment variables
func Load() (*Config, error) {
	cfg := Defaults()

	path := os.Getenv("RAGCHAT_CONFIG")
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}
	if err := cfg.LoadFile(path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg.applyEnv()
	return cfg, cfg.Validate()
}

// LoadFile overlays the YAML file at path onto cfg
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.ChatBaseURL = getEnv("CHAT_BASE_URL", c.ChatBaseURL)
	c.ChatAPIKey = getEnv("CHAT_API_KEY", getEnv("OPENAI_API_KEY", c.ChatAPIKey))
	c.ChatModel = getEnv("CHAT_MODEL", c.ChatModel)
	c.ChatTemperature = getEnvFloat("CHAT_TEMPERATURE", c.ChatTemperature)

	c.EmbeddingProvider = getEnv("EMBEDDING_PROVIDER", c.EmbeddingProvider)
	c.EmbeddingBaseURL = getEnv("EMBEDDING_BASE_URL", c.EmbeddingBaseURL)
	c.EmbeddingAPIKey = getEnv("EMBEDDING_API_KEY", getEnv("OPENAI_API_KEY", c.EmbeddingAPIKey))
	c.EmbeddingModel = getEnv("EMBEDDING_MODEL", c.EmbeddingModel)
	c.EmbeddingBatchSize = getEnvInt("EMBEDDING_BATCH_SIZE", c.EmbeddingBatchSize)
	c.HashEmbeddingDim = getEnvInt("HASH_EMBEDDING_DIM", c.HashEmbeddingDim)

	c.Timeout = getEnvDuration("CAPABILITY_TIMEOUT", c.Timeout)
	c.MaxRetries = getEnvInt("OPENAI_MAX_RETRIES", c.MaxRetries)
	c.RetryDelay = getEnvDuration("OPENAI_RETRY_DELAY", c.RetryDelay)

	c.ChunkSize = getEnvInt("CHUNK_SIZE", c.ChunkSize)
	c.ChunkOverlap = getEnvInt("CHUNK_OVERLAP", c.ChunkOverlap)
	c.RetrievalK = getEnvInt("RETRIEVAL_K", c.RetrievalK)
	c.MinScore = getEnvFloat("RETRIEVAL_MIN_SCORE", c.MinScore)
	c.MemoryWindow = getEnvInt("MEMORY_WINDOW", c.MemoryWindow)
	c.MaxPromptChars = getEnvInt("MAX_PROMPT_CHARS", c.MaxPromptChars)
	c.EmbedConcurrency = getEnvInt("EMBED_CONCURRENCY", c.EmbedConcurrency)
	c.MaxSessions = getEnvInt("MAX_SESSIONS", c.MaxSessions)
	c.SystemPromptFile = getEnv("SYSTEM_PROMPT_FILE", c.SystemPromptFile)

	c.DBPath = getEnv("RAGCHAT_DB", c.DBPath)
	c.Persist = getEnvBool("RAGCHAT_PERSIST", c.Persist)

	c.HTTPAddr = getEnv("HTTP_ADDR", c.HTTPAddr)
	c.MaxUploadBytes = int64(getEnvInt("MAX_UPLOAD_BYTES", int(c.MaxUploadBytes)))
	c.WatchDir = getEnv("WATCH_DIR", c.WatchDir)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
}

// Validate checks ranges and enumerations. API keys are checked when clients are built.
func (c *Config) Validate() error {
	if c.EmbeddingProvider != ProviderOpenAI && c.EmbeddingProvider != ProviderHash {
		return fmt.Errorf("EMBEDDING_PROVIDER must be %q or %q, got %q", ProviderOpenAI, ProviderHash, c.EmbeddingProvider)
	}
	if c.ChatTemperature < 0 || c.ChatTemperature > 2 {
		return fmt.Errorf("CHAT_TEMPERATURE must be 0-2, got %g", c.ChatTemperature)
	}
	if c.EmbeddingBatchSize <= 0 {
		return fmt.Errorf("EMBEDDING_BATCH_SIZE must be positive, got %d", c.EmbeddingBatchSize)
	}
	if c.HashEmbeddingDim <= 0 {
		return fmt.Errorf("HASH_EMBEDDING_DIM must be positive, got %d", c.HashEmbeddingDim)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("CAPABILITY_TIMEOUT must be positive, got %v", c.Timeout)
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("OPENAI_MAX_RETRIES must be 0-10, got %d", c.MaxRetries)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP must be 0 to CHUNK_SIZE-1, got %d", c.ChunkOverlap)
	}
	if c.RetrievalK < 1 {
		return fmt.Errorf("RETRIEVAL_K must be at least 1, got %d", c.RetrievalK)
	}
	if c.MinScore < -1 || c.MinScore > 1 {
		return fmt.Errorf("RETRIEVAL_MIN_SCORE must be -1 to 1, got %g", c.MinScore)
	}
	if c.MemoryWindow < 1 {
		return fmt.Errorf("MEMORY_WINDOW must be at least 1, got %d", c.MemoryWindow)
	}
	if c.MaxPromptChars < 0 {
		return fmt.Errorf("MAX_PROMPT_CHARS cannot be negative, got %d", c.MaxPromptChars)
	}
	if c.EmbedConcurrency < 1 {
		return fmt.Errorf("EMBED_CONCURRENCY must be at least 1, got %d", c.EmbedConcurrency)
	}
	if c.MaxSessions < 0 {
		return fmt.Errorf("MAX_SESSIONS cannot be negative, got %d", c.MaxSessions)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got %q", c.LogLevel)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// EmbedderName describes the configured embedder for stats output
func (c *Config) EmbedderName() string {
	if c.EmbeddingProvider == ProviderHash {
		return fmt.Sprintf("hash-%d", c.HashEmbeddingDim)
	}
	return c.EmbeddingModel
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v == "true" || v == "1"
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
