// ABOUTME: OpenAI-compatible client for embeddings and chat completions
// ABOUTME: Works against any endpoint speaking the OpenAI API via BaseURL, with bounded retries
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/harper/ragchat/internal/models"
	"github.com/harper/ragchat/internal/util"
	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultChatModel is the default model for chat completions
	DefaultChatModel = "gpt-4o-mini"
	// DefaultEmbeddingModel is the default model for embeddings
	DefaultEmbeddingModel = string(openai.SmallEmbedding3)
	// DefaultBatchSize is the number of texts sent per embeddings request
	DefaultBatchSize = 64
)

// ClientConfig holds configuration for the OpenAI client
type ClientConfig struct {
	APIKey         string
	BaseURL        string // empty means api.openai.com
	ChatModel      string
	EmbeddingModel string
	Temperature    float32
	BatchSize      int
	MaxRetries     int
	RetryDelay     time.Duration
}

// DefaultConfig returns the default client configuration
func DefaultConfig(apiKey string) *ClientConfig {
	return &ClientConfig{
		APIKey:         apiKey,
		ChatModel:      DefaultChatModel,
		EmbeddingModel: DefaultEmbeddingModel,
		Temperature:    0.2,
		BatchSize:      DefaultBatchSize,
		MaxRetries:     3,
		RetryDelay:     time.Second * 2,
	}
}

// OpenAIClient wraps the OpenAI API client with retry logic.
// It serves as both the embedder and the generator of the engine.
type OpenAIClient struct {
	client         *openai.Client
	chatModel      string
	embeddingModel openai.EmbeddingModel
	temperature    float32
	batchSize      int
	maxRetries     int
	retryDelay     time.Duration
}

// NewOpenAIClient creates a new OpenAI client with the given API key using default configuration
func NewOpenAIClient(apiKey string) (*OpenAIClient, error) {
	return NewOpenAIClientWithConfig(DefaultConfig(apiKey))
}

// NewOpenAIClientWithConfig creates a new OpenAI client with custom configuration.
// An API key is required unless a custom BaseURL points at a local server.
func NewOpenAIClientWithConfig(config *ClientConfig) (*OpenAIClient, error) {
	if config.APIKey == "" && config.BaseURL == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	cfg := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		cfg.BaseURL = config.BaseURL
	}

	batchSize := config.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &OpenAIClient{
		client:         openai.NewClientWithConfig(cfg),
		chatModel:      config.ChatModel,
		embeddingModel: openai.EmbeddingModel(config.EmbeddingModel),
		temperature:    config.Temperature,
		batchSize:      batchSize,
		maxRetries:     max(config.MaxRetries, 0),
		retryDelay:     config.RetryDelay,
	}, nil
}

// ChatModel returns the chat completion model name
func (c *OpenAIClient) ChatModel() string {
	return c.chatModel
}

// EmbeddingModel returns the embeddings model name
func (c *OpenAIClient) EmbeddingModel() string {
	return string(c.embeddingModel)
}

// Embed generates an embedding vector for a single text
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float64, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for texts, in input order, sending at most
// BatchSize texts per request
func (c *OpenAIClient) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	vectors := make([][]float64, 0, len(texts))

	for start := 0; start < len(texts); start += c.batchSize {
		batch := texts[start:min(start+c.batchSize, len(texts))]

		var resp openai.EmbeddingResponse
		err := util.Do(ctx, c.maxRetries, c.retryDelay, isRetryable, func(ctx context.Context) error {
			var err error
			resp, err = c.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
				Input: batch,
				Model: c.embeddingModel,
			})
			if err != nil {
				return err
			}
			if len(resp.Data) != len(batch) {
				return fmt.Errorf("got %d embeddings for %d inputs", len(resp.Data), len(batch))
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to generate embeddings: %w", err)
		}

		// Data carries its input index; do not rely on response order.
		ordered := make([][]float64, len(batch))
		for _, d := range resp.Data {
			if d.Index < 0 || d.Index >= len(batch) || ordered[d.Index] != nil {
				return nil, fmt.Errorf("failed to generate embeddings: bad index %d in response", d.Index)
			}
			ordered[d.Index] = toFloat64(d.Embedding)
		}
		vectors = append(vectors, ordered...)
	}

	return vectors, nil
}

// Generate returns the assistant reply to a chat transcript
func (c *OpenAIClient) Generate(ctx context.Context, messages []models.Message) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.chatModel,
		Messages:    make([]openai.ChatCompletionMessage, len(messages)),
		Temperature: c.temperature,
	}
	for i, m := range messages {
		req.Messages[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	var content string
	err := util.Do(ctx, c.maxRetries, c.retryDelay, isRetryable, func(ctx context.Context) error {
		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return errors.New("no completion choices returned")
		}
		content = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate completion: %w", err)
	}
	return content, nil
}

// isRetryable treats rate limits, server errors and transport failures as transient
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return retryableStatus(reqErr.HTTPStatusCode)
	}
	return true
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError || code == 0
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
