// ABOUTME: Capability interfaces for embedding and text generation
// ABOUTME: Calls run under a timeout and failures are mapped to the unavailable error kinds
package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harper/ragchat/internal/models"
)

// DefaultCapabilityTimeout bounds a single embedding or generation call
const DefaultCapabilityTimeout = 30 * time.Second

// Embedder maps text to fixed-length vectors
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	// EmbedBatch returns one vector per input, in input order
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// Generator produces a completion for a chat transcript
type Generator interface {
	Generate(ctx context.Context, messages []models.Message) (string, error)
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// embedTexts calls the embedder and checks the result is 1:1 with texts
func embedTexts(ctx context.Context, e Embedder, timeout time.Duration, texts []string) ([][]float64, error) {
	ctx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	vectors, err := e.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, unavailable(ErrEmbeddingUnavailable, err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", ErrEmbeddingUnavailable, len(vectors), len(texts))
	}
	return vectors, nil
}

func embedText(ctx context.Context, e Embedder, timeout time.Duration, text string) ([]float64, error) {
	ctx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	vector, err := e.Embed(ctx, text)
	if err != nil {
		return nil, unavailable(ErrEmbeddingUnavailable, err)
	}
	return vector, nil
}

func generate(ctx context.Context, g Generator, timeout time.Duration, messages []models.Message) (string, error) {
	ctx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	text, err := g.Generate(ctx, messages)
	if err != nil {
		return "", unavailable(ErrGenerationUnavailable, err)
	}
	return text, nil
}

// unavailable tags err with kind unless it already carries it
func unavailable(kind, err error) error {
	if errors.Is(err, kind) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: timed out: %w", kind, err)
	}
	return fmt.Errorf("%w: %w", kind, err)
}
