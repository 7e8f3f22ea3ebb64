// ABOUTME: Error kinds surfaced by the conversation engine
// ABOUTME: Callers match them with errors.Is and use IsRetryable to pick a retry policy
package core

import "errors"

var (
	// ErrInvalidConfig covers bad chunking, retrieval or memory parameters and empty questions
	ErrInvalidConfig       = errors.New("invalid configuration")
	// ErrUnsupportedDocument is returned for unknown formats and documents without extractable text
	ErrUnsupportedDocument = errors.New("unsupported document")

	ErrEmbeddingUnavailable  = errors.New("embedding unavailable")
	ErrGenerationUnavailable = errors.New("generation unavailable")

	// ErrDimensionMismatch guards the index against vectors of mixed length
	ErrDimensionMismatch  = errors.New("embedding dimension mismatch")
	ErrNoDocumentsIndexed = errors.New("no documents indexed")
	ErrDocumentNotFound   = errors.New("document not found")
)

// IsRetryable reports whether err comes from an unavailable upstream capability
func IsRetryable(err error) bool {
	return errors.Is(err, ErrEmbeddingUnavailable) || errors.Is(err, ErrGenerationUnavailable)
}
