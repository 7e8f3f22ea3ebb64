// ABOUTME: Maps engine error kinds onto HTTP status codes
// ABOUTME: Error bodies carry the message and whether retrying may help
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/harper/ragchat/internal/core"
)

// statusFor picks the HTTP status for an engine error
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrInvalidConfig):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrUnsupportedDocument):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, core.ErrDocumentNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrNoDocumentsIndexed), errors.Is(err, core.ErrDimensionMismatch):
		return http.StatusConflict
	case errors.Is(err, core.ErrEmbeddingUnavailable), errors.Is(err, core.ErrGenerationUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeError reports an engine error with its mapped status
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]any{
		"error":     err.Error(),
		"retryable": core.IsRetryable(err),
	})
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]any{
		"error":     msg,
		"retryable": false,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
