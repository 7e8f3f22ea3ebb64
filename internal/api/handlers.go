// ABOUTME: HTTP handlers for indexing, asking and session management
// ABOUTME: Each handler resolves the request's session and translates engine errors to status codes
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/harper/ragchat/internal/core"
	"github.com/harper/ragchat/internal/loader"
	"github.com/harper/ragchat/internal/models"
)

type documentResult struct {
	DocumentID string `json:"document_id"`
	Chunks     int    `json:"chunks"`
	Error      string `json:"error,omitempty"`
	Retryable  bool   `json:"retryable,omitempty"`
}

type indexResponse struct {
	Status        string           `json:"status"`
	SessionID     string           `json:"session_id"`
	Documents     []documentResult `json:"documents"`
	ChunksIndexed int              `json:"chunks_indexed"`
	ChunkSize     int              `json:"chunk_size"`
	ChunkOverlap  int              `json:"chunk_overlap"`
}

func resultFor(res models.DocumentResult) documentResult {
	out := documentResult{DocumentID: res.DocumentID, Chunks: res.Chunks}
	if res.Err != nil {
		out.Chunks = 0
		out.Error = res.Err.Error()
		out.Retryable = core.IsRetryable(res.Err)
	}
	return out
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.app.Config.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, fmt.Sprintf("upload exceeds max size (%d bytes)", s.app.Config.MaxUploadBytes), http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	files := append(r.MultipartForm.File["files"], r.MultipartForm.File["file"]...)
	if len(files) == 0 {
		jsonError(w, "no files provided", http.StatusBadRequest)
		return
	}

	opts, err := s.chunkOptions(r.FormValue("chunk_size"), r.FormValue("chunk_overlap"))
	if err != nil {
		writeError(w, err)
		return
	}

	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	// results keeps upload order; load failures never reach the engine
	results := make([]documentResult, len(files))
	var (
		docs      []models.Document
		positions []int
	)
	for i, fh := range files {
		name := sanitizeFilename(fh.Filename)
		doc, err := loadUpload(name, fh)
		if err != nil {
			results[i] = resultFor(models.DocumentResult{DocumentID: name, Err: err})
			continue
		}
		docs = append(docs, doc)
		positions = append(positions, i)
	}

	report, err := sess.Index(r.Context(), docs, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	for j, res := range report.Results {
		results[positions[j]] = resultFor(res)
	}

	resp := indexResponse{
		SessionID:     sess.ID(),
		Documents:     results,
		ChunksIndexed: report.TotalChunks(),
		ChunkSize:     opts.Size,
		ChunkOverlap:  opts.Overlap,
	}

	failed, retryable := 0, 0
	for _, res := range results {
		if res.Error != "" {
			failed++
			if res.Retryable {
				retryable++
			}
		}
	}

	code := http.StatusOK
	switch {
	case failed == 0:
		resp.Status = "success"
	case failed < len(results):
		resp.Status = "partial"
	default:
		resp.Status = "failed"
		code = http.StatusUnprocessableEntity
		if retryable == failed {
			code = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, code, resp)
}

func loadUpload(name string, fh *multipart.FileHeader) (models.Document, error) {
	f, err := fh.Open()
	if err != nil {
		return models.Document{}, fmt.Errorf("%w: failed to open upload: %v", core.ErrUnsupportedDocument, err)
	}
	defer func() { _ = f.Close() }()
	return loader.Load(name, f)
}

// reindexRequest holds the raw form or JSON fields
type reindexRequest struct {
	FilePath     string
	ChunkSize    string
	ChunkOverlap string
}

func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	var req reindexRequest
	if isJSON(r) {
		var body struct {
			FilePath     string `json:"file_path"`
			ChunkSize    *int   `json:"chunk_size"`
			ChunkOverlap *int   `json:"chunk_overlap"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
			return
		}
		req.FilePath = body.FilePath
		if body.ChunkSize != nil {
			req.ChunkSize = strconv.Itoa(*body.ChunkSize)
		}
		if body.ChunkOverlap != nil {
			req.ChunkOverlap = strconv.Itoa(*body.ChunkOverlap)
		}
	} else {
		req.FilePath = r.FormValue("file_path")
		req.ChunkSize = r.FormValue("chunk_size")
		req.ChunkOverlap = r.FormValue("chunk_overlap")
	}

	if strings.TrimSpace(req.FilePath) == "" {
		jsonError(w, "file_path is required", http.StatusBadRequest)
		return
	}
	if _, err := os.Stat(req.FilePath); err != nil {
		jsonError(w, "file not found: "+req.FilePath, http.StatusNotFound)
		return
	}

	opts, err := s.chunkOptions(req.ChunkSize, req.ChunkOverlap)
	if err != nil {
		writeError(w, err)
		return
	}

	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	doc, err := loader.LoadFile(req.FilePath)
	if err != nil {
		writeError(w, err)
		return
	}

	report, err := sess.Index(r.Context(), []models.Document{doc}, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	if failed := report.Failed(); len(failed) > 0 {
		writeError(w, failed[0].Err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "success",
		"file_path":      req.FilePath,
		"document_id":    doc.ID,
		"chunks_indexed": report.TotalChunks(),
		"chunk_size":     opts.Size,
		"chunk_overlap":  opts.Overlap,
	})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var question string
	if isJSON(r) {
		var body struct {
			Question string `json:"question"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
			return
		}
		question = body.Question
	} else {
		question = r.FormValue("question")
	}

	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	answer, err := sess.Ask(r.Context(), question)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"answer":  answer.Text,
		"sources": answer.Sources,
		"turn":    answer.Turn,
		"history": answer.History,
	})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	docs := sess.Documents()
	stats := sess.Stats()
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id":      sess.ID(),
		"state":           stats.State,
		"documents":       docs,
		"total_documents": len(docs),
		"total_chunks":    stats.Chunks,
	})
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID, err := url.PathUnescape(chi.URLParam(r, "*"))
	if err != nil || docID == "" {
		jsonError(w, "document ID is required", http.StatusBadRequest)
		return
	}

	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	if err := sess.RemoveDocument(r.Context(), docID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "success",
		"document_id": docID,
		"state":       sess.State(),
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.Reset(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": "session cleared",
	})
}

func (s *Server) handleClearMemory(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.ClearMemory(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": "conversation memory cleared",
	})
}

func (s *Server) handleMemory(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "success",
		"session_id":    sess.ID(),
		"memory":        sess.Memory(),
		"memory_window": s.app.Orchestrator.Config().MemoryWindow,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Stats())
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.app.Orchestrator.Sessions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": ids})
}

// chunkOptions overlays request values on the configured chunking defaults
func (s *Server) chunkOptions(size, overlap string) (core.ChunkOptions, error) {
	opts := s.app.ChunkOptions()
	if size != "" {
		n, err := strconv.Atoi(size)
		if err != nil {
			return opts, fmt.Errorf("%w: chunk_size must be an integer", core.ErrInvalidConfig)
		}
		opts.Size = n
	}
	if overlap != "" {
		n, err := strconv.Atoi(overlap)
		if err != nil {
			return opts, fmt.Errorf("%w: chunk_overlap must be an integer", core.ErrInvalidConfig)
		}
		opts.Overlap = n
	}
	return opts, opts.Validate()
}

func isJSON(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
