// ABOUTME: HTTP API server exposing ragchat sessions over JSON
// ABOUTME: Routes index, ask, document, memory and stats operations onto core sessions
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/harper/ragchat/internal/app"
	"github.com/harper/ragchat/internal/core"
)

// Server is the HTTP API server for ragchat.
type Server struct {
	router chi.Router
	app    *app.App
	log    *slog.Logger
}

// NewServer creates and configures the HTTP server.
func NewServer(a *app.App) *Server {
	s := &Server{
		app: a,
		log: a.Logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(SessionMiddleware(app.DefaultSessionID))
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)

	r.Post("/index", s.handleIndex)
	r.Post("/reindex", s.handleReindex)
	r.Post("/ask", s.handleAsk)

	r.Get("/documents", s.handleListDocuments)
	r.Delete("/documents/*", s.handleDeleteDocument)

	r.Post("/clear", s.handleReset)
	r.Post("/clear-memory", s.handleClearMemory)
	r.Get("/memory", s.handleMemory)
	r.Get("/stats", s.handleStats)
	r.Get("/sessions", s.handleSessions)

	s.router = r
}

// session resolves the request's session, writing an error response on failure
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*core.Session, bool) {
	sess, err := s.app.Orchestrator.Session(r.Context(), sessionID(r))
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return sess, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"persist": s.app.Store != nil,
	})
}
