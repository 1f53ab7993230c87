// Package server is the HTTP boundary of the design tool: render requests,
// chat-driven script generation, session history, and static assets.
package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/meshforge/meshforge"
	"github.com/meshforge/meshforge/internal/llm"
	"github.com/meshforge/meshforge/internal/session"
)

// Server wires the engine and its collaborators behind a router.
type Server struct {
	engine *meshforge.Engine
	store  *session.Store
	llm    *llm.Client
	static string
	log    *zap.Logger
}

// New assembles the HTTP boundary. store and llmClient may be nil when the
// corresponding surface is disabled.
func New(engine *meshforge.Engine, store *session.Store, llmClient *llm.Client, staticDir string, log *zap.Logger) *Server {
	return &Server{engine: engine, store: store, llm: llmClient, static: staticDir, log: log}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Post("/api/render", s.handleRender)
	r.Get("/api/render/ws", s.handleRenderWS)
	if s.store != nil && s.llm != nil {
		r.Post("/api/chat", s.handleChat)
	}
	if s.store != nil {
		r.Get("/api/artifacts/{id}", s.handleArtifact)
		r.Get("/api/sessions/{id}/history", s.handleHistory)
	}
	if s.static != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.static)))
	}
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type renderRequest struct {
	Script string `json:"script"`
}

type renderResponse struct {
	STL    string `json:"stl"`
	Script string `json:"script"`
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := s.engine.Render(r.Context(), req.Script)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, renderResponse{
		STL:    encodeArtifact(result.Bytes),
		Script: result.ScriptText,
	})
}

func (s *Server) handleArtifact(w http.ResponseWriter, r *http.Request) {
	artifact, err := s.store.LoadArtifact(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "artifact not found")
		return
	}
	w.Header().Set("Content-Type", "model/stl")
	w.WriteHeader(http.StatusOK)
	w.Write(artifact.Data)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.store.History(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, history)
}

// writeEngineError maps a settled engine failure to an HTTP status:
// rejected input is the client's fault, everything else is the server's.
func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	kind, ok := meshforge.KindOf(err)
	if !ok {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	status := http.StatusInternalServerError
	if kind == meshforge.KindInvalidInput {
		status = http.StatusBadRequest
	}
	var ee *meshforge.Error
	detail := err.Error()
	if errors.As(err, &ee) {
		detail = ee.Message
	}
	writeJSON(w, status, map[string]string{
		"error": detail,
		"kind":  kind.String(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
