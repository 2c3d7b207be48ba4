// Package fakeagent is an in-process stand-in for the agent backend. It
// serves the same wire protocol the real backend produces, from scripted
// answers, so the client pipeline can be exercised without any external
// service. It backs the coach-agentd dev binary and the test suites.
package fakeagent

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ironrep/coach/pkg/chat"
	"github.com/ironrep/coach/pkg/logger"
)

// ScriptFunc produces the event sequence streamed for one request.
type ScriptFunc func(req chat.AskRequest) []chat.Event

// Server serves the agent streaming protocol over HTTP.
type Server struct {
	router chi.Router
	script ScriptFunc
	delay  time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithScript replaces the default canned-answer script.
func WithScript(script ScriptFunc) Option {
	return func(s *Server) { s.script = script }
}

// WithDelay inserts a pause between frames, approximating generation pace.
func WithDelay(delay time.Duration) Option {
	return func(s *Server) { s.delay = delay }
}

func New(opts ...Option) *Server {
	s := &Server{
		script: DefaultScript,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Post("/api/chat/stream", s.handleStream)
	s.router = r

	return s
}

// Handler returns the HTTP handler, for mounting or httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	var req chat.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}
	if req.Mode != "" && !chat.ValidMode(req.Mode) {
		writeError(w, http.StatusBadRequest, "unknown mode")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	for _, ev := range s.script(req) {
		select {
		case <-r.Context().Done():
			return
		default:
		}

		sendEvent(w, flusher, ev)

		if s.delay > 0 {
			time.Sleep(s.delay)
		}
	}
}

// sendEvent writes one protocol frame and flushes it.
func sendEvent(w http.ResponseWriter, flusher http.Flusher, ev chat.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		logger.Error("Failed to marshal stream event: %v", err)
		return
	}

	if _, err := w.Write([]byte("data: ")); err != nil {
		return
	}
	if _, err := w.Write(data); err != nil {
		return
	}
	if _, err := w.Write([]byte("\n\n")); err != nil {
		return
	}
	flusher.Flush()
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
