// Package serve exposes discussions over REST and streams round events over
// WebSocket. It is a projection layer: all deliberation semantics live in
// the consensus core.
package serve

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mootlabs/moot/internal/consensus"
	"github.com/mootlabs/moot/internal/orchestrator"
	"github.com/mootlabs/moot/internal/roles"
	"github.com/mootlabs/moot/internal/state"
)

// API error codes.
const (
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeDiscussionNotFound = "DISCUSSION_NOT_FOUND"
	ErrCodeDiscussionRunning  = "DISCUSSION_RUNNING"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// Server wires the HTTP surface to the orchestration layer.
type Server struct {
	registry    *roles.Registry
	producer    orchestrator.Producer
	store       *state.Store // optional persistence
	discussions *DiscussionStore
	defaults    consensus.Config
	logger      *slog.Logger
}

// Option customizes a Server.
type Option func(*Server)

// WithStore enables SQLite persistence of completed discussions.
func WithStore(store *state.Store) Option {
	return func(s *Server) { s.store = store }
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithDefaults overrides the default discussion configuration applied to
// requests that leave fields unset.
func WithDefaults(cfg consensus.Config) Option {
	return func(s *Server) { s.defaults = cfg }
}

// NewServer creates a Server around an explicit registry and producer.
func NewServer(registry *roles.Registry, producer orchestrator.Producer, opts ...Option) *Server {
	s := &Server{
		registry:    registry,
		producer:    producer,
		discussions: NewDiscussionStore(),
		defaults:    consensus.DefaultConfig(),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes builds the chi router for the API.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/roles", s.handleListRoles)
		r.Route("/discussions", func(r chi.Router) {
			r.Post("/", s.handleCreateDiscussion)
			r.Get("/", s.handleListDiscussions)
			r.Get("/{id}", s.handleGetDiscussion)
			r.Get("/{id}/events", s.handleDiscussionEvents)
		})
	})
	return r
}

// ListenAndServe runs the HTTP server on addr until it fails.
func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("api server listening", "addr", addr)
	return http.ListenAndServe(addr, s.Routes())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListRoles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"roles": s.registry.List()})
}

// apiError is the error envelope shared by every endpoint.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, format string, args ...any) {
	writeJSON(w, status, map[string]apiError{
		"error": {Code: code, Message: fmt.Sprintf(format, args...)},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
