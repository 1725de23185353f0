// Package rest exposes the query engine over HTTP.
//
// POST / and POST /v1/query accept {"query": "...", "user": "..."} and
// respond with the answer encoded as a bare JSON string.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/wcreiley/notice-alert-system/internal/core/domain"
	"github.com/wcreiley/notice-alert-system/internal/core/ports/driving"
	"github.com/wcreiley/notice-alert-system/internal/logger"
)

// maxRequestBytes bounds the size of a query request body.
const maxRequestBytes = 1 << 20

// ErrMissingQueryService is returned when the query service is not provided.
var ErrMissingQueryService = errors.New("rest: query service is required")

// Server serves the query API.
type Server struct {
	query   driving.QueryService
	ingest  driving.IngestService
	metrics http.Handler
	mux     *http.ServeMux
}

// Option configures the server.
type Option func(*Server)

// WithIngestStatus reports indexer counters on /healthz.
func WithIngestStatus(ingest driving.IngestService) Option {
	return func(s *Server) {
		s.ingest = ingest
	}
}

// WithMetricsHandler serves h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewServer creates a server backed by the given query service.
func NewServer(query driving.QueryService, opts ...Option) (*Server, error) {
	if query == nil {
		return nil, ErrMissingQueryService
	}

	s := &Server{
		query: query,
		mux:   http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mux.HandleFunc("POST /{$}", s.handleQuery)
	s.mux.HandleFunc("POST /v1/query", s.handleQuery)
	s.mux.HandleFunc("GET /v1/alerts", s.handleAlerts)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics)
	}

	return s, nil
}

// Handler returns the HTTP handler for the API.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run listens on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown when context is cancelled
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	logger.Info("HTTP server listening on %s", addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req driving.QueryRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("decoding request: %v", err))
		return
	}

	resp, err := s.query.Ask(r.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		logger.Error("query failed: %v", err)
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}

	writeJSON(w, http.StatusOK, resp.Answer)
}

// alertInfo is the public view of a standing query.
type alertInfo struct {
	Identity   string    `json:"identity"`
	User       string    `json:"user"`
	Query      string    `json:"query"`
	LastAnswer string    `json:"last_answer"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	queries, err := s.query.StandingQueries(r.Context())
	if err != nil {
		logger.Error("listing standing queries: %v", err)
		writeError(w, http.StatusInternalServerError, "listing standing queries failed")
		return
	}

	infos := make([]alertInfo, len(queries))
	for i := range queries {
		infos[i] = alertInfo{
			Identity:   queries[i].Identity,
			User:       queries[i].User,
			Query:      queries[i].Query,
			LastAnswer: queries[i].LastAnswer,
			CreatedAt:  queries[i].CreatedAt,
			UpdatedAt:  queries[i].UpdatedAt,
		}
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{"status": "ok"}
	if s.ingest != nil {
		body["index"] = s.ingest.Status()
	}
	writeJSON(w, http.StatusOK, body)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Debug("writing response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
