// Package server hosts the query pipeline over HTTP. The transport layer
// stops here; everything below it works in domain types.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"district-concierge/internal/common/config"
	"district-concierge/internal/common/database"
	"district-concierge/internal/common/logger"
	"district-concierge/internal/models"
	"district-concierge/internal/pipeline"
)

// Server glues the chi router, the pipeline, and the health dependencies.
type Server struct {
	cfg      config.ServerConfig
	pipeline *pipeline.Pipeline
	postgres *database.PostgresClient
	redis    *database.RedisClient
	logger   logger.Logger
	http     *http.Server
}

func New(cfg config.ServerConfig, p *pipeline.Pipeline, pg *database.PostgresClient, rd *database.RedisClient, log logger.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		pipeline: p,
		postgres: pg,
		redis:    rd,
		logger:   log.WithFields(map[string]interface{}{"component": "http-server"}),
	}
	s.http = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.routes(),
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Millisecond,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestID)
	r.Use(middleware.Recoverer)

	r.Post("/v1/query", s.handleQuery)
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", map[string]interface{}{"address": s.cfg.Address})
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

type queryRequest struct {
	QueryText string `json:"query_text"`
	SessionID string `json:"session_id"`
	PriorTurn string `json:"prior_turn,omitempty"`
}

type queryResponse struct {
	Intent     models.Intent           `json:"intent"`
	Selection  models.Selection        `json:"selection"`
	Validation models.ValidationResult `json:"validation_result"`
	Reply      string                  `json:"reply"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	result := s.pipeline.Process(r.Context(), models.Query{
		Text:      req.QueryText,
		SessionID: req.SessionID,
		PriorTurn: req.PriorTurn,
		FollowUp:  req.PriorTurn != "",
	})

	s.writeJSON(w, http.StatusOK, queryResponse{
		Intent:     result.Intent,
		Selection:  result.Selection,
		Validation: result.Validation,
		Reply:      result.Reply,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{"postgres": "ok", "redis": "ok"}
	code := http.StatusOK

	if err := s.postgres.Ping(ctx); err != nil {
		status["postgres"] = err.Error()
		code = http.StatusServiceUnavailable
	}
	if s.redis != nil {
		if err := s.redis.Ping(ctx); err != nil {
			status["redis"] = err.Error()
			code = http.StatusServiceUnavailable
		}
	}

	s.writeJSON(w, code, status)
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", map[string]interface{}{"error": err.Error()})
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, message string) {
	s.writeJSON(w, code, map[string]string{"error": message})
}

// requestID tags every request with a stable id for log correlation.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r)
	})
}
