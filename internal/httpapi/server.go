// Package httpapi serves the monitoring and automation surface: health,
// Prometheus metrics, and on-demand assessments.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/credtech/credintel/internal/app"
	"github.com/credtech/credintel/internal/features"
	"github.com/credtech/credintel/internal/metrics"
	"github.com/credtech/credintel/internal/store"
)

// ServerConfig holds the listen address and timeouts.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultServerConfig binds local-only.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "127.0.0.1",
		Port:         8080,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Server is the read-side HTTP server.
type Server struct {
	router    *mux.Router
	server    *http.Server
	assessor  *app.Assessor
	store     *store.Store
	collector *metrics.Collector
	log       zerolog.Logger
	started   time.Time
}

// NewServer builds the server and verifies the port is free.
func NewServer(cfg ServerConfig, assessor *app.Assessor, st *store.Store,
	collector *metrics.Collector, log zerolog.Logger) (*Server, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("httpapi: port %d unavailable: %w", cfg.Port, err)
	}
	listener.Close()

	s := &Server{
		router:    mux.NewRouter(),
		assessor:  assessor,
		store:     st,
		collector: collector,
		log:       log,
		started:   time.Now(),
	}
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.Use(s.loggingMiddleware)

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.Handle("/metrics", s.collector.Handler()).Methods("GET")

	api := s.router.PathPrefix("/v1").Subrouter()
	api.HandleFunc("/assessments/{ticker}", s.handleAssess).Methods("GET")
	api.HandleFunc("/assessments/{ticker}/history", s.handleHistory).Methods("GET")
	api.HandleFunc("/quality", s.handleQuality).Methods("GET")

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "healthy",
		"uptime_seconds": int(time.Since(s.started).Seconds()),
	})
}

// handleAssess runs the full pipeline for one ticker. The sector comes
// from the query string since upstream statements do not carry it.
func (s *Server) handleAssess(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]
	sector := r.URL.Query().Get("sector")

	assessments, err := s.assessor.AssessBatch(r.Context(),
		[]app.Request{{Ticker: ticker, Sector: sector}})
	if err != nil {
		s.log.Error().Err(err).Str("ticker", ticker).Msg("assessment request failed")
		writeError(w, http.StatusBadGateway, "upstream data unavailable")
		return
	}
	if len(assessments) == 0 {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no data for ticker %s", ticker))
		return
	}
	writeJSON(w, http.StatusOK, assessments[0])
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]
	history, err := s.store.History(r.Context(), ticker, 50)
	if err != nil {
		s.log.Error().Err(err).Str("ticker", ticker).Msg("history query failed")
		writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	if history == nil {
		history = []store.Assessment{}
	}
	writeJSON(w, http.StatusOK, history)
}

// handleQuality summarizes input degradation: how many times each known
// feature was imputed to a fallback instead of computed from real data.
func (s *Server) handleQuality(w http.ResponseWriter, r *http.Request) {
	degraded := make(map[string]float64)
	for _, schema := range [][]string{features.ScoringSchema, features.ClassifierSchema} {
		for _, name := range schema {
			degraded[name] = s.collector.DegradedInputCount(name)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"degraded_inputs": degraded})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapper, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapper.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// Start blocks serving requests until Shutdown or a listener error.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("http server listening")
	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains inflight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
