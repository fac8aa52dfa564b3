// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/okian/dexboard/internal/domain/model"
	"github.com/okian/dexboard/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Submit appends an entry and returns once it has been saved.
	Submit(ctx context.Context, e model.Entry) error

	// Leaderboard returns the top entries, best first. Never nil.
	Leaderboard(ctx context.Context) []model.Entry
}

// Server wires HTTP routes for the business API.
type Server struct {
	rootHandler        *RootHandler
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	leaderboardHandler *LeaderboardHandler
	logger             logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	log := logger.Named("http")
	return &Server{
		rootHandler:        NewRootHandler(),
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		leaderboardHandler: NewLeaderboardHandler(deps, log),
		logger:             log,
	}
}

// Register attaches all HTTP routes and middleware to r.
func (s *Server) Register(ctx context.Context, r *mux.Router) {
	if r == nil {
		panic("router is nil")
	}

	r.HandleFunc("/", MetricsMiddleware(s.rootHandler.HandleRoot, "root")).
		Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/api/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard")).
		Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/api/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandlePostLeaderboard, "leaderboard")).
		Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz")).
		Methods(http.MethodGet)
	r.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats")).
		Methods(http.MethodGet)

	r.Use(RequestIDMiddleware(s.logger), mux.CORSMethodMiddleware(r), CORSMiddleware)

	// Router-level replies bypass route middleware.
	r.NotFoundHandler = withAllowOrigin(http.NotFoundHandler())
	r.MethodNotAllowedHandler = withAllowOrigin(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
	}))

	s.logger.Debug(ctx, "http routes registered")
}

type errorResponse struct {
	Error string `json:"error"`
}

type successResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
