// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jaykayes/lottery-script/internal/adapters/repository"
	service "github.com/jaykayes/lottery-script/internal/app"
	"github.com/jaykayes/lottery-script/internal/domain/dedupe"
	"github.com/jaykayes/lottery-script/internal/domain/types"
	"github.com/jaykayes/lottery-script/pkg/logger"
)

// Dependencies required by HTTP handlers. *service.Service satisfies it.
type Dependencies interface {
	Draw(ctx context.Context, req service.Request) (*service.Result, error)
	Get(ctx context.Context, runID string) (*types.Snapshot, error)
	List(ctx context.Context, lotteryID string) ([]types.Summary, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	drawsHandler  *DrawsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	cfg := &serverConfig{
		logger:  logger.Nop(),
		deduper: dedupe.NewInMemoryDeduper(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider, cfg.deduper),
		drawsHandler:  NewDrawsHandler(deps, cfg.deduper, cfg.sheetDir, cfg.logger),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("POST /draws", MetricsMiddleware(s.drawsHandler.HandlePostDraw, "draws"))
	mux.HandleFunc("GET /draws", MetricsMiddleware(s.drawsHandler.HandleListDraws, "draws"))
	mux.HandleFunc("GET /draws/{id}", MetricsMiddleware(s.drawsHandler.HandleGetDraw, "draw"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// statusFor maps service and store errors to a status code and error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, repository.ErrInvalidID):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict, "duplicate"
	case errors.Is(err, service.ErrNoStore):
		return http.StatusNotImplemented, "no_store"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
