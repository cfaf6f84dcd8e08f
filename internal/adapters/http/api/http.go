// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/rankengine/internal/adapters/mq/queue"
	"github.com/okian/rankengine/internal/adapters/repository"
	"github.com/okian/rankengine/internal/domain/model"
	"github.com/okian/rankengine/internal/engine"
	"github.com/okian/rankengine/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	RankingDependencies
	EvolutionDependencies
	IngestDependencies
	RecomputeDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	rankingHandler   *RankingHandler
	evolutionHandler *EvolutionHandler
	ingestHandler    *IngestHandler
	recomputeHandler *RecomputeHandler
	logger           logger.Logger
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithLogger sets a custom logger for the server.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		rankingHandler:   NewRankingHandler(deps),
		evolutionHandler: NewEvolutionHandler(deps),
		ingestHandler:    NewIngestHandler(deps),
		recomputeHandler: NewRecomputeHandler(deps),
		logger:           logger.Get().Named("api"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	s.logger.Debug(ctx, "registering routes")
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/rankings", MetricsMiddleware(s.rankingHandler.HandleGetRankings, "rankings"))
	mux.HandleFunc("/rankings/", MetricsMiddleware(s.rankingHandler.HandleGetEmployeeRanking, "employee_ranking"))
	mux.HandleFunc("/evolution/", MetricsMiddleware(s.evolutionHandler.HandleGetEvolution, "evolution"))
	mux.HandleFunc("/criteria", MetricsMiddleware(s.ingestHandler.HandleCriteria, "criteria"))
	mux.HandleFunc("/employees", MetricsMiddleware(s.ingestHandler.HandlePostEmployee, "employees"))
	mux.HandleFunc("/measurements", MetricsMiddleware(s.ingestHandler.HandlePostMeasurements, "measurements"))
	mux.HandleFunc("/recompute", MetricsMiddleware(s.recomputeHandler.HandlePostRecompute, "recompute"))
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

// writeFailure maps upstream errors to a status and error code.
func writeFailure(w http.ResponseWriter, op string, err error) {
	switch {
	case isBadRequest(err):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case isNotFound(err):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
	case isBackpressure(err):
		writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind(op, ErrBackpressure, err))
	case errors.Is(err, engine.ErrInputUnavailable):
		writeError(w, http.StatusInternalServerError, "input_unavailable", Wrap(op, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}

func isBadRequest(err error) bool {
	return errors.Is(err, ErrBadRequest) ||
		errors.Is(err, model.ErrInvalidPeriod) ||
		errors.Is(err, model.ErrInvalidCriterion) ||
		errors.Is(err, model.ErrInvalidMeasurement) ||
		errors.Is(err, model.ErrInvalidEmployee)
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, engine.ErrEmployeeNotFound) ||
		errors.Is(err, repository.ErrNotFound)
}

func isBackpressure(err error) bool {
	return errors.Is(err, ErrBackpressure) || errors.Is(err, queue.ErrFull)
}
