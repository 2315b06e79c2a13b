// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/gridiron/internal/adapters/repository"
	service "github.com/okian/gridiron/internal/app"
	"github.com/okian/gridiron/internal/domain/model"
	"github.com/okian/gridiron/internal/snapshot"
)

const (
	defaultMaxLimit   = 32
	maxBodyBytes      = 1 << 20
	maxPlaysBodyBytes = 32 << 20
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Predict(ctx context.Context, req model.Request) (model.PredictionResult, error)
	PredictWeek(ctx context.Context, season, week int, games []model.Game) ([]model.PredictionResult, error)
	History(ctx context.Context, season, week int) ([]repository.Record, error)
	RecordOutcome(ctx context.Context, o repository.Outcome) error
	IngestPlays(ctx context.Context, plays []model.PlayRecord) (stored, skipped int, err error)
	Rankings(ctx context.Context, n int) ([]repository.Standing, error)
	Rank(ctx context.Context, team string) (repository.Standing, error)
	Stats(ctx context.Context) map[string]any
	Snapshot() *snapshot.Data
}

// Server wires HTTP routes for the prediction API.
type Server struct {
	predictHandler     *PredictHandler
	predictionsHandler *PredictionsHandler
	playsHandler       *PlaysHandler
	rankingsHandler    *RankingsHandler
	statsHandler       *StatsHandler
	healthHandler      *HealthHandler
}

// Option configures a Server.
type Option func(*serverConfig)

type serverConfig struct {
	maxLimit int
}

// WithMaxLimit caps the limit accepted by GET /rankings.
func WithMaxLimit(n int) Option {
	return func(c *serverConfig) {
		if n > 0 {
			c.maxLimit = n
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	c := serverConfig{maxLimit: defaultMaxLimit}
	for _, opt := range opts {
		opt(&c)
	}
	return &Server{
		predictHandler:     NewPredictHandler(deps),
		predictionsHandler: NewPredictionsHandler(deps),
		playsHandler:       NewPlaysHandler(deps),
		rankingsHandler:    NewRankingsHandler(deps, c.maxLimit),
		statsHandler:       NewStatsHandler(deps),
		healthHandler:      NewHealthHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/predict", MetricsMiddleware(s.predictHandler.HandlePredict, "predict"))
	mux.HandleFunc("/predict/week", MetricsMiddleware(s.predictHandler.HandlePredictWeek, "predict_week"))
	mux.HandleFunc("/predictions", MetricsMiddleware(s.predictionsHandler.HandleList, "predictions"))
	mux.HandleFunc("/outcomes", MetricsMiddleware(s.predictionsHandler.HandleOutcome, "outcomes"))
	mux.HandleFunc("/plays", MetricsMiddleware(s.playsHandler.HandleIngest, "plays"))
	mux.HandleFunc("/rankings", MetricsMiddleware(s.rankingsHandler.HandleTop, "rankings"))
	mux.HandleFunc("/rankings/", MetricsMiddleware(s.rankingsHandler.HandleTeam, "rankings_team"))
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

// writeServiceError maps service errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidInput), errors.Is(err, repository.ErrInvalidRecord):
		writeError(w, http.StatusBadRequest, "invalid_input", err)
	case errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, repository.ErrInvalidLimit), errors.Is(err, ErrBadLimit):
		writeError(w, http.StatusBadRequest, "limit_exceeded", err)
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrNoStore):
		writeError(w, http.StatusServiceUnavailable, "persistence_disabled", err)
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "timeout", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// decodeBody reads a JSON body into v, rejecting unknown fields.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	return decodeBodyLimit(w, r, v, maxBodyBytes)
}

func decodeBodyLimit(w http.ResponseWriter, r *http.Request, v any, limit int64) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

// intParam parses an optional integer query parameter.
func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", ErrBadRequest, name)
	}
	return n, nil
}
