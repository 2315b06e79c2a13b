package api

import (
	"context"
	"net/http"
	"time"

	"github.com/okian/gridiron/internal/adapters/repository"
)

// PredictionsDependencies defines the history and outcome operations.
type PredictionsDependencies interface {
	History(ctx context.Context, season, week int) ([]repository.Record, error)
	RecordOutcome(ctx context.Context, o repository.Outcome) error
}

// PredictionsHandler serves stored predictions and accepts final scores.
type PredictionsHandler struct {
	deps PredictionsDependencies
}

// NewPredictionsHandler creates a new predictions handler.
func NewPredictionsHandler(deps PredictionsDependencies) *PredictionsHandler {
	return &PredictionsHandler{deps: deps}
}

// HandleList handles GET /predictions?season=S&week=W. season defaults to the
// current year and week to the whole season.
func (h *PredictionsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	season, err := intParam(r, "season", time.Now().Year())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	week, err := intParam(r, "week", 0)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	recs, err := h.deps.History(r.Context(), season, week)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if recs == nil {
		recs = []repository.Record{}
	}
	writeJSON(w, http.StatusOK, recs)
}

// HandleOutcome handles POST /outcomes requests.
func (h *PredictionsHandler) HandleOutcome(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var o repository.Outcome
	if err := decodeBody(w, r, &o); err != nil {
		writeServiceError(w, err)
		return
	}
	if err := h.deps.RecordOutcome(r.Context(), o); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}
