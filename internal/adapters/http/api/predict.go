package api

import (
	"context"
	"net/http"

	"github.com/okian/gridiron/internal/domain/model"
)

// PredictDependencies defines what the prediction endpoints need.
type PredictDependencies interface {
	Predict(ctx context.Context, req model.Request) (model.PredictionResult, error)
	PredictWeek(ctx context.Context, season, week int, games []model.Game) ([]model.PredictionResult, error)
}

// PredictHandler handles prediction requests.
type PredictHandler struct {
	deps PredictDependencies
}

// NewPredictHandler creates a new prediction handler.
func NewPredictHandler(deps PredictDependencies) *PredictHandler {
	return &PredictHandler{deps: deps}
}

// weekRequest is the body of POST /predict/week.
type weekRequest struct {
	Season int          `json:"season"`
	Week   int          `json:"week"`
	Games  []model.Game `json:"games"`
}

type weekResponse struct {
	Season      int                      `json:"season"`
	Week        int                      `json:"week"`
	Predictions []model.PredictionResult `json:"predictions"`
}

// HandlePredict handles POST /predict requests.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req model.Request
	if err := decodeBody(w, r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	res, err := h.deps.Predict(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandlePredictWeek handles POST /predict/week requests.
func (h *PredictHandler) HandlePredictWeek(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req weekRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	out, err := h.deps.PredictWeek(r.Context(), req.Season, req.Week, req.Games)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, weekResponse{Season: req.Season, Week: req.Week, Predictions: out})
}
