package api

import (
	"context"
	"net/http"

	"github.com/okian/gridiron/internal/domain/model"
)

// PlaysDependencies defines the play ingestion operation.
type PlaysDependencies interface {
	IngestPlays(ctx context.Context, plays []model.PlayRecord) (stored, skipped int, err error)
}

// PlaysHandler accepts play-by-play history.
type PlaysHandler struct {
	deps PlaysDependencies
}

// NewPlaysHandler creates a new plays handler.
func NewPlaysHandler(deps PlaysDependencies) *PlaysHandler {
	return &PlaysHandler{deps: deps}
}

type playsRequest struct {
	Plays []model.PlayRecord `json:"plays"`
}

type playsResponse struct {
	Stored  int `json:"stored"`
	Skipped int `json:"skipped"`
}

// HandleIngest handles POST /plays requests.
func (h *PlaysHandler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req playsRequest
	if err := decodeBodyLimit(w, r, &req, maxPlaysBodyBytes); err != nil {
		writeServiceError(w, err)
		return
	}
	stored, skipped, err := h.deps.IngestPlays(r.Context(), req.Plays)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, playsResponse{Stored: stored, Skipped: skipped})
}
