package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/gridiron/internal/adapters/repository"
)

// RankingsDependencies defines the power rankings reads.
type RankingsDependencies interface {
	Rankings(ctx context.Context, n int) ([]repository.Standing, error)
	Rank(ctx context.Context, team string) (repository.Standing, error)
}

// RankingsHandler handles power rankings requests.
type RankingsHandler struct {
	deps     RankingsDependencies
	maxLimit int
}

// NewRankingsHandler creates a new rankings handler.
func NewRankingsHandler(deps RankingsDependencies, maxLimit int) *RankingsHandler {
	return &RankingsHandler{deps: deps, maxLimit: maxLimit}
}

// HandleTop handles GET /rankings?limit=N; limit defaults to the maximum.
func (h *RankingsHandler) HandleTop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	n, err := intParam(r, "limit", h.maxLimit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if n < 1 || n > h.maxLimit {
		writeServiceError(w, fmt.Errorf("%w: limit must be 1..%d", ErrBadLimit, h.maxLimit))
		return
	}
	out, err := h.deps.Rankings(r.Context(), n)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleTeam handles GET /rankings/{team} requests.
func (h *RankingsHandler) HandleTeam(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	team := strings.TrimPrefix(r.URL.Path, "/rankings/")
	if team == "" || strings.Contains(team, "/") {
		writeServiceError(w, fmt.Errorf("%w: missing team", ErrBadRequest))
		return
	}
	st, err := h.deps.Rank(r.Context(), team)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
