package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/gridiron/internal/snapshot"
	"github.com/okian/gridiron/pkg/metrics"
)

// SnapshotProvider exposes the snapshot predictions are made against.
type SnapshotProvider interface {
	Snapshot() *snapshot.Data
}

// HealthHandler handles health and metrics requests.
type HealthHandler struct {
	snapshots SnapshotProvider
	metrics   http.Handler
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(snapshots SnapshotProvider) *HealthHandler {
	return &HealthHandler{
		snapshots: snapshots,
		metrics:   promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
	}
}

type healthResponse struct {
	Status             string  `json:"status"`
	SnapshotVersion    string  `json:"snapshot_version"`
	SnapshotAgeSeconds float64 `json:"snapshot_age_seconds"`
	GradedTeams        int     `json:"graded_teams"`
}

// HandleHealth handles GET /healthz. The service is healthy on empty data, since
// every lookup then answers with a neutral default.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	snap := h.snapshots.Snapshot()
	writeJSON(w, http.StatusOK, healthResponse{
		Status:             "ok",
		SnapshotVersion:    snap.Version,
		SnapshotAgeSeconds: snap.Age(time.Now()).Seconds(),
		GradedTeams:        len(snap.Grades.Teams()),
	})
}

// HandleMetrics serves the Prometheus registry.
func (h *HealthHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	h.metrics.ServeHTTP(w, r)
}
