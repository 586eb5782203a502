package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/busnow/api/internal/config"
	"github.com/busnow/api/internal/metrics"
	"github.com/busnow/api/models"
)

// Pinger checks database connectivity
type Pinger interface {
	Ping(ctx context.Context) error
}

// StationCounter reports the registry size per source
type StationCounter interface {
	CountBySource(ctx context.Context) (map[models.SourceTag]int, error)
}

// FeedSnapshotter reports upstream feed statistics
type FeedSnapshotter interface {
	Snapshot() []models.FeedHealth
}

// HealthHandler handles HTTP requests for health and configuration status
type HealthHandler struct {
	db     Pinger
	counts StationCounter
	feeds  FeedSnapshotter
	status config.Status
	now    func() time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db Pinger, counts StationCounter, feeds FeedSnapshotter, status config.Status) *HealthHandler {
	return &HealthHandler{db: db, counts: counts, feeds: feeds, status: status, now: time.Now}
}

// HealthResponse is the JSON response for GET /health
type HealthResponse struct {
	Status    string                   `json:"status"`
	Database  string                   `json:"database"`
	Stations  map[models.SourceTag]int `json:"stations,omitempty"`
	Timestamp time.Time                `json:"timestamp"`
	Error     string                   `json:"error,omitempty"`
}

// Health handles GET /health
// Returns 503 when the database is unreachable
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	w.Header().Set("Cache-Control", "no-store")

	if err := h.db.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:    "error",
			Database:  "disconnected",
			Timestamp: h.now().UTC(),
			Error:     err.Error(),
		})
		return
	}

	resp := HealthResponse{
		Status:    "ok",
		Database:  "connected",
		Timestamp: h.now().UTC(),
	}
	// Counts are informational; a failure here does not fail the check
	if counts, err := h.counts.CountBySource(ctx); err == nil {
		resp.Stations = counts
	}
	writeJSON(w, http.StatusOK, resp)
}

// FeedHealth handles GET /api/health/feeds
// Returns health scores and status for each upstream feed
func (h *HealthHandler) FeedHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, metrics.Overall(h.feeds.Snapshot(), h.now().UTC()))
}

// ConfigStatus handles GET /config/status
// Never includes key values
func (h *HealthHandler) ConfigStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.status)
}
