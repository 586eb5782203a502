package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/busnow/api/internal/nearby"
	"github.com/busnow/api/models"
)

// StationRepository defines the registry lookups used by the station endpoints
type StationRepository interface {
	FindByID(ctx context.Context, id string) (*models.Station, error)
	FindByNameContains(ctx context.Context, substr string) ([]models.Station, error)
}

// NearbySearcher finds stations around a point
type NearbySearcher interface {
	Search(ctx context.Context, q nearby.Query) (*nearby.Result, error)
}

// ArrivalService returns ranked arrivals for a station
type ArrivalService interface {
	GetArrivals(ctx context.Context, stationID string) ([]models.RankedArrival, error)
}

// StationHandler handles HTTP requests for stations and their arrivals
type StationHandler struct {
	repo     StationRepository
	searcher NearbySearcher
	arrivals ArrivalService
	radius   float64
}

// NewStationHandler creates a new handler. radius is the nearby default
// when a request does not pass one.
func NewStationHandler(repo StationRepository, searcher NearbySearcher, arrivals ArrivalService, radius float64) *StationHandler {
	if radius <= 0 {
		radius = nearby.DefaultRadiusMeters
	}
	return &StationHandler{repo: repo, searcher: searcher, arrivals: arrivals, radius: radius}
}

// ErrorResponse is the JSON error response structure
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// StationView is a station as the frontend expects it. Coordinates missing
// from the registry are sent as null.
type StationView struct {
	Name      string           `json:"stNm"`
	ID        string           `json:"arsId"`
	Longitude *float64         `json:"x"`
	Latitude  *float64         `json:"y"`
	Source    models.SourceTag `json:"location,omitempty"`
}

// SearchStationsResponse is the JSON response for GET /api/stations/search
type SearchStationsResponse struct {
	Success  bool          `json:"success"`
	Stations []StationView `json:"stations"`
}

// NearbyStationsResponse is the JSON response for GET /api/stations/nearby
type NearbyStationsResponse struct {
	Success  bool                     `json:"success"`
	Stations []models.ProximityResult `json:"stations"`
	Skipped  int                      `json:"skipped,omitempty"`
}

// ArrivalInfoResponse is the JSON response for GET /api/stations/arrival_info
type ArrivalInfoResponse struct {
	Success bool                   `json:"success"`
	Buses   []models.RankedArrival `json:"buses"`
}

// SearchStations handles GET /api/stations/search?name=
// success is false when nothing matches
func (h *StationHandler) SearchStations(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		writeError(w, http.StatusBadRequest, "name parameter is required", nil)
		return
	}

	stations, err := h.repo.FindByNameContains(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to search stations", map[string]interface{}{
			"internal": err.Error(),
		})
		return
	}

	views := make([]StationView, 0, len(stations))
	for _, st := range stations {
		views = append(views, newStationView(st))
	}

	w.Header().Set("Cache-Control", "public, max-age=300")
	writeJSON(w, http.StatusOK, SearchStationsResponse{
		Success:  len(views) > 0,
		Stations: views,
	})
}

// NearbyStations handles GET /api/stations/nearby?ars_id=&x=&y=[&radius=]
// x is longitude and y is latitude. Results keep registry order.
func (h *StationHandler) NearbyStations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	arsID := strings.TrimSpace(q.Get("ars_id"))
	if arsID == "" {
		writeError(w, http.StatusBadRequest, "ars_id parameter is required", nil)
		return
	}

	lon, err := parseFloatParam(q.Get("x"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "x must be a longitude", map[string]interface{}{"x": q.Get("x")})
		return
	}
	lat, err := parseFloatParam(q.Get("y"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "y must be a latitude", map[string]interface{}{"y": q.Get("y")})
		return
	}

	radius := h.radius
	if raw := q.Get("radius"); raw != "" {
		radius, err = parseFloatParam(raw)
		if err != nil || radius <= 0 {
			writeError(w, http.StatusBadRequest, "radius must be a positive number of meters", map[string]interface{}{"radius": raw})
			return
		}
	}

	if err := models.ValidateCoordinates(lat, lon); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid coordinates", map[string]interface{}{"internal": err.Error()})
		return
	}

	result, err := h.searcher.Search(r.Context(), nearby.Query{
		OriginLat:        lat,
		OriginLon:        lon,
		ExcludeStationID: arsID,
		RadiusMeters:     radius,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to search nearby stations", map[string]interface{}{
			"internal": err.Error(),
		})
		return
	}

	stations := result.Stations
	if stations == nil {
		stations = []models.ProximityResult{}
	}
	writeJSON(w, http.StatusOK, NearbyStationsResponse{
		Success:  true,
		Stations: stations,
		Skipped:  len(result.Failures),
	})
}

// ArrivalInfo handles GET /api/stations/arrival_info?ars_id=
// Upstream failures shorten the list; only an unknown station is an error.
func (h *StationHandler) ArrivalInfo(w http.ResponseWriter, r *http.Request) {
	arsID := strings.TrimSpace(r.URL.Query().Get("ars_id"))
	if arsID == "" {
		writeError(w, http.StatusBadRequest, "ars_id parameter is required", nil)
		return
	}

	buses, err := h.arrivals.GetArrivals(r.Context(), arsID)
	if err != nil {
		h.writeLookupError(w, arsID, err, "Failed to get arrival information")
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, ArrivalInfoResponse{Success: true, Buses: buses})
}

// GetStation handles GET /api/stations/{arsId}
func (h *StationHandler) GetStation(w http.ResponseWriter, r *http.Request) {
	arsID := chi.URLParam(r, "arsId")
	if arsID == "" {
		writeError(w, http.StatusBadRequest, "arsId parameter is required", nil)
		return
	}

	st, err := h.repo.FindByID(r.Context(), arsID)
	if err != nil {
		h.writeLookupError(w, arsID, err, "Failed to retrieve station")
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=300")
	writeJSON(w, http.StatusOK, newStationView(*st))
}

func (h *StationHandler) writeLookupError(w http.ResponseWriter, arsID string, err error, msg string) {
	if errors.Is(err, models.ErrStationNotFound) {
		writeError(w, http.StatusNotFound, "Station not found", map[string]interface{}{"arsId": arsID})
		return
	}
	writeError(w, http.StatusInternalServerError, msg, map[string]interface{}{"internal": err.Error()})
}

func newStationView(st models.Station) StationView {
	return StationView{
		Name:      st.Name,
		ID:        st.ID,
		Longitude: finiteOrNil(st.Longitude),
		Latitude:  finiteOrNil(st.Latitude),
		Source:    st.Source,
	}
}

func finiteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func parseFloatParam(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, strconv.ErrRange
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string, details map[string]interface{}) {
	writeJSON(w, status, ErrorResponse{Error: msg, Details: details})
}
