package nearby

import (
	"context"
	"fmt"
	"log"

	"github.com/busnow/api/internal/geo"
	"github.com/busnow/api/models"
)

// DefaultRadiusMeters is the "nearby" threshold used when a query sets none
const DefaultRadiusMeters = 300.0

// StationLister enumerates the whole registry. One call must return a
// consistent snapshot.
type StationLister interface {
	AllStations(ctx context.Context) ([]models.Station, error)
}

// Query describes one proximity search
type Query struct {
	OriginLat        float64
	OriginLon        float64
	ExcludeStationID string
	RadiusMeters     float64
}

// StationFailure is a station that was skipped during the scan
type StationFailure struct {
	StationID string
	Err       error
}

func (f StationFailure) Error() string {
	return fmt.Sprintf("station %s: %v", f.StationID, f.Err)
}

// Result holds the stations within the radius plus the ones that could not be evaluated
type Result struct {
	Stations []models.ProximityResult
	Failures []StationFailure
}

// Searcher finds stations within a radius of a point
type Searcher struct {
	stations StationLister
}

// NewSearcher creates a proximity searcher over a station registry
func NewSearcher(stations StationLister) *Searcher {
	return &Searcher{stations: stations}
}

// Search scans every station and keeps those within the radius. Results keep
// registry order; distances are rounded to 3 decimals but filtered unrounded.
// A bad station is recorded in Failures and the scan continues.
func (s *Searcher) Search(ctx context.Context, q Query) (*Result, error) {
	if err := models.ValidateCoordinates(q.OriginLat, q.OriginLon); err != nil {
		return nil, fmt.Errorf("invalid origin: %w", err)
	}
	radius := q.RadiusMeters
	if radius <= 0 {
		radius = DefaultRadiusMeters
	}

	all, err := s.stations.AllStations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list stations: %w", err)
	}

	result := Scan(all, q.OriginLat, q.OriginLon, q.ExcludeStationID, radius)
	for _, f := range result.Failures {
		log.Printf("Nearby: skipping %v", f)
	}
	return result, nil
}

// Scan is the pure part of Search
func Scan(stations []models.Station, lat, lon float64, excludeID string, radius float64) *Result {
	result := &Result{Stations: []models.ProximityResult{}}
	box := geo.BoundsAround(lat, lon, radius)

	for i := range stations {
		st := &stations[i]
		if st.ID == excludeID {
			continue
		}
		if err := st.ValidateCoordinates(); err != nil {
			result.Failures = append(result.Failures, StationFailure{StationID: st.ID, Err: err})
			continue
		}
		if !box.Contains(st.Latitude, st.Longitude) {
			continue
		}

		dist := geo.Distance(lat, lon, st.Latitude, st.Longitude)
		if dist <= radius {
			result.Stations = append(result.Stations, models.ProximityResult{
				Name:           st.Name,
				StationID:      st.ID,
				Longitude:      st.Longitude,
				Latitude:       st.Latitude,
				DistanceMeters: geo.Round(dist, 3),
			})
		}
	}
	return result
}
