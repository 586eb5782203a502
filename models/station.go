package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrStationNotFound is returned by station lookups when no station has the requested ID
var ErrStationNotFound = errors.New("station not found")

// SourceTag identifies which transit authority's arrival feed serves a station
type SourceTag string

const (
	SourceSeoul    SourceTag = "SEL" // Seoul Metropolitan Bus (two-call feed)
	SourceGyeonggi SourceTag = "KYG" // Gyeonggi Province Bus (single combined feed)
)

// AllSources returns all supported source tags
func AllSources() []SourceTag {
	return []SourceTag{
		SourceSeoul,
		SourceGyeonggi,
	}
}

// ParseSourceTag normalizes a stored location value into a SourceTag.
// The second return value is false for empty or unrecognized values.
func ParseSourceTag(s string) (SourceTag, bool) {
	switch SourceTag(strings.ToUpper(strings.TrimSpace(s))) {
	case SourceSeoul:
		return SourceSeoul, true
	case SourceGyeonggi:
		return SourceGyeonggi, true
	default:
		return SourceTag(s), false
	}
}

// Station represents a bus stop from the bus_stations table.
// JSON field names match the frontend's existing contract (stNm, arsId, x, y).
type Station struct {
	ID        string    `db:"ars_id" json:"arsId"`
	Name      string    `db:"station_name" json:"stNm"`
	Longitude float64   `db:"longitude" json:"x"`
	Latitude  float64   `db:"latitude" json:"y"`
	Source    SourceTag `db:"location" json:"location,omitempty"`
}

// Validate checks if the Station has the fields a registry row requires
func (s *Station) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return errors.New("ars_id is required")
	}
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("station_name is required")
	}
	if err := s.ValidateCoordinates(); err != nil {
		return err
	}
	if _, ok := ParseSourceTag(string(s.Source)); !ok {
		return fmt.Errorf("unknown location %q", s.Source)
	}
	return nil
}

// ValidateCoordinates reports whether the station's WGS84 coordinates are usable
// for distance computation
func (s *Station) ValidateCoordinates() error {
	return ValidateCoordinates(s.Latitude, s.Longitude)
}

// ValidateCoordinates checks a latitude/longitude pair for finite, in-range values
func ValidateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lon) || math.IsInf(lon, 0) {
		return errors.New("coordinates must be finite numbers")
	}
	// Latitude must be in valid range [-90, 90]
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude out of range: %f", lat)
	}
	// Longitude must be in valid range [-180, 180]
	if lon < -180 || lon > 180 {
		return fmt.Errorf("longitude out of range: %f", lon)
	}
	return nil
}

// ProximityResult is a nearby station with its distance from the search origin
type ProximityResult struct {
	Name           string  `json:"stNm"`
	StationID      string  `json:"arsId"`
	Longitude      float64 `json:"x"`
	Latitude       float64 `json:"y"`
	DistanceMeters float64 `json:"distance"`
}
