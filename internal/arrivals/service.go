package arrivals

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/busnow/api/models"
)

// Feed is an upstream arrival source normalized to ArrivalRecords.
// Implementations degrade failures to an empty list and never return an error.
type Feed interface {
	Arrivals(ctx context.Context, stationID string) []models.ArrivalRecord
}

// StationFinder resolves a station id to its registry record
type StationFinder interface {
	FindByID(ctx context.Context, id string) (*models.Station, error)
}

// Service aggregates arrivals for a station from the feed its source tag selects
type Service struct {
	stations StationFinder
	feeds    map[models.SourceTag]Feed
	fallback models.SourceTag
}

// NewService creates an aggregator. Stations with a missing or unknown tag
// are served by the Seoul feed.
func NewService(stations StationFinder, feeds map[models.SourceTag]Feed) *Service {
	return &Service{
		stations: stations,
		feeds:    feeds,
		fallback: models.SourceSeoul,
	}
}

// GetArrivals looks up the station and returns its arrivals sorted by urgency.
// Returns an error wrapping models.ErrStationNotFound for unknown ids; upstream
// failures only shorten the list.
func (s *Service) GetArrivals(ctx context.Context, stationID string) ([]models.RankedArrival, error) {
	station, err := s.stations.FindByID(ctx, stationID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve station %s: %w", stationID, err)
	}
	return s.ArrivalsForStation(ctx, station.ID, station.Source), nil
}

// ArrivalsForStation dispatches to the feed for tag and ranks the result.
// The sort is stable so records with equal keys keep feed order.
func (s *Service) ArrivalsForStation(ctx context.Context, stationID string, tag models.SourceTag) []models.RankedArrival {
	feed := s.feedFor(stationID, tag)
	if feed == nil {
		return []models.RankedArrival{}
	}
	return Rank(feed.Arrivals(ctx, stationID))
}

// Rank attaches sort keys parsed from arrivalMsg1 and orders ascending
func Rank(records []models.ArrivalRecord) []models.RankedArrival {
	ranked := make([]models.RankedArrival, 0, len(records))
	for _, rec := range records {
		ranked = append(ranked, models.RankedArrival{
			ArrivalRecord: rec,
			SortKey:       ParseArrivalTime(rec.ArrivalMsg1),
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].SortKey < ranked[j].SortKey
	})
	return ranked
}

func (s *Service) feedFor(stationID string, tag models.SourceTag) Feed {
	if parsed, ok := models.ParseSourceTag(string(tag)); ok {
		if feed, ok := s.feeds[parsed]; ok {
			return feed
		}
	} else if tag != "" {
		log.Printf("Arrivals: station %s has unknown location %q, using %s", stationID, tag, s.fallback)
	}
	feed, ok := s.feeds[s.fallback]
	if !ok {
		log.Printf("Arrivals: no feed configured for %s", s.fallback)
		return nil
	}
	return feed
}
