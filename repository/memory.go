package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/busnow/api/models"
)

// MemoryStationRepository is an in-memory registry, used in tests and for
// serving a fixed station list without a database
type MemoryStationRepository struct {
	mu       sync.RWMutex
	stations []models.Station
	byID     map[string]int
}

// NewMemoryStationRepository creates a registry preloaded with stations.
// Later duplicates of an id are ignored.
func NewMemoryStationRepository(stations ...models.Station) *MemoryStationRepository {
	r := &MemoryStationRepository{byID: make(map[string]int)}
	r.Replace(stations)
	return r
}

// Replace swaps the whole station set
func (r *MemoryStationRepository) Replace(stations []models.Station) {
	list := make([]models.Station, 0, len(stations))
	byID := make(map[string]int, len(stations))
	for _, st := range stations {
		if _, dup := byID[st.ID]; dup {
			continue
		}
		byID[st.ID] = len(list)
		list = append(list, st)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.stations = list
	r.byID = byID
}

func (r *MemoryStationRepository) FindByID(_ context.Context, id string) (*models.Station, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrStationNotFound, id)
	}
	st := r.stations[idx]
	return &st, nil
}

func (r *MemoryStationRepository) FindByNameContains(_ context.Context, substr string) ([]models.Station, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []models.Station{}
	for _, st := range r.stations {
		if strings.Contains(st.Name, substr) {
			out = append(out, st)
		}
	}
	return out, nil
}

func (r *MemoryStationRepository) CountBySource(_ context.Context) (map[models.SourceTag]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[models.SourceTag]int)
	for _, st := range r.stations {
		counts[st.Source]++
	}
	return counts, nil
}

// AllStations returns a copy, so a scan is unaffected by a concurrent Replace
func (r *MemoryStationRepository) AllStations(_ context.Context) ([]models.Station, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Station, len(r.stations))
	copy(out, r.stations)
	return out, nil
}
