package nearby

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/busnow/api/internal/geo"
	"github.com/busnow/api/models"
)

type stubLister struct {
	stations []models.Station
	err      error
}

func (s stubLister) AllStations(context.Context) ([]models.Station, error) {
	return s.stations, s.err
}

func station(id string, lat, lon float64) models.Station {
	return models.Station{ID: id, Name: "Station " + id, Latitude: lat, Longitude: lon, Source: models.SourceSeoul}
}

func TestSearchRadiusScenario(t *testing.T) {
	// B sits ~289m north of A, C ~1.1km north
	lister := stubLister{stations: []models.Station{
		station("A", 0, 0),
		station("B", 0.0026, 0),
		station("C", 0.01, 0),
	}}

	res, err := NewSearcher(lister).Search(context.Background(), Query{
		OriginLat:        0,
		OriginLon:        0,
		ExcludeStationID: "A",
		RadiusMeters:     300,
	})
	require.NoError(t, err)
	require.Len(t, res.Stations, 1)
	assert.Equal(t, "B", res.Stations[0].StationID)
	assert.InDelta(t, 289.107, res.Stations[0].DistanceMeters, 0.001)
	assert.Empty(t, res.Failures)
}

func TestSearchJustOutsideRadius(t *testing.T) {
	// 0.0027 degrees is ~300.23m, outside a 300m radius
	res, err := NewSearcher(stubLister{stations: []models.Station{
		station("B", 0.0027, 0),
	}}).Search(context.Background(), Query{RadiusMeters: 300})
	require.NoError(t, err)
	assert.Empty(t, res.Stations)
}

func TestSearchDefaultsRadius(t *testing.T) {
	res, err := NewSearcher(stubLister{stations: []models.Station{
		station("B", 0.0026, 0),
		station("C", 0.0028, 0),
	}}).Search(context.Background(), Query{})
	require.NoError(t, err)
	require.Len(t, res.Stations, 1)
	assert.Equal(t, "B", res.Stations[0].StationID)
}

func TestSearchPreservesRegistryOrder(t *testing.T) {
	lat, lon := 37.5665, 126.9780
	lister := stubLister{stations: []models.Station{
		station("far", lat+0.0025, lon),
		station("near", lat+0.0005, lon),
		station("mid", lat, lon+0.002),
	}}

	res, err := NewSearcher(lister).Search(context.Background(), Query{OriginLat: lat, OriginLon: lon, RadiusMeters: 300})
	require.NoError(t, err)

	var ids []string
	for _, r := range res.Stations {
		ids = append(ids, r.StationID)
		assert.LessOrEqual(t, r.DistanceMeters, 300.0)
	}
	assert.Equal(t, []string{"far", "near", "mid"}, ids)
}

func TestSearchIsolatesBadStations(t *testing.T) {
	lister := stubLister{stations: []models.Station{
		station("nan", math.NaN(), 0),
		station("ok", 0.001, 0),
		station("range", 91, 0),
	}}

	res, err := NewSearcher(lister).Search(context.Background(), Query{RadiusMeters: 300})
	require.NoError(t, err)
	require.Len(t, res.Stations, 1)
	assert.Equal(t, "ok", res.Stations[0].StationID)

	require.Len(t, res.Failures, 2)
	assert.Equal(t, "nan", res.Failures[0].StationID)
	assert.Equal(t, "range", res.Failures[1].StationID)
	assert.Contains(t, res.Failures[1].Error(), "station range")
}

func TestSearchInvalidOrigin(t *testing.T) {
	_, err := NewSearcher(stubLister{}).Search(context.Background(), Query{OriginLat: 120})
	assert.Error(t, err)
}

func TestSearchListError(t *testing.T) {
	boom := errors.New("database is locked")
	_, err := NewSearcher(stubLister{err: boom}).Search(context.Background(), Query{})
	assert.ErrorIs(t, err, boom)
}

func TestScanProperties(t *testing.T) {
	lat, lon := 37.5, 127.0
	var stations []models.Station
	for i := 0; i < 40; i++ {
		for j := 0; j < 40; j++ {
			stations = append(stations, station(
				string(rune('A'+i%26))+string(rune('a'+j%26))+string(rune('0'+i/26))+string(rune('0'+j/26)),
				lat-0.004+float64(i)*0.0002,
				lon-0.004+float64(j)*0.0002,
			))
		}
	}
	exclude := stations[820].ID

	res := Scan(stations, lat, lon, exclude, 300)
	require.NotEmpty(t, res.Stations)

	inside := 0
	for _, st := range stations {
		if st.ID != exclude && geo.Distance(lat, lon, st.Latitude, st.Longitude) <= 300 {
			inside++
		}
	}
	assert.Equal(t, inside, len(res.Stations), "bounding box prefilter must not drop stations")

	for _, r := range res.Stations {
		assert.NotEqual(t, exclude, r.StationID)
		assert.LessOrEqual(t, geo.Distance(lat, lon, r.Latitude, r.Longitude), 300.0)
	}
}

func TestScanAcrossAntimeridian(t *testing.T) {
	stations := []models.Station{
		station("east", 0, 179.9995),
		station("west", 0, -179.999),
		station("far", 0, 179.99),
	}

	res := Scan(stations, 0, -179.9995, "", 300)
	require.Len(t, res.Stations, 2)
	assert.Equal(t, "east", res.Stations[0].StationID)
	assert.InDelta(t, 111.195, res.Stations[0].DistanceMeters, 0.001)
	assert.Equal(t, "west", res.Stations[1].StationID)
}
