package arrivals

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/busnow/api/models"
)

type stubFinder map[string]models.Station

func (f stubFinder) FindByID(_ context.Context, id string) (*models.Station, error) {
	st, ok := f[id]
	if !ok {
		return nil, models.ErrStationNotFound
	}
	return &st, nil
}

type stubFeed struct {
	records []models.ArrivalRecord
	calls   []string
}

func (f *stubFeed) Arrivals(_ context.Context, stationID string) []models.ArrivalRecord {
	f.calls = append(f.calls, stationID)
	return f.records
}

func record(route, msg1 string) models.ArrivalRecord {
	return models.ArrivalRecord{RouteID: route, RouteName: route, ArrivalMsg1: msg1}
}

func TestGetArrivalsDispatchesBySource(t *testing.T) {
	seoul := &stubFeed{records: []models.ArrivalRecord{record("s1", "곧 도착")}}
	gyeonggi := &stubFeed{records: []models.ArrivalRecord{record("g1", "2m5s")}}
	finder := stubFinder{
		"01001":     {ID: "01001", Source: models.SourceSeoul},
		"228000704": {ID: "228000704", Source: models.SourceGyeonggi},
		"77777":     {ID: "77777", Source: "BUS"},
		"88888":     {ID: "88888"},
	}
	svc := NewService(finder, map[models.SourceTag]Feed{
		models.SourceSeoul:    seoul,
		models.SourceGyeonggi: gyeonggi,
	})
	ctx := context.Background()

	got, err := svc.GetArrivals(ctx, "228000704")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "g1", got[0].RouteID)
	assert.Equal(t, 125, got[0].SortKey)

	got, err = svc.GetArrivals(ctx, "01001")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "s1", got[0].RouteID)

	// Unknown and missing tags fall back to Seoul
	_, err = svc.GetArrivals(ctx, "77777")
	require.NoError(t, err)
	_, err = svc.GetArrivals(ctx, "88888")
	require.NoError(t, err)

	assert.Equal(t, []string{"01001", "77777", "88888"}, seoul.calls)
	assert.Equal(t, []string{"228000704"}, gyeonggi.calls)
}

func TestGetArrivalsStationNotFound(t *testing.T) {
	feed := &stubFeed{}
	svc := NewService(stubFinder{}, map[models.SourceTag]Feed{models.SourceSeoul: feed})

	got, err := svc.GetArrivals(context.Background(), "nope")
	assert.ErrorIs(t, err, models.ErrStationNotFound)
	assert.Nil(t, got)
	assert.Empty(t, feed.calls)
}

func TestGetArrivalsEmptyFeed(t *testing.T) {
	svc := NewService(stubFinder{"01001": {ID: "01001", Source: models.SourceSeoul}},
		map[models.SourceTag]Feed{models.SourceSeoul: &stubFeed{records: []models.ArrivalRecord{}}})

	got, err := svc.GetArrivals(context.Background(), "01001")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRankIsSortedAndStable(t *testing.T) {
	ranked := Rank([]models.ArrivalRecord{
		record("a", "no arrival information"),
		record("b", "5분후[3번째 전]"),
		record("c", "곧 도착"),
		record("d", "운행종료"),
		record("e", "3분45초후[2번째 전]"),
		record("f", "arriving soon[1 stops away]"),
		record("g", "5m0s"),
	})

	var order []string
	for i, r := range ranked {
		order = append(order, r.RouteID)
		if i > 0 {
			assert.LessOrEqual(t, ranked[i-1].SortKey, r.SortKey)
		}
	}
	assert.Equal(t, []string{"c", "f", "e", "b", "g", "a", "d"}, order)
	assert.Equal(t, NoArrivalSortKey, ranked[len(ranked)-1].SortKey)
}

func TestArrivalsForStationWithoutFeeds(t *testing.T) {
	svc := NewService(stubFinder{}, map[models.SourceTag]Feed{})
	got := svc.ArrivalsForStation(context.Background(), "01001", models.SourceGyeonggi)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
