package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/busnow/api/models"
)

func TestMemoryStationRepository(t *testing.T) {
	stations := seedStations()
	stations = append(stations, models.Station{ID: "01001", Name: "duplicate"})
	repo := NewMemoryStationRepository(stations...)
	ctx := context.Background()

	st, err := repo.FindByID(ctx, "01001")
	require.NoError(t, err)
	assert.Equal(t, "서울역버스환승센터", st.Name, "first occurrence wins")

	_, err = repo.FindByID(ctx, "nope")
	assert.ErrorIs(t, err, models.ErrStationNotFound)

	got, err := repo.FindByNameContains(ctx, "역")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "01001", got[0].ID)

	all, err := repo.AllStations(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	// The returned slice is a snapshot
	all[0].Name = "mutated"
	st, _ = repo.FindByID(ctx, "01001")
	assert.Equal(t, "서울역버스환승센터", st.Name)

	counts, err := repo.CountBySource(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, counts[models.SourceSeoul])

	repo.Replace(nil)
	all, err = repo.AllStations(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
