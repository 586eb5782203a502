package repository

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/busnow/api/models"
)

// StationRepository reads the bus_stations registry from PostgreSQL
type StationRepository struct {
	pool *pgxpool.Pool
}

func NewStationRepository(databaseURL string) (*StationRepository, error) {
	pool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &StationRepository{pool: pool}, nil
}

func (r *StationRepository) Close() {
	r.pool.Close()
}

func (r *StationRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *StationRepository) FindByID(ctx context.Context, id string) (*models.Station, error) {
	if id == "" {
		return nil, errors.New("ars_id cannot be empty")
	}

	query := `
		SELECT ars_id, station_name, longitude, latitude, location
		FROM bus_stations
		WHERE ars_id = $1
	`

	st, err := scanPgStation(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", models.ErrStationNotFound, id)
		}
		return nil, fmt.Errorf("failed to query station: %w", err)
	}
	return &st, nil
}

func (r *StationRepository) FindByNameContains(ctx context.Context, substr string) ([]models.Station, error) {
	query := `
		SELECT ars_id, station_name, longitude, latitude, location
		FROM bus_stations
		WHERE station_name LIKE '%' || $1 || '%' ESCAPE '\'
		ORDER BY id
	`
	return r.queryStations(ctx, query, escapeLike(substr))
}

func (r *StationRepository) AllStations(ctx context.Context) ([]models.Station, error) {
	query := `
		SELECT ars_id, station_name, longitude, latitude, location
		FROM bus_stations
		ORDER BY id
	`
	return r.queryStations(ctx, query)
}

func (r *StationRepository) CountBySource(ctx context.Context) (map[models.SourceTag]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT location, COUNT(*) FROM bus_stations GROUP BY location`)
	if err != nil {
		return nil, fmt.Errorf("failed to count stations: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.SourceTag]int)
	for rows.Next() {
		var location *string
		var n int
		if err := rows.Scan(&location, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count row: %w", err)
		}
		tag := models.SourceTag("")
		if location != nil {
			tag = models.SourceTag(*location)
		}
		counts[tag] += n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating count rows: %w", err)
	}
	return counts, nil
}

func (r *StationRepository) queryStations(ctx context.Context, query string, args ...interface{}) ([]models.Station, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stations: %w", err)
	}
	defer rows.Close()

	stations := []models.Station{}
	for rows.Next() {
		st, err := scanPgStation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan station row: %w", err)
		}
		stations = append(stations, st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating station rows: %w", err)
	}

	return stations, nil
}

func scanPgStation(row pgx.Row) (models.Station, error) {
	var st models.Station
	var lon, lat *float64
	var location *string
	if err := row.Scan(&st.ID, &st.Name, &lon, &lat, &location); err != nil {
		return st, err
	}
	st.Longitude, st.Latitude = math.NaN(), math.NaN()
	if lon != nil {
		st.Longitude = *lon
	}
	if lat != nil {
		st.Latitude = *lat
	}
	if location != nil {
		st.Source = models.SourceTag(*location)
	}
	return st, nil
}
