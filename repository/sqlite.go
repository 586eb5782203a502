package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/busnow/api/models"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteDB wraps a SQL database connection for SQLite
type SQLiteDB struct {
	db      *sql.DB
	writeMu sync.Mutex // serializes imports against each other
}

// NewSQLiteDB creates a new SQLite database connection
func NewSQLiteDB(dbPath string) (*SQLiteDB, error) {
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

// EnsureSchema creates the registry tables if they do not exist
func (s *SQLiteDB) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Ping checks the connection
func (s *SQLiteDB) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *SQLiteDB) GetDB() *sql.DB {
	return s.db
}

// LockWrite acquires the write mutex. Must be paired with UnlockWrite.
func (s *SQLiteDB) LockWrite() {
	s.writeMu.Lock()
}

// UnlockWrite releases the write mutex
func (s *SQLiteDB) UnlockWrite() {
	s.writeMu.Unlock()
}

// SQLiteStationRepository reads the bus_stations registry from SQLite
type SQLiteStationRepository struct {
	db *sql.DB
}

// NewSQLiteStationRepository creates a new SQLiteStationRepository
func NewSQLiteStationRepository(db *sql.DB) *SQLiteStationRepository {
	return &SQLiteStationRepository{db: db}
}

const stationColumns = `ars_id, station_name, longitude, latitude, location`

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanStation reads one station row. NULL coordinates become NaN so that
// distance computation rejects the station instead of treating it as (0,0).
func scanStation(row rowScanner) (models.Station, error) {
	var st models.Station
	var lon, lat sql.NullFloat64
	var location sql.NullString
	if err := row.Scan(&st.ID, &st.Name, &lon, &lat, &location); err != nil {
		return st, err
	}
	st.Longitude = math.NaN()
	st.Latitude = math.NaN()
	if lon.Valid {
		st.Longitude = lon.Float64
	}
	if lat.Valid {
		st.Latitude = lat.Float64
	}
	st.Source = models.SourceTag(location.String)
	return st, nil
}

// FindByID returns the station with the given ars_id
func (r *SQLiteStationRepository) FindByID(ctx context.Context, id string) (*models.Station, error) {
	if id == "" {
		return nil, errors.New("ars_id cannot be empty")
	}

	query := `SELECT ` + stationColumns + ` FROM bus_stations WHERE ars_id = ?`

	st, err := scanStation(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", models.ErrStationNotFound, id)
		}
		return nil, fmt.Errorf("failed to query station: %w", err)
	}
	return &st, nil
}

// FindByNameContains returns stations whose name contains substr, in registry order
func (r *SQLiteStationRepository) FindByNameContains(ctx context.Context, substr string) ([]models.Station, error) {
	query := `SELECT ` + stationColumns + `
		FROM bus_stations
		WHERE station_name LIKE ? ESCAPE '\'
		ORDER BY id`

	return r.queryStations(ctx, query, "%"+escapeLike(substr)+"%")
}

// AllStations returns every station in registry order
func (r *SQLiteStationRepository) AllStations(ctx context.Context) ([]models.Station, error) {
	query := `SELECT ` + stationColumns + ` FROM bus_stations ORDER BY id`
	return r.queryStations(ctx, query)
}

// CountBySource returns how many stations each location tag has
func (r *SQLiteStationRepository) CountBySource(ctx context.Context) (map[models.SourceTag]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT location, COUNT(*) FROM bus_stations GROUP BY location`)
	if err != nil {
		return nil, fmt.Errorf("failed to count stations: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.SourceTag]int)
	for rows.Next() {
		var location string
		var n int
		if err := rows.Scan(&location, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count row: %w", err)
		}
		counts[models.SourceTag(location)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating count rows: %w", err)
	}
	return counts, nil
}

func (r *SQLiteStationRepository) queryStations(ctx context.Context, query string, args ...interface{}) ([]models.Station, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stations: %w", err)
	}
	defer rows.Close()

	stations := []models.Station{}
	for rows.Next() {
		st, err := scanStation(rows)
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

// escapeLike escapes LIKE wildcards so the search term matches literally
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
