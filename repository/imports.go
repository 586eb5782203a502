package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/busnow/api/models"
)

// ExistingStationIDs returns every ars_id already in the registry
func (s *SQLiteDB) ExistingStationIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT ars_id FROM bus_stations`)
	if err != nil {
		return nil, fmt.Errorf("failed to query station ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan station id: %w", err)
		}
		ids[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating station ids: %w", err)
	}
	return ids, nil
}

// ClearStations deletes every station and returns how many were removed
func (s *SQLiteDB) ClearStations(ctx context.Context) (int64, error) {
	s.LockWrite()
	defer s.UnlockWrite()

	res, err := s.db.ExecContext(ctx, `DELETE FROM bus_stations`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear stations: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// BeginImportRun records the start of an import and returns its run ID
func (s *SQLiteDB) BeginImportRun(ctx context.Context, manifest string, startedAt time.Time) (string, error) {
	s.LockWrite()
	defer s.UnlockWrite()

	runID := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO station_import_runs (run_id, started_at_utc, manifest, status) VALUES (?, ?, ?, ?)`,
		runID, startedAt.UTC().Format(time.RFC3339), manifest, models.ImportRunning,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create import run: %w", err)
	}
	return runID, nil
}

// InsertStations writes one batch in a single transaction. Rows whose ars_id
// already exists are left untouched. Returns the number of rows inserted.
func (s *SQLiteDB) InsertStations(ctx context.Context, runID string, stations []models.Station) (int, error) {
	if len(stations) == 0 {
		return 0, nil
	}

	s.LockWrite()
	defer s.UnlockWrite()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO bus_stations (ars_id, station_name, longitude, latitude, location, import_run_id)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (ars_id) DO NOTHING
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, st := range stations {
		res, err := stmt.ExecContext(ctx, st.ID, st.Name, st.Longitude, st.Latitude, string(st.Source), runID)
		if err != nil {
			return 0, fmt.Errorf("failed to insert station %s: %w", st.ID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit batch: %w", err)
	}
	return inserted, nil
}

// FinishImportRun stores the final counters for a run
func (s *SQLiteDB) FinishImportRun(ctx context.Context, run models.ImportRun) error {
	s.LockWrite()
	defer s.UnlockWrite()

	finishedAt := time.Now().UTC()
	if run.FinishedAt != nil {
		finishedAt = run.FinishedAt.UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE station_import_runs
		SET finished_at_utc = ?, inserted = ?, skipped = ?, failed = ?, status = ?
		WHERE run_id = ?
	`, finishedAt.Format(time.RFC3339), run.Inserted, run.Skipped, run.Failed, run.Status, run.RunID)
	if err != nil {
		return fmt.Errorf("failed to finish import run: %w", err)
	}
	return nil
}

// LatestImportRun returns the most recent import run, or nil if none exists
func (s *SQLiteDB) LatestImportRun(ctx context.Context) (*models.ImportRun, error) {
	var run models.ImportRun
	var startedAt string
	var finishedAt, manifest sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT run_id, started_at_utc, finished_at_utc, manifest, inserted, skipped, failed, status
		FROM station_import_runs
		ORDER BY started_at_utc DESC, rowid DESC
		LIMIT 1
	`).Scan(&run.RunID, &startedAt, &finishedAt, &manifest, &run.Inserted, &run.Skipped, &run.Failed, &run.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query import run: %w", err)
	}

	run.Manifest = manifest.String
	if t, err := time.Parse(time.RFC3339, startedAt); err == nil {
		run.StartedAt = t
	}
	if finishedAt.Valid {
		if t, err := time.Parse(time.RFC3339, finishedAt.String); err == nil {
			run.FinishedAt = &t
		}
	}
	return &run, nil
}
