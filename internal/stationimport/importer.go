package stationimport

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/busnow/api/models"
)

// Store is the registry write side used by the importer
type Store interface {
	ExistingStationIDs(ctx context.Context) (map[string]struct{}, error)
	ClearStations(ctx context.Context) (int64, error)
	BeginImportRun(ctx context.Context, manifest string, startedAt time.Time) (string, error)
	InsertStations(ctx context.Context, runID string, stations []models.Station) (int, error)
	FinishImportRun(ctx context.Context, run models.ImportRun) error
}

// SourceSummary reports what happened to one source file
type SourceSummary struct {
	Name       string
	Location   string
	Path       string
	Missing    bool
	Inserted   int
	Duplicates int
	Rejected   []RowError
	Err        error
}

// Summary reports a whole import run
type Summary struct {
	RunID   string
	Cleared int64
	Sources []SourceSummary
}

// Inserted is the total number of new stations
func (s *Summary) Inserted() int {
	n := 0
	for _, src := range s.Sources {
		n += src.Inserted
	}
	return n
}

// Skipped counts duplicate ids across all sources
func (s *Summary) Skipped() int {
	n := 0
	for _, src := range s.Sources {
		n += src.Duplicates
	}
	return n
}

// Failed counts rejected rows across all sources
func (s *Summary) Failed() int {
	n := 0
	for _, src := range s.Sources {
		n += len(src.Rejected)
	}
	return n
}

// Options control an import run
type Options struct {
	// Replace deletes every existing station before importing
	Replace bool
	// ManifestName is recorded with the run
	ManifestName string
}

// Importer loads station CSVs into the registry
type Importer struct {
	store Store
}

func NewImporter(store Store) *Importer {
	return &Importer{store: store}
}

// Run imports every source in manifest order. A missing or unreadable file is
// reported in its SourceSummary and the remaining sources still run.
func (imp *Importer) Run(ctx context.Context, m *Manifest, opts Options) (*Summary, error) {
	summary := &Summary{}

	if opts.Replace {
		n, err := imp.store.ClearStations(ctx)
		if err != nil {
			return nil, err
		}
		summary.Cleared = n
		log.Printf("Import: cleared %d existing stations", n)
	}

	runID, err := imp.store.BeginImportRun(ctx, opts.ManifestName, time.Now())
	if err != nil {
		return nil, err
	}
	summary.RunID = runID

	seen, err := imp.store.ExistingStationIDs(ctx)
	if err != nil {
		imp.finish(ctx, summary, models.ImportFailed)
		return nil, err
	}

	batchSize := m.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	for _, src := range m.Sources {
		if err := ctx.Err(); err != nil {
			imp.finish(ctx, summary, models.ImportFailed)
			return summary, err
		}
		ss := imp.importSource(ctx, runID, src, seen, batchSize)
		summary.Sources = append(summary.Sources, ss)
	}

	status := models.ImportCompleted
	for _, ss := range summary.Sources {
		if ss.Err != nil && !ss.Missing {
			status = models.ImportFailed
		}
	}
	imp.finish(ctx, summary, status)
	return summary, nil
}

func (imp *Importer) importSource(ctx context.Context, runID string, src Source, seen map[string]struct{}, batchSize int) SourceSummary {
	ss := SourceSummary{Name: src.Name, Location: src.Location, Path: src.Path}

	f, err := os.Open(src.Path)
	if err != nil {
		ss.Missing = errors.Is(err, os.ErrNotExist)
		ss.Err = fmt.Errorf("failed to open %s: %w", src.Path, err)
		log.Printf("Import: %s: %v", src.Name, ss.Err)
		return ss
	}
	defer f.Close()

	log.Printf("Import: reading %s (%s, %s)", src.Path, src.Location, src.Encoding)
	res, err := ReadStations(f, src)
	if err != nil {
		ss.Err = fmt.Errorf("failed to read %s: %w", src.Path, err)
		log.Printf("Import: %s: %v", src.Name, ss.Err)
		return ss
	}
	ss.Rejected = res.Rejected
	for _, re := range res.Rejected {
		log.Printf("Import: %s: skipping %v", src.Name, re)
	}

	batch := make([]models.Station, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := imp.store.InsertStations(ctx, runID, batch)
		if err != nil {
			return err
		}
		ss.Inserted += n
		ss.Duplicates += len(batch) - n
		batch = batch[:0]
		if ss.Inserted > 0 && ss.Inserted%batchSize == 0 {
			log.Printf("Import: %s: %d stations written", src.Name, ss.Inserted)
		}
		return nil
	}

	for _, st := range res.Stations {
		if _, dup := seen[st.ID]; dup {
			ss.Duplicates++
			continue
		}
		seen[st.ID] = struct{}{}
		batch = append(batch, st)
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				ss.Err = err
				return ss
			}
		}
	}
	if err := flush(); err != nil {
		ss.Err = err
		return ss
	}

	log.Printf("Import: %s: %d inserted, %d duplicates, %d rejected", src.Name, ss.Inserted, ss.Duplicates, len(ss.Rejected))
	return ss
}

func (imp *Importer) finish(ctx context.Context, s *Summary, status string) {
	now := time.Now().UTC()
	err := imp.store.FinishImportRun(ctx, models.ImportRun{
		RunID:      s.RunID,
		FinishedAt: &now,
		Inserted:   s.Inserted(),
		Skipped:    s.Skipped(),
		Failed:     s.Failed(),
		Status:     status,
	})
	if err != nil {
		log.Printf("Import: failed to record run %s: %v", s.RunID, err)
	}
}
