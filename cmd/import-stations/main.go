package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/busnow/api/internal/stationimport"
	"github.com/busnow/api/models"
	"github.com/busnow/api/repository"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Overload(".env.local")

	defaultDB := os.Getenv("SQLITE_DATABASE")
	if defaultDB == "" {
		defaultDB = "./data/stations.db"
	}

	// Command line flags
	dbPath := flag.String("db", defaultDB, "Path to SQLite database")
	manifestPath := flag.String("manifest", "", "YAML manifest listing the station CSV files")
	dataDir := flag.String("data-dir", "./data", "Directory holding seoul_bus_station.csv and kyg_bus_station.csv when no manifest is given")
	replace := flag.Bool("replace", false, "Delete all existing stations before importing")
	flag.Parse()

	var (
		manifest *stationimport.Manifest
		err      error
		name     string
	)
	if *manifestPath != "" {
		manifest, err = stationimport.LoadManifest(*manifestPath)
		if err != nil {
			log.Fatalf("Failed to load manifest: %v", err)
		}
		name = filepath.Base(*manifestPath)
	} else {
		manifest = stationimport.DefaultManifest(*dataDir)
		name = "default"
	}

	if dir := filepath.Dir(*dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create database directory: %v", err)
		}
	}
	database, err := repository.NewSQLiteDB(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	log.Printf("Connected to database: %s", *dbPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Ensure schema exists (creates tables if needed)
	if err := database.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	summary, err := stationimport.NewImporter(database).Run(ctx, manifest, stationimport.Options{
		Replace:      *replace,
		ManifestName: name,
	})
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	fmt.Printf("\nImport run %s\n", summary.RunID)
	if *replace {
		fmt.Printf("  cleared:    %d\n", summary.Cleared)
	}
	for _, src := range summary.Sources {
		fmt.Printf("  %-10s %s (%s)\n", src.Name, src.Path, src.Location)
		switch {
		case src.Missing:
			fmt.Printf("    file not found, skipped\n")
			continue
		case src.Err != nil:
			fmt.Printf("    ERROR: %v\n", src.Err)
		}
		fmt.Printf("    inserted:   %d\n", src.Inserted)
		fmt.Printf("    duplicates: %d\n", src.Duplicates)
		fmt.Printf("    rejected:   %d\n", len(src.Rejected))
	}
	fmt.Printf("  total: %d inserted, %d skipped, %d failed\n", summary.Inserted(), summary.Skipped(), summary.Failed())

	counts, err := repository.NewSQLiteStationRepository(database.GetDB()).CountBySource(ctx)
	if err != nil {
		log.Printf("Warning: failed to count stations: %v", err)
	} else {
		fmt.Println("\nStations by location:")
		for _, tag := range models.AllSources() {
			fmt.Printf("  %s: %d\n", tag, counts[tag])
		}
	}

	if run, err := database.LatestImportRun(ctx); err == nil && run != nil && run.Status == models.ImportFailed {
		os.Exit(1)
	}
}
