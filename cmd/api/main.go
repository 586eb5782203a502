package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/busnow/api/handlers"
	"github.com/busnow/api/internal/arrivals"
	"github.com/busnow/api/internal/config"
	"github.com/busnow/api/internal/metrics"
	"github.com/busnow/api/internal/nearby"
	"github.com/busnow/api/internal/realtime/gyeonggi"
	"github.com/busnow/api/internal/realtime/seoul"
	"github.com/busnow/api/internal/upstream"
	"github.com/busnow/api/models"
	"github.com/busnow/api/repository"
)

// stationStore is what the API needs from either registry backend
type stationStore interface {
	FindByID(ctx context.Context, id string) (*models.Station, error)
	FindByNameContains(ctx context.Context, substr string) ([]models.Station, error)
	AllStations(ctx context.Context) ([]models.Station, error)
	CountBySource(ctx context.Context) (map[models.SourceTag]int, error)
}

func main() {
	// Load base .env first, then .env.local (which overrides for local development)
	_ = godotenv.Load(".env")
	_ = godotenv.Overload(".env.local")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	stations, db, closeDB, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open station registry: %v", err)
	}
	defer closeDB()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if counts, err := stations.CountBySource(ctx); err != nil {
		log.Printf("Warning: failed to count stations: %v", err)
	} else {
		total := 0
		for _, n := range counts {
			total += n
		}
		log.Printf("Station registry: %d stations (SEL=%d, KYG=%d)", total, counts[models.SourceSeoul], counts[models.SourceGyeonggi])
		if total == 0 {
			log.Println("Warning: station registry is empty, run import-stations first")
		}
	}
	cancel()

	serviceKey := cfg.ServiceKey()
	if serviceKey == "" {
		log.Println("Warning: no data.go.kr service key configured, arrival lookups will return empty lists")
	}

	// Upstream feeds share one statistics recorder
	feedStats := metrics.NewFeedStats(seoul.FeedRoutes, seoul.FeedArrivals, gyeonggi.FeedArrivals)

	seoulClient := seoul.NewClient(
		upstream.NewClient(cfg.UpstreamTimeout, nil, feedStats),
		serviceKey, cfg.SeoulRoutesURL, cfg.SeoulArrivalsURL,
	)
	gyeonggiTransport := cfg.GyeonggiTransport()
	if gyeonggiTransport.ForcePlaintext || gyeonggiTransport.InsecureSkipVerify {
		log.Printf("Gyeonggi: legacy transport enabled (plaintext=%t, skipVerify=%t)",
			gyeonggiTransport.ForcePlaintext, gyeonggiTransport.InsecureSkipVerify)
	}
	gyeonggiClient := gyeonggi.NewClient(
		upstream.NewClient(cfg.UpstreamTimeout, gyeonggiTransport, feedStats),
		serviceKey, cfg.GyeonggiArrivalURL,
	)

	arrivalService := arrivals.NewService(stations, map[models.SourceTag]arrivals.Feed{
		models.SourceSeoul:    seoulClient,
		models.SourceGyeonggi: gyeonggiClient,
	})
	searcher := nearby.NewSearcher(stations)

	stationHandler := handlers.NewStationHandler(stations, searcher, arrivalService, cfg.NearbyRadiusMeters)
	healthHandler := handlers.NewHealthHandler(db, stations, feedStats, cfg.Status())

	// Setup router
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/health", healthHandler.Health)

	// Legacy health check endpoint (kept for load balancers)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/config/status", healthHandler.ConfigStatus)
	r.Get("/api/health/feeds", healthHandler.FeedHealth)

	r.Route("/api/stations", func(r chi.Router) {
		r.Get("/search", stationHandler.SearchStations)
		r.Get("/nearby", stationHandler.NearbyStations)
		r.Get("/arrival_info", stationHandler.ArrivalInfo)
		r.Get("/{arsId}", stationHandler.GetStation)
	})

	// Static file serving (if configured)
	if cfg.StaticDir != "" {
		fs := http.FileServer(http.Dir(cfg.StaticDir))
		r.Handle("/*", fs)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		// Feed calls for one request run concurrently, so one upstream timeout plus headroom
		WriteTimeout: cfg.UpstreamTimeout + 5*time.Second,
	}

	log.Printf("API server starting on :%s (%s, %s registry)", cfg.Port, cfg.Environment, cfg.DatabaseDriver())
	log.Println("Station endpoints:")
	log.Println("  GET /api/stations/search?name=")
	log.Println("  GET /api/stations/nearby?ars_id=&x=&y=[&radius=]")
	log.Println("  GET /api/stations/arrival_info?ars_id=")
	log.Println("  GET /api/stations/{arsId}")
	log.Println("Health:")
	log.Println("  GET /health (with database check)")
	log.Println("  GET /api/health/feeds")
	log.Println("  GET /config/status")

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-sigCtx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}

// openStore connects to Postgres when DATABASE_URL is set and to the SQLite
// file otherwise
func openStore(cfg *config.Config) (stationStore, handlers.Pinger, func(), error) {
	if cfg.DatabaseURL != "" {
		log.Println("Connecting to PostgreSQL station registry")
		repo, err := repository.NewStationRepository(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		return repo, repo, repo.Close, nil
	}

	log.Printf("Connecting to SQLite database: %s", cfg.DatabasePath)
	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, nil, nil, err
		}
	}
	db, err := repository.NewSQLiteDB(cfg.DatabasePath)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := db.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, nil, nil, err
	}
	log.Println("SQLite database connection established")

	closeFn := func() {
		if err := db.Close(); err != nil {
			log.Printf("Failed to close database: %v", err)
		}
	}
	return repository.NewSQLiteStationRepository(db.GetDB()), db, closeFn, nil
}
