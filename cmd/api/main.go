package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dmolina/cash-closure/internal/api/handlers"
	"github.com/dmolina/cash-closure/internal/api/middleware"
	"github.com/dmolina/cash-closure/internal/archive"
	"github.com/dmolina/cash-closure/internal/closure"
	"github.com/dmolina/cash-closure/internal/closure/inmemory"
	infraBQ "github.com/dmolina/cash-closure/internal/infra/bigquery"
	"github.com/dmolina/cash-closure/internal/logger"
)

func main() {
	// Parse command-line flags
	var (
		port       = flag.String("port", "8080", "HTTP server port")
		cutoffHour = flag.Int("cutoff-hour", envInt("CUTOFF_HOUR", 0), "Hour of day (0-23) when the accounting day rolls over (or set CUTOFF_HOUR env)")
		project    = flag.String("project", os.Getenv("GOOGLE_CLOUD_PROJECT"), "GCP project ID (or set GOOGLE_CLOUD_PROJECT env); empty runs with in-memory adapters")
		dataset    = flag.String("dataset", os.Getenv("BQ_DATASET"), "BigQuery dataset holding the register tables (or set BQ_DATASET env)")
		registerID = flag.String("register-id", os.Getenv("REGISTER_ID"), "Cash register identifier (or set REGISTER_ID env)")
		bucket     = flag.String("bucket", os.Getenv("GCS_BUCKET"), "GCS bucket for closure snapshots (or set GCS_BUCKET env)")
	)
	flag.Parse()

	// Initialize logger
	log := logger.New()

	ctx := context.Background()

	// Wire adapters. Without a GCP project the service runs entirely in
	// memory, which is only useful for local development.
	var (
		feed  closure.Feed
		store closure.Store
	)
	if *project == "" {
		log.Warn().Msg("No GCP project configured - using in-memory feed and store")
		feed = inmemory.NewFeed()
		store = inmemory.NewStore()
	} else {
		bqFeed, err := infraBQ.NewLedgerFeed(ctx, *project, *dataset)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create BigQuery ledger feed")
		}
		defer bqFeed.Close()

		bqStore, err := infraBQ.NewClosureStore(ctx, *project, *dataset, *registerID)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create BigQuery closure store")
		}
		defer bqStore.Close()

		feed = bqFeed
		store = bqStore
	}

	var archiver *archive.Archiver
	if *bucket == "" {
		log.Warn().Msg("No GCS bucket configured - closure snapshot archiving is disabled")
	} else {
		archiver = archive.NewArchiver(*bucket)
	}

	manager := closure.NewManager(feed, store, closure.Config{CutoffHour: *cutoffHour}, log)

	// Initialize handlers
	closuresHandler := handlers.NewClosuresHandler(manager, archiver, log)

	// Create router
	mux := http.NewServeMux()

	mux.HandleFunc("/api/cash-closures/current", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			closuresHandler.GetCurrent(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/cash-closures/close", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			closuresHandler.CloseCurrent(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/cash-closures", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			closuresHandler.ListClosures(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Health check endpoint
	mux.HandleFunc("/health", handlers.HealthHandler)

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", *port).Msg("Starting cash-closure API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// envInt reads an integer environment variable, falling back on absence or a
// parse failure.
func envInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			return v
		}
	}
	return fallback
}
