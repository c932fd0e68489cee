package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/yuchenw/songvault/internal/assets"
	"github.com/yuchenw/songvault/internal/config"
	"github.com/yuchenw/songvault/internal/httpapp"
	"github.com/yuchenw/songvault/internal/httpclient"
	"github.com/yuchenw/songvault/internal/kugou"
	"github.com/yuchenw/songvault/internal/library"
	"github.com/yuchenw/songvault/internal/logger"
	"github.com/yuchenw/songvault/internal/pipeline"
	"github.com/yuchenw/songvault/internal/ratelimit"
	"github.com/yuchenw/songvault/internal/store"
)

func main() {
	cfg := config.Load()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Initialize Logger
	appLogger := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	// Initialize DB
	db, err := store.NewSQLiteDB(cfg.DBPath)
	if err != nil {
		appLogger.Error("Failed to init DB", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize vendor client with paced transport
	hc := httpclient.NewClient(&http.Client{Timeout: cfg.HTTPTimeout}, cfg.VendorInterval)
	vendor := kugou.NewClient(cfg, hc, appLogger)

	// Initialize media fetcher and catalog service
	fetcher := assets.NewFetcher(hc.Underlying(), db, cfg.MediaDir, appLogger)
	catalog := library.NewService(db, fetcher, appLogger)

	// Initialize acquisition pipeline
	orchestrator := pipeline.NewOrchestrator(vendor, catalog, fetcher, db, cfg.PacingDelay, appLogger)

	// Initialize Router
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Serve stored media files
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.MediaDir))))

	// Routes
	limiter := ratelimit.New(cfg.RateWindow, cfg.RateBurst)
	h := httpapp.NewHandler(orchestrator, vendor, db, limiter, appLogger)
	h.RegisterRoutes(r)

	// Start Server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Printf("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
