package main

import (
	"context"
	"errors"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/aroovee/rxmindr-sub000/catalog"
	"github.com/aroovee/rxmindr-sub000/config"
	"github.com/aroovee/rxmindr-sub000/data"
	"github.com/aroovee/rxmindr-sub000/handlers"
	"github.com/aroovee/rxmindr-sub000/health"
	"github.com/aroovee/rxmindr-sub000/logging"
	"github.com/aroovee/rxmindr-sub000/refill"
	"github.com/aroovee/rxmindr-sub000/scheduler"
	"github.com/aroovee/rxmindr-sub000/search"
	"github.com/aroovee/rxmindr-sub000/server"
	"github.com/aroovee/rxmindr-sub000/store"
	"github.com/aroovee/rxmindr-sub000/validation"
)

func main() {
	// Load .env if present; environment variables win either way
	if err := godotenv.Load(); err != nil {
		logging.Warn("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Error("Configuration error", "error", err)
		os.Exit(1)
	}

	logging.InitLoggerWithRetention("logs", cfg.LogRetentionWeeks)

	// Catalog state and search pipeline
	container := data.NewCatalogContainer()
	container.SetServerStartTime(time.Now())

	loader := catalog.NewLoader(container, cfg.CatalogMaxRows)

	searcher, err := search.NewService(container, cfg.SearchCacheSize, cfg.SearchMaxResults)
	if err != nil {
		logging.Error("Failed to create search service", "error", err)
		os.Exit(1)
	}

	// Refill pipeline and persistence
	alertManager := refill.NewAlertManager(refill.DefaultAlertTTL)

	prescriptionStore, err := store.NewBoltStore(cfg.DBPath, alertManager)
	if err != nil {
		logging.Error("Failed to open prescription store", "error", err, "path", cfg.DBPath)
		os.Exit(1)
	}
	defer func() {
		if err := prescriptionStore.Close(); err != nil {
			logging.Error("Failed to close prescription store", "error", err)
		}
	}()

	analyzer := refill.NewAnalyzer()
	predictor := refill.NewPredictor()
	validator := validation.NewInputValidator()
	healthChecker := health.NewHealthChecker(container)

	handler := handlers.NewHTTPHandler(
		container,
		searcher,
		prescriptionStore,
		analyzer,
		predictor,
		alertManager,
		validator,
		healthChecker,
	)

	// Background catalog loading: the server starts serving the seed set
	// immediately while the full catalog streams in
	sched := scheduler.NewScheduler(container, loader, cfg.CatalogPath)
	if err := sched.Start(); err != nil {
		logging.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	srv := server.NewServer(cfg, handler)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Shutdown error", "error", err)
	}
}
