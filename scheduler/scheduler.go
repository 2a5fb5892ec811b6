// Package scheduler provides automated catalog loading and staleness
// monitoring for the rxmindr API. The initial load runs in the background so
// the server starts serving the seed set immediately, and a daily cron
// refreshes the catalog from the source file.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/aroovee/rxmindr-sub000/interfaces"
	"github.com/aroovee/rxmindr-sub000/logging"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// Scheduler handles catalog loads and staleness monitoring using dependency injection
type Scheduler struct {
	catalog     interfaces.CatalogStore
	loader      interfaces.CatalogLoader
	catalogPath string
	scheduler   *gocron.Scheduler
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewScheduler creates a new scheduler instance with injected dependencies
func NewScheduler(catalog interfaces.CatalogStore, loader interfaces.CatalogLoader, catalogPath string) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		catalog:     catalog,
		loader:      loader,
		catalogPath: catalogPath,
		scheduler:   gocron.NewScheduler(time.Local),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start kicks off the initial background load, the daily reload, and
// staleness monitoring. It never blocks on the load itself: search serves
// the seed set until the full catalog is published.
func (s *Scheduler) Start() error {
	go func() {
		if err := s.loadCatalog(); err != nil {
			logging.Error("Initial catalog load failed", "error", err)
		}
	}()

	// Reload the catalog daily at 06:00
	_, err := s.scheduler.Every(1).Days().At("06:00").Do(func() {
		if err := s.loadCatalog(); err != nil {
			logging.Error("Failed to reload catalog", "error", err)
		}
	})
	if err != nil {
		logging.Error("Failed to schedule catalog reloads", "error", err)
		return fmt.Errorf("failed to schedule catalog reloads: %w", err)
	}

	s.scheduler.StartAsync()

	s.startStalenessMonitoring()

	return nil
}

// Stop stops the scheduler and cancels any in-flight load.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	s.cancel()
}

// loadCatalog streams the catalog source into the store. The loader itself
// guards against concurrent loads, so overlapping triggers are no-ops.
func (s *Scheduler) loadCatalog() error {
	logging.Info("Starting catalog load", "source", s.catalogPath)
	start := time.Now()

	if err := s.loader.Load(s.ctx, s.catalogPath); err != nil {
		return fmt.Errorf("catalog load failed: %w", err)
	}

	snapshot := s.catalog.GetSnapshot()
	nameCount := 0
	if snapshot != nil {
		nameCount = len(snapshot.Names)
	}

	logging.Info("Catalog load completed",
		"duration", time.Since(start).String(),
		"name_count", nameCount,
		"rows_processed", s.catalog.GetRowsProcessed())

	return nil
}

// startStalenessMonitoring watches for catalogs that have not refreshed
func (s *Scheduler) startStalenessMonitoring() {
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				lastUpdate := s.catalog.GetLastUpdated()
				if time.Since(lastUpdate) > 25*time.Hour {
					logging.Warn("Catalog hasn't been updated in over 25 hours")
				}
			}
		}
	}()
}
