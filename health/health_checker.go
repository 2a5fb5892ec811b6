// Package health provides health checking functionality for the rxmindr API.
package health

import (
	"math"
	"net/http"
	"time"

	"github.com/aroovee/rxmindr-sub000/interfaces"
)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	catalog interfaces.CatalogStore
}

// NewHealthChecker creates a new health checker with injected dependencies
func NewHealthChecker(catalog interfaces.CatalogStore) interfaces.HealthChecker {
	return &HealthCheckerImpl{
		catalog: catalog,
	}
}

// HealthCheck returns HTTP-specific health data.
// Used by the /health HTTP endpoint.
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	snapshot := h.catalog.GetSnapshot()
	lastUpdate := h.catalog.GetLastUpdated()
	isLoaded := h.catalog.IsLoaded()
	isUpdating := h.catalog.IsUpdating()

	nameCount := 0
	if snapshot != nil {
		nameCount = len(snapshot.Names)
	}

	dataAge := time.Since(lastUpdate)

	switch {
	case nameCount == 0:
		// Not even the seed set is published
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case !isLoaded:
		// Seed set is serving while the full catalog streams in
		status = "degraded"
		httpStatus = http.StatusOK

	case dataAge > 48*time.Hour:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case dataAge > 24*time.Hour:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	data = map[string]any{
		"last_update":    lastUpdate.Format(time.RFC3339),
		"data_age_hours": math.Round(dataAge.Hours()*10) / 10,
		"catalog_names":  nameCount,
		"rows_processed": h.catalog.GetRowsProcessed(),
		"is_loaded":      isLoaded,
		"is_updating":    isUpdating,
	}

	return status, data, httpStatus
}

// CalculateNextUpdate returns the next scheduled catalog reload time
func (h *HealthCheckerImpl) CalculateNextUpdate() time.Time {
	now := time.Now()

	// Reloads run daily at 6:00 AM
	sixAM := time.Date(now.Year(), now.Month(), now.Day(), 6, 0, 0, 0, now.Location())
	if now.Before(sixAM) {
		return sixAM
	}
	return sixAM.AddDate(0, 0, 1)
}
