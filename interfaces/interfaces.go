// Package interfaces defines core abstractions for the rxmindr services
// to improve testability, maintainability, and separation of concerns.
package interfaces

import (
	"context"
	"time"

	"github.com/aroovee/rxmindr-sub000/entities"
	"github.com/aroovee/rxmindr-sub000/search"
)

// CatalogStore defines the contract for shared catalog state. It provides
// thread-safe snapshot access with atomic publishes for zero-downtime
// updates, plus the CAS guard that keeps loads idempotent.
type CatalogStore interface {
	// Snapshot access
	GetSnapshot() *search.Snapshot
	GetSeedSnapshot() *search.Snapshot
	GetLastUpdated() time.Time
	GetRowsProcessed() int64
	IsLoaded() bool
	IsUpdating() bool
	GetServerStartTime() time.Time

	// Update methods
	PublishSeed(nameSet map[string]struct{})
	Publish(nameSet map[string]struct{})
	MarkLoaded()
	AddRowsProcessed(n int)
	BeginUpdate() bool
	EndUpdate()
}

// CatalogLoader defines the contract for streaming the reference drug file
// into the catalog store.
type CatalogLoader interface {
	// Load streams the catalog source into the store. An empty sourcePath
	// settles on the built-in seed set. Safe to call concurrently: a second
	// call while one load is in progress is a no-op.
	Load(ctx context.Context, sourcePath string) error
}

// Scheduler defines the contract for background catalog loading and
// staleness monitoring.
type Scheduler interface {
	Start() error
	Stop()
}

// PrescriptionStore defines the persistence collaborator: it owns
// prescriptions and their dose-taken history.
type PrescriptionStore interface {
	SavePrescription(p *entities.Prescription) error
	GetPrescription(id string) (*entities.Prescription, error)
	ListPrescriptions() ([]entities.Prescription, error)
	ListRecords(prescriptionID string) ([]entities.MedicationRecord, error)
	RecordDose(prescriptionID string, at time.Time) (*entities.Prescription, error)
	Close() error
}

// AlertSink receives critical-refill triggers fired by dose-taken events.
type AlertSink interface {
	TriggerCritical(p entities.Prescription)
}

// HealthChecker defines the contract for health check functionality.
type HealthChecker interface {
	// HealthCheck returns current system health status
	HealthCheck() (status string, details map[string]any, httpStatus int)

	// CalculateNextUpdate returns the next scheduled catalog reload time
	CalculateNextUpdate() time.Time
}

// InputValidator defines the contract for validating user-supplied strings
// before they reach the search or persistence layers.
type InputValidator interface {
	ValidateQuery(input string) error
	ValidateRecord(r *entities.MedicationRecord) error
	ValidatePrescription(p *entities.Prescription) error
}
