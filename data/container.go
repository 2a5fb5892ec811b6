// Package data provides thread-safe storage for the drug catalog. It holds
// the current (name set, prefix index) snapshot behind an atomic pointer so
// readers always observe a fully consistent pair while the loader publishes
// newer snapshots with zero downtime.
package data

import (
	"sync/atomic"
	"time"

	"github.com/aroovee/rxmindr-sub000/interfaces"
	"github.com/aroovee/rxmindr-sub000/logging"
	"github.com/aroovee/rxmindr-sub000/metrics"
	"github.com/aroovee/rxmindr-sub000/search"
)

// Compile-time check to ensure CatalogContainer implements CatalogStore
var _ interfaces.CatalogStore = (*CatalogContainer)(nil)

// CatalogContainer owns the shared catalog state. Snapshots are immutable;
// updates replace the whole snapshot atomically. A CAS-guarded updating flag
// keeps catalog loads idempotent against concurrent invocation.
type CatalogContainer struct {
	snapshot        atomic.Value // *search.Snapshot
	seedSnapshot    atomic.Value // *search.Snapshot
	lastUpdated     atomic.Value // time.Time
	serverStartTime atomic.Value // time.Time
	rowsProcessed   atomic.Int64
	version         atomic.Uint64
	loaded          atomic.Bool
	updating        atomic.Bool
}

// NewCatalogContainer creates a container with empty snapshots.
func NewCatalogContainer() *CatalogContainer {
	cc := &CatalogContainer{}
	empty := search.NewSnapshot(0, nil)
	cc.snapshot.Store(empty)
	cc.seedSnapshot.Store(empty)
	cc.lastUpdated.Store(time.Time{})
	cc.serverStartTime.Store(time.Time{})
	return cc
}

// GetSnapshot returns the latest published catalog snapshot.
func (cc *CatalogContainer) GetSnapshot() *search.Snapshot {
	if v := cc.snapshot.Load(); v != nil {
		if snap, ok := v.(*search.Snapshot); ok {
			return snap
		}
	}

	logging.Warn("Catalog snapshot is empty or invalid")
	return search.NewSnapshot(0, nil)
}

// GetSeedSnapshot returns the fallback seed snapshot used while the full
// catalog is still streaming in.
func (cc *CatalogContainer) GetSeedSnapshot() *search.Snapshot {
	if v := cc.seedSnapshot.Load(); v != nil {
		if snap, ok := v.(*search.Snapshot); ok {
			return snap
		}
	}

	logging.Warn("Seed snapshot is empty or invalid")
	return search.NewSnapshot(0, nil)
}

// PublishSeed installs the fallback seed set as both the seed snapshot and
// the current snapshot, so search is usable before any streaming completes.
func (cc *CatalogContainer) PublishSeed(nameSet map[string]struct{}) {
	snap := search.NewSnapshot(cc.version.Add(1), nameSet)
	cc.seedSnapshot.Store(snap)
	cc.snapshot.Store(snap)
	cc.lastUpdated.Store(time.Now())
	metrics.CatalogNamesTotal.Set(float64(len(snap.Names)))
}

// Publish atomically replaces the current snapshot with one built from the
// given canonical name set. Partial sets published mid-stream are valid and
// are superseded by later publishes.
func (cc *CatalogContainer) Publish(nameSet map[string]struct{}) {
	snap := search.NewSnapshot(cc.version.Add(1), nameSet)
	cc.snapshot.Store(snap)
	cc.lastUpdated.Store(time.Now())
	metrics.CatalogNamesTotal.Set(float64(len(snap.Names)))
	metrics.IndexRebuildsTotal.Inc()
}

// MarkLoaded flags the catalog as fully loaded. Search switches from the
// seed fast path to the indexed path once this is set.
func (cc *CatalogContainer) MarkLoaded() {
	cc.loaded.Store(true)
}

// IsLoaded returns true once a catalog load has run to completion (or the
// loader has settled on the seed set permanently).
func (cc *CatalogContainer) IsLoaded() bool {
	return cc.loaded.Load()
}

// GetLastUpdated returns the timestamp of the last snapshot publish.
func (cc *CatalogContainer) GetLastUpdated() time.Time {
	if v := cc.lastUpdated.Load(); v != nil {
		if lastUpdated, ok := v.(time.Time); ok {
			return lastUpdated
		}
	}

	logging.Warn("Could not get the last updated value")
	return time.Time{}
}

// IsUpdating returns true if a catalog load is currently in progress.
func (cc *CatalogContainer) IsUpdating() bool {
	return cc.updating.Load()
}

// BeginUpdate marks the start of a catalog load.
// Returns false if another load is already in progress.
func (cc *CatalogContainer) BeginUpdate() bool {
	return cc.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the end of a catalog load.
func (cc *CatalogContainer) EndUpdate() {
	cc.updating.Store(false)
}

// AddRowsProcessed accumulates the number of catalog rows streamed so far.
func (cc *CatalogContainer) AddRowsProcessed(n int) {
	cc.rowsProcessed.Add(int64(n))
	metrics.CatalogRowsProcessed.Add(float64(n))
}

// GetRowsProcessed returns the total rows streamed across all loads.
func (cc *CatalogContainer) GetRowsProcessed() int64 {
	return cc.rowsProcessed.Load()
}

// SetServerStartTime sets the server start time.
func (cc *CatalogContainer) SetServerStartTime(startTime time.Time) {
	cc.serverStartTime.Store(startTime)
}

// GetServerStartTime returns the server start time.
func (cc *CatalogContainer) GetServerStartTime() time.Time {
	if v := cc.serverStartTime.Load(); v != nil {
		if startTime, ok := v.(time.Time); ok {
			return startTime
		}
	}

	logging.Warn("Could not get the server start time value")
	return time.Time{}
}
