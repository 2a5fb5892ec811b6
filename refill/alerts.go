package refill

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/aroovee/rxmindr-sub000/entities"
	"github.com/aroovee/rxmindr-sub000/interfaces"
	"github.com/aroovee/rxmindr-sub000/logging"
)

// Compile-time check to ensure AlertManager implements AlertSink
var _ interfaces.AlertSink = (*AlertManager)(nil)

// DefaultAlertTTL is how long an unacknowledged alert stays pending before
// it may be raised again.
const DefaultAlertTTL = 24 * time.Hour

// AlertManager holds pending refill alerts, deduplicated by prescription
// identity: while an alert for a prescription is pending, further triggers
// for it are dropped.
type AlertManager struct {
	pending *gocache.Cache
	now     func() time.Time
}

// NewAlertManager creates an alert manager whose pending alerts expire after
// ttl. Zero or negative ttl uses the default.
func NewAlertManager(ttl time.Duration) *AlertManager {
	if ttl <= 0 {
		ttl = DefaultAlertTTL
	}
	return &AlertManager{
		pending: gocache.New(ttl, ttl),
		now:     time.Now,
	}
}

// TriggerCritical raises a critical alert for a prescription whose pill
// count has dropped to the critical threshold. No-op if an alert for that
// prescription is already pending.
func (m *AlertManager) TriggerCritical(p entities.Prescription) {
	remaining := 0
	if p.PillsRemaining != nil {
		remaining = *p.PillsRemaining
	}

	m.raise(p, entities.SeverityCritical,
		fmt.Sprintf("Only %d pills of %s remaining, refill now", remaining, p.MedicationName))
}

// EvaluatePrediction raises an alert when a refill prediction crosses the
// warning or critical thresholds. Predictions with ample supply raise
// nothing.
func (m *AlertManager) EvaluatePrediction(p entities.Prescription, pred *entities.RefillPrediction) {
	if pred == nil {
		return
	}

	severity := entities.SeverityForDaysRemaining(pred.DaysRemaining)
	if severity == entities.SeverityNone {
		return
	}

	m.raise(p, severity,
		fmt.Sprintf("About %d days of %s remaining, refill recommended by %s",
			pred.DaysRemaining, p.MedicationName,
			pred.RecommendedRefillDate.Format("2006-01-02")))
}

// Pending returns all pending alerts, oldest first.
func (m *AlertManager) Pending() []entities.RefillAlert {
	items := m.pending.Items()
	alerts := make([]entities.RefillAlert, 0, len(items))
	for _, item := range items {
		if alert, ok := item.Object.(entities.RefillAlert); ok {
			alerts = append(alerts, alert)
		}
	}

	sort.Slice(alerts, func(i, j int) bool {
		return alerts[i].CreatedAt.Before(alerts[j].CreatedAt)
	})
	return alerts
}

// Acknowledge removes the pending alert for a prescription. Returns false if
// none was pending.
func (m *AlertManager) Acknowledge(prescriptionID string) bool {
	if _, found := m.pending.Get(prescriptionID); !found {
		return false
	}
	m.pending.Delete(prescriptionID)
	return true
}

func (m *AlertManager) raise(p entities.Prescription, severity entities.AlertSeverity, message string) {
	alert := entities.RefillAlert{
		ID:             uuid.NewString(),
		PrescriptionID: p.ID,
		MedicationName: p.MedicationName,
		Severity:       severity,
		Message:        message,
		CreatedAt:      m.now(),
	}

	// Add fails when the key exists, which is exactly the dedup we want.
	if err := m.pending.Add(p.ID, alert, gocache.DefaultExpiration); err != nil {
		logging.Debug("Alert already pending, skipping", "prescription_id", p.ID)
		return
	}

	logging.Info("Refill alert raised",
		"prescription_id", p.ID,
		"medication", p.MedicationName,
		"severity", string(severity))
}
