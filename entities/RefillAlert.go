package entities

import "time"

// AlertSeverity classifies how urgent a refill is.
type AlertSeverity string

const (
	SeverityCritical AlertSeverity = "critical"
	SeverityWarning  AlertSeverity = "warning"
	SeverityNone     AlertSeverity = "none"
)

// SeverityForDaysRemaining applies the alerting thresholds: critical at three
// days of supply or less, warning at seven or less.
func SeverityForDaysRemaining(days int) AlertSeverity {
	switch {
	case days <= 3:
		return SeverityCritical
	case days <= 7:
		return SeverityWarning
	default:
		return SeverityNone
	}
}

// RefillAlert is a pending refill notification for a prescription,
// deduplicated by prescription identity.
type RefillAlert struct {
	ID             string        `json:"id"`
	PrescriptionID string        `json:"prescriptionId"`
	MedicationName string        `json:"medicationName"`
	Severity       AlertSeverity `json:"severity"`
	Message        string        `json:"message"`
	CreatedAt      time.Time     `json:"createdAt"`
}
