package entities

import "time"

// Prescription is the persisted snapshot of a tracked medication.
// TotalPills and PillsRemaining are pointers because imported prescriptions
// frequently lack pill counts; a missing count means refill prediction is
// impossible, not zero pills.
type Prescription struct {
	ID             string    `json:"id"`
	MedicationName string    `json:"medicationName"`
	DailyFrequency int       `json:"dailyFrequency"`
	TotalPills     *int      `json:"totalPills,omitempty"`
	PillsRemaining *int      `json:"pillsRemaining,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
