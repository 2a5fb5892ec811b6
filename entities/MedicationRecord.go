package entities

import "time"

// MedicationRecord is one row of dose-taken history for a prescription:
// how many doses were taken on a given day versus how many were expected.
// Records are supplied by the persistence layer.
type MedicationRecord struct {
	PrescriptionID string    `json:"prescriptionId"`
	Date           time.Time `json:"date"`
	DosesTaken     int       `json:"dosesTaken"`
	DosesExpected  int       `json:"dosesExpected"`
}
