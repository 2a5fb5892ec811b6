package entities

import "time"

// Confidence rates how reliable a refill estimate is, derived from data
// volume, consistency and adherence.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ConfidenceForScore maps a weighted confidence score to its rating.
func ConfidenceForScore(score float64) Confidence {
	switch {
	case score >= 0.8:
		return ConfidenceHigh
	case score >= 0.5:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// RefillPrediction is the derived refill estimate for a prescription.
// RecommendedRefillDate is always five days before the predicted run-out date.
type RefillPrediction struct {
	DaysRemaining         int          `json:"daysRemaining"`
	PredictedRefillDate   time.Time    `json:"predictedRefillDate"`
	RecommendedRefillDate time.Time    `json:"recommendedRefillDate"`
	AverageDailyUsage     float64      `json:"averageDailyUsage"`
	AdherenceRate         float64      `json:"adherenceRate"`
	Confidence            Confidence   `json:"confidence"`
	UsagePattern          UsagePattern `json:"usagePattern"`
}
