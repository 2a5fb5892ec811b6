package refill

import (
	"math"
	"time"

	"github.com/aroovee/rxmindr-sub000/entities"
	"github.com/aroovee/rxmindr-sub000/metrics"
)

// Days before the predicted run-out date that a refill is recommended.
const refillLeadDays = 5

// Confidence weights: data volume, consistency, adherence.
const (
	dataVolumeWeight  = 0.3
	consistencyWeight = 0.4
	adherenceWeight   = 0.3

	// Adherence only counts fully above this floor; below it the component
	// is pinned to a neutral 0.5 so sparse takers are not over-penalized.
	adherenceGate = 0.7

	// Data points needed for the volume component to saturate.
	fullDataPoints = 30
)

// Predictor turns pill counts and a usage pattern into a refill prediction.
type Predictor struct {
	now func() time.Time
}

// NewPredictor creates a predictor using the wall clock.
func NewPredictor() *Predictor {
	return &Predictor{now: time.Now}
}

// NewPredictorAt creates a predictor with a fixed clock.
func NewPredictorAt(now func() time.Time) *Predictor {
	return &Predictor{now: now}
}

// Predict estimates days of supply remaining and the refill dates. Returns
// nil when either pill count is absent: missing data yields no prediction,
// never an error.
func (p *Predictor) Predict(totalPills, pillsRemaining *int, pattern entities.UsagePattern) *entities.RefillPrediction {
	if totalPills == nil || pillsRemaining == nil {
		return nil
	}

	daysRemaining := 0
	if pattern.AverageDailyUsage > 0 {
		daysRemaining = int(math.Floor(float64(*pillsRemaining) / pattern.AverageDailyUsage))
	}
	if daysRemaining < 0 {
		daysRemaining = 0
	}

	now := p.now()
	predicted := now.AddDate(0, 0, daysRemaining)
	recommended := predicted.AddDate(0, 0, -refillLeadDays)

	confidence := entities.ConfidenceForScore(confidenceScore(pattern))
	metrics.RefillPredictionsTotal.WithLabelValues(string(confidence)).Inc()

	return &entities.RefillPrediction{
		DaysRemaining:         daysRemaining,
		PredictedRefillDate:   predicted,
		RecommendedRefillDate: recommended,
		AverageDailyUsage:     pattern.AverageDailyUsage,
		AdherenceRate:         pattern.AdherenceRate,
		Confidence:            confidence,
		UsagePattern:          pattern,
	}
}

// confidenceScore weighs data volume, consistency and adherence into one
// reliability score in [0,1].
func confidenceScore(pattern entities.UsagePattern) float64 {
	dataVolume := float64(pattern.DataPoints) / fullDataPoints
	if dataVolume > 1.0 {
		dataVolume = 1.0
	}

	adherence := 0.5
	if pattern.AdherenceRate > adherenceGate {
		adherence = pattern.AdherenceRate
	}

	return dataVolumeWeight*dataVolume +
		consistencyWeight*pattern.ConsistencyScore +
		adherenceWeight*adherence
}
