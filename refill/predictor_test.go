package refill

import (
	"testing"

	"github.com/aroovee/rxmindr-sub000/entities"
)

func intPtr(v int) *int { return &v }

func steadyPattern(avg float64, dataPoints int) entities.UsagePattern {
	return entities.UsagePattern{
		AverageDailyUsage: avg,
		AdherenceRate:     1.0,
		ConsistencyScore:  1.0,
		DataPoints:        dataPoints,
		PeriodDays:        30,
	}
}

func TestPredictMissingPillCounts(t *testing.T) {
	predictor := NewPredictorAt(fixedClock)
	pattern := steadyPattern(2.0, 30)

	if got := predictor.Predict(nil, intPtr(10), pattern); got != nil {
		t.Errorf("Predict with nil totalPills = %v, expected nil", got)
	}
	if got := predictor.Predict(intPtr(30), nil, pattern); got != nil {
		t.Errorf("Predict with nil pillsRemaining = %v, expected nil", got)
	}
	if got := predictor.Predict(nil, nil, pattern); got != nil {
		t.Errorf("Predict with both counts nil = %v, expected nil", got)
	}
}

func TestPredictDaysRemaining(t *testing.T) {
	predictor := NewPredictorAt(fixedClock)

	// 6 pills at 2 per day: 3 days of supply left
	prediction := predictor.Predict(intPtr(30), intPtr(6), steadyPattern(2.0, 30))
	if prediction == nil {
		t.Fatal("expected a prediction")
	}

	if prediction.DaysRemaining != 3 {
		t.Errorf("DaysRemaining = %d, expected 3", prediction.DaysRemaining)
	}

	expectedRunOut := testNow.AddDate(0, 0, 3)
	if !prediction.PredictedRefillDate.Equal(expectedRunOut) {
		t.Errorf("PredictedRefillDate = %v, expected %v", prediction.PredictedRefillDate, expectedRunOut)
	}

	expectedRecommended := expectedRunOut.AddDate(0, 0, -5)
	if !prediction.RecommendedRefillDate.Equal(expectedRecommended) {
		t.Errorf("RecommendedRefillDate = %v, expected %v", prediction.RecommendedRefillDate, expectedRecommended)
	}
}

func TestPredictFloorsPartialDays(t *testing.T) {
	predictor := NewPredictorAt(fixedClock)

	// 7 pills at 2 per day floors to 3 days, not 3.5
	prediction := predictor.Predict(intPtr(30), intPtr(7), steadyPattern(2.0, 30))
	if prediction == nil {
		t.Fatal("expected a prediction")
	}
	if prediction.DaysRemaining != 3 {
		t.Errorf("DaysRemaining = %d, expected floor to 3", prediction.DaysRemaining)
	}
}

func TestPredictDaysRemainingMonotonicInPills(t *testing.T) {
	predictor := NewPredictorAt(fixedClock)
	pattern := steadyPattern(2.0, 30)

	// More pills at the same usage rate never means fewer days of supply
	previous := -1
	for _, remaining := range []int{1, 2, 4, 6, 10, 30, 90} {
		prediction := predictor.Predict(intPtr(90), intPtr(remaining), pattern)
		if prediction == nil {
			t.Fatalf("Predict returned nil for %d pills remaining", remaining)
		}
		if prediction.DaysRemaining < previous {
			t.Errorf("DaysRemaining = %d for %d pills, below %d for fewer pills",
				prediction.DaysRemaining, remaining, previous)
		}
		previous = prediction.DaysRemaining
	}
}

func TestPredictZeroUsage(t *testing.T) {
	predictor := NewPredictorAt(fixedClock)

	prediction := predictor.Predict(intPtr(30), intPtr(30), steadyPattern(0, 0))
	if prediction == nil {
		t.Fatal("expected a prediction even without usage data")
	}
	if prediction.DaysRemaining != 0 {
		t.Errorf("DaysRemaining = %d, expected 0 when average usage is unknown", prediction.DaysRemaining)
	}
}

func TestPredictConfidenceRatings(t *testing.T) {
	predictor := NewPredictorAt(fixedClock)

	testCases := []struct {
		name     string
		pattern  entities.UsagePattern
		expected entities.Confidence
	}{
		{
			name:     "Full data and perfect habits",
			pattern:  steadyPattern(2.0, 30),
			expected: entities.ConfidenceHigh,
		},
		{
			name: "Little data",
			pattern: entities.UsagePattern{
				AverageDailyUsage: 2.0,
				AdherenceRate:     1.0,
				ConsistencyScore:  0.5,
				DataPoints:        3,
				PeriodDays:        30,
			},
			expected: entities.ConfidenceMedium,
		},
		{
			name: "Sparse and erratic",
			pattern: entities.UsagePattern{
				AverageDailyUsage: 1.0,
				AdherenceRate:     0.2,
				ConsistencyScore:  0.1,
				DataPoints:        2,
				PeriodDays:        30,
			},
			expected: entities.ConfidenceLow,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			prediction := predictor.Predict(intPtr(30), intPtr(10), tc.pattern)
			if prediction == nil {
				t.Fatal("expected a prediction")
			}
			if prediction.Confidence != tc.expected {
				t.Errorf("Confidence = %q, expected %q", prediction.Confidence, tc.expected)
			}
		})
	}
}

func TestConfidenceScoreAdherenceGate(t *testing.T) {
	// Below the gate the adherence component pins to a neutral 0.5
	low := steadyPattern(2.0, 30)
	low.AdherenceRate = 0.3

	high := steadyPattern(2.0, 30)
	high.AdherenceRate = 0.9

	lowScore := confidenceScore(low)
	highScore := confidenceScore(high)

	expectedLow := 0.3*1.0 + 0.4*1.0 + 0.3*0.5
	if diff := lowScore - expectedLow; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("gated score = %f, expected %f", lowScore, expectedLow)
	}
	if highScore <= lowScore {
		t.Errorf("high adherence score %f should exceed gated score %f", highScore, lowScore)
	}
}

func TestConfidenceForScoreThresholds(t *testing.T) {
	testCases := []struct {
		score    float64
		expected entities.Confidence
	}{
		{0.95, entities.ConfidenceHigh},
		{0.8, entities.ConfidenceHigh},
		{0.79, entities.ConfidenceMedium},
		{0.5, entities.ConfidenceMedium},
		{0.49, entities.ConfidenceLow},
		{0.0, entities.ConfidenceLow},
	}

	for _, tc := range testCases {
		if got := entities.ConfidenceForScore(tc.score); got != tc.expected {
			t.Errorf("ConfidenceForScore(%f) = %q, expected %q", tc.score, got, tc.expected)
		}
	}
}
