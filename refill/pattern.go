// Package refill implements the adaptive refill-prediction engine: it
// aggregates noisy dose-taken history into a usage pattern and combines the
// pattern with pill counts into a days-remaining estimate, confidence rating
// and refill alerts.
package refill

import (
	"math"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/aroovee/rxmindr-sub000/entities"
)

// DefaultWindowDays is the trailing analysis window when none is given.
const DefaultWindowDays = 30

// Analyzer derives usage patterns from medication records. The clock is
// injectable so the trailing-window filter is deterministic in tests.
type Analyzer struct {
	now func() time.Time
}

// NewAnalyzer creates an analyzer using the wall clock.
func NewAnalyzer() *Analyzer {
	return &Analyzer{now: time.Now}
}

// NewAnalyzerAt creates an analyzer with a fixed clock.
func NewAnalyzerAt(now func() time.Time) *Analyzer {
	return &Analyzer{now: now}
}

// Analyze aggregates the records within the trailing window into adherence
// rate, average daily consumption and a consistency score. An empty record
// list yields a zero-valued pattern; the computation never fails.
func (a *Analyzer) Analyze(records []entities.MedicationRecord, dailyFrequency, windowDays int) entities.UsagePattern {
	if windowDays < 1 {
		windowDays = DefaultWindowDays
	}
	if dailyFrequency < 1 {
		dailyFrequency = 1
	}

	cutoff := a.now().AddDate(0, 0, -windowDays)

	// Doses taken per distinct day within the window. Zero-dose days register
	// in the map too: they count against consistency, just not toward usage.
	dosesByDay := make(map[string]int)
	dataPoints := 0
	totalDoses := 0

	for _, rec := range records {
		if !rec.Date.After(cutoff) {
			continue
		}
		dataPoints++
		doses := rec.DosesTaken
		if doses < 0 {
			doses = 0
		}
		dosesByDay[rec.Date.Format("2006-01-02")] += doses
		totalDoses += doses
	}

	activeDays := 0
	for _, doses := range dosesByDay {
		if doses > 0 {
			activeDays++
		}
	}

	adherence := 0.0
	average := 0.0
	consistency := 0.0

	if activeDays > 0 {
		adherence = float64(totalDoses) / float64(dailyFrequency*windowDays)
		if adherence > 1.0 {
			adherence = 1.0
		}

		average = float64(totalDoses) / float64(activeDays)
	}

	if len(dosesByDay) > 0 {
		// Per-day dose ratios capped at 1: a day with extra doses is "fully
		// taken", not better than fully taken. A missed day contributes 0.
		ratios := make([]float64, 0, len(dosesByDay))
		for _, doses := range dosesByDay {
			ratio := float64(doses) / float64(dailyFrequency)
			if ratio > 1.0 {
				ratio = 1.0
			}
			ratios = append(ratios, ratio)
		}

		if variance, err := stats.Variance(ratios); err == nil {
			consistency = 1.0 - math.Sqrt(variance)
			if consistency < 0 {
				consistency = 0
			}
		}
	}

	return entities.UsagePattern{
		AverageDailyUsage: average,
		AdherenceRate:     adherence,
		ConsistencyScore:  consistency,
		DataPoints:        dataPoints,
		PeriodDays:        windowDays,
	}
}
