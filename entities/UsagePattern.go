package entities

// UsagePattern summarizes a medication's dose-taken history over a trailing
// window. All fields are derived and transient.
type UsagePattern struct {
	AverageDailyUsage float64 `json:"averageDailyUsage"`
	AdherenceRate     float64 `json:"adherenceRate"`
	ConsistencyScore  float64 `json:"consistencyScore"`
	DataPoints        int     `json:"dataPoints"`
	PeriodDays        int     `json:"periodDays"`
}
