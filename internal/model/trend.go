package model

// TrendResult is the output of a linear regression over one metric's
// series. Recomputed per request window, never cached.
type TrendResult struct {
	Analyzed      bool    `json:"analyzed"`
	Reason        string  `json:"reason,omitempty"`
	Direction     string  `json:"direction"`
	SlopePerHour  float64 `json:"slope_per_hour"`
	Confidence    float64 `json:"confidence"`
	FirstValue    float64 `json:"first_value"`
	LastValue     float64 `json:"last_value"`
	Change        float64 `json:"change"`
	PercentChange float64 `json:"percent_change"`
	DataPoints    int     `json:"data_points"`
}

// CriticalPrediction is a linear extrapolation of when a metric will
// cross a critical threshold, with urgency bucketed by hours remaining.
type CriticalPrediction struct {
	WillReach     bool    `json:"will_reach_critical"`
	Reason        string  `json:"reason,omitempty"`
	HoursUntil    float64 `json:"hours_until_critical,omitempty"`
	DaysUntil     float64 `json:"days_until_critical,omitempty"`
	Urgency       string  `json:"urgency,omitempty"`
	CriticalValue float64 `json:"critical_value"`
}
