package model

// StatusCode is the four-level classification of a metric value
// relative to its threshold band.
type StatusCode int

const (
	StatusLow      StatusCode = 1
	StatusOptimal  StatusCode = 2
	StatusHigh     StatusCode = 3
	StatusCritical StatusCode = 4
)

// Name returns the wire name for the code. Critical codes are refined
// to critical_low/critical_high/sensor_error by the evaluator itself.
func (c StatusCode) Name() string {
	switch c {
	case StatusLow:
		return "low"
	case StatusOptimal:
		return "optimal"
	case StatusHigh:
		return "high"
	case StatusCritical:
		return "critical"
	}
	return "unknown"
}

// MetricEvaluation is the fresh per-call result of evaluating one
// metric against its band.
type MetricEvaluation struct {
	Metric       Metric     `json:"metric"`
	Value        *float64   `json:"value"`
	Status       StatusCode `json:"status"`
	StatusName   string     `json:"status_name"`
	Band         *Band      `json:"-"`
	VendorStatus int        `json:"vendor_status,omitempty"`
	VendorAgrees bool       `json:"vendor_agrees"`
	Note         string     `json:"note,omitempty"`
}

// PlantEvaluation aggregates the four metric evaluations for one plant.
// VendorFallback is set when no threshold set could be resolved and the
// upstream status codes were trusted directly.
type PlantEvaluation struct {
	PlantID        int                          `json:"plant_id"`
	Metrics        map[Metric]*MetricEvaluation `json:"metrics"`
	ThresholdsType string                       `json:"thresholds_type,omitempty"`
	VendorFallback bool                         `json:"vendor_fallback"`
}
