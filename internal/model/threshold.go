package model

// Band is the resolved threshold window for a single metric. The
// acceptable bounds widen the good band outward; nil means the vendor
// supplied no acceptable bound for that side.
type Band struct {
	MinGood       float64
	MaxGood       float64
	MinAcceptable *float64
	MaxAcceptable *float64
}

// ThresholdSet carries the per-metric bands of one season entry as
// delivered by the cloud API. Absent fields stay nil so the evaluator
// can distinguish "not provided" from zero.
type ThresholdSet struct {
	Type string `json:"thresholds_type,omitempty"`

	TemperatureMinGood       *float64 `json:"temperature_min_good,omitempty"`
	TemperatureMaxGood       *float64 `json:"temperature_max_good,omitempty"`
	TemperatureMinAcceptable *float64 `json:"temperature_min_acceptable,omitempty"`
	TemperatureMaxAcceptable *float64 `json:"temperature_max_acceptable,omitempty"`

	LightMinGood       *float64 `json:"light_min_good,omitempty"`
	LightMaxGood       *float64 `json:"light_max_good,omitempty"`
	LightMinAcceptable *float64 `json:"light_min_acceptable,omitempty"`
	LightMaxAcceptable *float64 `json:"light_max_acceptable,omitempty"`

	MoistureMinGood       *float64 `json:"moisture_min_good,omitempty"`
	MoistureMaxGood       *float64 `json:"moisture_max_good,omitempty"`
	MoistureMinAcceptable *float64 `json:"moisture_min_acceptable,omitempty"`
	MoistureMaxAcceptable *float64 `json:"moisture_max_acceptable,omitempty"`

	SalinityMinGood       *float64 `json:"salinity_min_good,omitempty"`
	SalinityMaxGood       *float64 `json:"salinity_max_good,omitempty"`
	SalinityMinAcceptable *float64 `json:"salinity_min_acceptable,omitempty"`
	SalinityMaxAcceptable *float64 `json:"salinity_max_acceptable,omitempty"`
}

func deref(v *float64, fallback float64) float64 {
	if v != nil {
		return *v
	}
	return fallback
}

// Band returns the window for one metric, substituting the documented
// wide-open defaults for absent good bounds. Salinity defaults to a
// degenerate (0,0) band, which the evaluator treats specially.
func (t ThresholdSet) Band(metric Metric) Band {
	switch metric {
	case MetricTemperature:
		return Band{
			MinGood:       deref(t.TemperatureMinGood, 0),
			MaxGood:       deref(t.TemperatureMaxGood, 100),
			MinAcceptable: t.TemperatureMinAcceptable,
			MaxAcceptable: t.TemperatureMaxAcceptable,
		}
	case MetricLight:
		return Band{
			MinGood:       deref(t.LightMinGood, 0),
			MaxGood:       deref(t.LightMaxGood, 1000),
			MinAcceptable: t.LightMinAcceptable,
			MaxAcceptable: t.LightMaxAcceptable,
		}
	case MetricMoisture:
		return Band{
			MinGood:       deref(t.MoistureMinGood, 0),
			MaxGood:       deref(t.MoistureMaxGood, 100),
			MinAcceptable: t.MoistureMinAcceptable,
			MaxAcceptable: t.MoistureMaxAcceptable,
		}
	case MetricNutrients:
		return Band{
			MinGood:       deref(t.SalinityMinGood, 0),
			MaxGood:       deref(t.SalinityMaxGood, 0),
			MinAcceptable: t.SalinityMinAcceptable,
			MaxAcceptable: t.SalinityMaxAcceptable,
		}
	}
	return Band{}
}

// IsDegenerate reports the known upstream defect of a collapsed (0,0)
// good band that must not be trusted literally.
func (b Band) IsDegenerate() bool {
	return b.MinGood == 0 && b.MaxGood == 0
}
