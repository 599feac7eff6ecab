package model

import "time"

// Metric identifies one of the four sensed parameters.
type Metric string

const (
	MetricTemperature Metric = "temperature"
	MetricLight       Metric = "light"
	MetricMoisture    Metric = "moisture"
	MetricNutrients   Metric = "nutrients"
)

// Metrics lists all sensed parameters in evaluation order.
var Metrics = []Metric{MetricTemperature, MetricLight, MetricMoisture, MetricNutrients}

// Measurement is one normalized point-in-time reading. Optional fields
// are nil when the upstream record did not carry them. Collections of
// measurements are kept sorted ascending by timestamp after extraction.
type Measurement struct {
	Timestamp     time.Time `json:"timestamp"`
	Temperature   *float64  `json:"temperature,omitempty"`
	Light         *float64  `json:"light,omitempty"`
	SoilMoisture  *float64  `json:"soil_moisture,omitempty"`
	SoilFertility *float64  `json:"soil_fertility,omitempty"`
}

// Value returns the reading for the given metric, or nil when absent.
func (m Measurement) Value(metric Metric) *float64 {
	switch metric {
	case MetricTemperature:
		return m.Temperature
	case MetricLight:
		return m.Light
	case MetricMoisture:
		return m.SoilMoisture
	case MetricNutrients:
		return m.SoilFertility
	}
	return nil
}

// Point is a (time, value) pair with time expressed in hours since an
// arbitrary epoch, the form the trend and DLI engines consume.
type Point struct {
	Hours float64
	Value float64
}
