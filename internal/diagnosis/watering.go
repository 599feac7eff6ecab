package diagnosis

import (
	"fmt"
	"time"

	"github.com/verdantlab/plantpulse/internal/model"
)

// Substrate-specific optimal moisture ranges in percent. Hydroponic
// setups are permanently wet, so their band collapses to 100.
var moistureRanges = map[string][2]float64{
	model.SubstrateOrganic:    {40, 70},
	model.SubstrateMineral:    {30, 60},
	model.SubstrateLechuzaPon: {30, 70},
	model.SubstrateSemiHydro:  {20, 50},
	model.SubstrateHydroponic: {100, 100},
}

const (
	defaultMoistureMin = 30
	defaultMoistureMax = 70

	criticalMoistureLow  = 15
	criticalMoistureHigh = 90

	// Watering prediction targets in percent.
	wateringCriticalLevel = 20
	wateringOptimalLevel  = 30

	moistureStableSlope = 0.5
)

// MoistureStatus classifies one moisture reading against the substrate
// band.
type MoistureStatus struct {
	Status      string `json:"status"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	Action      string `json:"action_needed"`
	Explanation string `json:"explanation"`
}

// MoistureStatusFor evaluates a moisture percentage with
// substrate-aware thresholds. An unknown substrate falls back to the
// generic 30-70 band.
func MoistureStatusFor(value float64, substrate string) MoistureStatus {
	minOptimal, maxOptimal := defaultMoistureMin, defaultMoistureMax
	if r, ok := moistureRanges[substrate]; ok {
		minOptimal, maxOptimal = int(r[0]), int(r[1])
	}

	switch {
	case value < criticalMoistureLow:
		return MoistureStatus{
			Status:      "critical_low",
			Severity:    "critical",
			Description: fmt.Sprintf("Moisture %.1f%% is critically low", value),
			Action:      "immediate",
			Explanation: "Plant is severely dehydrated. Water immediately and thoroughly.",
		}
	case value < float64(minOptimal):
		return MoistureStatus{
			Status:      "low",
			Severity:    "moderate",
			Description: fmt.Sprintf("Moisture %.1f%% is low", value),
			Action:      "soon",
			Explanation: "Soil is drying out. Water within 1-2 days.",
		}
	case value <= float64(maxOptimal):
		return MoistureStatus{
			Status:      "optimal",
			Severity:    "none",
			Description: fmt.Sprintf("Moisture %.1f%% is optimal", value),
			Action:      "none",
			Explanation: "Moisture level is perfect. Continue current watering schedule.",
		}
	case value <= criticalMoistureHigh:
		return MoistureStatus{
			Status:      "high",
			Severity:    "moderate",
			Description: fmt.Sprintf("Moisture %.1f%% is high", value),
			Action:      "monitor",
			Explanation: "Soil is very wet. Skip next watering. Ensure good drainage.",
		}
	default:
		return MoistureStatus{
			Status:      "critical_high",
			Severity:    "critical",
			Description: fmt.Sprintf("Moisture %.1f%% is dangerously high", value),
			Action:      "urgent",
			Explanation: "Risk of root rot! Improve drainage immediately. Consider repotting if it persists.",
		}
	}
}

// MoisturePrediction estimates when the soil will reach the watering
// thresholds, assuming the current drying rate holds.
type MoisturePrediction struct {
	DaysUntilCritical       float64  `json:"days_until_critical"`
	CriticalDate            string   `json:"critical_date"`
	DaysUntilOptimal        *float64 `json:"days_until_optimal,omitempty"`
	RecommendedWateringDate string   `json:"recommended_watering_date"`
}

// ConsumptionRate describes how fast the plant drinks.
type ConsumptionRate struct {
	PerDay      float64 `json:"moisture_per_day"`
	PerWeek     float64 `json:"moisture_per_week"`
	Description string  `json:"description"`
}

// MoistureTrend is the regression over recent moisture samples.
type MoistureTrend struct {
	Analyzed         bool                `json:"analyzed"`
	DaysAnalyzed     int                 `json:"days_analyzed"`
	DataPoints       int                 `json:"data_points"`
	CurrentMoisture  float64             `json:"current_moisture"`
	InitialMoisture  float64             `json:"initial_moisture"`
	Change           float64             `json:"change"`
	Trend            string              `json:"trend"`
	SlopePerDay      float64             `json:"slope_per_day"`
	Confidence       float64             `json:"confidence"`
	FirstMeasurement time.Time           `json:"first_measurement,omitempty"`
	LastMeasurement  time.Time           `json:"last_measurement,omitempty"`
	Prediction       *MoisturePrediction `json:"prediction,omitempty"`
	Consumption      *ConsumptionRate    `json:"consumption_rate,omitempty"`
}

// regressPerDay fits a least squares line over (days since first,
// value) pairs and returns slope per day plus R squared.
func regressPerDay(times []time.Time, values []float64) (slope, rsq float64, ok bool) {
	n := float64(len(values))
	if len(values) < 3 {
		return 0, 0, false
	}
	first := times[0]
	var sumX, sumY, sumXY, sumX2 float64
	xs := make([]float64, len(values))
	for i, t := range times {
		x := t.Sub(first).Hours() / 24
		xs[i] = x
		sumX += x
		sumY += values[i]
		sumXY += x * values[i]
		sumX2 += x * x
	}
	denom := n*sumX2 - sumX*sumX
	if denom == 0 {
		return 0, 0, false
	}
	slope = (n*sumXY - sumX*sumY) / denom

	intercept := (sumY - slope*sumX) / n
	meanY := sumY / n
	var ssTot, ssRes float64
	for i, y := range values {
		ssTot += (y - meanY) * (y - meanY)
		pred := slope*xs[i] + intercept
		ssRes += (y - pred) * (y - pred)
	}
	if ssTot > 0 {
		rsq = 1 - ssRes/ssTot
		if rsq < 0 {
			rsq = -rsq
		}
	}
	return slope, rsq, true
}

// AnalyzeMoistureTrend regresses moisture over the last N days and
// predicts the next watering window. At least two samples in the
// window are needed for any analysis and three for a slope.
func AnalyzeMoistureTrend(measurements []model.Measurement, days int, now time.Time) MoistureTrend {
	result := MoistureTrend{DaysAnalyzed: days, Trend: "unknown"}

	cutoff := now.AddDate(0, 0, -days)
	var times []time.Time
	var values []float64
	for _, m := range measurements {
		v := m.SoilMoisture
		if v == nil || m.Timestamp.Before(cutoff) {
			continue
		}
		times = append(times, m.Timestamp)
		values = append(values, *v)
	}
	if len(values) < 2 {
		return result
	}

	result.Analyzed = true
	result.DataPoints = len(values)
	result.CurrentMoisture = values[len(values)-1]
	result.InitialMoisture = values[0]
	result.Change = result.CurrentMoisture - result.InitialMoisture
	result.FirstMeasurement = times[0]
	result.LastMeasurement = times[len(times)-1]

	slope, rsq, ok := regressPerDay(times, values)
	if ok {
		result.SlopePerDay = slope
		result.Confidence = rsq
		switch {
		case slope < -moistureStableSlope:
			result.Trend = "decreasing"
		case slope > moistureStableSlope:
			result.Trend = "increasing"
		default:
			result.Trend = "stable"
		}
	}

	if result.Trend == "decreasing" && result.SlopePerDay < 0 {
		rate := -result.SlopePerDay
		toCritical := result.CurrentMoisture - wateringCriticalLevel
		if toCritical > 0 {
			daysUntilCritical := toCritical / rate
			criticalDate := now.Add(time.Duration(daysUntilCritical * 24 * float64(time.Hour)))
			pred := &MoisturePrediction{
				DaysUntilCritical:       daysUntilCritical,
				CriticalDate:            criticalDate.Format("2006-01-02"),
				RecommendedWateringDate: criticalDate.Format("2006-01-02"),
			}
			if toOptimal := result.CurrentMoisture - wateringOptimalLevel; toOptimal > 0 {
				daysUntilOptimal := toOptimal / rate
				pred.DaysUntilOptimal = &daysUntilOptimal
				pred.RecommendedWateringDate = now.Add(time.Duration(daysUntilOptimal * 24 * float64(time.Hour))).Format("2006-01-02")
			}
			result.Prediction = pred
		}

		result.Consumption = &ConsumptionRate{
			PerDay:      rate,
			PerWeek:     rate * 7,
			Description: fmt.Sprintf("Plant consumes ~%.1f%% moisture per week", rate*7),
		}
	}

	return result
}

// WateringAdvice is the combined watering recommendation.
type WateringAdvice struct {
	CurrentStatus     MoistureStatus `json:"current_status"`
	Action            string         `json:"action"`
	Timing            string         `json:"timing"`
	Amount            string         `json:"amount"`
	Reasoning         []string       `json:"reasoning"`
	Warnings          []string       `json:"warnings"`
	DaysSinceWatering *int           `json:"days_since_watering,omitempty"`
	SubstrateNote     string         `json:"substrate_note,omitempty"`
}

// RecommendWatering folds status, trend and care history into one
// actionable watering plan.
func RecommendWatering(currentMoisture float64, tr *MoistureTrend, substrate string, lastWatered *time.Time, now time.Time) WateringAdvice {
	status := MoistureStatusFor(currentMoisture, substrate)
	advice := WateringAdvice{
		CurrentStatus: status,
		Reasoning:     []string{},
		Warnings:      []string{},
	}

	if lastWatered != nil {
		days := int(now.Sub(*lastWatered).Hours() / 24)
		advice.DaysSinceWatering = &days
	}

	switch status.Action {
	case "immediate":
		advice.Action = "water_now"
		advice.Timing = "Immediately"
		advice.Amount = "Water thoroughly until water drains from bottom"
		advice.Reasoning = append(advice.Reasoning, fmt.Sprintf("Moisture critically low at %.1f%%", currentMoisture))
		if tr != nil && tr.Trend == "decreasing" {
			advice.Reasoning = append(advice.Reasoning,
				fmt.Sprintf("Moisture declining rapidly at %.1f%% per day", -tr.SlopePerDay))
		}
	case "soon":
		advice.Action = "water_soon"
		advice.Timing = "Within 1-2 days"
		advice.Amount = "Water normally until soil is evenly moist"
		advice.Reasoning = append(advice.Reasoning, fmt.Sprintf("Moisture low at %.1f%%", currentMoisture))
		if tr != nil && tr.Prediction != nil && tr.Prediction.DaysUntilOptimal != nil {
			d := *tr.Prediction.DaysUntilOptimal
			advice.Timing = fmt.Sprintf("On %s (%.0f days)", tr.Prediction.RecommendedWateringDate, d)
			advice.Reasoning = append(advice.Reasoning,
				fmt.Sprintf("Based on current trend, moisture will reach optimal watering threshold in %.0f days", d))
		}
	case "none":
		advice.Action = "maintain"
		advice.Timing = "Continue regular schedule"
		advice.Amount = "Water when top 2-3cm of soil is dry"
		advice.Reasoning = append(advice.Reasoning, fmt.Sprintf("Moisture optimal at %.1f%%", currentMoisture))
		if tr != nil && tr.Consumption != nil {
			advice.Reasoning = append(advice.Reasoning, fmt.Sprintf("%s. Monitor regularly.", tr.Consumption.Description))
		}
		if tr != nil && tr.Prediction != nil && tr.Prediction.DaysUntilOptimal != nil {
			advice.Reasoning = append(advice.Reasoning,
				fmt.Sprintf("Next watering estimated in ~%.0f days (%s)", *tr.Prediction.DaysUntilOptimal, tr.Prediction.RecommendedWateringDate))
		}
	case "monitor":
		advice.Action = "skip_watering"
		advice.Timing = "Skip next 1-2 scheduled waterings"
		advice.Amount = "None - let soil dry out"
		advice.Reasoning = append(advice.Reasoning, fmt.Sprintf("Moisture high at %.1f%%", currentMoisture))
		advice.Warnings = append(advice.Warnings, "Ensure pot has good drainage to prevent root rot")
	case "urgent":
		advice.Action = "improve_drainage"
		advice.Timing = "Urgent - act today"
		advice.Amount = "Stop watering immediately"
		advice.Reasoning = append(advice.Reasoning, fmt.Sprintf("Moisture dangerously high at %.1f%%", currentMoisture))
		advice.Warnings = append(advice.Warnings,
			"Risk of root rot! Check for drainage issues",
			"Consider repotting if drainage is poor")
	}

	switch substrate {
	case model.SubstrateLechuzaPon, model.SubstrateSemiHydro:
		advice.SubstrateNote = "Mineral substrate holds water differently than soil. Adjust watering frequency accordingly."
	case model.SubstrateOrganic:
		advice.SubstrateNote = "Organic soil contains nutrients. Fertilize less frequently than mineral substrates."
	}

	return advice
}
