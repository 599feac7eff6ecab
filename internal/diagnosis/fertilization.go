package diagnosis

import (
	"fmt"
	"time"

	"github.com/verdantlab/plantpulse/internal/model"
)

// Substrate-specific optimal EC ranges in mS/cm. Critical thresholds
// are substrate independent.
var ecRanges = map[string][2]float64{
	model.SubstrateOrganic:    {0.8, 1.2},
	model.SubstrateMineral:    {0.6, 1.0},
	model.SubstrateHydroponic: {0.4, 0.8},
	model.SubstrateSemiHydro:  {0.4, 0.8},
	model.SubstrateLechuzaPon: {0.5, 0.9},
}

const (
	defaultECMin = 0.6
	defaultECMax = 1.0

	criticalECLow  = 0.2
	criticalECHigh = 1.5

	ecStableSlope = 0.01
)

// ECStatus classifies one EC reading against the substrate band.
type ECStatus struct {
	Status      string `json:"status"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	Action      string `json:"action_needed"`
	Explanation string `json:"explanation"`
}

func isWinter(t time.Time) bool {
	switch t.Month() {
	case time.November, time.December, time.January, time.February:
		return true
	}
	return false
}

// ECStatusFor evaluates an EC value with substrate-aware thresholds.
// During November through February the optimal band shifts toward its
// lower end because dormant plants take up fewer nutrients.
func ECStatusFor(value float64, substrate string, now time.Time) ECStatus {
	minOptimal, maxOptimal := defaultECMin, defaultECMax
	if r, ok := ecRanges[substrate]; ok {
		minOptimal, maxOptimal = r[0], r[1]
	}

	if isWinter(now) {
		minOptimal = minOptimal * 0.5
		if minOptimal < criticalECLow {
			minOptimal = criticalECLow
		}
		if maxOptimal > 1.0 {
			maxOptimal = 1.0
		}
	}

	switch {
	case value < criticalECLow:
		return ECStatus{
			Status:      "critical_low",
			Severity:    "critical",
			Description: fmt.Sprintf("EC %.2f is critically low", value),
			Action:      "immediate",
			Explanation: "Plants are nutrient-starved. Fertilize within 1-2 days.",
		}
	case value < minOptimal:
		return ECStatus{
			Status:      "low",
			Severity:    "moderate",
			Description: fmt.Sprintf("EC %.2f is low", value),
			Action:      "soon",
			Explanation: "Nutrient levels are declining. Fertilize within 1 week.",
		}
	case value <= maxOptimal:
		return ECStatus{
			Status:      "optimal",
			Severity:    "none",
			Description: fmt.Sprintf("EC %.2f is optimal", value),
			Action:      "none",
			Explanation: "Nutrient levels are perfect. Continue current fertilization schedule.",
		}
	case value <= criticalECHigh:
		return ECStatus{
			Status:      "high",
			Severity:    "moderate",
			Description: fmt.Sprintf("EC %.2f is high", value),
			Action:      "reduce",
			Explanation: "Too many nutrients. Skip next fertilization. Consider light watering to dilute.",
		}
	default:
		return ECStatus{
			Status:      "critical_high",
			Severity:    "critical",
			Description: fmt.Sprintf("EC %.2f is dangerously high", value),
			Action:      "flush",
			Explanation: "Risk of nutrient burn! Flush soil with 2-3x pot volume of water immediately.",
		}
	}
}

// ECPrediction estimates when the EC will sink below the nutrient
// deficiency threshold.
type ECPrediction struct {
	DaysUntilCritical float64 `json:"days_until_critical"`
	CriticalDate      string  `json:"critical_date"`
	Action            string  `json:"action"`
	Urgency           string  `json:"urgency"`
}

// ECConsumption describes the nutrient uptake rate.
type ECConsumption struct {
	PerDay      float64 `json:"ec_per_day"`
	Description string  `json:"description"`
}

// ECTrend is the regression over recent EC samples.
type ECTrend struct {
	Analyzed         bool           `json:"analyzed"`
	Message          string         `json:"message,omitempty"`
	DaysAnalyzed     int            `json:"days_analyzed,omitempty"`
	DataPoints       int            `json:"data_points,omitempty"`
	CurrentEC        float64        `json:"current_ec,omitempty"`
	InitialEC        float64        `json:"initial_ec,omitempty"`
	Change           float64        `json:"change,omitempty"`
	Trend            string         `json:"trend,omitempty"`
	SlopePerDay      float64        `json:"slope_per_day,omitempty"`
	Confidence       float64        `json:"confidence,omitempty"`
	FirstMeasurement time.Time      `json:"first_measurement,omitempty"`
	LastMeasurement  time.Time      `json:"last_measurement,omitempty"`
	Prediction       *ECPrediction  `json:"prediction,omitempty"`
	Consumption      *ECConsumption `json:"consumption_rate,omitempty"`
}

// AnalyzeECTrend regresses the EC over the last N days. Needs at
// least three samples in the window.
func AnalyzeECTrend(measurements []model.Measurement, days int, now time.Time) ECTrend {
	cutoff := now.AddDate(0, 0, -days)
	var times []time.Time
	var values []float64
	for _, m := range measurements {
		v := m.SoilFertility
		if v == nil || m.Timestamp.Before(cutoff) {
			continue
		}
		times = append(times, m.Timestamp)
		values = append(values, *v)
	}
	if len(values) < 3 {
		return ECTrend{
			Analyzed: false,
			Message:  "Insufficient data for trend analysis (need at least 3 measurements)",
		}
	}

	slope, rsq, ok := regressPerDay(times, values)
	if !ok {
		slope, rsq = 0, 0
	}

	result := ECTrend{
		Analyzed:         true,
		DaysAnalyzed:     days,
		DataPoints:       len(values),
		CurrentEC:        values[len(values)-1],
		InitialEC:        values[0],
		Change:           values[len(values)-1] - values[0],
		SlopePerDay:      slope,
		Confidence:       rsq,
		FirstMeasurement: times[0],
		LastMeasurement:  times[len(times)-1],
	}

	switch {
	case slope < -ecStableSlope:
		result.Trend = "decreasing"
	case slope > ecStableSlope:
		result.Trend = "increasing"
	default:
		result.Trend = "stable"
	}

	if result.Trend == "decreasing" && result.CurrentEC > criticalECLow {
		daysUntil := (result.CurrentEC - criticalECLow) / -slope
		if daysUntil > 0 {
			urgency := "medium"
			switch {
			case daysUntil < 3:
				urgency = "immediate"
			case daysUntil < 7:
				urgency = "high"
			}
			result.Prediction = &ECPrediction{
				DaysUntilCritical: daysUntil,
				CriticalDate:      now.Add(time.Duration(daysUntil * 24 * float64(time.Hour))).Format("2006-01-02"),
				Action:            "fertilize_before",
				Urgency:           urgency,
			}
		}
	}

	if result.Trend == "decreasing" || result.Trend == "stable" {
		elapsedDays := int(times[len(times)-1].Sub(times[0]).Hours() / 24)
		if elapsedDays > 0 {
			rate := result.InitialEC - result.CurrentEC
			if rate < 0 {
				rate = -rate
			}
			rate /= float64(elapsedDays)
			result.Consumption = &ECConsumption{
				PerDay:      rate,
				Description: fmt.Sprintf("Plant consumes ~%.2f EC per week", rate*7),
			}
		}
	}

	return result
}

// FertilizationAdvice is the combined fertilization recommendation.
type FertilizationAdvice struct {
	CurrentStatus         ECStatus `json:"current_status"`
	Action                string   `json:"action"`
	Timing                string   `json:"timing"`
	Dosage                string   `json:"dosage"`
	Reasoning             []string `json:"reasoning"`
	Warnings              []string `json:"warnings"`
	DaysSinceFertilized   *int     `json:"days_since_fertilization,omitempty"`
	AvgFertilizeIntervalD *float64 `json:"average_fertilization_interval,omitempty"`
}

// RecommendFertilization folds EC status, trend and care history into
// an actionable fertilization plan.
func RecommendFertilization(currentEC float64, tr *ECTrend, substrate string, careHistory []model.CareAction, now time.Time) FertilizationAdvice {
	status := ECStatusFor(currentEC, substrate, now)
	advice := FertilizationAdvice{
		CurrentStatus: status,
		Reasoning:     []string{},
		Warnings:      []string{},
	}

	var fertActions []model.CareAction
	for _, a := range careHistory {
		if a.ActionType == model.ActionFertilizing {
			fertActions = append(fertActions, a)
		}
	}
	if len(fertActions) > 0 {
		last := fertActions[0].Timestamp
		for _, a := range fertActions[1:] {
			if a.Timestamp.After(last) {
				last = a.Timestamp
			}
		}
		days := int(now.Sub(last).Hours() / 24)
		advice.DaysSinceFertilized = &days
	}
	if len(fertActions) >= 2 {
		var total float64
		for i := 1; i < len(fertActions); i++ {
			total += fertActions[i].Timestamp.Sub(fertActions[i-1].Timestamp).Hours() / 24
		}
		avg := total / float64(len(fertActions)-1)
		if avg < 0 {
			avg = -avg
		}
		advice.AvgFertilizeIntervalD = &avg
	}

	switch status.Action {
	case "immediate":
		advice.Action = "fertilize_now"
		advice.Timing = "Within 1-2 days"
		advice.Dosage = "50-75% of recommended dosage (plant is weakened)"
		advice.Reasoning = append(advice.Reasoning, fmt.Sprintf("EC critically low at %.2f", currentEC))
		if tr != nil && tr.Analyzed && tr.Trend == "decreasing" {
			advice.Reasoning = append(advice.Reasoning,
				fmt.Sprintf("EC declining at %.4f per day - plant consuming nutrients rapidly", -tr.SlopePerDay))
		}
	case "soon":
		advice.Action = "fertilize_soon"
		advice.Timing = "Within 1 week"
		advice.Dosage = "Full recommended dosage"
		advice.Reasoning = append(advice.Reasoning, fmt.Sprintf("EC low at %.2f", currentEC))
		if tr != nil && tr.Prediction != nil {
			advice.Timing = fmt.Sprintf("Before %s (%.1f days)", tr.Prediction.CriticalDate, tr.Prediction.DaysUntilCritical)
			advice.Reasoning = append(advice.Reasoning,
				fmt.Sprintf("Based on current trend, EC will reach critical level in %.1f days", tr.Prediction.DaysUntilCritical))
		}
	case "none":
		advice.Action = "maintain"
		advice.Timing = "Continue regular schedule"
		advice.Dosage = "Standard dosage when next scheduled"
		advice.Reasoning = append(advice.Reasoning, fmt.Sprintf("EC optimal at %.2f", currentEC))
		if tr != nil && tr.Consumption != nil {
			advice.Reasoning = append(advice.Reasoning,
				fmt.Sprintf("%s. Monitor weekly.", tr.Consumption.Description))
		}
	case "reduce":
		advice.Action = "skip_next"
		advice.Timing = "Skip next 1-2 scheduled fertilizations"
		advice.Dosage = "Reduce to 50% when resuming"
		advice.Reasoning = append(advice.Reasoning, fmt.Sprintf("EC high at %.2f", currentEC))
		advice.Warnings = append(advice.Warnings,
			"Too much fertilizer can harm roots. Let plant use up existing nutrients.")
	case "flush":
		advice.Action = "flush_soil"
		advice.Timing = "Immediately"
		advice.Dosage = "No fertilizer! Flush with 2-3x pot volume of water"
		advice.Reasoning = append(advice.Reasoning, fmt.Sprintf("EC critically high at %.2f", currentEC))
		advice.Warnings = append(advice.Warnings,
			"Risk of nutrient burn! Water thoroughly to leach out excess salts. Wait 2-3 weeks before fertilizing again.")
	}

	switch substrate {
	case model.SubstrateMineral, model.SubstrateLechuzaPon:
		advice.Reasoning = append(advice.Reasoning,
			fmt.Sprintf("Note: %s substrates need regular fertilization (no nutrient storage)", substrate))
	case model.SubstrateOrganic:
		advice.Reasoning = append(advice.Reasoning,
			"Organic soil contains nutrients. Fertilize less frequently than mineral substrates.")
	}

	return advice
}
