// Package dli computes daily light integrals from raw light samples
// and builds deficit, grow-light and seasonal analyses on top of the
// daily aggregates.
//
// DLI (mol/m²/day) = average intensity (μmol/m²/s) × 3600 × hours / 1e6.
package dli

import (
	"fmt"
	"sort"
	"time"

	"github.com/verdantlab/plantpulse/internal/model"
)

// Calculate converts an average instantaneous intensity into a light
// integral over the given period. Samples are assumed to represent the
// period uniformly.
func Calculate(lightValues []float64, hours float64) float64 {
	if len(lightValues) == 0 || hours <= 0 {
		return 0.0
	}
	var sum float64
	for _, v := range lightValues {
		sum += v
	}
	avg := sum / float64(len(lightValues))
	return avg * 3600 * hours / 1e6
}

// Day is one calendar day's aggregate. The 24h coverage assumption is
// an approximation; days with fewer than 4 samples are flagged Partial
// so callers can treat them as lower confidence instead of silently
// trusting them.
type Day struct {
	Date    time.Time `json:"date"`
	DLI     float64   `json:"dli"`
	Samples int       `json:"samples"`
	Partial bool      `json:"partial"`
}

// partialSampleLimit is the sample count under which a day is flagged
// as partial coverage.
const partialSampleLimit = 4

// Daily groups measurements by calendar date (UTC) and computes each
// day's DLI assuming full 24h coverage. Measurements without a light
// value are skipped. Result is ordered by date.
func Daily(ms []model.Measurement) []Day {
	if len(ms) == 0 {
		return nil
	}

	byDate := map[time.Time][]float64{}
	for _, m := range ms {
		if m.Light == nil {
			continue
		}
		date := m.Timestamp.UTC().Truncate(24 * time.Hour)
		byDate[date] = append(byDate[date], *m.Light)
	}

	dates := make([]time.Time, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	days := make([]Day, 0, len(dates))
	for _, d := range dates {
		values := byDate[d]
		days = append(days, Day{
			Date:    d,
			DLI:     Calculate(values, 24),
			Samples: len(values),
			Partial: len(values) < partialSampleLimit,
		})
	}
	return days
}

// Status classifies a DLI value against an optimal band with graduated
// severity tiers based on the ratio to the band edges.
type Status struct {
	Status         string  `json:"status"`
	Severity       string  `json:"severity"`
	Message        string  `json:"message"`
	MissingPercent int     `json:"missing_percent"`
	ExcessPercent  int     `json:"excess_percent"`
	CurrentDLI     float64 `json:"current_dli"`
	MinOptimal     float64 `json:"min_optimal"`
	MaxOptimal     float64 `json:"max_optimal"`
}

// Classify maps the current DLI into one of six tiers relative to the
// optimal band.
func Classify(currentDLI, minDLI, maxDLI float64) Status {
	s := Status{CurrentDLI: currentDLI, MinOptimal: minDLI, MaxOptimal: maxDLI}

	switch {
	case currentDLI < minDLI*0.5:
		s.Status, s.Severity = "critical_deficit", "critical"
		s.Message = fmt.Sprintf("DLI is critically low (%.2f vs min %.2f)", currentDLI, minDLI)
	case currentDLI < minDLI*0.7:
		s.Status, s.Severity = "severe_deficit", "high"
		s.Message = fmt.Sprintf("DLI is severely below optimal (%.2f vs min %.2f)", currentDLI, minDLI)
	case currentDLI < minDLI:
		s.Status, s.Severity = "deficit", "moderate"
		s.Message = fmt.Sprintf("DLI is below optimal range (%.2f vs min %.2f)", currentDLI, minDLI)
	case currentDLI <= maxDLI:
		s.Status, s.Severity = "optimal", "none"
		s.Message = fmt.Sprintf("DLI is within optimal range (%.2f - %.2f)", minDLI, maxDLI)
	case currentDLI <= maxDLI*1.3:
		s.Status, s.Severity = "excess", "low"
		s.Message = fmt.Sprintf("DLI is above optimal range (%.2f vs max %.2f)", currentDLI, maxDLI)
	default:
		s.Status, s.Severity = "severe_excess", "moderate"
		s.Message = fmt.Sprintf("DLI is significantly above optimal (%.2f vs max %.2f)", currentDLI, maxDLI)
	}

	if currentDLI < minDLI && minDLI > 0 {
		s.MissingPercent = int((minDLI - currentDLI) / minDLI * 100)
	} else if currentDLI > maxDLI && maxDLI > 0 {
		s.ExcessPercent = int((currentDLI - maxDLI) / maxDLI * 100)
	}

	return s
}

// TrendReport summarizes a daily-DLI sequence: chronic deficit streaks
// and a coarse improving/declining classification from the first-3 vs
// last-3 day averages.
type TrendReport struct {
	Trend                  string  `json:"trend"`
	DaysAnalyzed           int     `json:"days_analyzed"`
	DaysBelowOptimal       int     `json:"days_below_optimal"`
	ConsecutiveDeficitDays int     `json:"consecutive_deficit_days"`
	AverageDLI             float64 `json:"average_dli"`
	DeficitPercentage      int     `json:"deficit_percentage"`
}

// AnalyzeTrend evaluates deficit pressure across a daily sequence.
func AnalyzeTrend(days []Day, minDLI float64) TrendReport {
	if len(days) < 2 {
		return TrendReport{Trend: "insufficient_data", DaysAnalyzed: len(days)}
	}

	var below, maxStreak, streak int
	var total float64
	for _, d := range days {
		total += d.DLI
		if d.DLI < minDLI {
			below++
			streak++
			if streak > maxStreak {
				maxStreak = streak
			}
		} else {
			streak = 0
		}
	}

	trend := "stable"
	if len(days) >= 3 {
		recent := (days[len(days)-1].DLI + days[len(days)-2].DLI + days[len(days)-3].DLI) / 3
		earlier := (days[0].DLI + days[1].DLI + days[2].DLI) / 3
		if recent > earlier*1.1 {
			trend = "improving"
		} else if recent < earlier*0.9 {
			trend = "declining"
		}
	}

	return TrendReport{
		Trend:                  trend,
		DaysAnalyzed:           len(days),
		DaysBelowOptimal:       below,
		ConsecutiveDeficitDays: maxStreak,
		AverageDLI:             total / float64(len(days)),
		DeficitPercentage:      below * 100 / len(days),
	}
}

// LightOption is one indicative grow-light hardware suggestion.
type LightOption struct {
	Type      string `json:"type"`
	Specs     string `json:"specs"`
	Placement string `json:"placement"`
	Cost      string `json:"cost"`
}

// EnergyEstimate is a rough monthly cost figure for supplemental
// lighting, derived from a fixed LED efficiency of 2.5 μmol/J and an
// electricity price of 0.30 EUR/kWh.
type EnergyEstimate struct {
	Watts          int     `json:"watts"`
	DailyKWh       float64 `json:"daily_kwh"`
	MonthlyKWh     float64 `json:"monthly_kwh"`
	MonthlyCostEUR float64 `json:"monthly_cost_eur"`
}

// GrowLightReport sizes supplemental lighting from the DLI deficit.
// The figures are estimates, not guarantees.
type GrowLightReport struct {
	NeedsSupplement   bool            `json:"needs_supplement"`
	Message           string          `json:"message"`
	DeficitDLI        float64         `json:"deficit_dli,omitempty"`
	RequiredIntensity int             `json:"required_intensity,omitempty"`
	RecommendedHours  float64         `json:"recommended_hours,omitempty"`
	Options           []LightOption   `json:"light_options,omitempty"`
	Energy            *EnergyEstimate `json:"energy_estimate,omitempty"`
}

const (
	ledEfficiency  = 2.5  // μmol/J
	pricePerKWhEUR = 0.30 // average German electricity price
)

// GrowLightPlan back-solves the supplemental intensity needed to close
// the gap between current and target DLI over hoursAvailable per day.
func GrowLightPlan(currentDLI, targetDLI, hoursAvailable float64) GrowLightReport {
	if currentDLI >= targetDLI {
		return GrowLightReport{
			NeedsSupplement: false,
			Message:         "current DLI is sufficient, no supplemental lighting needed",
		}
	}

	deficit := targetDLI - currentDLI
	intensity := deficit * 1e6 / (hoursAvailable * 3600)

	var option LightOption
	switch {
	case intensity < 50:
		option = LightOption{
			Type:      "Low-intensity LED strip",
			Specs:     "~25-50 μmol/m²/s",
			Placement: "30-45cm from plant",
			Cost:      "€15-30",
		}
	case intensity < 150:
		option = LightOption{
			Type:      "Standard LED grow light",
			Specs:     "~100-150 μmol/m²/s",
			Placement: "30-60cm from plant",
			Cost:      "€40-80",
		}
	case intensity < 300:
		option = LightOption{
			Type:      "High-output LED panel",
			Specs:     "~200-300 μmol/m²/s",
			Placement: "45-75cm from plant",
			Cost:      "€80-150",
		}
	default:
		option = LightOption{
			Type:      "Professional grow light system",
			Specs:     fmt.Sprintf("~%d μmol/m²/s", int(intensity)),
			Placement: "60-90cm from plant",
			Cost:      "€150+",
		}
	}

	watts := intensity / ledEfficiency
	dailyKWh := watts * hoursAvailable / 1000
	monthlyKWh := dailyKWh * 30

	return GrowLightReport{
		NeedsSupplement:   true,
		DeficitDLI:        deficit,
		RequiredIntensity: int(intensity),
		RecommendedHours:  hoursAvailable,
		Options:           []LightOption{option},
		Energy: &EnergyEstimate{
			Watts:          int(watts),
			DailyKWh:       dailyKWh,
			MonthlyKWh:     monthlyKWh,
			MonthlyCostEUR: monthlyKWh * pricePerKWhEUR,
		},
		Message: fmt.Sprintf("add %d μmol/m²/s for %.0fh/day to reach target DLI", int(intensity), hoursAvailable),
	}
}

// Month factors for Central Europe, approximating seasonal light
// availability relative to the May/August level.
var seasonalFactors = [13]float64{0, 0.3, 0.4, 0.6, 0.8, 1.0, 1.1, 1.1, 1.0, 0.8, 0.6, 0.4, 0.3}

var monthNames = [13]string{"", "Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// MonthForecast is the predicted DLI for one upcoming month.
type MonthForecast struct {
	Month         string  `json:"month"`
	PredictedDLI  float64 `json:"predicted_dli"`
	ChangePercent int     `json:"change_percent"`
}

// SeasonalReport forecasts DLI three months ahead by scaling the
// current value with the month-factor table.
type SeasonalReport struct {
	CurrentSeason  string          `json:"current_season"`
	Predictions    []MonthForecast `json:"predictions"`
	Recommendation string          `json:"recommendation"`
}

// SeasonalForecast predicts the next 3 months from the current DLI.
func SeasonalForecast(currentDLI float64, currentMonth time.Month) SeasonalReport {
	currentFactor := seasonalFactors[currentMonth]

	predictions := make([]MonthForecast, 0, 3)
	for i := 1; i <= 3; i++ {
		next := time.Month((int(currentMonth)+i-1)%12 + 1)
		predicted := currentDLI
		if currentFactor > 0 {
			predicted = currentDLI / currentFactor * seasonalFactors[next]
		}
		change := 0
		if currentDLI > 0 {
			change = int((predicted - currentDLI) / currentDLI * 100)
		}
		predictions = append(predictions, MonthForecast{
			Month:         monthNames[next],
			PredictedDLI:  predicted,
			ChangePercent: change,
		})
	}

	return SeasonalReport{
		CurrentSeason:  Season(currentMonth),
		Predictions:    predictions,
		Recommendation: seasonalRecommendation(currentMonth),
	}
}

// Season names the meteorological season of a month.
func Season(month time.Month) string {
	switch month {
	case time.December, time.January, time.February:
		return "winter"
	case time.March, time.April, time.May:
		return "spring"
	case time.June, time.July, time.August:
		return "summer"
	default:
		return "autumn"
	}
}

func seasonalRecommendation(month time.Month) string {
	switch Season(month) {
	case "winter":
		return "Consider supplemental lighting. Natural DLI is at its lowest. Most plants need grow lights."
	case "spring":
		return "Natural light is increasing. Monitor if supplemental lighting can be reduced."
	case "summer":
		return "Natural DLI is at peak. Ensure plants don't get too much direct sun. May need shade."
	default:
		return "Natural light is decreasing. Start planning for supplemental lighting needs."
	}
}
