package diagnosis

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/verdantlab/plantpulse/internal/model"
)

// WateringEvent scores one watering against the sensor response.
type WateringEvent struct {
	Timestamp          time.Time `json:"timestamp"`
	MoistureBefore     float64   `json:"moisture_before"`
	MoistureAfter      float64   `json:"moisture_after"`
	Improvement        float64   `json:"improvement"`
	ImprovementPercent float64   `json:"improvement_percent"`
	Effective          bool      `json:"effective"`
}

// WateringEffectiveness aggregates how well waterings actually raised
// soil moisture.
type WateringEffectiveness struct {
	Analyzed           bool            `json:"analyzed"`
	Message            string          `json:"message,omitempty"`
	TotalEvents        int             `json:"total_watering_events,omitempty"`
	EffectiveEvents    int             `json:"effective_events,omitempty"`
	EffectivenessRate  float64         `json:"effectiveness_rate,omitempty"`
	AverageImprovement float64         `json:"average_improvement_percent,omitempty"`
	RecentEvents       []WateringEvent `json:"recent_events,omitempty"`
	Recommendation     string          `json:"recommendation,omitempty"`
}

// AnalyzeWateringEffectiveness compares moisture in the 6 hours before
// each watering against the 24 hours after.
func AnalyzeWateringEffectiveness(history []model.CareAction, measurements []model.Measurement) WateringEffectiveness {
	var waterings []model.CareAction
	for _, a := range history {
		if a.ActionType == model.ActionWatering {
			waterings = append(waterings, a)
		}
	}
	if len(waterings) == 0 || len(measurements) == 0 {
		return WateringEffectiveness{Message: "Insufficient data for analysis"}
	}

	var events []WateringEvent
	for _, action := range waterings {
		var before, after []float64
		for _, m := range measurements {
			v := m.SoilMoisture
			if v == nil {
				continue
			}
			switch {
			case !m.Timestamp.Before(action.Timestamp.Add(-6*time.Hour)) && m.Timestamp.Before(action.Timestamp):
				before = append(before, *v)
			case m.Timestamp.After(action.Timestamp) && !m.Timestamp.After(action.Timestamp.Add(24*time.Hour)):
				after = append(after, *v)
			}
		}
		if len(before) == 0 || len(after) == 0 {
			continue
		}

		avgBefore := mean(before)
		avgAfter := mean(after)
		improvement := avgAfter - avgBefore
		percent := 0.0
		if avgBefore > 0 {
			percent = improvement / avgBefore * 100
		}
		events = append(events, WateringEvent{
			Timestamp:          action.Timestamp,
			MoistureBefore:     avgBefore,
			MoistureAfter:      avgAfter,
			Improvement:        improvement,
			ImprovementPercent: percent,
			Effective:          improvement > 0,
		})
	}

	if len(events) == 0 {
		return WateringEffectiveness{Message: "No watering actions with corresponding sensor data found"}
	}

	var totalPercent float64
	effective := 0
	for _, e := range events {
		totalPercent += e.ImprovementPercent
		if e.Effective {
			effective++
		}
	}
	avgImprovement := totalPercent / float64(len(events))

	recent := events
	if len(recent) > 5 {
		recent = recent[:5]
	}

	return WateringEffectiveness{
		Analyzed:           true,
		TotalEvents:        len(events),
		EffectiveEvents:    effective,
		EffectivenessRate:  float64(effective) / float64(len(events)) * 100,
		AverageImprovement: avgImprovement,
		RecentEvents:       recent,
		Recommendation:     wateringTechniqueAdvice(avgImprovement, effective, len(events)),
	}
}

func wateringTechniqueAdvice(avgImprovement float64, effective, total int) string {
	rate := 0.0
	if total > 0 {
		rate = float64(effective) / float64(total) * 100
	}
	switch {
	case rate > 80 && avgImprovement > 15:
		return "Excellent watering technique! Moisture improves significantly after watering."
	case rate > 60 && avgImprovement > 10:
		return "Good watering habits. Consider watering slightly more thoroughly for better results."
	case rate < 50:
		return "Watering may not be effective enough. Ensure water reaches the root zone thoroughly."
	case avgImprovement < 5:
		return "Moisture improvement is minimal. Check for drainage issues or increase water amount."
	default:
		return "Watering effectiveness is moderate. Monitor and adjust amount as needed."
	}
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// WateringFrequency describes the interval pattern between waterings.
type WateringFrequency struct {
	InsufficientData bool      `json:"insufficient_data,omitempty"`
	Message          string    `json:"message,omitempty"`
	TotalEvents      int       `json:"total_watering_events,omitempty"`
	AverageInterval  float64   `json:"average_interval_days,omitempty"`
	MinInterval      float64   `json:"min_interval_days,omitempty"`
	MaxInterval      float64   `json:"max_interval_days,omitempty"`
	ConsistencyScore float64   `json:"consistency_score,omitempty"`
	ConsistencyLevel string    `json:"consistency_level,omitempty"`
	LastWatered      time.Time `json:"last_watered,omitempty"`
	NextEstimate     time.Time `json:"next_watering_estimate,omitempty"`
}

// CalculateWateringFrequency derives the watering rhythm and how
// consistent it is. Needs at least two waterings.
func CalculateWateringFrequency(history []model.CareAction) WateringFrequency {
	var waterings []model.CareAction
	for _, a := range history {
		if a.ActionType == model.ActionWatering {
			waterings = append(waterings, a)
		}
	}
	if len(waterings) < 2 {
		return WateringFrequency{
			InsufficientData: true,
			Message:          "Need at least 2 watering events to calculate frequency",
		}
	}

	sort.Slice(waterings, func(i, j int) bool {
		return waterings[i].Timestamp.Before(waterings[j].Timestamp)
	})

	intervals := make([]float64, 0, len(waterings)-1)
	for i := 1; i < len(waterings); i++ {
		intervals = append(intervals, waterings[i].Timestamp.Sub(waterings[i-1].Timestamp).Hours()/24)
	}

	avg := mean(intervals)
	minIv, maxIv := intervals[0], intervals[0]
	for _, iv := range intervals[1:] {
		if iv < minIv {
			minIv = iv
		}
		if iv > maxIv {
			maxIv = iv
		}
	}

	var cv float64
	if avg > 0 {
		var ss float64
		for _, iv := range intervals {
			ss += (iv - avg) * (iv - avg)
		}
		cv = math.Sqrt(ss/float64(len(intervals))) / avg * 100
	}

	level := "highly_variable"
	switch {
	case cv < 20:
		level = "very_consistent"
	case cv < 40:
		level = "consistent"
	case cv < 60:
		level = "moderately_variable"
	}

	last := waterings[len(waterings)-1].Timestamp
	return WateringFrequency{
		TotalEvents:      len(waterings),
		AverageInterval:  avg,
		MinInterval:      minIv,
		MaxInterval:      maxIv,
		ConsistencyScore: 100 - cv,
		ConsistencyLevel: level,
		LastWatered:      last,
		NextEstimate:     last.Add(time.Duration(avg * 24 * float64(time.Hour))),
	}
}

// FertilizingEvent tracks nutrient response to one fertilization.
type FertilizingEvent struct {
	Timestamp      time.Time `json:"timestamp"`
	Product        string    `json:"product"`
	NutrientBefore float64   `json:"nutrient_before"`
	NutrientAfter  float64   `json:"nutrient_after"`
	Change         float64   `json:"change"`
}

// FertilizingCorrelation aggregates the nutrient response across
// fertilizations.
type FertilizingCorrelation struct {
	Analyzed       bool               `json:"analyzed"`
	Message        string             `json:"message,omitempty"`
	TotalEvents    int                `json:"total_fertilizing_events,omitempty"`
	RecentEvents   []FertilizingEvent `json:"recent_events,omitempty"`
	Recommendation string             `json:"recommendation,omitempty"`
}

// CorrelateFertilizing compares EC in the week before a fertilization
// against the 1 to 14 days after.
func CorrelateFertilizing(history []model.CareAction, measurements []model.Measurement) FertilizingCorrelation {
	var ferts []model.CareAction
	for _, a := range history {
		if a.ActionType == model.ActionFertilizing {
			ferts = append(ferts, a)
		}
	}
	if len(ferts) == 0 || len(measurements) == 0 {
		return FertilizingCorrelation{Message: "Insufficient data for fertilizing analysis"}
	}

	var events []FertilizingEvent
	for _, action := range ferts {
		var before, after []float64
		for _, m := range measurements {
			v := m.SoilFertility
			if v == nil {
				continue
			}
			switch {
			case !m.Timestamp.Before(action.Timestamp.AddDate(0, 0, -7)) && m.Timestamp.Before(action.Timestamp):
				before = append(before, *v)
			case !m.Timestamp.Before(action.Timestamp.AddDate(0, 0, 1)) && !m.Timestamp.After(action.Timestamp.AddDate(0, 0, 14)):
				after = append(after, *v)
			}
		}
		if len(before) == 0 || len(after) == 0 {
			continue
		}

		product := "Unknown"
		if p, ok := action.Metadata["product"].(string); ok && p != "" {
			product = p
		}
		avgBefore, avgAfter := mean(before), mean(after)
		events = append(events, FertilizingEvent{
			Timestamp:      action.Timestamp,
			Product:        product,
			NutrientBefore: avgBefore,
			NutrientAfter:  avgAfter,
			Change:         avgAfter - avgBefore,
		})
	}

	if len(events) == 0 {
		return FertilizingCorrelation{Message: "No fertilizing events with corresponding sensor data"}
	}

	recent := events
	if len(recent) > 5 {
		recent = recent[:5]
	}
	return FertilizingCorrelation{
		Analyzed:       true,
		TotalEvents:    len(events),
		RecentEvents:   recent,
		Recommendation: "Continue monitoring nutrient levels after fertilizing to optimize timing and amount.",
	}
}

// CareInsight is an actionable observation about the care schedule.
type CareInsight struct {
	Type     string `json:"type"`
	Category string `json:"category"`
	Message  string `json:"message"`
	Priority string `json:"priority"`
}

// lastOfType expects history newest first, matching store ordering.
func lastOfType(history []model.CareAction, actionType string) *model.CareAction {
	for i := range history {
		if history[i].ActionType == actionType {
			return &history[i]
		}
	}
	return nil
}

// CareInsights cross-references the care log with current sensor
// statuses. History must be ordered newest first.
func CareInsights(history []model.CareAction, plant *model.Plant, now time.Time) []CareInsight {
	var insights []CareInsight

	if w := lastOfType(history, model.ActionWatering); w != nil {
		daysSince := now.Sub(w.Timestamp).Hours() / 24
		moistureStatus := model.StatusOrDefault(plant.MoistureStatus)
		if daysSince > 7 && moistureStatus == 1 {
			insights = append(insights, CareInsight{
				Type:     "warning",
				Category: "watering",
				Message:  fmt.Sprintf("Last watered %d days ago and moisture is low. Water soon!", int(daysSince)),
				Priority: "high",
			})
		} else if daysSince < 1 && moistureStatus == 3 {
			insights = append(insights, CareInsight{
				Type:     "info",
				Category: "watering",
				Message:  "Recently watered but moisture is high. Check drainage or reduce amount next time.",
				Priority: "medium",
			})
		}
	}

	if f := lastOfType(history, model.ActionFertilizing); f != nil {
		daysSince := now.Sub(f.Timestamp).Hours() / 24
		if daysSince > 60 {
			insights = append(insights, CareInsight{
				Type:     "info",
				Category: "fertilizing",
				Message:  fmt.Sprintf("Last fertilized %d days ago. Consider fertilizing soon.", int(daysSince)),
				Priority: "low",
			})
		}
	}

	if r := lastOfType(history, model.ActionRepotting); r != nil {
		monthsSince := now.Sub(r.Timestamp).Hours() / (24 * 30)
		if monthsSince > 24 {
			insights = append(insights, CareInsight{
				Type:     "info",
				Category: "repotting",
				Message:  fmt.Sprintf("Last repotted %d months ago. Consider repotting next spring.", int(monthsSince)),
				Priority: "low",
			})
		}
	}

	return insights
}
