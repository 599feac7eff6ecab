// Package trend fits ordinary least-squares regressions over irregular
// (hours, value) series and extrapolates threshold-crossing times.
package trend

import (
	"fmt"
	"math"
	"sort"

	"github.com/verdantlab/plantpulse/internal/model"
)

// Direction names.
const (
	Increasing = "increasing"
	Decreasing = "decreasing"
	Stable     = "stable"
)

// Relative slope threshold under which a trend counts as stable: less
// than 0.5% of the most recent value per hour. Relative rather than
// absolute so it stays comparable across metrics of different scale.
const stableFraction = 0.005

// Calculate fits an OLS line over the points and classifies the
// direction. Fewer than 2 points or a zero time range yield a neutral
// stable result with zero confidence.
func Calculate(points []model.Point) model.TrendResult {
	if len(points) < 2 {
		return model.TrendResult{
			Analyzed:   false,
			Reason:     "insufficient_data",
			Direction:  Stable,
			DataPoints: len(points),
		}
	}

	sorted := make([]model.Point, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Hours < sorted[j].Hours })

	n := float64(len(sorted))
	var sumX, sumY, sumXY, sumX2 float64
	for _, p := range sorted {
		sumX += p.Hours
		sumY += p.Value
		sumXY += p.Hours * p.Value
		sumX2 += p.Hours * p.Hours
	}

	slope := 0.0
	if denom := n*sumX2 - sumX*sumX; denom != 0 {
		slope = (n*sumXY - sumX*sumY) / denom
	}
	intercept := (sumY - slope*sumX) / n

	meanY := sumY / n
	var ssTot, ssRes float64
	for _, p := range sorted {
		ssTot += (p.Value - meanY) * (p.Value - meanY)
		residual := p.Value - (slope*p.Hours + intercept)
		ssRes += residual * residual
	}
	rSquared := 0.0
	if ssTot > 0 {
		rSquared = 1 - ssRes/ssTot
	}

	first := sorted[0].Value
	last := sorted[len(sorted)-1].Value

	direction := Stable
	if timeRange := sorted[len(sorted)-1].Hours - sorted[0].Hours; timeRange == 0 {
		slope = 0
		rSquared = 0
	} else {
		switch {
		case math.Abs(slope) < math.Abs(last*stableFraction):
			direction = Stable
		case slope > 0:
			direction = Increasing
		default:
			direction = Decreasing
		}
	}

	percentChange := 0.0
	if first != 0 {
		percentChange = (last - first) / first * 100
	}

	return model.TrendResult{
		Analyzed:      true,
		Direction:     direction,
		SlopePerHour:  slope,
		Confidence:    rSquared,
		FirstValue:    first,
		LastValue:     last,
		Change:        last - first,
		PercentChange: percentChange,
		DataPoints:    len(sorted),
	}
}

// PredictCriticalTime extrapolates the trend linearly to estimate when
// the metric crosses criticalThreshold. The extrapolation is only
// meaningful when the slope actually points toward the threshold.
func PredictCriticalTime(t model.TrendResult, currentValue, criticalThreshold float64) model.CriticalPrediction {
	pred := model.CriticalPrediction{CriticalValue: criticalThreshold}

	if t.Direction == Stable || t.SlopePerHour == 0 {
		pred.Reason = "trend is stable, no immediate action needed"
		pred.Urgency = "none"
		return pred
	}

	movingToward := (t.SlopePerHour < 0 && currentValue > criticalThreshold) ||
		(t.SlopePerHour > 0 && currentValue < criticalThreshold)

	hoursUntil := (criticalThreshold - currentValue) / t.SlopePerHour

	if !movingToward || hoursUntil <= 0 {
		pred.Reason = "not moving toward critical threshold"
		pred.Urgency = "none"
		return pred
	}

	pred.WillReach = true
	pred.HoursUntil = hoursUntil
	pred.DaysUntil = hoursUntil / 24

	switch {
	case hoursUntil < 6:
		pred.Urgency = "immediate"
		pred.Reason = fmt.Sprintf("critical threshold expected in ~%d hours, act now", int(hoursUntil))
	case hoursUntil < 12:
		pred.Urgency = "high"
		pred.Reason = fmt.Sprintf("critical threshold expected in ~%d hours", int(hoursUntil))
	case hoursUntil < 24:
		pred.Urgency = "medium"
		pred.Reason = fmt.Sprintf("critical threshold expected in ~%d hours, plan intervention", int(hoursUntil))
	case hoursUntil < 48:
		pred.Urgency = "low"
		pred.Reason = fmt.Sprintf("critical threshold expected in ~%.1f days, monitor closely", hoursUntil/24)
	default:
		pred.Urgency = "none"
		pred.Reason = fmt.Sprintf("critical threshold not expected soon (~%d days)", int(hoursUntil/24))
	}

	return pred
}
