// Package stats provides pure descriptive statistics over flat numeric
// sequences: summary measures, z-score anomaly detection, Pearson
// correlation and stability classification.
package stats

import (
	"fmt"
	"math"
	"sort"
)

// Summary holds the descriptive statistics of one series.
type Summary struct {
	Count       int                `json:"count"`
	Mean        float64            `json:"mean"`
	Median      float64            `json:"median"`
	StdDev      float64            `json:"std_dev"`
	Min         float64            `json:"min"`
	Max         float64            `json:"max"`
	Range       float64            `json:"range"`
	Percentiles map[string]float64 `json:"percentiles"`
	CV          float64            `json:"coefficient_of_variation"`
}

// Calculate computes the full descriptive summary. An empty input
// yields a zero-count summary rather than an error.
func Calculate(values []float64) Summary {
	n := len(values)
	if n == 0 {
		return Summary{Percentiles: map[string]float64{}}
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(n)

	var median float64
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	} else {
		median = sorted[n/2]
	}

	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(n)
	stdDev := math.Sqrt(variance)

	cv := 0.0
	if mean != 0 {
		cv = stdDev / mean * 100
	}

	return Summary{
		Count:  n,
		Mean:   mean,
		Median: median,
		StdDev: stdDev,
		Min:    sorted[0],
		Max:    sorted[n-1],
		Range:  sorted[n-1] - sorted[0],
		Percentiles: map[string]float64{
			"p10": percentile(sorted, 0.10),
			"p25": percentile(sorted, 0.25),
			"p50": median,
			"p75": percentile(sorted, 0.75),
			"p90": percentile(sorted, 0.90),
		},
		CV: cv,
	}
}

// percentile uses linear interpolation between adjacent ranks; data
// must be sorted.
func percentile(sorted []float64, p float64) float64 {
	k := float64(len(sorted)-1) * p
	f := math.Floor(k)
	c := math.Ceil(k)
	if f == c {
		return sorted[int(k)]
	}
	return sorted[int(f)]*(c-k) + sorted[int(c)]*(k-f)
}

// Anomaly is one sample flagged by the z-score detector.
type Anomaly struct {
	Index            int     `json:"index"`
	Value            float64 `json:"value"`
	ZScore           float64 `json:"z_score"`
	DeviationPercent float64 `json:"deviation_percent"`
}

// AnomalyReport is the outcome of one detection pass. Method records
// how (or why not) the series was analyzed.
type AnomalyReport struct {
	HasAnomalies   bool      `json:"has_anomalies"`
	AnomalyCount   int       `json:"anomaly_count"`
	Anomalies      []Anomaly `json:"anomalies,omitempty"`
	Method         string    `json:"method"`
	ThresholdSigma float64   `json:"threshold_sigma,omitempty"`
}

// DetectAnomalies flags samples whose z-score exceeds thresholdSigma.
// Fewer than 3 points or a zero-variance series degrade to an inert
// report instead of failing.
func DetectAnomalies(values []float64, thresholdSigma float64) AnomalyReport {
	if len(values) < 3 {
		return AnomalyReport{Method: "insufficient_data"}
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	stdDev := math.Sqrt(variance / float64(len(values)))

	if stdDev == 0 {
		return AnomalyReport{Method: "no_variation"}
	}

	var anomalies []Anomaly
	for i, v := range values {
		z := math.Abs((v - mean) / stdDev)
		if z > thresholdSigma {
			deviation := 0.0
			if mean != 0 {
				deviation = (v - mean) / mean * 100
			}
			anomalies = append(anomalies, Anomaly{
				Index:            i,
				Value:            v,
				ZScore:           z,
				DeviationPercent: deviation,
			})
		}
	}

	return AnomalyReport{
		HasAnomalies:   len(anomalies) > 0,
		AnomalyCount:   len(anomalies),
		Anomalies:      anomalies,
		Method:         "z_score",
		ThresholdSigma: thresholdSigma,
	}
}

// Correlation computes the Pearson coefficient of two equal-length
// series. Mismatched lengths, fewer than 2 points, or a zero-variance
// input all yield 0.0 rather than dividing by zero.
func Correlation(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return 0.0
	}

	n := float64(len(x))
	var sumX, sumY float64
	for i := range x {
		sumX += x[i]
		sumY += y[i]
	}
	meanX, meanY := sumX/n, sumY/n

	var num, denomX, denomY float64
	for i := range x {
		dx, dy := x[i]-meanX, y[i]-meanY
		num += dx * dy
		denomX += dx * dx
		denomY += dy * dy
	}

	if denomX == 0 || denomY == 0 {
		return 0.0
	}
	return num / (math.Sqrt(denomX) * math.Sqrt(denomY))
}

// StabilityReport classifies the variability of a series by its
// coefficient of variation.
type StabilityReport struct {
	Stability      string  `json:"stability"`
	Variability    string  `json:"variability"`
	CV             float64 `json:"coefficient_of_variation"`
	Interpretation string  `json:"interpretation,omitempty"`
}

// Stability buckets the coefficient of variation into five named
// tiers. Fewer than 2 points is reported unknown.
func Stability(values []float64) StabilityReport {
	if len(values) < 2 {
		return StabilityReport{Stability: "unknown", Variability: "unknown"}
	}

	cv := Calculate(values).CV

	var stability, variability string
	switch {
	case cv < 5:
		stability, variability = "very_stable", "low"
	case cv < 10:
		stability, variability = "stable", "low"
	case cv < 20:
		stability, variability = "moderate", "medium"
	case cv < 30:
		stability, variability = "variable", "high"
	default:
		stability, variability = "highly_variable", "very_high"
	}

	return StabilityReport{
		Stability:      stability,
		Variability:    variability,
		CV:             cv,
		Interpretation: fmt.Sprintf("series shows %s variability (CV=%.2f%%)", variability, cv),
	}
}
