package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateBasics(t *testing.T) {
	s := Calculate([]float64{2, 4, 4, 4, 5, 5, 7, 9})

	assert.Equal(t, 8, s.Count)
	assert.InDelta(t, 5.0, s.Mean, 1e-9)
	assert.InDelta(t, 4.5, s.Median, 1e-9)
	assert.InDelta(t, 2.0, s.StdDev, 1e-9)
	assert.Equal(t, 2.0, s.Min)
	assert.Equal(t, 9.0, s.Max)
	assert.Equal(t, 7.0, s.Range)
}

func TestCalculatePercentileOrdering(t *testing.T) {
	inputs := [][]float64{
		{1},
		{3, 1, 2},
		{10, 20, 30, 40, 50, 60, 70, 80, 90},
		{5, 5, 5, 5},
	}
	for _, values := range inputs {
		s := Calculate(values)
		p := s.Percentiles
		assert.LessOrEqual(t, s.Min, p["p25"])
		assert.LessOrEqual(t, p["p25"], p["p50"])
		assert.LessOrEqual(t, p["p50"], p["p75"])
		assert.LessOrEqual(t, p["p75"], s.Max)
	}
}

func TestCalculateEmpty(t *testing.T) {
	s := Calculate(nil)
	assert.Equal(t, 0, s.Count)
	assert.Empty(t, s.Percentiles)
}

func TestCalculateIdempotent(t *testing.T) {
	values := []float64{18.2, 19.5, 20.1, 18.9, 21.3}
	assert.Equal(t, Calculate(values), Calculate(values))
}

func TestDetectAnomaliesInsufficientData(t *testing.T) {
	r := DetectAnomalies([]float64{1, 2}, 2.0)
	assert.False(t, r.HasAnomalies)
	assert.Equal(t, "insufficient_data", r.Method)
}

func TestDetectAnomaliesNoVariation(t *testing.T) {
	r := DetectAnomalies([]float64{5, 5, 5, 5}, 2.0)
	assert.False(t, r.HasAnomalies)
	assert.Equal(t, "no_variation", r.Method)
}

func TestDetectAnomaliesOutlier(t *testing.T) {
	values := []float64{20, 21, 19, 20, 22, 20, 21, 19, 20, 80}
	r := DetectAnomalies(values, 2.0)

	require.True(t, r.HasAnomalies)
	require.Equal(t, 1, r.AnomalyCount)
	assert.Equal(t, 9, r.Anomalies[0].Index)
	assert.Equal(t, 80.0, r.Anomalies[0].Value)
	assert.Greater(t, r.Anomalies[0].ZScore, 2.0)
}

func TestCorrelationSelf(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	assert.InDelta(t, 1.0, Correlation(x, x), 1e-9)
}

func TestCorrelationInverse(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{5, 4, 3, 2, 1}
	assert.InDelta(t, -1.0, Correlation(x, y), 1e-9)
}

func TestCorrelationDegenerate(t *testing.T) {
	x := []float64{1, 2, 3}
	constant := []float64{7, 7, 7}
	assert.Equal(t, 0.0, Correlation(x, constant))
	assert.Equal(t, 0.0, Correlation(x, []float64{1, 2}))
	assert.Equal(t, 0.0, Correlation([]float64{1}, []float64{1}))
}

func TestStabilityTiers(t *testing.T) {
	cases := []struct {
		name   string
		values []float64
		want   string
	}{
		{"very stable", []float64{100, 101, 100, 99, 100}, "very_stable"},
		{"highly variable", []float64{10, 50, 90, 20, 80}, "highly_variable"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Stability(tc.values).Stability)
		})
	}
}

func TestStabilityUnknown(t *testing.T) {
	assert.Equal(t, "unknown", Stability([]float64{42}).Stability)
}
