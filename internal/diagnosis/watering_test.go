package diagnosis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantlab/plantpulse/internal/model"
)

var wateringNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func fp(v float64) *float64 { return &v }

func moistureSeries(now time.Time, spacing time.Duration, values ...float64) []model.Measurement {
	ms := make([]model.Measurement, len(values))
	start := now.Add(-time.Duration(len(values)-1) * spacing)
	for i, v := range values {
		ms[i] = model.Measurement{
			Timestamp:    start.Add(time.Duration(i) * spacing),
			SoilMoisture: fp(v),
		}
	}
	return ms
}

func TestMoistureStatusTiers(t *testing.T) {
	cases := []struct {
		value  float64
		status string
		action string
	}{
		{10, "critical_low", "immediate"},
		{25, "low", "soon"},
		{50, "optimal", "none"},
		{80, "high", "monitor"},
		{95, "critical_high", "urgent"},
	}
	for _, tc := range cases {
		got := MoistureStatusFor(tc.value, "")
		assert.Equal(t, tc.status, got.Status, "value %v", tc.value)
		assert.Equal(t, tc.action, got.Action, "value %v", tc.value)
	}
}

func TestMoistureStatusSubstrateBands(t *testing.T) {
	// 35% is low for organic (40-70) but optimal for mineral (30-60).
	assert.Equal(t, "low", MoistureStatusFor(35, model.SubstrateOrganic).Status)
	assert.Equal(t, "optimal", MoistureStatusFor(35, model.SubstrateMineral).Status)
	// 65% is optimal for organic but high for mineral.
	assert.Equal(t, "optimal", MoistureStatusFor(65, model.SubstrateOrganic).Status)
	assert.Equal(t, "high", MoistureStatusFor(65, model.SubstrateMineral).Status)
}

func TestAnalyzeMoistureTrendDecreasing(t *testing.T) {
	// 60 down to 42 over six days, 3%/day.
	ms := moistureSeries(wateringNow, 24*time.Hour, 60, 57, 54, 51, 48, 45, 42)

	tr := AnalyzeMoistureTrend(ms, 7, wateringNow)
	require.True(t, tr.Analyzed)
	assert.Equal(t, 7, tr.DataPoints)
	assert.Equal(t, "decreasing", tr.Trend)
	assert.InDelta(t, -3.0, tr.SlopePerDay, 0.01)
	assert.InDelta(t, 1.0, tr.Confidence, 0.01)
	assert.InDelta(t, -18.0, tr.Change, 0.01)

	require.NotNil(t, tr.Prediction)
	// (42-20)/3 days to the critical level, (42-30)/3 to optimal.
	assert.InDelta(t, 22.0/3, tr.Prediction.DaysUntilCritical, 0.05)
	require.NotNil(t, tr.Prediction.DaysUntilOptimal)
	assert.InDelta(t, 4.0, *tr.Prediction.DaysUntilOptimal, 0.05)

	require.NotNil(t, tr.Consumption)
	assert.InDelta(t, 21.0, tr.Consumption.PerWeek, 0.1)
}

func TestAnalyzeMoistureTrendStable(t *testing.T) {
	ms := moistureSeries(wateringNow, 24*time.Hour, 50, 50.2, 49.8, 50.1, 50)
	tr := AnalyzeMoistureTrend(ms, 7, wateringNow)
	require.True(t, tr.Analyzed)
	assert.Equal(t, "stable", tr.Trend)
	assert.Nil(t, tr.Prediction)
}

func TestAnalyzeMoistureTrendInsufficientData(t *testing.T) {
	tr := AnalyzeMoistureTrend(nil, 7, wateringNow)
	assert.False(t, tr.Analyzed)
	assert.Equal(t, "unknown", tr.Trend)

	one := moistureSeries(wateringNow, time.Hour, 50)
	assert.False(t, AnalyzeMoistureTrend(one, 7, wateringNow).Analyzed)
}

func TestAnalyzeMoistureTrendIgnoresOldSamples(t *testing.T) {
	old := model.Measurement{Timestamp: wateringNow.AddDate(0, 0, -30), SoilMoisture: fp(90)}
	ms := append([]model.Measurement{old}, moistureSeries(wateringNow, 24*time.Hour, 50, 48, 46)...)

	tr := AnalyzeMoistureTrend(ms, 7, wateringNow)
	require.True(t, tr.Analyzed)
	assert.Equal(t, 3, tr.DataPoints)
	assert.InDelta(t, 50.0, tr.InitialMoisture, 0.01)
}

func TestRecommendWateringCritical(t *testing.T) {
	tr := AnalyzeMoistureTrend(moistureSeries(wateringNow, 24*time.Hour, 30, 22, 14, 10), 7, wateringNow)
	advice := RecommendWatering(10, &tr, "", nil, wateringNow)
	assert.Equal(t, "water_now", advice.Action)
	assert.Equal(t, "Immediately", advice.Timing)
	require.NotEmpty(t, advice.Reasoning)
}

func TestRecommendWateringSoonUsesPrediction(t *testing.T) {
	tr := AnalyzeMoistureTrend(moistureSeries(wateringNow, 24*time.Hour, 50, 45, 40, 35), 7, wateringNow)
	require.NotNil(t, tr.Prediction)

	advice := RecommendWatering(25, nil, "", nil, wateringNow)
	assert.Equal(t, "water_soon", advice.Action)
	assert.Equal(t, "Within 1-2 days", advice.Timing)

	withTrend := RecommendWatering(25, &tr, "", nil, wateringNow)
	assert.Contains(t, withTrend.Timing, "On ")
}

func TestRecommendWateringHighAndUrgent(t *testing.T) {
	skip := RecommendWatering(80, nil, "", nil, wateringNow)
	assert.Equal(t, "skip_watering", skip.Action)
	assert.NotEmpty(t, skip.Warnings)

	drainage := RecommendWatering(95, nil, "", nil, wateringNow)
	assert.Equal(t, "improve_drainage", drainage.Action)
	assert.Len(t, drainage.Warnings, 2)
}

func TestRecommendWateringSubstrateNote(t *testing.T) {
	advice := RecommendWatering(50, nil, model.SubstrateLechuzaPon, nil, wateringNow)
	assert.Equal(t, "maintain", advice.Action)
	assert.Contains(t, advice.SubstrateNote, "Mineral substrate")

	organic := RecommendWatering(50, nil, model.SubstrateOrganic, nil, wateringNow)
	assert.Contains(t, organic.SubstrateNote, "Organic soil")
}

func TestRecommendWateringDaysSince(t *testing.T) {
	watered := wateringNow.AddDate(0, 0, -5)
	advice := RecommendWatering(50, nil, "", &watered, wateringNow)
	require.NotNil(t, advice.DaysSinceWatering)
	assert.Equal(t, 5, *advice.DaysSinceWatering)
}
