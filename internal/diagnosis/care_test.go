package diagnosis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantlab/plantpulse/internal/model"
)

var careNow = time.Date(2025, 6, 20, 12, 0, 0, 0, time.UTC)

func wateringAt(ts time.Time) model.CareAction {
	return model.CareAction{PlantID: 1, ActionType: model.ActionWatering, Timestamp: ts}
}

func TestWateringEffectivenessImprovement(t *testing.T) {
	actionTime := careNow.AddDate(0, 0, -2)
	history := []model.CareAction{wateringAt(actionTime)}
	measurements := []model.Measurement{
		{Timestamp: actionTime.Add(-4 * time.Hour), SoilMoisture: fp(28)},
		{Timestamp: actionTime.Add(-2 * time.Hour), SoilMoisture: fp(26)},
		{Timestamp: actionTime.Add(3 * time.Hour), SoilMoisture: fp(55)},
		{Timestamp: actionTime.Add(12 * time.Hour), SoilMoisture: fp(53)},
	}

	result := AnalyzeWateringEffectiveness(history, measurements)
	require.True(t, result.Analyzed)
	assert.Equal(t, 1, result.TotalEvents)
	assert.Equal(t, 1, result.EffectiveEvents)
	assert.Equal(t, 100.0, result.EffectivenessRate)

	ev := result.RecentEvents[0]
	assert.InDelta(t, 27.0, ev.MoistureBefore, 0.01)
	assert.InDelta(t, 54.0, ev.MoistureAfter, 0.01)
	assert.True(t, ev.Effective)
	assert.InDelta(t, 100.0, ev.ImprovementPercent, 0.5)
}

func TestWateringEffectivenessWindowBounds(t *testing.T) {
	actionTime := careNow.AddDate(0, 0, -1)
	history := []model.CareAction{wateringAt(actionTime)}

	// Samples outside the 6h-before and 24h-after windows are ignored.
	measurements := []model.Measurement{
		{Timestamp: actionTime.Add(-8 * time.Hour), SoilMoisture: fp(40)},
		{Timestamp: actionTime.Add(30 * time.Hour), SoilMoisture: fp(60)},
	}
	result := AnalyzeWateringEffectiveness(history, measurements)
	assert.False(t, result.Analyzed)
	assert.Contains(t, result.Message, "No watering actions")
}

func TestWateringEffectivenessNoData(t *testing.T) {
	result := AnalyzeWateringEffectiveness(nil, nil)
	assert.False(t, result.Analyzed)
	assert.Equal(t, "Insufficient data for analysis", result.Message)
}

func TestWateringTechniqueAdvice(t *testing.T) {
	assert.Contains(t, wateringTechniqueAdvice(20, 9, 10), "Excellent")
	assert.Contains(t, wateringTechniqueAdvice(12, 7, 10), "Good watering habits")
	assert.Contains(t, wateringTechniqueAdvice(8, 4, 10), "not be effective")
	assert.Contains(t, wateringTechniqueAdvice(3, 7, 10), "minimal")
	assert.Contains(t, wateringTechniqueAdvice(8, 7, 10), "moderate")
}

func TestWateringFrequencyConsistent(t *testing.T) {
	history := []model.CareAction{
		wateringAt(careNow.AddDate(0, 0, -21)),
		wateringAt(careNow.AddDate(0, 0, -14)),
		wateringAt(careNow.AddDate(0, 0, -7)),
		wateringAt(careNow),
	}
	freq := CalculateWateringFrequency(history)
	require.False(t, freq.InsufficientData)
	assert.Equal(t, 4, freq.TotalEvents)
	assert.InDelta(t, 7.0, freq.AverageInterval, 0.01)
	assert.Equal(t, "very_consistent", freq.ConsistencyLevel)
	assert.InDelta(t, 100.0, freq.ConsistencyScore, 0.01)
	assert.Equal(t, careNow, freq.LastWatered)
	assert.Equal(t, careNow.AddDate(0, 0, 7), freq.NextEstimate)
}

func TestWateringFrequencyVariable(t *testing.T) {
	history := []model.CareAction{
		wateringAt(careNow.AddDate(0, 0, -20)),
		wateringAt(careNow.AddDate(0, 0, -18)),
		wateringAt(careNow.AddDate(0, 0, -6)),
		wateringAt(careNow),
	}
	freq := CalculateWateringFrequency(history)
	assert.Equal(t, "highly_variable", freq.ConsistencyLevel)
}

func TestWateringFrequencyInsufficient(t *testing.T) {
	freq := CalculateWateringFrequency([]model.CareAction{wateringAt(careNow)})
	assert.True(t, freq.InsufficientData)
}

func TestCorrelateFertilizing(t *testing.T) {
	actionTime := careNow.AddDate(0, 0, -10)
	history := []model.CareAction{{
		PlantID:    1,
		ActionType: model.ActionFertilizing,
		Timestamp:  actionTime,
		Metadata:   map[string]any{"product": "Liquid NPK"},
	}}
	measurements := []model.Measurement{
		{Timestamp: actionTime.AddDate(0, 0, -3), SoilFertility: fp(0.4)},
		{Timestamp: actionTime.AddDate(0, 0, -1), SoilFertility: fp(0.4)},
		{Timestamp: actionTime.AddDate(0, 0, 2), SoilFertility: fp(0.9)},
		{Timestamp: actionTime.AddDate(0, 0, 5), SoilFertility: fp(0.8)},
	}

	result := CorrelateFertilizing(history, measurements)
	require.True(t, result.Analyzed)
	require.Len(t, result.RecentEvents, 1)
	ev := result.RecentEvents[0]
	assert.Equal(t, "Liquid NPK", ev.Product)
	assert.InDelta(t, 0.4, ev.NutrientBefore, 0.01)
	assert.InDelta(t, 0.85, ev.NutrientAfter, 0.01)
	assert.InDelta(t, 0.45, ev.Change, 0.01)
}

func TestCorrelateFertilizingExcludesFirstDay(t *testing.T) {
	actionTime := careNow.AddDate(0, 0, -10)
	history := []model.CareAction{{ActionType: model.ActionFertilizing, Timestamp: actionTime}}
	// Only a sample 12h after the action: inside 24h, so excluded from
	// the after-window, which starts at day 1.
	measurements := []model.Measurement{
		{Timestamp: actionTime.AddDate(0, 0, -1), SoilFertility: fp(0.4)},
		{Timestamp: actionTime.Add(12 * time.Hour), SoilFertility: fp(0.9)},
	}
	result := CorrelateFertilizing(history, measurements)
	assert.False(t, result.Analyzed)
}

func TestCareInsightsWateringOverdue(t *testing.T) {
	history := []model.CareAction{wateringAt(careNow.AddDate(0, 0, -10))}
	dry := &model.Plant{MoistureStatus: 1}

	insights := CareInsights(history, dry, careNow)
	require.Len(t, insights, 1)
	assert.Equal(t, "warning", insights[0].Type)
	assert.Equal(t, "watering", insights[0].Category)
	assert.Equal(t, "high", insights[0].Priority)
	assert.Contains(t, insights[0].Message, "10 days ago")
}

func TestCareInsightsOverwatered(t *testing.T) {
	history := []model.CareAction{wateringAt(careNow.Add(-6 * time.Hour))}
	wet := &model.Plant{MoistureStatus: 3}

	insights := CareInsights(history, wet, careNow)
	require.Len(t, insights, 1)
	assert.Contains(t, insights[0].Message, "Check drainage")
}

func TestCareInsightsFertilizingAndRepotting(t *testing.T) {
	history := []model.CareAction{
		{ActionType: model.ActionFertilizing, Timestamp: careNow.AddDate(0, 0, -90)},
		{ActionType: model.ActionRepotting, Timestamp: careNow.AddDate(-3, 0, 0)},
	}
	insights := CareInsights(history, &model.Plant{MoistureStatus: 2}, careNow)
	require.Len(t, insights, 2)
	assert.Equal(t, "fertilizing", insights[0].Category)
	assert.Equal(t, "repotting", insights[1].Category)
}

func TestCareInsightsQuietWhenCaredFor(t *testing.T) {
	history := []model.CareAction{
		wateringAt(careNow.AddDate(0, 0, -2)),
		{ActionType: model.ActionFertilizing, Timestamp: careNow.AddDate(0, 0, -14)},
	}
	insights := CareInsights(history, &model.Plant{MoistureStatus: 2}, careNow)
	assert.Empty(t, insights)
}
