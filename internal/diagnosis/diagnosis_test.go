package diagnosis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantlab/plantpulse/internal/model"
)

var diagNow = time.Date(2025, 6, 18, 12, 0, 0, 0, time.UTC)

type fakeClient struct {
	plant        *model.Plant
	plantErr     error
	measurements any
	measErr      error
}

func (f *fakeClient) GetPlantByID(_ context.Context, _ int) (*model.Plant, error) {
	return f.plant, f.plantErr
}

func (f *fakeClient) GetPlantMeasurements(_ context.Context, _ int, _ string) (any, error) {
	return f.measurements, f.measErr
}

type fakeCareStore struct {
	history []model.CareAction
	err     error
}

func (f *fakeCareStore) PlantHistory(_ int, _ int, _ string) ([]model.CareAction, error) {
	return f.history, f.err
}

type fakeContextStore struct {
	ctx *model.PlantContext
	err error
}

func (f *fakeContextStore) Get(_ int) (*model.PlantContext, error) {
	return f.ctx, f.err
}

func healthyThresholds() map[string]any {
	return map[string]any{
		"temperature_min_good":       15.0,
		"temperature_max_good":       28.0,
		"temperature_min_acceptable": 8.0,
		"temperature_max_acceptable": 35.0,
		"light_min_good":             100.0,
		"light_max_good":             800.0,
		"moisture_min_good":          30.0,
		"moisture_max_good":          70.0,
		"moisture_min_acceptable":    15.0,
		"moisture_max_acceptable":    90.0,
		"salinity_min_good":          0.4,
		"salinity_max_good":          1.0,
	}
}

func measurementPayload(rows ...map[string]any) map[string]any {
	list := make([]any, len(rows))
	for i, r := range rows {
		list[i] = r
	}
	return map[string]any{
		"thresholds":   healthyThresholds(),
		"measurements": list,
	}
}

func sampleAt(offset time.Duration, fields map[string]any) map[string]any {
	row := map[string]any{"date_utc": diagNow.Add(offset).Format(time.RFC3339)}
	for k, v := range fields {
		row[k] = v
	}
	return row
}

func newTestOrchestrator(c CloudClient, a CareStore, s ContextStore) *Orchestrator {
	o := NewOrchestrator(c, a, s, zerolog.Nop())
	o.now = func() time.Time { return diagNow }
	return o
}

func TestDiagnoseHealthyPlant(t *testing.T) {
	client := &fakeClient{
		plant: &model.Plant{
			ID:             1,
			Nickname:       "Ficus",
			Temperature:    fp(22),
			SoilMoisture:   fp(50),
			SoilFertility:  fp(0.7),
			Light:          fp(400),
			ReceivedDataAt: diagNow.Add(-2 * time.Hour).Format(time.RFC3339),
			Sensor:         model.SensorInfo{HasSensor: true, SensorTypeID: model.SensorTypeBeam2},
		},
		measurements: measurementPayload(
			sampleAt(-72*time.Hour, map[string]any{"soil_moisture": 54.0, "temperature": 22.0, "soil_fertility": 0.72}),
			sampleAt(-48*time.Hour, map[string]any{"soil_moisture": 52.0, "temperature": 22.5, "soil_fertility": 0.71}),
			sampleAt(-24*time.Hour, map[string]any{"soil_moisture": 51.0, "temperature": 21.8, "soil_fertility": 0.70}),
			sampleAt(-1*time.Hour, map[string]any{"soil_moisture": 50.0, "temperature": 22.0, "soil_fertility": 0.70}),
		),
	}

	report, err := newTestOrchestrator(client, &fakeCareStore{}, &fakeContextStore{}).Diagnose(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "excellent", report.Health)
	assert.Empty(t, report.MainIssues)
	assert.Empty(t, report.Recommendations)
	assert.Equal(t, "Ficus", report.PlantName)
	assert.Equal(t, 4, report.MeasurementCount)
	assert.Equal(t, 1.0, report.Confidence)
	require.NotNil(t, report.Watering)
	assert.Equal(t, "maintain", report.Watering.Action)
	require.NotNil(t, report.Fertilization)
	assert.Equal(t, "maintain", report.Fertilization.Action)
}

func TestDiagnoseCriticallyDryPlant(t *testing.T) {
	client := &fakeClient{
		plant: &model.Plant{
			ID:             2,
			Nickname:       "Calathea",
			SoilMoisture:   fp(10),
			ReceivedDataAt: diagNow.Add(-time.Hour).Format(time.RFC3339),
			Sensor:         model.SensorInfo{HasSensor: true, SensorTypeID: model.SensorTypeBeam1},
		},
		measurements: measurementPayload(
			sampleAt(-48*time.Hour, map[string]any{"soil_moisture": 20.0}),
			sampleAt(-24*time.Hour, map[string]any{"soil_moisture": 15.0}),
			sampleAt(-1*time.Hour, map[string]any{"soil_moisture": 10.0}),
		),
	}

	report, err := newTestOrchestrator(client, &fakeCareStore{}, &fakeContextStore{}).Diagnose(context.Background(), 2)
	require.NoError(t, err)
	// 10% is below the 15% acceptable floor, so the issue is critical.
	assert.Equal(t, "critical", report.Health)
	require.NotEmpty(t, report.MainIssues)
	assert.Contains(t, report.MainIssues[0], "moisture")

	require.NotEmpty(t, report.Recommendations)
	assert.Equal(t, "urgent", report.Recommendations[0].Priority)
	require.NotNil(t, report.Watering)
	assert.Equal(t, "water_now", report.Watering.Action)
}

func TestDiagnoseMeasurementsOverrideSnapshot(t *testing.T) {
	// Snapshot claims 60% but the latest measurement says 25%; the
	// measurement wins.
	client := &fakeClient{
		plant: &model.Plant{
			ID:           3,
			SoilMoisture: fp(60),
			Sensor:       model.SensorInfo{HasSensor: true, SensorTypeID: model.SensorTypeBeam1},
		},
		measurements: measurementPayload(
			sampleAt(-2*time.Hour, map[string]any{"soil_moisture": 25.0}),
		),
	}

	report, err := newTestOrchestrator(client, &fakeCareStore{}, &fakeContextStore{}).Diagnose(context.Background(), 3)
	require.NoError(t, err)
	require.Contains(t, report.Evaluation.Metrics, model.MetricMoisture)
	require.NotNil(t, report.Evaluation.Metrics[model.MetricMoisture].Value)
	assert.Equal(t, 25.0, *report.Evaluation.Metrics[model.MetricMoisture].Value)
	assert.Equal(t, "low", report.Evaluation.Metrics[model.MetricMoisture].StatusName)
}

func TestDiagnosePlantFetchErrorAborts(t *testing.T) {
	client := &fakeClient{plantErr: errors.New("upstream down")}
	_, err := newTestOrchestrator(client, nil, nil).Diagnose(context.Background(), 9)
	require.Error(t, err)
}

func TestDiagnoseMeasurementErrorDegrades(t *testing.T) {
	client := &fakeClient{
		plant: &model.Plant{
			ID:           4,
			SoilMoisture: fp(50),
			Sensor:       model.SensorInfo{HasSensor: true},
		},
		measErr: errors.New("timeout"),
	}
	report, err := newTestOrchestrator(client, &fakeCareStore{}, &fakeContextStore{}).Diagnose(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, 0, report.MeasurementCount)
}

func TestDiagnoseStoreFailuresDropSections(t *testing.T) {
	client := &fakeClient{
		plant: &model.Plant{
			ID:           5,
			SoilMoisture: fp(50),
			Sensor:       model.SensorInfo{HasSensor: true},
		},
		measurements: measurementPayload(
			sampleAt(-1*time.Hour, map[string]any{"soil_moisture": 50.0}),
		),
	}
	report, err := newTestOrchestrator(client,
		&fakeCareStore{err: errors.New("db locked")},
		&fakeContextStore{err: errors.New("db locked")}).Diagnose(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, report.CareInsights)
	assert.Empty(t, report.ContextHints)
	// Watering advice still works from sensor data alone.
	require.NotNil(t, report.Watering)
}

func TestDiagnoseContextShapesAdvice(t *testing.T) {
	client := &fakeClient{
		plant: &model.Plant{
			ID:             6,
			SoilMoisture:   fp(35),
			MoistureStatus: 1,
			Sensor:         model.SensorInfo{HasSensor: true},
		},
		measurements: measurementPayload(
			sampleAt(-1*time.Hour, map[string]any{"soil_moisture": 35.0}),
		),
	}
	store := &fakeContextStore{ctx: &model.PlantContext{PlantID: 6, Substrate: model.SubstrateLechuzaPon}}

	report, err := newTestOrchestrator(client, &fakeCareStore{}, store).Diagnose(context.Background(), 6)
	require.NoError(t, err)
	require.NotNil(t, report.Watering)
	// 35% is optimal for lechuza_pon (30-70).
	assert.Equal(t, "maintain", report.Watering.Action)
	require.NotEmpty(t, report.ContextHints)
	assert.Equal(t, "substrate_context", report.ContextHints[0].Category)
}

func TestFoldHealth(t *testing.T) {
	mk := func(sevs ...string) []Issue {
		out := make([]Issue, len(sevs))
		for i, s := range sevs {
			out[i] = Issue{Severity: s}
		}
		return out
	}
	assert.Equal(t, "excellent", foldHealth(nil))
	assert.Equal(t, "excellent", foldHealth(mk("low")))
	assert.Equal(t, "good", foldHealth(mk("moderate")))
	assert.Equal(t, "fair", foldHealth(mk("moderate", "moderate")))
	assert.Equal(t, "fair", foldHealth(mk("high")))
	assert.Equal(t, "poor", foldHealth(mk("high", "high")))
	assert.Equal(t, "critical", foldHealth(mk("critical", "low")))
}

func TestConfidenceDiscounts(t *testing.T) {
	fresh := &model.Plant{
		Sensor:         model.SensorInfo{HasSensor: true},
		ReceivedDataAt: diagNow.Add(-time.Hour).Format(time.RFC3339),
	}
	assert.Equal(t, 1.0, confidence(fresh, diagNow, false))

	// Trend boost never exceeds 1.0.
	assert.Equal(t, 1.0, confidence(fresh, diagNow, true))

	noSensor := &model.Plant{}
	assert.InDelta(t, 0.5, confidence(noSensor, diagNow, false), 1e-9)

	stale := &model.Plant{
		Sensor:         model.SensorInfo{HasSensor: true},
		ReceivedDataAt: diagNow.Add(-30 * time.Hour).Format(time.RFC3339),
	}
	assert.InDelta(t, 0.8, confidence(stale, diagNow, false), 1e-9)

	// The staleness bands do not stack: >48h applies only the 0.6
	// discount.
	veryStale := &model.Plant{
		Sensor:         model.SensorInfo{HasSensor: true},
		ReceivedDataAt: diagNow.Add(-72 * time.Hour).Format(time.RFC3339),
	}
	assert.InDelta(t, 0.6, confidence(veryStale, diagNow, false), 1e-9)

	// Boost partially recovers a stale discount.
	assert.InDelta(t, 0.88, confidence(stale, diagNow, true), 1e-9)
}

func TestIssueSeverityAsymmetry(t *testing.T) {
	// The same relative deviation is weighted harder for low moisture
	// than for low temperature.
	moisture := issueSeverity(model.MetricMoisture, model.StatusLow, true, 0.3)
	temperature := issueSeverity(model.MetricTemperature, model.StatusLow, true, 0.3)
	assert.Equal(t, "high", moisture)
	assert.Equal(t, "moderate", temperature)

	assert.Equal(t, "critical", issueSeverity(model.MetricLight, model.StatusCritical, true, 0.1))
	assert.Equal(t, "low", issueSeverity(model.MetricLight, model.StatusLow, true, 0.1))
}

func TestRelativeDeviation(t *testing.T) {
	band := &model.Band{MinGood: 30, MaxGood: 70}

	dev, below := relativeDeviation(20, band)
	assert.True(t, below)
	assert.InDelta(t, 0.25, dev, 1e-9)

	dev, below = relativeDeviation(90, band)
	assert.False(t, below)
	assert.InDelta(t, 0.5, dev, 1e-9)

	dev, _ = relativeDeviation(50, band)
	assert.Zero(t, dev)
}
