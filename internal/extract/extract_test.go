package extract

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantlab/plantpulse/internal/model"
)

func rec(ts string, fields map[string]any) map[string]any {
	out := map[string]any{"date_utc": ts}
	for k, v := range fields {
		out[k] = v
	}
	return out
}

func TestRecordsBareList(t *testing.T) {
	payload := []any{
		rec("2024-01-01T00:00:00Z", map[string]any{"temperature": 20.0}),
		rec("2024-01-01T01:00:00Z", map[string]any{"temperature": 21.0}),
	}
	assert.Len(t, Records(payload), 2)
}

func TestRecordsWrappedList(t *testing.T) {
	payload := map[string]any{
		"thresholds": map[string]any{"temperature_min_good": 15.0},
		"measurements": []any{
			rec("2024-01-01T00:00:00Z", map[string]any{"light": 100.0}),
		},
	}
	recs := Records(payload)
	require.Len(t, recs, 1)
	_, ok := recs[0]["light"]
	assert.True(t, ok)
}

func TestRecordsHeuristicUnknownKey(t *testing.T) {
	payload := map[string]any{
		"series": []any{
			rec("2024-01-01T00:00:00Z", map[string]any{"soil_moisture": 55.0}),
		},
	}
	assert.Len(t, Records(payload), 1)
}

func TestRecordsUnrecognizable(t *testing.T) {
	assert.Empty(t, Records(map[string]any{"status": "ok"}))
	assert.Empty(t, Records("garbage"))
	assert.Empty(t, Records(nil))
}

func TestTimestampFieldPriority(t *testing.T) {
	ts, ok := Timestamp(map[string]any{
		"created_at": "2024-03-01T00:00:00Z",
		"date_utc":   "2024-01-01T00:00:00Z",
	})
	require.True(t, ok)
	assert.Equal(t, 2024, ts.Year())
	assert.Equal(t, time.January, ts.Month())
}

func TestTimestampSpaceSeparatedFormat(t *testing.T) {
	ts, ok := Timestamp(map[string]any{"date_utc": "2025-12-23 20:00:55"})
	require.True(t, ok)
	assert.Equal(t, 20, ts.Hour())
}

func TestTimestampAbsent(t *testing.T) {
	_, ok := Timestamp(map[string]any{"temperature": 20.0})
	assert.False(t, ok)
}

func TestNormalizeDiscardsUnusableRecords(t *testing.T) {
	payload := []any{
		rec("2024-01-01T00:00:00Z", map[string]any{"temperature": 20.0}),
		map[string]any{"temperature": 21.0},                  // no timestamp
		rec("2024-01-01T02:00:00Z", map[string]any{}),        // no value
		rec("not-a-date", map[string]any{"moisture": 40.0}),  // bad timestamp
	}
	ms := Normalize(payload)
	require.Len(t, ms, 1)
	assert.Equal(t, 20.0, *ms[0].Temperature)
}

func TestNormalizeSortsChronologically(t *testing.T) {
	payload := []any{
		rec("2024-01-03T00:00:00Z", map[string]any{"light": 3.0}),
		rec("2024-01-01T00:00:00Z", map[string]any{"light": 1.0}),
		rec("2024-01-02T00:00:00Z", map[string]any{"light": 2.0}),
	}
	ms := Normalize(payload)
	require.Len(t, ms, 3)
	assert.Equal(t, 1.0, *ms[0].Light)
	assert.Equal(t, 3.0, *ms[2].Light)
}

func TestNormalizePrefersCalibratedFields(t *testing.T) {
	payload := []any{
		rec("2024-01-01T00:00:00Z", map[string]any{
			"soil_moisture": 60.0, "moisture": 10.0,
			"soil_fertility": 0.8, "salinity": 0.1,
		}),
	}
	ms := Normalize(payload)
	require.Len(t, ms, 1)
	assert.Equal(t, 60.0, *ms[0].SoilMoisture)
	assert.Equal(t, 0.8, *ms[0].SoilFertility)
}

func TestLatestOrderInvariant(t *testing.T) {
	base := []any{
		rec("2024-01-01T00:00:00Z", map[string]any{"temperature": 1.0}),
		rec("2024-01-05T00:00:00Z", map[string]any{"temperature": 5.0}),
		rec("2024-01-03T00:00:00Z", map[string]any{"temperature": 3.0}),
		rec("2024-01-02T00:00:00Z", map[string]any{"temperature": 2.0}),
	}
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 10; i++ {
		shuffled := make([]any, len(base))
		copy(shuffled, base)
		r.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		latest, ok := Latest(shuffled)
		require.True(t, ok)
		assert.Equal(t, 5.0, *latest.Temperature)
	}
}

func TestLatestEmpty(t *testing.T) {
	_, ok := Latest([]any{})
	assert.False(t, ok)
}

func TestSeriesHoursSinceFirstSample(t *testing.T) {
	ms := Normalize([]any{
		rec("2024-01-01T00:00:00Z", map[string]any{"soil_moisture": 80.0}),
		rec("2024-01-01T06:00:00Z", map[string]any{"temperature": 20.0}), // no moisture
		rec("2024-01-02T00:00:00Z", map[string]any{"soil_moisture": 40.0}),
	})
	points := Series(ms, model.MetricMoisture)
	require.Len(t, points, 2)
	assert.Equal(t, 0.0, points[0].Hours)
	assert.Equal(t, 24.0, points[1].Hours)
	assert.Equal(t, 40.0, points[1].Value)
}

func TestNumberTolerantTypes(t *testing.T) {
	v, ok := Number(map[string]any{"temperature": "21.5"}, "temperature")
	require.True(t, ok)
	assert.Equal(t, 21.5, v)

	v, ok = Number(map[string]any{"light": 100}, "light")
	require.True(t, ok)
	assert.Equal(t, 100.0, v)

	_, ok = Number(map[string]any{"light": nil}, "light")
	assert.False(t, ok)
}

func TestWindow(t *testing.T) {
	ms := Normalize([]any{
		rec("2024-01-01T00:00:00Z", map[string]any{"temperature": 1.0}),
		rec("2024-01-10T00:00:00Z", map[string]any{"temperature": 2.0}),
	})
	cutoff, _ := time.Parse(time.RFC3339, "2024-01-05T00:00:00Z")
	assert.Len(t, Window(ms, cutoff), 1)
}
