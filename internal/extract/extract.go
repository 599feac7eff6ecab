// Package extract normalizes the loosely shaped measurement payloads of
// the sensor cloud into canonical typed records. Field names drift
// between API versions and collections arrive in no guaranteed order,
// so all schema tolerance lives here and nowhere else.
package extract

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/verdantlab/plantpulse/internal/model"
)

// Timestamp field candidates in priority order. The current API uses
// date_utc, older exports used measured_at.
var timestampFields = []string{"date_utc", "measured_at", "timestamp", "created_at", "date", "time"}

// Wrapper keys under which the API has been observed to nest the
// measurement list.
var listKeys = []string{"measurements", "data", "values", "items", "results"}

// Metric value field candidates, used by the list heuristic to decide
// whether an anonymous list is measurement-like.
var metricFields = []string{"temperature", "light", "moisture", "soil_moisture", "salinity", "soil_fertility"}

// Records flattens a heterogeneous response into a list of raw
// measurement records. Accepts a bare list, a dict wrapping a list
// under a known key, or an unknown dict whose first measurement-like
// list is taken. Returns an empty slice when nothing recognizable is
// found, never an error.
func Records(payload any) []map[string]any {
	switch v := payload.(type) {
	case []map[string]any:
		return v
	case []any:
		return toRecordList(v)
	case map[string]any:
		for _, key := range listKeys {
			if list, ok := v[key].([]any); ok {
				if recs := toRecordList(list); len(recs) > 0 {
					return recs
				}
			}
		}
		// Unknown structure: accept the first list of dicts whose
		// elements look like measurements.
		for _, val := range v {
			list, ok := val.([]any)
			if !ok {
				continue
			}
			recs := toRecordList(list)
			if len(recs) > 0 && looksLikeMeasurement(recs[0]) {
				return recs
			}
		}
	}
	return nil
}

func toRecordList(list []any) []map[string]any {
	recs := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if rec, ok := item.(map[string]any); ok {
			recs = append(recs, rec)
		}
	}
	return recs
}

func looksLikeMeasurement(rec map[string]any) bool {
	for _, f := range timestampFields {
		if _, ok := rec[f]; ok {
			return true
		}
	}
	for _, f := range metricFields {
		if _, ok := rec[f]; ok {
			return true
		}
	}
	return false
}

// Timestamp resolves the best available timestamp of a raw record,
// trying the candidate field names in priority order. A record without
// any parsable candidate cannot be time-ordered and is reported false.
func Timestamp(rec map[string]any) (time.Time, bool) {
	for _, field := range timestampFields {
		raw, ok := rec[field]
		if !ok {
			continue
		}
		s, ok := raw.(string)
		if !ok || s == "" {
			continue
		}
		if ts, err := ParseTime(s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// ParseTime parses the timestamp formats the cloud emits. Values
// without an explicit zone are taken as UTC.
func ParseTime(s string) (time.Time, error) {
	if strings.Contains(s, "T") {
		if ts, err := time.Parse(time.RFC3339, s); err == nil {
			return ts, nil
		}
		return time.Parse("2006-01-02T15:04:05", s)
	}
	return time.Parse("2006-01-02 15:04:05", s)
}

// Number reads the first present numeric field from a raw record.
func Number(rec map[string]any, keys ...string) (float64, bool) {
	for _, key := range keys {
		raw, ok := rec[key]
		if !ok || raw == nil {
			continue
		}
		if v, ok := asFloat(raw); ok {
			return v, true
		}
	}
	return 0, false
}

func asFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	}
	return 0, false
}

// Normalize converts a raw payload into canonical measurements sorted
// ascending by timestamp. Records without a resolvable timestamp or
// without any recognizable value field are discarded.
func Normalize(payload any) []model.Measurement {
	recs := Records(payload)
	out := make([]model.Measurement, 0, len(recs))
	for _, rec := range recs {
		ts, ok := Timestamp(rec)
		if !ok {
			continue
		}
		m := model.Measurement{Timestamp: ts}
		found := false
		if v, ok := Number(rec, "temperature"); ok {
			m.Temperature = &v
			found = true
		}
		if v, ok := Number(rec, "light"); ok {
			m.Light = &v
			found = true
		}
		if v, ok := Number(rec, "soil_moisture", "moisture"); ok {
			m.SoilMoisture = &v
			found = true
		}
		if v, ok := Number(rec, "soil_fertility", "salinity"); ok {
			m.SoilFertility = &v
			found = true
		}
		if !found {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

// Latest returns the most recent measurement of a payload. Upstream
// ordering is unreliable, so the result is found by explicit
// max-by-timestamp and is invariant to input order.
func Latest(payload any) (model.Measurement, bool) {
	ms := Normalize(payload)
	if len(ms) == 0 {
		return model.Measurement{}, false
	}
	return ms[len(ms)-1], true
}

// Series projects one metric of a sorted measurement collection into
// (hours since first sample, value) points, skipping absent values.
func Series(ms []model.Measurement, metric model.Metric) []model.Point {
	var points []model.Point
	var epoch time.Time
	for _, m := range ms {
		v := m.Value(metric)
		if v == nil {
			continue
		}
		if epoch.IsZero() {
			epoch = m.Timestamp
		}
		points = append(points, model.Point{
			Hours: m.Timestamp.Sub(epoch).Hours(),
			Value: *v,
		})
	}
	return points
}

// Values projects one metric into a flat numeric sequence.
func Values(ms []model.Measurement, metric model.Metric) []float64 {
	var out []float64
	for _, m := range ms {
		if v := m.Value(metric); v != nil {
			out = append(out, *v)
		}
	}
	return out
}

// Window filters a sorted measurement collection to samples at or
// after the cutoff.
func Window(ms []model.Measurement, cutoff time.Time) []model.Measurement {
	var out []model.Measurement
	for _, m := range ms {
		if !m.Timestamp.Before(cutoff) {
			out = append(out, m)
		}
	}
	return out
}
