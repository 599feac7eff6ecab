// Package threshold reconciles sensor values against the per-plant
// threshold bands delivered by the cloud. The vendor's own status codes
// are frequently inconsistent with the bands it supplies, so evaluation
// is done locally and the vendor code is only kept as provenance.
package threshold

import (
	"github.com/rs/zerolog"

	"github.com/verdantlab/plantpulse/internal/model"
)

// Fallback nutrient band used when the active set carries the known
// degenerate (0,0) salinity band and no summer alternative exists.
// 0.2-1.0 mS/cm covers the winter through summer optimum.
const (
	fallbackECMinGood = 0.2
	fallbackECMaxGood = 1.0
)

// EvaluateMetric maps a value into the four-level status against a
// band. The acceptable bounds, when present, widen the band outward
// into the critical tiers.
func EvaluateMetric(value float64, b model.Band) (model.StatusCode, string) {
	if value >= b.MinGood && value <= b.MaxGood {
		return model.StatusOptimal, "optimal"
	}
	if value < b.MinGood {
		if b.MinAcceptable != nil && value < *b.MinAcceptable {
			return model.StatusCritical, "critical_low"
		}
		return model.StatusLow, "low"
	}
	if b.MaxAcceptable != nil && value > *b.MaxAcceptable {
		return model.StatusCritical, "critical_high"
	}
	return model.StatusHigh, "high"
}

// ActiveThresholds resolves the threshold set to evaluate against:
// the measurement response's thresholds, then the first entry of its
// seasonal list, then the plant's own embedded set. Returns nil when
// nothing is resolvable.
func ActiveThresholds(plant *model.Plant, measurementsData map[string]any) *model.ThresholdSet {
	if measurementsData != nil {
		if raw, ok := measurementsData["thresholds"].(map[string]any); ok {
			return parseThresholdSet(raw)
		}
		if list, ok := measurementsData["thresholds_list"].([]any); ok && len(list) > 0 {
			if raw, ok := list[0].(map[string]any); ok {
				return parseThresholdSet(raw)
			}
		}
	}
	if plant != nil {
		if plant.Thresholds != nil {
			return parseThresholdSet(plant.Thresholds)
		}
		if len(plant.ThresholdsList) > 0 {
			return parseThresholdSet(plant.ThresholdsList[0])
		}
	}
	return nil
}

// summerThresholds looks for an explicit summer season entry, used as
// the preferred substitute for a degenerate winter nutrient band.
func summerThresholds(plant *model.Plant, measurementsData map[string]any) *model.ThresholdSet {
	var list []map[string]any
	if measurementsData != nil {
		if raw, ok := measurementsData["thresholds_list"].([]any); ok {
			for _, item := range raw {
				if m, ok := item.(map[string]any); ok {
					list = append(list, m)
				}
			}
		}
	}
	list = append(list, plantList(plant)...)
	for _, raw := range list {
		if t, _ := raw["thresholds_type"].(string); t == "summer" {
			return parseThresholdSet(raw)
		}
	}
	return nil
}

func plantList(plant *model.Plant) []map[string]any {
	if plant == nil {
		return nil
	}
	return plant.ThresholdsList
}

func parseThresholdSet(raw map[string]any) *model.ThresholdSet {
	ts := &model.ThresholdSet{}
	ts.Type, _ = raw["thresholds_type"].(string)
	ts.TemperatureMinGood = numField(raw, "temperature_min_good")
	ts.TemperatureMaxGood = numField(raw, "temperature_max_good")
	ts.TemperatureMinAcceptable = numField(raw, "temperature_min_acceptable")
	ts.TemperatureMaxAcceptable = numField(raw, "temperature_max_acceptable")
	ts.LightMinGood = numField(raw, "light_min_good")
	ts.LightMaxGood = numField(raw, "light_max_good")
	ts.LightMinAcceptable = numField(raw, "light_min_acceptable")
	ts.LightMaxAcceptable = numField(raw, "light_max_acceptable")
	ts.MoistureMinGood = numField(raw, "moisture_min_good")
	ts.MoistureMaxGood = numField(raw, "moisture_max_good")
	ts.MoistureMinAcceptable = numField(raw, "moisture_min_acceptable")
	ts.MoistureMaxAcceptable = numField(raw, "moisture_max_acceptable")
	ts.SalinityMinGood = numField(raw, "salinity_min_good")
	ts.SalinityMaxGood = numField(raw, "salinity_max_good")
	ts.SalinityMinAcceptable = numField(raw, "salinity_min_acceptable")
	ts.SalinityMaxAcceptable = numField(raw, "salinity_max_acceptable")
	return ts
}

func numField(raw map[string]any, key string) *float64 {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil
	}
	switch n := v.(type) {
	case float64:
		return &n
	case int:
		f := float64(n)
		return &f
	}
	return nil
}

// NutrientTrend is the independently computed EC trend consulted by
// the sensor-anomaly override.
type NutrientTrend struct {
	Analyzed  bool
	Trend     string
	InitialEC float64
}

// Evaluator evaluates whole plants against their active thresholds.
type Evaluator struct {
	log zerolog.Logger
}

func NewEvaluator(log zerolog.Logger) *Evaluator {
	return &Evaluator{log: log}
}

// EvaluatePlant composes the four metric evaluations for one plant.
// When no threshold set is resolvable at all it degrades to trusting
// the vendor status codes and flags the result accordingly.
func (e *Evaluator) EvaluatePlant(plant *model.Plant, measurementsData map[string]any, ecTrend *NutrientTrend) model.PlantEvaluation {
	result := model.PlantEvaluation{
		PlantID: plant.ID,
		Metrics: map[model.Metric]*model.MetricEvaluation{},
	}

	thresholds := ActiveThresholds(plant, measurementsData)
	if thresholds == nil {
		e.log.Warn().Int("plant_id", plant.ID).Msg("no thresholds resolvable, trusting vendor status codes")
		result.VendorFallback = true
		result.Metrics[model.MetricTemperature] = vendorEval(model.MetricTemperature, plant.Temperature, plant.TemperatureStatus)
		result.Metrics[model.MetricLight] = vendorEval(model.MetricLight, plant.Light, plant.LightStatus)
		result.Metrics[model.MetricMoisture] = vendorEval(model.MetricMoisture, plant.CurrentMoisture(), plant.MoistureStatus)
		result.Metrics[model.MetricNutrients] = vendorEval(model.MetricNutrients, plant.CurrentEC(), plant.SalinityStatus)
		return result
	}
	result.ThresholdsType = thresholds.Type

	if plant.Temperature != nil {
		result.Metrics[model.MetricTemperature] = e.evalSimple(model.MetricTemperature, *plant.Temperature, thresholds.Band(model.MetricTemperature), plant.TemperatureStatus)
	}
	if v := plant.CurrentMoisture(); v != nil {
		result.Metrics[model.MetricMoisture] = e.evalSimple(model.MetricMoisture, *v, thresholds.Band(model.MetricMoisture), plant.MoistureStatus)
	}
	if v := plant.CurrentEC(); v != nil {
		result.Metrics[model.MetricNutrients] = e.evalNutrients(plant, *v, thresholds, measurementsData, ecTrend)
	}
	if plant.Light != nil {
		result.Metrics[model.MetricLight] = e.evalLight(*plant.Light, thresholds.Band(model.MetricLight), plant.LightStatus)
	}

	return result
}

func vendorEval(metric model.Metric, value *float64, vendorStatus int) *model.MetricEvaluation {
	status := model.StatusCode(model.StatusOrDefault(vendorStatus))
	return &model.MetricEvaluation{
		Metric:       metric,
		Value:        value,
		Status:       status,
		StatusName:   status.Name(),
		VendorStatus: vendorStatus,
		VendorAgrees: true,
		Note:         "vendor status, no thresholds available",
	}
}

func (e *Evaluator) evalSimple(metric model.Metric, value float64, band model.Band, vendorStatus int) *model.MetricEvaluation {
	code, name := EvaluateMetric(value, band)
	return &model.MetricEvaluation{
		Metric:       metric,
		Value:        &value,
		Status:       code,
		StatusName:   name,
		Band:         &band,
		VendorStatus: vendorStatus,
		VendorAgrees: int(code) == model.StatusOrDefault(vendorStatus),
	}
}

// evalLight clamps the lower acceptable bound to 0: insufficient light
// is never classified critical, only low. Light deficiency is rarely
// acutely dangerous compared to moisture or temperature extremes.
func (e *Evaluator) evalLight(value float64, band model.Band, vendorStatus int) *model.MetricEvaluation {
	zero := 0.0
	if band.MinAcceptable == nil || *band.MinAcceptable > 0 {
		band.MinAcceptable = &zero
	}
	ev := e.evalSimple(model.MetricLight, value, band, vendorStatus)
	return ev
}

// evalNutrients handles the two upstream defects around EC readings:
// the degenerate (0,0) winter band, and the anomaly flag that cannot
// distinguish sensor failure from genuine depletion on its own.
func (e *Evaluator) evalNutrients(plant *model.Plant, value float64, thresholds *model.ThresholdSet, measurementsData map[string]any, ecTrend *NutrientTrend) *model.MetricEvaluation {
	band := thresholds.Band(model.MetricNutrients)
	adjusted := false

	if band.IsDegenerate() {
		if summer := summerThresholds(plant, measurementsData); summer != nil {
			sb := summer.Band(model.MetricNutrients)
			if !sb.IsDegenerate() {
				band.MinGood, band.MaxGood = sb.MinGood, sb.MaxGood
			}
		}
		if band.IsDegenerate() {
			band.MinGood, band.MaxGood = fallbackECMinGood, fallbackECMaxGood
		}
		adjusted = true
	}

	ev := e.evalSimple(model.MetricNutrients, value, band, plant.SalinityStatus)
	if adjusted {
		ev.Note = "degenerate nutrient band substituted"
	}

	if plant.SoilFertilityAnomaly {
		if value == 0 {
			// A reading that sat meaningfully above zero and jumped
			// straight to zero is a sensor fault; a gradual decline to
			// zero is genuine depletion. Without trend data, default
			// conservatively to sensor error.
			sensorError := true
			if ecTrend != nil && ecTrend.Analyzed {
				if ecTrend.InitialEC <= 0.3 || ecTrend.Trend == "decreasing" {
					sensorError = false
				}
			}
			if sensorError {
				e.log.Warn().Int("plant_id", plant.ID).Msg("nutrient anomaly at EC=0 classified as sensor error")
				ev.Status = model.StatusCritical
				ev.StatusName = "sensor_error"
				ev.Note = "anomaly flag with abrupt drop to zero"
			} else {
				ev.Note = "EC reached zero by gradual depletion, fertilization needed"
			}
		} else {
			e.log.Warn().Int("plant_id", plant.ID).Float64("ec", value).Msg("nutrient sensor anomaly on non-zero reading")
			ev.Status = model.StatusCritical
			ev.StatusName = "sensor_error"
			ev.Note = "anomaly flag on non-zero reading, value unreliable"
		}
	}

	return ev
}
