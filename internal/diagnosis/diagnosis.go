// Package diagnosis composes the per-plant health report: threshold
// evaluation, severity weighting, watering and fertilization advice,
// care history insights and setup-aware context hints. All analysis is
// pure computation over already-fetched data; fetching is delegated to
// the injected collaborators.
package diagnosis

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/verdantlab/plantpulse/internal/analysis/threshold"
	"github.com/verdantlab/plantpulse/internal/extract"
	"github.com/verdantlab/plantpulse/internal/model"
)

// CloudClient is the upstream sensor API surface the orchestrator
// needs.
type CloudClient interface {
	GetPlantByID(ctx context.Context, id int) (*model.Plant, error)
	GetPlantMeasurements(ctx context.Context, id int, timeline string) (any, error)
}

// CareStore provides the locally logged care history.
type CareStore interface {
	PlantHistory(plantID int, days int, actionType string) ([]model.CareAction, error)
}

// ContextStore provides the user-recorded plant setup.
type ContextStore interface {
	Get(plantID int) (*model.PlantContext, error)
}

// Issue is one detected problem with its weighted severity.
type Issue struct {
	Metric      model.Metric `json:"metric"`
	Status      string       `json:"status"`
	Value       float64      `json:"value"`
	Deviation   float64      `json:"deviation"`
	Severity    string       `json:"severity"`
	Description string       `json:"description"`
}

// Recommendation is one prioritized action.
type Recommendation struct {
	Priority string `json:"priority"`
	Action   string `json:"action"`
}

// Report is the full diagnosis output.
type Report struct {
	PlantID          int                     `json:"plant_id"`
	PlantName        string                  `json:"plant_name"`
	Health           string                  `json:"health"`
	Confidence       float64                 `json:"confidence"`
	MainIssues       []string                `json:"mainIssues"`
	Issues           []Issue                 `json:"issues"`
	Recommendations  []Recommendation        `json:"recommendations"`
	Evaluation       *model.PlantEvaluation  `json:"evaluation,omitempty"`
	Watering         *WateringAdvice         `json:"watering,omitempty"`
	Fertilization    *FertilizationAdvice    `json:"fertilization,omitempty"`
	ContextHints     []ContextRecommendation `json:"context_recommendations,omitempty"`
	CareInsights     []CareInsight           `json:"care_insights,omitempty"`
	SensorInfo       SensorCapabilities      `json:"sensor_info"`
	GeneratedAt      time.Time               `json:"generated_at"`
	MeasurementCount int                     `json:"measurement_count"`
}

// Orchestrator wires the analysis steps over the injected
// collaborators.
type Orchestrator struct {
	client    CloudClient
	actions   CareStore
	contexts  ContextStore
	evaluator *threshold.Evaluator
	log       zerolog.Logger
	now       func() time.Time
}

// NewOrchestrator builds a diagnosis orchestrator. The care and
// context stores may be nil; the corresponding report sections are
// then omitted.
func NewOrchestrator(client CloudClient, actions CareStore, contexts ContextStore, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		client:    client,
		actions:   actions,
		contexts:  contexts,
		evaluator: threshold.NewEvaluator(log),
		log:       log,
		now:       time.Now,
	}
}

// severityRank orders issue severities, most urgent first.
var severityRank = map[string]int{"critical": 0, "high": 1, "moderate": 2, "low": 3}

// issueSeverity weighs a problem by its relative deviation from the
// optimal band. Moisture deficits escalate faster than other metrics
// because dehydration damages a plant within days while, say, a cool
// room does not.
func issueSeverity(metric model.Metric, status model.StatusCode, belowBand bool, deviation float64) string {
	if status == model.StatusCritical {
		return "critical"
	}
	if metric == model.MetricMoisture && belowBand {
		if deviation >= 0.25 {
			return "high"
		}
		return "moderate"
	}
	switch {
	case deviation >= 0.5:
		return "high"
	case deviation >= 0.2:
		return "moderate"
	default:
		return "low"
	}
}

// relativeDeviation measures how far outside the optimal band a value
// sits, normalized by the band width.
func relativeDeviation(value float64, band *model.Band) (dev float64, below bool) {
	if band == nil {
		return 0, false
	}
	width := band.MaxGood - band.MinGood
	if width <= 0 {
		width = band.MinGood
	}
	if width <= 0 {
		width = 1
	}
	switch {
	case value < band.MinGood:
		return (band.MinGood - value) / width, true
	case value > band.MaxGood:
		return (value - band.MaxGood) / width, false
	}
	return 0, false
}

type adviceEntry struct {
	action   string
	priority string
}

// recommendationTable maps (metric, status name) to a concrete action.
var recommendationTable = map[model.Metric]map[string]adviceEntry{
	model.MetricMoisture: {
		"critical": {"Water the plant immediately and thoroughly until water drains from the bottom", "urgent"},
		"low":      {"Water the plant within the next 1-2 days", "high"},
		"high":     {"Skip the next watering and let the soil dry out", "medium"},
	},
	model.MetricTemperature: {
		"critical": {"Move the plant away from heat sources or cold drafts now", "urgent"},
		"low":      {"Move the plant to a warmer spot away from drafts and cold windows", "medium"},
		"high":     {"Move the plant away from heaters and direct afternoon sun, increase ventilation", "high"},
	},
	model.MetricLight: {
		"critical": {"Relocate the plant or add a grow light today", "high"},
		"low":      {"Move the plant closer to a window or add a grow light", "medium"},
		"high":     {"Shield the plant from direct midday sun", "medium"},
	},
	model.MetricNutrients: {
		"critical": {"Flush the substrate with 2-3x pot volume of water to prevent nutrient burn", "urgent"},
		"low":      {"Fertilize with a balanced liquid fertilizer at standard dosage", "medium"},
		"high":     {"Pause fertilizing and water lightly to dilute excess salts", "medium"},
	},
}

const sensorErrorAction = "Check the sensor placement and clean the soil electrodes"

// effectiveValues re-derives current metric values from the
// measurement history. The plant snapshot can carry values that
// disagree with the latest measurement, so the measurement wins when
// both exist.
func effectiveValues(plant *model.Plant, measurements []model.Measurement) *model.Plant {
	if len(measurements) == 0 {
		return plant
	}
	latest := measurements[len(measurements)-1]
	p := *plant
	if latest.Temperature != nil {
		p.Temperature = latest.Temperature
	}
	if latest.Light != nil {
		p.Light = latest.Light
	}
	if latest.SoilMoisture != nil {
		p.SoilMoisture = latest.SoilMoisture
	}
	if latest.SoilFertility != nil {
		p.SoilFertility = latest.SoilFertility
	}
	return &p
}

// foldHealth reduces issue severities to the plant's overall health.
func foldHealth(issues []Issue) string {
	var critical, high, moderate int
	for _, is := range issues {
		switch is.Severity {
		case "critical":
			critical++
		case "high":
			high++
		case "moderate":
			moderate++
		}
	}
	switch {
	case critical > 0:
		return "critical"
	case high >= 2:
		return "poor"
	case high == 1 || moderate >= 2:
		return "fair"
	case moderate == 1:
		return "good"
	default:
		return "excellent"
	}
}

const (
	staleAfter     = 24 * time.Hour
	veryStaleAfter = 48 * time.Hour
)

// confidence discounts the report certainty for missing sensors and
// stale data, with a small boost when trend analysis succeeded. The
// staleness bands do not overlap: data older than 48h takes the larger
// discount only.
func confidence(plant *model.Plant, now time.Time, trendAnalyzed bool) float64 {
	score := 1.0
	if !plant.Sensor.HasSensor {
		score *= 0.5
	}
	if plant.ReceivedDataAt != "" {
		if last, err := extract.ParseTime(plant.ReceivedDataAt); err == nil {
			age := now.Sub(last)
			if age > veryStaleAfter {
				score *= 0.6
			} else if age > staleAfter {
				score *= 0.8
			}
		}
	}
	if trendAnalyzed {
		score *= 1.1
		if score > 1.0 {
			score = 1.0
		}
	}
	return score
}

// Diagnose builds the full health report for one plant. Failures in
// optional sub-analyses are logged and omitted; only failures to fetch
// the plant itself abort the diagnosis.
func (o *Orchestrator) Diagnose(ctx context.Context, plantID int) (*Report, error) {
	now := o.now()

	plant, err := o.client.GetPlantByID(ctx, plantID)
	if err != nil {
		return nil, fmt.Errorf("fetch plant %d: %w", plantID, err)
	}

	var measurements []model.Measurement
	payload, err := o.client.GetPlantMeasurements(ctx, plantID, "month")
	if err != nil {
		o.log.Warn().Err(err).Int("plant_id", plantID).Msg("measurements unavailable, diagnosing from snapshot only")
	} else {
		measurements = extract.Normalize(payload)
	}

	effective := effectiveValues(plant, measurements)

	var measurementsData map[string]any
	if md, ok := payload.(map[string]any); ok {
		measurementsData = md
	}

	moistureTrend := AnalyzeMoistureTrend(measurements, 7, now)
	evaluation := o.evaluator.EvaluatePlant(effective, measurementsData, nutrientTrendFromEC(measurements, now))

	report := &Report{
		PlantID:          plant.ID,
		PlantName:        plant.DisplayName(),
		Evaluation:       &evaluation,
		SensorInfo:       Capabilities(plant),
		GeneratedAt:      now,
		MeasurementCount: len(measurements),
		MainIssues:       []string{},
		Issues:           []Issue{},
		Recommendations:  []Recommendation{},
	}

	for _, metric := range model.Metrics {
		ev, ok := evaluation.Metrics[metric]
		if !ok || ev.Status == model.StatusOptimal || ev.Value == nil {
			continue
		}
		dev, below := relativeDeviation(*ev.Value, ev.Band)
		issue := Issue{
			Metric:    metric,
			Status:    ev.StatusName,
			Value:     *ev.Value,
			Deviation: dev,
			Severity:  issueSeverity(metric, ev.Status, below, dev),
		}
		issue.Description = fmt.Sprintf("%s is %s (%.1f)", metric, ev.StatusName, *ev.Value)
		report.Issues = append(report.Issues, issue)
	}

	sort.SliceStable(report.Issues, func(i, j int) bool {
		return severityRank[report.Issues[i].Severity] < severityRank[report.Issues[j].Severity]
	})

	for _, is := range report.Issues {
		report.MainIssues = append(report.MainIssues, is.Description)
		if is.Status == "sensor_error" {
			report.Recommendations = append(report.Recommendations, Recommendation{Priority: "medium", Action: sensorErrorAction})
			continue
		}
		key := "low"
		switch is.Status {
		case "critical_low", "critical_high":
			key = "critical"
		case "high":
			key = "high"
		}
		if entry, ok := recommendationTable[is.Metric][key]; ok {
			report.Recommendations = append(report.Recommendations, Recommendation{Priority: entry.priority, Action: entry.action})
		}
	}

	report.Health = foldHealth(report.Issues)
	report.Confidence = confidence(plant, now, moistureTrend.Analyzed)

	o.attachCareSections(report, effective, measurements, &moistureTrend, now)

	return report, nil
}

// attachCareSections adds the watering, fertilization, care history
// and context sections. Each section is independent; a failing store
// drops only its own section.
func (o *Orchestrator) attachCareSections(report *Report, plant *model.Plant, measurements []model.Measurement, moistureTrend *MoistureTrend, now time.Time) {
	var plantCtx *model.PlantContext
	if o.contexts != nil {
		ctx, err := o.contexts.Get(plant.ID)
		if err != nil {
			o.log.Warn().Err(err).Int("plant_id", plant.ID).Msg("context store unavailable")
		} else {
			plantCtx = ctx
		}
	}
	substrate := ""
	if plantCtx != nil {
		substrate = plantCtx.Substrate
	}

	var history []model.CareAction
	if o.actions != nil {
		h, err := o.actions.PlantHistory(plant.ID, 0, "")
		if err != nil {
			o.log.Warn().Err(err).Int("plant_id", plant.ID).Msg("care store unavailable")
		} else {
			history = h
		}
	}

	if moisture := plant.CurrentMoisture(); moisture != nil {
		var lastWatered *time.Time
		if w := lastOfType(history, model.ActionWatering); w != nil {
			ts := w.Timestamp
			lastWatered = &ts
		}
		advice := RecommendWatering(*moisture, moistureTrend, substrate, lastWatered, now)
		report.Watering = &advice
	}

	if ec := plant.CurrentEC(); ec != nil {
		ecTrend := AnalyzeECTrend(measurements, 30, now)
		advice := RecommendFertilization(*ec, &ecTrend, substrate, history, now)
		report.Fertilization = &advice
	}

	if len(history) > 0 {
		report.CareInsights = CareInsights(history, plant, now)
	}
	report.ContextHints = ContextRecommendations(plant, plantCtx)
}

// nutrientTrendFromEC summarizes the EC history for the threshold
// evaluator's sensor anomaly check.
func nutrientTrendFromEC(measurements []model.Measurement, now time.Time) *threshold.NutrientTrend {
	tr := AnalyzeECTrend(measurements, 30, now)
	if !tr.Analyzed {
		return nil
	}
	return &threshold.NutrientTrend{
		Analyzed:  true,
		Trend:     tr.Trend,
		InitialEC: tr.InitialEC,
	}
}
