// Package tools exposes the analysis surface as named operations over
// loosely typed argument bags, the dispatch layer service wrappers and
// automations call into. Every operation renders a JSON text result;
// failures become textual error results instead of propagating.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/verdantlab/plantpulse/internal/analysis/dli"
	"github.com/verdantlab/plantpulse/internal/analysis/events"
	"github.com/verdantlab/plantpulse/internal/analysis/stats"
	"github.com/verdantlab/plantpulse/internal/analysis/threshold"
	"github.com/verdantlab/plantpulse/internal/analysis/trend"
	"github.com/verdantlab/plantpulse/internal/diagnosis"
	"github.com/verdantlab/plantpulse/internal/extract"
	"github.com/verdantlab/plantpulse/internal/model"
	"github.com/verdantlab/plantpulse/internal/plantcloud"
)

// Cloud is the upstream surface the registry needs.
type Cloud interface {
	GetPlants(ctx context.Context) (*plantcloud.PlantsResponse, error)
	GetPlantByID(ctx context.Context, id int) (*model.Plant, error)
	GetPlantMeasurements(ctx context.Context, id int, timeline string) (any, error)
}

// ActionLog records and queries care actions.
type ActionLog interface {
	LogAction(action model.CareAction) (*model.CareAction, error)
	PlantHistory(plantID int, days int, actionType string) ([]model.CareAction, error)
}

// ContextStore keeps per-plant growing context.
type ContextStore interface {
	Set(ctx model.PlantContext) (*model.PlantContext, error)
	Get(plantID int) (*model.PlantContext, error)
}

// Diagnoser runs the full health diagnosis.
type Diagnoser interface {
	Diagnose(ctx context.Context, plantID int) (*diagnosis.Report, error)
}

// Result is the rendered outcome of one operation.
type Result struct {
	Text    string `json:"text"`
	IsError bool   `json:"is_error,omitempty"`
}

// Registry routes named operations to their handlers.
type Registry struct {
	cloud     Cloud
	actions   ActionLog
	contexts  ContextStore
	diagnoser Diagnoser

	// Previous plant snapshots for the edge-triggered detectors.
	snapshots *gocache.Cache
	eventCfg  events.Config

	log zerolog.Logger
	now func() time.Time

	handlers map[string]func(context.Context, map[string]any) (any, error)
}

// SetEventConfig overrides the detector thresholds used by
// get_plant_events. Zero fields keep the package defaults.
func (r *Registry) SetEventConfig(cfg events.Config) { r.eventCfg = cfg }

func New(cloud Cloud, actions ActionLog, contexts ContextStore, diagnoser Diagnoser, log zerolog.Logger) *Registry {
	r := &Registry{
		cloud:     cloud,
		actions:   actions,
		contexts:  contexts,
		diagnoser: diagnoser,
		snapshots: gocache.New(6*time.Hour, 30*time.Minute),
		log:       log.With().Str("component", "tools").Logger(),
		now:       time.Now,
	}
	r.handlers = map[string]func(context.Context, map[string]any) (any, error){
		"get_all_plants":               r.getAllPlants,
		"get_plant_details":            r.getPlantDetails,
		"get_plants_needing_attention": r.getPlantsNeedingAttention,
		"get_garden_overview":          r.getGardenOverview,
		"get_plant_measurements":       r.getPlantMeasurements,
		"diagnose_plant":               r.diagnosePlant,
		"get_plant_trends":             r.getPlantTrends,
		"get_plant_statistics":         r.getPlantStatistics,
		"get_plant_dli_analysis":       r.getPlantDLIAnalysis,
		"log_plant_care_action":        r.logPlantCareAction,
		"get_plant_care_history":       r.getPlantCareHistory,
		"get_plant_events":             r.getPlantEvents,
		"set_plant_context":            r.setPlantContext,
		"get_plant_context":            r.getPlantContext,
	}
	return r
}

// Names lists the registered operations.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	return names
}

// Call dispatches one operation. Unknown names, argument problems and
// handler failures all come back as error results, never as panics.
func (r *Registry) Call(ctx context.Context, name string, args map[string]any) (result Result) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error().Str("tool", name).Interface("panic", rec).Msg("tool handler panicked")
			result = Result{Text: fmt.Sprintf("Error: internal failure in %s", name), IsError: true}
		}
	}()

	handler, ok := r.handlers[name]
	if !ok {
		return Result{Text: fmt.Sprintf("Unknown tool: %s", name), IsError: true}
	}
	if args == nil {
		args = map[string]any{}
	}

	out, err := handler(ctx, args)
	if err != nil {
		r.log.Error().Err(err).Str("tool", name).Msg("tool call failed")
		return Result{Text: fmt.Sprintf("Error: %v", err), IsError: true}
	}
	if text, ok := out.(string); ok {
		return Result{Text: text}
	}
	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return Result{Text: fmt.Sprintf("Error: encode result: %v", err), IsError: true}
	}
	return Result{Text: string(encoded)}
}

// --- argument helpers ---

func intArg(args map[string]any, key string) (int, bool) {
	switch v := args[key].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func requirePlantID(args map[string]any) (int, error) {
	id, ok := intArg(args, "plant_id")
	if !ok {
		return 0, fmt.Errorf("missing or invalid required argument %q", "plant_id")
	}
	return id, nil
}

func stringArg(args map[string]any, key, fallback string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func boolArg(args map[string]any, key string, fallback bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return fallback
}

func validOneOf(value string, allowed ...string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}

// --- plant list operations ---

var statusNames = map[int]string{1: "Low", 2: "Optimal", 3: "High"}

func statusName(code int) string {
	if name, ok := statusNames[code]; ok {
		return name
	}
	return "Unknown"
}

func (r *Registry) getAllPlants(ctx context.Context, _ map[string]any) (any, error) {
	data, err := r.cloud.GetPlants(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"total_plants":  len(data.Plants),
		"total_gardens": len(data.Gardens),
		"gardens":       data.Gardens,
		"plants":        data.Plants,
	}, nil
}

func (r *Registry) getPlantDetails(ctx context.Context, args map[string]any) (any, error) {
	plantID, err := requirePlantID(args)
	if err != nil {
		return nil, err
	}
	plant, err := r.cloud.GetPlantByID(ctx, plantID)
	if err != nil {
		if errors.Is(err, plantcloud.ErrPlantNotFound) {
			return fmt.Sprintf("Plant with ID %d not found", plantID), nil
		}
		return nil, err
	}

	wifi := "Disconnected"
	if plant.WifiStatus == nil || *plant.WifiStatus == 1 {
		wifi = "Connected"
	}

	return map[string]any{
		"id":              plant.ID,
		"nickname":        plant.Nickname,
		"scientific_name": plant.ScientificName,
		"overall_status":  plant.Status,
		"sensor_status": map[string]any{
			"temperature": statusName(model.StatusOrDefault(plant.TemperatureStatus)),
			"light":       statusName(model.StatusOrDefault(plant.LightStatus)),
			"moisture":    statusName(model.StatusOrDefault(plant.MoistureStatus)),
			"nutrients":   statusName(model.StatusOrDefault(plant.SalinityStatus)),
		},
		"sensor_info":        plant.Sensor,
		"last_data_received": plant.ReceivedDataAt,
		"wifi_status":        wifi,
		"images": map[string]any{
			"plant_full": plant.PlantOriginPath,
			"user_thumb": plant.ThumbPath,
			"user_full":  plant.OriginPath,
		},
		"garden_id": plant.Garden.ID,
	}, nil
}

type attentionEntry struct {
	ID             int      `json:"id"`
	Nickname       string   `json:"nickname"`
	ScientificName string   `json:"scientific_name"`
	Issues         []string `json:"issues"`
	LastData       string   `json:"last_data,omitempty"`
}

func (r *Registry) getPlantsNeedingAttention(ctx context.Context, _ map[string]any) (any, error) {
	data, err := r.cloud.GetPlants(ctx)
	if err != nil {
		return nil, err
	}

	needsAttention := []attentionEntry{}
	for _, plant := range data.Plants {
		checks := []struct {
			label  string
			status int
		}{
			{"Temperature", plant.TemperatureStatus},
			{"Light", plant.LightStatus},
			{"Moisture", plant.MoistureStatus},
			{"Nutrients", plant.SalinityStatus},
		}
		var issues []string
		for _, c := range checks {
			status := model.StatusOrDefault(c.status)
			if status == 2 {
				continue
			}
			desc := "too high"
			if status == 1 {
				desc = "too low"
			}
			issues = append(issues, fmt.Sprintf("%s %s", c.label, desc))
		}
		if len(issues) > 0 {
			needsAttention = append(needsAttention, attentionEntry{
				ID:             plant.ID,
				Nickname:       plant.Nickname,
				ScientificName: plant.ScientificName,
				Issues:         issues,
				LastData:       plant.ReceivedDataAt,
			})
		}
	}

	return map[string]any{
		"plants_needing_attention": len(needsAttention),
		"plants":                   needsAttention,
	}, nil
}

func (r *Registry) getGardenOverview(ctx context.Context, _ map[string]any) (any, error) {
	data, err := r.cloud.GetPlants(ctx)
	if err != nil {
		return nil, err
	}

	type gardenPlant struct {
		ID        int    `json:"id"`
		Nickname  string `json:"nickname"`
		Status    int    `json:"status"`
		HasSensor bool   `json:"has_sensor"`
	}
	type gardenEntry struct {
		ID         int           `json:"id"`
		Name       string        `json:"name"`
		PlantCount int           `json:"plant_count"`
		Plants     []gardenPlant `json:"plants"`
	}

	byGarden := map[int][]gardenPlant{}
	for _, plant := range data.Plants {
		byGarden[plant.Garden.ID] = append(byGarden[plant.Garden.ID], gardenPlant{
			ID:        plant.ID,
			Nickname:  plant.Nickname,
			Status:    plant.Status,
			HasSensor: plant.Sensor.HasSensor,
		})
	}

	gardens := make([]gardenEntry, 0, len(data.Gardens))
	for _, g := range data.Gardens {
		plants := byGarden[g.ID]
		if plants == nil {
			plants = []gardenPlant{}
		}
		gardens = append(gardens, gardenEntry{
			ID:         g.ID,
			Name:       g.Name,
			PlantCount: len(plants),
			Plants:     plants,
		})
	}

	return map[string]any{
		"total_gardens": len(data.Gardens),
		"gardens":       gardens,
	}, nil
}

func (r *Registry) getPlantMeasurements(ctx context.Context, args map[string]any) (any, error) {
	plantID, err := requirePlantID(args)
	if err != nil {
		return nil, err
	}
	timeline := stringArg(args, "timeline", "month")
	if !validOneOf(timeline, "hour", "day", "week", "month") {
		return nil, fmt.Errorf("invalid timeline %q", timeline)
	}

	payload, err := r.cloud.GetPlantMeasurements(ctx, plantID, timeline)
	if err != nil {
		return fmt.Sprintf("Could not retrieve measurements for plant %d: %v", plantID, err), nil
	}
	return payload, nil
}

// --- analysis operations ---

func (r *Registry) diagnosePlant(ctx context.Context, args map[string]any) (any, error) {
	plantID, err := requirePlantID(args)
	if err != nil {
		return nil, err
	}
	report, err := r.diagnoser.Diagnose(ctx, plantID)
	if err != nil {
		return nil, err
	}
	if !boolArg(args, "include_recommendations", true) {
		report.Recommendations = nil
		report.Watering = nil
		report.Fertilization = nil
		report.ContextHints = nil
	}
	return report, nil
}

var metricNames = map[string]model.Metric{
	"temperature": model.MetricTemperature,
	"light":       model.MetricLight,
	"moisture":    model.MetricMoisture,
	"nutrients":   model.MetricNutrients,
}

func (r *Registry) fetchNormalized(ctx context.Context, plantID int, timeline string) (any, []model.Measurement, error) {
	payload, err := r.cloud.GetPlantMeasurements(ctx, plantID, timeline)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch measurements for plant %d: %w", plantID, err)
	}
	return payload, extract.Normalize(payload), nil
}

func (r *Registry) getPlantTrends(ctx context.Context, args map[string]any) (any, error) {
	plantID, err := requirePlantID(args)
	if err != nil {
		return nil, err
	}
	metric := stringArg(args, "metric", "all")
	if metric != "all" {
		if _, ok := metricNames[metric]; !ok {
			return nil, fmt.Errorf("invalid metric %q", metric)
		}
	}
	timeframe := stringArg(args, "timeframe", "week")
	if !validOneOf(timeframe, "hour", "day", "week", "month") {
		return nil, fmt.Errorf("invalid timeframe %q", timeframe)
	}

	plant, err := r.cloud.GetPlantByID(ctx, plantID)
	if err != nil {
		return nil, err
	}
	payload, ms, err := r.fetchNormalized(ctx, plantID, timeframe)
	if err != nil {
		return nil, err
	}

	payloadMap, _ := payload.(map[string]any)
	thresholds := threshold.ActiveThresholds(plant, payloadMap)

	selected := model.Metrics
	if metric != "all" {
		selected = []model.Metric{metricNames[metric]}
	}

	trends := map[string]any{}
	for _, m := range selected {
		series := extract.Series(ms, m)
		tr := trend.Calculate(series)
		entry := map[string]any{"trend": tr}

		// Downward extrapolation against the low acceptable bound,
		// where one exists.
		if tr.Analyzed && thresholds != nil {
			band := thresholds.Band(m)
			if !band.IsDegenerate() {
				critical := band.MinGood
				if band.MinAcceptable != nil {
					critical = *band.MinAcceptable
				}
				current := series[len(series)-1].Value
				entry["critical_prediction"] = trend.PredictCriticalTime(tr, current, critical)
			}
		}
		trends[string(m)] = entry
	}

	return map[string]any{
		"plant_id":    plantID,
		"plant_name":  plant.DisplayName(),
		"timeframe":   timeframe,
		"data_points": len(ms),
		"trends":      trends,
	}, nil
}

func (r *Registry) getPlantStatistics(ctx context.Context, args map[string]any) (any, error) {
	plantID, err := requirePlantID(args)
	if err != nil {
		return nil, err
	}
	timeframe := stringArg(args, "timeframe", "month")
	if !validOneOf(timeframe, "day", "week", "month") {
		return nil, fmt.Errorf("invalid timeframe %q", timeframe)
	}
	includeCorrelations := boolArg(args, "include_correlations", true)

	_, ms, err := r.fetchNormalized(ctx, plantID, timeframe)
	if err != nil {
		return nil, err
	}

	metrics := map[string]any{}
	series := map[model.Metric][]float64{}
	for _, m := range model.Metrics {
		values := extract.Values(ms, m)
		series[m] = values
		if len(values) == 0 {
			continue
		}
		metrics[string(m)] = map[string]any{
			"summary":   stats.Calculate(values),
			"stability": stats.Stability(values),
			"anomalies": stats.DetectAnomalies(values, 2.0),
		}
	}

	result := map[string]any{
		"plant_id":    plantID,
		"timeframe":   timeframe,
		"data_points": len(ms),
		"metrics":     metrics,
	}

	if includeCorrelations {
		correlations := map[string]float64{}
		pairs := [][2]model.Metric{
			{model.MetricTemperature, model.MetricLight},
			{model.MetricTemperature, model.MetricMoisture},
			{model.MetricLight, model.MetricMoisture},
			{model.MetricMoisture, model.MetricNutrients},
		}
		for _, p := range pairs {
			a, b := series[p[0]], series[p[1]]
			if len(a) < 2 || len(b) < 2 {
				continue
			}
			correlations[fmt.Sprintf("%s_vs_%s", p[0], p[1])] = stats.Correlation(a, b)
		}
		result["correlations"] = correlations
	}

	return result, nil
}

func (r *Registry) getPlantDLIAnalysis(ctx context.Context, args map[string]any) (any, error) {
	plantID, err := requirePlantID(args)
	if err != nil {
		return nil, err
	}
	timeframe := stringArg(args, "timeframe", "week")
	if !validOneOf(timeframe, "week", "month") {
		return nil, fmt.Errorf("invalid timeframe %q", timeframe)
	}

	plant, err := r.cloud.GetPlantByID(ctx, plantID)
	if err != nil {
		return nil, err
	}
	capability := diagnosis.CheckLightCapability(plant)
	if !capability.Capable {
		return map[string]any{
			"plant_id":   plantID,
			"plant_name": plant.DisplayName(),
			"capability": capability,
		}, nil
	}

	payload, ms, err := r.fetchNormalized(ctx, plantID, timeframe)
	if err != nil {
		return nil, err
	}
	days := dli.Daily(ms)
	if len(days) == 0 {
		return fmt.Sprintf("No light measurements available for plant %d", plantID), nil
	}
	current := days[len(days)-1]

	payloadMap, _ := payload.(map[string]any)
	band := model.Band{MinGood: 10, MaxGood: 30}
	if thresholds := threshold.ActiveThresholds(plant, payloadMap); thresholds != nil {
		if b := thresholds.Band(model.MetricLight); !b.IsDegenerate() {
			band = b
		}
	}

	status := dli.Classify(current.DLI, band.MinGood, band.MaxGood)
	result := map[string]any{
		"plant_id":    plantID,
		"plant_name":  plant.DisplayName(),
		"timeframe":   timeframe,
		"capability":  capability,
		"current_day": current,
		"daily":       days,
		"status":      status,
		"trend":       dli.AnalyzeTrend(days, band.MinGood),
		"seasonal":    dli.SeasonalForecast(current.DLI, r.now().Month()),
	}

	if boolArg(args, "include_grow_light_plan", true) && current.DLI < band.MinGood {
		target := (band.MinGood + band.MaxGood) / 2
		result["grow_light_plan"] = dli.GrowLightPlan(current.DLI, target, 12)
	}

	return result, nil
}

// --- care operations ---

var validActionTypes = []string{
	model.ActionWatering, model.ActionFertilizing, model.ActionRepotting,
	model.ActionPruning, model.ActionMisting, model.ActionCleaning,
	model.ActionRotating, model.ActionPest, model.ActionOther,
}

func (r *Registry) logPlantCareAction(_ context.Context, args map[string]any) (any, error) {
	if r.actions == nil {
		return nil, fmt.Errorf("care action store not configured")
	}
	plantID, err := requirePlantID(args)
	if err != nil {
		return nil, err
	}
	actionType := stringArg(args, "action_type", "")
	if !validOneOf(actionType, validActionTypes...) {
		return nil, fmt.Errorf("invalid action_type %q", actionType)
	}

	metadata := map[string]any{}
	for _, key := range []string{"amount", "product"} {
		if v := stringArg(args, key, ""); v != "" {
			metadata[key] = v
		}
	}
	if len(metadata) == 0 {
		metadata = nil
	}

	logged, err := r.actions.LogAction(model.CareAction{
		PlantID:    plantID,
		ActionType: actionType,
		Notes:      stringArg(args, "notes", ""),
		Metadata:   metadata,
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"logged": true,
		"action": logged,
	}, nil
}

func (r *Registry) getPlantCareHistory(ctx context.Context, args map[string]any) (any, error) {
	if r.actions == nil {
		return nil, fmt.Errorf("care action store not configured")
	}
	plantID, err := requirePlantID(args)
	if err != nil {
		return nil, err
	}
	days, ok := intArg(args, "days")
	if !ok {
		days = 30
	}
	actionType := stringArg(args, "action_type", "")
	if actionType != "" && !validOneOf(actionType, validActionTypes...) {
		return nil, fmt.Errorf("invalid action_type %q", actionType)
	}

	history, err := r.actions.PlantHistory(plantID, days, actionType)
	if err != nil {
		return nil, err
	}

	result := map[string]any{
		"plant_id":     plantID,
		"days":         days,
		"action_count": len(history),
		"actions":      history,
	}

	if !boolArg(args, "include_analysis", true) || len(history) == 0 {
		return result, nil
	}

	analysis := map[string]any{
		"watering_frequency": diagnosis.CalculateWateringFrequency(history),
	}
	// Effectiveness and correlation need sensor history; degrade to
	// frequency-only analysis when the cloud fetch fails.
	if _, ms, err := r.fetchNormalized(ctx, plantID, "month"); err == nil {
		analysis["watering_effectiveness"] = diagnosis.AnalyzeWateringEffectiveness(history, ms)
		analysis["fertilizing_correlation"] = diagnosis.CorrelateFertilizing(history, ms)
	} else {
		r.log.Warn().Err(err).Int("plant_id", plantID).Msg("care analysis without measurements")
	}
	if plant, err := r.cloud.GetPlantByID(ctx, plantID); err == nil {
		analysis["insights"] = diagnosis.CareInsights(history, plant, r.now())
	}
	result["analysis"] = analysis

	return result, nil
}

// --- event operations ---

func snapshotKey(plantID int) string { return fmt.Sprintf("plant:%d", plantID) }

func (r *Registry) previousSnapshot(plantID int) *model.Plant {
	if cached, ok := r.snapshots.Get(snapshotKey(plantID)); ok {
		prev := cached.(model.Plant)
		return &prev
	}
	return nil
}

func (r *Registry) getPlantEvents(ctx context.Context, args map[string]any) (any, error) {
	data, err := r.cloud.GetPlants(ctx)
	if err != nil {
		return nil, err
	}

	filter := events.Filter{}
	if plantID, ok := intArg(args, "plant_id"); ok {
		filter.PlantIDs = []int{plantID}
	}
	if v := stringArg(args, "severity", ""); v != "" {
		if !validOneOf(v, model.SeverityCritical, model.SeverityWarning, model.SeverityInfo) {
			return nil, fmt.Errorf("invalid severity %q", v)
		}
		filter.Severities = []string{v}
	}
	if v := stringArg(args, "priority", ""); v != "" {
		filter.Priorities = []string{v}
	}
	if v := stringArg(args, "event_type", ""); v != "" {
		filter.Types = []string{v}
	}
	if v, ok := args["actionable_only"].(bool); ok && v {
		actionable := true
		filter.Actionable = &actionable
	}

	now := r.now()
	var detected []model.Event
	for i := range data.Plants {
		plant := &data.Plants[i]
		previous := r.previousSnapshot(plant.ID)
		detected = append(detected, events.DetectAll(plant, previous, r.eventCfg, now)...)
		r.snapshots.Set(snapshotKey(plant.ID), *plant, gocache.DefaultExpiration)
	}

	filtered := filter.Apply(detected)
	events.Sort(filtered)

	return map[string]any{
		"event_count": len(filtered),
		"summary":     events.Summarize(filtered),
		"events":      filtered,
	}, nil
}

// --- context operations ---

func (r *Registry) setPlantContext(_ context.Context, args map[string]any) (any, error) {
	if r.contexts == nil {
		return nil, fmt.Errorf("plant context store not configured")
	}
	plantID, err := requirePlantID(args)
	if err != nil {
		return nil, err
	}

	substrate := stringArg(args, "substrate", "")
	if substrate != "" && !validOneOf(substrate,
		model.SubstrateMineral, model.SubstrateOrganic, model.SubstrateLechuzaPon,
		model.SubstrateHydroponic, model.SubstrateSemiHydro) {
		return nil, fmt.Errorf("invalid substrate %q", substrate)
	}
	container := stringArg(args, "container", "")
	if container != "" && !validOneOf(container, "lechuza", "self_watering", "terracotta", "plastic") {
		return nil, fmt.Errorf("invalid container %q", container)
	}
	growthPhase := stringArg(args, "growth_phase", "")
	if growthPhase != "" && !validOneOf(growthPhase, "seedling", "vegetative", "flowering", "fruiting", "dormant") {
		return nil, fmt.Errorf("invalid growth_phase %q", growthPhase)
	}

	stored, err := r.contexts.Set(model.PlantContext{
		PlantID:     plantID,
		Substrate:   substrate,
		Container:   container,
		GrowthPhase: growthPhase,
		Notes:       stringArg(args, "notes", ""),
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"stored":  true,
		"context": stored,
	}, nil
}

func (r *Registry) getPlantContext(ctx context.Context, args map[string]any) (any, error) {
	if r.contexts == nil {
		return nil, fmt.Errorf("plant context store not configured")
	}
	plantID, err := requirePlantID(args)
	if err != nil {
		return nil, err
	}

	stored, err := r.contexts.Get(plantID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return fmt.Sprintf("No context stored for plant %d", plantID), nil
	}

	result := map[string]any{
		"plant_id": plantID,
		"context":  stored,
	}
	// The interpretation layer needs current sensor state; serve the
	// stored context alone when the plant fetch fails.
	if plant, err := r.cloud.GetPlantByID(ctx, plantID); err == nil {
		result["sensor_interpretation"] = diagnosis.InterpretSensors(plant, stored)
		result["recommendations"] = diagnosis.ContextRecommendations(plant, stored)
	} else {
		r.log.Warn().Err(err).Int("plant_id", plantID).Msg("context served without sensor interpretation")
	}
	return result, nil
}
