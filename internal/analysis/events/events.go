// Package events runs the per-plant automation detectors. Each
// detector is pure given (current snapshot, optional previous
// snapshot, config); without a persisted previous snapshot the
// edge-triggered detectors stay silent. Detection passes never persist
// anything themselves, so callers polling on a schedule must dedupe
// with their own state.
package events

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/verdantlab/plantpulse/internal/extract"
	"github.com/verdantlab/plantpulse/internal/model"
)

// Config carries the detector thresholds. Zero values fall back to the
// defaults below.
type Config struct {
	SilenceThreshold time.Duration
	BatteryThreshold float64
}

const (
	defaultSilenceThreshold = 90 * time.Minute
	defaultBatteryThreshold = 20.0
)

func (c Config) withDefaults() Config {
	if c.SilenceThreshold <= 0 {
		c.SilenceThreshold = defaultSilenceThreshold
	}
	if c.BatteryThreshold <= 0 {
		c.BatteryThreshold = defaultBatteryThreshold
	}
	return c
}

// ID derives the deterministic event identity from plant, type and
// generation time. Not a stable dedup key across polls.
func ID(plantID int, eventType string, ts time.Time) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d:%s:%s", plantID, eventType, ts.Format(time.RFC3339Nano))))
	return hex.EncodeToString(sum[:])[:12]
}

func newEvent(plant *model.Plant, eventType string, now time.Time) model.Event {
	return model.Event{
		ID:        ID(plant.ID, eventType, now),
		Type:      eventType,
		Timestamp: now,
		PlantID:   plant.ID,
		PlantName: plant.DisplayName(),
		Details:   map[string]any{},
	}
}

var statusNames = map[int]string{1: "Low", 2: "Optimal", 3: "High"}

func statusName(code int) string {
	if name, ok := statusNames[code]; ok {
		return name
	}
	return "Unknown"
}

type metricStatus struct {
	metric  model.Metric
	current int
	prev    int
}

func metricStatuses(current, previous *model.Plant) []metricStatus {
	return []metricStatus{
		{model.MetricTemperature, model.StatusOrDefault(current.TemperatureStatus), model.StatusOrDefault(previous.TemperatureStatus)},
		{model.MetricLight, model.StatusOrDefault(current.LightStatus), model.StatusOrDefault(previous.LightStatus)},
		{model.MetricMoisture, model.StatusOrDefault(current.MoistureStatus), model.StatusOrDefault(previous.MoistureStatus)},
		{model.MetricNutrients, model.StatusOrDefault(current.SalinityStatus), model.StatusOrDefault(previous.SalinityStatus)},
	}
}

// DetectStatusChanges emits one event per metric whose vendor status
// code moved since the previous snapshot. Requires a previous snapshot.
func DetectStatusChanges(current, previous *model.Plant, now time.Time) []model.Event {
	if previous == nil {
		return nil
	}

	var out []model.Event
	for _, ms := range metricStatuses(current, previous) {
		if ms.current == ms.prev {
			continue
		}
		from := statusName(ms.prev)
		to := statusName(ms.current)

		var severity, priority string
		switch {
		case to == "Optimal":
			severity, priority = model.SeverityInfo, model.PriorityLow
		case from == "Optimal" || to == "Optimal":
			severity, priority = model.SeverityWarning, model.PriorityMedium
		case to == "Low" || to == "High":
			severity, priority = model.SeverityCritical, model.PriorityHigh
		default:
			severity, priority = model.SeverityWarning, model.PriorityMedium
		}

		ev := newEvent(current, model.EventStatusChange, now)
		ev.ID = ID(current.ID, fmt.Sprintf("status_change_%s", ms.metric), now)
		ev.Severity = severity
		ev.Priority = priority
		ev.Message = fmt.Sprintf("%s changed from %s to %s", capitalize(string(ms.metric)), from, to)
		ev.Actionable = to != "Optimal"
		ev.Details["metric"] = string(ms.metric)
		ev.Details["from_status"] = from
		ev.Details["to_status"] = to
		out = append(out, ev)
	}
	return out
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// DetectSensorSilence checks whether the sensor last reported longer
// ago than the silence threshold, escalating at the 2h and 3h marks.
func DetectSensorSilence(plant *model.Plant, cfg Config, now time.Time) *model.Event {
	cfg = cfg.withDefaults()

	if plant.ReceivedDataAt == "" {
		return nil
	}
	lastUpdate, err := extract.ParseTime(plant.ReceivedDataAt)
	if err != nil {
		return nil
	}

	silent := now.Sub(lastUpdate)
	if silent <= cfg.SilenceThreshold {
		return nil
	}

	ev := newEvent(plant, model.EventSensorSilence, now)
	switch {
	case silent > 180*time.Minute:
		ev.Severity, ev.Priority = model.SeverityCritical, model.PriorityHigh
	case silent > 120*time.Minute:
		ev.Severity, ev.Priority = model.SeverityWarning, model.PriorityMedium
	default:
		ev.Severity, ev.Priority = model.SeverityInfo, model.PriorityLow
	}
	minutes := int(silent.Minutes())
	ev.Message = fmt.Sprintf("Sensor hasn't reported for %d minutes", minutes)
	ev.Actionable = true
	ev.SuggestedActions = []string{
		"Check sensor battery",
		"Verify WiFi connection",
		"Restart the hub if present",
	}
	ev.Details["minutes_silent"] = minutes
	ev.Details["last_update"] = plant.ReceivedDataAt
	return &ev
}

// DetectBatteryLow flags batteries under the threshold, escalating
// under 15% and 10%.
func DetectBatteryLow(plant *model.Plant, cfg Config, now time.Time) *model.Event {
	cfg = cfg.withDefaults()

	level := plant.Sensor.BatteryLevel
	if level == nil || *level >= cfg.BatteryThreshold {
		return nil
	}

	ev := newEvent(plant, model.EventBatteryLow, now)
	switch {
	case *level < 10:
		ev.Severity, ev.Priority = model.SeverityCritical, model.PriorityHigh
	case *level < 15:
		ev.Severity, ev.Priority = model.SeverityWarning, model.PriorityHigh
	default:
		ev.Severity, ev.Priority = model.SeverityWarning, model.PriorityMedium
	}
	ev.Message = fmt.Sprintf("Sensor battery at %.0f%%", *level)
	ev.Actionable = true
	ev.SuggestedActions = []string{
		"Replace sensor battery soon",
		"Order replacement batteries if needed",
	}
	ev.Details["battery_level"] = *level
	return &ev
}

// DetectWifiDisconnect is edge triggered: it fires only on a
// connected-to-disconnected transition, never on steady state.
func DetectWifiDisconnect(current, previous *model.Plant, now time.Time) *model.Event {
	if previous == nil {
		return nil
	}
	prevWifi, curWifi := 1, 1
	if previous.WifiStatus != nil {
		prevWifi = *previous.WifiStatus
	}
	if current.WifiStatus != nil {
		curWifi = *current.WifiStatus
	}
	if prevWifi != 1 || curWifi != 0 {
		return nil
	}

	ev := newEvent(current, model.EventWifiDisconnected, now)
	ev.Severity, ev.Priority = model.SeverityWarning, model.PriorityMedium
	ev.Message = "Sensor lost WiFi connection"
	ev.Actionable = true
	ev.SuggestedActions = []string{
		"Check WiFi router",
		"Move sensor closer to WiFi",
		"Restart the hub",
	}
	return &ev
}

// DetectCriticalMoisture pages on a low moisture status. IsNewCritical
// distinguishes a fresh drop from an ongoing state so downstream
// systems can skip duplicate urgent notifications.
func DetectCriticalMoisture(current, previous *model.Plant, now time.Time) *model.Event {
	if model.StatusOrDefault(current.MoistureStatus) != 1 {
		return nil
	}

	isNew := previous != nil && model.StatusOrDefault(previous.MoistureStatus) != 1

	ev := newEvent(current, model.EventCriticalMoisture, now)
	ev.Severity, ev.Priority = model.SeverityCritical, model.PriorityImmediate
	if isNew {
		ev.Message = "URGENT: Plant needs water NOW!"
	} else {
		ev.Message = "Plant needs water NOW!"
	}
	ev.Actionable = true
	ev.SuggestedActions = []string{
		"Water the plant immediately",
		"Check soil with finger to confirm dryness",
		"Water thoroughly until it drains",
	}
	ev.Details["is_new_critical"] = isNew
	return &ev
}

// DetectTemperatureExtreme pages on a high temperature status.
func DetectTemperatureExtreme(plant *model.Plant, now time.Time) *model.Event {
	if model.StatusOrDefault(plant.TemperatureStatus) != 3 {
		return nil
	}

	ev := newEvent(plant, model.EventTemperatureExtreme, now)
	ev.Severity, ev.Priority = model.SeverityCritical, model.PriorityHigh
	ev.Message = "Temperature is too high - plant stress risk"
	ev.Actionable = true
	ev.SuggestedActions = []string{
		"Move plant to cooler location",
		"Increase ventilation",
		"Mist leaves to cool down",
		"Check for direct sunlight exposure",
	}
	return &ev
}

// DetectAll runs every detector over one plant snapshot.
func DetectAll(current, previous *model.Plant, cfg Config, now time.Time) []model.Event {
	var out []model.Event

	out = append(out, DetectStatusChanges(current, previous, now)...)
	if ev := DetectSensorSilence(current, cfg, now); ev != nil {
		out = append(out, *ev)
	}
	if ev := DetectBatteryLow(current, cfg, now); ev != nil {
		out = append(out, *ev)
	}
	if ev := DetectWifiDisconnect(current, previous, now); ev != nil {
		out = append(out, *ev)
	}
	if ev := DetectCriticalMoisture(current, previous, now); ev != nil {
		out = append(out, *ev)
	}
	if ev := DetectTemperatureExtreme(current, now); ev != nil {
		out = append(out, *ev)
	}

	return out
}

// Filter narrows an event list. All provided criteria must match (AND
// semantics); nil slices and nil Actionable mean no constraint.
type Filter struct {
	Severities []string
	Priorities []string
	Types      []string
	PlantIDs   []int
	Actionable *bool
}

// Apply returns the events matching every provided criterion.
func (f Filter) Apply(events []model.Event) []model.Event {
	out := make([]model.Event, 0, len(events))
	for _, ev := range events {
		if len(f.Severities) > 0 && !containsString(f.Severities, ev.Severity) {
			continue
		}
		if len(f.Priorities) > 0 && !containsString(f.Priorities, ev.Priority) {
			continue
		}
		if len(f.Types) > 0 && !containsString(f.Types, ev.Type) {
			continue
		}
		if len(f.PlantIDs) > 0 && !containsInt(f.PlantIDs, ev.PlantID) {
			continue
		}
		if f.Actionable != nil && ev.Actionable != *f.Actionable {
			continue
		}
		out = append(out, ev)
	}
	return out
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func containsInt(list []int, v int) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// Sort orders events by priority rank, then severity rank, so
// immediate/critical entries come first.
func Sort(events []model.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		pi, pj := model.PriorityRank(events[i].Priority), model.PriorityRank(events[j].Priority)
		if pi != pj {
			return pi < pj
		}
		return model.SeverityRank(events[i].Severity) < model.SeverityRank(events[j].Severity)
	})
}

// Summary counts events by severity and priority.
type Summary struct {
	Total      int            `json:"total"`
	BySeverity map[string]int `json:"by_severity"`
	ByPriority map[string]int `json:"by_priority"`
	Actionable int            `json:"actionable"`
}

// Summarize builds the per-pass counts.
func Summarize(events []model.Event) Summary {
	s := Summary{
		Total:      len(events),
		BySeverity: map[string]int{},
		ByPriority: map[string]int{},
	}
	for _, ev := range events {
		s.BySeverity[ev.Severity]++
		s.ByPriority[ev.Priority]++
		if ev.Actionable {
			s.Actionable++
		}
	}
	return s
}

// WebhookPayload is the flattened form pushed to automation systems
// like n8n or Home Assistant.
type WebhookPayload struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	Plant      WebhookPlant   `json:"plant"`
	Severity   string         `json:"severity"`
	Priority   string         `json:"priority"`
	Message    string         `json:"message"`
	Actionable bool           `json:"actionable"`
	Actions    []string       `json:"actions"`
	Metadata   map[string]any `json:"metadata"`
}

type WebhookPlant struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// WebhookFormat flattens one event into the webhook payload shape.
func WebhookFormat(ev model.Event) WebhookPayload {
	actions := ev.SuggestedActions
	if actions == nil {
		actions = []string{}
	}
	metadata := map[string]any{}
	for k, v := range ev.Details {
		metadata[k] = v
	}
	return WebhookPayload{
		ID:         ev.ID,
		Type:       ev.Type,
		Timestamp:  ev.Timestamp,
		Plant:      WebhookPlant{ID: ev.PlantID, Name: ev.PlantName},
		Severity:   ev.Severity,
		Priority:   ev.Priority,
		Message:    ev.Message,
		Actionable: ev.Actionable,
		Actions:    actions,
		Metadata:   metadata,
	}
}
