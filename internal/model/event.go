package model

import "time"

// Event types emitted by the detectors.
const (
	EventStatusChange       = "status_change"
	EventSensorSilence      = "sensor_silence"
	EventBatteryLow         = "battery_low"
	EventWifiDisconnected   = "wifi_disconnected"
	EventCriticalMoisture   = "critical_moisture"
	EventTemperatureExtreme = "temperature_extreme"
)

// Event severities.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
	SeverityInfo     = "info"
)

// Event priorities.
const (
	PriorityImmediate = "immediate"
	PriorityHigh      = "high"
	PriorityMedium    = "medium"
	PriorityLow       = "low"
)

// severityRank orders critical before warning before info. Unknown
// severities sort last.
func SeverityRank(s string) int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityWarning:
		return 1
	case SeverityInfo:
		return 2
	}
	return 3
}

// PriorityRank orders immediate first. Unknown priorities sort last.
func PriorityRank(p string) int {
	switch p {
	case PriorityImmediate:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	}
	return 4
}

// Event is one automation trigger produced by a detection pass. Events
// are never persisted by the detectors themselves; the ID is a
// deterministic hash of (plant id, type, generation time) and is not a
// stable dedup key across polls.
type Event struct {
	ID               string         `json:"event_id"`
	Type             string         `json:"event_type"`
	Timestamp        time.Time      `json:"timestamp"`
	PlantID          int            `json:"plant_id"`
	PlantName        string         `json:"plant_name"`
	Severity         string         `json:"severity"`
	Priority         string         `json:"priority"`
	Message          string         `json:"message"`
	Actionable       bool           `json:"actionable"`
	SuggestedActions []string       `json:"suggested_actions,omitempty"`
	Details          map[string]any `json:"details,omitempty"`
}
