package model

import "time"

// Care action types logged by users. The sensor cloud never sees these.
const (
	ActionWatering    = "watering"
	ActionFertilizing = "fertilizing"
	ActionRepotting   = "repotting"
	ActionPruning     = "pruning"
	ActionMisting     = "misting"
	ActionCleaning    = "cleaning"
	ActionRotating    = "rotating"
	ActionPest        = "pest_treatment"
	ActionOther       = "other"
)

// CareAction is one user-logged manual intervention, append-only.
type CareAction struct {
	ID         string         `json:"id" gorm:"primaryKey"`
	PlantID    int            `json:"plant_id" gorm:"index"`
	ActionType string         `json:"action_type" gorm:"index"`
	Timestamp  time.Time      `json:"timestamp"`
	Notes      string         `json:"notes,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty" gorm:"serializer:json"`
}

// PlantContext holds the user-supplied growing context for a plant.
// Keyed overwrite; at most one record per plant.
type PlantContext struct {
	PlantID     int       `json:"plant_id" gorm:"primaryKey"`
	Substrate   string    `json:"substrate,omitempty"`
	Container   string    `json:"container,omitempty"`
	GrowthPhase string    `json:"growth_phase,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Known substrate types that carry dedicated moisture and EC bands.
const (
	SubstrateOrganic    = "organic"
	SubstrateMineral    = "mineral"
	SubstrateLechuzaPon = "lechuza_pon"
	SubstrateSemiHydro  = "semi_hydro"
	SubstrateHydroponic = "hydroponic"
)
