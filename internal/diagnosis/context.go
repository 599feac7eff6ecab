package diagnosis

import (
	"github.com/verdantlab/plantpulse/internal/model"
)

// SubstrateProfile captures how a growing medium behaves and how care
// should adapt to it.
type SubstrateProfile struct {
	Description     string `json:"description"`
	WaterRetention  string `json:"water_retention"`
	Drainage        string `json:"drainage"`
	FertilizerNeeds string `json:"fertilizer_needs"`
	Watering        string `json:"watering"`
	Fertilizing     string `json:"fertilizing"`
	Monitoring      string `json:"monitoring"`
}

// ContainerProfile captures pot-specific behavior.
type ContainerProfile struct {
	Description string   `json:"description"`
	Features    []string `json:"features"`
	Setup       string   `json:"setup,omitempty"`
	Watering    string   `json:"watering"`
	Monitoring  string   `json:"monitoring"`
}

// GrowthPhaseProfile captures the care needs of a life-cycle stage.
type GrowthPhaseProfile struct {
	Description     string `json:"description"`
	WaterNeeds      string `json:"water_needs"`
	LightNeeds      string `json:"light_needs"`
	FertilizerNeeds string `json:"fertilizer_needs"`
	Watering        string `json:"watering"`
	Lighting        string `json:"lighting"`
	Fertilizing     string `json:"fertilizing"`
}

// SubstrateKnowledge maps substrate names to their care profiles.
var SubstrateKnowledge = map[string]SubstrateProfile{
	model.SubstrateMineral: {
		Description:     "Mineral substrate (perlite, pumice, lava, zeolite)",
		WaterRetention:  "low",
		Drainage:        "excellent",
		FertilizerNeeds: "high",
		Watering:        "Water more frequently than organic soil. Check moisture sensor daily.",
		Fertilizing:     "Fertilize with every watering at 1/4 strength, or weekly at full strength.",
		Monitoring:      "Mineral substrates dry quickly. Set aggressive watering reminders.",
	},
	model.SubstrateOrganic: {
		Description:     "Traditional potting soil with peat, compost, bark",
		WaterRetention:  "medium",
		Drainage:        "good",
		FertilizerNeeds: "medium",
		Watering:        "Water when top 2-3cm of soil is dry. Standard watering schedule.",
		Fertilizing:     "Fertilize every 2-4 weeks during growing season.",
		Monitoring:      "Standard care applies. Follow sensor recommendations.",
	},
	model.SubstrateLechuzaPon: {
		Description:     "Lechuza-PON mineral substrate (zeolite, lava, pumice, fertilizer)",
		WaterRetention:  "medium",
		Drainage:        "excellent",
		FertilizerNeeds: "low",
		Watering:        "Keep reservoir filled. PON wicks water from bottom. Never top-water heavily.",
		Fertilizing:     "PON contains slow-release fertilizer. Only add liquid fertilizer every 2-3 months.",
		Monitoring:      "Sensor may show 'low moisture' at top - this is normal! Check reservoir level instead.",
	},
	model.SubstrateHydroponic: {
		Description:     "Soilless hydroponic system (water culture, NFT, DWC)",
		WaterRetention:  "high",
		Drainage:        "n/a",
		FertilizerNeeds: "high",
		Watering:        "Maintain proper water level. Check pH and EC daily.",
		Fertilizing:     "Use hydroponic nutrients continuously. Monitor EC: 1.2-2.0 mS/cm.",
		Monitoring:      "Soil sensors are not designed for hydro. Use EC/pH meters instead.",
	},
	model.SubstrateSemiHydro: {
		Description:     "Semi-hydroponics (LECA, clay pebbles with reservoir)",
		WaterRetention:  "low_to_medium",
		Drainage:        "excellent",
		FertilizerNeeds: "high",
		Watering:        "Keep water level at 1/4 to 1/3 of pot height. Let dry between refills.",
		Fertilizing:     "Add nutrients with every water change. Use hydroponic or liquid fertilizer.",
		Monitoring:      "Sensor should be in LECA zone, not water reservoir.",
	},
}

// ContainerKnowledge maps container names to their care profiles.
var ContainerKnowledge = map[string]ContainerProfile{
	"lechuza": {
		Description: "Self-watering Lechuza planter with reservoir",
		Features:    []string{"water_reservoir", "bottom_watering", "water_level_indicator"},
		Setup:       "Use with Lechuza-PON for best results. Ensure wick reaches reservoir.",
		Watering:    "Fill reservoir only. Never water from top after establishment.",
		Monitoring:  "Check water indicator, not just sensor. Reservoir can last 1-2 weeks.",
	},
	"self_watering": {
		Description: "Generic self-watering pot with reservoir",
		Features:    []string{"water_reservoir", "wicking_system"},
		Setup:       "Ensure wicking material (rope, mat) connects soil to reservoir.",
		Watering:    "Fill reservoir. Top-water occasionally to prevent salt buildup.",
		Monitoring:  "Sensor may not detect reservoir water. Check physically.",
	},
	"terracotta": {
		Description: "Unglazed clay pot",
		Features:    []string{"breathable", "evaporative_cooling", "fast_drying"},
		Watering:    "Dries faster than plastic. Water more frequently.",
		Monitoring:  "Expect faster moisture drop. Adjust thresholds accordingly.",
	},
	"plastic": {
		Description: "Standard plastic nursery pot",
		Features:    []string{"water_retentive", "lightweight"},
		Watering:    "Standard watering. Ensure drainage holes exist.",
		Monitoring:  "Standard sensor interpretation applies.",
	},
}

// GrowthPhaseKnowledge maps growth phases to their care profiles.
var GrowthPhaseKnowledge = map[string]GrowthPhaseProfile{
	"seedling": {
		Description:     "Young plant, first true leaves",
		WaterNeeds:      "high_frequency_low_amount",
		LightNeeds:      "moderate_to_high",
		FertilizerNeeds: "very_low",
		Watering:        "Keep consistently moist but not soggy. Water lightly and frequently.",
		Lighting:        "Provide 14-16 hours light. Seedlings stretch if insufficient light.",
		Fertilizing:     "No fertilizer for first 2-3 weeks. Then 1/4 strength only.",
	},
	"vegetative": {
		Description:     "Active growth phase, producing leaves/stems",
		WaterNeeds:      "high",
		LightNeeds:      "high",
		FertilizerNeeds: "high",
		Watering:        "Water thoroughly when top soil dries. Plant is actively growing.",
		Lighting:        "Provide 14-18 hours light for maximum growth.",
		Fertilizing:     "Fertilize regularly (weekly). Use nitrogen-rich fertilizer.",
	},
	"flowering": {
		Description:     "Reproductive phase, producing flowers/fruit",
		WaterNeeds:      "very_high",
		LightNeeds:      "very_high",
		FertilizerNeeds: "high_phosphorus",
		Watering:        "Increase watering frequency. Flowering plants are thirsty!",
		Lighting:        "12 hours for short-day plants, 14-16 for long-day plants.",
		Fertilizing:     "Switch to bloom fertilizer (high phosphorus/potassium, lower nitrogen).",
	},
	"fruiting": {
		Description:     "Producing fruits/seeds",
		WaterNeeds:      "very_high",
		LightNeeds:      "high",
		FertilizerNeeds: "high_potassium",
		Watering:        "Consistent watering critical. Irregular watering causes fruit splitting.",
		Lighting:        "Maintain high light for fruit development.",
		Fertilizing:     "High potassium for fruit quality. Reduce nitrogen.",
	},
	"dormant": {
		Description:     "Winter dormancy, minimal growth",
		WaterNeeds:      "low",
		LightNeeds:      "low_to_moderate",
		FertilizerNeeds: "none",
		Watering:        "Reduce watering significantly. Let soil dry more between waterings.",
		Lighting:        "Natural daylight is sufficient. Some plants need cool period.",
		Fertilizing:     "NO fertilizer during dormancy. Resume in spring.",
	},
}

// ContextRecommendation is a setup-aware care hint that plain sensor
// thresholds cannot produce.
type ContextRecommendation struct {
	Type        string `json:"type"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
	Message     string `json:"message"`
	Explanation string `json:"explanation"`
}

// ContextRecommendations cross-references sensor statuses with the
// plant's recorded setup. A nil context yields nothing.
func ContextRecommendations(plant *model.Plant, ctx *model.PlantContext) []ContextRecommendation {
	if ctx == nil {
		return nil
	}

	var out []ContextRecommendation
	moistureStatus := model.StatusOrDefault(plant.MoistureStatus)
	lightStatus := model.StatusOrDefault(plant.LightStatus)

	if prof, ok := SubstrateKnowledge[ctx.Substrate]; ok {
		if ctx.Substrate == model.SubstrateLechuzaPon && moistureStatus == 1 {
			out = append(out, ContextRecommendation{
				Type:        "info",
				Category:    "substrate_context",
				Priority:    "medium",
				Message:     "Lechuza-PON often shows 'low' at surface while reservoir is full. Check water indicator!",
				Explanation: prof.Monitoring,
			})
		}
		if ctx.Substrate == model.SubstrateMineral && moistureStatus == 1 {
			out = append(out, ContextRecommendation{
				Type:        "warning",
				Category:    "substrate_context",
				Priority:    "high",
				Message:     "Mineral substrates dry quickly! Water more frequently than organic soil.",
				Explanation: prof.Watering,
			})
		}
		switch ctx.Substrate {
		case model.SubstrateMineral, model.SubstrateSemiHydro, model.SubstrateHydroponic:
			out = append(out, ContextRecommendation{
				Type:        "info",
				Category:    "fertilizing",
				Priority:    "low",
				Message:     prof.Description + " needs frequent fertilizing.",
				Explanation: prof.Fertilizing,
			})
		}
	}

	if prof, ok := ContainerKnowledge[ctx.Container]; ok {
		if ctx.Container == "lechuza" {
			out = append(out, ContextRecommendation{
				Type:        "info",
				Category:    "container_context",
				Priority:    "medium",
				Message:     "Lechuza self-watering: Fill reservoir, don't top-water!",
				Explanation: prof.Watering,
			})
		}
		if ctx.Container == "terracotta" && moistureStatus == 1 {
			out = append(out, ContextRecommendation{
				Type:        "info",
				Category:    "container_context",
				Priority:    "medium",
				Message:     "Terracotta dries faster than plastic. This is normal for clay pots.",
				Explanation: prof.Watering,
			})
		}
	}

	if prof, ok := GrowthPhaseKnowledge[ctx.GrowthPhase]; ok {
		if ctx.GrowthPhase == "flowering" && lightStatus == 1 {
			out = append(out, ContextRecommendation{
				Type:        "warning",
				Category:    "growth_phase",
				Priority:    "high",
				Message:     "Flowering phase needs HIGH light! Increase lighting ASAP.",
				Explanation: prof.Lighting,
			})
		}
		if ctx.GrowthPhase == "dormant" && moistureStatus == 3 {
			out = append(out, ContextRecommendation{
				Type:        "warning",
				Category:    "growth_phase",
				Priority:    "medium",
				Message:     "Plant is dormant but soil is wet. Reduce watering to prevent root rot!",
				Explanation: prof.Watering,
			})
		}
	}

	return out
}

// SensorAdjustment reinterprets one raw reading for the plant's setup.
type SensorAdjustment struct {
	Sensor         string   `json:"sensor,omitempty"`
	RawStatus      string   `json:"raw_status,omitempty"`
	AdjustedStatus string   `json:"adjusted_status,omitempty"`
	Note           string   `json:"note,omitempty"`
	Warning        string   `json:"warning,omitempty"`
	IgnoreSensors  []string `json:"ignore_sensors,omitempty"`
	Explanation    string   `json:"explanation,omitempty"`
}

// SensorInterpretation is the context-adjusted view of raw readings.
type SensorInterpretation struct {
	Adjusted    bool               `json:"adjusted"`
	Note        string             `json:"note,omitempty"`
	Adjustments []SensorAdjustment `json:"adjustments,omitempty"`
}

// InterpretSensors reinterprets sensor statuses for setups where the
// raw reading is misleading, like surface-dry wicking substrates.
func InterpretSensors(plant *model.Plant, ctx *model.PlantContext) SensorInterpretation {
	if ctx == nil {
		return SensorInterpretation{Adjusted: false, Note: "No context available"}
	}

	var adjustments []SensorAdjustment
	moistureStatus := model.StatusOrDefault(plant.MoistureStatus)

	if ctx.Substrate == model.SubstrateLechuzaPon && moistureStatus == 1 {
		adjustments = append(adjustments, SensorAdjustment{
			Sensor:         "moisture",
			RawStatus:      "Low",
			AdjustedStatus: "Normal for PON",
			Explanation:    "Lechuza-PON stays dry at surface while wicking water from reservoir. Check reservoir level instead.",
		})
	}

	if ctx.Substrate == model.SubstrateMineral && moistureStatus == 2 {
		adjustments = append(adjustments, SensorAdjustment{
			Sensor: "moisture",
			Note:   "Mineral substrates naturally read lower than organic soil. This 'optimal' reading is excellent!",
		})
	}

	if ctx.Substrate == model.SubstrateHydroponic {
		adjustments = append(adjustments, SensorAdjustment{
			Warning:       "Soil sensors are not designed for hydroponic systems. Use EC/pH meters instead.",
			IgnoreSensors: []string{"moisture", "nutrients"},
		})
	}

	return SensorInterpretation{
		Adjusted:    len(adjustments) > 0,
		Adjustments: adjustments,
	}
}
