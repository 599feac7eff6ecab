package diagnosis

import (
	"fmt"

	"github.com/verdantlab/plantpulse/internal/model"
)

// SensorCapabilities describes what analyses a plant's sensor supports.
type SensorCapabilities struct {
	HasSensor      bool     `json:"has_sensor"`
	SensorID       string   `json:"sensor_id,omitempty"`
	SensorTypeID   int      `json:"sensor_type_id,omitempty"`
	SensorType     string   `json:"sensor_type"`
	Version        string   `json:"version,omitempty"`
	HasLightSensor bool     `json:"has_light_sensor"`
	Capabilities   []string `json:"capabilities"`
	Missing        []string `json:"missing"`
	IsBatteryLow   bool     `json:"is_battery_low,omitempty"`
	LastData       string   `json:"last_data,omitempty"`
	Warning        string   `json:"warning,omitempty"`
}

// Capabilities derives the sensor capability set from the hardware
// model. Only second generation sensors carry a light sensor.
func Capabilities(plant *model.Plant) SensorCapabilities {
	s := plant.Sensor
	if !s.HasSensor {
		return SensorCapabilities{
			SensorType:   "none",
			Capabilities: []string{},
			Missing:      []string{"temperature", "moisture", "nutrients", "light", "dli"},
			Warning:      "No sensor connected to this plant",
		}
	}

	caps := SensorCapabilities{
		HasSensor:      true,
		SensorID:       s.ID,
		SensorTypeID:   s.SensorTypeID,
		SensorType:     s.Model(),
		Version:        s.Version,
		HasLightSensor: s.HasLightSensor(),
		IsBatteryLow:   s.IsBatteryLow,
		LastData:       s.ReceivedDataAt,
	}
	if caps.HasLightSensor {
		caps.Capabilities = []string{"temperature", "moisture", "nutrients", "light"}
		caps.Missing = []string{}
	} else {
		caps.Capabilities = []string{"temperature", "moisture", "nutrients"}
		caps.Missing = []string{"light", "dli"}
	}
	return caps
}

// LightCapability reports whether light analyses can run for a plant.
type LightCapability struct {
	Capable        bool                `json:"capable"`
	Reason         string              `json:"reason"`
	Message        string              `json:"message"`
	Recommendation string              `json:"recommendation,omitempty"`
	SensorInfo     *SensorCapabilities `json:"sensor_info,omitempty"`
}

// CheckLightCapability gates light and DLI analyses on the sensor
// hardware.
func CheckLightCapability(plant *model.Plant) LightCapability {
	caps := Capabilities(plant)

	if !caps.HasSensor {
		return LightCapability{
			Capable:        false,
			Reason:         "no_sensor",
			Message:        "No sensor connected to this plant",
			Recommendation: "Connect a sensor to monitor this plant",
		}
	}
	if !caps.HasLightSensor {
		return LightCapability{
			Capable:        false,
			Reason:         "legacy_sensor",
			Message:        fmt.Sprintf("Your sensor (%s) doesn't have a light sensor", caps.SensorType),
			Recommendation: "Upgrade to a Beam 2.0 sensor for light and DLI monitoring",
			SensorInfo:     &caps,
		}
	}
	return LightCapability{
		Capable:    true,
		Reason:     "has_sensor",
		Message:    fmt.Sprintf("Light monitoring available (%s)", caps.SensorType),
		SensorInfo: &caps,
	}
}

// AvailableAnalyses partitions the analyses by sensor support.
type AvailableAnalyses struct {
	Available       []string           `json:"available"`
	Unavailable     []string           `json:"unavailable"`
	SensorInfo      SensorCapabilities `json:"sensor_info"`
	Recommendations []string           `json:"recommendations"`
}

// Analyses lists which analyses the plant's sensor supports and how to
// fill the gaps.
func Analyses(plant *model.Plant) AvailableAnalyses {
	caps := Capabilities(plant)

	out := AvailableAnalyses{
		Available:   []string{},
		Unavailable: []string{},
		SensorInfo:  caps,
	}
	if caps.HasSensor {
		out.Available = append(out.Available, "temperature", "moisture", "nutrients")
	} else {
		out.Unavailable = append(out.Unavailable, "temperature", "moisture", "nutrients")
	}
	if caps.HasLightSensor {
		out.Available = append(out.Available, "light", "dli", "photoperiod")
	} else {
		out.Unavailable = append(out.Unavailable, "light", "dli", "photoperiod")
	}

	if !caps.HasLightSensor {
		out.Recommendations = append(out.Recommendations,
			"Light and DLI analysis unavailable. Upgrade to a Beam 2.0 sensor for automatic light monitoring.",
			"Alternative: Use a manual light meter app on your phone to check light levels periodically.")
	}
	if !caps.HasSensor {
		out.Recommendations = append(out.Recommendations,
			"No sensor connected. Connect a sensor for automated plant monitoring.")
	}
	if out.Recommendations == nil {
		out.Recommendations = []string{}
	}
	return out
}
