package model

// Sensor type IDs as reported by the cloud API. Only the Beam 2.0
// generation carries a PAR light sensor.
const (
	SensorTypeBeam1  = 1
	SensorTypeBeam2  = 2
	SensorTypeBeam1U = 3
)

// SensorInfo describes the hardware attached to a plant, if any.
type SensorInfo struct {
	HasSensor      bool     `json:"has_sensor"`
	ID             string   `json:"id,omitempty"`
	SensorTypeID   int      `json:"sensor_type_id,omitempty"`
	Version        string   `json:"version,omitempty"`
	BatteryLevel   *float64 `json:"battery_level,omitempty"`
	IsBatteryLow   bool     `json:"is_battery_low,omitempty"`
	ReceivedDataAt string   `json:"received_data_at,omitempty"`
}

// HasLightSensor reports whether the attached hardware measures light.
// The first-generation beams only expose brightness buckets, not PAR.
func (s SensorInfo) HasLightSensor() bool {
	return s.HasSensor && s.SensorTypeID == SensorTypeBeam2
}

// Model returns a human readable name for the sensor generation.
func (s SensorInfo) Model() string {
	switch s.SensorTypeID {
	case SensorTypeBeam1:
		return "Beam (1st gen)"
	case SensorTypeBeam2:
		return "Beam 2.0"
	case SensorTypeBeam1U:
		return "Beam (1st gen, USB)"
	default:
		return "unknown"
	}
}

// Garden is the grouping a plant belongs to in the cloud account.
type Garden struct {
	ID   int    `json:"id"`
	Name string `json:"garden_name"`
}

// Plant is the cloud representation of a monitored plant. Vendor status
// fields use a 1..3 scale (1 low, 2 optimal, 3 high); a zero value means
// the field was absent from the payload.
type Plant struct {
	ID             int    `json:"id"`
	Nickname       string `json:"nickname"`
	ScientificName string `json:"scientific_name"`
	CommonName     string `json:"common_name"`
	Status         int    `json:"status"`
	ThumbPath      string `json:"thumb_path"`
	OriginPath     string `json:"origin_path"`
	PlantOriginPath string `json:"plant_origin_path"`

	Temperature   *float64 `json:"temperature,omitempty"`
	Light         *float64 `json:"light,omitempty"`
	Moisture      *float64 `json:"moisture,omitempty"`
	SoilMoisture  *float64 `json:"soil_moisture,omitempty"`
	Salinity      *float64 `json:"salinity,omitempty"`
	SoilFertility *float64 `json:"soil_fertility,omitempty"`

	SoilFertilityAnomaly bool `json:"soil_fertility_anomaly,omitempty"`

	TemperatureStatus int `json:"temperature_status,omitempty"`
	LightStatus       int `json:"light_status,omitempty"`
	MoistureStatus    int `json:"moisture_status,omitempty"`
	SalinityStatus    int `json:"salinity_status,omitempty"`
	NutrientsStatus   int `json:"nutrients_status,omitempty"`

	WifiStatus *int `json:"wifi_status,omitempty"`

	ReceivedDataAt string `json:"received_data_at,omitempty"`

	Sensor SensorInfo `json:"sensor"`
	Garden Garden     `json:"garden"`

	Thresholds     map[string]any   `json:"thresholds,omitempty"`
	ThresholdsList []map[string]any `json:"thresholds_list,omitempty"`
}

// DisplayName prefers the user-given nickname over the species name.
func (p *Plant) DisplayName() string {
	if p.Nickname != "" {
		return p.Nickname
	}
	if p.CommonName != "" {
		return p.CommonName
	}
	return p.ScientificName
}

// CurrentMoisture prefers the calibrated soil_moisture reading over the
// raw moisture field.
func (p *Plant) CurrentMoisture() *float64 {
	if p.SoilMoisture != nil {
		return p.SoilMoisture
	}
	return p.Moisture
}

// CurrentEC prefers soil_fertility over the legacy salinity field.
func (p *Plant) CurrentEC() *float64 {
	if p.SoilFertility != nil {
		return p.SoilFertility
	}
	return p.Salinity
}

// StatusOrDefault maps an absent vendor status (0) to the neutral value 2.
func StatusOrDefault(v int) int {
	if v == 0 {
		return 2
	}
	return v
}
