// Package config loads service configuration from the environment via
// viper, one Load helper per service binary.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Cloud is the upstream sensor-cloud connection block shared by every
// service.
type Cloud struct {
	BaseURL  string        `mapstructure:"base_url"`
	Email    string        `mapstructure:"email"`
	Password string        `mapstructure:"password"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Validate checks the fields without which no cloud call can succeed.
func (c Cloud) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("cloud base_url is required")
	}
	if c.Email == "" || c.Password == "" {
		return fmt.Errorf("cloud credentials are required")
	}
	return nil
}

// Gateway configures the REST gateway service.
type Gateway struct {
	Cloud Cloud  `mapstructure:"cloud"`
	Port  string `mapstructure:"port"`
	DBPath string `mapstructure:"db_path"`

	EventSilenceThreshold time.Duration `mapstructure:"event_silence_threshold"`
	EventBatteryThreshold float64       `mapstructure:"event_battery_threshold"`
}

// Bridge configures the MQTT push service.
type Bridge struct {
	Cloud Cloud `mapstructure:"cloud"`

	BrokerURL    string        `mapstructure:"broker_url"`
	ClientID     string        `mapstructure:"client_id"`
	TopicPrefix  string        `mapstructure:"topic_prefix"`
	QoS          int           `mapstructure:"qos"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	DedupTTL     time.Duration `mapstructure:"dedup_ttl"`
	MetricsPort  string        `mapstructure:"metrics_port"`
}

// Webhook configures the webhook push service.
type Webhook struct {
	Cloud Cloud `mapstructure:"cloud"`

	TargetURL    string        `mapstructure:"target_url"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	DedupTTL     time.Duration `mapstructure:"dedup_ttl"`
	MetricsPort  string        `mapstructure:"metrics_port"`
}

// Archive configures the measurement archive service.
type Archive struct {
	Cloud Cloud  `mapstructure:"cloud"`
	Port  string `mapstructure:"port"`

	InfluxURL    string        `mapstructure:"influx_url"`
	InfluxToken  string        `mapstructure:"influx_token"`
	InfluxOrg    string        `mapstructure:"influx_org"`
	InfluxBucket string        `mapstructure:"influx_bucket"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("PLANTPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("cloud.base_url", "")
	v.SetDefault("cloud.email", "")
	v.SetDefault("cloud.password", "")
	v.SetDefault("cloud.timeout", 30*time.Second)
	return v
}

// LoadGateway reads the gateway configuration from the environment.
func LoadGateway() (Gateway, error) {
	v := newViper()
	v.SetDefault("port", "8080")
	v.SetDefault("db_path", "plantpulse.db")
	v.SetDefault("event_silence_threshold", 90*time.Minute)
	v.SetDefault("event_battery_threshold", 20.0)

	var cfg Gateway
	if err := v.Unmarshal(&cfg); err != nil {
		return Gateway{}, fmt.Errorf("load gateway config: %w", err)
	}
	return cfg, cfg.Cloud.Validate()
}

// LoadBridge reads the MQTT bridge configuration from the environment.
func LoadBridge() (Bridge, error) {
	v := newViper()
	v.SetDefault("broker_url", "tcp://localhost:1883")
	v.SetDefault("client_id", "plantpulse-bridge")
	v.SetDefault("topic_prefix", "plantpulse")
	v.SetDefault("qos", 1)
	v.SetDefault("poll_interval", 5*time.Minute)
	v.SetDefault("dedup_ttl", 6*time.Hour)
	v.SetDefault("metrics_port", "9091")

	var cfg Bridge
	if err := v.Unmarshal(&cfg); err != nil {
		return Bridge{}, fmt.Errorf("load bridge config: %w", err)
	}
	return cfg, cfg.Cloud.Validate()
}

// LoadWebhook reads the webhook service configuration from the
// environment.
func LoadWebhook() (Webhook, error) {
	v := newViper()
	v.SetDefault("target_url", "")
	v.SetDefault("poll_interval", 5*time.Minute)
	v.SetDefault("dedup_ttl", 6*time.Hour)
	v.SetDefault("metrics_port", "9092")

	var cfg Webhook
	if err := v.Unmarshal(&cfg); err != nil {
		return Webhook{}, fmt.Errorf("load webhook config: %w", err)
	}
	if err := cfg.Cloud.Validate(); err != nil {
		return Webhook{}, err
	}
	if cfg.TargetURL == "" {
		return Webhook{}, fmt.Errorf("webhook target_url is required")
	}
	return cfg, nil
}

// LoadArchive reads the archive service configuration from the
// environment.
func LoadArchive() (Archive, error) {
	v := newViper()
	v.SetDefault("port", "8081")
	v.SetDefault("influx_url", "http://localhost:8086")
	v.SetDefault("influx_token", "")
	v.SetDefault("influx_org", "plantpulse")
	v.SetDefault("influx_bucket", "measurements")
	v.SetDefault("poll_interval", 10*time.Minute)

	var cfg Archive
	if err := v.Unmarshal(&cfg); err != nil {
		return Archive{}, fmt.Errorf("load archive config: %w", err)
	}
	if err := cfg.Cloud.Validate(); err != nil {
		return Archive{}, err
	}
	if cfg.InfluxToken == "" {
		return Archive{}, fmt.Errorf("influx_token is required")
	}
	return cfg, nil
}
