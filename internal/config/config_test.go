package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setCloudEnv(t *testing.T) {
	t.Helper()
	t.Setenv("PLANTPULSE_CLOUD_BASE_URL", "https://cloud.example/api")
	t.Setenv("PLANTPULSE_CLOUD_EMAIL", "gardener@example.com")
	t.Setenv("PLANTPULSE_CLOUD_PASSWORD", "secret")
}

func TestLoadGatewayDefaults(t *testing.T) {
	setCloudEnv(t)

	cfg, err := LoadGateway()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "plantpulse.db", cfg.DBPath)
	assert.Equal(t, 90*time.Minute, cfg.EventSilenceThreshold)
	assert.Equal(t, 20.0, cfg.EventBatteryThreshold)
	assert.Equal(t, "https://cloud.example/api", cfg.Cloud.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Cloud.Timeout)
}

func TestLoadGatewayEnvOverride(t *testing.T) {
	setCloudEnv(t)
	t.Setenv("PLANTPULSE_PORT", "9999")
	t.Setenv("PLANTPULSE_EVENT_SILENCE_THRESHOLD", "2h")

	cfg, err := LoadGateway()
	require.NoError(t, err)
	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, 2*time.Hour, cfg.EventSilenceThreshold)
}

func TestLoadGatewayMissingCredentials(t *testing.T) {
	t.Setenv("PLANTPULSE_CLOUD_BASE_URL", "https://cloud.example/api")

	_, err := LoadGateway()
	assert.Error(t, err)
}

func TestLoadBridgeDefaults(t *testing.T) {
	setCloudEnv(t)

	cfg, err := LoadBridge()
	require.NoError(t, err)
	assert.Equal(t, "tcp://localhost:1883", cfg.BrokerURL)
	assert.Equal(t, "plantpulse-bridge", cfg.ClientID)
	assert.Equal(t, 1, cfg.QoS)
	assert.Equal(t, 5*time.Minute, cfg.PollInterval)
}

func TestLoadWebhookRequiresTarget(t *testing.T) {
	setCloudEnv(t)

	_, err := LoadWebhook()
	require.Error(t, err)

	t.Setenv("PLANTPULSE_TARGET_URL", "https://hooks.example/plants")
	cfg, err := LoadWebhook()
	require.NoError(t, err)
	assert.Equal(t, "https://hooks.example/plants", cfg.TargetURL)
}

func TestLoadArchiveRequiresToken(t *testing.T) {
	setCloudEnv(t)

	_, err := LoadArchive()
	require.Error(t, err)

	t.Setenv("PLANTPULSE_INFLUX_TOKEN", "tok")
	cfg, err := LoadArchive()
	require.NoError(t, err)
	assert.Equal(t, "measurements", cfg.InfluxBucket)
	assert.Equal(t, 10*time.Minute, cfg.PollInterval)
}
