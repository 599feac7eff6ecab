package plantcloud

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBase = "https://cloud.test/api"

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c := New(Config{
		BaseURL:  testBase,
		Email:    "gardener@example.com",
		Password: "secret",
		Timeout:  200 * time.Millisecond,
	}, zerolog.Nop())
	httpmock.ActivateNonDefault(c.http)
	t.Cleanup(httpmock.DeactivateAndReset)
	return c
}

func registerAuth() {
	httpmock.RegisterResponder(http.MethodPost, testBase+"/auth/login",
		httpmock.NewJsonResponderOrPanic(200, map[string]any{
			"access_token":  "token-123",
			"refresh_token": "refresh-456",
			"expires_in":    3600,
		}))
}

func TestAuthenticateStoresToken(t *testing.T) {
	c := newTestClient(t)
	registerAuth()

	require.NoError(t, c.Authenticate(context.Background()))
	assert.Equal(t, "token-123", c.accessToken)
	assert.Equal(t, "refresh-456", c.refreshToken)
	assert.True(t, c.tokenExpiresAt.After(time.Now()))
}

func TestAuthenticateRejectsMissingToken(t *testing.T) {
	c := newTestClient(t)
	httpmock.RegisterResponder(http.MethodPost, testBase+"/auth/login",
		httpmock.NewJsonResponderOrPanic(200, map[string]any{}))

	require.Error(t, c.Authenticate(context.Background()))
}

func TestAuthenticateDefaultTokenTTL(t *testing.T) {
	c := newTestClient(t)
	fixed := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return fixed }

	httpmock.RegisterResponder(http.MethodPost, testBase+"/auth/login",
		httpmock.NewJsonResponderOrPanic(200, map[string]any{"access_token": "t"}))

	require.NoError(t, c.Authenticate(context.Background()))
	// 60 days when the response omits expires_in.
	assert.Equal(t, fixed.Add(defaultTokenTTL), c.tokenExpiresAt)
}

func TestGetPlantsSendsBearer(t *testing.T) {
	c := newTestClient(t)
	registerAuth()

	var gotAuth string
	httpmock.RegisterResponder(http.MethodGet, testBase+"/user-plant",
		func(req *http.Request) (*http.Response, error) {
			gotAuth = req.Header.Get("Authorization")
			return httpmock.NewJsonResponse(200, map[string]any{
				"plants": []map[string]any{
					{"id": 1, "nickname": "Monstera"},
					{"id": 2, "nickname": "Ficus"},
				},
			})
		})

	plants, err := c.GetPlants(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer token-123", gotAuth)
	require.Len(t, plants.Plants, 2)
	assert.Equal(t, "Monstera", plants.Plants[0].Nickname)
}

func TestGetPlantsFallsBackToLastGoodSnapshot(t *testing.T) {
	c := newTestClient(t)
	registerAuth()
	httpmock.RegisterResponder(http.MethodGet, testBase+"/user-plant",
		httpmock.NewJsonResponderOrPanic(200, map[string]any{
			"plants": []map[string]any{{"id": 7, "nickname": "Basil"}},
		}))

	_, err := c.GetPlants(context.Background())
	require.NoError(t, err)

	// Upstream starts failing; the cached snapshot is served instead.
	httpmock.RegisterResponder(http.MethodGet, testBase+"/user-plant",
		httpmock.NewStringResponder(500, "boom"))

	plants, err := c.GetPlants(context.Background())
	require.NoError(t, err)
	require.Len(t, plants.Plants, 1)
	assert.Equal(t, 7, plants.Plants[0].ID)
}

func TestGetPlantsErrorWithoutSnapshot(t *testing.T) {
	c := newTestClient(t)
	registerAuth()
	httpmock.RegisterResponder(http.MethodGet, testBase+"/user-plant",
		httpmock.NewStringResponder(500, "boom"))

	_, err := c.GetPlants(context.Background())
	require.Error(t, err)
}

func TestGetPlantByID(t *testing.T) {
	c := newTestClient(t)
	registerAuth()
	httpmock.RegisterResponder(http.MethodGet, testBase+"/user-plant",
		httpmock.NewJsonResponderOrPanic(200, map[string]any{
			"plants": []map[string]any{
				{"id": 1, "nickname": "Monstera"},
				{"id": 2, "nickname": "Ficus"},
			},
		}))

	plant, err := c.GetPlantByID(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "Ficus", plant.Nickname)

	_, err = c.GetPlantByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrPlantNotFound)
}

func TestGetPlantMeasurementsTimeline(t *testing.T) {
	c := newTestClient(t)
	registerAuth()

	httpmock.RegisterResponder(http.MethodGet, testBase+"/user-plant/measurements/5",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "week", req.URL.Query().Get("timeline"))
			return httpmock.NewJsonResponse(200, map[string]any{
				"measurements": []map[string]any{
					{"date_utc": "2025-06-01T10:00:00Z", "soil_moisture": 44.0},
				},
			})
		})

	payload, err := c.GetPlantMeasurements(context.Background(), 5, "week")
	require.NoError(t, err)
	m, ok := payload.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, m, "measurements")
}

func TestGetPlantMeasurementsDefaultsToMonth(t *testing.T) {
	c := newTestClient(t)
	registerAuth()

	httpmock.RegisterResponder(http.MethodGet, testBase+"/user-plant/measurements/5",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "month", req.URL.Query().Get("timeline"))
			return httpmock.NewJsonResponse(200, map[string]any{})
		})

	_, err := c.GetPlantMeasurements(context.Background(), 5, "")
	require.NoError(t, err)
}

func TestExpiredTokenTriggersReauth(t *testing.T) {
	c := newTestClient(t)
	registerAuth()
	httpmock.RegisterResponder(http.MethodGet, testBase+"/user-plant",
		httpmock.NewJsonResponderOrPanic(200, map[string]any{"plants": []map[string]any{}}))

	_, err := c.GetPlants(context.Background())
	require.NoError(t, err)
	authCalls := httpmock.GetCallCountInfo()["POST "+testBase+"/auth/login"]
	assert.Equal(t, 1, authCalls)

	// Expire the token; the next call logs in again.
	c.mu.Lock()
	c.tokenExpiresAt = time.Now().Add(-time.Minute)
	c.mu.Unlock()

	_, err = c.GetPlants(context.Background())
	require.NoError(t, err)
	authCalls = httpmock.GetCallCountInfo()["POST "+testBase+"/auth/login"]
	assert.Equal(t, 2, authCalls)
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	c := New(Config{
		BaseURL:         testBase,
		Email:           "gardener@example.com",
		Password:        "secret",
		Timeout:         100 * time.Millisecond,
		BreakerFailures: 2,
		BreakerOpenFor:  time.Minute,
	}, zerolog.Nop())
	httpmock.ActivateNonDefault(c.http)
	t.Cleanup(httpmock.DeactivateAndReset)

	registerAuth()
	httpmock.RegisterResponder(http.MethodGet, testBase+"/user-plant",
		httpmock.NewStringResponder(500, "boom"))

	_, err := c.GetPlants(context.Background())
	require.Error(t, err)
	_, err = c.GetPlants(context.Background())
	require.Error(t, err)

	// Breaker is now open: the next call fails without reaching the
	// upstream.
	before := httpmock.GetCallCountInfo()["GET "+testBase+"/user-plant"]
	_, err = c.GetPlants(context.Background())
	require.Error(t, err)
	after := httpmock.GetCallCountInfo()["GET "+testBase+"/user-plant"]
	assert.Equal(t, before, after)
}
