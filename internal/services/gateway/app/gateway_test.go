package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantlab/plantpulse/internal/tools"
)

type fakeDispatcher struct {
	lastTool string
	lastArgs map[string]any
	result   tools.Result
}

func (f *fakeDispatcher) Call(_ context.Context, name string, args map[string]any) tools.Result {
	f.lastTool = name
	f.lastArgs = args
	return f.result
}

func newTestGateway(dispatcher *fakeDispatcher) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewGateway(dispatcher, NewMetrics(), zerolog.Nop()).RegisterRoutes(router)
	return router
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	router := newTestGateway(&fakeDispatcher{})
	w := get(router, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestPlantsRouteDispatches(t *testing.T) {
	d := &fakeDispatcher{result: tools.Result{Text: `{"total_plants": 2}`}}
	router := newTestGateway(d)

	w := get(router, "/api/plants")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "get_all_plants", d.lastTool)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
	assert.Contains(t, w.Body.String(), "total_plants")
}

func TestPlantIDAndQueryForwarded(t *testing.T) {
	d := &fakeDispatcher{result: tools.Result{Text: `{}`}}
	router := newTestGateway(d)

	w := get(router, "/api/plants/42/trends?metric=moisture&timeframe=day")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "get_plant_trends", d.lastTool)
	assert.Equal(t, 42, d.lastArgs["plant_id"])
	assert.Equal(t, "moisture", d.lastArgs["metric"])
	assert.Equal(t, "day", d.lastArgs["timeframe"])
}

func TestBooleanQueryConversion(t *testing.T) {
	d := &fakeDispatcher{result: tools.Result{Text: `{}`}}
	router := newTestGateway(d)

	get(router, "/api/plants/1/diagnose?include_recommendations=false")
	assert.Equal(t, false, d.lastArgs["include_recommendations"])
}

func TestInvalidPlantID(t *testing.T) {
	d := &fakeDispatcher{result: tools.Result{Text: `{}`}}
	router := newTestGateway(d)

	w := get(router, "/api/plants/fern/diagnose")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, d.lastTool)
}

func TestErrorResultMapsToBadGateway(t *testing.T) {
	d := &fakeDispatcher{result: tools.Result{Text: "Error: upstream down", IsError: true}}
	router := newTestGateway(d)

	w := get(router, "/api/plants")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "upstream down")
}

func TestArgumentErrorMapsToBadRequest(t *testing.T) {
	d := &fakeDispatcher{result: tools.Result{Text: `Error: invalid timeframe "fortnight"`, IsError: true}}
	router := newTestGateway(d)

	w := get(router, "/api/plants/1/statistics?timeframe=fortnight")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPlainTextResultServedVerbatim(t *testing.T) {
	d := &fakeDispatcher{result: tools.Result{Text: "Plant with ID 9 not found"}}
	router := newTestGateway(d)

	w := get(router, "/api/plants/9")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Plant with ID 9 not found", w.Body.String())
}

func TestCareActionBodyForwarded(t *testing.T) {
	d := &fakeDispatcher{result: tools.Result{Text: `{}`}}
	router := newTestGateway(d)

	body := strings.NewReader(`{"action_type":"watering","amount":"200ml"}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/plants/7/care", body)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "log_plant_care_action", d.lastTool)
	assert.Equal(t, 7, d.lastArgs["plant_id"])
	assert.Equal(t, "watering", d.lastArgs["action_type"])
}

func TestEventsQueryForwarded(t *testing.T) {
	d := &fakeDispatcher{result: tools.Result{Text: `{}`}}
	router := newTestGateway(d)

	get(router, "/api/events?severity=critical&actionable_only=true")
	assert.Equal(t, "get_plant_events", d.lastTool)
	assert.Equal(t, "critical", d.lastArgs["severity"])
	assert.Equal(t, true, d.lastArgs["actionable_only"])
}

func TestMetricsEndpoint(t *testing.T) {
	d := &fakeDispatcher{result: tools.Result{Text: `{}`}}
	router := newTestGateway(d)

	get(router, "/api/plants")
	w := get(router, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "plantpulse_gateway_requests_total")
}
