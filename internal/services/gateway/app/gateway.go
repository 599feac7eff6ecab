// Package app is the REST gateway: it exposes the tool registry over
// HTTP for pull-style integrations and dashboards.
package app

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/verdantlab/plantpulse/internal/tools"
)

// Dispatcher is the tool surface the gateway fronts.
type Dispatcher interface {
	Call(ctx context.Context, name string, args map[string]any) tools.Result
}

type Gateway struct {
	dispatcher Dispatcher
	metrics    *Metrics
	log        zerolog.Logger
}

func NewGateway(dispatcher Dispatcher, metrics *Metrics, log zerolog.Logger) *Gateway {
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Gateway{
		dispatcher: dispatcher,
		metrics:    metrics,
		log:        log.With().Str("service", "gateway").Logger(),
	}
}

// RegisterRoutes wires the gateway endpoints onto the router.
func (g *Gateway) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(g.metrics.Handler()))

	api := router.Group("/api")
	api.GET("/plants", func(c *gin.Context) {
		g.invoke(c, "get_all_plants", nil)
	})
	api.GET("/plants/attention", func(c *gin.Context) {
		g.invoke(c, "get_plants_needing_attention", nil)
	})
	api.GET("/garden", func(c *gin.Context) {
		g.invoke(c, "get_garden_overview", nil)
	})
	api.GET("/plants/:id", g.plantHandler("get_plant_details", nil))
	api.GET("/plants/:id/diagnose", g.plantHandler("diagnose_plant", []string{"include_recommendations"}))
	api.GET("/plants/:id/measurements", g.plantHandler("get_plant_measurements", []string{"timeline"}))
	api.GET("/plants/:id/trends", g.plantHandler("get_plant_trends", []string{"metric", "timeframe"}))
	api.GET("/plants/:id/statistics", g.plantHandler("get_plant_statistics", []string{"timeframe", "include_correlations"}))
	api.GET("/plants/:id/dli", g.plantHandler("get_plant_dli_analysis", []string{"timeframe", "include_grow_light_plan"}))
	api.GET("/plants/:id/care", g.plantHandler("get_plant_care_history", []string{"days", "action_type", "include_analysis"}))
	api.POST("/plants/:id/care", g.plantBodyHandler("log_plant_care_action"))
	api.GET("/plants/:id/context", g.plantHandler("get_plant_context", nil))
	api.PUT("/plants/:id/context", g.plantBodyHandler("set_plant_context"))
	api.GET("/events", func(c *gin.Context) {
		args := map[string]any{}
		queryArgs(c, args, []string{"plant_id", "severity", "priority", "event_type", "actionable_only"})
		g.invoke(c, "get_plant_events", args)
	})
}

// queryArgs copies the named query parameters into args, converting
// numerals and booleans so the registry sees typed values.
func queryArgs(c *gin.Context, args map[string]any, keys []string) {
	for _, key := range keys {
		v := c.Query(key)
		if v == "" {
			continue
		}
		if n, err := strconv.Atoi(v); err == nil {
			args[key] = float64(n)
			continue
		}
		if b, err := strconv.ParseBool(v); err == nil {
			args[key] = b
			continue
		}
		args[key] = v
	}
}

func (g *Gateway) plantHandler(tool string, queryKeys []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		plantID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid plant id"})
			return
		}
		args := map[string]any{"plant_id": plantID}
		queryArgs(c, args, queryKeys)
		g.invoke(c, tool, args)
	}
}

func (g *Gateway) plantBodyHandler(tool string) gin.HandlerFunc {
	return func(c *gin.Context) {
		plantID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid plant id"})
			return
		}
		args := map[string]any{}
		if err := c.ShouldBindJSON(&args); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
			return
		}
		args["plant_id"] = plantID
		g.invoke(c, tool, args)
	}
}

func (g *Gateway) invoke(c *gin.Context, tool string, args map[string]any) {
	start := time.Now()
	res := g.dispatcher.Call(c.Request.Context(), tool, args)
	outcome := "ok"
	if res.IsError {
		outcome = "error"
	}
	g.metrics.observe(tool, outcome, time.Since(start))

	if res.IsError {
		status := http.StatusBadGateway
		if strings.Contains(res.Text, "missing or invalid") || strings.Contains(res.Text, "invalid ") {
			status = http.StatusBadRequest
		}
		g.log.Warn().Str("tool", tool).Str("error", res.Text).Msg("tool call failed")
		c.JSON(status, gin.H{"error": res.Text})
		return
	}

	body := []byte(res.Text)
	if json.Valid(body) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", body)
		return
	}
	// Plain-text results ("Plant with ID n not found" and friends).
	c.String(http.StatusOK, res.Text)
}
