package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/verdantlab/plantpulse/internal/analysis/events"
	"github.com/verdantlab/plantpulse/internal/config"
	"github.com/verdantlab/plantpulse/internal/diagnosis"
	"github.com/verdantlab/plantpulse/internal/plantcloud"
	"github.com/verdantlab/plantpulse/internal/services/gateway/app"
	"github.com/verdantlab/plantpulse/internal/store"
	"github.com/verdantlab/plantpulse/internal/tools"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Str("service", "gateway").Logger()

	cfg, err := config.LoadGateway()
	if err != nil {
		log.Fatal().Err(err).Msg("configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("open store")
	}
	careStore := store.NewCareActionStore(db)
	contextStore := store.NewPlantContextStore(db)

	client := plantcloud.New(plantcloud.Config{
		BaseURL:  cfg.Cloud.BaseURL,
		Email:    cfg.Cloud.Email,
		Password: cfg.Cloud.Password,
		Timeout:  cfg.Cloud.Timeout,
	}, log)

	orchestrator := diagnosis.NewOrchestrator(client, careStore, contextStore, log)
	registry := tools.New(client, careStore, contextStore, orchestrator, log)
	registry.SetEventConfig(events.Config{
		SilenceThreshold: cfg.EventSilenceThreshold,
		BatteryThreshold: cfg.EventBatteryThreshold,
	})

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	app.NewGateway(registry, app.NewMetrics(), log).RegisterRoutes(router)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: router}
	go func() {
		log.Info().Str("port", cfg.Port).Msg("gateway listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	log.Info().Msg("gateway stopped")
}
