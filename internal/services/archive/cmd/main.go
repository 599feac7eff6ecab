package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/rs/zerolog"

	"github.com/verdantlab/plantpulse/internal/config"
	"github.com/verdantlab/plantpulse/internal/plantcloud"
	"github.com/verdantlab/plantpulse/internal/services/archive"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Str("service", "archive").Logger()

	cfg, err := config.LoadArchive()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cloud := plantcloud.New(plantcloud.Config{
		BaseURL:  cfg.Cloud.BaseURL,
		Email:    cfg.Cloud.Email,
		Password: cfg.Cloud.Password,
		Timeout:  cfg.Cloud.Timeout,
	}, log)

	influx := influxdb2.NewClient(cfg.InfluxURL, cfg.InfluxToken)
	defer influx.Close()

	svc := archive.New(
		cloud,
		influx.WriteAPIBlocking(cfg.InfluxOrg, cfg.InfluxBucket),
		influx.QueryAPI(cfg.InfluxOrg),
		archive.Config{
			Org:          cfg.InfluxOrg,
			Bucket:       cfg.InfluxBucket,
			PollInterval: cfg.PollInterval,
		},
		log,
	)

	go svc.Run(ctx)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: archive.NewHTTPMux(svc),
	}
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("archive listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}
