package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/verdantlab/plantpulse/internal/config"
	"github.com/verdantlab/plantpulse/internal/plantcloud"
	"github.com/verdantlab/plantpulse/internal/services/webhook"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Str("service", "webhook").Logger()

	cfg, err := config.LoadWebhook()
	if err != nil {
		log.Fatal().Err(err).Msg("configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := plantcloud.New(plantcloud.Config{
		BaseURL:  cfg.Cloud.BaseURL,
		Email:    cfg.Cloud.Email,
		Password: cfg.Cloud.Password,
		Timeout:  cfg.Cloud.Timeout,
	}, log)

	sender := webhook.New(client, webhook.Config{
		TargetURL:    cfg.TargetURL,
		PollInterval: cfg.PollInterval,
		DedupTTL:     cfg.DedupTTL,
	}, log)

	if cfg.MetricsPort != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", sender.Metrics().Handler())
		go func() {
			if err := http.ListenAndServe(":"+cfg.MetricsPort, mux); err != nil {
				log.Error().Err(err).Msg("metrics server")
			}
		}()
	}

	sender.Run(ctx)
	log.Info().Msg("webhook sender stopped")
}
