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
	"github.com/verdantlab/plantpulse/internal/services/mqttbridge"
	"github.com/verdantlab/plantpulse/pkg/mqtt"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Str("service", "mqttbridge").Logger()

	cfg, err := config.LoadBridge()
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

	broker, err := mqtt.Connect(ctx, mqtt.Config{
		BrokerURL: cfg.BrokerURL,
		ClientID:  cfg.ClientID,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("broker connect")
	}

	bridge := mqttbridge.New(client, mqtt.NewPublisher(broker, byte(cfg.QoS), log), mqttbridge.Config{
		TopicPrefix:  cfg.TopicPrefix,
		PollInterval: cfg.PollInterval,
		DedupTTL:     cfg.DedupTTL,
	}, log)

	if cfg.MetricsPort != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", bridge.Metrics().Handler())
		go func() {
			if err := http.ListenAndServe(":"+cfg.MetricsPort, mux); err != nil {
				log.Error().Err(err).Msg("metrics server")
			}
		}()
	}

	bridge.Run(ctx)
	log.Info().Msg("mqttbridge stopped")
}
