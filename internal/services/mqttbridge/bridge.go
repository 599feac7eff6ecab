// Package mqttbridge polls the cloud plant list, runs the event
// detectors and publishes fresh events to per-plant MQTT topics.
package mqttbridge

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/verdantlab/plantpulse/internal/analysis/events"
	"github.com/verdantlab/plantpulse/internal/model"
	"github.com/verdantlab/plantpulse/internal/plantcloud"
	"github.com/verdantlab/plantpulse/pkg/dedup"
)

type Cloud interface {
	GetPlants(ctx context.Context) (*plantcloud.PlantsResponse, error)
}

type Publisher interface {
	Publish(topic string, payload any) error
}

type Config struct {
	TopicPrefix  string
	PollInterval time.Duration
	DedupTTL     time.Duration
	Events       events.Config
}

type Bridge struct {
	cloud Cloud
	pub   Publisher
	cfg   Config

	seen      *dedup.Set
	snapshots map[int]model.Plant
	metrics   *Metrics

	log zerolog.Logger
	now func() time.Time
}

// Metrics exposes the bridge instrumentation for the cmd to serve.
func (b *Bridge) Metrics() *Metrics { return b.metrics }

func New(cloud Cloud, pub Publisher, cfg Config, log zerolog.Logger) *Bridge {
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = "plantpulse"
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Minute
	}
	return &Bridge{
		cloud:     cloud,
		pub:       pub,
		cfg:       cfg,
		seen:      dedup.New(cfg.DedupTTL, 0),
		snapshots: make(map[int]model.Plant),
		metrics:   NewMetrics(),
		log:       log.With().Str("service", "mqttbridge").Logger(),
		now:       time.Now,
	}
}

// dedupKey identifies an ongoing condition across polls. Event ids
// embed the generation time, so they never repeat; the condition key
// is plant, type and, for status changes, the metric.
func dedupKey(ev model.Event) string {
	if metric, ok := ev.Details["metric"].(string); ok {
		return fmt.Sprintf("%d:%s:%s", ev.PlantID, ev.Type, metric)
	}
	return fmt.Sprintf("%d:%s", ev.PlantID, ev.Type)
}

// Poll runs one detection pass and publishes events not seen within
// the dedup TTL. It returns the number of events published.
func (b *Bridge) Poll(ctx context.Context) (int, error) {
	b.metrics.polls.Inc()
	data, err := b.cloud.GetPlants(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch plants: %w", err)
	}

	now := b.now()
	published := 0
	for i := range data.Plants {
		plant := &data.Plants[i]

		var previous *model.Plant
		if snap, ok := b.snapshots[plant.ID]; ok {
			previous = &snap
		}
		detected := events.DetectAll(plant, previous, b.cfg.Events, now)
		b.snapshots[plant.ID] = *plant

		for _, ev := range detected {
			if !b.seen.FirstSeen(dedupKey(ev)) {
				continue
			}
			topic := fmt.Sprintf("%s/events/%d", b.cfg.TopicPrefix, ev.PlantID)
			if err := b.pub.Publish(topic, ev); err != nil {
				b.metrics.publishFailures.Inc()
				b.log.Warn().Err(err).Str("topic", topic).Msg("publish failed")
				continue
			}
			b.metrics.published.Inc()
			published++
		}
	}

	b.log.Info().Int("published", published).Int("plants", len(data.Plants)).Msg("poll complete")
	return published, nil
}

// Run polls immediately and then on every tick until ctx is cancelled.
func (b *Bridge) Run(ctx context.Context) {
	if _, err := b.Poll(ctx); err != nil {
		b.log.Error().Err(err).Msg("poll failed")
	}

	ticker := time.NewTicker(b.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := b.Poll(ctx); err != nil {
				b.log.Error().Err(err).Msg("poll failed")
			}
		}
	}
}
