// Package webhook polls the event detectors and delivers fresh events
// to a configured HTTP endpoint with retry.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/verdantlab/plantpulse/internal/analysis/events"
	"github.com/verdantlab/plantpulse/internal/model"
	"github.com/verdantlab/plantpulse/internal/plantcloud"
	"github.com/verdantlab/plantpulse/pkg/dedup"
)

type Cloud interface {
	GetPlants(ctx context.Context) (*plantcloud.PlantsResponse, error)
}

type Config struct {
	TargetURL    string
	PollInterval time.Duration
	DedupTTL     time.Duration
	Events       events.Config
}

type Sender struct {
	cloud Cloud
	cfg   Config
	http  *http.Client

	seen      *dedup.Set
	snapshots map[int]model.Plant
	metrics   *Metrics

	log zerolog.Logger
	now func() time.Time
}

// Metrics exposes the sender instrumentation for the cmd to serve.
func (s *Sender) Metrics() *Metrics { return s.metrics }

func New(cloud Cloud, cfg Config, log zerolog.Logger) *Sender {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Minute
	}
	return &Sender{
		cloud:     cloud,
		cfg:       cfg,
		http:      &http.Client{Timeout: 10 * time.Second},
		seen:      dedup.New(cfg.DedupTTL, 0),
		snapshots: make(map[int]model.Plant),
		metrics:   NewMetrics(),
		log:       log.With().Str("service", "webhook").Logger(),
		now:       time.Now,
	}
}

func dedupKey(ev model.Event) string {
	if metric, ok := ev.Details["metric"].(string); ok {
		return fmt.Sprintf("%d:%s:%s", ev.PlantID, ev.Type, metric)
	}
	return fmt.Sprintf("%d:%s", ev.PlantID, ev.Type)
}

// deliver POSTs one webhook payload, retrying transient failures.
func (s *Sender) deliver(ctx context.Context, payload events.WebhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second
	return backoff.Retry(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.TargetURL, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return fmt.Errorf("webhook endpoint returned %d", resp.StatusCode)
		}
		if resp.StatusCode >= 300 {
			return backoff.Permanent(fmt.Errorf("webhook endpoint returned %d", resp.StatusCode))
		}
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(bo, 3), ctx))
}

// Poll runs one detection pass and delivers events not seen within the
// dedup TTL. It returns the number of events delivered.
func (s *Sender) Poll(ctx context.Context) (int, error) {
	s.metrics.polls.Inc()
	data, err := s.cloud.GetPlants(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch plants: %w", err)
	}

	now := s.now()
	delivered := 0
	for i := range data.Plants {
		plant := &data.Plants[i]

		var previous *model.Plant
		if snap, ok := s.snapshots[plant.ID]; ok {
			previous = &snap
		}
		detected := events.DetectAll(plant, previous, s.cfg.Events, now)
		s.snapshots[plant.ID] = *plant

		for _, ev := range detected {
			if !s.seen.FirstSeen(dedupKey(ev)) {
				continue
			}
			if err := s.deliver(ctx, events.WebhookFormat(ev)); err != nil {
				s.metrics.deliveryFailures.Inc()
				s.log.Warn().Err(err).Str("event", ev.Type).Int("plant_id", ev.PlantID).Msg("delivery failed")
				continue
			}
			s.metrics.delivered.Inc()
			delivered++
		}
	}

	s.log.Info().Int("delivered", delivered).Int("plants", len(data.Plants)).Msg("poll complete")
	return delivered, nil
}

// Run polls immediately and then on every tick until ctx is cancelled.
func (s *Sender) Run(ctx context.Context) {
	if _, err := s.Poll(ctx); err != nil {
		s.log.Error().Err(err).Msg("poll failed")
	}

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Poll(ctx); err != nil {
				s.log.Error().Err(err).Msg("poll failed")
			}
		}
	}
}
