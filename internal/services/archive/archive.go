// Package archive persists normalized measurement history to InfluxDB
// and serves the latest values per plant, falling back to an in-memory
// snapshot when the database is unreachable.
package archive

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/verdantlab/plantpulse/internal/extract"
	"github.com/verdantlab/plantpulse/internal/model"
	"github.com/verdantlab/plantpulse/internal/plantcloud"
)

const measurementName = "plant_measurements"

type Cloud interface {
	GetPlants(ctx context.Context) (*plantcloud.PlantsResponse, error)
	GetPlantMeasurements(ctx context.Context, id int, timeline string) (any, error)
}

type Config struct {
	Org          string
	Bucket       string
	PollInterval time.Duration
}

// Latest is one plant's most recent archived reading.
type Latest struct {
	PlantID     int               `json:"plant_id"`
	PlantName   string            `json:"plant_name"`
	Measurement model.Measurement `json:"measurement"`
}

type Service struct {
	cloud    Cloud
	writeAPI api.WriteAPIBlocking
	queryAPI api.QueryAPI
	cfg      Config

	// Last reading per plant, served when Influx cannot answer.
	latest *gocache.Cache

	log zerolog.Logger
}

func New(cloud Cloud, writeAPI api.WriteAPIBlocking, queryAPI api.QueryAPI, cfg Config, log zerolog.Logger) *Service {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 10 * time.Minute
	}
	return &Service{
		cloud:    cloud,
		writeAPI: writeAPI,
		queryAPI: queryAPI,
		cfg:      cfg,
		latest:   gocache.New(gocache.NoExpiration, 30*time.Minute),
		log:      log.With().Str("service", "archive").Logger(),
	}
}

func fieldsFor(m model.Measurement) map[string]any {
	fields := map[string]any{}
	if m.Temperature != nil {
		fields["temperature"] = *m.Temperature
	}
	if m.Light != nil {
		fields["light"] = *m.Light
	}
	if m.SoilMoisture != nil {
		fields["soil_moisture"] = *m.SoilMoisture
	}
	if m.SoilFertility != nil {
		fields["soil_fertility"] = *m.SoilFertility
	}
	return fields
}

// archivePlant writes one plant's recent normalized history. Influx
// overwrites points with identical series and timestamp, so re-polling
// an overlapping window is harmless.
func (s *Service) archivePlant(ctx context.Context, plant *model.Plant) (int, error) {
	payload, err := s.cloud.GetPlantMeasurements(ctx, plant.ID, "day")
	if err != nil {
		return 0, fmt.Errorf("fetch measurements for plant %d: %w", plant.ID, err)
	}
	ms := extract.Normalize(payload)
	if len(ms) == 0 {
		return 0, nil
	}

	tags := map[string]string{
		"plant_id":   strconv.Itoa(plant.ID),
		"plant_name": plant.DisplayName(),
	}
	written := 0
	for _, m := range ms {
		fields := fieldsFor(m)
		if len(fields) == 0 {
			continue
		}
		point := influxdb2.NewPoint(measurementName, tags, fields, m.Timestamp)
		if err := s.writeAPI.WritePoint(ctx, point); err != nil {
			return written, fmt.Errorf("write point for plant %d: %w", plant.ID, err)
		}
		written++
	}

	s.latest.Set(strconv.Itoa(plant.ID), Latest{
		PlantID:     plant.ID,
		PlantName:   plant.DisplayName(),
		Measurement: ms[len(ms)-1],
	}, gocache.DefaultExpiration)

	return written, nil
}

// Poll archives every plant that has a sensor. It returns the number
// of points written.
func (s *Service) Poll(ctx context.Context) (int, error) {
	data, err := s.cloud.GetPlants(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch plants: %w", err)
	}

	written := 0
	for i := range data.Plants {
		plant := &data.Plants[i]
		if !plant.Sensor.HasSensor {
			continue
		}
		n, err := s.archivePlant(ctx, plant)
		written += n
		if err != nil {
			s.log.Warn().Err(err).Int("plant_id", plant.ID).Msg("archive failed")
		}
	}

	s.log.Info().Int("points", written).Msg("poll complete")
	return written, nil
}

// Run polls immediately and then on every tick until ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
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

// LatestFromCache returns the in-memory snapshot, ordered by plant id.
func (s *Service) LatestFromCache() []Latest {
	items := s.latest.Items()
	out := make([]Latest, 0, len(items))
	for _, item := range items {
		out = append(out, item.Object.(Latest))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlantID < out[j].PlantID })
	return out
}

// QueryLatest asks Influx for the last value of every field per plant
// within the window.
func (s *Service) QueryLatest(ctx context.Context, window time.Duration) ([]Latest, error) {
	if s.queryAPI == nil {
		return nil, fmt.Errorf("query api not configured")
	}
	flux := fmt.Sprintf(`from(bucket: %q)
  |> range(start: -%s)
  |> filter(fn: (r) => r._measurement == %q)
  |> last()`, s.cfg.Bucket, window.Truncate(time.Second), measurementName)

	result, err := s.queryAPI.Query(ctx, flux)
	if err != nil {
		return nil, fmt.Errorf("query latest: %w", err)
	}
	defer result.Close()

	byPlant := map[int]*Latest{}
	for result.Next() {
		record := result.Record()
		id, err := strconv.Atoi(fmt.Sprint(record.ValueByKey("plant_id")))
		if err != nil {
			continue
		}
		entry, ok := byPlant[id]
		if !ok {
			entry = &Latest{PlantID: id, PlantName: fmt.Sprint(record.ValueByKey("plant_name"))}
			byPlant[id] = entry
		}
		value, ok := record.Value().(float64)
		if !ok {
			continue
		}
		if record.Time().After(entry.Measurement.Timestamp) {
			entry.Measurement.Timestamp = record.Time()
		}
		switch record.Field() {
		case "temperature":
			entry.Measurement.Temperature = &value
		case "light":
			entry.Measurement.Light = &value
		case "soil_moisture":
			entry.Measurement.SoilMoisture = &value
		case "soil_fertility":
			entry.Measurement.SoilFertility = &value
		}
	}
	if result.Err() != nil {
		return nil, fmt.Errorf("query latest: %w", result.Err())
	}

	out := make([]Latest, 0, len(byPlant))
	for _, entry := range byPlant {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlantID < out[j].PlantID })
	return out, nil
}
