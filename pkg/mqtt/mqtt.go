// Package mqtt wraps the paho client with connection retry and a JSON
// publisher shared by the push services.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

type Config struct {
	BrokerURL string
	ClientID  string
	Username  string
	Password  string
}

// Connect dials the broker with exponential backoff and disconnects
// when ctx is cancelled.
func Connect(ctx context.Context, cfg Config, log zerolog.Logger) (paho.Client, error) {
	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 10 * time.Second

	var client paho.Client
	err := backoff.Retry(func() error {
		client = paho.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			log.Warn().Err(token.Error()).Str("broker", cfg.BrokerURL).Msg("broker connect failed, retrying")
			return token.Error()
		}
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(bo, 4), ctx))
	if err != nil {
		return nil, fmt.Errorf("connect to broker %s: %w", cfg.BrokerURL, err)
	}
	log.Info().Str("broker", cfg.BrokerURL).Msg("connected to broker")

	go func() {
		<-ctx.Done()
		client.Disconnect(250)
		log.Info().Msg("broker connection closed")
	}()

	return client, nil
}

// Publisher serializes values to JSON and publishes them.
type Publisher struct {
	client paho.Client
	qos    byte
	log    zerolog.Logger
}

func NewPublisher(client paho.Client, qos byte, log zerolog.Logger) *Publisher {
	return &Publisher{client: client, qos: qos, log: log}
}

// Publish encodes payload as JSON and publishes it to topic, waiting
// for broker acknowledgement.
func (p *Publisher) Publish(topic string, payload any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload for %s: %w", topic, err)
	}
	token := p.client.Publish(topic, p.qos, false, encoded)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("publish to %s: %w", topic, token.Error())
	}
	p.log.Debug().Str("topic", topic).Int("bytes", len(encoded)).Msg("published")
	return nil
}
