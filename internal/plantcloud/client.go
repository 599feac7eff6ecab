// Package plantcloud talks to the upstream plant-sensor cloud API. It
// owns token refresh, retries with exponential backoff, a circuit
// breaker around the upstream, and a last-good snapshot cache used as
// a fallback when the upstream is unreachable.
package plantcloud

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/verdantlab/plantpulse/internal/model"
)

const (
	authPath         = "/auth/login"
	plantsPath       = "/user-plant"
	measurementsPath = "/user-plant/measurements"

	// Token lifetime the upstream uses when it omits expires_in.
	defaultTokenTTL = 5184000 * time.Second

	plantsCacheKey = "plants"
)

// ErrPlantNotFound is returned when the account has no plant with the
// requested id.
var ErrPlantNotFound = errors.New("plant not found")

// Config carries the client settings.
type Config struct {
	BaseURL  string
	Email    string
	Password string
	Timeout  time.Duration

	// Circuit breaker tuning. Zero values take the defaults below.
	BreakerFailures uint32
	BreakerOpenFor  time.Duration
}

// Client is the authenticated API client. Safe for concurrent use.
type Client struct {
	cfg     Config
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	cache   *gocache.Cache
	log     zerolog.Logger
	now     func() time.Time

	mu             sync.Mutex
	accessToken    string
	refreshToken   string
	tokenExpiresAt time.Time
}

// PlantsResponse is the upstream plant list envelope.
type PlantsResponse struct {
	Plants  []model.Plant  `json:"plants"`
	Gardens []model.Garden `json:"gardens"`
}

// New builds a cloud client.
func New(cfg Config, log zerolog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerOpenFor <= 0 {
		cfg.BreakerOpenFor = 30 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "plant-cloud",
		Timeout: cfg.BreakerOpenFor,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= cfg.BreakerFailures
		},
	})

	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: breaker,
		cache:   gocache.New(gocache.NoExpiration, 10*time.Minute),
		log:     log,
		now:     time.Now,
	}
}

type authResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Authenticate exchanges the credentials for a bearer token.
func (c *Client) Authenticate(ctx context.Context) error {
	body, err := json.Marshal(map[string]string{
		"email":    c.cfg.Email,
		"password": c.cfg.Password,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+authPath, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("auth request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("auth status %d", resp.StatusCode)
	}

	var auth authResponse
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return fmt.Errorf("auth decode: %w", err)
	}
	if auth.AccessToken == "" {
		return errors.New("auth response missing access_token")
	}

	ttl := defaultTokenTTL
	if auth.ExpiresIn > 0 {
		ttl = time.Duration(auth.ExpiresIn) * time.Second
	}

	c.mu.Lock()
	c.accessToken = auth.AccessToken
	c.refreshToken = auth.RefreshToken
	c.tokenExpiresAt = c.now().Add(ttl)
	c.mu.Unlock()

	c.log.Info().Time("expires_at", c.now().Add(ttl)).Msg("authenticated with plant cloud")
	return nil
}

func (c *Client) ensureAuthenticated(ctx context.Context) (string, error) {
	c.mu.Lock()
	token := c.accessToken
	valid := token != "" && c.now().Before(c.tokenExpiresAt)
	c.mu.Unlock()

	if valid {
		return token, nil
	}
	if err := c.Authenticate(ctx); err != nil {
		return "", err
	}
	c.mu.Lock()
	token = c.accessToken
	c.mu.Unlock()
	return token, nil
}

// getJSON performs an authenticated GET through the breaker, retrying
// transient failures with exponential backoff.
func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	_, err := c.breaker.Execute(func() (any, error) {
		bo := backoff.NewExponentialBackOff()
		bo.MaxElapsedTime = c.cfg.Timeout
		return nil, backoff.Retry(func() error {
			token, err := c.ensureAuthenticated(ctx)
			if err != nil {
				return err
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return backoff.Permanent(err)
			}
			req.Header.Set("Authorization", "Bearer "+token)

			resp, err := c.http.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			switch {
			case resp.StatusCode == http.StatusUnauthorized:
				// Token revoked upstream; force a re-login on retry.
				c.mu.Lock()
				c.accessToken = ""
				c.mu.Unlock()
				return fmt.Errorf("status %d", resp.StatusCode)
			case resp.StatusCode >= 500:
				return fmt.Errorf("status %d", resp.StatusCode)
			case resp.StatusCode < 200 || resp.StatusCode >= 300:
				return backoff.Permanent(fmt.Errorf("status %d", resp.StatusCode))
			}

			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return backoff.Permanent(fmt.Errorf("decode: %w", err))
			}
			return nil
		}, backoff.WithContext(backoff.WithMaxRetries(bo, 3), ctx))
	})
	return err
}

// GetPlants fetches the full plant list. On upstream failure it falls
// back to the last successful snapshot when one exists.
func (c *Client) GetPlants(ctx context.Context) (*PlantsResponse, error) {
	var out PlantsResponse
	err := c.getJSON(ctx, c.cfg.BaseURL+plantsPath, &out)
	if err != nil {
		if cached, ok := c.cache.Get(plantsCacheKey); ok {
			c.log.Warn().Err(err).Msg("plant list fetch failed, serving last good snapshot")
			snapshot := cached.(PlantsResponse)
			return &snapshot, nil
		}
		return nil, fmt.Errorf("fetch plants: %w", err)
	}
	c.cache.Set(plantsCacheKey, out, gocache.NoExpiration)
	return &out, nil
}

// GetPlantByID scans the plant list for the requested id. The upstream
// offers no per-plant endpoint.
func (c *Client) GetPlantByID(ctx context.Context, id int) (*model.Plant, error) {
	plants, err := c.GetPlants(ctx)
	if err != nil {
		return nil, err
	}
	for i := range plants.Plants {
		if plants.Plants[i].ID == id {
			return &plants.Plants[i], nil
		}
	}
	return nil, fmt.Errorf("plant %d: %w", id, ErrPlantNotFound)
}

// GetPlantMeasurements fetches the raw measurement payload for one
// plant. The payload shape drifts across upstream versions, so it is
// returned undecoded for the extraction layer to normalize.
func (c *Client) GetPlantMeasurements(ctx context.Context, id int, timeline string) (any, error) {
	if timeline == "" {
		timeline = "month"
	}
	url := fmt.Sprintf("%s%s/%d?timeline=%s", c.cfg.BaseURL, measurementsPath, id, timeline)

	var out any
	if err := c.getJSON(ctx, url, &out); err != nil {
		return nil, fmt.Errorf("fetch measurements for plant %d: %w", id, err)
	}
	return out, nil
}
