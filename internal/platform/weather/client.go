package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	domain "github.com/saltline-charters/api/internal/domain"
	"github.com/saltline-charters/api/internal/platform/config"
)

const maxForecastBody = 1 << 20

// Client fetches marine forecasts from the configured upstream API.
type Client struct {
	baseURL    string
	apiKey     string
	latitude   float64
	longitude  float64
	httpClient *http.Client
	clock      func() time.Time
}

// ClientOption customises the forecast client.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client, primarily for tests.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithClock injects a custom clock for the retrieval timestamp.
func WithClock(clock func() time.Time) ClientOption {
	return func(c *Client) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// NewClient constructs a forecast client from configuration.
func NewClient(cfg config.WeatherConfig, opts ...ClientOption) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("weather client: base url is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	client := &Client{
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		latitude:   cfg.Latitude,
		longitude:  cfg.Longitude,
		httpClient: &http.Client{Timeout: timeout},
		clock:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

type forecastPayload struct {
	WindKnots   float64 `json:"wind_knots"`
	GustKnots   float64 `json:"gust_knots"`
	WaveHeightM float64 `json:"wave_height_m"`
	AirTempC    float64 `json:"air_temp_c"`
	WaterTempC  float64 `json:"water_temp_c"`
	Summary     string  `json:"summary"`
}

// Forecast fetches the marine forecast for the given day key (YYYY-MM-DD).
func (c *Client) Forecast(ctx context.Context, day string) (domain.ForecastSnapshot, error) {
	if c == nil || c.httpClient == nil {
		return domain.ForecastSnapshot{}, errors.New("weather client: not initialised")
	}

	query := url.Values{}
	query.Set("day", strings.TrimSpace(day))
	query.Set("lat", strconv.FormatFloat(c.latitude, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(c.longitude, 'f', -1, 64))

	endpoint := fmt.Sprintf("%s/marine/forecast?%s", c.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.ForecastSnapshot{}, fmt.Errorf("weather client: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.ForecastSnapshot{}, fmt.Errorf("weather client: fetch forecast: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxForecastBody))
		return domain.ForecastSnapshot{}, fmt.Errorf("weather client: upstream returned status %d", resp.StatusCode)
	}

	var payload forecastPayload
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxForecastBody)).Decode(&payload); err != nil {
		return domain.ForecastSnapshot{}, fmt.Errorf("weather client: decode forecast: %w", err)
	}

	return domain.ForecastSnapshot{
		Day:         strings.TrimSpace(day),
		WindKnots:   payload.WindKnots,
		GustKnots:   payload.GustKnots,
		WaveHeightM: payload.WaveHeightM,
		AirTempC:    payload.AirTempC,
		WaterTempC:  payload.WaterTempC,
		Summary:     strings.TrimSpace(payload.Summary),
		RetrievedAt: c.clock(),
	}, nil
}

// Ping performs a lightweight reachability probe for readiness checks.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.httpClient == nil {
		return errors.New("weather client: not initialised")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/marine/forecast", nil)
	if err != nil {
		return fmt.Errorf("weather client: build probe: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("weather client: probe: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxForecastBody))
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("weather client: upstream returned status %d", resp.StatusCode)
	}
	return nil
}
