// Package qweather provides a client for the QWeather realtime weather,
// hourly forecast, air quality and geo lookup APIs.
package qweather

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/skycollect/skycollect/internal/api/middleware"
	"github.com/skycollect/skycollect/internal/provider/resilience"
)

// Predefined errors for provider operations.
var (
	// ErrMissingAPIKey is returned when the client is constructed without
	// an API key.
	ErrMissingAPIKey = errors.New("qweather: missing API key")

	// ErrProviderStatus is returned when the provider answers with a
	// business status code other than "200".
	ErrProviderStatus = errors.New("qweather: provider returned non-200 code")

	// ErrUnexpectedStatus is returned on non-200 HTTP responses.
	ErrUnexpectedStatus = errors.New("qweather: unexpected HTTP status")

	// ErrLocationNotFound is returned when a city lookup matches nothing.
	ErrLocationNotFound = errors.New("qweather: location not found")

	// ErrInvalidHorizon is returned for forecast horizons other than
	// 24h, 72h and 168h.
	ErrInvalidHorizon = errors.New("qweather: invalid forecast horizon")
)

const (
	pathRealtimeWeather   = "/v7/weather/now"
	pathHourlyForecast    = "/v7/weather/"
	pathCurrentAirQuality = "/airquality/v1/current/"
	pathHourlyAirQuality  = "/airquality/v1/hourly/"
	pathCityLookup        = "/geo/v2/city/lookup"

	apiKeyHeader = "X-QW-Api-Key"
)

// ClientConfig holds configuration for the QWeather client.
type ClientConfig struct {
	BaseURL    string
	APIKey     string
	HTTPClient resilience.Doer
	Logger     zerolog.Logger
	// Metrics records per-call durations and failures when set.
	Metrics *middleware.ProviderMetrics
}

// Client calls the QWeather HTTP APIs.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient resilience.Doer
	logger     zerolog.Logger
	metrics    *middleware.ProviderMetrics
}

// NewClient creates a QWeather client. When no HTTP client is supplied a
// resilient client with circuit breaker and retry is used.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.BaseURL == "" {
		return nil, errors.New("qweather: missing base URL")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig("qweather"))
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		logger:     cfg.Logger.With().Str("component", "qweather_client").Logger(),
		metrics:    cfg.Metrics,
	}, nil
}

// RealtimeWeather fetches the current observation for a coordinate.
// Coordinates are ordered longitude first, the way the provider expects
// its location parameter.
func (c *Client) RealtimeWeather(ctx context.Context, lon, lat float64) (*RealtimeWeatherResponse, error) {
	query := url.Values{"location": {formatLocation(lon, lat)}}

	var out RealtimeWeatherResponse
	if err := c.get(ctx, pathRealtimeWeather, query, &out); err != nil {
		return nil, err
	}
	if out.Code != "200" {
		c.logger.Warn().Str("code", out.Code).Msg("realtime weather returned non-200 code")
		return nil, fmt.Errorf("%w: %s", ErrProviderStatus, out.Code)
	}
	return &out, nil
}

// HourlyForecast fetches the hourly weather forecast for a coordinate.
// horizon must be one of "24h", "72h" or "168h".
func (c *Client) HourlyForecast(ctx context.Context, lon, lat float64, horizon string) (*HourlyForecastResponse, error) {
	switch horizon {
	case "24h", "72h", "168h":
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidHorizon, horizon)
	}

	query := url.Values{"location": {formatLocation(lon, lat)}}

	var out HourlyForecastResponse
	if err := c.get(ctx, pathHourlyForecast+horizon, query, &out); err != nil {
		return nil, err
	}
	if out.Code != "200" {
		c.logger.Warn().Str("code", out.Code).Str("horizon", horizon).Msg("hourly forecast returned non-200 code")
		return nil, fmt.Errorf("%w: %s", ErrProviderStatus, out.Code)
	}
	return &out, nil
}

// CurrentAirQuality fetches the current air quality for a coordinate.
// The path takes latitude before longitude.
func (c *Client) CurrentAirQuality(ctx context.Context, lat, lon float64) (*AirQualityResponse, error) {
	path := pathCurrentAirQuality + formatCoord(lat) + "/" + formatCoord(lon)

	var out AirQualityResponse
	if err := c.get(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// HourlyAirQuality fetches the hourly air quality forecast for a coordinate.
func (c *Client) HourlyAirQuality(ctx context.Context, lat, lon float64) (*HourlyAirQualityResponse, error) {
	path := pathHourlyAirQuality + formatCoord(lat) + "/" + formatCoord(lon)

	var out HourlyAirQualityResponse
	if err := c.get(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CityLookup resolves a free-form place name or pinyin fragment to
// candidate locations.
func (c *Client) CityLookup(ctx context.Context, location string) ([]Location, error) {
	if location == "" {
		return nil, ErrLocationNotFound
	}

	query := url.Values{"location": {location}}

	var out CityLookupResponse
	if err := c.get(ctx, pathCityLookup, query, &out); err != nil {
		return nil, err
	}
	if out.Code != "200" {
		c.logger.Warn().Str("code", out.Code).Str("location", location).Msg("city lookup returned non-200 code")
		return nil, fmt.Errorf("%w: %s", ErrProviderStatus, out.Code)
	}
	if len(out.Location) == 0 {
		return nil, ErrLocationNotFound
	}
	return out.Location, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) (err error) {
	if c.metrics != nil {
		start := time.Now()
		defer func() {
			c.metrics.RecordRequest("qweather", path, time.Since(start), err)
		}()
	}

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	body := io.Reader(resp.Body)
	// The provider compresses every payload when gzip is accepted. The
	// header is set explicitly above, so the transport does not unwrap it.
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return fmt.Errorf("decompressing response: %w", err)
		}
		defer gz.Close()
		body = gz
	}

	if err := json.NewDecoder(body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func formatLocation(lon, lat float64) string {
	return formatCoord(lon) + "," + formatCoord(lat)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
