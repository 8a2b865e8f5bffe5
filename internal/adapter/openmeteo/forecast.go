package openmeteo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/field-risk-service/internal/domain"
	"github.com/couchcryptid/field-risk-service/internal/observability"
	"github.com/sony/gobreaker/v2"
)

// BreakerSettings controls when the forecast client stops calling the API.
type BreakerSettings struct {
	MaxConsecutiveFailures uint32
	OpenTimeout            time.Duration
}

// ForecastClient implements domain.WeatherProvider using the Open-Meteo
// forecast API. Calls go through a circuit breaker; failures are never retried.
type ForecastClient struct {
	httpClient *http.Client
	baseURL    string
	breaker    *gobreaker.CircuitBreaker[domain.RawPayload]
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewForecastClient creates a forecast client.
func NewForecastClient(baseURL string, timeout time.Duration, bs BreakerSettings, metrics *observability.Metrics, logger *slog.Logger) *ForecastClient {
	c := &ForecastClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		metrics:    metrics,
		logger:     logger,
	}
	c.breaker = newBreaker(bs, metrics, logger)
	return c
}

func newBreaker(bs BreakerSettings, metrics *observability.Metrics, logger *slog.Logger) *gobreaker.CircuitBreaker[domain.RawPayload] {
	maxFailures := bs.MaxConsecutiveFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	return gobreaker.NewCircuitBreaker[domain.RawPayload](gobreaker.Settings{
		Name:        "open-meteo-forecast",
		MaxRequests: 1,
		Timeout:     bs.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			// A caller giving up is not the provider's fault.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
			metrics.BreakerState.Set(float64(to))
		},
	})
}

// FetchForecast requests current conditions and hourly precipitation and
// snowfall for a point. Every failure wraps domain.ErrProviderUnavailable.
func (c *ForecastClient) FetchForecast(ctx context.Context, at domain.Coordinates) (domain.RawPayload, error) {
	params := url.Values{
		"latitude":        {strconv.FormatFloat(at.Lat, 'f', -1, 64)},
		"longitude":       {strconv.FormatFloat(at.Lon, 'f', -1, 64)},
		"current_weather": {"true"},
		"hourly":          {"precipitation,snowfall"},
		"timezone":        {"auto"},
	}
	fullURL := c.baseURL + "/v1/forecast?" + params.Encode()

	start := time.Now()
	payload, err := c.breaker.Execute(func() (domain.RawPayload, error) {
		return c.doRequest(ctx, fullURL)
	})
	c.metrics.FetchDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return domain.RawPayload{}, fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, err)
		}
		return domain.RawPayload{}, err
	}
	return payload, nil
}

func (c *ForecastClient) doRequest(ctx context.Context, fullURL string) (domain.RawPayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.RawPayload{}, fmt.Errorf("%w: create request: %w", domain.ErrProviderUnavailable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.RawPayload{}, fmt.Errorf("%w: forecast request: %w", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.RawPayload{}, fmt.Errorf("%w: open-meteo API error: status %d: %s", domain.ErrProviderUnavailable, resp.StatusCode, body)
	}

	var payload domain.RawPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.RawPayload{}, fmt.Errorf("%w: decode response: %w", domain.ErrMalformedPayload, err)
	}
	return payload, nil
}
