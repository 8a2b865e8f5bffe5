package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/field-risk-service/internal/domain"
	"github.com/couchcryptid/field-risk-service/internal/observability"
)

// GeocodingClient implements domain.Geocoder using the Open-Meteo Geocoding API.
type GeocodingClient struct {
	httpClient *http.Client
	baseURL    string
	country    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewGeocodingClient creates a geocoding client restricted to one ISO country
// code. An empty country searches worldwide.
func NewGeocodingClient(baseURL, country string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *GeocodingClient {
	return &GeocodingClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		country:    country,
		metrics:    metrics,
		logger:     logger,
	}
}

// ForwardGeocode resolves a place name to its best-ranked match. A zero
// result with a nil error means nothing matched.
func (c *GeocodingClient) ForwardGeocode(ctx context.Context, name string) (domain.GeocodingResult, error) {
	params := url.Values{
		"name":     {name},
		"count":    {"5"},
		"language": {"en"},
		"format":   {"json"},
	}
	if c.country != "" {
		params.Set("countryCode", c.country)
	}

	result, err := c.doRequest(ctx, c.baseURL+"/v1/search?"+params.Encode())
	switch {
	case err != nil:
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
	case !result.Found():
		c.metrics.GeocodeRequests.WithLabelValues("empty").Inc()
	default:
		c.metrics.GeocodeRequests.WithLabelValues("success").Inc()
	}
	return result, err
}

func (c *GeocodingClient) doRequest(ctx context.Context, fullURL string) (domain.GeocodingResult, error) {
	start := time.Now()
	defer func() { c.metrics.GeocodeAPIDuration.Observe(time.Since(start).Seconds()) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("%w: create request: %w", domain.ErrGeocodingFailed, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("%w: request: %w", domain.ErrGeocodingFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.GeocodingResult{}, fmt.Errorf("%w: open-meteo API error: status %d: %s", domain.ErrGeocodingFailed, resp.StatusCode, body)
	}

	var searchResp searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("%w: decode response: %w", domain.ErrGeocodingFailed, err)
	}

	if len(searchResp.Results) == 0 {
		c.logger.Debug("geocoding returned no results", "url_path", req.URL.Path)
		return domain.GeocodingResult{}, nil
	}

	p := searchResp.Results[0]
	return domain.GeocodingResult{
		Lat:              p.Latitude,
		Lon:              p.Longitude,
		PlaceName:        p.Name,
		FormattedAddress: p.formatted(),
		ElevationM:       p.Elevation,
	}, nil
}

// Open-Meteo geocoding response types.

type searchResponse struct {
	Results []place `json:"results"`
}

type place struct {
	Name      string   `json:"name"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Elevation *float64 `json:"elevation"`
	Admin1    string   `json:"admin1"`
	Country   string   `json:"country"`
}

func (p place) formatted() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{p.Name, p.Admin1, p.Country} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}
