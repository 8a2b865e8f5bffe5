package openmeteo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/field-risk-service/internal/domain"
	"github.com/couchcryptid/field-risk-service/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGeocodingClient(srv *httptest.Server, country string) (*GeocodingClient, *observability.Metrics) {
	m := observability.NewMetricsForTesting()
	return NewGeocodingClient(srv.URL, country, 2*time.Second, m, discardLogger()), m
}

func TestForwardGeocode_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/search", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "Tromsø", q.Get("name"))
		assert.Equal(t, "5", q.Get("count"))
		assert.Equal(t, "NO", q.Get("countryCode"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"results": [
				{"name": "Tromsø", "latitude": 69.6496, "longitude": 18.957, "elevation": 10, "admin1": "Troms", "country": "Norway"},
				{"name": "Tromsø Skipsverft", "latitude": 69.6, "longitude": 18.9, "country": "Norway"}
			]
		}`))
	}))
	defer srv.Close()

	client, m := newTestGeocodingClient(srv, "NO")
	result, err := client.ForwardGeocode(context.Background(), "Tromsø")
	require.NoError(t, err)

	assert.True(t, result.Found())
	assert.Equal(t, "Tromsø", result.PlaceName)
	assert.Equal(t, "Tromsø, Troms, Norway", result.FormattedAddress)
	assert.InDelta(t, 69.6496, result.Lat, 0.0001)
	assert.InDelta(t, 18.957, result.Lon, 0.0001)
	require.NotNil(t, result.ElevationM)
	assert.InDelta(t, 10, *result.ElevationM, 0.0001)
	assert.InDelta(t, 1, testutil.ToFloat64(m.GeocodeRequests.WithLabelValues("success")), 0)
}

func TestForwardGeocode_NoCountryFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := r.URL.Query()["countryCode"]
		assert.False(t, ok)
		_, _ = w.Write([]byte(`{"results": [{"name": "Paris", "latitude": 48.85, "longitude": 2.35}]}`))
	}))
	defer srv.Close()

	client, _ := newTestGeocodingClient(srv, "")
	result, err := client.ForwardGeocode(context.Background(), "Paris")
	require.NoError(t, err)
	assert.Equal(t, "Paris", result.FormattedAddress)
}

func TestForwardGeocode_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"generationtime_ms": 0.4}`))
	}))
	defer srv.Close()

	client, m := newTestGeocodingClient(srv, "NO")
	result, err := client.ForwardGeocode(context.Background(), "Atlantis")
	require.NoError(t, err)
	assert.False(t, result.Found())
	assert.InDelta(t, 1, testutil.ToFloat64(m.GeocodeRequests.WithLabelValues("empty")), 0)
}

func TestForwardGeocode_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": true, "reason": "Parameter count must be between 1 and 100."}`))
	}))
	defer srv.Close()

	client, m := newTestGeocodingClient(srv, "NO")
	_, err := client.ForwardGeocode(context.Background(), "Oslo")
	require.ErrorIs(t, err, domain.ErrGeocodingFailed)
	assert.Contains(t, err.Error(), "status 400")
	assert.InDelta(t, 1, testutil.ToFloat64(m.GeocodeRequests.WithLabelValues("error")), 0)
}

func TestForwardGeocode_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[`))
	}))
	defer srv.Close()

	client, _ := newTestGeocodingClient(srv, "NO")
	_, err := client.ForwardGeocode(context.Background(), "Oslo")
	require.ErrorIs(t, err, domain.ErrGeocodingFailed)
}
