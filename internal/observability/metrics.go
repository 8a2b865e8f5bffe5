package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "field_risk"

// Metrics holds the Prometheus counters, histograms, and gauges for the screening service.
type Metrics struct {
	// Refresh lifecycle.
	Refreshes       *prometheus.CounterVec // labels: outcome={applied,failed,superseded}
	RefreshInFlight prometheus.Gauge
	FetchDuration   prometheus.Histogram
	BreakerState    prometheus.Gauge // 0 closed, 1 half-open, 2 open

	// Risk output.
	RiskScore      prometheus.Gauge
	RiskLevel      *prometheus.GaugeVec // labels: level={SAFE,CAUTION,NOT_RECOMMENDED}; 1 for the current level
	ReasonsFired   *prometheus.CounterVec
	ObservationAge prometheus.Gauge

	// Geocoding.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram

	// Downstream.
	AssessmentsPublished prometheus.Counter
	PublishErrors        prometheus.Counter
	StoreErrors          *prometheus.CounterVec // labels: op={load,save}
}

func newMetrics() *Metrics {
	return &Metrics{
		Refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refreshes_total",
			Help:      "Weather refreshes by outcome.",
		}, []string{"outcome"}),
		RefreshInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "refresh_in_flight",
			Help:      "Number of weather refreshes currently awaiting the provider.",
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "forecast_fetch_duration_seconds",
			Help:      "Forecast API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		BreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "forecast_breaker_state",
			Help:      "Forecast client circuit breaker state: 0 closed, 1 half-open, 2 open.",
		}),
		RiskScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "risk_score",
			Help:      "Most recently computed risk score.",
		}),
		RiskLevel: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "risk_level",
			Help:      "1 for the current risk level, 0 for the others.",
		}, []string{"level"}),
		ReasonsFired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hazard_reasons_total",
			Help:      "Hazard rules that fired, by reason.",
		}, []string{"reason"}),
		ObservationAge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "observation_age_seconds",
			Help:      "Age of the current observation when last read.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Geocoding API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		AssessmentsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assessments_published_total",
			Help:      "Assessments written to the sink topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Failed assessment publishes.",
		}),
		StoreErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "observation_store_errors_total",
			Help:      "Observation store failures by operation.",
		}, []string{"op"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Refreshes,
		m.RefreshInFlight,
		m.FetchDuration,
		m.BreakerState,
		m.RiskScore,
		m.RiskLevel,
		m.ReasonsFired,
		m.ObservationAge,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.AssessmentsPublished,
		m.PublishErrors,
		m.StoreErrors,
	}
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewUnregisteredMetrics creates Metrics on a private registry, for callers
// that never expose /metrics.
func NewUnregisteredMetrics() *Metrics {
	m := newMetrics()
	prometheus.NewRegistry().MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics registered to a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return NewUnregisteredMetrics()
}
