package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cragcast"

// Metrics holds the Prometheus collectors shared by the HTTP layer, the
// Open-Meteo adapter and the weather refresh job.
type Metrics struct {
	HTTPRequests *prometheus.CounterVec   // labels: method, route, status
	HTTPDuration *prometheus.HistogramVec // labels: method, route

	// Open-Meteo metrics.
	UpstreamRequests *prometheus.CounterVec   // labels: kind={current,forecast}, outcome={success,error}
	UpstreamDuration *prometheus.HistogramVec // labels: kind
	WeatherCache     *prometheus.CounterVec   // labels: kind, result={hit,miss}

	// Panels that fell back to the unavailable fragment.
	PanelFailures *prometheus.CounterVec // labels: panel={current,forecast}

	RefreshRuns         prometheus.Counter
	RefreshErrors       prometheus.Counter
	RefreshLocations    prometheus.Gauge
	ConditionsPublished *prometheus.CounterVec // labels: outcome={success,error}
}

// NewMetrics creates the collectors and registers them with the default registry
// served by promhttp.Handler.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates unregistered collectors so tests can build as many
// as they like without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration by method and route pattern.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method", "route"}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "openmeteo_requests_total",
			Help:      "Open-Meteo API requests by kind and outcome.",
		}, []string{"kind", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "openmeteo_request_duration_seconds",
			Help:      "Open-Meteo API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"kind"}),
		WeatherCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_cache_total",
			Help:      "Weather cache lookups by kind and result.",
		}, []string{"kind", "result"}),
		PanelFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_panel_failures_total",
			Help:      "Weather panels rendered as unavailable.",
		}, []string{"panel"}),
		RefreshRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_refresh_runs_total",
			Help:      "Completed weather refresh runs.",
		}),
		RefreshErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_refresh_errors_total",
			Help:      "Locations that failed during a weather refresh run.",
		}),
		RefreshLocations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "weather_refresh_locations",
			Help:      "Locations visited by the last refresh run.",
		}),
		ConditionsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conditions_published_total",
			Help:      "Conditions messages published to MQTT by outcome.",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.HTTPRequests,
		m.HTTPDuration,
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.WeatherCache,
		m.PanelFailures,
		m.RefreshRuns,
		m.RefreshErrors,
		m.RefreshLocations,
		m.ConditionsPublished,
	}
}
