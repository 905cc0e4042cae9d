package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Renders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_dashboard_renders_total",
			Help: "Total number of render calls by outcome",
		},
		[]string{"outcome", "source"}, // ok, sample, schema_error
	)

	PropertyRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_dashboard_property_refreshes_total",
			Help: "Total number of property list refreshes by result",
		},
		[]string{"result"}, // ok, fetch_failed, not_json, empty, write_failed
	)

	PropertyCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_dashboard_property_cache_lookups_total",
			Help: "Normalized property list cache lookups",
		},
		[]string{"result"}, // hit, miss
	)

	AskRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_dashboard_ask_requests_total",
			Help: "Total number of ask calls by outcome",
		},
		[]string{"backend", "outcome"},
	)

	AskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agent_dashboard_ask_duration_seconds",
			Help:    "Agent backend latency",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 180},
		},
		[]string{"backend"},
	)
)

// RecordRender records one render call.
func RecordRender(outcome, source string) {
	Renders.WithLabelValues(outcome, source).Inc()
}

// RecordPropertyRefresh records the result of one property refresh.
func RecordPropertyRefresh(result string) {
	PropertyRefreshes.WithLabelValues(result).Inc()
}

// RecordCacheLookup records a normalized property cache hit or miss.
func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	PropertyCacheLookups.WithLabelValues(result).Inc()
}

// RecordAsk records one agent call and its latency.
func RecordAsk(backend, outcome string, started time.Time) {
	AskRequests.WithLabelValues(backend, outcome).Inc()
	AskDuration.WithLabelValues(backend).Observe(time.Since(started).Seconds())
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
