package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

var (
	RouteRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genie_router_requests_total",
			Help: "Total number of routed questions by invocation plan and outcome",
		},
		[]string{"plan", "outcome"},
	)

	RouteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "genie_router_request_duration_seconds",
			Help:    "End-to-end duration of a routed question in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		},
		[]string{"plan"},
	)

	BackendCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genie_backend_calls_total",
			Help: "Total number of Genie space calls by domain and outcome",
		},
		[]string{"domain", "outcome"},
	)

	BackendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "genie_backend_call_duration_seconds",
			Help:    "Duration of a single Genie space call in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
		},
		[]string{"domain"},
	)

	ExtractionFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genie_extraction_fallbacks_total",
			Help: "Number of Genie answers with no extractable text",
		},
		[]string{"domain"},
	)
)

func ObserveRoute(plan string, err error, elapsed time.Duration) {
	RouteRequests.WithLabelValues(plan, outcome(err)).Inc()
	RouteDuration.WithLabelValues(plan).Observe(elapsed.Seconds())
}

func ObserveBackend(domain string, err error, elapsed time.Duration) {
	BackendCalls.WithLabelValues(domain, outcome(err)).Inc()
	BackendDuration.WithLabelValues(domain).Observe(elapsed.Seconds())
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeSuccess
}
