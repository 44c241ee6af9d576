package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	authAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "berich",
			Subsystem: "auth",
			Name:      "attempts_total",
			Help:      "Authentication flow outcomes.",
		},
		[]string{"flow", "outcome"},
	)

	kakaoRequests = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "berich",
			Subsystem: "kakao",
			Name:      "request_duration_seconds",
			Help:      "Duration of Kakao API calls.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~5s
		},
		[]string{"operation", "outcome"},
	)

	budgetUpdates = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "berich",
			Subsystem: "settings",
			Name:      "budget_updates_total",
			Help:      "Number of successful budget updates.",
		},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		authAttempts,
		kakaoRequests,
		budgetUpdates,
	)
}

// Handler exposes the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordAuth counts one authentication flow outcome, e.g. ("kakao", "signup_required").
func RecordAuth(flow, outcome string) {
	authAttempts.WithLabelValues(flow, outcome).Inc()
}

// ObserveKakao records the latency of one Kakao API call.
func ObserveKakao(operation string, err error, elapsed time.Duration) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	kakaoRequests.WithLabelValues(operation, outcome).Observe(elapsed.Seconds())
}

// RecordBudgetUpdate counts a successful budget update.
func RecordBudgetUpdate() {
	budgetUpdates.Inc()
}
