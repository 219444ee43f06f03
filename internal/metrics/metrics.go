// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts served requests.
	// Labels:
	//   - route: chi route pattern, e.g. "/support/thread/{id}"
	//   - status: response status code class ("2xx", "4xx", "5xx")
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallify_http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wallify_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"route"},
	)

	// Generations counts AI generation attempts.
	// Labels:
	//   - outcome: "success", "quota_exceeded", "failure"
	Generations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallify_generations_total",
			Help: "Total number of AI image generation attempts",
		},
		[]string{"outcome"},
	)

	GenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wallify_generation_duration_seconds",
			Help:    "Duration of image generation provider calls in seconds",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120},
		},
	)

	Searches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wallify_gallery_searches_total",
			Help: "Total number of gallery searches",
		},
	)

	// Signins counts sign-in attempts by outcome ("success", "failure").
	Signins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallify_signins_total",
			Help: "Total number of sign-in attempts",
		},
		[]string{"outcome"},
	)

	// WebhookEvents counts billing webhook deliveries.
	// Labels:
	//   - type: provider event type, or "invalid" when verification failed
	WebhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallify_billing_webhook_events_total",
			Help: "Total number of billing webhook events received",
		},
		[]string{"type"},
	)

	PremiumUpgrades = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallify_premium_upgrades_total",
			Help: "Total number of premium upgrades applied",
		},
		[]string{"source"},
	)
)

func RecordGeneration(outcome string, elapsed time.Duration) {
	Generations.WithLabelValues(outcome).Inc()
	if outcome != "quota_exceeded" {
		GenerationDuration.Observe(elapsed.Seconds())
	}
}

func RecordHTTP(route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequests.WithLabelValues(route, statusClass(status)).Inc()
	HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
