// Package metrics exposes Prometheus collectors for the harvester service.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	strategyAttemptsTotal      *prometheus.CounterVec
	sourceOutcomesTotal        *prometheus.CounterVec
	sourceDurationSeconds      *prometheus.HistogramVec
	harvestsTotal              *prometheus.CounterVec
	harvestListings            prometheus.Histogram
	renderSalvageTotal         prometheus.Counter
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
	rateLimitDelaysSeconds     *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		strategyAttemptsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvester_strategy_attempts_total",
				Help: "Acquisition strategy attempts, labeled by source, strategy and result.",
			},
			[]string{"source", "strategy", "result"},
		)

		sourceOutcomesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvester_source_outcomes_total",
				Help: "Per-source harvest outcomes, labeled by source and status.",
			},
			[]string{"source", "status"},
		)

		sourceDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "harvester_source_duration_seconds",
				Help:    "Wall time spent on one source, including every strategy tried.",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
			},
			[]string{"source"},
		)

		harvestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvester_harvests_total",
				Help: "Harvest requests processed, labeled by result.",
			},
			[]string{"result"},
		)

		harvestListings = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "harvester_listings_returned",
				Help:    "Number of listings returned per harvest.",
				Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
			},
		)

		renderSalvageTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "harvester_render_salvage_total",
				Help: "Rendered fetches that returned partial markup after a load timeout.",
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15, 60},
			},
			[]string{"method", "route"},
		)

		rateLimitDelaysSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "harvester_rate_limit_delays_seconds",
				Help:    "Histogram of per-host rate limit wait durations.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"domain"},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}

// ObserveStrategy records one acquisition attempt.
func ObserveStrategy(source, strategy, result string) {
	Init()
	strategyAttemptsTotal.WithLabelValues(source, strategy, result).Inc()
}

// ObserveSource records the outcome and duration of one source.
func ObserveSource(source, status string, elapsed time.Duration) {
	Init()
	sourceOutcomesTotal.WithLabelValues(source, status).Inc()
	sourceDurationSeconds.WithLabelValues(source).Observe(elapsed.Seconds())
}

// ObserveHarvest records a finished harvest.
func ObserveHarvest(result string, listings int) {
	Init()
	harvestsTotal.WithLabelValues(result).Inc()
	harvestListings.Observe(float64(listings))
}

// ObserveRenderSalvage counts partial renders that were kept.
func ObserveRenderSalvage() {
	Init()
	renderSalvageTotal.Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveRateLimitDelay records the duration of a rate limit wait.
func ObserveRateLimitDelay(domain string, duration time.Duration) {
	Init()
	rateLimitDelaysSeconds.WithLabelValues(domain).Observe(duration.Seconds())
}
