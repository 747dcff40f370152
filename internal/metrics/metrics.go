// Package metrics provides Prometheus metrics for the assets explorer.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Gateway metrics
	apiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "synthesis_api_requests_total",
			Help: "Total backend API requests by outcome",
		},
		[]string{"method", "outcome"},
	)

	apiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "synthesis_api_request_duration_seconds",
			Help:    "Backend API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// Pagination metrics
	pagesLoadedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "synthesis_pages_loaded_total",
			Help: "Total item pages loaded",
		},
		[]string{"result"},
	)

	itemsLoadedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "synthesis_items_loaded_total",
			Help: "Total catalog items received",
		},
	)

	staleResponsesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "synthesis_stale_responses_total",
			Help: "Responses discarded because their fetch context was superseded",
		},
	)

	// Auth metrics
	authAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "synthesis_auth_attempts_total",
			Help: "Total login attempts",
		},
		[]string{"result"},
	)

	tokenExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "synthesis_token_expired_total",
			Help: "Requests rejected by the backend for an expired token",
		},
	)

	// Thumbnail cache metrics
	thumbCacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "synthesis_thumb_cache_requests_total",
			Help: "Thumbnail cache lookups",
		},
		[]string{"result"},
	)

	thumbCacheBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "synthesis_thumb_cache_bytes",
			Help: "Current thumbnail cache size in bytes",
		},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAPIRequest records a gateway request outcome.
// Outcome is one of: success, transport, parsing, business, token_expired, unexpected.
func RecordAPIRequest(method, outcome string, duration time.Duration) {
	apiRequestsTotal.WithLabelValues(method, outcome).Inc()
	apiRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordPageLoad records a page fetch.
func RecordPageLoad(success bool, items int) {
	result := "success"
	if !success {
		result = "error"
	}
	pagesLoadedTotal.WithLabelValues(result).Inc()
	if items > 0 {
		itemsLoadedTotal.Add(float64(items))
	}
}

// RecordStaleResponse records a discarded superseded response.
func RecordStaleResponse() {
	staleResponsesTotal.Inc()
}

// RecordAuthAttempt records a login attempt.
func RecordAuthAttempt(success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	authAttemptsTotal.WithLabelValues(result).Inc()
}

// RecordTokenExpired records a backend token-expiry rejection.
func RecordTokenExpired() {
	tokenExpiredTotal.Inc()
}

// RecordThumbLookup records a thumbnail cache lookup.
func RecordThumbLookup(hit bool) {
	result := "hit"
	if !hit {
		result = "miss"
	}
	thumbCacheHitsTotal.WithLabelValues(result).Inc()
}

// SetThumbCacheBytes sets the current thumbnail cache size.
func SetThumbCacheBytes(size int64) {
	thumbCacheBytes.Set(float64(size))
}
