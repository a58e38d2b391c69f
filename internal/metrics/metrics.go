// Package metrics exposes the Prometheus collectors shared by the server and
// the worker.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "caisse_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "caisse_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	ledgerEntries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "caisse_ledger_entries_total",
		Help: "Ledger transactions recorded, by type and category",
	}, []string{"type", "category"})

	eventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "caisse_events_published_total",
		Help: "Events published to the broker, by type and result",
	}, []string{"event_type", "result"})

	eventsHandled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "caisse_worker_events_total",
		Help: "Events handled by the worker, by type and result",
	}, []string{"event_type", "result"})

	adviceDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "caisse_advice_duration_seconds",
		Help:    "Duration of advice generation calls",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
	}, []string{"kind", "result"})

	rateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "caisse_rate_limited_requests_total",
		Help: "Requests rejected by the rate limiter",
	})

	suspiciousRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "caisse_suspicious_requests_total",
		Help: "Requests matching a known attack pattern",
	})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, route, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

func ObserveLedgerEntry(txType, category string) {
	ledgerEntries.WithLabelValues(txType, category).Inc()
}

// ObservePublish counts a publish attempt; result is "ok", "error" or "skipped".
func ObservePublish(eventType, result string) {
	eventsPublished.WithLabelValues(eventType, result).Inc()
}

func ObserveWorkerEvent(eventType, result string) {
	eventsHandled.WithLabelValues(eventType, result).Inc()
}

// ObserveAdvice records the duration of an advice or trends call.
func ObserveAdvice(kind, result string, duration time.Duration) {
	adviceDuration.WithLabelValues(kind, result).Observe(duration.Seconds())
}

func IncrementRateLimited() {
	rateLimited.Inc()
}

func IncrementSuspicious() {
	suspiciousRequests.Inc()
}
