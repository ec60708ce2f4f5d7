// Package metrics holds the Prometheus collectors of the service and the
// handler that exposes them.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "foodmart"

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	requestsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Number of HTTP requests currently being served.",
	})

	cartMergedItems = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cart",
			Name:      "merged_items_total",
			Help:      "Session cart entries processed when a visitor logs in.",
		},
		[]string{"outcome"}, // "merged" | "skipped"
	)

	searchResults = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "catalog",
		Name:      "search_results",
		Help:      "Number of products returned per catalog search.",
		Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250},
	})

	rateLimitFallbacks = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ratelimit",
		Name:      "fallbacks_total",
		Help:      "Requests limited in process because redis was unavailable.",
	})
)

// Registry is the registry every collector of the service is registered on
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		requestsTotal,
		requestDuration,
		requestsInFlight,
		cartMergedItems,
		searchResults,
		rateLimitFallbacks,
	)
}

// RecordRequest records one finished HTTP request
func RecordRequest(method, route string, statusCode int, duration time.Duration) {
	status := classifyStatus(statusCode)
	requestsTotal.WithLabelValues(method, route, status).Inc()
	requestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// TrackInFlight increments the in-flight gauge and returns its decrement
func TrackInFlight() func() {
	requestsInFlight.Inc()
	return requestsInFlight.Dec
}

// RecordCartMerge counts the entries merged and skipped by one login merge
func RecordCartMerge(merged, skipped int) {
	cartMergedItems.WithLabelValues("merged").Add(float64(merged))
	cartMergedItems.WithLabelValues("skipped").Add(float64(skipped))
}

// ObserveSearch records the size of a search result
func ObserveSearch(results int) {
	searchResults.Observe(float64(results))
}

// RecordRateLimitFallback counts a request checked by the in-process limiter
func RecordRateLimitFallback() {
	rateLimitFallbacks.Inc()
}

// Handler exposes the registry in the Prometheus text and OpenMetrics formats
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func classifyStatus(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "2xx"
	case statusCode >= 300 && statusCode < 400:
		return "3xx"
	case statusCode >= 400 && statusCode < 500:
		return "4xx"
	case statusCode >= 500 && statusCode < 600:
		return "5xx"
	}
	return "unknown"
}
