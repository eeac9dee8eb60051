// Package metrics 定义 Prometheus 指标。
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "foodgram_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "foodgram_http_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		},
	)

	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_cache_requests_total",
			Help: "Cache lookups by result (hit, miss)",
		},
		[]string{"result"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "foodgram_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	ReportsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_shopping_cart_reports_total",
			Help: "Shopping cart PDF generations by result",
		},
		[]string{"result"},
	)

	ReportDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "foodgram_shopping_cart_report_duration_seconds",
			Help:    "Time spent aggregating and rendering shopping cart PDFs",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)

	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_login_attempts_total",
			Help: "Login attempts by result (success, failure, rate_limited)",
		},
		[]string{"result"},
	)
)

// RecordHTTPRequest 记录一次请求
func RecordHTTPRequest(method, route, status string, d time.Duration) {
	HTTPRequests.WithLabelValues(method, route, status).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordReport 记录一次购物清单生成
func RecordReport(err error, d time.Duration) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	ReportsGenerated.WithLabelValues(result).Inc()
	ReportDuration.Observe(d.Seconds())
}
