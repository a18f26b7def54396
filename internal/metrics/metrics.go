// Package metrics exposes Prometheus collectors for the crawler service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Traversal outcomes recorded by ObserveTraversal.
const (
	OutcomeProcessed = "processed"
	OutcomeDepth     = "depth"
	OutcomeDeadline  = "deadline"
	OutcomeIgnored   = "ignored"
	OutcomeVisited   = "visited"
	OutcomeFailed    = "failed"
	OutcomeCanceled  = "canceled"
)

var (
	crawlerTraversalsTotal      *prometheus.CounterVec
	crawlerWordsMergedTotal     prometheus.Counter
	crawlerCrawlsTotal          *prometheus.CounterVec
	crawlerCrawlDurationSeconds prometheus.Histogram
	crawlerProfiledCallSeconds  *prometheus.HistogramVec
	httpRequestsTotal           *prometheus.CounterVec
	httpRequestDurationSeconds  *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		crawlerTraversalsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_traversals_total",
				Help: "Total number of traversal steps, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		crawlerWordsMergedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "crawler_words_merged_total",
				Help: "Total word occurrences merged into crawl aggregates.",
			},
		)

		crawlerCrawlsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_crawls_total",
				Help: "Total number of crawl invocations, labeled by status.",
			},
			[]string{"status"},
		)

		crawlerCrawlDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "crawler_crawl_duration_seconds",
				Help:    "Wall time per crawl invocation.",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
			},
		)

		crawlerProfiledCallSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crawler_profiled_call_seconds",
				Help:    "Histogram of profiled call latencies, labeled by method.",
				Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
			},
			[]string{"method"},
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
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}

// ObserveTraversal counts one traversal step ending with outcome.
func ObserveTraversal(outcome string) {
	Init()
	crawlerTraversalsTotal.WithLabelValues(outcome).Inc()
}

// ObserveWordsMerged adds the occurrences merged from one page.
func ObserveWordsMerged(counts map[string]int) {
	Init()
	total := 0
	for _, n := range counts {
		total += n
	}
	if total > 0 {
		crawlerWordsMergedTotal.Add(float64(total))
	}
}

// ObserveCrawl records a finished crawl invocation.
func ObserveCrawl(status string, duration time.Duration) {
	Init()
	crawlerCrawlsTotal.WithLabelValues(status).Inc()
	crawlerCrawlDurationSeconds.Observe(duration.Seconds())
}

// ObserveProfiledCall records the latency of one profiled method call.
func ObserveProfiledCall(method string, duration time.Duration) {
	Init()
	crawlerProfiledCallSeconds.WithLabelValues(method).Observe(duration.Seconds())
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
