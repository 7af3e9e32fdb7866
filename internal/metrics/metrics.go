// Package metrics exposes Prometheus collectors for the scraper service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	scrapeRunsTotal            *prometheus.CounterVec
	scrapeRunDurationSeconds   prometheus.Histogram
	scrapePagesTotal           *prometheus.CounterVec
	scrapePostsTotal           *prometheus.CounterVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus collectors. It is safe to call
// multiple times; collectors are registered once. Code paths that emit
// metrics degrade to no-ops until Init has run.
func Init() {
	once.Do(func() {
		scrapeRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_runs_total",
				Help: "Total number of full scrape runs, labeled by terminal status.",
			},
			[]string{"status"},
		)
		scrapeRunDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "scraper_run_duration_seconds",
				Help:    "Histogram of full scrape run durations.",
				Buckets: []float64{1, 5, 15, 60, 300, 900, 1800},
			},
		)
		scrapePagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_pages_fetched_total",
				Help: "Total number of page fetches, labeled by outcome.",
			},
			[]string{"outcome"},
		)
		scrapePostsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_posts_total",
				Help: "Total number of posts processed, labeled by outcome.",
			},
			[]string{"outcome"},
		)
		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of API requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)
		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of API request latencies, labeled by method and route.",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
			},
			[]string{"method", "route"},
		)
	})
}

// RunCompleted records one finished scrape run.
func RunCompleted(status string, duration time.Duration) {
	if scrapeRunsTotal == nil {
		return
	}
	scrapeRunsTotal.WithLabelValues(status).Inc()
	scrapeRunDurationSeconds.Observe(duration.Seconds())
}

// PageFetched records one page fetch outcome.
func PageFetched(outcome string) {
	if scrapePagesTotal == nil {
		return
	}
	scrapePagesTotal.WithLabelValues(outcome).Inc()
}

// PostProcessed records one post upsert outcome.
func PostProcessed(outcome string) {
	if scrapePostsTotal == nil {
		return
	}
	scrapePostsTotal.WithLabelValues(outcome).Inc()
}

// Handler serves the Prometheus exposition endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware instruments API requests with count and latency metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if httpRequestsTotal == nil {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		httpRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
		httpRequestDurationSeconds.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
