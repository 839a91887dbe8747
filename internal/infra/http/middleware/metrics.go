package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	activeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)

	buyerMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "buyer_mutations_total",
			Help: "Total number of committed buyer mutations",
		},
		[]string{"op"},
	)

	csvRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "buyer_import_rows_total",
			Help: "Total number of CSV import rows by outcome",
		},
		[]string{"outcome"},
	)

	rateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "buyer_create_rate_limited_total",
			Help: "Total number of create requests rejected by the rate limiter",
		},
	)

	conflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "buyer_update_conflicts_total",
			Help: "Total number of updates rejected as stale",
		},
	)
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Metrics records request counts and latency labelled by the matched route
// pattern, so /api/buyers/{id} is one series regardless of the id.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		activeConnections.Inc()
		defer activeConnections.Dec()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.statusCode)
		path := routePattern(r)

		httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

func RecordBuyerMutation(op string) {
	buyerMutations.WithLabelValues(op).Inc()
}

func RecordCSVRows(outcome string, n int) {
	if n <= 0 {
		return
	}
	csvRows.WithLabelValues(outcome).Add(float64(n))
}

func RecordRateLimited() {
	rateLimited.Inc()
}

func RecordConflict() {
	conflicts.Inc()
}
