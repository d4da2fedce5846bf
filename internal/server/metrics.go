// Package server — metrics.go registers all Prometheus metrics for the HTTP
// server and exposes helpers used by handlers and middleware.
package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values for the recommend counters.
const (
	// outcomeOK marks a completed recommendation.
	outcomeOK = "ok"
	// outcomeInvalid marks a request rejected for a client fault.
	outcomeInvalid = "invalid"
	// outcomeError marks a request that failed server-side.
	outcomeError = "error"
)

// serverMetrics holds all Prometheus metrics owned by the HTTP server.
// A single instance is created in New and stored on Server so that tests can
// inject a fresh prometheus.Registry without polluting the default one.
type serverMetrics struct {
	// recommendRequestsTotal counts completed /api/recommend requests,
	// partitioned by outcome: "ok", "invalid", or "error".
	recommendRequestsTotal *prometheus.CounterVec

	// recommendDurationSeconds records the wall-clock duration of each
	// /api/recommend request including external model calls.
	recommendDurationSeconds *prometheus.HistogramVec

	// recommendHits records how many hits each successful request returned.
	recommendHits prometheus.Histogram

	// httpRequestsTotal counts all HTTP requests handled by the mux,
	// partitioned by method, handler name, and status code.
	httpRequestsTotal *prometheus.CounterVec

	// httpDurationSeconds records the latency of all HTTP requests.
	httpDurationSeconds *prometheus.HistogramVec
}

// newServerMetrics registers all server metrics against reg and returns the
// populated serverMetrics. promauto.With(reg) is used so that each call
// registers into the provided registry rather than the global default —
// this keeps unit tests hermetic.
func newServerMetrics(reg prometheus.Registerer) *serverMetrics {
	factory := promauto.With(reg)

	return &serverMetrics{
		recommendRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "asmrec",
			Subsystem: "recommend",
			Name:      "requests_total",
			Help:      "Total number of /api/recommend requests completed, partitioned by outcome.",
		}, []string{"outcome"}),

		recommendDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "asmrec",
			Subsystem: "recommend",
			Name:      "duration_seconds",
			Help:      "Wall-clock duration of /api/recommend requests including external model calls.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"outcome"}),

		recommendHits: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "asmrec",
			Subsystem: "recommend",
			Name:      "hits_returned",
			Help:      "Number of hits returned per successful /api/recommend request.",
			Buckets:   []float64{0, 1, 3, 5, 10, 25, 50},
		}),

		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "asmrec",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled by the server, partitioned by method, handler, and status code.",
		}, []string{"method", "handler", "code"}),

		httpDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "asmrec",
			Subsystem: "http",
			Name:      "duration_seconds",
			Help:      "Latency of HTTP requests handled by the server.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "handler"}),
	}
}

// instrument wraps a handler with per-endpoint request counting and latency
// observation. name is the logical handler label, not the raw URL path.
func (s *Server) instrument(name string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		start := time.Now()
		next.ServeHTTP(rw, r)

		s.metrics.httpRequestsTotal.WithLabelValues(r.Method, name, strconv.Itoa(rw.status)).Inc()
		s.metrics.httpDurationSeconds.WithLabelValues(r.Method, name).Observe(time.Since(start).Seconds())
	})
}
