// Package server implements the HTTP server that exposes the assessment
// recommendation engine via a REST API.
// The server is started by the `asmrec serve` CLI command.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hireloop/asmrec-go/internal/logging"
	"github.com/hireloop/asmrec-go/internal/recommend"
	"github.com/hireloop/asmrec-go/internal/store"
)

// New constructs a Server from the provided recommender and config.
func New(rec recommender, cfg *Config) (*Server, error) {
	if rec == nil {
		return nil, fmt.Errorf("server: recommender must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		// WriteTimeout must cover the slowest refined request, which waits
		// on two chat-model calls plus the embedding round-trip.
		cfg.WriteTimeout = 2 * time.Minute
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 90 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = defaultRateBurst
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.New()
	}
	if cfg.MetricsRegistry == nil {
		cfg.MetricsRegistry = prometheus.DefaultRegisterer
	}
	if cfg.MetricsGatherer == nil {
		cfg.MetricsGatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		rec:     rec,
		history: cfg.History,
		cfg:     cfg,
		log:     cfg.Logger,
		pingers: cfg.Pingers,
		metrics: newServerMetrics(cfg.MetricsRegistry),
	}

	rl, stopRL := newRateLimiter(cfg.RateLimit, cfg.RateBurst, s.log)
	s.stopRL = stopRL

	if cfg.APIKey == "" {
		s.log.Warn("server: API key not configured — authentication is disabled")
	}

	protected := func(name string, h http.HandlerFunc) http.Handler {
		return authMiddleware(cfg.APIKey, rl.middleware(s.instrument(name, h)))
	}

	mux := http.NewServeMux()
	mux.Handle("POST /api/recommend", protected("recommend", s.handleRecommend))
	mux.Handle("GET /api/history", protected("history", s.handleHistory))
	mux.Handle("GET /api/health", s.instrument("health", http.HandlerFunc(s.handleHealth)))
	mux.Handle("GET /api/ready", s.instrument("ready", http.HandlerFunc(s.handleReady)))
	mux.Handle("GET /metrics", promhttp.HandlerFor(cfg.MetricsGatherer, promhttp.HandlerOpts{}))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      requestLogger(s.log, mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

// Start begins listening and serving HTTP requests. It blocks until the
// context is cancelled, then performs a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.log.Info("server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.stopRL()
		return fmt.Errorf("server: listen error: %w", err)
	case <-ctx.Done():
		s.stopRL()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: graceful shutdown failed: %w", err)
		}
		return nil
	}
}

// handleRecommend handles POST /api/recommend. It validates the query,
// clamps k, runs the plain or refined pipeline, records the outcome in the
// history store, and returns the ranked results as JSON.
func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	start := time.Now()

	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.metrics.recommendRequestsTotal.WithLabelValues(outcomeInvalid).Inc()
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		s.metrics.recommendRequestsTotal.WithLabelValues(outcomeInvalid).Inc()
		http.Error(w, "query is required", http.StatusBadRequest)
		return
	}
	k := req.K
	if k > maxK {
		k = maxK
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	resp := recommendResponse{Query: req.Query}
	var err error
	if req.Refine {
		var res *recommend.Result
		res, err = s.rec.RecommendRefined(ctx, req.Query, k)
		if err == nil {
			resp.RefinedQuery = res.RefinedQuery
			if !res.Intent.IsEmpty() {
				intent := res.Intent
				resp.Intent = &intent
			}
			resp.Results = res.Hits
			resp.Explanation = res.Explanation
		}
	} else {
		resp.Results, err = s.rec.Recommend(ctx, req.Query, k)
	}

	if err != nil {
		s.writeRecommendError(w, r, err)
		return
	}
	if resp.Results == nil {
		resp.Results = []recommend.Hit{}
	}

	s.recordHistory(ctx, req, resp)

	s.metrics.recommendRequestsTotal.WithLabelValues(outcomeOK).Inc()
	s.metrics.recommendDurationSeconds.WithLabelValues(outcomeOK).Observe(time.Since(start).Seconds())
	s.metrics.recommendHits.Observe(float64(len(resp.Results)))

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error("recommend: encode response", "error", err)
	}
}

// writeRecommendError maps pipeline errors onto HTTP statuses: validation
// errors are client faults, upstream service failures are 502 so callers can
// retry, and integrity violations are 500 because retrying cannot help.
func (s *Server) writeRecommendError(w http.ResponseWriter, r *http.Request, err error) {
	log := logging.FromContext(r.Context())

	switch {
	case errors.Is(err, recommend.ErrEmptyQuery):
		s.metrics.recommendRequestsTotal.WithLabelValues(outcomeInvalid).Inc()
		http.Error(w, "query is required", http.StatusBadRequest)
	case errors.Is(err, recommend.ErrEmbeddingService), errors.Is(err, recommend.ErrRefinementService):
		s.metrics.recommendRequestsTotal.WithLabelValues(outcomeError).Inc()
		log.Error("recommend: upstream service failure", "error", err)
		http.Error(w, "upstream service unavailable", http.StatusBadGateway)
	default:
		s.metrics.recommendRequestsTotal.WithLabelValues(outcomeError).Inc()
		log.Error("recommend: request failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// recordHistory appends the served recommendation to the history store.
// Recording is best-effort: a failure is logged and never fails the request.
func (s *Server) recordHistory(ctx context.Context, req recommendRequest, resp recommendResponse) {
	if s.history == nil {
		return
	}
	urls := make([]string, 0, len(resp.Results))
	for _, h := range resp.Results {
		urls = append(urls, h.Item.URL)
	}
	rec := store.Record{
		Query:        req.Query,
		RefinedQuery: resp.RefinedQuery,
		K:            req.K,
		ResultURLs:   urls,
		Refined:      req.Refine,
	}
	if err := s.history.Append(ctx, rec); err != nil {
		logging.FromContext(ctx).Warn("history: append failed", "error", err)
	}
}

// handleHistory handles GET /api/history. The optional n query parameter
// bounds the number of records returned (default 20, max 100).
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	if s.history == nil {
		http.Error(w, "history is not enabled", http.StatusNotFound)
		return
	}

	n := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		n = min(v, 100)
	}

	recs, err := s.history.Recent(r.Context(), n)
	if err != nil {
		log.Error("history: read failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	resp := historyResponse{Records: make([]historyRecord, 0, len(recs))}
	for _, rec := range recs {
		resp.Records = append(resp.Records, historyRecord{
			Query:        rec.Query,
			RefinedQuery: rec.RefinedQuery,
			K:            rec.K,
			ResultURLs:   rec.ResultURLs,
			Refined:      rec.Refined,
			CreatedAt:    rec.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error("history: encode response", "error", err)
	}
}

// handleHealth handles GET /api/health for liveness checks.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
