package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hireloop/asmrec-go/internal/catalog"
	"github.com/hireloop/asmrec-go/internal/recommend"
)

// ---------------------------------------------------------------------------
// Fake recommender for handler tests
// ---------------------------------------------------------------------------

// fakeRecommender implements the recommender interface for tests. It records
// the last query and k it received and returns configurable values.
type fakeRecommender struct {
	hits      []recommend.Hit
	result    *recommend.Result
	err       error
	lastQuery string
	lastK     int
}

func (f *fakeRecommender) Recommend(_ context.Context, query string, k int) ([]recommend.Hit, error) {
	f.lastQuery, f.lastK = query, k
	if f.err != nil {
		return nil, f.err
	}
	return f.hits, nil
}

func (f *fakeRecommender) RecommendRefined(_ context.Context, query string, k int) (*recommend.Result, error) {
	f.lastQuery, f.lastK = query, k
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

// newRecommendTestServer builds a *Server wired with the given recommender
// fake and a fresh isolated metrics registry.
func newRecommendTestServer(rec recommender) *Server {
	return &Server{
		rec:     rec,
		cfg:     &Config{Port: 8080, RequestTimeout: probeTimeout},
		log:     slog.Default(),
		metrics: newServerMetrics(prometheus.NewRegistry()),
	}
}

func sampleHits() []recommend.Hit {
	return []recommend.Hit{
		{
			Item:     catalog.Item{Name: "Financial Accounting", URL: "https://example.com/fin"},
			Distance: 0.0,
			Score:    1.0,
		},
		{
			Item:     catalog.Item{Name: "Numerical Reasoning", URL: "https://example.com/num"},
			Distance: 0.5,
			Score:    0.6667,
		},
	}
}

// ---------------------------------------------------------------------------
// POST /api/recommend — validation error paths
// ---------------------------------------------------------------------------

func TestHandleRecommend_MissingQuery(t *testing.T) {
	t.Parallel()

	s := newRecommendTestServer(&fakeRecommender{})
	req := httptest.NewRequest(http.MethodPost, "/api/recommend",
		strings.NewReader(`{"k":5}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	s.handleRecommend(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestHandleRecommend_InvalidJSON(t *testing.T) {
	t.Parallel()

	s := newRecommendTestServer(&fakeRecommender{})
	req := httptest.NewRequest(http.MethodPost, "/api/recommend",
		strings.NewReader(`not-json`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	s.handleRecommend(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestHandleRecommend_WhitespaceQueryRejectedByPipeline(t *testing.T) {
	t.Parallel()

	s := newRecommendTestServer(&fakeRecommender{err: recommend.ErrEmptyQuery})
	req := httptest.NewRequest(http.MethodPost, "/api/recommend",
		strings.NewReader(`{"query":"   "}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	s.handleRecommend(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

// ---------------------------------------------------------------------------
// POST /api/recommend — happy paths
// ---------------------------------------------------------------------------

func TestHandleRecommend_PlainPath(t *testing.T) {
	t.Parallel()

	rec := &fakeRecommender{hits: sampleHits()}
	s := newRecommendTestServer(rec)

	req := httptest.NewRequest(http.MethodPost, "/api/recommend",
		strings.NewReader(`{"query":"entry-level accounting assessment","k":5}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	s.handleRecommend(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if rec.lastK != 5 {
		t.Errorf("k = %d, want 5", rec.lastK)
	}

	var resp recommendResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Query != "entry-level accounting assessment" {
		t.Errorf("query echo = %q", resp.Query)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(resp.Results))
	}
	if resp.Results[0].Score != 1.0 {
		t.Errorf("first score = %v, want 1.0", resp.Results[0].Score)
	}
	if resp.Explanation != "" || resp.Intent != nil {
		t.Error("plain path must not carry refinement fields")
	}
}

func TestHandleRecommend_RefinedPath(t *testing.T) {
	t.Parallel()

	rec := &fakeRecommender{result: &recommend.Result{
		Query:        "hiring finance graduates",
		RefinedQuery: "Finance Graduate accounting remote testing",
		Intent:       recommend.Intent{JobRole: "Finance Graduate"},
		Hits:         sampleHits(),
		Explanation:  "Both assessments target finance fundamentals.",
	}}
	s := newRecommendTestServer(rec)

	req := httptest.NewRequest(http.MethodPost, "/api/recommend",
		strings.NewReader(`{"query":"hiring finance graduates","k":2,"refine":true}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	s.handleRecommend(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp recommendResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.RefinedQuery != "Finance Graduate accounting remote testing" {
		t.Errorf("refined query = %q", resp.RefinedQuery)
	}
	if resp.Intent == nil || resp.Intent.JobRole != "Finance Graduate" {
		t.Errorf("intent = %+v", resp.Intent)
	}
	if resp.Explanation == "" {
		t.Error("expected explanation on refined path")
	}
}

func TestHandleRecommend_KClampedToMax(t *testing.T) {
	t.Parallel()

	rec := &fakeRecommender{hits: sampleHits()}
	s := newRecommendTestServer(rec)

	req := httptest.NewRequest(http.MethodPost, "/api/recommend",
		strings.NewReader(`{"query":"q","k":500}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	s.handleRecommend(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if rec.lastK != maxK {
		t.Errorf("k = %d, want clamp to %d", rec.lastK, maxK)
	}
}

func TestHandleRecommend_NoHitsReturnsEmptyArray(t *testing.T) {
	t.Parallel()

	s := newRecommendTestServer(&fakeRecommender{})
	req := httptest.NewRequest(http.MethodPost, "/api/recommend",
		strings.NewReader(`{"query":"q"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	s.handleRecommend(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"results":[]`) {
		t.Errorf("expected empty results array, got: %s", w.Body.String())
	}
}

// ---------------------------------------------------------------------------
// POST /api/recommend — upstream failures
// ---------------------------------------------------------------------------

func TestHandleRecommend_EmbeddingServiceDown(t *testing.T) {
	t.Parallel()

	s := newRecommendTestServer(&fakeRecommender{
		err: fmt.Errorf("%w: 503", recommend.ErrEmbeddingService),
	})
	req := httptest.NewRequest(http.MethodPost, "/api/recommend",
		strings.NewReader(`{"query":"q"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	s.handleRecommend(w, req)

	if w.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", w.Code)
	}
}

func TestHandleRecommend_IndexCorruptIs500(t *testing.T) {
	t.Parallel()

	s := newRecommendTestServer(&fakeRecommender{
		err: fmt.Errorf("%w: id 99 out of range", recommend.ErrIndexCorrupt),
	})
	req := httptest.NewRequest(http.MethodPost, "/api/recommend",
		strings.NewReader(`{"query":"q"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	s.handleRecommend(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}

// ---------------------------------------------------------------------------
// Route wiring through New
// ---------------------------------------------------------------------------

func TestNew_RoutesReachHandlers(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	s, err := New(&fakeRecommender{hits: sampleHits()}, &Config{
		Logger:          slog.Default(),
		MetricsRegistry: reg,
		MetricsGatherer: reg,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer s.stopRL()

	routes := []struct {
		method, path, body string
	}{
		{http.MethodGet, "/api/health", ""},
		{http.MethodGet, "/api/ready", ""},
		{http.MethodPost, "/api/recommend", `{"query":"accounting","k":2}`},
		{http.MethodGet, "/metrics", ""},
	}
	for _, rt := range routes {
		var req *http.Request
		if rt.body != "" {
			req = httptest.NewRequest(rt.method, rt.path, strings.NewReader(rt.body))
			req.Header.Set("Content-Type", "application/json")
		} else {
			req = httptest.NewRequest(rt.method, rt.path, nil)
		}
		w := httptest.NewRecorder()

		s.httpServer.Handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("%s %s: got %d, want 200", rt.method, rt.path, w.Code)
		}
	}
}
