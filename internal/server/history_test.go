package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hireloop/asmrec-go/internal/store"
)

// newHistoryTestServer builds a *Server with an in-memory history store.
func newHistoryTestServer(t *testing.T) *Server {
	t.Helper()
	hs, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open history store: %v", err)
	}
	t.Cleanup(func() { _ = hs.Close() })
	return &Server{
		rec:     &fakeRecommender{hits: sampleHits()},
		history: hs,
		cfg:     &Config{Port: 8080, RequestTimeout: probeTimeout},
		log:     slog.Default(),
		metrics: newServerMetrics(prometheus.NewRegistry()),
	}
}

func TestHandleHistory_DisabledReturns404(t *testing.T) {
	t.Parallel()

	s := newRecommendTestServer(&fakeRecommender{})
	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	w := httptest.NewRecorder()

	s.handleHistory(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 when history disabled, got %d", w.Code)
	}
}

func TestHandleHistory_RecordsServedRecommendations(t *testing.T) {
	t.Parallel()

	s := newHistoryTestServer(t)

	// Serve one recommendation so the history has a record.
	req := httptest.NewRequest(http.MethodPost, "/api/recommend",
		strings.NewReader(`{"query":"accounting assessment","k":2}`))
	req.Header.Set("Content-Type", "application/json")
	s.handleRecommend(httptest.NewRecorder(), req)

	hreq := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	w := httptest.NewRecorder()
	s.handleHistory(w, hreq)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp historyResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Records) != 1 {
		t.Fatalf("records = %d, want 1", len(resp.Records))
	}
	rec := resp.Records[0]
	if rec.Query != "accounting assessment" || rec.K != 2 {
		t.Errorf("record = %+v", rec)
	}
	if len(rec.ResultURLs) != 2 || rec.ResultURLs[0] != "https://example.com/fin" {
		t.Errorf("result urls = %v", rec.ResultURLs)
	}
	if rec.CreatedAt == "" {
		t.Error("created_at missing")
	}
}

func TestHandleHistory_InvalidLimitRejected(t *testing.T) {
	t.Parallel()

	s := newHistoryTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/history?limit=zero", nil)
	w := httptest.NewRecorder()

	s.handleHistory(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for non-numeric limit, got %d", w.Code)
	}
}

func TestHandleHistory_EmptyHistoryReturnsEmptyArray(t *testing.T) {
	t.Parallel()

	s := newHistoryTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	w := httptest.NewRecorder()

	s.handleHistory(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"records":[]`) {
		t.Errorf("expected empty records array, got: %s", w.Body.String())
	}
}
