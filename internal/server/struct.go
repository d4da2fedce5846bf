package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hireloop/asmrec-go/internal/recommend"
	"github.com/hireloop/asmrec-go/internal/store"
)

// maxK caps the per-request result count so a single request cannot ask the
// index for an unbounded ranking.
const maxK = 50

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8080).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// RequestTimeout bounds one recommendation request end to end,
	// including the embedding and chat-model round-trips.
	RequestTimeout time.Duration
	// Logger is the structured logger used by the server and its handlers.
	// If nil, [logging.New] is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /api/ready.
	// If empty, /api/ready returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP on rate-limited
	// endpoints (requests/second). Defaults to 10 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
	// APIKey is the Bearer token required on all protected /api/* routes.
	// If empty, authentication is disabled (development mode).
	APIKey string
	// History is the recommendation history store backing GET /api/history.
	// If nil, history recording is disabled and the endpoint returns 404.
	History store.HistoryStore
	// MetricsRegistry receives the server's Prometheus metrics. Defaults to
	// prometheus.DefaultRegisterer.
	MetricsRegistry prometheus.Registerer
	// MetricsGatherer backs GET /metrics. Defaults to prometheus.DefaultGatherer.
	MetricsGatherer prometheus.Gatherer
}

// recommender is the interface handleRecommend calls to run the pipeline.
// *recommend.Recommender satisfies it; tests inject a fake.
type recommender interface {
	// Recommend runs plain retrieval on the raw query.
	Recommend(ctx context.Context, query string, k int) ([]recommend.Hit, error)
	// RecommendRefined runs the full refine/retrieve/explain pipeline.
	RecommendRefined(ctx context.Context, query string, k int) (*recommend.Result, error)
}

// Server is the HTTP server that exposes the recommendation engine.
type Server struct {
	// rec is the recommendation pipeline behind POST /api/recommend.
	rec recommender
	// history is the recommendation history store; nil disables recording.
	history store.HistoryStore
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// pingers is the ordered list of dependency probes for GET /api/ready.
	pingers []Pinger
	// metrics holds the Prometheus instruments owned by this server.
	metrics *serverMetrics
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
}

// recommendRequest is the JSON body for POST /api/recommend.
type recommendRequest struct {
	// Query is the raw natural-language requirement.
	Query string `json:"query"`
	// K is the requested result count. Zero selects the default; values
	// above maxK are clamped.
	K int `json:"k"`
	// Refine enables the chat-model refine/rerank pipeline.
	Refine bool `json:"refine"`
}

// recommendResponse is the JSON response for POST /api/recommend.
type recommendResponse struct {
	// Query echoes the raw query.
	Query string `json:"query"`
	// RefinedQuery is the rebuilt retrieval query, omitted when refinement
	// was skipped or produced nothing.
	RefinedQuery string `json:"refined_query,omitempty"`
	// Intent is the structured understanding, omitted on the plain path.
	Intent *recommend.Intent `json:"intent,omitempty"`
	// Results is the ordered hit list.
	Results []recommend.Hit `json:"results"`
	// Explanation is the model's relevance narrative, omitted on the plain path.
	Explanation string `json:"explanation,omitempty"`
}

// historyResponse is the JSON response for GET /api/history.
type historyResponse struct {
	// Records are the most recent recommendations, newest-first.
	Records []historyRecord `json:"records"`
}

// historyRecord is one recommendation in the history response.
type historyRecord struct {
	Query        string   `json:"query"`
	RefinedQuery string   `json:"refined_query,omitempty"`
	K            int      `json:"k"`
	ResultURLs   []string `json:"result_urls"`
	Refined      bool     `json:"refined"`
	CreatedAt    string   `json:"created_at"`
}
