package recommend

import (
	"context"
	"fmt"
	"strings"

	"github.com/hireloop/asmrec-go/internal/catalog"
)

// DefaultK is the number of hits returned when the caller passes k <= 0.
const DefaultK = 5

// Config holds the dependencies required to construct a Recommender.
type Config struct {
	// Embedder converts query text into a vector. Required.
	Embedder Embedder
	// Searcher performs nearest-neighbor search. Required.
	Searcher Searcher
	// Items is the ordinal-aligned catalog store. Required.
	Items *catalog.Store
	// Refiner extracts structured intent. May be nil — the refined path
	// then degrades to plain retrieval on the raw text.
	Refiner Refiner
	// Explainer narrates the final ranking. May be nil — the refined path
	// then returns hits without an explanation.
	Explainer Explainer
	// DefaultK is the fallback result count. Defaults to DefaultK if zero.
	DefaultK int
}

// Recommender runs the retrieval pipeline. Safe for concurrent use: it holds
// no per-request state and its dependencies are read-only or stateless.
type Recommender struct {
	embedder  Embedder
	searcher  Searcher
	items     *catalog.Store
	refiner   Refiner
	explainer Explainer
	defaultK  int
}

// New constructs a Recommender from the given config.
func New(cfg *Config) (*Recommender, error) {
	if cfg.Embedder == nil {
		return nil, fmt.Errorf("recommend: embedder must not be nil")
	}
	if cfg.Searcher == nil {
		return nil, fmt.Errorf("recommend: searcher must not be nil")
	}
	if cfg.Items == nil {
		return nil, fmt.Errorf("recommend: catalog store must not be nil")
	}
	k := cfg.DefaultK
	if k <= 0 {
		k = DefaultK
	}
	return &Recommender{
		embedder:  cfg.Embedder,
		searcher:  cfg.Searcher,
		items:     cfg.Items,
		refiner:   cfg.Refiner,
		explainer: cfg.Explainer,
		defaultK:  k,
	}, nil
}

// Result is the outcome of one refined recommendation request.
type Result struct {
	// Query is the raw text the caller supplied.
	Query string
	// RefinedQuery is the rebuilt retrieval query, or empty when refinement
	// produced nothing and the raw text was used instead.
	RefinedQuery string
	// Intent is the structured understanding of the query. The zero value
	// when refinement was unavailable or unparseable.
	Intent Intent
	// Hits is the ordered retrieval result list.
	Hits []Hit
	// Explanation is the model's relevance narrative. Empty when no
	// explainer is configured.
	Explanation string
}

// Recommend runs the plain retrieval path: embed the raw query, search the
// index, assemble hits. Empty query text is rejected before any network
// call. k <= 0 selects the default.
func (r *Recommender) Recommend(ctx context.Context, query string, k int) ([]Hit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if k <= 0 {
		k = r.defaultK
	}
	return r.retrieve(ctx, query, k)
}

// RecommendRefined runs the full pipeline in strict order: structured intent
// extraction, query rebuild, embedding, index search, assembly, rerank
// narration. A model response the refiner cannot parse degrades gracefully
// to the plain path; transport and auth failures of any stage are surfaced
// so the caller can decide to retry.
func (r *Recommender) RecommendRefined(ctx context.Context, query string, k int) (*Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if k <= 0 {
		k = r.defaultK
	}
	res := &Result{Query: query}

	retrievalText := query
	if r.refiner != nil {
		// Unparseable model output is reported as a nil-error empty intent
		// by the refiner; an error here means the call itself failed.
		intent, refined, err := r.refiner.Refine(ctx, query)
		if err != nil {
			return nil, err
		}
		res.Intent = intent
		if refined != "" {
			res.RefinedQuery = refined
			retrievalText = refined
		}
	}

	hits, err := r.retrieve(ctx, retrievalText, k)
	if err != nil {
		return nil, err
	}
	res.Hits = hits

	if r.explainer != nil && len(hits) > 0 {
		narrative, err := r.explainer.Explain(ctx, query, res.Intent, hits)
		if err != nil {
			return nil, err
		}
		res.Explanation = narrative
	}

	return res, nil
}

// retrieve embeds text, searches the index, and assembles hits.
func (r *Recommender) retrieve(ctx context.Context, text string, k int) ([]Hit, error) {
	vecs, err := r.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingService, err)
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("%w: embedder returned no vectors", ErrEmbeddingService)
	}
	vec := vecs[0]
	if len(vec) != r.searcher.Dim() {
		return nil, fmt.Errorf("%w: got %d, index expects %d", ErrDimensionMismatch, len(vec), r.searcher.Dim())
	}

	cands, err := r.searcher.Search(vec, k)
	if err != nil {
		return nil, fmt.Errorf("recommend: search: %w", err)
	}
	return Assemble(cands, r.items)
}
