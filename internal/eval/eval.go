// Package eval computes offline retrieval quality metrics (precision@k,
// recall@k, hit@k) over a labelled query set. Each labelled query names the
// catalog URLs a human judged relevant; the evaluator runs every query
// through the retrieval pipeline and averages the per-query metrics.
package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// LabelledQuery pairs one evaluation query with its judged-relevant
// catalog item URLs.
type LabelledQuery struct {
	// Query is the raw query text fed to the retriever.
	Query string `json:"query"`
	// RelevantURLs are the URLs a human judged relevant for the query.
	RelevantURLs []string `json:"assessment_urls"`
}

// Metrics holds the averaged evaluation results for one k.
type Metrics struct {
	// K is the cutoff the metrics were computed at.
	K int `json:"k"`
	// Queries is the number of labelled queries evaluated.
	Queries int `json:"queries"`
	// Precision is mean precision@k across queries.
	Precision float64 `json:"precision"`
	// Recall is mean recall@k across queries.
	Recall float64 `json:"recall"`
	// HitRate is the fraction of queries with at least one relevant URL
	// in the top k.
	HitRate float64 `json:"hit_rate"`
}

// Retriever returns the ranked catalog item URLs for a query. The
// recommendation pipeline is adapted to this signature by the caller.
type Retriever func(ctx context.Context, query string, k int) ([]string, error)

// LoadLabelled reads a labelled query set from a JSON file holding an array
// of {query, assessment_urls} objects.
func LoadLabelled(path string) ([]LabelledQuery, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("eval: read %s: %w", path, err)
	}
	var queries []LabelledQuery
	if err := json.Unmarshal(data, &queries); err != nil {
		return nil, fmt.Errorf("eval: parse %s: %w", path, err)
	}
	return queries, nil
}

// Evaluate runs every labelled query through retrieve at cutoff k and
// returns the averaged metrics, rounded to 4 decimal places. A retrieval
// failure aborts the run: partial averages would be misleading.
func Evaluate(ctx context.Context, retrieve Retriever, labelled []LabelledQuery, k int) (Metrics, error) {
	if k < 1 {
		return Metrics{}, fmt.Errorf("eval: k must be >= 1, got %d", k)
	}
	if len(labelled) == 0 {
		return Metrics{}, fmt.Errorf("eval: labelled query set is empty")
	}

	var sumPrecision, sumRecall, sumHit float64
	for _, lq := range labelled {
		retrieved, err := retrieve(ctx, lq.Query, k)
		if err != nil {
			return Metrics{}, fmt.Errorf("eval: query %q: %w", lq.Query, err)
		}
		sumPrecision += PrecisionAtK(retrieved, lq.RelevantURLs, k)
		sumRecall += RecallAtK(retrieved, lq.RelevantURLs, k)
		if HitAtK(retrieved, lq.RelevantURLs, k) {
			sumHit++
		}
	}

	n := float64(len(labelled))
	return Metrics{
		K:         k,
		Queries:   len(labelled),
		Precision: round4(sumPrecision / n),
		Recall:    round4(sumRecall / n),
		HitRate:   round4(sumHit / n),
	}, nil
}

// PrecisionAtK is the fraction of the top-k retrieved URLs that are
// relevant. The denominator is k even when fewer results were retrieved.
func PrecisionAtK(retrieved, relevant []string, k int) float64 {
	if k == 0 {
		return 0
	}
	return float64(hitsInTopK(retrieved, relevant, k)) / float64(k)
}

// RecallAtK is the fraction of relevant URLs found in the top-k retrieved.
// Zero when no URLs are relevant.
func RecallAtK(retrieved, relevant []string, k int) float64 {
	uniq := make(map[string]struct{}, len(relevant))
	for _, u := range relevant {
		uniq[u] = struct{}{}
	}
	if len(uniq) == 0 {
		return 0
	}
	return float64(hitsInTopK(retrieved, relevant, k)) / float64(len(uniq))
}

// HitAtK reports whether any of the top-k retrieved URLs is relevant.
func HitAtK(retrieved, relevant []string, k int) bool {
	return hitsInTopK(retrieved, relevant, k) > 0
}

// hitsInTopK counts retrieved[:k] entries present in relevant.
func hitsInTopK(retrieved, relevant []string, k int) int {
	if k > len(retrieved) {
		k = len(retrieved)
	}
	set := make(map[string]struct{}, len(relevant))
	for _, u := range relevant {
		set[u] = struct{}{}
	}
	hits := 0
	for _, u := range retrieved[:k] {
		if _, ok := set[u]; ok {
			hits++
		}
	}
	return hits
}

// round4 rounds to 4 decimal places, matching the score rounding used in
// the retrieval results themselves.
func round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}
