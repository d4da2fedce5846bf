// Package recommend is the semantic retrieval and refinement core. It
// defines the interfaces for the externally backed capabilities (embedding,
// nearest-neighbor search, query refinement, reranking) and composes them
// into the recommendation pipeline: refine → embed → search → assemble →
// explain. Concrete implementations (HTTP embedders, the flat file index,
// chat-model refiners) satisfy these interfaces so the pipeline and its
// tests never depend on a specific backend.
package recommend

import (
	"context"

	"github.com/hireloop/asmrec-go/internal/catalog"
	"github.com/hireloop/asmrec-go/internal/index"
)

// Embedder converts text into dense vector embeddings.
// Implementations must be safe to call from multiple goroutines.
type Embedder interface {
	// Embed converts a batch of texts into their corresponding embeddings.
	// The returned slice is parallel to the input slice.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Searcher performs nearest-neighbor search over the frozen vector index.
// *index.Index satisfies it; tests inject a fake.
// Implementations must be safe for concurrent use.
type Searcher interface {
	// Search returns the k candidates nearest to vec, ascending by distance.
	Search(vec []float32, k int) ([]index.Candidate, error)
	// Dim returns the index's embedding dimension.
	Dim() int
}

// Refiner extracts structured intent from raw query text and rebuilds a
// cleaner retrieval query. A parse failure of the model output is not an
// error: implementations degrade to the empty intent.
type Refiner interface {
	// Refine returns the structured intent and the rebuilt query string.
	// An empty refined query means "use the raw text instead".
	Refine(ctx context.Context, rawText string) (Intent, string, error)
}

// Explainer filters, reorders, and narrates the final ranking in one
// chat-model call. The returned text is terminal user-facing prose and is
// never parsed downstream.
type Explainer interface {
	// Explain returns the model's free-text relevance narrative verbatim.
	Explain(ctx context.Context, rawText string, intent Intent, hits []Hit) (string, error)
}

// RemoteRequirement is the tri-state remote-testing requirement extracted
// from query text.
type RemoteRequirement string

const (
	// RemoteRequired means the query asked for remote testing.
	RemoteRequired RemoteRequirement = "Yes"
	// RemoteNotRequired means the query explicitly did not.
	RemoteNotRequired RemoteRequirement = "No"
	// RemoteUnspecified means the query did not say.
	RemoteUnspecified RemoteRequirement = "Unknown"
)

// Intent is the structured understanding of one raw query. Produced fresh
// per request and never persisted.
type Intent struct {
	// JobRole is the extracted role, empty when absent.
	JobRole string `json:"job_role,omitempty"`
	// JobLevel is the extracted seniority level, empty when absent.
	JobLevel string `json:"job_level,omitempty"`
	// Skills is the ordered list of extracted skills.
	Skills []string `json:"skills,omitempty"`
	// RemoteTesting is the tri-state remote requirement.
	RemoteTesting RemoteRequirement `json:"remote_testing_required,omitempty"`
	// Preferences is free-form assessment preference text. It informs the
	// explanation stage only and never enters the retrieval query.
	Preferences string `json:"assessment_preferences,omitempty"`
}

// IsEmpty reports whether no field was extracted.
func (in Intent) IsEmpty() bool {
	return in.JobRole == "" && in.JobLevel == "" && len(in.Skills) == 0 &&
		(in.RemoteTesting == "" || in.RemoteTesting == RemoteUnspecified) &&
		in.Preferences == ""
}

// Hit is one retrieval result: a catalog item with its distance and the
// derived relevance score. Never mutated after creation.
type Hit struct {
	// Item is the matched catalog item.
	Item catalog.Item `json:"item"`
	// Distance is the squared L2 distance from the query vector.
	Distance float64 `json:"distance"`
	// Score is round(1/(1+Distance), 4), in (0, 1], strictly decreasing
	// in distance.
	Score float64 `json:"score"`
}
