package recommend

import "errors"

// Failure kinds surfaced by the recommendation core. Callers distinguish
// them with errors.Is to decide between client errors, retryable service
// failures, and fatal integrity violations.
var (
	// ErrEmptyQuery means the caller supplied empty or missing query text.
	// Rejected before any downstream call is made.
	ErrEmptyQuery = errors.New("recommend: query must not be empty")

	// ErrEmbeddingService means the embedding service call failed at the
	// transport level, timed out, or returned a non-success status.
	ErrEmbeddingService = errors.New("recommend: embedding service failure")

	// ErrRefinementService means a chat-model call failed at the transport
	// or auth level. A low-quality model response is NOT this error.
	ErrRefinementService = errors.New("recommend: refinement service failure")

	// ErrDimensionMismatch means the embedding service returned a vector
	// whose length disagrees with the index dimension. Proceeding would
	// silently return wrong results, so it is fatal for the request.
	ErrDimensionMismatch = errors.New("recommend: embedding dimension mismatch")

	// ErrIndexCorrupt means the vector index produced an ordinal id the
	// catalog cannot resolve — the two artifacts are out of sync. Never
	// masked.
	ErrIndexCorrupt = errors.New("recommend: vector index and catalog are out of sync")
)
