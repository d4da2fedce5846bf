// Package budget provides token budget estimation for prompts sent to the
// refinement models. Because the service supports multiple LLM backends with
// different tokenizers, this package uses a conservative character-based
// heuristic: 1 token ≈ 4 characters (English prose). This deliberately
// under-estimates token counts to leave headroom for model-specific overhead.
package budget

const (
	// charsPerToken is the conservative character-to-token ratio used for
	// estimation. 4 chars/token is standard for English prose; using 3
	// would be more aggressive but risks overflowing context windows.
	charsPerToken = 4

	// DefaultMaxContextTokens is the default input context budget in
	// tokens. Conservative enough to fit within 8k-context models while
	// leaving room for the output. Override via Config where exposed.
	DefaultMaxContextTokens = 6000
)

// Estimate returns a rough token count for s using the character heuristic.
func Estimate(s string) int {
	n := len(s) / charsPerToken
	if n == 0 && len(s) > 0 {
		return 1
	}
	return n
}

// Fits reports whether adding next to a prompt already holding used tokens
// stays within maxTokens.
func Fits(used, next, maxTokens int) bool {
	return used+next <= maxTokens
}
