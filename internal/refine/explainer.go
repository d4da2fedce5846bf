package refine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/schema"

	"github.com/hireloop/asmrec-go/internal/budget"
	"github.com/hireloop/asmrec-go/internal/logging"
	"github.com/hireloop/asmrec-go/internal/recommend"
)

// Explainer issues the filter/rank/explain call and returns the model's
// prose verbatim. It implements [recommend.Explainer].
type Explainer struct {
	chat      ChatCompleter
	maxTokens int
}

// NewExplainer constructs an Explainer on the given chat model. maxTokens
// caps the estimated prompt size; pass 0 for the default budget.
func NewExplainer(chat ChatCompleter, maxTokens int) (*Explainer, error) {
	if chat == nil {
		return nil, fmt.Errorf("refine: chat model is required")
	}
	if maxTokens <= 0 {
		maxTokens = budget.DefaultMaxContextTokens
	}
	return &Explainer{chat: chat, maxTokens: maxTokens}, nil
}

// Explain builds one prompt from the raw text, the serialized intent, and
// the ordered hit list (scores included) and returns the model response
// verbatim. No parsing or validation is applied to the output: it is
// terminal user-facing prose. A transport or auth failure surfaces wrapped
// in [recommend.ErrRefinementService]; a low-quality response does not.
func (e *Explainer) Explain(ctx context.Context, rawText string, intent recommend.Intent, hits []recommend.Hit) (string, error) {
	intentJSON, err := json.MarshalIndent(intent, "", "  ")
	if err != nil {
		return "", fmt.Errorf("refine: serialize intent: %w", err)
	}

	used := budget.Estimate(rawText) + budget.Estimate(string(intentJSON))
	hitsJSON, dropped := serializeHits(hits, used, e.maxTokens)
	if dropped > 0 {
		logging.FromContext(ctx).Warn("trimmed hit list to fit prompt budget",
			"dropped", dropped, "kept", len(hits)-dropped)
	}

	msg, err := e.chat.Generate(ctx, []*schema.Message{
		schema.UserMessage(explainPrompt(rawText, string(intentJSON), hitsJSON)),
	})
	if err != nil {
		return "", fmt.Errorf("%w: rerank explanation: %v", recommend.ErrRefinementService, err)
	}
	return msg.Content, nil
}

// serializeHits renders hits as indented JSON, dropping trailing hits while
// the serialized list does not fit the remaining budget after used tokens.
// The nearest hits always survive since trimming removes from the far end of
// the ranking. At least one hit is kept regardless of budget so the model
// always sees the top candidate. Returns the JSON and the number of hits
// dropped.
func serializeHits(hits []recommend.Hit, used, maxTokens int) (string, int) {
	keep := len(hits)
	for keep > 1 {
		b, err := json.MarshalIndent(hits[:keep], "", "  ")
		if err == nil && budget.Fits(used, budget.Estimate(string(b)), maxTokens) {
			break
		}
		keep--
	}
	b, err := json.MarshalIndent(hits[:keep], "", "  ")
	if err != nil {
		return "[]", len(hits)
	}
	return string(b), len(hits) - keep
}
