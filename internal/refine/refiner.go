// Package refine implements the two chat-model stages of the recommendation
// pipeline: structured query refinement (extract intent fields from free
// text, rebuild a clean retrieval query) and rerank explanation (one model
// call that filters, reorders, and narrates the final ranking).
//
// Both stages run on an Eino ChatModel, so every backend supported by
// [provider.NewFromEnv] works here. The refinement stage is deliberately
// forgiving: a model that emits prose or broken JSON degrades to an empty
// intent instead of failing the request.
package refine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/hireloop/asmrec-go/internal/logging"
	"github.com/hireloop/asmrec-go/internal/recommend"
)

// ChatCompleter is the narrow slice of the Eino ChatModel surface this
// package needs. model.ToolCallingChatModel satisfies it; tests inject a
// deterministic fake.
type ChatCompleter interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// Refiner extracts structured intent from raw query text via one chat-model
// call and deterministically rebuilds a retrieval query from the extracted
// fields. It implements [recommend.Refiner].
type Refiner struct {
	chat ChatCompleter
}

// NewRefiner constructs a Refiner on the given chat model.
func NewRefiner(chat ChatCompleter) (*Refiner, error) {
	if chat == nil {
		return nil, fmt.Errorf("refine: chat model is required")
	}
	return &Refiner{chat: chat}, nil
}

// Refine sends the extraction prompt, parses the response as a bare JSON
// intent object, and rebuilds the retrieval query from the parsed fields.
//
// A malformed model response is not an error: Refine falls back to the
// empty intent and an empty query, and the caller substitutes the original
// raw text. Only transport failures surface, wrapped in
// [recommend.ErrRefinementService].
func (r *Refiner) Refine(ctx context.Context, rawText string) (recommend.Intent, string, error) {
	msg, err := r.chat.Generate(ctx, []*schema.Message{
		schema.UserMessage(extractPrompt(rawText)),
	})
	if err != nil {
		return recommend.Intent{}, "", fmt.Errorf("%w: structured extraction: %v", recommend.ErrRefinementService, err)
	}

	intent, ok := parseIntent(msg.Content)
	if !ok {
		logging.FromContext(ctx).Warn("intent extraction returned non-JSON, degrading to empty intent",
			"response_len", len(msg.Content))
		return recommend.Intent{}, "", nil
	}

	return intent, BuildQuery(intent), nil
}

// BuildQuery deterministically rebuilds a retrieval query from intent
// fields, concatenated in fixed order and separated by single spaces:
// job role, skills joined by ", ", job level, and the literal phrase
// "remote testing" when the requirement is Yes. Preference text is
// intentionally excluded; it informs the explanation stage only.
// All fields absent yields the empty string.
func BuildQuery(in recommend.Intent) string {
	var parts []string
	if in.JobRole != "" {
		parts = append(parts, in.JobRole)
	}
	if len(in.Skills) > 0 {
		parts = append(parts, strings.Join(in.Skills, ", "))
	}
	if in.JobLevel != "" {
		parts = append(parts, in.JobLevel)
	}
	if in.RemoteTesting == recommend.RemoteRequired {
		parts = append(parts, "remote testing")
	}
	return strings.Join(parts, " ")
}

// parseIntent strictly parses a model response into an Intent. It tolerates
// a fenced code block around the JSON (a common model habit) but nothing
// else: leading prose, trailing commentary, or malformed JSON all report
// !ok so the caller can degrade gracefully.
func parseIntent(response string) (recommend.Intent, bool) {
	text := stripCodeFence(strings.TrimSpace(response))

	var raw struct {
		JobRole     string          `json:"job_role"`
		JobLevel    string          `json:"job_level"`
		Skills      json.RawMessage `json:"skills"`
		Remote      string          `json:"remote_testing_required"`
		Preferences string          `json:"assessment_preferences"`
	}
	dec := json.NewDecoder(strings.NewReader(text))
	if err := dec.Decode(&raw); err != nil {
		return recommend.Intent{}, false
	}
	// Trailing non-whitespace after the object means the model wrapped the
	// JSON in prose; treat the whole response as unparseable.
	if dec.More() {
		return recommend.Intent{}, false
	}

	return recommend.Intent{
		JobRole:       strings.TrimSpace(raw.JobRole),
		JobLevel:      strings.TrimSpace(raw.JobLevel),
		Skills:        parseSkills(raw.Skills),
		RemoteTesting: parseRemote(raw.Remote),
		Preferences:   strings.TrimSpace(raw.Preferences),
	}, true
}

// parseSkills accepts either a JSON array of strings or a single string
// (models emit both shapes) and canonicalizes to a slice.
func parseSkills(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		out := list[:0]
		for _, s := range list {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		if single = strings.TrimSpace(single); single != "" {
			return []string{single}
		}
	}
	return nil
}

// parseRemote maps the model's remote_testing_required value onto the
// tri-state requirement. Anything unrecognized is Unspecified.
func parseRemote(s string) recommend.RemoteRequirement {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true":
		return recommend.RemoteRequired
	case "no", "false":
		return recommend.RemoteNotRequired
	default:
		return recommend.RemoteUnspecified
	}
}

// stripCodeFence removes a surrounding Markdown code fence, with or without
// a language tag, returning the inner text. Input without a fence passes
// through unchanged.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	body := strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		// Drop the language tag line ("json", "JSON", or empty).
		body = body[nl+1:]
	}
	body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	return strings.TrimSpace(body)
}
