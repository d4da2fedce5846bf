package refine

import "fmt"

// extractPromptTmpl is the structured-extraction prompt. The model must
// answer with a bare JSON object; anything else is handled by the parse
// fallback in Refine.
const extractPromptTmpl = `You are an NLP system that extracts structured information.

From the following input, extract:
- job_role
- job_level
- skills
- remote_testing_required (Yes/No)
- assessment_preferences (if any)

Return ONLY valid JSON.

Input:
%s
`

// explainPromptTmpl is the filter/rank/explain prompt. The response is
// free-form prose returned to the user verbatim.
const explainPromptTmpl = `User requirement:
%s

Structured understanding:
%s

Retrieved assessments:
%s

Task:
1. Filter out irrelevant assessments
2. Rank the remaining ones by relevance
3. Explain why each assessment matches the requirement

Return response in clear natural language.
`

// extractPrompt renders the structured-extraction prompt for rawText.
func extractPrompt(rawText string) string {
	return fmt.Sprintf(extractPromptTmpl, rawText)
}

// explainPrompt renders the rerank/explain prompt. intentJSON and hitsJSON
// are pre-serialized by the caller so budget trimming happens before
// rendering.
func explainPrompt(rawText, intentJSON, hitsJSON string) string {
	return fmt.Sprintf(explainPromptTmpl, rawText, intentJSON, hitsJSON)
}
