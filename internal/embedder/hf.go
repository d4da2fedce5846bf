// Package embedder provides implementations of the recommend.Embedder
// interface for converting text into dense vector embeddings. Each
// implementation talks to a different backend (HuggingFace Inference,
// OpenAI, Ollama) via plain HTTP — no additional SDK dependencies are
// required. The HuggingFace backend is the default because the catalog
// index is built with a sentence-transformers model served there.
package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// defaultHFBaseURL is the HuggingFace Inference router. The model name and
// pipeline are appended per request.
const defaultHFBaseURL = "https://router.huggingface.co/hf-inference/models"

// HFEmbedder implements recommend.Embedder using the HuggingFace Inference
// feature-extraction pipeline. It is safe for concurrent use.
type HFEmbedder struct {
	// baseURL is the inference router base (no trailing slash).
	baseURL string
	// token is the Bearer API token.
	token string
	// model is the embedding model id (e.g. "sentence-transformers/all-MiniLM-L6-v2").
	model string
	// client is the shared HTTP client with a sensible timeout.
	client *http.Client
}

// HFConfig holds the settings for constructing an HFEmbedder.
type HFConfig struct {
	// BaseURL overrides the inference router base URL. Optional.
	BaseURL string
	// Token is the HuggingFace API token.
	Token string
	// Model is the embedding model id.
	Model string
	// Timeout bounds each embed call. Defaults to 30s if zero.
	Timeout time.Duration
}

// NewHFEmbedder constructs an HFEmbedder from the given config.
func NewHFEmbedder(cfg *HFConfig) *HFEmbedder {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultHFBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HFEmbedder{
		baseURL: baseURL,
		token:   cfg.Token,
		model:   cfg.Model,
		client:  &http.Client{Timeout: timeout},
	}
}

// hfEmbedRequest is the JSON body sent to the feature-extraction pipeline.
type hfEmbedRequest struct {
	Inputs string `json:"inputs"`
}

// Embed converts a batch of texts into their corresponding embeddings.
// The returned slice is parallel to the input slice. The pipeline is called
// once per text, matching how the index artifacts were built.
func (e *HFEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.embedOne(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// embedOne sends one feature-extraction request and unwraps the response.
// The service returns either a flat numeric array or the same array nested
// one level ([[...]]); both forms yield a flat vector.
func (e *HFEmbedder) embedOne(ctx context.Context, text string) ([]float32, error) {
	payload, err := json.Marshal(hfEmbedRequest{Inputs: text})
	if err != nil {
		return nil, fmt.Errorf("hf embedder: marshal request: %w", err)
	}

	url := e.baseURL + "/" + e.model + "/pipeline/feature-extraction"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("hf embedder: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hf embedder: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("hf embedder: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("hf embedder: HTTP %d: %s", resp.StatusCode, truncate(body, 200))
	}

	return unwrapVector(body)
}

// unwrapVector parses a feature-extraction response that is either a flat
// vector or a singly nested one, always returning the flat form. Any other
// shape is a contract violation.
func unwrapVector(body []byte) ([]float32, error) {
	var flat []float32
	if err := json.Unmarshal(body, &flat); err == nil {
		return flat, nil
	}

	var nested [][]float32
	if err := json.Unmarshal(body, &nested); err == nil {
		if len(nested) == 0 {
			return nil, fmt.Errorf("hf embedder: empty nested embedding response")
		}
		return nested[0], nil
	}

	return nil, fmt.Errorf("hf embedder: response is neither a flat nor a singly nested numeric array: %s", truncate(body, 200))
}

// truncate bounds raw response bytes included in error messages.
func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
