package embedder

import (
	"fmt"
	"os"
	"strconv"

	"github.com/hireloop/asmrec-go/internal/recommend"
)

// Default embedding models per backend.
const (
	// defaultHFModel is the sentence-transformers model the shipped catalog
	// index was built with. Its output dimension is 384.
	defaultHFModel     = "sentence-transformers/all-MiniLM-L6-v2"
	defaultOpenAIModel = "text-embedding-3-small"
	defaultOllamaModel = "nomic-embed-text"

	// defaultHFDimensions is the output dimension of all-MiniLM-L6-v2.
	defaultHFDimensions = 384
	// defaultOpenAIDimensions is the output dimension of text-embedding-3-small.
	defaultOpenAIDimensions = 1536
	// defaultOllamaDimensions is the output dimension of nomic-embed-text.
	defaultOllamaDimensions = 768
)

// DefaultDimensions returns the default embedding vector size for the given
// backend name. EMBEDDING_DIMENSIONS always takes precedence when set.
// Callers building a fresh index should use this rather than hardcoding.
func DefaultDimensions(backend string) int {
	if v := getEnvInt("EMBEDDING_DIMENSIONS", 0); v > 0 {
		return v
	}
	switch backend {
	case "openai":
		return defaultOpenAIDimensions
	case "ollama":
		return defaultOllamaDimensions
	default:
		return defaultHFDimensions
	}
}

// NewFromEnv constructs a recommend.Embedder from environment variables.
//
// Environment variables:
//
//	EMBEDDING_PROVIDER   = hf | openai | ollama (default: hf)
//	EMBEDDING_MODEL      overrides the default model for the backend
//	EMBEDDING_ENDPOINT   overrides the backend's base URL
//	EMBEDDING_API_KEY    overrides the backend's native key env var
//
//	hf:     HF_API_TOKEN
//	openai: OPENAI_API_KEY
//	ollama: OLLAMA_HOST (default: http://localhost:11434), no key
func NewFromEnv() (recommend.Embedder, error) {
	backend := getEnvOrDefault("EMBEDDING_PROVIDER", "hf")

	switch backend {
	case "hf", "huggingface":
		token := getEnv("EMBEDDING_API_KEY")
		if token == "" {
			token = getEnv("HF_API_TOKEN")
		}
		if token == "" {
			return nil, fmt.Errorf("embedder: hf requires HF_API_TOKEN or EMBEDDING_API_KEY")
		}
		return NewHFEmbedder(&HFConfig{
			BaseURL: getEnv("EMBEDDING_ENDPOINT"),
			Token:   token,
			Model:   getEnvOrDefault("EMBEDDING_MODEL", defaultHFModel),
		}), nil

	case "openai":
		apiKey := getEnv("EMBEDDING_API_KEY")
		if apiKey == "" {
			apiKey = getEnv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("embedder: openai requires OPENAI_API_KEY or EMBEDDING_API_KEY")
		}
		return NewOpenAIEmbedder(&OpenAIConfig{
			BaseURL:    getEnv("EMBEDDING_ENDPOINT"),
			APIKey:     apiKey,
			Model:      getEnvOrDefault("EMBEDDING_MODEL", defaultOpenAIModel),
			Dimensions: getEnvInt("EMBEDDING_DIMENSIONS", 0),
		}), nil

	case "ollama":
		host := getEnv("EMBEDDING_ENDPOINT")
		if host == "" {
			host = getEnvOrDefault("OLLAMA_HOST", "http://localhost:11434")
		}
		return NewOllamaEmbedder(&OllamaConfig{
			Host:  host,
			Model: getEnvOrDefault("EMBEDDING_MODEL", defaultOllamaModel),
		}), nil

	default:
		return nil, fmt.Errorf("embedder: unknown backend %q — valid values: hf, openai, ollama", backend)
	}
}

// getEnv returns the value of the named environment variable, or empty string.
func getEnv(key string) string {
	return os.Getenv(key)
}

// getEnvOrDefault returns the value of the named environment variable, or
// fallback if the variable is unset or empty.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt returns the integer value of the named environment variable, or
// fallback if the variable is unset, empty, or not parseable.
func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
