package embedder

import (
	"fmt"
	"log/slog"
	"os"
)

// ValidateForIndex checks that the embedder configuration is consistent with
// a loaded index manifest. It returns an error when the configuration is
// clearly broken (missing credentials) and logs a warning when the
// configured model disagrees with the model the index was built with —
// searching an index with a different embedding model produces meaningless
// distances rather than a crash, so operators must be told at startup.
//
// This is a pre-flight check — call it after loading the index and before
// serving, so misconfiguration surfaces as a clear startup message rather
// than silently wrong rankings.
func ValidateForIndex(log *slog.Logger, indexModel string) error {
	backend := getEnvOrDefault("EMBEDDING_PROVIDER", "hf")

	switch backend {
	case "hf", "huggingface":
		if os.Getenv("EMBEDDING_API_KEY") == "" && os.Getenv("HF_API_TOKEN") == "" {
			return fmt.Errorf("embedder: no HuggingFace token found — set HF_API_TOKEN or EMBEDDING_API_KEY")
		}
	case "openai":
		if os.Getenv("EMBEDDING_API_KEY") == "" && os.Getenv("OPENAI_API_KEY") == "" {
			return fmt.Errorf("embedder: no OpenAI API key found — set OPENAI_API_KEY or EMBEDDING_API_KEY")
		}
	}

	configured := ResolveModel(backend)
	if indexModel != "" && configured != indexModel {
		log.Warn("embedder: configured model differs from the model the index was built with — "+
			"distances will not be comparable",
			slog.String("configured", configured),
			slog.String("index_model", indexModel),
			slog.String("hint", "rebuild the index or set EMBEDDING_MODEL to match"),
		)
	}

	return nil
}

// ResolveModel returns the effective embedding model for the backend,
// honouring EMBEDDING_MODEL.
func ResolveModel(backend string) string {
	if m := os.Getenv("EMBEDDING_MODEL"); m != "" {
		return m
	}
	switch backend {
	case "openai":
		return defaultOpenAIModel
	case "ollama":
		return defaultOllamaModel
	default:
		return defaultHFModel
	}
}
