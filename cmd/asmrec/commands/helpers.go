package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hireloop/asmrec-go/internal/embedder"
	"github.com/hireloop/asmrec-go/internal/index"
	"github.com/hireloop/asmrec-go/internal/provider"
	"github.com/hireloop/asmrec-go/internal/recommend"
	"github.com/hireloop/asmrec-go/internal/refine"
)

// resolveIndexDir returns the index directory: ASMREC_INDEX_DIR if set,
// otherwise ~/.asmrec/index, otherwise ./index.
func resolveIndexDir() string {
	if v := os.Getenv("ASMREC_INDEX_DIR"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "index"
	}
	return filepath.Join(home, ".asmrec", "index")
}

// openIndex loads the vector index and validates the embedder configuration
// against the model the index was built with.
func openIndex(log *slog.Logger) (*index.Index, error) {
	dir := resolveIndexDir()
	ix, err := index.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load index from %s: %w", dir, err)
	}
	if err := embedder.ValidateForIndex(log, ix.Manifest().Model); err != nil {
		return nil, err
	}
	log.Info("index loaded",
		slog.String("dir", dir),
		slog.Int("items", ix.Len()),
		slog.Int("dim", ix.Dim()),
		slog.String("model", ix.Manifest().Model),
	)
	return ix, nil
}

// buildRecommender wires the full retrieval pipeline. When withChat is true,
// a chat model is initialised and the refinement and explanation stages are
// attached; otherwise the recommender only supports plain retrieval.
func buildRecommender(ctx context.Context, log *slog.Logger, withChat bool) (*recommend.Recommender, recommend.Embedder, error) {
	emb, err := embedder.NewFromEnv()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialise embedder: %w", err)
	}

	ix, err := openIndex(log)
	if err != nil {
		return nil, nil, err
	}

	cfg := &recommend.Config{
		Embedder: emb,
		Searcher: ix,
		Items:    ix.Items(),
	}

	if withChat {
		chatModel, err := provider.NewFromEnv(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialise model provider: %w", err)
		}
		refiner, err := refine.NewRefiner(chatModel)
		if err != nil {
			return nil, nil, err
		}
		explainer, err := refine.NewExplainer(chatModel, 0)
		if err != nil {
			return nil, nil, err
		}
		cfg.Refiner = refiner
		cfg.Explainer = explainer
		log.Info("refinement enabled", slog.String("provider", getEnvOrDefault("MODEL_PROVIDER", "gemini")))
	}

	rec, err := recommend.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return rec, emb, nil
}

// getEnvOrDefault returns the env var value or a fallback if unset.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
