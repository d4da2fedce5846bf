package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hireloop/asmrec-go/internal/catalog"
	"github.com/hireloop/asmrec-go/internal/embedder"
	"github.com/hireloop/asmrec-go/internal/index"
	"github.com/hireloop/asmrec-go/internal/logging"
)

// embedBatchSize bounds one embedding API call during index builds.
const embedBatchSize = 32

// NewIndexCmd constructs the `asmrec index` command group.
func NewIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage the catalog vector index",
	}
	cmd.AddCommand(newIndexBuildCmd())
	return cmd
}

// newIndexBuildCmd constructs `asmrec index build`, which embeds every
// catalog entry and freezes the result into an index directory.
func newIndexBuildCmd() *cobra.Command {
	var csvPath string
	var outDir string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the vector index from a catalog CSV",
		Long: `Read the catalog CSV, embed every entry, and write the index artifacts
(manifest, vectors, item mapping) to the output directory.

The index records the embedding model it was built with; serve and
recommend warn when the configured model differs.

Examples:
  asmrec index build --csv catalog.csv
  asmrec index build --csv catalog.csv --out ./index
  EMBEDDING_PROVIDER=openai asmrec index build --csv catalog.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			if csvPath == "" {
				csvPath = getEnvOrDefault("ASMREC_CATALOG_CSV", "catalog.csv")
			}
			if outDir == "" {
				outDir = resolveIndexDir()
			}

			items, err := catalog.ReadCSVFile(csvPath)
			if err != nil {
				return fmt.Errorf("index build: %w", err)
			}
			if len(items) == 0 {
				return fmt.Errorf("index build: catalog %s is empty", csvPath)
			}
			log.Info("catalog loaded", slog.String("path", csvPath), slog.Int("items", len(items)))

			if err := embedder.ValidateForIndex(log, ""); err != nil {
				return fmt.Errorf("index build: %w", err)
			}
			emb, err := embedder.NewFromEnv()
			if err != nil {
				return fmt.Errorf("index build: failed to initialise embedder: %w", err)
			}

			vectors := make([][]float32, 0, len(items))
			for start := 0; start < len(items); start += embedBatchSize {
				end := min(start+embedBatchSize, len(items))
				texts := make([]string, 0, end-start)
				for _, it := range items[start:end] {
					texts = append(texts, it.EmbedText())
				}
				batch, err := emb.Embed(ctx, texts)
				if err != nil {
					return fmt.Errorf("index build: embedding batch %d-%d: %w", start, end, err)
				}
				if len(batch) != len(texts) {
					return fmt.Errorf("index build: embedding batch %d-%d: got %d vectors for %d texts", start, end, len(batch), len(texts))
				}
				vectors = append(vectors, batch...)
				log.Info("embedded batch", slog.Int("done", end), slog.Int("total", len(items)))
			}

			backend := getEnvOrDefault("EMBEDDING_PROVIDER", "hf")
			model := embedder.ResolveModel(backend)
			if err := index.Write(outDir, model, items, vectors); err != nil {
				return fmt.Errorf("index build: %w", err)
			}

			log.Info("index written",
				slog.String("dir", outDir),
				slog.Int("items", len(items)),
				slog.Int("dim", len(vectors[0])),
				slog.String("model", model),
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "Catalog CSV path (default: $ASMREC_CATALOG_CSV or ./catalog.csv)")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Output index directory (default: $ASMREC_INDEX_DIR or ~/.asmrec/index)")

	return cmd
}
