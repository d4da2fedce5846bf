package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hireloop/asmrec-go/internal/eval"
	"github.com/hireloop/asmrec-go/internal/logging"
	"github.com/hireloop/asmrec-go/internal/recommend"
)

// NewEvalCmd constructs the `asmrec eval` command, which measures retrieval
// quality against a labelled query set.
func NewEvalCmd() *cobra.Command {
	var labelledPath string
	var k int
	var refined bool

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate retrieval quality against a labelled query set",
		Long: `Run every query from a labelled JSON file through the retrieval pipeline
and report mean precision@k, recall@k, and hit rate@k.

The labelled file is a JSON array of objects with "query" and
"assessment_urls" fields. With --refined, each query goes through the
full refinement pipeline (requires a chat model); otherwise plain
retrieval is used.

Examples:
  asmrec eval --labelled testdata/labelled.json
  asmrec eval --labelled labelled.json -k 10 --refined`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			if labelledPath == "" {
				return fmt.Errorf("eval: --labelled is required")
			}

			labelled, err := eval.LoadLabelled(labelledPath)
			if err != nil {
				return fmt.Errorf("eval: %w", err)
			}

			rec, _, err := buildRecommender(ctx, log, refined)
			if err != nil {
				return fmt.Errorf("eval: %w", err)
			}

			retrieve := func(ctx context.Context, query string, k int) ([]string, error) {
				var hits []recommend.Hit
				if refined {
					result, err := rec.RecommendRefined(ctx, query, k)
					if err != nil {
						return nil, err
					}
					hits = result.Hits
				} else {
					var err error
					hits, err = rec.Recommend(ctx, query, k)
					if err != nil {
						return nil, err
					}
				}
				urls := make([]string, 0, len(hits))
				for _, h := range hits {
					urls = append(urls, h.Item.URL)
				}
				return urls, nil
			}

			metrics, err := eval.Evaluate(ctx, retrieve, labelled, k)
			if err != nil {
				return fmt.Errorf("eval: %w", err)
			}

			fmt.Printf("queries:      %d\n", metrics.Queries)
			fmt.Printf("precision@%d: %.4f\n", metrics.K, metrics.Precision)
			fmt.Printf("recall@%d:    %.4f\n", metrics.K, metrics.Recall)
			fmt.Printf("hit rate@%d:  %.4f\n", metrics.K, metrics.HitRate)
			return nil
		},
	}

	cmd.Flags().StringVar(&labelledPath, "labelled", "", "Path to the labelled query JSON file")
	cmd.Flags().IntVarP(&k, "top", "k", 5, "Cutoff rank for the metrics")
	cmd.Flags().BoolVar(&refined, "refined", false, "Run queries through the full refinement pipeline")

	return cmd
}
