package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hireloop/asmrec-go/internal/logging"
)

// NewRecommendCmd constructs the `asmrec recommend` command, which runs the
// full refined pipeline for a single query: intent extraction, retrieval,
// and a model-written explanation of the ranking.
func NewRecommendCmd() *cobra.Command {
	var k int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "recommend [query]",
		Short: "Recommend assessments for a hiring requirement",
		Long: `Recommend assessments from the catalog for a natural language hiring
requirement. The query is refined into a structured retrieval query before
matching, and the ranked results are accompanied by a model-written
explanation.

Examples:
  asmrec recommend "Finance Graduate with accounting skills, remote testing required"
  asmrec recommend -k 10 "entry level Java developer"
  asmrec recommend --json "sales manager, leadership assessments preferred"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			rec, _, err := buildRecommender(ctx, log, true)
			if err != nil {
				return fmt.Errorf("recommend: %w", err)
			}

			query := strings.Join(args, " ")
			result, err := rec.RecommendRefined(ctx, query, k)
			if err != nil {
				return fmt.Errorf("recommend: %w", err)
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			if result.RefinedQuery != "" {
				fmt.Printf("Refined query: %s\n\n", result.RefinedQuery)
			}
			for i, hit := range result.Hits {
				fmt.Printf("%2d. %s  (score %.4f)\n    %s\n", i+1, hit.Item.Name, hit.Score, hit.Item.URL)
			}
			if result.Explanation != "" {
				fmt.Printf("\n%s\n", result.Explanation)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&k, "top", "k", 5, "Number of results to return")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output the full result as JSON")

	return cmd
}
