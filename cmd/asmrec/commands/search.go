package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hireloop/asmrec-go/internal/logging"
)

// NewSearchCmd constructs the `asmrec search` command, which runs plain
// vector retrieval against the raw query text without refinement or
// explanation. No chat model is required.
func NewSearchCmd() *cobra.Command {
	var k int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the catalog index without query refinement",
		Long: `Embed the raw query text and return the nearest catalog entries.

This is the plain retrieval path: no chat model is contacted, so it works
with only an embedding provider configured.

Examples:
  asmrec search "cognitive ability test"
  asmrec search -k 10 "numerical reasoning"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			rec, _, err := buildRecommender(ctx, log, false)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}

			query := strings.Join(args, " ")
			hits, err := rec.Recommend(ctx, query, k)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(hits)
			}

			for i, hit := range hits {
				fmt.Printf("%2d. %s  (score %.4f)\n    %s\n", i+1, hit.Item.Name, hit.Score, hit.Item.URL)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&k, "top", "k", 5, "Number of results to return")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output results as JSON")

	return cmd
}
