// Package commands defines all Cobra CLI commands for the asmrec binary.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/hireloop/asmrec-go/internal/audit"
	"github.com/hireloop/asmrec-go/internal/config"
	"github.com/hireloop/asmrec-go/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// loadedConfigPath stores the resolved config file path for audit logging.
var loadedConfigPath string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "asmrec",
		Short: "asmrec — assessment recommendations from natural language hiring requirements",
		Long: `asmrec recommends assessments from a product catalog based on natural
language hiring requirements.

A query like "Finance Graduate with accounting skills, remote testing
required" is refined into a structured retrieval query, matched against an
embedded catalog index, and returned as a ranked list with relevance scores
and an optional model-written explanation.

Model provider is selected via the MODEL_PROVIDER environment variable
or a YAML config file (~/.asmrec/config.yaml).
See 'asmrec --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log := logging.New()

			// Load YAML config (env vars always override YAML values).
			path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}
			loadedConfigPath = path

			// Emit structured audit log for every command invocation.
			audit.LogCommandStart(log, cmd.Name(), loadedConfigPath)

			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.asmrec/config.yaml)")

	root.AddCommand(
		NewRecommendCmd(),
		NewSearchCmd(),
		NewServeCmd(),
		NewIndexCmd(),
		NewCrawlCmd(),
		NewEvalCmd(),
		NewVersionCmd(),
	)

	return root
}
