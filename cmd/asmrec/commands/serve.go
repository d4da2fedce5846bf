package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudwego/eino/callbacks"
	"github.com/spf13/cobra"

	"github.com/hireloop/asmrec-go/internal/embedder"
	"github.com/hireloop/asmrec-go/internal/logging"
	"github.com/hireloop/asmrec-go/internal/provider"
	"github.com/hireloop/asmrec-go/internal/recommend"
	"github.com/hireloop/asmrec-go/internal/refine"
	"github.com/hireloop/asmrec-go/internal/server"
	"github.com/hireloop/asmrec-go/internal/store"
	"github.com/hireloop/asmrec-go/internal/tracing"
)

// NewServeCmd constructs the `asmrec serve` command, which starts the HTTP
// recommendation API server.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the asmrec HTTP recommendation server",
		Long: `Start the asmrec HTTP server on localhost.

The server exposes POST /api/recommend for ranked recommendations (with
optional refinement and explanation), GET /api/history for past requests,
and the usual health, readiness, and metrics endpoints.

Examples:
  asmrec serve
  asmrec serve --port 9090
  MODEL_PROVIDER=openai asmrec serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			log.Info("serve starting", slog.String("provider", os.Getenv("MODEL_PROVIDER")))

			// Setup Langfuse tracing — opt-in, no-op if keys are absent.
			handler, flush, ok := tracing.Setup()
			if ok {
				callbacks.AppendGlobalHandlers(handler)
				defer flush()
				log.Info("langfuse tracing enabled")
			} else {
				log.Info("langfuse tracing disabled", slog.String("reason", "LANGFUSE_PUBLIC_KEY not set"))
			}

			emb, err := embedder.NewFromEnv()
			if err != nil {
				return fmt.Errorf("serve: failed to initialise embedder: %w", err)
			}

			ix, err := openIndex(log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			chatModel, err := provider.NewFromEnv(ctx)
			if err != nil {
				return fmt.Errorf("serve: failed to initialise model provider: %w", err)
			}

			refiner, err := refine.NewRefiner(chatModel)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			explainer, err := refine.NewExplainer(chatModel, 0)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			rec, err := recommend.New(&recommend.Config{
				Embedder:  emb,
				Searcher:  ix,
				Items:     ix.Items(),
				Refiner:   refiner,
				Explainer: explainer,
			})
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			// Open recommendation history store. ASMREC_HISTORY_DB overrides
			// the default path (~/.asmrec/history.db). Set to "disabled" to disable.
			var historyStore store.HistoryStore
			dbPath := os.Getenv("ASMREC_HISTORY_DB")
			if dbPath != "disabled" {
				if dbPath == "" {
					dbPath, err = store.DefaultDBPath()
					if err != nil {
						log.Warn("history: could not resolve default DB path, disabling", slog.Any("error", err))
					}
				}
				if dbPath != "" {
					hs, hsErr := store.Open(dbPath)
					if hsErr != nil {
						log.Warn("history: failed to open store, disabling", slog.Any("error", hsErr))
					} else {
						historyStore = hs
						defer func() { _ = hs.Close() }()
						log.Info("history: store opened", slog.String("path", dbPath))
					}
				}
			} else {
				log.Info("history: disabled via ASMREC_HISTORY_DB=disabled")
			}

			pingers := []server.Pinger{
				server.NewEmbedderPinger(emb),
				server.NewLLMPinger(chatModel, getEnvOrDefault("MODEL_PROVIDER", "gemini")),
			}

			srv, err := server.New(rec, &server.Config{
				Host:    host,
				Port:    port,
				Logger:  log,
				Pingers: pingers,
				APIKey:  os.Getenv("ASMREC_API_KEY"),
				History: historyStore,
			})
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Host address to bind to")
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "TCP port to listen on")

	return cmd
}
