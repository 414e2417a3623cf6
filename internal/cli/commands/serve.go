package commands

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapchunk/internal/config"
	"github.com/leapstack-labs/leapchunk/internal/server"
	"github.com/leapstack-labs/leapchunk/pkg/chunk"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chunking HTTP service",
		Long: `Start an HTTP service exposing the chunker. POST /chunk chunks a single
script, POST /chunk/batch chunks many, GET /healthz reports liveness.`,
		Example: `  # Serve on the default port
  leapchunk serve

  # Serve on a custom port with a tighter budget
  leapchunk serve --port 9090 --max-tokens 800`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().Int("port", config.DefaultPort, "HTTP listen port")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := config.FromContext(cmd.Context())
	logger := config.LoggerFromContext(cmd.Context())

	dialect, err := chunk.ParseDialect(cfg.Dialect)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(server.Config{
		Port:      cfg.Port,
		Dialect:   dialect,
		MaxTokens: cfg.MaxTokens,
		Workers:   cfg.Workers,
		Logger:    logger,
	})
	return srv.Serve(ctx)
}
