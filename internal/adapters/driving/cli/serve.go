package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/wcreiley/notice-alert-system/internal/adapters/driving/rest"
	"github.com/wcreiley/notice-alert-system/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the query endpoint and watch notices",
	Long: `Indexes the data directory, watches it for changes and serves queries over HTTP.

Endpoints:
  POST /            answer a query, body {"query": "...", "user": "..."}
  POST /v1/query    same as POST /
  GET  /v1/alerts   list standing queries
  GET  /healthz     liveness and indexing counters
  GET  /metrics     Prometheus metrics`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eng, err := startEngine(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := eng.Close(); err != nil {
			logger.Warn("closing engine: %v", err)
		}
	}()

	server, err := rest.NewServer(eng.Query(),
		rest.WithIngestStatus(eng.Ingest()),
		rest.WithMetricsHandler(eng.MetricsHandler()),
	)
	if err != nil {
		return err
	}

	logger.Section("noticealert " + version)
	fmt.Fprintf(cmd.OutOrStdout(), "Serving queries on http://%s (data: %s)\n", cfg.Addr(), cfg.Index.DataDir)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return eng.Run(ctx)
	})
	g.Go(func() error {
		return server.Run(ctx, cfg.Addr())
	})
	return g.Wait()
}
