// Package cli implements the noticealert command line.
package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/wcreiley/notice-alert-system/internal/app"
	"github.com/wcreiley/notice-alert-system/internal/config"
	"github.com/wcreiley/notice-alert-system/internal/core/ports/driving"
	"github.com/wcreiley/notice-alert-system/internal/logger"
)

// version is set by Execute from build flags.
var version = "dev"

var (
	cfgFile string
	verbose bool

	// cfg is loaded before any command runs.
	cfg *config.Config
)

// engine is the wired application as seen by commands.
type engine interface {
	Query() driving.QueryService
	Ingest() driving.IngestService
	MetricsHandler() http.Handler
	Sync(ctx context.Context) error
	Run(ctx context.Context) error
	Close() error
}

// openEngine builds the engine from configuration.
var openEngine = func(ctx context.Context, c *config.Config) (engine, error) {
	return app.New(ctx, c)
}

var rootCmd = &cobra.Command{
	Use:   "noticealert",
	Short: "Question answering and change alerts over pipeline notices",
	Long: `noticealert indexes a directory of pipeline notices and answers questions
about them. Questions that ask to be alerted become standing queries: when the
notices change, their answers are recomputed and material changes are posted
to Slack.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", config.DefaultFile, "config file (TOML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute(v string) error {
	if v != "" {
		version = v
	}
	defer logger.Sync()
	rootCmd.SetOut(os.Stdout)
	return rootCmd.Execute()
}

func loadConfig(_ *cobra.Command, _ []string) error {
	c, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := logger.Init(c.Log.Env, c.Log.Level); err != nil {
		return err
	}
	if verbose {
		logger.SetVerbose(true)
	}
	cfg = c
	return nil
}

// startEngine validates the configuration and builds the engine.
func startEngine(ctx context.Context) (engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return openEngine(ctx, cfg)
}

// startSynced builds the engine and indexes the data directory once.
func startSynced(ctx context.Context) (engine, error) {
	eng, err := startEngine(ctx)
	if err != nil {
		return nil, err
	}
	if err := eng.Sync(ctx); err != nil {
		eng.Close() //nolint:errcheck
		return nil, fmt.Errorf("indexing notices: %w", err)
	}
	return eng, nil
}
