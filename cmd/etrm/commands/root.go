package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/etrm-io/backoffice/internal/api"
	"github.com/etrm-io/backoffice/pkg/config"
	"github.com/etrm-io/backoffice/pkg/logger"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "etrm",
	Short: "ETRM back-office pipeline",
	Long: `ETRM back-office pipeline CLI.

Three-stage event-driven pipeline: a mock importer generates synthetic
trade and EOD price batches, a normalizer turns raw CSV imports into
typed records, and an aggregator rolls trades up into positions.

Examples:
  go run ./cmd/etrm importer
  go run ./cmd/etrm normalizer
  go run ./cmd/etrm aggregator
  go run ./cmd/etrm scheduler
  go run ./cmd/etrm migrate
  go run ./cmd/etrm status`,
	SilenceUsage: true,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

// setup loads configuration and builds a component-tagged logger.
func setup(component string) (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger.New(cfg).WithComponent(component), nil
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// startOpsServer starts the optional ops HTTP server and ties its lifetime
// to ctx. No-op when OPS_PORT is unset.
func startOpsServer(ctx context.Context, cfg *config.Config, db api.Pinger, log *logger.Logger) {
	if cfg.OpsPort == "" {
		return
	}

	srv := api.New(cfg.OpsPort, db, log)
	go func() {
		if err := srv.Start(); err != nil {
			log.WithError(err).Error("ops server failed")
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}
