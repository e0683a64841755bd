package commands

import (
	"github.com/spf13/cobra"

	"github.com/etrm-io/backoffice/internal/aggregator"
	"github.com/etrm-io/backoffice/internal/bus"
	"github.com/etrm-io/backoffice/internal/contracts"
	"github.com/etrm-io/backoffice/internal/storage"
	"github.com/etrm-io/backoffice/pkg/database"
)

// aggregatorCmd runs one position aggregation pass and exits.
var aggregatorCmd = &cobra.Command{
	Use:   "aggregator",
	Short: "Run one position aggregation pass",
	Long: `Reads the recent trade set, groups it by the position key and
upserts one position row per group. One-shot: schedule it externally or
use the scheduler command. A failed run is logged and exits cleanly.`,
	RunE: runAggregator,
}

func init() {
	rootCmd.AddCommand(aggregatorCmd)
}

func runAggregator(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup("aggregator")
	if err != nil {
		return err
	}
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	db, err := database.New(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	// The update notification is optional; aggregate even without a bus.
	var pub contracts.Publisher
	if b, err := bus.Connect(cfg.NATS.URL, log); err != nil {
		log.WithError(err).Warn("event bus unavailable, skipping update notifications")
	} else {
		pub = b
		defer b.Close()
	}

	agg := aggregator.New(
		storage.NewTradeRepository(db.Pool),
		storage.NewPositionRepository(db.Pool),
		pub,
		cfg.Aggregation.MaxTrades,
		log,
	)

	if err := agg.Run(ctx); err != nil {
		// One-shot job: done with failure, not a crash.
		log.WithError(err).Error("position aggregation failed")
		return nil
	}

	log.Info("position aggregation completed successfully")
	return nil
}
