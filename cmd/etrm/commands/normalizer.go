package commands

import (
	"github.com/spf13/cobra"

	"github.com/etrm-io/backoffice/internal/bus"
	"github.com/etrm-io/backoffice/internal/normalizer"
	"github.com/etrm-io/backoffice/internal/objectstore"
	"github.com/etrm-io/backoffice/internal/storage"
	"github.com/etrm-io/backoffice/pkg/database"
)

// normalizerCmd runs the import-event consumer.
var normalizerCmd = &cobra.Command{
	Use:   "normalizer",
	Short: "Run the raw import normalizer",
	Long: `Consumes import announcements, fetches the referenced CSV payload
from the object store, parses and validates it, and persists typed
records with idempotent upserts. Runs until interrupted.`,
	RunE: runNormalizer,
}

func init() {
	rootCmd.AddCommand(normalizerCmd)
}

func runNormalizer(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup("normalizer")
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

	store, err := objectstore.New(cfg.S3, log)
	if err != nil {
		return err
	}

	b, err := bus.Connect(cfg.NATS.URL, log)
	if err != nil {
		return err
	}
	defer b.Close()

	worker := normalizer.NewWorker(
		store,
		storage.NewTradeRepository(db.Pool),
		storage.NewEodPriceRepository(db.Pool),
		b,
		log,
	)

	startOpsServer(ctx, cfg, db, log)

	return worker.Run(ctx, b)
}
