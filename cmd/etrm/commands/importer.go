package commands

import (
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/etrm-io/backoffice/internal/bus"
	"github.com/etrm-io/backoffice/internal/generator"
	"github.com/etrm-io/backoffice/internal/importer"
	"github.com/etrm-io/backoffice/internal/objectstore"
)

// importerCmd runs the continuous mock import service.
var importerCmd = &cobra.Command{
	Use:   "importer",
	Short: "Run the synthetic trade/price importer",
	Long: `Runs the mock importer as a continuous service.

Trade batches are generated at random intervals (more frequently during
business hours when enabled) and EOD settlement prices once per UTC day
at the configured publish hour. Each batch is uploaded to the object
store as CSV and announced on the event bus.`,
	RunE: runImporter,
}

func init() {
	rootCmd.AddCommand(importerCmd)
}

func runImporter(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup("importer")
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	store, err := objectstore.New(cfg.S3, log)
	if err != nil {
		return err
	}
	store.EnsureBucket(ctx)

	b, err := bus.Connect(cfg.NATS.URL, log)
	if err != nil {
		return err
	}
	defer b.Close()

	gen := generator.New(rand.New(rand.NewSource(time.Now().UnixNano())), time.Now)
	imp := importer.New(store, b, cfg.S3.Bucket, log)
	worker := importer.NewWorker(cfg.Importer, gen, imp,
		rand.New(rand.NewSource(time.Now().UnixNano())), log)

	startOpsServer(ctx, cfg, nil, log)

	return worker.Run(ctx)
}
