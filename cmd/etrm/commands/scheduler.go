package commands

import (
	"github.com/spf13/cobra"

	"github.com/etrm-io/backoffice/internal/aggregator"
	"github.com/etrm-io/backoffice/internal/bus"
	"github.com/etrm-io/backoffice/internal/contracts"
	"github.com/etrm-io/backoffice/internal/scheduler"
	"github.com/etrm-io/backoffice/internal/scheduler/jobs"
	"github.com/etrm-io/backoffice/internal/storage"
	"github.com/etrm-io/backoffice/pkg/database"
)

// schedulerCmd runs the cron scheduler with the pipeline's batch jobs.
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the batch job scheduler",
	Long: `Runs the batch job scheduler as a long-lived process.

Currently schedules one job: position aggregation, hourly by default
(AGGREGATION_SCHEDULE). Job failures are logged; there are no retries.`,
	RunE: runScheduler,
}

func init() {
	rootCmd.AddCommand(schedulerCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup("scheduler")
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

	sched := scheduler.New(log)
	if err := sched.AddJob(jobs.NewAggregationJob(agg, cfg.Aggregation.Schedule)); err != nil {
		return err
	}

	startOpsServer(ctx, cfg, db, log)

	sched.Start()
	<-ctx.Done()
	sched.Stop()

	return nil
}
