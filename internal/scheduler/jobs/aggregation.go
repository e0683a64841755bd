package jobs

import (
	"context"

	"github.com/etrm-io/backoffice/internal/aggregator"
)

// AggregationJob recomputes positions from the recent trade set on a cron
// schedule. The aggregator itself is one-shot; this job is its trigger.
type AggregationJob struct {
	agg      *aggregator.Aggregator
	schedule string
}

// NewAggregationJob creates the position aggregation job.
func NewAggregationJob(agg *aggregator.Aggregator, schedule string) *AggregationJob {
	return &AggregationJob{agg: agg, schedule: schedule}
}

// Name returns the job name.
func (j *AggregationJob) Name() string {
	return "position_aggregation"
}

// Schedule returns the cron schedule (default: top of every hour).
func (j *AggregationJob) Schedule() string {
	return j.schedule
}

// Run executes one aggregation pass.
func (j *AggregationJob) Run(ctx context.Context) error {
	return j.agg.Run(ctx)
}
