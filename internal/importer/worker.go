package importer

import (
	"context"
	"math/rand"
	"time"

	"github.com/etrm-io/backoffice/internal/contracts"
	"github.com/etrm-io/backoffice/internal/generator"
	"github.com/etrm-io/backoffice/pkg/config"
	"github.com/etrm-io/backoffice/pkg/logger"
)

// Worker is the continuous generation loop. It emits trade batches at random
// intervals and an EOD price batch at most once per UTC calendar day, on the
// first iteration whose hour matches the configured publish hour.
//
// The loop is single-threaded; it blocks only on its own timed delay and on
// the Import call's I/O. Cancellation is observed at both points.
type Worker struct {
	cfg config.ImporterConfig
	gen *generator.Generator
	imp *Importer
	rng *rand.Rand
	log *logger.Logger

	// Injectable for deterministic cadence tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	lastEodDate time.Time
}

// NewWorker creates the generation loop worker.
func NewWorker(cfg config.ImporterConfig, gen *generator.Generator, imp *Importer, rng *rand.Rand, log *logger.Logger) *Worker {
	return &Worker{
		cfg:   cfg,
		gen:   gen,
		imp:   imp,
		rng:   rng,
		log:   log,
		now:   time.Now,
		sleep: sleepCtx,
	}
}

// Run drives the loop until ctx is cancelled (returns nil) or an I/O error
// surfaces (returned to the caller, which terminates the process).
func (w *Worker) Run(ctx context.Context) error {
	w.log.WithFields(map[string]interface{}{
		"intervalSeconds": []int{w.cfg.MinTradeIntervalSeconds, w.cfg.MaxTradeIntervalSeconds},
		"batchSize":       []int{w.cfg.MinTradesPerBatch, w.cfg.MaxTradesPerBatch},
		"eodPublishHour":  w.cfg.EodPricePublishHour,
	}).Info("importer starting as continuous service")

	for {
		now := w.now().UTC()

		if now.Hour() == w.cfg.EodPricePublishHour && !sameUTCDay(w.lastEodDate, now) {
			if err := w.publishEodPrices(ctx, now); err != nil {
				return w.loopErr(ctx, err)
			}
			w.lastEodDate = now
		}

		if err := w.publishTrades(ctx, now); err != nil {
			return w.loopErr(ctx, err)
		}

		interval := w.nextInterval(now)
		w.log.Infof("next trade batch in %s", interval)

		if err := w.sleep(ctx, interval); err != nil {
			w.log.Info("importer stopping gracefully")
			return nil
		}
	}
}

func (w *Worker) publishTrades(ctx context.Context, now time.Time) error {
	batchSize := w.cfg.MinTradesPerBatch + w.rng.Intn(w.cfg.MaxTradesPerBatch-w.cfg.MinTradesPerBatch+1)
	w.log.Infof("generating %d trades", batchSize)

	trades := w.gen.GenerateTrades(batchSize)
	_, err := w.imp.Import(ctx, TradesToCSV(trades), contracts.FileTypeTrades, now)
	return err
}

func (w *Worker) publishEodPrices(ctx context.Context, now time.Time) error {
	w.log.Infof("generating EOD prices for %s", now.Format("2006-01-02"))

	prices := w.gen.GeneratePrices(now)
	_, err := w.imp.Import(ctx, PricesToCSV(prices), contracts.FileTypeEodPrices, now)
	return err
}

// nextInterval draws the delay before the next trade batch: uniform seconds on
// [min, max), compressed by the business-hours multiplier when enabled.
func (w *Worker) nextInterval(now time.Time) time.Duration {
	base := w.cfg.MinTradeIntervalSeconds
	if w.cfg.MaxTradeIntervalSeconds > w.cfg.MinTradeIntervalSeconds {
		base += w.rng.Intn(w.cfg.MaxTradeIntervalSeconds - w.cfg.MinTradeIntervalSeconds)
	}

	if w.cfg.UseBusinessHoursPattern && isBusinessHours(now) {
		base = int(float64(base) * w.cfg.BusinessHoursFrequencyMultiplier)
	}
	if base < 1 {
		base = 1
	}

	return time.Duration(base) * time.Second
}

// loopErr distinguishes cancellation (graceful stop) from real I/O failures.
func (w *Worker) loopErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		w.log.Info("importer stopping gracefully")
		return nil
	}
	return err
}

func isBusinessHours(t time.Time) bool {
	h := t.UTC().Hour()
	return h >= 8 && h < 17
}

func sameUTCDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
