package importer

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etrm-io/backoffice/internal/contracts"
	"github.com/etrm-io/backoffice/internal/generator"
	"github.com/etrm-io/backoffice/pkg/config"
	"github.com/etrm-io/backoffice/pkg/logger"
)

// fakeClock starts at a fixed instant and advances only when the worker
// sleeps, making the cadence fully deterministic.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func testWorkerConfig() config.ImporterConfig {
	return config.ImporterConfig{
		MinTradeIntervalSeconds: 3600,
		MaxTradeIntervalSeconds: 3600,
		MinTradesPerBatch:       2,
		MaxTradesPerBatch:       2,
		EodPricePublishHour:     16,
	}
}

// newTestWorker wires a worker against in-memory fakes. sleep advances the
// clock and stops the loop after maxIterations.
func newTestWorker(cfg config.ImporterConfig, clock *fakeClock, maxIterations int) (*Worker, *fakePublisher) {
	var calls []string
	store := &fakeStore{calls: &calls}
	pub := &fakePublisher{calls: &calls}

	imp := New(store, pub, "etrm-raw", logger.Discard())
	gen := generator.New(rand.New(rand.NewSource(1)), clock.now)

	w := NewWorker(cfg, gen, imp, rand.New(rand.NewSource(1)), logger.Discard())
	w.now = clock.now

	iterations := 0
	w.sleep = func(ctx context.Context, d time.Duration) error {
		clock.t = clock.t.Add(d)
		iterations++
		if iterations >= maxIterations {
			return context.Canceled
		}
		return nil
	}

	return w, pub
}

func eventsByFileType(pub *fakePublisher, fileType string) []*contracts.RawImportedEvent {
	var out []*contracts.RawImportedEvent
	for _, v := range pub.events {
		if e, ok := v.(*contracts.RawImportedEvent); ok && e.FileType == fileType {
			out = append(out, e)
		}
	}
	return out
}

func TestWorkerRun_TradesEveryIteration(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC)}
	w, pub := newTestWorker(testWorkerConfig(), clock, 5)

	err := w.Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, eventsByFileType(pub, contracts.FileTypeTrades), 5)
}

func TestWorkerRun_EodOncePerDayOver48Hours(t *testing.T) {
	// Hour-long steps across two full days. Hour 16 is hit twice per day on
	// the clock but gated to one publication per UTC calendar day.
	clock := &fakeClock{t: time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)}
	w, pub := newTestWorker(testWorkerConfig(), clock, 48)

	err := w.Run(context.Background())
	require.NoError(t, err)

	eod := eventsByFileType(pub, contracts.FileTypeEodPrices)
	require.Len(t, eod, 2, "one EOD batch per UTC day across 48 hours")

	assert.Equal(t, "2026/03/10", eod[0].ImportedAt.Format("2006/01/02"))
	assert.Equal(t, "2026/03/11", eod[1].ImportedAt.Format("2006/01/02"))
}

func TestWorkerRun_NoEodOutsidePublishHour(t *testing.T) {
	// Ten-minute steps inside a single hour far from the publish hour.
	cfg := testWorkerConfig()
	cfg.MinTradeIntervalSeconds = 600
	cfg.MaxTradeIntervalSeconds = 600

	clock := &fakeClock{t: time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC)}
	w, pub := newTestWorker(cfg, clock, 5)

	err := w.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, eventsByFileType(pub, contracts.FileTypeEodPrices))
}

func TestWorkerRun_CancellationIsGraceful(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC)}
	w, _ := newTestWorker(testWorkerConfig(), clock, 1)

	err := w.Run(context.Background())
	assert.NoError(t, err, "sleep interruption is a graceful stop, not a failure")
}

func TestWorkerRun_ImportErrorSurfaces(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC)}

	var calls []string
	store := &fakeStore{calls: &calls, putErr: errors.New("bucket unavailable")}
	pub := &fakePublisher{calls: &calls}
	imp := New(store, pub, "etrm-raw", logger.Discard())
	gen := generator.New(rand.New(rand.NewSource(1)), clock.now)

	w := NewWorker(testWorkerConfig(), gen, imp, rand.New(rand.NewSource(1)), logger.Discard())
	w.now = clock.now

	err := w.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket unavailable")
}

func TestNextInterval_BusinessHoursCompression(t *testing.T) {
	cfg := config.ImporterConfig{
		MinTradeIntervalSeconds:          100,
		MaxTradeIntervalSeconds:          100,
		UseBusinessHoursPattern:          true,
		BusinessHoursFrequencyMultiplier: 0.5,
	}
	w := &Worker{cfg: cfg, rng: rand.New(rand.NewSource(1)), log: logger.Discard()}

	tests := []struct {
		name string
		at   time.Time
		want time.Duration
	}{
		{"inside business hours", time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC), 50 * time.Second},
		{"start of business hours", time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC), 50 * time.Second},
		{"end of business hours", time.Date(2026, 3, 10, 17, 0, 0, 0, time.UTC), 100 * time.Second},
		{"overnight", time.Date(2026, 3, 10, 22, 0, 0, 0, time.UTC), 100 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.nextInterval(tt.at))
		})
	}
}

func TestNextInterval_NeverBelowOneSecond(t *testing.T) {
	cfg := config.ImporterConfig{
		MinTradeIntervalSeconds:          1,
		MaxTradeIntervalSeconds:          1,
		UseBusinessHoursPattern:          true,
		BusinessHoursFrequencyMultiplier: 0.001,
	}
	w := &Worker{cfg: cfg, rng: rand.New(rand.NewSource(1)), log: logger.Discard()}

	got := w.nextInterval(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Second, got)
}

func TestNextInterval_WithinConfiguredRange(t *testing.T) {
	cfg := config.ImporterConfig{
		MinTradeIntervalSeconds: 30,
		MaxTradeIntervalSeconds: 300,
	}
	w := &Worker{cfg: cfg, rng: rand.New(rand.NewSource(1)), log: logger.Discard()}

	at := time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC)
	for i := 0; i < 200; i++ {
		got := w.nextInterval(at)
		assert.GreaterOrEqual(t, got, 30*time.Second)
		assert.Less(t, got, 300*time.Second)
	}
}
