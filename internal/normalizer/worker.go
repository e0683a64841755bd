package normalizer

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/etrm-io/backoffice/internal/contracts"
	"github.com/etrm-io/backoffice/pkg/logger"
)

// Worker consumes import announcements and persists normalized records. The
// transport delivers messages sequentially to a single handler. A failed
// message is logged and considered handled; there is no redelivery, matching
// the whole-batch-abort contract: a malformed payload never persists anything
// and never comes back.
type Worker struct {
	store  contracts.ObjectStore
	trades contracts.TradeRepository
	prices contracts.EodPriceRepository
	pub    contracts.Publisher // optional; nil disables persisted-notifications
	log    *logger.Logger

	now func() time.Time
}

// NewWorker creates a normalizer worker.
func NewWorker(
	store contracts.ObjectStore,
	trades contracts.TradeRepository,
	prices contracts.EodPriceRepository,
	pub contracts.Publisher,
	log *logger.Logger,
) *Worker {
	return &Worker{
		store:  store,
		trades: trades,
		prices: prices,
		pub:    pub,
		log:    log,
		now:    time.Now,
	}
}

// Run subscribes to import announcements and blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context, sub contracts.Subscriber) error {
	w.log.Infof("normalizer subscribing to %s", contracts.SubjectRawImported)

	err := sub.Subscribe(contracts.SubjectRawImported, func(data []byte) {
		if err := w.Handle(ctx, data); err != nil {
			w.log.WithError(err).Error("failed to process import event")
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", contracts.SubjectRawImported, err)
	}

	<-ctx.Done()
	w.log.Info("normalizer stopping")
	return nil
}

// Handle processes a single announcement: fetch, verify, parse, persist.
// Any error aborts the batch before a single row is written.
func (w *Worker) Handle(ctx context.Context, data []byte) error {
	var event contracts.RawImportedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("decode import event: %w", err)
	}

	log := w.log.WithFields(map[string]interface{}{
		"importId": event.ImportID,
		"fileType": event.FileType,
	})
	log.Info("processing import event")

	payload, err := w.store.Get(ctx, event.ObjectKey)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", event.ObjectKey, err)
	}

	if event.Checksum != "" {
		sum := sha256.Sum256(payload)
		if got := hex.EncodeToString(sum[:]); got != event.Checksum {
			return fmt.Errorf("checksum mismatch for import %s: announced %s, got %s",
				event.ImportID, event.Checksum, got)
		}
	}

	switch event.FileType {
	case contracts.FileTypeTrades:
		return w.processTrades(ctx, payload, event.ImportID, log)
	case contracts.FileTypeEodPrices:
		return w.processPrices(ctx, payload, event.ImportID, log)
	default:
		log.Warnf("unknown file type: %s", event.FileType)
		return nil
	}
}

func (w *Worker) processTrades(ctx context.Context, payload []byte, importID string, log *logger.Logger) error {
	trades, err := ParseTrades(bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("parse trades: %w", err)
	}

	if err := w.trades.UpsertTrades(ctx, trades); err != nil {
		return fmt.Errorf("persist trades: %w", err)
	}
	log.Infof("processed %d trades", len(trades))

	if w.pub != nil {
		event := contracts.TradesPersistedEvent{
			EventType:   contracts.EventTypeTradesPersisted,
			ImportID:    importID,
			Count:       len(trades),
			PersistedAt: w.now().UTC(),
		}
		if err := w.pub.Publish(ctx, contracts.SubjectTradesPersisted, event); err != nil {
			// The batch is already durable; the notification is best-effort.
			log.WithError(err).Warn("failed to publish trades-persisted event")
		}
	}

	return nil
}

func (w *Worker) processPrices(ctx context.Context, payload []byte, importID string, log *logger.Logger) error {
	prices, err := ParsePrices(bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("parse eod prices: %w", err)
	}

	if err := w.prices.InsertPrices(ctx, prices); err != nil {
		return fmt.Errorf("persist eod prices: %w", err)
	}
	log.Infof("processed %d EOD prices", len(prices))

	return nil
}
