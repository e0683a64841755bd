// Package bus wraps the NATS connection behind the pipeline's publish and
// subscribe contracts. Payloads are UTF-8 JSON.
package bus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/etrm-io/backoffice/pkg/logger"
)

// Bus implements contracts.Publisher and contracts.Subscriber.
type Bus struct {
	nc  *nats.Conn
	log *logger.Logger
}

// Connect opens a NATS connection.
func Connect(url string, log *logger.Logger) (*Bus, error) {
	nc, err := nats.Connect(url, nats.Name("etrm-backoffice"))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", url, err)
	}

	log.Infof("connected to NATS at %s", url)
	return &Bus{nc: nc, log: log}, nil
}

// Publish marshals v to JSON and publishes it on subject. The flush makes the
// single publish per import call visible before the caller proceeds.
func (b *Bus) Publish(ctx context.Context, subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal message for %s: %w", subject, err)
	}

	if err := b.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}
	if err := b.nc.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flush publish to %s: %w", subject, err)
	}

	b.log.Debugf("published message to %s (%d bytes)", subject, len(data))
	return nil
}

// Subscribe delivers messages on subject to handler. NATS invokes the handler
// sequentially per subscription, so a single normalizer instance processes
// one message at a time.
func (b *Bus) Subscribe(subject string, handler func(data []byte)) error {
	_, err := b.nc.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", subject, err)
	}

	b.log.Infof("subscribed to %s", subject)
	return nil
}

// Close drains the connection, letting in-flight handlers finish.
func (b *Bus) Close() {
	if b.nc != nil {
		if err := b.nc.Drain(); err != nil {
			b.log.WithError(err).Warn("error draining NATS connection")
		}
	}
}
