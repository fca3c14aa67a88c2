package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"eventra/internal/domain"
)

// Config holds NATS connection settings.
type Config struct {
	URL  string
	Name string
}

type conn interface {
	Publish(subj string, data []byte) error
}

// NATSPublisher publishes JSON-encoded domain events on core NATS subjects.
type NATSPublisher struct {
	nc     *nats.Conn
	conn   conn
	prefix string
	logger *slog.Logger
}

// Connect dials NATS with reconnects enabled. Subjects are published under
// "eventra.<subject>".
func Connect(cfg Config, logger *slog.Logger) (*NATSPublisher, error) {
	nc, err := nats.Connect(cfg.URL,
		nats.Name(cfg.Name),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "err", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	logger.Info("connected to NATS", "url", nc.ConnectedUrl())
	p := newPublisher(nc, logger)
	p.nc = nc
	return p, nil
}

func newPublisher(c conn, logger *slog.Logger) *NATSPublisher {
	return &NATSPublisher{conn: c, prefix: "eventra.", logger: logger}
}

var _ domain.EventPublisher = (*NATSPublisher)(nil)

func (p *NATSPublisher) Publish(ctx context.Context, subject string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}
	if err := p.conn.Publish(p.prefix+subject, data); err != nil {
		return fmt.Errorf("failed to publish to subject %s: %w", subject, err)
	}
	p.logger.DebugContext(ctx, "published message", "subject", p.prefix+subject)
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	if p.nc == nil {
		return nil
	}
	return p.nc.Drain()
}
