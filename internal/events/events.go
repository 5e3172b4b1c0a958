package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

const (
	SubjectTenantRegistered   = "pg.tenant.registered"
	SubjectTenantCheckedOut   = "pg.tenant.checked_out"
	SubjectPaymentSubmitted   = "pg.payment.submitted"
	SubjectPaymentReviewed    = "pg.payment.reviewed"
	SubjectMaintenanceCreated = "pg.maintenance.created"
	SubjectMaintenanceUpdated = "pg.maintenance.updated"
	SubjectRentDue            = "pg.rent.due"
)

// Event is the envelope written to every subject.
type Event struct {
	Subject    string      `json:"subject"`
	OccurredAt time.Time   `json:"occurred_at"`
	Data       interface{} `json:"data"`
}

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}

// NATSPublisher publishes JSON events over a core NATS connection.
type NATSPublisher struct {
	conn   *nats.Conn
	logger *logrus.Logger
}

func NewNATSPublisher(url string, logger *logrus.Logger) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("pg-manager"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.WithError(err).Warn("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.WithField("url", c.ConnectedUrl()).Info("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: conn, logger: logger}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !p.conn.IsConnected() {
		p.logger.WithField("subject", subject).Warn("NATS not connected, skipping event publish")
		return nil
	}

	payload, err := json.Marshal(Event{Subject: subject, OccurredAt: time.Now().UTC(), Data: data})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}

	p.logger.WithField("subject", subject).Debug("Published event")
	return nil
}

// Ping reports whether the connection is currently up.
func (p *NATSPublisher) Ping(context.Context) error {
	if !p.conn.IsConnected() {
		return fmt.Errorf("NATS status %s", p.conn.Status())
	}
	return nil
}

func (p *NATSPublisher) Close() {
	if p.conn != nil {
		_ = p.conn.Drain()
	}
}

// NoopPublisher drops every event. Used when NATS_URL is unset.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, interface{}) error { return nil }
