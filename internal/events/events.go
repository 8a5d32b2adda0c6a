// Package events publishes deal lifecycle events.
//
// Subject convention: crm.deals.<event_type>
// Event types: created, updated, stage_changed, closed, deleted
//
// Publishing is non-fatal: failures are logged and never propagated, so a
// broker outage never interrupts a deal mutation.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Event types.
const (
	DealCreated      = "created"
	DealUpdated      = "updated"
	DealStageChanged = "stage_changed"
	DealClosed       = "closed"
	DealDeleted      = "deleted"
)

// SubjectPrefix is prepended to the event type to form the NATS subject.
const SubjectPrefix = "crm.deals."

// DealEvent is the JSON payload published for every deal mutation.
type DealEvent struct {
	EventType  string    `json:"event_type"`
	DealID     int64     `json:"deal_id"`
	ActorID    *int64    `json:"actor_id,omitempty"`
	OldStage   string    `json:"old_stage,omitempty"`
	NewStage   string    `json:"new_stage,omitempty"`
	Value      string    `json:"value,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers deal events.
type Publisher interface {
	PublishDealEvent(ctx context.Context, e DealEvent)
}

// Nop discards every event.
type Nop struct{}

// PublishDealEvent does nothing.
func (Nop) PublishDealEvent(context.Context, DealEvent) {}

// Conn is the subset of *nats.Conn used by NATSPublisher.
type Conn interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher publishes deal events to NATS.
type NATSPublisher struct {
	conn Conn
	log  zerolog.Logger
}

// NewNATSPublisher creates a publisher on an existing connection.
func NewNATSPublisher(conn Conn, log zerolog.Logger) *NATSPublisher {
	return &NATSPublisher{conn: conn, log: log}
}

// Connect dials url and returns a publisher plus a function that drains the
// connection.
func Connect(url string, log zerolog.Logger) (*NATSPublisher, func(), error) {
	nc, err := nats.Connect(url,
		nats.Name("crm"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("events: nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info().Str("url", c.ConnectedUrl()).Msg("events: nats reconnected")
		}),
	)
	if err != nil {
		return nil, nil, err
	}
	return NewNATSPublisher(nc, log), func() { _ = nc.Drain() }, nil
}

// PublishDealEvent publishes e on crm.deals.<event_type>.
func (p *NATSPublisher) PublishDealEvent(ctx context.Context, e DealEvent) {
	if p == nil || p.conn == nil {
		return
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}

	data, err := json.Marshal(e)
	if err != nil {
		p.log.Warn().Err(err).Str("event_type", e.EventType).Msg("events: failed to marshal event")
		return
	}

	subject := SubjectPrefix + e.EventType
	if err := p.conn.Publish(subject, data); err != nil {
		p.log.Warn().Err(err).
			Str("subject", subject).
			Int64("deal_id", e.DealID).
			Msg("events: failed to publish NATS event (non-fatal)")
		return
	}

	zerolog.Ctx(ctx).Debug().
		Str("subject", subject).
		Int64("deal_id", e.DealID).
		Msg("events: event published")
}
