package events_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosscrm/crm/internal/events"
)

type fakeConn struct {
	subjects []string
	payloads [][]byte
	err      error
}

func (c *fakeConn) Publish(subject string, data []byte) error {
	if c.err != nil {
		return c.err
	}
	c.subjects = append(c.subjects, subject)
	c.payloads = append(c.payloads, data)
	return nil
}

var (
	_ events.Publisher = (*events.NATSPublisher)(nil)
	_ events.Publisher = events.Nop{}
)

func TestNATSPublisherPublishesOnDealSubject(t *testing.T) {
	conn := &fakeConn{}
	p := events.NewNATSPublisher(conn, zerolog.Nop())
	actor := int64(3)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	p.PublishDealEvent(context.Background(), events.DealEvent{
		EventType:  events.DealStageChanged,
		DealID:     42,
		ActorID:    &actor,
		OldStage:   "proposal",
		NewStage:   "negotiation",
		OccurredAt: at,
	})

	require.Len(t, conn.subjects, 1)
	assert.Equal(t, "crm.deals.stage_changed", conn.subjects[0])

	var got events.DealEvent
	require.NoError(t, json.Unmarshal(conn.payloads[0], &got))
	assert.Equal(t, int64(42), got.DealID)
	assert.Equal(t, "negotiation", got.NewStage)
	assert.Equal(t, at, got.OccurredAt)
	require.NotNil(t, got.ActorID)
	assert.Equal(t, int64(3), *got.ActorID)
}

func TestNATSPublisherFailureIsNonFatal(t *testing.T) {
	var buf bytes.Buffer
	conn := &fakeConn{err: errors.New("no responders")}
	p := events.NewNATSPublisher(conn, zerolog.New(&buf))

	p.PublishDealEvent(context.Background(), events.DealEvent{EventType: events.DealDeleted, DealID: 1})

	assert.Contains(t, buf.String(), "non-fatal")
	assert.Contains(t, buf.String(), "crm.deals.deleted")
}

func TestNilPublisherIsSafe(t *testing.T) {
	var p *events.NATSPublisher
	p.PublishDealEvent(context.Background(), events.DealEvent{EventType: events.DealCreated})
	events.Nop{}.PublishDealEvent(context.Background(), events.DealEvent{})
}
