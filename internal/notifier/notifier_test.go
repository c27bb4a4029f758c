package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shield-staffing/shield/backend/internal/domain"
)

type fakePublisher struct {
	key       string
	published []amqp.Publishing
	err       error
}

func (p *fakePublisher) PublishWithContext(_ context.Context, _ string, key string, _ bool, _ bool, msg amqp.Publishing) error {
	if p.err != nil {
		return p.err
	}
	p.key = key
	p.published = append(p.published, msg)
	return nil
}

func TestNotifyPublishesJSONMessage(t *testing.T) {
	pub := &fakePublisher{}
	n := New(pub, 5*time.Second)

	msg := &domain.NotificationMessage{
		RecipientID: 1,
		To:          "dana@venues.example.com",
		Kind:        domain.NotificationKindShiftAssigned,
		Title:       "Shift assigned",
		Body:        "Marcus Reed accepted your shift at The Velvet Room.",
		Payload:     map[string]any{"shiftID": float64(42)},
	}

	err := n.Notify(context.Background(), msg)
	require.NoError(t, err)
	require.Len(t, pub.published, 1)
	assert.Equal(t, Queue, pub.key)
	assert.Equal(t, "application/json", pub.published[0].ContentType)

	var decoded domain.NotificationMessage
	require.NoError(t, json.Unmarshal(pub.published[0].Body, &decoded))
	assert.Equal(t, *msg, decoded)
}

func TestNotifyPropagatesBrokerError(t *testing.T) {
	pub := &fakePublisher{err: errors.New("channel closed")}
	n := New(pub, 5*time.Second)

	err := n.Notify(context.Background(), &domain.NotificationMessage{Kind: domain.NotificationKindOfferReceived})
	assert.Error(t, err)
}
