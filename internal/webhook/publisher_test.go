package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shenikar/occurrence_tracking_system/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	declared   []string
	published  []amqp.Publishing
	keys       []string
	declareErr error
	publishErr error
}

func (c *fakeChannel) QueueDeclare(name string, durable, _, _, _ bool, _ amqp.Table) (amqp.Queue, error) {
	if c.declareErr != nil {
		return amqp.Queue{}, c.declareErr
	}
	if durable {
		c.declared = append(c.declared, name)
	}
	return amqp.Queue{Name: name}, nil
}

func (c *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	if c.publishErr != nil {
		return c.publishErr
	}
	c.keys = append(c.keys, key)
	c.published = append(c.published, msg)
	return nil
}

func TestAMQPPublisher_Publish(t *testing.T) {
	ch := &fakeChannel{}
	p, err := NewAMQPPublisher(ch, "occurrence.events")
	require.NoError(t, err)
	assert.Equal(t, []string{"occurrence.events"}, ch.declared)

	occ := &models.Occurrence{ID: uuid.New(), Type: models.TypeLeak, Status: models.StatusNew}
	event := NewOccurrenceEvent(EventCreated, occ, uuid.New(), time.Now().UTC())

	require.NoError(t, p.Publish(context.Background(), event))

	require.Len(t, ch.published, 1)
	msg := ch.published[0]
	assert.Equal(t, "occurrence.events", ch.keys[0])
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, string(EventCreated), msg.Type)

	var decoded OccurrenceEvent
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, occ.ID, decoded.OccurrenceID)
	assert.Equal(t, models.StatusNew, decoded.NewStatus)
}

func TestAMQPPublisher_DeclareFails(t *testing.T) {
	_, err := NewAMQPPublisher(&fakeChannel{declareErr: errors.New("channel closed")}, "q")
	assert.Error(t, err)
}

func TestAMQPPublisher_PublishFails(t *testing.T) {
	ch := &fakeChannel{}
	p, err := NewAMQPPublisher(ch, "q")
	require.NoError(t, err)
	ch.publishErr = errors.New("connection lost")

	err = p.Publish(context.Background(), OccurrenceEvent{Kind: EventDeleted})
	assert.ErrorIs(t, err, ch.publishErr)
}

func TestNopPublisher(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	err := NewNopPublisher(logger).Publish(context.Background(), OccurrenceEvent{Kind: EventCreated})
	assert.NoError(t, err)
}
