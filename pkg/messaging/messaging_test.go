package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/plagscan/plagscan-dashboard/pkg/logger"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	exchange string
	key      string
	msg      amqp.Publishing
	err      error
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	f.exchange = exchange
	f.key = key
	f.msg = msg
	return f.err
}

func TestPublish_WrapsDataInEnvelope(t *testing.T) {
	ch := &fakeChannel{}
	p := NewPublisherWithChannel(ch, ExchangeAnalysisEvents, "dashboard-server", logger.Nop())

	ctx := WithCorrelationID(context.Background(), "req-1")
	err := p.Publish(ctx, EventAnalysisCompleted, AnalysisCompletedEvent{SubmissionID: "s-1", OverallScore: 0.42, Band: "Medium"})
	require.NoError(t, err)

	assert.Equal(t, "analysis.events", ch.exchange)
	assert.Equal(t, "analysis.completed", ch.key)
	assert.Equal(t, "application/json", ch.msg.ContentType)
	assert.Equal(t, amqp.Persistent, ch.msg.DeliveryMode)
	assert.Equal(t, "req-1", ch.msg.CorrelationId)

	var event Event
	require.NoError(t, json.Unmarshal(ch.msg.Body, &event))
	assert.Equal(t, EventAnalysisCompleted, event.Type)
	assert.Equal(t, "dashboard-server", event.Source)
	assert.Equal(t, ch.msg.MessageId, event.ID)

	var data AnalysisCompletedEvent
	require.NoError(t, event.UnmarshalData(&data))
	assert.Equal(t, "s-1", data.SubmissionID)
	assert.Equal(t, 0.42, data.OverallScore)
	assert.Equal(t, "Medium", data.Band)
}

func TestPublish_ChannelError(t *testing.T) {
	ch := &fakeChannel{err: errors.New("channel closed")}
	p := NewPublisherWithChannel(ch, ExchangeAnalysisEvents, "dashboard-server", logger.Nop())

	err := p.Publish(context.Background(), EventAnalysisFailed, AnalysisFailedEvent{SubmissionID: "s-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel closed")
}

type fakeAck struct {
	acked    bool
	nacked   bool
	rejected bool
	requeue  bool
}

func (a *fakeAck) Ack(tag uint64, multiple bool) error { a.acked = true; return nil }
func (a *fakeAck) Nack(tag uint64, multiple, requeue bool) error {
	a.nacked = true
	a.requeue = requeue
	return nil
}
func (a *fakeAck) Reject(tag uint64, requeue bool) error {
	a.rejected = true
	a.requeue = requeue
	return nil
}

func delivery(t *testing.T, ack *fakeAck, eventType string) amqp.Delivery {
	t.Helper()
	event, err := NewEvent(eventType, "test", "corr-1", AnalysisFailedEvent{SubmissionID: "s-9", Message: "Error: boom"})
	require.NoError(t, err)
	body, err := json.Marshal(event)
	require.NoError(t, err)
	return amqp.Delivery{Acknowledger: ack, Body: body}
}

func TestHandleMessage(t *testing.T) {
	t.Run("dispatches by type and acks", func(t *testing.T) {
		c := newConsumer(nil, "q", logger.Nop())
		var got AnalysisFailedEvent
		var corr string
		c.RegisterHandler(EventAnalysisFailed, func(ctx context.Context, e *Event) error {
			corr = getCorrelationID(ctx)
			return e.UnmarshalData(&got)
		})

		ack := &fakeAck{}
		c.handleMessage(context.Background(), delivery(t, ack, EventAnalysisFailed))

		assert.True(t, ack.acked)
		assert.Equal(t, "s-9", got.SubmissionID)
		assert.Equal(t, "corr-1", corr)
	})

	t.Run("unknown type is acked", func(t *testing.T) {
		c := newConsumer(nil, "q", logger.Nop())
		ack := &fakeAck{}
		c.handleMessage(context.Background(), delivery(t, ack, "analysis.other"))
		assert.True(t, ack.acked)
	})

	t.Run("handler error is dropped", func(t *testing.T) {
		c := newConsumer(nil, "q", logger.Nop())
		c.RegisterHandler(EventAnalysisFailed, func(ctx context.Context, e *Event) error {
			return errors.New("write failed")
		})
		ack := &fakeAck{}
		c.handleMessage(context.Background(), delivery(t, ack, EventAnalysisFailed))
		assert.True(t, ack.nacked)
		assert.False(t, ack.requeue)
	})

	t.Run("malformed body is rejected", func(t *testing.T) {
		c := newConsumer(nil, "q", logger.Nop())
		ack := &fakeAck{}
		c.handleMessage(context.Background(), amqp.Delivery{Acknowledger: ack, Body: []byte("{")})
		assert.True(t, ack.rejected)
		assert.False(t, ack.requeue)
	})
}
