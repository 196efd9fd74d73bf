package rabbitmq_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tewans-kitchen/pos/internal/export"
	"github.com/tewans-kitchen/pos/internal/export/rabbitmq"
)

type publishCall struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type mockPublisher struct {
	calls []publishCall
	err   error
}

func (m *mockPublisher) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	m.calls = append(m.calls, publishCall{exchange: exchange, key: key, msg: msg})
	return m.err
}

func TestExporter_Publishes(t *testing.T) {
	pub := &mockPublisher{}
	e := rabbitmq.NewExporter(pub, "pos.transactions")

	p := export.Payload{
		ID:            "txn-1",
		TableID:       5,
		Total:         "58.50",
		PaymentMethod: "qr",
		Timestamp:     time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, e.Export(context.Background(), p))

	require.Len(t, pub.calls, 1)
	call := pub.calls[0]
	assert.Equal(t, "pos.transactions", call.exchange)
	assert.Equal(t, "transaction.qr", call.key)
	assert.Equal(t, amqp.Persistent, call.msg.DeliveryMode)
	assert.Equal(t, "application/json", call.msg.ContentType)
	assert.Equal(t, "txn-1", call.msg.MessageId)

	var got export.Payload
	require.NoError(t, json.Unmarshal(call.msg.Body, &got))
	assert.Equal(t, "58.50", got.Total)
	assert.Equal(t, 5, got.TableID)
}

func TestExporter_PublishError(t *testing.T) {
	pub := &mockPublisher{err: errors.New("channel closed")}
	e := rabbitmq.NewExporter(pub, "x")

	err := e.Export(context.Background(), export.Payload{ID: "txn-2", PaymentMethod: "cash"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "txn-2")
	assert.Equal(t, "rabbitmq", e.Name())
}
