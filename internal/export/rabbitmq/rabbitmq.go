// Package rabbitmq publishes exported transactions to a topic exchange.
package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/tewans-kitchen/pos/internal/enum"
	"github.com/tewans-kitchen/pos/internal/export"
)

// RoutingKeyPrefix is followed by the payment method.
const RoutingKeyPrefix = "transaction."

// Publisher is the part of *amqp.Channel the exporter needs.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Client owns the connection and channel.
type Client struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// Dial connects and declares a durable topic exchange.
func Dial(url, exchange string) (*Client, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &Client{conn: conn, ch: ch}, nil
}

// Channel returns the publishing channel.
func (c *Client) Channel() *amqp.Channel {
	return c.ch
}

func (c *Client) Close() {
	if c == nil {
		return
	}
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// Exporter publishes one persistent JSON message per transaction.
type Exporter struct {
	pub      Publisher
	exchange string
}

func NewExporter(pub Publisher, exchange string) *Exporter {
	return &Exporter{pub: pub, exchange: exchange}
}

func (e *Exporter) Name() string { return enum.SinkRabbitMQ }

func (e *Exporter) Export(ctx context.Context, p export.Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	err = e.pub.PublishWithContext(ctx, e.exchange, RoutingKey(p.PaymentMethod), false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		MessageId:    p.ID,
		Timestamp:    p.Timestamp.UTC(),
		Type:         enum.EventOrderPaid,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", p.ID, err)
	}
	return nil
}

// RoutingKey is the topic a transaction paid by method is published under.
func RoutingKey(method string) string {
	return RoutingKeyPrefix + method
}
