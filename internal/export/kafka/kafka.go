// Package kafka produces exported transactions to a topic, keyed by
// transaction id.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tewans-kitchen/pos/internal/enum"
	"github.com/tewans-kitchen/pos/internal/export"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kprom"
)

// Producer is the part of *kgo.Client the exporter needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

type ProducerConfig struct {
	Brokers  []string
	Topic    string
	ClientID string
}

// NewClient creates a producer client. Hooks from metrics, when non-nil,
// record broker and produce statistics.
func NewClient(conf *ProducerConfig, metrics *kprom.Metrics) (*kgo.Client, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(conf.Brokers...),
		kgo.DefaultProduceTopic(conf.Topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	}
	if conf.ClientID != "" {
		opts = append(opts, kgo.ClientID(conf.ClientID))
	}
	if metrics != nil {
		opts = append(opts, kgo.WithHooks(metrics))
	}
	return kgo.NewClient(opts...)
}

// Exporter produces one record per transaction.
type Exporter struct {
	producer Producer
	topic    string
}

func NewExporter(producer Producer, topic string) *Exporter {
	return &Exporter{producer: producer, topic: topic}
}

func (e *Exporter) Name() string { return enum.SinkKafka }

func (e *Exporter) Export(ctx context.Context, p export.Payload) error {
	value, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	record := &kgo.Record{
		Topic: e.topic,
		Key:   []byte(p.ID),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "event", Value: []byte(enum.EventOrderPaid)},
			{Key: "payment_method", Value: []byte(p.PaymentMethod)},
		},
	}
	if err := e.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce %s: %w", p.ID, err)
	}
	return nil
}
