// Package export ships closed transactions to external systems. The ledger
// hands each transaction to a Dispatcher, which delivers it to every
// configured Exporter from background workers. A delivery that fails is
// logged and, when a DeadLetter store is configured, kept there for replay.
package export

import (
	"context"
	"errors"
	"time"
)

// Errors returned by the export pipeline.
var (
	ErrQueueFull        = errors.New("export queue full")
	ErrClosed           = errors.New("dispatcher closed")
	ErrExporterPanic    = errors.New("exporter panicked")
	ErrUnexpectedStatus = errors.New("unexpected response status")
)

// Exporter delivers one payload to one sink.
type Exporter interface {
	Name() string
	Export(ctx context.Context, p Payload) error
}

// FailedDelivery is what a DeadLetter store keeps for a payload that could
// not be delivered to a sink.
type FailedDelivery struct {
	Sink     string    `json:"sink"`
	Error    string    `json:"error"`
	FailedAt time.Time `json:"failed_at"`
	Payload  Payload   `json:"payload"`
}

// DeadLetter stores failed deliveries.
type DeadLetter interface {
	Store(ctx context.Context, f FailedDelivery) error
}
