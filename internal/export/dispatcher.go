package export

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tewans-kitchen/pos/internal/ledger"
	"go.uber.org/zap"
)

const (
	DefaultWorkers      = 2
	DefaultQueueSize    = 256
	DefaultOverflowSize = 16
	DefaultTimeout      = 10 * time.Second
)

// Config sizes a Dispatcher. Zero values use the defaults.
type Config struct {
	Workers   int
	QueueSize int
	// OverflowSize bounds the payloads waiting to be dead-lettered after
	// the queue filled up.
	OverflowSize int
	Timeout      time.Duration
}

// Stats counts deliveries per sink call. Dropped counts payloads that never
// reached the queue; Lost is the subset that was not dead-lettered either.
type Stats struct {
	Delivered uint64
	Failed    uint64
	Dropped   uint64
	Lost      uint64
}

// Dispatcher queues transactions and delivers them to every exporter from a
// pool of workers. Submit never blocks the caller.
type Dispatcher struct {
	exporters []Exporter
	dlq       DeadLetter
	logger    *zap.Logger
	workers   int
	timeout   time.Duration

	queue    chan Payload
	overflow chan Payload
	wg       sync.WaitGroup
	mu     sync.RWMutex
	closed bool
	start  sync.Once

	delivered atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64
	lost      atomic.Uint64
}

// NewDispatcher creates a dispatcher. dlq may be nil, in which case failures
// are only logged.
func NewDispatcher(cfg Config, logger *zap.Logger, dlq DeadLetter, exporters ...Exporter) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.OverflowSize <= 0 {
		cfg.OverflowSize = DefaultOverflowSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		exporters: exporters,
		dlq:       dlq,
		logger:    logger,
		workers:   cfg.Workers,
		timeout:   cfg.Timeout,
		queue:     make(chan Payload, cfg.QueueSize),
		overflow:  make(chan Payload, cfg.OverflowSize),
	}
}

// Hook adapts the dispatcher to the ledger's export hook.
func (d *Dispatcher) Hook() ledger.ExportHook {
	return d.Submit
}

// Sinks returns the names of the configured exporters.
func (d *Dispatcher) Sinks() []string {
	names := make([]string, len(d.exporters))
	for i, e := range d.exporters {
		names[i] = e.Name()
	}
	return names
}

// Start launches the workers. Calling it more than once has no effect.
func (d *Dispatcher) Start() {
	d.start.Do(d.launch)
}

func (d *Dispatcher) launch() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.work()
	}
	d.wg.Add(1)
	go d.drainOverflow()
	d.logger.Info("export dispatcher started",
		zap.Int("workers", d.workers),
		zap.Strings("sinks", d.Sinks()),
	)
}

// Submit enqueues a transaction. When the queue is full the payload is handed
// to a single dead-letter worker instead; if that backlog is full too the
// payload is only logged.
func (d *Dispatcher) Submit(txn ledger.Transaction) {
	p := NewPayload(txn)

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.dropped.Add(1)
		d.logger.Warn("transaction not exported",
			zap.String("transaction_id", p.ID),
			zap.Error(ErrClosed),
		)
		return
	}

	select {
	case d.queue <- p:
		return
	default:
	}

	d.dropped.Add(1)
	select {
	case d.overflow <- p:
		d.logger.Warn("transaction not exported",
			zap.String("transaction_id", p.ID),
			zap.Error(ErrQueueFull),
		)
	default:
		d.lost.Add(1)
		d.logger.Error("transaction lost",
			zap.String("transaction_id", p.ID),
			zap.Int("overflow", cap(d.overflow)),
			zap.Error(ErrQueueFull),
		)
	}
}

// Close stops accepting transactions and waits for queued ones to be
// delivered, or for ctx to end.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	close(d.overflow)
	d.mu.Unlock()

	// Payloads queued before Start still have to be drained.
	d.start.Do(d.launch)

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("export dispatcher stopped",
			zap.Uint64("delivered", d.delivered.Load()),
			zap.Uint64("failed", d.failed.Load()),
			zap.Uint64("dropped", d.dropped.Load()),
			zap.Uint64("lost", d.lost.Load()),
		)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns the delivery counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Delivered: d.delivered.Load(),
		Failed:    d.failed.Load(),
		Dropped:   d.dropped.Load(),
		Lost:      d.lost.Load(),
	}
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for p := range d.queue {
		d.deliver(p)
	}
}

func (d *Dispatcher) drainOverflow() {
	defer d.wg.Done()
	for p := range d.overflow {
		for _, e := range d.exporters {
			d.deadLetter(e.Name(), p, ErrQueueFull)
		}
	}
}

func (d *Dispatcher) deliver(p Payload) {
	for _, e := range d.exporters {
		if err := d.exportOne(e, p); err != nil {
			d.failed.Add(1)
			d.logger.Error("export failed",
				zap.String("sink", e.Name()),
				zap.String("transaction_id", p.ID),
				zap.Error(err),
			)
			d.deadLetter(e.Name(), p, err)
			continue
		}
		d.delivered.Add(1)
	}
}

func (d *Dispatcher) exportOne(e Exporter, p Payload) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrExporterPanic, r)
		}
	}()
	return e.Export(ctx, p)
}

func (d *Dispatcher) deadLetter(sink string, p Payload, cause error) {
	if d.dlq == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	err := d.dlq.Store(ctx, FailedDelivery{
		Sink:     sink,
		Error:    cause.Error(),
		FailedAt: time.Now().UTC(),
		Payload:  p,
	})
	if err != nil {
		d.logger.Error("dead-letter store failed",
			zap.String("sink", sink),
			zap.String("transaction_id", p.ID),
			zap.Error(err),
		)
	}
}
