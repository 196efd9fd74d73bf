package export

import (
	"context"

	"github.com/tewans-kitchen/pos/internal/enum"
	"go.uber.org/zap"
)

// LogExporter writes one structured log line per transaction.
type LogExporter struct {
	logger *zap.Logger
}

func NewLogExporter(logger *zap.Logger) *LogExporter {
	return &LogExporter{logger: logger}
}

func (e *LogExporter) Name() string { return enum.SinkLog }

func (e *LogExporter) Export(_ context.Context, p Payload) error {
	e.logger.Info("transaction exported",
		zap.String("transaction_id", p.ID),
		zap.Int("sequence", p.Sequence),
		zap.Int("table_id", p.TableID),
		zap.Int("items", len(p.Items)),
		zap.String("payment_method", p.PaymentMethod),
		zap.String("total", p.Total),
		zap.String("date", p.Date),
		zap.String("time", p.Time),
	)
	return nil
}
