// Package postgres stores exported transactions in two tables,
// pos_transactions and pos_transaction_lines.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tewans-kitchen/pos/internal/enum"
	"github.com/tewans-kitchen/pos/internal/export"
	"github.com/tewans-kitchen/pos/internal/ledger"
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Execer runs a statement without returning rows.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

const insertTransaction = `
INSERT INTO pos_transactions (
    id, sequence, table_id, subtotal, tax, service_charge, discount, total,
    payment_method, created_at, business_date, business_time
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (id) DO NOTHING`

const insertLine = `
INSERT INTO pos_transaction_lines (
    transaction_id, line_no, item_id, name, category, unit_price, quantity, amount
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

// Connect opens a pool and checks that the server answers.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// Exporter writes each payload and its lines in one database transaction.
type Exporter struct {
	pool TxBeginner
}

func NewExporter(pool TxBeginner) *Exporter {
	return &Exporter{pool: pool}
}

func (e *Exporter) Name() string { return enum.SinkPostgres }

// Export inserts the transaction. A transaction id that already exists is
// left as is, so redelivery is safe.
func (e *Exporter) Export(ctx context.Context, p export.Payload) error {
	day, err := time.Parse(ledger.DateLayout, p.Date)
	if err != nil {
		return fmt.Errorf("transaction %s date: %w", p.ID, err)
	}
	amounts, err := numerics(p.Subtotal, p.Tax, p.ServiceCharge, p.Discount, p.Total)
	if err != nil {
		return fmt.Errorf("transaction %s: %w", p.ID, err)
	}

	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, insertTransaction,
		p.ID, p.Sequence, p.TableID,
		amounts[0], amounts[1], amounts[2], amounts[3], amounts[4],
		p.PaymentMethod, p.Timestamp,
		pgtype.Date{Time: day, Valid: true}, p.Time,
	)
	if err != nil {
		return fmt.Errorf("insert transaction %s: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return tx.Commit(ctx)
	}

	for i, item := range p.Items {
		prices, err := numerics(item.UnitPrice, item.Amount)
		if err != nil {
			return fmt.Errorf("item[%d]: %w", i, err)
		}
		_, err = tx.Exec(ctx, insertLine,
			p.ID, i+1, item.ItemID, item.Name, item.Category,
			prices[0], item.Quantity, prices[1],
		)
		if err != nil {
			return fmt.Errorf("insert item[%d]: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func numerics(values ...string) ([]pgtype.Numeric, error) {
	out := make([]pgtype.Numeric, len(values))
	for i, v := range values {
		if err := out[i].Scan(v); err != nil {
			return nil, fmt.Errorf("amount %q: %w", v, err)
		}
	}
	return out, nil
}
