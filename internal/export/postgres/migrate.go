package postgres

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS pos_transactions (
    id             UUID PRIMARY KEY,
    sequence       INTEGER        NOT NULL,
    table_id       INTEGER        NOT NULL,
    subtotal       NUMERIC(12, 2) NOT NULL,
    tax            NUMERIC(12, 2) NOT NULL,
    service_charge NUMERIC(12, 2) NOT NULL,
    discount       NUMERIC(12, 2) NOT NULL,
    total          NUMERIC(12, 2) NOT NULL,
    payment_method TEXT           NOT NULL,
    created_at     TIMESTAMPTZ    NOT NULL,
    business_date  DATE           NOT NULL,
    business_time  TEXT           NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS pos_transactions_business_date_idx
    ON pos_transactions (business_date)`,
	`CREATE TABLE IF NOT EXISTS pos_transaction_lines (
    transaction_id UUID           NOT NULL REFERENCES pos_transactions (id) ON DELETE CASCADE,
    line_no        INTEGER        NOT NULL,
    item_id        INTEGER        NOT NULL,
    name           TEXT           NOT NULL,
    category       TEXT           NOT NULL,
    unit_price     NUMERIC(12, 2) NOT NULL,
    quantity       INTEGER        NOT NULL CHECK (quantity > 0),
    amount         NUMERIC(12, 2) NOT NULL,
    PRIMARY KEY (transaction_id, line_no)
)`,
}

// Migrate creates the export tables if they do not exist.
func Migrate(ctx context.Context, db Execer) error {
	for i, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema[%d]: %w", i, err)
		}
	}
	return nil
}
