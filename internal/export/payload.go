package export

import (
	"time"

	"github.com/tewans-kitchen/pos/internal/ledger"
)

// PayloadItem is one line of an exported transaction.
type PayloadItem struct {
	ItemID    int    `json:"item_id" bson:"item_id"`
	Name      string `json:"name" bson:"name"`
	Category  string `json:"category" bson:"category"`
	UnitPrice string `json:"unit_price" bson:"unit_price"`
	Quantity  int    `json:"quantity" bson:"quantity"`
	Amount    string `json:"amount" bson:"amount"`
}

// Payload is the wire form of a transaction. Amounts are strings with two
// decimal places.
type Payload struct {
	ID            string        `json:"id" bson:"_id"`
	Sequence      int           `json:"sequence" bson:"sequence"`
	TableID       int           `json:"table_id" bson:"table_id"`
	Items         []PayloadItem `json:"items" bson:"items"`
	Subtotal      string        `json:"subtotal" bson:"subtotal"`
	Tax           string        `json:"tax" bson:"tax"`
	ServiceCharge string        `json:"service_charge" bson:"service_charge"`
	Discount      string        `json:"discount" bson:"discount"`
	Total         string        `json:"total" bson:"total"`
	PaymentMethod string        `json:"payment_method" bson:"payment_method"`
	Timestamp     time.Time     `json:"timestamp" bson:"timestamp"`
	Date          string        `json:"date" bson:"date"`
	Time          string        `json:"time" bson:"time"`
}

// NewPayload converts a transaction into its export form.
func NewPayload(t ledger.Transaction) Payload {
	items := make([]PayloadItem, len(t.Lines))
	for i, l := range t.Lines {
		items[i] = PayloadItem{
			ItemID:    l.ItemID,
			Name:      l.Name,
			Category:  l.Category,
			UnitPrice: l.UnitPrice.StringFixed(2),
			Quantity:  l.Quantity,
			Amount:    l.Amount().StringFixed(2),
		}
	}
	return Payload{
		ID:            t.ID.String(),
		Sequence:      t.Sequence,
		TableID:       t.TableID,
		Items:         items,
		Subtotal:      t.Totals.Subtotal.StringFixed(2),
		Tax:           t.Totals.Tax.StringFixed(2),
		ServiceCharge: t.Totals.ServiceCharge.StringFixed(2),
		Discount:      t.Totals.Discount.StringFixed(2),
		Total:         t.Totals.Total.StringFixed(2),
		PaymentMethod: t.PaymentMethod,
		Timestamp:     t.CreatedAt,
		Date:          t.Date,
		Time:          t.Time,
	}
}
