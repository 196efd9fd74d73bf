package ledger

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tewans-kitchen/pos/internal/menu"
)

// Line is one menu item plus quantity within an order. The item's name,
// category and price are copied in so transaction snapshots stay stable.
type Line struct {
	ItemID    int
	Name      string
	Category  string
	UnitPrice decimal.Decimal
	Quantity  int
}

// MaxLineQuantity caps a single line so quantity sums cannot overflow.
const MaxLineQuantity = 9999

func checkQuantity(qty int) error {
	if qty <= 0 || qty > MaxLineQuantity {
		return fmt.Errorf("quantity %d: %w", qty, ErrInvalidQuantity)
	}
	return nil
}

// NewLine builds a line for item, rejecting quantities outside
// 1..MaxLineQuantity.
func NewLine(item menu.Item, qty int) (Line, error) {
	if err := checkQuantity(qty); err != nil {
		return Line{}, err
	}
	return Line{
		ItemID:    item.ID,
		Name:      item.Name,
		Category:  item.Category,
		UnitPrice: item.Price,
		Quantity:  qty,
	}, nil
}

// Amount is unit price times quantity.
func (l Line) Amount() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Order is a read snapshot of a table's open order. Totals are priced under
// the same lock as the lines.
type Order struct {
	TableID   int
	Lines     []Line
	Totals    Totals
	UpdatedAt time.Time
}

// IsEmpty reports whether the order has no lines.
func (o Order) IsEmpty() bool {
	return len(o.Lines) == 0
}

// openOrder is the ledger-owned mutable order; lines are keyed by item id.
type openOrder struct {
	lines     map[int]Line
	updatedAt time.Time
}

func newOpenOrder() *openOrder {
	return &openOrder{lines: make(map[int]Line)}
}

// sortedLines returns a copy of the lines ordered by item id.
func (o *openOrder) sortedLines() []Line {
	lines := make([]Line, 0, len(o.lines))
	for _, l := range o.lines {
		lines = append(lines, l)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ItemID < lines[j].ItemID })
	return lines
}

func (o *openOrder) snapshot(tableID int, pricing Pricing) Order {
	lines := o.sortedLines()
	return Order{
		TableID:   tableID,
		Lines:     lines,
		Totals:    pricing.Compute(lines),
		UpdatedAt: o.updatedAt,
	}
}

// TableStatus is one cell of the table grid.
type TableStatus struct {
	TableID   int
	HasOrder  bool
	LineCount int
	Total     decimal.Decimal
}
