// Package ledger owns the open order for every table and the log of
// completed transactions. All state lives behind one mutex; mutations are
// validated before anything is changed, so a rejected call leaves the ledger
// untouched.
package ledger

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tewans-kitchen/pos/internal/enum"
	"github.com/tewans-kitchen/pos/internal/menu"
	"go.uber.org/zap"
)

// DefaultTables is the size of the dining room floor.
const DefaultTables = 12

// Errors returned by the ledger.
var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrLineNotFound         = errors.New("line not found")
	ErrInvalidQuantity      = errors.New("quantity must be between 1 and 9999")
	ErrUnknownItem          = errors.New("menu item not found")
	ErrUnknownTable         = errors.New("table not found")
	ErrEmptyOrder           = errors.New("order has no lines")
	ErrInvalidPaymentMethod = errors.New("invalid payment_method")
	ErrInvalidRate          = errors.New("rate must be between 0 and 100")
)

// ExportHook receives every closed transaction. It is called after the
// payment has completed and must not block; hand the work to a background
// worker.
type ExportHook func(Transaction)

// Ledger is the order/transaction state of one restaurant.
type Ledger struct {
	mu      sync.RWMutex
	orders  map[int]*openOrder
	log     []Transaction
	pricing Pricing

	catalog *menu.Catalog
	tables  int
	loc     *time.Location
	now     func() time.Time
	hook    ExportHook
	logger  *zap.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithTables sets the number of tables (ids 1..n).
func WithTables(n int) Option {
	return func(l *Ledger) {
		if n > 0 {
			l.tables = n
		}
	}
}

// WithLocation sets the timezone used for transaction dates.
func WithLocation(loc *time.Location) Option {
	return func(l *Ledger) {
		if loc != nil {
			l.loc = loc
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// WithExportHook registers the hook invoked for each closed transaction.
func WithExportHook(hook ExportHook) Option {
	return func(l *Ledger) {
		l.hook = hook
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New creates an empty ledger over catalog.
func New(catalog *menu.Catalog, pricing Pricing, opts ...Option) *Ledger {
	l := &Ledger{
		orders:  make(map[int]*openOrder),
		pricing: pricing,
		catalog: catalog,
		tables:  DefaultTables,
		loc:     time.Local,
		now:     time.Now,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Catalog returns the menu the ledger validates items against.
func (l *Ledger) Catalog() *menu.Catalog {
	return l.catalog
}

// TableCount returns the number of tables.
func (l *Ledger) TableCount() int {
	return l.tables
}

// Location returns the timezone used for transaction dates.
func (l *Ledger) Location() *time.Location {
	return l.loc
}

// Now returns the ledger clock's current time in its location.
func (l *Ledger) Now() time.Time {
	return l.now().In(l.loc)
}

func (l *Ledger) checkTable(tableID int) error {
	if tableID < 1 || tableID > l.tables {
		return fmt.Errorf("table %d: %w", tableID, ErrUnknownTable)
	}
	return nil
}

// --- Order mutation ---

// AddLine adds qty of itemID to the table's order, opening the order if the
// table has none. An existing line for the item is incremented.
func (l *Ledger) AddLine(tableID, itemID, qty int) (Order, error) {
	if err := l.checkTable(tableID); err != nil {
		return Order{}, err
	}
	item, ok := l.catalog.Get(itemID)
	if !ok {
		return Order{}, fmt.Errorf("item %d: %w", itemID, ErrUnknownItem)
	}
	line, err := NewLine(item, qty)
	if err != nil {
		return Order{}, fmt.Errorf("item %d: %w", itemID, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	order, ok := l.orders[tableID]
	if ok {
		if existing, found := order.lines[itemID]; found {
			if existing.Quantity > MaxLineQuantity-qty {
				return Order{}, fmt.Errorf("item %d: quantity %d + %d: %w", itemID, existing.Quantity, qty, ErrInvalidQuantity)
			}
			line = existing
			line.Quantity += qty
		}
	} else {
		order = newOpenOrder()
		l.orders[tableID] = order
	}
	order.lines[itemID] = line
	order.updatedAt = l.now()

	return order.snapshot(tableID, l.pricing), nil
}

// SetLineQuantity replaces the quantity of an existing line. A quantity of
// zero or less removes the line. It never opens an order.
func (l *Ledger) SetLineQuantity(tableID, itemID, qty int) (Order, error) {
	if qty <= 0 {
		return l.RemoveLine(tableID, itemID)
	}
	if err := l.checkTable(tableID); err != nil {
		return Order{}, err
	}
	if err := checkQuantity(qty); err != nil {
		return Order{}, fmt.Errorf("item %d: %w", itemID, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	order, line, err := l.lookupLine(tableID, itemID)
	if err != nil {
		return Order{}, err
	}
	line.Quantity = qty
	order.lines[itemID] = line
	order.updatedAt = l.now()

	return order.snapshot(tableID, l.pricing), nil
}

// RemoveLine deletes a line. The order stays open, possibly empty, until it
// is paid.
func (l *Ledger) RemoveLine(tableID, itemID int) (Order, error) {
	if err := l.checkTable(tableID); err != nil {
		return Order{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	order, _, err := l.lookupLine(tableID, itemID)
	if err != nil {
		return Order{}, err
	}
	delete(order.lines, itemID)
	order.updatedAt = l.now()

	return order.snapshot(tableID, l.pricing), nil
}

// lookupLine must be called with l.mu held.
func (l *Ledger) lookupLine(tableID, itemID int) (*openOrder, Line, error) {
	order, ok := l.orders[tableID]
	if !ok {
		return nil, Line{}, fmt.Errorf("table %d: %w", tableID, ErrOrderNotFound)
	}
	line, ok := order.lines[itemID]
	if !ok {
		return nil, Line{}, fmt.Errorf("table %d item %d: %w", tableID, itemID, ErrLineNotFound)
	}
	return order, line, nil
}

// --- Reads ---

// Order returns a snapshot of the table's open order.
func (l *Ledger) Order(tableID int) (Order, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	order, ok := l.orders[tableID]
	if !ok {
		return Order{}, false
	}
	return order.snapshot(tableID, l.pricing), true
}

// Totals computes the current totals for the table. It returns zero Totals
// when the table has no order or the order has no lines.
func (l *Ledger) Totals(tableID int) Totals {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.totalsLocked(tableID)
}

func (l *Ledger) totalsLocked(tableID int) Totals {
	order, ok := l.orders[tableID]
	if !ok || len(order.lines) == 0 {
		return Totals{}
	}
	return l.pricing.Compute(order.sortedLines())
}

// Tables returns the status of every table, 1..n.
func (l *Ledger) Tables() []TableStatus {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]TableStatus, l.tables)
	for i := range out {
		tableID := i + 1
		status := TableStatus{TableID: tableID, Total: decimal.Zero}
		if order, ok := l.orders[tableID]; ok {
			status.HasOrder = true
			status.LineCount = len(order.lines)
			status.Total = l.totalsLocked(tableID).Total
		}
		out[i] = status
	}
	return out
}

// Pricing returns the current rates.
func (l *Ledger) Pricing() Pricing {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.pricing
}

// SetPricing replaces the rates used by all subsequent totals.
func (l *Ledger) SetPricing(p Pricing) error {
	_, err := l.UpdatePricing(func(Pricing) Pricing { return p })
	return err
}

// UpdatePricing applies fn to the current rates and stores the result if it
// is valid. fn runs under the ledger lock, so concurrent partial updates
// cannot overwrite each other; it must not call back into the ledger.
func (l *Ledger) UpdatePricing(fn func(Pricing) Pricing) (Pricing, error) {
	l.mu.Lock()
	p := fn(l.pricing)
	if _, err := NewPricing(p.TaxRate, p.ServiceRate, p.DiscountRate); err != nil {
		l.mu.Unlock()
		return Pricing{}, err
	}
	l.pricing = p
	l.mu.Unlock()

	l.logger.Info("pricing updated",
		zap.String("tax_rate", p.TaxRate.String()),
		zap.String("service_rate", p.ServiceRate.String()),
		zap.String("discount_rate", p.DiscountRate.String()),
	)
	return p, nil
}

// --- Payment ---

// ProcessPayment closes the table's order into a Transaction, appends it to
// the log and removes the order. The export hook runs afterwards; its
// failure cannot affect the payment.
func (l *Ledger) ProcessPayment(tableID int, method string) (Transaction, error) {
	if err := l.checkTable(tableID); err != nil {
		return Transaction{}, err
	}
	if !enum.IsValidPaymentMethod(method) {
		return Transaction{}, fmt.Errorf("%q: %w", method, ErrInvalidPaymentMethod)
	}

	l.mu.Lock()
	order, ok := l.orders[tableID]
	if !ok {
		l.mu.Unlock()
		return Transaction{}, fmt.Errorf("table %d: %w", tableID, ErrOrderNotFound)
	}
	if len(order.lines) == 0 {
		l.mu.Unlock()
		return Transaction{}, fmt.Errorf("table %d: %w", tableID, ErrEmptyOrder)
	}

	lines := order.sortedLines()
	now := l.now().In(l.loc)
	txn := Transaction{
		ID:            newTransactionID(),
		Sequence:      len(l.log) + 1,
		TableID:       tableID,
		Lines:         lines,
		Totals:        l.pricing.Compute(lines),
		PaymentMethod: method,
		CreatedAt:     now,
		Date:          now.Format(DateLayout),
		Time:          now.Format(TimeLayout),
	}
	l.log = append(l.log, txn)
	delete(l.orders, tableID)
	l.mu.Unlock()

	l.logger.Info("payment processed",
		zap.String("transaction_id", txn.ID.String()),
		zap.Int("table_id", tableID),
		zap.String("payment_method", method),
		zap.String("total", txn.Totals.Total.StringFixed(2)),
	)

	l.export(txn.clone())
	return txn.clone(), nil
}

func (l *Ledger) export(txn Transaction) {
	if l.hook == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("export hook panicked",
				zap.String("transaction_id", txn.ID.String()),
				zap.Any("panic", r),
			)
		}
	}()
	l.hook(txn)
}

// --- Transaction log ---

// Transactions returns a copy of the full log in append order.
func (l *Ledger) Transactions() []Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Transaction, len(l.log))
	for i, t := range l.log {
		out[i] = t.clone()
	}
	return out
}

// RecentTransactions returns up to n transactions, newest first.
func (l *Ledger) RecentTransactions(n int) []Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if n <= 0 || n > len(l.log) {
		n = len(l.log)
	}
	out := make([]Transaction, 0, n)
	for i := len(l.log) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, l.log[i].clone())
	}
	return out
}

// DailyReport aggregates the transactions dated on date's calendar day in the
// ledger's location.
func (l *Ledger) DailyReport(date time.Time) Report {
	day := date.In(l.loc).Format(DateLayout)

	l.mu.RLock()
	// Appended entries are never modified, so the slice header is enough.
	snapshot := l.log[:len(l.log):len(l.log)]
	l.mu.RUnlock()

	return BuildDailyReport(snapshot, day)
}
