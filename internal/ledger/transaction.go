package ledger

import (
	"time"

	"github.com/google/uuid"
)

const (
	// DateLayout is the format of Transaction.Date and report dates.
	DateLayout = "2006-01-02"
	// TimeLayout is the format of Transaction.Time.
	TimeLayout = "15:04:05"
)

// Transaction is the immutable record of a completed payment.
type Transaction struct {
	ID            uuid.UUID
	Sequence      int
	TableID       int
	Lines         []Line
	Totals        Totals
	PaymentMethod string
	CreatedAt     time.Time
	Date          string
	Time          string
}

// ItemCount is the number of distinct items on the transaction.
func (t Transaction) ItemCount() int {
	return len(t.Lines)
}

// clone returns a copy whose Lines slice is not shared.
func (t Transaction) clone() Transaction {
	lines := make([]Line, len(t.Lines))
	copy(lines, t.Lines)
	t.Lines = lines
	return t
}

// newTransactionID returns a time-ordered id.
func newTransactionID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}
