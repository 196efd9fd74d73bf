package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Pricing holds the process-wide rates applied to every order. Rates are
// percentages: 7 means 7%.
type Pricing struct {
	TaxRate      decimal.Decimal
	ServiceRate  decimal.Decimal
	DiscountRate decimal.Decimal
}

// NewPricing validates that every rate lies in [0, 100].
func NewPricing(tax, service, discount decimal.Decimal) (Pricing, error) {
	rates := []struct {
		name string
		v    decimal.Decimal
	}{
		{"tax", tax},
		{"service", service},
		{"discount", discount},
	}
	for _, r := range rates {
		if r.v.IsNegative() || r.v.GreaterThan(hundred) {
			return Pricing{}, fmt.Errorf("%s rate %s: %w", r.name, r.v.String(), ErrInvalidRate)
		}
	}
	return Pricing{TaxRate: tax, ServiceRate: service, DiscountRate: discount}, nil
}

// Totals is the monetary breakdown of an order. Values are exact; round only
// when formatting.
type Totals struct {
	Subtotal      decimal.Decimal
	Tax           decimal.Decimal
	ServiceCharge decimal.Decimal
	Discount      decimal.Decimal
	Total         decimal.Decimal
}

// IsZero reports whether every component is zero.
func (t Totals) IsZero() bool {
	return t.Subtotal.IsZero() && t.Tax.IsZero() && t.ServiceCharge.IsZero() &&
		t.Discount.IsZero() && t.Total.IsZero()
}

// Compute derives Totals for the given lines:
//
//	total = subtotal + tax + service charge - discount
//
// where each rate is applied to the subtotal.
func (p Pricing) Compute(lines []Line) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Amount())
	}

	tax := subtotal.Mul(p.TaxRate).Div(hundred)
	service := subtotal.Mul(p.ServiceRate).Div(hundred)
	discount := subtotal.Mul(p.DiscountRate).Div(hundred)

	return Totals{
		Subtotal:      subtotal,
		Tax:           tax,
		ServiceCharge: service,
		Discount:      discount,
		Total:         subtotal.Add(tax).Add(service).Sub(discount),
	}
}
