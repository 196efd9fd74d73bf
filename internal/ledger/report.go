package ledger

import (
	"sort"

	"github.com/shopspring/decimal"
)

// PopularItemsLimit is how many items a daily report ranks.
const PopularItemsLimit = 5

// ItemSales is the quantity of one item sold.
type ItemSales struct {
	Name     string
	Quantity int
}

// Report is the aggregate of one calendar day's transactions.
type Report struct {
	Date              string
	TotalRevenue      decimal.Decimal
	TotalOrders       int
	AverageOrderValue decimal.Decimal
	// PaymentBreakdown only holds methods that were used.
	PaymentBreakdown map[string]decimal.Decimal
	PopularItems     []ItemSales
}

// BuildDailyReport aggregates the transactions whose Date equals day.
func BuildDailyReport(txns []Transaction, day string) Report {
	report := Report{
		Date:              day,
		TotalRevenue:      decimal.Zero,
		AverageOrderValue: decimal.Zero,
		PaymentBreakdown:  make(map[string]decimal.Decimal),
	}

	// Item totals keep first-seen order so equal quantities rank stably.
	var items []ItemSales
	index := make(map[string]int)

	for _, t := range txns {
		if t.Date != day {
			continue
		}
		report.TotalOrders++
		report.TotalRevenue = report.TotalRevenue.Add(t.Totals.Total)

		sum, ok := report.PaymentBreakdown[t.PaymentMethod]
		if !ok {
			sum = decimal.Zero
		}
		report.PaymentBreakdown[t.PaymentMethod] = sum.Add(t.Totals.Total)

		for _, line := range t.Lines {
			i, ok := index[line.Name]
			if !ok {
				i = len(items)
				index[line.Name] = i
				items = append(items, ItemSales{Name: line.Name})
			}
			items[i].Quantity += line.Quantity
		}
	}

	if report.TotalOrders > 0 {
		report.AverageOrderValue = report.TotalRevenue.Div(decimal.NewFromInt(int64(report.TotalOrders)))
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Quantity > items[j].Quantity
	})
	if len(items) > PopularItemsLimit {
		items = items[:PopularItemsLimit]
	}
	report.PopularItems = items

	return report
}
