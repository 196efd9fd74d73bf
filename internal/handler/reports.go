package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tewans-kitchen/pos/internal/ledger"
)

// ReportsLedger defines the ledger methods needed by report handlers.
type ReportsLedger interface {
	DailyReport(date time.Time) ledger.Report
	Location() *time.Location
	Now() time.Time
}

// ReportsHandler handles report endpoints.
type ReportsHandler struct {
	ledger ReportsLedger
}

// NewReportsHandler creates a new ReportsHandler.
func NewReportsHandler(l ReportsLedger) *ReportsHandler {
	return &ReportsHandler{ledger: l}
}

// RegisterRoutes registers report endpoints. Expected to be mounted at /reports
func (h *ReportsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/daily", h.Daily)
}

type itemSalesResponse struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type dailyReportResponse struct {
	Date              string              `json:"date"`
	TotalRevenue      string              `json:"total_revenue"`
	TotalOrders       int                 `json:"total_orders"`
	AverageOrderValue string              `json:"average_order_value"`
	PaymentBreakdown  map[string]string   `json:"payment_breakdown"`
	PopularItems      []itemSalesResponse `json:"popular_items"`
}

// Daily handles GET /reports/daily?date=YYYY-MM-DD. The date is read in the
// ledger's timezone and defaults to today.
func (h *ReportsHandler) Daily(w http.ResponseWriter, r *http.Request) {
	date := h.ledger.Now()
	if s := r.URL.Query().Get("date"); s != "" {
		t, err := time.ParseInLocation(ledger.DateLayout, s, h.ledger.Location())
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date format, expected YYYY-MM-DD"})
			return
		}
		date = t
	}

	report := h.ledger.DailyReport(date)

	resp := dailyReportResponse{
		Date:              report.Date,
		TotalRevenue:      money(report.TotalRevenue),
		TotalOrders:       report.TotalOrders,
		AverageOrderValue: money(report.AverageOrderValue),
		PaymentBreakdown:  make(map[string]string, len(report.PaymentBreakdown)),
		PopularItems:      make([]itemSalesResponse, len(report.PopularItems)),
	}
	for method, sum := range report.PaymentBreakdown {
		resp.PaymentBreakdown[method] = money(sum)
	}
	for i, item := range report.PopularItems {
		resp.PopularItems[i] = itemSalesResponse{Name: item.Name, Quantity: item.Quantity}
	}

	writeJSON(w, http.StatusOK, resp)
}
