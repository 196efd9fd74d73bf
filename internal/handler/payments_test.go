package handler_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tewans-kitchen/pos/internal/handler"
	"github.com/tewans-kitchen/pos/internal/ledger"
	"github.com/tewans-kitchen/pos/internal/middleware"
)

type mockPaymentLedger struct {
	txn    ledger.Transaction
	err    error
	calls  int
	method string
}

func (m *mockPaymentLedger) ProcessPayment(tableID int, method string) (ledger.Transaction, error) {
	m.calls++
	m.method = method
	if m.err != nil {
		return ledger.Transaction{}, m.err
	}
	return m.txn, nil
}

func testTransaction(tableID int, method string) ledger.Transaction {
	order := testOrder(tableID)
	return ledger.Transaction{
		ID:            uuid.MustParse("01956f3a-0000-7000-8000-000000000001"),
		Sequence:      1,
		TableID:       tableID,
		Lines:         order.Lines,
		Totals:        testPricing().Compute(order.Lines),
		PaymentMethod: method,
		CreatedAt:     time.Date(2026, 3, 14, 12, 30, 0, 0, time.UTC),
		Date:          "2026-03-14",
		Time:          "19:30:00",
	}
}

func setupPaymentRouter(store *mockPaymentLedger, events handler.Broadcaster) *chi.Mux {
	h := handler.NewPaymentHandler(store, events)
	r := chi.NewRouter()
	r.Route("/tables/{tid}", func(r chi.Router) {
		r.Use(middleware.RequireTable(testTables))
		r.Route("/payments", h.RegisterRoutes)
	})
	return r
}

func TestPay(t *testing.T) {
	store := &mockPaymentLedger{txn: testTransaction(3, "cash")}
	events := &mockBroadcaster{}
	router := setupPaymentRouter(store, events)

	rr := doRequest(router, "POST", "/tables/3/payments/", map[string]string{"payment_method": "cash"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d (body: %s)", rr.Code, http.StatusCreated, rr.Body.String())
	}

	var resp struct {
		ID            string            `json:"id"`
		Sequence      int               `json:"sequence"`
		ItemCount     int               `json:"item_count"`
		PaymentMethod string            `json:"payment_method"`
		Totals        map[string]string `json:"totals"`
		Date          string            `json:"date"`
		Time          string            `json:"time"`
	}
	decodeJSON(t, rr, &resp)

	if resp.ID != "01956f3a-0000-7000-8000-000000000001" || resp.Sequence != 1 {
		t.Errorf("unexpected identity: %+v", resp)
	}
	if resp.ItemCount != 1 || resp.PaymentMethod != "cash" {
		t.Errorf("unexpected transaction: %+v", resp)
	}
	if resp.Totals["total"] != "105.30" {
		t.Errorf("total: got %s, want 105.30", resp.Totals["total"])
	}
	if resp.Date != "2026-03-14" || resp.Time != "19:30:00" {
		t.Errorf("unexpected date/time: %s %s", resp.Date, resp.Time)
	}

	if len(events.table) != 1 || events.table[0].event.Type != "order.paid" || events.table[0].tableID != 3 {
		t.Errorf("expected order.paid broadcast to table 3, got %+v", events.table)
	}
}

func TestPay_MissingMethod(t *testing.T) {
	store := &mockPaymentLedger{}
	router := setupPaymentRouter(store, nil)

	rr := doRequest(router, "POST", "/tables/3/payments/", map[string]string{})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	if store.calls != 0 {
		t.Error("ledger should not be called")
	}
}

func TestPay_LedgerErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"no order", fmt.Errorf("table 3: %w", ledger.ErrOrderNotFound), http.StatusNotFound},
		{"empty order", fmt.Errorf("table 3: %w", ledger.ErrEmptyOrder), http.StatusConflict},
		{"bad method", fmt.Errorf("%q: %w", "bitcoin", ledger.ErrInvalidPaymentMethod), http.StatusBadRequest},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := &mockBroadcaster{}
			router := setupPaymentRouter(&mockPaymentLedger{err: tt.err}, events)

			rr := doRequest(router, "POST", "/tables/3/payments/", map[string]string{"payment_method": "cash"})
			if rr.Code != tt.want {
				t.Errorf("status: got %d, want %d", rr.Code, tt.want)
			}
			if len(events.table) != 0 {
				t.Error("failed payments must not broadcast")
			}
		})
	}
}

func TestPay_InvalidTable(t *testing.T) {
	store := &mockPaymentLedger{}
	router := setupPaymentRouter(store, nil)

	rr := doRequest(router, "POST", "/tables/abc/payments/", map[string]string{"payment_method": "cash"})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	if store.calls != 0 {
		t.Error("ledger should not be called")
	}
}

func TestPay_ZeroTotalsFormatting(t *testing.T) {
	txn := testTransaction(1, "qr")
	txn.Totals = ledger.Totals{
		Subtotal: decimal.Zero, Tax: decimal.Zero, ServiceCharge: decimal.Zero,
		Discount: decimal.Zero, Total: decimal.Zero,
	}
	router := setupPaymentRouter(&mockPaymentLedger{txn: txn}, nil)

	rr := doRequest(router, "POST", "/tables/1/payments/", map[string]string{"payment_method": "qr"})
	var resp struct {
		Totals map[string]string `json:"totals"`
	}
	decodeJSON(t, rr, &resp)
	if resp.Totals["total"] != "0.00" || resp.Totals["tax"] != "0.00" {
		t.Errorf("expected two decimal places, got %+v", resp.Totals)
	}
}
