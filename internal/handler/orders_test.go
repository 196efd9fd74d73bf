package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/tewans-kitchen/pos/internal/handler"
	"github.com/tewans-kitchen/pos/internal/ledger"
	"github.com/tewans-kitchen/pos/internal/middleware"
	"github.com/tewans-kitchen/pos/internal/ws"
)

const testTables = 12

// --- Mock Ledger ---

type addCall struct {
	tableID, itemID, qty int
}

type mockOrderLedger struct {
	order    ledger.Order
	hasOrder bool
	tables   []ledger.TableStatus
	err      error

	adds    []addCall
	sets    []addCall
	removes []addCall
}

func (m *mockOrderLedger) AddLine(tableID, itemID, qty int) (ledger.Order, error) {
	m.adds = append(m.adds, addCall{tableID, itemID, qty})
	if m.err != nil {
		return ledger.Order{}, m.err
	}
	return m.order, nil
}

func (m *mockOrderLedger) SetLineQuantity(tableID, itemID, qty int) (ledger.Order, error) {
	m.sets = append(m.sets, addCall{tableID, itemID, qty})
	if m.err != nil {
		return ledger.Order{}, m.err
	}
	return m.order, nil
}

func (m *mockOrderLedger) RemoveLine(tableID, itemID int) (ledger.Order, error) {
	m.removes = append(m.removes, addCall{tableID, itemID, 0})
	if m.err != nil {
		return ledger.Order{}, m.err
	}
	return m.order, nil
}

func (m *mockOrderLedger) Order(tableID int) (ledger.Order, bool) {
	return m.order, m.hasOrder
}

func (m *mockOrderLedger) Tables() []ledger.TableStatus {
	return m.tables
}

// --- Mock Broadcaster ---

type broadcast struct {
	tableID int
	event   ws.Event
}

type mockBroadcaster struct {
	table []broadcast
	floor []ws.Event
}

func (m *mockBroadcaster) Broadcast(tableID int, event ws.Event) {
	m.table = append(m.table, broadcast{tableID, event})
}

func (m *mockBroadcaster) BroadcastFloor(event ws.Event) {
	m.floor = append(m.floor, event)
}

// --- Test Helpers ---

func testPricing() ledger.Pricing {
	p, _ := ledger.NewPricing(decimal.NewFromInt(7), decimal.NewFromInt(10), decimal.Zero)
	return p
}

func testOrder(tableID int) ledger.Order {
	lines := []ledger.Line{
		{ItemID: 1, Name: "Pork Rad Na", Category: "Main Dish", UnitPrice: decimal.NewFromInt(45), Quantity: 2},
	}
	return ledger.Order{
		TableID:   tableID,
		Lines:     lines,
		Totals:    testPricing().Compute(lines),
		UpdatedAt: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
	}
}

func setupOrderRouter(store *mockOrderLedger, events handler.Broadcaster) *chi.Mux {
	h := handler.NewOrderHandler(store, events)
	r := chi.NewRouter()
	r.Route("/tables", func(r chi.Router) {
		r.Get("/", h.ListTables)
		r.Route("/{tid}", func(r chi.Router) {
			r.Use(middleware.RequireTable(testTables))
			r.Route("/order", h.RegisterRoutes)
		})
	})
	return r
}

func doRequest(router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v (body: %s)", err, rr.Body.String())
	}
}

// --- Tests: ListTables ---

func TestListTables(t *testing.T) {
	store := &mockOrderLedger{tables: []ledger.TableStatus{
		{TableID: 1, Total: decimal.Zero},
		{TableID: 2, HasOrder: true, LineCount: 1, Total: decimal.RequireFromString("105.3")},
	}}
	router := setupOrderRouter(store, nil)

	rr := doRequest(router, "GET", "/tables/", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}

	var resp []map[string]interface{}
	decodeJSON(t, rr, &resp)
	if len(resp) != 2 {
		t.Fatalf("expected 2 tables, got %d", len(resp))
	}
	if resp[0]["has_order"] != false || resp[0]["total"] != "0.00" {
		t.Errorf("unexpected empty table: %v", resp[0])
	}
	if resp[1]["has_order"] != true || resp[1]["total"] != "105.30" || resp[1]["line_count"] != float64(1) {
		t.Errorf("unexpected occupied table: %v", resp[1])
	}
}

// --- Tests: Get ---

func TestGetOrder(t *testing.T) {
	store := &mockOrderLedger{order: testOrder(3), hasOrder: true}
	router := setupOrderRouter(store, nil)

	rr := doRequest(router, "GET", "/tables/3/order/", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}

	var resp struct {
		TableID int `json:"table_id"`
		Lines   []struct {
			ItemID    int    `json:"item_id"`
			UnitPrice string `json:"unit_price"`
			Amount    string `json:"amount"`
		} `json:"lines"`
		Totals map[string]string `json:"totals"`
	}
	decodeJSON(t, rr, &resp)

	if resp.TableID != 3 || len(resp.Lines) != 1 {
		t.Fatalf("unexpected order: %+v", resp)
	}
	if resp.Lines[0].UnitPrice != "45.00" || resp.Lines[0].Amount != "90.00" {
		t.Errorf("unexpected line: %+v", resp.Lines[0])
	}
	want := map[string]string{
		"subtotal": "90.00", "tax": "6.30", "service_charge": "9.00", "discount": "0.00", "total": "105.30",
	}
	for k, v := range want {
		if resp.Totals[k] != v {
			t.Errorf("%s: got %s, want %s", k, resp.Totals[k], v)
		}
	}
}

func TestGetOrder_NotFound(t *testing.T) {
	router := setupOrderRouter(&mockOrderLedger{}, nil)

	rr := doRequest(router, "GET", "/tables/3/order/", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestGetOrder_TableOutOfRange(t *testing.T) {
	router := setupOrderRouter(&mockOrderLedger{hasOrder: true}, nil)

	rr := doRequest(router, "GET", "/tables/13/order/", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

// --- Tests: AddItem ---

func TestAddItem_DefaultsQuantityToOne(t *testing.T) {
	store := &mockOrderLedger{order: testOrder(5)}
	events := &mockBroadcaster{}
	router := setupOrderRouter(store, events)

	rr := doRequest(router, "POST", "/tables/5/order/items", map[string]interface{}{"item_id": 1})
	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d (body: %s)", rr.Code, http.StatusCreated, rr.Body.String())
	}

	if len(store.adds) != 1 || store.adds[0] != (addCall{5, 1, 1}) {
		t.Errorf("unexpected AddLine calls: %+v", store.adds)
	}
	if len(events.table) != 1 {
		t.Fatalf("expected 1 broadcast, got %d", len(events.table))
	}
	if events.table[0].tableID != 5 || events.table[0].event.Type != "order.updated" {
		t.Errorf("unexpected broadcast: %+v", events.table[0])
	}
}

func TestAddItem_RespondsWithLedgerTotals(t *testing.T) {
	// Totals come from the ledger snapshot, never re-priced by the handler.
	order := testOrder(5)
	order.Totals = ledger.Totals{
		Subtotal: decimal.NewFromInt(90), Tax: decimal.Zero, ServiceCharge: decimal.Zero,
		Discount: decimal.Zero, Total: decimal.NewFromInt(90),
	}
	store := &mockOrderLedger{order: order}
	events := &mockBroadcaster{}
	router := setupOrderRouter(store, events)

	rr := doRequest(router, "POST", "/tables/5/order/items", map[string]interface{}{"item_id": 1})
	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusCreated)
	}

	var resp struct {
		Totals map[string]string `json:"totals"`
	}
	decodeJSON(t, rr, &resp)
	if resp.Totals["total"] != "90.00" || resp.Totals["tax"] != "0.00" {
		t.Errorf("response totals: got %v, want the ledger's 90.00 / 0.00", resp.Totals)
	}

	if len(events.table) != 1 {
		t.Fatalf("expected 1 broadcast, got %d", len(events.table))
	}
	var payload struct {
		Totals map[string]string `json:"totals"`
	}
	if err := json.Unmarshal(events.table[0].event.Payload, &payload); err != nil {
		t.Fatalf("unmarshal event payload: %v", err)
	}
	if payload.Totals["total"] != "90.00" {
		t.Errorf("event total: got %s, want 90.00", payload.Totals["total"])
	}
}

func TestAddItem_ExplicitQuantity(t *testing.T) {
	store := &mockOrderLedger{order: testOrder(5)}
	router := setupOrderRouter(store, nil)

	rr := doRequest(router, "POST", "/tables/5/order/items", map[string]interface{}{"item_id": 3, "quantity": 4})
	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusCreated)
	}
	if store.adds[0] != (addCall{5, 3, 4}) {
		t.Errorf("unexpected AddLine call: %+v", store.adds[0])
	}
}

func TestAddItem_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body interface{}
	}{
		{"missing item_id", map[string]interface{}{"quantity": 2}},
		{"malformed", "not an object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockOrderLedger{}
			router := setupOrderRouter(store, nil)

			rr := doRequest(router, "POST", "/tables/5/order/items", tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
			}
			if len(store.adds) != 0 {
				t.Error("ledger should not be called")
			}
		})
	}
}

func TestAddItem_LedgerErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unknown item", fmt.Errorf("item 99: %w", ledger.ErrUnknownItem), http.StatusBadRequest},
		{"invalid quantity", fmt.Errorf("item 1: %w", ledger.ErrInvalidQuantity), http.StatusBadRequest},
		{"unknown table", fmt.Errorf("table 40: %w", ledger.ErrUnknownTable), http.StatusNotFound},
		{"unexpected", errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := &mockBroadcaster{}
			router := setupOrderRouter(&mockOrderLedger{err: tt.err}, events)

			rr := doRequest(router, "POST", "/tables/5/order/items", map[string]interface{}{"item_id": 1})
			if rr.Code != tt.want {
				t.Errorf("status: got %d, want %d", rr.Code, tt.want)
			}
			if len(events.table) != 0 {
				t.Error("failed mutations must not broadcast")
			}

			var resp map[string]string
			decodeJSON(t, rr, &resp)
			if tt.want == http.StatusInternalServerError && resp["error"] != "internal server error" {
				t.Errorf("internal errors must not leak: %q", resp["error"])
			}
		})
	}
}

// --- Tests: UpdateItem ---

func TestUpdateItem(t *testing.T) {
	store := &mockOrderLedger{order: testOrder(2)}
	router := setupOrderRouter(store, nil)

	rr := doRequest(router, "PUT", "/tables/2/order/items/1", map[string]interface{}{"quantity": 0})
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if len(store.sets) != 1 || store.sets[0] != (addCall{2, 1, 0}) {
		t.Errorf("zero quantity must reach the ledger unchanged: %+v", store.sets)
	}
}

func TestUpdateItem_MissingQuantity(t *testing.T) {
	store := &mockOrderLedger{}
	router := setupOrderRouter(store, nil)

	rr := doRequest(router, "PUT", "/tables/2/order/items/1", map[string]interface{}{})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestUpdateItem_InvalidItemID(t *testing.T) {
	router := setupOrderRouter(&mockOrderLedger{}, nil)

	rr := doRequest(router, "PUT", "/tables/2/order/items/abc", map[string]interface{}{"quantity": 1})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestUpdateItem_NoOrder(t *testing.T) {
	store := &mockOrderLedger{err: fmt.Errorf("table 2: %w", ledger.ErrOrderNotFound)}
	router := setupOrderRouter(store, nil)

	rr := doRequest(router, "PUT", "/tables/2/order/items/1", map[string]interface{}{"quantity": 3})
	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

// --- Tests: RemoveItem ---

func TestRemoveItem(t *testing.T) {
	store := &mockOrderLedger{order: ledger.Order{TableID: 2}}
	events := &mockBroadcaster{}
	router := setupOrderRouter(store, events)

	rr := doRequest(router, "DELETE", "/tables/2/order/items/1", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if len(store.removes) != 1 || store.removes[0].itemID != 1 {
		t.Errorf("unexpected RemoveLine calls: %+v", store.removes)
	}

	var resp struct {
		Lines  []interface{}     `json:"lines"`
		Totals map[string]string `json:"totals"`
	}
	decodeJSON(t, rr, &resp)
	if len(resp.Lines) != 0 || resp.Totals["total"] != "0.00" {
		t.Errorf("expected empty order with zero totals, got %+v", resp)
	}
	if len(events.table) != 1 {
		t.Errorf("expected broadcast, got %d", len(events.table))
	}
}

func TestRemoveItem_MissingLine(t *testing.T) {
	store := &mockOrderLedger{err: fmt.Errorf("table 2 item 7: %w", ledger.ErrLineNotFound)}
	router := setupOrderRouter(store, nil)

	rr := doRequest(router, "DELETE", "/tables/2/order/items/7", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}
