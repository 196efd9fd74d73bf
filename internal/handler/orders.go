package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/tewans-kitchen/pos/internal/enum"
	"github.com/tewans-kitchen/pos/internal/ledger"
)

// OrderLedger defines the ledger methods needed by order handlers.
// Satisfied by *ledger.Ledger; narrow interface for testability.
type OrderLedger interface {
	AddLine(tableID, itemID, qty int) (ledger.Order, error)
	SetLineQuantity(tableID, itemID, qty int) (ledger.Order, error)
	RemoveLine(tableID, itemID int) (ledger.Order, error)
	Order(tableID int) (ledger.Order, bool)
	Tables() []ledger.TableStatus
}

// OrderHandler handles the table grid and open-order endpoints.
type OrderHandler struct {
	ledger OrderLedger
	events Broadcaster
}

// NewOrderHandler creates a new OrderHandler. events may be nil.
func NewOrderHandler(l OrderLedger, events Broadcaster) *OrderHandler {
	return &OrderHandler{ledger: l, events: events}
}

// RegisterRoutes registers open-order endpoints.
// Expected to be mounted inside a table-scoped subrouter: /tables/{tid}/order
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Get)
	r.Post("/items", h.AddItem)
	r.Put("/items/{iid}", h.UpdateItem)
	r.Delete("/items/{iid}", h.RemoveItem)
}

// --- Request / Response types ---

type addItemRequest struct {
	ItemID   int  `json:"item_id"`
	Quantity *int `json:"quantity"`
}

type updateItemRequest struct {
	Quantity *int `json:"quantity"`
}

type tableResponse struct {
	TableID   int    `json:"table_id"`
	HasOrder  bool   `json:"has_order"`
	LineCount int    `json:"line_count"`
	Total     string `json:"total"`
}

// --- Handlers ---

// ListTables handles GET /tables.
func (h *OrderHandler) ListTables(w http.ResponseWriter, r *http.Request) {
	tables := h.ledger.Tables()
	resp := make([]tableResponse, len(tables))
	for i, t := range tables {
		resp[i] = tableResponse{
			TableID:   t.TableID,
			HasOrder:  t.HasOrder,
			LineCount: t.LineCount,
			Total:     money(t.Total),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /tables/{tid}/order.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	tid, ok := tableID(w, r)
	if !ok {
		return
	}

	order, ok := h.ledger.Order(tid)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

// AddItem handles POST /tables/{tid}/order/items. Quantity defaults to 1.
func (h *OrderHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	tid, ok := tableID(w, r)
	if !ok {
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.ItemID == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "item_id is required"})
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}

	order, err := h.ledger.AddLine(tid, req.ItemID, qty)
	if err != nil {
		writeLedgerError(w, "add line", err)
		return
	}

	h.respond(w, http.StatusCreated, order)
}

// UpdateItem handles PUT /tables/{tid}/order/items/{iid}. A quantity of zero
// or less removes the line.
func (h *OrderHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	tid, ok := tableID(w, r)
	if !ok {
		return
	}
	itemID, err := strconv.Atoi(chi.URLParam(r, "iid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Quantity == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "quantity is required"})
		return
	}

	order, err := h.ledger.SetLineQuantity(tid, itemID, *req.Quantity)
	if err != nil {
		writeLedgerError(w, "set line quantity", err)
		return
	}

	h.respond(w, http.StatusOK, order)
}

// RemoveItem handles DELETE /tables/{tid}/order/items/{iid}.
func (h *OrderHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	tid, ok := tableID(w, r)
	if !ok {
		return
	}
	itemID, err := strconv.Atoi(chi.URLParam(r, "iid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	order, err := h.ledger.RemoveLine(tid, itemID)
	if err != nil {
		writeLedgerError(w, "remove line", err)
		return
	}

	h.respond(w, http.StatusOK, order)
}

// --- Helpers ---

func (h *OrderHandler) respond(w http.ResponseWriter, status int, order ledger.Order) {
	resp := toOrderResponse(order)
	notify(h.events, enum.EventOrderUpdated, order.TableID, resp)
	writeJSON(w, status, resp)
}
