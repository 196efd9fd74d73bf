package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tewans-kitchen/pos/internal/enum"
	"github.com/tewans-kitchen/pos/internal/ledger"
)

// PaymentLedger defines the ledger methods needed by payment handlers.
type PaymentLedger interface {
	ProcessPayment(tableID int, method string) (ledger.Transaction, error)
}

// PaymentHandler handles payment endpoints.
type PaymentHandler struct {
	ledger PaymentLedger
	events Broadcaster
}

// NewPaymentHandler creates a new PaymentHandler. events may be nil.
func NewPaymentHandler(l PaymentLedger, events Broadcaster) *PaymentHandler {
	return &PaymentHandler{ledger: l, events: events}
}

// RegisterRoutes registers payment endpoints on the given Chi router.
// Expected to be mounted at /tables/{tid}/payments
func (h *PaymentHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Pay)
}

type payRequest struct {
	PaymentMethod string `json:"payment_method"`
}

// Pay handles POST /tables/{tid}/payments. It closes the table's order into
// a transaction.
func (h *PaymentHandler) Pay(w http.ResponseWriter, r *http.Request) {
	tid, ok := tableID(w, r)
	if !ok {
		return
	}

	var req payRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.PaymentMethod == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "payment_method is required"})
		return
	}

	txn, err := h.ledger.ProcessPayment(tid, req.PaymentMethod)
	if err != nil {
		writeLedgerError(w, "process payment", err)
		return
	}

	resp := toTransactionResponse(txn)
	notify(h.events, enum.EventOrderPaid, tid, resp)
	writeJSON(w, http.StatusCreated, resp)
}
