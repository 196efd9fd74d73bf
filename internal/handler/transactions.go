package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/tewans-kitchen/pos/internal/ledger"
)

const (
	defaultTransactionLimit = 10
	maxTransactionLimit     = 100
)

// TransactionLedger defines the ledger methods needed by transaction handlers.
type TransactionLedger interface {
	RecentTransactions(n int) []ledger.Transaction
}

// TransactionHandler serves the transaction log.
type TransactionHandler struct {
	ledger TransactionLedger
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(l TransactionLedger) *TransactionHandler {
	return &TransactionHandler{ledger: l}
}

// RegisterRoutes registers transaction endpoints. Expected to be mounted at /transactions
func (h *TransactionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
}

// List handles GET /transactions?limit=N, newest first.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultTransactionLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxTransactionLimit {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be between 1 and 100"})
			return
		}
		limit = n
	}

	txns := h.ledger.RecentTransactions(limit)
	resp := make([]transactionResponse, len(txns))
	for i, t := range txns {
		resp[i] = toTransactionResponse(t)
	}

	writeJSON(w, http.StatusOK, resp)
}
