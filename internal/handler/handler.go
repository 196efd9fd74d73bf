// Package handler exposes the ledger over HTTP. Handlers depend on narrow
// interfaces satisfied by *ledger.Ledger and *ws.Hub.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tewans-kitchen/pos/internal/ledger"
	"github.com/tewans-kitchen/pos/internal/middleware"
	"github.com/tewans-kitchen/pos/internal/ws"
	"go.uber.org/zap"
)

// Broadcaster pushes ledger events to connected screens.
type Broadcaster interface {
	Broadcast(tableID int, event ws.Event)
	BroadcastFloor(event ws.Event)
}

// --- Response types ---

type lineResponse struct {
	ItemID    int    `json:"item_id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	Amount    string `json:"amount"`
}

type totalsResponse struct {
	Subtotal      string `json:"subtotal"`
	Tax           string `json:"tax"`
	ServiceCharge string `json:"service_charge"`
	Discount      string `json:"discount"`
	Total         string `json:"total"`
}

type orderResponse struct {
	TableID   int            `json:"table_id"`
	Lines     []lineResponse `json:"lines"`
	Totals    totalsResponse `json:"totals"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type transactionResponse struct {
	ID            uuid.UUID      `json:"id"`
	Sequence      int            `json:"sequence"`
	TableID       int            `json:"table_id"`
	Lines         []lineResponse `json:"lines"`
	ItemCount     int            `json:"item_count"`
	Totals        totalsResponse `json:"totals"`
	PaymentMethod string         `json:"payment_method"`
	Timestamp     time.Time      `json:"timestamp"`
	Date          string         `json:"date"`
	Time          string         `json:"time"`
}

// --- Helpers ---

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func toLineResponses(lines []ledger.Line) []lineResponse {
	resp := make([]lineResponse, len(lines))
	for i, l := range lines {
		resp[i] = lineResponse{
			ItemID:    l.ItemID,
			Name:      l.Name,
			Category:  l.Category,
			UnitPrice: money(l.UnitPrice),
			Quantity:  l.Quantity,
			Amount:    money(l.Amount()),
		}
	}
	return resp
}

func toTotalsResponse(t ledger.Totals) totalsResponse {
	return totalsResponse{
		Subtotal:      money(t.Subtotal),
		Tax:           money(t.Tax),
		ServiceCharge: money(t.ServiceCharge),
		Discount:      money(t.Discount),
		Total:         money(t.Total),
	}
}

func toOrderResponse(o ledger.Order) orderResponse {
	return orderResponse{
		TableID:   o.TableID,
		Lines:     toLineResponses(o.Lines),
		Totals:    toTotalsResponse(o.Totals),
		UpdatedAt: o.UpdatedAt,
	}
}

func toTransactionResponse(t ledger.Transaction) transactionResponse {
	return transactionResponse{
		ID:            t.ID,
		Sequence:      t.Sequence,
		TableID:       t.TableID,
		Lines:         toLineResponses(t.Lines),
		ItemCount:     t.ItemCount(),
		Totals:        toTotalsResponse(t.Totals),
		PaymentMethod: t.PaymentMethod,
		Timestamp:     t.CreatedAt,
		Date:          t.Date,
		Time:          t.Time,
	}
}

// tableID reads the id stored by middleware.RequireTable.
func tableID(w http.ResponseWriter, r *http.Request) (int, bool) {
	tid := middleware.TableIDFromContext(r.Context())
	if tid == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return 0, false
	}
	return tid, true
}

// notify broadcasts an event when a broadcaster is configured. A zero
// tableID goes to the floor room only.
func notify(b Broadcaster, eventType string, tableID int, payload any) {
	if b == nil {
		return
	}
	event, err := ws.NewEvent(eventType, tableID, payload)
	if err != nil {
		zap.L().Error("build event", zap.String("type", eventType), zap.Error(err))
		return
	}
	if tableID == ws.FloorRoom {
		b.BroadcastFloor(event)
		return
	}
	b.Broadcast(tableID, event)
}

// isNotFound checks if the error names a missing order, line or table.
func isNotFound(err error) bool {
	return errors.Is(err, ledger.ErrOrderNotFound) ||
		errors.Is(err, ledger.ErrLineNotFound) ||
		errors.Is(err, ledger.ErrUnknownTable)
}

// isValidationError checks if the error is a ledger validation error that
// should result in 400 Bad Request.
func isValidationError(err error) bool {
	return errors.Is(err, ledger.ErrInvalidQuantity) ||
		errors.Is(err, ledger.ErrUnknownItem) ||
		errors.Is(err, ledger.ErrInvalidPaymentMethod) ||
		errors.Is(err, ledger.ErrInvalidRate)
}

// writeLedgerError maps a ledger error to a status code. Unknown errors are
// logged and hidden from the client.
func writeLedgerError(w http.ResponseWriter, op string, err error) {
	switch {
	case isNotFound(err):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case isValidationError(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, ledger.ErrEmptyOrder):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		zap.L().Error(op, zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("failed to encode JSON response", zap.Error(err))
	}
}
