package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/tewans-kitchen/pos/internal/enum"
	"github.com/tewans-kitchen/pos/internal/ledger"
	"github.com/tewans-kitchen/pos/internal/ws"
)

// PricingLedger defines the ledger methods needed by pricing handlers.
type PricingLedger interface {
	Pricing() ledger.Pricing
	UpdatePricing(fn func(ledger.Pricing) ledger.Pricing) (ledger.Pricing, error)
}

// PricingHandler reads and replaces the tax, service and discount rates.
type PricingHandler struct {
	ledger PricingLedger
	events Broadcaster
}

// NewPricingHandler creates a new PricingHandler. events may be nil.
func NewPricingHandler(l PricingLedger, events Broadcaster) *PricingHandler {
	return &PricingHandler{ledger: l, events: events}
}

// RegisterRoutes registers pricing endpoints. Expected to be mounted at /settings/pricing
func (h *PricingHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Get)
	r.Put("/", h.Update)
}

// Rates are percentages; omitted fields keep their current value.
type updatePricingRequest struct {
	TaxRate      *decimal.Decimal `json:"tax_rate"`
	ServiceRate  *decimal.Decimal `json:"service_rate"`
	DiscountRate *decimal.Decimal `json:"discount_rate"`
}

type pricingResponse struct {
	TaxRate      string `json:"tax_rate"`
	ServiceRate  string `json:"service_rate"`
	DiscountRate string `json:"discount_rate"`
}

func toPricingResponse(p ledger.Pricing) pricingResponse {
	return pricingResponse{
		TaxRate:      p.TaxRate.String(),
		ServiceRate:  p.ServiceRate.String(),
		DiscountRate: p.DiscountRate.String(),
	}
}

// Get handles GET /settings/pricing.
func (h *PricingHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toPricingResponse(h.ledger.Pricing()))
}

// Update handles PUT /settings/pricing.
func (h *PricingHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updatePricingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	p, err := h.ledger.UpdatePricing(func(p ledger.Pricing) ledger.Pricing {
		if req.TaxRate != nil {
			p.TaxRate = *req.TaxRate
		}
		if req.ServiceRate != nil {
			p.ServiceRate = *req.ServiceRate
		}
		if req.DiscountRate != nil {
			p.DiscountRate = *req.DiscountRate
		}
		return p
	})
	if err != nil {
		writeLedgerError(w, "update pricing", err)
		return
	}

	resp := toPricingResponse(p)
	notify(h.events, enum.EventPricingUpdated, ws.FloorRoom, resp)
	writeJSON(w, http.StatusOK, resp)
}
