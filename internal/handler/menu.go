package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tewans-kitchen/pos/internal/menu"
)

// MenuReader is satisfied by *menu.Catalog.
type MenuReader interface {
	Categories() []string
	ByCategory(category string) []menu.Item
}

// MenuHandler serves the catalog grouped by category.
type MenuHandler struct {
	catalog  MenuReader
	currency string
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(catalog MenuReader, currency string) *MenuHandler {
	return &MenuHandler{catalog: catalog, currency: currency}
}

// RegisterRoutes registers menu endpoints. Expected to be mounted at /menu
func (h *MenuHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
}

type menuItemResponse struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Category string `json:"category"`
}

type menuCategoryResponse struct {
	Name  string             `json:"name"`
	Items []menuItemResponse `json:"items"`
}

type menuResponse struct {
	Currency   string                 `json:"currency"`
	Categories []menuCategoryResponse `json:"categories"`
}

// List handles GET /menu.
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	categories := h.catalog.Categories()
	resp := menuResponse{
		Currency:   h.currency,
		Categories: make([]menuCategoryResponse, len(categories)),
	}
	for i, name := range categories {
		items := h.catalog.ByCategory(name)
		cat := menuCategoryResponse{Name: name, Items: make([]menuItemResponse, len(items))}
		for j, item := range items {
			cat.Items[j] = menuItemResponse{
				ID:       item.ID,
				Name:     item.Name,
				Price:    money(item.Price),
				Category: item.Category,
			}
		}
		resp.Categories[i] = cat
	}

	writeJSON(w, http.StatusOK, resp)
}
