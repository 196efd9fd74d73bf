package menu

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Errors returned when building a catalog.
var (
	ErrEmptyCatalog  = errors.New("catalog has no items")
	ErrDuplicateItem = errors.New("duplicate menu item id")
	ErrInvalidItemID = errors.New("menu item id must be > 0")
	ErrEmptyName     = errors.New("menu item name is required")
	ErrNegativePrice = errors.New("menu item price must be >= 0")
)

// Item is a catalog entry. Items are fixed at process start.
type Item struct {
	ID       int
	Name     string
	Price    decimal.Decimal
	Category string
}

// Catalog is the immutable menu offered by the restaurant.
type Catalog struct {
	items      []Item
	byID       map[int]Item
	categories []string
}

// NewCatalog validates items and returns a Catalog that preserves their order.
func NewCatalog(items []Item) (*Catalog, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Catalog{
		items: make([]Item, 0, len(items)),
		byID:  make(map[int]Item, len(items)),
	}
	seenCategory := make(map[string]bool)

	for i, item := range items {
		if item.ID <= 0 {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidItemID)
		}
		if strings.TrimSpace(item.Name) == "" {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrEmptyName)
		}
		if item.Price.IsNegative() {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrNegativePrice)
		}
		if _, exists := c.byID[item.ID]; exists {
			return nil, fmt.Errorf("item[%d] id %d: %w", i, item.ID, ErrDuplicateItem)
		}

		c.items = append(c.items, item)
		c.byID[item.ID] = item
		if !seenCategory[item.Category] {
			seenCategory[item.Category] = true
			c.categories = append(c.categories, item.Category)
		}
	}

	return c, nil
}

// Get looks up an item by id.
func (c *Catalog) Get(id int) (Item, bool) {
	item, ok := c.byID[id]
	return item, ok
}

// Items returns a copy of all items in catalog order.
func (c *Catalog) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Categories returns category labels in order of first appearance.
func (c *Catalog) Categories() []string {
	out := make([]string, len(c.categories))
	copy(out, c.categories)
	return out
}

// ByCategory returns the items of one category in catalog order.
func (c *Catalog) ByCategory(category string) []Item {
	var out []Item
	for _, item := range c.items {
		if item.Category == category {
			out = append(out, item)
		}
	}
	return out
}

// Len returns the number of items.
func (c *Catalog) Len() int {
	return len(c.items)
}
