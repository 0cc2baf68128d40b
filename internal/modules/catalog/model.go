package catalog

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrNotFound is returned when an item id is not in the catalog.
	ErrNotFound = errors.New("sweet not found")
	// ErrInvalidItem is returned when an item breaks the catalog invariants.
	ErrInvalidItem = errors.New("invalid sweet")
	// ErrAbandoned is returned by Load when its context ended before the
	// fetched catalog could be applied. The cache is left as it was.
	ErrAbandoned = errors.New("catalog load abandoned")
)

// LowStockThreshold is the quantity at or below which an in-stock item counts as running low.
const LowStockThreshold = 10

// Item is a sweet as last confirmed by the server.
type Item struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	CreatedAt string  `json:"created_at,omitempty"`
	UpdatedAt string  `json:"updated_at,omitempty"`
}

// Validate checks the invariants every cached item must hold.
func (i Item) Validate() error {
	if strings.TrimSpace(i.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidItem)
	}
	if math.IsNaN(i.Price) || math.IsInf(i.Price, 0) || i.Price < 0 {
		return fmt.Errorf("%w: %s has price %v", ErrInvalidItem, i.ID, i.Price)
	}
	if i.Quantity < 0 {
		return fmt.Errorf("%w: %s has negative quantity %d", ErrInvalidItem, i.ID, i.Quantity)
	}
	return nil
}

// InStock reports whether at least one unit can be bought.
func (i Item) InStock() bool { return i.Quantity > 0 }

// Draft is the body of a create request.
type Draft struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// Patch is a partial update; nil fields are left alone.
type Patch struct {
	Name     *string  `json:"name,omitempty"`
	Category *string  `json:"category,omitempty"`
	Price    *float64 `json:"price,omitempty"`
	Quantity *int     `json:"quantity,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Name == nil && p.Category == nil && p.Price == nil && p.Quantity == nil
}

// Filter narrows a catalog view. Nil bounds and category mean "any".
type Filter struct {
	Text     string
	Category *string
	MinPrice *float64
	MaxPrice *float64
}

// MutationKind names the confirmed change being reconciled into the cache.
type MutationKind string

const (
	MutationCreate   MutationKind = "create"
	MutationUpdate   MutationKind = "update"
	MutationDelete   MutationKind = "delete"
	MutationQuantity MutationKind = "quantity"
)

// Stats summarises stock levels for the admin dashboard.
type Stats struct {
	Total      int `json:"total"`
	InStock    int `json:"in_stock"`
	OutOfStock int `json:"out_of_stock"`
	LowStock   int `json:"low_stock"`
}
