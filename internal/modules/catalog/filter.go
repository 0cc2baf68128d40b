package catalog

import (
	"errors"
	"strings"
)

var (
	ErrNegativePrice = errors.New("price bounds cannot be negative")
	ErrPriceRange    = errors.New("minimum price cannot be greater than maximum price")
)

// Match reports whether it satisfies every criterion set on f.
func (f Filter) Match(it Item) bool {
	if text := strings.TrimSpace(f.Text); text != "" {
		needle := strings.ToLower(text)
		if !strings.Contains(strings.ToLower(it.Name), needle) &&
			!strings.Contains(strings.ToLower(it.Category), needle) {
			return false
		}
	}
	if f.Category != nil && *f.Category != "" && it.Category != *f.Category {
		return false
	}
	if f.MinPrice != nil && it.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && it.Price > *f.MaxPrice {
		return false
	}
	return true
}

// Validate rejects price bounds the backend search would refuse.
func (f Filter) Validate() error {
	if (f.MinPrice != nil && *f.MinPrice < 0) || (f.MaxPrice != nil && *f.MaxPrice < 0) {
		return ErrNegativePrice
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return ErrPriceRange
	}
	return nil
}
