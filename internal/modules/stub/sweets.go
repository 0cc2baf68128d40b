package stub

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/georgemunganga/sweetshop/internal/modules/catalog"
)

// SweetUpdate is a partial update. Nil fields are left alone.
type SweetUpdate struct {
	Name     *string  `json:"name"`
	Category *string  `json:"category"`
	Price    *float64 `json:"price"`
	Quantity *int     `json:"quantity"`
}

// SweetService holds the stock rules of the backend.
type SweetService interface {
	Create(ctx context.Context, d catalog.Draft) (*Sweet, error)
	List(ctx context.Context) ([]Sweet, error)
	Search(ctx context.Context, f catalog.Filter) ([]Sweet, error)
	Update(ctx context.Context, id string, u SweetUpdate) (*Sweet, error)
	Delete(ctx context.Context, id string) error
	Purchase(ctx context.Context, id string, qty int) (*Sweet, error)
	Restock(ctx context.Context, id string, qty int) (*Sweet, error)
}

type sweetService struct {
	repo SweetRepository
}

// NewSweetService creates a SweetService over repo.
func NewSweetService(repo SweetRepository) SweetService {
	return &sweetService{repo: repo}
}

var errSweetNotFound = newError(http.StatusNotFound, "Sweet not found")

func (s *sweetService) Create(ctx context.Context, d catalog.Draft) (*Sweet, error) {
	name, category := strings.TrimSpace(d.Name), strings.TrimSpace(d.Category)
	switch {
	case name == "":
		return nil, newError(http.StatusBadRequest, "Missing required field: name")
	case category == "":
		return nil, newError(http.StatusBadRequest, "Missing required field: category")
	case d.Price == 0:
		return nil, newError(http.StatusBadRequest, "Missing required field: price")
	case d.Price < 0:
		return nil, newError(http.StatusBadRequest, "Price must be greater than 0")
	case d.Quantity < 0:
		return nil, newError(http.StatusBadRequest, "Quantity cannot be negative")
	}

	sw := &Sweet{ID: uuid.NewString(), Name: name, Category: category, Price: d.Price, Quantity: d.Quantity}
	if err := s.repo.CreateSweet(ctx, sw); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, newError(http.StatusBadRequest, "Sweet with this name already exists")
		}
		return nil, err
	}
	return sw, nil
}

func (s *sweetService) List(ctx context.Context) ([]Sweet, error) {
	return s.repo.ListSweets(ctx)
}

// Search matches name and category as case-insensitive substrings, both
// of which must hold when given, and applies the price bounds.
func (s *sweetService) Search(ctx context.Context, f catalog.Filter) ([]Sweet, error) {
	if f.MinPrice != nil && *f.MinPrice < 0 {
		return nil, newError(http.StatusBadRequest, "Minimum price cannot be negative")
	}
	if f.MaxPrice != nil && *f.MaxPrice < 0 {
		return nil, newError(http.StatusBadRequest, "Maximum price cannot be negative")
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return nil, newError(http.StatusBadRequest, "Minimum price cannot be greater than maximum price")
	}

	all, err := s.repo.ListSweets(ctx)
	if err != nil {
		return nil, err
	}
	name := strings.ToLower(strings.TrimSpace(f.Text))
	category := ""
	if f.Category != nil {
		category = strings.ToLower(strings.TrimSpace(*f.Category))
	}
	out := make([]Sweet, 0, len(all))
	for _, sw := range all {
		if name != "" && !strings.Contains(strings.ToLower(sw.Name), name) {
			continue
		}
		if category != "" && !strings.Contains(strings.ToLower(sw.Category), category) {
			continue
		}
		if f.MinPrice != nil && sw.Price < *f.MinPrice {
			continue
		}
		if f.MaxPrice != nil && sw.Price > *f.MaxPrice {
			continue
		}
		out = append(out, sw)
	}
	return out, nil
}

func (s *sweetService) Update(ctx context.Context, id string, u SweetUpdate) (*Sweet, error) {
	sw, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Name != nil && strings.TrimSpace(*u.Name) != "" {
		sw.Name = strings.TrimSpace(*u.Name)
	}
	if u.Category != nil && strings.TrimSpace(*u.Category) != "" {
		sw.Category = strings.TrimSpace(*u.Category)
	}
	if u.Price != nil {
		if *u.Price <= 0 {
			return nil, newError(http.StatusBadRequest, "Price must be greater than 0")
		}
		sw.Price = *u.Price
	}
	if u.Quantity != nil {
		if *u.Quantity < 0 {
			return nil, newError(http.StatusBadRequest, "Quantity cannot be negative")
		}
		sw.Quantity = *u.Quantity
	}

	if err := s.repo.UpdateSweet(ctx, sw); err != nil {
		switch {
		case errors.Is(err, ErrDuplicate):
			return nil, newError(http.StatusBadRequest, "Sweet with this name already exists")
		case errors.Is(err, ErrNotFound):
			return nil, errSweetNotFound
		}
		return nil, err
	}
	return sw, nil
}

func (s *sweetService) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteSweet(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return errSweetNotFound
		}
		return err
	}
	return nil
}

func (s *sweetService) Purchase(ctx context.Context, id string, qty int) (*Sweet, error) {
	if qty <= 0 {
		return nil, newError(http.StatusBadRequest, "Quantity must be greater than 0")
	}
	return s.adjust(ctx, id, -qty)
}

func (s *sweetService) Restock(ctx context.Context, id string, qty int) (*Sweet, error) {
	if qty <= 0 {
		return nil, newError(http.StatusBadRequest, "Quantity must be greater than 0")
	}
	return s.adjust(ctx, id, qty)
}

func (s *sweetService) adjust(ctx context.Context, id string, delta int) (*Sweet, error) {
	sw, err := s.repo.AdjustQuantity(ctx, id, delta)
	if err != nil {
		var short *InsufficientStockError
		switch {
		case errors.As(err, &short):
			return nil, newError(http.StatusBadRequest, fmt.Sprintf("Not enough stock. Available: %d", short.Available))
		case errors.Is(err, ErrNotFound):
			return nil, errSweetNotFound
		}
		return nil, err
	}
	return sw, nil
}

func (s *sweetService) get(ctx context.Context, id string) (*Sweet, error) {
	sw, err := s.repo.GetSweet(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, errSweetNotFound
		}
		return nil, err
	}
	return sw, nil
}
