package stub

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
)

// InsufficientStockError is returned when a change would take stock below zero.
type InsufficientStockError struct {
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock: %d available", e.Available)
}

// AccountRepository stores accounts keyed by id and by email.
type AccountRepository interface {
	CreateAccount(ctx context.Context, a *Account) error
	GetAccountByEmail(ctx context.Context, email string) (*Account, error)
}

// SweetRepository stores sweets. List results are sorted by name.
type SweetRepository interface {
	CreateSweet(ctx context.Context, s *Sweet) error
	GetSweet(ctx context.Context, id string) (*Sweet, error)
	ListSweets(ctx context.Context) ([]Sweet, error)
	UpdateSweet(ctx context.Context, s *Sweet) error
	DeleteSweet(ctx context.Context, id string) error
	// AdjustQuantity adds delta to the stock of id. It fails without
	// changing anything if the result would be negative.
	AdjustQuantity(ctx context.Context, id string, delta int) (*Sweet, error)
}
