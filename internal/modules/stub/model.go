// Package stub is an in-memory stand-in for the shop backend. It speaks the
// same REST contract and is used for local development and end-to-end tests.
package stub

import (
	"time"

	"github.com/georgemunganga/sweetshop/internal/modules/catalog"
	"github.com/georgemunganga/sweetshop/internal/modules/user"
)

// Account is a registered user as the backend stores it.
type Account struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         user.Role
	CreatedAt    time.Time
}

// Public strips the password hash.
func (a Account) Public() user.User {
	return user.User{
		ID:        a.ID,
		Name:      a.Name,
		Email:     a.Email,
		Role:      a.Role,
		CreatedAt: a.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// Sweet is a stored catalog entry.
type Sweet struct {
	ID        string
	Name      string
	Category  string
	Price     float64
	Quantity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Item converts s to the wire shape.
func (s Sweet) Item() catalog.Item {
	return catalog.Item{
		ID:        s.ID,
		Name:      s.Name,
		Category:  s.Category,
		Price:     s.Price,
		Quantity:  s.Quantity,
		CreatedAt: s.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: s.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// Error carries the HTTP status the handler should answer with.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(status int, msg string) *Error {
	return &Error{Status: status, Message: msg}
}
