package user

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Role is one of the two account roles the shop knows about.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// MinPasswordLength mirrors the backend's registration rule.
const MinPasswordLength = 6

var (
	ErrInvalidRole      = errors.New(`role must be either "admin" or "customer"`)
	ErrInvalidEmail     = errors.New("invalid email format")
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrMissingName      = errors.New("name is required")
	ErrInvalidIdentity  = errors.New("invalid identity")
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ParseRole normalises s and rejects anything outside the closed set.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", ErrInvalidRole
	}
	return r, nil
}

func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleAdmin
}

func (r Role) String() string { return string(r) }

// User is the identity the backend returns alongside a bearer token.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Validate reports whether u can be held by a session.
func (u User) Validate() error {
	if strings.TrimSpace(u.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidIdentity)
	}
	if !u.Role.Valid() {
		return fmt.Errorf("%w: role %q", ErrInvalidIdentity, u.Role)
	}
	return nil
}

// Registration holds the fields sent to POST /auth/register.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

// NormaliseEmail trims and lower-cases an address the way the backend stores it.
func NormaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail applies the backend's address pattern.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// NewRegistration cleans the raw form values and checks them before anything is sent.
func NewRegistration(name, email, password, role string) (Registration, error) {
	r, err := ParseRole(role)
	if err != nil {
		return Registration{}, err
	}
	reg := Registration{
		Name:     strings.TrimSpace(name),
		Email:    NormaliseEmail(email),
		Password: password,
		Role:     r,
	}
	if reg.Name == "" {
		return Registration{}, ErrMissingName
	}
	if !ValidEmail(reg.Email) {
		return Registration{}, ErrInvalidEmail
	}
	if len(strings.TrimSpace(reg.Password)) < MinPasswordLength {
		return Registration{}, ErrPasswordTooShort
	}
	return reg, nil
}
