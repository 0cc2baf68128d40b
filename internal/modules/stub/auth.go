package stub

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/georgemunganga/sweetshop/internal/modules/user"
)

// TokenTTL is how long an issued token stays valid.
const TokenTTL = 24 * time.Hour

// Claims are carried in every issued token.
type Claims struct {
	Email string    `json:"email"`
	Name  string    `json:"name"`
	Role  user.Role `json:"role"`
	jwt.StandardClaims
}

// AuthService issues tokens for registered accounts.
type AuthService interface {
	Register(ctx context.Context, reg user.Registration) (string, *Account, error)
	Login(ctx context.Context, email, password string) (string, *Account, error)
	Verify(token string) (*Claims, error)
}

type authService struct {
	accounts AccountRepository
	key      []byte
	now      func() time.Time
}

// NewAuthService creates an AuthService signing HS256 tokens with key.
func NewAuthService(accounts AccountRepository, key []byte) AuthService {
	return &authService{accounts: accounts, key: key, now: time.Now}
}

func (s *authService) Register(ctx context.Context, reg user.Registration) (string, *Account, error) {
	var missing []string
	if strings.TrimSpace(reg.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(reg.Email) == "" {
		missing = append(missing, "email")
	}
	if reg.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return "", nil, newError(http.StatusBadRequest, "Missing required fields: "+strings.Join(missing, ", "))
	}
	if reg.Role == "" {
		reg.Role = user.RoleCustomer
	}
	clean, err := user.NewRegistration(reg.Name, reg.Email, reg.Password, string(reg.Role))
	if err != nil {
		msg := err.Error()
		if errors.Is(err, user.ErrInvalidRole) {
			msg = `Role must be either "admin" or "customer"`
		}
		return "", nil, newError(http.StatusBadRequest, capitalise(msg))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(strings.TrimSpace(clean.Password)), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, err
	}
	acct := &Account{
		ID:           uuid.NewString(),
		Name:         clean.Name,
		Email:        clean.Email,
		PasswordHash: string(hash),
		Role:         clean.Role,
		CreatedAt:    s.now(),
	}
	if err := s.accounts.CreateAccount(ctx, acct); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return "", nil, newError(http.StatusBadRequest, "User already exists")
		}
		return "", nil, err
	}
	token, err := s.issue(acct)
	if err != nil {
		return "", nil, err
	}
	return token, acct, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (string, *Account, error) {
	email = user.NormaliseEmail(email)
	password = strings.TrimSpace(password)
	if email == "" || password == "" {
		return "", nil, newError(http.StatusBadRequest, "Missing email or password")
	}

	acct, err := s.accounts.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil, newError(http.StatusUnauthorized, "Invalid credentials")
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return "", nil, newError(http.StatusUnauthorized, "Invalid credentials")
	}

	token, err := s.issue(acct)
	if err != nil {
		return "", nil, err
	}
	return token, acct, nil
}

func (s *authService) issue(a *Account) (string, error) {
	now := s.now()
	claims := &Claims{
		Email: a.Email,
		Name:  a.Name,
		Role:  a.Role,
		StandardClaims: jwt.StandardClaims{
			Subject:   a.ID,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(TokenTTL).Unix(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
}

func (s *authService) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.key, nil
	})
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func capitalise(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
