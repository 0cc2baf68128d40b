package remote

import (
	"context"
	"net/http"

	"github.com/georgemunganga/sweetshop/internal/modules/user"
)

// AuthResponse is what login and register return on success.
type AuthResponse struct {
	Message string    `json:"message,omitempty"`
	Token   string    `json:"token"`
	User    user.User `json:"user"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthAPI wraps the /auth endpoints.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*AuthResponse, error)
	Register(ctx context.Context, reg user.Registration) (*AuthResponse, error)
}

type authAPI struct{ c *Client }

// Auth returns the /auth wrapper bound to c.
func (c *Client) Auth() AuthAPI { return authAPI{c: c} }

func (a authAPI) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	if err := a.c.do(ctx, http.MethodPost, "/auth/login", "", loginRequest{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a authAPI) Register(ctx context.Context, reg user.Registration) (*AuthResponse, error) {
	var out AuthResponse
	if err := a.c.do(ctx, http.MethodPost, "/auth/register", "", reg, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
