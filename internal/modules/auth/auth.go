// Package auth owns the client's login session: restoring it at start-up,
// replacing it on login or registration and dropping it on logout.
package auth

import (
	"context"

	"github.com/georgemunganga/sweetshop/internal/modules/credential"
	"github.com/georgemunganga/sweetshop/internal/modules/user"
)

// Session is the current login. Token is non-empty exactly when Identity is set.
type Session struct {
	Identity    *user.User
	Token       string
	Initialized bool
}

// Authenticated reports whether s carries a usable identity.
func (s Session) Authenticated() bool {
	return s.Identity != nil && s.Token != ""
}

// Manager defines the session operations the rest of the client depends on.
type Manager interface {
	Initialize(ctx context.Context)
	Ready() <-chan struct{}
	Login(ctx context.Context, email, password string) (*user.User, error)
	Register(ctx context.Context, name, email, password, role string) (*user.User, error)
	Logout(ctx context.Context)
	HasRole(role user.Role) bool
	Snapshot() Session
	Identity() *user.User
	Token() string
}

// CredentialStore persists the session between runs.
type CredentialStore interface {
	Load(ctx context.Context) (*credential.Record, error)
	Save(ctx context.Context, rec credential.Record) error
	Clear(ctx context.Context) error
}
