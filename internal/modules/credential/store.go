package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/georgemunganga/sweetshop/internal/modules/user"
)

// Store is the single source of truth for who is logged in across restarts.
type Store struct {
	repo Repository
}

// NewStore wraps a Repository with the token/user record layout.
func NewStore(repo Repository) *Store {
	return &Store{repo: repo}
}

// Load returns the persisted record, ErrNotFound when nothing is stored, or
// ErrCorrupt when the stored values do not form a usable login.
func (s *Store) Load(ctx context.Context) (*Record, error) {
	token, tokenErr := s.repo.Get(ctx, KeyToken)
	raw, userErr := s.repo.Get(ctx, KeyUser)

	switch {
	case errors.Is(tokenErr, ErrNotFound) && errors.Is(userErr, ErrNotFound):
		return nil, ErrNotFound
	case tokenErr != nil && !errors.Is(tokenErr, ErrNotFound):
		return nil, fmt.Errorf("read %s: %w", KeyToken, tokenErr)
	case userErr != nil && !errors.Is(userErr, ErrNotFound):
		return nil, fmt.Errorf("read %s: %w", KeyUser, userErr)
	case tokenErr != nil || userErr != nil:
		return nil, fmt.Errorf("%w: token and user must be stored together", ErrCorrupt)
	}

	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("%w: empty token", ErrCorrupt)
	}
	var u user.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if err := u.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return &Record{Token: token, User: u}, nil
}

// Save persists rec, replacing whatever login was stored before.
func (s *Store) Save(ctx context.Context, rec Record) error {
	if strings.TrimSpace(rec.Token) == "" {
		return errors.New("credential: refusing to save an empty token")
	}
	if err := rec.User.Validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(rec.User)
	if err != nil {
		return err
	}
	if err := s.repo.Put(ctx, KeyUser, string(raw)); err != nil {
		return fmt.Errorf("write %s: %w", KeyUser, err)
	}
	if err := s.repo.Put(ctx, KeyToken, rec.Token); err != nil {
		// without a token the user entry is only half a login
		_ = s.repo.Delete(ctx, KeyUser)
		return fmt.Errorf("write %s: %w", KeyToken, err)
	}
	return nil
}

// Clear removes both keys. Both deletes are attempted even if the first fails.
func (s *Store) Clear(ctx context.Context) error {
	return errors.Join(
		s.repo.Delete(ctx, KeyToken),
		s.repo.Delete(ctx, KeyUser),
	)
}
