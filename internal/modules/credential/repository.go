package credential

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no value is stored under a key, or no login is persisted.
	ErrNotFound = errors.New("credential not found")
	// ErrCorrupt is returned when persisted values cannot be turned back into a Record.
	ErrCorrupt = errors.New("stored credentials are corrupt")
)

// Repository is the durable key-value substrate behind the credential store.
type Repository interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
