package credential

import (
	"context"
	"sync"
)

type memoryRepo struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryRepository returns a Repository that lives as long as the process.
func NewMemoryRepository() Repository {
	return &memoryRepo{values: make(map[string]string)}
}

func (r *memoryRepo) Get(ctx context.Context, key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (r *memoryRepo) Put(ctx context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[key] = value
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.values, key)
	return nil
}
