package stub

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"
)

type memoryAccounts struct {
	mu      sync.RWMutex
	byEmail map[string]*Account
}

// NewMemoryAccountRepository creates an empty account store.
func NewMemoryAccountRepository() AccountRepository {
	return &memoryAccounts{byEmail: make(map[string]*Account)}
}

func (r *memoryAccounts) CreateAccount(ctx context.Context, a *Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[a.Email]; ok {
		return ErrDuplicate
	}
	stored := *a
	r.byEmail[a.Email] = &stored
	return nil
}

func (r *memoryAccounts) GetAccountByEmail(ctx context.Context, email string) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	out := *a
	return &out, nil
}

type memorySweets struct {
	mu   sync.RWMutex
	byID map[string]*Sweet
	now  func() time.Time
}

// NewMemorySweetRepository creates an empty sweet store.
func NewMemorySweetRepository() SweetRepository {
	return &memorySweets{byID: make(map[string]*Sweet), now: time.Now}
}

func (r *memorySweets) nameTaken(name, except string) bool {
	for id, s := range r.byID {
		if id != except && s.Name == name {
			return true
		}
	}
	return false
}

func (r *memorySweets) CreateSweet(ctx context.Context, s *Sweet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.nameTaken(s.Name, "") {
		return ErrDuplicate
	}
	now := r.now()
	s.CreatedAt, s.UpdatedAt = now, now
	stored := *s
	r.byID[s.ID] = &stored
	return nil
}

func (r *memorySweets) GetSweet(ctx context.Context, id string) (*Sweet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *s
	return &out, nil
}

func (r *memorySweets) ListSweets(ctx context.Context) ([]Sweet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Sweet, 0, len(r.byID))
	for _, s := range r.byID {
		out = append(out, *s)
	}
	slices.SortFunc(out, func(a, b Sweet) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (r *memorySweets) UpdateSweet(ctx context.Context, s *Sweet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.byID[s.ID]
	if !ok {
		return ErrNotFound
	}
	if r.nameTaken(s.Name, s.ID) {
		return ErrDuplicate
	}
	s.CreatedAt = cur.CreatedAt
	s.UpdatedAt = r.now()
	stored := *s
	r.byID[s.ID] = &stored
	return nil
}

func (r *memorySweets) DeleteSweet(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *memorySweets) AdjustQuantity(ctx context.Context, id string, delta int) (*Sweet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	if s.Quantity+delta < 0 {
		return nil, &InsufficientStockError{Available: s.Quantity}
	}
	s.Quantity += delta
	s.UpdatedAt = r.now()
	out := *s
	return &out, nil
}
