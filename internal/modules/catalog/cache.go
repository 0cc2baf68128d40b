package catalog

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"strings"
	"sync"
)

// Source is anything that can return the full item set, normally the remote sweets API.
type Source interface {
	List(ctx context.Context) ([]Item, error)
}

// Cache holds the last confirmed catalog. Writes land in completion order, so
// when a load and a mutation confirmation race, whichever finishes last wins.
type Cache struct {
	mu      sync.RWMutex
	items   []Item
	index   map[string]int
	loaded  bool
	loadErr error
	version uint64
}

func NewCache() *Cache {
	return &Cache{index: make(map[string]int)}
}

// Load fetches the full set from src and swaps it in. On failure the previous
// catalog stays and the error is kept in LoadErr. If ctx is done by the time
// src answers, the answer is dropped and LoadErr is not touched.
func (c *Cache) Load(ctx context.Context, src Source) error {
	items, err := src.List(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %w", ErrAbandoned, ctxErr)
	}
	if err != nil {
		c.SetLoadErr(err)
		return err
	}
	return c.Replace(items)
}

// Replace swaps the whole catalog for items, or nothing at all if any item is invalid.
func (c *Cache) Replace(items []Item) error {
	next := make([]Item, 0, len(items))
	index := make(map[string]int, len(items))
	for _, it := range items {
		if err := it.Validate(); err != nil {
			c.SetLoadErr(err)
			return err
		}
		if _, dup := index[it.ID]; dup {
			err := fmt.Errorf("%w: duplicate id %s", ErrInvalidItem, it.ID)
			c.SetLoadErr(err)
			return err
		}
		index[it.ID] = len(next)
		next = append(next, it)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = next
	c.index = index
	c.loaded = true
	c.loadErr = nil
	c.version++
	return nil
}

// SetLoadErr records a failed fetch without touching the items.
func (c *Cache) SetLoadErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadErr = err
}

// LoadErr is the error of the most recent failed load, cleared by the next successful one.
func (c *Cache) LoadErr() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadErr
}

// Loaded reports whether at least one load has succeeded.
func (c *Cache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Version increases on every successful replace or apply.
func (c *Cache) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Apply reconciles one server-confirmed mutation. Create appends, delete
// removes, update and quantity changes replace in place. An update for an id
// the cache has never seen is appended, since the server has it.
func (c *Cache) Apply(kind MutationKind, item Item) error {
	if kind != MutationDelete {
		if err := item.Validate(); err != nil {
			return err
		}
	} else if strings.TrimSpace(item.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidItem)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	pos, exists := c.index[item.ID]
	switch kind {
	case MutationCreate, MutationUpdate, MutationQuantity:
		if exists {
			c.items[pos] = item
		} else {
			c.index[item.ID] = len(c.items)
			c.items = append(c.items, item)
		}
	case MutationDelete:
		if !exists {
			return nil
		}
		c.items = slices.Delete(c.items, pos, pos+1)
		for i := pos; i < len(c.items); i++ {
			c.index[c.items[i].ID] = i
		}
		delete(c.index, item.ID)
	default:
		return fmt.Errorf("catalog: unknown mutation kind %q", kind)
	}
	c.version++
	return nil
}

// Get returns the cached item with the given id.
func (c *Cache) Get(id string) (Item, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	pos, ok := c.index[id]
	if !ok {
		return Item{}, ErrNotFound
	}
	return c.items[pos], nil
}

// Items returns a copy of the catalog in server order.
func (c *Cache) Items() []Item {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.items)
}

// Len is the number of cached items.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Project yields the items matching f. Each range over the sequence starts
// from a fresh snapshot, so it can be restarted and never sees a half-applied
// write; nothing about the result is remembered between calls.
func (c *Cache) Project(f Filter) iter.Seq[Item] {
	return func(yield func(Item) bool) {
		for _, it := range c.Items() {
			if !f.Match(it) {
				continue
			}
			if !yield(it) {
				return
			}
		}
	}
}

// Categories lists distinct categories in first-seen order.
func (c *Cache) Categories() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	seen := make(map[string]struct{})
	var out []string
	for _, it := range c.items {
		if _, ok := seen[it.Category]; ok {
			continue
		}
		seen[it.Category] = struct{}{}
		out = append(out, it.Category)
	}
	return out
}

func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := Stats{Total: len(c.items)}
	for _, it := range c.items {
		if !it.InStock() {
			s.OutOfStock++
			continue
		}
		s.InStock++
		if it.Quantity <= LowStockThreshold {
			s.LowStock++
		}
	}
	return s
}
