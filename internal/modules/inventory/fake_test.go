package inventory

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/georgemunganga/sweetshop/internal/modules/auth"
	"github.com/georgemunganga/sweetshop/internal/modules/catalog"
	"github.com/georgemunganga/sweetshop/internal/modules/remote"
	"github.com/georgemunganga/sweetshop/internal/modules/user"
)

// fakeAPI behaves like the shop backend over an in-memory item list.
type fakeAPI struct {
	mu     sync.Mutex
	items  []catalog.Item
	nextID int
	calls  map[string]int

	gate    chan struct{}
	entered chan struct{}
	fail    error
}

func newFakeAPI(items ...catalog.Item) *fakeAPI {
	return &fakeAPI{items: items, calls: map[string]int{}, entered: make(chan struct{}, 16)}
}

func (f *fakeAPI) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

// enter records the call and, when a gate is set, blocks until it opens.
func (f *fakeAPI) enter(ctx context.Context, name string) error {
	f.mu.Lock()
	f.calls[name]++
	gate, fail := f.gate, f.fail
	f.mu.Unlock()

	select {
	case f.entered <- struct{}{}:
	default:
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return &remote.NetworkError{Method: "POST", Path: "/" + name, Err: ctx.Err()}
		}
	}
	return fail
}

func (f *fakeAPI) find(id string) int {
	return slices.IndexFunc(f.items, func(it catalog.Item) bool { return it.ID == id })
}

func notFound(path string) error {
	return &remote.APIError{Method: "POST", Path: path, Status: http.StatusNotFound, Message: "Sweet not found"}
}

func (f *fakeAPI) List(ctx context.Context) ([]catalog.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["list"]++
	return slices.Clone(f.items), nil
}

func (f *fakeAPI) Search(ctx context.Context, flt catalog.Filter) ([]catalog.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["search"]++
	var out []catalog.Item
	for _, it := range f.items {
		if flt.Match(it) {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeAPI) Create(ctx context.Context, d catalog.Draft) (catalog.Item, error) {
	if err := f.enter(ctx, "create"); err != nil {
		return catalog.Item{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, it := range f.items {
		if strings.EqualFold(it.Name, d.Name) {
			return catalog.Item{}, &remote.APIError{Status: http.StatusBadRequest, Message: "Sweet with this name already exists"}
		}
	}
	f.nextID++
	it := catalog.Item{ID: fmt.Sprintf("srv-%d", f.nextID), Name: d.Name, Category: d.Category, Price: d.Price, Quantity: d.Quantity}
	f.items = append(f.items, it)
	return it, nil
}

func (f *fakeAPI) Update(ctx context.Context, id string, p catalog.Patch) (catalog.Item, error) {
	if err := f.enter(ctx, "update"); err != nil {
		return catalog.Item{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.find(id)
	if i < 0 {
		return catalog.Item{}, notFound("/sweets/" + id)
	}
	it := &f.items[i]
	if p.Name != nil {
		it.Name = *p.Name
	}
	if p.Category != nil {
		it.Category = *p.Category
	}
	if p.Price != nil {
		it.Price = *p.Price
	}
	if p.Quantity != nil {
		it.Quantity = *p.Quantity
	}
	return *it, nil
}

func (f *fakeAPI) Delete(ctx context.Context, id string) error {
	if err := f.enter(ctx, "delete"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.find(id)
	if i < 0 {
		return notFound("/sweets/" + id)
	}
	f.items = slices.Delete(f.items, i, i+1)
	return nil
}

func (f *fakeAPI) Purchase(ctx context.Context, id string, qty int) (catalog.Item, error) {
	if err := f.enter(ctx, "purchase"); err != nil {
		return catalog.Item{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.find(id)
	if i < 0 {
		return catalog.Item{}, notFound("/sweets/" + id + "/purchase")
	}
	if f.items[i].Quantity < qty {
		return catalog.Item{}, &remote.APIError{Status: http.StatusBadRequest, Message: fmt.Sprintf("Not enough stock. Available: %d", f.items[i].Quantity)}
	}
	f.items[i].Quantity -= qty
	return f.items[i], nil
}

func (f *fakeAPI) Restock(ctx context.Context, id string, qty int) (catalog.Item, error) {
	if err := f.enter(ctx, "restock"); err != nil {
		return catalog.Item{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.find(id)
	if i < 0 {
		return catalog.Item{}, notFound("/sweets/" + id + "/restock")
	}
	f.items[i].Quantity += qty
	return f.items[i], nil
}

func (f *fakeAPI) setGate(gate chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = gate
}

func (f *fakeAPI) setFail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = err
}

// setQuantity changes stock behind the client's back.
func (f *fakeAPI) setQuantity(id string, qty int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[f.find(id)].Quantity = qty
}

type staticSession struct{ s auth.Session }

func (s staticSession) Snapshot() auth.Session { return s.s }

func sessionAs(role user.Role) staticSession {
	if role == "" {
		return staticSession{s: auth.Session{Initialized: true}}
	}
	return staticSession{s: auth.Session{
		Initialized: true,
		Token:       "tok",
		Identity:    &user.User{ID: "u-1", Name: "Amy", Email: "amy@x.com", Role: role},
	}}
}
