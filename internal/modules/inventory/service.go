// Package inventory runs catalog mutations against the server and reconciles
// confirmed results into the local catalog cache.
package inventory

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/georgemunganga/sweetshop/internal/modules/auth"
	"github.com/georgemunganga/sweetshop/internal/modules/catalog"
	"github.com/georgemunganga/sweetshop/internal/modules/remote"
	"github.com/georgemunganga/sweetshop/internal/modules/user"
)

// Op names an orchestrated operation.
type Op string

const (
	OpLoad     Op = "load"
	OpSearch   Op = "search"
	OpCreate   Op = "create"
	OpUpdate   Op = "update"
	OpRemove   Op = "delete"
	OpPurchase Op = "purchase"
	OpRestock  Op = "restock"
)

// DefaultTimeout bounds a server call when no other timeout is configured.
const DefaultTimeout = 10 * time.Second

// Orchestrator defines the catalog operations offered to the front end.
// Every error it returns is an *Error.
type Orchestrator interface {
	Load(ctx context.Context) error
	Search(ctx context.Context, f catalog.Filter) ([]catalog.Item, error)
	Create(ctx context.Context, d catalog.Draft) (catalog.Item, error)
	Update(ctx context.Context, id string, p catalog.Patch) (catalog.Item, error)
	Remove(ctx context.Context, id string) error
	Purchase(ctx context.Context, id string, qty int) (catalog.Item, error)
	Restock(ctx context.Context, id string, qty int) (catalog.Item, error)
	// Status reports the request state for an item and op. Creates are
	// tracked under the draft name.
	Status(target string, op Op) State
}

// Session is the part of the session manager the orchestrator reads.
type Session interface {
	Snapshot() auth.Session
}

type orchestrator struct {
	api     remote.SweetAPI
	cache   *catalog.Cache
	session Session
	log     logrus.FieldLogger
	timeout time.Duration
	metrics *metrics
	slots   *slots
	reg     prometheus.Registerer
}

// Option configures an Orchestrator.
type Option func(*orchestrator)

// WithTimeout bounds every server call.
func WithTimeout(d time.Duration) Option {
	return func(o *orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *orchestrator) { o.log = l }
}

// WithRegisterer registers the orchestrator's metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *orchestrator) { o.reg = reg }
}

// NewOrchestrator creates an Orchestrator that reconciles into cache.
func NewOrchestrator(api remote.SweetAPI, cache *catalog.Cache, session Session, opts ...Option) Orchestrator {
	o := &orchestrator{
		api:     api,
		cache:   cache,
		session: session,
		log:     logrus.StandardLogger(),
		timeout: DefaultTimeout,
		slots:   newSlots(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.metrics = newMetrics(o.reg)
	o.log = o.log.WithField("component", "inventory")
	return o
}

func (o *orchestrator) Status(target string, op Op) State {
	if op == OpCreate {
		target = draftKey(target)
	}
	return o.slots.get(slotKey{target: target, op: op})
}

func (o *orchestrator) Load(view context.Context) error {
	ctx, cancel := context.WithTimeout(view, o.timeout)
	defer cancel()
	if err := o.cache.Load(ctx, o.api); err != nil {
		if view.Err() != nil {
			return o.reject(&Error{Op: OpLoad, Kind: KindUnknown, Message: ErrViewClosed.Error(),
				Err: fmt.Errorf("%w: %w", ErrViewClosed, err)})
		}
		e := classify(OpLoad, "", err)
		o.log.WithError(err).WithField("kind", e.Kind).Warn("catalog load failed")
		return e
	}
	o.log.WithField("items", o.cache.Len()).Debug("catalog loaded")
	return nil
}

func (o *orchestrator) Search(ctx context.Context, f catalog.Filter) ([]catalog.Item, error) {
	if err := f.Validate(); err != nil {
		return nil, o.reject(validation(OpSearch, "", err.Error()))
	}
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	items, err := o.api.Search(ctx, f)
	if err != nil {
		return nil, o.reject(classify(OpSearch, "", err))
	}
	return items, nil
}

func (o *orchestrator) Create(ctx context.Context, d catalog.Draft) (catalog.Item, error) {
	if e := o.requireRole(OpCreate, "", user.RoleAdmin); e != nil {
		return catalog.Item{}, o.reject(e)
	}
	d, e := normaliseDraft(d)
	if e != nil {
		return catalog.Item{}, o.reject(e)
	}
	return o.mutate(ctx, OpCreate, "", draftKey(d.Name), catalog.MutationCreate,
		func(ctx context.Context) (catalog.Item, error) { return o.api.Create(ctx, d) })
}

func (o *orchestrator) Update(ctx context.Context, id string, p catalog.Patch) (catalog.Item, error) {
	if e := o.requireRole(OpUpdate, id, user.RoleAdmin); e != nil {
		return catalog.Item{}, o.reject(e)
	}
	p, e := normalisePatch(id, p)
	if e != nil {
		return catalog.Item{}, o.reject(e)
	}
	return o.mutate(ctx, OpUpdate, id, id, catalog.MutationUpdate,
		func(ctx context.Context) (catalog.Item, error) { return o.api.Update(ctx, id, p) })
}

func (o *orchestrator) Remove(ctx context.Context, id string) error {
	if e := o.requireRole(OpRemove, id, user.RoleAdmin); e != nil {
		return o.reject(e)
	}
	_, err := o.mutate(ctx, OpRemove, id, id, catalog.MutationDelete,
		func(ctx context.Context) (catalog.Item, error) {
			return catalog.Item{ID: id}, o.api.Delete(ctx, id)
		})
	return err
}

func (o *orchestrator) Purchase(ctx context.Context, id string, qty int) (catalog.Item, error) {
	if e := o.requireRole(OpPurchase, id); e != nil {
		return catalog.Item{}, o.reject(e)
	}
	if qty <= 0 {
		return catalog.Item{}, o.reject(validation(OpPurchase, id, "quantity must be greater than 0"))
	}
	it, err := o.cache.Get(id)
	if err != nil {
		return catalog.Item{}, o.reject(validation(OpPurchase, id, "sweet not found"))
	}
	if it.Quantity < qty {
		return catalog.Item{}, o.reject(validation(OpPurchase, id,
			fmt.Sprintf("insufficient stock: %d available", it.Quantity)))
	}
	return o.mutate(ctx, OpPurchase, id, id, catalog.MutationQuantity,
		func(ctx context.Context) (catalog.Item, error) { return o.api.Purchase(ctx, id, qty) })
}

func (o *orchestrator) Restock(ctx context.Context, id string, qty int) (catalog.Item, error) {
	if e := o.requireRole(OpRestock, id, user.RoleAdmin); e != nil {
		return catalog.Item{}, o.reject(e)
	}
	if qty <= 0 {
		return catalog.Item{}, o.reject(validation(OpRestock, id, "quantity must be greater than 0"))
	}
	return o.mutate(ctx, OpRestock, id, id, catalog.MutationQuantity,
		func(ctx context.Context) (catalog.Item, error) { return o.api.Restock(ctx, id, qty) })
}

// requireRole checks the session locally. With no roles any logged-in user passes.
func (o *orchestrator) requireRole(op Op, id string, roles ...user.Role) *Error {
	s := o.session.Snapshot()
	if !s.Authenticated() {
		return denied(op, id, "login required")
	}
	if len(roles) == 0 || slices.Contains(roles, s.Identity.Role) {
		return nil
	}
	return denied(op, id, "admin access required")
}

func (o *orchestrator) reject(e *Error) *Error {
	o.log.WithFields(logrus.Fields{"op": e.Op, "item_id": e.ItemID, "kind": e.Kind}).Warn(e.Message)
	return e
}

type callResult struct {
	item catalog.Item
	err  error
}

// mutate runs call with the (target, op) slot held. The call is detached
// from view cancellation but bounded by the timeout. If the view closes
// first, the result is dropped when it arrives and the slot is released then.
func (o *orchestrator) mutate(view context.Context, op Op, id, target string, kind catalog.MutationKind, call func(context.Context) (catalog.Item, error)) (catalog.Item, error) {
	k := slotKey{target: target, op: op}
	if !o.slots.acquire(k) {
		o.metrics.observe(op, outcomeBusy)
		return catalog.Item{}, o.reject(&Error{Op: op, Kind: KindBusy, ItemID: id, Message: "request already in progress"})
	}
	o.metrics.inflight.Inc()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(view), o.timeout)
	results := make(chan callResult, 1)
	go func() {
		item, err := call(ctx)
		results <- callResult{item: item, err: err}
	}()

	select {
	case r := <-results:
		cancel()
		return o.settle(view, op, id, k, kind, r)
	case <-view.Done():
		go func() {
			r := <-results
			cancel()
			o.metrics.observe(op, outcomeDiscarded)
			o.log.WithFields(logrus.Fields{"op": op, "item_id": id}).WithError(r.err).Info("dropped response for closed view")
			o.finish(k, r.err)
		}()
		return catalog.Item{}, o.reject(&Error{Op: op, Kind: KindUnknown, ItemID: id, Message: ErrViewClosed.Error(), Err: ErrViewClosed})
	}
}

func (o *orchestrator) finish(k slotKey, err error) {
	state := StateConfirmed
	if err != nil {
		state = StateRejected
	}
	o.slots.release(k, state)
	o.metrics.inflight.Dec()
}

func (o *orchestrator) settle(view context.Context, op Op, id string, k slotKey, kind catalog.MutationKind, r callResult) (catalog.Item, error) {
	if r.err != nil {
		o.finish(k, r.err)
		o.metrics.observe(op, outcomeRejected)
		e := o.reject(classify(op, id, r.err))
		if e.Kind == KindStockConflict {
			o.resync(view)
		}
		return catalog.Item{}, e
	}

	if err := o.cache.Apply(kind, r.item); err != nil {
		o.finish(k, err)
		o.metrics.observe(op, outcomeRejected)
		e := o.reject(&Error{Op: op, Kind: KindUnknown, ItemID: id, Message: "server returned an unusable sweet", Err: err})
		o.resync(view)
		return catalog.Item{}, e
	}
	o.finish(k, nil)
	o.metrics.observe(op, outcomeConfirmed)
	o.log.WithFields(logrus.Fields{"op": op, "item_id": r.item.ID}).Info("mutation confirmed")
	return r.item, nil
}

// resync reloads after the server disagreed with the local catalog.
func (o *orchestrator) resync(view context.Context) {
	if err := o.Load(context.WithoutCancel(view)); err != nil {
		o.log.WithError(err).Warn("catalog resync failed")
	}
}
