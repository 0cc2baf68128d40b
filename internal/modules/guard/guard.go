// Package guard decides whether a navigation may proceed for the current session.
package guard

import (
	"context"
	"maps"
	"net/http"
	"path"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/sweetshop/internal/modules/auth"
	"github.com/georgemunganga/sweetshop/internal/modules/user"
)

// State is the outcome of a navigation check.
type State string

const (
	Pending State = "PENDING"
	Allowed State = "ALLOWED"
	Denied  State = "DENIED"
)

// Route paths.
const (
	PathHome              = "/"
	PathLogin             = "/login"
	PathRegister          = "/register/{role}"
	PathRegisterCustomer  = "/register/customer"
	PathCustomerDashboard = "/customer/dashboard"
	PathAdminDashboard    = "/admin/dashboard"
)

// aliases send a bare path to its canonical route.
var aliases = map[string]string{
	"/register": PathRegisterCustomer,
}

// Decision is what the front end acts on. Redirect is set only when State is Denied.
// Route is empty for paths no rule matches.
type Decision struct {
	State    State
	Path     string
	Route    string
	Redirect string
}

// Session is the part of the session manager the guard reads.
type Session interface {
	Ready() <-chan struct{}
	Snapshot() auth.Session
}

// Rule says who may visit a route. A nil Roles slice with Authenticated
// set admits any logged-in user.
type Rule struct {
	Authenticated bool
	Roles         []user.Role
}

// Guard checks navigations against a route table.
type Guard struct {
	session Session
	mux     *chi.Mux
	rules   map[string]Rule
}

// DefaultRules is the shop's route table.
func DefaultRules() map[string]Rule {
	return map[string]Rule{
		PathHome:              {},
		PathLogin:             {},
		PathRegister:          {},
		PathCustomerDashboard: {Authenticated: true},
		PathAdminDashboard:    {Authenticated: true, Roles: []user.Role{user.RoleAdmin}},
	}
}

// New builds a Guard over rules. Paths matching no rule are denied with a
// redirect to PathHome.
func New(session Session, rules map[string]Rule) *Guard {
	table := maps.Clone(rules)
	if table == nil {
		table = map[string]Rule{}
	}
	if _, ok := table[PathHome]; !ok {
		table[PathHome] = Rule{}
	}
	mux := chi.NewRouter()
	noop := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	for pattern := range table {
		mux.Get(pattern, noop)
	}
	return &Guard{session: session, mux: mux, rules: table}
}

// clean strips any query or fragment and reduces p to its canonical form,
// so "/admin//dashboard/?tab=stock" is "/admin/dashboard".
func clean(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	return path.Clean("/" + p)
}

// route returns the rule pattern matching p, or "" if none does.
func (g *Guard) route(p string) string {
	rctx := chi.NewRouteContext()
	if g.mux.Match(rctx, http.MethodGet, clean(p)) {
		return rctx.RoutePattern()
	}
	return ""
}

// Decide evaluates path without blocking. Before the session has been
// restored the answer is always Pending, never a redirect.
func (g *Guard) Decide(p string) Decision {
	route := g.route(p)
	d := Decision{Path: p, Route: route}

	select {
	case <-g.session.Ready():
	default:
		d.State = Pending
		return d
	}

	if to, ok := aliases[clean(p)]; ok && route == "" {
		d.State, d.Redirect = Denied, to
		return d
	}
	rule, ok := g.rules[route]
	if !ok {
		d.State, d.Redirect = Denied, PathHome
		return d
	}
	if !rule.Authenticated && len(rule.Roles) == 0 {
		d.State = Allowed
		return d
	}

	s := g.session.Snapshot()
	if !s.Authenticated() {
		d.State, d.Redirect = Denied, PathLogin
		return d
	}
	if len(rule.Roles) > 0 && !slices.Contains(rule.Roles, s.Identity.Role) {
		d.State, d.Redirect = Denied, Dashboard(s.Identity.Role)
		return d
	}
	d.State = Allowed
	return d
}

// Await blocks until the session is ready and then decides.
func (g *Guard) Await(ctx context.Context, p string) (Decision, error) {
	select {
	case <-g.session.Ready():
		return g.Decide(p), nil
	case <-ctx.Done():
		return Decision{State: Pending, Path: p, Route: g.route(p)}, ctx.Err()
	}
}

// Dashboard is the landing route for role.
func Dashboard(role user.Role) string {
	if role == user.RoleAdmin {
		return PathAdminDashboard
	}
	return PathCustomerDashboard
}

