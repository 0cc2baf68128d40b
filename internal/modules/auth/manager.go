package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/sirupsen/logrus"

	"github.com/georgemunganga/sweetshop/internal/modules/credential"
	"github.com/georgemunganga/sweetshop/internal/modules/remote"
	"github.com/georgemunganga/sweetshop/internal/modules/user"
)

var errTokenExpired = errors.New("stored token has expired")

type manager struct {
	api   remote.AuthAPI
	store CredentialStore
	log   logrus.FieldLogger
	now   func() time.Time

	initOnce sync.Once
	ready    chan struct{}

	mu      sync.RWMutex
	session Session
}

// Option configures a Manager.
type Option func(*manager)

// WithLogger sets the logger. The default is the logrus standard logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(m *manager) { m.log = l }
}

// WithClock replaces time.Now for token expiry checks.
func WithClock(now func() time.Time) Option {
	return func(m *manager) { m.now = now }
}

// NewManager creates a Manager. Nothing is read until Initialize is called.
func NewManager(api remote.AuthAPI, store CredentialStore, opts ...Option) Manager {
	m := &manager{
		api:   api,
		store: store,
		log:   logrus.StandardLogger(),
		now:   time.Now,
		ready: make(chan struct{}),
	}
	for _, o := range opts {
		o(m)
	}
	m.log = m.log.WithField("component", "session")
	return m
}

func (m *manager) Initialize(ctx context.Context) {
	m.initOnce.Do(func() {
		defer close(m.ready)
		sess := m.restore(ctx)
		sess.Initialized = true

		m.mu.Lock()
		m.session = sess
		m.mu.Unlock()
	})
}

func (m *manager) restore(ctx context.Context) Session {
	rec, err := m.store.Load(ctx)
	switch {
	case errors.Is(err, credential.ErrNotFound):
		return Session{}
	case errors.Is(err, credential.ErrCorrupt):
		m.log.WithError(err).Warn("discarding unreadable credentials")
		m.clearStore(ctx)
		return Session{}
	case err != nil:
		m.log.WithError(err).Warn("credential store unavailable, starting logged out")
		return Session{}
	}

	if m.expired(rec.Token) {
		m.log.WithField("user_id", rec.User.ID).Info("stored session expired")
		m.clearStore(ctx)
		return Session{}
	}
	u := rec.User
	m.log.WithFields(logrus.Fields{"user_id": u.ID, "role": u.Role}).Debug("session restored")
	return Session{Identity: &u, Token: rec.Token}
}

// expired only trusts the exp claim; the signature is the server's concern.
func (m *manager) expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return false
	}
	return !claims.VerifyExpiresAt(m.now().Unix(), false)
}

func (m *manager) Ready() <-chan struct{} { return m.ready }

func (m *manager) Login(ctx context.Context, email, password string) (*user.User, error) {
	m.Initialize(ctx)

	email = user.NormaliseEmail(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, invalid("login", errors.New("email and password are required"))
	}

	resp, err := m.api.Login(ctx, email, password)
	if err != nil {
		f := classify("login", err)
		m.log.WithError(err).WithField("reason", f.Reason).Warn("login failed")
		return nil, f
	}
	if f := checkResponse("login", resp.Token, resp.User); f != nil {
		m.log.WithError(f.Err).Warn("login failed")
		return nil, f
	}
	return m.establish(ctx, resp.Token, resp.User), nil
}

func (m *manager) Register(ctx context.Context, name, email, password, role string) (*user.User, error) {
	m.Initialize(ctx)

	reg, err := user.NewRegistration(name, email, password, role)
	if err != nil {
		return nil, invalid("register", err)
	}

	resp, err := m.api.Register(ctx, reg)
	if err != nil {
		f := classify("register", err)
		m.log.WithError(err).WithField("reason", f.Reason).Warn("registration failed")
		return nil, f
	}
	if f := checkResponse("register", resp.Token, resp.User); f != nil {
		m.log.WithError(f.Err).Warn("registration failed")
		return nil, f
	}
	return m.establish(ctx, resp.Token, resp.User), nil
}

// establish swaps in a new session and persists it. A failed write is
// logged; the login still holds for this run.
func (m *manager) establish(ctx context.Context, token string, u user.User) *user.User {
	m.mu.Lock()
	m.session = Session{Identity: &u, Token: token, Initialized: true}
	m.mu.Unlock()

	log := m.log.WithFields(logrus.Fields{"user_id": u.ID, "role": u.Role})
	if err := m.store.Save(ctx, credential.Record{Token: token, User: u}); err != nil {
		log.WithError(err).Warn("could not persist session")
	}
	log.Info("logged in")

	out := u
	return &out
}

func (m *manager) Logout(ctx context.Context) {
	m.mu.Lock()
	prev := m.session.Identity
	m.session = Session{Initialized: m.session.Initialized}
	m.mu.Unlock()

	m.clearStore(ctx)
	if prev != nil {
		m.log.WithField("user_id", prev.ID).Info("logged out")
	}
}

func (m *manager) clearStore(ctx context.Context) {
	if err := m.store.Clear(ctx); err != nil {
		m.log.WithError(err).Warn("could not clear stored credentials")
	}
}

func (m *manager) HasRole(role user.Role) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.Identity != nil && m.session.Identity.Role == role
}

// Snapshot returns a copy that later logins or logouts do not affect.
func (m *manager) Snapshot() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.session
	if s.Identity != nil {
		u := *s.Identity
		s.Identity = &u
	}
	return s
}

func (m *manager) Identity() *user.User {
	return m.Snapshot().Identity
}

func (m *manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.Token
}
