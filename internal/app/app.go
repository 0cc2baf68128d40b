// Package app assembles the client from configuration.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/georgemunganga/sweetshop/internal/config"
	"github.com/georgemunganga/sweetshop/internal/modules/auth"
	"github.com/georgemunganga/sweetshop/internal/modules/catalog"
	"github.com/georgemunganga/sweetshop/internal/modules/credential"
	"github.com/georgemunganga/sweetshop/internal/modules/guard"
	"github.com/georgemunganga/sweetshop/internal/modules/inventory"
	"github.com/georgemunganga/sweetshop/internal/modules/remote"
)

// App holds the wired client. Close releases the credential store.
type App struct {
	Session   auth.Manager
	Catalog   *catalog.Cache
	Inventory inventory.Orchestrator
	Guard     *guard.Guard
	Registry  *prometheus.Registry

	db *sql.DB
}

// Options tweaks New for tests and tools.
type Options struct {
	HTTPClient *http.Client
	Logger     logrus.FieldLogger
}

// New opens the credential store named by cfg and wires every part of the client.
// The session is not initialised yet.
func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	repo, db, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	clientOpts := []remote.Option{
		remote.WithTimeout(cfg.RequestTimeout),
		remote.WithRateLimit(cfg.RateLimit, cfg.RateBurst),
		remote.WithLogger(log),
	}
	if opts.HTTPClient != nil {
		clientOpts = append([]remote.Option{remote.WithHTTPClient(opts.HTTPClient)}, clientOpts...)
	}
	client := remote.New(cfg.APIURL, clientOpts...)

	session := auth.NewManager(client.Auth(), credential.NewStore(repo), auth.WithLogger(log))
	cache := catalog.NewCache()
	reg := prometheus.NewRegistry()
	orch := inventory.NewOrchestrator(client.Sweets(session), cache, session,
		inventory.WithTimeout(cfg.RequestTimeout),
		inventory.WithLogger(log),
		inventory.WithRegisterer(reg),
	)

	return &App{
		Session:   session,
		Catalog:   cache,
		Inventory: orch,
		Guard:     guard.New(session, guard.DefaultRules()),
		Registry:  reg,
		db:        db,
	}, nil
}

// Close releases the store connection, if any.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// OpenStore returns the credential repository for cfg.StoreDriver and the
// database handle backing it, which is nil for the memory driver.
func OpenStore(ctx context.Context, cfg config.Config) (credential.Repository, *sql.DB, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return credential.NewMemoryRepository(), nil, nil

	case config.DriverSQLite:
		db, err := credential.OpenSQLite(ctx, cfg.StoreDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return credential.NewSQLiteRepository(db, cfg.StoreNamespace), db, nil

	case config.DriverPostgres:
		db, err := sql.Open("postgres", cfg.StoreDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres store: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("connect postgres store: %w", err)
		}
		if err := credential.EnsurePostgresSchema(ctx, db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("prepare postgres store: %w", err)
		}
		return credential.NewPostgresRepository(db, cfg.StoreNamespace), db, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
