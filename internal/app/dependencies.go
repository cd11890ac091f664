// Package app wires the services shared by the API server, the worker and
// the tools.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/quotex-api/internal/activity"
	"github.com/noah-isme/quotex-api/internal/auth"
	"github.com/noah-isme/quotex-api/internal/cache"
	"github.com/noah-isme/quotex-api/internal/catalog"
	"github.com/noah-isme/quotex-api/internal/config"
	"github.com/noah-isme/quotex-api/internal/configurator"
	"github.com/noah-isme/quotex-api/internal/customer"
	"github.com/noah-isme/quotex-api/internal/health"
	"github.com/noah-isme/quotex-api/internal/inventory"
	"github.com/noah-isme/quotex-api/internal/invoice"
	"github.com/noah-isme/quotex-api/internal/lock"
	"github.com/noah-isme/quotex-api/internal/numbering"
	"github.com/noah-isme/quotex-api/internal/quote"
	"github.com/noah-isme/quotex-api/internal/report"
	"github.com/noah-isme/quotex-api/internal/resilience"
	"github.com/noah-isme/quotex-api/internal/settings"
	"github.com/noah-isme/quotex-api/internal/store/memory"
	"github.com/noah-isme/quotex-api/internal/store/postgres"
	"github.com/noah-isme/quotex-api/internal/tasks"
)

// Store is everything the services persist through. Both the memory and the
// postgres stores satisfy it.
type Store interface {
	customer.Repository
	quote.Repository
	invoice.Repository
	inventory.Repository
	activity.Store
	settings.Store
	numbering.Sequencer
	Ping(ctx context.Context) error
}

var (
	_ Store = (*memory.Store)(nil)
	_ Store = (*postgres.Store)(nil)
)

// Dependencies holds the wired services.
type Dependencies struct {
	Config *config.Config
	Log    zerolog.Logger

	Store   Store
	DB      *pgxpool.Pool
	Redis   *redis.Client
	Catalog *catalog.Catalog
	Locker  lock.Locker

	Settings     *settings.Service
	Customers    *customer.Service
	Quotes       *quote.Service
	Invoices     *invoice.Service
	Inventory    *inventory.Service
	Activities   *activity.Recorder
	Reports      *report.Service
	Configurator *configurator.Service
	Auth         *auth.Service
	Sweeper      *tasks.Sweeper

	closers []func()
}

// Options adjusts New.
type Options struct {
	// Redis overrides the client built from REDIS_URL. Tests pass a
	// miniredis-backed client here.
	Redis *redis.Client
	// InstrumentRedis adds redisotel tracing and metrics hooks.
	InstrumentRedis bool
	Now             func() time.Time
}

// New connects the stores and builds every service.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger, opts Options) (*Dependencies, error) {
	if cfg == nil {
		return nil, errors.New("app: config is required")
	}
	d := &Dependencies{Config: cfg, Log: log}

	cat, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	d.Catalog = cat

	if err := d.openStore(ctx); err != nil {
		d.Close()
		return nil, err
	}

	d.Redis = opts.Redis
	if d.Redis == nil {
		client, err := OpenRedis(ctx, cfg.RedisURL, opts.InstrumentRedis)
		if err != nil {
			d.Close()
			return nil, err
		}
		d.Redis = client
		d.closers = append(d.closers, func() {
			if err := client.Close(); err != nil {
				log.Error().Err(err).Msg("close redis")
			}
		})
	}

	d.Locker = lock.Locker{R: d.Redis, RetryBackoff: cfg.LockRetryBackoff}
	if err := d.buildServices(opts.Now); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	cat, err := catalog.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("app: load catalog: %w", err)
	}
	return cat, nil
}

func (d *Dependencies) openStore(ctx context.Context) error {
	cfg := d.Config
	switch cfg.StoreDriver {
	case config.DriverMemory:
		d.Store = memory.New()
		return nil
	case config.DriverPostgres, "":
		if cfg.DBAutoMigrate {
			if err := postgres.Migrate(cfg.DatabaseURL); err != nil {
				return fmt.Errorf("app: migrate: %w", err)
			}
		}
		pool, err := postgres.Open(ctx, postgres.Config{
			URL:      cfg.DatabaseURL,
			MaxConns: cfg.DBMaxConns,
			AppName:  cfg.Obs.ServiceName,
		})
		if err != nil {
			return err
		}
		d.DB = pool
		d.Store = postgres.New(pool)
		d.closers = append(d.closers, pool.Close)
		return nil
	default:
		return fmt.Errorf("app: unknown store driver %q", cfg.StoreDriver)
	}
}

// OpenRedis parses url, optionally instruments the client and pings it.
func OpenRedis(ctx context.Context, url string, instrument bool) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("app: parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if instrument {
		if err := redisotel.InstrumentTracing(client); err != nil {
			return nil, fmt.Errorf("app: instrument redis tracing: %w", err)
		}
		if err := redisotel.InstrumentMetrics(client); err != nil {
			return nil, fmt.Errorf("app: instrument redis metrics: %w", err)
		}
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("app: ping redis: %w", err)
	}
	return client, nil
}

func (d *Dependencies) buildServices(now func() time.Time) error {
	cfg := d.Config
	d.Settings = &settings.Service{Store: d.Store, Now: now}
	d.Customers = &customer.Service{Repo: d.Store, Tiers: d.Settings, Now: now}
	cacheBreaker := resilience.NewBreaker("redis-cache", 5, 0.5, 30*time.Second)
	cacheBreaker.Log = d.Log
	d.Reports = &report.Service{
		Customers: d.Customers,
		Bases:     d.Catalog,
		Cache:     cache.New(d.Redis, cfg.DashboardCacheTTL, "dashboard").WithBreaker(cacheBreaker),
		Now:       now,
	}
	d.Activities = &activity.Recorder{
		Store:     d.Store,
		Notifiers: []activity.Notifier{activity.MetricsNotifier, d.Reports.InvalidateOn()},
		Now:       now,
	}
	d.Quotes = &quote.Service{
		Repo:       d.Store,
		Customers:  d.Customers,
		Settings:   d.Settings,
		Catalog:    d.Catalog,
		Numbers:    numbering.Issuer{Seq: d.Store, Template: numbering.QuoteTemplate, Prefix: "quote"},
		Activities: d.Activities,
		Locker:     d.Locker,
		LockTTL:    cfg.LockTTL,
		Log:        d.Log.With().Str("component", "quote").Logger(),
		Now:        now,
	}
	d.Reports.Quotes = d.Quotes
	d.Invoices = &invoice.Service{
		Repo:    d.Store,
		Quotes:  d.Quotes,
		Locker:  d.Locker,
		LockTTL: cfg.LockTTL,
		Numbers: numbering.Issuer{Seq: d.Store, Template: numbering.InvoiceTemplate, Prefix: "invoice"},
		DueDays: invoice.DefaultDueDays,
		Log:     d.Log.With().Str("component", "invoice").Logger(),
		Now:     now,
	}
	d.Inventory = &inventory.Service{Repo: d.Store, Now: now}
	d.Configurator = &configurator.Service{Catalog: d.Catalog, Customers: d.Customers}
	d.Sweeper = &tasks.Sweeper{
		Quotes:   d.Quotes,
		Invoices: d.Invoices,
		Stock:    d.Inventory,
		Locker:   d.Locker,
		LockTTL:  cfg.Worker.SweepLockTTL,
		Log:      d.Log.With().Str("component", "sweeper").Logger(),
		Now:      now,
	}

	if cfg.Auth.Enabled {
		svc, err := auth.NewService(auth.Config{
			OperatorEmail:        cfg.Auth.OperatorEmail,
			OperatorPasswordHash: cfg.Auth.OperatorPasswordHash,
			Secret:               cfg.Auth.JWTSecret,
			TokenTTL:             cfg.Auth.TokenTTL,
			Issuer:               cfg.Auth.JWTIssuer,
			Audience:             cfg.Auth.JWTAudience,
			ClockSkew:            cfg.Auth.ClockSkew,
		})
		if err != nil {
			return err
		}
		if now != nil {
			svc.WithNow(now)
		}
		d.Auth = svc
	}
	return nil
}

// Probes returns the readiness checks for the connected backends.
func (d *Dependencies) Probes() []health.Probe {
	probes := []health.Probe{{Name: "store", Check: d.Store.Ping}}
	if d.Redis != nil {
		client := d.Redis
		probes = append(probes, health.Probe{
			Name:    "redis",
			Timeout: 300 * time.Millisecond,
			Check:   func(ctx context.Context) error { return client.Ping(ctx).Err() },
		})
	}
	return probes
}

// Close releases connections in reverse order of acquisition.
func (d *Dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
	d.closers = nil
}
