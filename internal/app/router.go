package app

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/quotex-api/internal/activity"
	"github.com/noah-isme/quotex-api/internal/auth"
	"github.com/noah-isme/quotex-api/internal/catalog"
	"github.com/noah-isme/quotex-api/internal/common"
	"github.com/noah-isme/quotex-api/internal/configurator"
	"github.com/noah-isme/quotex-api/internal/customer"
	"github.com/noah-isme/quotex-api/internal/document"
	"github.com/noah-isme/quotex-api/internal/health"
	"github.com/noah-isme/quotex-api/internal/inventory"
	"github.com/noah-isme/quotex-api/internal/invoice"
	"github.com/noah-isme/quotex-api/internal/obs"
	"github.com/noah-isme/quotex-api/internal/quote"
	"github.com/noah-isme/quotex-api/internal/ratelimit"
	"github.com/noah-isme/quotex-api/internal/report"
	"github.com/noah-isme/quotex-api/internal/security"
	"github.com/noah-isme/quotex-api/internal/settings"
	"github.com/noah-isme/quotex-api/internal/tasks"
)

// RouterOptions toggles the optional HTTP layers.
type RouterOptions struct {
	Tracing     bool
	HTTPMetrics *obs.HTTPMetrics
	Queue       tasks.Enqueuer
}

// publicRoutes stay reachable without a token when auth is enabled.
var publicRoutes = []string{
	"GET /api/v1/catalog",
	"POST /api/v1/auth/token",
}

// Router builds the HTTP handler tree.
func (d *Dependencies) Router(opts RouterOptions) http.Handler {
	cfg := d.Config

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	r.Use(security.Headers{HSTS: cfg.IsProduction()}.Middleware)
	if opts.Tracing {
		r.Use(obs.Tracing(cfg.Obs.ServiceName))
	}
	if opts.HTTPMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: opts.HTTPMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: d.Log, Quiet: []string{"/health/live", "/health/ready", "/metrics"}}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg.CORSAllowedOrigins),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", common.IdempotencyHeader},
		ExposedHeaders:   []string{"Content-Disposition", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if opts.HTTPMetrics != nil {
		r.Handle("/metrics", promhttp.Handler())
	}
	healthHandler := health.Handler{Probes: d.Probes()}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	authMW := auth.Middleware{Service: d.Auth, Public: publicRoutes}
	idem := common.Idem{R: d.Redis, TTL: cfg.IdempotencyTTL}

	catalogHandler := &catalog.Handler{Catalog: d.Catalog}
	customerHandler := &customer.Handler{Svc: d.Customers}
	quoteHandler := &quote.Handler{Svc: d.Quotes}
	documentHandler := &document.Handler{Quotes: d.Quotes, Settings: d.Settings, Catalog: d.Catalog}
	invoiceHandler := &invoice.Handler{Svc: d.Invoices}
	inventoryHandler := &inventory.Handler{Svc: d.Inventory}
	activityHandler := &activity.Handler{Recorder: d.Activities}
	settingsHandler := &settings.Handler{Svc: d.Settings}
	reportHandler := &report.Handler{Svc: d.Reports}
	configHandler := &configurator.Handler{Svc: d.Configurator}
	adminHandler := &tasks.AdminHandler{Queue: opts.Queue, Sweeper: d.Sweeper}

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(security.BodyLimit{Max: security.DefaultMaxBody}.Middleware)
		if d.Auth != nil {
			v.Use(authMW.Authenticate)
		}
		if lim := d.limiter(); lim != nil {
			v.Use(lim)
		}
		if d.Auth != nil {
			v.Use(authMW.RequireAuth)
			authHandler := &auth.Handler{Service: d.Auth}
			v.Post("/auth/token", authHandler.Token)
			v.Get("/auth/me", authHandler.Me)
		}

		v.Route("/catalog", func(c chi.Router) {
			c.Get("/", catalogHandler.All)
			c.Get("/bases", catalogHandler.Bases)
			c.Get("/bases/{id}", catalogHandler.Base)
			c.Get("/accessories", catalogHandler.Accessories)
		})

		v.Route("/configurator", func(c chi.Router) {
			c.Get("/defaults", configHandler.Defaults)
			c.Post("/price", configHandler.Price)
			c.Post("/validate", configHandler.Validate)
		})

		v.Route("/organizations", func(o chi.Router) {
			o.Get("/", customerHandler.ListOrganizations)
			o.Get("/{id}", customerHandler.GetOrganization)
			o.Get("/{id}/customers", customerHandler.OrganizationCustomers)
			o.Group(func(g chi.Router) {
				g.Use(idem.Middleware)
				g.Post("/", customerHandler.CreateOrganization)
				g.Put("/{id}", customerHandler.UpdateOrganization)
				g.Delete("/{id}", customerHandler.DeleteOrganization)
			})
		})

		v.Route("/customers", func(c chi.Router) {
			c.Get("/", customerHandler.ListCustomers)
			c.Get("/{id}", customerHandler.GetCustomer)
			c.Get("/{id}/tier", customerHandler.Tier)
			c.Group(func(g chi.Router) {
				g.Use(idem.Middleware)
				g.Post("/", customerHandler.CreateCustomer)
				g.Put("/{id}", customerHandler.UpdateCustomer)
				g.Delete("/{id}", customerHandler.DeleteCustomer)
			})
		})

		v.Route("/quotes", func(q chi.Router) {
			q.Get("/", quoteHandler.List)
			q.Get("/{id}", quoteHandler.Get)
			q.Get("/{id}/document.pdf", documentHandler.PDF)
			q.Get("/{id}/document.xlsx", documentHandler.XLSX)
			q.Group(func(g chi.Router) {
				g.Use(idem.Middleware)
				g.Post("/", quoteHandler.Create)
				g.Put("/{id}", quoteHandler.Update)
				g.Delete("/{id}", quoteHandler.Delete)
				g.Post("/{id}/items", quoteHandler.AddItem)
				g.Patch("/{id}/items/{itemId}", quoteHandler.UpdateItem)
				g.Delete("/{id}/items/{itemId}", quoteHandler.RemoveItem)
				g.Put("/{id}/discount", quoteHandler.SetDiscount)
				g.Put("/{id}/tax-rate", quoteHandler.SetTaxRate)
				g.Post("/{id}/invoice", invoiceHandler.Convert)
				g.Post("/{id}/{action}", quoteHandler.Transition)
			})
		})

		v.Route("/invoices", func(i chi.Router) {
			i.Get("/", invoiceHandler.List)
			i.Get("/{id}", invoiceHandler.Get)
			i.Group(func(g chi.Router) {
				g.Use(idem.Middleware)
				g.Post("/{id}/send", invoiceHandler.Send)
				g.Post("/{id}/cancel", invoiceHandler.Cancel)
				g.Post("/{id}/payments", invoiceHandler.RecordPayment)
				g.Delete("/{id}", invoiceHandler.Delete)
			})
		})

		v.Route("/inventory", func(i chi.Router) {
			i.Get("/", inventoryHandler.List)
			i.Get("/summary", inventoryHandler.Summary)
			i.Get("/{id}", inventoryHandler.Get)
			i.Group(func(g chi.Router) {
				g.Use(idem.Middleware)
				g.Post("/", inventoryHandler.Create)
				g.Put("/{id}", inventoryHandler.Update)
				g.Delete("/{id}", inventoryHandler.Delete)
				g.Post("/{id}/restock", inventoryHandler.Restock)
			})
		})

		v.Get("/activities", activityHandler.List)
		v.With(idem.Middleware).Post("/activities", activityHandler.Create)

		v.Get("/settings", settingsHandler.Get)
		v.With(idem.Middleware).Patch("/settings", settingsHandler.Update)

		v.Get("/dashboard", reportHandler.Dashboard)
		v.Get("/dashboard/series", reportHandler.Series)

		v.Post("/admin/sweeps/{kind}", adminHandler.Trigger)
	})
	return r
}

func (d *Dependencies) limiter() func(http.Handler) http.Handler {
	rl := d.Config.RateLimit
	if !rl.Enabled || d.Redis == nil {
		return nil
	}
	lim, err := ratelimit.New(rl.Strategy, d.Redis, rl.Prefix)
	if err != nil {
		d.Log.Error().Err(err).Msg("rate limiter disabled")
		return nil
	}
	window := rl.Window
	if window <= 0 {
		window = time.Minute
	}
	return ratelimit.Handler{
		Limiter: lim,
		Config:  ratelimit.Config{Key: ratelimit.BySubject, Window: window, Max: rl.Max},
		OnError: func(err error) { d.Log.Warn().Err(err).Msg("rate limiter unavailable") },
	}.Middleware
}

func allowedOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
