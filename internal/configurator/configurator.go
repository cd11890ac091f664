// Package configurator serves the interactive table builder: default
// configuration, live pricing with breakdown and completeness checks.
package configurator

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/noah-isme/quotex-api/internal/customer"
	"github.com/noah-isme/quotex-api/internal/obs"
	"github.com/noah-isme/quotex-api/internal/pricing"
)

// Pricer tier-adjusts list prices for a customer.
type Pricer interface {
	QuoteUnitPrice(ctx context.Context, customerID string, list decimal.Decimal) (customer.TierQuote, error)
}

// Service prices configurations against the loaded catalog.
type Service struct {
	Catalog   pricing.Catalog
	Customers Pricer
}

// Result is a priced configuration.
type Result struct {
	Configuration pricing.Configuration `json:"configuration"`
	Breakdown     pricing.Breakdown     `json:"breakdown"`
	Tier          *customer.TierQuote   `json:"tier,omitempty"`
}

// Check is the completeness verdict for a configuration.
type Check struct {
	Valid    bool              `json:"valid"`
	Problems map[string]string `json:"problems,omitempty"`
}

func count(mode string) {
	if obs.PriceCalculationsTotal != nil {
		obs.PriceCalculationsTotal.WithLabelValues(mode).Inc()
	}
}

// Defaults returns the starting configuration, priced.
func (s *Service) Defaults(ctx context.Context) (Result, error) {
	if s == nil || s.Catalog == nil {
		return Result{}, errors.New("configurator not configured")
	}
	cfg := pricing.DefaultConfiguration()
	b := pricing.Explain(cfg, s.Catalog)
	cfg.CalculatedPrice = b.Total
	count("defaults")
	return Result{Configuration: cfg, Breakdown: b}, nil
}

// Price prices a possibly partial configuration. When customerID is set the
// customer's tier is applied to the list price.
func (s *Service) Price(ctx context.Context, cfg pricing.Configuration, customerID string) (Result, error) {
	if s == nil || s.Catalog == nil {
		return Result{}, errors.New("configurator not configured")
	}
	ctx, span := otel.Tracer("configurator.Service").Start(ctx, "ConfiguratorService.Price")
	defer span.End()

	b := pricing.Explain(cfg, s.Catalog)
	out := Result{Configuration: cfg.Clone(), Breakdown: b}
	out.Configuration.CalculatedPrice = b.Total
	span.SetAttributes(attribute.String("configuration.base", cfg.BaseSeries), attribute.String("configuration.price", b.Total.StringFixed(2)))

	mode := "list"
	if customerID = strings.TrimSpace(customerID); customerID != "" && s.Customers != nil {
		tq, err := s.Customers.QuoteUnitPrice(ctx, customerID, b.Total)
		if err != nil {
			return Result{}, err
		}
		out.Tier = &tq
		mode = "tier"
	}
	count(mode)
	return out, nil
}

// Validate reports whether cfg may join a quote.
func (s *Service) Validate(cfg pricing.Configuration) (Check, error) {
	if s == nil || s.Catalog == nil {
		return Check{}, errors.New("configurator not configured")
	}
	err := pricing.Validate(cfg, s.Catalog)
	if err == nil {
		return Check{Valid: true}, nil
	}
	var verr *pricing.ValidationError
	if errors.As(err, &verr) {
		return Check{Valid: false, Problems: verr.Fields()}, nil
	}
	return Check{}, err
}
