package quote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/noah-isme/quotex-api/internal/activity"
	"github.com/noah-isme/quotex-api/internal/common"
	"github.com/noah-isme/quotex-api/internal/customer"
	"github.com/noah-isme/quotex-api/internal/numbering"
	"github.com/noah-isme/quotex-api/internal/obs"
	"github.com/noah-isme/quotex-api/internal/pricing"
	"github.com/noah-isme/quotex-api/internal/settings"
	"github.com/noah-isme/quotex-api/internal/store"
)

// Repository persists quotes.
type Repository interface {
	CreateQuote(ctx context.Context, q Quote) error
	GetQuote(ctx context.Context, id string) (Quote, error)
	ListQuotes(ctx context.Context, f Filter) ([]Quote, int, error)
	UpdateQuote(ctx context.Context, q Quote) error
	DeleteQuote(ctx context.Context, id string) error
}

// Customers resolves quote customers and their trade pricing.
type Customers interface {
	GetCustomer(ctx context.Context, id string) (customer.Customer, error)
	QuoteUnitPrice(ctx context.Context, customerID string, list decimal.Decimal) (customer.TierQuote, error)
}

// SettingsSource supplies quoting defaults.
type SettingsSource interface {
	Get(ctx context.Context) (settings.Settings, error)
}

// Recorder writes timeline activities.
type Recorder interface {
	Record(ctx context.Context, a activity.Activity) (activity.Activity, error)
}

// Locker serialises work on a key across processes.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// Service implements the quote lifecycle. Totals are always derived through
// pricing.ComputeTotals; clients never supply them. Every read-modify-write
// of a stored quote runs under lock:quote:<id> when a Locker is set.
type Service struct {
	Repo       Repository
	Customers  Customers
	Settings   SettingsSource
	Catalog    pricing.Catalog
	Numbers    numbering.Issuer
	Activities Recorder
	Locker     Locker
	LockTTL    time.Duration
	Log        zerolog.Logger
	Now        func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) withLock(ctx context.Context, id string, fn func(context.Context) error) error {
	if s.Locker == nil {
		return fn(ctx)
	}
	ttl := s.LockTTL
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return s.Locker.WithLock(ctx, "lock:quote:"+id, ttl, fn)
}

// ItemInput describes a configuration entering a quote. UnitPrice overrides
// the tier-adjusted list price when set.
type ItemInput struct {
	Configuration pricing.Configuration `json:"configuration" validate:"-"`
	Quantity      int                   `json:"quantity" validate:"gte=0"`
	UnitPrice     *decimal.Decimal      `json:"unitPrice"`
	Notes         string                `json:"notes"`
}

// CreateInput is the payload for a new quote.
type CreateInput struct {
	CustomerID    string               `json:"customerId" validate:"required"`
	ProjectName   string               `json:"projectName" validate:"required"`
	LineItems     []ItemInput          `json:"lineItems" validate:"dive"`
	DiscountType  pricing.DiscountType `json:"discountType" validate:"omitempty,oneof=percentage fixed"`
	DiscountValue decimal.Decimal      `json:"discountValue"`
	TaxRate       *decimal.Decimal     `json:"taxRate"`
	Notes         string               `json:"notes"`
	InternalNotes string               `json:"internalNotes"`
}

// UpdateInput changes quote header fields. Nil fields are left alone.
type UpdateInput struct {
	ProjectName   *string    `json:"projectName" validate:"omitempty,min=1"`
	Notes         *string    `json:"notes"`
	InternalNotes *string    `json:"internalNotes"`
	ValidUntil    *time.Time `json:"validUntil"`
}

// LineItemPatch edits a line item. Nil fields are left alone.
type LineItemPatch struct {
	Quantity  *int             `json:"quantity" validate:"omitempty,gte=1"`
	UnitPrice *decimal.Decimal `json:"unitPrice"`
	Notes     *string          `json:"notes"`
}

func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case common.IsAppError(err):
		return err
	case errors.Is(err, store.ErrNotFound):
		return common.NotFound(what+" not found", err)
	case errors.Is(err, store.ErrConflict):
		return common.Conflict("CONFLICT", what+" conflicts with an existing record", err)
	default:
		return fmt.Errorf("quote: %s: %w", what, err)
	}
}

func (s *Service) settings(ctx context.Context) (settings.Settings, error) {
	if s.Settings == nil {
		return settings.Defaults(), nil
	}
	st, err := s.Settings.Get(ctx)
	if err != nil {
		return settings.Settings{}, fmt.Errorf("quote: load settings: %w", err)
	}
	return st, nil
}

// Create validates and prices every line item, applies the customer's tier
// and stores a new draft quote.
func (s *Service) Create(ctx context.Context, in CreateInput) (Quote, error) {
	if s == nil || s.Repo == nil || s.Customers == nil || s.Catalog == nil {
		return Quote{}, errors.New("quote service not configured")
	}
	ctx, span := otel.Tracer("quote.Service").Start(ctx, "QuoteService.Create")
	defer span.End()

	if err := common.ValidateStruct(in); err != nil {
		return Quote{}, err
	}
	if in.TaxRate != nil && (in.TaxRate.IsNegative() || in.TaxRate.GreaterThan(decimal.NewFromInt(100))) {
		return Quote{}, common.Validation("request validation failed", map[string]string{"taxRate": "must be between 0 and 100"}, nil)
	}
	if in.DiscountValue.IsNegative() {
		return Quote{}, common.Validation("request validation failed", map[string]string{"discountValue": "must not be negative"}, nil)
	}
	if in.DiscountType != pricing.DiscountFixed && in.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
		return Quote{}, common.Validation("request validation failed", map[string]string{"discountValue": "percentage must not exceed 100"}, nil)
	}
	cust, err := s.Customers.GetCustomer(ctx, in.CustomerID)
	if err != nil {
		return Quote{}, translate(err, "customer")
	}
	st, err := s.settings(ctx)
	if err != nil {
		return Quote{}, err
	}

	items := make([]pricing.LineItem, 0, len(in.LineItems))
	for i, it := range in.LineItems {
		li, err := s.buildItem(ctx, cust.ID, it)
		if err != nil {
			return Quote{}, prefixProblems(err, fmt.Sprintf("lineItems[%d]", i))
		}
		items = append(items, li)
	}

	now := s.now().UTC()
	number, err := s.Numbers.Next(ctx, now)
	if err != nil {
		return Quote{}, fmt.Errorf("quote: allocate number: %w", err)
	}
	taxRate := st.Pricing.TaxRate
	if in.TaxRate != nil {
		taxRate = *in.TaxRate
	}
	discountType := in.DiscountType
	if discountType == "" {
		discountType = pricing.DiscountPercentage
	}
	q := Quote{
		ID:            uuid.NewString(),
		QuoteNumber:   number,
		CustomerID:    cust.ID,
		CustomerName:  cust.CompanyName,
		ProjectName:   strings.TrimSpace(in.ProjectName),
		LineItems:     items,
		DiscountType:  discountType,
		DiscountValue: in.DiscountValue,
		TaxRate:       taxRate,
		Status:        StatusDraft,
		Notes:         in.Notes,
		InternalNotes: in.InternalNotes,
		ValidUntil:    now.AddDate(0, 0, validityDays(st)),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	q.Recompute(st.Pricing.FlatDiscountPolicy)
	if err := s.Repo.CreateQuote(ctx, q); err != nil {
		return Quote{}, translate(err, "quote")
	}
	span.SetAttributes(
		attribute.String("quote.number", q.QuoteNumber),
		attribute.Int("quote.line_items", len(q.LineItems)),
	)
	if obs.QuotesCreatedTotal != nil {
		obs.QuotesCreatedTotal.Inc()
	}
	s.record(ctx, activity.Activity{
		CustomerID:     cust.ID,
		OrganizationID: cust.OrganizationID,
		QuoteID:        q.ID,
		Type:           activity.TypeQuoteCreated,
		Content:        fmt.Sprintf("Quote %s created for %s (%s)", q.QuoteNumber, q.ProjectName, q.Total.StringFixed(2)),
	})
	return q, nil
}

func validityDays(st settings.Settings) int {
	if st.Pricing.QuoteValidityDays <= 0 {
		return 30
	}
	return st.Pricing.QuoteValidityDays
}

// buildItem validates the configuration, reprices it and resolves its unit
// price.
func (s *Service) buildItem(ctx context.Context, customerID string, in ItemInput) (pricing.LineItem, error) {
	if err := pricing.Validate(in.Configuration, s.Catalog); err != nil {
		var verr *pricing.ValidationError
		if errors.As(err, &verr) {
			return pricing.LineItem{}, common.Validation("configuration is incomplete", verr.Fields(), err)
		}
		return pricing.LineItem{}, err
	}
	if obs.PriceCalculationsTotal != nil {
		obs.PriceCalculationsTotal.WithLabelValues("quote").Inc()
	}
	cfg := pricing.Reprice(in.Configuration, s.Catalog)
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	var unit decimal.Decimal
	if in.UnitPrice != nil {
		if in.UnitPrice.IsNegative() {
			return pricing.LineItem{}, common.Validation("request validation failed", map[string]string{"unitPrice": "must not be negative"}, nil)
		}
		unit = *in.UnitPrice
	} else {
		tq, err := s.Customers.QuoteUnitPrice(ctx, customerID, cfg.CalculatedPrice)
		if err != nil {
			return pricing.LineItem{}, fmt.Errorf("quote: tier price: %w", err)
		}
		unit = tq.UnitPrice
	}
	qty := in.Quantity
	if qty <= 0 {
		qty = 1
	}
	li := pricing.NewLineItem(uuid.NewString(), cfg, qty, unit)
	li.Notes = strings.TrimSpace(in.Notes)
	return li, nil
}

func prefixProblems(err error, prefix string) error {
	var appErr *common.AppError
	if !errors.As(err, &appErr) {
		return err
	}
	fields, ok := appErr.Details.(map[string]string)
	if !ok {
		return err
	}
	prefixed := make(map[string]string, len(fields))
	for k, v := range fields {
		prefixed[prefix+"."+k] = v
	}
	out := *appErr
	out.Details = prefixed
	return &out
}

// Get loads one quote.
func (s *Service) Get(ctx context.Context, id string) (Quote, error) {
	if s == nil || s.Repo == nil {
		return Quote{}, errors.New("quote service not configured")
	}
	q, err := s.Repo.GetQuote(ctx, id)
	return q, translate(err, "quote")
}

// List returns a page of quotes, newest first.
func (s *Service) List(ctx context.Context, f Filter) ([]Quote, int, error) {
	if s == nil || s.Repo == nil {
		return nil, 0, errors.New("quote service not configured")
	}
	items, total, err := s.Repo.ListQuotes(ctx, f)
	return items, total, translate(err, "quotes")
}

// Delete removes a quote.
func (s *Service) Delete(ctx context.Context, id string) error {
	if s == nil || s.Repo == nil {
		return errors.New("quote service not configured")
	}
	return translate(s.Repo.DeleteQuote(ctx, id), "quote")
}

// mutate loads an editable quote, applies fn, recomputes totals and saves.
func (s *Service) mutate(ctx context.Context, id string, fn func(q *Quote) error) (Quote, error) {
	if s == nil || s.Repo == nil {
		return Quote{}, errors.New("quote service not configured")
	}
	var out Quote
	err := s.withLock(ctx, id, func(ctx context.Context) error {
		q, err := s.Repo.GetQuote(ctx, id)
		if err != nil {
			return translate(err, "quote")
		}
		if q.Status.Terminal() {
			return common.Conflict("QUOTE_LOCKED", fmt.Sprintf("quote is %s and can no longer be edited", q.Status), nil)
		}
		if err := fn(&q); err != nil {
			return err
		}
		st, err := s.settings(ctx)
		if err != nil {
			return err
		}
		q.Recompute(st.Pricing.FlatDiscountPolicy)
		q.UpdatedAt = s.now().UTC()
		if err := s.Repo.UpdateQuote(ctx, q); err != nil {
			return translate(err, "quote")
		}
		out = q
		return nil
	})
	return out, err
}

// Update changes header fields.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Quote, error) {
	if err := common.ValidateStruct(in); err != nil {
		return Quote{}, err
	}
	return s.mutate(ctx, id, func(q *Quote) error {
		if in.ProjectName != nil {
			q.ProjectName = strings.TrimSpace(*in.ProjectName)
		}
		if in.Notes != nil {
			q.Notes = *in.Notes
		}
		if in.InternalNotes != nil {
			q.InternalNotes = *in.InternalNotes
		}
		if in.ValidUntil != nil {
			q.ValidUntil = in.ValidUntil.UTC()
		}
		return nil
	})
}

// AddConfiguration validates, prices and appends a configuration as a new
// line item.
func (s *Service) AddConfiguration(ctx context.Context, id string, in ItemInput) (Quote, error) {
	if s == nil || s.Customers == nil || s.Catalog == nil {
		return Quote{}, errors.New("quote service not configured")
	}
	if err := common.ValidateStruct(in); err != nil {
		return Quote{}, err
	}
	return s.mutate(ctx, id, func(q *Quote) error {
		li, err := s.buildItem(ctx, q.CustomerID, in)
		if err != nil {
			return err
		}
		q.LineItems = append(q.LineItems, li)
		return nil
	})
}

// UpdateLineItem changes quantity, unit price or notes of one line item.
func (s *Service) UpdateLineItem(ctx context.Context, id, itemID string, p LineItemPatch) (Quote, error) {
	if err := common.ValidateStruct(p); err != nil {
		return Quote{}, err
	}
	if p.UnitPrice != nil && p.UnitPrice.IsNegative() {
		return Quote{}, common.Validation("request validation failed", map[string]string{"unitPrice": "must not be negative"}, nil)
	}
	return s.mutate(ctx, id, func(q *Quote) error {
		for i := range q.LineItems {
			li := &q.LineItems[i]
			if li.ID != itemID {
				continue
			}
			if p.Quantity != nil {
				li.SetQuantity(*p.Quantity)
			}
			if p.UnitPrice != nil {
				li.SetUnitPrice(*p.UnitPrice)
			}
			if p.Notes != nil {
				li.Notes = strings.TrimSpace(*p.Notes)
			}
			return nil
		}
		return common.NotFound("line item not found", nil)
	})
}

// RemoveLineItem drops a line item.
func (s *Service) RemoveLineItem(ctx context.Context, id, itemID string) (Quote, error) {
	return s.mutate(ctx, id, func(q *Quote) error {
		for i, li := range q.LineItems {
			if li.ID == itemID {
				q.LineItems = append(q.LineItems[:i], q.LineItems[i+1:]...)
				return nil
			}
		}
		return common.NotFound("line item not found", nil)
	})
}

// SetDiscount replaces the quote-level discount.
func (s *Service) SetDiscount(ctx context.Context, id string, d pricing.Discount) (Quote, error) {
	if d.Value.IsNegative() {
		return Quote{}, common.Validation("request validation failed", map[string]string{"value": "must not be negative"}, nil)
	}
	if d.Type == pricing.DiscountPercentage && d.Value.GreaterThan(decimal.NewFromInt(100)) {
		return Quote{}, common.Validation("request validation failed", map[string]string{"value": "percentage must not exceed 100"}, nil)
	}
	return s.mutate(ctx, id, func(q *Quote) error {
		q.DiscountType = d.Type
		q.DiscountValue = d.Value
		return nil
	})
}

// SetTaxRate replaces the tax rate percent.
func (s *Service) SetTaxRate(ctx context.Context, id string, rate decimal.Decimal) (Quote, error) {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
		return Quote{}, common.Validation("request validation failed", map[string]string{"taxRate": "must be between 0 and 100"}, nil)
	}
	return s.mutate(ctx, id, func(q *Quote) error {
		q.TaxRate = rate
		return nil
	})
}

// Transition moves a quote to the target status. Sending stamps SentAt and
// records a quote_sent activity.
func (s *Service) Transition(ctx context.Context, id string, to Status) (Quote, error) {
	if s == nil || s.Repo == nil {
		return Quote{}, errors.New("quote service not configured")
	}
	var q Quote
	err := s.withLock(ctx, id, func(ctx context.Context) error {
		var err error
		q, err = s.Repo.GetQuote(ctx, id)
		if err != nil {
			return translate(err, "quote")
		}
		if !CanTransition(q.Status, to) {
			return &common.AppError{
				Code:       "INVALID_TRANSITION",
				Message:    fmt.Sprintf("cannot move quote from %s to %s", q.Status, to),
				HTTPStatus: http.StatusConflict,
				Details:    map[string]string{"from": string(q.Status), "to": string(to)},
			}
		}
		if to == StatusSent && len(q.LineItems) == 0 {
			return common.Conflict("EMPTY_QUOTE", "a quote needs at least one line item before it is sent", nil)
		}
		now := s.now().UTC()
		q.Status = to
		q.UpdatedAt = now
		if to == StatusSent {
			q.SentAt = &now
		}
		return translate(s.Repo.UpdateQuote(ctx, q), "quote")
	})
	if err != nil {
		return Quote{}, err
	}
	if obs.QuoteTransitionsTotal != nil {
		obs.QuoteTransitionsTotal.WithLabelValues(string(to)).Inc()
	}
	if to == StatusSent {
		s.record(ctx, activity.Activity{
			CustomerID: q.CustomerID,
			QuoteID:    q.ID,
			Type:       activity.TypeQuoteSent,
			Content:    fmt.Sprintf("Quote %s sent to %s", q.QuoteNumber, q.CustomerName),
		})
	}
	return q, nil
}

// ExpireOverdue moves sent and viewed quotes past their validity date to
// expired. It returns the number of quotes expired.
func (s *Service) ExpireOverdue(ctx context.Context, now time.Time) (int, error) {
	if s == nil || s.Repo == nil {
		return 0, errors.New("quote service not configured")
	}
	pending, _, err := s.Repo.ListQuotes(ctx, Filter{Statuses: []Status{StatusSent, StatusViewed}})
	if err != nil {
		return 0, translate(err, "quotes")
	}
	expired := 0
	var joined error
	for _, snap := range pending {
		if !now.After(snap.ValidUntil) {
			continue
		}
		changed := false
		err := s.withLock(ctx, snap.ID, func(ctx context.Context) error {
			q, err := s.Repo.GetQuote(ctx, snap.ID)
			if err != nil {
				return err
			}
			if (q.Status != StatusSent && q.Status != StatusViewed) || !now.After(q.ValidUntil) {
				return nil
			}
			q.Status = StatusExpired
			q.UpdatedAt = now.UTC()
			if err := s.Repo.UpdateQuote(ctx, q); err != nil {
				return err
			}
			changed = true
			return nil
		})
		switch {
		case errors.Is(err, store.ErrNotFound):
			continue
		case err != nil:
			joined = errors.Join(joined, fmt.Errorf("quote %s: %w", snap.QuoteNumber, err))
			continue
		case !changed:
			continue
		}
		expired++
		if obs.QuoteTransitionsTotal != nil {
			obs.QuoteTransitionsTotal.WithLabelValues(string(StatusExpired)).Inc()
		}
	}
	return expired, joined
}

func (s *Service) record(ctx context.Context, a activity.Activity) {
	if s.Activities == nil {
		return
	}
	if _, err := s.Activities.Record(ctx, a); err != nil {
		s.Log.Warn().Err(err).Str("quote_id", a.QuoteID).Str("type", string(a.Type)).Msg("record activity")
	}
}
