package quote_test

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/quotex-api/internal/activity"
	"github.com/noah-isme/quotex-api/internal/catalog"
	"github.com/noah-isme/quotex-api/internal/common"
	"github.com/noah-isme/quotex-api/internal/customer"
	"github.com/noah-isme/quotex-api/internal/lock"
	"github.com/noah-isme/quotex-api/internal/numbering"
	"github.com/noah-isme/quotex-api/internal/pricing"
	"github.com/noah-isme/quotex-api/internal/quote"
	"github.com/noah-isme/quotex-api/internal/settings"
	"github.com/noah-isme/quotex-api/internal/store/memory"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

type fixture struct {
	svc       *quote.Service
	store     *memory.Store
	customers *customer.Service
	now       *time.Time
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	st := memory.New()
	now := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	settingsSvc := &settings.Service{Store: st, Now: clock}
	customers := &customer.Service{Repo: st, Tiers: settingsSvc, Now: clock}
	svc := &quote.Service{
		Repo:       st,
		Customers:  customers,
		Settings:   settingsSvc,
		Catalog:    catalog.MustDefault(),
		Numbers:    numbering.Issuer{Seq: st, Template: numbering.QuoteTemplate, Prefix: "quote"},
		Activities: &activity.Recorder{Store: st, Now: clock},
		Now:        clock,
	}
	return fixture{svc: svc, store: st, customers: customers, now: &now}
}

func (f fixture) customer(t *testing.T, tier string) customer.Customer {
	t.Helper()
	ctx := context.Background()
	in := customer.CustomerInput{CompanyName: "Acme Facilities"}
	if tier != "" {
		org, err := f.customers.CreateOrganization(ctx, customer.OrganizationInput{
			Name: "Acme University", Type: customer.OrgUniversity, PricingTier: tier,
		})
		require.NoError(t, err)
		in.OrganizationID = org.ID
	}
	c, err := f.customers.CreateCustomer(ctx, in)
	require.NoError(t, err)
	return c
}

func appCode(t *testing.T, err error) string {
	t.Helper()
	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	return appErr.Code
}

func TestCreateAppliesTierAndDefaults(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t, pricing.TierPremier)

	q, err := f.svc.Create(context.Background(), quote.CreateInput{
		CustomerID:  c.ID,
		ProjectName: "  Library refresh ",
		LineItems:   []quote.ItemInput{{Configuration: pricing.DefaultConfiguration(), Quantity: 2}},
	})
	require.NoError(t, err)
	require.Equal(t, "QT-26-0001", q.QuoteNumber)
	require.Equal(t, quote.StatusDraft, q.Status)
	require.Equal(t, "Acme Facilities", q.CustomerName)
	require.Equal(t, "Library refresh", q.ProjectName)
	require.Equal(t, pricing.DiscountPercentage, q.DiscountType)
	require.True(t, q.TaxRate.Equal(dec("7.5")))
	require.Equal(t, f.now.AddDate(0, 0, 30), q.ValidUntil)

	require.Len(t, q.LineItems, 1)
	li := q.LineItems[0]
	require.True(t, li.Configuration.CalculatedPrice.Equal(dec("595")))
	require.True(t, li.UnitPrice.Equal(dec("297.5")), "premier is 50%% off list, got %s", li.UnitPrice)
	require.True(t, li.TotalPrice.Equal(dec("595")))

	require.True(t, q.Subtotal.Equal(dec("595")))
	require.True(t, q.TaxAmount.Equal(dec("44.625")))
	require.True(t, q.Total.Equal(dec("639.625")))

	acts, _, err := f.store.ListActivities(context.Background(), activity.Filter{QuoteID: q.ID})
	require.NoError(t, err)
	require.Len(t, acts, 1)
	require.Equal(t, activity.TypeQuoteCreated, acts[0].Type)

	next, err := f.svc.Create(context.Background(), quote.CreateInput{CustomerID: c.ID, ProjectName: "Second"})
	require.NoError(t, err)
	require.Equal(t, "QT-26-0002", next.QuoteNumber)
}

func TestCreateRejectsIncompleteConfiguration(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t, "")
	cfg := pricing.DefaultConfiguration()
	cfg.Finish = ""

	_, err := f.svc.Create(context.Background(), quote.CreateInput{
		CustomerID:  c.ID,
		ProjectName: "Broken",
		LineItems:   []quote.ItemInput{{Configuration: cfg}},
	})
	require.Error(t, err)
	require.Equal(t, "VALIDATION_FAILED", appCode(t, err))
	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr))
	require.Contains(t, appErr.Details, "lineItems[0].finish")
}

func TestCreateRejectsPercentageOverHundred(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t, "")
	ctx := context.Background()

	for _, typ := range []pricing.DiscountType{pricing.DiscountPercentage, ""} {
		_, err := f.svc.Create(ctx, quote.CreateInput{CustomerID: c.ID, ProjectName: "Lab", DiscountType: typ, DiscountValue: dec("150")})
		require.Equal(t, "VALIDATION_FAILED", appCode(t, err))
	}

	q, err := f.svc.Create(ctx, quote.CreateInput{
		CustomerID:    c.ID,
		ProjectName:   "Lab",
		DiscountType:  pricing.DiscountFixed,
		DiscountValue: dec("150"),
		LineItems:     []quote.ItemInput{{Configuration: pricing.DefaultConfiguration(), UnitPrice: decPtr("100")}},
	})
	require.NoError(t, err)
	require.True(t, q.DiscountAmount.Equal(dec("100")), "fixed discounts clamp to the subtotal")
}

func TestCreateUnknownCustomer(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), quote.CreateInput{CustomerID: "nope", ProjectName: "X"})
	require.Equal(t, "NOT_FOUND", appCode(t, err))
}

func TestLineItemEditsRecomputeTotals(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t, "")
	ctx := context.Background()
	q, err := f.svc.Create(ctx, quote.CreateInput{CustomerID: c.ID, ProjectName: "Lab", TaxRate: ptr(dec("0"))})
	require.NoError(t, err)

	unit := dec("100")
	q, err = f.svc.AddConfiguration(ctx, q.ID, quote.ItemInput{Configuration: pricing.DefaultConfiguration(), UnitPrice: &unit})
	require.NoError(t, err)
	require.Len(t, q.LineItems, 1)
	require.Equal(t, 1, q.LineItems[0].Quantity)
	require.True(t, q.Total.Equal(dec("100")))

	qty := 3
	q, err = f.svc.UpdateLineItem(ctx, q.ID, q.LineItems[0].ID, quote.LineItemPatch{Quantity: &qty})
	require.NoError(t, err)
	require.True(t, q.Subtotal.Equal(dec("300")))

	q, err = f.svc.SetDiscount(ctx, q.ID, pricing.Discount{Type: pricing.DiscountFixed, Value: dec("50")})
	require.NoError(t, err)
	require.True(t, q.DiscountAmount.Equal(dec("50")))
	require.True(t, q.Total.Equal(dec("250")))

	q, err = f.svc.SetTaxRate(ctx, q.ID, dec("10"))
	require.NoError(t, err)
	require.True(t, q.TaxAmount.Equal(dec("25")))
	require.True(t, q.Total.Equal(dec("275")))

	_, err = f.svc.SetTaxRate(ctx, q.ID, dec("101"))
	require.Equal(t, "VALIDATION_FAILED", appCode(t, err))

	_, err = f.svc.UpdateLineItem(ctx, q.ID, "missing", quote.LineItemPatch{Quantity: &qty})
	require.Equal(t, "NOT_FOUND", appCode(t, err))

	q, err = f.svc.RemoveLineItem(ctx, q.ID, q.LineItems[0].ID)
	require.NoError(t, err)
	require.Empty(t, q.LineItems)
	require.True(t, q.Subtotal.IsZero())
	require.True(t, q.Total.IsZero(), "fixed discount is clamped to the subtotal")
}

func TestTransitions(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t, "")
	ctx := context.Background()

	empty, err := f.svc.Create(ctx, quote.CreateInput{CustomerID: c.ID, ProjectName: "Empty"})
	require.NoError(t, err)
	_, err = f.svc.Transition(ctx, empty.ID, quote.StatusSent)
	require.Equal(t, "EMPTY_QUOTE", appCode(t, err))

	q, err := f.svc.Create(ctx, quote.CreateInput{
		CustomerID:  c.ID,
		ProjectName: "Cafe",
		LineItems:   []quote.ItemInput{{Configuration: pricing.DefaultConfiguration()}},
	})
	require.NoError(t, err)

	q, err = f.svc.Transition(ctx, q.ID, quote.StatusSent)
	require.NoError(t, err)
	require.NotNil(t, q.SentAt)

	q, err = f.svc.Transition(ctx, q.ID, quote.StatusAccepted)
	require.NoError(t, err)
	require.Equal(t, quote.StatusAccepted, q.Status)

	_, err = f.svc.Transition(ctx, q.ID, quote.StatusSent)
	require.Equal(t, "INVALID_TRANSITION", appCode(t, err))

	_, err = f.svc.SetTaxRate(ctx, q.ID, dec("5"))
	require.Equal(t, "QUOTE_LOCKED", appCode(t, err))

	acts, _, err := f.store.ListActivities(ctx, activity.Filter{QuoteID: q.ID})
	require.NoError(t, err)
	require.Len(t, acts, 2)
	require.Equal(t, activity.TypeQuoteSent, acts[0].Type)
}

func TestExpireOverdue(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t, "")
	ctx := context.Background()
	mk := func(send bool) quote.Quote {
		q, err := f.svc.Create(ctx, quote.CreateInput{
			CustomerID:  c.ID,
			ProjectName: "P",
			LineItems:   []quote.ItemInput{{Configuration: pricing.DefaultConfiguration()}},
		})
		require.NoError(t, err)
		if send {
			q, err = f.svc.Transition(ctx, q.ID, quote.StatusSent)
			require.NoError(t, err)
		}
		return q
	}
	sent := mk(true)
	draft := mk(false)

	n, err := f.svc.ExpireOverdue(ctx, f.now.AddDate(0, 0, 10))
	require.NoError(t, err)
	require.Zero(t, n)

	n, err = f.svc.ExpireOverdue(ctx, f.now.AddDate(0, 0, 31))
	require.NoError(t, err)
	require.Equal(t, 1, n)

	got, err := f.svc.Get(ctx, sent.ID)
	require.NoError(t, err)
	require.Equal(t, quote.StatusExpired, got.Status)
	got, err = f.svc.Get(ctx, draft.ID)
	require.NoError(t, err)
	require.Equal(t, quote.StatusDraft, got.Status, "drafts never expire")
}

func TestListFiltersByStatus(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t, "")
	ctx := context.Background()
	var created []quote.Quote
	for i := 0; i < 3; i++ {
		q, err := f.svc.Create(ctx, quote.CreateInput{CustomerID: c.ID, ProjectName: "P"})
		require.NoError(t, err)
		created = append(created, q)
		*f.now = f.now.Add(time.Hour)
	}
	_, err := f.svc.Update(ctx, created[0].ID, quote.UpdateInput{Notes: ptr("touched")})
	require.NoError(t, err)

	items, total, err := f.svc.List(ctx, quote.Filter{Statuses: []quote.Status{quote.StatusDraft}})
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Len(t, items, 3)
	require.Equal(t, created[2].ID, items[0].ID, "newest first by creation")
	require.Equal(t, created[0].ID, items[2].ID, "updates do not reorder")

	_, total, err = f.svc.List(ctx, quote.Filter{Statuses: []quote.Status{quote.StatusSent}})
	require.NoError(t, err)
	require.Zero(t, total)
}

func ptr[T any](v T) *T { return &v }

// staleList hands out a listing and then lets another writer run before the
// caller acts on it.
type staleList struct {
	quote.Repository
	afterList func()
}

func (r *staleList) ListQuotes(ctx context.Context, f quote.Filter) ([]quote.Quote, int, error) {
	items, total, err := r.Repository.ListQuotes(ctx, f)
	if hook := r.afterList; hook != nil {
		r.afterList = nil
		hook()
	}
	return items, total, err
}

func TestExpireOverdueKeepsConcurrentAcceptance(t *testing.T) {
	f := newFixture(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	f.svc.Locker = lock.Locker{R: client, RetryBackoff: 5 * time.Millisecond}
	f.svc.LockTTL = time.Second

	c := f.customer(t, "")
	ctx := context.Background()
	q, err := f.svc.Create(ctx, quote.CreateInput{
		CustomerID:  c.ID,
		ProjectName: "Library",
		LineItems:   []quote.ItemInput{{Configuration: pricing.DefaultConfiguration()}},
	})
	require.NoError(t, err)
	_, err = f.svc.Transition(ctx, q.ID, quote.StatusSent)
	require.NoError(t, err)

	sweeper := *f.svc
	sweeper.Repo = &staleList{
		Repository: f.store,
		afterList: func() {
			_, err := f.svc.Transition(ctx, q.ID, quote.StatusAccepted)
			require.NoError(t, err)
		},
	}

	n, err := sweeper.ExpireOverdue(ctx, f.now.AddDate(0, 0, 31))
	require.NoError(t, err)
	require.Zero(t, n)

	got, err := f.svc.Get(ctx, q.ID)
	require.NoError(t, err)
	require.Equal(t, quote.StatusAccepted, got.Status)
	require.False(t, mr.Exists("lock:quote:"+q.ID), "lock released")
}
