package invoice_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/quotex-api/internal/catalog"
	"github.com/noah-isme/quotex-api/internal/common"
	"github.com/noah-isme/quotex-api/internal/customer"
	"github.com/noah-isme/quotex-api/internal/invoice"
	"github.com/noah-isme/quotex-api/internal/lock"
	"github.com/noah-isme/quotex-api/internal/numbering"
	"github.com/noah-isme/quotex-api/internal/pricing"
	"github.com/noah-isme/quotex-api/internal/quote"
	"github.com/noah-isme/quotex-api/internal/store/memory"
)

type env struct {
	quotes   *quote.Service
	invoices *invoice.Service
	customer customer.Customer
	now      time.Time
}

func setup(t *testing.T) env {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	st := memory.New()
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	customers := &customer.Service{Repo: st, Now: clock}
	quotes := &quote.Service{
		Repo:      st,
		Customers: customers,
		Catalog:   catalog.MustDefault(),
		Numbers:   numbering.Issuer{Seq: st, Template: numbering.QuoteTemplate, Prefix: "quote"},
		Now:       clock,
	}
	invoices := &invoice.Service{
		Repo:    st,
		Quotes:  quotes,
		Locker:  lock.Locker{R: client, Prefix: "test:", RetryBackoff: 5 * time.Millisecond},
		LockTTL: time.Second,
		Numbers: numbering.Issuer{Seq: st, Template: numbering.InvoiceTemplate, Prefix: "invoice"},
		Now:     clock,
	}
	c, err := customers.CreateCustomer(context.Background(), customer.CustomerInput{CompanyName: "Harbor County Purchasing"})
	require.NoError(t, err)
	return env{quotes: quotes, invoices: invoices, customer: c, now: now}
}

func (e env) acceptedQuote(t *testing.T, unit string) quote.Quote {
	t.Helper()
	ctx := context.Background()
	price := decimal.RequireFromString(unit)
	zero := decimal.Zero
	q, err := e.quotes.Create(ctx, quote.CreateInput{
		CustomerID:  e.customer.ID,
		ProjectName: "Cafeteria",
		TaxRate:     &zero,
		LineItems:   []quote.ItemInput{{Configuration: pricing.DefaultConfiguration(), Quantity: 2, UnitPrice: &price}},
	})
	require.NoError(t, err)
	for _, to := range []quote.Status{quote.StatusSent, quote.StatusAccepted} {
		q, err = e.quotes.Transition(ctx, q.ID, to)
		require.NoError(t, err)
	}
	return q
}

func codeOf(t *testing.T, err error) string {
	t.Helper()
	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	return appErr.Code
}

func TestConvertFreezesQuote(t *testing.T) {
	e := setup(t)
	q := e.acceptedQuote(t, "250")

	inv, err := e.invoices.ConvertFromQuote(context.Background(), q.ID)
	require.NoError(t, err)
	require.Equal(t, "INV-26-0001", inv.InvoiceNumber)
	require.Equal(t, q.QuoteNumber, inv.QuoteNumber)
	require.Equal(t, invoice.StatusDraft, inv.Status)
	require.True(t, inv.Total.Equal(decimal.NewFromInt(500)))
	require.True(t, inv.AmountDue.Equal(inv.Total))
	require.True(t, inv.AmountPaid.IsZero())
	require.Equal(t, e.now.AddDate(0, 0, invoice.DefaultDueDays), inv.DueDate)
	require.Len(t, inv.LineItems, 1)

	_, err = e.invoices.ConvertFromQuote(context.Background(), q.ID)
	require.Equal(t, "ALREADY_INVOICED", codeOf(t, err))
}

func TestConvertRequiresAcceptedQuote(t *testing.T) {
	e := setup(t)
	q, err := e.quotes.Create(context.Background(), quote.CreateInput{CustomerID: e.customer.ID, ProjectName: "Draft"})
	require.NoError(t, err)

	_, err = e.invoices.ConvertFromQuote(context.Background(), q.ID)
	require.Equal(t, "QUOTE_NOT_ACCEPTED", codeOf(t, err))

	_, err = e.invoices.ConvertFromQuote(context.Background(), "missing")
	require.Equal(t, "NOT_FOUND", codeOf(t, err))
}

func TestConcurrentConvertIssuesOneInvoice(t *testing.T) {
	e := setup(t)
	q := e.acceptedQuote(t, "100")

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		oks  int
		errs []error
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_, err := e.invoices.ConvertFromQuote(ctx, q.ID)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				oks++
				return
			}
			errs = append(errs, err)
		}()
	}
	wg.Wait()
	require.Equal(t, 1, oks)
	for _, err := range errs {
		require.Equal(t, "ALREADY_INVOICED", codeOf(t, err))
	}
}

func TestPaymentsMoveStatus(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	inv, err := e.invoices.ConvertFromQuote(ctx, e.acceptedQuote(t, "250").ID)
	require.NoError(t, err)
	inv, err = e.invoices.Send(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, invoice.StatusSent, inv.Status)

	_, err = e.invoices.RecordPayment(ctx, inv.ID, invoice.PaymentInput{Amount: decimal.NewFromInt(600), Method: invoice.MethodWire})
	require.Equal(t, "VALIDATION_FAILED", codeOf(t, err), "overpayment")
	_, err = e.invoices.RecordPayment(ctx, inv.ID, invoice.PaymentInput{Amount: decimal.Zero, Method: invoice.MethodWire})
	require.Equal(t, "VALIDATION_FAILED", codeOf(t, err))
	_, err = e.invoices.RecordPayment(ctx, inv.ID, invoice.PaymentInput{Amount: decimal.NewFromInt(1), Method: "barter"})
	require.Equal(t, "VALIDATION_FAILED", codeOf(t, err))

	inv, err = e.invoices.RecordPayment(ctx, inv.ID, invoice.PaymentInput{
		Amount: decimal.NewFromInt(200), Method: invoice.MethodCheck, Reference: " CHK-1001 ",
	})
	require.NoError(t, err)
	require.Equal(t, invoice.StatusPartial, inv.Status)
	require.True(t, inv.AmountDue.Equal(decimal.NewFromInt(300)))
	require.Equal(t, "CHK-1001", inv.Payments[0].Reference)

	_, err = e.invoices.Cancel(ctx, inv.ID)
	require.Equal(t, "INVOICE_HAS_PAYMENTS", codeOf(t, err))
	require.Equal(t, "INVOICE_HAS_PAYMENTS", codeOf(t, e.invoices.Delete(ctx, inv.ID)))

	inv, err = e.invoices.RecordPayment(ctx, inv.ID, invoice.PaymentInput{Amount: decimal.NewFromInt(300), Method: invoice.MethodACH})
	require.NoError(t, err)
	require.Equal(t, invoice.StatusPaid, inv.Status)
	require.True(t, inv.AmountDue.IsZero())
	require.NotNil(t, inv.PaidDate)
	require.Len(t, inv.Payments, 2)

	_, err = e.invoices.RecordPayment(ctx, inv.ID, invoice.PaymentInput{Amount: decimal.NewFromInt(1), Method: invoice.MethodACH})
	require.Equal(t, "INVOICE_CLOSED", codeOf(t, err))
}

func TestCancelAndDeleteUnpaid(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	inv, err := e.invoices.ConvertFromQuote(ctx, e.acceptedQuote(t, "80").ID)
	require.NoError(t, err)

	inv, err = e.invoices.Cancel(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, invoice.StatusCancelled, inv.Status)

	_, err = e.invoices.Send(ctx, inv.ID)
	require.Equal(t, "INVALID_TRANSITION", codeOf(t, err))

	require.NoError(t, e.invoices.Delete(ctx, inv.ID))
	_, err = e.invoices.Get(ctx, inv.ID)
	require.Equal(t, "NOT_FOUND", codeOf(t, err))
}

func TestMarkOverdue(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	sent, err := e.invoices.ConvertFromQuote(ctx, e.acceptedQuote(t, "10").ID)
	require.NoError(t, err)
	_, err = e.invoices.Send(ctx, sent.ID)
	require.NoError(t, err)
	draft, err := e.invoices.ConvertFromQuote(ctx, e.acceptedQuote(t, "20").ID)
	require.NoError(t, err)

	n, err := e.invoices.MarkOverdue(ctx, e.now.AddDate(0, 0, 29))
	require.NoError(t, err)
	require.Zero(t, n)

	n, err = e.invoices.MarkOverdue(ctx, e.now.AddDate(0, 0, 31))
	require.NoError(t, err)
	require.Equal(t, 1, n)

	got, err := e.invoices.Get(ctx, sent.ID)
	require.NoError(t, err)
	require.Equal(t, invoice.StatusOverdue, got.Status)
	got, err = e.invoices.Get(ctx, draft.ID)
	require.NoError(t, err)
	require.Equal(t, invoice.StatusDraft, got.Status)
}

// staleList hands out a listing and then lets another writer run before the
// caller acts on it.
type staleList struct {
	invoice.Repository
	afterList func()
}

func (r *staleList) ListInvoices(ctx context.Context, f invoice.Filter) ([]invoice.Invoice, int, error) {
	items, total, err := r.Repository.ListInvoices(ctx, f)
	if hook := r.afterList; hook != nil {
		r.afterList = nil
		hook()
	}
	return items, total, err
}

func TestMarkOverdueKeepsConcurrentPayment(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	inv, err := e.invoices.ConvertFromQuote(ctx, e.acceptedQuote(t, "250").ID)
	require.NoError(t, err)
	_, err = e.invoices.Send(ctx, inv.ID)
	require.NoError(t, err)

	sweeper := *e.invoices
	sweeper.Repo = &staleList{
		Repository: e.invoices.Repo,
		afterList: func() {
			_, err := e.invoices.RecordPayment(ctx, inv.ID, invoice.PaymentInput{Amount: decimal.NewFromInt(400), Method: invoice.MethodCheck})
			require.NoError(t, err)
		},
	}

	n, err := sweeper.MarkOverdue(ctx, e.now.AddDate(0, 0, 31))
	require.NoError(t, err)
	require.Equal(t, 1, n)

	got, err := e.invoices.Get(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, invoice.StatusOverdue, got.Status)
	require.Len(t, got.Payments, 1)
	require.True(t, got.AmountPaid.Equal(decimal.NewFromInt(400)))
	require.True(t, got.AmountDue.Equal(decimal.NewFromInt(100)))
}

func TestMarkOverdueSkipsInvoicePaidMeanwhile(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	inv, err := e.invoices.ConvertFromQuote(ctx, e.acceptedQuote(t, "50").ID)
	require.NoError(t, err)
	_, err = e.invoices.Send(ctx, inv.ID)
	require.NoError(t, err)

	sweeper := *e.invoices
	sweeper.Repo = &staleList{
		Repository: e.invoices.Repo,
		afterList: func() {
			_, err := e.invoices.RecordPayment(ctx, inv.ID, invoice.PaymentInput{Amount: decimal.NewFromInt(100), Method: invoice.MethodWire})
			require.NoError(t, err)
		},
	}

	n, err := sweeper.MarkOverdue(ctx, e.now.AddDate(0, 0, 31))
	require.NoError(t, err)
	require.Zero(t, n)

	got, err := e.invoices.Get(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, invoice.StatusPaid, got.Status)
}

func TestZeroTotalInvoiceIsSettled(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	inv, err := e.invoices.ConvertFromQuote(ctx, e.acceptedQuote(t, "0").ID)
	require.NoError(t, err)
	require.True(t, inv.Total.IsZero())
	require.Equal(t, invoice.StatusPaid, inv.Status)
	require.NotNil(t, inv.PaidDate)
	require.True(t, inv.AmountDue.IsZero())

	n, err := e.invoices.MarkOverdue(ctx, e.now.AddDate(0, 0, 60))
	require.NoError(t, err)
	require.Zero(t, n)
}
