package invoice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/noah-isme/quotex-api/internal/common"
	"github.com/noah-isme/quotex-api/internal/numbering"
	"github.com/noah-isme/quotex-api/internal/obs"
	"github.com/noah-isme/quotex-api/internal/pricing"
	"github.com/noah-isme/quotex-api/internal/quote"
	"github.com/noah-isme/quotex-api/internal/store"
)

// DefaultDueDays is the payment term applied at conversion.
const DefaultDueDays = 30

// errUnchanged aborts a mutate callback without writing.
var errUnchanged = errors.New("invoice: unchanged")

// Repository persists invoices. CreateInvoice returns store.ErrConflict when
// the quote already has an invoice.
type Repository interface {
	CreateInvoice(ctx context.Context, inv Invoice) error
	GetInvoice(ctx context.Context, id string) (Invoice, error)
	GetInvoiceByQuote(ctx context.Context, quoteID string) (Invoice, error)
	ListInvoices(ctx context.Context, f Filter) ([]Invoice, int, error)
	UpdateInvoice(ctx context.Context, inv Invoice) error
	DeleteInvoice(ctx context.Context, id string) error
}

// Quotes loads the quote being converted.
type Quotes interface {
	Get(ctx context.Context, id string) (quote.Quote, error)
}

// Locker serialises work on a key across processes.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// Service implements invoicing and payment collection.
type Service struct {
	Repo    Repository
	Quotes  Quotes
	Locker  Locker
	LockTTL time.Duration
	Numbers numbering.Issuer
	DueDays int
	Log     zerolog.Logger
	Now     func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
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
		return fmt.Errorf("invoice: %s: %w", what, err)
	}
}

func (s *Service) withLock(ctx context.Context, key string, fn func(context.Context) error) error {
	if s.Locker == nil {
		return fn(ctx)
	}
	ttl := s.LockTTL
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return s.Locker.WithLock(ctx, key, ttl, fn)
}

// ConvertFromQuote issues an invoice for an accepted quote. Conversion is
// serialised per quote; a quote can be invoiced once.
func (s *Service) ConvertFromQuote(ctx context.Context, quoteID string) (Invoice, error) {
	if s == nil || s.Repo == nil || s.Quotes == nil {
		return Invoice{}, errors.New("invoice service not configured")
	}
	ctx, span := otel.Tracer("invoice.Service").Start(ctx, "InvoiceService.ConvertFromQuote")
	defer span.End()

	var out Invoice
	err := s.withLock(ctx, "lock:invoice:quote:"+quoteID, func(ctx context.Context) error {
		q, err := s.Quotes.Get(ctx, quoteID)
		if err != nil {
			return translate(err, "quote")
		}
		if q.Status != quote.StatusAccepted {
			return common.Conflict("QUOTE_NOT_ACCEPTED", fmt.Sprintf("only accepted quotes can be invoiced, quote is %s", q.Status), nil)
		}
		if existing, err := s.Repo.GetInvoiceByQuote(ctx, quoteID); err == nil {
			appErr := common.Conflict("ALREADY_INVOICED", "quote already has invoice "+existing.InvoiceNumber, nil)
			appErr.Details = map[string]string{"invoiceId": existing.ID}
			return appErr
		} else if !errors.Is(err, store.ErrNotFound) {
			return translate(err, "invoice")
		}

		now := s.now().UTC()
		number, err := s.Numbers.Next(ctx, now)
		if err != nil {
			return fmt.Errorf("invoice: allocate number: %w", err)
		}
		dueDays := s.DueDays
		if dueDays <= 0 {
			dueDays = DefaultDueDays
		}
		inv := Invoice{
			ID:             uuid.NewString(),
			InvoiceNumber:  number,
			QuoteID:        q.ID,
			QuoteNumber:    q.QuoteNumber,
			CustomerID:     q.CustomerID,
			CustomerName:   q.CustomerName,
			LineItems:      pricing.CloneLineItems(q.LineItems),
			Subtotal:       q.Subtotal,
			DiscountAmount: q.DiscountAmount,
			TaxAmount:      q.TaxAmount,
			Total:          q.Total,
			AmountPaid:     decimal.Zero,
			AmountDue:      q.Total,
			Status:         StatusDraft,
			Payments:       []Payment{},
			IssuedDate:     now,
			DueDate:        now.AddDate(0, 0, dueDays),
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if !inv.Total.IsPositive() {
			// nothing to collect
			inv.AmountDue = decimal.Zero
			inv.Status = StatusPaid
			inv.PaidDate = &now
		}
		if err := s.Repo.CreateInvoice(ctx, inv); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return common.Conflict("ALREADY_INVOICED", "quote already has an invoice", err)
			}
			return translate(err, "invoice")
		}
		out = inv
		return nil
	})
	if err != nil {
		return Invoice{}, err
	}
	span.SetAttributes(attribute.String("invoice.number", out.InvoiceNumber))
	if obs.InvoicesConvertedTotal != nil {
		obs.InvoicesConvertedTotal.Inc()
	}
	s.Log.Info().Str("invoice", out.InvoiceNumber).Str("quote", out.QuoteNumber).Str("total", out.Total.StringFixed(2)).Msg("quote converted to invoice")
	return out, nil
}

// Get loads one invoice.
func (s *Service) Get(ctx context.Context, id string) (Invoice, error) {
	if s == nil || s.Repo == nil {
		return Invoice{}, errors.New("invoice service not configured")
	}
	inv, err := s.Repo.GetInvoice(ctx, id)
	return inv, translate(err, "invoice")
}

// List returns a page of invoices.
func (s *Service) List(ctx context.Context, f Filter) ([]Invoice, int, error) {
	if s == nil || s.Repo == nil {
		return nil, 0, errors.New("invoice service not configured")
	}
	items, total, err := s.Repo.ListInvoices(ctx, f)
	return items, total, translate(err, "invoices")
}

// Delete removes an invoice that has not collected any money.
func (s *Service) Delete(ctx context.Context, id string) error {
	inv, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if inv.AmountPaid.IsPositive() {
		return common.Conflict("INVOICE_HAS_PAYMENTS", "invoices with payments cannot be deleted", nil)
	}
	return translate(s.Repo.DeleteInvoice(ctx, id), "invoice")
}

func (s *Service) mutate(ctx context.Context, id string, fn func(inv *Invoice) error) (Invoice, error) {
	if s == nil || s.Repo == nil {
		return Invoice{}, errors.New("invoice service not configured")
	}
	var out Invoice
	err := s.withLock(ctx, "lock:invoice:"+id, func(ctx context.Context) error {
		inv, err := s.Repo.GetInvoice(ctx, id)
		if err != nil {
			return translate(err, "invoice")
		}
		if err := fn(&inv); err != nil {
			return err
		}
		inv.UpdatedAt = s.now().UTC()
		if err := s.Repo.UpdateInvoice(ctx, inv); err != nil {
			return translate(err, "invoice")
		}
		out = inv
		return nil
	})
	return out, err
}

// Send marks a draft invoice as sent.
func (s *Service) Send(ctx context.Context, id string) (Invoice, error) {
	return s.mutate(ctx, id, func(inv *Invoice) error {
		if inv.Status != StatusDraft {
			return common.Conflict("INVALID_TRANSITION", fmt.Sprintf("cannot send a %s invoice", inv.Status), nil)
		}
		inv.Status = StatusSent
		return nil
	})
}

// Cancel voids an unpaid invoice.
func (s *Service) Cancel(ctx context.Context, id string) (Invoice, error) {
	return s.mutate(ctx, id, func(inv *Invoice) error {
		if inv.Status == StatusPaid || inv.Status == StatusCancelled {
			return common.Conflict("INVALID_TRANSITION", fmt.Sprintf("cannot cancel a %s invoice", inv.Status), nil)
		}
		if inv.AmountPaid.IsPositive() {
			return common.Conflict("INVOICE_HAS_PAYMENTS", "invoices with payments cannot be cancelled", nil)
		}
		inv.Status = StatusCancelled
		return nil
	})
}

// PaymentInput is a payment as submitted by clients.
type PaymentInput struct {
	Amount    decimal.Decimal `json:"amount"`
	Method    PaymentMethod   `json:"method" validate:"required,oneof=check wire credit-card ach other"`
	Reference string          `json:"reference"`
	Date      *time.Time      `json:"date"`
	Notes     string          `json:"notes"`
}

// RecordPayment applies a payment. The amount must be positive and no more
// than the amount due; the invoice becomes partial or paid.
func (s *Service) RecordPayment(ctx context.Context, id string, in PaymentInput) (Invoice, error) {
	if err := common.ValidateStruct(in); err != nil {
		return Invoice{}, err
	}
	if !in.Amount.IsPositive() {
		return Invoice{}, common.Validation("request validation failed", map[string]string{"amount": "must be greater than zero"}, nil)
	}
	inv, err := s.mutate(ctx, id, func(inv *Invoice) error {
		if !inv.Status.Collectable() {
			return common.Conflict("INVOICE_CLOSED", fmt.Sprintf("cannot record payments on a %s invoice", inv.Status), nil)
		}
		if in.Amount.GreaterThan(inv.AmountDue) {
			return common.Validation("request validation failed", map[string]string{"amount": "exceeds amount due " + inv.AmountDue.StringFixed(2)}, nil)
		}
		now := s.now().UTC()
		date := now
		if in.Date != nil {
			date = in.Date.UTC()
		}
		inv.Payments = append(inv.Payments, Payment{
			ID:        uuid.NewString(),
			Amount:    in.Amount,
			Method:    in.Method,
			Reference: strings.TrimSpace(in.Reference),
			Date:      date,
			Notes:     in.Notes,
		})
		inv.AmountPaid = inv.AmountPaid.Add(in.Amount)
		inv.AmountDue = inv.Total.Sub(inv.AmountPaid)
		if inv.AmountDue.Sign() <= 0 {
			inv.AmountDue = decimal.Zero
			inv.Status = StatusPaid
			inv.PaidDate = &now
		} else {
			inv.Status = StatusPartial
		}
		return nil
	})
	if err != nil {
		return Invoice{}, err
	}
	if obs.PaymentsRecordedTotal != nil {
		obs.PaymentsRecordedTotal.WithLabelValues(string(in.Method)).Inc()
	}
	return inv, nil
}

// MarkOverdue flags sent and partially paid invoices whose due date has
// passed. It returns the number of invoices changed.
func (s *Service) MarkOverdue(ctx context.Context, now time.Time) (int, error) {
	if s == nil || s.Repo == nil {
		return 0, errors.New("invoice service not configured")
	}
	open, _, err := s.Repo.ListInvoices(ctx, Filter{Statuses: []Status{StatusSent, StatusPartial}})
	if err != nil {
		return 0, translate(err, "invoices")
	}
	changed := 0
	var joined error
	for _, snap := range open {
		if !now.After(snap.DueDate) {
			continue
		}
		_, err := s.mutate(ctx, snap.ID, func(inv *Invoice) error {
			if (inv.Status != StatusSent && inv.Status != StatusPartial) || !now.After(inv.DueDate) {
				return errUnchanged
			}
			inv.Status = StatusOverdue
			return nil
		})
		switch {
		case errors.Is(err, errUnchanged), errors.Is(err, store.ErrNotFound):
			continue
		case err != nil:
			joined = errors.Join(joined, fmt.Errorf("invoice %s: %w", snap.InvoiceNumber, err))
			continue
		}
		changed++
	}
	return changed, joined
}
