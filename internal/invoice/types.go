package invoice

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/quotex-api/internal/pricing"
	"github.com/noah-isme/quotex-api/internal/store"
)

// Status is the invoice state.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSent      Status = "sent"
	StatusPaid      Status = "paid"
	StatusPartial   Status = "partial"
	StatusOverdue   Status = "overdue"
	StatusCancelled Status = "cancelled"
)

// Collectable reports whether payments may be recorded against the invoice.
func (s Status) Collectable() bool {
	return s == StatusDraft || s == StatusSent || s == StatusPartial || s == StatusOverdue
}

// PaymentMethod is how a payment was made.
type PaymentMethod string

const (
	MethodCheck      PaymentMethod = "check"
	MethodWire       PaymentMethod = "wire"
	MethodCreditCard PaymentMethod = "credit-card"
	MethodACH        PaymentMethod = "ach"
	MethodOther      PaymentMethod = "other"
)

// Payment is money received against an invoice.
type Payment struct {
	ID        string          `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    PaymentMethod   `json:"method"`
	Reference string          `json:"reference,omitempty"`
	Date      time.Time       `json:"date"`
	Notes     string          `json:"notes,omitempty"`
}

// Invoice is issued from an accepted quote. Line items and totals are frozen
// copies of the quote at conversion time.
type Invoice struct {
	ID             string             `json:"id"`
	InvoiceNumber  string             `json:"invoiceNumber"`
	QuoteID        string             `json:"quoteId"`
	QuoteNumber    string             `json:"quoteNumber"`
	CustomerID     string             `json:"customerId"`
	CustomerName   string             `json:"customerName"`
	LineItems      []pricing.LineItem `json:"lineItems"`
	Subtotal       decimal.Decimal    `json:"subtotal"`
	DiscountAmount decimal.Decimal    `json:"discountAmount"`
	TaxAmount      decimal.Decimal    `json:"taxAmount"`
	Total          decimal.Decimal    `json:"total"`
	AmountPaid     decimal.Decimal    `json:"amountPaid"`
	AmountDue      decimal.Decimal    `json:"amountDue"`
	Status         Status             `json:"status"`
	Payments       []Payment          `json:"payments"`
	DueDate        time.Time          `json:"dueDate"`
	IssuedDate     time.Time          `json:"issuedDate"`
	PaidDate       *time.Time         `json:"paidDate,omitempty"`
	Notes          string             `json:"notes,omitempty"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

// Clone deep-copies the invoice.
func (inv Invoice) Clone() Invoice {
	out := inv
	out.LineItems = pricing.CloneLineItems(inv.LineItems)
	if inv.Payments != nil {
		out.Payments = append([]Payment(nil), inv.Payments...)
	}
	if inv.PaidDate != nil {
		at := *inv.PaidDate
		out.PaidDate = &at
	}
	return out
}

// Filter narrows invoice listings.
type Filter struct {
	Statuses   []Status
	CustomerID string
	Page       store.Page
}

// Matches reports whether inv satisfies the filter.
func (f Filter) Matches(inv Invoice) bool {
	if f.CustomerID != "" && inv.CustomerID != f.CustomerID {
		return false
	}
	if len(f.Statuses) == 0 {
		return true
	}
	for _, s := range f.Statuses {
		if inv.Status == s {
			return true
		}
	}
	return false
}
