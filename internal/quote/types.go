package quote

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/quotex-api/internal/pricing"
	"github.com/noah-isme/quotex-api/internal/store"
)

// Status is the quote lifecycle state.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusSent     Status = "sent"
	StatusViewed   Status = "viewed"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
)

// Terminal reports whether no further transition or edit is allowed.
func (s Status) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected || s == StatusExpired
}

// Pending reports whether the quote is out with the customer.
func (s Status) Pending() bool {
	return s == StatusSent || s == StatusViewed
}

var transitions = map[Status][]Status{
	StatusDraft:  {StatusSent, StatusAccepted, StatusRejected},
	StatusSent:   {StatusViewed, StatusAccepted, StatusRejected, StatusExpired},
	StatusViewed: {StatusAccepted, StatusRejected, StatusExpired},
}

// CanTransition reports whether from -> to is a legal lifecycle step.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Action names accepted by the transition endpoint.
var actions = map[string]Status{
	"send":   StatusSent,
	"view":   StatusViewed,
	"accept": StatusAccepted,
	"reject": StatusRejected,
}

// ActionTarget maps a transition action to its target status.
func ActionTarget(action string) (Status, bool) {
	s, ok := actions[action]
	return s, ok
}

// Quote is a customer quote. The four money totals are derived from the line
// items, the discount and the tax rate and are recomputed on every change.
type Quote struct {
	ID             string               `json:"id"`
	QuoteNumber    string               `json:"quoteNumber"`
	CustomerID     string               `json:"customerId"`
	CustomerName   string               `json:"customerName"`
	ProjectName    string               `json:"projectName"`
	LineItems      []pricing.LineItem   `json:"lineItems"`
	Subtotal       decimal.Decimal      `json:"subtotal"`
	DiscountType   pricing.DiscountType `json:"discountType"`
	DiscountValue  decimal.Decimal      `json:"discountValue"`
	DiscountAmount decimal.Decimal      `json:"discountAmount"`
	TaxRate        decimal.Decimal      `json:"taxRate"`
	TaxAmount      decimal.Decimal      `json:"taxAmount"`
	Total          decimal.Decimal      `json:"total"`
	Status         Status               `json:"status"`
	Notes          string               `json:"notes,omitempty"`
	InternalNotes  string               `json:"internalNotes,omitempty"`
	ValidUntil     time.Time            `json:"validUntil"`
	CreatedAt      time.Time            `json:"createdAt"`
	UpdatedAt      time.Time            `json:"updatedAt"`
	SentAt         *time.Time           `json:"sentAt,omitempty"`
}

// Discount returns the quote-level discount.
func (q Quote) Discount() pricing.Discount {
	return pricing.Discount{Type: q.DiscountType, Value: q.DiscountValue}
}

// Totals returns the stored totals.
func (q Quote) Totals() pricing.Totals {
	return pricing.Totals{
		Subtotal:       q.Subtotal,
		DiscountAmount: q.DiscountAmount,
		TaxAmount:      q.TaxAmount,
		Total:          q.Total,
	}
}

// Recompute refreshes every line total and the quote totals.
func (q *Quote) Recompute(policy pricing.DiscountPolicy) {
	for i := range q.LineItems {
		q.LineItems[i].Recompute()
	}
	t := pricing.ComputeTotals(q.LineItems, q.Discount(), q.TaxRate, policy)
	q.Subtotal = t.Subtotal
	q.DiscountAmount = t.DiscountAmount
	q.TaxAmount = t.TaxAmount
	q.Total = t.Total
}

// Clone deep-copies the quote.
func (q Quote) Clone() Quote {
	out := q
	out.LineItems = pricing.CloneLineItems(q.LineItems)
	if q.SentAt != nil {
		at := *q.SentAt
		out.SentAt = &at
	}
	return out
}

// Filter narrows quote listings.
type Filter struct {
	Statuses   []Status
	CustomerID string
	Query      string
	Page       store.Page
}

// Matches reports whether q satisfies the status and customer criteria.
// Query matching is left to the store.
func (f Filter) Matches(q Quote) bool {
	if f.CustomerID != "" && q.CustomerID != f.CustomerID {
		return false
	}
	if len(f.Statuses) == 0 {
		return true
	}
	for _, s := range f.Statuses {
		if q.Status == s {
			return true
		}
	}
	return false
}
