package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DiscountType selects how a quote-level discount value is interpreted.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// ParseDiscountType normalises user input. Anything other than "percentage"
// is a fixed amount.
func ParseDiscountType(v string) DiscountType {
	if strings.EqualFold(strings.TrimSpace(v), string(DiscountPercentage)) {
		return DiscountPercentage
	}
	return DiscountFixed
}

// Discount is a quote-level reduction applied to the subtotal.
type Discount struct {
	Type  DiscountType    `json:"type"`
	Value decimal.Decimal `json:"value"`
}

// DiscountPolicy controls what happens when a fixed discount falls outside
// [0, subtotal]. Percentage discounts are always subtotal*value/100.
type DiscountPolicy string

const (
	// PolicyClampToSubtotal bounds a fixed discount amount to [0, subtotal].
	PolicyClampToSubtotal DiscountPolicy = "clamp"
	// PolicyAllowNegative keeps the raw amount, so an oversized flat discount
	// yields a negative taxable amount, tax and total.
	PolicyAllowNegative DiscountPolicy = "allow-negative"
)

// ParseDiscountPolicy maps configuration strings onto a policy, defaulting to
// clamping.
func ParseDiscountPolicy(v string) DiscountPolicy {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case string(PolicyAllowNegative), "allow_negative", "none":
		return PolicyAllowNegative
	default:
		return PolicyClampToSubtotal
	}
}

// Totals are the derived money fields of a quote.
type Totals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	TaxAmount      decimal.Decimal `json:"taxAmount"`
	Total          decimal.Decimal `json:"total"`
}

// ComputeTotals aggregates line items into subtotal, discount, tax and total.
// It is the only place quote totals are derived; results are exact and
// unrounded so that subtotal - discount + tax == total always holds.
func ComputeTotals(items []LineItem, d Discount, taxRatePercent decimal.Decimal, policy DiscountPolicy) Totals {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.TotalPrice)
	}

	var discount decimal.Decimal
	if d.Type == DiscountPercentage {
		discount = subtotal.Mul(d.Value).Div(hundred)
	} else {
		discount = d.Value
	}
	if d.Type != DiscountPercentage && policy != PolicyAllowNegative {
		if discount.GreaterThan(subtotal) {
			discount = subtotal
		}
		if discount.IsNegative() {
			discount = decimal.Zero
		}
	}

	taxable := subtotal.Sub(discount)
	tax := taxable.Mul(taxRatePercent).Div(hundred)
	return Totals{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		TaxAmount:      tax,
		Total:          taxable.Add(tax),
	}
}
