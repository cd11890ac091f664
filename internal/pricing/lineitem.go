package pricing

import "github.com/shopspring/decimal"

// LineItem wraps a configuration with a quantity and unit price. TotalPrice is
// always Quantity x UnitPrice; use the setters to keep it that way.
type LineItem struct {
	ID            string          `json:"id"`
	Configuration Configuration   `json:"configuration"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
	Notes         string          `json:"notes,omitempty"`
}

// NewLineItem builds a line item with its total already computed.
func NewLineItem(id string, cfg Configuration, quantity int, unitPrice decimal.Decimal) LineItem {
	li := LineItem{ID: id, Configuration: cfg, Quantity: quantity, UnitPrice: unitPrice}
	li.Recompute()
	return li
}

// SetQuantity updates the quantity and total.
func (li *LineItem) SetQuantity(q int) {
	li.Quantity = q
	li.Recompute()
}

// SetUnitPrice updates the unit price and total.
func (li *LineItem) SetUnitPrice(p decimal.Decimal) {
	li.UnitPrice = p
	li.Recompute()
}

// Recompute refreshes TotalPrice from Quantity and UnitPrice.
func (li *LineItem) Recompute() {
	li.TotalPrice = li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// CloneLineItems deep-copies a slice of line items.
func CloneLineItems(items []LineItem) []LineItem {
	if items == nil {
		return nil
	}
	out := make([]LineItem, len(items))
	for i, it := range items {
		it.Configuration = it.Configuration.Clone()
		out[i] = it
	}
	return out
}
