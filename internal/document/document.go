// Package document renders quotes as customer-facing PDF and XLSX files.
package document

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/quotex-api/internal/pricing"
	"github.com/noah-isme/quotex-api/internal/quote"
	"github.com/noah-isme/quotex-api/internal/settings"
)

// Line is one printable line item.
type Line struct {
	Index       int
	Description string
	Notes       string
	Quantity    int
	UnitPrice   decimal.Decimal
	Total       decimal.Decimal
}

// QuoteDocument is everything a rendered quote shows. Totals are the stored
// quote totals and are never recomputed here.
type QuoteDocument struct {
	Company      settings.Company
	QuoteNumber  string
	CustomerName string
	ProjectName  string
	Status       quote.Status
	IssuedAt     time.Time
	ValidUntil   time.Time
	Lines        []Line
	Totals       pricing.Totals
	Discount     pricing.Discount
	TaxRate      decimal.Decimal
	Notes        string
	Currency     string
	DateLayout   string
}

// Build assembles a QuoteDocument from a quote and the business settings.
func Build(q quote.Quote, st settings.Settings, names pricing.Catalog) QuoteDocument {
	doc := QuoteDocument{
		Company:      st.Company,
		QuoteNumber:  q.QuoteNumber,
		CustomerName: q.CustomerName,
		ProjectName:  q.ProjectName,
		Status:       q.Status,
		IssuedAt:     q.CreatedAt,
		ValidUntil:   q.ValidUntil,
		Totals:       q.Totals(),
		Discount:     q.Discount(),
		TaxRate:      q.TaxRate,
		Notes:        q.Notes,
		Currency:     st.Preferences.Currency,
		DateLayout:   DateLayout(st.Preferences.DateFormat),
	}
	if q.SentAt != nil {
		doc.IssuedAt = *q.SentAt
	}
	for i, li := range q.LineItems {
		doc.Lines = append(doc.Lines, Line{
			Index:       i + 1,
			Description: Describe(li.Configuration, names),
			Notes:       li.Notes,
			Quantity:    li.Quantity,
			UnitPrice:   li.UnitPrice,
			Total:       li.TotalPrice,
		})
	}
	return doc
}

// Describe renders a configuration as a one-line product description using
// catalog display names. Unknown ids fall back to the raw id.
func Describe(cfg pricing.Configuration, names pricing.Catalog) string {
	var parts []string
	if b, ok := names.Base(cfg.BaseSeries); ok {
		parts = append(parts, b.Name+" base")
	} else if cfg.BaseSeries != "" {
		parts = append(parts, cfg.BaseSeries+" base")
	}
	if h, ok := names.Height(cfg.Height); ok {
		parts = append(parts, h.Name)
	}
	if f, ok := names.Finish(cfg.Finish); ok {
		finish := f.Name + " finish"
		if cfg.IsChrome {
			finish = "Chrome"
		}
		parts = append(parts, finish)
	}
	var features []string
	for _, f := range []struct {
		on   bool
		name string
	}{{cfg.Folding, "folding"}, {cfg.FlipTop, "flip-top"}, {cfg.Nesting, "nesting"}, {cfg.FootRing, "foot ring"}} {
		if f.on {
			features = append(features, f.name)
		}
	}
	if len(features) > 0 {
		parts = append(parts, strings.Join(features, ", "))
	}

	top := ""
	if cfg.HasTop() {
		top = cfg.TopWidth.String() + `" x ` + cfg.TopDepth.String() + `"`
	}
	if s, ok := names.Shape(cfg.TopShape); ok {
		top = strings.TrimSpace(top + " " + s.Name)
	}
	if m, ok := names.Material(cfg.TopMaterial); ok {
		top = strings.TrimSpace(top + " " + m.Name)
		if l, ok := names.Laminate(cfg.LaminateID); ok {
			top += " (" + l.Name + ")"
		}
	}
	if top != "" {
		parts = append(parts, top+" top")
	}
	if e, ok := names.Edge(cfg.EdgeType); ok {
		parts = append(parts, e.Name+" edge")
	}
	if n := len(cfg.Accessories); n > 0 {
		accs := make([]string, 0, n)
		for _, id := range cfg.Accessories {
			if a, ok := names.Accessory(id); ok {
				accs = append(accs, a.Name)
			} else {
				accs = append(accs, id)
			}
		}
		parts = append(parts, "with "+strings.Join(accs, ", "))
	}
	if len(parts) == 0 {
		return "Custom table"
	}
	return strings.Join(parts, "; ")
}

// DateLayout converts a display pattern such as MM/DD/YYYY into a Go
// time layout.
func DateLayout(pattern string) string {
	if pattern == "" {
		pattern = "MM/DD/YYYY"
	}
	return strings.NewReplacer("YYYY", "2006", "YY", "06", "MM", "01", "DD", "02").Replace(pattern)
}

// Money formats an amount with a currency symbol and thousands separators.
func Money(v decimal.Decimal, currency string) string {
	sign := ""
	if v.IsNegative() {
		sign = "-"
		v = v.Neg()
	}
	fixed := v.StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + symbol(currency) + b.String() + "." + frac
}

func symbol(currency string) string {
	switch strings.ToUpper(currency) {
	case "", "USD", "CAD", "AUD":
		return "$"
	case "EUR":
		return "€"
	case "GBP":
		return "£"
	default:
		return strings.ToUpper(currency) + " "
	}
}

func (d QuoteDocument) date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(d.DateLayout)
}

func (d QuoteDocument) money(v decimal.Decimal) string { return Money(v, d.Currency) }

func (d QuoteDocument) discountLabel() string {
	if d.Discount.Type == pricing.DiscountPercentage && !d.Discount.Value.IsZero() {
		return fmt.Sprintf("Discount (%s%%)", d.Discount.Value.String())
	}
	return "Discount"
}

func (d QuoteDocument) taxLabel() string {
	return fmt.Sprintf("Tax (%s%%)", d.TaxRate.String())
}

func (d QuoteDocument) validityNote() string {
	if d.ValidUntil.IsZero() {
		return ""
	}
	return "This quote is valid until " + d.date(d.ValidUntil) + ". Prices exclude freight unless stated."
}
