package document_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/noah-isme/quotex-api/internal/catalog"
	"github.com/noah-isme/quotex-api/internal/document"
	"github.com/noah-isme/quotex-api/internal/pricing"
	"github.com/noah-isme/quotex-api/internal/quote"
	"github.com/noah-isme/quotex-api/internal/settings"
)

func sampleQuote(t *testing.T) quote.Quote {
	t.Helper()
	cat := catalog.MustDefault()
	cfg := pricing.Reprice(pricing.DefaultConfiguration(), cat)
	q := quote.Quote{
		ID:            "q1",
		QuoteNumber:   "QT-26-0007",
		CustomerName:  "State University",
		ProjectName:   "Library refresh",
		LineItems:     []pricing.LineItem{pricing.NewLineItem("li1", cfg, 16, cfg.CalculatedPrice)},
		DiscountType:  pricing.DiscountPercentage,
		DiscountValue: decimal.NewFromInt(10),
		TaxRate:       decimal.RequireFromString("7.5"),
		Status:        quote.StatusDraft,
		CreatedAt:     time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		ValidUntil:    time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC),
	}
	q.Recompute(pricing.PolicyClampToSubtotal)
	return q
}

func TestBuildUsesStoredTotals(t *testing.T) {
	q := sampleQuote(t)
	doc := document.Build(q, settings.Defaults(), catalog.MustDefault())
	require.Len(t, doc.Lines, 1)
	require.True(t, doc.Totals.Total.Equal(q.Total))
	require.Equal(t, "01/02/2006", doc.DateLayout)
	require.Contains(t, doc.Lines[0].Description, "base")
	require.Contains(t, doc.Lines[0].Description, `60" x 30"`)
}

func TestDescribeFallsBackToIDs(t *testing.T) {
	desc := document.Describe(pricing.Configuration{BaseSeries: "mystery", Accessories: []string{"gizmo"}}, catalog.MustDefault())
	require.Equal(t, "mystery base; with gizmo", desc)
	require.Equal(t, "Custom table", document.Describe(pricing.Configuration{}, catalog.MustDefault()))
}

func TestMoney(t *testing.T) {
	require.Equal(t, "$9,636.30", document.Money(decimal.RequireFromString("9636.3"), "USD"))
	require.Equal(t, "$0.00", document.Money(decimal.Zero, ""))
	require.Equal(t, "-$1,234,567.89", document.Money(decimal.RequireFromString("-1234567.891"), "USD"))
	require.Equal(t, "CHF 12.00", document.Money(decimal.NewFromInt(12), "chf"))
}

func TestRenderPDF(t *testing.T) {
	doc := document.Build(sampleQuote(t), settings.Defaults(), catalog.MustDefault())
	out, err := document.RenderPDF(doc)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderXLSX(t *testing.T) {
	q := sampleQuote(t)
	out, err := document.RenderXLSX(document.Build(q, settings.Defaults(), catalog.MustDefault()))
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()
	number, err := f.GetCellValue("Quote", "B4")
	require.NoError(t, err)
	require.Equal(t, "QT-26-0007", number)
	qty, err := f.GetCellValue("Quote", "C9")
	require.NoError(t, err)
	require.Equal(t, "16", qty)
}
