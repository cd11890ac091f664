package document

import (
	"fmt"
	"strconv"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

var (
	grey       = &props.Color{Red: 110, Green: 110, Blue: 110}
	headerFill = &props.Cell{BackgroundColor: &props.Color{Red: 33, Green: 37, Blue: 41}}
	stripe     = &props.Cell{BackgroundColor: &props.Color{Red: 245, Green: 245, Blue: 245}}
	totalsFill = &props.Cell{BackgroundColor: &props.Color{Red: 240, Green: 240, Blue: 240}}
)

// RenderPDF lays out the quote on Letter pages with page numbers.
func RenderPDF(d QuoteDocument) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.Letter).
		WithLeftMargin(12).
		WithTopMargin(12).
		WithRightMargin(12).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   grey,
		}).
		Build()

	m := maroto.New(cfg)
	pdfLetterhead(m, d)
	pdfMeta(m, d)
	pdfLinesHeader(m)
	for i, l := range d.Lines {
		pdfLine(m, d, l, i%2 == 1)
	}
	pdfTotals(m, d)
	pdfFooter(m, d)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("document: generate pdf: %w", err)
	}
	return doc.GetBytes(), nil
}

func pdfLetterhead(m core.Maroto, d QuoteDocument) {
	m.AddRow(10,
		text.NewCol(8, d.Company.Name, props.Text{Size: 18, Style: fontstyle.Bold}),
		text.NewCol(4, "QUOTE", props.Text{Size: 18, Style: fontstyle.Bold, Align: align.Right}),
	)
	if d.Company.Tagline != "" {
		m.AddRow(5, text.NewCol(12, d.Company.Tagline, props.Text{Size: 8, Style: fontstyle.Italic, Color: grey}))
	}
	contact := d.Company.Address
	for _, part := range []string{d.Company.Phone, d.Company.Email, d.Company.Website} {
		if part != "" {
			contact += "  |  " + part
		}
	}
	m.AddRow(5, text.NewCol(12, contact, props.Text{Size: 8, Color: grey}))
	m.AddRows(row.New(6))
}

func pdfMeta(m core.Maroto, d QuoteDocument) {
	label := props.Text{Size: 9, Style: fontstyle.Bold}
	value := props.Text{Size: 9}
	m.AddRows(
		row.New(6).Add(
			col.New(2).Add(text.New("Quote #", label)),
			col.New(4).Add(text.New(d.QuoteNumber, value)),
			col.New(2).Add(text.New("Date", label)),
			col.New(4).Add(text.New(d.date(d.IssuedAt), value)),
		),
		row.New(6).Add(
			col.New(2).Add(text.New("Customer", label)),
			col.New(4).Add(text.New(d.CustomerName, value)),
			col.New(2).Add(text.New("Valid until", label)),
			col.New(4).Add(text.New(d.date(d.ValidUntil), value)),
		),
	)
	if d.ProjectName != "" {
		m.AddRow(6,
			col.New(2).Add(text.New("Project", label)),
			col.New(10).Add(text.New(d.ProjectName, value)),
		)
	}
	m.AddRows(row.New(4))
}

func pdfLinesHeader(m core.Maroto) {
	white := &props.Color{Red: 255, Green: 255, Blue: 255}
	center := props.Text{Size: 8, Style: fontstyle.Bold, Align: align.Center, Color: white, Top: 1.5}
	left := center
	left.Align = align.Left
	right := center
	right.Align = align.Right
	m.AddRow(7,
		col.New(1).Add(text.New("#", center)).WithStyle(headerFill),
		col.New(6).Add(text.New("Description", left)).WithStyle(headerFill),
		col.New(1).Add(text.New("Qty", center)).WithStyle(headerFill),
		col.New(2).Add(text.New("Unit price", right)).WithStyle(headerFill),
		col.New(2).Add(text.New("Total", right)).WithStyle(headerFill),
	)
}

func pdfLine(m core.Maroto, d QuoteDocument, l Line, shaded bool) {
	base := props.Text{Size: 8, Align: align.Center, Top: 1}
	left := base
	left.Align = align.Left
	right := base
	right.Align = align.Right

	desc := col.New(6).Add(text.New(l.Description, left))
	if l.Notes != "" {
		desc = col.New(6).Add(
			text.New(l.Description, left),
			text.New(l.Notes, props.Text{Size: 7, Style: fontstyle.Italic, Color: grey, Top: 9}),
		)
	}
	cols := []core.Col{
		col.New(1).Add(text.New(strconv.Itoa(l.Index), base)),
		desc,
		col.New(1).Add(text.New(strconv.Itoa(l.Quantity), base)),
		col.New(2).Add(text.New(d.money(l.UnitPrice), right)),
		col.New(2).Add(text.New(d.money(l.Total), right)),
	}
	if shaded {
		for i := range cols {
			cols[i] = cols[i].WithStyle(stripe)
		}
	}
	height := 12.0
	if l.Notes != "" {
		height = 15
	}
	m.AddRow(height, cols...)
}

func pdfTotals(m core.Maroto, d QuoteDocument) {
	m.AddRows(row.New(4))
	label := props.Text{Size: 9, Align: align.Right, Top: 1}
	value := props.Text{Size: 9, Align: align.Right, Top: 1}
	add := func(name, amount string, bold bool) {
		l, v := label, value
		if bold {
			l.Style, v.Style = fontstyle.Bold, fontstyle.Bold
		}
		m.AddRow(6,
			col.New(7),
			col.New(3).Add(text.New(name, l)).WithStyle(totalsFill),
			col.New(2).Add(text.New(amount, v)).WithStyle(totalsFill),
		)
	}
	add("Subtotal", d.money(d.Totals.Subtotal), false)
	if !d.Totals.DiscountAmount.IsZero() {
		add(d.discountLabel(), "-"+d.money(d.Totals.DiscountAmount), false)
	}
	add(d.taxLabel(), d.money(d.Totals.TaxAmount), false)
	add("Total", d.money(d.Totals.Total), true)
}

func pdfFooter(m core.Maroto, d QuoteDocument) {
	m.AddRows(row.New(8))
	small := props.Text{Size: 8, Color: grey}
	if d.Notes != "" {
		m.AddRow(5, text.NewCol(12, "Notes", props.Text{Size: 8, Style: fontstyle.Bold}))
		m.AddRow(10, text.NewCol(12, d.Notes, small))
	}
	if note := d.validityNote(); note != "" {
		m.AddRow(5, text.NewCol(12, note, small))
	}
	if d.Company.Warranty != "" {
		m.AddRow(5, text.NewCol(12, d.Company.Warranty, small))
	}
}
