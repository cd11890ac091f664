package document

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

const sheet = "Quote"

// RenderXLSX lays out the quote as a single worksheet. Money cells hold
// numbers formatted as currency so the workbook stays computable.
func RenderXLSX(d QuoteDocument) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("document: rename sheet: %w", err)
	}
	for c, w := range map[string]float64{"A": 6, "B": 70, "C": 8, "D": 16, "E": 16} {
		if err := f.SetColWidth(sheet, c, c, w); err != nil {
			return nil, fmt.Errorf("document: column width %s: %w", c, err)
		}
	}
	st, err := newStyles(f, symbol(d.Currency))
	if err != nil {
		return nil, err
	}

	set := func(cell string, v any, style int) {
		_ = f.SetCellValue(sheet, cell, v)
		if style != 0 {
			_ = f.SetCellStyle(sheet, cell, cell, style)
		}
	}

	_ = f.MergeCell(sheet, "A1", "E1")
	set("A1", clean(d.Company.Name), st.title)
	_ = f.MergeCell(sheet, "A2", "E2")
	set("A2", clean(d.Company.Address), st.muted)

	set("A4", "Quote #", st.label)
	set("B4", clean(d.QuoteNumber), 0)
	set("A5", "Customer", st.label)
	set("B5", clean(d.CustomerName), 0)
	set("A6", "Project", st.label)
	set("B6", clean(d.ProjectName), 0)
	set("D4", "Date", st.label)
	set("E4", d.date(d.IssuedAt), 0)
	set("D5", "Valid until", st.label)
	set("E5", d.date(d.ValidUntil), 0)

	for i, h := range []string{"#", "Description", "Qty", "Unit price", "Total"} {
		cell, _ := excelize.CoordinatesToCellName(i+1, 8)
		set(cell, h, st.header)
	}

	r := 9
	for _, l := range d.Lines {
		desc := l.Description
		if l.Notes != "" {
			desc += " (" + l.Notes + ")"
		}
		set(cellName("A", r), l.Index, st.cell)
		set(cellName("B", r), clean(desc), st.wrap)
		set(cellName("C", r), l.Quantity, st.cell)
		set(cellName("D", r), l.UnitPrice.InexactFloat64(), st.money)
		set(cellName("E", r), l.Total.InexactFloat64(), st.money)
		r++
	}

	r++
	total := func(label string, v float64, bold bool) {
		ls, vs := st.label, st.money
		if bold {
			vs = st.moneyBold
		}
		set(cellName("D", r), label, ls)
		set(cellName("E", r), v, vs)
		r++
	}
	total("Subtotal", d.Totals.Subtotal.InexactFloat64(), false)
	if !d.Totals.DiscountAmount.IsZero() {
		total(d.discountLabel(), d.Totals.DiscountAmount.Neg().InexactFloat64(), false)
	}
	total(d.taxLabel(), d.Totals.TaxAmount.InexactFloat64(), false)
	total("Total", d.Totals.Total.InexactFloat64(), true)

	if note := d.validityNote(); note != "" {
		r++
		set(cellName("A", r), note, st.muted)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("document: write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func cellName(column string, row int) string {
	return fmt.Sprintf("%s%d", column, row)
}

type styles struct {
	title, muted, label, header, cell, wrap, money, moneyBold int
}

func newStyles(f *excelize.File, currency string) (styles, error) {
	sym := strings.TrimSpace(currency)
	moneyFmt := fmt.Sprintf(`"%[1]s"#,##0.00;-"%[1]s"#,##0.00`, sym)
	border := []excelize.Border{
		{Type: "left", Color: "#BBBBBB", Style: 1},
		{Type: "top", Color: "#BBBBBB", Style: 1},
		{Type: "bottom", Color: "#BBBBBB", Style: 1},
		{Type: "right", Color: "#BBBBBB", Style: 1},
	}
	var s styles
	defs := []struct {
		dst   *int
		style *excelize.Style
	}{
		{&s.title, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 16}}},
		{&s.muted, &excelize.Style{Font: &excelize.Font{Size: 9, Color: "#6E6E6E"}}},
		{&s.label, &excelize.Style{Font: &excelize.Font{Bold: true}, Alignment: &excelize.Alignment{Horizontal: "right"}}},
		{&s.header, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"#212529"}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		}},
		{&s.cell, &excelize.Style{Border: border, Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "top"}}},
		{&s.wrap, &excelize.Style{Border: border, Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"}}},
		{&s.money, &excelize.Style{Border: border, CustomNumFmt: &moneyFmt}},
		{&s.moneyBold, &excelize.Style{Border: border, Font: &excelize.Font{Bold: true}, CustomNumFmt: &moneyFmt}},
	}
	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return styles{}, fmt.Errorf("document: style: %w", err)
		}
		*d.dst = id
	}
	return s, nil
}

// clean stops spreadsheet apps from evaluating user text as a formula.
func clean(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}
