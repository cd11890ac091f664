package postgres

import (
	"context"

	"github.com/noah-isme/quotex-api/internal/invoice"
)

var _ invoice.Repository = (*Store)(nil)

func (s *Store) CreateInvoice(ctx context.Context, inv invoice.Invoice) error {
	doc, err := encode(inv)
	if err != nil {
		return err
	}
	_, err = s.Pool.Exec(ctx, `
		INSERT INTO invoices (id, invoice_number, quote_id, customer_id, status, due_date, issued_date, doc, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		inv.ID, inv.InvoiceNumber, inv.QuoteID, inv.CustomerID, string(inv.Status), inv.DueDate, inv.IssuedDate, doc, inv.UpdatedAt)
	return mapErr(err)
}

func (s *Store) GetInvoice(ctx context.Context, id string) (invoice.Invoice, error) {
	return getDoc[invoice.Invoice](ctx, s.Pool, `SELECT doc FROM invoices WHERE id = $1`, id)
}

func (s *Store) GetInvoiceByQuote(ctx context.Context, quoteID string) (invoice.Invoice, error) {
	return getDoc[invoice.Invoice](ctx, s.Pool, `SELECT doc FROM invoices WHERE quote_id = $1`, quoteID)
}

func (s *Store) ListInvoices(ctx context.Context, f invoice.Filter) ([]invoice.Invoice, int, error) {
	w := &where{}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			statuses[i] = string(st)
		}
		w.add("status = ANY(?)", statuses)
	}
	if f.CustomerID != "" {
		w.add("customer_id = ?", f.CustomerID)
	}
	return list[invoice.Invoice](ctx, s.Pool, "invoices", w, "issued_date DESC, id", f.Page)
}

func (s *Store) UpdateInvoice(ctx context.Context, inv invoice.Invoice) error {
	doc, err := encode(inv)
	if err != nil {
		return err
	}
	return exec(ctx, s.Pool, `
		UPDATE invoices SET status = $2, due_date = $3, doc = $4, updated_at = $5
		WHERE id = $1`,
		inv.ID, string(inv.Status), inv.DueDate, doc, inv.UpdatedAt)
}

func (s *Store) DeleteInvoice(ctx context.Context, id string) error {
	return exec(ctx, s.Pool, `DELETE FROM invoices WHERE id = $1`, id)
}
