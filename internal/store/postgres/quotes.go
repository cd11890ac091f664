package postgres

import (
	"context"

	"github.com/noah-isme/quotex-api/internal/quote"
)

var _ quote.Repository = (*Store)(nil)

func (s *Store) CreateQuote(ctx context.Context, q quote.Quote) error {
	doc, err := encode(q)
	if err != nil {
		return err
	}
	_, err = s.Pool.Exec(ctx, `
		INSERT INTO quotes (id, quote_number, customer_id, status, valid_until, doc, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		q.ID, q.QuoteNumber, q.CustomerID, string(q.Status), q.ValidUntil, doc, q.CreatedAt, q.UpdatedAt)
	return mapErr(err)
}

func (s *Store) GetQuote(ctx context.Context, id string) (quote.Quote, error) {
	return getDoc[quote.Quote](ctx, s.Pool, `SELECT doc FROM quotes WHERE id = $1`, id)
}

func (s *Store) ListQuotes(ctx context.Context, f quote.Filter) ([]quote.Quote, int, error) {
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
	if f.Query != "" {
		w.add("(quote_number ILIKE ? OR doc->>'customerName' ILIKE ? OR doc->>'projectName' ILIKE ?)", like(f.Query))
	}
	return list[quote.Quote](ctx, s.Pool, "quotes", w, "created_at DESC, id", f.Page)
}

func (s *Store) UpdateQuote(ctx context.Context, q quote.Quote) error {
	doc, err := encode(q)
	if err != nil {
		return err
	}
	return exec(ctx, s.Pool, `
		UPDATE quotes SET customer_id = $2, status = $3, valid_until = $4, doc = $5, updated_at = $6
		WHERE id = $1`,
		q.ID, q.CustomerID, string(q.Status), q.ValidUntil, doc, q.UpdatedAt)
}

func (s *Store) DeleteQuote(ctx context.Context, id string) error {
	return exec(ctx, s.Pool, `DELETE FROM quotes WHERE id = $1`, id)
}
