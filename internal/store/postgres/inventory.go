package postgres

import (
	"context"

	"github.com/noah-isme/quotex-api/internal/inventory"
)

var _ inventory.Repository = (*Store)(nil)

func (s *Store) CreateItem(ctx context.Context, it inventory.Item) error {
	doc, err := encode(it)
	if err != nil {
		return err
	}
	_, err = s.Pool.Exec(ctx, `
		INSERT INTO inventory_items (id, sku, category, quantity, reorder_point, doc, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		it.ID, it.SKU, string(it.Category), it.Quantity, it.ReorderPoint, doc, it.UpdatedAt)
	return mapErr(err)
}

func (s *Store) GetItem(ctx context.Context, id string) (inventory.Item, error) {
	return getDoc[inventory.Item](ctx, s.Pool, `SELECT doc FROM inventory_items WHERE id = $1`, id)
}

// ListItems mirrors inventory.Filter.Matches: low stock includes empty bins.
func (s *Store) ListItems(ctx context.Context, f inventory.Filter) ([]inventory.Item, int, error) {
	w := &where{}
	if f.Category != "" {
		w.add("category = ?", string(f.Category))
	}
	if f.LowStock {
		w.raw("quantity <= GREATEST(reorder_point, 0)")
	}
	if f.Query != "" {
		w.add("(doc->>'name' ILIKE ? OR sku ILIKE ? OR doc->>'supplier' ILIKE ?)", like(f.Query))
	}
	return list[inventory.Item](ctx, s.Pool, "inventory_items", w, "sku", f.Page)
}

func (s *Store) UpdateItem(ctx context.Context, it inventory.Item) error {
	doc, err := encode(it)
	if err != nil {
		return err
	}
	return exec(ctx, s.Pool, `
		UPDATE inventory_items SET sku = $2, category = $3, quantity = $4, reorder_point = $5, doc = $6, updated_at = $7
		WHERE id = $1`,
		it.ID, it.SKU, string(it.Category), it.Quantity, it.ReorderPoint, doc, it.UpdatedAt)
}

func (s *Store) DeleteItem(ctx context.Context, id string) error {
	return exec(ctx, s.Pool, `DELETE FROM inventory_items WHERE id = $1`, id)
}
