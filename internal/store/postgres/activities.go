package postgres

import (
	"context"
	"time"

	"github.com/noah-isme/quotex-api/internal/activity"
	"github.com/noah-isme/quotex-api/internal/settings"
)

var (
	_ activity.Store = (*Store)(nil)
	_ settings.Store = (*Store)(nil)
)

func (s *Store) InsertActivity(ctx context.Context, a activity.Activity) error {
	doc, err := encode(a)
	if err != nil {
		return err
	}
	_, err = s.Pool.Exec(ctx, `
		INSERT INTO activities (id, organization_id, customer_id, quote_id, type, doc, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, nullable(a.OrganizationID), nullable(a.CustomerID), nullable(a.QuoteID), string(a.Type), doc, a.CreatedAt)
	return mapErr(err)
}

func (s *Store) ListActivities(ctx context.Context, f activity.Filter) ([]activity.Activity, int, error) {
	w := &where{}
	if f.OrganizationID != "" {
		w.add("organization_id = ?", f.OrganizationID)
	}
	if f.CustomerID != "" {
		w.add("customer_id = ?", f.CustomerID)
	}
	if f.QuoteID != "" {
		w.add("quote_id = ?", f.QuoteID)
	}
	return list[activity.Activity](ctx, s.Pool, "activities", w, "created_at DESC, id", f.Page)
}

func (s *Store) GetSettings(ctx context.Context) (settings.Settings, error) {
	return getDoc[settings.Settings](ctx, s.Pool, `SELECT doc FROM settings WHERE id = 1`)
}

func (s *Store) SaveSettings(ctx context.Context, st settings.Settings) error {
	doc, err := encode(st)
	if err != nil {
		return err
	}
	updated := st.UpdatedAt
	if updated.IsZero() {
		updated = time.Now().UTC()
	}
	_, err = s.Pool.Exec(ctx, `
		INSERT INTO settings (id, doc, updated_at) VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = EXCLUDED.updated_at`,
		doc, updated)
	return mapErr(err)
}
