package postgres

import (
	"context"

	"github.com/noah-isme/quotex-api/internal/customer"
)

var _ customer.Repository = (*Store)(nil)

func (s *Store) CreateOrganization(ctx context.Context, o customer.Organization) error {
	doc, err := encode(o)
	if err != nil {
		return err
	}
	_, err = s.Pool.Exec(ctx, `
		INSERT INTO organizations (id, name, pricing_tier, doc, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		o.ID, o.Name, o.PricingTier, doc, o.CreatedAt, o.UpdatedAt)
	return mapErr(err)
}

func (s *Store) GetOrganization(ctx context.Context, id string) (customer.Organization, error) {
	return getDoc[customer.Organization](ctx, s.Pool, `SELECT doc FROM organizations WHERE id = $1`, id)
}

func (s *Store) ListOrganizations(ctx context.Context, f customer.OrganizationFilter) ([]customer.Organization, int, error) {
	w := &where{}
	if f.PricingTier != "" {
		w.add("pricing_tier = ?", f.PricingTier)
	}
	if f.Query != "" {
		w.add("(name ILIKE ? OR doc->>'accountNumber' ILIKE ?)", like(f.Query))
	}
	return list[customer.Organization](ctx, s.Pool, "organizations", w, "name, id", f.Page)
}

func (s *Store) UpdateOrganization(ctx context.Context, o customer.Organization) error {
	doc, err := encode(o)
	if err != nil {
		return err
	}
	return exec(ctx, s.Pool, `
		UPDATE organizations SET name = $2, pricing_tier = $3, doc = $4, updated_at = $5
		WHERE id = $1`,
		o.ID, o.Name, o.PricingTier, doc, o.UpdatedAt)
}

func (s *Store) DeleteOrganization(ctx context.Context, id string) error {
	return exec(ctx, s.Pool, `DELETE FROM organizations WHERE id = $1`, id)
}

func nullable(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func (s *Store) CreateCustomer(ctx context.Context, c customer.Customer) error {
	doc, err := encode(c)
	if err != nil {
		return err
	}
	_, err = s.Pool.Exec(ctx, `
		INSERT INTO customers (id, organization_id, company_name, doc, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, nullable(c.OrganizationID), c.CompanyName, doc, c.CreatedAt, c.UpdatedAt)
	return mapErr(err)
}

func (s *Store) GetCustomer(ctx context.Context, id string) (customer.Customer, error) {
	return getDoc[customer.Customer](ctx, s.Pool, `SELECT doc FROM customers WHERE id = $1`, id)
}

func (s *Store) ListCustomers(ctx context.Context, f customer.CustomerFilter) ([]customer.Customer, int, error) {
	w := &where{}
	if f.OrganizationID != "" {
		w.add("organization_id = ?", f.OrganizationID)
	}
	if f.Query != "" {
		w.add("(company_name ILIKE ? OR doc->>'contacts' ILIKE ? OR doc->>'tags' ILIKE ?)", like(f.Query))
	}
	return list[customer.Customer](ctx, s.Pool, "customers", w, "company_name, id", f.Page)
}

func (s *Store) UpdateCustomer(ctx context.Context, c customer.Customer) error {
	doc, err := encode(c)
	if err != nil {
		return err
	}
	return exec(ctx, s.Pool, `
		UPDATE customers SET organization_id = $2, company_name = $3, doc = $4, updated_at = $5
		WHERE id = $1`,
		c.ID, nullable(c.OrganizationID), c.CompanyName, doc, c.UpdatedAt)
}

func (s *Store) DeleteCustomer(ctx context.Context, id string) error {
	return exec(ctx, s.Pool, `DELETE FROM customers WHERE id = $1`, id)
}
