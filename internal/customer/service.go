package customer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/quotex-api/internal/common"
	"github.com/noah-isme/quotex-api/internal/pricing"
	"github.com/noah-isme/quotex-api/internal/store"
)

// Repository persists organizations and customers.
type Repository interface {
	CreateOrganization(ctx context.Context, o Organization) error
	GetOrganization(ctx context.Context, id string) (Organization, error)
	ListOrganizations(ctx context.Context, f OrganizationFilter) ([]Organization, int, error)
	UpdateOrganization(ctx context.Context, o Organization) error
	DeleteOrganization(ctx context.Context, id string) error

	CreateCustomer(ctx context.Context, c Customer) error
	GetCustomer(ctx context.Context, id string) (Customer, error)
	ListCustomers(ctx context.Context, f CustomerFilter) ([]Customer, int, error)
	UpdateCustomer(ctx context.Context, c Customer) error
	DeleteCustomer(ctx context.Context, id string) error
}

// TierSource supplies the configured trade tiers.
type TierSource interface {
	Tiers(ctx context.Context) (pricing.TierTable, error)
}

// Service implements organization and customer management and resolves trade
// discounts. It satisfies pricing.TierDirectory.
type Service struct {
	Repo  Repository
	Tiers TierSource
	Now   func() time.Time
}

var _ pricing.TierDirectory = (*Service)(nil)

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// OrganizationInput is the writable part of an organization.
type OrganizationInput struct {
	Name          string           `json:"name" validate:"required"`
	Type          OrganizationType `json:"type" validate:"required,oneof=university government corporate healthcare k12 dealer other"`
	PricingTier   string           `json:"pricingTier" validate:"omitempty,oneof=premier preferred standard"`
	AccountNumber string           `json:"accountNumber"`
	Website       string           `json:"website" validate:"omitempty,url"`
	Address       *Address         `json:"address"`
	Notes         string           `json:"notes"`
}

// CustomerInput is the writable part of a customer.
type CustomerInput struct {
	OrganizationID string         `json:"organizationId"`
	CompanyName    string         `json:"companyName" validate:"required"`
	Contacts       []ContactInput `json:"contacts" validate:"dive"`
	Address        *Address       `json:"address"`
	Tags           []string       `json:"tags"`
	Notes          string         `json:"notes"`
}

// ContactInput is a contact as submitted by clients.
type ContactInput struct {
	ID        string `json:"id"`
	Name      string `json:"name" validate:"required"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone"`
	Role      string `json:"role"`
	IsPrimary bool   `json:"isPrimary"`
}

// trimmed returns a copy with contact fields trimmed so validation sees the
// values that will be stored.
func (in CustomerInput) trimmed() CustomerInput {
	in.CompanyName = strings.TrimSpace(in.CompanyName)
	contacts := make([]ContactInput, len(in.Contacts))
	for i, ci := range in.Contacts {
		ci.Name = strings.TrimSpace(ci.Name)
		ci.Email = strings.ToLower(strings.TrimSpace(ci.Email))
		ci.Phone = strings.TrimSpace(ci.Phone)
		ci.Role = strings.TrimSpace(ci.Role)
		contacts[i] = ci
	}
	in.Contacts = contacts
	return in
}

func (in OrganizationInput) trimmed() OrganizationInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Website = strings.TrimSpace(in.Website)
	return in
}

func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return common.NotFound(what+" not found", err)
	case errors.Is(err, store.ErrConflict):
		return common.Conflict("CONFLICT", what+" already exists", err)
	default:
		return fmt.Errorf("customer: %s: %w", what, err)
	}
}

// CreateOrganization stores a new organization. New organizations without a
// tier start on standard pricing.
func (s *Service) CreateOrganization(ctx context.Context, in OrganizationInput) (Organization, error) {
	in = in.trimmed()
	if err := common.ValidateStruct(in); err != nil {
		return Organization{}, err
	}
	now := s.now().UTC()
	o := Organization{ID: uuid.NewString(), CreatedAt: now}
	applyOrganization(&o, in)
	if o.PricingTier == "" {
		o.PricingTier = pricing.TierStandard
	}
	o.UpdatedAt = now
	if err := s.Repo.CreateOrganization(ctx, o); err != nil {
		return Organization{}, translate(err, "organization")
	}
	return o, nil
}

// GetOrganization loads one organization.
func (s *Service) GetOrganization(ctx context.Context, id string) (Organization, error) {
	o, err := s.Repo.GetOrganization(ctx, id)
	return o, translate(err, "organization")
}

// ListOrganizations returns a page of organizations and the total count.
func (s *Service) ListOrganizations(ctx context.Context, f OrganizationFilter) ([]Organization, int, error) {
	items, total, err := s.Repo.ListOrganizations(ctx, f)
	return items, total, translate(err, "organizations")
}

// UpdateOrganization replaces the writable fields of an organization.
func (s *Service) UpdateOrganization(ctx context.Context, id string, in OrganizationInput) (Organization, error) {
	in = in.trimmed()
	if err := common.ValidateStruct(in); err != nil {
		return Organization{}, err
	}
	o, err := s.Repo.GetOrganization(ctx, id)
	if err != nil {
		return Organization{}, translate(err, "organization")
	}
	applyOrganization(&o, in)
	o.UpdatedAt = s.now().UTC()
	if err := s.Repo.UpdateOrganization(ctx, o); err != nil {
		return Organization{}, translate(err, "organization")
	}
	return o, nil
}

// DeleteOrganization removes an organization that has no linked customers.
func (s *Service) DeleteOrganization(ctx context.Context, id string) error {
	if _, err := s.Repo.GetOrganization(ctx, id); err != nil {
		return translate(err, "organization")
	}
	_, linked, err := s.Repo.ListCustomers(ctx, CustomerFilter{OrganizationID: id, Page: store.Page{Limit: 1}})
	if err != nil {
		return translate(err, "customers")
	}
	if linked > 0 {
		return common.Conflict("ORGANIZATION_IN_USE", "organization still has customers", nil)
	}
	return translate(s.Repo.DeleteOrganization(ctx, id), "organization")
}

func applyOrganization(o *Organization, in OrganizationInput) {
	o.Name = strings.TrimSpace(in.Name)
	o.Type = in.Type
	if in.PricingTier != "" {
		o.PricingTier = in.PricingTier
	}
	o.AccountNumber = strings.TrimSpace(in.AccountNumber)
	o.Website = strings.TrimSpace(in.Website)
	o.Address = in.Address
	o.Notes = in.Notes
}

// CreateCustomer stores a new customer.
func (s *Service) CreateCustomer(ctx context.Context, in CustomerInput) (Customer, error) {
	in = in.trimmed()
	if err := common.ValidateStruct(in); err != nil {
		return Customer{}, err
	}
	if err := s.checkOrganization(ctx, in.OrganizationID); err != nil {
		return Customer{}, err
	}
	contacts, err := normaliseContacts(in.Contacts)
	if err != nil {
		return Customer{}, err
	}
	now := s.now().UTC()
	c := Customer{
		ID:             uuid.NewString(),
		OrganizationID: in.OrganizationID,
		CompanyName:    strings.TrimSpace(in.CompanyName),
		Contacts:       contacts,
		Address:        in.Address,
		Tags:           normaliseTags(in.Tags),
		Notes:          in.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.Repo.CreateCustomer(ctx, c); err != nil {
		return Customer{}, translate(err, "customer")
	}
	return c, nil
}

// GetCustomer loads one customer.
func (s *Service) GetCustomer(ctx context.Context, id string) (Customer, error) {
	c, err := s.Repo.GetCustomer(ctx, id)
	return c, translate(err, "customer")
}

// ListCustomers returns a page of customers and the total count.
func (s *Service) ListCustomers(ctx context.Context, f CustomerFilter) ([]Customer, int, error) {
	items, total, err := s.Repo.ListCustomers(ctx, f)
	return items, total, translate(err, "customers")
}

// ListCustomersByOrganization returns every customer linked to orgID.
func (s *Service) ListCustomersByOrganization(ctx context.Context, orgID string) ([]Customer, error) {
	if _, err := s.Repo.GetOrganization(ctx, orgID); err != nil {
		return nil, translate(err, "organization")
	}
	items, _, err := s.Repo.ListCustomers(ctx, CustomerFilter{OrganizationID: orgID})
	return items, translate(err, "customers")
}

// UpdateCustomer replaces the writable fields of a customer.
func (s *Service) UpdateCustomer(ctx context.Context, id string, in CustomerInput) (Customer, error) {
	in = in.trimmed()
	if err := common.ValidateStruct(in); err != nil {
		return Customer{}, err
	}
	c, err := s.Repo.GetCustomer(ctx, id)
	if err != nil {
		return Customer{}, translate(err, "customer")
	}
	if err := s.checkOrganization(ctx, in.OrganizationID); err != nil {
		return Customer{}, err
	}
	contacts, err := normaliseContacts(in.Contacts)
	if err != nil {
		return Customer{}, err
	}
	c.OrganizationID = in.OrganizationID
	c.CompanyName = strings.TrimSpace(in.CompanyName)
	c.Contacts = contacts
	c.Address = in.Address
	c.Tags = normaliseTags(in.Tags)
	c.Notes = in.Notes
	c.UpdatedAt = s.now().UTC()
	if err := s.Repo.UpdateCustomer(ctx, c); err != nil {
		return Customer{}, translate(err, "customer")
	}
	return c, nil
}

// DeleteCustomer removes a customer.
func (s *Service) DeleteCustomer(ctx context.Context, id string) error {
	return translate(s.Repo.DeleteCustomer(ctx, id), "customer")
}

func (s *Service) checkOrganization(ctx context.Context, orgID string) error {
	if orgID == "" {
		return nil
	}
	if _, err := s.Repo.GetOrganization(ctx, orgID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return common.Validation("request validation failed", map[string]string{"organizationId": "unknown organization"}, err)
		}
		return translate(err, "organization")
	}
	return nil
}

func normaliseContacts(in []ContactInput) ([]Contact, error) {
	out := make([]Contact, 0, len(in))
	primaries := 0
	for _, ci := range in {
		id := ci.ID
		if id == "" {
			id = uuid.NewString()
		}
		if ci.IsPrimary {
			primaries++
		}
		out = append(out, Contact{
			ID:        id,
			Name:      strings.TrimSpace(ci.Name),
			Email:     strings.ToLower(strings.TrimSpace(ci.Email)),
			Phone:     strings.TrimSpace(ci.Phone),
			Role:      strings.TrimSpace(ci.Role),
			IsPrimary: ci.IsPrimary,
		})
	}
	if primaries > 1 {
		return nil, common.Validation("request validation failed", map[string]string{"contacts": "only one contact may be primary"}, nil)
	}
	if primaries == 0 && len(out) > 0 {
		out[0].IsPrimary = true
	}
	return out, nil
}

func normaliseTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// CustomerOrganization implements pricing.TierDirectory.
func (s *Service) CustomerOrganization(ctx context.Context, customerID string) (string, bool, error) {
	c, err := s.Repo.GetCustomer(ctx, customerID)
	if errors.Is(err, store.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return c.OrganizationID, c.OrganizationID != "", nil
}

// OrganizationTier implements pricing.TierDirectory.
func (s *Service) OrganizationTier(ctx context.Context, orgID string) (string, bool, error) {
	o, err := s.Repo.GetOrganization(ctx, orgID)
	if errors.Is(err, store.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return o.PricingTier, o.PricingTier != "", nil
}

func (s *Service) tiers(ctx context.Context) (pricing.TierTable, error) {
	if s.Tiers == nil {
		return pricing.DefaultTiers(), nil
	}
	return s.Tiers.Tiers(ctx)
}

// TierDiscount returns the trade discount percent for a customer, zero when
// any link of the customer, organization, tier chain is missing.
func (s *Service) TierDiscount(ctx context.Context, customerID string) (decimal.Decimal, error) {
	tiers, err := s.tiers(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("customer: load tiers: %w", err)
	}
	return pricing.TierDiscountPercent(ctx, customerID, s, tiers)
}

// TierQuote is the outcome of tier-adjusting a list price.
type TierQuote struct {
	Tier            string          `json:"tier,omitempty"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
	ListPrice       decimal.Decimal `json:"listPrice"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
}

// QuoteUnitPrice applies the customer's tier to a list price. The unit price
// is rounded to cents.
func (s *Service) QuoteUnitPrice(ctx context.Context, customerID string, list decimal.Decimal) (TierQuote, error) {
	pct, err := s.TierDiscount(ctx, customerID)
	if err != nil {
		return TierQuote{}, err
	}
	tq := TierQuote{
		DiscountPercent: pct,
		ListPrice:       list,
		UnitPrice:       pricing.RoundCents(pricing.ApplyTierPricing(list, pct)),
	}
	if orgID, ok, err := s.CustomerOrganization(ctx, customerID); err == nil && ok {
		if tier, ok, err := s.OrganizationTier(ctx, orgID); err == nil && ok {
			tq.Tier = tier
		}
	}
	return tq, nil
}
