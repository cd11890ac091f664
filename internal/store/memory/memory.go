// Package memory is an in-process store used by tests, the seeder dry run and
// STORE_DRIVER=memory deployments. Values are cloned on the way in and out.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/noah-isme/quotex-api/internal/activity"
	"github.com/noah-isme/quotex-api/internal/customer"
	"github.com/noah-isme/quotex-api/internal/inventory"
	"github.com/noah-isme/quotex-api/internal/invoice"
	"github.com/noah-isme/quotex-api/internal/quote"
	"github.com/noah-isme/quotex-api/internal/settings"
	"github.com/noah-isme/quotex-api/internal/store"
)

// Store holds every aggregate in maps guarded by one RWMutex.
type Store struct {
	mu            sync.RWMutex
	organizations map[string]customer.Organization
	customers     map[string]customer.Customer
	quotes        map[string]quote.Quote
	invoices      map[string]invoice.Invoice
	items         map[string]inventory.Item
	activities    []activity.Activity
	settings      *settings.Settings
	sequences     map[string]int64
}

// New returns an empty store.
func New() *Store {
	return &Store{
		organizations: map[string]customer.Organization{},
		customers:     map[string]customer.Customer{},
		quotes:        map[string]quote.Quote{},
		invoices:      map[string]invoice.Invoice{},
		items:         map[string]inventory.Item{},
		sequences:     map[string]int64{},
	}
}

var (
	_ customer.Repository  = (*Store)(nil)
	_ quote.Repository     = (*Store)(nil)
	_ invoice.Repository   = (*Store)(nil)
	_ inventory.Repository = (*Store)(nil)
	_ activity.Store       = (*Store)(nil)
	_ settings.Store       = (*Store)(nil)
)

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

func page[T any](rows []T, p store.Page) []T {
	start, end := p.Window(len(rows))
	return rows[start:end]
}

func contains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), needle)
}

func query(q string) string { return strings.ToLower(strings.TrimSpace(q)) }

// NextSequence increments and returns the named counter.
func (s *Store) NextSequence(_ context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sequences[name]++
	return s.sequences[name], nil
}

// Organizations

func cloneOrg(o customer.Organization) customer.Organization {
	if o.Address != nil {
		a := *o.Address
		o.Address = &a
	}
	return o
}

func (s *Store) CreateOrganization(_ context.Context, o customer.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.organizations[o.ID]; ok {
		return store.ErrConflict
	}
	s.organizations[o.ID] = cloneOrg(o)
	return nil
}

func (s *Store) GetOrganization(_ context.Context, id string) (customer.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.organizations[id]
	if !ok {
		return customer.Organization{}, store.ErrNotFound
	}
	return cloneOrg(o), nil
}

func (s *Store) ListOrganizations(_ context.Context, f customer.OrganizationFilter) ([]customer.Organization, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q := query(f.Query)
	var out []customer.Organization
	for _, o := range s.organizations {
		if f.PricingTier != "" && o.PricingTier != f.PricingTier {
			continue
		}
		if q != "" && !contains(o.Name, q) && !contains(o.AccountNumber, q) {
			continue
		}
		out = append(out, cloneOrg(o))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return page(out, f.Page), len(out), nil
}

func (s *Store) UpdateOrganization(_ context.Context, o customer.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.organizations[o.ID]; !ok {
		return store.ErrNotFound
	}
	s.organizations[o.ID] = cloneOrg(o)
	return nil
}

func (s *Store) DeleteOrganization(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.organizations[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.organizations, id)
	return nil
}

// Customers

func cloneCustomer(c customer.Customer) customer.Customer {
	c.Contacts = append([]customer.Contact(nil), c.Contacts...)
	c.Tags = append([]string(nil), c.Tags...)
	if c.Address != nil {
		a := *c.Address
		c.Address = &a
	}
	return c
}

func (s *Store) CreateCustomer(_ context.Context, c customer.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.customers[c.ID]; ok {
		return store.ErrConflict
	}
	s.customers[c.ID] = cloneCustomer(c)
	return nil
}

func (s *Store) GetCustomer(_ context.Context, id string) (customer.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.customers[id]
	if !ok {
		return customer.Customer{}, store.ErrNotFound
	}
	return cloneCustomer(c), nil
}

func customerMatches(c customer.Customer, q string) bool {
	if q == "" || contains(c.CompanyName, q) {
		return true
	}
	for _, ct := range c.Contacts {
		if contains(ct.Name, q) || contains(ct.Email, q) {
			return true
		}
	}
	for _, tag := range c.Tags {
		if contains(tag, q) {
			return true
		}
	}
	return false
}

func (s *Store) ListCustomers(_ context.Context, f customer.CustomerFilter) ([]customer.Customer, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q := query(f.Query)
	var out []customer.Customer
	for _, c := range s.customers {
		if f.OrganizationID != "" && c.OrganizationID != f.OrganizationID {
			continue
		}
		if !customerMatches(c, q) {
			continue
		}
		out = append(out, cloneCustomer(c))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CompanyName != out[j].CompanyName {
			return out[i].CompanyName < out[j].CompanyName
		}
		return out[i].ID < out[j].ID
	})
	return page(out, f.Page), len(out), nil
}

func (s *Store) UpdateCustomer(_ context.Context, c customer.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.customers[c.ID]; !ok {
		return store.ErrNotFound
	}
	s.customers[c.ID] = cloneCustomer(c)
	return nil
}

func (s *Store) DeleteCustomer(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.customers[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.customers, id)
	return nil
}

// Quotes

func (s *Store) CreateQuote(_ context.Context, q quote.Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quotes[q.ID]; ok {
		return store.ErrConflict
	}
	for _, existing := range s.quotes {
		if existing.QuoteNumber == q.QuoteNumber {
			return store.ErrConflict
		}
	}
	s.quotes[q.ID] = q.Clone()
	return nil
}

func (s *Store) GetQuote(_ context.Context, id string) (quote.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.quotes[id]
	if !ok {
		return quote.Quote{}, store.ErrNotFound
	}
	return q.Clone(), nil
}

// ListQuotes returns matching quotes newest first. Query matches the quote
// number, customer name and project name.
func (s *Store) ListQuotes(_ context.Context, f quote.Filter) ([]quote.Quote, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q := query(f.Query)
	var out []quote.Quote
	for _, row := range s.quotes {
		if !f.Matches(row) {
			continue
		}
		if q != "" && !contains(row.QuoteNumber, q) && !contains(row.CustomerName, q) && !contains(row.ProjectName, q) {
			continue
		}
		out = append(out, row.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return page(out, f.Page), len(out), nil
}

func (s *Store) UpdateQuote(_ context.Context, q quote.Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quotes[q.ID]; !ok {
		return store.ErrNotFound
	}
	s.quotes[q.ID] = q.Clone()
	return nil
}

func (s *Store) DeleteQuote(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quotes[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.quotes, id)
	return nil
}

// Invoices

func (s *Store) CreateInvoice(_ context.Context, inv invoice.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.invoices[inv.ID]; ok {
		return store.ErrConflict
	}
	for _, existing := range s.invoices {
		if existing.QuoteID == inv.QuoteID || existing.InvoiceNumber == inv.InvoiceNumber {
			return store.ErrConflict
		}
	}
	s.invoices[inv.ID] = inv.Clone()
	return nil
}

func (s *Store) GetInvoice(_ context.Context, id string) (invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.invoices[id]
	if !ok {
		return invoice.Invoice{}, store.ErrNotFound
	}
	return inv.Clone(), nil
}

func (s *Store) GetInvoiceByQuote(_ context.Context, quoteID string) (invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, inv := range s.invoices {
		if inv.QuoteID == quoteID {
			return inv.Clone(), nil
		}
	}
	return invoice.Invoice{}, store.ErrNotFound
}

func (s *Store) ListInvoices(_ context.Context, f invoice.Filter) ([]invoice.Invoice, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []invoice.Invoice
	for _, inv := range s.invoices {
		if f.Matches(inv) {
			out = append(out, inv.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].IssuedDate.Equal(out[j].IssuedDate) {
			return out[i].IssuedDate.After(out[j].IssuedDate)
		}
		return out[i].ID < out[j].ID
	})
	return page(out, f.Page), len(out), nil
}

func (s *Store) UpdateInvoice(_ context.Context, inv invoice.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.invoices[inv.ID]; !ok {
		return store.ErrNotFound
	}
	s.invoices[inv.ID] = inv.Clone()
	return nil
}

func (s *Store) DeleteInvoice(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.invoices[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.invoices, id)
	return nil
}

// Inventory

func cloneItem(it inventory.Item) inventory.Item {
	if it.LastRestocked != nil {
		at := *it.LastRestocked
		it.LastRestocked = &at
	}
	return it
}

func (s *Store) skuTaken(sku, except string) bool {
	for id, it := range s.items {
		if id != except && strings.EqualFold(it.SKU, sku) {
			return true
		}
	}
	return false
}

func (s *Store) CreateItem(_ context.Context, it inventory.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[it.ID]; ok || s.skuTaken(it.SKU, "") {
		return store.ErrConflict
	}
	s.items[it.ID] = cloneItem(it)
	return nil
}

func (s *Store) GetItem(_ context.Context, id string) (inventory.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[id]
	if !ok {
		return inventory.Item{}, store.ErrNotFound
	}
	return cloneItem(it), nil
}

func (s *Store) ListItems(_ context.Context, f inventory.Filter) ([]inventory.Item, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []inventory.Item
	for _, it := range s.items {
		if f.Matches(it) {
			out = append(out, cloneItem(it))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return page(out, f.Page), len(out), nil
}

func (s *Store) UpdateItem(_ context.Context, it inventory.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[it.ID]; !ok {
		return store.ErrNotFound
	}
	if s.skuTaken(it.SKU, it.ID) {
		return store.ErrConflict
	}
	s.items[it.ID] = cloneItem(it)
	return nil
}

func (s *Store) DeleteItem(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

// Activities

func (s *Store) InsertActivity(_ context.Context, a activity.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activities = append(s.activities, a)
	return nil
}

// ListActivities returns matching activities newest first.
func (s *Store) ListActivities(_ context.Context, f activity.Filter) ([]activity.Activity, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []activity.Activity
	for i := len(s.activities) - 1; i >= 0; i-- {
		a := s.activities[i]
		if f.OrganizationID != "" && a.OrganizationID != f.OrganizationID {
			continue
		}
		if f.CustomerID != "" && a.CustomerID != f.CustomerID {
			continue
		}
		if f.QuoteID != "" && a.QuoteID != f.QuoteID {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, f.Page), len(out), nil
}

// Settings

func (s *Store) GetSettings(context.Context) (settings.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.settings == nil {
		return settings.Settings{}, store.ErrNotFound
	}
	st := *s.settings
	st.Pricing.PricingTiers = append(st.Pricing.PricingTiers[:0:0], st.Pricing.PricingTiers...)
	return st, nil
}

func (s *Store) SaveSettings(_ context.Context, st settings.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st.Pricing.PricingTiers = append(st.Pricing.PricingTiers[:0:0], st.Pricing.PricingTiers...)
	s.settings = &st
	return nil
}
