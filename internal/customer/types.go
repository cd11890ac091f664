package customer

import (
	"time"

	"github.com/noah-isme/quotex-api/internal/store"
)

// OrganizationType classifies the parent institution.
type OrganizationType string

const (
	OrgUniversity OrganizationType = "university"
	OrgGovernment OrganizationType = "government"
	OrgCorporate  OrganizationType = "corporate"
	OrgHealthcare OrganizationType = "healthcare"
	OrgK12        OrganizationType = "k12"
	OrgDealer     OrganizationType = "dealer"
	OrgOther      OrganizationType = "other"
)

// Address is a postal address.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

// Organization is a parent company or institution. PricingTier drives the
// trade discount of every linked customer.
type Organization struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Type          OrganizationType `json:"type"`
	PricingTier   string           `json:"pricingTier"`
	AccountNumber string           `json:"accountNumber,omitempty"`
	Website       string           `json:"website,omitempty"`
	Address       *Address         `json:"address,omitempty"`
	Notes         string           `json:"notes,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// Contact is a person at a customer. At most one contact is primary.
type Contact struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Role      string `json:"role,omitempty"`
	IsPrimary bool   `json:"isPrimary"`
}

// Customer is a department or division, optionally linked to an
// organization.
type Customer struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organizationId,omitempty"`
	CompanyName    string    `json:"companyName"`
	Contacts       []Contact `json:"contacts"`
	Address        *Address  `json:"address,omitempty"`
	Tags           []string  `json:"tags"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// PrimaryContact returns the flagged primary contact, if any.
func (c Customer) PrimaryContact() (Contact, bool) {
	for _, ct := range c.Contacts {
		if ct.IsPrimary {
			return ct, true
		}
	}
	return Contact{}, false
}

// OrganizationFilter narrows organization listings.
type OrganizationFilter struct {
	Query       string
	PricingTier string
	Page        store.Page
}

// CustomerFilter narrows customer listings.
type CustomerFilter struct {
	OrganizationID string
	Query          string
	Page           store.Page
}
