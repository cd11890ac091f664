package pricing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Trade discount tiers.
const (
	TierPremier   = "premier"
	TierPreferred = "preferred"
	TierStandard  = "standard"
)

// TierConfig describes a trade tier. MinAnnualVolume is informational and
// never enforced when pricing.
type TierConfig struct {
	ID              string           `json:"id" validate:"required,oneof=premier preferred standard"`
	Name            string           `json:"name"`
	DiscountPercent decimal.Decimal  `json:"discountPercent"`
	Description     string           `json:"description,omitempty"`
	MinAnnualVolume *decimal.Decimal `json:"minAnnualVolume,omitempty"`
}

// TierTable is the configured set of tiers.
type TierTable []TierConfig

// Lookup finds a tier by id.
func (t TierTable) Lookup(id string) (TierConfig, bool) {
	for _, tier := range t {
		if tier.ID == id {
			return tier, true
		}
	}
	return TierConfig{}, false
}

// IsTier reports whether id names one of the known tiers.
func IsTier(id string) bool {
	switch id {
	case TierPremier, TierPreferred, TierStandard:
		return true
	}
	return false
}

// DefaultTiers is the 50/20/10 trade discount scheme.
func DefaultTiers() TierTable {
	vol := func(v int64) *decimal.Decimal {
		d := decimal.NewFromInt(v)
		return &d
	}
	return TierTable{
		{ID: TierPremier, Name: "Premier", DiscountPercent: decimal.NewFromInt(50), Description: "Dealers and high-volume partners", MinAnnualVolume: vol(250000)},
		{ID: TierPreferred, Name: "Preferred", DiscountPercent: decimal.NewFromInt(20), Description: "Institutions with recurring orders", MinAnnualVolume: vol(50000)},
		{ID: TierStandard, Name: "Standard", DiscountPercent: decimal.NewFromInt(10), Description: "Default trade pricing"},
	}
}

// TierDirectory resolves the customer -> organization -> tier chain. The ok
// result is false when the link does not exist; err is reserved for lookup
// failures.
type TierDirectory interface {
	CustomerOrganization(ctx context.Context, customerID string) (orgID string, ok bool, err error)
	OrganizationTier(ctx context.Context, orgID string) (tier string, ok bool, err error)
}

// TierDiscountPercent returns the trade discount for a customer. A customer
// without an organization, a missing organization or an unknown tier all
// yield zero.
func TierDiscountPercent(ctx context.Context, customerID string, dir TierDirectory, tiers TierTable) (decimal.Decimal, error) {
	if dir == nil || customerID == "" {
		return decimal.Zero, nil
	}
	orgID, ok, err := dir.CustomerOrganization(ctx, customerID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("pricing: resolve customer organization: %w", err)
	}
	if !ok || orgID == "" {
		return decimal.Zero, nil
	}
	tierID, ok, err := dir.OrganizationTier(ctx, orgID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("pricing: resolve organization tier: %w", err)
	}
	if !ok {
		return decimal.Zero, nil
	}
	tier, ok := tiers.Lookup(tierID)
	if !ok {
		return decimal.Zero, nil
	}
	return tier.DiscountPercent, nil
}

// ApplyTierPricing reduces a list price by a percentage.
func ApplyTierPricing(listPrice, discountPercent decimal.Decimal) decimal.Decimal {
	return listPrice.Mul(one.Sub(discountPercent.Div(hundred)))
}
