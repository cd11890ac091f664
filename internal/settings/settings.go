package settings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/quotex-api/internal/common"
	"github.com/noah-isme/quotex-api/internal/pricing"
	"github.com/noah-isme/quotex-api/internal/store"
)

// Company is the letterhead printed on quote documents.
type Company struct {
	Name     string `json:"name"`
	Tagline  string `json:"tagline,omitempty"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Website  string `json:"website"`
	Warranty string `json:"warranty,omitempty"`
}

// Pricing holds quoting defaults. DefaultMargin is informational.
type Pricing struct {
	DefaultMargin      decimal.Decimal        `json:"defaultMargin"`
	TaxRate            decimal.Decimal        `json:"taxRate"`
	QuoteValidityDays  int                    `json:"quoteValidityDays"`
	FlatDiscountPolicy pricing.DiscountPolicy `json:"flatDiscountPolicy"`
	PricingTiers       pricing.TierTable      `json:"pricingTiers"`
}

// Preferences are display preferences.
type Preferences struct {
	Currency   string `json:"currency"`
	DateFormat string `json:"dateFormat"`
}

// Settings is the single business settings document.
type Settings struct {
	Company     Company     `json:"company"`
	Pricing     Pricing     `json:"pricing"`
	Preferences Preferences `json:"preferences"`
	UpdatedAt   time.Time   `json:"updatedAt,omitempty"`
}

// Defaults returns the settings used until an operator saves their own.
func Defaults() Settings {
	return Settings{
		Company: Company{
			Name:     "TableX",
			Tagline:  "Commercial tables, configured to order",
			Address:  "123 Manufacturing Way, Suite 100, Industrial City, ST 12345",
			Phone:    "(555) 123-4567",
			Email:    "sales@tablex.com",
			Website:  "https://tablex.com",
			Warranty: "Limited lifetime warranty on steel bases",
		},
		Pricing: Pricing{
			DefaultMargin:      decimal.NewFromInt(35),
			TaxRate:            decimal.RequireFromString("7.5"),
			QuoteValidityDays:  30,
			FlatDiscountPolicy: pricing.PolicyClampToSubtotal,
			PricingTiers:       pricing.DefaultTiers(),
		},
		Preferences: Preferences{Currency: "USD", DateFormat: "MM/DD/YYYY"},
	}
}

// Store persists the settings document. GetSettings returns store.ErrNotFound
// before the first save.
type Store interface {
	GetSettings(ctx context.Context) (Settings, error)
	SaveSettings(ctx context.Context, s Settings) error
}

// Service reads and updates settings.
type Service struct {
	Store Store
	Now   func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Get returns the stored settings or the defaults.
func (s *Service) Get(ctx context.Context) (Settings, error) {
	if s == nil || s.Store == nil {
		return Defaults(), nil
	}
	st, err := s.Store.GetSettings(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return Defaults(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("settings: load: %w", err)
	}
	return st, nil
}

// Tiers returns the configured trade tiers.
func (s *Service) Tiers(ctx context.Context) (pricing.TierTable, error) {
	st, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	if len(st.Pricing.PricingTiers) == 0 {
		return pricing.DefaultTiers(), nil
	}
	return st.Pricing.PricingTiers, nil
}

// CompanyPatch overrides company fields that are non-nil.
type CompanyPatch struct {
	Name     *string `json:"name" validate:"omitempty,min=1"`
	Tagline  *string `json:"tagline"`
	Address  *string `json:"address"`
	Phone    *string `json:"phone"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Website  *string `json:"website"`
	Warranty *string `json:"warranty"`
}

// PricingPatch overrides pricing fields that are non-nil.
type PricingPatch struct {
	DefaultMargin      *decimal.Decimal        `json:"defaultMargin"`
	TaxRate            *decimal.Decimal        `json:"taxRate"`
	QuoteValidityDays  *int                    `json:"quoteValidityDays"`
	FlatDiscountPolicy *pricing.DiscountPolicy `json:"flatDiscountPolicy"`
	PricingTiers       pricing.TierTable       `json:"pricingTiers" validate:"omitempty,dive"`
}

// PreferencesPatch overrides preference fields that are non-nil.
type PreferencesPatch struct {
	Currency   *string `json:"currency" validate:"omitempty,len=3"`
	DateFormat *string `json:"dateFormat"`
}

// Patch is a partial settings update merged section by section.
type Patch struct {
	Company     *CompanyPatch     `json:"company"`
	Pricing     *PricingPatch     `json:"pricing"`
	Preferences *PreferencesPatch `json:"preferences"`
}

var hundred = decimal.NewFromInt(100)

// Update merges p into the current settings, validates and saves them.
func (s *Service) Update(ctx context.Context, p Patch) (Settings, error) {
	if s == nil || s.Store == nil {
		return Settings{}, errors.New("settings: store not configured")
	}
	if err := common.ValidateStruct(p); err != nil {
		return Settings{}, err
	}
	st, err := s.Get(ctx)
	if err != nil {
		return Settings{}, err
	}
	if c := p.Company; c != nil {
		set(&st.Company.Name, c.Name)
		set(&st.Company.Tagline, c.Tagline)
		set(&st.Company.Address, c.Address)
		set(&st.Company.Phone, c.Phone)
		set(&st.Company.Email, c.Email)
		set(&st.Company.Website, c.Website)
		set(&st.Company.Warranty, c.Warranty)
	}
	if pp := p.Pricing; pp != nil {
		if pp.DefaultMargin != nil {
			st.Pricing.DefaultMargin = *pp.DefaultMargin
		}
		if pp.TaxRate != nil {
			st.Pricing.TaxRate = *pp.TaxRate
		}
		if pp.QuoteValidityDays != nil {
			st.Pricing.QuoteValidityDays = *pp.QuoteValidityDays
		}
		if pp.FlatDiscountPolicy != nil {
			st.Pricing.FlatDiscountPolicy = pricing.ParseDiscountPolicy(string(*pp.FlatDiscountPolicy))
		}
		if len(pp.PricingTiers) > 0 {
			st.Pricing.PricingTiers = pp.PricingTiers
		}
	}
	if pr := p.Preferences; pr != nil {
		set(&st.Preferences.Currency, pr.Currency)
		set(&st.Preferences.DateFormat, pr.DateFormat)
	}
	if err := check(st); err != nil {
		return Settings{}, err
	}
	st.UpdatedAt = s.now().UTC()
	if err := s.Store.SaveSettings(ctx, st); err != nil {
		return Settings{}, fmt.Errorf("settings: save: %w", err)
	}
	return st, nil
}

func set(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func check(st Settings) error {
	problems := map[string]string{}
	if st.Pricing.TaxRate.IsNegative() || st.Pricing.TaxRate.GreaterThan(hundred) {
		problems["pricing.taxRate"] = "must be between 0 and 100"
	}
	if st.Pricing.QuoteValidityDays < 1 {
		problems["pricing.quoteValidityDays"] = "must be at least 1"
	}
	if st.Pricing.DefaultMargin.IsNegative() {
		problems["pricing.defaultMargin"] = "must not be negative"
	}
	seen := map[string]bool{}
	for i, tier := range st.Pricing.PricingTiers {
		key := fmt.Sprintf("pricing.pricingTiers[%d]", i)
		if !pricing.IsTier(tier.ID) {
			problems[key] = "unknown tier " + tier.ID
			continue
		}
		if seen[tier.ID] {
			problems[key] = "duplicate tier " + tier.ID
		}
		seen[tier.ID] = true
		if tier.DiscountPercent.IsNegative() || tier.DiscountPercent.GreaterThan(hundred) {
			problems[key] = "discountPercent must be between 0 and 100"
		}
	}
	if len(problems) > 0 {
		return common.Validation("invalid settings", problems, nil)
	}
	return nil
}
