package settings_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/quotex-api/internal/common"
	"github.com/noah-isme/quotex-api/internal/pricing"
	"github.com/noah-isme/quotex-api/internal/settings"
	"github.com/noah-isme/quotex-api/internal/store/memory"
)

func TestGetFallsBackToDefaults(t *testing.T) {
	svc := &settings.Service{Store: memory.New()}
	st, err := svc.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, settings.Defaults().Company.Name, st.Company.Name)
	require.True(t, st.Pricing.TaxRate.Equal(decimal.RequireFromString("7.5")))
	require.Equal(t, 30, st.Pricing.QuoteValidityDays)

	tiers, err := svc.Tiers(context.Background())
	require.NoError(t, err)
	premier, ok := tiers.Lookup(pricing.TierPremier)
	require.True(t, ok)
	require.True(t, premier.DiscountPercent.Equal(decimal.NewFromInt(50)))
}

func TestUpdateMergesSections(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	svc := &settings.Service{Store: memory.New(), Now: func() time.Time { return at }}
	ctx := context.Background()

	name := "Acme Tables"
	rate := decimal.RequireFromString("8.25")
	st, err := svc.Update(ctx, settings.Patch{
		Company: &settings.CompanyPatch{Name: &name},
		Pricing: &settings.PricingPatch{TaxRate: &rate},
	})
	require.NoError(t, err)
	require.Equal(t, "Acme Tables", st.Company.Name)
	require.Equal(t, settings.Defaults().Company.Phone, st.Company.Phone)
	require.True(t, st.Pricing.TaxRate.Equal(rate))
	require.Equal(t, at, st.UpdatedAt)

	days := 45
	st, err = svc.Update(ctx, settings.Patch{Pricing: &settings.PricingPatch{QuoteValidityDays: &days}})
	require.NoError(t, err)
	require.Equal(t, 45, st.Pricing.QuoteValidityDays)
	require.True(t, st.Pricing.TaxRate.Equal(rate), "earlier patch survives")

	reloaded, err := svc.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, "Acme Tables", reloaded.Company.Name)
}

func TestUpdateReplacesTiers(t *testing.T) {
	svc := &settings.Service{Store: memory.New()}
	ctx := context.Background()
	_, err := svc.Update(ctx, settings.Patch{Pricing: &settings.PricingPatch{
		PricingTiers: pricing.TierTable{
			{ID: pricing.TierPremier, Name: "Premier", DiscountPercent: decimal.NewFromInt(40)},
			{ID: pricing.TierStandard, Name: "Standard", DiscountPercent: decimal.NewFromInt(5)},
		},
	}})
	require.NoError(t, err)

	tiers, err := svc.Tiers(ctx)
	require.NoError(t, err)
	require.Len(t, tiers, 2)
	_, ok := tiers.Lookup(pricing.TierPreferred)
	require.False(t, ok)
}

func TestUpdateRejectsInvalidValues(t *testing.T) {
	svc := &settings.Service{Store: memory.New()}
	ctx := context.Background()

	cases := map[string]settings.Patch{
		"tax rate above 100": {Pricing: &settings.PricingPatch{TaxRate: ptr(decimal.NewFromInt(101))}},
		"zero validity":      {Pricing: &settings.PricingPatch{QuoteValidityDays: ptr(0)}},
		"duplicate tier": {Pricing: &settings.PricingPatch{PricingTiers: pricing.TierTable{
			{ID: pricing.TierPremier, DiscountPercent: decimal.NewFromInt(10)},
			{ID: pricing.TierPremier, DiscountPercent: decimal.NewFromInt(20)},
		}}},
		"unknown tier": {Pricing: &settings.PricingPatch{PricingTiers: pricing.TierTable{
			{ID: "gold", DiscountPercent: decimal.NewFromInt(10)},
		}}},
		"bad email": {Company: &settings.CompanyPatch{Email: ptr("not-an-email")}},
	}
	for name, patch := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Update(ctx, patch)
			var appErr *common.AppError
			require.True(t, errors.As(err, &appErr), "got %v", err)
			require.Equal(t, "VALIDATION_FAILED", appErr.Code)
		})
	}

	st, err := svc.Get(ctx)
	require.NoError(t, err)
	require.True(t, st.Pricing.TaxRate.Equal(decimal.RequireFromString("7.5")), "rejected patches are not saved")
}

func ptr[T any](v T) *T { return &v }
