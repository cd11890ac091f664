package customer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/quotex-api/internal/common"
	"github.com/noah-isme/quotex-api/internal/customer"
	"github.com/noah-isme/quotex-api/internal/pricing"
	"github.com/noah-isme/quotex-api/internal/settings"
	"github.com/noah-isme/quotex-api/internal/store/memory"
)

func newService() *customer.Service {
	st := memory.New()
	return &customer.Service{Repo: st, Tiers: &settings.Service{Store: st}}
}

func codeOf(t *testing.T, err error) string {
	t.Helper()
	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	return appErr.Code
}

func TestOrganizationDefaultsToStandardTier(t *testing.T) {
	svc := newService()
	org, err := svc.CreateOrganization(context.Background(), customer.OrganizationInput{
		Name: " Harbor County Schools ", Type: customer.OrgK12,
	})
	require.NoError(t, err)
	require.Equal(t, "Harbor County Schools", org.Name)
	require.Equal(t, pricing.TierStandard, org.PricingTier)

	_, err = svc.CreateOrganization(context.Background(), customer.OrganizationInput{Name: "X", Type: "space-agency"})
	require.Equal(t, "VALIDATION_FAILED", codeOf(t, err))
}

func TestCreateCustomerNormalisesContactsAndTags(t *testing.T) {
	svc := newService()
	c, err := svc.CreateCustomer(context.Background(), customer.CustomerInput{
		CompanyName: "Summit Office Interiors",
		Contacts: []customer.ContactInput{
			{Name: "Chris Baylor", Email: " Chris@Summit.com "},
			{Name: "Jo Park"},
		},
		Tags: []string{"Dealer", "dealer", " ", "west"},
	})
	require.NoError(t, err)
	require.Len(t, c.Contacts, 2)
	require.Equal(t, "chris@summit.com", c.Contacts[0].Email)
	primary, ok := c.PrimaryContact()
	require.True(t, ok)
	require.Equal(t, "Chris Baylor", primary.Name)
	require.Equal(t, []string{"dealer", "west"}, c.Tags)

	_, err = svc.CreateCustomer(context.Background(), customer.CustomerInput{
		CompanyName: "Two bosses",
		Contacts: []customer.ContactInput{
			{Name: "A", IsPrimary: true},
			{Name: "B", IsPrimary: true},
		},
	})
	require.Equal(t, "VALIDATION_FAILED", codeOf(t, err))
}

func TestCustomerContactsAreTrimmedBeforeValidation(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	c, err := svc.CreateCustomer(ctx, customer.CustomerInput{CompanyName: " Facilities "})
	require.NoError(t, err)
	require.Equal(t, "Facilities", c.CompanyName)

	c, err = svc.UpdateCustomer(ctx, c.ID, customer.CustomerInput{
		CompanyName: "Facilities",
		Contacts:    []customer.ContactInput{{Name: " Dana Ruiz ", Email: "\tDANA@Campus.EDU  "}},
	})
	require.NoError(t, err)
	require.Equal(t, "dana@campus.edu", c.Contacts[0].Email)
	require.Equal(t, "Dana Ruiz", c.Contacts[0].Name)

	_, err = svc.UpdateCustomer(ctx, c.ID, customer.CustomerInput{
		CompanyName: "Facilities",
		Contacts:    []customer.ContactInput{{Name: "   "}},
	})
	require.Equal(t, "VALIDATION_FAILED", codeOf(t, err), "blank names stay invalid")

	org, err := svc.CreateOrganization(ctx, customer.OrganizationInput{
		Name: "State College", Type: customer.OrgUniversity, Website: " https://state.edu ",
	})
	require.NoError(t, err)
	require.Equal(t, "https://state.edu", org.Website)
}

func TestCreateCustomerRejectsUnknownOrganization(t *testing.T) {
	svc := newService()
	_, err := svc.CreateCustomer(context.Background(), customer.CustomerInput{
		OrganizationID: "missing", CompanyName: "Orphan",
	})
	require.Equal(t, "VALIDATION_FAILED", codeOf(t, err))
}

func TestQuoteUnitPriceFollowsOrganizationTier(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	list := decimal.NewFromInt(595)

	cases := []struct {
		tier string
		want string
	}{
		{pricing.TierPremier, "297.5"},
		{pricing.TierPreferred, "476"},
		{pricing.TierStandard, "535.5"},
	}
	for _, tc := range cases {
		t.Run(tc.tier, func(t *testing.T) {
			org, err := svc.CreateOrganization(ctx, customer.OrganizationInput{
				Name: "Org " + tc.tier, Type: customer.OrgCorporate, PricingTier: tc.tier,
			})
			require.NoError(t, err)
			c, err := svc.CreateCustomer(ctx, customer.CustomerInput{OrganizationID: org.ID, CompanyName: "Dept"})
			require.NoError(t, err)

			tq, err := svc.QuoteUnitPrice(ctx, c.ID, list)
			require.NoError(t, err)
			require.Equal(t, tc.tier, tq.Tier)
			require.True(t, tq.UnitPrice.Equal(decimal.RequireFromString(tc.want)), "got %s", tq.UnitPrice)
			require.True(t, tq.ListPrice.Equal(list))
		})
	}
}

func TestQuoteUnitPriceWithoutOrganizationIsList(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	c, err := svc.CreateCustomer(ctx, customer.CustomerInput{CompanyName: "Walk-in"})
	require.NoError(t, err)

	tq, err := svc.QuoteUnitPrice(ctx, c.ID, decimal.RequireFromString("100.005"))
	require.NoError(t, err)
	require.Empty(t, tq.Tier)
	require.True(t, tq.DiscountPercent.IsZero())
	require.True(t, tq.UnitPrice.Equal(decimal.RequireFromString("100.01")), "got %s", tq.UnitPrice)

	pct, err := svc.TierDiscount(ctx, "unknown-customer")
	require.NoError(t, err)
	require.True(t, pct.IsZero())
}

func TestDeleteOrganizationInUse(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	org, err := svc.CreateOrganization(ctx, customer.OrganizationInput{Name: "Lakeside", Type: customer.OrgUniversity})
	require.NoError(t, err)
	c, err := svc.CreateCustomer(ctx, customer.CustomerInput{OrganizationID: org.ID, CompanyName: "Facilities"})
	require.NoError(t, err)

	require.Equal(t, "ORGANIZATION_IN_USE", codeOf(t, svc.DeleteOrganization(ctx, org.ID)))

	require.NoError(t, svc.DeleteCustomer(ctx, c.ID))
	require.NoError(t, svc.DeleteOrganization(ctx, org.ID))
	_, err = svc.GetOrganization(ctx, org.ID)
	require.Equal(t, "NOT_FOUND", codeOf(t, err))
}

func TestUpdateOrganizationKeepsTierWhenOmitted(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	org, err := svc.CreateOrganization(ctx, customer.OrganizationInput{
		Name: "Northwind", Type: customer.OrgHealthcare, PricingTier: pricing.TierPreferred,
	})
	require.NoError(t, err)

	updated, err := svc.UpdateOrganization(ctx, org.ID, customer.OrganizationInput{Name: "Northwind Health", Type: customer.OrgHealthcare})
	require.NoError(t, err)
	require.Equal(t, "Northwind Health", updated.Name)
	require.Equal(t, pricing.TierPreferred, updated.PricingTier)
}
