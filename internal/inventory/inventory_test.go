package inventory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/quotex-api/internal/common"
	"github.com/noah-isme/quotex-api/internal/inventory"
	"github.com/noah-isme/quotex-api/internal/store/memory"
)

func codeOf(t *testing.T, err error) string {
	t.Helper()
	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	return appErr.Code
}

func seed(t *testing.T, svc *inventory.Service) map[string]inventory.Item {
	t.Helper()
	out := map[string]inventory.Item{}
	for _, in := range []inventory.Input{
		{SKU: "BASE-FND-BLK", Name: "Foundation base", Category: inventory.CategoryBase, Quantity: 40, ReorderPoint: 10, ReorderQuantity: 50, UnitCost: decimal.RequireFromString("118.00"), Supplier: "Midwest Steelworks"},
		{SKU: "BASE-FLD-SLV", Name: "Folding base", Category: inventory.CategoryBase, Quantity: 6, ReorderPoint: 8, ReorderQuantity: 24, UnitCost: decimal.RequireFromString("142.50")},
		{SKU: "FIN-PWD-BLK", Name: "Powder coat", Category: inventory.CategoryFinish, Quantity: 0, ReorderPoint: 20, ReorderQuantity: 100, UnitCost: decimal.RequireFromString("6.25")},
	} {
		it, err := svc.Create(context.Background(), in)
		require.NoError(t, err)
		out[it.SKU] = it
	}
	return out
}

func TestStockLevels(t *testing.T) {
	cases := []struct {
		qty, point int
		low, out   bool
	}{
		{qty: 0, point: 5, low: false, out: true},
		{qty: 5, point: 5, low: true, out: false},
		{qty: 6, point: 5, low: false, out: false},
	}
	for _, tc := range cases {
		it := inventory.Item{Quantity: tc.qty, ReorderPoint: tc.point}
		require.Equal(t, tc.low, it.LowStock(), "qty %d", tc.qty)
		require.Equal(t, tc.out, it.OutOfStock(), "qty %d", tc.qty)
	}
}

func TestSummaryAndReorder(t *testing.T) {
	svc := &inventory.Service{Repo: memory.New()}
	seed(t, svc)

	sum, err := svc.Summary(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, sum.TotalItems)
	require.Equal(t, 1, sum.LowStock)
	require.Equal(t, 1, sum.OutOfStock)
	require.True(t, sum.TotalValue.Equal(decimal.RequireFromString("5575")), "got %s", sum.TotalValue)

	reorder, err := svc.Reorder(context.Background())
	require.NoError(t, err)
	skus := make([]string, 0, len(reorder))
	for _, it := range reorder {
		skus = append(skus, it.SKU)
	}
	require.ElementsMatch(t, []string{"BASE-FLD-SLV", "FIN-PWD-BLK"}, skus)
}

func TestListFilters(t *testing.T) {
	svc := &inventory.Service{Repo: memory.New()}
	seed(t, svc)

	items, total, err := svc.List(context.Background(), inventory.Filter{Category: inventory.CategoryBase})
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Len(t, items, 2)

	items, _, err = svc.List(context.Background(), inventory.Filter{Query: "steelworks"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "BASE-FND-BLK", items[0].SKU)
}

func TestRestock(t *testing.T) {
	at := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	svc := &inventory.Service{Repo: memory.New(), Now: func() time.Time { return at }}
	items := seed(t, svc)
	ctx := context.Background()

	it, err := svc.Restock(ctx, items["FIN-PWD-BLK"].ID, 0)
	require.NoError(t, err)
	require.Equal(t, 100, it.Quantity, "zero restocks the reorder quantity")
	require.NotNil(t, it.LastRestocked)
	require.Equal(t, at, *it.LastRestocked)

	it, err = svc.Restock(ctx, items["BASE-FLD-SLV"].ID, 4)
	require.NoError(t, err)
	require.Equal(t, 10, it.Quantity)

	_, err = svc.Restock(ctx, items["BASE-FLD-SLV"].ID, -1)
	require.Equal(t, "VALIDATION_FAILED", codeOf(t, err))
	_, err = svc.Restock(ctx, "missing", 1)
	require.Equal(t, "NOT_FOUND", codeOf(t, err))
}

func TestDuplicateSKUAndValidation(t *testing.T) {
	svc := &inventory.Service{Repo: memory.New()}
	items := seed(t, svc)
	ctx := context.Background()

	_, err := svc.Create(ctx, inventory.Input{SKU: "BASE-FND-BLK", Name: "Again", Category: inventory.CategoryBase})
	require.Equal(t, "DUPLICATE_SKU", codeOf(t, err))

	_, err = svc.Create(ctx, inventory.Input{SKU: "X-1", Name: "Bad", Category: "widgets"})
	require.Equal(t, "VALIDATION_FAILED", codeOf(t, err))

	_, err = svc.Create(ctx, inventory.Input{SKU: "X-2", Name: "Bad cost", Category: inventory.CategoryTop, UnitCost: decimal.NewFromInt(-1)})
	require.Equal(t, "VALIDATION_FAILED", codeOf(t, err))

	updated, err := svc.Update(ctx, items["BASE-FLD-SLV"].ID, inventory.Input{
		SKU: "BASE-FLD-SLV", Name: "Folding base, silver", Category: inventory.CategoryBase, Quantity: 12, ReorderPoint: 8,
	})
	require.NoError(t, err)
	require.Equal(t, "Folding base, silver", updated.Name)
	require.Equal(t, 12, updated.Quantity)

	require.NoError(t, svc.Delete(ctx, updated.ID))
	_, err = svc.Get(ctx, updated.ID)
	require.Equal(t, "NOT_FOUND", codeOf(t, err))
}
