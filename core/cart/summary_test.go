package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/core/product"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCartSummaryEmpty(t *testing.T) {
	store := newFakeStore()
	svc := testService(store, fakeCatalog{products: map[string]product.Product{}})

	sum := svc.GetCartSummary(context.Background(), "u1")

	assert.True(t, sum.IsEmpty)
	assert.False(t, sum.CanCheckout)
	assert.Empty(t, sum.Lines)
	assert.True(t, sum.Subtotal.IsZero())
	assert.True(t, sum.Shipping.IsZero())
	assert.True(t, sum.Total.IsZero())
}

func TestGetCartSummaryPricing(t *testing.T) {
	store := newFakeStore()
	svc := testService(store, fakeCatalog{products: map[string]product.Product{"p1": tshirt()}})
	ctx := context.Background()

	// 2 x 20 = 40, below the free shipping threshold of 50.
	require.NoError(t, svc.AddToCart(ctx, "u1", "p1", 2, "M", "Blue"))

	sum := svc.GetCartSummary(ctx, "u1")
	require.Len(t, sum.Lines, 1)

	line := sum.Lines[0]
	assert.Equal(t, BuildLineID("u1", "p1", "M", "Blue"), line.LineID)
	assert.Equal(t, "T-Shirt", line.Name)
	assert.Equal(t, 2, line.Quantity)
	assert.True(t, line.UnitPrice.Equal(decimal.NewFromInt(20)))
	assert.True(t, line.LineTotal.Equal(decimal.NewFromInt(40)))
	assert.Equal(t, 5, line.Available)
	assert.True(t, line.InStock)

	assert.True(t, sum.Subtotal.Equal(decimal.NewFromInt(40)))
	assert.True(t, sum.Shipping.Equal(decimal.NewFromInt(5)))
	assert.True(t, sum.Total.Equal(decimal.NewFromInt(45)))
	assert.False(t, sum.IsEmpty)
	assert.False(t, sum.HasOutOfStockItems)
	assert.True(t, sum.CanCheckout)
}

func TestGetCartSummaryFreeShippingAtThreshold(t *testing.T) {
	store := newFakeStore()
	svc := testService(store, fakeCatalog{products: map[string]product.Product{"p1": tshirt()}})
	ctx := context.Background()

	// 20 + 40 = 60, at or above the threshold ships free.
	require.NoError(t, svc.AddToCart(ctx, "u1", "p1", 1, "M", "Blue"))
	require.NoError(t, svc.AddToCart(ctx, "u1", "p1", 2, "L", "Red"))

	sum := svc.GetCartSummary(ctx, "u1")
	assert.True(t, sum.Subtotal.Equal(decimal.NewFromInt(60)))
	assert.True(t, sum.Shipping.IsZero())
	assert.True(t, sum.Total.Equal(decimal.NewFromInt(60)))
}

func TestGetCartSummarySkipsVanishedProducts(t *testing.T) {
	catalog := fakeCatalog{products: map[string]product.Product{"p1": tshirt()}}
	store := newFakeStore()
	svc := testService(store, catalog)
	ctx := context.Background()

	require.NoError(t, svc.AddToCart(ctx, "u1", "p1", 2, "M", "Blue"))
	delete(catalog.products, "p1")

	// The stale line is priced out of the summary but never auto-removed.
	sum := svc.GetCartSummary(ctx, "u1")
	assert.Empty(t, sum.Lines)
	assert.True(t, sum.IsEmpty)
	assert.True(t, sum.Total.IsZero())
	assert.Len(t, store.items("u1"), 1)
}

func TestGetCartSummaryFlagsOutOfStockLines(t *testing.T) {
	catalog := fakeCatalog{products: map[string]product.Product{"p1": tshirt()}}
	store := newFakeStore()
	svc := testService(store, catalog)
	ctx := context.Background()

	require.NoError(t, svc.AddToCart(ctx, "u1", "p1", 2, "M", "Blue"))

	p := tshirt()
	p.Variants[0].Stock = 1
	catalog.products["p1"] = p

	sum := svc.GetCartSummary(ctx, "u1")
	require.Len(t, sum.Lines, 1)
	assert.False(t, sum.Lines[0].InStock)
	assert.Equal(t, 1, sum.Lines[0].Available)
	assert.True(t, sum.HasOutOfStockItems)
	assert.False(t, sum.CanCheckout)

	// The line is still priced at its held quantity.
	assert.True(t, sum.Subtotal.Equal(decimal.NewFromInt(40)))
}

func TestGetCartSummaryDegradesOnStoreFailure(t *testing.T) {
	store := newFakeStore()
	svc := testService(store, fakeCatalog{products: map[string]product.Product{"p1": tshirt()}})
	ctx := context.Background()

	require.NoError(t, svc.AddToCart(ctx, "u1", "p1", 2, "M", "Blue"))
	store.fetchErr = errors.New("connection refused")

	sum := svc.GetCartSummary(ctx, "u1")
	assert.True(t, sum.IsEmpty)
	assert.Empty(t, sum.Lines)
}

func TestCartLifecycle(t *testing.T) {
	store := newFakeStore()
	svc := testService(store, fakeCatalog{products: map[string]product.Product{"p1": tshirt()}})
	ctx := context.Background()

	require.NoError(t, svc.AddToCart(ctx, "u1", "p1", 2, "M", "Blue"))

	sum := svc.GetCartSummary(ctx, "u1")
	require.Len(t, sum.Lines, 1)
	assert.True(t, sum.Subtotal.Equal(decimal.NewFromInt(40)))

	lineID := sum.Lines[0].LineID

	// Raising past stock fails and leaves the cart untouched.
	var serr *InsufficientStockError
	require.ErrorAs(t, svc.UpdateQuantity(ctx, "u1", lineID, 6), &serr)
	assert.Equal(t, 5, serr.Available)
	assert.Equal(t, 2, store.items("u1")[0].Quantity)

	// Dropping to zero empties the cart.
	require.NoError(t, svc.UpdateQuantity(ctx, "u1", lineID, 0))

	sum = svc.GetCartSummary(ctx, "u1")
	assert.True(t, sum.IsEmpty)
	assert.Equal(t, 0, svc.GetItemCount(ctx, "u1"))
}
