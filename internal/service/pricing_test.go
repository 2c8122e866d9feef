package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laklak-api/internal/model"
	"laklak-api/internal/repository"
)

func makeProduct(t *testing.T, store repository.Store, price int64) *model.Product {
	t.Helper()
	p := &model.Product{
		ProviderID: 1,
		Type:       model.ProductTypeFood,
		Name:       "member",
		Price:      price,
		Stock:      10,
		IsActive:   true,
	}
	require.NoError(t, store.CreateProduct(context.Background(), p))
	return p
}

func packageTotal(t *testing.T, store repository.Store, id int64) int64 {
	t.Helper()
	pkg, err := store.GetPackage(context.Background(), id)
	require.NoError(t, err)
	return pkg.TotalPrice
}

func TestPricingTracksMembership(t *testing.T) {
	store := newTestStore(t)
	engine := NewPricingEngine(store)
	ctx := context.Background()

	a := makeProduct(t, store, 5)
	b := makeProduct(t, store, 3)
	c := makeProduct(t, store, 4)

	pkg := &model.Package{Name: "combo", IsActive: true}
	require.NoError(t, store.CreatePackage(ctx, pkg))
	require.NoError(t, store.AddPackageProduct(ctx, pkg.ID, a.ID))
	require.NoError(t, store.AddPackageProduct(ctx, pkg.ID, b.ID))

	require.NoError(t, engine.MembershipChanged(ctx, pkg.ID))
	assert.Equal(t, int64(8), packageTotal(t, store, pkg.ID))

	require.NoError(t, store.AddPackageProduct(ctx, pkg.ID, c.ID))
	require.NoError(t, engine.MembershipChanged(ctx, pkg.ID))
	assert.Equal(t, int64(12), packageTotal(t, store, pkg.ID))

	require.NoError(t, store.RemovePackageProduct(ctx, pkg.ID, a.ID))
	require.NoError(t, engine.MembershipChanged(ctx, pkg.ID))
	assert.Equal(t, int64(7), packageTotal(t, store, pkg.ID))
}

func TestPricingTracksMemberPriceChange(t *testing.T) {
	store := newTestStore(t)
	engine := NewPricingEngine(store)
	ctx := context.Background()

	a := makeProduct(t, store, 5)
	b := makeProduct(t, store, 3)

	first := &model.Package{Name: "first", IsActive: true}
	second := &model.Package{Name: "second", IsActive: true}
	require.NoError(t, store.CreatePackage(ctx, first))
	require.NoError(t, store.CreatePackage(ctx, second))
	require.NoError(t, store.AddPackageProduct(ctx, first.ID, a.ID))
	require.NoError(t, store.AddPackageProduct(ctx, first.ID, b.ID))
	require.NoError(t, store.AddPackageProduct(ctx, second.ID, b.ID))
	require.NoError(t, engine.MembershipChanged(ctx, first.ID))
	require.NoError(t, engine.MembershipChanged(ctx, second.ID))

	// Repricing b from 3 to 6 touches every package containing it.
	_, changed, err := store.ApplyPriceChange(ctx, b.ID, 6, "", nil)
	require.NoError(t, err)
	require.True(t, changed)
	require.NoError(t, engine.ProductPriceChanged(ctx, b.ID))

	assert.Equal(t, int64(11), packageTotal(t, store, first.ID))
	assert.Equal(t, int64(6), packageTotal(t, store, second.ID))
}
