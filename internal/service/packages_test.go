package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laklak-api/internal/repository"
)

func newTestPackages(t *testing.T) (*PackageService, repository.Store) {
	t.Helper()
	store := newTestStore(t)
	return NewPackageService(store, NewPricingEngine(store)), store
}

func TestCreatePackageWithMembers(t *testing.T) {
	svc, store := newTestPackages(t)
	ctx := context.Background()

	a := makeProduct(t, store, 5)
	b := makeProduct(t, store, 3)

	pkg, err := svc.CreatePackage(ctx, combinator, CreatePackageInput{
		Name:       "starter",
		ProductIDs: []int64{a.ID, b.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(8), pkg.TotalPrice)
	assert.ElementsMatch(t, []int64{a.ID, b.ID}, pkg.ProductIDs)

	_, err = svc.CreatePackage(ctx, combinator, CreatePackageInput{})
	assertAPIStatus(t, err, 400)

	_, err = svc.CreatePackage(ctx, supplier, CreatePackageInput{Name: "nope"})
	assertAPIStatus(t, err, 403)

	_, err = svc.CreatePackage(ctx, combinator, CreatePackageInput{
		Name:       "ghost",
		ProductIDs: []int64{9999},
	})
	assertAPIStatus(t, err, 404)
}

func TestPackageMembershipKeepsPriceCurrent(t *testing.T) {
	svc, store := newTestPackages(t)
	ctx := context.Background()

	a := makeProduct(t, store, 5)
	b := makeProduct(t, store, 3)

	pkg, err := svc.CreatePackage(ctx, combinator, CreatePackageInput{
		Name:       "combo",
		ProductIDs: []int64{a.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), pkg.TotalPrice)

	pkg, err = svc.AddProduct(ctx, combinator, pkg.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(8), pkg.TotalPrice)

	pkg, err = svc.RemoveProduct(ctx, combinator, pkg.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), pkg.TotalPrice)

	pkg, err = svc.ClearProducts(ctx, combinator, pkg.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pkg.TotalPrice)
	assert.Empty(t, pkg.ProductIDs)
}

func TestPackageNotFound(t *testing.T) {
	svc, store := newTestPackages(t)
	ctx := context.Background()

	p := makeProduct(t, store, 5)

	_, err := svc.AddProduct(ctx, combinator, 999, p.ID)
	assertAPIStatus(t, err, 404)
	_, err = svc.GetPackage(ctx, 999)
	assertAPIStatus(t, err, 404)
}
