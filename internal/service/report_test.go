package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laklak-api/internal/cache"
	"laklak-api/internal/model"
)

func TestReportScoping(t *testing.T) {
	store := newTestStore(t)
	svc := NewReportService(store, cache.NewMemoryCache(), time.Minute, 10)
	ctx := context.Background()

	mine := makeProduct(t, store, 30)
	foreign := &model.Product{
		ProviderID: 2, Type: model.ProductTypeFood, Name: "foreign", Price: 30, Stock: 20, IsActive: true,
	}
	require.NoError(t, store.CreateProduct(ctx, foreign))

	for _, id := range []int64{mine.ID, foreign.ID} {
		_, _, err := store.RecordInventoryEvent(ctx, model.InventoryTransaction{
			ProductID: id, Quantity: 5, PreviousStock: 20, NewStock: 15,
			Type: model.TransactionRemove, Timestamp: time.Now().UTC(),
		}, 5*time.Minute, 10)
		require.NoError(t, err)
	}

	records, err := svc.ListTransactions(ctx, supplier, model.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, mine.ID, records[0].ProductID)

	records, err = svc.ListTransactions(ctx, supervisor, model.TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, records, 2)

	// A non-supervisor cannot widen the scope through the filter.
	records, err = svc.ListTransactions(ctx, supplier, model.TransactionFilter{ProviderID: 2})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, mine.ID, records[0].ProductID)
}

func TestDashboardCaching(t *testing.T) {
	store := newTestStore(t)
	svc := NewReportService(store, cache.NewMemoryCache(), time.Minute, 10)
	ctx := context.Background()

	makeProduct(t, store, 30)

	first, err := svc.Dashboard(ctx, supplier)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.TotalProducts)

	// A product added after the first read is invisible until the TTL or an
	// explicit invalidation.
	makeProduct(t, store, 30)
	cached, err := svc.Dashboard(ctx, supplier)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cached.TotalProducts)

	svc.InvalidateDashboard(ctx, supplier.UserID)
	fresh, err := svc.Dashboard(ctx, supplier)
	require.NoError(t, err)
	assert.Equal(t, int64(2), fresh.TotalProducts)
}

func TestDashboardScopedPerProvider(t *testing.T) {
	store := newTestStore(t)
	svc := NewReportService(store, cache.NewMemoryCache(), time.Minute, 10)
	ctx := context.Background()

	makeProduct(t, store, 30)
	other := &model.Product{
		ProviderID: 2, Type: model.ProductTypeFood, Name: "foreign", Price: 30, Stock: 20, IsActive: true,
	}
	require.NoError(t, store.CreateProduct(ctx, other))

	mine, err := svc.Dashboard(ctx, supplier)
	require.NoError(t, err)
	assert.Equal(t, int64(1), mine.TotalProducts)

	global, err := svc.Dashboard(ctx, supervisor)
	require.NoError(t, err)
	assert.Equal(t, int64(2), global.TotalProducts)
}
