package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laklak-api/internal/bus"
	"laklak-api/internal/cache"
	"laklak-api/internal/config"
	"laklak-api/internal/middleware"
	"laklak-api/internal/model"
	"laklak-api/internal/repository"
	"laklak-api/internal/service"
)

func newTestHandlers(t *testing.T) (*CatalogHandler, *InventoryHandler, repository.Store) {
	t.Helper()
	store, err := repository.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	mbus := bus.NewMemoryBus()
	t.Cleanup(func() { mbus.Close() })

	topics := config.KafkaConfig{
		TopicInventoryUpdates: "inventory-updates",
		TopicLowStockAlerts:   "low-stock-alerts",
		TopicPriceChanges:     "product-price-changes",
		TopicProductCreated:   "product-created",
		TopicProductDeleted:   "product-deleted",
	}
	pricing := service.NewPricingEngine(store)
	catalog := service.NewCatalogService(store, mbus, pricing, topics, 10)
	alerts := service.NewAlertService(store)
	reports := service.NewReportService(store, cache.NewMemoryCache(), time.Minute, 10)
	return NewCatalogHandler(catalog, reports), NewInventoryHandler(catalog, alerts, reports), store
}

func testRequest(t *testing.T, method, target string, body interface{}, actor model.Actor) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	return req.WithContext(context.WithValue(req.Context(), middleware.ActorKey, actor))
}

func decodeData(t *testing.T, rr *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &envelope))
	require.True(t, envelope.Success)
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func seedProduct(t *testing.T, store repository.Store, providerID, price, stock int64) *model.Product {
	t.Helper()
	p := &model.Product{
		ProviderID: providerID, Type: model.ProductTypeFood, Name: "bread",
		Price: price, Stock: stock, IsActive: true,
	}
	require.NoError(t, store.CreateProduct(context.Background(), p))
	return p
}

func TestUpdateStockRefreshesDashboard(t *testing.T) {
	_, inv, store := newTestHandlers(t)
	actor := model.Actor{UserID: 1, Role: model.RoleSupplier}
	p := seedProduct(t, store, actor.UserID, 30, 50)

	// Prime the dashboard cache above the low stock threshold.
	rr := httptest.NewRecorder()
	inv.Dashboard(rr, testRequest(t, http.MethodGet, "/api/v1/inventory/dashboard", nil, actor))
	require.Equal(t, http.StatusOK, rr.Code)
	var before model.DashboardStats
	decodeData(t, rr, &before)
	assert.Equal(t, int64(0), before.LowStockCount)

	rr = httptest.NewRecorder()
	inv.UpdateStock(rr, testRequest(t, http.MethodPost, "/api/v1/inventory/stock", service.StockUpdateInput{
		ProductID: p.ID, Quantity: 45, Type: model.TransactionRemove,
	}, actor))
	require.Equal(t, http.StatusCreated, rr.Code)

	// The mutation drops the cached dashboard, so the next read is current.
	rr = httptest.NewRecorder()
	inv.Dashboard(rr, testRequest(t, http.MethodGet, "/api/v1/inventory/dashboard", nil, actor))
	require.Equal(t, http.StatusOK, rr.Code)
	var after model.DashboardStats
	decodeData(t, rr, &after)
	assert.Equal(t, int64(1), after.LowStockCount)
	assert.Len(t, after.RecentTransactions, 1)
}

func TestBulkStockRefreshesDashboard(t *testing.T) {
	cat, inv, store := newTestHandlers(t)
	actor := model.Actor{UserID: 1, Role: model.RoleSupplier}
	seedProduct(t, store, actor.UserID, 30, 50)

	rr := httptest.NewRecorder()
	inv.Dashboard(rr, testRequest(t, http.MethodGet, "/api/v1/inventory/dashboard", nil, actor))
	require.Equal(t, http.StatusOK, rr.Code)
	var before model.DashboardStats
	decodeData(t, rr, &before)
	assert.Equal(t, int64(50), before.TotalStock)

	rr = httptest.NewRecorder()
	cat.BulkStock(rr, testRequest(t, http.MethodPost, "/api/v1/products/bulk-stock", BulkStockRequest{Delta: -45}, actor))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	inv.Dashboard(rr, testRequest(t, http.MethodGet, "/api/v1/inventory/dashboard", nil, actor))
	require.Equal(t, http.StatusOK, rr.Code)
	var after model.DashboardStats
	decodeData(t, rr, &after)
	assert.Equal(t, int64(5), after.TotalStock)
	assert.Equal(t, int64(1), after.LowStockCount)
}

func TestBulkPriceEndpoint(t *testing.T) {
	_, inv, store := newTestHandlers(t)
	actor := model.Actor{UserID: 1, Role: model.RoleSupplier}
	p1 := seedProduct(t, store, actor.UserID, 30, 50)
	p2 := seedProduct(t, store, actor.UserID, 50, 50)

	rr := httptest.NewRecorder()
	inv.BulkPrice(rr, testRequest(t, http.MethodPost, "/api/v1/inventory/bulk-price", service.BulkPriceInput{
		ProductIDs: []int64{p1.ID, p2.ID, 9999},
		NewPrice:   50,
	}, actor))
	require.Equal(t, http.StatusOK, rr.Code)

	var res service.BulkPriceResult
	decodeData(t, rr, &res)
	require.Len(t, res.Successful, 2)
	assert.Equal(t, p1.ID, res.Successful[0].ProductID)
	assert.Equal(t, int64(30), res.Successful[0].OldPrice)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, int64(9999), res.Failed[0].ProductID)

	rr = httptest.NewRecorder()
	inv.BulkPrice(rr, testRequest(t, http.MethodPost, "/api/v1/inventory/bulk-price", service.BulkPriceInput{
		NewPrice: 50,
	}, actor))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
