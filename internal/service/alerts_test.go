package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laklak-api/internal/model"
	"laklak-api/internal/repository"
)

func makeAlert(t *testing.T, store repository.Store) *model.LowStockAlert {
	t.Helper()
	ctx := context.Background()

	p := makeProduct(t, store, 30)
	_, alerted, err := store.RecordInventoryEvent(ctx, model.InventoryTransaction{
		ProductID: p.ID, Quantity: 15, PreviousStock: 20, NewStock: 5,
		Type: model.TransactionRemove, Timestamp: time.Now().UTC(),
	}, 5*time.Minute, 10)
	require.NoError(t, err)
	require.True(t, alerted)

	alerts, err := store.ListAlerts(ctx, model.AlertFilter{ProductID: p.ID})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	return &alerts[0]
}

func TestAlertLifecycle(t *testing.T) {
	store := newTestStore(t)
	svc := NewAlertService(store)
	ctx := context.Background()

	alert := makeAlert(t, store)

	got, err := svc.Acknowledge(ctx, supplier, alert.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AlertAcknowledged, got.Status)
	require.NotNil(t, got.AcknowledgedBy)
	assert.Equal(t, supplier.UserID, *got.AcknowledgedBy)

	// Acknowledging twice conflicts.
	_, err = svc.Acknowledge(ctx, supplier, alert.ID)
	assertAPIStatus(t, err, 409)

	got, err = svc.Resolve(ctx, supplier, alert.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AlertResolved, got.Status)
	assert.NotNil(t, got.ResolvedAt)

	// Resolved is terminal.
	_, err = svc.Resolve(ctx, supplier, alert.ID)
	assertAPIStatus(t, err, 409)
	_, err = svc.Acknowledge(ctx, supplier, alert.ID)
	assertAPIStatus(t, err, 409)
}

func TestAlertResolveFromPending(t *testing.T) {
	store := newTestStore(t)
	svc := NewAlertService(store)
	ctx := context.Background()

	alert := makeAlert(t, store)

	// Pending alerts may resolve without being acknowledged first.
	got, err := svc.Resolve(ctx, supplier, alert.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AlertResolved, got.Status)
	assert.Nil(t, got.AcknowledgedBy)
}

func TestAlertProviderScope(t *testing.T) {
	store := newTestStore(t)
	svc := NewAlertService(store)
	ctx := context.Background()

	alert := makeAlert(t, store)
	other := model.Actor{UserID: 2, Role: model.RoleSupplier}

	// Foreign alerts read as missing, not forbidden.
	_, err := svc.Acknowledge(ctx, other, alert.ID)
	assertAPIStatus(t, err, 404)
	_, err = svc.Resolve(ctx, other, alert.ID)
	assertAPIStatus(t, err, 404)

	// Supervisors bypass the scope.
	got, err := svc.Acknowledge(ctx, supervisor, alert.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AlertAcknowledged, got.Status)
}

func TestAlertNotFound(t *testing.T) {
	store := newTestStore(t)
	svc := NewAlertService(store)

	_, err := svc.Acknowledge(context.Background(), supplier, 999)
	assertAPIStatus(t, err, 404)
}
