package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laklak-api/internal/bus"
	"laklak-api/internal/model"
	"laklak-api/internal/repository"
)

func newTestProcessor(t *testing.T) (*Processor, repository.Store, *bus.MemoryBus) {
	t.Helper()
	store := newTestStore(t)
	mbus := bus.NewMemoryBus()
	t.Cleanup(func() { mbus.Close() })
	proc := NewProcessor(store, mbus.Consumer, testKafkaConfig(), 5*time.Minute, 10)
	return proc, store, mbus
}

func inventoryMessage(t *testing.T, ev model.InventoryUpdateEvent) bus.Message {
	t.Helper()
	value, err := json.Marshal(ev)
	require.NoError(t, err)
	return bus.Message{Topic: "inventory-updates", Value: value}
}

func TestProcessorRecordsInventoryEvent(t *testing.T) {
	proc, store, _ := newTestProcessor(t)
	ctx := context.Background()

	p := makeProduct(t, store, 30)
	ev := model.InventoryUpdateEvent{
		ProductID: p.ID, OldStock: 20, NewStock: 15, Timestamp: time.Now().UTC(),
	}

	require.NoError(t, proc.handleInventoryUpdate(ctx, inventoryMessage(t, ev)))

	records, err := store.ListTransactions(ctx, model.TransactionFilter{ProductID: p.ID})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, model.TransactionRemove, records[0].Type)
	assert.Equal(t, int64(5), records[0].Quantity)
	assert.Equal(t, "Created by event processor", records[0].Notes)
}

func TestProcessorClassification(t *testing.T) {
	proc, store, _ := newTestProcessor(t)
	ctx := context.Background()

	p := makeProduct(t, store, 30)
	cases := []struct {
		old, new int64
		kind     string
		quantity int64
	}{
		{20, 35, model.TransactionAdd, 15},
		{35, 28, model.TransactionRemove, 7},
		{28, 28, model.TransactionAdjust, 0},
	}
	for _, tc := range cases {
		ev := model.InventoryUpdateEvent{
			ProductID: p.ID, OldStock: tc.old, NewStock: tc.new, Timestamp: time.Now().UTC(),
		}
		require.NoError(t, proc.handleInventoryUpdate(ctx, inventoryMessage(t, ev)))
	}

	records, err := store.ListTransactions(ctx, model.TransactionFilter{ProductID: p.ID})
	require.NoError(t, err)
	require.Len(t, records, len(cases))
	// Listings are newest first.
	for i, tc := range cases {
		rec := records[len(records)-1-i]
		assert.Equal(t, tc.kind, rec.Type)
		assert.Equal(t, tc.quantity, rec.Quantity)
	}
}

func TestProcessorDeduplicatesRedelivery(t *testing.T) {
	proc, store, _ := newTestProcessor(t)
	ctx := context.Background()

	p := makeProduct(t, store, 30)
	msg := inventoryMessage(t, model.InventoryUpdateEvent{
		ProductID: p.ID, OldStock: 20, NewStock: 15, Timestamp: time.Now().UTC(),
	})

	require.NoError(t, proc.handleInventoryUpdate(ctx, msg))
	require.NoError(t, proc.handleInventoryUpdate(ctx, msg))
	require.NoError(t, proc.handleInventoryUpdate(ctx, msg))

	records, err := store.ListTransactions(ctx, model.TransactionFilter{ProductID: p.ID})
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestProcessorAlertsOnce(t *testing.T) {
	proc, store, _ := newTestProcessor(t)
	ctx := context.Background()

	p := makeProduct(t, store, 30)
	drops := []model.InventoryUpdateEvent{
		{ProductID: p.ID, OldStock: 20, NewStock: 8, Timestamp: time.Now().UTC()},
		{ProductID: p.ID, OldStock: 8, NewStock: 4, Timestamp: time.Now().UTC()},
	}
	for _, ev := range drops {
		require.NoError(t, proc.handleInventoryUpdate(ctx, inventoryMessage(t, ev)))
	}

	alerts, err := store.ListAlerts(ctx, model.AlertFilter{ProductID: p.ID})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, model.AlertPending, alerts[0].Status)
	assert.Equal(t, int64(8), alerts[0].StockLevel)
}

func TestProcessorSkipsUnknownProduct(t *testing.T) {
	proc, store, _ := newTestProcessor(t)
	ctx := context.Background()

	msg := inventoryMessage(t, model.InventoryUpdateEvent{
		ProductID: 12345, OldStock: 20, NewStock: 15, Timestamp: time.Now().UTC(),
	})
	require.NoError(t, proc.handleInventoryUpdate(ctx, msg))

	records, err := store.ListTransactions(ctx, model.TransactionFilter{})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestProcessorRejectsPoisonMessage(t *testing.T) {
	proc, _, _ := newTestProcessor(t)
	ctx := context.Background()

	err := proc.handleInventoryUpdate(ctx, bus.Message{Topic: "inventory-updates", Value: []byte("{not json")})
	assert.Error(t, err)

	err = proc.handlePriceChange(ctx, bus.Message{Topic: "product-price-changes", Value: []byte(`{"old_price":"abc"}`)})
	assert.Error(t, err)
}

func TestProcessorRunSurvivesPoisonMessage(t *testing.T) {
	proc, store, mbus := newTestProcessor(t)

	p := makeProduct(t, store, 30)
	ctx := context.Background()
	// A payload that decodes to the wrong shape poisons the handler but
	// must not stop the loop.
	require.NoError(t, mbus.Publish(ctx, "inventory-updates", "1", "garbage"))
	require.NoError(t, mbus.Publish(ctx, "inventory-updates", "1", model.InventoryUpdateEvent{
		ProductID: p.ID, OldStock: 20, NewStock: 15, Timestamp: time.Now().UTC(),
	}))

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- proc.Run(runCtx, "inventory-updates") }()

	require.Eventually(t, func() bool {
		records, err := store.ListTransactions(ctx, model.TransactionFilter{ProductID: p.ID})
		return err == nil && len(records) == 1
	}, 3*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestProcessorRecordsPriceChange(t *testing.T) {
	proc, store, _ := newTestProcessor(t)
	ctx := context.Background()

	p := makeProduct(t, store, 30)
	ev := model.PriceChangeEvent{
		ProductID: p.ID, OldPrice: "30", NewPrice: "45", Timestamp: time.Now().UTC(),
	}
	value, err := json.Marshal(ev)
	require.NoError(t, err)
	msg := bus.Message{Topic: "product-price-changes", Value: value}

	require.NoError(t, proc.handlePriceChange(ctx, msg))
	require.NoError(t, proc.handlePriceChange(ctx, msg))

	logs, err := store.ListPriceChanges(ctx, model.PriceChangeFilter{ProductID: p.ID})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, int64(30), logs[0].OldPrice)
	assert.Equal(t, int64(45), logs[0].NewPrice)
	assert.Equal(t, "Created by event processor", logs[0].Notes)
}

func TestProcessorRunConsumesPublishedEvents(t *testing.T) {
	proc, store, mbus := newTestProcessor(t)

	p := makeProduct(t, store, 30)
	ctx := context.Background()
	for _, ev := range []model.InventoryUpdateEvent{
		{ProductID: p.ID, OldStock: 20, NewStock: 15, Timestamp: time.Now().UTC()},
		{ProductID: p.ID, OldStock: 15, NewStock: 12, Timestamp: time.Now().UTC()},
	} {
		require.NoError(t, mbus.Publish(ctx, "inventory-updates", "1", ev))
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- proc.Run(runCtx, "inventory-updates") }()

	require.Eventually(t, func() bool {
		records, err := store.ListTransactions(ctx, model.TransactionFilter{ProductID: p.ID})
		return err == nil && len(records) == 2
	}, 3*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestProcessorRejectsUnknownTopic(t *testing.T) {
	proc, _, _ := newTestProcessor(t)
	assert.Error(t, proc.Run(context.Background(), "shipping-updates"))
}
