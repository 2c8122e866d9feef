package model

import "time"

// InventoryUpdateEvent is published for every stock change. The producer
// keys the message with the product id so all events for one product land
// in the same partition.
type InventoryUpdateEvent struct {
	ProductID int64     `json:"product_id"`
	OldStock  int64     `json:"old_stock"`
	NewStock  int64     `json:"new_stock"`
	UserID    *int64    `json:"user_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// PriceChangeEvent is published for every price change. Prices travel as
// strings on the wire.
type PriceChangeEvent struct {
	ProductID int64     `json:"product_id"`
	OldPrice  string    `json:"old_price"`
	NewPrice  string    `json:"new_price"`
	UserID    *int64    `json:"user_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// LowStockAlertEvent is published when a stock change lands at or below the
// low-stock threshold.
type LowStockAlertEvent struct {
	ProductID    int64     `json:"product_id"`
	CurrentStock int64     `json:"current_stock"`
	Threshold    int64     `json:"threshold"`
	Timestamp    time.Time `json:"timestamp"`
}

// ProductData is the snapshot carried by lifecycle events.
type ProductData struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Price      int64  `json:"price"`
	Stock      int64  `json:"stock"`
	ProviderID int64  `json:"provider_id"`
}

// ProductLifecycleEvent is published on product creation and deletion.
type ProductLifecycleEvent struct {
	ProductID   int64       `json:"product_id"`
	ProductData ProductData `json:"product_data"`
	UserID      *int64      `json:"user_id,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
}
