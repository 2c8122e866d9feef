package model

import "time"

// Inventory transaction kinds.
const (
	TransactionAdd     = "add"
	TransactionRemove  = "remove"
	TransactionAdjust  = "adjust"
	TransactionInitial = "initial"
)

// ValidTransactionType reports whether t is a known transaction kind.
func ValidTransactionType(t string) bool {
	switch t {
	case TransactionAdd, TransactionRemove, TransactionAdjust, TransactionInitial:
		return true
	}
	return false
}

// ClassifyDelta maps a stock delta to a transaction kind.
func ClassifyDelta(delta int64) string {
	switch {
	case delta > 0:
		return TransactionAdd
	case delta < 0:
		return TransactionRemove
	default:
		return TransactionAdjust
	}
}

// InventoryTransaction is an immutable audit record of one stock change.
// Quantity is the absolute moved amount for add/remove and the signed delta
// for adjust.
type InventoryTransaction struct {
	ID            int64     `json:"id"`
	ProductID     int64     `json:"product_id"`
	Quantity      int64     `json:"quantity"`
	PreviousStock int64     `json:"previous_stock"`
	NewStock      int64     `json:"new_stock"`
	Type          string    `json:"transaction_type"`
	Notes         string    `json:"notes,omitempty"`
	PerformedBy   *int64    `json:"performed_by,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Low stock alert statuses.
const (
	AlertPending      = "pending"
	AlertAcknowledged = "acknowledged"
	AlertResolved     = "resolved"
)

// LowStockAlert tracks a product whose stock crossed the low-stock threshold.
// At most one alert per product may be open (pending or acknowledged) at a
// time; a resolved alert never re-opens.
type LowStockAlert struct {
	ID             int64      `json:"id"`
	ProductID      int64      `json:"product_id"`
	ProviderID     int64      `json:"provider_id,omitempty"`
	StockLevel     int64      `json:"stock_level"`
	Threshold      int64      `json:"threshold"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	AcknowledgedBy *int64     `json:"acknowledged_by,omitempty"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
}

// Open reports whether the alert still blocks creation of a new one.
func (a *LowStockAlert) Open() bool {
	return a.Status == AlertPending || a.Status == AlertAcknowledged
}

// PriceChangeLog is an immutable audit record of one price change.
type PriceChangeLog struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"product_id"`
	OldPrice  int64     `json:"old_price"`
	NewPrice  int64     `json:"new_price"`
	ChangedBy *int64    `json:"changed_by,omitempty"`
	ChangedAt time.Time `json:"changed_at"`
	Notes     string    `json:"notes,omitempty"`
}

// TransactionFilter narrows inventory transaction listings.
type TransactionFilter struct {
	ProviderID int64 // 0 = all providers (supervisor)
	ProductID  int64
	Type       string
	Since      time.Time
	Limit      int
}

// AlertFilter narrows low stock alert listings.
type AlertFilter struct {
	ProviderID int64
	ProductID  int64
	Status     string
	Limit      int
}

// PriceChangeFilter narrows price change listings.
type PriceChangeFilter struct {
	ProviderID int64
	ProductID  int64
	Limit      int
}

// DashboardStats is the aggregate read model for the inventory dashboard.
type DashboardStats struct {
	TotalProducts      int64                  `json:"total_products"`
	TotalStock         int64                  `json:"total_stock"`
	LowStockCount      int64                  `json:"low_stock_count"`
	OutOfStockCount    int64                  `json:"out_of_stock_count"`
	OpenAlertCount     int64                  `json:"open_alert_count"`
	RecentTransactions []InventoryTransaction `json:"recent_transactions"`
	GeneratedAt        time.Time              `json:"generated_at"`
}
