package repository

import (
	"context"
	"errors"
	"time"

	"laklak-api/internal/model"
)

// Sentinel errors surfaced by the store. Services translate them into API
// errors at the boundary.
var (
	ErrNotFound          = errors.New("record not found")
	ErrInsufficientStock = errors.New("not enough stock available")
	ErrAlertConflict     = errors.New("alert is not in a state that allows this transition")
)

// ProductStore defines catalog product data access. Every read excludes
// soft-deleted rows.
type ProductStore interface {
	CreateProduct(ctx context.Context, p *model.Product) error
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
	ListProductsByProvider(ctx context.Context, providerID int64) ([]model.Product, error)
	UpdateProduct(ctx context.Context, p *model.Product) error
	SoftDeleteProduct(ctx context.Context, id int64) error

	// BulkAdjustStock applies a signed delta to every non-deleted product of
	// the provider (restricted to ids when non-empty). Negative deltas floor
	// at zero via two conditional bulk updates rather than a per-row loop.
	// Returns the before/after stock of every product whose stock changed.
	BulkAdjustStock(ctx context.Context, providerID int64, ids []int64, delta int64) ([]model.StockChange, error)

	// ApplyStockChange performs a direct stock mutation and writes its audit
	// record in the same transaction. kind is add/remove/adjust; remove
	// fails with ErrInsufficientStock when quantity exceeds current stock.
	ApplyStockChange(ctx context.Context, productID int64, kind string, quantity int64, notes string, performedBy *int64) (*model.InventoryTransaction, error)

	// ApplyPriceChange sets a new price and writes the PriceChangeLog in the
	// same transaction. changed is false when the price already matched.
	ApplyPriceChange(ctx context.Context, productID, newPrice int64, notes string, changedBy *int64) (rec *model.PriceChangeLog, changed bool, err error)
}

// PackageStore defines package and membership data access.
type PackageStore interface {
	CreatePackage(ctx context.Context, p *model.Package) error
	GetPackage(ctx context.Context, id int64) (*model.Package, error)
	AddPackageProduct(ctx context.Context, packageID, productID int64) error
	RemovePackageProduct(ctx context.Context, packageID, productID int64) error
	ClearPackageProducts(ctx context.Context, packageID int64) error

	// RecomputePackagePrice rewrites total_price as the sum of current
	// member product prices in a single statement and returns the new value.
	RecomputePackagePrice(ctx context.Context, packageID int64) (int64, error)

	// PackagesContaining lists ids of packages that include the product.
	PackagesContaining(ctx context.Context, productID int64) ([]int64, error)
}

// InventoryStore defines audit and alert data access for the event
// processor and read side.
type InventoryStore interface {
	// RecordInventoryEvent inserts the audit record unless an identical
	// (product, previous_stock, new_stock) record exists inside the dedup
	// window, then evaluates the low-stock alert rule, all in one
	// transaction. A new alert is created only when new stock is at or
	// below threshold and no pending/acknowledged alert exists for the
	// product.
	RecordInventoryEvent(ctx context.Context, rec model.InventoryTransaction, window time.Duration, threshold int64) (created, alerted bool, err error)

	// RecordPriceChange inserts the price audit record unless an identical
	// (product, old_price, new_price) record exists inside the dedup window.
	RecordPriceChange(ctx context.Context, rec model.PriceChangeLog, window time.Duration) (bool, error)

	GetAlert(ctx context.Context, id int64) (*model.LowStockAlert, error)

	// AcknowledgeAlert moves a pending alert to acknowledged. Any other
	// current status yields ErrAlertConflict.
	AcknowledgeAlert(ctx context.Context, id, userID int64, at time.Time) error

	// ResolveAlert moves a pending or acknowledged alert to resolved.
	// Resolving twice yields ErrAlertConflict.
	ResolveAlert(ctx context.Context, id int64, at time.Time) error

	ListTransactions(ctx context.Context, f model.TransactionFilter) ([]model.InventoryTransaction, error)
	ListAlerts(ctx context.Context, f model.AlertFilter) ([]model.LowStockAlert, error)
	ListPriceChanges(ctx context.Context, f model.PriceChangeFilter) ([]model.PriceChangeLog, error)
	DashboardStats(ctx context.Context, providerID, threshold int64) (*model.DashboardStats, error)
}

// Store is the combined data-access surface backed by one relational
// database.
type Store interface {
	ProductStore
	PackageStore
	InventoryStore
	PingContext(ctx context.Context) error
	Close() error
}
