package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"time"

	"laklak-api/internal/bus"
	"laklak-api/internal/config"
	"laklak-api/internal/model"
	"laklak-api/internal/repository"
	"laklak-api/pkg/apierror"
)

// CatalogService owns product mutations. Every state change commits to the
// database first and then publishes its event; publish failures are logged
// and deliberately not propagated, so event delivery never fails a mutation.
type CatalogService struct {
	store     repository.Store
	publisher bus.Publisher
	pricing   *PricingEngine
	topics    config.KafkaConfig
	threshold int64
}

// NewCatalogService creates the catalog mutation service.
func NewCatalogService(store repository.Store, publisher bus.Publisher, pricing *PricingEngine, topics config.KafkaConfig, lowStockThreshold int64) *CatalogService {
	return &CatalogService{
		store:     store,
		publisher: publisher,
		pricing:   pricing,
		topics:    topics,
		threshold: lowStockThreshold,
	}
}

// CreateProductInput carries the fields for a new product.
type CreateProductInput struct {
	Type  string `json:"type"`
	Name  string `json:"name"`
	Info  string `json:"description"`
	Price int64  `json:"price"`
	Stock int64  `json:"stock"`
}

// CreateProduct registers a new product for the supplier and publishes a
// product-created event.
func (s *CatalogService) CreateProduct(ctx context.Context, actor model.Actor, in CreateProductInput) (*model.Product, error) {
	if actor.Role != model.RoleSupplier {
		return nil, apierror.Forbidden("only suppliers can register products")
	}
	if !model.ValidProductType(in.Type) {
		return nil, apierror.ValidationError("invalid type")
	}
	if in.Name == "" {
		return nil, apierror.ValidationError("empty name")
	}
	if in.Price < 0 {
		return nil, apierror.ValidationError("negative price")
	}
	if in.Stock < 0 {
		return nil, apierror.ValidationError("negative stock")
	}

	p := &model.Product{
		ProviderID: actor.UserID,
		Type:       in.Type,
		Name:       in.Name,
		Info:       in.Info,
		Price:      in.Price,
		Stock:      in.Stock,
		IsActive:   true,
	}
	if err := s.store.CreateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.publishLifecycle(ctx, s.topics.TopicProductCreated, p, actor.UserIDRef())
	return p, nil
}

// GetProduct returns one product within the actor's scope.
func (s *CatalogService) GetProduct(ctx context.Context, actor model.Actor, id int64) (*model.Product, error) {
	return s.ownedProduct(ctx, actor, id)
}

// ListProducts returns the provider's catalog. Supervisors may pass an
// explicit providerID; other roles always see their own.
func (s *CatalogService) ListProducts(ctx context.Context, actor model.Actor, providerID int64) ([]model.Product, error) {
	if !actor.Supervisor() || providerID == 0 {
		providerID = actor.UserID
	}
	products, err := s.store.ListProductsByProvider(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// UpdateProduct applies a field map to a product. Each field validates
// independently; an unknown field name rejects the whole update.
func (s *CatalogService) UpdateProduct(ctx context.Context, actor model.Actor, id int64, fields map[string]interface{}) (*model.Product, error) {
	p, err := s.ownedProduct(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	oldPrice := p.Price
	oldStock := p.Stock

	for field, value := range fields {
		switch field {
		case "type":
			t, ok := value.(string)
			if !ok || !model.ValidProductType(t) {
				return nil, apierror.ValidationError("invalid type")
			}
			p.Type = t
		case "name":
			n, ok := value.(string)
			if !ok || n == "" {
				return nil, apierror.ValidationError("empty name")
			}
			p.Name = n
		case "info", "description":
			info, ok := value.(string)
			if !ok {
				return nil, apierror.ValidationError("invalid description")
			}
			p.Info = info
		case "price":
			price, err := intField(value)
			if err != nil {
				return nil, apierror.ValidationError("non-integer price")
			}
			if price < 0 {
				return nil, apierror.ValidationError("negative price")
			}
			p.Price = price
		case "stock":
			stock, err := intField(value)
			if err != nil {
				return nil, apierror.ValidationError("non-integer stock")
			}
			if stock < 0 {
				return nil, apierror.ValidationError("negative stock")
			}
			p.Stock = stock
		case "active":
			active, err := boolField(value)
			if err != nil {
				return nil, apierror.ValidationError("invalid active state")
			}
			p.IsActive = active
		default:
			return nil, apierror.ValidationError("unsupported field for change: " + field)
		}
	}

	if err := s.store.UpdateProduct(ctx, p); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apierror.NotFound("no such product")
		}
		return nil, fmt.Errorf("update product: %w", err)
	}

	if oldPrice != p.Price {
		// Package totals must be correct before the caller sees the response.
		if err := s.pricing.ProductPriceChanged(ctx, p.ID); err != nil {
			return nil, err
		}
		s.publishPriceChange(ctx, p.ID, oldPrice, p.Price, actor.UserIDRef())
	}
	if oldStock != p.Stock {
		s.publishInventoryUpdate(ctx, p.ID, oldStock, p.Stock, actor.UserIDRef())
	}
	return p, nil
}

// DeleteProduct soft-deletes a product and publishes a product-deleted
// event with a final snapshot. The row is never removed.
func (s *CatalogService) DeleteProduct(ctx context.Context, actor model.Actor, id int64) error {
	p, err := s.ownedProduct(ctx, actor, id)
	if err != nil {
		return err
	}

	if err := s.store.SoftDeleteProduct(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apierror.NotFound("no such product")
		}
		return fmt.Errorf("delete product: %w", err)
	}

	s.publishLifecycle(ctx, s.topics.TopicProductDeleted, p, actor.UserIDRef())
	return nil
}

// BulkStockChange applies a signed delta to the supplier's products,
// optionally restricted to ids. Stocks never go below zero: insufficient
// rows clamp to zero instead of failing. One inventory-update event is
// published per product whose stock actually changed.
func (s *CatalogService) BulkStockChange(ctx context.Context, actor model.Actor, delta int64, ids []int64) ([]model.StockChange, error) {
	if actor.Role != model.RoleSupplier {
		return nil, apierror.Forbidden("only suppliers can change stock in bulk")
	}
	if delta == 0 {
		return nil, apierror.ValidationError("delta must be non-zero")
	}

	changes, err := s.store.BulkAdjustStock(ctx, actor.UserID, ids, delta)
	if err != nil {
		return nil, fmt.Errorf("bulk stock change: %w", err)
	}

	for _, c := range changes {
		s.publishInventoryUpdate(ctx, c.ProductID, c.OldStock, c.NewStock, actor.UserIDRef())
	}
	return changes, nil
}

// StockUpdateInput carries a direct stock mutation.
type StockUpdateInput struct {
	ProductID int64  `json:"product_id"`
	Quantity  int64  `json:"quantity"`
	Type      string `json:"transaction_type"`
	Notes     string `json:"notes"`
}

// UpdateStock performs a direct stock mutation. The audit record is written
// in the same database transaction as the stock change; the event published
// afterwards lets the processor converge (it will find the fresh audit
// record inside its dedup window and skip re-inserting).
func (s *CatalogService) UpdateStock(ctx context.Context, actor model.Actor, in StockUpdateInput) (*model.InventoryTransaction, error) {
	switch in.Type {
	case model.TransactionAdd, model.TransactionRemove, model.TransactionAdjust:
	default:
		return nil, apierror.ValidationError("invalid transaction type")
	}
	if in.Quantity < 0 {
		return nil, apierror.ValidationError("negative quantity")
	}
	if _, err := s.ownedProduct(ctx, actor, in.ProductID); err != nil {
		return nil, err
	}

	rec, err := s.store.ApplyStockChange(ctx, in.ProductID, in.Type, in.Quantity, in.Notes, actor.UserIDRef())
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, apierror.NotFound("no such product")
		case errors.Is(err, repository.ErrInsufficientStock):
			return nil, apierror.BadRequest("not enough stock available")
		}
		return nil, fmt.Errorf("update stock: %w", err)
	}

	s.publishInventoryUpdate(ctx, rec.ProductID, rec.PreviousStock, rec.NewStock, actor.UserIDRef())
	return rec, nil
}

// PriceUpdateInput carries a direct price mutation.
type PriceUpdateInput struct {
	ProductID int64  `json:"product_id"`
	NewPrice  int64  `json:"new_price"`
	Notes     string `json:"notes"`
}

// UpdatePrice sets a new price, logging the change in the same transaction.
// Setting the current price again is a no-op, not an error.
func (s *CatalogService) UpdatePrice(ctx context.Context, actor model.Actor, in PriceUpdateInput) (*model.PriceChangeLog, error) {
	if in.NewPrice < 0 {
		return nil, apierror.ValidationError("negative price")
	}
	if _, err := s.ownedProduct(ctx, actor, in.ProductID); err != nil {
		return nil, err
	}

	rec, changed, err := s.store.ApplyPriceChange(ctx, in.ProductID, in.NewPrice, in.Notes, actor.UserIDRef())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apierror.NotFound("no such product")
		}
		return nil, fmt.Errorf("update price: %w", err)
	}
	if !changed {
		return nil, nil
	}

	if err := s.pricing.ProductPriceChanged(ctx, in.ProductID); err != nil {
		return nil, err
	}
	s.publishPriceChange(ctx, rec.ProductID, rec.OldPrice, rec.NewPrice, actor.UserIDRef())
	return rec, nil
}

// BulkPriceInput sets one price across a list of the supplier's products.
type BulkPriceInput struct {
	ProductIDs []int64 `json:"product_ids"`
	NewPrice   int64   `json:"new_price"`
	Notes      string  `json:"notes"`
}

// BulkPriceOutcome reports one product updated by a bulk price change.
type BulkPriceOutcome struct {
	ProductID int64 `json:"product_id"`
	OldPrice  int64 `json:"old_price"`
	NewPrice  int64 `json:"new_price"`
}

// BulkPriceFailure reports one product a bulk price change could not touch.
type BulkPriceFailure struct {
	ProductID int64  `json:"product_id"`
	Reason    string `json:"reason"`
}

// BulkPriceResult splits a bulk price change into outcomes per product.
type BulkPriceResult struct {
	Successful []BulkPriceOutcome `json:"successful"`
	Failed     []BulkPriceFailure `json:"failed"`
}

// BulkPriceChange applies one price to each listed product independently:
// a product that fails is reported in the result and does not abort the
// rest. Products already at the new price count as successful without a
// log entry or event. One price-change event is published per product
// whose price actually moved.
func (s *CatalogService) BulkPriceChange(ctx context.Context, actor model.Actor, in BulkPriceInput) (*BulkPriceResult, error) {
	if actor.Role != model.RoleSupplier {
		return nil, apierror.Forbidden("only suppliers can change prices in bulk")
	}
	if in.NewPrice < 0 {
		return nil, apierror.ValidationError("negative price")
	}
	if len(in.ProductIDs) == 0 {
		return nil, apierror.ValidationError("empty product id list")
	}

	res := &BulkPriceResult{
		Successful: []BulkPriceOutcome{},
		Failed:     []BulkPriceFailure{},
	}
	for _, id := range in.ProductIDs {
		if _, err := s.ownedProduct(ctx, actor, id); err != nil {
			res.Failed = append(res.Failed, BulkPriceFailure{ProductID: id, Reason: failureReason(err)})
			continue
		}

		rec, changed, err := s.store.ApplyPriceChange(ctx, id, in.NewPrice, in.Notes, actor.UserIDRef())
		if err != nil {
			res.Failed = append(res.Failed, BulkPriceFailure{ProductID: id, Reason: failureReason(err)})
			continue
		}
		if !changed {
			res.Successful = append(res.Successful, BulkPriceOutcome{ProductID: id, OldPrice: in.NewPrice, NewPrice: in.NewPrice})
			continue
		}

		if err := s.pricing.ProductPriceChanged(ctx, id); err != nil {
			return nil, err
		}
		s.publishPriceChange(ctx, id, rec.OldPrice, rec.NewPrice, actor.UserIDRef())
		res.Successful = append(res.Successful, BulkPriceOutcome{ProductID: id, OldPrice: rec.OldPrice, NewPrice: rec.NewPrice})
	}
	return res, nil
}

// ownedProduct loads a product and enforces provider ownership. A product
// that exists but belongs to another provider reads as not-found: cross-
// tenant callers learn nothing about foreign catalogs.
func (s *CatalogService) ownedProduct(ctx context.Context, actor model.Actor, id int64) (*model.Product, error) {
	p, err := s.store.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apierror.NotFound("no such product")
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	if !actor.Supervisor() && p.ProviderID != actor.UserID {
		return nil, apierror.NotFound("no such product")
	}
	return p, nil
}

// --- event publication ---

func (s *CatalogService) publishInventoryUpdate(ctx context.Context, productID, oldStock, newStock int64, userID *int64) {
	key := strconv.FormatInt(productID, 10)
	ev := model.InventoryUpdateEvent{
		ProductID: productID,
		OldStock:  oldStock,
		NewStock:  newStock,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, s.topics.TopicInventoryUpdates, key, ev); err != nil {
		log.Printf("[CatalogService] failed to publish inventory update for product %d: %v", productID, err)
	}

	if newStock <= s.threshold {
		alert := model.LowStockAlertEvent{
			ProductID:    productID,
			CurrentStock: newStock,
			Threshold:    s.threshold,
			Timestamp:    time.Now().UTC(),
		}
		if err := s.publisher.Publish(ctx, s.topics.TopicLowStockAlerts, key, alert); err != nil {
			log.Printf("[CatalogService] failed to publish low stock alert for product %d: %v", productID, err)
		}
	}
}

func (s *CatalogService) publishPriceChange(ctx context.Context, productID, oldPrice, newPrice int64, userID *int64) {
	ev := model.PriceChangeEvent{
		ProductID: productID,
		OldPrice:  strconv.FormatInt(oldPrice, 10),
		NewPrice:  strconv.FormatInt(newPrice, 10),
		UserID:    userID,
		Timestamp: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, s.topics.TopicPriceChanges, strconv.FormatInt(productID, 10), ev); err != nil {
		log.Printf("[CatalogService] failed to publish price change for product %d: %v", productID, err)
	}
}

func (s *CatalogService) publishLifecycle(ctx context.Context, topic string, p *model.Product, userID *int64) {
	ev := model.ProductLifecycleEvent{
		ProductID: p.ID,
		ProductData: model.ProductData{
			Name:       p.Name,
			Type:       p.Type,
			Price:      p.Price,
			Stock:      p.Stock,
			ProviderID: p.ProviderID,
		},
		UserID:    userID,
		Timestamp: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, topic, strconv.FormatInt(p.ID, 10), ev); err != nil {
		log.Printf("[CatalogService] failed to publish %s for product %d: %v", topic, p.ID, err)
	}
}

// failureReason extracts the client-facing message from a per-product error.
func failureReason(err error) string {
	var apiErr *apierror.Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

// intField coerces a decoded JSON value into a non-fractional integer.
func intField(value interface{}) (int64, error) {
	switch v := value.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("non-integer value %v", v)
		}
		return int64(v), nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	}
	return 0, fmt.Errorf("unsupported numeric value %T", value)
}

// boolField coerces a decoded JSON value into a bool, accepting the string
// forms "true"/"false" for older clients.
func boolField(value interface{}) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		if v == "true" {
			return true, nil
		}
		if v == "false" {
			return false, nil
		}
	}
	return false, fmt.Errorf("unsupported boolean value %v", value)
}
