package service

import (
	"context"
	"fmt"

	"laklak-api/internal/repository"
)

// PricingEngine keeps Package.total_price equal to the sum of member
// product prices. Recomputation is synchronous: the mutation that changed
// membership or a member price calls in before returning, so no read
// observes a stale total beyond one recomputation.
type PricingEngine struct {
	store repository.PackageStore
}

// NewPricingEngine creates a pricing engine over the package store.
func NewPricingEngine(store repository.PackageStore) *PricingEngine {
	return &PricingEngine{store: store}
}

// MembershipChanged recomputes the total for a single package after an
// add/remove/clear of its members.
func (e *PricingEngine) MembershipChanged(ctx context.Context, packageID int64) error {
	if _, err := e.store.RecomputePackagePrice(ctx, packageID); err != nil {
		return fmt.Errorf("recompute package %d: %w", packageID, err)
	}
	return nil
}

// ProductPriceChanged recomputes every package containing the product.
// Fan-in per product is expected to be small, so the per-package loop is
// acceptable.
func (e *PricingEngine) ProductPriceChanged(ctx context.Context, productID int64) error {
	packageIDs, err := e.store.PackagesContaining(ctx, productID)
	if err != nil {
		return fmt.Errorf("find packages for product %d: %w", productID, err)
	}
	for _, id := range packageIDs {
		if _, err := e.store.RecomputePackagePrice(ctx, id); err != nil {
			return fmt.Errorf("recompute package %d: %w", id, err)
		}
	}
	return nil
}
