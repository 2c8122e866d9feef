package service

import (
	"context"
	"errors"
	"fmt"

	"laklak-api/internal/model"
	"laklak-api/internal/repository"
	"laklak-api/pkg/apierror"
)

// PackageService owns package composition. Every membership mutation ends
// with a total-price recompute so the derived price never goes stale.
type PackageService struct {
	store   repository.Store
	pricing *PricingEngine
}

// NewPackageService creates the package composition service.
func NewPackageService(store repository.Store, pricing *PricingEngine) *PackageService {
	return &PackageService{store: store, pricing: pricing}
}

// CreatePackageInput carries the fields for a new package.
type CreatePackageInput struct {
	Name        string  `json:"name"`
	Summary     string  `json:"summary"`
	Description string  `json:"description"`
	TargetGroup string  `json:"target_group"`
	ProductIDs  []int64 `json:"product_ids"`
}

// CreatePackage creates a package, attaches the initial members and
// computes the total price from them.
func (s *PackageService) CreatePackage(ctx context.Context, actor model.Actor, in CreatePackageInput) (*model.Package, error) {
	if actor.Role != model.RolePackageCombinator && !actor.Supervisor() {
		return nil, apierror.Forbidden("only package combinators can create packages")
	}
	if in.Name == "" {
		return nil, apierror.ValidationError("empty name")
	}

	pkg := &model.Package{
		Name:        in.Name,
		Summary:     in.Summary,
		Description: in.Description,
		TargetGroup: in.TargetGroup,
		IsActive:    true,
	}
	if err := s.store.CreatePackage(ctx, pkg); err != nil {
		return nil, fmt.Errorf("create package: %w", err)
	}

	for _, productID := range in.ProductIDs {
		if err := s.attach(ctx, pkg.ID, productID); err != nil {
			return nil, err
		}
	}
	if err := s.pricing.MembershipChanged(ctx, pkg.ID); err != nil {
		return nil, err
	}

	return s.store.GetPackage(ctx, pkg.ID)
}

// GetPackage returns a package with its member product ids.
func (s *PackageService) GetPackage(ctx context.Context, id int64) (*model.Package, error) {
	pkg, err := s.store.GetPackage(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apierror.NotFound("no such package")
		}
		return nil, fmt.Errorf("get package: %w", err)
	}
	return pkg, nil
}

// AddProduct adds a product to a package and recomputes the total price.
// Adding a member twice is a no-op.
func (s *PackageService) AddProduct(ctx context.Context, actor model.Actor, packageID, productID int64) (*model.Package, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}
	if _, err := s.store.GetPackage(ctx, packageID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apierror.NotFound("no such package")
		}
		return nil, fmt.Errorf("get package: %w", err)
	}
	if err := s.attach(ctx, packageID, productID); err != nil {
		return nil, err
	}
	if err := s.pricing.MembershipChanged(ctx, packageID); err != nil {
		return nil, err
	}
	return s.store.GetPackage(ctx, packageID)
}

// RemoveProduct removes a product from a package and recomputes the total
// price. Removing a non-member is a no-op.
func (s *PackageService) RemoveProduct(ctx context.Context, actor model.Actor, packageID, productID int64) (*model.Package, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}
	if _, err := s.store.GetPackage(ctx, packageID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apierror.NotFound("no such package")
		}
		return nil, fmt.Errorf("get package: %w", err)
	}
	if err := s.store.RemovePackageProduct(ctx, packageID, productID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("remove package product: %w", err)
	}
	if err := s.pricing.MembershipChanged(ctx, packageID); err != nil {
		return nil, err
	}
	return s.store.GetPackage(ctx, packageID)
}

// ClearProducts empties a package, dropping its total price to zero.
func (s *PackageService) ClearProducts(ctx context.Context, actor model.Actor, packageID int64) (*model.Package, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}
	if _, err := s.store.GetPackage(ctx, packageID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apierror.NotFound("no such package")
		}
		return nil, fmt.Errorf("get package: %w", err)
	}
	if err := s.store.ClearPackageProducts(ctx, packageID); err != nil {
		return nil, fmt.Errorf("clear package products: %w", err)
	}
	if err := s.pricing.MembershipChanged(ctx, packageID); err != nil {
		return nil, err
	}
	return s.store.GetPackage(ctx, packageID)
}

func (s *PackageService) authorize(actor model.Actor) error {
	if actor.Role != model.RolePackageCombinator && !actor.Supervisor() {
		return apierror.Forbidden("only package combinators can modify packages")
	}
	return nil
}

// attach validates that the product exists (and is not deleted) before
// linking it to the package.
func (s *PackageService) attach(ctx context.Context, packageID, productID int64) error {
	if _, err := s.store.GetProduct(ctx, productID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apierror.NotFound(fmt.Sprintf("no such product: %d", productID))
		}
		return fmt.Errorf("get product: %w", err)
	}
	if err := s.store.AddPackageProduct(ctx, packageID, productID); err != nil {
		return fmt.Errorf("add package product: %w", err)
	}
	return nil
}
