package handler

import (
	"encoding/json"
	"net/http"

	"laklak-api/internal/middleware"
	"laklak-api/internal/service"
	"laklak-api/pkg/apierror"
	"laklak-api/pkg/response"
)

// PackageHandler handles package composition HTTP requests.
type PackageHandler struct {
	packages *service.PackageService
}

// NewPackageHandler creates a new package handler.
func NewPackageHandler(packages *service.PackageService) *PackageHandler {
	return &PackageHandler{packages: packages}
}

// CreatePackage handles POST /api/v1/packages
func (h *PackageHandler) CreatePackage(w http.ResponseWriter, r *http.Request) {
	var in service.CreatePackageInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON"))
		return
	}

	pkg, err := h.packages.CreatePackage(r.Context(), middleware.GetActor(r.Context()), in)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Created(w, pkg)
}

// GetPackage handles GET /api/v1/packages/{id}
func (h *PackageHandler) GetPackage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, err)
		return
	}

	pkg, err := h.packages.GetPackage(r.Context(), id)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, pkg)
}

// AddProductRequest is the body for adding a member product.
type AddProductRequest struct {
	ProductID int64 `json:"product_id"`
}

// AddProduct handles POST /api/v1/packages/{id}/products
func (h *PackageHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, err)
		return
	}

	var req AddProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON"))
		return
	}
	if req.ProductID <= 0 {
		response.Error(w, apierror.BadRequest("product_id must be a positive integer"))
		return
	}

	pkg, err := h.packages.AddProduct(r.Context(), middleware.GetActor(r.Context()), id, req.ProductID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, pkg)
}

// RemoveProduct handles DELETE /api/v1/packages/{id}/products/{productID}
func (h *PackageHandler) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, err)
		return
	}
	productID, err := pathID(r, "productID")
	if err != nil {
		response.Error(w, err)
		return
	}

	pkg, err := h.packages.RemoveProduct(r.Context(), middleware.GetActor(r.Context()), id, productID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, pkg)
}

// ClearProducts handles DELETE /api/v1/packages/{id}/products
func (h *PackageHandler) ClearProducts(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, err)
		return
	}

	pkg, err := h.packages.ClearProducts(r.Context(), middleware.GetActor(r.Context()), id)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, pkg)
}
