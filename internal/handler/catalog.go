package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"laklak-api/internal/middleware"
	"laklak-api/internal/service"
	"laklak-api/pkg/apierror"
	"laklak-api/pkg/response"

	"github.com/go-chi/chi/v5"
)

// CatalogHandler handles product catalog HTTP requests.
type CatalogHandler struct {
	catalog *service.CatalogService
	reports *service.ReportService
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(catalog *service.CatalogService, reports *service.ReportService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, reports: reports}
}

// CreateProduct handles POST /api/v1/products
func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var in service.CreateProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON"))
		return
	}

	product, err := h.catalog.CreateProduct(r.Context(), middleware.GetActor(r.Context()), in)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Created(w, product)
}

// ListProducts handles GET /api/v1/products
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	providerID, _ := strconv.ParseInt(r.URL.Query().Get("provider_id"), 10, 64)

	products, err := h.catalog.ListProducts(r.Context(), middleware.GetActor(r.Context()), providerID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, products)
}

// GetProduct handles GET /api/v1/products/{id}
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, err)
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), middleware.GetActor(r.Context()), id)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, product)
}

// UpdateProduct handles PATCH /api/v1/products/{id}
func (h *CatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, err)
		return
	}

	var fields map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON"))
		return
	}
	if len(fields) == 0 {
		response.Error(w, apierror.BadRequest("no fields to change"))
		return
	}

	product, err := h.catalog.UpdateProduct(r.Context(), middleware.GetActor(r.Context()), id, fields)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, product)
}

// DeleteProduct handles DELETE /api/v1/products/{id}
func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, err)
		return
	}

	if err := h.catalog.DeleteProduct(r.Context(), middleware.GetActor(r.Context()), id); err != nil {
		response.Error(w, err)
		return
	}
	response.NoContent(w)
}

// BulkStockRequest is the body of a bulk stock change.
type BulkStockRequest struct {
	Delta      int64   `json:"delta"`
	ProductIDs []int64 `json:"product_ids,omitempty"`
}

// BulkStock handles POST /api/v1/products/bulk-stock
func (h *CatalogHandler) BulkStock(w http.ResponseWriter, r *http.Request) {
	var req BulkStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON"))
		return
	}

	actor := middleware.GetActor(r.Context())
	changes, err := h.catalog.BulkStockChange(r.Context(), actor, req.Delta, req.ProductIDs)
	if err != nil {
		response.Error(w, err)
		return
	}
	h.reports.InvalidateDashboard(r.Context(), actor.UserID)

	changed := make([]map[string]int64, 0, len(changes))
	for _, c := range changes {
		changed = append(changed, map[string]int64{
			"product_id": c.ProductID,
			"old_stock":  c.OldStock,
			"new_stock":  c.NewStock,
		})
	}
	response.OK(w, map[string]interface{}{
		"updated": len(changed),
		"changes": changed,
	})
}

// pathID parses a numeric chi URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apierror.BadRequest(name + " must be a positive integer")
	}
	return id, nil
}
