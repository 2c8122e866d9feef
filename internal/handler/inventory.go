package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"laklak-api/internal/middleware"
	"laklak-api/internal/model"
	"laklak-api/internal/service"
	"laklak-api/pkg/apierror"
	"laklak-api/pkg/response"
)

// InventoryHandler handles stock/price mutation and reporting HTTP requests.
type InventoryHandler struct {
	catalog *service.CatalogService
	alerts  *service.AlertService
	reports *service.ReportService
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(catalog *service.CatalogService, alerts *service.AlertService, reports *service.ReportService) *InventoryHandler {
	return &InventoryHandler{
		catalog: catalog,
		alerts:  alerts,
		reports: reports,
	}
}

// UpdateStock handles POST /api/v1/inventory/stock
func (h *InventoryHandler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	var in service.StockUpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON"))
		return
	}

	actor := middleware.GetActor(r.Context())
	rec, err := h.catalog.UpdateStock(r.Context(), actor, in)
	if err != nil {
		response.Error(w, err)
		return
	}
	h.reports.InvalidateDashboard(r.Context(), actor.UserID)
	response.Created(w, rec)
}

// BulkPrice handles POST /api/v1/inventory/bulk-price
func (h *InventoryHandler) BulkPrice(w http.ResponseWriter, r *http.Request) {
	var in service.BulkPriceInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON"))
		return
	}

	res, err := h.catalog.BulkPriceChange(r.Context(), middleware.GetActor(r.Context()), in)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, res)
}

// UpdatePrice handles POST /api/v1/inventory/price
func (h *InventoryHandler) UpdatePrice(w http.ResponseWriter, r *http.Request) {
	var in service.PriceUpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON"))
		return
	}

	rec, err := h.catalog.UpdatePrice(r.Context(), middleware.GetActor(r.Context()), in)
	if err != nil {
		response.Error(w, err)
		return
	}
	if rec == nil {
		response.OK(w, map[string]string{"status": "unchanged"})
		return
	}
	response.Created(w, rec)
}

// ListTransactions handles GET /api/v1/inventory/transactions
func (h *InventoryHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := model.TransactionFilter{
		ProductID: queryID(q.Get("product_id")),
		Type:      q.Get("type"),
		Limit:     int(queryID(q.Get("limit"))),
	}
	if since := q.Get("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			response.Error(w, apierror.BadRequest("since must be RFC3339"))
			return
		}
		f.Since = t
	}

	records, err := h.reports.ListTransactions(r.Context(), middleware.GetActor(r.Context()), f)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, records)
}

// ListAlerts handles GET /api/v1/inventory/alerts
func (h *InventoryHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := model.AlertFilter{
		ProductID: queryID(q.Get("product_id")),
		Status:    q.Get("status"),
		Limit:     int(queryID(q.Get("limit"))),
	}

	alerts, err := h.reports.ListAlerts(r.Context(), middleware.GetActor(r.Context()), f)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, alerts)
}

// ListPriceChanges handles GET /api/v1/inventory/price-changes
func (h *InventoryHandler) ListPriceChanges(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := model.PriceChangeFilter{
		ProductID: queryID(q.Get("product_id")),
		Limit:     int(queryID(q.Get("limit"))),
	}

	logs, err := h.reports.ListPriceChanges(r.Context(), middleware.GetActor(r.Context()), f)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, logs)
}

// AcknowledgeAlert handles POST /api/v1/inventory/alerts/{id}/acknowledge
func (h *InventoryHandler) AcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, err)
		return
	}

	alert, err := h.alerts.Acknowledge(r.Context(), middleware.GetActor(r.Context()), id)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, alert)
}

// ResolveAlert handles POST /api/v1/inventory/alerts/{id}/resolve
func (h *InventoryHandler) ResolveAlert(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, err)
		return
	}

	alert, err := h.alerts.Resolve(r.Context(), middleware.GetActor(r.Context()), id)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, alert)
}

// Dashboard handles GET /api/v1/inventory/dashboard
func (h *InventoryHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reports.Dashboard(r.Context(), middleware.GetActor(r.Context()))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, stats)
}

// queryID parses an optional numeric query parameter, 0 when absent.
func queryID(s string) int64 {
	id, _ := strconv.ParseInt(s, 10, 64)
	return id
}
