package inventory

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/storefront/internal/platform/httpx"
	"github.com/odyssey-erp/storefront/internal/pricing"
	"github.com/odyssey-erp/storefront/internal/shared"
)

// Handler wires HTTP endpoints for the inventory module.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	formatter *pricing.Formatter
}

// NewHandler constructs inventory handler. formatter may be nil.
func NewHandler(logger *slog.Logger, service *Service, formatter *pricing.Formatter) *Handler {
	return &Handler{logger: logger, service: service, formatter: formatter}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/entries", h.listEntries)
	r.Patch("/entries/{id}", h.updateEntry)
	r.Post("/entries/{id}/availability", h.setAvailability)
	r.Delete("/entries/{id}", h.removeEntry)
	r.Post("/batches", h.submitBatch)
	r.Post("/batches/check", h.checkBatch)
}

type batchItemRequest struct {
	CatalogItemID     int64           `json:"catalog_item_id" validate:"required,gt=0"`
	Price             decimal.Decimal `json:"price"`
	MRP               decimal.Decimal `json:"mrp"`
	StockQuantity     decimal.Decimal `json:"stock_quantity"`
	DeliverySupported bool            `json:"delivery_supported"`
}

type batchRequest struct {
	Items []batchItemRequest `json:"items" validate:"required,min=1,dive"`
}

func (req batchRequest) selection() (Selection, Drafts) {
	sel := make(Selection, len(req.Items))
	drafts := make(Drafts, len(req.Items))
	for _, item := range req.Items {
		sel[item.CatalogItemID] = struct{}{}
		drafts[item.CatalogItemID] = DraftConfig{
			Price:             item.Price,
			MRP:               item.MRP,
			StockQuantity:     item.StockQuantity,
			DeliverySupported: item.DeliverySupported,
		}
	}
	return sel, drafts
}

type availabilityRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

type entryResponse struct {
	EntryView
	DisplayPrice string `json:"display_price"`
	DisplayMRP   string `json:"display_mrp"`
}

type checkResponse struct {
	Submittable bool                `json:"submittable"`
	Fields      []shared.FieldError `json:"fields"`
}

func (h *Handler) listEntries(w http.ResponseWriter, r *http.Request) {
	sess, ok := httpx.RequireVendor(w, r)
	if !ok {
		return
	}
	views, err := h.service.ListEntries(r.Context(), sess.VendorID)
	if err != nil {
		h.logger.Error("inventory list entries", slog.Any("error", err), slog.Int64("vendor_id", sess.VendorID))
		httpx.RespondError(w, err)
		return
	}
	page := shared.PaginationFromQuery(r.URL.Query(), len(views))
	start, end := page.Bounds()
	out := make([]entryResponse, 0, end-start)
	for _, v := range views[start:end] {
		out = append(out, entryResponse{
			EntryView:    v,
			DisplayPrice: h.formatter.Format(v.Price),
			DisplayMRP:   h.formatter.Format(v.MRP),
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"entries": out, "pagination": page})
}

func (h *Handler) updateEntry(w http.ResponseWriter, r *http.Request) {
	sess, ok := httpx.RequireVendor(w, r)
	if !ok {
		return
	}
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	var patch Patch
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		httpx.RespondError(w, err)
		return
	}
	entry, err := h.service.UpdateInventoryEntry(r.Context(), sess.VendorID, id, patch)
	if err != nil {
		h.logger.Warn("inventory update entry", slog.Any("error", err), slog.Int64("entry_id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) setAvailability(w http.ResponseWriter, r *http.Request) {
	sess, ok := httpx.RequireVendor(w, r)
	if !ok {
		return
	}
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	var req availabilityRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	entry, err := h.service.SetAvailability(r.Context(), sess.VendorID, id, *req.IsActive)
	if err != nil {
		h.logger.Warn("inventory set availability", slog.Any("error", err), slog.Int64("entry_id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) removeEntry(w http.ResponseWriter, r *http.Request) {
	sess, ok := httpx.RequireVendor(w, r)
	if !ok {
		return
	}
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.RemoveEntry(r.Context(), sess.VendorID, id); err != nil {
		h.logger.Warn("inventory remove entry", slog.Any("error", err), slog.Int64("entry_id", id))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) submitBatch(w http.ResponseWriter, r *http.Request) {
	sess, ok := httpx.RequireVendor(w, r)
	if !ok {
		return
	}
	var req batchRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	sel, drafts := req.selection()
	result, err := h.service.SubmitBatchOnce(r.Context(), r.Header.Get("Idempotency-Key"), sess.VendorID, sel, drafts)
	if err != nil {
		h.logger.Warn("inventory submit batch", slog.Any("error", err), slog.Int64("vendor_id", sess.VendorID))
		httpx.RespondError(w, err)
		return
	}
	status := http.StatusCreated
	if len(result.Created) == 0 {
		status = http.StatusOK
	}
	httpx.JSON(w, status, result)
}

func (h *Handler) checkBatch(w http.ResponseWriter, r *http.Request) {
	if _, ok := httpx.RequireVendor(w, r); !ok {
		return
	}
	var req batchRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	sel, drafts := req.selection()
	verr := ValidateBatch(sel, drafts)
	resp := checkResponse{Submittable: !verr.HasErrors(), Fields: verr.Fields}
	if resp.Fields == nil {
		resp.Fields = []shared.FieldError{}
	}
	httpx.JSON(w, http.StatusOK, resp)
}
