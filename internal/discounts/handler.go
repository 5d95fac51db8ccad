package discounts

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/storefront/internal/platform/httpx"
	"github.com/odyssey-erp/storefront/internal/pricing"
	"github.com/odyssey-erp/storefront/internal/shared"
)

// Handler exposes discount management endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	formatter *pricing.Formatter
}

// NewHandler constructs discount handler.
func NewHandler(logger *slog.Logger, service *Service, formatter *pricing.Formatter) *Handler {
	return &Handler{logger: logger, service: service, formatter: formatter}
}

// MountRoutes registers discount routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

type createRequest struct {
	VendorInventoryEntryID int64           `json:"vendor_inventory_entry_id" validate:"required,gt=0"`
	DiscountType           string          `json:"discount_type" validate:"required,oneof=percentage flat"`
	DiscountValue          decimal.Decimal `json:"discount_value"`
	CardTitle              string          `json:"card_title" validate:"required,max=80"`
	Description            string          `json:"description" validate:"max=500"`
	Terms                  string          `json:"terms" validate:"max=2000"`
	StartsAt               *time.Time      `json:"starts_at"`
	EndsAt                 *time.Time      `json:"ends_at"`
	IsActive               *bool           `json:"is_active"`
}

func (req createRequest) spec() Spec {
	spec := Spec{
		VendorInventoryEntryID: req.VendorInventoryEntryID,
		DiscountType:           pricing.DiscountType(req.DiscountType),
		DiscountValue:          req.DiscountValue,
		CardTitle:              req.CardTitle,
		Description:            req.Description,
		Terms:                  req.Terms,
		EndsAt:                 req.EndsAt,
		IsActive:               true,
	}
	if req.StartsAt != nil {
		spec.StartsAt = *req.StartsAt
	}
	if req.IsActive != nil {
		spec.IsActive = *req.IsActive
	}
	return spec
}

type patchRequest struct {
	DiscountType  *string          `json:"discount_type" validate:"omitempty,oneof=percentage flat"`
	DiscountValue *decimal.Decimal `json:"discount_value"`
	CardTitle     *string          `json:"card_title" validate:"omitempty,min=1,max=80"`
	Description   *string          `json:"description" validate:"omitempty,max=500"`
	Terms         *string          `json:"terms" validate:"omitempty,max=2000"`
	StartsAt      *time.Time       `json:"starts_at"`
	EndsAt        *time.Time       `json:"ends_at"`
	ClearEndsAt   bool             `json:"clear_ends_at"`
	IsActive      *bool            `json:"is_active"`
}

func (req patchRequest) patch() Patch {
	p := Patch{
		DiscountValue: req.DiscountValue,
		CardTitle:     req.CardTitle,
		Description:   req.Description,
		Terms:         req.Terms,
		StartsAt:      req.StartsAt,
		EndsAt:        req.EndsAt,
		ClearEndsAt:   req.ClearEndsAt,
		IsActive:      req.IsActive,
	}
	if req.DiscountType != nil {
		typ := pricing.DiscountType(*req.DiscountType)
		p.DiscountType = &typ
	}
	return p
}

type viewResponse struct {
	View
	DisplayBasePrice       string `json:"display_base_price"`
	DisplayDiscountedPrice string `json:"display_discounted_price"`
}

func (h *Handler) respondView(v View) viewResponse {
	return viewResponse{
		View:                   v,
		DisplayBasePrice:       h.formatter.Format(v.BasePrice),
		DisplayDiscountedPrice: h.formatter.Format(v.DiscountedPrice),
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	sess, ok := httpx.RequireVendor(w, r)
	if !ok {
		return
	}
	var filter Filter
	if raw := r.URL.Query().Get("is_active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			httpx.RespondError(w, shared.NewValidationError("is_active", "must be true or false"))
			return
		}
		filter.IsActive = &active
	}
	views, err := h.service.ListDiscounts(r.Context(), sess.VendorID, filter)
	if err != nil {
		h.logger.Error("discounts list", slog.Any("error", err), slog.Int64("vendor_id", sess.VendorID))
		httpx.RespondError(w, err)
		return
	}
	out := make([]viewResponse, 0, len(views))
	for _, v := range views {
		out = append(out, h.respondView(v))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"discounts": out})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	sess, ok := httpx.RequireVendor(w, r)
	if !ok {
		return
	}
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	v, err := h.service.GetDiscount(r.Context(), sess.VendorID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.respondView(v))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	sess, ok := httpx.RequireVendor(w, r)
	if !ok {
		return
	}
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	d, err := h.service.CreateDiscount(r.Context(), sess.VendorID, req.spec())
	if err != nil {
		h.logger.Warn("discounts create", slog.Any("error", err), slog.Int64("vendor_id", sess.VendorID))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, d)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	sess, ok := httpx.RequireVendor(w, r)
	if !ok {
		return
	}
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	var req patchRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	d, err := h.service.UpdateDiscount(r.Context(), sess.VendorID, id, req.patch())
	if err != nil {
		h.logger.Warn("discounts update", slog.Any("error", err), slog.Int64("discount_id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	sess, ok := httpx.RequireVendor(w, r)
	if !ok {
		return
	}
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteDiscount(r.Context(), sess.VendorID, id); err != nil {
		h.logger.Error("discounts delete", slog.Any("error", err), slog.Int64("discount_id", id))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
