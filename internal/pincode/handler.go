package pincode

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/storefront/internal/platform/httpx"
)

// Handler exposes the vendor pincode.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs pincode handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers pincode routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.get)
	r.Put("/", h.put)
	r.Delete("/", h.delete)
}

type setRequest struct {
	Code string `json:"code" validate:"required"`
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	sess, ok := httpx.RequireVendor(w, r)
	if !ok {
		return
	}
	p, err := h.service.Get(r.Context(), sess.VendorID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) put(w http.ResponseWriter, r *http.Request) {
	sess, ok := httpx.RequireVendor(w, r)
	if !ok {
		return
	}
	var req setRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.Set(r.Context(), sess, req.Code)
	if err != nil {
		h.logger.Error("pincode set", slog.Any("error", err), slog.Int64("vendor_id", sess.VendorID))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	sess, ok := httpx.RequireVendor(w, r)
	if !ok {
		return
	}
	if err := h.service.Clear(r.Context(), sess); err != nil {
		h.logger.Error("pincode clear", slog.Any("error", err), slog.Int64("vendor_id", sess.VendorID))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
