package fulfillment

import (
	"bytes"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/storefront/internal/platform/httpx"
	"github.com/odyssey-erp/storefront/internal/shared"
)

// Handler serves packaging plans.
type Handler struct {
	logger  *slog.Logger
	service *Service
	pdf     PDFRenderer
	now     func() time.Time
}

// NewHandler constructs fulfillment handler. pdf may be nil, which disables PDF export.
func NewHandler(logger *slog.Logger, service *Service, pdf PDFRenderer) *Handler {
	return &Handler{logger: logger, service: service, pdf: pdf, now: time.Now}
}

// MountRoutes registers fulfillment routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/packaging", h.packaging)
}

func (h *Handler) parseQuery(r *http.Request) (time.Time, OrderFilter, error) {
	q := r.URL.Query()
	v := &shared.ValidationError{}
	day := h.now()
	if raw := q.Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			v.Add("date", "must be formatted as YYYY-MM-DD")
		}
		day = parsed
	}
	var filter OrderFilter
	switch kind := OrderKind(q.Get("kind")); kind {
	case "", KindOneTime, KindRecurring:
		filter.Kind = kind
	default:
		v.Add("kind", "must be one-time or recurring")
	}
	for _, raw := range q["product_id"] {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			v.Add("product_id", "must be a positive integer")
			continue
		}
		filter.ProductIDs = append(filter.ProductIDs, id)
	}
	return day, filter, v.OrNil()
}

func (h *Handler) packaging(w http.ResponseWriter, r *http.Request) {
	sess, ok := httpx.RequireVendor(w, r)
	if !ok {
		return
	}
	day, filter, err := h.parseQuery(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	format := r.URL.Query().Get("format")
	if format != "" && format != "json" && format != "csv" && format != "pdf" {
		httpx.RespondError(w, shared.NewValidationError("format", "must be json, csv or pdf"))
		return
	}

	build := h.service.PackagingPlan
	if r.URL.Query().Get("fresh") == "true" {
		build = h.service.RefreshPlan
	}
	plan, err := build(r.Context(), sess.VendorID, day, filter)
	if err != nil {
		h.logger.Error("fulfillment packaging plan", slog.Any("error", err), slog.Int64("vendor_id", sess.VendorID))
		httpx.RespondError(w, err)
		return
	}

	switch format {
	case "csv":
		buf := &bytes.Buffer{}
		if err := WriteCSV(buf, plan); err != nil {
			h.logger.Error("fulfillment packaging csv", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", "attachment; filename="+SheetFilename(plan, "csv"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
	case "pdf":
		if h.pdf == nil {
			httpx.Problem(w, http.StatusServiceUnavailable, "PDF Export Disabled", "no PDF renderer configured")
			return
		}
		pdf, err := RenderPDF(r.Context(), h.pdf, plan)
		if err != nil {
			h.logger.Error("fulfillment packaging pdf", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", "inline; filename="+SheetFilename(plan, "pdf"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(pdf)
	default:
		httpx.JSON(w, http.StatusOK, plan)
	}
}
