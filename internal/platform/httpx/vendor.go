package httpx

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/storefront/internal/shared"
)

// RequireVendor returns the vendor session of the request, answering 401 when absent.
func RequireVendor(w http.ResponseWriter, r *http.Request) (shared.VendorSession, bool) {
	sess, ok := shared.VendorFromContext(r.Context())
	if !ok {
		RespondError(w, shared.ErrUnauthorized)
		return shared.VendorSession{}, false
	}
	return sess, true
}

// IDParam parses a positive int64 chi URL parameter, answering 400 when invalid.
func IDParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		RespondError(w, shared.NewValidationError(name, "must be a positive integer"))
		return 0, false
	}
	return id, true
}
