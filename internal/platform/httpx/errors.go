package httpx

import (
	"errors"
	"net/http"

	"github.com/odyssey-erp/storefront/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
// Validation failures carry every field error; not-found, duplicate and
// transport failures carry the store's message unmodified.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrValidation):
		p := ProblemDetail{Title: "Validation Failed", Status: http.StatusBadRequest, Detail: err.Error()}
		if v, ok := shared.AsValidation(err); ok {
			p.Fields = v.Fields
		}
		if errors.Is(err, shared.ErrNotFound) {
			p.Status = http.StatusUnprocessableEntity
		}
		writeProblem(w, p)
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, shared.ErrUnauthorized):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	case errors.Is(err, shared.ErrTransport):
		Problem(w, http.StatusBadGateway, "Store Unavailable", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
