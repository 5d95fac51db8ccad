package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/storefront/internal/shared"
)

func TestRespondErrorMapsTaxonomy(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", shared.NewValidationError("price", "must be greater than zero"), http.StatusBadRequest},
		{"validation not found", shared.NewValidationError("vendor_inventory_entry_id", "entry not found").WithCause(shared.ErrNotFound), http.StatusUnprocessableEntity},
		{"not found", fmt.Errorf("discounts: get: %w", shared.ErrNotFound), http.StatusNotFound},
		{"duplicate", shared.ErrDuplicate, http.StatusConflict},
		{"unauthorized", shared.ErrUnauthorized, http.StatusUnauthorized},
		{"transport", shared.NewTransportError("fetch", errors.New("dial tcp: refused")), http.StatusBadGateway},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			RespondError(rr, tc.err)
			require.Equal(t, tc.status, rr.Code)
			var p ProblemDetail
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&p))
			require.Equal(t, tc.status, p.Status)
		})
	}
}

func TestRespondErrorKeepsTransportMessage(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, shared.NewTransportError("fetch", errors.New("store returned 503: maintenance")))
	var p ProblemDetail
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&p))
	require.Equal(t, "store returned 503: maintenance", p.Detail)
}

type sampleRequest struct {
	Title string `json:"card_title" validate:"required,max=10"`
	Type  string `json:"discount_type" validate:"required,oneof=percentage flat"`
}

func TestDecodeJSONReportsAllFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"card_title":"","discount_type":"bogo"}`))
	var body sampleRequest
	err := DecodeJSON(req, &body)
	require.ErrorIs(t, err, shared.ErrValidation)
	v, ok := shared.AsValidation(err)
	require.True(t, ok)
	require.Len(t, v.Fields, 2)
	require.Equal(t, "card_title", v.Fields[0].Field)
	require.Equal(t, "discount_type", v.Fields[1].Field)
}

func TestDecodeJSONRejectsMalformedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"card_title":`))
	var body sampleRequest
	err := DecodeJSON(req, &body)
	require.ErrorIs(t, err, shared.ErrValidation)
}
