package inventory

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/storefront/internal/shared"
)

func newTestHandler(store *memoryStore) *Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(logger, NewService(store, testCatalog(), nil, nil, nil), nil)
}

func vendorRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req.WithContext(shared.ContextWithVendor(req.Context(), shared.VendorSession{VendorID: 7, ActorID: 70}))
}

func TestCheckBatchReturnsAllFieldErrors(t *testing.T) {
	h := newTestHandler(newMemoryStore())
	body := `{"items":[{"catalog_item_id":1,"price":50,"mrp":40,"stock_quantity":10},{"catalog_item_id":2,"price":"30","mrp":"35","stock_quantity":"10"}]}`
	rr := httptest.NewRecorder()
	h.checkBatch(rr, vendorRequest(http.MethodPost, "/inventory/batches/check", body))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp checkResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.False(t, resp.Submittable)
	require.Len(t, resp.Fields, 1)
	require.Equal(t, "items[1].mrp", resp.Fields[0].Field)
}

func TestSubmitBatchCreatesEntries(t *testing.T) {
	store := newMemoryStore()
	h := newTestHandler(store)
	body := `{"items":[{"catalog_item_id":2,"price":"60","mrp":"64","stock_quantity":"20","delivery_supported":true}]}`
	rr := httptest.NewRecorder()
	h.submitBatch(rr, vendorRequest(http.MethodPost, "/inventory/batches", body))

	require.Equal(t, http.StatusCreated, rr.Code)
	var res BatchResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	require.Len(t, res.Created, 1)
	require.NotEmpty(t, res.BatchRef)
	require.True(t, res.Created[0].DeliverySupported)
}

func TestSubmitBatchRequiresVendor(t *testing.T) {
	h := newTestHandler(newMemoryStore())
	req := httptest.NewRequest(http.MethodPost, "/inventory/batches", strings.NewReader(`{"items":[]}`))
	rr := httptest.NewRecorder()
	h.submitBatch(rr, req)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestUpdateEntryRejectsPriceAboveMRP(t *testing.T) {
	store := newMemoryStore()
	e := store.seed(7, 1, "90", "100", "5")
	h := newTestHandler(store)

	req := vendorRequest(http.MethodPatch, "/inventory/entries/1", `{"price":"150"}`)
	rc := chi.NewRouteContext()
	rc.URLParams.Add("id", "1")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
	rr := httptest.NewRecorder()
	h.updateEntry(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), `"field":"mrp"`)
	require.True(t, store.entries[e.ID].Price.Equal(dec("90")))
}

func TestListEntriesPaginates(t *testing.T) {
	store := newMemoryStore()
	store.seed(7, 1, "90", "100", "5")
	store.seed(7, 2, "60", "64", "12")
	h := newTestHandler(store)

	rr := httptest.NewRecorder()
	h.listEntries(rr, vendorRequest(http.MethodGet, "/inventory/entries?per_page=1&page=2", ""))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Entries    []entryResponse   `json:"entries"`
		Pagination shared.Pagination `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Entries, 1)
	require.Equal(t, "Toned Milk", resp.Entries[0].ProductName)
	require.Equal(t, "60.00", resp.Entries[0].DisplayPrice)
	require.Equal(t, 2, resp.Pagination.TotalPages)
}
