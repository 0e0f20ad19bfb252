// internal/inventory/handler_test.go
package inventory

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newTestServer(t *testing.T, vocab Vocabulary) *httptest.Server {
	t.Helper()
	svc := NewService(&memStore{}, 24)
	handler := NewHandler(svc, vocab, 6)

	r := chi.NewRouter()
	r.Get("/api/state", handler.HandleState)
	r.Get("/api/report", handler.HandleReport)
	r.Post("/api/users", handler.HandleAddUser)
	r.Delete("/api/users/{id}", handler.HandleRemoveUser)
	r.Post("/api/items", handler.HandleAddItem)
	r.Delete("/api/items/{id}", handler.HandleRemoveItem)
	r.Put("/api/items/{id}/stock", handler.HandleUpdateStock)
	r.Post("/api/consumption", handler.HandleRecordConsumption)
	r.Post("/api/payments", handler.HandleRecordPayment)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, payload any) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req, err := http.NewRequest(method, url, &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var doc map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	return resp, doc
}

func TestMutationsReturnFullState(t *testing.T) {
	srv := newTestServer(t, VocabGeneric)

	resp, doc := doJSON(t, http.MethodPost, srv.URL+"/api/users", map[string]any{"name": "Alice"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	for _, key := range []string{"users", "items", "consumption", "payments"} {
		assert.Contains(t, doc, key, "mutations respond with the whole document")
	}

	resp, doc = doJSON(t, http.MethodPost, srv.URL+"/api/items",
		map[string]any{"name": "Cola", "price": 1.5, "stock": 10})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var items []Item
	require.NoError(t, json.Unmarshal(doc["items"], &items))
	require.Len(t, items, 1)
	assert.Equal(t, 10, items[0].InitialStock)
}

func TestAddItemStockDefaults(t *testing.T) {
	srv := newTestServer(t, VocabGeneric)

	// Absent stock falls back to the configured default.
	_, doc := doJSON(t, http.MethodPost, srv.URL+"/api/items",
		map[string]any{"name": "Cola", "price": 1.5})
	var items []Item
	require.NoError(t, json.Unmarshal(doc["items"], &items))
	require.Len(t, items, 1)
	assert.Equal(t, 24, items[0].InitialStock)

	// Non-numeric stock is treated like an absent one.
	_, doc = doJSON(t, http.MethodPost, srv.URL+"/api/items",
		map[string]any{"name": "Lemon", "price": 2, "stock": "plenty"})
	require.NoError(t, json.Unmarshal(doc["items"], &items))
	require.Len(t, items, 2)
	assert.Equal(t, 24, items[1].InitialStock)

	// Numeric strings still count.
	_, doc = doJSON(t, http.MethodPost, srv.URL+"/api/items",
		map[string]any{"name": "Ginger", "price": 2, "stock": "12"})
	require.NoError(t, json.Unmarshal(doc["items"], &items))
	require.Len(t, items, 3)
	assert.Equal(t, 12, items[2].InitialStock)
}

func TestErrorStatusAndShape(t *testing.T) {
	srv := newTestServer(t, VocabGeneric)

	resp, doc := doJSON(t, http.MethodPost, srv.URL+"/api/users", map[string]any{"name": "Alice"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, doc = doJSON(t, http.MethodPost, srv.URL+"/api/users", map[string]any{"name": "ALICE"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, doc, "error")

	resp, doc = doJSON(t, http.MethodPost, srv.URL+"/api/users", map[string]any{"name": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, doc, "error")

	resp, doc = doJSON(t, http.MethodPut, srv.URL+"/api/items/nope/stock", map[string]any{"stock": 5})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, doc, "error")

	resp, doc = doJSON(t, http.MethodPut, srv.URL+"/api/items/nope/stock", map[string]any{"stock": "many"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, doc, "error")
}

func TestConsumptionOverStockIsRejected(t *testing.T) {
	srv := newTestServer(t, VocabGeneric)

	_, doc := doJSON(t, http.MethodPost, srv.URL+"/api/users", map[string]any{"name": "Alice"})
	var users []User
	require.NoError(t, json.Unmarshal(doc["users"], &users))
	_, doc = doJSON(t, http.MethodPost, srv.URL+"/api/items",
		map[string]any{"name": "Cola", "price": 1.5, "stock": 10})
	var items []Item
	require.NoError(t, json.Unmarshal(doc["items"], &items))

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/consumption",
		map[string]any{"userId": users[0].ID, "itemId": items[0].ID, "quantity": 4})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, doc = doJSON(t, http.MethodPost, srv.URL+"/api/consumption",
		map[string]any{"userId": users[0].ID, "itemId": items[0].ID, "quantity": 7})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(doc["error"]), "stock")
}

func TestBottleVocabularyOnTheWire(t *testing.T) {
	srv := newTestServer(t, VocabBottles)

	resp, doc := doJSON(t, http.MethodPost, srv.URL+"/api/items",
		map[string]any{"name": "Original", "price": 1.2, "stock": 24})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, doc, "flavors")
	assert.NotContains(t, doc, "items")
}

func TestReportEndpoint(t *testing.T) {
	srv := newTestServer(t, VocabGeneric)

	doJSON(t, http.MethodPost, srv.URL+"/api/items",
		map[string]any{"name": "Cola", "price": 1.5, "stock": 4})

	resp, doc := doJSON(t, http.MethodGet, srv.URL+"/api/report", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var report Report
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, 4, report.TotalStock)
	require.Len(t, report.Items, 1)
	assert.True(t, report.Items[0].LowStock)
}

func TestThrottleRejectsWhenExhausted(t *testing.T) {
	handler := Throttle(rate.NewLimiter(rate.Limit(0), 0))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/users", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
