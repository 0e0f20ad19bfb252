// tests/integration/main_test.go
package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matekasse/internal/inventory"
	"matekasse/internal/store"
)

// state is the client-side view of the generic-vocabulary document.
type state struct {
	Users []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"users"`
	Items []struct {
		ID           string  `json:"id"`
		Name         string  `json:"name"`
		Price        float64 `json:"price"`
		InitialStock int     `json:"initialStock"`
	} `json:"items"`
	Consumption []struct {
		UserID   string `json:"userId"`
		ItemID   string `json:"itemId"`
		Quantity int    `json:"quantity"`
	} `json:"consumption"`
	Payments []struct {
		UserID    string  `json:"userId"`
		ItemID    string  `json:"itemId"`
		Amount    float64 `json:"amount"`
		UnitsPaid int     `json:"unitsPaid"`
	} `json:"payments"`
}

func newServer(t *testing.T, dataFile string) *httptest.Server {
	t.Helper()
	st := store.NewFileStore(dataFile, inventory.VocabGeneric)
	svc := inventory.NewService(st, 24)
	handler := inventory.NewHandler(svc, inventory.VocabGeneric, 6)

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

func call(t *testing.T, method, url string, payload any) (int, *state) {
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
	defer resp.Body.Close()

	var st state
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	}
	return resp.StatusCode, &st
}

func TestFullScenario(t *testing.T) {
	dataFile := filepath.Join(t.TempDir(), "inventory_data.json")
	srv := newServer(t, dataFile)

	// Seed: Cola at 1.50 with 10 in stock, one user.
	status, st := call(t, http.MethodPost, srv.URL+"/api/items",
		map[string]any{"name": "Cola", "price": 1.5, "stock": 10})
	require.Equal(t, http.StatusOK, status)
	status, st = call(t, http.MethodPost, srv.URL+"/api/users", map[string]any{"name": "Alice"})
	require.Equal(t, http.StatusOK, status)
	require.Len(t, st.Users, 1)
	require.Len(t, st.Items, 1)
	alice, cola := st.Users[0].ID, st.Items[0].ID

	// 4 of 10 consumed, 6 remain; a request for 7 is rejected.
	status, _ = call(t, http.MethodPost, srv.URL+"/api/consumption",
		map[string]any{"userId": alice, "itemId": cola, "quantity": 4})
	require.Equal(t, http.StatusOK, status)
	status, _ = call(t, http.MethodPost, srv.URL+"/api/consumption",
		map[string]any{"userId": alice, "itemId": cola, "quantity": 7})
	assert.Equal(t, http.StatusBadRequest, status)

	// Payment of 5.00 at price 1.50 covers 3 units.
	status, st = call(t, http.MethodPost, srv.URL+"/api/payments",
		map[string]any{"userId": alice, "itemId": cola, "amount": 5.0})
	require.Equal(t, http.StatusOK, status)
	require.Len(t, st.Payments, 1)
	assert.Equal(t, 3, st.Payments[0].UnitsPaid)

	// The state survives a restart from the same file.
	srv2 := newServer(t, dataFile)
	status, st = call(t, http.MethodGet, srv2.URL+"/api/state", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, st.Users, 1)
	assert.Len(t, st.Consumption, 1)
	assert.Len(t, st.Payments, 1)

	// Removing the user cascades through both event collections.
	status, st = call(t, http.MethodDelete, srv2.URL+"/api/users/"+alice, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, st.Users)
	assert.Empty(t, st.Consumption)
	assert.Empty(t, st.Payments)
}

func TestConcurrentConsumptionOverHTTP(t *testing.T) {
	dataFile := filepath.Join(t.TempDir(), "inventory_data.json")
	srv := newServer(t, dataFile)

	_, st := call(t, http.MethodPost, srv.URL+"/api/items",
		map[string]any{"name": "Cola", "price": 1.5, "stock": 20})
	_, st = call(t, http.MethodPost, srv.URL+"/api/users", map[string]any{"name": "Alice"})
	require.Len(t, st.Users, 1)
	require.Len(t, st.Items, 1)
	alice, cola := st.Users[0].ID, st.Items[0].ID

	const workers = 50
	var wg sync.WaitGroup
	statuses := make(chan int, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			body, _ := json.Marshal(map[string]any{"userId": alice, "itemId": cola, "quantity": 1})
			resp, err := http.Post(srv.URL+"/api/consumption", "application/json", bytes.NewReader(body))
			if err != nil {
				statuses <- 0
				return
			}
			resp.Body.Close()
			statuses <- resp.StatusCode
		}()
	}
	wg.Wait()
	close(statuses)

	accepted := 0
	for code := range statuses {
		if code == http.StatusOK {
			accepted++
		} else {
			require.Equal(t, http.StatusBadRequest, code)
		}
	}
	assert.Equal(t, 20, accepted, "exactly the stock baseline is accepted")

	_, final := call(t, http.MethodGet, srv.URL+"/api/state", nil)
	consumed := 0
	for _, c := range final.Consumption {
		consumed += c.Quantity
	}
	assert.Equal(t, 20, consumed)
}
