// internal/inventory/handler.go
package inventory

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// Handler exposes the service over the JSON/HTTP API. Every mutating
// route responds with the entire updated state document, encoded in
// the configured vocabulary.
type Handler struct {
	service           Service
	vocab             Vocabulary
	lowStockThreshold int
}

func NewHandler(service Service, vocab Vocabulary, lowStockThreshold int) *Handler {
	return &Handler{service: service, vocab: vocab, lowStockThreshold: lowStockThreshold}
}

func (h *Handler) HandleState(w http.ResponseWriter, r *http.Request) {
	h.respondState(w, h.service.State(r.Context()))
}

func (h *Handler) HandleAddUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	state, err := h.service.AddUser(r.Context(), req.Name)
	h.respondMutation(w, state, err)
}

func (h *Handler) HandleRemoveUser(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.RemoveUser(r.Context(), chi.URLParam(r, "id"))
	h.respondMutation(w, state, err)
}

func (h *Handler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string          `json:"name"`
		Price decimal.Decimal `json:"price"`
		Stock json.RawMessage `json:"stock"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// An absent or non-numeric stock falls back to the configured
	// default inside the service.
	state, err := h.service.AddItem(r.Context(), req.Name, req.Price, parseStock(req.Stock))
	h.respondMutation(w, state, err)
}

func (h *Handler) HandleRemoveItem(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.RemoveItem(r.Context(), chi.URLParam(r, "id"))
	h.respondMutation(w, state, err)
}

func (h *Handler) HandleUpdateStock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Stock *int `json:"stock"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Stock == nil {
		writeError(w, http.StatusBadRequest, "stock must be an integer")
		return
	}

	state, err := h.service.UpdateStock(r.Context(), chi.URLParam(r, "id"), *req.Stock)
	h.respondMutation(w, state, err)
}

func (h *Handler) HandleRecordConsumption(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   string `json:"userId"`
		ItemID   string `json:"itemId"`
		Quantity int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	state, err := h.service.RecordConsumption(r.Context(), req.UserID, req.ItemID, req.Quantity)
	h.respondMutation(w, state, err)
}

func (h *Handler) HandleRecordPayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string          `json:"userId"`
		ItemID string          `json:"itemId"`
		Amount decimal.Decimal `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	state, err := h.service.RecordPayment(r.Context(), req.UserID, req.ItemID, req.Amount)
	h.respondMutation(w, state, err)
}

func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	report := h.service.State(r.Context()).BuildReport(h.lowStockThreshold)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}

// respondMutation maps a mutation result onto the wire. A persistence
// failure is not a client error: the in-memory mutation stands, so the
// updated state is still returned.
func (h *Handler) respondMutation(w http.ResponseWriter, state *State, err error) {
	if err != nil && !errors.Is(err, ErrPersistence) {
		writeError(w, statusFor(err), err.Error())
		return
	}
	if err != nil {
		log.Printf("State served from memory, durable copy may be stale: %v", err)
	}
	h.respondState(w, state)
}

func (h *Handler) respondState(w http.ResponseWriter, state *State) {
	data, err := EncodeState(state, h.vocab)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode state")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInsufficientStock):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// parseStock interprets the loosely-typed stock field: clients send
// integers, numeric strings or nothing at all.
func parseStock(raw json.RawMessage) *int {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return &n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if parsed, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return &parsed
		}
	}
	return nil
}

// Throttle limits mutating requests with a shared token bucket.
func Throttle(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
