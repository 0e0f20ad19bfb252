// internal/inventory/service.go
package inventory

import (
	"context"

	"github.com/shopspring/decimal"
)

// Store persists the canonical state document. Load returns an empty
// state when nothing has been persisted yet and an error only when a
// persisted document exists but cannot be read.
type Store interface {
	Load(ctx context.Context) (*State, error)
	Save(ctx context.Context, s *State) error
}

// Service owns the in-memory state and exposes the validated state
// transitions. Every mutation is atomic: it validates fully before
// touching the state, persists on success, and returns a snapshot of
// the new state. Mutations are mutually exclusive; no two interleave
// their read-validate-write sequence.
type Service interface {
	// State returns a snapshot of the current state.
	State(ctx context.Context) *State

	AddUser(ctx context.Context, name string) (*State, error)
	RemoveUser(ctx context.Context, id string) (*State, error)
	// AddItem creates an item. A nil stock falls back to the
	// configured default.
	AddItem(ctx context.Context, name string, price decimal.Decimal, stock *int) (*State, error)
	RemoveItem(ctx context.Context, id string) (*State, error)
	UpdateStock(ctx context.Context, itemID string, stock int) (*State, error)
	RecordConsumption(ctx context.Context, userID, itemID string, quantity int) (*State, error)
	RecordPayment(ctx context.Context, userID, itemID string, amount decimal.Decimal) (*State, error)
}
