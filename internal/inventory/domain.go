// internal/inventory/domain.go
package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is a member of the group sharing the inventory.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Item is a consumable tracked by the service. InitialStock is the
// running stock baseline, not a historical constant: UpdateStock
// overwrites it directly without touching recorded consumption.
type Item struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	InitialStock int             `json:"initialStock"`
}

// ConsumptionEvent records that a user took some units of an item.
// Events are append-only and never edited after creation.
type ConsumptionEvent struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ItemID    string    `json:"itemId"`
	Quantity  int       `json:"quantity"`
	Timestamp time.Time `json:"timestamp"`
}

// PaymentEvent records money a user put in for an item. UnitsPaid is
// floor(amount / price) using the item price at creation time; it is
// not recomputed when the price changes later.
type PaymentEvent struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	ItemID    string          `json:"itemId"`
	Amount    decimal.Decimal `json:"amount"`
	UnitsPaid int             `json:"unitsPaid"`
	Timestamp time.Time       `json:"timestamp"`
}

// State is the canonical document: four collections, exclusively owned
// by the Service. Slice order is preserved on disk and on the wire.
type State struct {
	Users       []User             `json:"users"`
	Items       []Item             `json:"items"`
	Consumption []ConsumptionEvent `json:"consumption"`
	Payments    []PaymentEvent     `json:"payments"`
}

// NewState returns an empty state with all four collections allocated,
// so they encode as [] rather than null.
func NewState() *State {
	return &State{
		Users:       []User{},
		Items:       []Item{},
		Consumption: []ConsumptionEvent{},
		Payments:    []PaymentEvent{},
	}
}

// UserByID returns the user with the given id, or nil.
func (s *State) UserByID(id string) *User {
	for i := range s.Users {
		if s.Users[i].ID == id {
			return &s.Users[i]
		}
	}
	return nil
}

// ItemByID returns the item with the given id, or nil.
func (s *State) ItemByID(id string) *Item {
	for i := range s.Items {
		if s.Items[i].ID == id {
			return &s.Items[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the state. The service hands out clones
// as snapshots so callers can never alias its working copy.
func (s *State) Clone() *State {
	c := &State{
		Users:       make([]User, len(s.Users)),
		Items:       make([]Item, len(s.Items)),
		Consumption: make([]ConsumptionEvent, len(s.Consumption)),
		Payments:    make([]PaymentEvent, len(s.Payments)),
	}
	copy(c.Users, s.Users)
	copy(c.Items, s.Items)
	copy(c.Consumption, s.Consumption)
	copy(c.Payments, s.Payments)
	return c
}
