// internal/inventory/encode.go
package inventory

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Vocabulary selects the field naming of the persisted and served
// document. The two legacy app variants described the same structure
// with different words; one codec covers both so a deployment can
// switch vocabulary without migrating its data file.
type Vocabulary string

const (
	// VocabGeneric uses users/items/consumption/payments with
	// quantity and unitsPaid fields.
	VocabGeneric Vocabulary = "generic"
	// VocabBottles is the drinks variant: the item collection is
	// named flavors, quantities bottles, paid units bottlesPaid.
	VocabBottles Vocabulary = "bottles"
)

func init() {
	// Prices and amounts are plain JSON numbers in the document,
	// matching the legacy data files.
	decimal.MarshalJSONWithoutQuotes = true
}

type bottleConsumption struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ItemID    string    `json:"itemId"`
	Bottles   int       `json:"bottles"`
	Timestamp time.Time `json:"timestamp"`
}

type bottlePayment struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	ItemID      string          `json:"itemId"`
	Amount      decimal.Decimal `json:"amount"`
	BottlesPaid int             `json:"bottlesPaid"`
	Timestamp   time.Time       `json:"timestamp"`
}

type bottleState struct {
	Users       []User              `json:"users"`
	Flavors     []Item              `json:"flavors"`
	Consumption []bottleConsumption `json:"consumption"`
	Payments    []bottlePayment     `json:"payments"`
}

// EncodeState renders the state document in the given vocabulary,
// indented the way the legacy files were written.
func EncodeState(s *State, vocab Vocabulary) ([]byte, error) {
	if vocab != VocabBottles {
		return json.MarshalIndent(s, "", "  ")
	}

	doc := bottleState{
		Users:       s.Users,
		Flavors:     s.Items,
		Consumption: make([]bottleConsumption, 0, len(s.Consumption)),
		Payments:    make([]bottlePayment, 0, len(s.Payments)),
	}
	for _, c := range s.Consumption {
		doc.Consumption = append(doc.Consumption, bottleConsumption{
			ID:        c.ID,
			UserID:    c.UserID,
			ItemID:    c.ItemID,
			Bottles:   c.Quantity,
			Timestamp: c.Timestamp,
		})
	}
	for _, p := range s.Payments {
		doc.Payments = append(doc.Payments, bottlePayment{
			ID:          p.ID,
			UserID:      p.UserID,
			ItemID:      p.ItemID,
			Amount:      p.Amount,
			BottlesPaid: p.UnitsPaid,
			Timestamp:   p.Timestamp,
		})
	}
	return json.MarshalIndent(doc, "", "  ")
}

// wire structs accept both vocabularies on decode; whichever spelling
// is present wins.
type wireConsumption struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ItemID    string    `json:"itemId"`
	Quantity  int       `json:"quantity"`
	Bottles   int       `json:"bottles"`
	Timestamp time.Time `json:"timestamp"`
}

type wirePayment struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	ItemID      string          `json:"itemId"`
	Amount      decimal.Decimal `json:"amount"`
	UnitsPaid   int             `json:"unitsPaid"`
	BottlesPaid int             `json:"bottlesPaid"`
	Timestamp   time.Time       `json:"timestamp"`
}

type wireState struct {
	Users       []User            `json:"users"`
	Items       []Item            `json:"items"`
	Flavors     []Item            `json:"flavors"`
	Consumption []wireConsumption `json:"consumption"`
	Payments    []wirePayment     `json:"payments"`
}

// DecodeState parses a state document in either vocabulary.
func DecodeState(data []byte) (*State, error) {
	var doc wireState
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse state document: %w", err)
	}

	s := NewState()
	s.Users = append(s.Users, doc.Users...)
	s.Items = append(s.Items, doc.Items...)
	if len(doc.Items) == 0 {
		s.Items = append(s.Items, doc.Flavors...)
	}
	for _, c := range doc.Consumption {
		quantity := c.Quantity
		if quantity == 0 {
			quantity = c.Bottles
		}
		s.Consumption = append(s.Consumption, ConsumptionEvent{
			ID:        c.ID,
			UserID:    c.UserID,
			ItemID:    c.ItemID,
			Quantity:  quantity,
			Timestamp: c.Timestamp,
		})
	}
	for _, p := range doc.Payments {
		units := p.UnitsPaid
		if units == 0 {
			units = p.BottlesPaid
		}
		s.Payments = append(s.Payments, PaymentEvent{
			ID:        p.ID,
			UserID:    p.UserID,
			ItemID:    p.ItemID,
			Amount:    p.Amount,
			UnitsPaid: units,
			Timestamp: p.Timestamp,
		})
	}
	return s, nil
}
