// internal/inventory/ledger.go
package inventory

import "github.com/shopspring/decimal"

// The ledger functions are pure reads over a state snapshot. They
// recompute from scratch on every call; the collections are small and
// bounded, so there is no caching layer to invalidate.

// TotalConsumed sums the quantity of all consumption events. With a
// non-empty itemID it only counts events for that item.
func (s *State) TotalConsumed(itemID string) int {
	total := 0
	for _, c := range s.Consumption {
		if itemID == "" || c.ItemID == itemID {
			total += c.Quantity
		}
	}
	return total
}

// UserConsumption sums the quantity a user consumed of one item.
func (s *State) UserConsumption(userID, itemID string) int {
	total := 0
	for _, c := range s.Consumption {
		if c.UserID == userID && c.ItemID == itemID {
			total += c.Quantity
		}
	}
	return total
}

// TotalPaidUnits sums the units a user has paid for on one item.
func (s *State) TotalPaidUnits(userID, itemID string) int {
	total := 0
	for _, p := range s.Payments {
		if p.UserID == userID && p.ItemID == itemID {
			total += p.UnitsPaid
		}
	}
	return total
}

// RemainingStock is the item's stock baseline minus its cumulative
// consumption. Returns 0 for an unknown item.
func (s *State) RemainingStock(itemID string) int {
	item := s.ItemByID(itemID)
	if item == nil {
		return 0
	}
	return item.InitialStock - s.TotalConsumed(itemID)
}

// TotalStock sums the stock baseline over all items.
func (s *State) TotalStock() int {
	total := 0
	for _, item := range s.Items {
		total += item.InitialStock
	}
	return total
}

// TotalRemaining sums the remaining stock over all items.
func (s *State) TotalRemaining() int {
	total := 0
	for _, item := range s.Items {
		total += s.RemainingStock(item.ID)
	}
	return total
}

// Balance is the net position of one user on one item: units consumed
// versus units covered by payments, and the monetary equivalent.
// OwedUnits and OwedAmount are negative when the user is in credit.
type Balance struct {
	UserID        string          `json:"userId"`
	ItemID        string          `json:"itemId"`
	ConsumedUnits int             `json:"consumedUnits"`
	PaidUnits     int             `json:"paidUnits"`
	OwedUnits     int             `json:"owedUnits"`
	OwedAmount    decimal.Decimal `json:"owedAmount"`
}

// Balances emits one entry per (user, item) pair with any consumption
// or payment activity. Iteration is users outer, items inner, in
// stored order; the UI relies on this order for list stability.
func (s *State) Balances() []Balance {
	balances := []Balance{}
	for _, user := range s.Users {
		for _, item := range s.Items {
			consumed := s.UserConsumption(user.ID, item.ID)
			paid := s.TotalPaidUnits(user.ID, item.ID)
			if consumed == 0 && paid == 0 {
				continue
			}
			owed := consumed - paid
			balances = append(balances, Balance{
				UserID:        user.ID,
				ItemID:        item.ID,
				ConsumedUnits: consumed,
				PaidUnits:     paid,
				OwedUnits:     owed,
				OwedAmount:    item.Price.Mul(decimal.NewFromInt(int64(owed))),
			})
		}
	}
	return balances
}

// ItemReport is the per-item slice of a Report.
type ItemReport struct {
	ItemID    string `json:"itemId"`
	Name      string `json:"name"`
	Consumed  int    `json:"consumed"`
	Remaining int    `json:"remaining"`
	LowStock  bool   `json:"lowStock"`
}

// Report aggregates the derived values the UI displays.
type Report struct {
	TotalStock     int          `json:"totalStock"`
	TotalConsumed  int          `json:"totalConsumed"`
	TotalRemaining int          `json:"totalRemaining"`
	Items          []ItemReport `json:"items"`
	Balances       []Balance    `json:"balances"`
}

// BuildReport derives the full report from the state. An item is
// flagged low-stock when its remaining stock is at or below threshold.
func (s *State) BuildReport(lowStockThreshold int) Report {
	report := Report{
		TotalStock:     s.TotalStock(),
		TotalConsumed:  s.TotalConsumed(""),
		TotalRemaining: s.TotalRemaining(),
		Items:          []ItemReport{},
		Balances:       s.Balances(),
	}
	for _, item := range s.Items {
		remaining := s.RemainingStock(item.ID)
		report.Items = append(report.Items, ItemReport{
			ItemID:    item.ID,
			Name:      item.Name,
			Consumed:  s.TotalConsumed(item.ID),
			Remaining: remaining,
			LowStock:  remaining <= lowStockThreshold,
		})
	}
	return report
}
