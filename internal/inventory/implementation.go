// internal/inventory/implementation.go
package inventory

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// service implements the Service interface.
type service struct {
	store        Store
	defaultStock int
	tracer       trace.Tracer
	mutations    metric.Int64Counter

	mu    sync.Mutex
	state *State
}

// NewService creates a service around the given store. A missing or
// unreadable persisted document degrades to an empty state; the error
// is logged, never fatal.
func NewService(st Store, defaultStock int) Service {
	state, err := st.Load(context.Background())
	if err != nil {
		log.Printf("Failed to load persisted state: %v (starting empty)", err)
		state = nil
	}
	if state == nil {
		state = NewState()
	}

	mutations, err := otel.Meter("matekasse/inventory").Int64Counter("inventory.mutations")
	if err != nil {
		log.Printf("Failed to create mutation counter: %v", err)
	}

	return &service{
		store:        st,
		defaultStock: defaultStock,
		tracer:       otel.Tracer("matekasse/inventory"),
		mutations:    mutations,
		state:        state,
	}
}

func (s *service) State(ctx context.Context) *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// persist writes the working copy through the store. The caller must
// hold s.mu. A failed write does not roll back the in-memory mutation;
// it is logged and surfaced as ErrPersistence so the caller knows the
// durable copy may be stale.
func (s *service) persist(ctx context.Context) error {
	if err := s.store.Save(ctx, s.state); err != nil {
		log.Printf("Failed to persist state: %v", err)
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

func (s *service) count(ctx context.Context, op string) {
	if s.mutations != nil {
		s.mutations.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
	}
}

// AddUser creates a user with a fresh id. Names are unique among
// active users, compared case-insensitively.
func (s *service) AddUser(ctx context.Context, name string) (*State, error) {
	ctx, span := s.tracer.Start(ctx, "inventory.add_user")
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.state.Users {
		if strings.EqualFold(u.Name, name) {
			return nil, fmt.Errorf("%w: user %q", ErrConflict, name)
		}
	}

	s.state.Users = append(s.state.Users, User{ID: uuid.NewString(), Name: name})
	s.count(ctx, "add_user")
	return s.state.Clone(), s.persist(ctx)
}

// RemoveUser deletes a user and cascades: every consumption and
// payment event referencing the id goes with it. An absent id is a
// no-op success.
func (s *service) RemoveUser(ctx context.Context, id string) (*State, error) {
	ctx, span := s.tracer.Start(ctx, "inventory.remove_user",
		trace.WithAttributes(attribute.String("user.id", id)),
	)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.UserByID(id) == nil {
		return s.state.Clone(), nil
	}

	users := s.state.Users[:0]
	for _, u := range s.state.Users {
		if u.ID != id {
			users = append(users, u)
		}
	}
	s.state.Users = users
	s.dropEvents(func(userID, _ string) bool { return userID == id })

	s.count(ctx, "remove_user")
	return s.state.Clone(), s.persist(ctx)
}

// AddItem creates an item. A nil stock falls back to the configured
// default; zero is a valid explicit stock.
func (s *service) AddItem(ctx context.Context, name string, price decimal.Decimal, stock *int) (*State, error) {
	ctx, span := s.tracer.Start(ctx, "inventory.add_item")
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if !price.IsPositive() {
		return nil, fmt.Errorf("%w: price must be positive", ErrValidation)
	}
	initialStock := s.defaultStock
	if stock != nil {
		if *stock < 0 {
			return nil, fmt.Errorf("%w: stock must not be negative", ErrValidation)
		}
		initialStock = *stock
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range s.state.Items {
		if strings.EqualFold(item.Name, name) {
			return nil, fmt.Errorf("%w: item %q", ErrConflict, name)
		}
	}

	s.state.Items = append(s.state.Items, Item{
		ID:           uuid.NewString(),
		Name:         name,
		Price:        price,
		InitialStock: initialStock,
	})
	s.count(ctx, "add_item")
	return s.state.Clone(), s.persist(ctx)
}

// RemoveItem cascades like RemoveUser.
func (s *service) RemoveItem(ctx context.Context, id string) (*State, error) {
	ctx, span := s.tracer.Start(ctx, "inventory.remove_item",
		trace.WithAttributes(attribute.String("item.id", id)),
	)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.ItemByID(id) == nil {
		return s.state.Clone(), nil
	}

	items := s.state.Items[:0]
	for _, item := range s.state.Items {
		if item.ID != id {
			items = append(items, item)
		}
	}
	s.state.Items = items
	s.dropEvents(func(_, itemID string) bool { return itemID == id })

	s.count(ctx, "remove_item")
	return s.state.Clone(), s.persist(ctx)
}

// UpdateStock overwrites the stock baseline of an item. Consumption
// history is untouched, so lowering the baseline below cumulative
// consumption leaves the remaining stock negative until restocked.
func (s *service) UpdateStock(ctx context.Context, itemID string, stock int) (*State, error) {
	ctx, span := s.tracer.Start(ctx, "inventory.update_stock",
		trace.WithAttributes(
			attribute.String("item.id", itemID),
			attribute.Int("stock.new", stock),
		),
	)
	defer span.End()

	if stock < 0 {
		return nil, fmt.Errorf("%w: stock must not be negative", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.state.ItemByID(itemID)
	if item == nil {
		return nil, fmt.Errorf("%w: item %s", ErrNotFound, itemID)
	}
	item.InitialStock = stock

	s.count(ctx, "update_stock")
	return s.state.Clone(), s.persist(ctx)
}

// RecordConsumption appends an immutable consumption event. The stock
// check happens inside the lock, so two concurrent calls can never
// both pass it on a stale remaining-stock reading.
func (s *service) RecordConsumption(ctx context.Context, userID, itemID string, quantity int) (*State, error) {
	ctx, span := s.tracer.Start(ctx, "inventory.record_consumption",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("item.id", itemID),
			attribute.Int("quantity", quantity),
		),
	)
	defer span.End()

	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.UserByID(userID) == nil {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
	}
	if s.state.ItemByID(itemID) == nil {
		return nil, fmt.Errorf("%w: item %s", ErrNotFound, itemID)
	}

	remaining := s.state.RemainingStock(itemID)
	if quantity > remaining {
		span.SetAttributes(attribute.Int("stock.remaining", remaining))
		return nil, fmt.Errorf("%w: %d requested, %d remaining", ErrInsufficientStock, quantity, remaining)
	}

	s.state.Consumption = append(s.state.Consumption, ConsumptionEvent{
		ID:        uuid.NewString(),
		UserID:    userID,
		ItemID:    itemID,
		Quantity:  quantity,
		Timestamp: time.Now().UTC(),
	})
	s.count(ctx, "record_consumption")
	return s.state.Clone(), s.persist(ctx)
}

// RecordPayment appends an immutable payment event. UnitsPaid is
// floored against the item price at this moment and kept for good, so
// later price changes do not rewrite payment history. There is no
// check against the outstanding balance; overpaying simply produces a
// credit.
func (s *service) RecordPayment(ctx context.Context, userID, itemID string, amount decimal.Decimal) (*State, error) {
	ctx, span := s.tracer.Start(ctx, "inventory.record_payment",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("item.id", itemID),
		),
	)
	defer span.End()

	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.UserByID(userID) == nil {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
	}
	item := s.state.ItemByID(itemID)
	if item == nil {
		return nil, fmt.Errorf("%w: item %s", ErrNotFound, itemID)
	}
	if !item.Price.IsPositive() {
		// Legacy data files may carry a zero price.
		return nil, fmt.Errorf("%w: item %s has no positive price", ErrValidation, itemID)
	}

	unitsPaid := int(amount.Div(item.Price).Floor().IntPart())
	s.state.Payments = append(s.state.Payments, PaymentEvent{
		ID:        uuid.NewString(),
		UserID:    userID,
		ItemID:    itemID,
		Amount:    amount,
		UnitsPaid: unitsPaid,
		Timestamp: time.Now().UTC(),
	})
	s.count(ctx, "record_payment")
	return s.state.Clone(), s.persist(ctx)
}

// dropEvents removes every consumption and payment event matching the
// predicate. The caller must hold s.mu.
func (s *service) dropEvents(match func(userID, itemID string) bool) {
	consumption := s.state.Consumption[:0]
	for _, c := range s.state.Consumption {
		if !match(c.UserID, c.ItemID) {
			consumption = append(consumption, c)
		}
	}
	s.state.Consumption = consumption

	payments := s.state.Payments[:0]
	for _, p := range s.state.Payments {
		if !match(p.UserID, p.ItemID) {
			payments = append(payments, p)
		}
	}
	s.state.Payments = payments
}
