// internal/inventory/errors.go
package inventory

import "errors"

var (
	// ErrValidation covers missing, blank or malformed input fields.
	ErrValidation = errors.New("invalid input")
	// ErrConflict is returned when a name is already taken.
	ErrConflict = errors.New("already exists")
	// ErrNotFound is returned when a referenced user or item is absent.
	ErrNotFound = errors.New("not found")
	// ErrInsufficientStock is returned when a consumption would exceed
	// the remaining stock of an item.
	ErrInsufficientStock = errors.New("not enough stock")
	// ErrPersistence signals that the in-memory mutation succeeded but
	// the durable write failed; the persisted document may be stale.
	ErrPersistence = errors.New("persistence failed")
)
