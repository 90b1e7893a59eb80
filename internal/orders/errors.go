package orders

import "errors"

var (
	ErrNotFound          = errors.New("order not found")
	ErrEmptyItems        = errors.New("order has no items")
	ErrInvalidQuantity   = errors.New("quantity must be > 0")
	ErrInvalidTransition = errors.New("invalid status transition")
)
