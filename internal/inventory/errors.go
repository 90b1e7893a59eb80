package inventory

import "errors"

var (
	ErrItemNotFound      = errors.New("inventory item not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("quantity must be > 0")
	ErrInactiveItem      = errors.New("inventory item is inactive")
	ErrSKUExists         = errors.New("sku already exists")
)
