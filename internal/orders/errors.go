package orders

import "errors"

// Order errors.
var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrEmptyCart      = errors.New("cart is empty")
	ErrInvalidStatus  = errors.New("invalid order status")
	ErrNotOrderOwner  = errors.New("order belongs to another customer")
	ErrNoOrderedItems = errors.New("none of the cart products can be ordered")
)
