package cart

import "errors"

// Cart errors.
var (
	ErrCartLineNotFound  = errors.New("cart line not found")
	ErrAddToCartRejected = errors.New("product cannot be added to the cart")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
)
