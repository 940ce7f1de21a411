package catalog

import "errors"

// Catalog errors.
var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidDuration = errors.New("subscription duration must be \"1 month\" or \"1 year\"")
)
