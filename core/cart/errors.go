package cart

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports a missing cart row; callers normally prevent it
	// by calling EnsureExists first.
	ErrNotFound = errors.New("cart not found")

	ErrInvalidQuantity  = errors.New("quantity must be positive")
	ErrInvalidLineID    = errors.New("malformed cart line id")
	ErrProductNotFound  = errors.New("product not found")
	ErrLineNotFound     = errors.New("cart line not found")
	ErrConcurrentUpdate = errors.New("cart was modified concurrently")
)

type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("only %d of product[%s] available, requested %d", e.Available, e.ProductID, e.Requested)
}
