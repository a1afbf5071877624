package catalog

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrNotInWishlist   = errors.New("product was not in wishlist")
	ErrNotInCart       = errors.New("product not found in cart")
	ErrInvalidInput    = errors.New("invalid input")
)

// ValidationError lists the request fields that were missing or invalid.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing or invalid fields: " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// InsufficientStockError is returned when a cart write would exceed stock.
// Remaining is how many more units the product's stock allows.
type InsufficientStockError struct {
	Product   Product
	Remaining int
	Increment bool
}

func (e *InsufficientStockError) Error() string {
	if e.Increment {
		return fmt.Sprintf("Insufficient stock for %s. Only %d left in cart.", e.Product.Name, e.Remaining)
	}
	return fmt.Sprintf("Insufficient stock for %s. Only %d left.", e.Product.Name, e.Remaining)
}
