package checkout

import (
	"errors"
	"fmt"
)

// Validation errors are returned before anything is written.
var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
	ErrTooManyLines    = errors.New("cart has too many lines")
	ErrMissingAddress  = errors.New("address is required")
	ErrUnauthenticated = errors.New("authentication required")
	ErrAddressNotOwned = errors.New("address not found")
	ErrProductNotFound = errors.New("product not found")
)

// IsValidation reports whether err is a client-side validation failure.
func IsValidation(err error) bool {
	for _, target := range []error{ErrEmptyCart, ErrInvalidQuantity, ErrTooManyLines, ErrMissingAddress, ErrUnauthenticated} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// StockUnavailableError is returned under the reject policy when live stock
// cannot cover the requested quantity.
type StockUnavailableError struct {
	ProductID int64
	Requested int
	Available int
}

func (e *StockUnavailableError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}

// DataAccessError wraps a failure of the backing store.
type DataAccessError struct {
	Op  string
	Err error
}

func (e *DataAccessError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *DataAccessError) Unwrap() error {
	return e.Err
}

// LineError names the cart line a checkout failed on.
type LineError struct {
	Index     int
	ProductID int64
	Err       error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d (product %d): %v", e.Index, e.ProductID, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}
