package inventory

import (
	"errors"
	"fmt"
)

var ErrProductNotFound = errors.New("product not found")

// InsufficientStockError is returned when a decrement would take the stock
// of a product below zero. Nothing is written in that case.
type InsufficientStockError struct {
	ProductID uint
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough items of product %d in stock: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// AsInsufficientStock unwraps err into an *InsufficientStockError if it is one.
func AsInsufficientStock(err error) (*InsufficientStockError, bool) {
	var se *InsufficientStockError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
