package orders

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("order not found")
	ErrProductNotFound    = errors.New("product not found")
	ErrAlreadyFinalized   = errors.New("order already finalized")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrTransactionAborted = errors.New("transaction aborted")
	ErrInvalidCart        = errors.New("invalid cart")
	ErrInvalidPayment     = errors.New("invalid payment")
	ErrUnderpaid          = errors.New("payments do not cover order total")
	ErrDuplicateNumber    = errors.New("order number already used")
)

type Shortage struct {
	ProductID string `json:"product_id"`
	Required  int    `json:"required"`
	Available int    `json:"available"`
}

// InsufficientStockError lists every product that could not be decremented.
type InsufficientStockError struct {
	Shortages []Shortage
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		parts = append(parts, fmt.Sprintf("%s (required %d, available %d)", s.ProductID, s.Required, s.Available))
	}
	return ErrInsufficientStock.Error() + ": " + strings.Join(parts, ", ")
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

var domainErrors = []error{
	ErrUnauthorized,
	ErrForbidden,
	ErrNotFound,
	ErrProductNotFound,
	ErrAlreadyFinalized,
	ErrInsufficientStock,
	ErrInvalidCart,
	ErrInvalidPayment,
	ErrUnderpaid,
	ErrTransactionAborted,
}

// abortErr passes domain errors through and folds everything else
// (driver errors, deadlines, commit failures) into ErrTransactionAborted.
func abortErr(err error) error {
	if err == nil {
		return nil
	}
	for _, d := range domainErrors {
		if errors.Is(err, d) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", ErrTransactionAborted, err)
}
