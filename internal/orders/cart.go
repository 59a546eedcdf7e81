package orders

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type CartItem struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Name      string          `json:"name"`
}

type Cart struct {
	Items        []CartItem `json:"items"`
	TableNumber  *int       `json:"table_number,omitempty"`
	CustomerName *string    `json:"customer_name,omitempty"`
	Notes        *string    `json:"notes,omitempty"`
}

type PaymentInput struct {
	Method    PaymentMethod   `json:"method"`
	Amount    decimal.Decimal `json:"amount"`
	Reference *string         `json:"reference,omitempty"`
}

func (c Cart) Validate() error {
	if len(c.Items) == 0 {
		return fmt.Errorf("%w: no items", ErrInvalidCart)
	}
	for i, it := range c.Items {
		if strings.TrimSpace(it.ProductID) == "" {
			return fmt.Errorf("%w: item %d: missing product_id", ErrInvalidCart, i+1)
		}
		if strings.TrimSpace(it.Name) == "" {
			return fmt.Errorf("%w: item %d: missing name", ErrInvalidCart, i+1)
		}
		if it.Quantity <= 0 {
			return fmt.Errorf("%w: item %d: quantity must be positive", ErrInvalidCart, i+1)
		}
		if it.UnitPrice.IsNegative() {
			return fmt.Errorf("%w: item %d: negative unit price", ErrInvalidCart, i+1)
		}
	}
	if c.TableNumber != nil && *c.TableNumber <= 0 {
		return fmt.Errorf("%w: table number must be positive", ErrInvalidCart)
	}
	return nil
}

// ProductIDs returns the referenced products in cart order, duplicates included.
func (c Cart) ProductIDs() []string {
	ids := make([]string, 0, len(c.Items))
	for _, it := range c.Items {
		ids = append(ids, it.ProductID)
	}
	return ids
}

func ValidatePayments(ps []PaymentInput) error {
	if len(ps) == 0 {
		return fmt.Errorf("%w: at least one payment is required", ErrInvalidPayment)
	}
	for i, p := range ps {
		if !p.Method.Valid() {
			return fmt.Errorf("%w: payment %d: unknown method %q", ErrInvalidPayment, i+1, p.Method)
		}
		if !p.Amount.IsPositive() {
			return fmt.Errorf("%w: payment %d: amount must be positive", ErrInvalidPayment, i+1)
		}
	}
	return nil
}
