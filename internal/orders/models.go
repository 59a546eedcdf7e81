package orders

import (
	"github.com/shopspring/decimal"
	"time"
)

type Product struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	CostPrice decimal.Decimal `json:"cost_price"`
	Stock     int             `json:"stock"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type Order struct {
	ID           string          `json:"id"`
	Number       string          `json:"number"`
	Status       Status          `json:"status"` // lihat status.go
	Source       Source          `json:"source"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Tax          decimal.Decimal `json:"tax"`
	Total        decimal.Decimal `json:"total"`
	TableNumber  *int            `json:"table_number,omitempty"`
	CustomerName *string         `json:"customer_name,omitempty"`
	Notes        *string         `json:"notes,omitempty"`
	UserID       *string         `json:"user_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	Items        []OrderItem     `json:"items"`
	Payments     []Payment       `json:"payments"`
}

// OrderItem keeps name, price and cost as they were at sale time so the row
// survives later product edits or deletion.
type OrderItem struct {
	ID        string          `json:"id"`
	OrderID   string          `json:"order_id"`
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	CostPrice decimal.Decimal `json:"cost_price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "CASH"
	PaymentCard     PaymentMethod = "CARD"
	PaymentTransfer PaymentMethod = "TRANSFER"
	PaymentOther    PaymentMethod = "OTHER"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentTransfer, PaymentOther:
		return true
	}
	return false
}

type Payment struct {
	ID        string          `json:"id"`
	OrderID   string          `json:"order_id"`
	Method    PaymentMethod   `json:"method"`
	Amount    decimal.Decimal `json:"amount"`
	Reference *string         `json:"reference,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Profit is computed from the frozen line items only.
func (o *Order) Profit() decimal.Decimal {
	p := decimal.Zero
	for _, it := range o.Items {
		p = p.Add(it.Price.Sub(it.CostPrice).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return p
}

func (o *Order) Paid() decimal.Decimal {
	sum := decimal.Zero
	for _, p := range o.Payments {
		sum = sum.Add(p.Amount)
	}
	return sum
}
