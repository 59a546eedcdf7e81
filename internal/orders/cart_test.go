package orders

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCartValidate(t *testing.T) {
	item := CartItem{ProductID: "P1", Name: "Burger", Quantity: 1, UnitPrice: decimal.NewFromInt(1500)}
	zero := 0

	cases := []struct {
		name string
		cart Cart
		ok   bool
	}{
		{"valid", Cart{Items: []CartItem{item}}, true},
		{"free item", Cart{Items: []CartItem{{ProductID: "P1", Name: "Water", Quantity: 1}}}, true},
		{"empty", Cart{}, false},
		{"no product", Cart{Items: []CartItem{{Name: "x", Quantity: 1}}}, false},
		{"no name", Cart{Items: []CartItem{{ProductID: "P1", Quantity: 1}}}, false},
		{"zero qty", Cart{Items: []CartItem{{ProductID: "P1", Name: "x"}}}, false},
		{"negative price", Cart{Items: []CartItem{{ProductID: "P1", Name: "x", Quantity: 1, UnitPrice: decimal.NewFromInt(-1)}}}, false},
		{"bad table", Cart{Items: []CartItem{item}, TableNumber: &zero}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cart.Validate()
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidCart)
		})
	}
}

func TestValidatePayments(t *testing.T) {
	assert.ErrorIs(t, ValidatePayments(nil), ErrInvalidPayment)
	assert.ErrorIs(t, ValidatePayments([]PaymentInput{{Method: "CHEQUE", Amount: decimal.NewFromInt(1)}}), ErrInvalidPayment)
	assert.ErrorIs(t, ValidatePayments([]PaymentInput{{Method: PaymentCash}}), ErrInvalidPayment)
	assert.NoError(t, ValidatePayments([]PaymentInput{
		{Method: PaymentCash, Amount: decimal.NewFromInt(1000)},
		{Method: PaymentCard, Amount: decimal.NewFromInt(2000)},
	}))
}

func TestOrderProfitAndPaid(t *testing.T) {
	o := Order{
		Items: []OrderItem{
			{Price: decimal.NewFromInt(1500), CostPrice: decimal.NewFromInt(1200), Quantity: 2},
			{Price: decimal.NewFromInt(500), CostPrice: decimal.NewFromInt(100), Quantity: 1},
		},
		Payments: []Payment{{Amount: decimal.NewFromInt(3000)}, {Amount: decimal.NewFromInt(500)}},
	}
	assert.True(t, o.Profit().Equal(decimal.NewFromInt(1000)))
	assert.True(t, o.Paid().Equal(decimal.NewFromInt(3500)))
}

func TestStatusTransitions(t *testing.T) {
	assert.True(t, CanTransition(StatusPending, StatusCompleted))
	assert.False(t, CanTransition(StatusCompleted, StatusPending))
	assert.False(t, CanTransition(StatusCompleted, StatusCompleted))
}
