package postgres

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ariefcatur/go-pos-orders/internal/ledger"
	"github.com/ariefcatur/go-pos-orders/internal/orders"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These run against a real database and are skipped without POSTGRES_DSN.
func testStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_DSN not set")
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()
	pool, err := Connect(ctx, dsn, log)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, Migrate(ctx, pool))
	return NewStore(pool, log)
}

func testProduct(t *testing.T, s *Store, stock int) string {
	t.Helper()
	id := "test-" + uuid.NewString()
	require.NoError(t, s.PutProduct(context.Background(), orders.Product{
		ID: id, Name: "Burger", Price: decimal.NewFromInt(1500), CostPrice: decimal.NewFromInt(1200), Stock: stock,
	}))
	return id
}

func TestStoreBurgerCheckout(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	pid := testProduct(t, s, 10)
	c := orders.NewCommitter(s, nil, nil, orders.Options{})

	o, err := c.CreateAndFinalize(ctx, orders.Actor{UserID: "u-1"}, orders.Cart{Items: []orders.CartItem{
		{ProductID: pid, Name: "Burger", Quantity: 2, UnitPrice: decimal.NewFromInt(1500)},
	}}, []orders.PaymentInput{{Method: orders.PaymentCash, Amount: decimal.NewFromInt(3000)}})
	require.NoError(t, err)

	stored, err := s.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusCompleted, stored.Status)
	assert.True(t, stored.Total.Equal(decimal.NewFromInt(3000)))
	require.Len(t, stored.Items, 1)
	assert.True(t, stored.Items[0].CostPrice.Equal(decimal.NewFromInt(1200)))
	assert.Len(t, stored.Payments, 1)

	p, err := s.GetProduct(ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, 8, p.Stock)

	ms, err := s.ListMovements(ctx, pid, 0)
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, ledger.ReasonSale, ms[0].Reason)
	assert.NoError(t, ledger.Reconcile(0, p.Stock, ms))
}

func TestStoreKeepsCartLineOrder(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	pid := testProduct(t, s, 10)
	c := orders.NewCommitter(s, nil, nil, orders.Options{})

	names := []string{"Burger", "Burger extra cheese", "Burger no onion", "Burger well done", "Burger kids"}
	cart := orders.Cart{}
	for _, n := range names {
		cart.Items = append(cart.Items, orders.CartItem{ProductID: pid, Name: n, Quantity: 1, UnitPrice: decimal.NewFromInt(1500)})
	}
	o, err := c.Hold(ctx, orders.Actor{UserID: "u-1"}, cart)
	require.NoError(t, err)

	stored, err := s.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	got := make([]string, 0, len(stored.Items))
	for _, it := range stored.Items {
		got = append(got, it.Name)
	}
	assert.Equal(t, names, got)

	done, err := c.Finalize(ctx, orders.Actor{UserID: "u-1"}, o.ID, []orders.PaymentInput{
		{Method: orders.PaymentCard, Amount: decimal.NewFromInt(5000)},
		{Method: orders.PaymentCash, Amount: decimal.NewFromInt(2500)},
	})
	require.NoError(t, err)
	stored, err = s.GetOrder(ctx, done.ID)
	require.NoError(t, err)
	require.Len(t, stored.Payments, 2)
	assert.Equal(t, orders.PaymentCard, stored.Payments[0].Method)
	assert.Equal(t, orders.PaymentCash, stored.Payments[1].Method)
}

func TestStoreGuardedDecrement(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	pid := testProduct(t, s, 1)

	err := s.WithTx(ctx, func(ctx context.Context, tx orders.Tx) error {
		stock, ok, err := tx.AdjustStock(ctx, pid, -2)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, 1, stock)

		_, ok, err = tx.AdjustStock(ctx, "missing-"+uuid.NewString(), -1)
		require.NoError(t, err)
		assert.False(t, ok)
		return nil
	})
	require.NoError(t, err)
}

func TestStoreConcurrentFinalize(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	pid := testProduct(t, s, 10)
	c := orders.NewCommitter(s, nil, nil, orders.Options{})
	actor := orders.Actor{UserID: "u-1"}

	held, err := c.Hold(ctx, actor, orders.Cart{Items: []orders.CartItem{
		{ProductID: pid, Name: "Burger", Quantity: 1, UnitPrice: decimal.NewFromInt(1500)},
	}})
	require.NoError(t, err)

	var ok, already atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Finalize(ctx, actor, held.ID, []orders.PaymentInput{{Method: orders.PaymentCard, Amount: decimal.NewFromInt(1500)}})
			if err == nil {
				ok.Add(1)
			} else if errors.Is(err, orders.ErrAlreadyFinalized) {
				already.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, ok.Load())
	assert.EqualValues(t, 7, already.Load())
	p, err := s.GetProduct(ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, 9, p.Stock)
}

func TestStoreDuplicateNumber(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	number := "ORD-TEST-" + uuid.NewString()

	insert := func() error {
		return s.WithTx(ctx, func(ctx context.Context, tx orders.Tx) error {
			return tx.InsertOrder(ctx, &orders.Order{
				ID: uuid.NewString(), Number: number, Status: orders.StatusPending, Source: orders.SourceStaff,
				Subtotal: decimal.Zero, Tax: decimal.Zero, Total: decimal.Zero,
			})
		})
	}
	require.NoError(t, insert())
	assert.ErrorIs(t, insert(), orders.ErrDuplicateNumber)
}
