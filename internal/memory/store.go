// Package memory is an in-process orders.Store. It backs tests and local
// runs without POSTGRES_DSN. One mutex serialises transactions; each one
// works on a staged copy that replaces the live state only on success.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/ariefcatur/go-pos-orders/internal/ledger"
	"github.com/ariefcatur/go-pos-orders/internal/orders"
	"github.com/shopspring/decimal"
)

type state struct {
	products  map[string]orders.Product
	orders    map[string]orders.Order
	numbers   map[string]string // number -> order id
	movements []ledger.Movement
}

func (s *state) clone() *state {
	c := &state{
		products:  make(map[string]orders.Product, len(s.products)),
		orders:    make(map[string]orders.Order, len(s.orders)),
		numbers:   make(map[string]string, len(s.numbers)),
		movements: slices.Clone(s.movements),
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.numbers {
		c.numbers[k] = v
	}
	return c
}

type Store struct {
	mu sync.Mutex
	st *state
}

func New() *Store {
	return &Store{st: &state{
		products: map[string]orders.Product{},
		orders:   map[string]orders.Order{},
		numbers:  map[string]string{},
	}}
}

// PutProduct inserts a product or updates its catalogue fields. Stock of an
// existing product only moves through movements; a new product with stock
// gets an INITIAL one so the ledger reconciles from zero.
func (s *Store) PutProduct(ctx context.Context, p orders.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	existing, ok := s.st.products[p.ID]
	if ok {
		p.CreatedAt = existing.CreatedAt
		p.Stock = existing.Stock
	} else {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	s.st.products[p.ID] = p

	if !ok && p.Stock > 0 {
		tx := &tx{st: s.st}
		if _, err := ledger.Append(ctx, tx, ledger.Entry{ProductID: p.ID, Delta: p.Stock, Reason: ledger.ReasonInitial}, now); err != nil {
			return err
		}
	}
	return nil
}

// SetCostPrice changes a product's current cost; sold items keep theirs.
func (s *Store) SetCostPrice(_ context.Context, productID string, cost decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.st.products[productID]
	if !ok {
		return orders.ErrProductNotFound
	}
	p.CostPrice = cost
	p.UpdatedAt = time.Now().UTC()
	s.st.products[productID] = p
	return nil
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx orders.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	staged := s.st.clone()
	if err := fn(ctx, &tx{st: staged}); err != nil {
		return err
	}
	// a deadline that passed mid-transaction still aborts it
	if err := ctx.Err(); err != nil {
		return err
	}
	s.st = staged
	return nil
}

func (s *Store) GetOrder(_ context.Context, id string) (*orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.st.orders[id]
	if !ok {
		return nil, orders.ErrNotFound
	}
	return copyOrder(o), nil
}

func (s *Store) ListOrders(_ context.Context, status orders.Status, limit int) ([]orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]orders.Order, 0, len(s.st.orders))
	for _, o := range s.st.orders {
		if status != "" && o.Status != status {
			continue
		}
		out = append(out, *copyOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) GetProduct(_ context.Context, id string) (*orders.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.st.products[id]
	if !ok {
		return nil, orders.ErrProductNotFound
	}
	return &p, nil
}

func (s *Store) ListProducts(_ context.Context) ([]orders.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]orders.Product, 0, len(s.st.products))
	for _, p := range s.st.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) ListMovements(_ context.Context, productID string, limit int) ([]ledger.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ledger.Movement, 0)
	for i := len(s.st.movements) - 1; i >= 0; i-- {
		m := s.st.movements[i]
		if productID != "" && m.ProductID != productID {
			continue
		}
		out = append(out, m)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

type tx struct {
	st *state
}

func (t *tx) ProductCosts(_ context.Context, ids []string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(ids))
	for _, id := range ids {
		if p, ok := t.st.products[id]; ok {
			out[id] = p.CostPrice
		}
	}
	return out, nil
}

func (t *tx) InsertOrder(_ context.Context, o *orders.Order) error {
	if _, ok := t.st.orders[o.ID]; ok {
		return fmt.Errorf("order %s already exists", o.ID)
	}
	if _, ok := t.st.numbers[o.Number]; ok {
		return fmt.Errorf("%w: %s", orders.ErrDuplicateNumber, o.Number)
	}
	t.st.orders[o.ID] = *copyOrder(*o)
	t.st.numbers[o.Number] = o.ID
	return nil
}

func (t *tx) InsertPayments(_ context.Context, orderID string, ps []orders.Payment) error {
	o, ok := t.st.orders[orderID]
	if !ok {
		return orders.ErrNotFound
	}
	o.Payments = append(slices.Clone(o.Payments), ps...)
	t.st.orders[orderID] = o
	return nil
}

func (t *tx) CompletePending(_ context.Context, orderID string, at time.Time) (*orders.Order, error) {
	o, ok := t.st.orders[orderID]
	if !ok {
		return nil, orders.ErrNotFound
	}
	if !orders.CanTransition(o.Status, orders.StatusCompleted) {
		return nil, orders.ErrAlreadyFinalized
	}
	o.Status = orders.StatusCompleted
	o.CompletedAt = &at
	t.st.orders[orderID] = o
	return copyOrder(o), nil
}

func (t *tx) AdjustStock(_ context.Context, productID string, delta int) (int, bool, error) {
	p, ok := t.st.products[productID]
	if !ok {
		return 0, false, nil
	}
	if p.Stock+delta < 0 {
		return p.Stock, false, nil
	}
	p.Stock += delta
	p.UpdatedAt = time.Now().UTC()
	t.st.products[productID] = p
	return p.Stock, true, nil
}

func (t *tx) AppendMovement(_ context.Context, m ledger.Movement) error {
	t.st.movements = append(t.st.movements, m)
	return nil
}

func copyOrder(o orders.Order) *orders.Order {
	o.Items = slices.Clone(o.Items)
	o.Payments = slices.Clone(o.Payments)
	if o.Items == nil {
		o.Items = []orders.OrderItem{}
	}
	if o.Payments == nil {
		o.Payments = []orders.Payment{}
	}
	return &o
}
